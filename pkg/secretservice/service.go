package secretservice

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hakanai/hakanai/pkg/observer"
	"github.com/hakanai/hakanai/pkg/secret"
)

// CreateRequest is the input to Create.
type CreateRequest struct {
	Ciphertext   string
	ExpiresIn    time.Duration
	Restrictions *secret.Restrictions
	User         User
	Headers      http.Header
}

// RetrieveRequest is the input to Retrieve.
type RetrieveRequest struct {
	ID               uuid.UUID
	ClientIP         net.IP
	CountryHeader    string
	ASNHeader        string
	PassphraseHeader string
	Headers          http.Header
}

// Service orchestrates the create and retrieve lifecycle of a secret.
type Service struct {
	store         secret.Store
	observers     *observer.Manager
	maxTTL        time.Duration
	anonymousCap  uint64
	logger        *slog.Logger
}

// NewService creates a Service.
func NewService(store secret.Store, observers *observer.Manager, maxTTL time.Duration, anonymousCap uint64, logger *slog.Logger) *Service {
	return &Service{
		store:        store,
		observers:    observers,
		maxTTL:       maxTTL,
		anonymousCap: anonymousCap,
		logger:       logger,
	}
}

// Create validates, persists, and announces a new secret. Returns the
// freshly minted id.
func (s *Service) Create(ctx context.Context, req CreateRequest) (uuid.UUID, error) {
	if err := ValidateTTL(req.ExpiresIn, s.maxTTL); err != nil {
		return uuid.Nil, err
	}
	if err := ValidateSize(req.User, len(req.Ciphertext), s.anonymousCap); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()

	if req.Restrictions != nil && !req.Restrictions.IsEmpty() {
		if err := s.store.SetRestrictions(ctx, id, *req.Restrictions, req.ExpiresIn); err != nil {
			return uuid.Nil, fmt.Errorf("storing restrictions: %w", err)
		}
	}

	if err := s.store.Put(ctx, id, req.Ciphertext, req.ExpiresIn); err != nil {
		if req.Restrictions != nil && !req.Restrictions.IsEmpty() {
			if delErr := s.store.DeleteRestrictions(context.Background(), id); delErr != nil {
				s.logger.Error("rollback: deleting orphaned restrictions", "id", id, "error", delErr)
			}
		}
		return uuid.Nil, fmt.Errorf("storing secret: %w", err)
	}

	eventCtx := observer.NewSecretEventContext(req.Headers).
		WithUserType(req.User.Type).
		WithTTL(req.ExpiresIn).
		WithSize(len(req.Ciphertext))
	if req.Restrictions != nil {
		eventCtx = eventCtx.WithRestrictions(req.Restrictions)
	}
	go s.observers.NotifySecretCreated(context.Background(), id, eventCtx)

	return id, nil
}

// Retrieve checks receive-time restrictions, pops the secret, and announces
// the retrieval.
func (s *Service) Retrieve(ctx context.Context, req RetrieveRequest) (string, error) {
	restrictions, err := s.store.GetRestrictions(ctx, req.ID)
	if err != nil {
		return "", fmt.Errorf("loading restrictions: %w", err)
	}

	if err := CheckReceiveTimeRestrictions(restrictions, req.ClientIP, req.CountryHeader, req.ASNHeader, req.PassphraseHeader); err != nil {
		return "", err
	}

	outcome, err := s.store.Pop(ctx, req.ID)
	if err != nil {
		return "", fmt.Errorf("popping secret: %w", err)
	}

	switch outcome.Result {
	case secret.Found:
		eventCtx := observer.NewSecretEventContext(req.Headers)
		if restrictions != nil {
			eventCtx = eventCtx.WithRestrictions(restrictions)
		}
		go s.observers.NotifySecretRetrieved(context.Background(), req.ID, eventCtx)
		return outcome.Ciphertext, nil
	case secret.AlreadyAccessed:
		return "", ErrGone
	default:
		return "", ErrNotFound
	}
}
