// Package httpapi maps the hakanai HTTP surface onto pkg/secretservice and
// pkg/token: request decoding, credential extraction, and status-code
// mapping for the create/retrieve/admin-token endpoints.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hakanai/hakanai/internal/audit"
	"github.com/hakanai/hakanai/internal/auth"
	"github.com/hakanai/hakanai/internal/config"
	"github.com/hakanai/hakanai/internal/httpserver"
	"github.com/hakanai/hakanai/internal/telemetry"
	"github.com/hakanai/hakanai/pkg/observer"
	"github.com/hakanai/hakanai/pkg/secret"
	"github.com/hakanai/hakanai/pkg/secretservice"
	"github.com/hakanai/hakanai/pkg/token"
)

// Handler holds the dependencies for the hakanai HTTP surface.
type Handler struct {
	logger      *slog.Logger
	service     *secretservice.Service
	store       secret.Store
	tokens      *token.Manager
	rateLimiter *auth.RateLimiter
	auditWriter *audit.Writer
	auditPool   *pgxpool.Pool
	cfg         *config.Config

	allowAnonymous       bool
	anonymousUploadLimit uint64
	uploadSizeLimit      uint64
	trustedIPNets        []*net.IPNet
	enableAdminToken     bool
	maxTTL               time.Duration
}

// NewHandler creates a Handler. uploadSizeLimit (HAKANAI_UPLOAD_SIZE_LIMIT)
// serves two roles: the server-wide hard ceiling on request body size
// enforced at the transport layer ahead of any per-token or anonymous quota
// (it bounds every request regardless of credential, including tokens with
// no configured upload_size_limit), and the effective cap reported to a
// trusted-IP caller by /config.json. trustedIPNets grants the whitelisted
// identity to credential-free requests originating from one of those ranges.
func NewHandler(
	logger *slog.Logger,
	service *secretservice.Service,
	store secret.Store,
	tokens *token.Manager,
	rateLimiter *auth.RateLimiter,
	auditWriter *audit.Writer,
	auditPool *pgxpool.Pool,
	cfg *config.Config,
	anonymousUploadLimit uint64,
	uploadSizeLimit uint64,
	trustedIPNets []*net.IPNet,
	maxTTL time.Duration,
) *Handler {
	return &Handler{
		logger:               logger,
		service:              service,
		store:                store,
		tokens:               tokens,
		rateLimiter:          rateLimiter,
		auditWriter:          auditWriter,
		auditPool:            auditPool,
		cfg:                  cfg,
		allowAnonymous:       cfg.AllowAnonymous,
		anonymousUploadLimit: anonymousUploadLimit,
		uploadSizeLimit:      uploadSizeLimit,
		trustedIPNets:        trustedIPNets,
		enableAdminToken:     cfg.EnableAdminToken,
		maxTTL:               maxTTL,
	}
}

// isTrustedIP reports whether r's resolved client IP falls within a
// configured trusted range.
func (h *Handler) isTrustedIP(r *http.Request) bool {
	return auth.IsTrustedIP(auth.ClientIP(r, h.cfg.ClientIPHeader), h.trustedIPNets)
}

// MountAPI registers the versioned JSON API under an /api/v1 sub-router.
func (h *Handler) MountAPI(r chi.Router) {
	r.Post("/secret", h.handleCreateSecret)
	r.Get("/secret/{id}", h.handleRetrieveSecret)
	r.Route("/admin", func(r chi.Router) {
		r.Post("/tokens", h.handleCreateToken)
		r.Post("/tokens/reset", h.handleResetTokens)
	})
}

// MountRoot registers the unversioned, unauthenticated surface on the root mux.
func (h *Handler) MountRoot(r chi.Router) {
	r.Get("/s/{id}", h.handleShareSecret)
	r.Get("/healthy", h.handleHealthy)
	r.Get("/ready", h.handleReady)
	r.Get("/config.json", h.handleConfig)
}

type createSecretRequest struct {
	Data         string               `json:"data" validate:"required"`
	ExpiresIn    int64                `json:"expires_in" validate:"required,gt=0"`
	Restrictions *secret.Restrictions `json:"restrictions,omitempty"`
}

type createSecretResponse struct {
	ID string `json:"id"`
}

// resolveUser extracts the credential identity for a create request: a
// bearer token if present, else the whitelisted identity for a trusted
// source IP, else the anonymous identity if permitted. Invalid tokens count
// against the client's credential rate limit.
func (h *Handler) resolveUser(w http.ResponseWriter, r *http.Request) (secretservice.User, bool) {
	ip := auth.ClientIP(r, h.cfg.ClientIPHeader)

	if h.rateLimiter != nil && ip != "" {
		result, err := h.rateLimiter.Check(r.Context(), ip)
		if err != nil {
			h.logger.Error("checking credential rate limit", "error", err)
		} else if !result.Allowed {
			telemetry.CredentialRateLimitedTotal.Inc()
			httpserver.RespondError(w, http.StatusTooManyRequests, "rate_limited", "too many invalid attempts, try again later")
			return secretservice.User{}, false
		}
	}

	raw, ok := bearerToken(r)
	if !ok {
		if h.isTrustedIP(r) {
			return secretservice.WhitelistedUser(), true
		}
		if h.allowAnonymous {
			return secretservice.AnonymousUser(), true
		}
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "a bearer token is required")
		return secretservice.User{}, false
	}

	data, err := h.tokens.ValidateUserToken(r.Context(), raw)
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			if h.rateLimiter != nil && ip != "" {
				_ = h.rateLimiter.Record(r.Context(), ip)
			}
			httpserver.RespondError(w, http.StatusForbidden, "forbidden", "invalid token")
			return secretservice.User{}, false
		}
		h.logger.Error("validating user token", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "could not validate token")
		return secretservice.User{}, false
	}

	if h.rateLimiter != nil && ip != "" {
		_ = h.rateLimiter.Reset(r.Context(), ip)
	}
	return secretservice.AuthenticatedUser(data), true
}

// enforcedCapFor returns the enforced ciphertext-size cap that applies to u,
// for bounding the streaming body read before JSON is even parsed. The
// server-wide upload size limit always applies as an outer ceiling: an
// authenticated token (or a whitelisted caller) without its own
// upload_size_limit is otherwise unlimited, but every request is still
// bounded by the transport-level maximum so a single client cannot exhaust
// server memory.
func (h *Handler) enforcedCapFor(u secretservice.User) uint64 {
	outer := secretservice.EnforcedSizeLimit(h.uploadSizeLimit)

	var userLimit uint64
	switch {
	case u.UploadSizeLimit != nil:
		userLimit = secretservice.EnforcedSizeLimit(uint64(*u.UploadSizeLimit))
	case u.Type == observer.UserTypeAnonymous:
		userLimit = secretservice.EnforcedSizeLimit(h.anonymousUploadLimit)
	default:
		return outer
	}

	if userLimit < outer {
		return userLimit
	}
	return outer
}

func (h *Handler) handleCreateSecret(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	body, err := sizeLimitedBody(r, h.enforcedCapFor(user))
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			httpserver.RespondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
			return
		}
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var req createSecretRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid JSON: "+err.Error())
		return
	}
	if errs := httpserver.Validate(&req); len(errs) > 0 {
		httpserver.RespondValidationError(w, errs)
		return
	}

	id, err := h.service.Create(r.Context(), secretservice.CreateRequest{
		Ciphertext:   req.Data,
		ExpiresIn:    time.Duration(req.ExpiresIn) * time.Second,
		Restrictions: req.Restrictions,
		User:         user,
		Headers:      r.Header,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, createSecretResponse{ID: id.String()})
}

func (h *Handler) handleRetrieveSecret(w http.ResponseWriter, r *http.Request) {
	ciphertext, ok := h.retrieve(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ciphertext))
}

// hakanaiUserAgentPrefix identifies programmatic clients (the CLI and
// compatible tooling) that want raw ciphertext instead of the browser page.
const hakanaiUserAgentPrefix = "hakanai-"

func (h *Handler) handleShareSecret(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.UserAgent(), hakanaiUserAgentPrefix) {
		h.handleRetrieveSecret(w, r)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid secret id")
		return
	}

	// The browser page itself is a static asset outside this component's
	// scope (§1); it is expected to fetch /api/v1/secret/{id} client-side
	// to perform the actual pop. This stub keeps the dispatch contract
	// testable without depending on bundled web assets.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<!doctype html><html><head><title>hakanai</title></head><body data-secret-id="` + id + `"></body></html>`))
}

func (h *Handler) retrieve(w http.ResponseWriter, r *http.Request) (string, bool) {
	rawID := chi.URLParam(r, "id")
	id, err := uuid.Parse(rawID)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid secret id")
		return "", false
	}

	ip := auth.ClientIP(r, h.cfg.ClientIPHeader)

	if h.rateLimiter != nil && ip != "" {
		result, rlErr := h.rateLimiter.Check(r.Context(), ip)
		if rlErr != nil {
			h.logger.Error("checking credential rate limit", "error", rlErr)
		} else if !result.Allowed {
			telemetry.CredentialRateLimitedTotal.Inc()
			httpserver.RespondError(w, http.StatusTooManyRequests, "rate_limited", "too many invalid attempts, try again later")
			return "", false
		}
	}

	req := secretservice.RetrieveRequest{
		ID:               id,
		CountryHeader:    r.Header.Get(h.cfg.CountryHeader),
		ASNHeader:        r.Header.Get(h.cfg.ASNHeader),
		PassphraseHeader: r.Header.Get(secret.PassphraseHeaderName),
		Headers:          r.Header,
	}
	if ip != "" {
		req.ClientIP = net.ParseIP(ip)
	}

	ciphertext, err := h.service.Retrieve(r.Context(), req)
	if err != nil {
		if errors.Is(err, secretservice.ErrForbidden) && h.rateLimiter != nil && ip != "" {
			_ = h.rateLimiter.Record(r.Context(), ip)
		}
		h.respondServiceError(w, err)
		return "", false
	}
	if h.rateLimiter != nil && ip != "" {
		_ = h.rateLimiter.Reset(r.Context(), ip)
	}
	return ciphertext, true
}

type createTokenRequest struct {
	UploadSizeLimit *int64 `json:"upload_size_limit,omitempty" validate:"omitempty,gt=0"`
	TTLSeconds      uint64 `json:"ttl_seconds" validate:"required,gt=0"`
	OneTime         bool   `json:"one_time,omitempty"`
}

type createTokenResponse struct {
	Token string `json:"token"`
}

type tokenAuditDetail struct {
	TTLSeconds      uint64 `json:"ttl_seconds,omitempty"`
	OneTime         bool   `json:"one_time,omitempty"`
	UploadSizeLimit *int64 `json:"upload_size_limit,omitempty"`
}

// requireAdmin validates the Bearer-carried admin token, writing a 401/403
// response and returning false on failure.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !h.enableAdminToken {
		httpserver.RespondError(w, http.StatusForbidden, "forbidden", "admin token support is disabled")
		return false
	}

	raw, ok := bearerToken(r)
	if !ok {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "a bearer token is required")
		return false
	}

	if err := h.tokens.ValidateAdminToken(r.Context(), raw); err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			httpserver.RespondError(w, http.StatusForbidden, "forbidden", "invalid admin token")
			return false
		}
		h.logger.Error("validating admin token", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "could not validate admin token")
		return false
	}
	return true
}

func (h *Handler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req createTokenRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	data := token.Data{}
	if req.UploadSizeLimit != nil {
		data = data.WithUploadSizeLimit(*req.UploadSizeLimit)
	}
	if req.OneTime {
		data = data.WithOneTime()
	}

	raw, err := h.tokens.CreateUserToken(r.Context(), data, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		h.logger.Error("creating user token", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "could not create token")
		return
	}

	if h.auditWriter != nil {
		detail, _ := json.Marshal(tokenAuditDetail{TTLSeconds: req.TTLSeconds, OneTime: req.OneTime, UploadSizeLimit: req.UploadSizeLimit})
		h.auditWriter.LogFromRequest(r, audit.ActionAdminTokenIssued, detail)
	}

	httpserver.Respond(w, http.StatusOK, createTokenResponse{Token: raw})
}

func (h *Handler) handleResetTokens(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	raw, err := h.tokens.ResetUserTokens(r.Context())
	if err != nil {
		h.logger.Error("resetting user tokens", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "could not reset tokens")
		return
	}

	if h.auditWriter != nil {
		h.auditWriter.LogFromRequest(r, audit.ActionUserTokenReset, nil)
	}

	httpserver.Respond(w, http.StatusOK, createTokenResponse{Token: raw})
}

func (h *Handler) handleHealthy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.store.IsHealthy(ctx); err != nil {
		h.logger.Error("health check: secret store unreachable", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "unhealthy", "secret store unreachable")
		return
	}

	if h.auditPool != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.auditPool.Ping(pingCtx); err != nil {
			h.logger.Error("health check: audit database unreachable", "error", err)
			httpserver.RespondError(w, http.StatusInternalServerError, "unhealthy", "audit database unreachable")
			return
		}
	}

	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, _ *http.Request) {
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "ready"})
}

type configResponse struct {
	AllowAnonymous   bool   `json:"allow_anonymous"`
	UploadSizeLimit  uint64 `json:"upload_size_limit"`
	MaxTTLSeconds    int64  `json:"max_ttl_seconds"`
	EnableAdminToken bool   `json:"enable_admin_token"`
}

// handleConfig reports the effective anonymous/credential-free upload size
// limit for the caller: the full limit for a trusted IP, the anonymous cap
// when anonymous usage is allowed, or zero when neither applies (a bearer
// token is required and carries its own limit instead).
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	var limit uint64
	switch {
	case h.isTrustedIP(r):
		limit = h.uploadSizeLimit
	case h.allowAnonymous:
		limit = h.anonymousUploadLimit
	}

	httpserver.Respond(w, http.StatusOK, configResponse{
		AllowAnonymous:   h.allowAnonymous,
		UploadSizeLimit:  limit,
		MaxTTLSeconds:    int64(h.maxTTL.Seconds()),
		EnableAdminToken: h.enableAdminToken,
	})
}

// respondServiceError maps a pkg/secretservice sentinel error to its wire
// status code and a generic message; internal details never reach the client.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, secretservice.ErrInvalidInput):
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid request")
	case errors.Is(err, secretservice.ErrUnauthorized):
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, secretservice.ErrForbidden):
		httpserver.RespondError(w, http.StatusForbidden, "forbidden", "access denied")
	case errors.Is(err, secretservice.ErrGone):
		httpserver.RespondError(w, http.StatusGone, "gone", "secret already accessed")
	case errors.Is(err, secretservice.ErrNotFound):
		httpserver.RespondError(w, http.StatusNotFound, "not_found", "secret not found")
	case errors.Is(err, secretservice.ErrPayloadTooLarge):
		httpserver.RespondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds the allowed size")
	case errors.Is(err, secretservice.ErrRateLimited):
		httpserver.RespondError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
	default:
		h.logger.Error("secret service error", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "an internal error occurred")
	}
}
