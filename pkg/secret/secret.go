// Package secret implements the pop-once ciphertext store: the core
// one-shot storage primitive secrets are built on.
package secret

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PopResult is the outcome of an atomic pop operation.
type PopResult int

const (
	// NotFound means the id never existed, or it existed and expired
	// before being read. The two cases are indistinguishable by design.
	NotFound PopResult = iota
	// Found means the ciphertext was retrieved and has now been consumed.
	Found
	// AlreadyAccessed means a tombstone exists: the id was consumed by an
	// earlier retrieval.
	AlreadyAccessed
)

func (r PopResult) String() string {
	switch r {
	case Found:
		return "found"
	case AlreadyAccessed:
		return "already_accessed"
	default:
		return "not_found"
	}
}

// ErrNotHealthy is returned by IsHealthy when the backend is unreachable.
var ErrNotHealthy = errors.New("secret store backend unreachable")

// PopOutcome carries the result of Pop plus the ciphertext when Found.
type PopOutcome struct {
	Result     PopResult
	Ciphertext string
}

// Store is the persistence contract for secret ciphertext, sibling
// restrictions, and pop-once tombstones.
type Store interface {
	// Put persists ciphertext under a fresh id with the given TTL.
	Put(ctx context.Context, id uuid.UUID, ciphertext string, ttl time.Duration) error

	// Pop atomically retrieves and removes the ciphertext for id. On a hit
	// it writes a tombstone (using the store's configured ceiling TTL)
	// before returning.
	Pop(ctx context.Context, id uuid.UUID) (PopOutcome, error)

	// SetRestrictions persists the restriction record alongside id, same TTL
	// as the secret itself.
	SetRestrictions(ctx context.Context, id uuid.UUID, r Restrictions, ttl time.Duration) error

	// GetRestrictions loads the restriction record for id, if any.
	GetRestrictions(ctx context.Context, id uuid.UUID) (*Restrictions, error)

	// DeleteRestrictions removes the restriction record for id. Used for
	// best-effort rollback when Put fails after SetRestrictions succeeded.
	DeleteRestrictions(ctx context.Context, id uuid.UUID) error

	// IsHealthy probes backend reachability.
	IsHealthy(ctx context.Context) error

	// ActiveSecretCount returns an approximate count of live secrets, for
	// the operational gauge. Not on any request path.
	ActiveSecretCount(ctx context.Context) (int, error)
}
