// Package stats records per-secret, non-sensitive lifecycle statistics:
// when a secret was created and, if ever, when it was retrieved.
package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SecretStats describes the lifecycle of a single secret. No ciphertext or
// other sensitive data is ever recorded here.
type SecretStats struct {
	CreatedAt   time.Time  `json:"created_at"`
	TTL         time.Duration `json:"ttl"`
	RetrievedAt *time.Time `json:"retrieved_at,omitempty"`
}

// NewSecretStats stamps a freshly created secret's statistics.
func NewSecretStats(ttl time.Duration) SecretStats {
	return SecretStats{CreatedAt: time.Now().UTC(), TTL: ttl}
}

// Lifetime returns how long the secret lived between creation and
// retrieval. Returns 0, false if it hasn't been retrieved yet.
func (s SecretStats) Lifetime() (time.Duration, bool) {
	if s.RetrievedAt == nil {
		return 0, false
	}
	d := s.RetrievedAt.Sub(s.CreatedAt)
	if d < 0 {
		d = 0
	}
	return d, true
}

// Store is the persistence contract for per-secret statistics.
type Store interface {
	// StoreStats persists stats for secretID with the store's configured TTL.
	StoreStats(ctx context.Context, secretID uuid.UUID, stats SecretStats) error

	// UpdateRetrievedAt stamps the retrieval time on an existing record, a
	// no-op if no record exists.
	UpdateRetrievedAt(ctx context.Context, secretID uuid.UUID) error

	// RetrieveStats loads the record for secretID, nil if absent.
	RetrieveStats(ctx context.Context, secretID uuid.UUID) (*SecretStats, error)
}
