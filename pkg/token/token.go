// Package token implements user and admin token issuance, hashing, and
// validation: the credential layer secrets are gated behind.
package token

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidToken is returned when a presented token doesn't match any
// stored hash, or has expired.
var ErrInvalidToken = errors.New("invalid token")

// Data is the metadata stored alongside a user token's hash.
type Data struct {
	// UploadSizeLimit overrides the anonymous/default upload size limit for
	// requests authenticated with this token. Nil means no override.
	UploadSizeLimit *int64 `json:"upload_size_limit,omitempty"`
	// OneTime marks the token for deletion immediately after its first
	// successful use.
	OneTime bool `json:"one_time,omitempty"`
}

// WithUploadSizeLimit sets an upload size override.
func (d Data) WithUploadSizeLimit(limit int64) Data {
	d.UploadSizeLimit = &limit
	return d
}

// WithOneTime marks the token one-time-use.
func (d Data) WithOneTime() Data {
	d.OneTime = true
	return d
}

// Store is the persistence contract for token hashes and their metadata.
type Store interface {
	// GetToken loads metadata for token_hash, deleting it right after loading
	// if it is marked one-time. Returns nil, nil if not found.
	GetToken(ctx context.Context, tokenHash string) (*Data, error)

	// StoreToken persists token_hash with the given TTL and metadata.
	StoreToken(ctx context.Context, tokenHash string, ttl time.Duration, data Data) error

	// ClearAllUserTokens deletes every stored user token.
	ClearAllUserTokens(ctx context.Context) error

	// AdminTokenExists reports whether an admin token hash is stored.
	AdminTokenExists(ctx context.Context) (bool, error)

	// GetAdminToken loads the stored admin token hash, if any.
	GetAdminToken(ctx context.Context) (string, bool, error)

	// StoreAdminToken overwrites the stored admin token hash.
	StoreAdminToken(ctx context.Context, tokenHash string) error

	// UserTokenCount counts stored user tokens.
	UserTokenCount(ctx context.Context) (int, error)
}
