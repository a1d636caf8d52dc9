package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
)

// DefaultUserTokenTTL is the lifetime given to the bootstrap default token,
// mirroring the original one-year default.
const DefaultUserTokenTTL = 365 * 24 * time.Hour

// Manager issues, hashes, and validates tokens against a Store.
type Manager struct {
	store Store
}

// NewManager creates a Manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// HashToken returns the lowercase hex SHA-256 of a raw token string. Tokens
// are never stored or compared in their raw form.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// generateToken returns a 32-byte cryptographically random token, URL-safe
// base64 encoded without padding.
func generateToken() (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generating random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}

// CreateDefaultTokenIfNone issues a default user token only when the store
// holds none, returning "" if one already existed.
func (m *Manager) CreateDefaultTokenIfNone(ctx context.Context) (string, error) {
	count, err := m.store.UserTokenCount(ctx)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}
	return m.CreateDefaultToken(ctx)
}

// CreateDefaultToken always issues a fresh default user token.
func (m *Manager) CreateDefaultToken(ctx context.Context) (string, error) {
	return m.CreateUserToken(ctx, Data{}, DefaultUserTokenTTL)
}

// CreateUserToken issues a new user token with the given metadata and TTL.
func (m *Manager) CreateUserToken(ctx context.Context, data Data, ttl time.Duration) (string, error) {
	raw, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := m.store.StoreToken(ctx, HashToken(raw), ttl, data); err != nil {
		return "", err
	}
	return raw, nil
}

// ResetUserTokens clears every stored user token and issues a fresh default.
func (m *Manager) ResetUserTokens(ctx context.Context) (string, error) {
	if err := m.store.ClearAllUserTokens(ctx); err != nil {
		return "", err
	}
	return m.CreateDefaultToken(ctx)
}

// CreateAdminTokenIfNone issues an admin token only if none exists yet,
// returning "" if one already existed.
func (m *Manager) CreateAdminTokenIfNone(ctx context.Context) (string, error) {
	exists, err := m.store.AdminTokenExists(ctx)
	if err != nil {
		return "", err
	}
	if exists {
		return "", nil
	}
	return m.CreateAdminToken(ctx)
}

// CreateAdminToken always issues and stores a fresh admin token.
func (m *Manager) CreateAdminToken(ctx context.Context) (string, error) {
	raw, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := m.store.StoreAdminToken(ctx, HashToken(raw)); err != nil {
		return "", err
	}
	return raw, nil
}

// ValidateUserToken hashes raw and looks it up, returning ErrInvalidToken on
// a miss.
func (m *Manager) ValidateUserToken(ctx context.Context, raw string) (Data, error) {
	data, err := m.store.GetToken(ctx, HashToken(raw))
	if err != nil {
		return Data{}, err
	}
	if data == nil {
		return Data{}, ErrInvalidToken
	}
	return *data, nil
}

// ValidateAdminToken hashes raw and compares it against the stored admin
// token hash in constant time.
func (m *Manager) ValidateAdminToken(ctx context.Context, raw string) error {
	stored, ok, err := m.store.GetAdminToken(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidToken
	}
	candidate := HashToken(raw)
	if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) != 1 {
		return ErrInvalidToken
	}
	return nil
}
