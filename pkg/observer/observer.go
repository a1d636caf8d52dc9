// Package observer implements fan-out notification of secret lifecycle
// events to registered listeners: metrics, stats, and outbound webhooks.
package observer

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hakanai/hakanai/pkg/secret"
)

// UserType distinguishes the credential class a secret event is attributed to.
type UserType string

const (
	UserTypeAnonymous     UserType = "anonymous"
	UserTypeAuthenticated UserType = "authenticated"
	UserTypeAdmin         UserType = "admin"
	UserTypeWhitelisted   UserType = "whitelisted"
)

// SecretEventContext carries metadata about a lifecycle event alongside the
// secret id.
type SecretEventContext struct {
	TTL          time.Duration
	Headers      http.Header
	UserType     UserType
	Restrictions *secret.Restrictions
	Size         int
}

// NewSecretEventContext creates a context wrapping the given headers.
func NewSecretEventContext(headers http.Header) SecretEventContext {
	return SecretEventContext{Headers: headers}
}

// WithUserType attaches the credential class, returning the context for chaining.
func (c SecretEventContext) WithUserType(ut UserType) SecretEventContext {
	c.UserType = ut
	return c
}

// WithRestrictions attaches the restriction record, returning the context for chaining.
func (c SecretEventContext) WithRestrictions(r *secret.Restrictions) SecretEventContext {
	c.Restrictions = r
	return c
}

// WithTTL attaches the secret's TTL, returning the context for chaining.
func (c SecretEventContext) WithTTL(ttl time.Duration) SecretEventContext {
	c.TTL = ttl
	return c
}

// WithSize attaches the ciphertext size in bytes, returning the context for chaining.
func (c SecretEventContext) WithSize(size int) SecretEventContext {
	c.Size = size
	return c
}

// SecretObserver is notified of secret lifecycle events. Implementations
// must not block the caller for long or panic; the manager calls them
// synchronously, one after another, so any network I/O belongs on a
// goroutine of the observer's own.
type SecretObserver interface {
	OnSecretCreated(ctx context.Context, secretID uuid.UUID, eventCtx SecretEventContext)
	OnSecretRetrieved(ctx context.Context, secretID uuid.UUID, eventCtx SecretEventContext)
}
