// Package secretservice orchestrates the create/retrieve lifecycle of a
// secret: validation, storage, and observer notification.
package secretservice

import (
	"github.com/hakanai/hakanai/pkg/observer"
	"github.com/hakanai/hakanai/pkg/token"
)

// User describes the credential identity behind a create request.
type User struct {
	Type            observer.UserType
	UploadSizeLimit *int64
}

// AnonymousUser is the identity used when no token is presented and
// anonymous usage is permitted.
func AnonymousUser() User {
	return User{Type: observer.UserTypeAnonymous}
}

// AuthenticatedUser wraps validated token data into a User.
func AuthenticatedUser(data token.Data) User {
	return User{Type: observer.UserTypeAuthenticated, UploadSizeLimit: data.UploadSizeLimit}
}

// AdminUser is the identity used for admin-only endpoints.
func AdminUser() User {
	return User{Type: observer.UserTypeAdmin}
}

// WhitelistedUser is the identity granted to a credential-free request
// originating from a configured trusted IP range. It carries no
// UploadSizeLimit of its own, so its enforced cap falls back to the
// server-wide ceiling rather than the anonymous cap.
func WhitelistedUser() User {
	return User{Type: observer.UserTypeWhitelisted}
}
