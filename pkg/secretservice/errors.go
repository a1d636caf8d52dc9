package secretservice

import "errors"

// Sentinel errors mapped to HTTP status codes by the transport layer.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("authorization required")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrGone           = errors.New("secret already accessed")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrRateLimited    = errors.New("too many attempts")
)
