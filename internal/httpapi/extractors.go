package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// bearerToken extracts the raw token from an "Authorization: Bearer <token>"
// header. Returns "", false if the header is absent or malformed.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	raw := strings.TrimSpace(auth[len(prefix):])
	if raw == "" {
		return "", false
	}
	return raw, true
}

// errBodyTooLarge is returned by sizeLimitedBody when the streamed body
// exceeds the caller-supplied cap.
var errBodyTooLarge = errors.New("request body exceeds the allowed upload size")

// sizeLimitedBody reads r.Body in fixed-size chunks, aborting as soon as the
// running total exceeds limit rather than buffering the full body first.
// Only a fully-captured body is ever handed to the JSON decoder.
func sizeLimitedBody(r *http.Request, limit uint64) ([]byte, error) {
	const chunkSize = 32 * 1024

	buf := make([]byte, 0, chunkSize)
	chunk := make([]byte, chunkSize)
	var total uint64

	for {
		n, err := r.Body.Read(chunk)
		if n > 0 {
			total += uint64(n)
			if total > limit {
				return nil, errBodyTooLarge
			}
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				return buf, nil
			}
			return nil, fmt.Errorf("reading request body: %w", err)
		}
	}
}
