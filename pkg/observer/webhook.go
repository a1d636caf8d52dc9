package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var safeHeaders = map[string]bool{
	"user-agent":        true,
	"x-forwarded-for":   true,
	"x-forwarded-proto": true,
	"x-real-ip":         true,
	"x-request-id":      true,
}

// WebhookAction names the lifecycle event that triggered a webhook.
type WebhookAction string

const (
	WebhookActionCreated   WebhookAction = "created"
	WebhookActionRetrieved WebhookAction = "retrieved"
)

// WebhookPayload is the JSON body POSTed to the configured webhook URL.
type WebhookPayload struct {
	SecretID uuid.UUID         `json:"secret_id"`
	Action   WebhookAction     `json:"action"`
	Headers  map[string]string `json:"headers"`
}

// WebhookObserver notifies an external HTTP endpoint of secret lifecycle
// events. Delivery failures are logged and never propagated to the caller.
type WebhookObserver struct {
	url        string
	authToken  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookObserver creates a WebhookObserver posting to url, optionally
// bearer-authenticated with authToken.
func NewWebhookObserver(url, authToken string, logger *slog.Logger) *WebhookObserver {
	return &WebhookObserver{
		url:       url,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func (w *WebhookObserver) OnSecretCreated(ctx context.Context, secretID uuid.UUID, eventCtx SecretEventContext) {
	w.send(ctx, WebhookPayload{
		SecretID: secretID,
		Action:   WebhookActionCreated,
		Headers:  filterHeaders(eventCtx.Headers),
	})
}

func (w *WebhookObserver) OnSecretRetrieved(ctx context.Context, secretID uuid.UUID, eventCtx SecretEventContext) {
	w.send(ctx, WebhookPayload{
		SecretID: secretID,
		Action:   WebhookActionRetrieved,
		Headers:  filterHeaders(eventCtx.Headers),
	})
}

func (w *WebhookObserver) send(_ context.Context, payload WebhookPayload) {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		body, err := json.Marshal(payload)
		if err != nil {
			w.logger.Warn("marshaling webhook payload", "error", err)
			return
		}

		req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			w.logger.Warn("building webhook request", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if w.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+w.authToken)
		}

		resp, err := w.httpClient.Do(req)
		if err != nil {
			w.logger.Warn("webhook delivery failed", "error", err)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 400 {
			w.logger.Warn("webhook rejected", "status", resp.StatusCode)
		}
	}()
}

func filterHeaders(headers http.Header) map[string]string {
	filtered := make(map[string]string)
	if headers == nil {
		return filtered
	}
	for key, values := range headers {
		lower := strings.ToLower(key)
		if safeHeaders[lower] && len(values) > 0 {
			filtered[lower] = values[0]
		}
	}
	return filtered
}
