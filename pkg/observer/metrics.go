package observer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hakanai/hakanai/internal/telemetry"
)

// MetricsObserver records Prometheus metrics for secret lifecycle events.
type MetricsObserver struct {
	created            *prometheus.CounterVec
	retrieved          *prometheus.CounterVec
	withRestrictions   *prometheus.CounterVec
	sizeBytes          *prometheus.HistogramVec
	ttlSeconds         *prometheus.HistogramVec
}

// NewMetricsObserver creates a MetricsObserver wired to the package-level
// hakanai metrics.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		created:          telemetry.SecretsCreatedTotal,
		retrieved:        telemetry.SecretsRetrievedTotal,
		withRestrictions: telemetry.SecretsWithRestrictionsTotal,
		sizeBytes:        telemetry.SecretSizeBytes,
		ttlSeconds:       telemetry.SecretTTLSeconds,
	}
}

func userTypeLabel(ut UserType) string {
	if ut == "" {
		return "unknown"
	}
	return string(ut)
}

func (o *MetricsObserver) OnSecretCreated(_ context.Context, _ uuid.UUID, eventCtx SecretEventContext) {
	label := userTypeLabel(eventCtx.UserType)

	if eventCtx.Size > 0 {
		o.sizeBytes.WithLabelValues(label).Observe(float64(eventCtx.Size))
	}
	if eventCtx.TTL > 0 {
		o.ttlSeconds.WithLabelValues(label).Observe(eventCtx.TTL.Seconds())
	}
	o.created.WithLabelValues(label).Inc()

	if eventCtx.Restrictions != nil && !eventCtx.Restrictions.IsEmpty() {
		bitfield := telemetry.RestrictionBitfield(
			len(eventCtx.Restrictions.AllowedIPs) > 0,
			len(eventCtx.Restrictions.AllowedCountries) > 0,
			len(eventCtx.Restrictions.AllowedASNs) > 0,
			eventCtx.Restrictions.PassphraseHash != nil,
		)
		o.withRestrictions.WithLabelValues(fmt.Sprintf("%d", bitfield)).Inc()
	}
}

func (o *MetricsObserver) OnSecretRetrieved(_ context.Context, _ uuid.UUID, _ SecretEventContext) {
	// user_type isn't known at retrieval time: retrieval is anonymous by design.
	o.retrieved.WithLabelValues("unknown").Inc()
}
