package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency by route and status.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "hakanai",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// SecretsCreatedTotal counts successful secret creations by user type.
var SecretsCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "hakanai",
		Subsystem: "secrets",
		Name:      "created_total",
		Help:      "Total number of secrets created, by user type.",
	},
	[]string{"user_type"},
)

// SecretsRetrievedTotal counts successful secret retrievals by user type.
var SecretsRetrievedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "hakanai",
		Subsystem: "secrets",
		Name:      "retrieved_total",
		Help:      "Total number of secrets retrieved, by user type.",
	},
	[]string{"user_type"},
)

// SecretsWithRestrictionsTotal counts created secrets by their restriction
// bitfield (bit0=ip, bit1=country, bit2=asn, bit3=passphrase).
var SecretsWithRestrictionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "hakanai",
		Subsystem: "secrets",
		Name:      "with_restrictions_total",
		Help:      "Total number of secrets created with a given restriction bitfield.",
	},
	[]string{"bitfield"},
)

// SecretSizeBytes is the size distribution of created secrets, by user type.
var SecretSizeBytes = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "hakanai",
		Subsystem: "secrets",
		Name:      "size_bytes",
		Help:      "Size in bytes of created secrets.",
		Buckets:   prometheus.ExponentialBuckets(128, 4, 10),
	},
	[]string{"user_type"},
)

// SecretTTLSeconds is the TTL distribution of created secrets, by user type.
var SecretTTLSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "hakanai",
		Subsystem: "secrets",
		Name:      "ttl_seconds",
		Help:      "Requested TTL in seconds of created secrets.",
		Buckets:   []float64{60, 300, 900, 3600, 21600, 86400, 604800},
	},
	[]string{"user_type"},
)

// CredentialRateLimitedTotal counts requests rejected by the credential rate limiter.
var CredentialRateLimitedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "hakanai",
		Subsystem: "auth",
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the credential attempt rate limiter.",
	},
)

// SecretsActive is a gauge updated periodically from SecretStore.ActiveSecretCount.
var SecretsActive = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "hakanai",
		Subsystem: "secrets",
		Name:      "active",
		Help:      "Approximate number of secrets currently stored and unretrieved.",
	},
)

// SecretsExpiredUnread is a gauge updated periodically from stats aggregation.
var SecretsExpiredUnread = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "hakanai",
		Subsystem: "secrets",
		Name:      "expired_unread",
		Help:      "Approximate number of secrets that expired without ever being retrieved.",
	},
)

// All returns all hakanai-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		SecretsCreatedTotal,
		SecretsRetrievedTotal,
		SecretsWithRestrictionsTotal,
		SecretSizeBytes,
		SecretTTLSeconds,
		CredentialRateLimitedTotal,
		SecretsActive,
		SecretsExpiredUnread,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process collectors,
// the shared HTTPRequestDuration metric, and any additional collectors passed in.
func NewMetricsRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
	)
	for _, c := range extra {
		reg.MustRegister(c)
	}
	return reg
}

// RestrictionBitfield computes the bitfield label value for a restriction set:
// bit0=ip(1), bit1=country(2), bit2=asn(4), bit3=passphrase(8).
func RestrictionBitfield(hasIP, hasCountry, hasASN, hasPassphrase bool) int {
	v := 0
	if hasIP {
		v |= 1
	}
	if hasCountry {
		v |= 2
	}
	if hasASN {
		v |= 4
	}
	if hasPassphrase {
		v |= 8
	}
	return v
}
