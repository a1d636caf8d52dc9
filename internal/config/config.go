package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dustin/go-humanize"
)

// Config holds all application configuration, loaded from environment variables.
type Config struct {
	Host string `env:"HAKANAI_LISTEN_ADDRESS" envDefault:"0.0.0.0"`
	Port int    `env:"HAKANAI_PORT" envDefault:"8080"`

	RedisDSN string `env:"HAKANAI_REDIS_DSN" envDefault:"redis://localhost:6379/0"`

	// Raw strings: parsed via UploadSizeLimitBytes / AnonymousUploadSizeLimitBytes /
	// MaxTTLDuration, not by caarlos0/env directly, since the grammar (size suffixes,
	// duration strings) needs its own parser rather than a plain int/duration field.
	UploadSizeLimit          string `env:"HAKANAI_UPLOAD_SIZE_LIMIT" envDefault:"10m"`
	AnonymousUploadSizeLimit string `env:"HAKANAI_ANONYMOUS_UPLOAD_SIZE_LIMIT" envDefault:"32k"`
	MaxTTL                   string `env:"HAKANAI_MAX_TTL" envDefault:"168h"`

	AllowAnonymous   bool `env:"HAKANAI_ALLOW_ANONYMOUS" envDefault:"false"`
	EnableAdminToken bool `env:"HAKANAI_ENABLE_ADMIN_TOKEN" envDefault:"false"`
	ResetAdminToken  bool `env:"HAKANAI_RESET_ADMIN_TOKEN" envDefault:"false"`

	CORSAllowedOrigins []string `env:"HAKANAI_CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	MigrationsDir string `env:"HAKANAI_MIGRATIONS_DIR" envDefault:"migrations"`

	// Audit log (optional; empty DSN disables it entirely).
	AuditDSN           string `env:"HAKANAI_AUDIT_DSN"`
	AuditFlushInterval string `env:"HAKANAI_AUDIT_FLUSH_INTERVAL" envDefault:"5s"`

	// Trusted identity headers for the receive-time restriction predicates.
	ClientIPHeader string `env:"HAKANAI_CLIENT_IP_HEADER" envDefault:"X-Forwarded-For"`
	CountryHeader  string `env:"HAKANAI_COUNTRY_HEADER" envDefault:"X-Country-Code"`
	ASNHeader      string `env:"HAKANAI_ASN_HEADER" envDefault:"X-ASN"`

	// Credential rate limiting (§10.6).
	RateLimitWindow      string `env:"HAKANAI_RATE_LIMIT_WINDOW" envDefault:"60s"`
	RateLimitMaxAttempts int    `env:"HAKANAI_RATE_LIMIT_MAX_ATTEMPTS" envDefault:"10"`

	// Source IP ranges treated as a trusted, credential-free identity: they
	// bypass the anonymous-usage gate and get the full (non-anonymous)
	// upload size limit instead of the anonymous cap.
	TrustedIPRanges []string `env:"HAKANAI_TRUSTED_IP_RANGES" envSeparator:","`

	// Lifecycle webhook (optional; empty URL disables it entirely).
	WebhookURL       string `env:"HAKANAI_WEBHOOK_URL"`
	WebhookAuthToken string `env:"HAKANAI_WEBHOOK_AUTH_TOKEN"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from env: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the address the HTTP server should listen on.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// parseSizeLimit parses <n>, <n>k or <n>m, where k and m are binary
// multiples (1024 and 1024*1024); any other form goes to humanize.ParseBytes.
func parseSizeLimit(s string) (uint64, error) {
	lower := strings.ToLower(s)
	for suffix, mult := range map[string]uint64{"k": 1 << 10, "m": 1 << 20} {
		if n, err := strconv.ParseUint(strings.TrimSuffix(lower, suffix), 10, 64); err == nil && strings.HasSuffix(lower, suffix) {
			return n * mult, nil
		}
	}
	return humanize.ParseBytes(s)
}

// UploadSizeLimitBytes parses the configured plaintext upload size limit.
func (c *Config) UploadSizeLimitBytes() (uint64, error) {
	return parseSizeLimit(c.UploadSizeLimit)
}

// AnonymousUploadSizeLimitBytes parses the configured anonymous plaintext upload size limit.
func (c *Config) AnonymousUploadSizeLimitBytes() (uint64, error) {
	return parseSizeLimit(c.AnonymousUploadSizeLimit)
}

// MaxTTLDuration parses the configured TTL ceiling.
func (c *Config) MaxTTLDuration() (time.Duration, error) {
	return time.ParseDuration(c.MaxTTL)
}

// RateLimitWindowDuration parses the credential rate-limit window.
func (c *Config) RateLimitWindowDuration() (time.Duration, error) {
	return time.ParseDuration(c.RateLimitWindow)
}

// AuditFlushIntervalDuration parses the audit-log flush interval.
func (c *Config) AuditFlushIntervalDuration() (time.Duration, error) {
	return time.ParseDuration(c.AuditFlushInterval)
}

// TrustedIPNets parses the configured trusted IP ranges as CIDR networks. A
// bare IP (no "/") is treated as a /32 or /128 host route.
func (c *Config) TrustedIPNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.TrustedIPRanges))
	for _, raw := range c.TrustedIPRanges {
		cidr := raw
		if !strings.Contains(cidr, "/") {
			if ip := net.ParseIP(cidr); ip != nil && ip.To4() != nil {
				cidr += "/32"
			} else {
				cidr += "/128"
			}
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("parsing trusted ip range %q: %w", raw, err)
		}
		nets = append(nets, ipNet)
	}
	return nets, nil
}
