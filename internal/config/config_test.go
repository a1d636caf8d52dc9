package config

import (
	"net"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	tests := []struct {
		name  string
		check func(*Config) bool
	}{
		{"default host is 0.0.0.0", func(c *Config) bool { return c.Host == "0.0.0.0" }},
		{"default port is 8080", func(c *Config) bool { return c.Port == 8080 }},
		{"default log level is info", func(c *Config) bool { return c.LogLevel == "info" }},
		{"default log format is json", func(c *Config) bool { return c.LogFormat == "json" }},
		{"anonymous disabled by default", func(c *Config) bool { return !c.AllowAnonymous }},
		{"admin token disabled by default", func(c *Config) bool { return !c.EnableAdminToken }},
		{"listen addr format", func(c *Config) bool { return c.ListenAddr() == "0.0.0.0:8080" }},
		{"audit disabled by default", func(c *Config) bool { return c.AuditDSN == "" }},
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(cfg) {
				t.Errorf("unexpected config value for %q", tt.name)
			}
		})
	}
}

func TestUploadSizeLimitBytes(t *testing.T) {
	tests := []struct {
		name    string
		limit   string
		want    uint64
		wantErr bool
	}{
		{"plain bytes", "1024", 1024, false},
		{"k suffix", "32k", 32 * 1024, false},
		{"m suffix", "10m", 10 * 1024 * 1024, false},
		{"invalid", "not-a-size", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{UploadSizeLimit: tt.limit}
			got, err := cfg.UploadSizeLimitBytes()
			if (err != nil) != tt.wantErr {
				t.Fatalf("UploadSizeLimitBytes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("UploadSizeLimitBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMaxTTLDuration(t *testing.T) {
	cfg := &Config{MaxTTL: "168h"}
	got, err := cfg.MaxTTLDuration()
	if err != nil {
		t.Fatalf("MaxTTLDuration() error: %v", err)
	}
	if got.Hours() != 168 {
		t.Errorf("MaxTTLDuration() = %v, want 168h", got)
	}
}

func TestTrustedIPNets(t *testing.T) {
	cfg := &Config{TrustedIPRanges: []string{"10.0.0.0/8", "203.0.113.5", "::1"}}

	nets, err := cfg.TrustedIPNets()
	if err != nil {
		t.Fatalf("TrustedIPNets() error: %v", err)
	}
	if len(nets) != 3 {
		t.Fatalf("TrustedIPNets() returned %d networks, want 3", len(nets))
	}
	if !nets[0].Contains(mustParseIP(t, "10.1.2.3")) {
		t.Error("expected 10.0.0.0/8 to contain 10.1.2.3")
	}
	if !nets[1].Contains(mustParseIP(t, "203.0.113.5")) {
		t.Error("expected bare IPv4 to normalize to a /32 host route")
	}
	if !nets[2].Contains(mustParseIP(t, "::1")) {
		t.Error("expected bare IPv6 to normalize to a /128 host route")
	}
}

func TestTrustedIPNets_Invalid(t *testing.T) {
	cfg := &Config{TrustedIPRanges: []string{"not-an-ip"}}
	if _, err := cfg.TrustedIPNets(); err == nil {
		t.Error("expected an error for an unparsable range")
	}
}

func mustParseIP(t *testing.T, raw string) net.IP {
	t.Helper()
	ip := net.ParseIP(raw)
	if ip == nil {
		t.Fatalf("net.ParseIP(%q) failed", raw)
	}
	return ip
}
