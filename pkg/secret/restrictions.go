package secret

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"strings"
)

// PassphraseHeaderName is the request header carrying the raw passphrase on retrieval.
const PassphraseHeaderName = "X-Secret-Passphrase"

// Restrictions is the optional receive-time predicate tuple stored alongside a secret.
type Restrictions struct {
	AllowedIPs       []*net.IPNet  `json:"allowed_ips,omitempty"`
	AllowedCountries []CountryCode `json:"allowed_countries,omitempty"`
	AllowedASNs      []uint32      `json:"allowed_asns,omitempty"`
	PassphraseHash   *string       `json:"passphrase_hash,omitempty"`
}

// WithAllowedIPs sets the IP/CIDR allowlist.
func (r Restrictions) WithAllowedIPs(nets []*net.IPNet) Restrictions {
	r.AllowedIPs = nets
	return r
}

// WithAllowedCountries sets the country-code allowlist.
func (r Restrictions) WithAllowedCountries(codes []CountryCode) Restrictions {
	r.AllowedCountries = codes
	return r
}

// WithAllowedASNs sets the ASN allowlist.
func (r Restrictions) WithAllowedASNs(asns []uint32) Restrictions {
	r.AllowedASNs = asns
	return r
}

// WithPassphrase hashes the raw passphrase bytes and sets PassphraseHash.
func (r Restrictions) WithPassphrase(raw []byte) Restrictions {
	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])
	r.PassphraseHash = &hash
	return r
}

// IsEmpty reports whether no restriction actually constrains access.
func (r Restrictions) IsEmpty() bool {
	if len(r.AllowedIPs) > 0 {
		return false
	}
	if len(r.AllowedCountries) > 0 {
		return false
	}
	if len(r.AllowedASNs) > 0 {
		return false
	}
	if r.PassphraseHash != nil && *r.PassphraseHash != "" {
		return false
	}
	return true
}

func (r Restrictions) String() string {
	if r.IsEmpty() {
		return "No restrictions"
	}

	var parts []string
	if len(r.AllowedIPs) > 0 {
		ss := make([]string, len(r.AllowedIPs))
		for i, n := range r.AllowedIPs {
			ss[i] = n.String()
		}
		parts = append(parts, "Allowed IPs: "+strings.Join(ss, ", "))
	}
	if len(r.AllowedCountries) > 0 {
		ss := make([]string, len(r.AllowedCountries))
		for i, c := range r.AllowedCountries {
			ss[i] = c.String()
		}
		parts = append(parts, "Allowed Countries: "+strings.Join(ss, ", "))
	}
	if len(r.AllowedASNs) > 0 {
		ss := make([]string, len(r.AllowedASNs))
		for i, a := range r.AllowedASNs {
			ss[i] = fmt.Sprintf("%d", a)
		}
		parts = append(parts, "Allowed ASNs: "+strings.Join(ss, ", "))
	}
	if r.PassphraseHash != nil {
		parts = append(parts, "Passphrase: ***")
	}
	return strings.Join(parts, ", ")
}

// restrictionsJSON mirrors Restrictions but with string-based IP/country
// fields for JSON (de)serialization.
type restrictionsJSON struct {
	AllowedIPs       []string `json:"allowed_ips,omitempty"`
	AllowedCountries []string `json:"allowed_countries,omitempty"`
	AllowedASNs      []uint32 `json:"allowed_asns,omitempty"`
	PassphraseHash   *string  `json:"passphrase_hash,omitempty"`
}

// MarshalJSON serializes CIDR ranges and country codes as plain strings.
func (r Restrictions) MarshalJSON() ([]byte, error) {
	out := restrictionsJSON{PassphraseHash: r.PassphraseHash, AllowedASNs: r.AllowedASNs}
	if r.AllowedIPs != nil {
		out.AllowedIPs = make([]string, len(r.AllowedIPs))
		for i, n := range r.AllowedIPs {
			out.AllowedIPs[i] = n.String()
		}
	}
	if r.AllowedCountries != nil {
		out.AllowedCountries = make([]string, len(r.AllowedCountries))
		for i, c := range r.AllowedCountries {
			out.AllowedCountries[i] = c.String()
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses bare IPs (normalized to /32 or /128), CIDR ranges,
// and 2-letter uppercase country codes, rejecting anything else.
func (r *Restrictions) UnmarshalJSON(data []byte) error {
	var in restrictionsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	if in.AllowedIPs != nil {
		nets := make([]*net.IPNet, 0, len(in.AllowedIPs))
		for _, s := range in.AllowedIPs {
			n, err := parseIPOrCIDR(s)
			if err != nil {
				return fmt.Errorf("invalid IP address or CIDR notation: %q: %w", s, err)
			}
			nets = append(nets, n)
		}
		r.AllowedIPs = nets
	}

	if in.AllowedCountries != nil {
		codes := make([]CountryCode, 0, len(in.AllowedCountries))
		for _, s := range in.AllowedCountries {
			c, err := NewCountryCode(s)
			if err != nil {
				return err
			}
			codes = append(codes, c)
		}
		r.AllowedCountries = codes
	}

	r.AllowedASNs = in.AllowedASNs
	r.PassphraseHash = in.PassphraseHash
	return nil
}

// parseIPOrCIDR accepts either a bare IP address (normalized to a /32 or
// /128 host route) or a CIDR range.
func parseIPOrCIDR(s string) (*net.IPNet, error) {
	if strings.Contains(s, "/") {
		_, n, err := net.ParseCIDR(s)
		return n, err
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("not a valid IP address")
	}
	if ip4 := ip.To4(); ip4 != nil {
		return &net.IPNet{IP: ip4, Mask: net.CIDRMask(32, 32)}, nil
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}, nil
}

// ContainsIP reports whether ip falls within any of the allowed ranges.
func (r Restrictions) ContainsIP(ip net.IP) bool {
	for _, n := range r.AllowedIPs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
