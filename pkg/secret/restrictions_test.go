package secret

import (
	"encoding/json"
	"net"
	"testing"
)

func TestRestrictions_IsEmpty(t *testing.T) {
	if !(Restrictions{}).IsEmpty() {
		t.Error("zero value should be empty")
	}

	hash := ""
	r := Restrictions{PassphraseHash: &hash}
	if !r.IsEmpty() {
		t.Error("empty-string passphrase hash should still count as empty")
	}

	nonEmpty := "abc"
	r2 := Restrictions{PassphraseHash: &nonEmpty}
	if r2.IsEmpty() {
		t.Error("non-empty passphrase hash should not be empty")
	}
}

func TestRestrictions_WithPassphrase(t *testing.T) {
	r := Restrictions{}.WithPassphrase([]byte("correct horse battery staple"))
	if r.PassphraseHash == nil {
		t.Fatal("expected PassphraseHash to be set")
	}
	if len(*r.PassphraseHash) != 64 {
		t.Errorf("expected 64-char hex sha256, got %d chars", len(*r.PassphraseHash))
	}

	r2 := Restrictions{}.WithPassphrase([]byte("correct horse battery staple"))
	if *r.PassphraseHash != *r2.PassphraseHash {
		t.Error("hashing the same passphrase twice should be deterministic")
	}

	r3 := Restrictions{}.WithPassphrase([]byte("different"))
	if *r.PassphraseHash == *r3.PassphraseHash {
		t.Error("different passphrases must hash differently")
	}
}

func TestRestrictions_JSONRoundTrip(t *testing.T) {
	_, ipnet, _ := net.ParseCIDR("10.0.0.0/8")
	original := Restrictions{}.
		WithAllowedIPs([]*net.IPNet{ipnet}).
		WithAllowedCountries([]CountryCode{"US", "DE"}).
		WithAllowedASNs([]uint32{64512, 13335}).
		WithPassphrase([]byte("hunter2"))

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Restrictions
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.String() != original.String() {
		t.Errorf("round trip mismatch: got %q, want %q", decoded.String(), original.String())
	}
	if len(decoded.AllowedASNs) != 2 || decoded.AllowedASNs[0] != 64512 {
		t.Errorf("ASNs not preserved: %v", decoded.AllowedASNs)
	}
}

func TestRestrictions_UnmarshalBareIPNormalization(t *testing.T) {
	data := []byte(`{"allowed_ips":["192.168.1.5","::1"]}`)
	var r Restrictions
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(r.AllowedIPs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(r.AllowedIPs))
	}
	ones, bits := r.AllowedIPs[0].Mask.Size()
	if ones != 32 || bits != 32 {
		t.Errorf("bare IPv4 should normalize to /32, got /%d (%d bits)", ones, bits)
	}
	ones6, bits6 := r.AllowedIPs[1].Mask.Size()
	if ones6 != 128 || bits6 != 128 {
		t.Errorf("bare IPv6 should normalize to /128, got /%d (%d bits)", ones6, bits6)
	}
}

func TestRestrictions_UnmarshalCIDR(t *testing.T) {
	data := []byte(`{"allowed_ips":["10.0.0.0/24"]}`)
	var r Restrictions
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	ones, _ := r.AllowedIPs[0].Mask.Size()
	if ones != 24 {
		t.Errorf("expected /24, got /%d", ones)
	}
}

func TestRestrictions_UnmarshalInvalidIP(t *testing.T) {
	data := []byte(`{"allowed_ips":["not-an-ip"]}`)
	var r Restrictions
	if err := json.Unmarshal(data, &r); err == nil {
		t.Error("expected error for invalid IP")
	}
}

func TestRestrictions_UnmarshalInvalidCountry(t *testing.T) {
	data := []byte(`{"allowed_countries":["usa"]}`)
	var r Restrictions
	if err := json.Unmarshal(data, &r); err == nil {
		t.Error("expected error for invalid country code")
	}
}

func TestRestrictions_ContainsIP(t *testing.T) {
	_, ipnet, _ := net.ParseCIDR("203.0.113.0/24")
	r := Restrictions{}.WithAllowedIPs([]*net.IPNet{ipnet})

	if !r.ContainsIP(net.ParseIP("203.0.113.42")) {
		t.Error("expected IP within range to match")
	}
	if r.ContainsIP(net.ParseIP("198.51.100.1")) {
		t.Error("expected IP outside range to not match")
	}
}

func TestRestrictions_String(t *testing.T) {
	if got := (Restrictions{}).String(); got != "No restrictions" {
		t.Errorf("String() on empty = %q", got)
	}

	r := Restrictions{}.WithAllowedCountries([]CountryCode{"US"})
	if got := r.String(); got != "Allowed Countries: US" {
		t.Errorf("String() = %q", got)
	}
}
