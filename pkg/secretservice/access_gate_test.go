package secretservice

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/hakanai/hakanai/pkg/secret"
)

func TestEnforcedSizeLimit(t *testing.T) {
	if got, want := EnforcedSizeLimit(1000), uint64(1500); got != want {
		t.Errorf("EnforcedSizeLimit(1000) = %d, want %d", got, want)
	}
}

func TestValidateTTL(t *testing.T) {
	if err := ValidateTTL(time.Minute, time.Hour); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := ValidateTTL(2*time.Hour, time.Hour); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if err := ValidateTTL(0, time.Hour); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero ttl: err = %v, want ErrInvalidInput", err)
	}
}

func TestValidateSize_TokenLimit(t *testing.T) {
	limit := int64(10)
	u := User{UploadSizeLimit: &limit}

	if err := ValidateSize(u, 5, 1024); err != nil {
		t.Errorf("under limit: unexpected error %v", err)
	}
	if err := ValidateSize(u, 20, 1024); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("over limit: err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestValidateSize_AnonymousCap(t *testing.T) {
	u := AnonymousUser()

	if err := ValidateSize(u, 100, 1024); err != nil {
		t.Errorf("under cap: unexpected error %v", err)
	}
	if err := ValidateSize(u, 2000, 1024); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("over cap: err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestCheckIPRestriction(t *testing.T) {
	_, ipnet, _ := net.ParseCIDR("192.168.0.0/16")
	r := secret.Restrictions{}.WithAllowedIPs([]*net.IPNet{ipnet})

	if err := CheckIPRestriction(&r, net.ParseIP("192.168.1.1")); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := CheckIPRestriction(&r, net.ParseIP("10.0.0.1")); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := CheckIPRestriction(&r, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("nil IP should fail closed, got %v", err)
	}
	if err := CheckIPRestriction(nil, net.ParseIP("1.2.3.4")); err != nil {
		t.Errorf("nil restrictions should pass, got %v", err)
	}
}

func TestCheckCountryRestriction(t *testing.T) {
	r := secret.Restrictions{}.WithAllowedCountries([]secret.CountryCode{"US", "DE"})

	if err := CheckCountryRestriction(&r, "us"); err != nil {
		t.Errorf("case-insensitive match expected, got %v", err)
	}
	if err := CheckCountryRestriction(&r, "FR"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestCheckASNRestriction(t *testing.T) {
	r := secret.Restrictions{}.WithAllowedASNs([]uint32{64512})

	if err := CheckASNRestriction(&r, "64512"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := CheckASNRestriction(&r, "1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := CheckASNRestriction(&r, "not-a-number"); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-numeric should fail closed, got %v", err)
	}
}

func TestCheckPassphraseRestriction(t *testing.T) {
	r := secret.Restrictions{}.WithPassphrase([]byte("hunter2"))

	if err := CheckPassphraseRestriction(&r, "hunter2"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := CheckPassphraseRestriction(&r, "wrong"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}
