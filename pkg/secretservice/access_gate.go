package secretservice

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hakanai/hakanai/pkg/observer"
	"github.com/hakanai/hakanai/pkg/secret"
)

// ciphertextOverheadNumerator / ciphertextOverheadDenominator map a configured
// plaintext cap to the enforced ciphertext cap, accounting for
// base64-over-AES-GCM expansion.
const ciphertextOverheadNumerator = 3
const ciphertextOverheadDenominator = 2

// EnforcedSizeLimit scales a configured plaintext size cap by the
// base64/GCM overhead factor: floor(configured * 3 / 2).
func EnforcedSizeLimit(configured uint64) uint64 {
	return configured * ciphertextOverheadNumerator / ciphertextOverheadDenominator
}

// ValidateTTL enforces the TTL ceiling predicate.
func ValidateTTL(expiresIn, maxTTL time.Duration) error {
	if expiresIn > maxTTL {
		return fmt.Errorf("%w: ttl exceeds maximum allowed duration of %s", ErrInvalidInput, maxTTL)
	}
	if expiresIn <= 0 {
		return fmt.Errorf("%w: ttl must be positive", ErrInvalidInput)
	}
	return nil
}

// ValidateSize enforces the size quota predicate for user, the given
// ciphertext length, and the anonymous fallback cap. Both caps are
// configured plaintext sizes; the 1.5x base64/GCM overhead factor is
// applied here to derive the enforced ciphertext cap.
func ValidateSize(u User, ciphertextLen int, anonymousCap uint64) error {
	if u.UploadSizeLimit != nil {
		enforced := EnforcedSizeLimit(uint64(*u.UploadSizeLimit))
		if uint64(ciphertextLen) > enforced {
			return fmt.Errorf("%w: upload exceeds token's configured limit", ErrPayloadTooLarge)
		}
		return nil
	}
	if u.Type == observer.UserTypeAnonymous && uint64(ciphertextLen) > EnforcedSizeLimit(anonymousCap) {
		return fmt.Errorf("%w: upload exceeds anonymous usage limit", ErrPayloadTooLarge)
	}
	return nil
}

// CheckIPRestriction enforces the receive-time IP predicate. A nil or empty
// clientIP fails closed against any configured allowlist.
func CheckIPRestriction(r *secret.Restrictions, clientIP net.IP) error {
	if r == nil || len(r.AllowedIPs) == 0 {
		return nil
	}
	if clientIP == nil || !r.ContainsIP(clientIP) {
		return fmt.Errorf("%w: client ip not permitted", ErrForbidden)
	}
	return nil
}

// CheckCountryRestriction enforces the receive-time country predicate,
// matching case-insensitively.
func CheckCountryRestriction(r *secret.Restrictions, countryHeader string) error {
	if r == nil || len(r.AllowedCountries) == 0 {
		return nil
	}
	candidate := strings.ToUpper(strings.TrimSpace(countryHeader))
	for _, c := range r.AllowedCountries {
		if string(c) == candidate {
			return nil
		}
	}
	return fmt.Errorf("%w: country not permitted", ErrForbidden)
}

// CheckASNRestriction enforces the receive-time ASN predicate. A
// non-numeric header value fails closed.
func CheckASNRestriction(r *secret.Restrictions, asnHeader string) error {
	if r == nil || len(r.AllowedASNs) == 0 {
		return nil
	}
	asn, err := strconv.ParseUint(strings.TrimSpace(asnHeader), 10, 32)
	if err != nil {
		return fmt.Errorf("%w: asn not permitted", ErrForbidden)
	}
	for _, allowed := range r.AllowedASNs {
		if uint32(asn) == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: asn not permitted", ErrForbidden)
}

// CheckPassphraseRestriction enforces the receive-time passphrase predicate.
func CheckPassphraseRestriction(r *secret.Restrictions, rawPassphrase string) error {
	if r == nil || r.PassphraseHash == nil {
		return nil
	}
	hashed := secret.Restrictions{}.WithPassphrase([]byte(rawPassphrase)).PassphraseHash
	if hashed == nil || *hashed != *r.PassphraseHash {
		return fmt.Errorf("%w: passphrase incorrect", ErrForbidden)
	}
	return nil
}

// CheckReceiveTimeRestrictions evaluates every configured receive-time
// predicate in order, short-circuiting on the first failure.
func CheckReceiveTimeRestrictions(r *secret.Restrictions, clientIP net.IP, countryHeader, asnHeader, passphraseHeader string) error {
	if r == nil {
		return nil
	}
	if err := CheckIPRestriction(r, clientIP); err != nil {
		return err
	}
	if err := CheckCountryRestriction(r, countryHeader); err != nil {
		return err
	}
	if err := CheckASNRestriction(r, asnHeader); err != nil {
		return err
	}
	if err := CheckPassphraseRestriction(r, passphraseHeader); err != nil {
		return err
	}
	return nil
}
