package secret

import "fmt"

// CountryCode is a validated ISO 3166-1 alpha-2 country code: exactly two
// uppercase ASCII letters.
type CountryCode string

// NewCountryCode validates and constructs a CountryCode.
func NewCountryCode(s string) (CountryCode, error) {
	if len(s) != 2 {
		return "", fmt.Errorf("country code must be a 2-letter uppercase ISO 3166-1 alpha-2 code, got %q", s)
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("country code must be a 2-letter uppercase ISO 3166-1 alpha-2 code, got %q", s)
		}
	}
	return CountryCode(s), nil
}

func (c CountryCode) String() string {
	return string(c)
}
