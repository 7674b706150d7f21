package plan

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain validation. Handlers map these to 400s with
// actionable messages.
var (
	ErrDomainEmpty       = errors.New("domain is empty")
	ErrDomainTooShort    = errors.New("domain is too short")
	ErrDomainNoTLD       = errors.New("domain has no extension")
	ErrDomainPlaceholder = errors.New("domain is a placeholder, use your real company domain")
)

// placeholderDomains are throwaway values users type to test the form.
// Generation for these would waste an agent job on garbage output.
var placeholderDomains = map[string]bool{
	"example.com":     true,
	"example.org":     true,
	"test.com":        true,
	"domain.com":      true,
	"yourcompany.com": true,
	"company.com":     true,
	"mydomain.com":    true,
	"website.com":     true,
}

// NormalizeDomain lowercases a user-supplied domain and strips scheme, path,
// query, port and a leading "www.". Idempotent.
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(strings.ToLower(raw))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	for _, sep := range []string{"/", "?", "#"} {
		if i := strings.Index(d, sep); i >= 0 {
			d = d[:i]
		}
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	return strings.TrimSuffix(d, ".")
}

// ValidateDomain normalizes and checks a domain, returning the normalized
// form. The placeholder check runs last so callers can distinguish "typed
// something malformed" from "typed a throwaway".
func ValidateDomain(raw string) (string, error) {
	d := NormalizeDomain(raw)
	if d == "" {
		return "", ErrDomainEmpty
	}
	if len(d) < 4 {
		return "", ErrDomainTooShort
	}
	if !strings.Contains(d, ".") {
		return "", ErrDomainNoTLD
	}
	if placeholderDomains[d] {
		return "", fmt.Errorf("%w: %s", ErrDomainPlaceholder, d)
	}
	return d, nil
}

// CompanyNameFromDomain derives a display name from a domain hint by
// capitalizing the segment before the first dot ("acme.fr" -> "Acme").
func CompanyNameFromDomain(domain string) string {
	d := NormalizeDomain(domain)
	if d == "" {
		return ""
	}
	seg := d
	if i := strings.Index(d, "."); i >= 0 {
		seg = d[:i]
	}
	if seg == "" {
		return ""
	}
	return strings.ToUpper(seg[:1]) + seg[1:]
}
