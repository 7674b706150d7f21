package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare domain", "acme.com", "acme.com"},
		{"uppercase with scheme and path", "HTTPS://WWW.EXAMPLE.COM/x?y=1", "example.com"},
		{"www prefix", "www.acme.fr", "acme.fr"},
		{"trailing slash", "http://acme.de/", "acme.de"},
		{"port stripped", "acme.com:8080", "acme.com"},
		{"fragment stripped", "acme.com#pricing", "acme.com"},
		{"whitespace", "  acme.io  ", "acme.io"},
		{"trailing dot", "acme.com.", "acme.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDomain(tt.input))
		})
	}
}

func TestNormalizeDomain_Idempotent(t *testing.T) {
	inputs := []string{"HTTPS://WWW.EXAMPLE.COM/x?y=1", "acme.com", "www.shop.acme.co.uk/cart"}
	for _, in := range inputs {
		once := NormalizeDomain(in)
		assert.Equal(t, once, NormalizeDomain(once), "normalize must be idempotent for %q", in)
	}
}

func TestValidateDomain(t *testing.T) {
	t.Run("accepts a real domain", func(t *testing.T) {
		d, err := ValidateDomain("https://www.acme.fr/about")
		require.NoError(t, err)
		assert.Equal(t, "acme.fr", d)
	})

	t.Run("rejects placeholders", func(t *testing.T) {
		for _, in := range []string{"example.com", "test.com", "domain.com", "yourcompany.com", "WWW.EXAMPLE.COM"} {
			_, err := ValidateDomain(in)
			assert.ErrorIs(t, err, ErrDomainPlaceholder, "input %q", in)
		}
	})

	t.Run("rejects malformed input with a specific reason", func(t *testing.T) {
		cases := []struct {
			input string
			want  error
		}{
			{"", ErrDomainEmpty},
			{"   ", ErrDomainEmpty},
			{"a.b", ErrDomainTooShort},
			{"localhost", ErrDomainNoTLD},
			{"acme", ErrDomainNoTLD},
		}
		for _, c := range cases {
			_, err := ValidateDomain(c.input)
			assert.True(t, errors.Is(err, c.want), "input %q: got %v, want %v", c.input, err, c.want)
		}
	})
}

func TestCompanyNameFromDomain(t *testing.T) {
	assert.Equal(t, "Acme", CompanyNameFromDomain("acme.com"))
	assert.Equal(t, "Acme", CompanyNameFromDomain("https://www.acme.co.uk/x"))
	assert.Equal(t, "", CompanyNameFromDomain(""))
}
