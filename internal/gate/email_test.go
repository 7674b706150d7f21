package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmailFormat(t *testing.T) {
	valid := []string{"a@b.co", "user@company.com", "first.last+tag@sub.acme.io"}
	for _, e := range valid {
		assert.NoError(t, ValidateEmailFormat(e), "email %q", e)
	}

	invalid := []string{
		"test@domain", // missing TLD
		"not-an-email",
		"@acme.com",
		"user@",
		"a@b", // too short and no TLD
		"",
		"user @acme.com",
	}
	for _, e := range invalid {
		assert.ErrorIs(t, ValidateEmailFormat(e), ErrEmailInvalid, "email %q", e)
	}
}

func TestIsFreeEmail_CaseInsensitive(t *testing.T) {
	assert.True(t, IsFreeEmail("User@GMAIL.COM"))
	assert.True(t, IsFreeEmail("user@gmail.com"))
	assert.Equal(t, IsFreeEmail("User@GMAIL.COM"), IsFreeEmail("user@gmail.com"))
	assert.False(t, IsFreeEmail("user@company.com"))
}

func TestIsFreeEmail_RegionalAndDisposable(t *testing.T) {
	blocked := []string{"x@orange.fr", "x@web.de", "x@gmx.de", "x@terra.es", "x@yopmail.com", "x@mailinator.com"}
	for _, e := range blocked {
		assert.True(t, IsFreeEmail(e), "email %q", e)
	}
	assert.False(t, IsFreeEmail("x@acme-consulting.fr"))
}

func TestCheckEmail_FormatErrorWinsOverFreeCheck(t *testing.T) {
	// Malformed input that resembles a blocked domain must still report
	// invalid, never free.
	err := CheckEmail("not-an-email@gmail", true)
	assert.ErrorIs(t, err, ErrEmailInvalid)
	assert.NotErrorIs(t, err, ErrEmailFree)

	err = CheckEmail("user@gmail.com", true)
	assert.ErrorIs(t, err, ErrEmailFree)

	assert.NoError(t, CheckEmail("user@gmail.com", false))
	assert.NoError(t, CheckEmail("a@b.co", true))
}
