// Package gate implements the lead gate: professional-email capture that
// unlocks advanced content, with fail-open delivery to the lead collector.
package gate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Reasons an email submission can be rejected. Format errors always take
// precedence over the free-provider check.
var (
	ErrEmailInvalid = errors.New("invalid")
	ErrEmailFree    = errors.New("free")
)

// Conservative RFC-5322 subset. A TLD is required: "test@domain" is invalid.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

// freeEmailDomains blocks major global webmail, regional FR/DE/ES webmail,
// and disposable-email services. Matched case-insensitively after the
// last '@'.
var freeEmailDomains = map[string]bool{
	// global webmail
	"gmail.com": true, "googlemail.com": true,
	"yahoo.com": true, "yahoo.fr": true, "yahoo.de": true, "yahoo.es": true, "yahoo.co.uk": true,
	"hotmail.com": true, "hotmail.fr": true, "hotmail.de": true, "hotmail.es": true,
	"outlook.com": true, "outlook.fr": true, "outlook.de": true, "outlook.es": true,
	"live.com": true, "live.fr": true, "msn.com": true,
	"aol.com": true, "icloud.com": true, "me.com": true, "mac.com": true,
	"protonmail.com": true, "proton.me": true, "zoho.com": true,
	"yandex.com": true, "yandex.ru": true, "mail.ru": true,
	// FR
	"orange.fr": true, "wanadoo.fr": true, "free.fr": true, "sfr.fr": true,
	"laposte.net": true, "bbox.fr": true, "neuf.fr": true,
	// DE
	"gmx.de": true, "gmx.net": true, "web.de": true, "t-online.de": true,
	"freenet.de": true, "posteo.de": true,
	// ES
	"terra.es": true, "telefonica.net": true, "movistar.es": true,
	// disposable
	"mailinator.com": true, "yopmail.com": true, "guerrillamail.com": true,
	"10minutemail.com": true, "tempmail.com": true, "temp-mail.org": true,
	"throwawaymail.com": true, "sharklasers.com": true, "getnada.com": true,
	"trashmail.com": true, "dispostable.com": true, "maildrop.cc": true,
}

// ValidateEmailFormat checks the trimmed address against the format pattern
// and length bounds (5-254). Returns ErrEmailInvalid on failure.
func ValidateEmailFormat(email string) error {
	e := strings.TrimSpace(email)
	if len(e) < 5 || len(e) > 254 {
		return fmt.Errorf("%w: address must be 5-254 characters", ErrEmailInvalid)
	}
	if !emailPattern.MatchString(e) {
		return fmt.Errorf("%w: not a valid email address", ErrEmailInvalid)
	}
	return nil
}

// IsFreeEmail reports whether the address's domain (after the last '@',
// case-insensitive) is a known free or disposable provider. It assumes the
// address already passed format validation.
func IsFreeEmail(email string) bool {
	e := strings.TrimSpace(strings.ToLower(email))
	at := strings.LastIndex(e, "@")
	if at < 0 || at == len(e)-1 {
		return false
	}
	return freeEmailDomains[e[at+1:]]
}

// CheckEmail runs format validation then, when blockFree is set, the
// free-provider check. Format errors always report ErrEmailInvalid, never
// ErrEmailFree, even when the string resembles a blocked domain.
func CheckEmail(email string, blockFree bool) error {
	if err := ValidateEmailFormat(email); err != nil {
		return err
	}
	if blockFree && IsFreeEmail(email) {
		return fmt.Errorf("%w: please use your professional email address", ErrEmailFree)
	}
	return nil
}
