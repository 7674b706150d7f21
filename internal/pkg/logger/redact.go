package logger

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[\w.%+-]+@[\w.-]+\.[A-Za-z]{2,}`)

var secretKeyHints = []string{"secret", "token", "password", "api_key", "apikey"}

// mask scrubs credentials and email addresses from a field value before it
// reaches the log stream.
func mask(key, val string) string {
	k := strings.ToLower(key)
	for _, hint := range secretKeyHints {
		if strings.Contains(k, hint) {
			return "[redacted]"
		}
	}
	if strings.Contains(k, "email") {
		return maskEmail(val)
	}
	return emailPattern.ReplaceAllStringFunc(val, maskEmail)
}

// maskEmail keeps the first two characters of the local part and the full
// domain, enough to correlate log lines without storing the address.
func maskEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return "***@***"
	}
	local, dom := addr[:at], addr[at+1:]
	if len(local) <= 2 {
		return "***@" + dom
	}
	return local[:2] + "***@" + dom
}
