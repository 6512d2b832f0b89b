package utils

import (
	"strings"
	"unicode"
)

// UsernameFromProfile derives a username for an OAuth-created account from
// the provider display name plus a disambiguating suffix taken from the
// provider id, e.g. "Jane Doe" + "108234…" -> "janedoe_1082".
func UsernameFromProfile(displayName, providerID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(displayName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "user"
	}
	if len(base) > 30 {
		base = base[:30]
	}

	suffix := providerID
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	return base + "_" + suffix
}
