// Package normalize provides utilities for normalizing and sanitizing data.
package normalize

import "strings"

// Email normalizes an email address for storage: surrounding whitespace is
// trimmed and the domain portion is lowercased. The local part is preserved
// as entered ("Test2@EXAMPLE.com" becomes "Test2@example.com") since local
// parts are case-sensitive per RFC 5321.
func Email(email string) string {
	email = strings.TrimSpace(email)

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}

	return email[:at+1] + strings.ToLower(email[at+1:])
}

// EmailKey returns the fully lowercased form used for unique lookups.
// Two addresses differing only in case resolve to the same account.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Name trims surrounding whitespace and collapses internal runs of
// whitespace in a user display name. Tag and ingredient names are matched
// on their trimmed form only, preserving internal spacing as entered.
func Name(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
