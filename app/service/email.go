package service

import "strings"

// NormalizeEmail trims surrounding whitespace. Case is preserved: stored
// emails are matched exactly as entered.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
