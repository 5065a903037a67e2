// Package sanitizer normalizes untrusted user input before validation
// and persistence.
package sanitizer

import (
	"regexp"
	"strings"
)

var dotRegex = regexp.MustCompile(`\.{2,}`)

// NormalizeEmail lowercases and trims an email address and consolidates
// consecutive dots in the local part. Invalid shapes are returned as-is so
// validation can reject them with the original value intact.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	local := dotRegex.ReplaceAllString(parts[0], ".")
	local = strings.Trim(local, ".")

	return local + "@" + parts[1]
}

// MaskEmail hides the local part for log output while keeping the domain
// recognizable.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	local := parts[0]
	switch {
	case len(local) <= 1:
		local = "*"
	case len(local) == 2:
		local = string(local[0]) + "*"
	default:
		local = string(local[0]) + strings.Repeat("*", len(local)-2) + string(local[len(local)-1])
	}

	return local + "@" + parts[1]
}
