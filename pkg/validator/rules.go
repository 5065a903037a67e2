package validator

import (
	"net/mail"
	"strings"
)

// ValidEmail checks that value is a syntactically valid, bare email address.
// Uses the stdlib mail parser plus extra constraints for typical web forms:
// no display names, non-empty local part, and a domain with at least one dot.
func ValidEmail(field, value string) Rule {
	return Rule{
		Field:   field,
		Message: "must be a valid email address",
		Check: func() bool {
			value = strings.TrimSpace(value)
			if value == "" {
				return false
			}

			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value {
				return false
			}

			parts := strings.Split(addr.Address, "@")
			if len(parts) != 2 {
				return false
			}

			local, domain := parts[0], parts[1]
			if local == "" || domain == "" {
				return false
			}
			if !strings.Contains(domain, ".") {
				return false
			}
			if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
				return false
			}

			return true
		},
	}
}

// Required checks that value is not empty after trimming whitespace.
func Required(field, value string) Rule {
	return Rule{
		Field:   field,
		Message: "is required",
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
	}
}

// MaxLen checks that value does not exceed max bytes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Field:   field,
		Message: "is too long",
		Check: func() bool {
			return len(value) <= max
		},
	}
}
