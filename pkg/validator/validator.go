// Package validator provides rule-based input validation with structured
// field errors suitable for API responses.
package validator

import (
	"fmt"
	"strings"
)

// ValidationError describes a single failed rule.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors aggregates all failed rules for a request.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(ve))
	for _, err := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether any error exists for the given field.
func (ve ValidationErrors) Has(field string) bool {
	for _, err := range ve {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Rule is a single validation check with its failure description.
type Rule struct {
	Check   func() bool
	Field   string
	Message string
}

// Apply evaluates all rules and returns the accumulated errors, or nil when
// every rule passes. The returned error is always of type ValidationErrors.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, rule := range rules {
		if !rule.Check() {
			errs = append(errs, ValidationError{Field: rule.Field, Message: rule.Message})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
