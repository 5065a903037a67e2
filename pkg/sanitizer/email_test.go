package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mstolbov/passlink/pkg/sanitizer"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "User@Example.COM", "user@example.com"},
		{"trims whitespace", "  user@example.com  ", "user@example.com"},
		{"consolidates dots", "first..last@example.com", "first.last@example.com"},
		{"trims leading dot", ".user@example.com", "user@example.com"},
		{"passes through missing at", "not-an-email", "not-an-email"},
		{"passes through multiple at", "a@b@c", "a@b@c"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizer.NormalizeEmail(tt.input))
		})
	}
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "u***r@example.com", sanitizer.MaskEmail("user@example.com"))
	assert.Equal(t, "*@example.com", sanitizer.MaskEmail("u@example.com"))
	assert.Equal(t, "a*@example.com", sanitizer.MaskEmail("ab@example.com"))
	assert.Equal(t, "not-an-email", sanitizer.MaskEmail("not-an-email"))
}
