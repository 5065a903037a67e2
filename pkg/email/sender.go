// Package email delivers transactional mail through Postmark in production
// and through a file-based sender in development. Delivery failures are
// always returned as values; senders never panic on transport errors.
package email

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrFailedToSend  = errors.New("email: failed to send")
	ErrInvalidParams = errors.New("email: invalid parameters")
	ErrInvalidConfig = errors.New("email: invalid configuration")
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Sender sends a single transactional email.
type Sender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams describes one outbound message.
type SendEmailParams struct {
	SendTo   string // Recipient address
	Subject  string
	BodyText string // Plain text body
	BodyHTML string
	Tag      string // Optional provider-side category tag
}

// Validate checks the parameters before any delivery attempt.
func (p SendEmailParams) Validate() error {
	if !emailRegex.MatchString(p.SendTo) {
		return fmt.Errorf("%w: recipient %q is not a valid email address", ErrInvalidParams, p.SendTo)
	}
	if p.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidParams)
	}
	if p.BodyHTML == "" && p.BodyText == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidParams)
	}
	return nil
}
