package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is an account identified by a verified email address. Accounts are
// created lazily on the first successful magic-link verification.
type User struct {
	ID            uuid.UUID
	Email         string
	Name          string
	Image         string
	EmailVerified *time.Time
	CreatedAt     time.Time
}

// IsVerified reports whether the user's email address has been confirmed
// through a magic-link sign-in.
func (u User) IsVerified() bool {
	return u.EmailVerified != nil
}

// VerificationToken is a single-use magic-link credential bound to an email
// address. Tokens are opaque random strings; possession proves control of
// the mailbox they were delivered to.
type VerificationToken struct {
	Identifier string
	Token      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// IsExpired reports whether the token's lifetime has elapsed.
func (t VerificationToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// SignInRequest describes the outcome of a magic-link issuance. Delivered
// reports whether the email left the building; a false value with a nil
// error from RequestSignIn means the token is live but the message could
// not be sent.
type SignInRequest struct {
	Email     string
	Token     string
	ExpiresAt time.Time
	Delivered bool
}

// UpdateProfileParams carries the mutable user fields. Nil pointers leave
// the corresponding field untouched.
type UpdateProfileParams struct {
	Name  *string
	Image *string
	Email *string
}
