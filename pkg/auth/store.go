package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user User) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// UpdateProfile applies non-nil fields from params. An email change
	// clears EmailVerified; implementations must report
	// ErrEmailAlreadyExists on a unique collision.
	UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (*User, error)
	// MarkEmailVerified stamps the verification time for the user.
	MarkEmailVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error
}

// TokenStore persists magic-link verification tokens.
type TokenStore interface {
	// Save stores a token, atomically replacing any live token already
	// held by the same identifier.
	Save(ctx context.Context, token VerificationToken) error
	// Consume atomically removes the token and returns it. A token that
	// does not exist, or was already consumed, yields ErrTokenNotFound.
	// Expiry is not checked here; callers inspect the returned record.
	Consume(ctx context.Context, token string) (*VerificationToken, error)
	// DeleteExpired removes tokens past their expiry and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)
}
