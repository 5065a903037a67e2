package session

import (
	"context"
	"time"
)

// Store is the persistence backend for sessions. Get must treat expired
// rows as absent; implementations are encouraged to delete them on read.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by its token.
	Get(ctx context.Context, token string) (*Session, error)

	// UpdateExpiry moves the session's expiry forward (sliding refresh).
	UpdateExpiry(ctx context.Context, token string, expiresAt time.Time) error

	// Delete removes a session by token. Deleting an absent token is not
	// an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUserID removes every session belonging to a user.
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired purges expired sessions.
	DeleteExpired(ctx context.Context) error
}
