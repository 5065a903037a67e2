// Package session manages server-side sessions referenced by an opaque,
// signed cookie. Sessions use sliding expiry: accessing a session inside
// the refresh window pushes its expiry forward.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("session: not found")
	ErrExpired         = errors.New("session: expired")
	ErrInvalidSession  = errors.New("session: invalid")
	ErrTokenGeneration = errors.New("session: token generation failed")
	ErrNoStore         = errors.New("session: no store configured")
	ErrNoCookieManager = errors.New("session: no cookie manager configured")
)

// Session grants an authenticated identity to subsequent requests.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the session is past its expiry. An expired
// session must be treated as absent.
func (s *Session) IsExpired() bool {
	return s == nil || !time.Now().Before(s.ExpiresAt)
}

// dueForRefresh reports whether the session was last extended more than
// updateAge ago. Expiry tracks the most recent refresh (expiry - maxAge),
// so refreshing at most once per updateAge keeps store writes bounded.
func (s *Session) dueForRefresh(maxAge, updateAge time.Duration) bool {
	lastRefreshed := s.ExpiresAt.Add(-maxAge)
	return time.Since(lastRefreshed) >= updateAge
}
