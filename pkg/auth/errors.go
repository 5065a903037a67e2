package auth

import "errors"

var (
	// ErrUserNotFound is returned when a user lookup matches no account.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailAlreadyExists is returned when an email change collides with
	// another account.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrTokenNotFound is returned when a magic-link token does not exist,
	// including tokens that were already consumed.
	ErrTokenNotFound = errors.New("verification token not found")
	// ErrTokenExpired is returned when a magic-link token exists but its
	// lifetime has elapsed. The token is destroyed on the way out.
	ErrTokenExpired = errors.New("verification token expired")
	// ErrRateLimited is returned when an identifier has exhausted its
	// sign-in request budget for the current window.
	ErrRateLimited = errors.New("too many sign-in requests")
	// ErrFailedToStore wraps persistence failures.
	ErrFailedToStore = errors.New("failed to store record")
)

// IsLinkInvalid reports whether err should be presented to the end user as
// a generic "invalid or expired link" failure. Consumed, unknown and
// expired tokens are deliberately indistinguishable at the edge.
func IsLinkInvalid(err error) bool {
	return errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrTokenExpired)
}
