package session

import "time"

// Config holds session lifecycle configuration.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"session"`

	// MaxAge is how long a session lives after creation or its most recent
	// sliding refresh.
	MaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"720h"`

	// UpdateAge is the sliding refresh window: a session accessed more than
	// UpdateAge after its last refresh gets its expiry extended.
	UpdateAge time.Duration `env:"SESSION_UPDATE_AGE" envDefault:"24h"`

	// CleanupInterval is how often expired sessions are purged from stores
	// that need active cleanup (0 disables it).
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	// SecureCookies sets the Secure flag on session cookies.
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
}

// DefaultConfig returns the production defaults: 30 day lifetime with a
// 24 hour sliding refresh window.
func DefaultConfig() Config {
	return Config{
		CookieName:      "session",
		MaxAge:          30 * 24 * time.Hour,
		UpdateAge:       24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}
