package account

import "time"

// Config holds the account module settings.
type Config struct {
	// SuccessRedirect is where a consumed magic link lands. The locale
	// middleware upstream turns it into a locale-prefixed URL.
	SuccessRedirect string `env:"AUTH_SUCCESS_REDIRECT" envDefault:"/"`
	// ErrorRedirect receives failed link consumptions with an error code
	// in the query string.
	ErrorRedirect string `env:"AUTH_ERROR_REDIRECT" envDefault:"/auth/error"`
	// RateLimitWindow is exposed to clients via Retry-After when sign-in
	// requests are throttled.
	RateLimitWindow time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"15m"`
	// StateSecret signs the post-login redirect target so it survives the
	// email round trip without being forgeable. Leaving it empty disables
	// the redirect parameter and every sign-in lands on SuccessRedirect.
	StateSecret string `env:"AUTH_STATE_SECRET"`
}

func (c Config) withDefaults() Config {
	if c.SuccessRedirect == "" {
		c.SuccessRedirect = "/"
	}
	if c.ErrorRedirect == "" {
		c.ErrorRedirect = "/auth/error"
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = 15 * time.Minute
	}
	return c
}
