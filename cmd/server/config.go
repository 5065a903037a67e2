package main

import (
	"time"

	"github.com/mstolbov/passlink/modules/account"
	"github.com/mstolbov/passlink/pkg/email"
	"github.com/mstolbov/passlink/pkg/httpserver"
	"github.com/mstolbov/passlink/pkg/pg"
	"github.com/mstolbov/passlink/pkg/redis"
	"github.com/mstolbov/passlink/pkg/session"
)

type appConfig struct {
	Env string `env:"APP_ENV" envDefault:"development"`
	// BaseURL is the public origin used to build magic links.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieSecrets holds signing keys, first entry signs, the rest only
	// verify so keys can be rotated without logging everyone out.
	CookieSecrets []string `env:"COOKIE_SECRETS,required"`

	// SupportedLocales lists locale codes served by the app; the first
	// one doubles as the fallback unless DefaultLocale overrides it.
	SupportedLocales []string `env:"SUPPORTED_LOCALES" envDefault:"en,es"`
	DefaultLocale    string   `env:"DEFAULT_LOCALE" envDefault:"en"`
	TranslationsDir  string   `env:"TRANSLATIONS_DIR" envDefault:"translations"`

	// Sign-in request throttling per email address.
	RateLimitRequests int           `env:"AUTH_RATE_LIMIT_REQUESTS" envDefault:"5"`
	RateLimitWindow   time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"15m"`
	TokenTTL          time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	HTTP    httpserver.Config
	PG      pg.Config
	Redis   redis.Config
	Email   email.Config
	Session session.Config
	Account account.Config
}

func (c appConfig) isDevelopment() bool {
	return c.Env != "production"
}
