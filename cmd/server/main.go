package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mstolbov/passlink/modules/account"
	"github.com/mstolbov/passlink/pkg/auth"
	"github.com/mstolbov/passlink/pkg/clientip"
	"github.com/mstolbov/passlink/pkg/config"
	"github.com/mstolbov/passlink/pkg/cookie"
	"github.com/mstolbov/passlink/pkg/email"
	"github.com/mstolbov/passlink/pkg/httpserver"
	"github.com/mstolbov/passlink/pkg/i18n"
	"github.com/mstolbov/passlink/pkg/logger"
	"github.com/mstolbov/passlink/pkg/pg"
	"github.com/mstolbov/passlink/pkg/ratelimiter"
	"github.com/mstolbov/passlink/pkg/redis"
	"github.com/mstolbov/passlink/pkg/requestid"
	"github.com/mstolbov/passlink/pkg/session"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := newLogger(cfg)
	slog.SetDefault(log)

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	cookies, err := cookie.New(cfg.CookieSecrets)
	if err != nil {
		return err
	}

	sessions, err := session.NewManager(session.NewPostgresStore(pool), cookies,
		session.WithConfig(cfg.Session),
		session.WithLogger(log),
	)
	if err != nil {
		return err
	}

	limiter, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(rdb), ratelimiter.Config{
		Capacity:       cfg.RateLimitRequests,
		RefillRate:     cfg.RateLimitRequests,
		RefillInterval: cfg.RateLimitWindow,
	})
	if err != nil {
		return err
	}

	store := auth.NewPostgresStore(pool)
	authSvc, err := auth.NewService(store, store, newSender(cfg, log),
		cfg.BaseURL+"/auth/callback",
		auth.WithTokenTTL(cfg.TokenTTL),
		auth.WithRateLimiter(limiter),
		auth.WithLogger(log),
	)
	if err != nil {
		return err
	}

	go purgeExpired(ctx, authSvc, log)

	translator, err := i18n.LoadTranslator(os.DirFS(cfg.TranslationsDir), ".",
		i18n.WithDefaultLocale(cfg.DefaultLocale))
	if err != nil {
		return err
	}

	router := newRouter(cfg, log, cookies, sessions, authSvc, translator, pool, rdb)

	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, router)
}

func newLogger(cfg appConfig) *slog.Logger {
	if cfg.isDevelopment() {
		return logger.New(logger.WithDevelopment("passlink"))
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return logger.New(
		logger.WithProduction("passlink"),
		logger.WithLevel(level),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithContextExtractors(i18n.LocaleExtractor(), requestid.LogExtractor()),
	)
}

// newSender picks the delivery transport: Postmark in production, local
// files in development. Both are wrapped with the retry policy.
func newSender(cfg appConfig, log *slog.Logger) email.Sender {
	var transport email.Sender
	if cfg.isDevelopment() || cfg.Email.PostmarkServerToken == "" {
		transport = email.NewDevSender(cfg.Email.DevOutputDir)
	} else {
		var err error
		transport, err = email.NewPostmarkSender(cfg.Email)
		if err != nil {
			log.Warn("postmark unavailable, falling back to dev sender", slog.Any("error", err))
			transport = email.NewDevSender(cfg.Email.DevOutputDir)
		}
	}
	return email.NewRetrySender(transport, cfg.Email, log)
}

func newRouter(cfg appConfig, log *slog.Logger, cookies *cookie.Manager, sessions *session.Manager, authSvc *auth.Service, translator *i18n.Translator, pool *pgxpool.Pool, rdb *goredis.Client) http.Handler {
	r := chi.NewRouter()
	r.Use(clientip.Middleware)
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthHandler(log,
		httpserver.HealthCheck{Name: "postgres", Check: pool.Ping},
		httpserver.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}},
	))

	accountCfg := cfg.Account
	accountCfg.RateLimitWindow = cfg.RateLimitWindow

	r.Mount("/", account.Router(account.RouterOptions{
		MagicLink: account.NewMagicLinkService(authSvc, sessions, accountCfg, log),
		Profile:   account.NewProfileService(authSvc, sessions, log),
		Sessions:  sessions,
		Fallback:  localeShell(cfg, cookies, translator),
	}))

	return r
}

// localeShell serves every non-API path through the locale negotiation
// layer, so bare paths are redirected to their locale-prefixed form.
func localeShell(cfg appConfig, cookies *cookie.Manager, translator *i18n.Translator) http.Handler {
	localeCfg := i18n.RedirectConfig{
		SupportedLocales: cfg.SupportedLocales,
		DefaultLocale:    cfg.DefaultLocale,
		CookieName:       i18n.LocaleCookieName,
	}

	shell := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := i18n.GetLocale(r.Context())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<!DOCTYPE html><html lang=%q><body><h1>%s</h1><p>%s</p></body></html>\n",
			locale,
			translator.T(locale, "app.title"),
			translator.T(locale, "app.tagline"),
		)
	})

	return i18n.LocaleRedirect(cookies, localeCfg)(shell)
}

// purgeExpired sweeps dead verification tokens periodically.
func purgeExpired(ctx context.Context, svc *auth.Service, log *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpiredTokens(ctx)
			if err != nil {
				log.Error("token purge failed", slog.Any("error", err))
				continue
			}
			if n > 0 {
				log.Debug("purged expired tokens", slog.Int64("count", n))
			}
		}
	}
}
