package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mstolbov/passlink/pkg/cookie"
	"github.com/mstolbov/passlink/pkg/token"
)

// Manager creates, resolves, refreshes and destroys sessions, carrying the
// session token in a signed cookie.
type Manager struct {
	store   Store
	cookies *cookie.Manager
	config  Config
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.config = cfg }
}

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.logger = log }
}

// NewManager creates a session manager. The store and cookie manager are
// required; misconfiguration is an error rather than a runtime surprise.
func NewManager(store Store, cookies *cookie.Manager, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if cookies == nil {
		return nil, ErrNoCookieManager
	}

	m := &Manager{
		store:   store,
		cookies: cookies,
		config:  DefaultConfig(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Create establishes a new session for the user and sets the session cookie.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, userID uuid.UUID) (*Session, error) {
	tok, err := token.Generate()
	if err != nil {
		return nil, errors.Join(ErrTokenGeneration, err)
	}

	now := time.Now()
	sess := &Session{
		ID:        uuid.New(),
		Token:     tok,
		UserID:    userID,
		ExpiresAt: now.Add(m.config.MaxAge),
		CreatedAt: now,
	}

	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	m.setCookie(w, tok)
	return sess, nil
}

// Get resolves the request's session. Returns ErrNotFound when no valid
// cookie is present and ErrExpired when the referenced session is past its
// expiry. A session accessed outside the refresh window gets its expiry
// extended (sliding expiry); refresh failures are logged, not fatal, since
// the session itself is still valid.
func (m *Manager) Get(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	tok, err := m.cookies.GetSigned(r, m.config.CookieName)
	if err != nil {
		return nil, ErrNotFound
	}

	sess, err := m.store.Get(ctx, tok)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired() {
		_ = m.store.Delete(ctx, tok)
		return nil, ErrExpired
	}

	if sess.dueForRefresh(m.config.MaxAge, m.config.UpdateAge) {
		expiresAt := time.Now().Add(m.config.MaxAge)
		if err := m.store.UpdateExpiry(ctx, tok, expiresAt); err != nil {
			m.logger.WarnContext(ctx, "failed to refresh session expiry",
				slog.Any("error", err),
				slog.String("component", "session"),
			)
		} else {
			sess.ExpiresAt = expiresAt
			if w != nil {
				m.setCookie(w, tok)
			}
		}
	}

	return sess, nil
}

// Destroy deletes the current session and clears the cookie. Destroying a
// request without a session is a no-op.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tok, err := m.cookies.GetSigned(r, m.config.CookieName)
	if err == nil && tok != "" {
		if err := m.store.Delete(ctx, tok); err != nil {
			return err
		}
	}

	m.cookies.Delete(w, m.config.CookieName)
	return nil
}

// DestroyAll removes every session for the user, e.g. after an email change.
func (m *Manager) DestroyAll(ctx context.Context, userID uuid.UUID) error {
	return m.store.DeleteByUserID(ctx, userID.String())
}

func (m *Manager) setCookie(w http.ResponseWriter, tok string) {
	m.cookies.SetSigned(w, m.config.CookieName, tok,
		cookie.WithMaxAge(int(m.config.MaxAge.Seconds())),
		cookie.WithHTTPOnly(true),
		cookie.WithSecure(m.config.SecureCookies),
	)
}
