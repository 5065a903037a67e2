// Package auth implements passwordless sign-in with single-use magic links.
// A sign-in request issues an opaque token bound to an email address and
// delivers it as a link; consuming the token proves mailbox ownership and
// resolves or creates the account.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/mstolbov/passlink/pkg/email"
	"github.com/mstolbov/passlink/pkg/ratelimiter"
	"github.com/mstolbov/passlink/pkg/sanitizer"
	"github.com/mstolbov/passlink/pkg/token"
	"github.com/mstolbov/passlink/pkg/validator"
)

const defaultTokenTTL = 24 * time.Hour

// Service orchestrates the magic-link flow: issuance, delivery and
// consumption of verification tokens, plus account resolution.
type Service struct {
	users   UserStore
	tokens  TokenStore
	limiter ratelimiter.RateLimiter
	mailer  email.Sender

	callbackURL string
	tokenTTL    time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithTokenTTL overrides the verification token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithLogger sets the logger used for delivery and refresh diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRateLimiter enables per-identifier throttling of sign-in requests.
func WithRateLimiter(limiter ratelimiter.RateLimiter) Option {
	return func(s *Service) {
		s.limiter = limiter
	}
}

// NewService builds the magic-link service. callbackURL is the absolute
// address of the token consumption endpoint; the token is appended as a
// query parameter.
func NewService(users UserStore, tokens TokenStore, mailer email.Sender, callbackURL string, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token store is required")
	}
	if mailer == nil {
		return nil, errors.New("auth: email sender is required")
	}
	if _, err := url.ParseRequestURI(callbackURL); err != nil {
		return nil, fmt.Errorf("auth: invalid callback URL %q: %w", callbackURL, err)
	}

	s := &Service{
		users:       users,
		tokens:      tokens,
		mailer:      mailer,
		callbackURL: callbackURL,
		tokenTTL:    defaultTokenTTL,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RequestSignIn issues a fresh magic-link token for the email address and
// delivers it. Any previously issued live token for the same address is
// invalidated. A delivery failure is not fatal: the token stays valid and
// the returned SignInRequest reports Delivered=false.
func (s *Service) RequestSignIn(ctx context.Context, rawEmail string) (*SignInRequest, error) {
	addr := sanitizer.NormalizeEmail(rawEmail)
	if err := validator.Apply(validator.ValidEmail("email", addr)); err != nil {
		return nil, err
	}

	if s.limiter != nil {
		result, err := s.limiter.Allow(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("auth: rate limit check: %w", err)
		}
		if !result.Allowed() {
			return nil, fmt.Errorf("%w: retry after %s", ErrRateLimited, result.RetryAfter().Round(time.Second))
		}
	}

	raw, err := token.Generate()
	if err != nil {
		return nil, fmt.Errorf("auth: generate token: %w", err)
	}

	vt := VerificationToken{
		Identifier: addr,
		Token:      raw,
		ExpiresAt:  s.now().Add(s.tokenTTL),
		CreatedAt:  s.now(),
	}
	if err := s.tokens.Save(ctx, vt); err != nil {
		return nil, errors.Join(ErrFailedToStore, err)
	}

	req := &SignInRequest{
		Email:     addr,
		Token:     raw,
		ExpiresAt: vt.ExpiresAt,
	}

	link := s.magicLink(raw)
	text, htmlBody, err := email.MagicLinkEmail{URL: link, ExpiresIn: s.tokenTTL}.Render(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: render sign-in email: %w", err)
	}

	if err := s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   addr,
		Subject:  "Sign in to your account",
		BodyText: text,
		BodyHTML: htmlBody,
		Tag:      "magic-link",
	}); err != nil {
		s.logger.ErrorContext(ctx, "magic link delivery failed",
			slog.String("email", sanitizer.MaskEmail(addr)),
			slog.Any("error", err))
		return req, nil
	}

	req.Delivered = true
	return req, nil
}

// ConsumeToken redeems a magic-link token. The token is destroyed whether
// or not consumption succeeds; a second presentation of the same value
// fails with ErrTokenNotFound. On success the matching user is returned,
// created on the fly for a previously unseen address, with the email
// marked verified.
func (s *Service) ConsumeToken(ctx context.Context, raw string) (*User, error) {
	if raw == "" {
		return nil, ErrTokenNotFound
	}

	vt, err := s.tokens.Consume(ctx, raw)
	if err != nil {
		return nil, err
	}
	if s.now().After(vt.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	user, err := s.users.GetUserByEmail(ctx, vt.Identifier)
	switch {
	case errors.Is(err, ErrUserNotFound):
		verifiedAt := s.now()
		user, err = s.users.CreateUser(ctx, User{
			ID:            uuid.New(),
			Email:         vt.Identifier,
			EmailVerified: &verifiedAt,
			CreatedAt:     verifiedAt,
		})
		if err != nil {
			return nil, errors.Join(ErrFailedToStore, err)
		}
	case err != nil:
		return nil, err
	case user.EmailVerified == nil:
		verifiedAt := s.now()
		if err := s.users.MarkEmailVerified(ctx, user.ID, verifiedAt); err != nil {
			return nil, errors.Join(ErrFailedToStore, err)
		}
		user.EmailVerified = &verifiedAt
	}

	return user, nil
}

// GetUser returns the user by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetUserByID(ctx, id)
}

// UpdateProfile applies profile changes. Changing the email address resets
// the verified state; the user must complete a fresh magic-link sign-in to
// verify the new address. Name and image changes leave verification alone.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (*User, error) {
	if params.Email != nil {
		addr := sanitizer.NormalizeEmail(*params.Email)
		if err := validator.Apply(validator.ValidEmail("email", addr)); err != nil {
			return nil, err
		}
		params.Email = &addr
	}
	if params.Name != nil {
		if err := validator.Apply(validator.MaxLen("name", *params.Name, 100)); err != nil {
			return nil, err
		}
	}
	return s.users.UpdateProfile(ctx, id, params)
}

// PurgeExpiredTokens removes verification tokens past their expiry.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx)
}

func (s *Service) magicLink(raw string) string {
	u, err := url.Parse(s.callbackURL)
	if err != nil {
		return s.callbackURL + "?token=" + url.QueryEscape(raw)
	}
	q := u.Query()
	q.Set("token", raw)
	u.RawQuery = q.Encode()
	return u.String()
}
