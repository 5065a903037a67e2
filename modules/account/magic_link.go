package account

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mstolbov/passlink/pkg/auth"
	"github.com/mstolbov/passlink/pkg/binder"
	"github.com/mstolbov/passlink/pkg/clientip"
	"github.com/mstolbov/passlink/pkg/response"
	"github.com/mstolbov/passlink/pkg/sanitizer"
	"github.com/mstolbov/passlink/pkg/session"
	"github.com/mstolbov/passlink/pkg/token"
)

// MagicLinkService handles the passwordless sign-in flow over HTTP:
// requesting a link, consuming it, and inspecting or ending the session
// it produced.
type MagicLinkService struct {
	svc      *auth.Service
	sessions *session.Manager
	cfg      Config
	logger   *slog.Logger
}

// NewMagicLinkService wires the sign-in flow handlers.
func NewMagicLinkService(svc *auth.Service, sessions *session.Manager, cfg Config, logger *slog.Logger) *MagicLinkService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MagicLinkService{svc: svc, sessions: sessions, cfg: cfg.withDefaults(), logger: logger}
}

func (s *MagicLinkService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/magic-link", s.requestLink)
	r.Get("/callback", s.callback)
	r.Get("/session", s.currentSession)
	r.Post("/logout", s.logout)
	r.Post("/logout-all", s.logoutAll)

	return r
}

type magicLinkRequest struct {
	Email string `json:"email" form:"email"`
	// Redirect is an optional in-app path to land on after the link is
	// consumed, e.g. the page that prompted the sign-in.
	Redirect string `json:"redirect" form:"redirect"`
}

// requestLink issues a token and reports acceptance. The response does
// not reveal whether an account exists for the address.
func (s *MagicLinkService) requestLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if err := binder.Body(r, &req); err != nil {
		response.Render(w, r, response.JSONError(response.ErrBadRequest))
		return
	}

	result, err := s.svc.RequestSignIn(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRateLimited):
			s.logger.WarnContext(r.Context(), "sign-in requests throttled",
				slog.String("email", sanitizer.MaskEmail(req.Email)),
				slog.String("ip", clientip.FromContext(r.Context())))
			headers := http.Header{}
			headers.Set("Retry-After", strconv.Itoa(int(s.cfg.RateLimitWindow.Seconds())))
			response.Render(w, r, response.JSONErrorWithHeaders(response.ErrTooManyRequests, headers))
		default:
			response.Render(w, r, response.JSONError(err))
		}
		return
	}

	if !result.Delivered {
		s.logger.WarnContext(r.Context(), "sign-in link accepted but not delivered",
			slog.String("email", sanitizer.MaskEmail(result.Email)))
	}

	s.rememberRedirect(w, r, req.Redirect, result.ExpiresAt)

	response.Render(w, r, response.JSONWithStatus(http.StatusAccepted, "magic_link_sent", map[string]any{
		"email":      result.Email,
		"expires_at": result.ExpiresAt,
	}))
}

type callbackRequest struct {
	Token string `query:"token"`
}

// callback consumes the link token from the email and starts a session.
// Any token failure collapses to one generic redirect so the URL cannot
// be used to probe token state.
func (s *MagicLinkService) callback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := binder.Query(r, &req); err != nil || req.Token == "" {
		s.redirectError(w, r)
		return
	}

	user, err := s.svc.ConsumeToken(r.Context(), req.Token)
	if err != nil {
		if !auth.IsLinkInvalid(err) {
			s.logger.ErrorContext(r.Context(), "token consumption failed", slog.Any("error", err))
		}
		s.redirectError(w, r)
		return
	}

	if _, err := s.sessions.Create(r.Context(), w, user.ID); err != nil {
		s.logger.ErrorContext(r.Context(), "session creation failed", slog.Any("error", err))
		s.redirectError(w, r)
		return
	}

	response.Render(w, r, response.Redirect(s.consumeRedirect(w, r)))
}

// redirectCookie carries the signed post-login target between the sign-in
// request and the callback. Scoped to the auth routes so it never rides
// along on regular traffic.
const redirectCookie = "auth_redirect"

type redirectState struct {
	Target string `json:"target"`
}

func (s *MagicLinkService) rememberRedirect(w http.ResponseWriter, r *http.Request, target string, expiresAt time.Time) {
	if s.cfg.StateSecret == "" || !isSafeRedirect(target) {
		return
	}

	signed, err := token.Sign(redirectState{Target: target}, s.cfg.StateSecret)
	if err != nil {
		s.logger.WarnContext(r.Context(), "redirect target not preserved", slog.Any("error", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     redirectCookie,
		Value:    signed,
		Path:     "/auth",
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// consumeRedirect resolves where a successful callback should land and
// clears the redirect cookie either way.
func (s *MagicLinkService) consumeRedirect(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(redirectCookie)
	if err != nil {
		return s.cfg.SuccessRedirect
	}

	http.SetCookie(w, &http.Cookie{
		Name:     redirectCookie,
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
	})

	if s.cfg.StateSecret == "" {
		return s.cfg.SuccessRedirect
	}
	state, err := token.Verify[redirectState](c.Value, s.cfg.StateSecret)
	if err != nil || !isSafeRedirect(state.Target) {
		return s.cfg.SuccessRedirect
	}
	return state.Target
}

// isSafeRedirect accepts only in-app absolute paths. Protocol-relative
// URLs and backslash tricks are rejected.
func isSafeRedirect(target string) bool {
	if target == "" || target[0] != '/' {
		return false
	}
	if strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return false
	}
	return true
}

func (s *MagicLinkService) redirectError(w http.ResponseWriter, r *http.Request) {
	target, err := url.Parse(s.cfg.ErrorRedirect)
	if err != nil {
		response.Render(w, r, response.JSONError(response.ErrBadRequest))
		return
	}
	q := target.Query()
	q.Set("error", "invalid_link")
	target.RawQuery = q.Encode()
	response.Render(w, r, response.Redirect(target.String()))
}

// currentSession reports the authenticated user and session expiry.
func (s *MagicLinkService) currentSession(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		response.Render(w, r, response.JSONError(response.ErrUnauthorized))
		return
	}

	user, err := s.svc.GetUser(r.Context(), sess.UserID)
	if err != nil {
		response.Render(w, r, response.JSONError(response.ErrUnauthorized))
		return
	}

	response.Render(w, r, response.JSON("session", sessionPayload(sess, user)))
}

// logout destroys the current session.
func (s *MagicLinkService) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.Context(), w, r); err != nil && !errors.Is(err, session.ErrNotFound) {
		s.logger.ErrorContext(r.Context(), "logout failed", slog.Any("error", err))
	}
	response.Render(w, r, response.NoContent())
}

// logoutAll destroys every session belonging to the current user.
func (s *MagicLinkService) logoutAll(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		response.Render(w, r, response.JSONError(response.ErrUnauthorized))
		return
	}
	if err := s.sessions.DestroyAll(r.Context(), sess.UserID); err != nil {
		response.Render(w, r, response.JSONError(err))
		return
	}
	response.Render(w, r, response.NoContent())
}

func sessionPayload(sess *session.Session, user *auth.User) map[string]any {
	return map[string]any{
		"user": map[string]any{
			"id":             user.ID,
			"email":          user.Email,
			"name":           user.Name,
			"image":          user.Image,
			"email_verified": user.EmailVerified,
		},
		"expires_at": sess.ExpiresAt.Format(time.RFC3339),
	}
}
