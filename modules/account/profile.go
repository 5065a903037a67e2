package account

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mstolbov/passlink/pkg/auth"
	"github.com/mstolbov/passlink/pkg/binder"
	"github.com/mstolbov/passlink/pkg/response"
	"github.com/mstolbov/passlink/pkg/session"
)

// ProfileService exposes the authenticated user's profile. Changing the
// email address drops the verified state and revokes all other sessions;
// the new address must be confirmed through a fresh magic link.
type ProfileService struct {
	svc      *auth.Service
	sessions *session.Manager
	logger   *slog.Logger
}

// NewProfileService wires the profile handlers.
func NewProfileService(svc *auth.Service, sessions *session.Manager, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{svc: svc, sessions: sessions, logger: logger}
}

func (s *ProfileService) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(session.RequireAuth)

	r.Get("/", s.show)
	r.Patch("/", s.update)

	return r
}

func (s *ProfileService) show(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	user, err := s.svc.GetUser(r.Context(), sess.UserID)
	if err != nil {
		response.Render(w, r, response.JSONError(response.ErrUnauthorized))
		return
	}
	response.Render(w, r, response.JSON("profile", profilePayload(user)))
}

type updateProfileRequest struct {
	Name  *string `json:"name" form:"name"`
	Image *string `json:"image" form:"image"`
	Email *string `json:"email" form:"email"`
}

func (s *ProfileService) update(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	var req updateProfileRequest
	if err := binder.Body(r, &req); err != nil {
		response.Render(w, r, response.JSONError(response.ErrBadRequest))
		return
	}

	user, err := s.svc.GetUser(r.Context(), sess.UserID)
	if err != nil {
		response.Render(w, r, response.JSONError(response.ErrUnauthorized))
		return
	}
	emailChanging := req.Email != nil && *req.Email != user.Email

	updated, err := s.svc.UpdateProfile(r.Context(), sess.UserID, auth.UpdateProfileParams{
		Name:  req.Name,
		Image: req.Image,
		Email: req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			response.Render(w, r, response.JSONError(response.ErrConflict))
		default:
			response.Render(w, r, response.JSONError(err))
		}
		return
	}

	// An email change revokes every session and reissues one for the
	// current browser so other devices are logged out.
	if emailChanging && updated.EmailVerified == nil {
		if err := s.sessions.DestroyAll(r.Context(), sess.UserID); err != nil {
			s.logger.ErrorContext(r.Context(), "failed to revoke sessions after email change",
				slog.Any("error", err))
		} else if _, err := s.sessions.Create(r.Context(), w, sess.UserID); err != nil {
			s.logger.ErrorContext(r.Context(), "failed to reissue session after email change",
				slog.Any("error", err))
		}
	}

	response.Render(w, r, response.JSON("profile", profilePayload(updated)))
}

func profilePayload(user *auth.User) map[string]any {
	return map[string]any{
		"id":             user.ID,
		"email":          user.Email,
		"name":           user.Name,
		"image":          user.Image,
		"email_verified": user.EmailVerified,
		"created_at":     user.CreatedAt,
	}
}
