// Package account exposes the HTTP surface for passwordless sign-in,
// session inspection and profile management.
package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mstolbov/passlink/pkg/session"
)

// Mountable is a self-contained sub-service exposing its own handler.
type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount. Nil services are
// simply left out.
type RouterOptions struct {
	MagicLink Mountable
	Profile   Mountable

	// Sessions, when set, installs the session middleware around the
	// whole module so handlers can read the current identity.
	Sessions *session.Manager

	// Fallback serves every path the module does not claim, typically
	// the locale-negotiating application shell.
	Fallback http.Handler
}

// Router assembles the account module.
//
//	r := chi.NewRouter()
//	r.Mount("/", account.Router(account.RouterOptions{
//	    MagicLink: magicLinkSvc,
//	    Profile:   profileSvc,
//	    Sessions:  sessionMgr,
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.Sessions != nil {
		r.Use(session.Middleware(opts.Sessions))
	}

	if opts.MagicLink != nil {
		r.Mount("/auth", opts.MagicLink.Handle())
	}
	if opts.Profile != nil {
		r.Mount("/profile", opts.Profile.Handle())
	}

	if opts.Fallback != nil {
		r.NotFound(opts.Fallback.ServeHTTP)
	}

	return r
}
