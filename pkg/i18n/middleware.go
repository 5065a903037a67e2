package i18n

import (
	"net/http"
	"strings"

	"github.com/mstolbov/passlink/pkg/cookie"
)

// LocaleCookieName follows the convention established by the frontend
// stack, so both sides read the same preference.
const LocaleCookieName = "NEXT_LOCALE"

// localeCookieMaxAge keeps the preference for about one year.
const localeCookieMaxAge = 365 * 24 * 60 * 60

// RedirectConfig configures the locale redirect middleware.
type RedirectConfig struct {
	SupportedLocales []string
	DefaultLocale    string
	CookieName       string
}

// DefaultRedirectConfig returns the standard configuration.
func DefaultRedirectConfig() RedirectConfig {
	return RedirectConfig{
		SupportedLocales: DefaultSupportedLocales,
		DefaultLocale:    DefaultLocale,
		CookieName:       LocaleCookieName,
	}
}

// LocaleRedirect resolves the request's locale and guarantees every path
// carries an explicit locale prefix.
//
// Resolution precedence: locale cookie, then Accept-Language, then the
// default. Requests whose first path segment is not a supported locale are
// redirected to the locale-prefixed path with the query string intact; a
// segment that merely looks like a locale code is treated as an ordinary
// path segment. Prefixed requests pass through with the locale and the
// original pathname annotated on the context. The cookie is written back
// whenever the resolved locale differs from it.
func LocaleRedirect(cookies *cookie.Manager, cfg RedirectConfig) func(http.Handler) http.Handler {
	if len(cfg.SupportedLocales) == 0 {
		cfg.SupportedLocales = DefaultSupportedLocales
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = DefaultLocale
	}
	if cfg.CookieName == "" {
		cfg.CookieName = LocaleCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookieLocale := ""
			if v, err := cookies.Get(r, cfg.CookieName); err == nil {
				cookieLocale = v
			}

			locale := cookieLocale
			if !IsSupported(locale, cfg.SupportedLocales) {
				locale = NegotiateLocale(r.Header.Get("Accept-Language"), cfg.SupportedLocales, cfg.DefaultLocale)
			}

			pathLocale, rest := splitLocale(r.URL.Path, cfg.SupportedLocales)

			if pathLocale == "" {
				// Bare path: redirect to the locale-prefixed equivalent,
				// keeping the query string and scheme untouched.
				target := *r.URL
				target.Path = "/" + locale + rest

				writeLocaleCookie(cookies, w, cfg.CookieName, locale, cookieLocale)

				status := http.StatusFound
				if r.Method != http.MethodGet && r.Method != http.MethodHead {
					// 307 keeps the method and body across the redirect.
					status = http.StatusTemporaryRedirect
				}
				http.Redirect(w, r, target.String(), status)
				return
			}

			writeLocaleCookie(cookies, w, cfg.CookieName, pathLocale, cookieLocale)

			ctx := SetLocale(r.Context(), pathLocale)
			ctx = SetPathname(ctx, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// splitLocale returns the supported locale leading the path, if any, and
// the remainder of the path (always starting with "/" or empty).
func splitLocale(path string, supported []string) (locale, rest string) {
	trimmed := strings.TrimPrefix(path, "/")
	segment, remainder, _ := strings.Cut(trimmed, "/")

	if IsSupported(segment, supported) {
		if remainder == "" {
			return segment, ""
		}
		return segment, "/" + remainder
	}

	if path == "" || path == "/" {
		return "", ""
	}
	return "", path
}

func writeLocaleCookie(cookies *cookie.Manager, w http.ResponseWriter, name, locale, current string) {
	if locale == current {
		return
	}
	// Client-side code reads this cookie too, so it is not httpOnly.
	cookies.Set(w, name, locale,
		cookie.WithMaxAge(localeCookieMaxAge),
		cookie.WithHTTPOnly(false),
	)
}
