package i18n

import (
	"context"
	"log/slog"

	"github.com/mstolbov/passlink/pkg/logger"
)

type localeContextKey struct{}

type pathnameContextKey struct{}

// SetLocale stores the resolved locale in the context.
func SetLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeContextKey{}, locale)
}

// GetLocale returns the request's locale, or DefaultLocale when unset.
func GetLocale(ctx context.Context) string {
	locale, _ := ctx.Value(localeContextKey{}).(string)
	if locale == "" {
		return DefaultLocale
	}
	return locale
}

// LocaleExtractor annotates log records with the request locale when one
// has been resolved.
func LocaleExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		locale, ok := ctx.Value(localeContextKey{}).(string)
		if !ok || locale == "" {
			return slog.Attr{}, false
		}
		return slog.String("locale", locale), true
	}
}

// SetPathname stores the original locale-prefixed pathname, used as the
// post-login redirect target.
func SetPathname(ctx context.Context, pathname string) context.Context {
	return context.WithValue(ctx, pathnameContextKey{}, pathname)
}

// GetPathname returns the original request pathname, or "/" when unset.
func GetPathname(ctx context.Context) string {
	pathname, _ := ctx.Value(pathnameContextKey{}).(string)
	if pathname == "" {
		return "/"
	}
	return pathname
}
