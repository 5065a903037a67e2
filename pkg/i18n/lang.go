// Package i18n resolves a request's locale from cookies and headers,
// keeps URLs locale-prefixed, and translates message keys from YAML
// dictionaries.
package i18n

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// DefaultLocale is used when no supported locale can be negotiated.
const DefaultLocale = "en"

// DefaultSupportedLocales is the locale set served by default.
var DefaultSupportedLocales = []string{"en", "es"}

// maxAcceptLanguageLength caps header parsing work. RFC 7231 sets no limit,
// but 4KB is generous for legitimate headers.
const maxAcceptLanguageLength = 4096

type langWithQ struct {
	lang string
	q    float64
}

// parseAcceptLanguageHeader parses an Accept-Language header into language
// tags ordered by quality value, handling malformed entries gracefully.
func parseAcceptLanguageHeader(header string) []langWithQ {
	if header == "" {
		return nil
	}

	if len(header) > maxAcceptLanguageLength {
		header = header[:maxAcceptLanguageLength]
	}

	var languages []langWithQ

	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		langAndQ := strings.Split(part, ";")
		lang := strings.ToLower(strings.TrimSpace(langAndQ[0]))
		q := 1.0

		if len(langAndQ) > 1 {
			qPart := strings.TrimSpace(langAndQ[1])
			if strings.HasPrefix(qPart, "q=") {
				if qVal, err := strconv.ParseFloat(qPart[2:], 64); err == nil && qVal >= 0 && qVal <= 1 {
					q = qVal
				}
			}
		}

		if lang != "" {
			languages = append(languages, langWithQ{lang: lang, q: q})
		}
	}

	slices.SortStableFunc(languages, func(a, b langWithQ) int {
		return cmp.Compare(b.q, a.q)
	})

	return languages
}

// NegotiateLocale picks the best supported locale for an Accept-Language
// header. Exact tag matches win first in quality order, then primary
// subtag matches (en-US -> en). Falls back to defaultLocale.
func NegotiateLocale(header string, supported []string, defaultLocale string) string {
	if header == "" || len(supported) == 0 {
		return defaultLocale
	}

	normalized := make([]string, len(supported))
	for i, lang := range supported {
		normalized[i] = strings.ToLower(lang)
	}

	languages := parseAcceptLanguageHeader(header)

	for _, lq := range languages {
		if slices.Contains(normalized, lq.lang) {
			return lq.lang
		}
	}

	for _, lq := range languages {
		if idx := strings.Index(lq.lang, "-"); idx > 0 {
			if base := lq.lang[:idx]; slices.Contains(normalized, base) {
				return base
			}
		}
	}

	return defaultLocale
}

// IsSupported reports whether locale is an exact member of the supported
// set. Lookalike codes outside the set are ordinary strings, never locales.
func IsSupported(locale string, supported []string) bool {
	return slices.Contains(supported, locale)
}
