package i18n

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoTranslations     = errors.New("i18n: no translations loaded")
	ErrInvalidDictionary  = errors.New("i18n: invalid dictionary structure")
	ErrUnsupportedLocale  = errors.New("i18n: unsupported locale")
	ErrMalformedYAML      = errors.New("i18n: malformed yaml")
	ErrUnsupportedFileExt = errors.New("i18n: unsupported file extension")
)

// Translator resolves dot-path message keys against per-locale YAML
// dictionaries. A missing key falls back to the default locale, then to
// the key itself so broken translations stay visible instead of blank.
type Translator struct {
	mu            sync.RWMutex
	dictionaries  map[string]map[string]any
	defaultLocale string
	logger        *slog.Logger
}

// TranslatorOption configures a Translator.
type TranslatorOption func(*Translator)

// WithDefaultLocale sets the fallback locale for missing keys.
func WithDefaultLocale(locale string) TranslatorOption {
	return func(t *Translator) {
		if locale != "" {
			t.defaultLocale = locale
		}
	}
}

// WithTranslatorLogger sets the logger used for missing-key reports.
func WithTranslatorLogger(log *slog.Logger) TranslatorOption {
	return func(t *Translator) {
		if log != nil {
			t.logger = log
		}
	}
}

// NewTranslator creates a Translator from pre-parsed dictionaries.
func NewTranslator(dictionaries map[string]map[string]any, opts ...TranslatorOption) (*Translator, error) {
	if len(dictionaries) == 0 {
		return nil, ErrNoTranslations
	}
	for locale, dict := range dictionaries {
		if locale == "" || dict == nil {
			return nil, fmt.Errorf("%w: locale %q", ErrInvalidDictionary, locale)
		}
	}

	t := &Translator{
		dictionaries:  dictionaries,
		defaultLocale: DefaultLocale,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// LoadTranslator reads every *.yml / *.yaml file under dir in fsys; the
// file name (without extension) is the locale code.
func LoadTranslator(fsys fs.FS, dir string, opts ...TranslatorOption) (*Translator, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	dictionaries := make(map[string]map[string]any)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if !strings.EqualFold(ext, ".yaml") && !strings.EqualFold(ext, ".yml") {
			continue
		}

		data, err := fs.ReadFile(fsys, filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		var dict map[string]any
		if err := yaml.Unmarshal(data, &dict); err != nil {
			return nil, errors.Join(ErrMalformedYAML, err)
		}

		locale := strings.ToLower(strings.TrimSuffix(entry.Name(), ext))
		dictionaries[locale] = dict
	}

	return NewTranslator(dictionaries, opts...)
}

// SupportedLocales returns the locales with loaded dictionaries.
func (t *Translator) SupportedLocales() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	locales := make([]string, 0, len(t.dictionaries))
	for locale := range t.dictionaries {
		locales = append(locales, locale)
	}
	return locales
}

// T translates a dot-path key for the given locale, applying optional
// "{name}" placeholder replacements from args pairs (name, value, ...).
func (t *Translator) T(locale, key string, args ...string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	msg, ok := t.lookup(locale, key)
	if !ok && locale != t.defaultLocale {
		msg, ok = t.lookup(t.defaultLocale, key)
	}
	if !ok {
		t.logger.Warn("missing translation",
			slog.String("locale", locale),
			slog.String("key", key),
		)
		return key
	}

	for i := 0; i+1 < len(args); i += 2 {
		msg = strings.ReplaceAll(msg, "{"+args[i]+"}", args[i+1])
	}

	return msg
}

func (t *Translator) lookup(locale, key string) (string, bool) {
	dict, ok := t.dictionaries[locale]
	if !ok {
		return "", false
	}

	var current any = map[string]any(dict)
	for _, part := range strings.Split(key, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return "", false
		}
		current, ok = node[part]
		if !ok {
			return "", false
		}
	}

	msg, ok := current.(string)
	return msg, ok
}
