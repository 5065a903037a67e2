package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// Returns an empty Attr when err is nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// Component records the subsystem name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Locale records the resolved request locale under the key "locale".
func Locale(locale string) slog.Attr {
	return slog.String("locale", locale)
}
