// Package binder populates request structs from JSON bodies, form data and
// query strings. Fields are matched by `json`, `form` and `query` struct
// tags; a missing value leaves the field at its zero value.
package binder

import (
	"errors"
	"mime"
	"net/http"
)

var (
	ErrUnsupportedMediaType = errors.New("binder: unsupported media type")
	ErrInvalidJSON          = errors.New("binder: invalid JSON")
	ErrInvalidForm          = errors.New("binder: invalid form data")
	ErrInvalidQuery         = errors.New("binder: invalid query parameter")
)

// Body binds the request body into v, choosing the decoder by Content-Type.
// JSON and urlencoded forms are supported.
func Body(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return errors.Join(ErrUnsupportedMediaType, err)
	}
	switch mediaType {
	case "application/json":
		return JSON(r, v)
	case "application/x-www-form-urlencoded":
		return Form(r, v)
	default:
		return ErrUnsupportedMediaType
	}
}

// Query binds URL query parameters into v using `query` tags.
func Query(r *http.Request, v any) error {
	return bindValues(v, "query", r.URL.Query(), ErrInvalidQuery)
}

// Form binds urlencoded form data into v using `form` tags.
func Form(r *http.Request, v any) error {
	if err := r.ParseForm(); err != nil {
		return errors.Join(ErrInvalidForm, err)
	}
	return bindValues(v, "form", r.PostForm, ErrInvalidForm)
}
