// Package response renders HTTP handler results as JSON envelopes or
// redirects and maps domain errors onto status codes.
package response

import (
	"net/http"
)

// Response is a renderable handler result.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Render writes resp and falls back to a bare 500 when rendering itself
// fails mid-flight.
func Render(w http.ResponseWriter, r *http.Request, resp Response) {
	if err := resp.Render(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// redirectResponse issues a plain HTTP redirect.
type redirectResponse struct {
	url  string
	code int
}

func (resp redirectResponse) Render(w http.ResponseWriter, r *http.Request) error {
	http.Redirect(w, r, resp.url, resp.code)
	return nil
}

// Redirect responds with 303 (See Other).
func Redirect(url string) Response {
	return redirectResponse{url: url, code: http.StatusSeeOther}
}

// RedirectWithCode responds with the given 3xx status.
func RedirectWithCode(url string, code int) Response {
	return redirectResponse{url: url, code: code}
}
