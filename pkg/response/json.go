package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mstolbov/passlink/pkg/validator"
)

// Envelope is the wire shape of every JSON response.
type Envelope struct {
	Code  string       `json:"code,omitempty"`
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries machine-readable error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status  int
	headers http.Header
	body    Envelope
}

func (resp jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	for key, vals := range resp.headers {
		for _, v := range vals {
			w.Header().Add(key, v)
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.status)
	return json.NewEncoder(w).Encode(resp.body)
}

// JSON responds 200 with data under a response code.
func JSON(code string, data any) Response {
	return JSONWithStatus(http.StatusOK, code, data)
}

// JSONWithStatus responds with an explicit status.
func JSONWithStatus(status int, code string, data any) Response {
	return jsonResponse{status: status, body: Envelope{Code: code, Data: data}}
}

// NoContent responds 204 with an empty body.
func NoContent() Response {
	return noContentResponse{}
}

type noContentResponse struct{}

func (noContentResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// JSONError maps err onto an error envelope. Validation failures become
// 422 with per-field details, HTTPError values keep their status, and
// anything else is a generic 500 that does not leak internals.
func JSONError(err error) Response {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{Code: "internal_error", Message: "something went wrong"}

	var verrs validator.ValidationErrors
	var httpErr HTTPError
	switch {
	case errors.As(err, &verrs):
		status = http.StatusUnprocessableEntity
		detail.Code = "validation_error"
		detail.Message = "the request could not be processed"
		detail.Details = make(map[string]string, len(verrs))
		for _, ve := range verrs {
			if _, ok := detail.Details[ve.Field]; !ok {
				detail.Details[ve.Field] = ve.Message
			}
		}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		detail.Code = httpErr.Key
		detail.Message = http.StatusText(httpErr.Code)
	}

	return jsonResponse{status: status, body: Envelope{Error: detail}}
}

// JSONErrorWithHeaders is JSONError with extra response headers, used for
// hints like Retry-After.
func JSONErrorWithHeaders(err error, headers http.Header) Response {
	resp := JSONError(err).(jsonResponse)
	resp.headers = headers
	return resp
}
