// Package apierr tags errors from the ingestion and analytics layers with
// the HTTP status and stable machine code they should surface as, so
// handlers respond uniformly instead of switching on error strings.
package apierr

import (
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// BadRequest marks a caller mistake: malformed body, bad run id, missing
// required fields.
func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

// NotFound marks a lookup that matched nothing.
func NotFound(code string, err error) *Error {
	return New(http.StatusNotFound, code, err)
}

// Unavailable marks a capability disabled in this deployment, such as the
// sentiment classifier running without credentials.
func Unavailable(code string, err error) *Error {
	return New(http.StatusServiceUnavailable, code, err)
}

// Upstream marks a dependency failure: the classifier API or the graph
// store rejected the call.
func Upstream(code string, err error) *Error {
	return New(http.StatusBadGateway, code, err)
}

// Internal marks everything the other constructors do not cover.
func Internal(code string, err error) *Error {
	return New(http.StatusInternalServerError, code, err)
}
