package reactive

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/registry"
)

// HTTPError is an error that carries its response status.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError pairs an error with a status code. Guards return it to pick
// the rejection status.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Status maps an update error to an HTTP status.
func Status(err error) int {
	var httpErr HTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &httpErr):
		return httpErr.StatusCode()
	case errors.Is(err, registry.ErrMissingSchemaID):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrSchemaNotFound), errors.Is(err, ErrFieldNotFound):
		return http.StatusNotFound
	case model.IsConfigurationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the JSON body written for failed requests.
type ErrorBody struct {
	Error string `json:"error"`
}

// Body renders err for clients. Internal errors are not echoed.
func Body(err error) ErrorBody {
	if Status(err) >= http.StatusInternalServerError {
		return ErrorBody{Error: http.StatusText(http.StatusInternalServerError)}
	}
	return ErrorBody{Error: err.Error()}
}

// GuardFunc authorizes a request before it reaches the engine. Returning an
// HTTPError selects the rejection status; any other error yields 403.
type GuardFunc func(r *http.Request) error

// GuardStatus returns the status for a guard rejection.
func GuardStatus(err error) int {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		if c := httpErr.StatusCode(); c > 0 {
			code = c
		}
	}
	return code
}
