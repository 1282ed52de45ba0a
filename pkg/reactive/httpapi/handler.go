// Package httpapi exposes the reactive engine over net/http. Clients POST a
// reactive.Request as JSON and receive a reactive.Response, or {"error": ...}
// with a non-2xx status.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-formkit/pkg/reactive"
)

// Handler builds the update handler with default options plus overrides.
func Handler(engine *reactive.Engine, fns ...OptionFn) http.Handler {
	return HandlerWithOptions(engine, NewOptions(fns...))
}

// HandlerWithOptions builds the update handler from an Options value.
func HandlerWithOptions(engine *reactive.Engine, opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(opts.RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(opts.RequestIDHeader, requestID)
		logger := opts.Logger.With(slog.String("request_id", requestID))

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, reactive.ErrorBody{Error: http.StatusText(http.StatusMethodNotAllowed)})
			return
		}
		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				code := reactive.GuardStatus(err)
				writeJSON(w, code, reactive.ErrorBody{Error: http.StatusText(code)})
				return
			}
		}

		req, err := Decode(w, r, opts.MaxBodyBytes)
		if err != nil {
			writeError(w, logger, reactive.StatusError{Code: http.StatusBadRequest, Err: err})
			return
		}

		resp, err := engine.Update(r.Context(), req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// Decode reads a reactive request body bounded to maxBytes.
func Decode(w http.ResponseWriter, r *http.Request, maxBytes int64) (reactive.Request, error) {
	var req reactive.Request
	if r.Body == nil {
		return req, errors.New("httpapi: request body is required")
	}
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return req, fmt.Errorf("httpapi: decode request: %w", err)
	}
	return req, nil
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := reactive.Status(err)
	if code >= http.StatusInternalServerError {
		logger.Error("formkit: update failed", slog.String("error", err.Error()))
	} else {
		logger.Debug("formkit: update rejected", slog.Int("status", code), slog.String("error", err.Error()))
	}
	writeJSON(w, code, reactive.Body(err))
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}
