// Package searchapi serves option search for searchable and relationship
// fields. Clients POST {schemaId, field, search, limit, formState} and receive
// {data, hasMore}.
package searchapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/goliatone/go-formkit/pkg/reactive"
	"github.com/goliatone/go-formkit/pkg/reactive/httpapi"
)

// Handler builds the search handler with default options plus overrides.
func Handler(engine *reactive.Engine, fns ...OptionFn) http.Handler {
	return HandlerWithOptions(engine, NewOptions(fns...))
}

// HandlerWithOptions builds the search handler from an Options value.
func HandlerWithOptions(engine *reactive.Engine, opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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

		req, err := decode(w, r, opts.MaxBodyBytes)
		if err != nil {
			writeError(w, opts.Logger, reactive.StatusError{Code: http.StatusBadRequest, Err: err})
			return
		}
		req.Limit = Clamp(req.Limit, opts.MaxLimit)

		resp, err := engine.Search(r.Context(), req)
		if err != nil {
			writeError(w, opts.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// Clamp bounds a requested limit to max. Non-positive limits stay zero so the
// field's own window applies.
func Clamp(limit, max int) int {
	switch {
	case limit <= 0:
		return 0
	case max > 0 && limit > max:
		return max
	default:
		return limit
	}
}

// RegisterRoutes registers the search handler under basePath on mux.
func RegisterRoutes(mux httpapi.Mux, basePath string, engine *reactive.Engine, fns ...OptionFn) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("searchapi: missing mux")
	}
	if engine == nil {
		return "", fmt.Errorf("searchapi: missing engine")
	}
	opts := NewOptions(fns...)
	pattern := httpapi.JoinPath(basePath, opts.RoutePath)
	mux.Handle(pattern, HandlerWithOptions(engine, opts))
	return pattern, nil
}

func decode(w http.ResponseWriter, r *http.Request, maxBytes int64) (reactive.SearchRequest, error) {
	var req reactive.SearchRequest
	if r.Body == nil {
		return req, errors.New("searchapi: request body is required")
	}
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return req, fmt.Errorf("searchapi: decode request: %w", err)
	}
	return req, nil
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := reactive.Status(err)
	if code >= http.StatusInternalServerError {
		logger.Error("formkit: option search failed", slog.String("error", err.Error()))
	}
	writeJSON(w, code, reactive.Body(err))
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
