// Package fiberapi mounts the reactive update and option search endpoints on
// a Fiber router.
package fiberapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/goliatone/go-formkit/pkg/reactive"
	"github.com/goliatone/go-formkit/pkg/serialize"
)

const (
	defaultUpdatePath = "/_formkit/update"
	defaultMaxLimit   = 100
)

type Options struct {
	UpdatePath string
	SearchPath string
	MaxLimit   int
	Logger     *slog.Logger
	// Middleware runs before both handlers, e.g. auth.FiberMiddleware.
	Middleware []fiber.Handler
}

type OptionFn func(*Options)

func NewOptions(fns ...OptionFn) Options {
	opts := Options{
		UpdatePath: defaultUpdatePath,
		SearchPath: serialize.DefaultOptionsURL,
		MaxLimit:   defaultMaxLimit,
	}
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.UpdatePath == "" {
		opts.UpdatePath = defaultUpdatePath
	}
	if opts.SearchPath == "" {
		opts.SearchPath = serialize.DefaultOptionsURL
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaultMaxLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

func WithUpdatePath(path string) OptionFn {
	return func(o *Options) { o.UpdatePath = path }
}

func WithSearchPath(path string) OptionFn {
	return func(o *Options) { o.SearchPath = path }
}

func WithMaxLimit(n int) OptionFn {
	return func(o *Options) { o.MaxLimit = n }
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) { o.Logger = logger }
}

func WithMiddleware(handlers ...fiber.Handler) OptionFn {
	return func(o *Options) { o.Middleware = append(o.Middleware, handlers...) }
}

// Register mounts both endpoints on router.
func Register(router fiber.Router, engine *reactive.Engine, fns ...OptionFn) error {
	if router == nil {
		return fmt.Errorf("fiberapi: missing router")
	}
	if engine == nil {
		return fmt.Errorf("fiberapi: missing engine")
	}
	opts := NewOptions(fns...)
	router.Post(opts.UpdatePath, append(append([]fiber.Handler{}, opts.Middleware...), UpdateHandler(engine, opts))...)
	router.Post(opts.SearchPath, append(append([]fiber.Handler{}, opts.Middleware...), SearchHandler(engine, opts))...)
	return nil
}

// UpdateHandler serves reactive updates.
func UpdateHandler(engine *reactive.Engine, opts Options) fiber.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return func(c *fiber.Ctx) error {
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, requestID)
		logger := opts.Logger.With(slog.String("request_id", requestID))

		var req reactive.Request
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return reply(c, logger, reactive.StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("fiberapi: decode request: %w", err)})
		}
		resp, err := engine.Update(c.UserContext(), req)
		if err != nil {
			return reply(c, logger, err)
		}
		return c.JSON(resp)
	}
}

// SearchHandler serves option search.
func SearchHandler(engine *reactive.Engine, opts Options) fiber.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return func(c *fiber.Ctx) error {
		var req reactive.SearchRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return reply(c, opts.Logger, reactive.StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("fiberapi: decode request: %w", err)})
		}
		if req.Limit < 0 {
			req.Limit = 0
		}
		if req.Limit > opts.MaxLimit {
			req.Limit = opts.MaxLimit
		}
		resp, err := engine.Search(c.UserContext(), req)
		if err != nil {
			return reply(c, opts.Logger, err)
		}
		return c.JSON(resp)
	}
}

func reply(c *fiber.Ctx, logger *slog.Logger, err error) error {
	code := reactive.Status(err)
	if code >= http.StatusInternalServerError {
		logger.Error("formkit: request failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return c.Status(code).JSON(reactive.Body(err))
}
