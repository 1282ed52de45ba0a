package httpapi

import (
	"log/slog"

	"github.com/goliatone/go-formkit/pkg/reactive"
)

const (
	defaultRoutePath       = "/_formkit/update"
	defaultRequestIDHeader = "X-Request-ID"
	defaultMaxBodyBytes    = 1 << 20
)

type Options struct {
	RoutePath       string
	RequestIDHeader string
	MaxBodyBytes    int64
	Guard           reactive.GuardFunc
	Logger          *slog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:       defaultRoutePath,
		RequestIDHeader: defaultRequestIDHeader,
		MaxBodyBytes:    defaultMaxBodyBytes,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = defaultRoutePath
	}
	if opts.RequestIDHeader == "" {
		opts.RequestIDHeader = defaultRequestIDHeader
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) { o.RoutePath = path }
}

func WithRequestIDHeader(name string) OptionFn {
	return func(o *Options) { o.RequestIDHeader = name }
}

func WithMaxBodyBytes(n int64) OptionFn {
	return func(o *Options) { o.MaxBodyBytes = n }
}

func WithGuard(guard reactive.GuardFunc) OptionFn {
	return func(o *Options) { o.Guard = guard }
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) { o.Logger = logger }
}
