package searchapi

import (
	"log/slog"

	"github.com/goliatone/go-formkit/pkg/reactive"
	"github.com/goliatone/go-formkit/pkg/serialize"
)

const (
	defaultMaxLimit     = 100
	defaultMaxBodyBytes = 1 << 20
)

type Options struct {
	RoutePath    string
	MaxLimit     int
	MaxBodyBytes int64
	Guard        reactive.GuardFunc
	Logger       *slog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    serialize.DefaultOptionsURL,
		MaxLimit:     defaultMaxLimit,
		MaxBodyBytes: defaultMaxBodyBytes,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.RoutePath == "" {
		opts.RoutePath = serialize.DefaultOptionsURL
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaultMaxLimit
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

// WithMaxLimit caps the page size a client may request.
func WithMaxLimit(n int) OptionFn {
	return func(o *Options) { o.MaxLimit = n }
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
