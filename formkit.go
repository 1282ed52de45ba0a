// Package formkit wires the schema registry, option resolver, serializer,
// reactive engine and validator into one Kit.
//
//	kit := formkit.New(formkit.WithStore(store))
//	kit.MustRegister(model.NewSchema("address",
//		model.Select("country").StaticOptions(countries...).Live(0),
//		model.Select("state").Computed("states", "country"),
//	))
//	resp, err := kit.Engine.Update(ctx, reactive.Request{SchemaID: "address"})
package formkit

import (
	"context"
	"log/slog"
	"time"

	"github.com/goliatone/go-formkit/pkg/entities"
	"github.com/goliatone/go-formkit/pkg/expression"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/functions"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/reactive"
	"github.com/goliatone/go-formkit/pkg/registry"
	"github.com/goliatone/go-formkit/pkg/resolver"
	"github.com/goliatone/go-formkit/pkg/serialize"
	"github.com/goliatone/go-formkit/pkg/storage"
	"github.com/goliatone/go-formkit/pkg/validation"
	"github.com/goliatone/go-formkit/pkg/visibility"
	visexpr "github.com/goliatone/go-formkit/pkg/visibility/expr"

	"github.com/goliatone/go-formkit/components/timezones"
)

// Kit groups the collaborators of one form runtime. All members are safe for
// concurrent use.
type Kit struct {
	Functions  *functions.Registry
	Registry   *registry.Registry
	Resolver   *resolver.Resolver
	Serializer *serialize.Serializer
	Engine     *reactive.Engine
	Validator  *validation.Validator
	Disks      *storage.Disks
}

type settings struct {
	store      entities.Store
	logger     *slog.Logger
	timeout    time.Duration
	limit      int
	disks      *storage.Disks
	targets    *serialize.Targets
	decorators []model.Decorator
	optionsURL string
	messages   map[string]string
	functions  *functions.Registry
}

// Option configures New.
type Option func(*settings)

// WithStore sets the entity store queried by relationship options.
func WithStore(store entities.Store) Option {
	return func(s *settings) { s.store = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithTimeout sets the per-field option resolution deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) { s.timeout = timeout }
}

// WithLimit sets the default option window.
func WithLimit(limit int) Option {
	return func(s *settings) { s.limit = limit }
}

func WithDisks(disks *storage.Disks) Option {
	return func(s *settings) { s.disks = disks }
}

func WithTargets(targets *serialize.Targets) Option {
	return func(s *settings) { s.targets = targets }
}

// WithDecorators runs decorators on every built schema.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(s *settings) { s.decorators = append(s.decorators, decorators...) }
}

// WithOptionsURL overrides the search endpoint advertised to clients.
func WithOptionsURL(url string) Option {
	return func(s *settings) { s.optionsURL = url }
}

// WithMessages overrides validation message templates by rule name.
func WithMessages(messages map[string]string) Option {
	return func(s *settings) { s.messages = messages }
}

// WithFunctions supplies a pre-populated function registry.
func WithFunctions(reg *functions.Registry) Option {
	return func(s *settings) { s.functions = reg }
}

// New builds a Kit. The timezones compute function is registered unless the
// supplied function registry already defines one.
func New(options ...Option) *Kit {
	cfg := settings{logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.functions == nil {
		cfg.functions = functions.NewRegistry()
	}
	if _, ok := cfg.functions.Compute(timezones.FunctionName); !ok {
		_ = timezones.Register(cfg.functions, nil)
	}
	if cfg.disks == nil {
		cfg.disks = storage.NewDisks()
	}

	exprs := expression.New()
	res := resolver.New(
		resolver.WithFunctions(cfg.functions),
		resolver.WithStore(cfg.store),
		resolver.WithExpressions(exprs),
		resolver.WithLogger(cfg.logger),
		resolver.WithTimeout(cfg.timeout),
		resolver.WithLimit(cfg.limit),
	)
	vis := visexpr.New(exprs)

	serializerOpts := []serialize.Option{
		serialize.WithResolver(res),
		serialize.WithVisibility(vis),
		serialize.WithDisks(cfg.disks),
		serialize.WithLogger(cfg.logger),
		serialize.WithTargets(cfg.targets),
	}
	if cfg.optionsURL != "" {
		serializerOpts = append(serializerOpts, serialize.WithOptionsURL(cfg.optionsURL))
	}
	ser := serialize.New(serializerOpts...)
	reg := registry.New(registry.WithDecorators(cfg.decorators...))

	return &Kit{
		Functions:  cfg.functions,
		Registry:   reg,
		Resolver:   res,
		Serializer: ser,
		Engine: reactive.New(
			reactive.WithRegistry(reg),
			reactive.WithSerializer(ser),
			reactive.WithFunctions(cfg.functions),
			reactive.WithLogger(cfg.logger),
		),
		Validator: validation.New(
			validation.WithResolver(res),
			validation.WithVisibility(vis),
			validation.WithMessages(cfg.messages),
			validation.WithLogger(cfg.logger),
		),
		Disks: cfg.disks,
	}
}

// Register adds a static schema.
func (k *Kit) Register(schema *model.Schema) error {
	return k.Registry.RegisterSchema(schema)
}

// MustRegister panics when Register fails.
func (k *Kit) MustRegister(schema *model.Schema) {
	if err := k.Register(schema); err != nil {
		panic(err)
	}
}

// Render builds schema id against values and serializes it for target.
// Extras are exposed to visibility rules.
func (k *Kit) Render(ctx context.Context, id string, values map[string]any, target string, extras map[string]any) ([]serialize.PropertyMap, error) {
	state := formstate.New(values)
	schema, err := k.Registry.Build(ctx, id, state)
	if err != nil {
		return nil, err
	}
	if target == "" {
		target = serialize.TargetWeb
	}
	return k.Serializer.Serialize(visibility.WithExtras(ctx, extras), schema, state, target)
}

// Validate builds schema id against values and checks every visible field.
func (k *Kit) Validate(ctx context.Context, id string, values map[string]any) (validation.Errors, error) {
	state := formstate.New(values)
	schema, err := k.Registry.Build(ctx, id, state)
	if err != nil {
		return nil, err
	}
	return k.Validator.Validate(ctx, schema, state), nil
}
