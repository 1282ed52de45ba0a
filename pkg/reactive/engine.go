// Package reactive implements the update round trip: the client posts the
// form state and the name of the field it changed, the engine rebuilds the
// schema against that state, runs the field's after-update hook, and returns
// the freshly serialized schema together with the (possibly mutated) state.
package reactive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-formkit/pkg/dependency"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/functions"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/registry"
	"github.com/goliatone/go-formkit/pkg/resolver"
	"github.com/goliatone/go-formkit/pkg/serialize"
	"github.com/goliatone/go-formkit/pkg/visibility"
	visexpr "github.com/goliatone/go-formkit/pkg/visibility/expr"
)

const tracerName = "github.com/goliatone/go-formkit/pkg/reactive"

// Request is the reactive update payload.
type Request struct {
	// SchemaID selects the registered schema builder.
	SchemaID string `json:"schemaId"`

	// FormState is the current client state. Malformed or missing state is
	// treated as empty.
	FormState json.RawMessage `json:"formState,omitempty"`

	// ChangedField is the dotted path of the field the user edited. Empty
	// requests re-render without running hooks.
	ChangedField string `json:"changedField,omitempty"`

	// Target names the serialization target. Defaults to the engine default.
	Target string `json:"target,omitempty"`

	// RequestToken is echoed back so clients can discard stale responses.
	RequestToken string `json:"requestToken,omitempty"`

	// Params are caller supplied values exposed to visibility rules as extras.
	Params map[string]any `json:"params,omitempty"`
}

// Response is returned for a successful update.
type Response struct {
	Schema       []serialize.PropertyMap `json:"schema"`
	Data         map[string]any          `json:"data"`
	Affected     []string                `json:"affected"`
	Changed      []string                `json:"changed"`
	RequestToken string                  `json:"requestToken,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) { e.registry = reg }
}

func WithSerializer(s *serialize.Serializer) Option {
	return func(e *Engine) { e.serializer = s }
}

// WithFunctions supplies the registry holding after-update hooks.
func WithFunctions(reg *functions.Registry) Option {
	return func(e *Engine) { e.functions = reg }
}

func WithExtractor(x *dependency.Extractor) Option {
	return func(e *Engine) { e.extractor = x }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithDefaultTarget overrides the target used when a request omits one.
func WithDefaultTarget(name string) Option {
	return func(e *Engine) { e.defaultTarget = name }
}

// Engine coordinates registry, hooks, dependency graph and serializer. It
// keeps no per-request state and is safe for concurrent use.
type Engine struct {
	registry      *registry.Registry
	serializer    *serialize.Serializer
	functions     *functions.Registry
	extractor     *dependency.Extractor
	logger        *slog.Logger
	tracer        trace.Tracer
	defaultTarget string
}

// New constructs an Engine. Missing collaborators get the built-in defaults,
// including expression based visibility rules.
func New(options ...Option) *Engine {
	e := &Engine{
		logger:        slog.Default(),
		defaultTarget: serialize.TargetWeb,
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.registry == nil {
		e.registry = registry.New()
	}
	if e.functions == nil {
		e.functions = functions.NewRegistry()
	}
	if e.serializer == nil {
		r := resolver.New(resolver.WithFunctions(e.functions), resolver.WithLogger(e.logger))
		e.serializer = serialize.New(
			serialize.WithLogger(e.logger),
			serialize.WithResolver(r),
			serialize.WithVisibility(visexpr.New(r.Expressions())),
		)
	}
	if e.extractor == nil {
		e.extractor = dependency.New(e.functions)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e
}

// Registry exposes the schema registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Serializer exposes the serializer.
func (e *Engine) Serializer() *serialize.Serializer { return e.serializer }

// Update handles one reactive round trip. Errors are registry.ErrMissingSchemaID,
// registry.ErrSchemaNotFound or a model.ConfigurationError.
func (e *Engine) Update(ctx context.Context, req Request) (*Response, error) {
	ctx, span := e.tracer.Start(ctx, "formkit.update", trace.WithAttributes(
		attribute.String("formkit.schema", req.SchemaID),
		attribute.String("formkit.changed_field", req.ChangedField),
	))
	defer span.End()

	resp, err := e.update(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("formkit.affected", len(resp.Affected)))
	return resp, nil
}

func (e *Engine) update(ctx context.Context, req Request) (*Response, error) {
	state := formstate.Decode(req.FormState)
	if len(req.Params) > 0 {
		// Server supplied extras, such as authenticated claims, win over params.
		extras := maps.Clone(req.Params)
		maps.Copy(extras, visibility.ExtrasFrom(ctx))
		ctx = visibility.WithExtras(ctx, extras)
	}

	schema, err := e.registry.Build(ctx, req.SchemaID, state)
	if err != nil {
		return nil, err
	}

	changed := strings.TrimSpace(req.ChangedField)
	affected := []string{}
	if changed != "" {
		if node, ok := FindPath(schema, changed); ok {
			e.runHook(ctx, node, changed, state)
		}
		affected = e.extractor.Build(schema).Affected(changed)
	}

	target := req.Target
	if target == "" {
		target = e.defaultTarget
	}
	rendered, err := e.serializer.Serialize(ctx, schema, state, target)
	if err != nil {
		return nil, err
	}

	return &Response{
		Schema:       rendered,
		Data:         state.Snapshot(),
		Affected:     affected,
		Changed:      state.Changed(),
		RequestToken: req.RequestToken,
	}, nil
}

// runHook executes the node's after-update hook. Hook failures are logged and
// the update continues with whatever the hook wrote.
func (e *Engine) runHook(ctx context.Context, node *model.Node, path string, state *formstate.State) {
	name := node.AfterStateUpdated
	if name == "" {
		return
	}
	logger := e.logger.With(slog.String("field", path), slog.String("hook", name))
	hook, ok := e.functions.Hook(name)
	if !ok {
		logger.WarnContext(ctx, "formkit: unknown state hook")
		return
	}
	binding := state.Bind()
	defer binding.Close()
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("reactive: hook panic: %v", rec)
			}
		}()
		return hook(ctx, binding.Get, binding.Set)
	}()
	if err != nil {
		logger.WarnContext(ctx, "formkit: state hook failed", slog.String("error", err.Error()))
		trace.SpanFromContext(ctx).RecordError(err)
	}
}

// FindPath locates the node addressed by a dotted state path such as
// "country", "items.0.sku" or "content.1.data.title".
func FindPath(schema *model.Schema, path string) (*model.Node, bool) {
	if schema == nil {
		return nil, false
	}
	return findIn(schema.Nodes, strings.Split(path, "."))
}

func findIn(nodes []*model.Node, segments []string) (*model.Node, bool) {
	if len(segments) == 0 {
		return nil, false
	}
	node, ok := scopeField(nodes, segments[0])
	if !ok {
		return nil, false
	}
	rest := segments[1:]
	if len(rest) == 0 {
		return node, true
	}
	if _, err := strconv.Atoi(rest[0]); err != nil {
		return nil, false
	}
	rest = rest[1:]
	switch node.Kind {
	case model.KindRepeater:
		return findIn(node.Schema, rest)
	case model.KindBuilder:
		if len(rest) > 0 && rest[0] == "data" {
			rest = rest[1:]
		}
		for _, block := range node.Blocks {
			if found, ok := findIn(block.Schema, rest); ok {
				return found, true
			}
		}
	}
	return nil, false
}

func scopeField(nodes []*model.Node, name string) (*model.Node, bool) {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if node.Kind.IsLayout() {
			if found, ok := scopeField(node.Schema, name); ok {
				return found, true
			}
			continue
		}
		if node.Name == name {
			return node, true
		}
	}
	return nil, false
}
