// Package resolver turns a field's option source into a bounded option list.
//
// Resolution never fails from the caller's point of view: unknown functions,
// query errors, panics and timeouts all degrade to an empty list. Every
// failure is logged and recorded on the resolution span so it stays visible.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-formkit/pkg/entities"
	"github.com/goliatone/go-formkit/pkg/expression"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/functions"
	"github.com/goliatone/go-formkit/pkg/model"
)

const (
	DefaultLimit   = 50
	DefaultTimeout = 5 * time.Second

	tracerName = "github.com/goliatone/go-formkit/pkg/resolver"
)

var (
	ErrUnknownFunction = errors.New("resolver: unknown function")
	ErrNoStore         = errors.New("resolver: no entity store configured")
	ErrTimeout         = errors.New("resolver: resolution timed out")
	ErrUnknownSource   = errors.New("resolver: unknown option source")
)

// Result is a resolved option list.
type Result struct {
	Options []model.Option
	HasMore bool
	Grouped bool
}

// Resolver resolves option sources. It holds no per-request state and is safe
// for concurrent use.
type Resolver struct {
	functions   *functions.Registry
	store       entities.Store
	expressions *expression.Engine
	logger      *slog.Logger
	tracer      trace.Tracer
	timeout     time.Duration
	limit       int
	policy      *bluemonday.Policy
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithFunctions(reg *functions.Registry) Option {
	return func(r *Resolver) { r.functions = reg }
}

func WithStore(store entities.Store) Option {
	return func(r *Resolver) { r.store = store }
}

func WithExpressions(engine *expression.Engine) Option {
	return func(r *Resolver) { r.expressions = engine }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Resolver) { r.tracer = tracer }
}

// WithTimeout sets the per-field deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) { r.timeout = timeout }
}

// WithLimit sets the default option window. Fields override it with the
// optionsLimit prop.
func WithLimit(limit int) Option {
	return func(r *Resolver) { r.limit = limit }
}

// New constructs a resolver with defaults for every collaborator except the
// entity store.
func New(options ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.functions == nil {
		r.functions = functions.NewRegistry()
	}
	if r.expressions == nil {
		r.expressions = expression.New()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.limit <= 0 {
		r.limit = DefaultLimit
	}
	r.policy = bluemonday.UGCPolicy()
	return r
}

// Functions exposes the function registry.
func (r *Resolver) Functions() *functions.Registry { return r.functions }

// Expressions exposes the expression engine.
func (r *Resolver) Expressions() *expression.Engine { return r.expressions }

// Limit returns the option window for node.
func (r *Resolver) Limit(node *model.Node) int {
	if limit := node.IntProp("optionsLimit", 0); limit > 0 {
		return limit
	}
	return r.limit
}

type request struct {
	limit     int
	search    string
	searching bool
	// detached skips the selected-value lookup; template nodes have no
	// value of their own in state.
	detached bool
}

// Resolve evaluates the node's option source against state. Computations may
// write state through set; those writes are the only side effect and callers
// must propagate the state they passed in.
func (r *Resolver) Resolve(ctx context.Context, node *model.Node, state *formstate.State) Result {
	return r.resolve(ctx, "formkit.resolve", node, state, request{limit: r.Limit(node)})
}

// ResolveTemplate resolves options for a node inside a repeater or builder
// template. The window is not widened by selected values since the template
// name does not address a path in state.
func (r *Resolver) ResolveTemplate(ctx context.Context, node *model.Node, state *formstate.State) Result {
	return r.resolve(ctx, "formkit.resolve", node, state, request{limit: r.Limit(node), detached: true})
}

// Search filters the node's options by term and bounds them to limit.
// Relationship sources push the search into the entity query.
func (r *Resolver) Search(ctx context.Context, node *model.Node, state *formstate.State, term string, limit int) Result {
	if limit <= 0 {
		limit = r.Limit(node)
	}
	return r.resolve(ctx, "formkit.search", node, state, request{limit: limit, search: term, searching: true})
}

func (r *Resolver) resolve(ctx context.Context, spanName string, node *model.Node, state *formstate.State, req request) Result {
	if node == nil || node.Options == nil {
		return Result{Options: []model.Option{}}
	}
	if state == nil {
		state = formstate.New(nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	kind := node.Options.SourceKind()
	ctx, span := r.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("formkit.field", node.Name),
		attribute.String("formkit.source", string(kind)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	binding := state.Bind()
	defer binding.Close()

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("resolver: panic: %v", rec)}
			}
		}()
		result, err := r.run(ctx, node, binding, req)
		done <- outcome{result: result, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		binding.Close()
		out.err = fmt.Errorf("%w after %s: %v", ErrTimeout, r.timeout, ctx.Err())
	}
	if out.err != nil {
		return r.fail(ctx, span, node, kind, out.err)
	}

	result := r.finish(node, binding, out.result)
	span.SetAttributes(
		attribute.Int("formkit.options", len(result.Options)),
		attribute.Bool("formkit.has_more", result.HasMore),
	)
	return result
}

func (r *Resolver) fail(ctx context.Context, span trace.Span, node *model.Node, kind model.SourceKind, err error) Result {
	r.logger.WarnContext(ctx, "formkit: option resolution failed",
		"field", node.Name,
		"source", string(kind),
		"error", err,
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return Result{Options: []model.Option{}}
}

func (r *Resolver) run(ctx context.Context, node *model.Node, binding *formstate.Binding, req request) (Result, error) {
	switch src := node.Options.(type) {
	case model.StaticSource:
		options := model.CloneOptions(src.Options)
		if options == nil {
			options = []model.Option{}
		}
		if req.searching {
			return bound(filter(options, req.search), req.limit), nil
		}
		return Result{Options: options}, nil

	case model.RelationshipSource:
		return r.relationship(ctx, node, src, binding, req)

	case model.ComputedSource:
		entry, ok := r.functions.Compute(src.Function)
		if !ok {
			return Result{}, fmt.Errorf("%w %q", ErrUnknownFunction, src.Function)
		}
		raw, err := entry.Fn(ctx, binding.Get, binding.Set)
		if err != nil {
			return Result{}, fmt.Errorf("resolver: compute %q: %w", src.Function, err)
		}
		return r.deferred(node, raw, binding, req)

	case model.ExpressionSource:
		raw, err := r.expressions.Eval(src.Source, expression.Env{Get: binding.Get, Set: binding.Set})
		if err != nil {
			return Result{}, err
		}
		return r.deferred(node, raw, binding, req)

	default:
		return Result{}, fmt.Errorf("%w %T", ErrUnknownSource, node.Options)
	}
}

func (r *Resolver) deferred(node *model.Node, raw any, binding *formstate.Binding, req request) (Result, error) {
	options, err := Normalize(raw)
	if err != nil {
		return Result{}, err
	}
	if req.searching {
		return bound(filter(options, req.search), req.limit), nil
	}
	var selected []string
	if !req.detached {
		selected = Selected(node, binding.Get)
	}
	options, truncated := Truncate(options, req.limit, selected)
	return Result{Options: options, HasMore: truncated}, nil
}

func bound(options []model.Option, limit int) Result {
	if limit > 0 && len(options) > limit {
		return Result{Options: options[:limit], HasMore: true}
	}
	return Result{Options: options}
}

// finish applies presentation rules shared by every source.
func (r *Resolver) finish(node *model.Node, binding *formstate.Binding, result Result) Result {
	if result.Options == nil {
		result.Options = []model.Option{}
	}
	if name := node.StringProp("disableOptionWhen"); name != "" {
		if disabled, ok := r.functions.Disabler(name); ok {
			for i := range result.Options {
				if disabled(result.Options[i], binding.Get) {
					result.Options[i].Disabled = true
				}
			}
		}
	}
	if node.BoolProp("allowHtml", false) {
		for i := range result.Options {
			result.Options[i].Label = strings.TrimSpace(r.policy.Sanitize(result.Options[i].Label))
		}
	}
	result.Grouped = Grouped(result.Options)
	return result
}

// Selected returns the node's current value as option values.
func Selected(node *model.Node, get formstate.Getter) []string {
	if node == nil || get == nil {
		return nil
	}
	switch v := get(node.Name).(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := model.Stringify(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		if s := model.Stringify(v); s != "" {
			return []string{s}
		}
		return nil
	}
}
