// Package registry maps schema ids to the functions that build them. Schemas
// are rebuilt for every request so builders can shape fields from the
// current form state.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
)

var (
	ErrSchemaNotFound  = errors.New("registry: schema not found")
	ErrMissingSchemaID = errors.New("registry: schema id is required")
)

// BuildFunc builds a schema. State is a snapshot of the submitted values and
// must be treated as read-only.
type BuildFunc func(ctx context.Context, state *formstate.State) (*model.Schema, error)

// Registry stores schema builders by id.
type Registry struct {
	mu         sync.RWMutex
	builders   map[string]BuildFunc
	decorators []model.Decorator
}

// Option configures a Registry.
type Option func(*Registry)

// WithDecorators runs decorators on every built schema in order.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(r *Registry) { r.decorators = append(r.decorators, decorators...) }
}

// New creates an empty registry.
func New(options ...Option) *Registry {
	r := &Registry{builders: make(map[string]BuildFunc)}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register adds a builder. Duplicate ids return an error.
func (r *Registry) Register(id string, build BuildFunc) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrMissingSchemaID
	}
	if build == nil {
		return fmt.Errorf("registry: builder for %q is nil", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.builders[id]; exists {
		return fmt.Errorf("registry: schema %q already registered", id)
	}
	r.builders[id] = build
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(id string, build BuildFunc) {
	if err := r.Register(id, build); err != nil {
		panic(err)
	}
}

// RegisterSchema registers a fixed schema. Every build returns a fresh clone.
func (r *Registry) RegisterSchema(schema *model.Schema) error {
	if schema == nil {
		return fmt.Errorf("registry: schema is nil")
	}
	return r.Register(schema.ID, func(context.Context, *formstate.State) (*model.Schema, error) {
		return schema.Clone(), nil
	})
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builders[id]
	return ok
}

// IDs returns the registered ids in order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.builders))
	for id := range r.builders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Build runs the builder for id against a snapshot of state, then validates
// and decorates the result. Builder failures and invalid schemas are
// returned as ConfigurationErrors.
func (r *Registry) Build(ctx context.Context, id string, state *formstate.State) (*model.Schema, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingSchemaID
	}
	r.mu.RLock()
	build, ok := r.builders[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, id)
	}

	snapshot := formstate.New(state.Snapshot())
	schema, err := build(ctx, snapshot)
	if err != nil {
		if model.IsConfigurationError(err) {
			return nil, err
		}
		return nil, &model.ConfigurationError{Schema: id, Err: fmt.Errorf("registry: build: %w", err)}
	}
	if schema == nil {
		return nil, &model.ConfigurationError{Schema: id, Err: fmt.Errorf("registry: builder returned no schema")}
	}
	if schema.ID == "" {
		schema.ID = id
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	for _, decorator := range r.decorators {
		if err := decorator.Decorate(schema); err != nil {
			return nil, &model.ConfigurationError{Schema: id, Err: fmt.Errorf("registry: decorate: %w", err)}
		}
	}
	return schema, nil
}
