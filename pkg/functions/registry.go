// Package functions holds the named functions a schema refers to by id:
// option computations, state hooks, relationship query modifiers, label
// functions and option-disable predicates. Schemas stay data; behaviour is
// looked up here at resolution time.
package functions

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formkit/pkg/entities"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
)

// ComputeFunc produces options from form state. The result may be a list or
// mapping; anything else resolves to no options.
type ComputeFunc func(ctx context.Context, get formstate.Getter, set formstate.Setter) (any, error)

// HookFunc runs after a field changes and may write other fields.
type HookFunc func(ctx context.Context, get formstate.Getter, set formstate.Setter) error

// ModifierFunc adjusts a relationship query using form state.
type ModifierFunc func(ctx context.Context, q *entities.Query, get formstate.Getter) error

// LabelFunc renders the label of a relationship record.
type LabelFunc func(record entities.Record) string

// DisableFunc reports whether an option should be rendered disabled.
type DisableFunc func(option model.Option, get formstate.Getter) bool

// Compute pairs a compute function with the fields it reads.
type Compute struct {
	Fn        ComputeFunc
	DependsOn []string
}

// Modifier pairs a query modifier with the fields it reads.
type Modifier struct {
	Fn        ModifierFunc
	DependsOn []string
}

// Registry stores functions by kind and name. Registering a name twice within
// a kind is an error.
type Registry struct {
	mu        sync.RWMutex
	computes  map[string]Compute
	hooks     map[string]HookFunc
	modifiers map[string]Modifier
	labels    map[string]LabelFunc
	disablers map[string]DisableFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		computes:  make(map[string]Compute),
		hooks:     make(map[string]HookFunc),
		modifiers: make(map[string]Modifier),
		labels:    make(map[string]LabelFunc),
		disablers: make(map[string]DisableFunc),
	}
}

func register[T any](r *Registry, bucket map[string]T, kind, name string, value T, nilValue bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("functions: %s name is required", kind)
	}
	if nilValue {
		return fmt.Errorf("functions: %s %q is nil", kind, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := bucket[name]; exists {
		return fmt.Errorf("functions: %s %q already registered", kind, name)
	}
	bucket[name] = value
	return nil
}

func lookup[T any](r *Registry, bucket func(*Registry) map[string]T, name string) (T, bool) {
	if r == nil {
		var zero T
		return zero, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := bucket(r)[name]
	return value, ok
}

// RegisterCompute adds an option computation and the fields it reads. Go
// functions are opaque, so the dependency list is the only source of truth
// for reactive updates.
func (r *Registry) RegisterCompute(name string, fn ComputeFunc, dependsOn ...string) error {
	return register(r, r.computes, "compute", name, Compute{Fn: fn, DependsOn: slices.Clone(dependsOn)}, fn == nil)
}

// RegisterHook adds a state hook.
func (r *Registry) RegisterHook(name string, fn HookFunc) error {
	return register(r, r.hooks, "hook", name, fn, fn == nil)
}

// RegisterModifier adds a relationship query modifier.
func (r *Registry) RegisterModifier(name string, fn ModifierFunc, dependsOn ...string) error {
	return register(r, r.modifiers, "modifier", name, Modifier{Fn: fn, DependsOn: slices.Clone(dependsOn)}, fn == nil)
}

// RegisterLabel adds a record label function.
func (r *Registry) RegisterLabel(name string, fn LabelFunc) error {
	return register(r, r.labels, "label", name, fn, fn == nil)
}

// RegisterDisabler adds an option-disable predicate.
func (r *Registry) RegisterDisabler(name string, fn DisableFunc) error {
	return register(r, r.disablers, "disabler", name, fn, fn == nil)
}

// MustRegisterCompute panics on registration failure. Useful for init-time
// wiring.
func (r *Registry) MustRegisterCompute(name string, fn ComputeFunc, dependsOn ...string) {
	if err := r.RegisterCompute(name, fn, dependsOn...); err != nil {
		panic(err)
	}
}

// MustRegisterHook panics on registration failure.
func (r *Registry) MustRegisterHook(name string, fn HookFunc) {
	if err := r.RegisterHook(name, fn); err != nil {
		panic(err)
	}
}

// MustRegisterModifier panics on registration failure.
func (r *Registry) MustRegisterModifier(name string, fn ModifierFunc, dependsOn ...string) {
	if err := r.RegisterModifier(name, fn, dependsOn...); err != nil {
		panic(err)
	}
}

func (r *Registry) Compute(name string) (Compute, bool) {
	return lookup(r, func(r *Registry) map[string]Compute { return r.computes }, name)
}

func (r *Registry) Hook(name string) (HookFunc, bool) {
	return lookup(r, func(r *Registry) map[string]HookFunc { return r.hooks }, name)
}

func (r *Registry) Modifier(name string) (Modifier, bool) {
	return lookup(r, func(r *Registry) map[string]Modifier { return r.modifiers }, name)
}

func (r *Registry) Label(name string) (LabelFunc, bool) {
	return lookup(r, func(r *Registry) map[string]LabelFunc { return r.labels }, name)
}

func (r *Registry) Disabler(name string) (DisableFunc, bool) {
	return lookup(r, func(r *Registry) map[string]DisableFunc { return r.disablers }, name)
}

// Names returns the sorted names registered for each kind.
func (r *Registry) Names() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string][]string{
		"compute":  sortedKeys(r.computes),
		"hook":     sortedKeys(r.hooks),
		"modifier": sortedKeys(r.modifiers),
		"label":    sortedKeys(r.labels),
		"disabler": sortedKeys(r.disablers),
	}
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for key := range m {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
