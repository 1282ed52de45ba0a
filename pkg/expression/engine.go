// Package expression evaluates expr-lang programs against form state.
// Programs see get(path), set(path, value), values and extras, plus every
// top-level entry of Env.Values as a bare identifier.
// Compiled programs are immutable and shared across requests through an LRU
// cache keyed by source and by the built-in functions the values shadow: a
// field named count or len is read as that field, not as the built-in.
package expression

import (
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/goliatone/go-formkit/pkg/formstate"
)

const defaultCacheSize = 512

// Env binds a program run to form state.
type Env struct {
	Get    formstate.Getter
	Set    formstate.Setter
	Values map[string]any
	Extras map[string]any
}

// Engine compiles and runs expressions.
type Engine struct {
	cacheSize int
	cache     *lru.Cache[string, *vm.Program]
}

// Option configures an Engine.
type Option func(*Engine)

// WithCacheSize bounds the number of cached programs.
func WithCacheSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.cacheSize = size
		}
	}
}

// New constructs an engine.
func New(options ...Option) *Engine {
	e := &Engine{cacheSize: defaultCacheSize}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	cache, err := lru.New[string, *vm.Program](e.cacheSize)
	if err != nil {
		panic(fmt.Sprintf("expression: create cache: %v", err))
	}
	e.cache = cache
	return e
}

func compileEnv() map[string]any {
	return map[string]any{
		"get":    func(path string) any { return nil },
		"set":    func(path string, value any) any { return value },
		"values": map[string]any{},
		"extras": map[string]any{},
	}
}

// Compile returns the cached program for source, compiling it on first use.
func (e *Engine) Compile(source string) (*vm.Program, error) {
	return e.compile(source, nil)
}

func (e *Engine) compile(source string, shadowed []string) (*vm.Program, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("expression: source is required")
	}
	key := source
	if len(shadowed) > 0 {
		key += "\x00" + strings.Join(shadowed, ",")
	}
	if program, ok := e.cache.Get(key); ok {
		return program, nil
	}
	options := []expr.Option{
		expr.Env(compileEnv()),
		expr.DisableBuiltin("get"),
		expr.AllowUndefinedVariables(),
	}
	for _, name := range shadowed {
		options = append(options, expr.DisableBuiltin(name))
	}
	program, err := expr.Compile(source, options...)
	if err != nil {
		return nil, fmt.Errorf("expression: compile %q: %w", source, err)
	}
	e.cache.Add(key, program)
	return program, nil
}

// shadowedBuiltins returns the sorted built-in names that are also
// top-level value keys.
func shadowedBuiltins(values map[string]any) []string {
	var out []string
	for name := range values {
		if name == "get" {
			continue
		}
		if _, ok := builtin.Index[name]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Eval runs source against env.
func (e *Engine) Eval(source string, env Env) (any, error) {
	program, err := e.compile(source, shadowedBuiltins(env.Values))
	if err != nil {
		return nil, err
	}
	result, err := expr.Run(program, runEnv(env))
	if err != nil {
		return nil, fmt.Errorf("expression: evaluate %q: %w", source, err)
	}
	return result, nil
}

// EvalBool runs source and requires a boolean result.
func (e *Engine) EvalBool(source string, env Env) (bool, error) {
	result, err := e.Eval(source, env)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression: %q returned %T, want bool", source, result)
	}
	return b, nil
}

// Len reports the number of cached programs.
func (e *Engine) Len() int {
	return e.cache.Len()
}

func runEnv(env Env) map[string]any {
	get := env.Get
	if get == nil {
		values := env.Values
		get = func(path string) any { return lookup(values, path) }
	}
	set := env.Set
	values := env.Values
	if values == nil {
		values = map[string]any{}
	}
	extras := env.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	out := make(map[string]any, len(values)+4)
	for key, value := range values {
		out[key] = value
	}
	for key, value := range map[string]any{
		"get": func(path string) any { return get(path) },
		"set": func(path string, value any) any {
			if set != nil {
				set(path, value)
			}
			return value
		},
		"values": values,
		"extras": extras,
	} {
		out[key] = value
	}
	return out
}

func lookup(values map[string]any, path string) any {
	var current any = values
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[segment]
	}
	return current
}
