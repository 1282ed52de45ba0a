// Package visibility decides whether a node renders given the current form
// state.
package visibility

import (
	"context"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Evaluator evaluates a visibility rule for the field at fieldPath.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context carries the values a rule can read. Values is the form state;
// Extras holds caller supplied context such as user roles or feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// Hidden reports whether node is hidden. The static flag wins; otherwise a
// true HiddenWhen or a false VisibleWhen hides the node. A rule that fails to
// evaluate leaves the node visible and returns the error for logging.
func Hidden(node *model.Node, evaluator Evaluator, ctx Context) (bool, error) {
	if node == nil || node.Visibility == nil {
		return false, nil
	}
	v := node.Visibility
	if v.Hidden {
		return true, nil
	}
	if evaluator == nil {
		return false, nil
	}
	if v.HiddenWhen != "" {
		hidden, err := evaluator.Eval(node.Name, v.HiddenWhen, ctx)
		if err != nil {
			return false, err
		}
		if hidden {
			return true, nil
		}
	}
	if v.VisibleWhen != "" {
		visible, err := evaluator.Eval(node.Name, v.VisibleWhen, ctx)
		if err != nil {
			return false, err
		}
		return !visible, nil
	}
	return false, nil
}

type extrasKey struct{}

// WithExtras attaches caller context (roles, feature flags) that visibility
// rules can read as extras.
func WithExtras(ctx context.Context, extras map[string]any) context.Context {
	return context.WithValue(ctx, extrasKey{}, extras)
}

// ExtrasFrom returns the extras attached to ctx or nil.
func ExtrasFrom(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	extras, _ := ctx.Value(extrasKey{}).(map[string]any)
	return extras
}
