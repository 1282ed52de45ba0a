// Package expr implements visibility.Evaluator on expr-lang. Rules read form
// values as bare identifiers (`country == "us"`), through get
// (`get("address.country") == "us"`) or caller context through extras
// (`extras.role == "admin"`).
package expr

import (
	"strings"

	"github.com/goliatone/go-formkit/pkg/expression"
	"github.com/goliatone/go-formkit/pkg/visibility"
)

// Evaluator evaluates rules with a shared expression engine.
type Evaluator struct {
	engine *expression.Engine
}

// New constructs an evaluator. A nil engine gets a private one.
func New(engine *expression.Engine) *Evaluator {
	if engine == nil {
		engine = expression.New()
	}
	return &Evaluator{engine: engine}
}

// Eval implements visibility.Evaluator. An empty rule is true.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	_ = fieldPath
	if strings.TrimSpace(rule) == "" {
		return true, nil
	}
	return e.engine.EvalBool(rule, expression.Env{Values: ctx.Values, Extras: ctx.Extras})
}
