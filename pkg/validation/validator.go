package validation

import (
	"context"
	"log/slog"
	"maps"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/resolver"
	"github.com/goliatone/go-formkit/pkg/visibility"
)

// Errors maps dotted field paths ("email", "items.0.sku") to messages.
type Errors map[string][]string

// Add appends a message to path.
func (e Errors) Add(path, message string) {
	e[path] = append(e[path], message)
}

// Empty reports whether no field failed.
func (e Errors) Empty() bool { return len(e) == 0 }

// Fields returns the failing paths in sorted order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for path := range e {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Error summarizes the first failing field.
func (e Errors) Error() string {
	fields := e.Fields()
	if len(fields) == 0 {
		return "validation: no errors"
	}
	first := fields[0]
	msg := "validation: " + first + ": " + strings.Join(e[first], " ")
	if len(fields) > 1 {
		msg += " (and " + strconv.Itoa(len(fields)-1) + " more)"
	}
	return msg
}

// Validator checks state against derived and explicit rules.
type Validator struct {
	resolver   *resolver.Resolver
	visibility visibility.Evaluator
	messages   map[string]string
	logger     *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithResolver enables membership checks for relationship, computed and
// expression option sources.
func WithResolver(r *resolver.Resolver) Option {
	return func(v *Validator) { v.resolver = r }
}

// WithVisibility skips fields hidden by their visibility rules.
func WithVisibility(e visibility.Evaluator) Option {
	return func(v *Validator) { v.visibility = e }
}

// WithMessages overrides default message templates by rule name.
func WithMessages(messages map[string]string) Option {
	return func(v *Validator) { maps.Copy(v.messages, messages) }
}

// WithLogger sets the logger used for rule evaluation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New constructs a Validator.
func New(options ...Option) *Validator {
	v := &Validator{
		messages: maps.Clone(DefaultMessages),
		logger:   slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Validate runs every visible field and returns all failures. Repeater and
// builder items are validated with their own scope.
func (v *Validator) Validate(ctx context.Context, schema *model.Schema, state *formstate.State) Errors {
	errs := Errors{}
	if schema == nil {
		return errs
	}
	if state == nil {
		state = formstate.New(nil)
	}
	v.scope(ctx, schema.Nodes, state, "", errs)
	return errs
}

func (v *Validator) scope(ctx context.Context, nodes []*model.Node, state *formstate.State, prefix string, errs Errors) {
	values := state.Snapshot()
	for _, node := range fields(nodes) {
		if v.hidden(ctx, node, values, prefix) {
			continue
		}
		path := prefix + node.Name
		value := state.Get(node.Name)
		for _, message := range v.field(ctx, node, value, state) {
			errs.Add(path, message)
		}
		switch node.Kind {
		case model.KindRepeater:
			items, _ := value.([]any)
			for i, item := range items {
				itemValues, _ := item.(map[string]any)
				v.scope(ctx, node.Schema, formstate.New(itemValues), path+"."+strconv.Itoa(i)+".", errs)
			}
		case model.KindBuilder:
			items, _ := value.([]any)
			for i, item := range items {
				entry, _ := item.(map[string]any)
				blockType, _ := entry["type"].(string)
				block, ok := findBlock(node, blockType)
				if !ok {
					errs.Add(path+"."+strconv.Itoa(i)+".type", "Unknown block type "+strconv.Quote(blockType)+".")
					continue
				}
				data, _ := entry["data"].(map[string]any)
				v.scope(ctx, block.Schema, formstate.New(data), path+"."+strconv.Itoa(i)+".data.", errs)
			}
		}
	}
	for path, messages := range errs {
		errs[path] = normalizeMessages(messages)
	}
}

func (v *Validator) hidden(ctx context.Context, node *model.Node, values map[string]any, prefix string) bool {
	hidden, err := visibility.Hidden(node, v.visibility, visibility.Context{
		Values: values,
		Extras: visibility.ExtrasFrom(ctx),
	})
	if err != nil {
		v.logger.WarnContext(ctx, "formkit: visibility rule failed",
			slog.String("field", prefix+node.Name), slog.String("error", err.Error()))
	}
	return hidden
}

// field returns the messages for one value. A nullable empty value skips the
// remaining rules.
func (v *Validator) field(ctx context.Context, node *model.Node, value any, state *formstate.State) []string {
	rules := Derive(node)
	nullable := !hasRule(rules, "required")
	if Empty(value) {
		if nullable {
			return nil
		}
		return []string{v.message(node, model.Rule{Name: "required"}, "")}
	}
	if hasRule(rules, "numeric") {
		if n, ok := number(value); ok {
			value = n
		}
	}

	var out []string
	for _, raw := range rules {
		rule := model.ParseRule(raw)
		if rule.Name == "nullable" || rule.Name == "required" {
			continue
		}
		if variant, ok := check(rule, value, state.Get); !ok {
			out = append(out, v.message(node, rule, variant))
		}
	}
	if msg, ok := v.membership(ctx, node, value, state); !ok {
		out = append(out, msg)
	}
	return out
}

// membership checks values of deferred option sources against the resolved
// options. The resolver keeps selected values in its window.
func (v *Validator) membership(ctx context.Context, node *model.Node, value any, state *formstate.State) (string, bool) {
	if v.resolver == nil || !node.Kind.AcceptsOptions() || node.Options == nil ||
		node.Options.SourceKind() == model.SourceStatic || hasRule(Derive(node), "in") {
		return "", true
	}
	result := v.resolver.Resolve(ctx, node, state)
	allowed := make(map[string]struct{}, len(result.Options))
	for _, opt := range result.Options {
		if !opt.Disabled {
			allowed[opt.Value] = struct{}{}
		}
	}
	selected := resolver.Selected(node, func(string) any { return value })
	for _, s := range selected {
		if _, ok := allowed[s]; !ok {
			return v.message(node, model.Rule{Name: "in"}, ""), false
		}
	}
	return "", true
}

func hasRule(rules []string, name string) bool {
	for _, raw := range rules {
		if model.ParseRule(raw).Name == name {
			return true
		}
	}
	return false
}

// fields flattens layout nodes of one scope.
func fields(nodes []*model.Node) []*model.Node {
	var out []*model.Node
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if node.Kind.IsLayout() {
			out = append(out, fields(node.Schema)...)
			continue
		}
		out = append(out, node)
	}
	return out
}

func findBlock(node *model.Node, name string) (model.Block, bool) {
	for _, block := range node.Blocks {
		if block.Name == name {
			return block, true
		}
	}
	return model.Block{}, false
}
