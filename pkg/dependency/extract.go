// Package dependency determines which fields a node's options read, so the
// client knows when to ask for a reactive update.
//
// A node's own DependsOn declaration always wins. Otherwise computed sources
// use the list declared on the source or at function registration, and
// relationship sources use the list registered with their modifier. Go
// functions are opaque, so nothing is inferred for them. Expression sources
// are parsed and every get("literal") call contributes its argument; calls
// with computed arguments are not followed.
package dependency

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formkit/pkg/expression"
	"github.com/goliatone/go-formkit/pkg/functions"
	"github.com/goliatone/go-formkit/pkg/model"
)

// Extractor resolves dependency sets against a function registry.
type Extractor struct {
	functions *functions.Registry
}

// New constructs an extractor. A nil registry only disables
// registration-declared dependencies.
func New(reg *functions.Registry) *Extractor {
	return &Extractor{functions: reg}
}

// Extract returns the sorted, distinct fields the node's options depend on.
func (e *Extractor) Extract(node *model.Node) []string {
	if node == nil {
		return []string{}
	}
	if len(node.DependsOn) > 0 {
		return Set(node.DependsOn...)
	}
	switch src := node.Options.(type) {
	case model.ComputedSource:
		if len(src.DependsOn) > 0 {
			return Set(src.DependsOn...)
		}
		if entry, ok := e.functions.Compute(src.Function); ok {
			return Set(entry.DependsOn...)
		}
	case model.ExpressionSource:
		if len(src.DependsOn) > 0 {
			return Set(src.DependsOn...)
		}
		inferred, err := expression.Dependencies(src.Source)
		if err == nil {
			return Set(inferred...)
		}
	case model.RelationshipSource:
		if src.Modifier == "" {
			break
		}
		if entry, ok := e.functions.Modifier(src.Modifier); ok {
			return Set(entry.DependsOn...)
		}
	}
	return []string{}
}

// Visibility returns the fields read by the node's visibility rules, both
// get() literals and bare identifiers.
func (e *Extractor) Visibility(node *model.Node) []string {
	if node == nil || node.Visibility == nil {
		return []string{}
	}
	var names []string
	for _, rule := range []string{node.Visibility.HiddenWhen, node.Visibility.VisibleWhen} {
		if strings.TrimSpace(rule) == "" {
			continue
		}
		if inferred, err := expression.References(rule); err == nil {
			names = append(names, inferred...)
		}
	}
	return Set(names...)
}

// Set returns names sorted with duplicates and blanks removed.
func Set(names ...string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
