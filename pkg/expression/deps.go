package expression

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// Dependencies returns the sorted, distinct string literals passed to get()
// in source. Calls with computed arguments such as get("item." + key) cannot
// be followed and are ignored; declare those fields explicitly.
func Dependencies(source string) ([]string, error) {
	tree, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("expression: parse %q: %w", source, err)
	}
	collector := &getCollector{seen: make(map[string]struct{})}
	ast.Walk(&tree.Node, collector)

	out := make([]string, 0, len(collector.seen))
	for name := range collector.seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// References returns the get() literals plus the root names of free
// identifiers, so rules written as `country == "us"` and
// `get("country") == "us"` report the same field.
func References(source string) ([]string, error) {
	tree, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("expression: parse %q: %w", source, err)
	}
	gets := &getCollector{seen: make(map[string]struct{})}
	idents := &identCollector{callees: make(map[*ast.IdentifierNode]struct{})}
	ast.Walk(&tree.Node, gets)
	ast.Walk(&tree.Node, idents)

	for _, ident := range idents.found {
		if _, callee := idents.callees[ident]; callee {
			continue
		}
		if _, reserved := reservedNames[ident.Value]; reserved {
			continue
		}
		gets.seen[ident.Value] = struct{}{}
	}
	out := make([]string, 0, len(gets.seen))
	for name := range gets.seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

var reservedNames = map[string]struct{}{
	"get": {}, "set": {}, "values": {}, "extras": {},
}

type identCollector struct {
	found   []*ast.IdentifierNode
	callees map[*ast.IdentifierNode]struct{}
}

func (c *identCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		c.found = append(c.found, n)
	case *ast.CallNode:
		if ident, ok := n.Callee.(*ast.IdentifierNode); ok {
			c.callees[ident] = struct{}{}
		}
	}
}

type getCollector struct {
	seen map[string]struct{}
}

func (c *getCollector) Visit(node *ast.Node) {
	var args []ast.Node
	switch n := (*node).(type) {
	case *ast.CallNode:
		ident, ok := n.Callee.(*ast.IdentifierNode)
		if !ok || ident.Value != "get" {
			return
		}
		args = n.Arguments
	case *ast.BuiltinNode:
		if n.Name != "get" {
			return
		}
		args = n.Arguments
	default:
		return
	}
	if len(args) != 1 {
		return
	}
	if literal, ok := args[0].(*ast.StringNode); ok && literal.Value != "" {
		c.seen[literal.Value] = struct{}{}
	}
}
