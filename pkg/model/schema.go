package model

import (
	"errors"
	"fmt"
	"strings"
)

// Schema is the ordered node forest of one form.
type Schema struct {
	ID    string
	Nodes []*Node
}

// NewSchema constructs a schema rooted at id.
func NewSchema(id string, nodes ...*Node) *Schema {
	return &Schema{ID: id, Nodes: nodes}
}

// Add appends nodes to the root.
func (s *Schema) Add(nodes ...*Node) *Schema {
	s.Nodes = append(s.Nodes, nodes...)
	return s
}

// ErrSkipChildren can be returned by a WalkFunc to skip a node's children.
var ErrSkipChildren = errors.New("model: skip children")

// WalkFunc is called for every node. Scope is the dotted path of the state
// scope containing the node: "" for the root, "items[]" for repeater items and
// "content[hero]" for a builder block.
type WalkFunc func(node *Node, scope string) error

// Walk visits the tree depth-first in declaration order.
func (s *Schema) Walk(fn WalkFunc) error {
	if s == nil {
		return nil
	}
	return walkNodes(s.Nodes, "", fn)
}

func walkNodes(nodes []*Node, scope string, fn WalkFunc) error {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if err := fn(node, scope); err != nil {
			if errors.Is(err, ErrSkipChildren) {
				continue
			}
			return err
		}
		if err := walkChildren(node, scope, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkChildren(node *Node, scope string, fn WalkFunc) error {
	switch {
	case node.Kind.IsLayout():
		return walkNodes(node.Schema, scope, fn)
	case node.Kind == KindBuilder:
		for _, block := range node.Blocks {
			if err := walkNodes(block.Schema, joinScope(scope, node.Name+"["+block.Name+"]"), fn); err != nil {
				return err
			}
		}
		return nil
	case len(node.Schema) > 0:
		return walkNodes(node.Schema, joinScope(scope, node.Name+"[]"), fn)
	}
	return nil
}

func joinScope(scope, segment string) string {
	if scope == "" {
		return segment
	}
	return scope + "." + segment
}

// Fields returns the state-bearing nodes of the root scope in declaration
// order. Layout children are flattened; collection items are not.
func (s *Schema) Fields() []*Node {
	var out []*Node
	_ = s.Walk(func(node *Node, scope string) error {
		if node.BindsState() {
			out = append(out, node)
		}
		if node.Kind.IsCollection() {
			return ErrSkipChildren
		}
		return nil
	})
	return out
}

// Find returns the root-scope field with the supplied name.
func (s *Schema) Find(name string) (*Node, bool) {
	for _, node := range s.Fields() {
		if node.Name == name {
			return node, true
		}
	}
	return nil, false
}

// Validate rejects unknown kinds, unnamed fields and duplicate names inside a
// state scope.
func (s *Schema) Validate() error {
	if s == nil || strings.TrimSpace(s.ID) == "" {
		return &ConfigurationError{Err: ErrMissingID}
	}
	seen := make(map[string]map[string]struct{})
	return s.Walk(func(node *Node, scope string) error {
		path := joinScope(scope, node.Name)
		if !node.Kind.Known() {
			return &ConfigurationError{Schema: s.ID, Path: path, Err: fmt.Errorf("%w %q", ErrUnknownKind, node.Kind)}
		}
		if !node.BindsState() {
			return nil
		}
		if strings.TrimSpace(node.Name) == "" {
			return &ConfigurationError{Schema: s.ID, Path: scope, Err: fmt.Errorf("%w (kind %s)", ErrMissingName, node.Kind)}
		}
		names := seen[scope]
		if names == nil {
			names = make(map[string]struct{})
			seen[scope] = names
		}
		if _, dup := names[node.Name]; dup {
			return &ConfigurationError{Schema: s.ID, Path: path, Err: fmt.Errorf("%w %q", ErrDuplicateField, node.Name)}
		}
		names[node.Name] = struct{}{}
		return nil
	})
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	return &Schema{ID: s.ID, Nodes: cloneNodes(s.Nodes)}
}
