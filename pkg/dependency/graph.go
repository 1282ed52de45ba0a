package dependency

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Graph indexes dependents by the field they read.
type Graph struct {
	dependents map[string][]string
	deps       map[string][]string
}

// Build walks every node of the schema, including collection items.
func (e *Extractor) Build(schema *model.Schema) *Graph {
	g := &Graph{
		dependents: make(map[string][]string),
		deps:       make(map[string][]string),
	}
	_ = schema.Walk(func(node *model.Node, scope string) error {
		if !node.BindsState() {
			return nil
		}
		deps := Set(append(e.Extract(node), e.Visibility(node)...)...)
		if len(deps) == 0 {
			return nil
		}
		g.deps[node.Name] = Set(append(g.deps[node.Name], deps...)...)
		for _, dep := range deps {
			g.dependents[dep] = append(g.dependents[dep], node.Name)
		}
		return nil
	})
	for dep, names := range g.dependents {
		g.dependents[dep] = Set(names...)
	}
	return g
}

// DependsOn returns the dependencies recorded for name.
func (g *Graph) DependsOn(name string) []string {
	if g == nil {
		return []string{}
	}
	return append([]string{}, g.deps[name]...)
}

// Affected returns the sorted fields that must be re-resolved when changed
// changes, following dependents transitively. Item paths such as
// "items.0.sku" also match dependents of "sku".
func (g *Graph) Affected(changed string) []string {
	if g == nil {
		return []string{}
	}
	visited := make(map[string]struct{})
	queue := candidates(changed)
	var out []string
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, dependent := range g.dependents[name] {
			if _, ok := visited[dependent]; ok {
				continue
			}
			visited[dependent] = struct{}{}
			out = append(out, dependent)
			queue = append(queue, dependent)
		}
	}
	return Set(out...)
}

func candidates(changed string) []string {
	changed = strings.TrimSpace(changed)
	if changed == "" {
		return nil
	}
	out := []string{changed}
	segments := strings.Split(changed, ".")
	if len(segments) > 2 {
		if _, err := strconv.Atoi(segments[len(segments)-2]); err == nil {
			out = append(out, segments[len(segments)-1])
		}
	}
	return out
}
