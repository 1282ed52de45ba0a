package serialize

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/widgets"
)

// Built-in target names.
const (
	TargetWeb    = "web"
	TargetVue    = "vue"
	TargetMobile = "mobile"
)

var ErrUnknownTarget = errors.New("serialize: unknown target")

// PropertyMap is one serialized node.
type PropertyMap map[string]any

// Field is a node prepared for encoding. Props holds the flat web properties;
// Schema and Blocks hold children already encoded for the same target.
type Field struct {
	Node   *model.Node
	Widget string
	Props  PropertyMap
	Schema []PropertyMap
	Blocks []Block
}

// Block is an encoded builder block.
type Block struct {
	Name     string
	Label    string
	Icon     string
	MaxItems int
	Schema   []PropertyMap
}

// Target encodes fields into the shape a renderer expects.
type Target interface {
	Name() string
	Encode(field Field) PropertyMap
}

// Targets stores targets by name.
type Targets struct {
	mu      sync.RWMutex
	targets map[string]Target
}

// NewTargets creates a registry holding the web, vue and mobile targets.
func NewTargets() *Targets {
	t := &Targets{targets: make(map[string]Target)}
	t.MustRegister(WebTarget{})
	t.MustRegister(VueTarget{})
	t.MustRegister(MobileTarget{})
	return t
}

// Register adds a target by its Name(). Duplicate names return an error.
func (t *Targets) Register(target Target) error {
	if target == nil {
		return fmt.Errorf("serialize: target is required")
	}
	name := target.Name()
	if name == "" {
		return fmt.Errorf("serialize: target name is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.targets[name]; exists {
		return fmt.Errorf("serialize: target %q already registered", name)
	}
	t.targets[name] = target
	return nil
}

// MustRegister panics on registration failure.
func (t *Targets) MustRegister(target Target) {
	if err := t.Register(target); err != nil {
		panic(err)
	}
}

// Get retrieves a target. Unknown names yield a ConfigurationError.
func (t *Targets) Get(name string) (Target, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	target, ok := t.targets[name]
	if !ok {
		return nil, &model.ConfigurationError{Err: fmt.Errorf("%w %q", ErrUnknownTarget, name)}
	}
	return target, nil
}

// List returns the sorted target names.
func (t *Targets) List() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.targets))
	for name := range t.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WebTarget renders flat property maps with kebab component names.
type WebTarget struct{}

func (WebTarget) Name() string { return TargetWeb }

func (WebTarget) Encode(field Field) PropertyMap {
	out := copyProps(field.Props)
	out["component"] = widgets.Web.Name(field.Widget)
	attachChildren(out, field, "schema", func(b Block) PropertyMap {
		return PropertyMap{"name": b.Name, "label": b.Label, "icon": b.Icon, "maxItems": b.MaxItems, "schema": b.Schema}
	})
	return out
}

// VueTarget wraps props in a component envelope.
type VueTarget struct{}

func (VueTarget) Name() string { return TargetVue }

func (VueTarget) Encode(field Field) PropertyMap {
	props := copyProps(field.Props)
	attachChildren(props, field, "schema", func(b Block) PropertyMap {
		return PropertyMap{"name": b.Name, "label": b.Label, "icon": b.Icon, "maxItems": b.MaxItems, "schema": b.Schema}
	})
	return PropertyMap{
		"component": widgets.Vue.Name(field.Widget),
		"props":     props,
	}
}

// MobileTarget renders a widget tree.
type MobileTarget struct{}

func (MobileTarget) Name() string { return TargetMobile }

var mobileRenames = map[string]string{
	"validation": "validators",
	"value":      "initialValue",
	"readonly":   "readOnly",
}

var mobileDropped = map[string]struct{}{
	"component":          {},
	"disabled":           {},
	"hidden":             {},
	"validationMessages": {},
	"isLive":             {},
	"isLazy":             {},
	"widget":             {},
}

func (MobileTarget) Encode(field Field) PropertyMap {
	props := make(PropertyMap, len(field.Props))
	for key, value := range field.Props {
		if _, drop := mobileDropped[key]; drop {
			continue
		}
		if renamed, ok := mobileRenames[key]; ok {
			key = renamed
		}
		props[key] = value
	}
	disabled, _ := field.Props["disabled"].(bool)
	hidden, _ := field.Props["hidden"].(bool)
	props["enabled"] = !disabled
	props["visible"] = !hidden

	out := PropertyMap{
		"widget": widgets.Mobile.Name(field.Widget),
		"props":  props,
	}
	attachChildren(out, field, "children", func(b Block) PropertyMap {
		return PropertyMap{"name": b.Name, "label": b.Label, "icon": b.Icon, "maxItems": b.MaxItems, "children": b.Schema}
	})
	return out
}

func attachChildren(out PropertyMap, field Field, key string, block func(Block) PropertyMap) {
	if field.Node == nil {
		return
	}
	switch {
	case field.Node.Kind == model.KindBuilder:
		blocks := make([]PropertyMap, len(field.Blocks))
		for i, b := range field.Blocks {
			blocks[i] = block(b)
		}
		out["blocks"] = blocks
	case field.Node.Kind.IsLayout() || field.Node.Kind == model.KindRepeater:
		children := field.Schema
		if children == nil {
			children = []PropertyMap{}
		}
		out[key] = children
	}
}

func copyProps(props PropertyMap) PropertyMap {
	out := make(PropertyMap, len(props)+2)
	for k, v := range props {
		out[k] = v
	}
	return out
}
