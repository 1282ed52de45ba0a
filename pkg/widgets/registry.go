package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Widget identifiers chosen by matchers in addition to the per-kind defaults.
const (
	WidgetCodeEditor     = "code-editor"
	WidgetMarkdownEditor = "markdown-editor"
	WidgetSlider         = "slider"
	WidgetToggleButtons  = "toggle-buttons"
	WidgetSearchSelect   = "search-select"
)

// Matcher decides whether a widget should handle the supplied node.
type Matcher func(node *model.Node) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects a widget identifier for a node. An explicit "widget" prop
// wins, then registered matchers (higher priority first, ties by registration
// order), then the kind default.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher with the provided name and priority. The latest
// registration of a duplicate name wins ties.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget identifier for node.
func (r *Registry) Resolve(node *model.Node) string {
	if node == nil {
		return ""
	}
	if explicit := strings.TrimSpace(node.StringProp("widget")); explicit != "" {
		return explicit
	}
	if r != nil {
		r.mu.RLock()
		rules := append([]rule(nil), r.rules...)
		r.mu.RUnlock()
		sort.SliceStable(rules, func(i, j int) bool {
			if rules[i].priority == rules[j].priority {
				return rules[i].order < rules[j].order
			}
			return rules[i].priority > rules[j].priority
		})
		for _, entry := range rules {
			if entry.match(node) {
				return entry.name
			}
		}
	}
	return Default(node.Kind)
}

// Decorate implements model.Decorator. Each node without a widget prop gets
// the resolved identifier.
func (r *Registry) Decorate(schema *model.Schema) error {
	if r == nil || schema == nil {
		return nil
	}
	return schema.Walk(func(node *model.Node, _ string) error {
		if node.StringProp("widget") == "" {
			node.Set("widget", r.Resolve(node))
		}
		return nil
	})
}

var defaults = map[model.Kind]string{
	model.KindText:         "text-input",
	model.KindTextarea:     "textarea",
	model.KindNumber:       "number-field",
	model.KindSelect:       "select",
	model.KindRadio:        "radio",
	model.KindCheckbox:     "checkbox",
	model.KindCheckboxList: "checkbox-list",
	model.KindToggle:       "toggle",
	model.KindDate:         "date-picker",
	model.KindDateTime:     "date-time-picker",
	model.KindTime:         "time-picker",
	model.KindFile:         "file-upload",
	model.KindTags:         "tags-input",
	model.KindKeyValue:     "key-value",
	model.KindHidden:       "hidden",
	model.KindColor:        "color-picker",
	model.KindRichEditor:   "rich-editor",
	model.KindPinInput:     "pin-input",
	model.KindRate:         "rate-input",
	model.KindIconPicker:   "icon-picker",
	model.KindDateRange:    "date-range-picker",
	model.KindRepeater:     "repeater",
	model.KindBuilder:      "builder",
	model.KindSection:      "section",
	model.KindGrid:         "grid",
	model.KindTabs:         "tabs",
	model.KindTab:          "tab",
}

// Default returns the widget identifier of a kind.
func Default(kind model.Kind) string {
	if name, ok := defaults[kind]; ok {
		return name
	}
	return string(kind)
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetCodeEditor, 60, func(node *model.Node) bool {
		return node.Kind == model.KindTextarea && node.StringProp("language") != ""
	})

	r.Register(WidgetMarkdownEditor, 50, func(node *model.Node) bool {
		return node.Kind == model.KindTextarea && node.BoolProp("markdown", false)
	})

	r.Register(WidgetSlider, 40, func(node *model.Node) bool {
		return node.Kind == model.KindNumber && node.BoolProp("slider", false)
	})

	r.Register(WidgetToggleButtons, 30, func(node *model.Node) bool {
		return node.Kind == model.KindRadio && node.BoolProp("inline", false) && node.BoolProp("buttons", false)
	})

	r.Register(WidgetSearchSelect, 20, func(node *model.Node) bool {
		return node.Kind == model.KindSelect && node.BoolProp("searchable", false) &&
			node.Options != nil && node.Options.SourceKind() == model.SourceRelationship
	})
}
