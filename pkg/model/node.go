package model

import (
	"maps"
	"slices"
)

// Node describes a single form field or layout container. Nodes are built per
// request and discarded with their schema.
type Node struct {
	Name              string
	Kind              Kind
	Label             string
	HelperText        string
	Placeholder       string
	Default           any
	ColumnSpan        int
	Required          bool
	Disabled          bool
	Readonly          bool
	Visibility        *Visibility
	Validation        *Validation
	Reactivity        *Reactivity
	Options           OptionSource
	DependsOn         []string
	AfterStateUpdated string
	Props             map[string]any
	Schema            []*Node
	Blocks            []Block
}

// Visibility controls whether a node is rendered. HiddenWhen and VisibleWhen
// hold expressions evaluated by a visibility evaluator.
type Visibility struct {
	Hidden      bool
	HiddenWhen  string
	VisibleWhen string
}

// Validation carries explicit rules ("max:255", "email") and per-rule messages
// keyed by rule name.
type Validation struct {
	Rules    []string
	Messages map[string]string
}

// Reactivity marks a field whose changes should trigger a reactive update.
// Debounce is expressed in milliseconds.
type Reactivity struct {
	Live     bool
	Lazy     bool
	Debounce int
}

// Block is one selectable block type of a builder field.
type Block struct {
	Name     string
	Label    string
	Icon     string
	MaxItems int
	Schema   []*Node
}

// NewNode constructs a node of the supplied kind.
func NewNode(kind Kind, name string) *Node {
	return &Node{Name: name, Kind: kind}
}

func Text(name string) *Node         { return NewNode(KindText, name) }
func Textarea(name string) *Node     { return NewNode(KindTextarea, name) }
func Number(name string) *Node       { return NewNode(KindNumber, name) }
func Select(name string) *Node       { return NewNode(KindSelect, name) }
func Radio(name string) *Node        { return NewNode(KindRadio, name) }
func Checkbox(name string) *Node     { return NewNode(KindCheckbox, name) }
func CheckboxList(name string) *Node { return NewNode(KindCheckboxList, name) }
func Toggle(name string) *Node       { return NewNode(KindToggle, name) }
func Date(name string) *Node         { return NewNode(KindDate, name) }
func DateTime(name string) *Node     { return NewNode(KindDateTime, name) }
func Time(name string) *Node         { return NewNode(KindTime, name) }
func File(name string) *Node         { return NewNode(KindFile, name) }
func Tags(name string) *Node         { return NewNode(KindTags, name) }
func KeyValue(name string) *Node     { return NewNode(KindKeyValue, name) }
func Hidden(name string) *Node       { return NewNode(KindHidden, name) }
func Color(name string) *Node        { return NewNode(KindColor, name) }
func RichEditor(name string) *Node   { return NewNode(KindRichEditor, name) }
func IconPicker(name string) *Node   { return NewNode(KindIconPicker, name) }
func DateRange(name string) *Node    { return NewNode(KindDateRange, name) }

// PinInput is a fixed-length code field. Length defaults to 4.
func PinInput(name string, length int) *Node {
	n := NewNode(KindPinInput, name)
	if length > 0 {
		n.Set("length", length)
	}
	return n
}

// Rate is a star rating out of maxRating (default 5).
func Rate(name string, maxRating int) *Node {
	n := NewNode(KindRate, name)
	if maxRating > 0 {
		n.Set("maxRating", maxRating)
	}
	return n
}

// Repeater constructs a repeater whose items follow the supplied schema.
func Repeater(name string, schema ...*Node) *Node {
	node := NewNode(KindRepeater, name)
	node.Schema = schema
	return node
}

// Builder constructs a block builder.
func Builder(name string, blocks ...Block) *Node {
	node := NewNode(KindBuilder, name)
	node.Blocks = blocks
	return node
}

// Section groups children under a heading. The name is optional.
func Section(label string, children ...*Node) *Node {
	node := NewNode(KindSection, "")
	node.Label = label
	node.Schema = children
	return node
}

// Grid lays children out in the supplied number of columns.
func Grid(columns int, children ...*Node) *Node {
	node := NewNode(KindGrid, "")
	node.Schema = children
	node.Set("columns", columns)
	return node
}

// Tabs holds a list of Tab nodes.
func Tabs(tabs ...*Node) *Node {
	node := NewNode(KindTabs, "")
	node.Schema = tabs
	return node
}

// Tab is a single tab inside Tabs.
func Tab(label string, children ...*Node) *Node {
	node := NewNode(KindTab, "")
	node.Label = label
	node.Schema = children
	return node
}

// NewBlock constructs a builder block.
func NewBlock(name, label string, schema ...*Node) Block {
	return Block{Name: name, Label: label, Schema: schema}
}

func (n *Node) WithLabel(label string) *Node {
	n.Label = label
	return n
}

func (n *Node) WithHelperText(text string) *Node {
	n.HelperText = text
	return n
}

func (n *Node) WithPlaceholder(text string) *Node {
	n.Placeholder = text
	return n
}

func (n *Node) WithDefault(value any) *Node {
	n.Default = value
	return n
}

func (n *Node) WithColumnSpan(span int) *Node {
	n.ColumnSpan = span
	return n
}

func (n *Node) MarkRequired() *Node {
	n.Required = true
	return n
}

func (n *Node) MarkDisabled() *Node {
	n.Disabled = true
	return n
}

func (n *Node) MarkReadonly() *Node {
	n.Readonly = true
	return n
}

func (n *Node) visibility() *Visibility {
	if n.Visibility == nil {
		n.Visibility = &Visibility{}
	}
	return n.Visibility
}

// MarkHidden hides the node unconditionally.
func (n *Node) MarkHidden() *Node {
	n.visibility().Hidden = true
	return n
}

// HiddenWhen hides the node while the expression evaluates to true.
func (n *Node) HiddenWhen(expression string) *Node {
	n.visibility().HiddenWhen = expression
	return n
}

// VisibleWhen shows the node only while the expression evaluates to true.
func (n *Node) VisibleWhen(expression string) *Node {
	n.visibility().VisibleWhen = expression
	return n
}

func (n *Node) validation() *Validation {
	if n.Validation == nil {
		n.Validation = &Validation{}
	}
	return n.Validation
}

// WithRules appends explicit validation rules.
func (n *Node) WithRules(rules ...string) *Node {
	v := n.validation()
	v.Rules = append(v.Rules, rules...)
	return n
}

// WithMessage overrides the message reported when the named rule fails.
func (n *Node) WithMessage(rule, message string) *Node {
	v := n.validation()
	if v.Messages == nil {
		v.Messages = make(map[string]string)
	}
	v.Messages[rule] = message
	return n
}

// WithOptions sets the option source.
func (n *Node) WithOptions(src OptionSource) *Node {
	n.Options = src
	return n
}

// StaticOptions sets a static option list.
func (n *Node) StaticOptions(options ...Option) *Node {
	return n.WithOptions(StaticSource{Options: options})
}

// OptionsFromMap sets static options built from a value→label map.
func (n *Node) OptionsFromMap(values map[string]string) *Node {
	return n.WithOptions(StaticSource{Options: OptionsFromMap(values)})
}

// Relationship loads options from the named entity, labelled by the title
// attribute.
func (n *Node) Relationship(entity, titleAttribute string) *Node {
	return n.WithOptions(RelationshipSource{Entity: entity, TitleAttribute: titleAttribute})
}

// Computed resolves options through a registered function.
func (n *Node) Computed(function string, dependsOn ...string) *Node {
	return n.WithOptions(ComputedSource{Function: function, DependsOn: dependsOn})
}

// Expression resolves options through an expr-lang expression.
func (n *Node) Expression(source string, dependsOn ...string) *Node {
	return n.WithOptions(ExpressionSource{Source: source, DependsOn: dependsOn})
}

// WithDependsOn declares the fields whose changes re-resolve this node. A
// declaration always takes precedence over source dependencies.
func (n *Node) WithDependsOn(fields ...string) *Node {
	n.DependsOn = append(n.DependsOn, fields...)
	return n
}

// Live marks the field as reactive on every change, debounced by the supplied
// milliseconds.
func (n *Node) Live(debounce int) *Node {
	n.Reactivity = &Reactivity{Live: true, Debounce: debounce}
	return n
}

// Lazy marks the field as reactive on blur.
func (n *Node) Lazy() *Node {
	n.Reactivity = &Reactivity{Lazy: true}
	return n
}

// OnStateUpdated names the state hook run after the field changes.
func (n *Node) OnStateUpdated(hook string) *Node {
	n.AfterStateUpdated = hook
	return n
}

// Set stores a kind-specific property.
func (n *Node) Set(key string, value any) *Node {
	if n.Props == nil {
		n.Props = make(map[string]any)
	}
	n.Props[key] = value
	return n
}

// Prop returns a kind-specific property.
func (n *Node) Prop(key string) (any, bool) {
	if n == nil || n.Props == nil {
		return nil, false
	}
	value, ok := n.Props[key]
	return value, ok
}

// IntProp returns an integer property or the fallback.
func (n *Node) IntProp(key string, fallback int) int {
	value, ok := n.Prop(key)
	if !ok {
		return fallback
	}
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// BoolProp returns a boolean property or the fallback.
func (n *Node) BoolProp(key string, fallback bool) bool {
	value, ok := n.Prop(key)
	if !ok {
		return fallback
	}
	if b, ok := value.(bool); ok {
		return b
	}
	return fallback
}

// StringProp returns a string property or "".
func (n *Node) StringProp(key string) string {
	value, ok := n.Prop(key)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

// StringsProp returns a list property as strings, accepting []string and the
// []any shape decoded from JSON. Non-string entries are skipped.
func (n *Node) StringsProp(key string) []string {
	value, ok := n.Prop(key)
	if !ok {
		return nil
	}
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Children replaces the child schema.
func (n *Node) Children(children ...*Node) *Node {
	n.Schema = children
	return n
}

// WithBlocks appends builder blocks.
func (n *Node) WithBlocks(blocks ...Block) *Node {
	n.Blocks = append(n.Blocks, blocks...)
	return n
}

// BindsState reports whether the node holds a value in form state.
func (n *Node) BindsState() bool {
	return n != nil && !n.Kind.IsLayout()
}

// IsReactive reports whether a change to the node should trigger an update.
func (n *Node) IsReactive() bool {
	return n != nil && n.Reactivity != nil && (n.Reactivity.Live || n.Reactivity.Lazy)
}

// Clone returns a deep copy of the node tree. Prop values are copied
// shallowly.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Visibility != nil {
		v := *n.Visibility
		out.Visibility = &v
	}
	if n.Validation != nil {
		v := Validation{Rules: slices.Clone(n.Validation.Rules), Messages: maps.Clone(n.Validation.Messages)}
		out.Validation = &v
	}
	if n.Reactivity != nil {
		r := *n.Reactivity
		out.Reactivity = &r
	}
	out.DependsOn = slices.Clone(n.DependsOn)
	out.Props = maps.Clone(n.Props)
	out.Schema = cloneNodes(n.Schema)
	if n.Blocks != nil {
		out.Blocks = make([]Block, len(n.Blocks))
		for i, block := range n.Blocks {
			block.Schema = cloneNodes(block.Schema)
			out.Blocks[i] = block
		}
	}
	return &out
}

func cloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, node := range nodes {
		out[i] = node.Clone()
	}
	return out
}
