// Package serialize renders a schema and its state into property maps for a
// renderer target. Option fields are resolved during serialization, so every
// response carries options that match the state it was built from.
package serialize

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/goliatone/go-formkit/pkg/dependency"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/resolver"
	"github.com/goliatone/go-formkit/pkg/storage"
	"github.com/goliatone/go-formkit/pkg/validation"
	"github.com/goliatone/go-formkit/pkg/visibility"
	"github.com/goliatone/go-formkit/pkg/widgets"
)

// DefaultOptionsURL is the search endpoint advertised to searchable fields.
const DefaultOptionsURL = "/_select/search"

// Serializer turns schemas into property maps. It never mutates nodes.
// Option resolution may write form state through set; callers propagate the
// state they pass in.
type Serializer struct {
	resolver   *resolver.Resolver
	extractor  *dependency.Extractor
	visibility visibility.Evaluator
	widgets    *widgets.Registry
	targets    *Targets
	disks      *storage.Disks
	logger     *slog.Logger
	optionsURL string
}

// Option configures a Serializer.
type Option func(*Serializer)

func WithResolver(r *resolver.Resolver) Option {
	return func(s *Serializer) { s.resolver = r }
}

func WithExtractor(e *dependency.Extractor) Option {
	return func(s *Serializer) { s.extractor = e }
}

func WithVisibility(e visibility.Evaluator) Option {
	return func(s *Serializer) { s.visibility = e }
}

func WithWidgets(reg *widgets.Registry) Option {
	return func(s *Serializer) { s.widgets = reg }
}

func WithTargets(t *Targets) Option {
	return func(s *Serializer) { s.targets = t }
}

// WithDisks enables file URLs for file fields.
func WithDisks(d *storage.Disks) Option {
	return func(s *Serializer) { s.disks = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Serializer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOptionsURL overrides the search endpoint advertised as optionsUrl.
func WithOptionsURL(url string) Option {
	return func(s *Serializer) { s.optionsURL = url }
}

// New constructs a Serializer with defaults for every collaborator.
func New(options ...Option) *Serializer {
	s := &Serializer{
		logger:     slog.Default(),
		optionsURL: DefaultOptionsURL,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.resolver == nil {
		s.resolver = resolver.New(resolver.WithLogger(s.logger))
	}
	if s.extractor == nil {
		s.extractor = dependency.New(s.resolver.Functions())
	}
	if s.widgets == nil {
		s.widgets = widgets.NewRegistry()
	}
	if s.targets == nil {
		s.targets = NewTargets()
	}
	return s
}

// Targets exposes the target registry.
func (s *Serializer) Targets() *Targets { return s.targets }

// Resolver exposes the option resolver.
func (s *Serializer) Resolver() *resolver.Resolver { return s.resolver }

// Serialize renders every root node for target. Unknown targets and invalid
// schemas return a ConfigurationError. Visibility extras are read from ctx
// (see visibility.WithExtras).
func (s *Serializer) Serialize(ctx context.Context, schema *model.Schema, state *formstate.State, target string) ([]PropertyMap, error) {
	t, err := s.targets.Get(target)
	if err != nil {
		var cfg *model.ConfigurationError
		if schema != nil && errors.As(err, &cfg) {
			cfg.Schema = schema.ID
		}
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if state == nil {
		state = formstate.New(nil)
	}
	w := &walk{
		Serializer: s,
		ctx:        ctx,
		state:      state,
		target:     t,
		extras:     visibility.ExtrasFrom(ctx),
	}
	return w.nodes(schema.Nodes, false), nil
}

type walk struct {
	*Serializer
	ctx    context.Context
	state  *formstate.State
	target Target
	extras map[string]any
}

// nodes encodes siblings. Inside collections (template is true) nodes
// describe the item shape and carry defaults instead of state values.
func (w *walk) nodes(nodes []*model.Node, template bool) []PropertyMap {
	out := make([]PropertyMap, 0, len(nodes))
	for _, node := range nodes {
		if node == nil {
			continue
		}
		out = append(out, w.node(node, template))
	}
	return out
}

func (w *walk) node(node *model.Node, template bool) PropertyMap {
	field := Field{Node: node, Widget: w.widgets.Resolve(node), Props: w.props(node, template)}
	switch {
	case node.Kind == model.KindBuilder:
		field.Blocks = make([]Block, len(node.Blocks))
		for i, block := range node.Blocks {
			field.Blocks[i] = Block{
				Name:     block.Name,
				Label:    blockLabel(block),
				Icon:     block.Icon,
				MaxItems: block.MaxItems,
				Schema:   w.nodes(block.Schema, true),
			}
		}
	case node.Kind == model.KindRepeater:
		field.Schema = w.nodes(node.Schema, true)
	case node.Kind.IsLayout():
		field.Schema = w.nodes(node.Schema, template)
	}
	return w.target.Encode(field)
}

func (w *walk) props(node *model.Node, template bool) PropertyMap {
	props := kindDefaults(node)
	for key, value := range node.Props {
		if converted, ok := Primitive(value); ok {
			props[key] = converted
		}
	}

	hidden, err := visibility.Hidden(node, w.visibility, visibility.Context{Values: w.state.Snapshot(), Extras: w.extras})
	if err != nil {
		w.logger.WarnContext(w.ctx, "formkit: visibility rule failed",
			slog.String("field", node.Name), slog.String("error", err.Error()))
	}

	defaultValue, _ := Primitive(node.Default)
	var value any = defaultValue
	if !template && node.BindsState() {
		if current, ok := w.state.Lookup(node.Name); ok {
			value, _ = Primitive(current)
		}
	}

	messages := map[string]string{}
	if node.Validation != nil {
		for rule, msg := range node.Validation.Messages {
			messages[rule] = msg
		}
	}
	debounce := 0
	if node.Reactivity != nil {
		debounce = node.Reactivity.Debounce
	}

	placeholder := node.Placeholder
	if fallback, ok := props["placeholder"].(string); ok && placeholder == "" {
		placeholder = fallback
	}

	label := node.Label
	if node.BindsState() {
		label = validation.Label(node)
	}

	core := PropertyMap{
		"name":               node.Name,
		"type":               fieldType(node),
		"label":              label,
		"helperText":         node.HelperText,
		"placeholder":        placeholder,
		"required":           node.Required,
		"disabled":           node.Disabled,
		"hidden":             hidden,
		"readonly":           node.Readonly,
		"columnSpan":         node.ColumnSpan,
		"validation":         validation.Derive(node),
		"validationMessages": messages,
		"defaultValue":       defaultValue,
		"value":              value,
		"reactive":           node.IsReactive(),
		"isLive":             node.Reactivity != nil && node.Reactivity.Live,
		"isLazy":             node.Reactivity != nil && node.Reactivity.Lazy,
		"liveDebounce":       debounce,
	}
	for key, v := range core {
		props[key] = v
	}

	if node.Kind.AcceptsOptions() || node.Options != nil {
		w.options(node, props, template)
	}
	if node.Kind == model.KindFile {
		props["files"] = w.files(node, value)
	}
	return props
}

func (w *walk) options(node *model.Node, props PropertyMap, template bool) {
	result := resolver.Result{Options: []model.Option{}}
	switch {
	case node.Options == nil:
	case template:
		result = w.resolver.ResolveTemplate(w.ctx, node, w.state)
	default:
		result = w.resolver.Resolve(w.ctx, node, w.state)
	}
	dynamic := node.Options != nil && node.Options.SourceKind() != model.SourceStatic
	searchable := node.BoolProp("searchable", false)
	url := ""
	if searchable || (node.Options != nil && node.Options.SourceKind() == model.SourceRelationship) {
		url = w.optionsURL
	}
	props["options"] = result.Options
	props["hasDynamicOptions"] = dynamic
	props["dependsOn"] = w.extractor.Extract(node)
	props["optionsLimit"] = w.resolver.Limit(node)
	props["hasMoreOptions"] = result.HasMore
	props["optionsAreGrouped"] = result.Grouped
	props["optionsUrl"] = url
}

func (w *walk) files(node *model.Node, value any) []storage.File {
	if w.disks == nil || validation.Empty(value) {
		return []storage.File{}
	}
	disk := node.StringProp("disk")
	if disk == "" {
		disk = "public"
	}
	files, err := w.disks.Files(w.ctx, disk, value)
	if err != nil {
		w.logger.WarnContext(w.ctx, "formkit: file url resolution failed",
			slog.String("field", node.Name), slog.String("disk", disk), slog.String("error", err.Error()))
		return []storage.File{}
	}
	return files
}

func fieldType(node *model.Node) string {
	if node.Kind == model.KindText {
		if t := strings.TrimSpace(node.StringProp("type")); t != "" {
			return t
		}
		return "text"
	}
	return string(node.Kind)
}

func blockLabel(block model.Block) string {
	if block.Label != "" {
		return block.Label
	}
	return validation.Humanize(block.Name)
}
