package openapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formkit/pkg/model"
)

const (
	extensionKey      = "x-formkit"
	orderExtensionKey = "x-formkit-order"
	relationshipsKey  = "x-relationships"

	// Strings longer than this render as textareas.
	textareaThreshold = 255
)

func objectNodes(obj *openapi3.Schema) ([]*model.Node, error) {
	required := make(map[string]bool, len(obj.Required))
	for _, name := range obj.Required {
		required[name] = true
	}
	nodes := make([]*model.Node, 0, len(obj.Properties))
	for _, name := range propertyOrder(obj) {
		ref := obj.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		node, err := convert(name, ref.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if required[name] {
			node.Required = true
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// propertyOrder honours x-formkit-order and appends unlisted properties sorted
// by name.
func propertyOrder(obj *openapi3.Schema) []string {
	names := make([]string, 0, len(obj.Properties))
	for name := range obj.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	listed, _ := obj.Extensions[orderExtensionKey].([]any)
	if len(listed) == 0 {
		return names
	}
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, item := range listed {
		name, ok := item.(string)
		if !ok || seen[name] {
			continue
		}
		if _, exists := obj.Properties[name]; exists {
			out = append(out, name)
			seen[name] = true
		}
	}
	for _, name := range names {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

func convert(name string, s *openapi3.Schema) (*model.Node, error) {
	node, err := infer(name, s)
	if err != nil {
		return nil, err
	}
	node.Label = s.Title
	node.HelperText = s.Description
	node.Default = s.Default
	node.Readonly = s.ReadOnly
	applyConstraints(node, s)
	applyRelationship(node, s)
	if err := applyExtension(node, s.Extensions[extensionKey]); err != nil {
		return nil, err
	}
	return node, nil
}

func infer(name string, s *openapi3.Schema) (*model.Node, error) {
	switch {
	case is(s, "boolean"):
		return model.Toggle(name), nil

	case is(s, "integer"), is(s, "number"):
		node := model.Number(name)
		if is(s, "integer") {
			node.WithRules("integer")
		}
		return node, nil

	case is(s, "array"):
		return arrayNode(name, s)

	case is(s, "object"):
		if len(s.Properties) == 0 {
			return model.KeyValue(name), nil
		}
		children, err := objectNodes(s)
		if err != nil {
			return nil, err
		}
		section := model.Section(s.Title, children...)
		section.Name = name
		return section, nil
	}

	if len(s.Enum) > 0 {
		return model.Select(name).StaticOptions(enumOptions(s.Enum)...), nil
	}
	switch s.Format {
	case "date":
		return model.Date(name), nil
	case "date-time":
		return model.DateTime(name), nil
	case "time":
		return model.Time(name), nil
	case "binary", "byte":
		return model.File(name), nil
	case "email", "uri", "url", "password", "tel":
		kind := s.Format
		if kind == "uri" {
			kind = "url"
		}
		return model.Text(name).Set("type", kind), nil
	case "color":
		return model.Color(name), nil
	}
	if s.MaxLength != nil && *s.MaxLength > textareaThreshold {
		return model.Textarea(name), nil
	}
	return model.Text(name), nil
}

func arrayNode(name string, s *openapi3.Schema) (*model.Node, error) {
	var items *openapi3.Schema
	if s.Items != nil {
		items = s.Items.Value
	}
	var node *model.Node
	switch {
	case items == nil:
		node = model.Tags(name)
	case len(items.Enum) > 0:
		node = model.CheckboxList(name).StaticOptions(enumOptions(items.Enum)...)
	case is(items, "object"):
		children, err := objectNodes(items)
		if err != nil {
			return nil, err
		}
		node = model.Repeater(name, children...)
	case items.Format == "binary":
		node = model.File(name).Set("multiple", true)
	default:
		node = model.Tags(name)
	}
	if s.MinItems > 0 {
		node.Set("minItems", int(s.MinItems))
	}
	if s.MaxItems != nil {
		node.Set("maxItems", int(*s.MaxItems))
	}
	return node, nil
}

func applyConstraints(node *model.Node, s *openapi3.Schema) {
	switch node.Kind {
	case model.KindText, model.KindTextarea:
		if s.MinLength > 0 {
			node.Set("minLength", int(s.MinLength))
		}
		if s.MaxLength != nil {
			node.Set("maxLength", int(*s.MaxLength))
		}
		if s.Pattern != "" {
			node.WithRules("regex:/" + s.Pattern + "/")
		}
	case model.KindNumber:
		if s.Min != nil {
			node.Set("min", *s.Min)
		}
		if s.Max != nil {
			node.Set("max", *s.Max)
		}
	}
}

// applyRelationship turns belongsTo/hasMany metadata into a relationship
// option source on a select.
func applyRelationship(node *model.Node, s *openapi3.Schema) {
	rel, ok := s.Extensions[relationshipsKey].(map[string]any)
	if !ok {
		return
	}
	target, _ := rel["target"].(string)
	if target == "" {
		return
	}
	multiple := strings.EqualFold(stringValue(rel["type"]), "hasMany") || node.Kind == model.KindTags || node.Kind == model.KindCheckboxList
	node.Kind = model.KindSelect
	node.Schema = nil
	node.WithOptions(model.RelationshipSource{
		Entity:         target,
		TitleAttribute: stringValue(rel["title"]),
		KeyAttribute:   stringValue(rel["key"]),
	})
	if multiple {
		node.Set("multiple", true)
	}
	node.Set("searchable", true)
}

func enumOptions(values []any) []model.Option {
	options := make([]model.Option, 0, len(values))
	for _, v := range values {
		s := model.Stringify(v)
		options = append(options, model.Option{Value: s, Label: s})
	}
	return options
}

func is(s *openapi3.Schema, typ string) bool {
	return s != nil && s.Type != nil && s.Type.Is(typ)
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
