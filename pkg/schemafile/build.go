package schemafile

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

func buildNodes(fields []fieldFile, parent string) ([]*model.Node, error) {
	nodes := make([]*model.Node, 0, len(fields))
	for i, field := range fields {
		node, err := buildNode(field)
		if err != nil {
			where := field.Name
			if where == "" {
				where = fmt.Sprintf("fields[%d]", i)
			}
			if parent != "" {
				where = parent + "." + where
			}
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func buildNode(f fieldFile) (*model.Node, error) {
	kind := model.Kind(strings.ToLower(strings.TrimSpace(f.Kind)))
	if kind == "" {
		kind = model.KindText
	}
	node := model.NewNode(kind, strings.TrimSpace(f.Name))
	node.Label = f.Label
	node.HelperText = f.HelperText
	node.Placeholder = f.Placeholder
	node.Default = f.Default
	node.ColumnSpan = f.ColumnSpan
	node.Required = f.Required
	node.Disabled = f.Disabled
	node.Readonly = f.Readonly
	node.AfterStateUpdated = f.AfterStateUpdated
	node.DependsOn = append(node.DependsOn, f.DependsOn...)

	if f.Hidden || f.HiddenWhen != "" || f.VisibleWhen != "" {
		node.Visibility = &model.Visibility{Hidden: f.Hidden, HiddenWhen: f.HiddenWhen, VisibleWhen: f.VisibleWhen}
	}
	if len(f.Rules) > 0 || len(f.Messages) > 0 {
		node.WithRules(f.Rules...)
		for rule, msg := range f.Messages {
			node.WithMessage(rule, msg)
		}
	}
	switch {
	case f.Live != nil:
		node.Live(f.Live.Debounce)
	case f.Lazy:
		node.Lazy()
	}
	for key, value := range f.Props {
		node.Set(key, value)
	}

	if f.Options != nil {
		src, err := optionSource(*f.Options)
		if err != nil {
			return nil, err
		}
		node.WithOptions(src)
	}

	children, err := buildNodes(f.Schema, f.Name)
	if err != nil {
		return nil, err
	}
	if len(children) > 0 {
		node.Schema = children
	}
	for _, b := range f.Blocks {
		schema, err := buildNodes(b.Schema, f.Name+"["+b.Name+"]")
		if err != nil {
			return nil, err
		}
		block := model.NewBlock(b.Name, b.Label, schema...)
		block.Icon = b.Icon
		block.MaxItems = b.MaxItems
		node.Blocks = append(node.Blocks, block)
	}
	return node, nil
}

func optionSource(o optionsFile) (model.OptionSource, error) {
	var sources []model.OptionSource
	if len(o.Static) > 0 {
		options := make([]model.Option, 0, len(o.Static))
		for _, opt := range o.Static {
			label := opt.Label
			if label == "" {
				label = opt.Value
			}
			options = append(options, model.Option{Value: opt.Value, Label: label, Group: opt.Group, Disabled: opt.Disabled})
		}
		sources = append(sources, model.StaticSource{Options: options})
	}
	if len(o.Map) > 0 {
		sources = append(sources, model.StaticSource{Options: model.OptionsFromMap(o.Map)})
	}
	if r := o.Relationship; r != nil {
		if strings.TrimSpace(r.Entity) == "" {
			return nil, fmt.Errorf("schemafile: relationship entity is required")
		}
		sources = append(sources, model.RelationshipSource{
			Entity:         r.Entity,
			TitleAttribute: r.Title,
			KeyAttribute:   r.Key,
			Modifier:       r.Modifier,
			LabelFunc:      r.LabelFunc,
		})
	}
	if c := o.Computed; c != nil {
		if strings.TrimSpace(c.Function) == "" {
			return nil, fmt.Errorf("schemafile: computed function is required")
		}
		sources = append(sources, model.ComputedSource{Function: c.Function, DependsOn: c.DependsOn})
	}
	if e := o.Expression; e != nil {
		if strings.TrimSpace(e.Source) == "" {
			return nil, fmt.Errorf("schemafile: expression source is required")
		}
		sources = append(sources, model.ExpressionSource{Source: e.Source, DependsOn: e.DependsOn})
	}
	switch len(sources) {
	case 0:
		return model.StaticSource{Options: []model.Option{}}, nil
	case 1:
		return sources[0], nil
	default:
		return nil, ErrConflictingOptions
	}
}
