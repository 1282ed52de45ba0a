package openapi

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

// applyExtension applies an x-formkit property extension:
//
//	x-formkit:
//	  kind: radio
//	  label: Country
//	  placeholder: Pick one
//	  computed: states        # or expression: "...", relationship: {entity, title}
//	  dependsOn: [country]
//	  live: 300               # debounce ms; true for no debounce
//	  afterStateUpdated: resetState
//	  visibleWhen: "get('b2b')"
//	  props: {inline: true}
func applyExtension(node *model.Node, raw any) error {
	if raw == nil {
		return nil
	}
	ext, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("openapi: %s must be an object", extensionKey)
	}
	if kind := stringValue(ext["kind"]); kind != "" {
		node.Kind = model.Kind(strings.ToLower(kind))
	}
	if v := stringValue(ext["label"]); v != "" {
		node.Label = v
	}
	if v := stringValue(ext["helperText"]); v != "" {
		node.HelperText = v
	}
	if v := stringValue(ext["placeholder"]); v != "" {
		node.Placeholder = v
	}
	if v := stringValue(ext["afterStateUpdated"]); v != "" {
		node.AfterStateUpdated = v
	}
	deps := stringList(ext["dependsOn"])
	switch {
	case stringValue(ext["computed"]) != "":
		node.Computed(stringValue(ext["computed"]), deps...)
	case stringValue(ext["expression"]) != "":
		node.Expression(stringValue(ext["expression"]), deps...)
	default:
		if len(deps) > 0 {
			node.WithDependsOn(deps...)
		}
	}
	if rel, ok := ext["relationship"].(map[string]any); ok {
		entity := stringValue(rel["entity"])
		if entity == "" {
			return fmt.Errorf("openapi: %s relationship entity is required", extensionKey)
		}
		node.WithOptions(model.RelationshipSource{
			Entity:         entity,
			TitleAttribute: stringValue(rel["title"]),
			KeyAttribute:   stringValue(rel["key"]),
			Modifier:       stringValue(rel["modifier"]),
			LabelFunc:      stringValue(rel["labelFunc"]),
		})
	}
	switch live := ext["live"].(type) {
	case bool:
		if live {
			node.Live(0)
		}
	case float64:
		node.Live(int(live))
	case int:
		node.Live(live)
	}
	if v := stringValue(ext["visibleWhen"]); v != "" {
		node.VisibleWhen(v)
	}
	if v := stringValue(ext["hiddenWhen"]); v != "" {
		node.HiddenWhen(v)
	}
	if rules := stringList(ext["rules"]); len(rules) > 0 {
		node.WithRules(rules...)
	}
	if props, ok := ext["props"].(map[string]any); ok {
		for k, v := range props {
			node.Set(k, v)
		}
	}
	return nil
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
