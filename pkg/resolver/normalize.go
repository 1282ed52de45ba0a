package resolver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-formkit/pkg/model"
)

// ErrUnsupportedResult is reported when a computation returns something that
// is neither a list nor a mapping.
var ErrUnsupportedResult = errors.New("resolver: unsupported option result")

// Normalize converts a computation result into a flat option list. Lists keep
// their order; mappings are ordered by key. A nested mapping becomes a group
// named after its key. Unsupported results yield an empty list and
// ErrUnsupportedResult.
func Normalize(raw any) ([]model.Option, error) {
	switch v := raw.(type) {
	case nil:
		return []model.Option{}, nil
	case []model.Option:
		return model.CloneOptions(v), nil
	case []string:
		out := make([]model.Option, 0, len(v))
		for _, item := range v {
			out = append(out, model.Option{Value: item, Label: item})
		}
		return out, nil
	case []any:
		out := make([]model.Option, 0, len(v))
		for _, item := range v {
			out = append(out, listItem(item))
		}
		return out, nil
	case map[string]string:
		return model.OptionsFromMap(v), nil
	case map[string]any:
		return fromMap(v, ""), nil
	case map[string]map[string]string:
		out := make([]model.Option, 0)
		for _, group := range sortedKeys(v) {
			for _, opt := range model.OptionsFromMap(v[group]) {
				opt.Group = group
				out = append(out, opt)
			}
		}
		return out, nil
	default:
		return []model.Option{}, fmt.Errorf("%w %T", ErrUnsupportedResult, raw)
	}
}

// listItem accepts already formed {value, label} entries, model.Option values
// and scalars.
func listItem(item any) model.Option {
	switch v := item.(type) {
	case model.Option:
		return v
	case map[string]any:
		value, hasValue := v["value"]
		if !hasValue {
			value = v["id"]
		}
		label, hasLabel := v["label"]
		if !hasLabel {
			label = value
		}
		opt := model.Option{Value: model.Stringify(value), Label: model.Stringify(label)}
		if group, ok := v["group"].(string); ok {
			opt.Group = group
		}
		if disabled, ok := v["disabled"].(bool); ok {
			opt.Disabled = disabled
		}
		return opt
	default:
		s := model.Stringify(v)
		return model.Option{Value: s, Label: s}
	}
}

func fromMap(values map[string]any, group string) []model.Option {
	out := make([]model.Option, 0, len(values))
	for _, key := range sortedKeys(values) {
		switch value := values[key].(type) {
		case map[string]any:
			if group != "" {
				// groups do not nest; flatten into the outer group
				out = append(out, fromMap(value, group)...)
				continue
			}
			out = append(out, fromMap(value, key)...)
		case map[string]string:
			for _, opt := range model.OptionsFromMap(value) {
				opt.Group = key
				if group != "" {
					opt.Group = group
				}
				out = append(out, opt)
			}
		default:
			out = append(out, model.Option{Value: key, Label: model.Stringify(value), Group: group})
		}
	}
	return out
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Grouped reports whether any option carries a group.
func Grouped(options []model.Option) bool {
	for _, opt := range options {
		if opt.Group != "" {
			return true
		}
	}
	return false
}

// Truncate bounds options to limit. Selected values that sit past the window
// but exist in the full list are appended back in list order, so the result
// may exceed limit. A limit of zero or less disables truncation.
func Truncate(options []model.Option, limit int, selected []string) ([]model.Option, bool) {
	if limit <= 0 || len(options) <= limit {
		return options, false
	}
	window := make([]model.Option, limit, limit+len(selected))
	copy(window, options[:limit])
	if len(selected) == 0 {
		return window, true
	}
	present := make(map[string]struct{}, limit)
	for _, opt := range window {
		present[opt.Value] = struct{}{}
	}
	wanted := make(map[string]struct{}, len(selected))
	for _, value := range selected {
		if _, ok := present[value]; !ok {
			wanted[value] = struct{}{}
		}
	}
	for _, opt := range options[limit:] {
		if len(wanted) == 0 {
			break
		}
		if _, ok := wanted[opt.Value]; ok {
			window = append(window, opt)
			delete(wanted, opt.Value)
		}
	}
	return window, true
}
