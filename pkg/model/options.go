package model

import (
	"fmt"
	"sort"
	"strconv"
)

// Option is a single resolved choice. Group tags the option when the list is
// grouped; grouped lists stay flat.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Group    string `json:"group,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// SourceKind identifies an OptionSource variant.
type SourceKind string

const (
	SourceStatic       SourceKind = "static"
	SourceRelationship SourceKind = "relationship"
	SourceComputed     SourceKind = "computed"
	SourceExpression   SourceKind = "expression"
)

// OptionSource describes how a field's choices are produced.
type OptionSource interface {
	SourceKind() SourceKind
}

// Deferred reports whether the source is evaluated against form state.
func Deferred(src OptionSource) bool {
	if src == nil {
		return false
	}
	switch src.SourceKind() {
	case SourceComputed, SourceExpression:
		return true
	default:
		return false
	}
}

// StaticSource returns its options as given.
type StaticSource struct {
	Options []Option
}

func (StaticSource) SourceKind() SourceKind { return SourceStatic }

// RelationshipSource loads options from a related entity through the entity
// store. Modifier and LabelFunc name functions registered with the function
// registry.
type RelationshipSource struct {
	Entity         string
	TitleAttribute string
	KeyAttribute   string
	Modifier       string
	LabelFunc      string
}

func (RelationshipSource) SourceKind() SourceKind { return SourceRelationship }

// Title returns the label attribute, defaulting to "name".
func (r RelationshipSource) Title() string {
	if r.TitleAttribute == "" {
		return "name"
	}
	return r.TitleAttribute
}

// Key returns the value attribute, defaulting to "id".
func (r RelationshipSource) Key() string {
	if r.KeyAttribute == "" {
		return "id"
	}
	return r.KeyAttribute
}

// ComputedSource invokes a registered compute function with the form state.
type ComputedSource struct {
	Function  string
	DependsOn []string
}

func (ComputedSource) SourceKind() SourceKind { return SourceComputed }

// ExpressionSource evaluates an expr-lang expression with get/set helpers.
type ExpressionSource struct {
	Source    string
	DependsOn []string
}

func (ExpressionSource) SourceKind() SourceKind { return SourceExpression }

// OptionsFromMap converts a value→label mapping into options ordered by key.
// Every entry yields exactly one option.
func OptionsFromMap(values map[string]string) []Option {
	if len(values) == 0 {
		return []Option{}
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]Option, 0, len(keys))
	for _, key := range keys {
		out = append(out, Option{Value: key, Label: values[key]})
	}
	return out
}

// CloneOptions copies an option slice.
func CloneOptions(in []Option) []Option {
	if in == nil {
		return nil
	}
	out := make([]Option, len(in))
	copy(out, in)
	return out
}

// Stringify renders an option value the way keys are cast to strings.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
