// Package validation derives rules from field definitions and validates
// submitted state against them. Every field is validated; errors are
// collected per field path and never short-circuit the batch.
package validation

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

const (
	defaultTextMax     = 255
	defaultTextareaMax = 1000
	defaultPinLength   = 4
	defaultMaxRating   = 5
)

// Derive returns the rules for node: required or nullable, the rules implied
// by its kind, then explicit rules. An explicit rule replaces a derived rule
// of the same name.
func Derive(node *model.Node) []string {
	if node == nil || !node.BindsState() {
		return []string{}
	}
	var derived []string
	if node.Required {
		derived = append(derived, "required")
	} else {
		derived = append(derived, "nullable")
	}

	switch node.Kind {
	case model.KindText:
		derived = append(derived, "string")
		switch node.StringProp("type") {
		case "email":
			derived = append(derived, "email")
		case "url":
			derived = append(derived, "url")
		case "numeric":
			derived = append(derived, "numeric")
		}
		derived = append(derived, "max:"+strconv.Itoa(node.IntProp("maxLength", defaultTextMax)))
		if minLength := node.IntProp("minLength", 0); minLength > 0 {
			derived = append(derived, "min:"+strconv.Itoa(minLength))
		}
	case model.KindTextarea:
		derived = append(derived, "string", "max:"+strconv.Itoa(node.IntProp("maxLength", defaultTextareaMax)))
	case model.KindNumber:
		derived = append(derived, "numeric")
		if value, ok := node.Prop("min"); ok {
			derived = append(derived, "min:"+model.Stringify(value))
		}
		if value, ok := node.Prop("max"); ok {
			derived = append(derived, "max:"+model.Stringify(value))
		}
	case model.KindSelect, model.KindRadio:
		if node.BoolProp("multiple", false) {
			derived = append(derived, "array")
		} else {
			derived = append(derived, "string")
		}
		if in := staticIn(node); in != "" {
			derived = append(derived, in)
		}
	case model.KindCheckboxList, model.KindTags:
		derived = append(derived, "array")
		if in := staticIn(node); in != "" {
			derived = append(derived, in)
		}
	case model.KindCheckbox, model.KindToggle:
		derived = append(derived, "boolean")
	case model.KindDate, model.KindDateTime:
		derived = append(derived, "date")
	case model.KindTime:
		derived = append(derived, "date_format:H:i")
	case model.KindFile:
		derived = append(derived, "file")
		if maxSize := node.IntProp("maxSize", 0); maxSize > 0 {
			derived = append(derived, "max:"+strconv.Itoa(maxSize))
		}
		if mimes := Mimes(node); len(mimes) > 0 {
			derived = append(derived, "mimes:"+strings.Join(mimes, ","))
		}
	case model.KindRepeater, model.KindBuilder, model.KindKeyValue:
		derived = append(derived, "array")
		if minItems := node.IntProp("minItems", 0); minItems > 0 {
			derived = append(derived, "min:"+strconv.Itoa(minItems))
		}
		if maxItems := node.IntProp("maxItems", 0); maxItems > 0 {
			derived = append(derived, "max:"+strconv.Itoa(maxItems))
		}
	case model.KindRichEditor:
		if node.BoolProp("json", false) {
			derived = append(derived, "array")
		} else {
			derived = append(derived, "string")
		}
	case model.KindPinInput:
		length := strconv.Itoa(node.IntProp("length", defaultPinLength))
		derived = append(derived, "string")
		if inputType := node.StringProp("inputType"); inputType == "" || inputType == "numeric" {
			derived = append(derived, "digits:"+length)
		} else {
			derived = append(derived, "size:"+length)
		}
	case model.KindRate:
		derived = append(derived, "numeric", "min:0", "max:"+strconv.Itoa(node.IntProp("maxRating", defaultMaxRating)))
		if node.BoolProp("allowHalf", false) {
			derived = append(derived, "multiple_of:0.5")
		} else {
			derived = append(derived, "integer")
		}
	case model.KindIconPicker:
		derived = append(derived, "string", "in:"+strings.Join(node.Icons(), ","))
	case model.KindDateRange:
		minDate, maxDate := node.StringProp("minDate"), node.StringProp("maxDate")
		if minDate == "" && maxDate == "" {
			derived = append(derived, "date_range")
		} else {
			derived = append(derived, "date_range:"+minDate+","+maxDate)
		}
	case model.KindHidden:
	default:
		derived = append(derived, "string")
	}

	var explicit []string
	if node.Validation != nil {
		explicit = node.Validation.Rules
	}
	return merge(derived, explicit)
}

func merge(derived, explicit []string) []string {
	overridden := make(map[string]struct{}, len(explicit))
	for _, raw := range explicit {
		overridden[model.ParseRule(raw).Name] = struct{}{}
	}
	if _, ok := overridden["required"]; ok {
		overridden["nullable"] = struct{}{}
	}
	out := make([]string, 0, len(derived)+len(explicit))
	for _, raw := range derived {
		if _, ok := overridden[model.ParseRule(raw).Name]; ok {
			continue
		}
		out = append(out, raw)
	}
	seen := make(map[string]struct{}, len(explicit))
	for _, raw := range explicit {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		out = append(out, raw)
	}
	return out
}

// staticIn renders an in: rule from static options. Deferred sources are
// checked against resolved options at validation time instead.
func staticIn(node *model.Node) string {
	src, ok := node.Options.(model.StaticSource)
	if !ok || len(src.Options) == 0 {
		return ""
	}
	values := make([]string, len(src.Options))
	for i, opt := range src.Options {
		values[i] = opt.Value
	}
	return "in:" + strings.Join(values, ",")
}

var wildcardMimes = map[string][]string{
	"image/*": {"jpg", "jpeg", "png", "gif", "svg", "webp"},
	"video/*": {"mp4", "avi", "mov", "wmv"},
	"audio/*": {"mp3", "wav", "ogg"},
}

var mimeExtensions = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
	"text/plain": "txt",
}

// Mimes converts the acceptedFileTypes prop (MIME types, wildcards or
// extensions) into distinct file extensions.
func Mimes(node *model.Node) []string {
	types := node.StringsProp("acceptedFileTypes")
	var out []string
	seen := make(map[string]struct{})
	add := func(ext string) {
		if _, ok := seen[ext]; ok || ext == "" {
			return
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	for _, t := range types {
		switch {
		case wildcardMimes[t] != nil:
			for _, ext := range wildcardMimes[t] {
				add(ext)
			}
		case strings.HasPrefix(t, "."):
			add(strings.TrimPrefix(t, "."))
		case strings.Contains(t, "/"):
			add(mimeExtensions[t])
		}
	}
	return out
}
