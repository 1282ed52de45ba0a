// Package terminal fills forms interactively. The filler drives the reactive
// engine: after every answer to a reactive field the schema is re-served, so
// dependent options and visibility follow the answers.
package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/reactive"
	"github.com/goliatone/go-formkit/pkg/serialize"
	"github.com/goliatone/go-formkit/pkg/validation"
)

const defaultAttempts = 3

// Option configures a Filler.
type Option func(*Filler)

func WithDriver(driver PromptDriver) Option {
	return func(f *Filler) { f.driver = driver }
}

// WithValidator re-prompts fields that fail validation once the form is
// complete.
func WithValidator(v *validation.Validator) Option {
	return func(f *Filler) { f.validator = v }
}

// WithAttempts bounds the validation rounds.
func WithAttempts(n int) Option {
	return func(f *Filler) {
		if n > 0 {
			f.attempts = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Filler prompts for every visible field of a schema.
type Filler struct {
	engine    *reactive.Engine
	driver    PromptDriver
	validator *validation.Validator
	attempts  int
	logger    *slog.Logger
}

// New constructs a Filler over engine. The survey driver is used unless
// another driver is supplied.
func New(engine *reactive.Engine, options ...Option) *Filler {
	f := &Filler{engine: engine, attempts: defaultAttempts, logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver()
	}
	return f
}

// Fill prompts until every visible field is answered and returns the final
// form state.
func (f *Filler) Fill(ctx context.Context, schemaID string, initial map[string]any) (map[string]any, error) {
	data := maps.Clone(initial)
	if data == nil {
		data = map[string]any{}
	}
	asked := map[string]bool{}
	data, err := f.pass(ctx, schemaID, data, asked)
	if err != nil {
		return nil, err
	}
	if f.validator == nil {
		return data, nil
	}

	for attempt := 0; attempt < f.attempts; attempt++ {
		state := formstate.New(data)
		schema, err := f.engine.Registry().Build(ctx, schemaID, state)
		if err != nil {
			return nil, err
		}
		errs := f.validator.Validate(ctx, schema, state)
		if errs.Empty() {
			return data, nil
		}
		for _, path := range errs.Fields() {
			if err := f.driver.Info(ctx, strings.Join(errs[path], " ")); err != nil {
				return nil, err
			}
			delete(asked, path)
		}
		if data, err = f.pass(ctx, schemaID, data, asked); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// pass asks every field not yet asked. The schema is refreshed after each
// reactive answer.
func (f *Filler) pass(ctx context.Context, schemaID string, data map[string]any, asked map[string]bool) (map[string]any, error) {
	resp, err := f.update(ctx, schemaID, data, "")
	if err != nil {
		return nil, err
	}
	data = resp.Data
	schema := resp.Schema
	for {
		field, ok := next(schema, asked)
		if !ok {
			return data, nil
		}
		name, _ := field["name"].(string)
		asked[name] = true
		value, skip, err := f.ask(ctx, field)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		data[name] = value
		if reactiveField(field) {
			resp, err = f.update(ctx, schemaID, data, name)
			if err != nil {
				return nil, err
			}
			data = resp.Data
			schema = resp.Schema
		}
	}
}

func (f *Filler) update(ctx context.Context, schemaID string, data map[string]any, changed string) (*reactive.Response, error) {
	f.logger.DebugContext(ctx, "formkit: terminal refresh", slog.String("schema", schemaID), slog.String("changed", changed))
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("terminal: encode state: %w", err)
	}
	resp, err := f.engine.Update(ctx, reactive.Request{
		SchemaID:     schemaID,
		FormState:    raw,
		ChangedField: changed,
		Target:       serialize.TargetWeb,
	})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = map[string]any{}
	}
	return resp, nil
}

// next returns the first visible, enabled, unasked field in render order.
func next(fields []serialize.PropertyMap, asked map[string]bool) (serialize.PropertyMap, bool) {
	for _, field := range fields {
		if hidden, _ := field["hidden"].(bool); hidden {
			continue
		}
		if model.Kind(typeOf(field)).IsLayout() {
			children, _ := field["schema"].([]serialize.PropertyMap)
			if found, ok := next(children, asked); ok {
				return found, true
			}
			continue
		}
		name, _ := field["name"].(string)
		if name == "" || asked[name] {
			continue
		}
		if disabled, _ := field["disabled"].(bool); disabled {
			continue
		}
		if readonly, _ := field["readonly"].(bool); readonly {
			continue
		}
		if typeOf(field) == string(model.KindHidden) {
			continue
		}
		return field, true
	}
	return nil, false
}

func reactiveField(field serialize.PropertyMap) bool {
	r, _ := field["reactive"].(bool)
	return r
}

func typeOf(field serialize.PropertyMap) string {
	t, _ := field["type"].(string)
	return t
}

// ask prompts for one field. skip reports fields the terminal cannot edit.
func (f *Filler) ask(ctx context.Context, field serialize.PropertyMap) (value any, skip bool, err error) {
	label, _ := field["label"].(string)
	help, _ := field["helperText"].(string)
	required, _ := field["required"].(bool)
	current := field["value"]
	message := label
	if required {
		message += " *"
	}

	switch model.Kind(typeOf(field)) {
	case model.KindCheckbox, model.KindToggle:
		def, _ := current.(bool)
		answer, err := f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: help})
		return answer, false, err

	case model.KindSelect, model.KindRadio, model.KindCheckboxList:
		options, _ := field["options"].([]model.Option)
		multiple, _ := field["multiple"].(bool)
		if typeOf(field) == string(model.KindCheckboxList) {
			multiple = true
		}
		if len(options) == 0 {
			if err := f.driver.Info(ctx, label+": no options available"); err != nil {
				return nil, false, err
			}
			return nil, true, nil
		}
		return f.choose(ctx, message, help, options, multiple, current)

	case model.KindIconPicker:
		var options []model.Option
		switch icons := field["icons"].(type) {
		case []string:
			for _, icon := range icons {
				options = append(options, model.Option{Value: icon, Label: icon})
			}
		case []any:
			for _, icon := range icons {
				options = append(options, model.Option{Value: model.Stringify(icon), Label: model.Stringify(icon)})
			}
		}
		return f.choose(ctx, message, help, options, false, current)

	case model.KindTextarea, model.KindRichEditor:
		answer, err := f.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: model.Stringify(current), Help: help})
		return answer, false, err

	case model.KindNumber, model.KindRate:
		answer, err := f.driver.Input(ctx, InputConfig{
			Message: message, Default: model.Stringify(current), Help: help,
			Validator: func(s string) error {
				if strings.TrimSpace(s) == "" && !required {
					return nil
				}
				_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				return err
			},
		})
		if err != nil {
			return nil, false, err
		}
		if strings.TrimSpace(answer) == "" {
			return nil, false, nil
		}
		n, _ := strconv.ParseFloat(strings.TrimSpace(answer), 64)
		return n, false, nil

	case model.KindTags:
		sep, _ := field["separator"].(string)
		if sep == "" {
			sep = ","
		}
		answer, err := f.driver.Input(ctx, InputConfig{Message: message, Help: help})
		if err != nil {
			return nil, false, err
		}
		tags := []any{}
		for _, part := range strings.Split(answer, sep) {
			if part = strings.TrimSpace(part); part != "" {
				tags = append(tags, part)
			}
		}
		return tags, false, nil

	case model.KindRepeater:
		return f.repeat(ctx, field, label)

	case model.KindBuilder, model.KindKeyValue, model.KindFile, model.KindDateRange:
		if err := f.driver.Info(ctx, label+": not editable in the terminal, skipped"); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	validator := func(s string) error {
		if required && strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
	cfg := InputConfig{Message: message, Default: model.Stringify(current), Help: help, Validator: validator}
	if typeOf(field) == "password" {
		answer, err := f.driver.Password(ctx, cfg)
		return answer, false, err
	}
	answer, err := f.driver.Input(ctx, cfg)
	return answer, false, err
}

func (f *Filler) choose(ctx context.Context, message, help string, options []model.Option, multiple bool, current any) (any, bool, error) {
	labels := make([]string, len(options))
	for i, opt := range options {
		labels[i] = opt.Label
	}
	if multiple {
		var defaults []int
		if list, ok := current.([]any); ok {
			for _, v := range list {
				if idx := optionIndex(options, model.Stringify(v)); idx >= 0 {
					defaults = append(defaults, idx)
				}
			}
		}
		picked, err := f.driver.MultiSelect(ctx, SelectConfig{Message: message, Options: labels, Defaults: defaults, Help: help})
		if err != nil {
			return nil, false, err
		}
		values := make([]any, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(options) {
				values = append(values, options[idx].Value)
			}
		}
		return values, false, nil
	}
	idx, err := f.driver.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: optionIndex(options, model.Stringify(current)), Help: help})
	if err != nil {
		return nil, false, err
	}
	if idx < 0 || idx >= len(options) {
		return nil, false, nil
	}
	return options[idx].Value, false, nil
}

// repeat collects repeater items until the user declines another one.
func (f *Filler) repeat(ctx context.Context, field serialize.PropertyMap, label string) (any, bool, error) {
	template, _ := field["schema"].([]serialize.PropertyMap)
	items := []any{}
	for {
		more, err := f.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add an item to %s?", label)})
		if err != nil {
			return nil, false, err
		}
		if !more {
			return items, false, nil
		}
		item := map[string]any{}
		asked := map[string]bool{}
		for {
			child, ok := next(template, asked)
			if !ok {
				break
			}
			name, _ := child["name"].(string)
			asked[name] = true
			value, skip, err := f.ask(ctx, child)
			if err != nil {
				return nil, false, err
			}
			if !skip {
				item[name] = value
			}
		}
		items = append(items, item)
	}
}

func optionIndex(options []model.Option, value string) int {
	for i, opt := range options {
		if opt.Value == value {
			return i
		}
	}
	return -1
}
