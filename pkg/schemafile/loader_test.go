package schemafile

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/registry"
)

const shippingYAML = `
id: shipping
fields:
  - name: country
    kind: select
    label: Country
    required: true
    live: {debounce: 300}
    afterStateUpdated: resetState
    options:
      map: {us: United States, ca: Canada}
  - name: state
    kind: select
    options:
      computed: {function: states, dependsOn: [country]}
  - kind: section
    label: Extra
    schema:
      - name: notes
        kind: textarea
        rules: ["max:500"]
        messages: {max: Too long.}
        visibleWhen: "get('country') == 'us'"
  - name: items
    kind: repeater
    props: {minItems: 1}
    schema:
      - name: sku
  - name: content
    kind: builder
    blocks:
      - name: hero
        label: Hero
        maxItems: 1
        schema:
          - {name: title, kind: text}
`

func TestParse_YAML(t *testing.T) {
	schema, err := Parse([]byte(shippingYAML), "shipping.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if schema.ID != "shipping" || len(schema.Nodes) != 5 {
		t.Fatalf("unexpected schema %+v", schema)
	}

	country := schema.Nodes[0]
	if !country.Required || country.Reactivity == nil || country.Reactivity.Debounce != 300 || country.AfterStateUpdated != "resetState" {
		t.Fatalf("unexpected country node %+v", country)
	}
	wantOptions := model.StaticSource{Options: []model.Option{{Value: "ca", Label: "Canada"}, {Value: "us", Label: "United States"}}}
	if diff := cmp.Diff(model.OptionSource(wantOptions), country.Options); diff != "" {
		t.Fatalf("country options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.OptionSource(model.ComputedSource{Function: "states", DependsOn: []string{"country"}}), schema.Nodes[1].Options); diff != "" {
		t.Fatalf("state options mismatch (-want +got):\n%s", diff)
	}

	notes, ok := schema.Find("notes")
	if !ok || notes.Kind != model.KindTextarea || notes.Visibility == nil || notes.Validation.Messages["max"] != "Too long." {
		t.Fatalf("unexpected notes node %+v", notes)
	}
	items := schema.Nodes[3]
	if items.IntProp("minItems", 0) != 1 || items.Schema[0].Kind != model.KindText {
		t.Fatalf("unexpected repeater %+v", items)
	}
	content := schema.Nodes[4]
	if len(content.Blocks) != 1 || content.Blocks[0].MaxItems != 1 || content.Blocks[0].Schema[0].Name != "title" {
		t.Fatalf("unexpected builder %+v", content)
	}
}

func TestParse_JSONDefaultsIDFromFileName(t *testing.T) {
	schema, err := Parse([]byte(`{"fields":[{"name":"email","kind":"text","props":{"type":"email"}}]}`), "forms/contact.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if schema.ID != "contact" || schema.Nodes[0].StringProp("type") != "email" {
		t.Fatalf("unexpected schema %+v", schema)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{name: "duplicate", doc: "id: x\nfields:\n  - name: a\n  - name: a\n", want: model.ErrDuplicateField},
		{name: "unknown kind", doc: "id: x\nfields:\n  - name: a\n    kind: slider\n", want: model.ErrUnknownKind},
		{name: "conflicting options", doc: "id: x\nfields:\n  - name: a\n    kind: select\n    options:\n      map: {a: A}\n      computed: {function: f}\n", want: ErrConflictingOptions},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc), "x.yaml")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !model.IsConfigurationError(err) {
				t.Fatalf("expected configuration error, got %T", err)
			}
		})
	}
	if _, err := Parse([]byte("  "), "empty.yaml"); err == nil {
		t.Fatalf("expected empty file error")
	}
}

func TestLoadFS_RegistersSchemas(t *testing.T) {
	fsys := fstest.MapFS{
		"forms/shipping.yaml": {Data: []byte(shippingYAML)},
		"forms/contact.json":  {Data: []byte(`{"id":"contact","fields":[{"name":"name"}]}`)},
		"forms/README.md":     {Data: []byte("ignored")},
	}
	store, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"contact", "shipping"}, store.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	reg := registry.New()
	if err := store.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	schema, err := reg.Build(context.Background(), "contact", formstate.New(nil))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if schema.Nodes[0].Name != "name" {
		t.Fatalf("unexpected built schema %+v", schema)
	}

	dup := fstest.MapFS{
		"a.json": {Data: []byte(`{"id":"same","fields":[]}`)},
		"b.json": {Data: []byte(`{"id":"same","fields":[]}`)},
	}
	if _, err := LoadFS(dup); err == nil {
		t.Fatalf("expected duplicate schema error")
	}
}
