package reactive

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/functions"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/registry"
	"github.com/goliatone/go-formkit/pkg/resolver"
	"github.com/goliatone/go-formkit/pkg/serialize"
	visexpr "github.com/goliatone/go-formkit/pkg/visibility/expr"
)

var statesByCountry = map[string][]string{
	"us": {"CA", "NY", "TX"},
	"ca": {"ON", "QC"},
}

func newEngine(t *testing.T, logs *bytes.Buffer) *Engine {
	t.Helper()
	fns := functions.NewRegistry()
	fns.MustRegisterCompute("states", func(_ context.Context, get formstate.Getter, _ formstate.Setter) (any, error) {
		country, _ := get("country").(string)
		return statesByCountry[country], nil
	}, "country")
	fns.MustRegisterHook("resetState", func(_ context.Context, _ formstate.Getter, set formstate.Setter) error {
		set("state", nil)
		return nil
	})
	fns.MustRegisterHook("explode", func(context.Context, formstate.Getter, formstate.Setter) error {
		panic("boom")
	})

	reg := registry.New()
	reg.MustRegister("shipping", func(context.Context, *formstate.State) (*model.Schema, error) {
		return model.NewSchema("shipping",
			model.Select("country").
				StaticOptions(model.Option{Value: "us", Label: "United States"}, model.Option{Value: "ca", Label: "Canada"}).
				Live(0).
				OnStateUpdated("resetState"),
			model.Select("state").Computed("states"),
			model.Text("vat").VisibleWhen(`extras.b2b == true`),
			model.Repeater("items", model.Text("sku").OnStateUpdated("explode")),
		), nil
	})
	reg.MustRegister("broken", func(context.Context, *formstate.State) (*model.Schema, error) {
		return model.NewSchema("broken", model.Text("a"), model.Text("a")), nil
	})

	logger := slog.New(slog.NewTextHandler(logs, nil))
	r := resolver.New(resolver.WithFunctions(fns), resolver.WithLogger(logger))
	return New(
		WithRegistry(reg),
		WithFunctions(fns),
		WithLogger(logger),
		WithSerializer(serialize.New(
			serialize.WithResolver(r),
			serialize.WithVisibility(visexpr.New(r.Expressions())),
			serialize.WithLogger(logger),
		)),
	)
}

func field(resp *Response, name string) serialize.PropertyMap {
	for _, node := range resp.Schema {
		if node["name"] == name {
			return node
		}
	}
	return nil
}

func TestUpdate_RunsHookAndReResolvesDependents(t *testing.T) {
	engine := newEngine(t, &bytes.Buffer{})

	resp, err := engine.Update(context.Background(), Request{
		SchemaID:     "shipping",
		FormState:    json.RawMessage(`{"country":"ca","state":"CA"}`),
		ChangedField: "country",
		RequestToken: "t-7",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if diff := cmp.Diff([]string{"state"}, resp.Affected); diff != "" {
		t.Fatalf("affected mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"state"}, resp.Changed); diff != "" {
		t.Fatalf("changed mismatch (-want +got):\n%s", diff)
	}
	if resp.Data["state"] != nil || resp.Data["country"] != "ca" {
		t.Fatalf("unexpected data %v", resp.Data)
	}
	want := []model.Option{{Value: "ON", Label: "ON"}, {Value: "QC", Label: "QC"}}
	if diff := cmp.Diff(want, field(resp, "state")["options"]); diff != "" {
		t.Fatalf("state options mismatch (-want +got):\n%s", diff)
	}
	if resp.RequestToken != "t-7" {
		t.Fatalf("request token not echoed: %q", resp.RequestToken)
	}
}

func TestUpdate_ErrorsMapToStatus(t *testing.T) {
	engine := newEngine(t, &bytes.Buffer{})
	cases := []struct {
		name string
		req  Request
		code int
	}{
		{name: "missing id", req: Request{}, code: http.StatusBadRequest},
		{name: "unknown schema", req: Request{SchemaID: "nope"}, code: http.StatusNotFound},
		{name: "invalid schema", req: Request{SchemaID: "broken"}, code: http.StatusUnprocessableEntity},
		{name: "unknown target", req: Request{SchemaID: "shipping", Target: "pdf"}, code: http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Update(context.Background(), tc.req)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := Status(err); got != tc.code {
				t.Fatalf("expected status %d, got %d (%v)", tc.code, got, err)
			}
		})
	}
}

func TestUpdate_MalformedStateIsEmpty(t *testing.T) {
	engine := newEngine(t, &bytes.Buffer{})
	resp, err := engine.Update(context.Background(), Request{SchemaID: "shipping", FormState: json.RawMessage(`{"country":`)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(resp.Data) != 0 || len(resp.Affected) != 0 {
		t.Fatalf("expected empty data and no affected fields, got %v %v", resp.Data, resp.Affected)
	}
	if opts := field(resp, "state")["options"].([]model.Option); len(opts) != 0 {
		t.Fatalf("expected no state options without a country, got %v", opts)
	}
}

func TestUpdate_ParamsReachVisibilityRules(t *testing.T) {
	engine := newEngine(t, &bytes.Buffer{})
	resp, err := engine.Update(context.Background(), Request{SchemaID: "shipping", Params: map[string]any{"b2b": true}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if field(resp, "vat")["hidden"] != false {
		t.Fatalf("vat should be visible for b2b callers")
	}
	resp, err = engine.Update(context.Background(), Request{SchemaID: "shipping"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if field(resp, "vat")["hidden"] != true {
		t.Fatalf("vat should be hidden without params")
	}
}

func TestUpdate_HookPanicIsLogged(t *testing.T) {
	logs := &bytes.Buffer{}
	engine := newEngine(t, logs)
	resp, err := engine.Update(context.Background(), Request{
		SchemaID:     "shipping",
		FormState:    json.RawMessage(`{"items":[{"sku":"A"}]}`),
		ChangedField: "items.0.sku",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(resp.Changed) != 0 {
		t.Fatalf("expected no writes, got %v", resp.Changed)
	}
	if !strings.Contains(logs.String(), "formkit: state hook failed") || !strings.Contains(logs.String(), "items.0.sku") {
		t.Fatalf("expected hook failure to be logged, got %q", logs.String())
	}
}

func TestFindPath(t *testing.T) {
	schema := model.NewSchema("page",
		model.Section("Main", model.Text("title")),
		model.Repeater("items", model.Grid(2, model.Text("sku"))),
		model.Builder("content", model.NewBlock("quote", "Quote", model.Text("author"))),
	)
	for path, want := range map[string]string{
		"title":                 "title",
		"items.3.sku":           "sku",
		"content.0.data.author": "author",
	} {
		node, ok := FindPath(schema, path)
		if !ok || node.Name != want {
			t.Fatalf("FindPath(%q) = %v, %v", path, node, ok)
		}
	}
	if _, ok := FindPath(schema, "items.sku"); ok {
		t.Fatalf("item paths require an index")
	}
}
