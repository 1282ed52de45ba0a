package expr

import (
	"testing"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/visibility"
)

func TestEvaluator_ComparisonsAndComposition(t *testing.T) {
	t.Parallel()

	eval := New(nil)
	ctx := visibility.Context{
		Values: map[string]any{
			"enabled": true,
			"count":   3.0,
			"address": map[string]any{"country": "us"},
		},
		Extras: map[string]any{"role": "editor"},
	}

	cases := map[string]bool{
		`enabled`:                                 true,
		`!enabled`:                                false,
		`count == 3 && enabled`:                   true,
		`address.country == "us"`:                 true,
		`get("address.country") == "ca"`:          false,
		`extras.role == "admin" || count > 2`:     true,
		`missing == nil`:                          true,
		``:                                        true,
	}
	for rule, want := range cases {
		got, err := eval.Eval("field", rule, ctx)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", rule, err)
		}
		if got != want {
			t.Fatalf("Eval(%q) = %v, want %v", rule, got, want)
		}
	}
}

func TestEvaluator_NonBoolIsError(t *testing.T) {
	t.Parallel()

	if _, err := New(nil).Eval("field", `"yes"`, visibility.Context{}); err == nil {
		t.Fatalf("expected error for non-bool rule")
	}
}

func TestHidden(t *testing.T) {
	t.Parallel()

	eval := New(nil)
	ctx := visibility.Context{Values: map[string]any{"kind": "company"}}

	cases := []struct {
		name string
		node *model.Node
		want bool
	}{
		{name: "no rules", node: model.Text("a"), want: false},
		{name: "static hidden", node: model.Text("a").MarkHidden(), want: true},
		{name: "hidden when true", node: model.Text("a").HiddenWhen(`kind == "company"`), want: true},
		{name: "visible when false", node: model.Text("a").VisibleWhen(`kind == "person"`), want: true},
		{name: "visible when true", node: model.Text("a").VisibleWhen(`kind == "company"`), want: false},
	}
	for _, tc := range cases {
		got, err := visibility.Hidden(tc.node, eval, ctx)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: hidden = %v, want %v", tc.name, got, tc.want)
		}
	}

	shadowing := visibility.Context{Values: map[string]any{"count": 5.0, "len": 1.0}}
	if hidden, err := visibility.Hidden(model.Text("note").VisibleWhen(`count > 2`), eval, shadowing); err != nil || hidden {
		t.Fatalf("count field: hidden=%v err=%v", hidden, err)
	}
	if hidden, err := visibility.Hidden(model.Text("note").HiddenWhen(`len < 2`), eval, shadowing); err != nil || !hidden {
		t.Fatalf("len field: hidden=%v err=%v", hidden, err)
	}

	if hidden, err := visibility.Hidden(model.Text("a").HiddenWhen(`(`), eval, ctx); err == nil || hidden {
		t.Fatalf("broken rule should report an error and stay visible, got hidden=%v err=%v", hidden, err)
	}
}
