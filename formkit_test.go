package formkit

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/components/timezones"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/serialize"
)

func accountSchema() *model.Schema {
	return model.NewSchema("account",
		model.Text("email").WithRules("required", "email"),
		model.Select("timezone").Computed(timezones.FunctionName),
		model.Text("company").VisibleWhen(`get("type") == "business"`),
		model.Text("audit_note").VisibleWhen(`"admin" in extras.roles`),
	)
}

func names(fields []serialize.PropertyMap) []string {
	var out []string
	for _, field := range fields {
		if hidden, _ := field["hidden"].(bool); hidden {
			continue
		}
		out = append(out, field["name"].(string))
	}
	return out
}

func TestKit_RenderAppliesVisibilityAndBuiltins(t *testing.T) {
	kit := New()
	kit.MustRegister(accountSchema())

	fields, err := kit.Render(context.Background(), "account", map[string]any{"type": "personal"}, "", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff([]string{"email", "timezone"}, names(fields)); diff != "" {
		t.Fatalf("visible fields mismatch (-want +got):\n%s", diff)
	}
	options, _ := fields[1]["options"].([]model.Option)
	if len(options) == 0 {
		t.Fatalf("expected timezone options, got %#v", fields[1]["options"])
	}

	fields, err = kit.Render(context.Background(), "account", map[string]any{"type": "business"}, serialize.TargetWeb,
		map[string]any{"roles": []any{"admin"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff([]string{"email", "timezone", "company", "audit_note"}, names(fields)); diff != "" {
		t.Fatalf("visible fields mismatch (-want +got):\n%s", diff)
	}
}

func TestKit_Validate(t *testing.T) {
	kit := New()
	kit.MustRegister(accountSchema())

	errs, err := kit.Validate(context.Background(), "account", map[string]any{"email": "nope", "timezone": "Mars/Base"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"email", "timezone"}, errs.Fields()); diff != "" {
		t.Fatalf("failing fields mismatch (-want +got):\n%s", diff)
	}

	errs, err = kit.Validate(context.Background(), "account", map[string]any{"email": "a@b.co", "timezone": "UTC"})
	if err != nil || !errs.Empty() {
		t.Fatalf("expected valid submission, got %v / %v", errs, err)
	}

	if _, err := kit.Validate(context.Background(), "missing", nil); err == nil {
		t.Fatalf("expected unknown schema error")
	}
}
