package validation

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/functions"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/resolver"
	visexpr "github.com/goliatone/go-formkit/pkg/visibility/expr"
)

func TestDerive(t *testing.T) {
	cases := []struct {
		name string
		node *model.Node
		want []string
	}{
		{
			name: "required email",
			node: model.Text("email").Set("type", "email").MarkRequired(),
			want: []string{"required", "string", "email", "max:255"},
		},
		{
			name: "explicit max replaces derived max",
			node: model.Text("code").WithRules("max:10", "regex:/^[A-Z]+$/"),
			want: []string{"nullable", "string", "max:10", "regex:/^[A-Z]+$/"},
		},
		{
			name: "textarea",
			node: model.Textarea("bio"),
			want: []string{"nullable", "string", "max:1000"},
		},
		{
			name: "static select",
			node: model.Select("size").StaticOptions(model.Option{Value: "s"}, model.Option{Value: "m"}),
			want: []string{"nullable", "string", "in:s,m"},
		},
		{
			name: "toggle",
			node: model.Toggle("active"),
			want: []string{"nullable", "boolean"},
		},
		{
			name: "time",
			node: model.Time("opens_at").MarkRequired(),
			want: []string{"required", "date_format:H:i"},
		},
		{
			name: "file",
			node: model.File("avatar").Set("maxSize", 100).Set("acceptedFileTypes", []string{"application/pdf", ".png"}),
			want: []string{"nullable", "file", "max:100", "mimes:pdf,png"},
		},
		{
			name: "numeric pin",
			node: model.PinInput("code", 6).MarkRequired(),
			want: []string{"required", "string", "digits:6"},
		},
		{
			name: "alphanumeric pin",
			node: model.PinInput("code", 0).Set("inputType", "alphanumeric"),
			want: []string{"nullable", "string", "size:4"},
		},
		{
			name: "half-star rating",
			node: model.Rate("score", 10).Set("allowHalf", true),
			want: []string{"nullable", "numeric", "min:0", "max:10", "multiple_of:0.5"},
		},
		{
			name: "icon picker with custom icons",
			node: model.IconPicker("icon").Set("icons", []any{"home", "star"}),
			want: []string{"nullable", "string", "in:home,star"},
		},
		{
			name: "bounded date range",
			node: model.DateRange("stay").Set("minDate", "2026-01-01"),
			want: []string{"nullable", "date_range:2026-01-01,"},
		},
		{
			name: "json rich editor",
			node: model.RichEditor("body").Set("json", true),
			want: []string{"nullable", "array"},
		},
		{
			name: "explicit required replaces nullable",
			node: model.Tags("labels").WithRules("required"),
			want: []string{"array", "required"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Derive(tc.node)); diff != "" {
				t.Fatalf("rules mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	schema := model.NewSchema("signup",
		model.Text("name").MarkRequired(),
		model.Section("Contact",
			model.Text("email").Set("type", "email"),
		),
		model.Select("country").MarkRequired().StaticOptions(
			model.Option{Value: "us", Label: "United States"},
			model.Option{Value: "ca", Label: "Canada"},
		),
		model.Text("nickname"),
	)
	state := formstate.New(map[string]any{"email": "nope", "country": "fr"})

	got := New().Validate(context.Background(), schema, state)
	want := Errors{
		"name":    {"Name is required."},
		"email":   {"Please enter a valid email address."},
		"country": {"Please select a valid Country."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if got.Empty() {
		t.Fatalf("expected errors")
	}
}

func TestValidate_CollectionPaths(t *testing.T) {
	schema := model.NewSchema("order",
		model.Repeater("items",
			model.Text("sku").MarkRequired(),
			model.Number("qty").Set("min", 1),
		),
		model.Builder("content",
			model.NewBlock("quote", "Quote", model.Text("author").MarkRequired()),
		),
	)
	state := formstate.New(map[string]any{
		"items": []any{
			map[string]any{"sku": "A-1", "qty": 0},
			map[string]any{"qty": 2},
		},
		"content": []any{
			map[string]any{"type": "quote", "data": map[string]any{}},
			map[string]any{"type": "video"},
		},
	})

	got := New().Validate(context.Background(), schema, state)
	want := Errors{
		"items.0.qty":           {"Qty must be at least 1."},
		"items.1.sku":           {"Sku is required."},
		"content.0.data.author": {"Author is required."},
		"content.1.type":        {`Unknown block type "video".`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_SkipsHiddenFields(t *testing.T) {
	schema := model.NewSchema("account",
		model.Radio("kind").StaticOptions(model.Option{Value: "personal"}, model.Option{Value: "business"}),
		model.Text("company").MarkRequired().VisibleWhen(`kind == "business"`),
		model.Text("internal").MarkRequired().MarkHidden(),
	)
	v := New(WithVisibility(visexpr.New(nil)))

	if errs := v.Validate(context.Background(), schema, formstate.New(map[string]any{"kind": "personal"})); !errs.Empty() {
		t.Fatalf("expected hidden fields to be skipped, got %v", errs)
	}
	errs := v.Validate(context.Background(), schema, formstate.New(map[string]any{"kind": "business"}))
	if diff := cmp.Diff([]string{"company"}, errs.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_DeferredOptionMembership(t *testing.T) {
	reg := functions.NewRegistry()
	reg.MustRegisterCompute("states", func(context.Context, formstate.Getter, formstate.Setter) (any, error) {
		return []string{"CA", "NY"}, nil
	})
	schema := model.NewSchema("address", model.Select("state").Computed("states"))
	v := New(WithResolver(resolver.New(resolver.WithFunctions(reg))))

	errs := v.Validate(context.Background(), schema, formstate.New(map[string]any{"state": "TX"}))
	if diff := cmp.Diff(Errors{"state": {"Please select a valid State."}}, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if errs := v.Validate(context.Background(), schema, formstate.New(map[string]any{"state": "NY"})); !errs.Empty() {
		t.Fatalf("expected valid state, got %v", errs)
	}
}

func TestValidate_MessagesAndFiles(t *testing.T) {
	schema := model.NewSchema("profile",
		model.Text("name").MarkRequired().WithMessage("required", "Tell us your name."),
		model.File("avatar").Set("maxSize", 100).Set("acceptedFileTypes", []string{"image/*"}),
		model.Text("code").WithRules("regex:/^[a-z]+$/i"),
	)
	state := formstate.New(map[string]any{
		"avatar": map[string]any{"key": "uploads/cv.pdf", "name": "cv.pdf", "size": 204800},
		"code":   "abc-1",
	})

	got := New(WithMessages(map[string]string{"regex": "{label} may only contain letters."})).
		Validate(context.Background(), schema, state)
	want := Errors{
		"name": {"Tell us your name."},
		"avatar": {
			"Avatar cannot be larger than 100 kilobytes.",
			"Avatar must be a file of type: jpg, jpeg, png, gif, svg, webp.",
		},
		"code": {"Code may only contain letters."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_PickerKinds(t *testing.T) {
	schema := model.NewSchema("booking",
		model.PinInput("pin", 4),
		model.Rate("rating", 0),
		model.Rate("score", 5).Set("allowHalf", true),
		model.IconPicker("icon"),
		model.DateRange("stay").Set("minDate", "2026-01-01").Set("maxDate", "2026-12-31"),
		model.DateRange("trip"),
		model.DateRange("visit"),
	)
	state := formstate.New(map[string]any{
		"pin":    "12a4",
		"rating": 6.0,
		"score":  4.5,
		"icon":   "rocket",
		"stay":   map[string]any{"start": "2025-12-30", "end": "2026-01-04"},
		"trip":   []any{"2026-03-10", "2026-03-01"},
		"visit":  map[string]any{"start": "2026-05-01", "end": "2026-05-03"},
	})

	got := New().Validate(context.Background(), schema, state)
	want := Errors{
		"pin":    {"Pin must be 4 digits."},
		"rating": {"Rating cannot be greater than 5."},
		"icon":   {"Please select a valid Icon."},
		"stay":   {"Stay must be a valid date range."},
		"trip":   {"Trip must be a valid date range."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestHumanize(t *testing.T) {
	for in, want := range map[string]string{
		"billing_country": "Billing country",
		"billingCountry":  "Billing country",
		"url":             "Url",
		"":                "",
	} {
		if got := Humanize(in); got != want {
			t.Fatalf("Humanize(%q) = %q, want %q", in, got, want)
		}
	}
}
