package timezones

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/functions"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/resolver"
)

func TestLoadZones_DedupesSortsAndIgnoresComments(t *testing.T) {
	input := strings.NewReader(`
# Comment
America/New_York
Europe/Paris
America/New_York

UTC
`)

	zones, err := LoadZones(input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []string{"America/New_York", "Europe/Paris", "UTC"}
	if diff := cmp.Diff(want, zones); diff != "" {
		t.Fatalf("zones mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultZones_ContainsCommonEntries(t *testing.T) {
	zones := DefaultZones()
	if !slices.IsSorted(zones) {
		t.Fatalf("expected sorted zones")
	}
	for _, expected := range []string{"America/New_York", "Europe/Paris", "UTC"} {
		if !slices.Contains(zones, expected) {
			t.Fatalf("expected zone %q to be present", expected)
		}
	}
}

func TestRegister_ResolvesThroughComputedSource(t *testing.T) {
	reg := functions.NewRegistry()
	if err := Register(reg, []string{"America/New_York", "Europe/Paris", "UTC"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	r := resolver.New(resolver.WithFunctions(reg))
	node := model.Select("timezone").Computed(FunctionName)

	got := r.Search(context.Background(), node, formstate.New(nil), "new", 10)
	want := []model.Option{{Value: "America/New_York", Label: "America/New York"}}
	if diff := cmp.Diff(want, got.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}
