package functions

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/formstate"
)

func TestRegisterCompute_DuplicateAndEmptyNames(t *testing.T) {
	reg := NewRegistry()
	fn := func(context.Context, formstate.Getter, formstate.Setter) (any, error) { return nil, nil }

	if err := reg.RegisterCompute("states", fn, "country"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCompute("states", fn); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := reg.RegisterCompute(" ", fn); err == nil {
		t.Fatalf("expected empty name error")
	}
	if err := reg.RegisterCompute("nil", nil); err == nil {
		t.Fatalf("expected nil function error")
	}

	entry, ok := reg.Compute("states")
	if !ok {
		t.Fatalf("expected compute to be registered")
	}
	if diff := cmp.Diff([]string{"country"}, entry.DependsOn); diff != "" {
		t.Fatalf("depends mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_KindsAreIndependent(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegisterCompute("shared", func(context.Context, formstate.Getter, formstate.Setter) (any, error) { return nil, nil })
	reg.MustRegisterHook("shared", func(context.Context, formstate.Getter, formstate.Setter) error { return nil })

	want := map[string][]string{
		"compute":  {"shared"},
		"hook":     {"shared"},
		"modifier": {},
		"label":    {},
		"disabler": {},
	}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if _, ok := reg.Modifier("shared"); ok {
		t.Fatalf("modifier should not be registered")
	}
}

func TestNilRegistryLookups(t *testing.T) {
	var reg *Registry
	if _, ok := reg.Compute("x"); ok {
		t.Fatalf("nil registry should not resolve")
	}
}
