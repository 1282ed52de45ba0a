package expression

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/formstate"
)

func TestDependencies_DistinctSortedLiterals(t *testing.T) {
	got, err := Dependencies(`get("b") == "x" && get("a") != nil && get("b") != "y"`)
	if err != nil {
		t.Fatalf("dependencies: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Fatalf("deps mismatch (-want +got):\n%s", diff)
	}
}

func TestDependencies_IgnoresComputedArguments(t *testing.T) {
	got, err := Dependencies(`get("prefix" + "x") != get("country")`)
	if err != nil {
		t.Fatalf("dependencies: %v", err)
	}
	if diff := cmp.Diff([]string{"country"}, got); diff != "" {
		t.Fatalf("deps mismatch (-want +got):\n%s", diff)
	}
}

func TestDependencies_ParseError(t *testing.T) {
	if _, err := Dependencies(`get("a"`); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEval_ReadsAndWritesState(t *testing.T) {
	engine := New()
	state := formstate.New(map[string]any{"country": "us"})
	binding := state.Bind()

	result, err := engine.Eval(`get("country") == "us" ? {"ca": "California"} : {}`, Env{Get: binding.Get, Set: binding.Set})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"ca": "California"}, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	if _, err := engine.Eval(`set("touched", true)`, Env{Get: binding.Get, Set: binding.Set}); err != nil {
		t.Fatalf("eval set: %v", err)
	}
	if state.Get("touched") != true {
		t.Fatalf("expected set to write state")
	}
}

func TestEval_CachesPrograms(t *testing.T) {
	engine := New(WithCacheSize(2))
	for i := 0; i < 3; i++ {
		if _, err := engine.Eval(`1 + 1`, Env{}); err != nil {
			t.Fatalf("eval: %v", err)
		}
	}
	if engine.Len() != 1 {
		t.Fatalf("expected one cached program, got %d", engine.Len())
	}
	_, _ = engine.Eval(`2 + 2`, Env{})
	_, _ = engine.Eval(`3 + 3`, Env{})
	if engine.Len() != 2 {
		t.Fatalf("expected cache bounded to 2, got %d", engine.Len())
	}
}

func TestEvalBool_ValuesFallback(t *testing.T) {
	engine := New()
	ok, err := engine.EvalBool(`get("address.country") == "us" && extras.role == "admin"`, Env{
		Values: map[string]any{"address": map[string]any{"country": "us"}},
		Extras: map[string]any{"role": "admin"},
	})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !ok {
		t.Fatalf("expected true")
	}
	if _, err := engine.EvalBool(`"text"`, Env{}); err == nil {
		t.Fatalf("expected non-bool error")
	}
}

func TestReferences_IdentifiersAndGetLiterals(t *testing.T) {
	got, err := References(`country == "us" && len(tags) > 0 && get("plan") != nil && address.zip != "" && extras.role == "admin"`)
	if err != nil {
		t.Fatalf("references: %v", err)
	}
	if diff := cmp.Diff([]string{"address", "country", "plan", "tags"}, got); diff != "" {
		t.Fatalf("references mismatch (-want +got):\n%s", diff)
	}
}

func TestEval_BareIdentifiersFromValues(t *testing.T) {
	ok, err := New().EvalBool(`country == "us" && missing == nil`, Env{Values: map[string]any{"country": "us"}})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !ok {
		t.Fatalf("expected bare identifier lookup to succeed")
	}
}

func TestEval_FieldsShadowBuiltins(t *testing.T) {
	engine := New()
	values := map[string]any{"count": 5.0, "len": 2.0, "tags": []any{"a"}}

	ok, err := engine.EvalBool(`count > 2 && len == 2`, Env{Values: values})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !ok {
		t.Fatalf("expected field values to win over built-ins")
	}

	// Without the fields the built-ins stay callable, from a separate cache entry.
	ok, err = engine.EvalBool(`len(tags) == 1 && count(tags, # == "a") == 1`, Env{Values: map[string]any{"tags": []any{"a"}}})
	if err != nil {
		t.Fatalf("eval builtins: %v", err)
	}
	if !ok {
		t.Fatalf("expected built-ins to evaluate")
	}

	if _, err := engine.EvalBool(`count > 2`, Env{Values: map[string]any{"count": 1.0}}); err != nil {
		t.Fatalf("cached shadowed program: %v", err)
	}
	if engine.Len() != 2 {
		t.Fatalf("expected two cached programs, got %d", engine.Len())
	}
}
