package pgstore

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/entities"
)

func TestBuild_SelectWithFiltersSearchAndLimit(t *testing.T) {
	store := New(nil, WithTable("states", "geo.states"))
	q := entities.NewQuery("states").
		WhereEq("country_code", "us").
		WithSearch("cal", "name", "code").
		OrderBy("name").
		WithLimit(51)

	stmt, args, err := store.Build(q)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := `SELECT * FROM "geo"."states" WHERE "country_code" = $1 AND ("name"::text ILIKE $2 OR "code"::text ILIKE $2) ORDER BY "name" ASC LIMIT $3`
	if stmt != want {
		t.Fatalf("unexpected sql:\n got %s\nwant %s", stmt, want)
	}
	if diff := cmp.Diff([]any{"us", "%cal%", 51}, args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_WhereInCastsToText(t *testing.T) {
	store := New(nil, WithTable("users", "users"))
	stmt, args, err := store.Build(entities.NewQuery("users").WhereIn("id", 1, "2"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if stmt != `SELECT * FROM "users" WHERE "id"::text = ANY($1)` {
		t.Fatalf("unexpected sql: %s", stmt)
	}
	if diff := cmp.Diff([]any{[]string{"1", "2"}}, args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_UnknownEntity(t *testing.T) {
	_, _, err := New(nil).Build(entities.NewQuery("ghosts"))
	if !errors.Is(err, entities.ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
}

func TestBuild_EscapesSearchWildcards(t *testing.T) {
	store := New(nil, WithTable("tags", "tags"))
	_, args, err := store.Build(entities.NewQuery("tags").WithSearch("50%_off", "name"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if args[0] != `%50\%\_off%` {
		t.Fatalf("unexpected search arg %q", args[0])
	}
}
