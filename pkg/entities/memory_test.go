package entities

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fixtureStore() *Memory {
	return NewMemory(WithEntity("states",
		Record{"id": 3, "name": "Texas", "country": "us"},
		Record{"id": 1, "name": "California", "country": "us"},
		Record{"id": 2, "name": "Ontario", "country": "ca"},
		Record{"id": 4, "name": "Colorado", "country": "us"},
	))
}

func names(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r["name"].(string)
	}
	return out
}

func TestMemoryFind_FiltersOrdersAndLimits(t *testing.T) {
	got, err := fixtureStore().Find(context.Background(),
		NewQuery("states").WhereEq("country", "us").OrderBy("name").WithLimit(2))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if diff := cmp.Diff([]string{"California", "Colorado"}, names(got)); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryFind_WhereInMatchesStringifiedIDs(t *testing.T) {
	got, err := fixtureStore().Find(context.Background(),
		NewQuery("states").WhereIn("id", "2", "4").OrderBy("-id"))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if diff := cmp.Diff([]string{"Colorado", "Ontario"}, names(got)); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryFind_SearchIsCaseInsensitive(t *testing.T) {
	got, err := fixtureStore().Find(context.Background(),
		NewQuery("states").WithSearch("CO", "name").OrderBy("name"))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if diff := cmp.Diff([]string{"Colorado"}, names(got)); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryFind_UnknownEntity(t *testing.T) {
	_, err := fixtureStore().Find(context.Background(), NewQuery("cities"))
	if !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
}

func TestMemoryFind_RecordsAreCopies(t *testing.T) {
	store := fixtureStore()
	got, _ := store.Find(context.Background(), NewQuery("states").WhereEq("id", 1))
	got[0]["name"] = "mutated"

	again, _ := store.Find(context.Background(), NewQuery("states").WhereEq("id", 1))
	if again[0]["name"] != "California" {
		t.Fatalf("store records were mutated through results")
	}
}
