package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const contactSchema = `
id: contact
fields:
  - name: email
    label: Email
    rules: [required, email]
  - name: kind
    kind: select
    options:
      static:
        - {value: person, label: Person}
        - {value: company, label: Company}
  - name: company
    visibleWhen: kind == "company"
`

func writeFixtures(t *testing.T) (schemas, config string) {
	t.Helper()
	dir := t.TempDir()
	schemas = filepath.Join(dir, "forms")
	if err := os.MkdirAll(schemas, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(schemas, "contact.yaml"), []byte(contactSchema), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	config = filepath.Join(dir, "formkit.yaml")
	if err := os.WriteFile(config, []byte("log:\n  level: error\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return schemas, config
}

func writeState(t *testing.T, values map[string]any) string {
	t.Helper()
	data, err := json.Marshal(values)
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}
	return path
}

func TestRender_WritesSerializedFields(t *testing.T) {
	schemas, config := writeFixtures(t)
	state := writeState(t, map[string]any{"kind": "company"})

	var out bytes.Buffer
	err := runRender(context.Background(), []string{"-config", config, "-schemas", schemas, "-schema", "contact", "-state", state}, &out)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var fields []map[string]any
	if err := json.Unmarshal(out.Bytes(), &fields); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	var names []string
	for _, field := range fields {
		if hidden, _ := field["hidden"].(bool); !hidden {
			names = append(names, field["name"].(string))
		}
	}
	if diff := cmp.Diff([]string{"email", "kind", "company"}, names); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_ReportsFailures(t *testing.T) {
	schemas, config := writeFixtures(t)

	var out bytes.Buffer
	bad := writeState(t, map[string]any{"kind": "robot"})
	err := runValidate(context.Background(), []string{"-config", config, "-schemas", schemas, "-schema", "contact", "-state", bad}, &out)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected errInvalid, got %v", err)
	}
	var report map[string][]string
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if _, ok := report["email"]; !ok {
		t.Fatalf("expected email failure, got %v", report)
	}
	if _, ok := report["kind"]; !ok {
		t.Fatalf("expected kind failure, got %v", report)
	}

	out.Reset()
	good := writeState(t, map[string]any{"email": "a@b.co", "kind": "person"})
	if err := runValidate(context.Background(), []string{"-config", config, "-schemas", schemas, "-schema", "contact", "-state", good}, &out); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if strings.TrimSpace(out.String()) != "ok" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestSchemas_ListsIDs(t *testing.T) {
	schemas, config := writeFixtures(t)
	var out bytes.Buffer
	if err := runSchemas(context.Background(), []string{"-config", config, "-schemas", schemas}, &out); err != nil {
		t.Fatalf("schemas: %v", err)
	}
	ids := strings.Fields(out.String())
	if !cmp.Equal([]string{"contact"}, ids) {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestRender_RequiresSchema(t *testing.T) {
	if err := runRender(context.Background(), nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected missing schema error")
	}
}
