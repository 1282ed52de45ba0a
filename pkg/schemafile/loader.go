// Package schemafile loads form schemas declared in JSON or YAML documents.
//
// A document holds one schema:
//
//	id: shipping
//	fields:
//	  - name: country
//	    kind: select
//	    live: {}
//	    afterStateUpdated: resetState
//	    options:
//	      map: {us: United States, ca: Canada}
//	  - name: state
//	    kind: select
//	    options:
//	      computed: {function: states, dependsOn: [country]}
//
// Functions referenced by name must be registered with the function registry
// used by the engine.
package schemafile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/registry"
)

var ErrConflictingOptions = errors.New("schemafile: field declares more than one option source")

// Store keeps the schemas parsed from a directory of documents. It is safe for
// concurrent readers when treated as immutable after construction.
type Store struct {
	schemas map[string]*model.Schema
	sources map[string]string
}

// LoadFS walks fsys and parses every JSON/YAML document. A nil fsys yields an
// empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{schemas: make(map[string]*model.Schema), sources: make(map[string]string)}
	if fsys == nil {
		return store, nil
	}
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schemafile: read %s: %w", path, err)
		}
		schema, err := Parse(data, path)
		if err != nil {
			return err
		}
		if prev, exists := store.sources[schema.ID]; exists {
			return fmt.Errorf("schemafile: duplicate schema %q (files %s and %s)", schema.ID, prev, path)
		}
		store.schemas[schema.ID] = schema
		store.sources[schema.ID] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Parse decodes one document and validates the resulting schema. The schema
// id defaults to the file name without extension.
func Parse(data []byte, source string) (*model.Schema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("schemafile: file %s is empty", source)
	}
	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return nil, fmt.Errorf("schemafile: parse %s: invalid JSON or YAML: %w", source, yerr)
		}
	}
	id := strings.TrimSpace(doc.ID)
	if id == "" {
		base := filepath.Base(source)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}
	nodes, err := buildNodes(doc.Fields, "")
	if err != nil {
		return nil, &model.ConfigurationError{Schema: id, Err: fmt.Errorf("%s: %w", source, err)}
	}
	schema := model.NewSchema(id, nodes...)
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

// Schema returns a copy of the schema with the supplied id.
func (s *Store) Schema(id string) (*model.Schema, bool) {
	if s == nil {
		return nil, false
	}
	schema, ok := s.schemas[id]
	if !ok {
		return nil, false
	}
	return schema.Clone(), true
}

// IDs lists the loaded schema ids in sorted order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.schemas))
	for id := range s.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Register adds every loaded schema to reg.
func (s *Store) Register(reg *registry.Registry) error {
	for _, id := range s.IDs() {
		if err := reg.RegisterSchema(s.schemas[id]); err != nil {
			return fmt.Errorf("schemafile: register %q from %s: %w", id, s.sources[id], err)
		}
	}
	return nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
