// Package openapi builds form schemas from the request bodies of OpenAPI 3
// operations.
//
// Properties map to field kinds by type and format. The "x-formkit" extension
// on a property overrides what inference picks (kind, label, option source,
// reactivity, visibility, props) and "x-formkit-order" on an object lists its
// property order; otherwise properties are sorted by name.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formkit/pkg/model"
)

var (
	ErrOperationNotFound = errors.New("openapi: operation not found")
	ErrNoRequestBody     = errors.New("openapi: operation has no request body schema")
)

var mediaTypes = []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"}

// Document is a loaded OpenAPI document indexed by operation id.
type Document struct {
	spec       *openapi3.T
	operations map[string]*openapi3.Operation
}

// Load parses an OpenAPI document from JSON or YAML and validates it.
func Load(ctx context.Context, data []byte) (*Document, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	return newDocument(ctx, spec)
}

// LoadFile reads and parses a document from disk.
func LoadFile(ctx context.Context, path string) (*Document, error) {
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: true}
	spec, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi: load %s: %w", path, err)
	}
	return newDocument(ctx, spec)
}

func newDocument(ctx context.Context, spec *openapi3.T) (*Document, error) {
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	doc := &Document{spec: spec, operations: make(map[string]*openapi3.Operation)}
	if spec.Paths == nil {
		return doc, nil
	}
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			doc.operations[id] = op
		}
	}
	return doc, nil
}

// Operations lists the operation ids in sorted order.
func (d *Document) Operations() []string {
	ids := make([]string, 0, len(d.operations))
	for id := range d.operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Schema converts the request body of the operation into a form schema whose
// id is the operation id.
func (d *Document) Schema(operationID string) (*model.Schema, error) {
	op, ok := d.operations[operationID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}
	body := requestSchema(op.RequestBody)
	if body == nil || body.Value == nil {
		return nil, &model.ConfigurationError{Schema: operationID, Err: ErrNoRequestBody}
	}
	nodes, err := objectNodes(body.Value)
	if err != nil {
		return nil, &model.ConfigurationError{Schema: operationID, Err: err}
	}
	schema := model.NewSchema(operationID, nodes...)
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.SchemaRef {
	if body == nil || body.Value == nil {
		return nil
	}
	for _, mediaType := range mediaTypes {
		if mt, ok := body.Value.Content[mediaType]; ok && mt != nil {
			return mt.Schema
		}
	}
	for _, mt := range body.Value.Content {
		if mt != nil {
			return mt.Schema
		}
	}
	return nil
}
