package reactive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
)

var (
	ErrFieldNotFound = errors.New("reactive: field not found")
	ErrNoOptions     = errors.New("reactive: field has no option source")
)

// SearchRequest asks for the options of one field matching a term.
type SearchRequest struct {
	SchemaID  string          `json:"schemaId"`
	Field     string          `json:"field"`
	Search    string          `json:"search"`
	Limit     int             `json:"limit,omitempty"`
	FormState json.RawMessage `json:"formState,omitempty"`
}

// SearchResponse is one page of matching options.
type SearchResponse struct {
	Data    []model.Option `json:"data"`
	HasMore bool           `json:"hasMore"`
}

// Search rebuilds the schema against the posted state and searches the
// options of the addressed field. A limit of zero uses the field's window.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	ctx, span := e.tracer.Start(ctx, "formkit.search_request", trace.WithAttributes(
		attribute.String("formkit.schema", req.SchemaID),
		attribute.String("formkit.field", req.Field),
	))
	defer span.End()

	resp, err := e.search(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("formkit.options", len(resp.Data)))
	return resp, nil
}

func (e *Engine) search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	state := formstate.Decode(req.FormState)
	schema, err := e.registry.Build(ctx, req.SchemaID, state)
	if err != nil {
		return nil, err
	}
	field := strings.TrimSpace(req.Field)
	node, ok := FindPath(schema, field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, field)
	}
	if node.Options == nil {
		return nil, &model.ConfigurationError{Schema: schema.ID, Path: field, Err: ErrNoOptions}
	}
	result := e.serializer.Resolver().Search(ctx, node, state, req.Search, req.Limit)
	options := result.Options
	if options == nil {
		options = []model.Option{}
	}
	return &SearchResponse{Data: options, HasMore: result.HasMore}, nil
}
