package resolver

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formkit/pkg/entities"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
)

// relationship queries limit+1 rows to detect HasMore, then fetches selected
// records that fell outside the window with a second "in" query.
func (r *Resolver) relationship(ctx context.Context, node *model.Node, src model.RelationshipSource, binding *formstate.Binding, req request) (Result, error) {
	if r.store == nil {
		return Result{}, ErrNoStore
	}
	if src.Entity == "" {
		return Result{}, fmt.Errorf("resolver: relationship on %q has no entity", node.Name)
	}

	base := entities.NewQuery(src.Entity)
	if src.Modifier != "" {
		modifier, ok := r.functions.Modifier(src.Modifier)
		if !ok {
			return Result{}, fmt.Errorf("%w %q", ErrUnknownFunction, src.Modifier)
		}
		if err := modifier.Fn(ctx, base, binding.Get); err != nil {
			return Result{}, fmt.Errorf("resolver: modifier %q: %w", src.Modifier, err)
		}
	}
	// The window must be stable across requests for HasMore to mean anything.
	if len(base.Orders) == 0 {
		base.OrderBy(src.Key())
	}

	toOption, err := r.recordMapper(src)
	if err != nil {
		return Result{}, err
	}

	query := base.Clone()
	if req.searching {
		query.WithSearch(req.search, searchColumns(node, src)...)
	}
	if req.limit > 0 {
		query.WithLimit(req.limit + 1)
	}
	records, err := r.store.Find(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("resolver: query %s: %w", src.Entity, err)
	}

	hasMore := req.limit > 0 && len(records) > req.limit
	if hasMore {
		records = records[:req.limit]
	}
	options := make([]model.Option, 0, len(records))
	present := make(map[string]struct{}, len(records))
	for _, record := range records {
		opt := toOption(record)
		present[opt.Value] = struct{}{}
		options = append(options, opt)
	}
	if req.searching || req.detached {
		return Result{Options: options, HasMore: hasMore}, nil
	}

	var missing []any
	for _, value := range Selected(node, binding.Get) {
		if _, ok := present[value]; !ok {
			missing = append(missing, value)
		}
	}
	if len(missing) > 0 {
		extra := base.Clone()
		extra.Limit, extra.Offset = 0, 0
		extra.WhereIn(src.Key(), missing...)
		more, err := r.store.Find(ctx, extra)
		if err != nil {
			return Result{}, fmt.Errorf("resolver: query selected %s: %w", src.Entity, err)
		}
		for _, record := range more {
			opt := toOption(record)
			if _, ok := present[opt.Value]; ok {
				continue
			}
			present[opt.Value] = struct{}{}
			options = append(options, opt)
		}
	}
	return Result{Options: options, HasMore: hasMore}, nil
}

func (r *Resolver) recordMapper(src model.RelationshipSource) (func(entities.Record) model.Option, error) {
	key, title := src.Key(), src.Title()
	if src.LabelFunc != "" {
		label, ok := r.functions.Label(src.LabelFunc)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownFunction, src.LabelFunc)
		}
		return func(record entities.Record) model.Option {
			return model.Option{Value: model.Stringify(record[key]), Label: label(record)}
		}, nil
	}
	return func(record entities.Record) model.Option {
		return model.Option{Value: model.Stringify(record[key]), Label: model.Stringify(record[title])}
	}, nil
}

func searchColumns(node *model.Node, src model.RelationshipSource) []string {
	value, ok := node.Prop("searchableColumns")
	if ok {
		switch columns := value.(type) {
		case []string:
			if len(columns) > 0 {
				return columns
			}
		case []any:
			out := make([]string, 0, len(columns))
			for _, column := range columns {
				if s, ok := column.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return []string{src.Title()}
}
