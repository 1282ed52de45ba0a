package entities

import (
	"context"
	"errors"
	"strings"
)

// ErrUnknownEntity is returned by stores that do not know the requested
// entity.
var ErrUnknownEntity = errors.New("entities: unknown entity")

// Record is one row keyed by column name.
type Record map[string]any

// Store executes queries against related entities.
type Store interface {
	Find(ctx context.Context, q *Query) ([]Record, error)
}

// StoreFunc adapts a function into a Store.
type StoreFunc func(ctx context.Context, q *Query) ([]Record, error)

// Find calls the underlying function.
func (fn StoreFunc) Find(ctx context.Context, q *Query) ([]Record, error) {
	return fn(ctx, q)
}

// Operator names a filter comparison.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpIn    Operator = "in"
	OpNotIn Operator = "not_in"
	OpLike  Operator = "like"
	OpNull  Operator = "null"
)

// Filter is a single where clause.
type Filter struct {
	Column   string
	Operator Operator
	Value    any
}

// Order sorts results by a column.
type Order struct {
	Column string
	Desc   bool
}

// Query describes an entity lookup. Search matches case-insensitively against
// SearchColumns. A zero Limit means unbounded.
type Query struct {
	Entity        string
	Columns       []string
	Filters       []Filter
	Orders        []Order
	Search        string
	SearchColumns []string
	Limit         int
	Offset        int
}

// NewQuery starts a query over entity.
func NewQuery(entity string) *Query {
	return &Query{Entity: entity}
}

// Where adds a filter.
func (q *Query) Where(column string, op Operator, value any) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Operator: op, Value: value})
	return q
}

// WhereEq adds an equality filter.
func (q *Query) WhereEq(column string, value any) *Query {
	return q.Where(column, OpEq, value)
}

// WhereIn restricts column to the supplied values.
func (q *Query) WhereIn(column string, values ...any) *Query {
	return q.Where(column, OpIn, values)
}

// OrderBy appends a sort column. A leading "-" sorts descending.
func (q *Query) OrderBy(column string) *Query {
	desc := strings.HasPrefix(column, "-")
	q.Orders = append(q.Orders, Order{Column: strings.TrimPrefix(column, "-"), Desc: desc})
	return q
}

// WithSearch sets a search term over the supplied columns.
func (q *Query) WithSearch(term string, columns ...string) *Query {
	q.Search = term
	q.SearchColumns = columns
	return q
}

// WithLimit bounds the result size.
func (q *Query) WithLimit(limit int) *Query {
	q.Limit = limit
	return q
}

// Clone copies the query so modifiers may alter it freely.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	out := *q
	out.Columns = append([]string(nil), q.Columns...)
	out.Filters = append([]Filter(nil), q.Filters...)
	out.Orders = append([]Order(nil), q.Orders...)
	out.SearchColumns = append([]string(nil), q.SearchColumns...)
	return &out
}
