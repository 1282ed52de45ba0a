// Package pgstore implements entities.Store on PostgreSQL through pgx.
package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goliatone/go-formkit/pkg/entities"
)

// Querier is implemented by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store maps entity names onto tables. Entities without an explicit mapping
// are rejected with entities.ErrUnknownEntity.
type Store struct {
	db     Querier
	tables map[string]string
}

// Option configures a Store.
type Option func(*Store)

// WithTable maps an entity name onto a table, optionally schema qualified
// ("public.countries").
func WithTable(entity, table string) Option {
	return func(s *Store) {
		s.tables[entity] = table
	}
}

// New wraps a pool or transaction.
func New(db Querier, options ...Option) *Store {
	s := &Store{db: db, tables: make(map[string]string)}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	return pool, nil
}

// Find implements entities.Store.
func (s *Store) Find(ctx context.Context, q *entities.Query) ([]entities.Record, error) {
	stmt, args, err := s.Build(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: query %s: %w", q.Entity, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	records := make([]entities.Record, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("pgstore: scan values: %w", err)
		}
		record := make(entities.Record, len(fields))
		for i, fd := range fields {
			record[fd.Name] = normalize(values[i])
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: rows: %w", err)
	}
	return records, nil
}

// Build renders the parameterized SELECT for q.
func (s *Store) Build(q *entities.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("pgstore: query is required")
	}
	table, ok := s.tables[q.Entity]
	if !ok {
		return "", nil, fmt.Errorf("%w %q", entities.ErrUnknownEntity, q.Entity)
	}

	params := &paramBuilder{}
	columns := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, len(q.Columns))
		for i, column := range q.Columns {
			quoted[i] = ident(column)
		}
		columns = strings.Join(quoted, ", ")
	}

	var where []string
	for _, filter := range q.Filters {
		clause, err := whereClause(filter, params)
		if err != nil {
			return "", nil, err
		}
		where = append(where, clause)
	}
	if term := strings.TrimSpace(q.Search); term != "" && len(q.SearchColumns) > 0 {
		placeholder := params.Add("%" + escapeLike(term) + "%")
		ors := make([]string, len(q.SearchColumns))
		for i, column := range q.SearchColumns {
			ors[i] = fmt.Sprintf("%s::text ILIKE %s", ident(column), placeholder)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", columns, pgx.Identifier(strings.Split(table, ".")).Sanitize())
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if len(q.Orders) > 0 {
		parts := make([]string, len(q.Orders))
		for i, order := range q.Orders {
			dir := "ASC"
			if order.Desc {
				dir = "DESC"
			}
			parts[i] = ident(order.Column) + " " + dir
		}
		b.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %s", params.Add(q.Limit))
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %s", params.Add(q.Offset))
	}
	return b.String(), params.params, nil
}

type paramBuilder struct {
	params []any
}

func (p *paramBuilder) Add(v any) string {
	p.params = append(p.params, v)
	return fmt.Sprintf("$%d", len(p.params))
}

func whereClause(f entities.Filter, params *paramBuilder) (string, error) {
	column := ident(f.Column)
	switch f.Operator {
	case entities.OpEq, "":
		return fmt.Sprintf("%s = %s", column, params.Add(f.Value)), nil
	case entities.OpNeq:
		return fmt.Sprintf("%s != %s", column, params.Add(f.Value)), nil
	case entities.OpGt:
		return fmt.Sprintf("%s > %s", column, params.Add(f.Value)), nil
	case entities.OpGte:
		return fmt.Sprintf("%s >= %s", column, params.Add(f.Value)), nil
	case entities.OpLt:
		return fmt.Sprintf("%s < %s", column, params.Add(f.Value)), nil
	case entities.OpLte:
		return fmt.Sprintf("%s <= %s", column, params.Add(f.Value)), nil
	case entities.OpIn:
		return fmt.Sprintf("%s::text = ANY(%s)", column, params.Add(textList(f.Value))), nil
	case entities.OpNotIn:
		return fmt.Sprintf("%s::text != ALL(%s)", column, params.Add(textList(f.Value))), nil
	case entities.OpLike:
		return fmt.Sprintf("%s ILIKE %s", column, params.Add(f.Value)), nil
	case entities.OpNull:
		return fmt.Sprintf("%s IS NULL", column), nil
	default:
		return "", fmt.Errorf("pgstore: unsupported operator %q", f.Operator)
	}
}

// textList casts list values to text so ids of any column type can be matched
// against submitted form values, which always arrive as strings.
func textList(value any) []string {
	switch items := value.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = fmt.Sprint(item)
		}
		return out
	default:
		return []string{fmt.Sprint(value)}
	}
}

func ident(column string) string {
	return pgx.Identifier{column}.Sanitize()
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(term)
}

// normalize converts pgx-specific values to JSON friendly Go types.
func normalize(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", val[0:4], val[4:6], val[6:8], val[8:10], val[10:16])
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err == nil && f.Valid {
			return f.Float64
		}
		return nil
	default:
		return v
	}
}
