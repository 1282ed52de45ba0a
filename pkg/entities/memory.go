package entities

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Memory is an in-process Store used by tests, fixtures and schema files that
// declare their entities inline.
type Memory struct {
	mu       sync.RWMutex
	entities map[string][]Record
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithEntity seeds an entity with records.
func WithEntity(name string, records ...Record) MemoryOption {
	return func(m *Memory) {
		m.entities[name] = append(m.entities[name], records...)
	}
}

// NewMemory constructs a memory store.
func NewMemory(options ...MemoryOption) *Memory {
	m := &Memory{entities: make(map[string][]Record)}
	for _, opt := range options {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Put replaces the records of an entity.
func (m *Memory) Put(name string, records ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[name] = append([]Record(nil), records...)
}

// Find implements Store.
func (m *Memory) Find(ctx context.Context, q *Query) ([]Record, error) {
	if q == nil {
		return nil, fmt.Errorf("entities: query is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	source, ok := m.entities[q.Entity]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownEntity, q.Entity)
	}

	matched := make([]Record, 0, len(source))
	for _, record := range source {
		if matches(record, q) {
			matched = append(matched, project(record, q.Columns))
		}
	}
	if len(q.Orders) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, order := range q.Orders {
				c := compare(matched[i][order.Column], matched[j][order.Column])
				if c == 0 {
					continue
				}
				if order.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []Record{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func matches(record Record, q *Query) bool {
	for _, filter := range q.Filters {
		if !filterMatches(record[filter.Column], filter) {
			return false
		}
	}
	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" {
		return true
	}
	for _, column := range q.SearchColumns {
		if strings.Contains(strings.ToLower(text(record[column])), term) {
			return true
		}
	}
	return false
}

func filterMatches(value any, filter Filter) bool {
	switch filter.Operator {
	case OpEq, "":
		return compare(value, filter.Value) == 0
	case OpNeq:
		return compare(value, filter.Value) != 0
	case OpGt:
		return compare(value, filter.Value) > 0
	case OpGte:
		return compare(value, filter.Value) >= 0
	case OpLt:
		return compare(value, filter.Value) < 0
	case OpLte:
		return compare(value, filter.Value) <= 0
	case OpIn:
		return contains(filter.Value, value)
	case OpNotIn:
		return !contains(filter.Value, value)
	case OpLike:
		pattern := strings.ToLower(strings.Trim(text(filter.Value), "%"))
		return strings.Contains(strings.ToLower(text(value)), pattern)
	case OpNull:
		return value == nil
	default:
		return false
	}
}

func contains(list any, value any) bool {
	switch items := list.(type) {
	case []any:
		for _, item := range items {
			if compare(item, value) == 0 {
				return true
			}
		}
	case []string:
		for _, item := range items {
			if compare(item, value) == 0 {
				return true
			}
		}
	}
	return false
}

func project(record Record, columns []string) Record {
	if len(columns) == 0 {
		out := make(Record, len(record))
		for k, v := range record {
			out[k] = v
		}
		return out
	}
	out := make(Record, len(columns))
	for _, column := range columns {
		out[column] = record[column]
	}
	return out
}

// compare orders numbers numerically and everything else by its text form.
func compare(a, b any) int {
	af, aok := number(a)
	bf, bok := number(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(text(a), text(b))
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
