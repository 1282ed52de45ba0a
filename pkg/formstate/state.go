package formstate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Getter reads a dotted path from form state. Missing paths yield nil.
type Getter func(path string) any

// Setter writes a dotted path into form state.
type Setter func(path string, value any)

// State holds submitted form values keyed by dotted paths. Writes are tracked
// so they can be echoed back to the client. State is safe for concurrent use.
type State struct {
	mu      sync.RWMutex
	values  map[string]any
	changed map[string]struct{}
}

// New seeds a state with a deep copy of values.
func New(values map[string]any) *State {
	return &State{
		values:  cloneMap(values),
		changed: make(map[string]struct{}),
	}
}

// Decode parses a JSON object into state. Anything other than a JSON object,
// including malformed input, yields an empty state.
func Decode(raw []byte) *State {
	var values map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &values) != nil || values == nil {
		return New(nil)
	}
	return &State{values: values, changed: make(map[string]struct{})}
}

// FromAny accepts an already decoded payload. Non-map inputs yield an empty
// state.
func FromAny(value any) *State {
	switch typed := value.(type) {
	case map[string]any:
		return New(typed)
	case *State:
		if typed == nil {
			return New(nil)
		}
		return New(typed.Snapshot())
	case json.RawMessage:
		return Decode(typed)
	case []byte:
		return Decode(typed)
	default:
		return New(nil)
	}
}

// Get returns the value at path or nil.
func (s *State) Get(path string) any {
	value, _ := s.Lookup(path)
	return value
}

// Lookup returns a copy of the value at path and whether it exists.
func (s *State) Lookup(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := getPath(s.values, path)
	if !ok {
		return nil, false
	}
	return deepCopy(value), true
}

// Set writes value at path, creating intermediate maps as needed, and records
// the path as changed.
func (s *State) Set(path string, value any) error {
	if s == nil {
		return fmt.Errorf("formstate: state is nil")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("formstate: path is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	if err := setPath(s.values, strings.Split(path, "."), value); err != nil {
		return err
	}
	s.changed[path] = struct{}{}
	return nil
}

// Changed returns the sorted paths written since the state was created.
func (s *State) Changed() []string {
	if s == nil {
		return []string{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.changed))
	for path := range s.changed {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a deep copy of the current values.
func (s *State) Snapshot() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMap(s.values)
}

// Len reports the number of top-level keys.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// MarshalJSON encodes the current values.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// Binding hands get/set access to a computation. Once closed, reads keep
// working but writes are discarded, so a computation that outlived its
// deadline cannot change state that has already been serialized.
type Binding struct {
	state  *State
	closed atomic.Bool
	writes atomic.Int64
}

// Bind returns a binding over the state.
func (s *State) Bind() *Binding {
	return &Binding{state: s}
}

// Get reads from the bound state.
func (b *Binding) Get(path string) any {
	return b.state.Get(path)
}

// Set writes into the bound state unless the binding is closed.
func (b *Binding) Set(path string, value any) {
	if b.closed.Load() {
		return
	}
	if err := b.state.Set(path, value); err == nil {
		b.writes.Add(1)
	}
}

// Close discards subsequent writes.
func (b *Binding) Close() {
	b.closed.Store(true)
}

// Writes reports the number of accepted writes.
func (b *Binding) Writes() int {
	return int(b.writes.Load())
}

// Getter returns Get as a function value.
func (b *Binding) Getter() Getter { return b.Get }

// Setter returns Set as a function value.
func (b *Binding) Setter() Setter { return b.Set }

func cloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}

func getPath(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	var current any = root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// setPath descends through maps and existing list items. Missing or scalar
// intermediates are replaced with maps.
func setPath(root map[string]any, segments []string, value any) error {
	segment := segments[0]
	if segment == "" {
		return fmt.Errorf("formstate: empty path segment")
	}
	if len(segments) == 1 {
		root[segment] = value
		return nil
	}
	rest := segments[1:]
	switch next := root[segment].(type) {
	case map[string]any:
		return setPath(next, rest, value)
	case []any:
		idx, err := strconv.Atoi(rest[0])
		if err != nil || idx < 0 || idx >= len(next) {
			return fmt.Errorf("formstate: index %q out of range for %q", rest[0], segment)
		}
		if len(rest) == 1 {
			next[idx] = value
			return nil
		}
		item, ok := next[idx].(map[string]any)
		if !ok {
			item = make(map[string]any)
			next[idx] = item
		}
		return setPath(item, rest[1:], value)
	default:
		child := make(map[string]any)
		root[segment] = child
		return setPath(child, rest, value)
	}
}
