package serialize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// Primitive converts value into something encoding/json renders without
// surprises. Built-in scalar types pass through unchanged; named scalar
// types become int64, uint64, float64, string or bool. Functions, channels
// and unsafe pointers are dropped (ok is false); times become RFC3339
// strings; maps and slices are converted recursively.
func Primitive(value any) (out any, ok bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return v, true
	case time.Time:
		return v.Format(time.RFC3339), true
	case *time.Time:
		if v == nil {
			return nil, true
		}
		return v.Format(time.RFC3339), true
	case time.Duration:
		return v.String(), true
	case []byte:
		return string(v), true
	case json.RawMessage:
		var decoded any
		if json.Unmarshal(v, &decoded) != nil {
			return nil, false
		}
		return decoded, true
	case map[string]any:
		return primitiveMap(v), true
	case []any:
		return primitiveSlice(v), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, false
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, true
		}
		return Primitive(rv.Elem().Interface())
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, true
		}
		items := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if item, ok := Primitive(rv.Index(i).Interface()); ok {
				items = append(items, item)
			}
		}
		return items, true
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if item, ok := Primitive(iter.Value().Interface()); ok {
				m[fmt.Sprint(iter.Key().Interface())] = item
			}
		}
		return m, true
	case reflect.Struct:
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, false
		}
		var decoded any
		if json.Unmarshal(raw, &decoded) != nil {
			return nil, false
		}
		return decoded, true
	}
	return nil, false
}

func primitiveMap(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if item, ok := Primitive(v); ok {
			out[k] = item
		}
	}
	return out
}

func primitiveSlice(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if item, ok := Primitive(v); ok {
			out = append(out, item)
		}
	}
	return out
}
