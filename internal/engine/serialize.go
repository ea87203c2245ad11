package engine

import (
	"reflect"
	"time"
)

// NormalizeDetail prepares an audit detail tree for JSON storage: every
// timestamp becomes RFC3339 text, and maps and sequences are walked
// recursively so nested timestamps are converted too. Anything else passes
// through unchanged.
func NormalizeDetail(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339Nano)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = NormalizeDetail(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = NormalizeDetail(val)
		}
		return out
	}

	// Generic maps and slices that are not the plain interface{} shapes above
	// still get walked; scalars and structs fall through to the JSON encoder.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return NormalizeDetail(rv.Elem().Interface())
	case reflect.Map:
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := iter.Key().Interface().(string)
			if !ok {
				return v
			}
			out[key] = NormalizeDetail(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = NormalizeDetail(rv.Index(i).Interface())
		}
		return out
	default:
		return v
	}
}
