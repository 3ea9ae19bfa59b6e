// Package sanitize rewrites backend values into the portable subset JSON can carry.
package sanitize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Value returns v normalized to nil, bool, string, int64, uint64 (above MaxInt64 only),
// finite float64, []any or map[string]any. NaN and infinities become nil.
// Value is total and idempotent.
func Value(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, string, int64:
		return x
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return unsigned(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return unsigned(x)
	case []byte:
		return string(x)
	case json.Number:
		return number(x)
	case map[string]any:
		return Map(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Value(e)
		}
		return out
	default:
		return reflected(v)
	}
}

// Map sanitizes every value of m into a new map. A nil map stays nil.
func Map(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = Value(e)
	}
	return out
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func unsigned(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return u
}

func number(n json.Number) any {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u
	}
	if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
		return finite(f)
	}
	return n.String()
}

// reflected handles named and composite types the fast path does not list.
func reflected(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Value(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsigned(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float())
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes())
		}
		return elements(rv)
	case reflect.Array:
		return elements(rv)
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = Value(iter.Value().Interface())
		}
		return out
	default:
		return fmt.Sprint(v)
	}
}

func elements(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = Value(rv.Index(i).Interface())
	}
	return out
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}
