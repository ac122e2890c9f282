package lang

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// ToNative converts v to plain Go values: nil, bool, int64, float64, string,
// []any and map[string]any. Callables and modules are rendered as strings,
// as is a container reached again through itself ("[...]" or "{...}").
func ToNative(v Value) any {
	return toNative(v, map[Value]bool{})
}

func toNative(v Value, active map[Value]bool) any {
	switch v := v.(type) {
	case nil, NoneType:
		return nil
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case String:
		return string(v)
	case *List:
		if active[v] {
			return "[...]"
		}

		active[v] = true
		defer delete(active, v)

		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = toNative(e, active)
		}

		return out
	case *Map:
		if active[v] {
			return "{...}"
		}

		active[v] = true
		defer delete(active, v)

		out := make(map[string]any, v.Len())
		for k, e := range v.All() {
			out[k.String()] = toNative(e, active)
		}

		return out
	}

	return v.String()
}

// FromNative converts a Go value produced by a decoder (JSON, YAML, expr-lang)
// into a Value.
func FromNative(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return None, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int8:
		return Int(x), nil
	case int16:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint:
		return Int(x), nil
	case uint8:
		return Int(x), nil
	case uint16:
		return Int(x), nil
	case uint32:
		return Int(x), nil
	case uint64:
		return Int(x), nil
	case float32:
		return Float(x), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case json.Number:
		if i, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return Int(i), nil
		}

		f, err := x.Float64()
		if err != nil {
			return nil, evalErr("invalid number", strconv.Quote(string(x)))
		}

		return Float(f), nil
	case []any:
		l := NewList()
		for _, e := range x {
			v, err := FromNative(e)
			if err != nil {
				return nil, err
			}

			l.Append(v)
		}

		return l, nil
	case map[string]any:
		m := NewMap()
		for _, k := range sortedKeys(x) {
			v, err := FromNative(x[k])
			if err != nil {
				return nil, err
			}

			m.SetString(k, v)
		}

		return m, nil
	}

	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		l := NewList()
		for i := range rv.Len() {
			v, err := FromNative(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}

			l.Append(v)
		}

		return l, nil
	case reflect.Map:
		m := NewMap()
		iter := rv.MapRange()

		for iter.Next() {
			k, err := FromNative(iter.Key().Interface())
			if err != nil {
				return nil, err
			}

			if _, ok := keyOf(k); !ok {
				k = String(fmt.Sprint(iter.Key().Interface()))
			}

			v, err := FromNative(iter.Value().Interface())
			if err != nil {
				return nil, err
			}

			if err := m.Set(k, v); err != nil {
				return nil, err
			}
		}

		return m, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return None, nil
		}

		return FromNative(rv.Elem().Interface())
	}

	if rv.IsValid() {
		return nil, evalErr("cannot convert Go value of type", rv.Type().String())
	}

	return None, nil
}
