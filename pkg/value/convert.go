package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnsupportedType is returned when a Go value has no Value equivalent.
var ErrUnsupportedType = errors.New("unsupported value type")

// FromGo converts a decoded Go value into a Value.
//
// Supported inputs are the shapes produced by encoding/json and the CBOR
// decoder (nil, bool, numeric types, json.Number, string, []byte, []any,
// map[string]any, map[any]any with string keys) plus Value, *Map and []Value.
// Go maps carry no order, so their keys are sorted.
func FromGo(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Map:
		return Object(t), nil
	case []Value:
		return List(t...), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case []byte:
		return Binary(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Number(float64(t)), nil
	case uint8:
		return Number(float64(t)), nil
	case uint16:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromGo(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			v, err := FromGo(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			m.Set(k, v)
		}
		return Object(m), nil
	case map[any]any:
		converted := make(map[string]any, len(t))
		for k, v := range t {
			key, ok := k.(string)
			if !ok {
				return Value{}, fmt.Errorf("%w: map key %T", ErrUnsupportedType, k)
			}
			converted[key] = v
		}
		return FromGo(converted)
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, x)
	}
}

// MustFromGo is like FromGo but panics on unsupported input.
func MustFromGo(x any) Value {
	v, err := FromGo(x)
	if err != nil {
		panic(err)
	}
	return v
}

// ToGo converts v into plain Go values: nil, bool, float64, string, []byte,
// []any and map[string]any.
func ToGo(v Value) any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindBinary:
		return v.bin
	case KindList:
		items := make([]any, len(v.list))
		for i, item := range v.list {
			items[i] = ToGo(item)
		}
		return items
	case KindMap:
		return v.m.ToGo()
	default:
		return nil
	}
}

// ToGo converts m into a map[string]any.
func (m *Map) ToGo() map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(k string, v Value) bool {
		out[k] = ToGo(v)
		return true
	})
	return out
}
