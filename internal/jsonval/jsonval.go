// Package jsonval compares and copies dynamically typed JSON-like values.
//
// Values belong to a closed set of kinds: null, scalar (bool, string,
// numbers), sequence (slices and arrays) and mapping (string-keyed maps).
// Mapping keys are unordered; sequence order is significant. Numbers compare
// by value regardless of their Go type, so 1, 1.0 and json.Number("1") are
// equal. A nil map or slice is null and differs from an empty one.
package jsonval

import (
	"encoding/json"
	"reflect"
)

// Kind classifies a value.
type Kind int

const (
	Null Kind = iota
	Scalar
	Sequence
	Mapping
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// KindOf reports the kind of v.
func KindOf(v any) Kind {
	switch x := v.(type) {
	case nil:
		return Null
	case string, bool, float64, float32, int, int64, int32, json.Number:
		return Scalar
	case map[string]any:
		if x == nil {
			return Null
		}
		return Mapping
	case []any:
		if x == nil {
			return Null
		}
		return Sequence
	}
	return kindOfValue(reflect.ValueOf(v))
}

func kindOfValue(rv reflect.Value) Kind {
	rv, ok := indirect(rv)
	if !ok {
		return Null
	}
	switch rv.Kind() {
	case reflect.Map:
		return Mapping
	case reflect.Slice, reflect.Array:
		return Sequence
	default:
		return Scalar
	}
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b any) bool {
	// Fast paths for what encoding/json produces.
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av == bv
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av == bv
		}
	case map[string]any:
		if bv, ok := b.(map[string]any); ok && av != nil && bv != nil {
			return equalMaps(av, bv)
		}
	case []any:
		if bv, ok := b.([]any); ok && av != nil && bv != nil {
			return equalSlices(av, bv)
		}
	}

	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case Null:
		return true
	case Scalar:
		return equalScalars(a, b)
	default:
		return equalValues(reflect.ValueOf(a), reflect.ValueOf(b))
	}
}

func equalMaps(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

func equalSlices(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalScalars(a, b any) bool {
	if an, ok := toNumber(a); ok {
		bn, ok := toNumber(b)
		return ok && an.equal(bn)
	}
	ra, _ := indirect(reflect.ValueOf(a))
	rb, _ := indirect(reflect.ValueOf(b))
	switch ra.Kind() {
	case reflect.String:
		return rb.Kind() == reflect.String && ra.String() == rb.String()
	case reflect.Bool:
		return rb.Kind() == reflect.Bool && ra.Bool() == rb.Bool()
	}
	return reflect.DeepEqual(ra.Interface(), rb.Interface())
}

// equalValues handles mappings and sequences of arbitrary Go types.
func equalValues(a, b reflect.Value) bool {
	a, _ = indirect(a)
	b, _ = indirect(b)
	switch a.Kind() {
	case reflect.Map:
		if b.Kind() != reflect.Map || a.Len() != b.Len() {
			return false
		}
		if a.Type().Key().Kind() != reflect.String || b.Type().Key().Kind() != reflect.String {
			return reflect.DeepEqual(a.Interface(), b.Interface())
		}
		bKey := b.Type().Key()
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(reflect.ValueOf(iter.Key().String()).Convert(bKey))
			if !bv.IsValid() || !Equal(iter.Value().Interface(), bv.Interface()) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if (b.Kind() != reflect.Slice && b.Kind() != reflect.Array) || a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !Equal(a.Index(i).Interface(), b.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	return false
}

// indirect strips pointers and interfaces; ok is false for nil.
func indirect(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() {
		switch rv.Kind() {
		case reflect.Pointer, reflect.Interface:
			if rv.IsNil() {
				return rv, false
			}
			rv = rv.Elem()
		case reflect.Map, reflect.Slice:
			if rv.IsNil() {
				return rv, false
			}
			return rv, true
		default:
			return rv, true
		}
	}
	return rv, false
}

type number struct {
	i     int64
	f     float64
	isInt bool
}

func (n number) equal(o number) bool {
	if n.isInt && o.isInt {
		return n.i == o.i
	}
	return n.float() == o.float()
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func toNumber(v any) (number, bool) {
	switch x := v.(type) {
	case float64:
		return number{f: x}, true
	case int:
		return number{i: int64(x), isInt: true}, true
	case int64:
		return number{i: x, isInt: true}, true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return number{i: i, isInt: true}, true
		}
		if f, err := x.Float64(); err == nil {
			return number{f: f}, true
		}
		return number{}, false
	}
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return number{}, false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{i: rv.Int(), isInt: true}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= 1<<63-1 {
			return number{i: int64(u), isInt: true}, true
		}
		return number{f: float64(u)}, true
	case reflect.Float32, reflect.Float64:
		return number{f: rv.Float()}, true
	}
	return number{}, false
}
