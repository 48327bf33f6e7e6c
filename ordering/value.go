package ordering

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindString
	// KindOpaque holds anything that is neither a number nor a string.
	// It is compared by its printed form and never normalizes to a number.
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Value is an extracted sort key.
type Value struct {
	kind Kind
	num  float64
	str  string
}

func Missing() Value         { return Value{kind: KindMissing} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func String(s string) Value  { return Value{kind: KindString, str: s} }
func Opaque(v any) Value     { return Value{kind: KindOpaque, str: fmt.Sprint(v)} }

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Text returns the string form used for lexical comparison.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString, KindOpaque:
		return v.str
	default:
		return ""
	}
}

func (v Value) String() string {
	if v.kind == KindMissing {
		return "<missing>"
	}
	return v.Text()
}

// ValueOf converts an arbitrary Go value into a Value. Nil pointers, nil
// interfaces and nil maps/slices become Missing.
func ValueOf(x any) Value {
	switch t := x.(type) {
	case nil:
		return Missing()
	case Value:
		return t
	case string:
		return String(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return String(string(t))
	}
	return valueOfReflect(reflect.ValueOf(x))
}

func valueOfReflect(rv reflect.Value) Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return Missing()
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return Missing()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return Missing()
		}
	}
	if rv.CanInterface() {
		return Opaque(rv.Interface())
	}
	return Opaque(rv.String())
}
