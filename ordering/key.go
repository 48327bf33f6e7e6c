package ordering

import (
	"reflect"
	"strconv"
	"strings"
)

type keyKind uint8

const (
	keyField keyKind = iota
	keyPath
	keyFunc
)

// Key says how to pull a sort key out of a record. Build one with Field,
// Path, Func or ParseKey; the zero Key extracts Missing from every record.
type Key[T any] struct {
	kind keyKind
	name string
	path []string
	fn   func(T) any
}

// Field addresses a single top-level field. Dots in name are literal.
func Field[T any](name string) Key[T] {
	return Key[T]{kind: keyField, name: name, path: []string{name}}
}

// Path addresses a nested field with a dot-delimited path such as
// "tokenInfo.holders".
func Path[T any](dotted string) Key[T] {
	return Key[T]{kind: keyPath, name: dotted, path: strings.Split(dotted, ".")}
}

// Func wraps a caller-supplied extractor.
func Func[T any](fn func(T) any) Key[T] {
	return Key[T]{kind: keyFunc, name: "func", fn: fn}
}

// ParseKey picks Path when s contains a dot and Field otherwise.
func ParseKey[T any](s string) Key[T] {
	if strings.Contains(s, ".") {
		return Path[T](s)
	}
	return Field[T](s)
}

// Name is the field name or dotted path, or "func" for extractor keys.
func (k Key[T]) Name() string { return k.name }

// Extractor resolves k once into a function applied to every record.
func (k Key[T]) Extractor() func(T) Value {
	switch k.kind {
	case keyFunc:
		if k.fn == nil {
			return func(T) Value { return Missing() }
		}
		fn := k.fn
		return func(rec T) Value { return ValueOf(fn(rec)) }
	default:
		if len(k.path) == 0 {
			return func(T) Value { return Missing() }
		}
		path := k.path
		return func(rec T) Value { return ValueOf(Lookup(rec, path...)) }
	}
}

// Lookup walks path from rec strictly left to right. It returns nil as soon
// as a segment is absent or an intermediate value is nil; it never panics.
func Lookup(rec any, path ...string) any {
	cur := reflect.ValueOf(rec)
	for _, seg := range path {
		next, ok := step(cur, seg)
		if !ok {
			return nil
		}
		cur = next
	}
	cur, ok := deref(cur)
	if !ok || !cur.CanInterface() {
		return nil
	}
	return cur.Interface()
}

func deref(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

func step(cur reflect.Value, seg string) (reflect.Value, bool) {
	cur, ok := deref(cur)
	if !ok {
		return reflect.Value{}, false
	}
	switch cur.Kind() {
	case reflect.Map:
		if cur.Type().Key().Kind() != reflect.String || cur.IsNil() {
			return reflect.Value{}, false
		}
		v := cur.MapIndex(reflect.ValueOf(seg).Convert(cur.Type().Key()))
		return v, v.IsValid()
	case reflect.Struct:
		return structField(cur, seg)
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= cur.Len() {
			return reflect.Value{}, false
		}
		return cur.Index(i), true
	}
	return reflect.Value{}, false
}

// structField matches seg against the json tag name, then the exact field
// name, then the field name ignoring case. Unexported fields are skipped.
// Untagged embedded structs are searched after the outer fields, the way
// encoding/json promotes them. Each struct type is searched at most once, so
// self-embedding types end the walk.
func structField(cur reflect.Value, seg string) (reflect.Value, bool) {
	return embeddedField(cur, seg, map[reflect.Type]bool{})
}

func embeddedField(cur reflect.Value, seg string, seen map[reflect.Type]bool) (reflect.Value, bool) {
	t := cur.Type()
	if seen[t] {
		return reflect.Value{}, false
	}
	seen[t] = true

	fold := -1
	exact := -1
	var embedded []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := jsonName(f)
		if f.Anonymous && tag == "" {
			embedded = append(embedded, i)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if tag != "" && tag == seg {
			return cur.Field(i), true
		}
		if f.Name == seg && exact < 0 {
			exact = i
		}
		if fold < 0 && strings.EqualFold(f.Name, seg) {
			fold = i
		}
	}
	switch {
	case exact >= 0:
		return cur.Field(exact), true
	case fold >= 0:
		return cur.Field(fold), true
	}
	for _, i := range embedded {
		inner, ok := deref(cur.Field(i))
		if !ok || inner.Kind() != reflect.Struct {
			continue
		}
		if v, ok := embeddedField(inner, seg, seen); ok {
			return v, true
		}
	}
	return reflect.Value{}, false
}

func jsonName(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
