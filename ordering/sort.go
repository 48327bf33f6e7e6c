package ordering

import (
	"fmt"
	"slices"
	"strings"
)

// Direction of a sort. None means "no active sort column".
type Direction int8

const (
	None Direction = iota
	Ascending
	Descending
)

// ParseDirection accepts "asc", "desc", and "", "none" or "null" for None.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, true
	case "desc", "descending":
		return Descending, true
	case "", "none", "null":
		return None, true
	}
	return None, false
}

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	}
	return ""
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, ok := ParseDirection(string(b))
	if !ok {
		return &DirectionError{Value: string(b)}
	}
	*d = v
	return nil
}

// DirectionError reports an unrecognised direction spelling.
type DirectionError struct {
	Value string
}

func (e *DirectionError) Error() string {
	return fmt.Sprintf("ordering: unknown direction %q", e.Value)
}

type indexed[T any] struct {
	idx int
	rec T
}

// Stable returns a new slice ordered by cmp. Records for which cmp reports 0
// keep their original relative order. records is not modified.
func Stable[T any](records []T, cmp func(a, b T) int) []T {
	pairs := make([]indexed[T], len(records))
	for i, r := range records {
		pairs[i] = indexed[T]{idx: i, rec: r}
	}
	slices.SortFunc(pairs, func(x, y indexed[T]) int {
		if c := cmp(x.rec, y.rec); c != 0 {
			return c
		}
		return x.idx - y.idx
	})
	out := make([]T, len(pairs))
	for i, p := range pairs {
		out[i] = p.rec
	}
	return out
}

type keyed[T any] struct {
	idx int
	key Value
	rec T
}

// SortBy orders records by key in direction dir and returns a new slice.
//
// Missing keys always come first, in both directions. With None the result
// is a copy of records in their original order.
func SortBy[T any](records []T, key Key[T], dir Direction) []T {
	if dir == None {
		return slices.Clone(records)
	}
	extract := key.Extractor()
	rows := make([]keyed[T], len(records))
	for i, r := range records {
		rows[i] = keyed[T]{idx: i, key: extract(r), rec: r}
	}
	slices.SortFunc(rows, func(x, y keyed[T]) int {
		if c := compareDirected(x.key, y.key, dir); c != 0 {
			return c
		}
		return x.idx - y.idx
	})
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.rec
	}
	return out
}

// Comparator builds a record comparator for use with Stable. The missing
// rule is exempt from the direction flip, as in SortBy. None compares
// ascending here; use SortBy for the identity behaviour.
func Comparator[T any](key Key[T], dir Direction) func(a, b T) int {
	extract := key.Extractor()
	return func(a, b T) int {
		return compareDirected(extract(a), extract(b), dir)
	}
}

func compareDirected(a, b Value, dir Direction) int {
	if c, ok := compareMissing(a, b); ok {
		return c
	}
	c := comparePresent(a, b)
	if dir == Descending {
		return -c
	}
	return c
}
