package ordering

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Compare orders two keys and returns -1, 0 or 1.
//
// Rules, first match wins:
//  1. both missing: equal
//  2. one missing: the missing one is first
//  3. either side normalizes to a number: numeric order, with a side that
//     does not normalize treated as -Inf
//  4. case-insensitive comparison of the text forms
func Compare(a, b Value) int {
	if c, ok := compareMissing(a, b); ok {
		return c
	}
	return comparePresent(a, b)
}

// CompareValues is Compare over raw Go values.
func CompareValues(a, b any) int {
	return Compare(ValueOf(a), ValueOf(b))
}

func compareMissing(a, b Value) (int, bool) {
	switch {
	case a.IsMissing() && b.IsMissing():
		return 0, true
	case a.IsMissing():
		return -1, true
	case b.IsMissing():
		return 1, true
	}
	return 0, false
}

// comparePresent assumes neither side is missing.
func comparePresent(a, b Value) int {
	na, okA := Normalize(a)
	nb, okB := Normalize(b)
	if okA || okB {
		if !okA {
			na = math.Inf(-1)
		}
		if !okB {
			nb = math.Inf(-1)
		}
		return compareFloat(na, nb)
	}
	return strings.Compare(foldText(a), foldText(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// foldText is the case-insensitive form used for lexical comparison. NFC
// first so composed and decomposed spellings collate together.
func foldText(v Value) string {
	return strings.ToLower(norm.NFC.String(v.Text()))
}
