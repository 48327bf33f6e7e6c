package ordering

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	decorationRe = regexp.MustCompile(`[\s$£€]`)
	suffixRe     = regexp.MustCompile(`^([+-]?[0-9.,]+)([KMB])$`)
	decimalRe    = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?`)
)

var suffixScale = map[string]float64{
	"K": 1e3,
	"M": 1e6,
	"B": 1e9,
}

// Normalize maps v onto a float64. The bool is false when v is not a number
// in any accepted spelling; that is a signal for lexical fallback, not an error.
//
// Accepted strings: optional currency ($ £ €), thousands commas, an optional
// K/M/B unit suffix. Whitespace anywhere is ignored. Trailing text after the
// leading decimal ("+2.30%", "12.5USDT") is dropped.
func Normalize(v Value) (float64, bool) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) {
			return 0, false
		}
		return v.num, true
	case KindString:
		return normalizeText(v.str)
	default:
		return 0, false
	}
}

func normalizeText(s string) (float64, bool) {
	s = strings.ToUpper(decorationRe.ReplaceAllString(s, ""))

	if m := suffixRe.FindStringSubmatch(s); m != nil {
		if f, ok := parseDecimal(strings.ReplaceAll(m[1], ",", "")); ok {
			return f * suffixScale[m[2]], true
		}
	}

	return parseDecimal(strings.ReplaceAll(s, ",", ""))
}

// parseDecimal reads the longest decimal prefix of s. Hex, inf/nan spellings
// and underscores are not part of any prefix.
func parseDecimal(s string) (float64, bool) {
	m := decimalRe.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
