package main

import (
	"math"
	"strconv"
)

// FormatPrice renders a price with precision tiered by magnitude.
func FormatPrice(price float64) string {
	switch {
	case price < 0.0001:
		return strconv.FormatFloat(price, 'f', 8, 64)
	case price < 1:
		return strconv.FormatFloat(price, 'f', 6, 64)
	case price < 100:
		return strconv.FormatFloat(price, 'f', 4, 64)
	default:
		return strconv.FormatFloat(price, 'f', 2, 64)
	}
}

// FormatCompact renders a dollar amount with K/M/B units and one decimal,
// e.g. 52700 -> "$52.7K". Values under 1000 keep thousands separators off
// and no unit. A value that rounds up to 1000 of its unit moves to the next
// one: 999950 -> "$1M".
func FormatCompact(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	units := []struct {
		scale  float64
		suffix string
	}{
		{1, ""},
		{1e3, "K"},
		{1e6, "M"},
		{1e9, "B"},
	}
	i := 0
	for i+1 < len(units) && v >= units[i+1].scale {
		i++
	}
	if i+1 < len(units) && round1(v/units[i].scale) >= 1000 {
		i++
	}
	return sign + "$" + trimDecimal(v/units[i].scale) + units[i].suffix
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// FormatCount renders an integer with thousands commas: 11327 -> "11,327".
func FormatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// FormatChange renders a signed percentage, e.g. "+2.30%".
func FormatChange(pct float64) string {
	s := strconv.FormatFloat(math.Abs(pct), 'f', 2, 64) + "%"
	if pct < 0 {
		return "-" + s
	}
	return "+" + s
}

func trimDecimal(v float64) string {
	s := strconv.FormatFloat(round1(v), 'f', 1, 64)
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		return s[:len(s)-2]
	}
	return s
}
