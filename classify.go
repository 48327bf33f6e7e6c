package main

import "math"

const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionFlat = "flat"
)

// relative epsilon for price moves; prices span 1e-8 to 1e5 so an absolute
// epsilon would be meaningless.
const moveEpsilon = 1e-9

// ClassifyMove maps a price change onto the row flash direction.
//
// A previous price <= 0 means "no reference yet" and is flat.
func ClassifyMove(prev, next float64) string {
	if prev <= 0 || math.IsNaN(prev) || math.IsNaN(next) {
		return DirectionFlat
	}
	rel := (next - prev) / prev
	switch {
	case rel > moveEpsilon:
		return DirectionUp
	case rel < -moveEpsilon:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// ChangePct is the percentage move from open to price, guarded against a
// zero or tiny open the same way the table derives change on the fly.
func ChangePct(open, price float64) float64 {
	if open <= 0 {
		return 0
	}
	return (price - open) / math.Max(open, 1e-9) * 100
}
