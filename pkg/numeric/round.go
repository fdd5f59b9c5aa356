// Package numeric holds rounding and float helpers shared by the engines.
package numeric

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds v to places decimal digits, half away from zero.
// Non-finite values are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// RoundPtr rounds v and returns a pointer to the result
func RoundPtr(v float64, places int32) *float64 {
	r := Round(v, places)
	return &r
}

// Finite reports whether v is neither NaN nor infinite
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
