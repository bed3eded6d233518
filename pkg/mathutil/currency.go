// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/credit-calculator/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Halves round away from zero.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Truncate drops the fractional part of val, rounding toward zero. The
// second return value is false when val does not fit in an int64.
func Truncate(val float64) (int64, bool) {
	if !IsFinite(val) {
		return 0, false
	}
	t := math.Trunc(val)
	if t >= math.MaxInt64 || t < math.MinInt64 {
		return 0, false
	}
	return int64(t), true
}

// PercentToRate converts a percentage such as 12.5 into 0.125.
func PercentToRate(percentage float64) float64 {
	return percentage / constants.PercentageMultiplier
}
