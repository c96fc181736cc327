package mathutil

import "math"

// Clamp limits v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func EaseOutCubic(t float64) float64 {
	t = Clamp(t, 0, 1)
	return 1 - math.Pow(1-t, 3)
}

// SafeDiv returns num/den, or ok=false when den is not strictly positive or
// the result would not be finite.
func SafeDiv(num, den float64) (result float64, ok bool) {
	if den <= 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return 0, false
	}
	result = num / den
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, false
	}
	return result, true
}

func Abs(v float64) float64 {
	return math.Abs(v)
}
