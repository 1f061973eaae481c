package domain

import "math"

// RoundHalfUp1 rounds to one decimal place with halves away from zero on the
// positive axis (303.55 -> 303.6). This is the single rounding authority:
// per-scope values are rounded first, then their sum is rounded again, so
// every consumer reports the same total for the same record set.
func RoundHalfUp1(value float64) float64 {
	return math.Floor(value*10+0.5) / 10
}

// KgToTonnes converts kilograms to tonnes without rounding.
func KgToTonnes(kg float64) float64 {
	return kg / 1000
}
