package output

import "math"

// RoundFloat rounds a float to max 6 decimal places, the precision
// DeterministicEncode enforces on every float field so two runs over
// identical input never differ by floating-point noise.
func RoundFloat(f float64) float64 {
	const multiplier = 1e6
	return math.Round(f*multiplier) / multiplier
}
