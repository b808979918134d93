package domain

import "math"

// ToMinorUnits converts a decimal currency amount to integer cents,
// rounding to the nearest cent. This is the single conversion point;
// everything below the orchestrator edge works in minor units.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}
