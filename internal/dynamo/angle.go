package dynamo

import "math"

const twoPi = 2 * math.Pi

// NormalizeAngle maps a into (-π, π].
// Values already in range are returned unchanged, so the function is idempotent.
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a <= -math.Pi {
		a += twoPi
	} else if a > math.Pi {
		a -= twoPi
	}
	return a
}

// AngleDiff returns the shortest signed rotation from b to a.
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(a - b)
}

// IsFinite reports whether every value is neither NaN nor infinite.
func IsFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
