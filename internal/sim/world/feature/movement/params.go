package movement

import "math"

// Defaults for the movement tunables.
const (
	DefaultAcceptanceRadius = 0.5
	DefaultSpeed            = 5.0
	DefaultMaxMoveDistance  = 50.0
	DefaultTickRateHz       = 30
)

// MaxDistanceSquared converts a request range limit into the squared form the validator
// compares against. Non-positive limits fall back to DefaultMaxMoveDistance.
func MaxDistanceSquared(distance float64) float64 {
	if !(distance > 0) || math.IsInf(distance, 1) {
		distance = DefaultMaxMoveDistance
	}
	return distance * distance
}

// ClampAcceptanceRadius and ClampSpeed replace non-positive, NaN or infinite tunables with
// the defaults.
func ClampAcceptanceRadius(radius float64) float64 {
	if !(radius > 0) || math.IsInf(radius, 1) {
		return DefaultAcceptanceRadius
	}
	return radius
}

func ClampSpeed(speed float64) float64 {
	if !(speed > 0) || math.IsInf(speed, 1) {
		return DefaultSpeed
	}
	return speed
}
