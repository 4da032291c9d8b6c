package movement

import "math"

// MinAcceptanceRadius keeps the arrival circle non-degenerate when current equals target.
const MinAcceptanceRadius = 0.05

// Vec2 is a point or displacement on the (x, z) movement plane.
type Vec2 struct {
	X float64
	Z float64
}

func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{X: v.X - o.X, Z: v.Z - o.Z} }
func (v Vec2) Add(o Vec2) Vec2        { return Vec2{X: v.X + o.X, Z: v.Z + o.Z} }
func (v Vec2) Scale(s float64) Vec2   { return Vec2{X: v.X * s, Z: v.Z * s} }
func (v Vec2) Length() float64        { return math.Hypot(v.X, v.Z) }
func (v Vec2) LengthSquared() float64 { return v.X*v.X + v.Z*v.Z }

// StepResult is the outcome of one movement step. It is never persisted.
type StepResult struct {
	NewPosition Vec2
	Step        Vec2
	// Finished means the mover is on or inside the acceptance circle of target.
	Finished bool
}

// Step moves current toward target at speed for dt seconds and stops on the boundary of
// the acceptance circle around target, never inside it.
func Step(current, target Vec2, acceptanceRadius, speed, dt float64) StepResult {
	// NaN fails every comparison, so these clamp it too.
	radius := acceptanceRadius
	if !(radius >= MinAcceptanceRadius) {
		radius = MinAcceptanceRadius
	}
	if !(speed >= 0) {
		speed = 0
	}
	if !(dt >= 0) {
		dt = 0
	}

	toTarget := target.Sub(current)
	distance := toTarget.Length()

	if distance <= radius {
		return StepResult{NewPosition: current, Finished: true}
	}

	maxTravel := speed * dt
	if !(maxTravel > 0) {
		return StepResult{NewPosition: current}
	}
	toBoundary := distance - radius
	dir := toTarget.Scale(1 / distance)

	if maxTravel >= toBoundary {
		boundary := target.Sub(dir.Scale(radius))
		return StepResult{
			NewPosition: boundary,
			Step:        boundary.Sub(current),
			Finished:    true,
		}
	}

	step := dir.Scale(maxTravel)
	return StepResult{
		NewPosition: current.Add(step),
		Step:        step,
	}
}

// DistanceSquared is the squared planar distance between a and b.
func DistanceSquared(a, b Vec2) float64 {
	return a.Sub(b).LengthSquared()
}
