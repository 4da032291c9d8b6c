package movement

import (
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-9

func near(a, b Vec2) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Z-b.Z) <= eps
}

func TestStepArrivesOnBoundary(t *testing.T) {
	r := Step(Vec2{0, 0}, Vec2{10, 0}, 0.5, 100, 1)
	if !r.Finished {
		t.Fatalf("expected finished")
	}
	if !near(r.NewPosition, Vec2{9.5, 0}) {
		t.Fatalf("new position=%+v want {9.5 0}", r.NewPosition)
	}
	if !near(r.Step, Vec2{9.5, 0}) {
		t.Fatalf("step=%+v want {9.5 0}", r.Step)
	}
}

func TestStepPartialProgress(t *testing.T) {
	r := Step(Vec2{0, 0}, Vec2{10, 0}, 0.5, 5, 0.1)
	if r.Finished {
		t.Fatalf("expected unfinished")
	}
	if !near(r.NewPosition, Vec2{0.5, 0}) {
		t.Fatalf("new position=%+v want {0.5 0}", r.NewPosition)
	}
}

func TestStepAlreadyArrived(t *testing.T) {
	r := Step(Vec2{10, 0}, Vec2{10, 0}, 0.5, 5, 1)
	if !r.Finished {
		t.Fatalf("expected finished")
	}
	if r.NewPosition != (Vec2{10, 0}) || r.Step != (Vec2{}) {
		t.Fatalf("expected no movement, got %+v", r)
	}

	// Inside the circle but off-centre: never moves back out to the boundary.
	r = Step(Vec2{10.2, 0.1}, Vec2{10, 0}, 0.5, 5, 1)
	if !r.Finished || r.NewPosition != (Vec2{10.2, 0.1}) {
		t.Fatalf("expected no movement inside the radius, got %+v", r)
	}
}

func TestStepClampsInputs(t *testing.T) {
	// Radius below the floor behaves like MinAcceptanceRadius.
	r := Step(Vec2{0, 0}, Vec2{0, 1}, 0, 10, 1)
	if !r.Finished || !near(r.NewPosition, Vec2{0, 1 - MinAcceptanceRadius}) {
		t.Fatalf("clamped radius: %+v", r)
	}
	// NaN radius clamps to the floor: a mover on its target is done without moving.
	r = Step(Vec2{10, 0}, Vec2{10, 0}, math.NaN(), 5, 1)
	if !r.Finished || r.NewPosition != (Vec2{10, 0}) || r.Step != (Vec2{}) {
		t.Fatalf("NaN radius at target: %+v", r)
	}
	r = Step(Vec2{0, 0}, Vec2{10, 0}, math.NaN(), 100, 1)
	if !r.Finished || !near(r.NewPosition, Vec2{10 - MinAcceptanceRadius, 0}) {
		t.Fatalf("NaN radius: %+v", r)
	}
	// Negative or NaN speed and dt never move.
	nan := math.NaN()
	for _, c := range []struct{ speed, dt float64 }{{-5, 1}, {5, -1}, {nan, 1}, {5, nan}, {0, math.Inf(1)}} {
		r := Step(Vec2{0, 0}, Vec2{10, 0}, 0.5, c.speed, c.dt)
		if r.Finished || r.NewPosition != (Vec2{0, 0}) {
			t.Fatalf("speed=%v dt=%v: expected no movement, got %+v", c.speed, c.dt, r)
		}
	}
}

func TestStepDiagonalDirection(t *testing.T) {
	r := Step(Vec2{0, 0}, Vec2{3, 4}, 0.5, 1, 1)
	if r.Finished {
		t.Fatalf("expected unfinished")
	}
	if !near(r.NewPosition, Vec2{0.6, 0.8}) {
		t.Fatalf("new position=%+v want {0.6 0.8}", r.NewPosition)
	}
	if math.Abs(r.Step.Length()-1) > eps {
		t.Fatalf("step length=%v want 1", r.Step.Length())
	}
}

func TestStepNeverOvershootsUnderJitter(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		cur := Vec2{X: rng.Float64()*200 - 100, Z: rng.Float64()*200 - 100}
		target := Vec2{X: rng.Float64()*200 - 100, Z: rng.Float64()*200 - 100}
		const radius = 0.5
		prev := math.Sqrt(DistanceSquared(cur, target))
		if prev <= radius {
			continue
		}
		for i := 0; i < 100000; i++ {
			dt := rng.Float64() * 0.2
			r := Step(cur, target, radius, 5, dt)
			cur = r.NewPosition
			d := math.Sqrt(DistanceSquared(cur, target))
			if d > prev+eps {
				t.Fatalf("trial %d: distance increased %v -> %v", trial, prev, d)
			}
			if d < radius-1e-6 {
				t.Fatalf("trial %d: overshot into radius: d=%v", trial, d)
			}
			prev = d
			if r.Finished {
				break
			}
		}
		if math.Abs(prev-radius) > 1e-6 {
			t.Fatalf("trial %d: never arrived, distance=%v", trial, prev)
		}
	}
}

func TestDistanceSquared(t *testing.T) {
	if got := DistanceSquared(Vec2{1, 1}, Vec2{4, 5}); got != 25 {
		t.Fatalf("DistanceSquared=%v want 25", got)
	}
}
