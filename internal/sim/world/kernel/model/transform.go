package model

import (
	"waymark.ai/internal/sim/world/logic/chunkid"
	"waymark.ai/internal/sim/world/logic/movement"
)

// Vec3 is a world position. Movement operates on X and Z only; Y is kept for draw ordering.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) Plane() movement.Vec2 { return movement.Vec2{X: v.X, Z: v.Z} }

func (v Vec3) Array() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func Vec3FromArray(a [3]float64) Vec3 { return Vec3{X: a[0], Y: a[1], Z: a[2]} }

// Quat is a rotation quaternion. The zero value is kept as-is (no implicit identity).
type Quat struct {
	X float64
	Y float64
	Z float64
	W float64
}

type Transform struct {
	ID          uint32
	Translation Vec3
	Rotation    Quat
	Scale       Vec3

	// ChunkID is derived from Translation on every write and indexed by the store.
	ChunkID chunkid.ID
}

func NewTransform(id uint32, pos Vec3) Transform {
	return Transform{
		ID:          id,
		Translation: pos,
		Scale:       Vec3{X: 1, Y: 1, Z: 1},
		ChunkID:     chunkid.Encode(pos.X, pos.Z),
	}
}
