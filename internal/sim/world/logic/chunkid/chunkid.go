// Package chunkid packs 2D world coordinates into a 32-bit chunk identifier.
//
// Chunks are ChunkSize world units per side. Each axis is floored into a signed chunk
// coordinate in [-32768, 32767], shifted by 32768 into an unsigned 16-bit value, and packed
// with X in the low 16 bits and Z in the high 16 bits. At 20 units per chunk that bounds the
// world to roughly 655 km per axis.
package chunkid

import (
	"errors"
	"fmt"
	"math"
)

// ChunkSize is the side length of a chunk in world units.
const ChunkSize = 20.0

const (
	halfBits = 16
	offset   = 1 << (halfBits - 1) // 32768
	axisMask = 0xFFFF

	MinChunk = -offset
	MaxChunk = offset - 1
)

// ID is an opaque packed chunk identifier. It is always recomputable from a position.
type ID uint32

var ErrOutOfRange = errors.New("chunkid: coordinate out of range")

// Encode maps world coordinates to their chunk id.
//
// Coordinates outside the representable world are a programmer error and panic; callers
// handling untrusted input use Checked first.
func Encode(x, z float64) ID {
	id, err := Checked(x, z)
	if err != nil {
		panic(fmt.Sprintf("chunkid.Encode(%v, %v): %v", x, z, err))
	}
	return id
}

// Checked is Encode without the panic.
func Checked(x, z float64) (ID, error) {
	cx, ok := axis(x)
	if !ok {
		return 0, fmt.Errorf("%w: x=%v", ErrOutOfRange, x)
	}
	cz, ok := axis(z)
	if !ok {
		return 0, fmt.Errorf("%w: z=%v", ErrOutOfRange, z)
	}
	return pack(cx, cz), nil
}

// Pack builds the id of chunk coordinate (cx, cz).
func Pack(cx, cz int) (ID, bool) {
	if cx < MinChunk || cx > MaxChunk || cz < MinChunk || cz > MaxChunk {
		return 0, false
	}
	return pack(cx, cz), true
}

// Decode returns the signed chunk coordinates packed into id.
func Decode(id ID) (cx, cz int) {
	cx = int(uint32(id)&axisMask) - offset
	cz = int((uint32(id)>>halfBits)&axisMask) - offset
	return cx, cz
}

// WithinRadius reports whether other lies within radius chunks of center, measured as
// Chebyshev distance in chunk space.
func WithinRadius(center, other ID, radius int) bool {
	cx, cz := Decode(center)
	ox, oz := Decode(other)
	return absInt(ox-cx) <= radius && absInt(oz-cz) <= radius
}

// InWorld reports whether (x, z) can be encoded.
func InWorld(x, z float64) bool {
	_, okX := axis(x)
	_, okZ := axis(z)
	return okX && okZ
}

func axis(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	c := math.Floor(v / ChunkSize)
	if c < MinChunk || c > MaxChunk {
		return 0, false
	}
	return int(c), true
}

func pack(cx, cz int) ID {
	sx := uint32(cx + offset)
	sz := uint32(cz + offset)
	return ID(sz<<halfBits | sx)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
