package chunkid

import (
	"errors"
	"math"
	"testing"
)

func TestEncodeSameCell(t *testing.T) {
	if Encode(45, 45) != Encode(46, 46) {
		t.Fatalf("expected (45,45) and (46,46) in the same chunk")
	}
	if Encode(0, 0) != Encode(19.999, 0.001) {
		t.Fatalf("expected origin cell to cover [0,20)")
	}
}

func TestEncodeChunkBoundary(t *testing.T) {
	if Encode(19.9, 19.9) == Encode(20, 20) {
		t.Fatalf("20.0 must belong to the next chunk")
	}
	cx, cz := Decode(Encode(20, 20))
	if cx != 1 || cz != 1 {
		t.Fatalf("Decode(Encode(20,20))=(%d,%d) want (1,1)", cx, cz)
	}
}

func TestEncodeNegativeCoords(t *testing.T) {
	if Encode(-0.1, -0.1) != Encode(-19.9, -19.9) {
		t.Fatalf("expected (-0.1,-0.1) and (-19.9,-19.9) in the same chunk")
	}
	cx, cz := Decode(Encode(-0.1, -0.1))
	if cx != -1 || cz != -1 {
		t.Fatalf("Decode=(%d,%d) want (-1,-1)", cx, cz)
	}
	if Encode(-20, 0) == Encode(-20.01, 0) {
		t.Fatalf("-20.01 must fall into chunk -2")
	}
}

func TestRoundTripMatchesFloor(t *testing.T) {
	pts := [][2]float64{
		{0, 0}, {0.5, 0.5}, {19.99, -0.01}, {-40, 40}, {-40.5, 39.5},
		{12345.6, -9876.5}, {-655360, 655340}, {655340, -655360},
	}
	for _, p := range pts {
		cx, cz := Decode(Encode(p[0], p[1]))
		wantX := int(math.Floor(p[0] / ChunkSize))
		wantZ := int(math.Floor(p[1] / ChunkSize))
		if cx != wantX || cz != wantZ {
			t.Fatalf("Decode(Encode(%v,%v))=(%d,%d) want (%d,%d)", p[0], p[1], cx, cz, wantX, wantZ)
		}
	}
}

func TestPackLayout(t *testing.T) {
	origin := Encode(0, 0)
	if uint32(origin) != 0x8000_8000 {
		t.Fatalf("origin id=%#x want 0x80008000", uint32(origin))
	}
	if Encode(20, 0)-origin != 1 {
		t.Fatalf("adjacent X chunk should differ by 1 in the low field")
	}
	if (uint32(Encode(0, 20))>>16)-(uint32(origin)>>16) != 1 {
		t.Fatalf("adjacent Z chunk should differ by 1 in the high field")
	}
	id, ok := Pack(-1, 2)
	if !ok || id != Encode(-5, 45) {
		t.Fatalf("Pack(-1,2)=%#x ok=%v want %#x", uint32(id), ok, uint32(Encode(-5, 45)))
	}
	if _, ok := Pack(MaxChunk+1, 0); ok {
		t.Fatalf("Pack should reject out-of-range chunk coords")
	}
}

func TestEncodeMaxRange(t *testing.T) {
	id := Encode(MaxChunk*ChunkSize, MinChunk*ChunkSize)
	cx, cz := Decode(id)
	if cx != MaxChunk || cz != MinChunk {
		t.Fatalf("Decode=(%d,%d) want (%d,%d)", cx, cz, MaxChunk, MinChunk)
	}
}

func TestCheckedRejectsOutOfRange(t *testing.T) {
	cases := [][2]float64{
		{float64(offset) * ChunkSize, 0},
		{0, (float64(MinChunk) - 1) * ChunkSize},
		{math.NaN(), 0},
		{0, math.Inf(1)},
	}
	for _, c := range cases {
		if _, err := Checked(c[0], c[1]); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("Checked(%v,%v) err=%v want ErrOutOfRange", c[0], c[1], err)
		}
		if InWorld(c[0], c[1]) {
			t.Fatalf("InWorld(%v,%v) should be false", c[0], c[1])
		}
	}
}

func TestEncodeOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_ = Encode(float64(offset)*ChunkSize, 0)
}

func TestWithinRadius(t *testing.T) {
	center := Encode(0, 0)
	if !WithinRadius(center, center, 0) {
		t.Fatalf("chunk is within radius 0 of itself")
	}
	if !WithinRadius(center, Encode(-39, 59), 2) {
		t.Fatalf("(-2,2) should be within radius 2")
	}
	if WithinRadius(center, Encode(60, 0), 2) {
		t.Fatalf("(3,0) should be outside radius 2")
	}
	if WithinRadius(center, Encode(0, -41), 2) {
		t.Fatalf("(0,-3) should be outside radius 2")
	}
}
