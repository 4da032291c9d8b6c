package snapshotcodec

import (
	"testing"

	"waymark.ai/internal/persistence/snapshot"
	modelpkg "waymark.ai/internal/sim/world/kernel/model"
	"waymark.ai/internal/sim/world/logic/chunkid"
)

func TestTransformFromV1RecomputesChunk(t *testing.T) {
	tr := modelpkg.NewTransform(1, modelpkg.Vec3{X: -30, Y: 1, Z: 45})
	back, err := TransformFromV1(TransformToV1(tr))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back != tr {
		t.Fatalf("got %+v want %+v", back, tr)
	}

	v := TransformToV1(tr)
	v.ChunkID++
	if _, err := TransformFromV1(v); err == nil {
		t.Fatalf("expected chunk id mismatch error")
	}
	v.ChunkID = 0
	v.Translation[0] = 1e12
	if _, err := TransformFromV1(v); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestTransformFromV1ChecksChunkZero(t *testing.T) {
	corner := float64(chunkid.MinChunk) * chunkid.ChunkSize
	tr := modelpkg.NewTransform(2, modelpkg.Vec3{X: corner, Z: corner})
	v := TransformToV1(tr)
	if v.ChunkID != 0 {
		t.Fatalf("corner chunk id=%#x want 0", v.ChunkID)
	}
	if back, err := TransformFromV1(v); err != nil || back != tr {
		t.Fatalf("back=%+v err=%v", back, err)
	}

	// A stored 0 must still match the translation.
	other := TransformToV1(modelpkg.NewTransform(3, modelpkg.Vec3{X: 5, Z: 5}))
	other.ChunkID = 0
	if _, err := TransformFromV1(other); err == nil {
		t.Fatalf("expected mismatch for stored chunk id 0")
	}
}

func TestMovementFromV1RejectsUnknownKind(t *testing.T) {
	if _, err := MovementFromV1(snapshot.MovementV1{EntityID: 1, Kind: "FLY"}); err == nil {
		t.Fatalf("expected error")
	}
	m, err := MovementFromV1(MovementToV1(modelpkg.EntityMovement{EntityID: 4, Intent: modelpkg.ChaseIntent{Target: 2}}))
	if err != nil || m.Intent != (modelpkg.ChaseIntent{Target: 2}) {
		t.Fatalf("m=%+v err=%v", m, err)
	}
}
