package world

import (
	"testing"

	modelpkg "waymark.ai/internal/sim/world/kernel/model"
	"waymark.ai/internal/sim/world/logic/chunkid"
)

func TestStoreChunkIndexFollowsTranslation(t *testing.T) {
	s := newStore()
	tr := modelpkg.NewTransform(s.allocTransformID(), Vec3{X: 1, Z: 1})
	s.putTransform(tr)

	origin := chunkid.Encode(0, 0)
	if _, ok := s.chunks[origin][tr.ID]; !ok {
		t.Fatalf("transform not indexed in origin chunk")
	}

	if !s.setTranslation(tr.ID, Vec3{X: 45, Z: -3}) {
		t.Fatalf("setTranslation failed")
	}
	moved := chunkid.Encode(45, -3)
	if got := s.transforms[tr.ID].ChunkID; got != moved {
		t.Fatalf("chunk=%#x want %#x", uint32(got), uint32(moved))
	}
	if _, ok := s.chunks[origin]; ok {
		t.Fatalf("empty origin bucket should be dropped")
	}
	if _, ok := s.chunks[moved][tr.ID]; !ok {
		t.Fatalf("transform not indexed in new chunk")
	}

	s.deleteTransform(tr.ID)
	if len(s.chunks) != 0 {
		t.Fatalf("chunks=%v want empty", s.chunks)
	}
	if s.setTranslation(tr.ID, Vec3{}) {
		t.Fatalf("setTranslation on a deleted transform should report false")
	}
}

func TestStoreTransformsNear(t *testing.T) {
	s := newStore()
	for _, p := range []Vec3{{X: 0}, {X: 39}, {X: 41}, {Z: -41}, {X: -20, Z: 20}} {
		s.putTransform(modelpkg.NewTransform(s.allocTransformID(), p))
	}
	got := s.transformsNear(chunkid.Encode(0, 0), 1)
	want := []uint32{1, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("near=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("near=%v want %v", got, want)
		}
	}
}

func TestStorePawnIndexes(t *testing.T) {
	s := newStore()
	s.putPawn(CharacterPawn{ID: 1, Identity: "alice", EntityID: 7, CharacterID: 1})
	if p, ok := s.pawnFor("alice"); !ok || p.EntityID != 7 {
		t.Fatalf("pawnFor=%+v ok=%v", p, ok)
	}
	s.deletePawn(1)
	if _, ok := s.pawnFor("alice"); ok {
		t.Fatalf("pawn index not cleared")
	}
	if _, ok := s.pawnByEntity[7]; ok {
		t.Fatalf("entity index not cleared")
	}
}
