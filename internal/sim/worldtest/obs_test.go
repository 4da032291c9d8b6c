package worldtest

import (
	"testing"

	world "waymark.ai/internal/sim/world"
	"waymark.ai/internal/sim/world/logic/chunkid"
)

func TestObsIncludesOnlyNearbyChunks(t *testing.T) {
	h := NewHarness(t, DefaultConfig())
	alice := h.Enter("alice")
	near := h.Spawn(world.Vec3{X: 30, Z: -30})
	far := h.Spawn(world.Vec3{X: 100})
	bob := h.Enter("bob")

	obs := h.Obs("alice")
	if obs.Self == nil || obs.Self.EntityID != alice || !obs.Self.Player {
		t.Fatalf("self=%+v", obs.Self)
	}
	seen := map[uint32]bool{}
	for _, e := range obs.Entities {
		seen[e.EntityID] = true
	}
	if !seen[near] || !seen[bob] {
		t.Fatalf("obs entities=%+v; expected %d and %d", obs.Entities, near, bob)
	}
	if seen[far] || seen[alice] {
		t.Fatalf("obs entities=%+v; must exclude far entity and self", obs.Entities)
	}
	for i := 1; i < len(obs.Entities); i++ {
		if obs.Entities[i-1].EntityID >= obs.Entities[i].EntityID {
			t.Fatalf("obs entities not in id order: %+v", obs.Entities)
		}
	}

	if _, ok := h.W.BuildObs("nobody", h.W.CurrentTick()); ok {
		t.Fatalf("identity without pawn has no obs")
	}
}

func TestChunkFollowsMovement(t *testing.T) {
	h := NewHarness(t, DefaultConfig())
	eid := h.Enter("alice")
	start := h.Obs("alice").Self.ChunkID
	if start != uint32(chunkid.Encode(0, 0)) {
		t.Fatalf("chunk=%#x want origin chunk", start)
	}
	if err := h.Move("alice", world.PathIntent{Waypoints: []world.Vec3{{X: 25}}}); err != nil {
		t.Fatalf("move: %v", err)
	}
	h.StepUntilIdle(eid, 300)

	self := h.Obs("alice").Self
	if want := uint32(chunkid.Encode(24.5, 0)); self.ChunkID != want {
		t.Fatalf("chunk=%#x want %#x", self.ChunkID, want)
	}
	tr, ok := h.W.EntityTransform(eid)
	if !ok || uint32(tr.ChunkID) != self.ChunkID {
		t.Fatalf("transform chunk=%#x obs chunk=%#x", uint32(tr.ChunkID), self.ChunkID)
	}

	// The old chunk no longer lists the entity.
	for _, n := range h.W.EntitiesNear(world.Vec3{X: 5}, 0) {
		if n.Entity.ID == eid {
			t.Fatalf("entity still indexed in its old chunk")
		}
	}
	found := false
	for _, n := range h.W.EntitiesNear(world.Vec3{X: 39}, 0) {
		found = found || n.Entity.ID == eid
	}
	if !found {
		t.Fatalf("entity not indexed in its new chunk")
	}
}

func TestObsCarriesIntent(t *testing.T) {
	h := NewHarness(t, DefaultConfig())
	h.Enter("alice")
	bob := h.Enter("bob")
	if err := h.Move("bob", world.PathIntent{Waypoints: []world.Vec3{{X: 40}}}); err != nil {
		t.Fatalf("move: %v", err)
	}
	obs := h.Obs("alice")
	var got *world.Vec3
	for _, e := range obs.Entities {
		if e.EntityID == bob && e.Intent != nil && e.Intent.Kind == "PATH" && len(e.Intent.Path) == 1 {
			p := world.Vec3{X: e.Intent.Path[0][0], Y: e.Intent.Path[0][1], Z: e.Intent.Path[0][2]}
			got = &p
		}
	}
	if got == nil || *got != (world.Vec3{X: 40}) {
		t.Fatalf("bob's intent missing from obs: %+v", obs.Entities)
	}
}
