package world

import (
	"math"
	"testing"
	"time"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := New(WorldConfig{ID: "t", TickRateHz: 30, SystemIdentity: "sys"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestMovementTickReadsStartOfTickPositions(t *testing.T) {
	w := newTestWorld(t)
	leader, _ := w.SpawnEntity(Vec3{X: 10})
	follower, _ := w.SpawnEntity(Vec3{})
	w.upsertIntent(EntityMovement{EntityID: leader, Intent: PathIntent{Waypoints: []Vec3{{X: 10, Z: 10}}}})
	w.upsertIntent(EntityMovement{EntityID: follower, Intent: ChaseIntent{Target: leader}})

	if _, err := w.MovementTick("sys", time.Unix(100, 0)); err != nil {
		t.Fatalf("MovementTick: %v", err)
	}
	lp, _ := w.EntityPosition(leader)
	fp, _ := w.EntityPosition(follower)
	if lp.Z <= 0 {
		t.Fatalf("leader did not move: %+v", lp)
	}
	// The follower aims at where the leader was when the tick started.
	if fp.Z != 0 || math.Abs(fp.X-5.0/30) > 1e-6 {
		t.Fatalf("follower=%+v want {%v 0 0}", fp, 5.0/30)
	}
	if !w.Timer().LastTick.Equal(time.Unix(100, 0)) {
		t.Fatalf("last tick=%v", w.Timer().LastTick)
	}
}

func TestMovementTickHealsOwnEntityMissing(t *testing.T) {
	w := newTestWorld(t)
	id, _ := w.SpawnEntity(Vec3{})
	w.upsertIntent(EntityMovement{EntityID: id, Intent: PathIntent{Waypoints: []Vec3{{X: 5}}}})
	if err := w.DespawnEntity(id); err != nil {
		t.Fatalf("despawn: %v", err)
	}
	if _, ok := w.intent(id); !ok {
		t.Fatalf("despawn should leave the intent for the tick to clean up")
	}
	if _, err := w.MovementTick("sys", time.Unix(100, 0)); err != nil {
		t.Fatalf("MovementTick: %v", err)
	}
	if _, ok := w.intent(id); ok {
		t.Fatalf("orphaned intent not removed")
	}
	if len(w.lastMove.Removed) != 1 || !w.lastMove.Removed[0].Reason.Healed() {
		t.Fatalf("removed=%+v", w.lastMove.Removed)
	}
	if w.counters.healed != 1 {
		t.Fatalf("healed=%d want 1", w.counters.healed)
	}
}

func TestNewGeneratesSystemIdentity(t *testing.T) {
	w, err := New(WorldConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.SystemIdentity() == "" {
		t.Fatalf("empty system identity")
	}
	if _, err := w.MovementTick("", time.Now()); err == nil {
		t.Fatalf("empty caller must be rejected")
	}
	if _, err := New(WorldConfig{Spawn: Vec3{X: math.Inf(1)}}); err == nil {
		t.Fatalf("expected error for spawn outside the world")
	}
}
