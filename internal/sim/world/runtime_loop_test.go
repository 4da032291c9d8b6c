package world

import (
	"errors"
	"testing"

	"waymark.ai/internal/persistence/snapshot"
)

func TestSplitSessionLeavesHoldsSameSession(t *testing.T) {
	a := make(chan []byte, 1)
	b := make(chan []byte, 1)
	enters := []EnterRequest{{Identity: "alice", Out: a}}
	leaves := []LeaveRequest{
		{Identity: "alice", Out: a},
		{Identity: "alice", Out: b},
		{Identity: "bob"},
	}
	now, held := splitSessionLeaves(leaves, enters)
	if len(held) != 1 || held[0].Out != a {
		t.Fatalf("held=%+v want the leave from the entering session", held)
	}
	if len(now) != 2 || now[0].Out != b || now[1].Identity != "bob" {
		t.Fatalf("now=%+v", now)
	}
}

func TestHeldLeaveRemovesLateEnter(t *testing.T) {
	w := newTestWorld(t)
	out := make(chan []byte, 8)
	w.enter <- EnterRequest{Identity: "alice", Out: out}
	w.leave <- LeaveRequest{Identity: "alice", Out: out}

	enters, leaves := w.drainPresence(nil, nil)
	if len(enters) != 1 || len(leaves) != 1 {
		t.Fatalf("drained enters=%d leaves=%d", len(enters), len(leaves))
	}
	now, held := splitSessionLeaves(leaves, enters)
	w.stepInternal(w.now(), now, enters, nil, nil, nil)
	if _, ok := w.PawnEntity("alice"); !ok {
		t.Fatalf("expected pawn after the enter tick")
	}
	w.stepInternal(w.now(), held, nil, nil, nil, nil)
	if _, ok := w.PawnEntity("alice"); ok {
		t.Fatalf("held leave did not remove the pawn")
	}
}

func TestServeSnapshotRequestsNeverBlocks(t *testing.T) {
	w := newTestWorld(t)
	if _, err := w.SpawnEntity(Vec3{X: 1}); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	w.StepOnce(StepInput{})

	sink := make(chan snapshot.SnapshotV1, 1)
	w.SetSnapshotSink(sink)

	// Unbuffered reply nobody reads: the caller already gave up.
	gone := snapshotReq{reply: make(chan snapshotReply)}
	waiting := snapshotReq{reply: make(chan snapshotReply, 1)}
	w.serveSnapshotRequests([]snapshotReq{gone, waiting})

	r := <-waiting.reply
	if r.err != nil || r.res.Tick != 0 || r.res.Entities != 1 {
		t.Fatalf("reply=%+v", r)
	}
	if snap := <-sink; snap.Header.Tick != 0 {
		t.Fatalf("snapshot tick=%d want 0", snap.Header.Tick)
	}

	sink <- snapshot.SnapshotV1{}
	w.serveSnapshotRequests([]snapshotReq{waiting})
	if r := <-waiting.reply; !errors.Is(r.err, ErrSnapshotBusy) {
		t.Fatalf("full sink err=%v want ErrSnapshotBusy", r.err)
	}

	w.SetSnapshotSink(nil)
	w.serveSnapshotRequests([]snapshotReq{waiting})
	if r := <-waiting.reply; !errors.Is(r.err, ErrNoSnapshotSink) {
		t.Fatalf("no sink err=%v want ErrNoSnapshotSink", r.err)
	}
}
