package world

import (
	"context"
	"time"
)

// Run drives the world at the configured tick rate. Requests arriving between ticks are
// queued and applied at the next tick boundary, before movement is resolved.
func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.timer.Interval)
	defer ticker.Stop()

	var pendingMoves []MoveRequest
	var pendingEnters []EnterRequest
	var pendingLeaves []LeaveRequest
	var pendingSpawns []SpawnRequest
	var pendingDespawns []DespawnRequest
	var pendingSnapshots []snapshotReq

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.enter:
			pendingEnters = append(pendingEnters, req)
		case req := <-w.leave:
			pendingLeaves = append(pendingLeaves, req)
		case req := <-w.spawn:
			pendingSpawns = append(pendingSpawns, req)
		case req := <-w.despawn:
			pendingDespawns = append(pendingDespawns, req)
		case req := <-w.snapshots:
			pendingSnapshots = append(pendingSnapshots, req)
		case req := <-w.requests:
			pendingMoves = append(pendingMoves, req)
		case <-ticker.C:
			pendingEnters, pendingLeaves = w.drainPresence(pendingEnters, pendingLeaves)
			leaves, held := splitSessionLeaves(pendingLeaves, pendingEnters)
			w.stepInternal(w.now(), leaves, pendingEnters, pendingDespawns, pendingSpawns, pendingMoves)
			w.serveSnapshotRequests(pendingSnapshots)
			pendingMoves = pendingMoves[:0]
			pendingEnters = pendingEnters[:0]
			pendingLeaves = append(pendingLeaves[:0], held...)
			pendingSpawns = pendingSpawns[:0]
			pendingDespawns = pendingDespawns[:0]
			pendingSnapshots = pendingSnapshots[:0]
		}
	}
}

// drainPresence picks up presence requests that are already buffered so that a leave is
// never seen without the enter its session queued before it.
func (w *World) drainPresence(enters []EnterRequest, leaves []LeaveRequest) ([]EnterRequest, []LeaveRequest) {
	for {
		select {
		case req := <-w.enter:
			enters = append(enters, req)
		case req := <-w.leave:
			leaves = append(leaves, req)
		default:
			return enters, leaves
		}
	}
}

// splitSessionLeaves holds back leaves whose session also has an enter in this batch. Leaves
// apply before enters within a tick, so those are deferred to the next one.
func splitSessionLeaves(leaves []LeaveRequest, enters []EnterRequest) (now, held []LeaveRequest) {
	if len(leaves) == 0 {
		return nil, nil
	}
	sessions := make(map[chan []byte]struct{}, len(enters))
	for _, e := range enters {
		if e.Out != nil {
			sessions[e.Out] = struct{}{}
		}
	}
	for _, l := range leaves {
		if _, ok := sessions[l.Out]; ok && l.Out != nil {
			held = append(held, l)
			continue
		}
		now = append(now, l)
	}
	return now, held
}

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce(in StepInput) (tick uint64, digest string) {
	leaves := make([]LeaveRequest, 0, len(in.Leaves))
	for _, id := range in.Leaves {
		leaves = append(leaves, LeaveRequest{Identity: id})
	}
	enters := make([]EnterRequest, 0, len(in.Enters))
	for _, id := range in.Enters {
		enters = append(enters, EnterRequest{Identity: id})
	}
	despawns := make([]DespawnRequest, 0, len(in.Despawns))
	for _, id := range in.Despawns {
		despawns = append(despawns, DespawnRequest{EntityID: id})
	}
	spawns := make([]SpawnRequest, 0, len(in.Spawns))
	for _, p := range in.Spawns {
		spawns = append(spawns, SpawnRequest{Pos: p})
	}
	now := in.Now
	if now.IsZero() {
		now = w.now()
	}
	tick = w.tick.Load()
	digest = w.stepInternal(now, leaves, enters, despawns, spawns, in.Moves)
	return tick, digest
}
