package world

import (
	"encoding/json"
	"errors"
	"time"

	"waymark.ai/internal/protocol"
	movementruntime "waymark.ai/internal/sim/world/feature/movement/runtime"
	modelpkg "waymark.ai/internal/sim/world/kernel/model"
)

func (w *World) stepInternal(now time.Time, leaves []LeaveRequest, enters []EnterRequest, despawns []DespawnRequest, spawns []SpawnRequest, moves []MoveRequest) string {
	stepStart := time.Now()
	nowTick := w.tick.Load()
	// Wall time only; monotonic readings cannot be replayed from the log.
	now = time.Unix(0, now.UnixNano())

	// Presence changes apply at the tick boundary, leaves first.
	recordedLeaves := make([]Identity, 0, len(leaves))
	for _, req := range leaves {
		err := w.LeaveWorld(req.Identity)
		delete(w.clients, req.Identity)
		if err == nil {
			recordedLeaves = append(recordedLeaves, req.Identity)
			w.audit(AuditEntry{Tick: nowTick, Actor: req.Identity, Action: "LEAVE"})
		}
		replyErr(req.Resp, err)
	}

	recordedEnters := make([]RecordedEnter, 0, len(enters))
	for _, req := range enters {
		eid, pos, err := w.EnterWorld(req.Identity)
		rec := RecordedEnter{Identity: req.Identity, EntityID: eid}
		res := protocol.EnterResultMsg{
			Type:            protocol.TypeEnterResult,
			ProtocolVersion: protocol.Version,
			ReqID:           req.ReqID,
			OK:              err == nil,
			EntityID:        eid,
			Pos:             pos.Array(),
		}
		if err != nil {
			rec.Code = presenceErrorCode(err)
			res.Code = rec.Code
			res.Message = err.Error()
		} else {
			if req.Out != nil {
				w.clients[req.Identity] = &clientState{Out: req.Out}
			}
			w.audit(AuditEntry{Tick: nowTick, Actor: req.Identity, Action: "ENTER", EntityID: eid})
		}
		recordedEnters = append(recordedEnters, rec)
		if req.Out != nil {
			if b, mErr := json.Marshal(res); mErr == nil {
				trySend(req.Out, b)
			}
		}
		if req.Resp != nil {
			select {
			case req.Resp <- EnterResult{EntityID: eid, Pos: pos, Err: err}:
			default:
			}
		}
	}

	recordedDespawns := make([]uint32, 0, len(despawns))
	for _, req := range despawns {
		err := w.DespawnEntity(req.EntityID)
		if err == nil {
			recordedDespawns = append(recordedDespawns, req.EntityID)
			w.audit(AuditEntry{Tick: nowTick, Action: "DESPAWN", EntityID: req.EntityID})
		}
		replyErr(req.Resp, err)
	}
	recordedSpawns := make([]RecordedSpawn, 0, len(spawns))
	for _, req := range spawns {
		eid, err := w.SpawnEntity(req.Pos)
		if err == nil {
			recordedSpawns = append(recordedSpawns, RecordedSpawn{Pos: req.Pos.Array(), EntityID: eid})
			w.audit(AuditEntry{Tick: nowTick, Action: "SPAWN", EntityID: eid})
		}
		if req.Resp != nil {
			select {
			case req.Resp <- SpawnResult{EntityID: eid, Err: err}:
			default:
			}
		}
	}

	// Move requests in arrival order; a later request from the same identity replaces an
	// earlier one.
	recordedMoves := make([]RecordedMove, 0, len(moves))
	for _, req := range moves {
		err := w.RequestMove(req.Identity, req.Intent)
		rec := recordMove(req, err)
		recordedMoves = append(recordedMoves, rec)
		if err != nil {
			if movementruntime.IsValidation(err) {
				w.logf("[world] move from %s rejected: %v", req.Identity, err)
			} else {
				w.logf("[world] WARN move from %s failed: %v", req.Identity, err)
			}
			w.audit(AuditEntry{Tick: nowTick, Actor: req.Identity, Action: "MOVE_REJECTED", Code: rec.Code, Reason: err.Error()})
		}
		w.replyMove(req, nowTick, err)
	}

	dt, _ := w.MovementTick(w.cfg.SystemIdentity, now)
	for _, r := range w.lastMove.Removed {
		if r.Reason.Healed() {
			w.audit(AuditEntry{Tick: nowTick, Action: "INTENT_HEALED", EntityID: r.EntityID, Reason: string(r.Reason)})
		}
	}

	if nowTick%uint64(w.cfg.ObsEveryTicks) == 0 {
		w.sendObs(nowTick)
	}

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:        nowTick,
			NowUnixNano: now.UnixNano(),
			DT:          dt,
			Leaves:      recordedLeaves,
			Enters:      recordedEnters,
			Despawns:    recordedDespawns,
			Spawns:      recordedSpawns,
			Moves:       recordedMoves,
			Removed:     w.lastMove.Removed,
			Digest:      digest,
		})
	}

	// Snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.cfg.SnapshotEveryTicks > 0 {
		if nowTick%uint64(w.cfg.SnapshotEveryTicks) == 0 {
			if _, err := w.offerSnapshot(nowTick); err != nil {
				w.logf("[world] scheduled snapshot at tick %d skipped: %v", nowTick, err)
			}
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	w.tick.Add(1)
	w.storeMetrics(stepMS, dt)
	w.publish(nowTick)
	return digest
}

func (w *World) audit(e AuditEntry) {
	if w.auditLogger != nil {
		_ = w.auditLogger.WriteAudit(e)
	}
}

func (w *World) replyMove(req MoveRequest, tick uint64, err error) {
	if req.Resp != nil {
		select {
		case req.Resp <- MoveResult{ReqID: req.ReqID, Tick: tick, Err: err}:
		default:
		}
	}
	cl := w.clients[req.Identity]
	if cl == nil {
		return
	}
	msg := protocol.MoveResultMsg{
		Type:            protocol.TypeMoveResult,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
		OK:              err == nil,
		Tick:            tick,
	}
	if err != nil {
		msg.Code = movementruntime.ErrorCode(err)
		msg.Message = err.Error()
	}
	if b, mErr := json.Marshal(msg); mErr == nil {
		trySend(cl.Out, b)
	}
}

func recordMove(req MoveRequest, err error) RecordedMove {
	kind, path, target := modelpkg.IntentToWire(req.Intent)
	rec := RecordedMove{
		Identity: req.Identity,
		ReqID:    req.ReqID,
		Kind:     kind,
		Path:     path,
		Target:   target,
		OK:       err == nil,
	}
	if err != nil {
		rec.Code = movementruntime.ErrorCode(err)
	}
	return rec
}

func intentFromRecord(m RecordedMove) (MoveIntent, error) {
	if m.Kind == "" {
		// Requests without a recognised intent are replayed as such so they are rejected again.
		return nil, nil
	}
	return modelpkg.IntentFromWire(m.Kind, m.Path, m.Target)
}

func presenceErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyInWorld):
		return protocol.ErrAlreadyInWorld
	case errors.Is(err, ErrEmptyIdentity):
		return protocol.ErrUnauthorized
	default:
		return protocol.ErrInternal
	}
}

func replyErr(ch chan error, err error) {
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}

// trySend never blocks the world loop; a client that stops reading loses frames.
func trySend(ch chan []byte, b []byte) {
	select {
	case ch <- b:
	default:
	}
}

// sendLatest replaces the oldest queued frame when the client is behind.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
