package world

import (
	"waymark.ai/internal/persistence/snapshot"
	"waymark.ai/internal/sim/world/io/snapshotcodec"
)

func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	// Snapshot must be called from the world loop goroutine.
	s := w.store
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
		},
		TickRateHz:         w.cfg.TickRateHz,
		AcceptanceRadius:   w.cfg.AcceptanceRadius,
		MoveSpeed:          w.cfg.MoveSpeed,
		MaxMoveDistance:    w.cfg.MaxMoveDistance,
		ObsRadiusChunks:    w.cfg.ObsRadiusChunks,
		SnapshotEveryTicks: w.cfg.SnapshotEveryTicks,
		Spawn:              w.cfg.Spawn.Array(),
		SystemIdentity:     string(w.cfg.SystemIdentity),
		Timer: snapshot.TickTimerV1{
			ScheduledID:      w.timer.ScheduledID,
			IntervalNanos:    int64(w.timer.Interval),
			LastTickUnixNano: w.timer.lastTickNanos(),
		},
		Counters: snapshot.CountersV1{
			NextEntityID:    s.nextEntityID,
			NextTransformID: s.nextTransformID,
			NextCharacterID: s.nextCharacterID,
			NextPawnID:      s.nextPawnID,
		},
	}

	for _, id := range sortedKeys(s.entities) {
		e := s.entities[id]
		snap.Entities = append(snap.Entities, snapshot.EntityV1{ID: e.ID, TransformID: e.TransformID})
	}
	for _, id := range sortedKeys(s.transforms) {
		snap.Transforms = append(snap.Transforms, snapshotcodec.TransformToV1(s.transforms[id]))
	}
	for _, id := range sortedKeys(s.characters) {
		c := s.characters[id]
		snap.Characters = append(snap.Characters, snapshot.CharacterV1{ID: c.ID, Identity: string(c.Identity), TransformID: c.TransformID})
	}
	for _, id := range sortedKeys(s.pawns) {
		p := s.pawns[id]
		snap.Pawns = append(snap.Pawns, snapshot.PawnV1{ID: p.ID, Identity: string(p.Identity), EntityID: p.EntityID, CharacterID: p.CharacterID})
	}
	for _, id := range sortedKeys(s.movements) {
		snap.Movements = append(snap.Movements, snapshotcodec.MovementToV1(s.movements[id]))
	}
	return snap
}
