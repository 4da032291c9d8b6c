package world

import (
	"fmt"
	"time"

	"waymark.ai/internal/persistence/snapshot"
	"waymark.ai/internal/sim/world/io/snapshotcodec"
)

// NewFromSnapshot builds a world whose tunables come from the snapshot rather than cfg.
// cfg still supplies the world id (when the snapshot has none) and process-level settings.
func NewFromSnapshot(cfg WorldConfig, snap snapshot.SnapshotV1) (*World, error) {
	cfg.TickRateHz = snap.TickRateHz
	cfg.AcceptanceRadius = snap.AcceptanceRadius
	cfg.MoveSpeed = snap.MoveSpeed
	cfg.MaxMoveDistance = snap.MaxMoveDistance
	cfg.ObsRadiusChunks = snap.ObsRadiusChunks
	if snap.SnapshotEveryTicks > 0 {
		cfg.SnapshotEveryTicks = snap.SnapshotEveryTicks
	}
	cfg.Spawn = Vec3{X: snap.Spawn[0], Y: snap.Spawn[1], Z: snap.Spawn[2]}
	cfg.SystemIdentity = Identity(snap.SystemIdentity)
	if snap.Header.WorldID != "" {
		cfg.ID = snap.Header.WorldID
	}
	w, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return nil, err
	}
	return w, nil
}

// ImportSnapshot replaces all simulation state. The next tick executed is Header.Tick+1.
// Clients stay attached. Must be called from the world loop goroutine.
func (w *World) ImportSnapshot(snap snapshot.SnapshotV1) error {
	if snap.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	s := newStore()
	for _, v := range snap.Transforms {
		t, err := snapshotcodec.TransformFromV1(v)
		if err != nil {
			return err
		}
		s.putTransform(t)
	}
	for _, v := range snap.Entities {
		s.putEntity(Entity{ID: v.ID, TransformID: v.TransformID})
	}
	for _, v := range snap.Characters {
		s.putCharacter(Character{ID: v.ID, Identity: Identity(v.Identity), TransformID: v.TransformID})
	}
	for _, v := range snap.Pawns {
		s.putPawn(CharacterPawn{ID: v.ID, Identity: Identity(v.Identity), EntityID: v.EntityID, CharacterID: v.CharacterID})
	}
	for _, v := range snap.Movements {
		m, err := snapshotcodec.MovementFromV1(v)
		if err != nil {
			return err
		}
		s.movements[m.EntityID] = m
	}
	s.nextEntityID = snap.Counters.NextEntityID
	s.nextTransformID = snap.Counters.NextTransformID
	s.nextCharacterID = snap.Counters.NextCharacterID
	s.nextPawnID = snap.Counters.NextPawnID

	timer := MovementTickTimer{
		ScheduledID: snap.Timer.ScheduledID,
		Interval:    time.Duration(snap.Timer.IntervalNanos),
	}
	if timer.Interval <= 0 {
		timer.Interval = w.timer.Interval
	}
	if snap.Timer.LastTickUnixNano != 0 {
		timer.LastTick = time.Unix(0, snap.Timer.LastTickUnixNano)
	}

	w.store = s
	w.timer = timer
	w.tick.Store(snap.Header.Tick + 1)
	w.publish(snap.Header.Tick)
	return nil
}
