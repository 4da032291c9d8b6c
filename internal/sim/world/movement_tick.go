package world

import (
	"sort"
	"time"

	movementruntime "waymark.ai/internal/sim/world/feature/movement/runtime"
)

// MovementTickTimer is the state of the recurring movement tick.
type MovementTickTimer struct {
	ScheduledID uint64
	Interval    time.Duration
	// LastTick is the wall time of the previous tick; zero before the first one.
	LastTick time.Time
}

func (t MovementTickTimer) lastTickNanos() int64 {
	if t.LastTick.IsZero() {
		return 0
	}
	return t.LastTick.UnixNano()
}

func (w *World) Timer() MovementTickTimer { return w.timer }

// movementTickWorldEnv buffers translation writes so that every intent in a tick reads the
// positions the tick started with.
type movementTickWorldEnv struct {
	w       *World
	pending map[uint32]Vec3
}

func (e *movementTickWorldEnv) SortedMovements() []EntityMovement { return e.w.sortedMovements() }

func (e *movementTickWorldEnv) Entity(id uint32) (Entity, bool) { return e.w.store.entity(id) }

func (e *movementTickWorldEnv) Transform(id uint32) (Transform, bool) {
	return e.w.store.transform(id)
}

func (e *movementTickWorldEnv) SetTranslation(transformID uint32, pos Vec3) {
	e.pending[transformID] = pos
}

func (e *movementTickWorldEnv) UpdateIntent(m EntityMovement) { e.w.upsertIntent(m) }
func (e *movementTickWorldEnv) DeleteIntent(entityID uint32)  { e.w.deleteIntent(entityID) }

func (e *movementTickWorldEnv) Warnf(format string, args ...any) {
	e.w.logf("[world] "+format, args...)
}

func (e *movementTickWorldEnv) commit() {
	ids := make([]uint32, 0, len(e.pending))
	for id := range e.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		e.w.store.setTranslation(id, e.pending[id])
	}
}

// MovementTick advances every movement intent by the time elapsed since the previous tick.
// Only the world's system identity may call it. It returns the dt it used.
func (w *World) MovementTick(caller Identity, now time.Time) (float64, error) {
	if err := movementruntime.AuthorizeTick(caller, w.cfg.SystemIdentity); err != nil {
		w.logf("[world] rejected movement tick from %q", caller)
		return 0, err
	}
	dt := movementruntime.TickDelta(w.timer.LastTick, now, w.timer.Interval)
	w.timer.LastTick = now
	if w.verbose {
		w.logf("[world] movement tick dt=%.6f", dt)
	}

	env := &movementTickWorldEnv{w: w, pending: map[uint32]Vec3{}}
	res := movementruntime.RunMovementSystem(env, movementruntime.SystemInput{
		DT:               dt,
		AcceptanceRadius: w.cfg.AcceptanceRadius,
		Speed:            w.cfg.MoveSpeed,
	})
	env.commit()

	w.lastMove = res
	w.counters.arrived += uint64(res.Arrived)
	for _, r := range res.Removed {
		if r.Reason.Healed() {
			w.counters.healed++
		}
	}
	return dt, nil
}
