package world

import (
	featuremovement "waymark.ai/internal/sim/world/feature/movement"
	movementruntime "waymark.ai/internal/sim/world/feature/movement/runtime"
)

type movementRequestWorldEnv struct {
	w *World
}

func (e movementRequestWorldEnv) PawnFor(identity Identity) (CharacterPawn, bool) {
	return e.w.store.pawnFor(identity)
}

func (e movementRequestWorldEnv) Entity(id uint32) (Entity, bool) {
	return e.w.store.entity(id)
}

func (e movementRequestWorldEnv) Transform(id uint32) (Transform, bool) {
	return e.w.store.transform(id)
}

func (e movementRequestWorldEnv) UpsertIntent(m EntityMovement) {
	e.w.upsertIntent(m)
}

// RequestMove validates and stores a movement intent on behalf of identity, replacing any
// intent its pawn already had. Must run on the world loop goroutine.
func (w *World) RequestMove(identity Identity, intent MoveIntent) error {
	err := movementruntime.HandleRequestMove(movementRequestWorldEnv{w: w}, movementruntime.RequestParams{
		MaxMoveDistanceSquared: featuremovement.MaxDistanceSquared(w.cfg.MaxMoveDistance),
	}, identity, intent)
	if err != nil {
		w.counters.rejected++
		return err
	}
	w.counters.accepted++
	return nil
}
