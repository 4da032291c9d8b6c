package world

import modelpkg "waymark.ai/internal/sim/world/kernel/model"

// Intent rows are keyed by entity id, so a second write for the same entity replaces the
// first and there is never more than one intent per entity.

func (w *World) upsertIntent(m EntityMovement) {
	w.store.movements[m.EntityID] = m
}

func (w *World) deleteIntent(entityID uint32) {
	delete(w.store.movements, entityID)
}

func (w *World) intent(entityID uint32) (EntityMovement, bool) {
	m, ok := w.store.movements[entityID]
	return m, ok
}

func (w *World) sortedMovements() []EntityMovement {
	keys := sortedKeys(w.store.movements)
	out := make([]EntityMovement, 0, len(keys))
	for _, k := range keys {
		out = append(out, w.store.movements[k])
	}
	return out
}

// Intents returns a detached copy of every intent row in entity id order.
// It must be called from the world loop goroutine (or while the loop is not running).
func (w *World) Intents() []EntityMovement {
	rows := w.sortedMovements()
	for i := range rows {
		rows[i].Intent = modelpkg.CloneIntent(rows[i].Intent)
	}
	return rows
}
