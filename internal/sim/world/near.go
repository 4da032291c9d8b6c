package world

import (
	"sort"

	"waymark.ai/internal/sim/world/logic/chunkid"
)

// NearbyEntity is one result of EntitiesNear.
type NearbyEntity struct {
	Entity    Entity
	Transform Transform
	Player    bool
	Intent    MoveIntent
}

// EntitiesNear lists entities whose chunk is within radius chunks of center's chunk, in
// entity id order. Character transforms without a live entity are skipped.
func (w *World) EntitiesNear(center Vec3, radius int) []NearbyEntity {
	c, err := chunkid.Checked(center.X, center.Z)
	if err != nil || radius < 0 {
		return nil
	}
	var out []NearbyEntity
	for _, trID := range w.store.transformsNear(c, radius) {
		eid, ok := w.store.entityByTransform[trID]
		if !ok {
			continue
		}
		e, ok := w.store.entity(eid)
		if !ok {
			continue
		}
		n := NearbyEntity{Entity: e, Transform: w.store.transforms[trID]}
		_, n.Player = w.store.pawnByEntity[eid]
		if m, ok := w.intent(eid); ok {
			n.Intent = m.Intent
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity.ID < out[j].Entity.ID })
	return out
}
