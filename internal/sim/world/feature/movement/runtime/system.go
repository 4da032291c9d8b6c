package runtime

import (
	modelpkg "waymark.ai/internal/sim/world/kernel/model"
	"waymark.ai/internal/sim/world/logic/movement"
)

type SystemInput struct {
	DT               float64
	AcceptanceRadius float64
	Speed            float64
}

// MovementSystemEnv is the world as seen by one movement tick. Entity and Transform must
// return start-of-tick state even after SetTranslation was called in the same tick.
type MovementSystemEnv interface {
	SortedMovements() []modelpkg.EntityMovement
	Entity(id uint32) (modelpkg.Entity, bool)
	Transform(id uint32) (modelpkg.Transform, bool)

	SetTranslation(transformID uint32, pos modelpkg.Vec3)
	UpdateIntent(m modelpkg.EntityMovement)
	DeleteIntent(entityID uint32)

	Warnf(format string, args ...any)
}

type RemovalReason string

const (
	RemovalArrived                RemovalReason = "ARRIVED"
	RemovalPathComplete           RemovalReason = "PATH_COMPLETE"
	RemovalPathEmpty              RemovalReason = "PATH_EMPTY"
	RemovalSourceMissing          RemovalReason = "SOURCE_MISSING"
	RemovalSourceTransformMissing RemovalReason = "SOURCE_TRANSFORM_MISSING"
	RemovalTargetMissing          RemovalReason = "TARGET_MISSING"
	RemovalTargetTransformMissing RemovalReason = "TARGET_TRANSFORM_MISSING"
	RemovalInvalidIntent          RemovalReason = "INVALID_INTENT"
)

// Healed reports whether the removal cleaned up a dangling reference rather than ending a
// completed move.
func (r RemovalReason) Healed() bool {
	switch r {
	case RemovalArrived, RemovalPathComplete, RemovalPathEmpty:
		return false
	default:
		return true
	}
}

type Removal struct {
	EntityID uint32        `json:"entity_id"`
	Reason   RemovalReason `json:"reason"`
}

type SystemResult struct {
	Moved   int
	Arrived int
	Removed []Removal
}

// RunMovementSystem advances every movement intent by one tick in entity id order.
func RunMovementSystem(env MovementSystemEnv, in SystemInput) SystemResult {
	var res SystemResult
	if env == nil {
		return res
	}
	remove := func(id uint32, reason RemovalReason) {
		env.DeleteIntent(id)
		res.Removed = append(res.Removed, Removal{EntityID: id, Reason: reason})
	}

	for _, m := range env.SortedMovements() {
		self, ok := env.Entity(m.EntityID)
		if !ok {
			env.Warnf("movement: source entity %d not found", m.EntityID)
			remove(m.EntityID, RemovalSourceMissing)
			continue
		}
		selfTr, ok := env.Transform(self.TransformID)
		if !ok {
			env.Warnf("movement: transform %d for entity %d not found", self.TransformID, self.ID)
			remove(m.EntityID, RemovalSourceTransformMissing)
			continue
		}

		switch it := m.Intent.(type) {
		case modelpkg.ChaseIntent:
			target, ok := env.Entity(it.Target)
			if !ok {
				env.Warnf("movement: target entity %d for entity %d not found", it.Target, self.ID)
				remove(m.EntityID, RemovalTargetMissing)
				continue
			}
			targetTr, ok := env.Transform(target.TransformID)
			if !ok {
				env.Warnf("movement: transform %d for target entity %d not found", target.TransformID, target.ID)
				remove(m.EntityID, RemovalTargetTransformMissing)
				continue
			}
			r := movement.Step(selfTr.Translation.Plane(), targetTr.Translation.Plane(), in.AcceptanceRadius, in.Speed, in.DT)
			moveTo(env, selfTr, r.NewPosition)
			res.Moved++
			if r.Finished {
				res.Arrived++
				remove(m.EntityID, RemovalArrived)
			}

		case modelpkg.PathIntent:
			if len(it.Waypoints) == 0 {
				remove(m.EntityID, RemovalPathEmpty)
				continue
			}
			r := movement.Step(selfTr.Translation.Plane(), it.Waypoints[0].Plane(), in.AcceptanceRadius, in.Speed, in.DT)
			moveTo(env, selfTr, r.NewPosition)
			res.Moved++
			if !r.Finished {
				continue
			}
			res.Arrived++
			if len(it.Waypoints) == 1 {
				remove(m.EntityID, RemovalPathComplete)
				continue
			}
			rest := append([]modelpkg.Vec3(nil), it.Waypoints[1:]...)
			env.UpdateIntent(modelpkg.EntityMovement{EntityID: m.EntityID, Intent: modelpkg.PathIntent{Waypoints: rest}})

		default:
			env.Warnf("movement: entity %d has unknown intent %T", m.EntityID, m.Intent)
			remove(m.EntityID, RemovalInvalidIntent)
		}
	}
	return res
}

// moveTo writes the planar position and leaves the draw-order axis untouched.
func moveTo(env MovementSystemEnv, tr modelpkg.Transform, p movement.Vec2) {
	env.SetTranslation(tr.ID, modelpkg.Vec3{X: p.X, Y: tr.Translation.Y, Z: p.Z})
}
