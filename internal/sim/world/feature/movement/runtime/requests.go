package runtime

import (
	"fmt"

	modelpkg "waymark.ai/internal/sim/world/kernel/model"
	"waymark.ai/internal/sim/world/logic/chunkid"
	"waymark.ai/internal/sim/world/logic/movement"
)

type MovementRequestEnv interface {
	PawnFor(identity modelpkg.Identity) (modelpkg.CharacterPawn, bool)
	Entity(id uint32) (modelpkg.Entity, bool)
	Transform(id uint32) (modelpkg.Transform, bool)
	UpsertIntent(m modelpkg.EntityMovement)
}

type RequestParams struct {
	// MaxMoveDistanceSquared bounds every waypoint and chase target relative to the
	// requester's position at request time.
	MaxMoveDistanceSquared float64
}

// HandleRequestMove validates a movement request on behalf of identity and, when accepted,
// replaces that pawn's intent. A rejected request changes nothing.
func HandleRequestMove(env MovementRequestEnv, p RequestParams, identity modelpkg.Identity, intent modelpkg.MoveIntent) error {
	pawn, ok := env.PawnFor(identity)
	if !ok {
		return ErrNoPawn
	}
	self, ok := env.Entity(pawn.EntityID)
	if !ok {
		return ErrMissingEntityState
	}
	selfTr, ok := env.Transform(self.TransformID)
	if !ok {
		return ErrMissingEntityState
	}
	origin := selfTr.Translation.Plane()

	switch it := intent.(type) {
	case modelpkg.ChaseIntent:
		if it.Target == self.ID {
			return ErrSelfTarget
		}
		target, ok := env.Entity(it.Target)
		if !ok {
			return ErrTargetNotFound
		}
		targetTr, ok := env.Transform(target.TransformID)
		if !ok {
			return ErrTargetNotFound
		}
		if movement.DistanceSquared(targetTr.Translation.Plane(), origin) > p.MaxMoveDistanceSquared {
			return ErrOutOfRange
		}

	case modelpkg.PathIntent:
		for i, wp := range it.Waypoints {
			if !chunkid.InWorld(wp.X, wp.Z) {
				return &MoveError{
					Kind:    KindInvalidWaypoint,
					Message: fmt.Sprintf("waypoint %d is not a valid world position", i),
				}
			}
		}
		for i, wp := range it.Waypoints {
			if movement.DistanceSquared(wp.Plane(), origin) > p.MaxMoveDistanceSquared {
				return &MoveError{
					Kind:    KindOutOfRange,
					Message: fmt.Sprintf("waypoint %d isn't within range", i),
				}
			}
		}

	default:
		return ErrInvalidIntent
	}

	env.UpsertIntent(modelpkg.EntityMovement{EntityID: self.ID, Intent: modelpkg.CloneIntent(intent)})
	return nil
}
