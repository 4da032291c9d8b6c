package world

import (
	"errors"
	"fmt"

	modelpkg "waymark.ai/internal/sim/world/kernel/model"
	"waymark.ai/internal/sim/world/logic/chunkid"
)

var (
	ErrAlreadyInWorld = errors.New("identity already has a pawn in the world")
	ErrNotInWorld     = errors.New("identity has no pawn in the world")
	ErrEntityNotFound = errors.New("entity not found")
	ErrPawnEntity     = errors.New("entity is controlled by a pawn; use leave")
	ErrEmptyIdentity  = errors.New("identity is empty")
	// ErrEnterPending means the enter was queued but its result did not arrive in time. It
	// may still be applied.
	ErrEnterPending = errors.New("enter queued without a result")
)

func validatePos(p Vec3) error {
	if _, err := chunkid.Checked(p.X, p.Z); err != nil {
		return fmt.Errorf("invalid position: %w", err)
	}
	return nil
}

// EnterWorld gives identity a pawn. The first enter creates a character whose transform
// starts at the spawn point; later enters resume at the character's last position.
func (w *World) EnterWorld(identity Identity) (entityID uint32, pos Vec3, err error) {
	if identity == "" {
		return 0, Vec3{}, ErrEmptyIdentity
	}
	if _, ok := w.store.pawnFor(identity); ok {
		return 0, Vec3{}, ErrAlreadyInWorld
	}

	ch, ok := w.store.characterFor(identity)
	if ok {
		if _, hasTr := w.store.transform(ch.TransformID); !hasTr {
			w.logf("[world] character %d for %s lost its transform; respawning", ch.ID, identity)
			ok = false
		}
	}
	if !ok {
		tr := modelpkg.NewTransform(w.store.allocTransformID(), w.cfg.Spawn)
		w.store.putTransform(tr)
		if ch.ID == 0 {
			ch = Character{ID: w.store.allocCharacterID(), Identity: identity}
		}
		ch.TransformID = tr.ID
		w.store.putCharacter(ch)
	}

	e := Entity{ID: w.store.allocEntityID(), TransformID: ch.TransformID}
	w.store.putEntity(e)
	w.store.putPawn(CharacterPawn{
		ID:          w.store.allocPawnID(),
		Identity:    identity,
		EntityID:    e.ID,
		CharacterID: ch.ID,
	})
	tr, _ := w.store.transform(ch.TransformID)
	return e.ID, tr.Translation, nil
}

// LeaveWorld removes identity's pawn, its entity and that entity's intent. The character
// and its transform are kept.
func (w *World) LeaveWorld(identity Identity) error {
	p, ok := w.store.pawnFor(identity)
	if !ok {
		return ErrNotInWorld
	}
	w.store.deletePawn(p.ID)
	w.deleteIntent(p.EntityID)
	w.store.deleteEntity(p.EntityID)
	return nil
}

// SpawnEntity places a non-player entity with its own transform at pos.
func (w *World) SpawnEntity(pos Vec3) (uint32, error) {
	if err := validatePos(pos); err != nil {
		return 0, err
	}
	tr := modelpkg.NewTransform(w.store.allocTransformID(), pos)
	w.store.putTransform(tr)
	e := Entity{ID: w.store.allocEntityID(), TransformID: tr.ID}
	w.store.putEntity(e)
	return e.ID, nil
}

// DespawnEntity deletes a non-player entity and its transform. Intents that reference it,
// including its own, are left for the next movement tick to clean up.
func (w *World) DespawnEntity(entityID uint32) error {
	e, ok := w.store.entity(entityID)
	if !ok {
		return ErrEntityNotFound
	}
	if _, isPawn := w.store.pawnByEntity[entityID]; isPawn {
		return ErrPawnEntity
	}
	w.store.deleteEntity(entityID)
	w.store.deleteTransform(e.TransformID)
	return nil
}

// PawnEntity returns the entity controlled by identity, if any.
func (w *World) PawnEntity(identity Identity) (uint32, bool) {
	p, ok := w.store.pawnFor(identity)
	if !ok {
		return 0, false
	}
	return p.EntityID, true
}

// EntityPosition returns the current translation of an entity.
func (w *World) EntityPosition(entityID uint32) (Vec3, bool) {
	e, ok := w.store.entity(entityID)
	if !ok {
		return Vec3{}, false
	}
	tr, ok := w.store.transform(e.TransformID)
	if !ok {
		return Vec3{}, false
	}
	return tr.Translation, true
}

// EntityTransform returns the full transform row of an entity.
func (w *World) EntityTransform(entityID uint32) (Transform, bool) {
	e, ok := w.store.entity(entityID)
	if !ok {
		return Transform{}, false
	}
	return w.store.transform(e.TransformID)
}
