// Package snapshotcodec converts between world model rows and their snapshot form.
package snapshotcodec

import (
	"fmt"

	"waymark.ai/internal/persistence/snapshot"
	modelpkg "waymark.ai/internal/sim/world/kernel/model"
	"waymark.ai/internal/sim/world/logic/chunkid"
)

func TransformToV1(t modelpkg.Transform) snapshot.TransformV1 {
	return snapshot.TransformV1{
		ID:          t.ID,
		Translation: t.Translation.Array(),
		Rotation:    [4]float64{t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W},
		Scale:       t.Scale.Array(),
		ChunkID:     uint32(t.ChunkID),
	}
}

// TransformFromV1 recomputes the chunk id from the translation and requires the stored id
// to agree. Every v1 snapshot stores it, and id 0 is the real chunk (MinChunk, MinChunk).
func TransformFromV1(v snapshot.TransformV1) (modelpkg.Transform, error) {
	pos := modelpkg.Vec3FromArray(v.Translation)
	id, err := chunkid.Checked(pos.X, pos.Z)
	if err != nil {
		return modelpkg.Transform{}, fmt.Errorf("transform %d: %w", v.ID, err)
	}
	if chunkid.ID(v.ChunkID) != id {
		return modelpkg.Transform{}, fmt.Errorf("transform %d: chunk id %#x does not match translation", v.ID, v.ChunkID)
	}
	return modelpkg.Transform{
		ID:          v.ID,
		Translation: pos,
		Rotation:    modelpkg.Quat{X: v.Rotation[0], Y: v.Rotation[1], Z: v.Rotation[2], W: v.Rotation[3]},
		Scale:       modelpkg.Vec3FromArray(v.Scale),
		ChunkID:     id,
	}, nil
}

func MovementToV1(m modelpkg.EntityMovement) snapshot.MovementV1 {
	kind, path, target := modelpkg.IntentToWire(m.Intent)
	return snapshot.MovementV1{EntityID: m.EntityID, Kind: kind, Path: path, Target: target}
}

func MovementFromV1(v snapshot.MovementV1) (modelpkg.EntityMovement, error) {
	intent, err := modelpkg.IntentFromWire(v.Kind, v.Path, v.Target)
	if err != nil {
		return modelpkg.EntityMovement{}, fmt.Errorf("movement for entity %d: %w", v.EntityID, err)
	}
	return modelpkg.EntityMovement{EntityID: v.EntityID, Intent: intent}, nil
}
