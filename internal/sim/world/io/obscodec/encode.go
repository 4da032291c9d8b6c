// Package obscodec converts world state into OBS wire structures.
package obscodec

import (
	"waymark.ai/internal/protocol"
	modelpkg "waymark.ai/internal/sim/world/kernel/model"
)

func EncodeIntent(in modelpkg.MoveIntent) *protocol.IntentObs {
	if in == nil {
		return nil
	}
	kind, path, target := modelpkg.IntentToWire(in)
	if kind == "" {
		return nil
	}
	return &protocol.IntentObs{Kind: kind, Path: path, Target: target}
}

// EncodeEntity builds the OBS view of one entity. intent may be nil.
func EncodeEntity(e modelpkg.Entity, tr modelpkg.Transform, player bool, intent modelpkg.MoveIntent) protocol.EntityObs {
	return protocol.EntityObs{
		EntityID: e.ID,
		Pos:      tr.Translation.Array(),
		ChunkID:  uint32(tr.ChunkID),
		Player:   player,
		Intent:   EncodeIntent(intent),
	}
}
