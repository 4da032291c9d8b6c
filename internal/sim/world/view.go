package world

import (
	"waymark.ai/internal/protocol"
	"waymark.ai/internal/sim/world/io/obscodec"
)

// StateView is an immutable copy of the world published after every tick for readers on
// other goroutines (admin HTTP, index writers).
type StateView struct {
	WorldID  string               `json:"world_id"`
	Tick     uint64               `json:"tick"`
	Entities []protocol.EntityObs `json:"entities"`
	Intents  []IntentView         `json:"intents"`
}

type IntentView struct {
	EntityID uint32       `json:"entity_id"`
	Kind     string       `json:"kind"`
	Path     [][3]float64 `json:"path,omitempty"`
	Target   uint32       `json:"target,omitempty"`
}

func (w *World) publish(tick uint64) {
	s := w.store
	v := StateView{WorldID: w.cfg.ID, Tick: tick, Entities: []protocol.EntityObs{}, Intents: []IntentView{}}
	for _, id := range sortedKeys(s.entities) {
		e := s.entities[id]
		tr, ok := s.transforms[e.TransformID]
		if !ok {
			continue
		}
		_, player := s.pawnByEntity[id]
		var intent MoveIntent
		if m, ok := s.movements[id]; ok {
			intent = m.Intent
		}
		v.Entities = append(v.Entities, obscodec.EncodeEntity(e, tr, player, intent))
	}
	for _, m := range w.sortedMovements() {
		enc := obscodec.EncodeIntent(m.Intent)
		if enc == nil {
			continue
		}
		v.Intents = append(v.Intents, IntentView{EntityID: m.EntityID, Kind: enc.Kind, Path: enc.Path, Target: enc.Target})
	}
	w.view.Store(v)
}

// View returns the state published after the most recent tick. Safe from any goroutine.
func (w *World) View() StateView {
	if w == nil {
		return StateView{}
	}
	v, _ := w.view.Load().(StateView)
	return v
}
