package world

import (
	"encoding/json"

	"waymark.ai/internal/protocol"
	"waymark.ai/internal/sim/world/io/obscodec"
)

// BuildObs returns what identity can see: its own pawn and every other entity within the
// observation radius. ok is false when identity has no pawn.
func (w *World) BuildObs(identity Identity, nowTick uint64) (protocol.ObsMsg, bool) {
	p, ok := w.store.pawnFor(identity)
	if !ok {
		return protocol.ObsMsg{}, false
	}
	e, ok := w.store.entity(p.EntityID)
	if !ok {
		return protocol.ObsMsg{}, false
	}
	tr, ok := w.store.transform(e.TransformID)
	if !ok {
		return protocol.ObsMsg{}, false
	}

	obs := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		Identity:        string(identity),
		Entities:        []protocol.EntityObs{},
	}
	var selfIntent MoveIntent
	if m, ok := w.intent(e.ID); ok {
		selfIntent = m.Intent
	}
	self := obscodec.EncodeEntity(e, tr, true, selfIntent)
	obs.Self = &self

	for _, n := range w.EntitiesNear(tr.Translation, w.cfg.ObsRadiusChunks) {
		if n.Entity.ID == e.ID {
			continue
		}
		obs.Entities = append(obs.Entities, obscodec.EncodeEntity(n.Entity, n.Transform, n.Player, n.Intent))
	}
	return obs, true
}

func (w *World) sendObs(nowTick uint64) {
	for _, id := range sortedIdentities(w.clients) {
		cl := w.clients[id]
		obs, ok := w.BuildObs(id, nowTick)
		if !ok {
			continue
		}
		b, err := json.Marshal(obs)
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
	}
}
