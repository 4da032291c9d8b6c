package runtime

import (
	"fmt"
	"sort"

	modelpkg "waymark.ai/internal/sim/world/kernel/model"
)

// stubEnv is a tiny in-memory world. Translation writes are buffered until commit so that
// reads within one system run see start-of-tick state.
type stubEnv struct {
	pawns      map[modelpkg.Identity]modelpkg.CharacterPawn
	entities   map[uint32]modelpkg.Entity
	transforms map[uint32]modelpkg.Transform
	intents    map[uint32]modelpkg.EntityMovement
	pending    map[uint32]modelpkg.Vec3
	warnings   []string
}

func newStubEnv() *stubEnv {
	return &stubEnv{
		pawns:      map[modelpkg.Identity]modelpkg.CharacterPawn{},
		entities:   map[uint32]modelpkg.Entity{},
		transforms: map[uint32]modelpkg.Transform{},
		intents:    map[uint32]modelpkg.EntityMovement{},
		pending:    map[uint32]modelpkg.Vec3{},
	}
}

// spawn adds entity id with transform id+100 at (x, z).
func (s *stubEnv) spawn(id uint32, x, z float64) {
	s.entities[id] = modelpkg.Entity{ID: id, TransformID: id + 100}
	s.transforms[id+100] = modelpkg.NewTransform(id+100, modelpkg.Vec3{X: x, Z: z})
}

func (s *stubEnv) possess(identity modelpkg.Identity, entityID uint32) {
	s.pawns[identity] = modelpkg.CharacterPawn{ID: entityID, Identity: identity, EntityID: entityID}
}

func (s *stubEnv) pos(entityID uint32) modelpkg.Vec3 {
	return s.transforms[s.entities[entityID].TransformID].Translation
}

func (s *stubEnv) commit() {
	for id, p := range s.pending {
		tr := s.transforms[id]
		tr.Translation = p
		s.transforms[id] = tr
	}
	s.pending = map[uint32]modelpkg.Vec3{}
}

func (s *stubEnv) PawnFor(identity modelpkg.Identity) (modelpkg.CharacterPawn, bool) {
	p, ok := s.pawns[identity]
	return p, ok
}

func (s *stubEnv) Entity(id uint32) (modelpkg.Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

func (s *stubEnv) Transform(id uint32) (modelpkg.Transform, bool) {
	t, ok := s.transforms[id]
	return t, ok
}

func (s *stubEnv) UpsertIntent(m modelpkg.EntityMovement) { s.intents[m.EntityID] = m }
func (s *stubEnv) UpdateIntent(m modelpkg.EntityMovement) { s.intents[m.EntityID] = m }
func (s *stubEnv) DeleteIntent(entityID uint32)           { delete(s.intents, entityID) }

func (s *stubEnv) SortedMovements() []modelpkg.EntityMovement {
	out := make([]modelpkg.EntityMovement, 0, len(s.intents))
	for _, m := range s.intents {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

func (s *stubEnv) SetTranslation(transformID uint32, pos modelpkg.Vec3) {
	s.pending[transformID] = pos
}

func (s *stubEnv) Warnf(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}
