package world

import (
	"sort"

	"waymark.ai/internal/sim/world/logic/chunkid"
)

// store is the entity/transform arena. Rows refer to each other by id only; nothing here
// enforces referential integrity, so readers must tolerate missing rows.
type store struct {
	entities   map[uint32]Entity
	transforms map[uint32]Transform
	characters map[uint32]Character
	pawns      map[uint32]CharacterPawn
	movements  map[uint32]EntityMovement

	characterByIdentity map[Identity]uint32
	pawnByIdentity      map[Identity]uint32
	pawnByEntity        map[uint32]uint32
	entityByTransform   map[uint32]uint32

	// chunks indexes transform ids by chunk id.
	chunks map[chunkid.ID]map[uint32]struct{}

	nextEntityID    uint32
	nextTransformID uint32
	nextCharacterID uint32
	nextPawnID      uint32
}

func newStore() *store {
	return &store{
		entities:            map[uint32]Entity{},
		transforms:          map[uint32]Transform{},
		characters:          map[uint32]Character{},
		pawns:               map[uint32]CharacterPawn{},
		movements:           map[uint32]EntityMovement{},
		characterByIdentity: map[Identity]uint32{},
		pawnByIdentity:      map[Identity]uint32{},
		pawnByEntity:        map[uint32]uint32{},
		entityByTransform:   map[uint32]uint32{},
		chunks:              map[chunkid.ID]map[uint32]struct{}{},
	}
}

func (s *store) allocEntityID() uint32    { s.nextEntityID++; return s.nextEntityID }
func (s *store) allocTransformID() uint32 { s.nextTransformID++; return s.nextTransformID }
func (s *store) allocCharacterID() uint32 { s.nextCharacterID++; return s.nextCharacterID }
func (s *store) allocPawnID() uint32      { s.nextPawnID++; return s.nextPawnID }

func (s *store) entity(id uint32) (Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

func (s *store) transform(id uint32) (Transform, bool) {
	t, ok := s.transforms[id]
	return t, ok
}

func (s *store) pawnFor(identity Identity) (CharacterPawn, bool) {
	id, ok := s.pawnByIdentity[identity]
	if !ok {
		return CharacterPawn{}, false
	}
	p, ok := s.pawns[id]
	return p, ok
}

func (s *store) characterFor(identity Identity) (Character, bool) {
	id, ok := s.characterByIdentity[identity]
	if !ok {
		return Character{}, false
	}
	c, ok := s.characters[id]
	return c, ok
}

func (s *store) putTransform(t Transform) {
	if old, ok := s.transforms[t.ID]; ok {
		s.unindex(old.ChunkID, old.ID)
	}
	s.transforms[t.ID] = t
	s.index(t.ChunkID, t.ID)
}

func (s *store) deleteTransform(id uint32) {
	if old, ok := s.transforms[id]; ok {
		s.unindex(old.ChunkID, id)
		delete(s.transforms, id)
	}
}

// setTranslation is the single transform write path; it recomputes the chunk id and moves
// the transform between chunk buckets.
func (s *store) setTranslation(transformID uint32, pos Vec3) bool {
	t, ok := s.transforms[transformID]
	if !ok {
		return false
	}
	t.Translation = pos
	t.ChunkID = chunkid.Encode(pos.X, pos.Z)
	s.putTransform(t)
	return true
}

func (s *store) putEntity(e Entity) {
	if old, ok := s.entities[e.ID]; ok {
		delete(s.entityByTransform, old.TransformID)
	}
	s.entities[e.ID] = e
	s.entityByTransform[e.TransformID] = e.ID
}

func (s *store) deleteEntity(id uint32) {
	if e, ok := s.entities[id]; ok {
		if s.entityByTransform[e.TransformID] == id {
			delete(s.entityByTransform, e.TransformID)
		}
		delete(s.entities, id)
	}
}

func (s *store) putCharacter(c Character) {
	s.characters[c.ID] = c
	s.characterByIdentity[c.Identity] = c.ID
}

func (s *store) putPawn(p CharacterPawn) {
	s.pawns[p.ID] = p
	s.pawnByIdentity[p.Identity] = p.ID
	s.pawnByEntity[p.EntityID] = p.ID
}

func (s *store) deletePawn(id uint32) {
	p, ok := s.pawns[id]
	if !ok {
		return
	}
	delete(s.pawns, id)
	if s.pawnByIdentity[p.Identity] == id {
		delete(s.pawnByIdentity, p.Identity)
	}
	if s.pawnByEntity[p.EntityID] == id {
		delete(s.pawnByEntity, p.EntityID)
	}
}

func (s *store) index(c chunkid.ID, transformID uint32) {
	b := s.chunks[c]
	if b == nil {
		b = map[uint32]struct{}{}
		s.chunks[c] = b
	}
	b[transformID] = struct{}{}
}

func (s *store) unindex(c chunkid.ID, transformID uint32) {
	b := s.chunks[c]
	if b == nil {
		return
	}
	delete(b, transformID)
	if len(b) == 0 {
		delete(s.chunks, c)
	}
}

// transformsNear returns the ids of transforms whose chunk lies within radius chunks of
// center, sorted.
func (s *store) transformsNear(center chunkid.ID, radius int) []uint32 {
	var out []uint32
	for c, b := range s.chunks {
		if !chunkid.WithinRadius(center, c, radius) {
			continue
		}
		for id := range b {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
