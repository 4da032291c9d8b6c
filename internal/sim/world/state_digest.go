package world

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"waymark.ai/internal/sim/world/io/digestcodec"
	modelpkg "waymark.ai/internal/sim/world/kernel/model"
)

// stateDigest hashes all simulation state in a canonical order. Client attachments are not
// part of the simulation and are excluded.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte
	s := w.store

	digestcodec.WriteU64(h, &tmp, nowTick)
	digestcodec.WriteU64(h, &tmp, w.timer.ScheduledID)
	digestcodec.WriteU64(h, &tmp, uint64(w.timer.lastTickNanos()))
	for _, v := range []uint32{s.nextEntityID, s.nextTransformID, s.nextCharacterID, s.nextPawnID} {
		digestcodec.WriteU32(h, &tmp, v)
	}

	for _, id := range sortedKeys(s.entities) {
		e := s.entities[id]
		digestcodec.WriteU32(h, &tmp, e.ID)
		digestcodec.WriteU32(h, &tmp, e.TransformID)
	}
	for _, id := range sortedKeys(s.transforms) {
		t := s.transforms[id]
		digestcodec.WriteU32(h, &tmp, t.ID)
		for _, f := range []float64{
			t.Translation.X, t.Translation.Y, t.Translation.Z,
			t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W,
			t.Scale.X, t.Scale.Y, t.Scale.Z,
		} {
			digestcodec.WriteF64(h, &tmp, f)
		}
		digestcodec.WriteU32(h, &tmp, uint32(t.ChunkID))
	}
	for _, id := range sortedKeys(s.characters) {
		c := s.characters[id]
		digestcodec.WriteU32(h, &tmp, c.ID)
		digestcodec.WriteString(h, &tmp, string(c.Identity))
		digestcodec.WriteU32(h, &tmp, c.TransformID)
	}
	for _, id := range sortedKeys(s.pawns) {
		p := s.pawns[id]
		digestcodec.WriteU32(h, &tmp, p.ID)
		digestcodec.WriteString(h, &tmp, string(p.Identity))
		digestcodec.WriteU32(h, &tmp, p.EntityID)
		digestcodec.WriteU32(h, &tmp, p.CharacterID)
	}
	for _, id := range sortedKeys(s.movements) {
		kind, path, target := modelpkg.IntentToWire(s.movements[id].Intent)
		digestcodec.WriteU32(h, &tmp, id)
		digestcodec.WriteString(h, &tmp, kind)
		digestcodec.WriteU64(h, &tmp, uint64(len(path)))
		for _, p := range path {
			for _, f := range p {
				digestcodec.WriteF64(h, &tmp, f)
			}
		}
		digestcodec.WriteU32(h, &tmp, target)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// StateDigest is the digest of the state after the last completed tick.
// Must be called from the world loop goroutine.
func (w *World) StateDigest() string {
	cur := w.tick.Load()
	if cur > 0 {
		cur--
	}
	return w.stateDigest(cur)
}

func sortedIdentities[V any](m map[Identity]V) []Identity {
	out := make([]Identity, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
