package obscodec

import (
	"testing"

	"waymark.ai/internal/protocol"
	modelpkg "waymark.ai/internal/sim/world/kernel/model"
)

func TestEncodeEntity(t *testing.T) {
	tr := modelpkg.NewTransform(5, modelpkg.Vec3{X: 21, Z: -1})
	obs := EncodeEntity(modelpkg.Entity{ID: 2, TransformID: 5}, tr, true, modelpkg.ChaseIntent{Target: 3})
	if obs.EntityID != 2 || obs.Pos != [3]float64{21, 0, -1} || obs.ChunkID != uint32(tr.ChunkID) || !obs.Player {
		t.Fatalf("obs=%+v", obs)
	}
	if obs.Intent == nil || obs.Intent.Kind != protocol.KindChase || obs.Intent.Target != 3 {
		t.Fatalf("intent=%+v", obs.Intent)
	}
	if EncodeIntent(nil) != nil {
		t.Fatalf("nil intent should encode to nil")
	}
}
