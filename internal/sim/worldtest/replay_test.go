package worldtest

import (
	"testing"

	world "waymark.ai/internal/sim/world"
)

type memTickLog struct{ entries []world.TickLogEntry }

func (m *memTickLog) WriteTick(e world.TickLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

type memAuditLog struct{ entries []world.AuditEntry }

func (m *memAuditLog) WriteAudit(e world.AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestReplayFromTickLog(t *testing.T) {
	h := NewHarness(t, DefaultConfig())
	tl := &memTickLog{}
	al := &memAuditLog{}
	h.W.SetTickLogger(tl)
	h.W.SetAuditLogger(al)
	runScenario(h, 120)

	if len(tl.entries) != len(h.Digests) {
		t.Fatalf("logged %d ticks, stepped %d", len(tl.entries), len(h.Digests))
	}

	w2, err := world.New(DefaultConfig())
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	for _, e := range tl.entries {
		in, err := world.ReplayInput(e)
		if err != nil {
			t.Fatalf("tick %d: %v", e.Tick, err)
		}
		tick, d := w2.StepOnce(in)
		if tick != e.Tick {
			t.Fatalf("replayed tick=%d want %d", tick, e.Tick)
		}
		if d != e.Digest {
			t.Fatalf("digest mismatch at tick %d", e.Tick)
		}
	}

	actions := map[string]int{}
	for _, a := range al.entries {
		actions[a.Action]++
	}
	for _, want := range []string{"ENTER", "LEAVE", "SPAWN", "DESPAWN", "MOVE_REJECTED", "INTENT_HEALED"} {
		if actions[want] == 0 {
			t.Fatalf("no %s audit entry; got %v", want, actions)
		}
	}
}
