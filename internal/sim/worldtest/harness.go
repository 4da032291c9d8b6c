package worldtest

import (
	"testing"
	"time"

	"waymark.ai/internal/protocol"
	world "waymark.ai/internal/sim/world"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - Enter()/Leave() apply presence changes via StepOnce()
// - Move() submits one request and steps once
// - Step()/StepN() advance a fake clock by one nominal interval per tick
//
// It intentionally avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T *testing.T
	W *world.World

	Now      time.Time
	Interval time.Duration

	Digests []string
}

func DefaultConfig() world.WorldConfig {
	return world.WorldConfig{
		ID:               "test",
		TickRateHz:       30,
		AcceptanceRadius: 0.5,
		MoveSpeed:        5,
		MaxMoveDistance:  50,
		ObsRadiusChunks:  2,
		SystemIdentity:   "system",
	}
}

func NewHarness(t *testing.T, cfg world.WorldConfig) *Harness {
	t.Helper()
	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return NewHarnessWithWorld(t, w)
}

// NewHarnessWithWorld is like NewHarness, but uses an already-constructed world instance.
func NewHarnessWithWorld(t *testing.T, w *world.World) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}
	return &Harness{
		T:        t,
		W:        w,
		Now:      time.Unix(1_700_000_000, 0),
		Interval: time.Second / time.Duration(w.Config().TickRateHz),
	}
}

// StepInput runs one tick with in. A zero in.Now advances the clock by one interval.
func (h *Harness) StepInput(in world.StepInput) string {
	h.T.Helper()
	if in.Now.IsZero() {
		in.Now = h.Now.Add(h.Interval)
	}
	h.Now = in.Now
	_, d := h.W.StepOnce(in)
	h.Digests = append(h.Digests, d)
	return d
}

func (h *Harness) Step() string { return h.StepInput(world.StepInput{}) }

func (h *Harness) StepN(n int) {
	for i := 0; i < n; i++ {
		h.Step()
	}
}

// StepUntilIdle steps until entityID has no intent, failing after max ticks.
func (h *Harness) StepUntilIdle(entityID uint32, max int) int {
	h.T.Helper()
	for i := 1; i <= max; i++ {
		h.Step()
		if _, ok := h.Intent(entityID); !ok {
			return i
		}
	}
	h.T.Fatalf("entity %d still moving after %d ticks", entityID, max)
	return 0
}

func (h *Harness) Enter(identity world.Identity) uint32 {
	h.T.Helper()
	h.StepInput(world.StepInput{Enters: []world.Identity{identity}})
	id, ok := h.W.PawnEntity(identity)
	if !ok {
		h.T.Fatalf("enter %s: no pawn", identity)
	}
	return id
}

func (h *Harness) Leave(identity world.Identity) {
	h.T.Helper()
	h.StepInput(world.StepInput{Leaves: []world.Identity{identity}})
}

func (h *Harness) Spawn(pos world.Vec3) uint32 {
	h.T.Helper()
	before := h.W.Metrics().Entities
	h.StepInput(world.StepInput{Spawns: []world.Vec3{pos}})
	if h.W.Metrics().Entities != before+1 {
		h.T.Fatalf("spawn at %+v failed", pos)
	}
	var maxID uint32
	for _, e := range h.W.View().Entities {
		if e.EntityID > maxID {
			maxID = e.EntityID
		}
	}
	return maxID
}

// Move submits one request, runs the tick it is applied in, and returns its result.
func (h *Harness) Move(identity world.Identity, intent world.MoveIntent) error {
	h.T.Helper()
	resp := make(chan world.MoveResult, 1)
	h.StepInput(world.StepInput{Moves: []world.MoveRequest{{Identity: identity, Intent: intent, Resp: resp}}})
	select {
	case r := <-resp:
		return r.Err
	default:
		h.T.Fatalf("move request produced no result")
		return nil
	}
}

func (h *Harness) Pos(entityID uint32) world.Vec3 {
	h.T.Helper()
	p, ok := h.W.EntityPosition(entityID)
	if !ok {
		h.T.Fatalf("entity %d has no position", entityID)
	}
	return p
}

func (h *Harness) Intent(entityID uint32) (world.MoveIntent, bool) {
	for _, m := range h.W.Intents() {
		if m.EntityID == entityID {
			return m.Intent, true
		}
	}
	return nil, false
}

func (h *Harness) Obs(identity world.Identity) protocol.ObsMsg {
	h.T.Helper()
	obs, ok := h.W.BuildObs(identity, h.W.CurrentTick())
	if !ok {
		h.T.Fatalf("no obs for %s", identity)
	}
	return obs
}
