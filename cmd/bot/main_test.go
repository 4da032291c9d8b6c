package main

import (
	"encoding/json"
	"math/rand"
	"testing"

	"waymark.ai/internal/protocol"
)

func TestNextMoveStaysInRange(t *testing.T) {
	params := protocol.WorldParams{MaxMoveDistance: 50}
	obs := &protocol.ObsMsg{
		Self: &protocol.EntityObs{EntityID: 1, Pos: [3]float64{100, 2, -40}},
		Entities: []protocol.EntityObs{
			{EntityID: 7, Pos: [3]float64{110, 0, -40}},
		},
	}
	rng := rand.New(rand.NewSource(3))
	sawChase, sawPath := false, false
	for i := 0; i < 200; i++ {
		mv := nextMove(obs, params, rng, "r")
		if _, err := protocol.ValidateMove(mustJSON(t, mv)); err != nil {
			t.Fatalf("invalid move %+v: %v", mv, err)
		}
		switch mv.Kind {
		case protocol.KindChase:
			sawChase = true
			if mv.Target != 7 {
				t.Fatalf("target=%d", mv.Target)
			}
		case protocol.KindPath:
			sawPath = true
			for _, p := range mv.Path {
				if planar(obs.Self.Pos, p) > params.MaxMoveDistance {
					t.Fatalf("waypoint %v out of range", p)
				}
				if p[1] != 2 {
					t.Fatalf("waypoint y=%v want 2", p[1])
				}
			}
		}
	}
	if !sawChase || !sawPath {
		t.Fatalf("chase=%v path=%v", sawChase, sawPath)
	}
}

func TestNextMoveSkipsFarTargets(t *testing.T) {
	obs := &protocol.ObsMsg{
		Self:     &protocol.EntityObs{EntityID: 1},
		Entities: []protocol.EntityObs{{EntityID: 9, Pos: [3]float64{80, 0, 0}}},
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		if mv := nextMove(obs, protocol.WorldParams{MaxMoveDistance: 50}, rng, "r"); mv.Kind != protocol.KindPath {
			t.Fatalf("kind=%s want PATH", mv.Kind)
		}
	}
}

func TestWSURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8080":   "ws://localhost:8080/v1/ws",
		"https://example.com/wm/": "wss://example.com/wm/v1/ws",
	}
	for in, want := range cases {
		if got := wsURL(in); got != want {
			t.Fatalf("wsURL(%q)=%q want %q", in, got, want)
		}
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}
