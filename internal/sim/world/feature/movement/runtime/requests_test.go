package runtime

import (
	"errors"
	"math"
	"testing"

	"waymark.ai/internal/protocol"
	modelpkg "waymark.ai/internal/sim/world/kernel/model"
)

var testParams = RequestParams{MaxMoveDistanceSquared: 50 * 50}

func TestHandleRequestMoveNoPawn(t *testing.T) {
	env := newStubEnv()
	err := HandleRequestMove(env, testParams, "nobody", modelpkg.ChaseIntent{Target: 1})
	if !errors.Is(err, ErrNoPawn) {
		t.Fatalf("err=%v want ErrNoPawn", err)
	}
	if len(env.intents) != 0 {
		t.Fatalf("rejected request must not write intents")
	}
}

func TestHandleRequestMoveMissingEntityState(t *testing.T) {
	env := newStubEnv()
	env.possess("alice", 1)
	if err := HandleRequestMove(env, testParams, "alice", modelpkg.PathIntent{}); !errors.Is(err, ErrMissingEntityState) {
		t.Fatalf("missing entity: err=%v", err)
	}
	env.entities[1] = modelpkg.Entity{ID: 1, TransformID: 77}
	if err := HandleRequestMove(env, testParams, "alice", modelpkg.PathIntent{}); !errors.Is(err, ErrMissingEntityState) {
		t.Fatalf("missing transform: err=%v", err)
	}
	if IsValidation(ErrMissingEntityState) {
		t.Fatalf("missing entity state is an integrity error")
	}
}

func TestHandleRequestMoveChaseValidation(t *testing.T) {
	env := newStubEnv()
	env.spawn(1, 0, 0)
	env.spawn(2, 30, 40) // exactly 50 away
	env.spawn(3, 30, 40.01)
	env.possess("alice", 1)

	if err := HandleRequestMove(env, testParams, "alice", modelpkg.ChaseIntent{Target: 1}); !errors.Is(err, ErrSelfTarget) {
		t.Fatalf("self target: err=%v", err)
	}
	if err := HandleRequestMove(env, testParams, "alice", modelpkg.ChaseIntent{Target: 9}); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("missing target: err=%v", err)
	}
	env.entities[4] = modelpkg.Entity{ID: 4, TransformID: 999}
	if err := HandleRequestMove(env, testParams, "alice", modelpkg.ChaseIntent{Target: 4}); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("target without transform: err=%v", err)
	}
	if err := HandleRequestMove(env, testParams, "alice", modelpkg.ChaseIntent{Target: 3}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("far target: err=%v", err)
	}
	if len(env.intents) != 0 {
		t.Fatalf("rejected requests wrote %d intents", len(env.intents))
	}
	if err := HandleRequestMove(env, testParams, "alice", modelpkg.ChaseIntent{Target: 2}); err != nil {
		t.Fatalf("boundary target should be accepted: %v", err)
	}
	if got := env.intents[1].Intent; got != (modelpkg.ChaseIntent{Target: 2}) {
		t.Fatalf("intent=%#v", got)
	}
}

func TestHandleRequestMovePathValidation(t *testing.T) {
	env := newStubEnv()
	env.spawn(1, 10, 10)
	env.possess("alice", 1)

	far := modelpkg.PathIntent{Waypoints: []modelpkg.Vec3{{X: 20, Z: 10}, {X: 100, Z: 100}}}
	err := HandleRequestMove(env, testParams, "alice", far)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err=%v want ErrOutOfRange", err)
	}
	if err.Error() != "request_move: waypoint 1 isn't within range" {
		t.Fatalf("message=%q", err.Error())
	}

	bad := modelpkg.PathIntent{Waypoints: []modelpkg.Vec3{{X: math.NaN(), Z: 0}}}
	if err := HandleRequestMove(env, testParams, "alice", bad); !errors.Is(err, ErrInvalidWaypoint) {
		t.Fatalf("NaN waypoint: err=%v", err)
	}
	if len(env.intents) != 0 {
		t.Fatalf("rejected requests wrote %d intents", len(env.intents))
	}

	if err := HandleRequestMove(env, testParams, "alice", modelpkg.PathIntent{}); err != nil {
		t.Fatalf("empty path should be accepted: %v", err)
	}
}

func TestHandleRequestMoveReplacesAndDetaches(t *testing.T) {
	env := newStubEnv()
	env.spawn(1, 0, 0)
	env.spawn(2, 5, 5)
	env.possess("alice", 1)

	wps := []modelpkg.Vec3{{X: 1}, {X: 2}}
	if err := HandleRequestMove(env, testParams, "alice", modelpkg.PathIntent{Waypoints: wps}); err != nil {
		t.Fatalf("path: %v", err)
	}
	wps[0].X = 40
	if got := env.intents[1].Intent.(modelpkg.PathIntent).Waypoints[0].X; got != 1 {
		t.Fatalf("stored path aliases caller slice: x=%v", got)
	}
	if err := HandleRequestMove(env, testParams, "alice", modelpkg.ChaseIntent{Target: 2}); err != nil {
		t.Fatalf("chase: %v", err)
	}
	if len(env.intents) != 1 || env.intents[1].Intent.Kind() != modelpkg.IntentChase {
		t.Fatalf("expected single replaced chase intent, got %#v", env.intents)
	}
}

func TestMoveErrorCodes(t *testing.T) {
	cases := map[error]string{
		ErrNoPawn:             protocol.ErrNoPawn,
		ErrSelfTarget:         protocol.ErrSelfTarget,
		ErrTargetNotFound:     protocol.ErrInvalidTarget,
		ErrOutOfRange:         protocol.ErrOutOfRange,
		ErrInvalidWaypoint:    protocol.ErrBadRequest,
		ErrMissingEntityState: protocol.ErrInternal,
		errors.New("boom"):    protocol.ErrInternal,
	}
	for err, want := range cases {
		if got := ErrorCode(err); got != want {
			t.Fatalf("ErrorCode(%v)=%q want %q", err, got, want)
		}
		if !protocol.IsKnownCode(ErrorCode(err)) {
			t.Fatalf("unknown code for %v", err)
		}
	}
	if ErrorCode(nil) != "" {
		t.Fatalf("nil error has no code")
	}
}
