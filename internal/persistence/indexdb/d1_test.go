package indexdb

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"waymark.ai/internal/persistence/snapshot"
	"waymark.ai/internal/sim/tuning"
	"waymark.ai/internal/sim/world"
)

func TestD1Index_BatchesEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		kinds  []string
		tokens []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Events []struct {
				Kind    string `json:"kind"`
				WorldID string `json:"world_id"`
			} `json:"events"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		for _, ev := range body.Events {
			if ev.WorldID != "w1" {
				t.Errorf("world_id=%q", ev.WorldID)
			}
			kinds = append(kinds, ev.Kind)
		}
		tokens = append(tokens, r.Header.Get("x-wm-index-token"))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	idx, err := OpenD1(D1Config{
		Endpoint:      srv.URL,
		Token:         "secret",
		WorldID:       "w1",
		BatchSize:     2,
		FlushInterval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = idx.WriteTick(world.TickLogEntry{Tick: 1, Digest: "d"})
	_ = idx.WriteAudit(world.AuditEntry{Tick: 1, Action: "ENTER", Actor: "alice"})
	idx.RecordSnapshot("/tmp/1.snap.zst", snapshot.SnapshotV1{Header: snapshot.Header{Tick: 1}})
	idx.RecordSnapshotState(snapshot.SnapshotV1{Header: snapshot.Header{Tick: 1}})
	if err := idx.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("tuning: %v", err)
	}
	_ = idx.Close()

	mu.Lock()
	defer mu.Unlock()
	want := []string{"tick", "audit", "snapshot", "snapshot_state", "tuning"}
	if len(kinds) != len(want) {
		t.Fatalf("kinds=%v want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds=%v want %v", kinds, want)
		}
	}
	for _, tok := range tokens {
		if tok != "secret" {
			t.Fatalf("token header=%q", tok)
		}
	}
}

func TestOpenD1_RequiresEndpointAndWorld(t *testing.T) {
	if _, err := OpenD1(D1Config{WorldID: "w"}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
	if _, err := OpenD1(D1Config{Endpoint: "http://127.0.0.1:1"}); err == nil {
		t.Fatalf("expected error for empty world id")
	}
}

func TestD1Index_AuditSeqResetsPerTick(t *testing.T) {
	d := &D1Index{}
	if a, b := d.nextAuditSeq(5), d.nextAuditSeq(5); a != 1 || b != 2 {
		t.Fatalf("seq=%d,%d want 1,2", a, b)
	}
	if c := d.nextAuditSeq(6); c != 1 {
		t.Fatalf("seq=%d want 1 after tick change", c)
	}
}
