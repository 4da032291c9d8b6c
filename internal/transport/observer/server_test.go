package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"waymark.ai/internal/observerproto"
	"waymark.ai/internal/sim/world"
)

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5555": true,
		"[::1]:80":       true,
		"10.0.0.4:1234":  false,
		"garbage":        false,
	}
	for addr, want := range cases {
		if got := IsLoopbackRemote(addr); got != want {
			t.Fatalf("IsLoopbackRemote(%q)=%v want %v", addr, got, want)
		}
	}
}

func TestBootstrapRejectsRemote(t *testing.T) {
	w, _ := world.New(world.WorldConfig{ID: "obs"})
	s := NewServer(w, nil)
	req := httptest.NewRequest(http.MethodGet, "/admin/v1/observer/bootstrap", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	rec := httptest.NewRecorder()
	s.BootstrapHandler()(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d want 403", rec.Code)
	}

	req.RemoteAddr = "127.0.0.1:4000"
	rec = httptest.NewRecorder()
	s.BootstrapHandler()(rec, req)
	var resp observerproto.BootstrapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.WorldID != "obs" || resp.WorldParams.ChunkSize != 20 {
		t.Fatalf("bootstrap=%+v", resp)
	}
}

func TestStreamFiltersByArea(t *testing.T) {
	w, err := world.New(world.WorldConfig{ID: "obs", TickRateHz: 50})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	near, err := w.RequestSpawn(ctx, world.Vec3{X: 5})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if _, err := w.RequestSpawn(ctx, world.Vec3{X: 500}); err != nil {
		t.Fatalf("spawn: %v", err)
	}

	srv := httptest.NewServer(NewServer(w, nil).WSHandler())
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(observerproto.SubscribeMsg{
		Type:            observerproto.TypeSubscribe,
		ProtocolVersion: observerproto.Version,
		Center:          &[3]float64{0, 0, 0},
		RadiusChunks:    1,
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg observerproto.TickMsg
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != observerproto.TypeTick {
		t.Fatalf("type=%q", msg.Type)
	}
	if len(msg.Entities) != 1 || msg.Entities[0].EntityID != near {
		t.Fatalf("entities=%+v want only %d", msg.Entities, near)
	}
}
