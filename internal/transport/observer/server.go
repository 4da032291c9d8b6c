package observer

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"waymark.ai/internal/observerproto"
	"waymark.ai/internal/protocol"
	"waymark.ai/internal/sim/world"
	"waymark.ai/internal/sim/world/logic/chunkid"
)

// Server streams the world's published view to local spectators. It only reads
// World.View, so it never touches the world loop.
type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			WorldID:         cfg.ID,
			Tick:            s.world.View().Tick,
			WorldParams: observerproto.WorldParams{
				TickRateHz:       cfg.TickRateHz,
				ChunkSize:        chunkid.ChunkSize,
				AcceptanceRadius: cfg.AcceptanceRadius,
				MoveSpeed:        cfg.MoveSpeed,
				MaxMoveDistance:  cfg.MaxMoveDistance,
			},
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := parseSubscribe(msg)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Reader loop: allow SUBSCRIBE updates.
		subs := make(chan observerproto.SubscribeMsg, 1)
		go func() {
			defer cancel()
			for {
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				if next, ok := parseSubscribe(msg); ok {
					select {
					case subs <- next:
					default:
						// Drop updates under load; the client may resend.
					}
				}
			}
		}()

		interval := time.Second / time.Duration(max(s.world.Config().TickRateHz, 1))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var lastTick uint64
		sent := false
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
				return
			case sub = <-subs:
			case <-ticker.C:
				v := s.world.View()
				if sent && v.Tick == lastTick {
					continue
				}
				if v.Tick%uint64(sub.EveryTicks) != 0 {
					continue
				}
				lastTick, sent = v.Tick, true
				b, err := json.Marshal(tickMsg(v, sub))
				if err != nil {
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

func parseSubscribe(msg []byte) (observerproto.SubscribeMsg, bool) {
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return sub, false
	}
	if sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
		return sub, false
	}
	normalizeSubscribe(&sub)
	return sub, true
}

func normalizeSubscribe(sub *observerproto.SubscribeMsg) {
	if sub.EveryTicks <= 0 {
		sub.EveryTicks = 1
	}
	if sub.EveryTicks > 3600 {
		sub.EveryTicks = 3600
	}
	if sub.RadiusChunks < 0 {
		sub.RadiusChunks = 0
	}
	if sub.RadiusChunks > 64 {
		sub.RadiusChunks = 64
	}
	if sub.Center != nil && !chunkid.InWorld(sub.Center[0], sub.Center[2]) {
		sub.Center = nil
	}
}

func tickMsg(v world.StateView, sub observerproto.SubscribeMsg) observerproto.TickMsg {
	msg := observerproto.TickMsg{
		Type:            observerproto.TypeTick,
		ProtocolVersion: observerproto.Version,
		Tick:            v.Tick,
		Entities:        v.Entities,
	}
	if sub.Center == nil {
		return msg
	}
	center := chunkid.Encode(sub.Center[0], sub.Center[2])
	msg.Entities = make([]protocol.EntityObs, 0, len(v.Entities))
	for _, e := range v.Entities {
		if chunkid.WithinRadius(center, chunkid.ID(e.ChunkID), sub.RadiusChunks) {
			msg.Entities = append(msg.Entities, e)
		}
	}
	return msg
}

// IsLoopbackRemote reports whether remoteAddr is a loopback address.
func IsLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
