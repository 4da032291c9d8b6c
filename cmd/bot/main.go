package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"waymark.ai/internal/protocol"
)

func main() {
	var (
		base     = flag.String("addr", "http://localhost:8080", "server base url")
		name     = flag.String("name", "bot", "display name")
		identity = flag.String("identity", "", "identity to resume (empty mints a new one)")
		every    = flag.Uint64("every", 60, "issue a move every N observed ticks")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	token, ident, err := openSession(*base, *identity, *name)
	if err != nil {
		logger.Fatalf("session: %v", err)
	}
	logger.Printf("session identity=%s", ident)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(*base), nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Token:           token,
	}); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteJSON(protocol.LeaveMsg{Type: protocol.TypeLeave, ProtocolVersion: protocol.Version})
		_ = conn.Close()
	}()

	rng := rand.New(rand.NewSource(*seed))
	var params protocol.WorldParams
	var seq int
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		b, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch b.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			params = w.WorldParams
			logger.Printf("WELCOME identity=%s tick_rate=%d max_move=%.1f", w.Identity, params.TickRateHz, params.MaxMoveDistance)
			_ = conn.WriteJSON(protocol.EnterMsg{Type: protocol.TypeEnter, ProtocolVersion: protocol.Version, ReqID: "enter"})

		case protocol.TypeEnterResult:
			var r protocol.EnterResultMsg
			if err := json.Unmarshal(msg, &r); err != nil {
				continue
			}
			if !r.OK {
				logger.Fatalf("enter failed: %s %s", r.Code, r.Message)
			}
			logger.Printf("entered entity=%d pos=%v", r.EntityID, r.Pos)

		case protocol.TypeMoveResult:
			var r protocol.MoveResultMsg
			if err := json.Unmarshal(msg, &r); err != nil {
				continue
			}
			if !r.OK {
				logger.Printf("move %s rejected: %s", r.ReqID, r.Code)
			}

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil || obs.Self == nil {
				continue
			}
			if *every == 0 || obs.Tick%*every != 0 {
				continue
			}
			seq++
			mv := nextMove(&obs, params, rng, fmt.Sprintf("m%d", seq))
			_ = conn.WriteJSON(mv)

		case protocol.TypeError:
			logger.Printf("server error: %s", string(msg))
		}
	}
}

// nextMove chases a visible entity now and then and otherwise walks a short random path
// kept inside the server's move range.
func nextMove(obs *protocol.ObsMsg, params protocol.WorldParams, rng *rand.Rand, reqID string) protocol.MoveMsg {
	mv := protocol.MoveMsg{Type: protocol.TypeMove, ProtocolVersion: protocol.Version, ReqID: reqID}
	self := obs.Self.Pos
	reach := params.MaxMoveDistance
	if reach <= 0 {
		reach = 50
	}

	if len(obs.Entities) > 0 && rng.Intn(3) == 0 {
		t := obs.Entities[rng.Intn(len(obs.Entities))]
		if planar(self, t.Pos) <= reach {
			mv.Kind = protocol.KindChase
			mv.Target = t.EntityID
			return mv
		}
	}

	mv.Kind = protocol.KindPath
	n := 1 + rng.Intn(3)
	for i := 0; i < n; i++ {
		// Every waypoint stays within reach of the current position.
		r := reach * 0.9 * rng.Float64()
		a := rng.Float64() * 2 * math.Pi
		mv.Path = append(mv.Path, [3]float64{self[0] + r*math.Cos(a), self[1], self[2] + r*math.Sin(a)})
	}
	return mv
}

func planar(a, b [3]float64) float64 {
	return math.Hypot(a[0]-b[0], a[2]-b[2])
}

func openSession(base, identity, name string) (token, ident string, err error) {
	body, _ := json.Marshal(map[string]string{"identity": identity, "name": name})
	resp, err := http.Post(strings.TrimSuffix(base, "/")+"/v1/session", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status %d", resp.StatusCode)
	}
	var out struct {
		Token    string `json:"token"`
		Identity string `json:"identity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", err
	}
	return out.Token, out.Identity, nil
}

func wsURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/ws"
	return u.String()
}
