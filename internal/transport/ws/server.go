package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"waymark.ai/internal/auth"
	"waymark.ai/internal/protocol"
	"waymark.ai/internal/sim/world"
	modelpkg "waymark.ai/internal/sim/world/kernel/model"
	"waymark.ai/internal/sim/world/logic/chunkid"
)

// Options tune a Server. Zero values pick the defaults noted per field.
type Options struct {
	// MoveRequestsPerSec limits MOVE frames per identity. 0 disables the limit.
	MoveRequestsPerSec int
	// OutQueue is the per-connection frame buffer (default 64).
	OutQueue int
	// WorldTimeout bounds how long ENTER/LEAVE wait for the world loop (default 5s).
	WorldTimeout time.Duration
}

type Server struct {
	world *world.World
	auth  *auth.Service
	log   *log.Logger
	opts  Options

	moveLimiter *limiter.Limiter
	upgrader    websocket.Upgrader
}

func NewServer(w *world.World, authSvc *auth.Service, logger *log.Logger, opts Options) *Server {
	if opts.OutQueue <= 0 {
		opts.OutQueue = 64
	}
	if opts.WorldTimeout <= 0 {
		opts.WorldTimeout = 5 * time.Second
	}
	s := &Server{
		world: w,
		auth:  authSvc,
		log:   logger,
		opts:  opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	if opts.MoveRequestsPerSec > 0 {
		s.moveLimiter = limiter.New(memory.NewStore(), limiter.Rate{
			Period: time.Second,
			Limit:  int64(opts.MoveRequestsPerSec),
		})
	}
	return s
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		identity, ok := s.handshake(conn)
		if !ok {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		out := make(chan []byte, s.opts.OutQueue)
		c := &session{srv: s, identity: identity, out: out}

		// Writer goroutine. The world and the reader both feed out; only this goroutine
		// touches the socket after the handshake.
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			c.handle(ctx, msg)
			if ctx.Err() != nil {
				break
			}
		}

		// Cleanup: a dropped connection leaves the world.
		if c.entered {
			lctx, lcancel := context.WithTimeout(context.Background(), s.opts.WorldTimeout)
			if err := s.world.RequestLeave(lctx, identity, c.out); err != nil && !errors.Is(err, world.ErrNotInWorld) {
				s.logf("[ws] leave on disconnect for %s: %v", identity, err)
			}
			lcancel()
		}
		cancel()
		<-writerDone
	}
}

func (s *Server) handshake(conn *websocket.Conn) (world.Identity, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, websocket.ClosePolicyViolation, "expected HELLO")
		return "", false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, "bad HELLO")
		return "", false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = writeJSON(conn, errorMsg(protocol.ErrProtoBadRequest, "unsupported protocol_version"))
		closeWith(conn, websocket.ClosePolicyViolation, "bad protocol_version")
		return "", false
	}
	claims, err := s.auth.Validate(strings.TrimSpace(hello.Token))
	if err != nil {
		_ = writeJSON(conn, errorMsg(protocol.ErrUnauthorized, "invalid token"))
		closeWith(conn, websocket.ClosePolicyViolation, "unauthorized")
		return "", false
	}
	identity := world.Identity(claims.Subject)

	cfg := s.world.Config()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		Identity:        string(identity),
		WorldParams: protocol.WorldParams{
			TickRateHz:       cfg.TickRateHz,
			ChunkSize:        chunkid.ChunkSize,
			ObsRadiusChunks:  cfg.ObsRadiusChunks,
			AcceptanceRadius: cfg.AcceptanceRadius,
			MoveSpeed:        cfg.MoveSpeed,
			MaxMoveDistance:  cfg.MaxMoveDistance,
		},
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", false
	}
	s.logf("[ws] session %s identity=%s client=%q", welcome.SessionID, identity, hello.ClientName)
	return identity, true
}

// session is the per-connection state touched only by the reader goroutine.
type session struct {
	srv      *Server
	identity world.Identity
	out      chan []byte
	entered  bool
}

func (c *session) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.out <- b:
	default:
		// Slow reader; frame dropped.
	}
}

func (c *session) handle(ctx context.Context, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		c.send(errorMsg(protocol.ErrProtoBadRequest, "bad json"))
		return
	}
	if base.ProtocolVersion != protocol.Version {
		c.send(errorMsg(protocol.ErrProtoBadRequest, "unsupported protocol_version"))
		return
	}
	switch base.Type {
	case protocol.TypeEnter:
		var m protocol.EnterMsg
		_ = json.Unmarshal(msg, &m)
		c.enter(ctx, m.ReqID)
	case protocol.TypeLeave:
		c.leave(ctx)
	case protocol.TypeMove:
		c.move(ctx, msg)
	default:
		c.send(errorMsg(protocol.ErrProtoBadRequest, "unexpected message type "+base.Type))
	}
}

func (c *session) enter(ctx context.Context, reqID string) {
	wctx, cancel := context.WithTimeout(ctx, c.srv.opts.WorldTimeout)
	defer cancel()
	// The world replies with ENTER_RESULT on c.out.
	res, err := c.srv.world.RequestEnter(wctx, world.EnterRequest{Identity: c.identity, ReqID: reqID, Out: c.out})
	if err != nil {
		if errors.Is(err, world.ErrEnterPending) {
			// Still queued; disconnect must leave in case it lands.
			c.entered = true
		}
		c.send(protocol.EnterResultMsg{
			Type:            protocol.TypeEnterResult,
			ProtocolVersion: protocol.Version,
			ReqID:           reqID,
			Code:            protocol.ErrWorldBusy,
			Message:         err.Error(),
		})
		return
	}
	if res.Err == nil {
		c.entered = true
	}
}

func (c *session) leave(ctx context.Context) {
	wctx, cancel := context.WithTimeout(ctx, c.srv.opts.WorldTimeout)
	defer cancel()
	if err := c.srv.world.RequestLeave(wctx, c.identity, c.out); err != nil {
		if errors.Is(err, world.ErrNotInWorld) {
			c.send(errorMsg(protocol.ErrNoPawn, err.Error()))
		} else {
			c.send(errorMsg(protocol.ErrWorldBusy, err.Error()))
		}
		return
	}
	c.entered = false
}

func (c *session) move(ctx context.Context, raw []byte) {
	var head struct {
		ReqID string `json:"req_id"`
	}
	_ = json.Unmarshal(raw, &head)
	if l := c.srv.moveLimiter; l != nil {
		lc, err := l.Get(ctx, string(c.identity))
		if err != nil {
			c.srv.logf("[ws] rate limiter: %v", err)
		} else if lc.Reached {
			c.send(moveRejected(head.ReqID, protocol.ErrRateLimit, "too many MOVE requests"))
			return
		}
	}
	m, err := protocol.ValidateMove(raw)
	if err != nil {
		c.send(moveRejected(head.ReqID, protocol.ErrBadRequest, err.Error()))
		return
	}
	intent, err := modelpkg.IntentFromWire(m.Kind, m.Path, m.Target)
	if err != nil {
		c.send(moveRejected(m.ReqID, protocol.ErrBadRequest, err.Error()))
		return
	}

	// The world replies with MOVE_RESULT on c.out once the request is applied.
	sctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	req := world.MoveRequest{Identity: c.identity, ReqID: m.ReqID, Intent: intent}
	if !c.entered {
		// Without an attached pawn the world has nowhere to push the result.
		req.Resp = make(chan world.MoveResult, 1)
	}
	if err := c.srv.world.SubmitMove(sctx, req); err != nil {
		c.send(moveRejected(m.ReqID, protocol.ErrWorldBusy, "world queue full"))
		return
	}
	if req.Resp != nil {
		go c.forwardDetached(ctx, req.Resp)
	}
}

func (c *session) forwardDetached(ctx context.Context, resp <-chan world.MoveResult) {
	select {
	case r := <-resp:
		msg := protocol.MoveResultMsg{
			Type:            protocol.TypeMoveResult,
			ProtocolVersion: protocol.Version,
			ReqID:           r.ReqID,
			OK:              r.Err == nil,
			Tick:            r.Tick,
		}
		if r.Err != nil {
			msg.Code = world.MoveErrorCode(r.Err)
			msg.Message = r.Err.Error()
		}
		c.send(msg)
	case <-ctx.Done():
	}
}

func moveRejected(reqID, code, message string) protocol.MoveResultMsg {
	return protocol.MoveResultMsg{
		Type:            protocol.TypeMoveResult,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Code:            code,
		Message:         message,
	}
}

func errorMsg(code, message string) protocol.ErrorMsg {
	return protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	}
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
