package world

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"waymark.ai/internal/persistence/snapshot"
	featuremovement "waymark.ai/internal/sim/world/feature/movement"
	movementruntime "waymark.ai/internal/sim/world/feature/movement/runtime"
)

type WorldConfig struct {
	ID         string
	TickRateHz int

	AcceptanceRadius float64
	MoveSpeed        float64
	MaxMoveDistance  float64

	ObsRadiusChunks    int
	ObsEveryTicks      int
	SnapshotEveryTicks int
	Spawn              Vec3

	// SystemIdentity is the only caller allowed to run the movement tick. A random one is
	// generated when empty.
	SystemIdentity Identity
}

type MoveRequest struct {
	Identity Identity
	ReqID    string
	Intent   MoveIntent
	// Resp is optional and must be buffered; results are also pushed to an attached client.
	Resp chan MoveResult
}

type MoveResult struct {
	ReqID string
	Tick  uint64
	Err   error
}

type EnterRequest struct {
	Identity Identity
	ReqID    string
	// Out receives ENTER_RESULT, MOVE_RESULT and OBS frames for this client. Optional.
	Out  chan []byte
	Resp chan EnterResult
}

type EnterResult struct {
	EntityID uint32
	Pos      Vec3
	Err      error
}

type LeaveRequest struct {
	Identity Identity
	// Out is the leaving session's frame channel. A leave is never applied in the same tick as
	// an enter queued with the same Out.
	Out  chan []byte
	Resp chan error
}

type SpawnRequest struct {
	Pos  Vec3
	Resp chan SpawnResult
}

type SpawnResult struct {
	EntityID uint32
	Err      error
}

type DespawnRequest struct {
	EntityID uint32
	Resp     chan error
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg WorldConfig

	tick  atomic.Uint64
	store *store
	timer MovementTickTimer

	clients map[Identity]*clientState

	requests  chan MoveRequest
	enter     chan EnterRequest
	leave     chan LeaveRequest
	spawn     chan SpawnRequest
	despawn   chan DespawnRequest
	snapshots chan snapshotReq
	stop      chan struct{}

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	logger  *log.Logger
	verbose bool
	now     func() time.Time

	lastMove movementruntime.SystemResult
	counters worldCounters

	metrics atomic.Value // WorldMetrics
	view    atomic.Value // StateView
}

type clientState struct {
	Out chan []byte
}

type worldCounters struct {
	accepted uint64
	rejected uint64
	arrived  uint64
	healed   uint64
}

func New(cfg WorldConfig) (*World, error) {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = featuremovement.DefaultTickRateHz
	}
	cfg.AcceptanceRadius = featuremovement.ClampAcceptanceRadius(cfg.AcceptanceRadius)
	cfg.MoveSpeed = featuremovement.ClampSpeed(cfg.MoveSpeed)
	if cfg.MaxMoveDistance <= 0 {
		cfg.MaxMoveDistance = featuremovement.DefaultMaxMoveDistance
	}
	if cfg.ObsEveryTicks <= 0 {
		cfg.ObsEveryTicks = 1
	}
	if cfg.SystemIdentity == "" {
		cfg.SystemIdentity = Identity("system-" + uuid.NewString())
	}
	if err := validatePos(cfg.Spawn); err != nil {
		return nil, err
	}

	w := &World{
		cfg:       cfg,
		store:     newStore(),
		clients:   map[Identity]*clientState{},
		requests:  make(chan MoveRequest, 1024),
		enter:     make(chan EnterRequest, 64),
		leave:     make(chan LeaveRequest, 64),
		spawn:     make(chan SpawnRequest, 64),
		despawn:   make(chan DespawnRequest, 64),
		snapshots: make(chan snapshotReq, 16),
		stop:      make(chan struct{}),
		now:       time.Now,
	}
	w.timer = MovementTickTimer{
		ScheduledID: 1,
		Interval:    movementruntime.NominalInterval(cfg.TickRateHz),
	}
	w.publish(0)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger)                  { w.auditLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }
func (w *World) SetLogger(l *log.Logger)                       { w.logger = l }
func (w *World) SetVerbose(v bool)                             { w.verbose = v }

func (w *World) Requests() chan<- MoveRequest   { return w.requests }
func (w *World) Enter() chan<- EnterRequest     { return w.enter }
func (w *World) Leave() chan<- LeaveRequest     { return w.leave }
func (w *World) Spawn() chan<- SpawnRequest     { return w.spawn }
func (w *World) Despawn() chan<- DespawnRequest { return w.despawn }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) SystemIdentity() Identity { return w.cfg.SystemIdentity }

func (w *World) Stop() { close(w.stop) }

func (w *World) logf(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}

// SubmitMove enqueues a move request for the next tick boundary.
func (w *World) SubmitMove(ctx context.Context, req MoveRequest) error {
	select {
	case w.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
