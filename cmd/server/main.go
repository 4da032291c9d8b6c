package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"waymark.ai/internal/auth"
	persistlog "waymark.ai/internal/persistence/log"
	"waymark.ai/internal/persistence/snapshot"
	"waymark.ai/internal/sim/tuning"
	"waymark.ai/internal/sim/world"
	"waymark.ai/internal/transport/httpapi"
	"waymark.ai/internal/transport/ws"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	loadDotEnv(logger)

	var (
		addr       = flag.String("addr", envString("WM_ADDR", ":8080"), "http listen address")
		worldID    = flag.String("world", envString("WM_WORLD_ID", "world_1"), "world id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", envString("WM_DATA_DIR", "./data"), "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable indexing (tick/audit + tuning + snapshot metadata)")
		verbose    = flag.Bool("verbose", envBool("WM_VERBOSE", false), "log every rejected move and healed intent")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	secret := envString("WM_JWT_SECRET", "")
	if secret == "" {
		logger.Fatalf("WM_JWT_SECRET is required")
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	snapDir := filepath.Join(worldDir, "snapshots")
	_ = os.MkdirAll(snapDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		latest, err := snapshot.Latest(snapDir)
		if err != nil {
			logger.Fatalf("scan snapshots: %v", err)
		}
		snapshotToLoad = latest
	}

	// Tuning is required for a fresh world; a snapshot carries its own movement tunables.
	tune, err := tuning.Load(tp)
	if err != nil {
		if snapshotToLoad == "" || !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	authSvc, err := auth.NewService(secret, tune.SessionTTL)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	// Optional read-model index (does not affect sim determinism).
	idx, err := openRuntimeIndex(worldDir, *worldID, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	cfg := world.WorldConfig{
		ID:                 *worldID,
		TickRateHz:         tune.TickRateHz,
		AcceptanceRadius:   tune.Movement.AcceptanceRadius,
		MoveSpeed:          tune.Movement.Speed,
		MaxMoveDistance:    tune.Movement.MaxMoveDistance,
		ObsRadiusChunks:    tune.ObsRadiusChunks,
		ObsEveryTicks:      tune.ObsEveryTicks,
		SnapshotEveryTicks: tune.SnapshotEveryTicks,
		Spawn:              world.Vec3{X: tune.Spawn[0], Y: tune.Spawn[1], Z: tune.Spawn[2]},
	}

	var w *world.World
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, snap.Header.WorldID)
		}
		w, err = world.NewFromSnapshot(cfg, snap)
		if err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), w.CurrentTick())
	} else {
		w, err = world.New(cfg)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
	}
	w.SetLogger(log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds))
	w.SetVerbose(*verbose)

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(worldDir)
	auditLog := persistlog.NewAuditLogger(worldDir)
	defer tickLog.Close()
	defer auditLog.Close()
	if idx != nil {
		w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
		w.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})
	} else {
		w.SetTickLogger(tickLog)
		w.SetAuditLogger(auditLog)
	}

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := snapshot.PathFor(snapDir, snap.Header.Tick)
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
					idx.RecordSnapshotState(snap)
				}
			}
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("world stopped: %v", err)
		}
	}()

	wsSrv := ws.NewServer(w, authSvc, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds), ws.Options{
		MoveRequestsPerSec: tune.RateLimits.MoveRequestsPerSec,
	})
	deps := httpapi.Deps{
		World:  w,
		Auth:   authSvc,
		WS:     wsSrv.Handler(),
		Logger: logger,
	}
	if idx != nil {
		deps.Index = idx
	}
	router := httpapi.NewRouter(httpapi.Config{
		SessionsPerMinute: tune.RateLimits.SessionsPerMinute,
		AllowedOrigins:    envList("WM_CORS_ORIGINS"),
		EnableAdmin:       envBool("WM_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		EnablePprof:       envBool("WM_ENABLE_PPROF_HTTP", false),
	}, deps)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), envDuration("WM_SHUTDOWN_TIMEOUT", 5*time.Second))
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s world=%s tick=%d", *addr, *worldID, w.CurrentTick())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
