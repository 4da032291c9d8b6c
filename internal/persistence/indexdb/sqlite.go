package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"waymark.ai/internal/persistence/snapshot"
	"waymark.ai/internal/sim/tuning"
	"waymark.ai/internal/sim/world"
)

// SQLiteIndex is a read model of the tick log and snapshots. Writes are queued and applied
// by a single writer goroutine; the JSONL logs stay the source of truth, so a full queue
// drops rows instead of stalling the world loop.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
	drops  dropCounters
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
	reqSnapshot
	reqSnapshotState
)

type req struct {
	kind reqKind

	tick     world.TickLogEntry
	audit    world.AuditEntry
	snapshot snapshotRow
	state    snapshot.SnapshotV1
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	Entities   int
	Characters int
	Pawns      int
	Intents    int
}

func newSnapshotRow(path string, snap snapshot.SnapshotV1) snapshotRow {
	return snapshotRow{
		Tick:       snap.Header.Tick,
		Path:       path,
		Entities:   len(snap.Entities),
		Characters: len(snap.Characters),
		Pawns:      len(snap.Pawns),
		Intents:    len(snap.Movements),
	}
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// One tick entry per tick plus bursts of audits on busy ticks.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tuning (
			digest TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			now_unix_nano INTEGER NOT NULL,
			dt REAL NOT NULL,
			enters INTEGER NOT NULL,
			leaves INTEGER NOT NULL,
			moves INTEGER NOT NULL,
			removals INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS move_requests (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			identity TEXT NOT NULL,
			req_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			ok INTEGER NOT NULL,
			code TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_move_requests_identity_tick ON move_requests(identity, tick);`,
		`CREATE TABLE IF NOT EXISTS removals (
			tick INTEGER NOT NULL,
			entity_id INTEGER NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (tick, entity_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_removals_reason_tick ON removals(reason, tick);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			entity_id INTEGER NOT NULL,
			code TEXT,
			reason TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			entities INTEGER NOT NULL,
			characters INTEGER NOT NULL,
			pawns INTEGER NOT NULL,
			intents INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS entity_positions (
			tick INTEGER NOT NULL,
			entity_id INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			chunk_id INTEGER NOT NULL,
			identity TEXT,
			PRIMARY KEY (tick, entity_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entity_positions_chunk ON entity_positions(chunk_id, tick);`,
		`CREATE TABLE IF NOT EXISTS intents (
			tick INTEGER NOT NULL,
			entity_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			path_json TEXT,
			target INTEGER,
			PRIMARY KEY (tick, entity_id)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) enqueue(r req, drop *atomic.Uint64) {
	select {
	case s.ch <- r:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		drop.Add(1)
	}
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	s.enqueue(req{kind: reqTick, tick: entry}, &s.drops.tick)
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	s.enqueue(req{kind: reqAudit, audit: entry}, &s.drops.audit)
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	s.enqueue(req{kind: reqSnapshot, snapshot: newSnapshotRow(path, snap)}, &s.drops.snapshot)
}

// RecordSnapshotState stores the entity positions and intent rows of snap, keyed by its tick.
func (s *SQLiteIndex) RecordSnapshotState(snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	s.enqueue(req{kind: reqSnapshotState, state: snap}, &s.drops.snapshotState)
}

// UpsertTuning records the tuning the server actually runs with.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, digest, err := tuningDigest(tune)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('protocol_version',?)`, tune.ProtocolVersion); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO tuning(digest,json,updated_at) VALUES(?,?,?)`, digest, string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

func tuningDigest(tune tuning.Tuning) ([]byte, string, error) {
	b, err := json.Marshal(tune)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(b)
	return b, hex.EncodeToString(sum[:]), nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,now_unix_nano,dt,enters,leaves,moves,removals,raw_json) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertMove, _ := s.db.Prepare(`INSERT OR REPLACE INTO move_requests(tick,seq,identity,req_id,kind,ok,code,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	insertRemoval, _ := s.db.Prepare(`INSERT OR REPLACE INTO removals(tick,entity_id,reason) VALUES(?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(tick,seq,actor,action,entity_id,code,reason,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,entities,characters,pawns,intents) VALUES(?,?,?,?,?,?)`)
	insertPosition, _ := s.db.Prepare(`INSERT OR REPLACE INTO entity_positions(tick,entity_id,x,y,z,chunk_id,identity) VALUES(?,?,?,?,?,?,?)`)
	insertIntent, _ := s.db.Prepare(`INSERT OR REPLACE INTO intents(tick,entity_id,kind,path_json,target) VALUES(?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertMove, insertRemoval, insertAudit, insertSnapshot, insertPosition, insertIntent} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastAuditTick uint64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			e := r.tick
			b, _ := json.Marshal(e)
			if !exec(insertTick, int64(e.Tick), e.Digest, e.NowUnixNano, e.DT,
				len(e.Enters), len(e.Leaves), len(e.Moves), len(e.Removed), string(b)) {
				continue
			}
			for i, m := range e.Moves {
				raw, _ := json.Marshal(m)
				if !exec(insertMove, int64(e.Tick), i, string(m.Identity), m.ReqID, m.Kind, boolInt(m.OK), m.Code, string(raw)) {
					break
				}
			}
			for _, rm := range e.Removed {
				if !exec(insertRemoval, int64(e.Tick), int64(rm.EntityID), string(rm.Reason)) {
					break
				}
			}

		case reqAudit:
			a := r.audit
			if a.Tick != lastAuditTick {
				lastAuditTick = a.Tick
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			exec(insertAudit, int64(a.Tick), seq, string(a.Actor), a.Action, int64(a.EntityID), a.Code, a.Reason, string(raw))

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, int64(sn.Tick), sn.Path, sn.Entities, sn.Characters, sn.Pawns, sn.Intents)

		case reqSnapshotState:
			snap := r.state
			tick := int64(snap.Header.Tick)
			players := map[uint32]string{}
			for _, p := range snap.Pawns {
				players[p.EntityID] = p.Identity
			}
			transforms := map[uint32]snapshot.TransformV1{}
			for _, t := range snap.Transforms {
				transforms[t.ID] = t
			}
			for _, e := range snap.Entities {
				t, ok := transforms[e.TransformID]
				if !ok {
					continue
				}
				var identity any
				if id, ok := players[e.ID]; ok {
					identity = id
				}
				if !exec(insertPosition, tick, int64(e.ID), t.Translation[0], t.Translation[1], t.Translation[2], int64(t.ChunkID), identity) {
					break
				}
			}
			for _, m := range snap.Movements {
				var path any
				if len(m.Path) > 0 {
					b, _ := json.Marshal(m.Path)
					path = string(b)
				}
				var target any
				if m.Target != 0 {
					target = int64(m.Target)
				}
				if !exec(insertIntent, tick, int64(m.EntityID), m.Kind, path, target) {
					break
				}
			}
		}
		flushIfNeeded()
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
