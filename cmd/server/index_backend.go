package main

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"waymark.ai/internal/persistence/indexdb"
	"waymark.ai/internal/persistence/snapshot"
	"waymark.ai/internal/sim/tuning"
	"waymark.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	world.AuditLogger
	Close() error
	UpsertTuning(tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
	RecordSnapshotState(snap snapshot.SnapshotV1)
	Stats() indexdb.QueueStats
}

func openRuntimeIndex(worldDir, worldID string, disableDB bool, logger *log.Logger) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(envString("WM_INDEX_BACKEND", "sqlite"))
	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", "world.sqlite")
		return indexdb.OpenSQLite(dbPath)
	case "d1":
		endpoint := envString("WM_INDEX_D1_INGEST_URL", "")
		if endpoint == "" {
			return nil, fmt.Errorf("WM_INDEX_BACKEND=d1 but WM_INDEX_D1_INGEST_URL is empty")
		}
		idx, err := indexdb.OpenD1(indexdb.D1Config{
			Endpoint:      endpoint,
			Token:         envString("WM_INDEX_D1_TOKEN", ""),
			WorldID:       worldID,
			BatchSize:     envInt("WM_INDEX_D1_BATCH_SIZE", 128),
			FlushInterval: time.Duration(envInt("WM_INDEX_D1_FLUSH_MS", 500)) * time.Millisecond,
			Logger:        logger,
		})
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported WM_INDEX_BACKEND: %s", backend)
	}
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a world.AuditLogger
	b world.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry world.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
