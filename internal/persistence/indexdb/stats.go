package indexdb

import "sync/atomic"

type dropCounters struct {
	tick          atomic.Uint64
	audit         atomic.Uint64
	snapshot      atomic.Uint64
	snapshotState atomic.Uint64
	tuning        atomic.Uint64
}

// QueueStats reports writer backlog and rows dropped because the queue was full.
type QueueStats struct {
	QueueDepth    int `json:"queue_depth"`
	QueueCapacity int `json:"queue_capacity"`

	DropTickTotal          uint64 `json:"drop_tick_total"`
	DropAuditTotal         uint64 `json:"drop_audit_total"`
	DropSnapshotTotal      uint64 `json:"drop_snapshot_total"`
	DropSnapshotStateTotal uint64 `json:"drop_snapshot_state_total"`
	DropTuningTotal        uint64 `json:"drop_tuning_total"`
}

func (d *dropCounters) fill(st *QueueStats) {
	st.DropTickTotal = d.tick.Load()
	st.DropAuditTotal = d.audit.Load()
	st.DropSnapshotTotal = d.snapshot.Load()
	st.DropSnapshotStateTotal = d.snapshotState.Load()
	st.DropTuningTotal = d.tuning.Load()
}

func (s *SQLiteIndex) Stats() QueueStats {
	if s == nil {
		return QueueStats{}
	}
	st := QueueStats{QueueDepth: len(s.ch), QueueCapacity: cap(s.ch)}
	s.drops.fill(&st)
	return st
}
