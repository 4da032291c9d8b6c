package world

import (
	"context"
	"errors"
)

var (
	ErrNoSnapshotSink = errors.New("snapshot sink not configured")
	ErrSnapshotBusy   = errors.New("snapshot writer is behind")
)

// SnapshotResult describes a snapshot handed to the sink.
type SnapshotResult struct {
	Tick      uint64 `json:"tick"`
	Entities  int    `json:"entities"`
	Movements int    `json:"movements"`
}

type snapshotReq struct {
	reply chan snapshotReply
}

type snapshotReply struct {
	res SnapshotResult
	err error
}

// RequestSnapshot asks the loop to export the last completed tick to the snapshot sink.
// It is safe to call from other goroutines.
func (w *World) RequestSnapshot(ctx context.Context) (SnapshotResult, error) {
	if w == nil {
		return SnapshotResult{}, ErrNoSnapshotSink
	}
	reply := make(chan snapshotReply, 1)
	select {
	case w.snapshots <- snapshotReq{reply: reply}:
	case <-ctx.Done():
		return SnapshotResult{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.res, r.err
	case <-ctx.Done():
		return SnapshotResult{}, ctx.Err()
	}
}

// offerSnapshot exports the state as of tick and hands it to the sink without blocking.
func (w *World) offerSnapshot(tick uint64) (SnapshotResult, error) {
	if w.snapshotSink == nil {
		return SnapshotResult{Tick: tick}, ErrNoSnapshotSink
	}
	snap := w.ExportSnapshot(tick)
	res := SnapshotResult{Tick: tick, Entities: len(snap.Entities), Movements: len(snap.Movements)}
	select {
	case w.snapshotSink <- snap:
		return res, nil
	default:
		return res, ErrSnapshotBusy
	}
}

// serveSnapshotRequests answers everything queued since the previous tick with one export.
func (w *World) serveSnapshotRequests(reqs []snapshotReq) {
	if len(reqs) == 0 {
		return
	}
	tick := w.tick.Load()
	if tick > 0 {
		tick--
	}
	res, err := w.offerSnapshot(tick)
	if err != nil {
		w.logf("[world] snapshot at tick %d: %v", tick, err)
	}
	for _, r := range reqs {
		select {
		case r.reply <- snapshotReply{res: res, err: err}:
		default:
			// Caller gave up.
		}
	}
}
