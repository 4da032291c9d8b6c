package world

import "time"

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// TickLogEntry records every input applied in a tick plus the resulting digest, enough to
// replay the tick from the previous state.
type TickLogEntry struct {
	Tick        uint64          `json:"tick"`
	NowUnixNano int64           `json:"now_unix_nano"`
	DT          float64         `json:"dt"`
	Leaves      []Identity      `json:"leaves,omitempty"`
	Enters      []RecordedEnter `json:"enters,omitempty"`
	Despawns    []uint32        `json:"despawns,omitempty"`
	Spawns      []RecordedSpawn `json:"spawns,omitempty"`
	Moves       []RecordedMove  `json:"moves,omitempty"`
	Removed     []Removal       `json:"removed,omitempty"`
	Digest      string          `json:"digest"`
}

type RecordedEnter struct {
	Identity Identity `json:"identity"`
	EntityID uint32   `json:"entity_id,omitempty"`
	Code     string   `json:"code,omitempty"`
}

type RecordedSpawn struct {
	Pos      [3]float64 `json:"pos"`
	EntityID uint32     `json:"entity_id,omitempty"`
}

type RecordedMove struct {
	Identity Identity     `json:"identity"`
	ReqID    string       `json:"req_id,omitempty"`
	Kind     string       `json:"kind"`
	Path     [][3]float64 `json:"path,omitempty"`
	Target   uint32       `json:"target,omitempty"`
	OK       bool         `json:"ok"`
	Code     string       `json:"code,omitempty"`
}

// AuditEntry is one noteworthy state change outside normal movement progress.
type AuditEntry struct {
	Tick     uint64   `json:"tick"`
	Actor    Identity `json:"actor,omitempty"`
	Action   string   `json:"action"` // e.g. "MOVE_REJECTED", "INTENT_HEALED"
	EntityID uint32   `json:"entity_id,omitempty"`
	Code     string   `json:"code,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// StepInput is the full set of inputs of one tick, for deterministic stepping and replay.
type StepInput struct {
	Now      time.Time
	Leaves   []Identity
	Enters   []Identity
	Despawns []uint32
	Spawns   []Vec3
	Moves    []MoveRequest
}

// ReplayInput rebuilds the inputs of a logged tick.
func ReplayInput(e TickLogEntry) (StepInput, error) {
	in := StepInput{
		Now:      time.Unix(0, e.NowUnixNano),
		Leaves:   e.Leaves,
		Despawns: e.Despawns,
	}
	for _, en := range e.Enters {
		in.Enters = append(in.Enters, en.Identity)
	}
	for _, s := range e.Spawns {
		in.Spawns = append(in.Spawns, Vec3{X: s.Pos[0], Y: s.Pos[1], Z: s.Pos[2]})
	}
	for _, m := range e.Moves {
		intent, err := intentFromRecord(m)
		if err != nil {
			return StepInput{}, err
		}
		in.Moves = append(in.Moves, MoveRequest{Identity: m.Identity, ReqID: m.ReqID, Intent: intent})
	}
	return in, nil
}
