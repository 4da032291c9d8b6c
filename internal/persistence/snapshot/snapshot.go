// Package snapshot stores full world state as a JSON header line followed by a gob body,
// zstd-compressed.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	// Tunables captured for deterministic replay/resume.
	TickRateHz         int        `json:"tick_rate_hz"`
	AcceptanceRadius   float64    `json:"acceptance_radius"`
	MoveSpeed          float64    `json:"move_speed"`
	MaxMoveDistance    float64    `json:"max_move_distance"`
	ObsRadiusChunks    int        `json:"obs_radius_chunks"`
	SnapshotEveryTicks int        `json:"snapshot_every_ticks,omitempty"`
	Spawn              [3]float64 `json:"spawn"`

	SystemIdentity string      `json:"system_identity"`
	Timer          TickTimerV1 `json:"timer"`
	Counters       CountersV1  `json:"counters"`

	Entities   []EntityV1    `json:"entities"`
	Transforms []TransformV1 `json:"transforms"`
	Characters []CharacterV1 `json:"characters"`
	Pawns      []PawnV1      `json:"pawns"`
	Movements  []MovementV1  `json:"movements"`
}

type TickTimerV1 struct {
	ScheduledID      uint64 `json:"scheduled_id"`
	IntervalNanos    int64  `json:"interval_nanos"`
	LastTickUnixNano int64  `json:"last_tick_unix_nano"`
}

type CountersV1 struct {
	NextEntityID    uint32 `json:"next_entity_id"`
	NextTransformID uint32 `json:"next_transform_id"`
	NextCharacterID uint32 `json:"next_character_id"`
	NextPawnID      uint32 `json:"next_pawn_id"`
}

type EntityV1 struct {
	ID          uint32 `json:"id"`
	TransformID uint32 `json:"transform_id"`
}

type TransformV1 struct {
	ID          uint32     `json:"id"`
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
	Scale       [3]float64 `json:"scale"`
	ChunkID     uint32     `json:"chunk_id"`
}

type CharacterV1 struct {
	ID          uint32 `json:"id"`
	Identity    string `json:"identity"`
	TransformID uint32 `json:"transform_id"`
}

type PawnV1 struct {
	ID          uint32 `json:"id"`
	Identity    string `json:"identity"`
	EntityID    uint32 `json:"entity_id"`
	CharacterID uint32 `json:"character_id"`
}

// MovementV1 is one intent row. Kind is "PATH" (Path is read) or "CHASE" (Target is read).
type MovementV1 struct {
	EntityID uint32       `json:"entity_id"`
	Kind     string       `json:"kind"`
	Path     [][3]float64 `json:"path,omitempty"`
	Target   uint32       `json:"target,omitempty"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Read header line (ignore it for now, gob also contains header).
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// Latest returns the snapshot file in dir with the highest tick, or "" when there is none.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.snap.zst"))
	if err != nil {
		return "", err
	}
	var best string
	var bestTick uint64
	for _, m := range matches {
		var tick uint64
		if _, err := fmt.Sscanf(filepath.Base(m), "%d.snap.zst", &tick); err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			best, bestTick = m, tick
		}
	}
	return best, nil
}

// PathFor is the canonical file name for a snapshot taken at tick.
func PathFor(dir string, tick uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.snap.zst", tick))
}
