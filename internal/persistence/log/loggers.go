package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"waymark.ai/internal/sim/world"
)

// Stream names one hourly-segmented JSONL log under a world directory. Segments are
// <Dir>/<Prefix>-YYYY-MM-DD-HH.jsonl.zst in UTC.
type Stream struct {
	Dir    string
	Prefix string
}

var (
	TickStream  = Stream{Dir: "ticks", Prefix: "ticks"}
	AuditStream = Stream{Dir: "audit", Prefix: "audit"}
)

// ErrTickOrder is returned when a tick entry does not follow the previous one.
var ErrTickOrder = errors.New("tick log out of order")

func (s Stream) Path(worldDir string) string { return filepath.Join(worldDir, s.Dir) }

// Files lists the stream's segments under worldDir, oldest first.
func (s Stream) Files(worldDir string) ([]string, error) {
	return ListFiles(s.Path(worldDir), s.Prefix)
}

func (s Stream) segmentName(hour time.Time) string {
	return fmt.Sprintf("%s-%s.jsonl.zst", s.Prefix, hour.Format("2006-01-02-15"))
}

// segmentWriter appends one JSON value per line to the current hour's segment. A segment is
// reopened in append mode after a restart; the reader handles concatenated zstd frames.
type segmentWriter struct {
	dir    string
	stream Stream
	clock  func() time.Time

	mu   sync.Mutex
	hour time.Time
	file *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
	enc  *json.Encoder
}

func newSegmentWriter(worldDir string, s Stream) *segmentWriter {
	return &segmentWriter{dir: s.Path(worldDir), stream: s, clock: time.Now}
}

func (sw *segmentWriter) append(v any) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	hour := sw.clock().UTC().Truncate(time.Hour)
	if sw.file == nil || !hour.Equal(sw.hour) {
		if err := sw.openSegment(hour); err != nil {
			return err
		}
	}
	if err := sw.enc.Encode(v); err != nil {
		return err
	}
	return sw.buf.Flush()
}

func (sw *segmentWriter) openSegment(hour time.Time) error {
	if err := sw.closeSegment(); err != nil {
		return err
	}
	if err := os.MkdirAll(sw.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(sw.dir, sw.stream.segmentName(hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	sw.hour = hour
	sw.file = f
	sw.zw = zw
	sw.buf = bufio.NewWriterSize(zw, 64<<10)
	sw.enc = json.NewEncoder(sw.buf)
	return nil
}

// closeSegment finishes the zstd frame; the first error wins.
func (sw *segmentWriter) closeSegment() error {
	if sw.file == nil {
		return nil
	}
	err := sw.buf.Flush()
	if cerr := sw.zw.Close(); err == nil {
		err = cerr
	}
	if cerr := sw.file.Close(); err == nil {
		err = cerr
	}
	sw.file, sw.zw, sw.buf, sw.enc = nil, nil, nil, nil
	return err
}

func (sw *segmentWriter) close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.closeSegment()
}

// TickLogger records one entry per tick. Replaying the entries on top of the preceding
// snapshot reproduces every logged digest, so entries must arrive in tick order.
type TickLogger struct {
	seg *segmentWriter

	mu      sync.Mutex
	last    uint64
	started bool
}

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{seg: newSegmentWriter(worldDir, TickStream)}
}

func (l *TickLogger) WriteTick(e world.TickLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started && e.Tick <= l.last {
		return fmt.Errorf("%w: tick %d after %d", ErrTickOrder, e.Tick, l.last)
	}
	if err := l.seg.append(e); err != nil {
		return err
	}
	l.last, l.started = e.Tick, true
	return nil
}

func (l *TickLogger) Close() error { return l.seg.close() }

// AuditLogger records presence changes, rejected moves and healed intents.
type AuditLogger struct{ seg *segmentWriter }

func NewAuditLogger(worldDir string) *AuditLogger {
	return &AuditLogger{seg: newSegmentWriter(worldDir, AuditStream)}
}

func (l *AuditLogger) WriteAudit(e world.AuditEntry) error { return l.seg.append(e) }
func (l *AuditLogger) Close() error                        { return l.seg.close() }
