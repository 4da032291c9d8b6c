package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"waymark.ai/internal/sim/world"
)

// ErrStop ends a read early without reporting an error.
var ErrStop = errors.New("stop")

// ListFiles returns the <prefix>-*.jsonl.zst files in dir in chronological order.
func ListFiles(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadLines decodes every line of one zstd JSONL file. fn may stop the scan early by
// returning ErrStop.
func ReadLines(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if err := fn(sc.Bytes()); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}
	}
	return sc.Err()
}

// ReadTicks streams every tick entry under worldDir in file order.
func ReadTicks(worldDir string, fn func(world.TickLogEntry) error) error {
	files, err := TickStream.Files(worldDir)
	if err != nil {
		return err
	}
	for _, path := range files {
		stopped := false
		err := ReadLines(path, func(line []byte) error {
			var e world.TickLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
			}
			if err := fn(e); err != nil {
				if err == ErrStop {
					stopped = true
				}
				return err
			}
			return nil
		})
		if err != nil {
			return err
		}
		if stopped {
			return nil
		}
	}
	return nil
}
