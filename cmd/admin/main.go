package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	persistlog "waymark.ai/internal/persistence/log"
	"waymark.ai/internal/persistence/snapshot"
	"waymark.ai/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state", "intents", "snapshot", "spawn", "despawn":
			httpCmd(os.Args[1], os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	if *worldID == "" {
		entries, err := os.ReadDir(filepath.Join(*dataDir, "worlds"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		for _, e := range entries {
			if e.IsDir() {
				fmt.Println(e.Name())
			}
		}
		return
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	latest, _ := snapshot.Latest(filepath.Join(worldDir, "snapshots"))
	ticks, _ := persistlog.TickStream.Files(worldDir)
	audits, _ := persistlog.AuditStream.Files(worldDir)
	printJSON(os.Stdout, map[string]any{
		"world":           *worldID,
		"latest_snapshot": latest,
		"tick_files":      len(ticks),
		"audit_files":     len(audits),
	})
}

type auditFilter struct {
	SinceTick uint64
	ToTick    uint64
	Actor     string
	Action    string
	EntityID  uint32
}

func (f auditFilter) match(e world.AuditEntry) bool {
	if e.Tick < f.SinceTick || (f.ToTick != 0 && e.Tick > f.ToTick) {
		return false
	}
	if f.Actor != "" && string(e.Actor) != f.Actor {
		return false
	}
	if f.Action != "" && !strings.EqualFold(e.Action, f.Action) {
		return false
	}
	return f.EntityID == 0 || e.EntityID == f.EntityID
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	var f auditFilter
	fs.Uint64Var(&f.SinceTick, "since_tick", 0, "first tick (inclusive)")
	fs.Uint64Var(&f.ToTick, "to_tick", 0, "last tick (inclusive, optional)")
	fs.StringVar(&f.Actor, "actor", "", "actor identity filter")
	fs.StringVar(&f.Action, "action", "", "action filter (ENTER, LEAVE, SPAWN, DESPAWN, MOVE_REJECTED, INTENT_HEALED)")
	entity := fs.Uint("entity", 0, "entity id filter")
	limit := fs.Int("limit", 0, "stop after N matches (0 = all)")
	_ = fs.Parse(args)
	f.EntityID = uint32(*entity)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	n, err := scanAudit(filepath.Join(*dataDir, "worlds", *worldID), f, *limit, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%d entries\n", n)
}

// scanAudit prints every audit entry of the world accepted by f, oldest first.
func scanAudit(worldDir string, f auditFilter, limit int, out io.Writer) (int, error) {
	files, err := persistlog.AuditStream.Files(worldDir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, path := range files {
		err := persistlog.ReadLines(path, func(line []byte) error {
			var e world.AuditEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
			}
			if !f.match(e) {
				return nil
			}
			printJSON(out, e)
			n++
			if limit > 0 && n >= limit {
				return persistlog.ErrStop
			}
			return nil
		})
		if err != nil {
			return n, err
		}
		if limit > 0 && n >= limit {
			break
		}
	}
	return n, nil
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
