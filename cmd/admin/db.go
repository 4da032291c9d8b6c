package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	tick := fs.Uint64("tick", 0, "snapshot tick (optional; defaults to latest)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runQuery(db, q, *tick, *limit, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-world WORLD|-db PATH] [-tick T] snapshots|positions|intents|rejections|removals")
		os.Exit(1)
	}
}

func runQuery(db *sql.DB, q string, tick uint64, limit int, out io.Writer) error {
	if limit <= 0 {
		limit = 20
	}
	switch q {
	case "positions", "intents":
		if tick == 0 {
			lt, err := latestSnapshotTick(db)
			if err != nil {
				return fmt.Errorf("latest tick: %w", err)
			}
			if lt == 0 {
				return fmt.Errorf("no snapshots found")
			}
			tick = lt
		}
	}

	switch q {
	case "snapshots":
		type row struct {
			Tick       uint64 `json:"tick"`
			Path       string `json:"path"`
			Entities   int    `json:"entities"`
			Characters int    `json:"characters"`
			Pawns      int    `json:"pawns"`
			Intents    int    `json:"intents"`
		}
		return queryRows(db, out, `SELECT tick,path,entities,characters,pawns,intents FROM snapshots ORDER BY tick DESC LIMIT ?`,
			[]any{limit}, func(s scanner) (any, error) {
				var r row
				err := s.Scan(&r.Tick, &r.Path, &r.Entities, &r.Characters, &r.Pawns, &r.Intents)
				return r, err
			})

	case "positions":
		type row struct {
			Tick     uint64     `json:"tick"`
			EntityID uint32     `json:"entity_id"`
			Pos      [3]float64 `json:"pos"`
			ChunkID  uint32     `json:"chunk_id"`
			Identity string     `json:"identity,omitempty"`
		}
		return queryRows(db, out, `SELECT entity_id,x,y,z,chunk_id,identity FROM entity_positions WHERE tick=? ORDER BY entity_id`,
			[]any{tick}, func(s scanner) (any, error) {
				r := row{Tick: tick}
				var ident sql.NullString
				err := s.Scan(&r.EntityID, &r.Pos[0], &r.Pos[1], &r.Pos[2], &r.ChunkID, &ident)
				r.Identity = ident.String
				return r, err
			})

	case "intents":
		type row struct {
			Tick     uint64 `json:"tick"`
			EntityID uint32 `json:"entity_id"`
			Kind     string `json:"kind"`
			PathJSON string `json:"path_json,omitempty"`
			Target   uint32 `json:"target,omitempty"`
		}
		return queryRows(db, out, `SELECT entity_id,kind,path_json,target FROM intents WHERE tick=? ORDER BY entity_id`,
			[]any{tick}, func(s scanner) (any, error) {
				r := row{Tick: tick}
				var path sql.NullString
				var target sql.NullInt64
				err := s.Scan(&r.EntityID, &r.Kind, &path, &target)
				r.PathJSON = path.String
				r.Target = uint32(target.Int64)
				return r, err
			})

	case "rejections":
		type row struct {
			Tick     uint64 `json:"tick"`
			Identity string `json:"identity"`
			ReqID    string `json:"req_id,omitempty"`
			Kind     string `json:"kind"`
			Code     string `json:"code"`
		}
		return queryRows(db, out, `SELECT tick,identity,req_id,kind,code FROM move_requests WHERE ok=0 ORDER BY tick DESC, seq DESC LIMIT ?`,
			[]any{limit}, func(s scanner) (any, error) {
				var r row
				err := s.Scan(&r.Tick, &r.Identity, &r.ReqID, &r.Kind, &r.Code)
				return r, err
			})

	case "removals":
		type row struct {
			Tick     uint64 `json:"tick"`
			EntityID uint32 `json:"entity_id"`
			Reason   string `json:"reason"`
		}
		return queryRows(db, out, `SELECT tick,entity_id,reason FROM removals ORDER BY tick DESC, entity_id LIMIT ?`,
			[]any{limit}, func(s scanner) (any, error) {
				var r row
				err := s.Scan(&r.Tick, &r.EntityID, &r.Reason)
				return r, err
			})

	default:
		return fmt.Errorf("unknown query: %s", q)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func queryRows(db *sql.DB, out io.Writer, q string, args []any, scan func(scanner) (any, error)) error {
	rows, err := db.Query(q, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		printJSON(out, r)
	}
	return rows.Err()
}

func latestSnapshotTick(db *sql.DB) (uint64, error) {
	var t int64
	if err := db.QueryRow(`SELECT COALESCE(MAX(tick),0) FROM snapshots`).Scan(&t); err != nil {
		return 0, err
	}
	if t < 0 {
		return 0, nil
	}
	return uint64(t), nil
}
