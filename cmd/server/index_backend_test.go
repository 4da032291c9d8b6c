package main

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"waymark.ai/internal/sim/world"
)

type countingLogger struct{ ticks, audits int }

func (c *countingLogger) WriteTick(world.TickLogEntry) error { c.ticks++; return nil }
func (c *countingLogger) WriteAudit(world.AuditEntry) error  { c.audits++; return nil }

func TestMultiLoggersFanOut(t *testing.T) {
	a, b := &countingLogger{}, &countingLogger{}
	_ = multiTickLogger{a: a, b: b}.WriteTick(world.TickLogEntry{Tick: 1})
	_ = multiAuditLogger{a: a}.WriteAudit(world.AuditEntry{Tick: 1})
	if a.ticks != 1 || b.ticks != 1 || a.audits != 1 || b.audits != 0 {
		t.Fatalf("a=%+v b=%+v", a, b)
	}
}

func TestOpenRuntimeIndexBackends(t *testing.T) {
	logger := log.New(os.Stderr, "", 0)
	dir := t.TempDir()

	idx, err := openRuntimeIndex(dir, "w", true, logger)
	if err != nil || idx != nil {
		t.Fatalf("disabled: idx=%v err=%v", idx, err)
	}

	t.Setenv("WM_INDEX_BACKEND", "off")
	if idx, err := openRuntimeIndex(dir, "w", false, logger); err != nil || idx != nil {
		t.Fatalf("off: idx=%v err=%v", idx, err)
	}

	t.Setenv("WM_INDEX_BACKEND", "d1")
	if _, err := openRuntimeIndex(dir, "w", false, logger); err == nil {
		t.Fatalf("d1 without url should fail")
	}

	t.Setenv("WM_INDEX_BACKEND", "bogus")
	if _, err := openRuntimeIndex(dir, "w", false, logger); err == nil {
		t.Fatalf("unknown backend should fail")
	}

	t.Setenv("WM_INDEX_BACKEND", "")
	idx, err = openRuntimeIndex(dir, "w", false, logger)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer idx.Close()
	if _, err := os.Stat(filepath.Join(dir, "index", "world.sqlite")); err != nil {
		t.Fatalf("sqlite file: %v", err)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("WM_TEST_INT", "42")
	t.Setenv("WM_TEST_BAD", "x")
	t.Setenv("WM_TEST_LIST", " a, ,b ")
	if envInt("WM_TEST_INT", 1) != 42 || envInt("WM_TEST_BAD", 7) != 7 || envInt("WM_TEST_UNSET", 3) != 3 {
		t.Fatalf("envInt")
	}
	if got := envList("WM_TEST_LIST"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("envList=%v", got)
	}
	if envBool("WM_TEST_BAD", true) != true {
		t.Fatalf("envBool fallback")
	}
}
