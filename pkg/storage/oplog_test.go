package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func newTestOpLog(t *testing.T, maxEntries int) *OpLog {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "civd-oplog-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	ol, err := NewOpLog(filepath.Join(tempDir, "test.db"), maxEntries)
	if err != nil {
		t.Fatalf("Failed to create op log: %v", err)
	}
	t.Cleanup(func() { ol.Close() })

	return ol
}

func TestRecordAndRecent(t *testing.T) {
	ol := newTestOpLog(t, 100)

	entries := []Entry{
		{Op: "vfo.set", Detail: "MAIN", OK: true, DurationMs: 12},
		{Op: "freq.set", Detail: "145500000", OK: true, DurationMs: 8},
		{Op: "mode.set", Detail: "DV", OK: false, Error: "civ: device rejected command (NG)", DurationMs: 15},
	}

	for _, e := range entries {
		if err := ol.Record(e); err != nil {
			t.Fatalf("Failed to record entry: %v", err)
		}
	}

	got, err := ol.Recent(10)
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(got))
	}

	// Newest first.
	if got[0].Op != "mode.set" {
		t.Errorf("Expected newest entry mode.set, got %s", got[0].Op)
	}
	if got[0].OK {
		t.Error("Expected failed entry")
	}
	if got[0].Error == "" {
		t.Error("Expected error text on failed entry")
	}
	if got[2].Op != "vfo.set" || got[2].Detail != "MAIN" {
		t.Errorf("Expected oldest entry vfo.set MAIN, got %s %s", got[2].Op, got[2].Detail)
	}
}

func TestRecentLimit(t *testing.T) {
	ol := newTestOpLog(t, 100)

	for i := 0; i < 10; i++ {
		if err := ol.Record(Entry{Op: "ptt.get", OK: true}); err != nil {
			t.Fatalf("Failed to record entry: %v", err)
		}
	}

	got, err := ol.Recent(4)
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("Expected 4 entries, got %d", len(got))
	}
}

func TestCleanupOldEntries(t *testing.T) {
	ol := newTestOpLog(t, 5)

	for i := 0; i < 12; i++ {
		e := Entry{Op: "freq.set", Detail: fmt.Sprintf("%d", i), OK: true}
		if err := ol.Record(e); err != nil {
			t.Fatalf("Failed to record entry: %v", err)
		}
	}

	got, err := ol.Recent(100)
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Expected log trimmed to 5 entries, got %d", len(got))
	}

	// The survivors are the newest ones.
	if got[0].Detail != "11" {
		t.Errorf("Expected newest entry 11, got %s", got[0].Detail)
	}
	if got[4].Detail != "7" {
		t.Errorf("Expected oldest survivor 7, got %s", got[4].Detail)
	}
}

func TestStats(t *testing.T) {
	ol := newTestOpLog(t, 100)

	for i := 0; i < 6; i++ {
		e := Entry{Op: "mode.get", OK: i%3 != 0}
		if err := ol.Record(e); err != nil {
			t.Fatalf("Failed to record entry: %v", err)
		}
	}

	total, failed, err := ol.Stats()
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if total != 6 {
		t.Errorf("Expected 6 total, got %d", total)
	}
	if failed != 2 {
		t.Errorf("Expected 2 failed, got %d", failed)
	}
}
