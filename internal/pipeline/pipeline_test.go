package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anthropic/toolstream/internal/config"
	"github.com/anthropic/toolstream/internal/logging"
	"github.com/anthropic/toolstream/internal/sink"
)

const sessionContent = `{"uuid":"c1","type":"assistant","timestamp":"2026-02-09T12:00:00Z","message":{"content":[{"type":"tool_use","id":"X","name":"Bash","input":{"command":"ls"}}]}}
{"uuid":"r1","type":"user","timestamp":"2026-02-09T12:00:02Z","message":{"content":[{"type":"tool_result","tool_use_id":"X","content":"a.txt"}]}}
{"uuid":"c2","type":"assistant","timestamp":"2026-02-09T12:00:05Z","message":{"content":[{"type":"tool_use","id":"Y","name":"Read","input":{"file_path":"/tmp/f"}}]}}
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	projDir := filepath.Join(dir, "logs", "-Users-dev-app")
	if err := os.MkdirAll(projDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projDir, "sess-1.jsonl"), []byte(sessionContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.LogRoot = filepath.Join(dir, "logs")
	cfg.DBPath = filepath.Join(dir, "toolstream.db")
	cfg.OverridePath = filepath.Join(dir, "overrides.json")
	return cfg
}

func TestBackfillPersistsCompletions(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, logging.Nop())

	stats, err := p.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
	if stats.Completions != 1 {
		t.Errorf("Completions = %d, want 1", stats.Completions)
	}
	if stats.Unmatched != 1 {
		t.Errorf("Unmatched = %d, want 1 (Y never resolved)", stats.Unmatched)
	}

	db, err := sink.New(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	count, err := db.ToolEventsCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("ToolEventsCount = %d, want 1", count)
	}

	usage, err := db.ToolUsageByName()
	if err != nil {
		t.Fatal(err)
	}
	if len(usage) != 1 || usage[0].ToolName != "Bash" || usage[0].AvgDurMs != 2000 {
		t.Errorf("usage = %+v, want one Bash row at 2000ms", usage)
	}
}

func TestBackfillMissingRoot(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogRoot = filepath.Join(t.TempDir(), "nothing-here")
	p := New(cfg, logging.Nop())

	stats, err := p.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if stats.Entries != 0 || stats.Completions != 0 {
		t.Errorf("stats = %+v, want zeroes", stats)
	}
}

func TestRunRejectsDoubleStart(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// Wait for the pipeline to come up, then verify the guard.
	for {
		p.mu.Lock()
		running := p.running
		p.mu.Unlock()
		if running {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err := p.Run(ctx); err == nil {
		t.Error("second Run should fail while the first is active")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v on cancellation", err)
	}
}
