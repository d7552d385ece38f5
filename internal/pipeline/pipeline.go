// Package pipeline assembles the monitor, correlation engine, and sink
// into the long-running watch process and the one-shot backfill.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/anthropic/toolstream/internal/config"
	"github.com/anthropic/toolstream/internal/correlate"
	"github.com/anthropic/toolstream/internal/decode"
	"github.com/anthropic/toolstream/internal/entry"
	"github.com/anthropic/toolstream/internal/monitor"
	"github.com/anthropic/toolstream/internal/pathcodec"
	"github.com/anthropic/toolstream/internal/sink"
)

// Pipeline owns the wiring between components. Construction is cheap;
// Run and Backfill open the sink and tear everything down on exit.
type Pipeline struct {
	cfg *config.Config
	log zerolog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Pipeline over cfg.
func New(cfg *config.Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		log: log.With().Str("component", "pipeline").Logger(),
	}
}

// Run starts watching the session log root and blocks until the context
// is cancelled or a shutdown signal arrives.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("pipeline is already running")
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	overrides, err := pathcodec.LoadOverrides(p.cfg.OverridePath)
	if err != nil {
		return fmt.Errorf("load path overrides: %w", err)
	}

	db, err := p.openSink()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	ctx, stop := signalContext(ctx)
	defer stop()

	engine := correlate.New(
		decode.NewRegistry(p.log),
		time.Duration(p.cfg.CorrelationTimeoutMs)*time.Millisecond,
		time.Duration(p.cfg.CorrelationSweepMs)*time.Millisecond,
		correlate.Handlers{
			Completed: func(c correlate.Completion) { p.storeCompletion(db, c) },
			TimedOut:  func(to correlate.Timeout) { p.storeTimeout(db, to) },
		},
		p.log,
	)

	mon := monitor.New(
		p.cfg.LogRoot,
		time.Duration(p.cfg.ActivityThresholdMs)*time.Millisecond,
		time.Duration(p.cfg.SessionSweepMs)*time.Millisecond,
		overrides,
		monitor.Handlers{
			Entry:   func(e *entry.RawEntry) { engine.ProcessEntry(e) },
			Session: func(ev monitor.SessionEvent) { p.storeSession(db, ev) },
			Error:   func(err error) { p.log.Error().Err(err).Msg("monitor error") },
		},
		p.log,
	)

	engine.Start(ctx)
	if err := mon.StartWatching(ctx); err != nil {
		engine.Stop()
		return fmt.Errorf("start watching: %w", err)
	}

	p.log.Info().Str("root", p.cfg.LogRoot).Str("db", p.cfg.DBPath).Msg("pipeline started")
	<-ctx.Done()
	p.log.Info().Msg("shutting down")

	// Ordered teardown: stop producing entries, then stop the matcher,
	// then close the database the handlers write to.
	mon.StopWatching()
	engine.Stop()
	return nil
}

// BackfillStats summarizes one historical pass.
type BackfillStats struct {
	Entries     int
	Completions int
	Unmatched   int
}

// Backfill replays every entry under the log root through the matcher
// and persists the results. Calls left pending at the end of a replay
// never resolve, so they are counted rather than timed out.
func (p *Pipeline) Backfill(ctx context.Context) (BackfillStats, error) {
	var stats BackfillStats

	db, err := p.openSink()
	if err != nil {
		return stats, err
	}
	if db != nil {
		defer db.Close()
	}

	overrides, err := pathcodec.LoadOverrides(p.cfg.OverridePath)
	if err != nil {
		return stats, fmt.Errorf("load path overrides: %w", err)
	}

	engine := correlate.New(
		decode.NewRegistry(p.log),
		time.Duration(p.cfg.CorrelationTimeoutMs)*time.Millisecond,
		0,
		correlate.Handlers{
			Completed: func(c correlate.Completion) {
				stats.Completions++
				p.storeCompletion(db, c)
			},
		},
		p.log,
	)

	mon := monitor.New(p.cfg.LogRoot, 0, 0, overrides, monitor.Handlers{}, p.log)
	err = mon.ReadAll(ctx, func(e *entry.RawEntry) error {
		stats.Entries++
		engine.ProcessEntry(e)
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("read session logs: %w", err)
	}

	es := engine.GetStats()
	stats.Unmatched = es.PendingCalls + es.PendingResults
	return stats, nil
}

// openSink opens the analytics database, or returns nil when the config
// leaves it disabled.
func (p *Pipeline) openSink() (*sink.Sink, error) {
	if p.cfg.DBPath == "" {
		p.log.Debug().Msg("no db_path configured, sink disabled")
		return nil, nil
	}
	db, err := sink.New(p.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}
	return db, nil
}

func (p *Pipeline) storeCompletion(db *sink.Sink, c correlate.Completion) {
	if db == nil {
		return
	}
	ev := sink.ToolEvent{
		SessionID:  c.Call.SessionID,
		ToolID:     c.ToolID,
		ToolName:   c.Record.Tool,
		Status:     string(c.Record.Status),
		Summary:    c.Record.Summary,
		Error:      c.Record.Error,
		Sidechain:  c.Record.Sidechain,
		DurationMs: c.Duration.Milliseconds(),
		Timestamp:  c.Result.Timestamp,
	}
	if err := db.InsertToolEvent(ev); err != nil {
		p.log.Error().Err(err).Str("tool_id", c.ToolID).Msg("store tool event")
	}
}

func (p *Pipeline) storeTimeout(db *sink.Sink, to correlate.Timeout) {
	if db == nil {
		return
	}
	if err := db.InsertTimeout(to.Call.SessionID, to.ToolID, to.ToolName, to.Call.Timestamp); err != nil {
		p.log.Error().Err(err).Str("tool_id", to.ToolID).Msg("store timeout")
	}
}

func (p *Pipeline) storeSession(db *sink.Sink, ev monitor.SessionEvent) {
	if db == nil {
		return
	}
	s := ev.Session
	if err := db.UpsertSession(s.SessionID, s.ProjectPath, s.FilePath, s.LastModified, s.IsActive); err != nil {
		p.log.Error().Err(err).Str("session", s.SessionID).Msg("store session")
	}
}
