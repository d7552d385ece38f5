// Package correlate pairs tool-call entries with their later-arriving
// tool-result entries by shared invocation id. Call-first and result-first
// arrival are both handled; pending entries that never find a counterpart
// are evicted by a periodic sweep.
package correlate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/anthropic/toolstream/internal/decode"
	"github.com/anthropic/toolstream/internal/entry"
)

// Defaults for the sweep, overridable through New.
const (
	DefaultTimeout       = 5 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Decoder is the seam to the decoder registry. Defined here so the engine
// does not depend on the concrete *decode.Registry and tests can inject a
// failing decoder.
type Decoder interface {
	Decode(call *entry.RawEntry, result *entry.RawEntry) (*decode.Record, error)
}

// Completion is emitted when a call/result pair matches and decodes.
type Completion struct {
	ToolName string
	ToolID   string
	Duration time.Duration
	Call     *entry.RawEntry
	Result   *entry.RawEntry
	Record   *decode.Record
}

// Timeout is emitted when a pending call ages out without a result.
// Orphaned results age out silently and produce no event.
type Timeout struct {
	ToolName string
	ToolID   string
	Call     *entry.RawEntry
}

// Handlers receives engine events. Nil fields are skipped.
type Handlers struct {
	Completed func(Completion)
	TimedOut  func(Timeout)
}

// pending is an entry awaiting its counterpart. retries is bookkeeping
// reserved for future backoff; nothing increments it yet.
type pending struct {
	entry    *entry.RawEntry
	block    entry.ContentBlock
	storedAt time.Time
	retries  int
}

// Stats is a health snapshot of the pending tables.
type Stats struct {
	PendingCalls   int
	PendingResults int
	OldestAge      time.Duration
}

// Engine is the stateful matcher. All mutation happens under mu; events
// are emitted outside the lock.
type Engine struct {
	dec      Decoder
	handlers Handlers
	timeout  time.Duration
	sweep    time.Duration
	log      zerolog.Logger

	// now is swappable for deterministic tests.
	now func() time.Time

	mu             sync.Mutex
	pendingCalls   map[string]*pending
	pendingResults map[string]*pending
	running        bool
	cancel         context.CancelFunc
}

// New creates an Engine. Zero durations take the defaults.
func New(dec Decoder, timeout, sweep time.Duration, handlers Handlers, log zerolog.Logger) *Engine {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if sweep == 0 {
		sweep = DefaultSweepInterval
	}
	return &Engine{
		dec:            dec,
		handlers:       handlers,
		timeout:        timeout,
		sweep:          sweep,
		log:            log.With().Str("component", "correlate").Logger(),
		now:            time.Now,
		pendingCalls:   make(map[string]*pending),
		pendingResults: make(map[string]*pending),
	}
}

// ProcessEntry feeds one entry through the matcher. If the entry completes
// a pair, the decoded Completion is returned and the Completed handler is
// invoked; otherwise nil is returned. Entries carrying neither a call nor
// a result block are ignored.
func (e *Engine) ProcessEntry(raw *entry.RawEntry) *Completion {
	if call, ok := raw.FirstToolUse(); ok {
		return e.processCall(raw, call)
	}
	if result, ok := raw.FirstToolResult(); ok {
		return e.processResult(raw, result)
	}
	return nil
}

func (e *Engine) processCall(raw *entry.RawEntry, call entry.ContentBlock) *Completion {
	e.mu.Lock()
	stored, ok := e.pendingResults[call.ID]
	if ok {
		delete(e.pendingResults, call.ID)
	} else {
		e.pendingCalls[call.ID] = &pending{entry: raw, block: call, storedAt: e.now()}
	}
	e.mu.Unlock()

	if !ok {
		return nil
	}
	return e.complete(raw, call, stored.entry)
}

func (e *Engine) processResult(raw *entry.RawEntry, result entry.ContentBlock) *Completion {
	e.mu.Lock()
	stored, ok := e.pendingCalls[result.ToolUseID]
	if ok {
		delete(e.pendingCalls, result.ToolUseID)
	} else {
		e.pendingResults[result.ToolUseID] = &pending{entry: raw, block: result, storedAt: e.now()}
	}
	e.mu.Unlock()

	if !ok {
		return nil
	}
	return e.complete(stored.entry, stored.block, raw)
}

// complete decodes a matched pair and emits the completion. A decoder
// failure is contained here: it is logged and yields no correlation, and
// the pair stays consumed (matched is a terminal state).
func (e *Engine) complete(call *entry.RawEntry, callBlock entry.ContentBlock, result *entry.RawEntry) *Completion {
	record, err := e.safeDecode(call, result)
	if err != nil {
		e.log.Error().Err(err).Str("tool", callBlock.Name).Str("tool_id", callBlock.ID).
			Msg("decoder failed, dropping correlation")
		return nil
	}
	if record == nil {
		return nil
	}

	c := Completion{
		ToolName: callBlock.Name,
		ToolID:   callBlock.ID,
		Duration: result.Timestamp.Sub(call.Timestamp),
		Call:     call,
		Result:   result,
		Record:   record,
	}
	if e.handlers.Completed != nil {
		e.handlers.Completed(c)
	}
	return &c
}

// safeDecode shields the state machine from a panicking decoder.
func (e *Engine) safeDecode(call, result *entry.RawEntry) (rec *decode.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return e.dec.Decode(call, result)
}

// Sweep evicts pending entries older than the timeout. Evicted calls emit
// a Timeout event; evicted results are dropped silently since they can
// never resolve without their call.
func (e *Engine) Sweep() {
	cutoff := e.now().Add(-e.timeout)

	e.mu.Lock()
	var timedOut []Timeout
	for id, p := range e.pendingCalls {
		if p.storedAt.Before(cutoff) {
			delete(e.pendingCalls, id)
			timedOut = append(timedOut, Timeout{
				ToolName: p.block.Name,
				ToolID:   id,
				Call:     p.entry,
			})
		}
	}
	dropped := 0
	for id, p := range e.pendingResults {
		if p.storedAt.Before(cutoff) {
			delete(e.pendingResults, id)
			dropped++
		}
	}
	e.mu.Unlock()

	for _, to := range timedOut {
		e.log.Warn().Str("tool", to.ToolName).Str("tool_id", to.ToolID).Msg("tool call timed out")
		if e.handlers.TimedOut != nil {
			e.handlers.TimedOut(to)
		}
	}
	if dropped > 0 {
		e.log.Debug().Int("count", dropped).Msg("dropped orphaned results")
	}
}

// Start launches the periodic sweep. Calling Start on a running engine is
// a no-op with a warning.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		e.log.Warn().Msg("engine already running, ignoring Start")
		return
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.running = true
	e.mu.Unlock()

	go func() {
		ticker := time.NewTicker(e.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.Sweep()
			}
		}
	}()
}

// Stop cancels the sweep and discards all pending state. Unmatched
// correlations are simply dropped. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	if e.cancel != nil {
		e.cancel()
	}
	e.pendingCalls = make(map[string]*pending)
	e.pendingResults = make(map[string]*pending)
}

// GetStats reports pending counts and the age of the oldest pending entry.
func (e *Engine) GetStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{
		PendingCalls:   len(e.pendingCalls),
		PendingResults: len(e.pendingResults),
	}

	now := e.now()
	for _, p := range e.pendingCalls {
		if age := now.Sub(p.storedAt); age > s.OldestAge {
			s.OldestAge = age
		}
	}
	for _, p := range e.pendingResults {
		if age := now.Sub(p.storedAt); age > s.OldestAge {
			s.OldestAge = age
		}
	}
	return s
}
