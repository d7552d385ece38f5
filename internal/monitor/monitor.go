// Package monitor discovers and tails the directory tree of per-project
// session log files, tracking per-file read offsets and session liveness.
// It emits one event per decoded entry plus session lifecycle events.
package monitor

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/anthropic/toolstream/internal/entry"
	"github.com/anthropic/toolstream/internal/pathcodec"
)

// Session lifecycle event types.
const (
	SessionNew      = "session:new"
	SessionActive   = "session:active"
	SessionInactive = "session:inactive"
)

// Defaults, overridable through New.
const (
	DefaultActivityThreshold = time.Minute
	DefaultSweepInterval     = 30 * time.Second
)

// SessionInfo is one tracked log file.
type SessionInfo struct {
	SessionID    string
	ProjectPath  string
	FilePath     string
	LastModified time.Time
	FirstSeen    time.Time
	Size         int64
}

// ActiveSession is the external view of a session with a freshly
// computed activity flag.
type ActiveSession struct {
	SessionInfo
	IsActive bool
}

// SessionEvent reports a session lifecycle transition.
type SessionEvent struct {
	Type    string
	Session ActiveSession
}

// Handlers receives monitor events. Nil fields are skipped. Handlers run
// synchronously on the monitor's event goroutine and must be fast.
type Handlers struct {
	Entry   func(*entry.RawEntry)
	Session func(SessionEvent)
	Error   func(error)
}

// Monitor watches a root directory of per-project session directories.
// The offset table and session registry are owned exclusively by the
// monitor; the mutex exists because fsnotify and the sweep ticker deliver
// from separate goroutines.
type Monitor struct {
	root              string
	activityThreshold time.Duration
	sweepInterval     time.Duration
	overrides         *pathcodec.Overrides
	handlers          Handlers
	log               zerolog.Logger

	// now is swappable for deterministic tests.
	now func() time.Time

	mu       sync.Mutex
	watching bool
	fsw      *fsnotify.Watcher
	cancel   context.CancelFunc
	offsets  map[string]int64
	sessions map[string]*SessionInfo
	active   map[string]bool
}

// New creates a Monitor over root. Zero durations take the defaults;
// overrides may be nil.
func New(root string, activityThreshold, sweepInterval time.Duration, overrides *pathcodec.Overrides, handlers Handlers, log zerolog.Logger) *Monitor {
	if activityThreshold == 0 {
		activityThreshold = DefaultActivityThreshold
	}
	if sweepInterval == 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &Monitor{
		root:              root,
		activityThreshold: activityThreshold,
		sweepInterval:     sweepInterval,
		overrides:         overrides,
		handlers:          handlers,
		log:               log.With().Str("component", "monitor").Logger(),
		now:               time.Now,
		offsets:           make(map[string]int64),
		sessions:          make(map[string]*SessionInfo),
		active:            make(map[string]bool),
	}
}

// StartWatching scans the root, registers every discovered session, then
// attaches a filesystem watcher for create/modify events and launches the
// inactivity sweep. Calling it on a running monitor is a no-op with a
// warning.
func (m *Monitor) StartWatching(ctx context.Context) error {
	m.mu.Lock()
	if m.watching {
		m.mu.Unlock()
		m.log.Warn().Msg("monitor already watching, ignoring StartWatching")
		return nil
	}
	m.watching = true
	m.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		m.mu.Lock()
		m.watching = false
		m.mu.Unlock()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.fsw = fsw
	m.cancel = cancel
	m.mu.Unlock()

	// Initial scan. New entries appended before watching are the next
	// change event's problem: offsets start at the current size, and
	// historical content belongs to ReadAll.
	m.scanExisting(fsw)

	go m.eventLoop(ctx, fsw)
	go m.sweepLoop(ctx)

	m.log.Info().Str("root", m.root).Msg("watching session logs")
	return nil
}

// StopWatching detaches the watcher, cancels timers, and clears all
// offset and session state. Idempotent.
func (m *Monitor) StopWatching() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.watching {
		return
	}
	m.watching = false
	if m.cancel != nil {
		m.cancel()
	}
	if m.fsw != nil {
		_ = m.fsw.Close()
		m.fsw = nil
	}
	m.offsets = make(map[string]int64)
	m.sessions = make(map[string]*SessionInfo)
	m.active = make(map[string]bool)
}

// GetActiveSessions returns a snapshot of every tracked session with a
// freshly computed activity flag, ordered by session id.
func (m *Monitor) GetActiveSessions() []ActiveSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	out := make([]ActiveSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, ActiveSession{
			SessionInfo: *s,
			IsActive:    now.Sub(s.LastModified) < m.activityThreshold,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// Scan registers every session currently on disk without attaching a
// watcher. Intended for one-shot listings.
func (m *Monitor) Scan() []ActiveSession {
	m.scanExisting(nil)
	return m.GetActiveSessions()
}

// scanExisting walks the root registering every session file. A missing
// root is fine: the walk yields nothing. A nil watcher skips directory
// registration.
func (m *Monitor) scanExisting(fsw *fsnotify.Watcher) {
	_ = filepath.WalkDir(m.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if fsw != nil {
				_ = fsw.Add(path)
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		m.registerSession(path, info.ModTime(), info.Size(), info.Size())
		return nil
	})
}

// registerSession adds a newly discovered file to the registry, emitting
// session:new and, when recently modified, session:active.
func (m *Monitor) registerSession(path string, modTime time.Time, size, offset int64) {
	now := m.now()
	s := &SessionInfo{
		SessionID:    sessionIDFromPath(path),
		ProjectPath:  m.projectFromPath(path),
		FilePath:     path,
		LastModified: modTime,
		FirstSeen:    now,
		Size:         size,
	}
	isActive := now.Sub(modTime) < m.activityThreshold

	m.mu.Lock()
	m.sessions[path] = s
	m.offsets[path] = offset
	m.active[path] = isActive
	m.mu.Unlock()

	m.emitSession(SessionNew, *s, isActive)
	if isActive {
		m.emitSession(SessionActive, *s, true)
	}
}

// eventLoop consumes fsnotify events until the context is cancelled.
// Watcher-level errors are surfaced but never stop the loop.
func (m *Monitor) eventLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			m.handleEvent(fsw, ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			m.log.Error().Err(err).Msg("watcher error")
			if m.handlers.Error != nil {
				m.handlers.Error(err)
			}
		}
	}
}

func (m *Monitor) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	// New project directory: watch it too.
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = fsw.Add(ev.Name)
			return
		}
	}

	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if !strings.HasSuffix(ev.Name, ".jsonl") {
		return
	}

	m.fileChanged(ev.Name)
}

// fileChanged reads the byte range past the last recorded offset, emits
// one event per decoded entry, and refreshes session liveness.
func (m *Monitor) fileChanged(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	m.mu.Lock()
	_, known := m.sessions[path]
	m.mu.Unlock()

	if !known {
		// Created after the initial scan: whole file is new content.
		m.registerSession(path, info.ModTime(), info.Size(), 0)
	}

	sessionID := sessionIDFromPath(path)
	entries, err := m.readNewEntries(path)
	if err != nil {
		m.log.Error().Err(err).Str("path", path).Msg("read session file")
		if m.handlers.Error != nil {
			m.handlers.Error(err)
		}
		return
	}

	for _, e := range entries {
		e.SessionID = sessionID
		if m.handlers.Entry != nil {
			m.handlers.Entry(e)
		}
	}

	m.refreshActivity(path, info.ModTime(), info.Size())
}

// refreshActivity updates the session's bookkeeping and emits a
// session:active event on an inactive-to-active transition.
func (m *Monitor) refreshActivity(path string, modTime time.Time, size int64) {
	m.mu.Lock()
	s, ok := m.sessions[path]
	if !ok {
		m.mu.Unlock()
		return
	}
	s.LastModified = modTime
	s.Size = size
	wasActive := m.active[path]
	isActive := m.now().Sub(modTime) < m.activityThreshold
	m.active[path] = isActive
	snapshot := *s
	m.mu.Unlock()

	if isActive && !wasActive {
		m.emitSession(SessionActive, snapshot, true)
	}
}

// sweepLoop periodically re-evaluates every session's activity flag and
// emits session:inactive transitions.
func (m *Monitor) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepActivity()
		}
	}
}

// SweepActivity marks sessions that crossed the liveness threshold
// without new writes and emits their inactive events.
func (m *Monitor) SweepActivity() {
	now := m.now()

	m.mu.Lock()
	var inactive []SessionInfo
	for path, s := range m.sessions {
		isActive := now.Sub(s.LastModified) < m.activityThreshold
		if m.active[path] && !isActive {
			m.active[path] = false
			inactive = append(inactive, *s)
		}
	}
	m.mu.Unlock()

	for _, s := range inactive {
		m.emitSession(SessionInactive, s, false)
	}
}

func (m *Monitor) emitSession(eventType string, s SessionInfo, isActive bool) {
	if m.handlers.Session == nil {
		return
	}
	m.handlers.Session(SessionEvent{
		Type:    eventType,
		Session: ActiveSession{SessionInfo: s, IsActive: isActive},
	})
}

// sessionIDFromPath derives the session id: filename without extension.
func sessionIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// projectFromPath decodes the parent directory name through the path
// codec, override table first.
func (m *Monitor) projectFromPath(path string) string {
	token := filepath.Base(filepath.Dir(path))
	return pathcodec.DecodeWith(token, m.overrides)
}
