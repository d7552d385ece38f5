// Package sink persists normalized tool events and session lifecycle
// records to SQLite for downstream analytics.
package sink

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver.
)

// Sink wraps a SQLite database connection.
type Sink struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath with WAL mode
// and a 5-second busy timeout, then runs any pending migrations.
func New(dbPath string) (*Sink, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection and WAL mode.
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("check journal mode: %w", err)
	}
	if journalMode != "wal" {
		_ = db.Close()
		return nil, fmt.Errorf("expected WAL journal mode, got %q", journalMode)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Sink{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Sink) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ToolEvent is one completed (or failed, or interrupted) tool invocation.
type ToolEvent struct {
	SessionID  string
	ToolID     string
	ToolName   string
	Status     string
	Summary    string
	Error      string
	Sidechain  bool
	DurationMs int64
	Timestamp  time.Time
}

// InsertToolEvent records a normalized tool event.
func (s *Sink) InsertToolEvent(ev ToolEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO tool_events (session_id, tool_id, tool_name, status, summary, error, sidechain, duration_ms, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.ToolID, ev.ToolName, ev.Status, ev.Summary, ev.Error,
		boolToInt(ev.Sidechain), ev.DurationMs, ev.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert tool event: %w", err)
	}
	return nil
}

// InsertTimeout records a tool call that aged out without a result.
func (s *Sink) InsertTimeout(sessionID, toolID, toolName string, calledAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO tool_timeouts (session_id, tool_id, tool_name, called_at)
		 VALUES (?, ?, ?, ?)`,
		sessionID, toolID, toolName, calledAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert timeout: %w", err)
	}
	return nil
}

// UpsertSession records a session's latest known state.
func (s *Sink) UpsertSession(sessionID, projectPath, filePath string, lastModified time.Time, active bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, project_path, file_path, last_modified, active, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   project_path = excluded.project_path,
		   file_path = excluded.file_path,
		   last_modified = excluded.last_modified,
		   active = excluded.active,
		   updated_at = excluded.updated_at`,
		sessionID, projectPath, filePath, lastModified.UTC().Format(time.RFC3339),
		boolToInt(active), now,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// ToolEventsCount returns the number of tool events recorded.
func (s *Sink) ToolEventsCount() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM tool_events").Scan(&count)
	return count, err
}

// TimeoutsCount returns the number of timed-out calls recorded.
func (s *Sink) TimeoutsCount() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM tool_timeouts").Scan(&count)
	return count, err
}

// SessionsCount returns the number of sessions recorded.
func (s *Sink) SessionsCount() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}

// ToolUsage is an aggregate row for the stats report.
type ToolUsage struct {
	ToolName string
	Count    int64
	Failed   int64
	AvgDurMs float64
}

// ToolUsageByName aggregates event counts and failure counts per tool,
// busiest first.
func (s *Sink) ToolUsageByName() ([]ToolUsage, error) {
	rows, err := s.db.Query(
		`SELECT tool_name,
		        COUNT(*),
		        SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
		        AVG(duration_ms)
		 FROM tool_events
		 GROUP BY tool_name
		 ORDER BY COUNT(*) DESC, tool_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("query tool usage: %w", err)
	}
	defer rows.Close()

	var out []ToolUsage
	for rows.Next() {
		var u ToolUsage
		if err := rows.Scan(&u.ToolName, &u.Count, &u.Failed, &u.AvgDurMs); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DBSizeBytes returns the database file size in bytes.
// This is an approximation using page_count * page_size.
func (s *Sink) DBSizeBytes() (int64, error) {
	var pageCount, pageSize int64
	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, err
	}
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, err
	}
	return pageCount * pageSize, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
