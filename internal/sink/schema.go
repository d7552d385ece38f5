package sink

// schemaVersion is the current schema version. Increment when adding migrations.
const schemaVersion = 1

// migrations maps version numbers to SQL statements that bring the schema
// from (version-1) to (version). Version 1 is the initial schema.
var migrations = map[int]string{
	1: `
-- Normalized tool invocations, one row per matched call/result pair.
CREATE TABLE IF NOT EXISTS tool_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT    NOT NULL,
	tool_id     TEXT    NOT NULL,
	tool_name   TEXT    NOT NULL,
	status      TEXT    NOT NULL,
	summary     TEXT    NOT NULL DEFAULT '',
	error       TEXT    NOT NULL DEFAULT '',
	sidechain   INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	timestamp   TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tool_events_session ON tool_events(session_id);
CREATE INDEX IF NOT EXISTS idx_tool_events_tool ON tool_events(tool_name);
CREATE INDEX IF NOT EXISTS idx_tool_events_timestamp ON tool_events(timestamp);

-- Calls that never received a result within the correlation window.
CREATE TABLE IF NOT EXISTS tool_timeouts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	tool_id    TEXT NOT NULL,
	tool_name  TEXT NOT NULL,
	called_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tool_timeouts_session ON tool_timeouts(session_id);

-- Latest known state per discovered session log.
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	project_path  TEXT NOT NULL,
	file_path     TEXT NOT NULL,
	last_modified TEXT NOT NULL,
	active        INTEGER NOT NULL DEFAULT 0,
	updated_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_path);

-- Key-value store for sink metadata (schema version, cursors, etc).
CREATE TABLE IF NOT EXISTS sink_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);
`,
}
