package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// WAL keeps the capture loop responsive while the sync engine reads
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema when it does not exist yet. The agent owns
// its local database, so a single idempotent migration is enough.
func (db *DB) RunMigrations() error {
	migration := `
-- Sessions table
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL CHECK(mode IN ('client_hours', 'command_hours')),
    project_id TEXT,
    task TEXT,
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP,
    is_active INTEGER NOT NULL DEFAULT 0,
    synced INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_active_sessions ON sessions(is_active);

-- Activity periods table
CREATE TABLE IF NOT EXISTS activity_periods (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    period_start TIMESTAMP NOT NULL,
    period_end TIMESTAMP NOT NULL,
    mode TEXT NOT NULL CHECK(mode IN ('client_hours', 'command_hours')),
    activity_score INTEGER NOT NULL,
    is_valid INTEGER NOT NULL DEFAULT 0,
    classification TEXT NOT NULL,
    metrics_breakdown TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (session_id) REFERENCES sessions(id)
);
CREATE INDEX IF NOT EXISTS idx_session_periods ON activity_periods(session_id);
CREATE INDEX IF NOT EXISTS idx_period_start ON activity_periods(period_start);

-- Screenshots table. session_id carries no foreign key because captures
-- outside a session use the placeholder id.
CREATE TABLE IF NOT EXISTS screenshots (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    user_id TEXT,
    local_path TEXT NOT NULL,
    remote_url TEXT,
    thumbnail_path TEXT,
    thumbnail_remote_url TEXT,
    captured_at TIMESTAMP NOT NULL,
    slot_day TEXT NOT NULL,
    slot_key INTEGER NOT NULL,
    mode TEXT NOT NULL CHECK(mode IN ('client_hours', 'command_hours')),
    notes TEXT,
    UNIQUE (slot_day, slot_key)
);
CREATE INDEX IF NOT EXISTS idx_screenshot_day ON screenshots(slot_day);

-- Durable outbox for the sync engine
CREATE TABLE IF NOT EXISTS sync_queue (
    id TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL CHECK(entity_type IN ('session', 'activity_period', 'screenshot')),
    entity_id TEXT NOT NULL,
    session_id TEXT NOT NULL,
    operation TEXT NOT NULL CHECK(operation IN ('create', 'update')),
    payload TEXT NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    synced INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pending_queue ON sync_queue(synced, created_at);
CREATE INDEX IF NOT EXISTS idx_queue_session ON sync_queue(session_id);

-- Recently used activity labels
CREATE TABLE IF NOT EXISTS activity_labels (
    label TEXT PRIMARY KEY,
    last_used TIMESTAMP NOT NULL
);

-- Key-value settings (device identity, veto cooldown)
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
