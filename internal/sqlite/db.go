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

	return &DB{db}, nil
}

// RunMigrations creates the schema if it doesn't exist.
func (db *DB) RunMigrations() error {
	migration := `
-- Tasks table: name holds the full tag string.
CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

-- Interval records; end_time and duration stay NULL while open.
CREATE TABLE IF NOT EXISTS time_logs (
    id INTEGER PRIMARY KEY,
    task_id INTEGER,
    start_time TEXT,
    end_time TEXT,
    duration TEXT,
    FOREIGN KEY (task_id) REFERENCES tasks (id)
);
CREATE INDEX IF NOT EXISTS idx_time_logs_task ON time_logs(task_id);
CREATE INDEX IF NOT EXISTS idx_time_logs_open ON time_logs(task_id) WHERE end_time IS NULL;
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
