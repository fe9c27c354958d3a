package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the conversation history database.
// It resolves to ~/.navigator/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("memory: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".navigator")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("memory: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// OpenSQLite opens (or creates) a SQLiteStore at the given path and runs the
// schema migration. Use ":memory:" for an in-memory database in tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS turns (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id   TEXT    NOT NULL,
    role         TEXT    NOT NULL CHECK(role IN ('user','assistant')),
    content      TEXT    NOT NULL,
    sources      TEXT    NOT NULL DEFAULT '[]',  -- JSON array of source titles
    created_at   INTEGER NOT NULL                -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_turns_session_created
    ON turns (session_id, created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("memory: migrate: %w", err)
	}
	return nil
}

// Append persists turns for the given session, in order.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	const q = `INSERT INTO turns (session_id, role, content, sources, created_at) VALUES (?, ?, ?, ?, ?)`
	for _, t := range turns {
		sources := t.Sources
		if sources == nil {
			sources = []string{}
		}
		encoded, err := json.Marshal(sources)
		if err != nil {
			return fmt.Errorf("memory: encode sources: %w", err)
		}
		ts := t.CreatedAt
		if ts.IsZero() {
			ts = time.Now()
		}
		if _, err := s.db.ExecContext(ctx, q, sessionID, string(t.Role), t.Content, string(encoded), ts.Unix()); err != nil {
			return fmt.Errorf("memory: append: %w", err)
		}
	}
	return nil
}

// Recent returns the most recent n turns for the session, ordered
// oldest-first. Uses a subquery to select the tail then re-order for injection.
func (s *SQLiteStore) Recent(ctx context.Context, sessionID string, n int) ([]Turn, error) {
	const q = `
SELECT role, content, sources, created_at FROM (
    SELECT id, role, content, sources, created_at
    FROM   turns
    WHERE  session_id = ?
    ORDER  BY created_at DESC, id DESC
    LIMIT  ?
) ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("memory: recent: %w", err)
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		var t Turn
		var ts int64
		var role, sources string
		if err := rows.Scan(&role, &t.Content, &sources, &ts); err != nil {
			return nil, fmt.Errorf("memory: recent scan: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &t.Sources); err != nil {
			return nil, fmt.Errorf("memory: decode sources: %w", err)
		}
		if len(t.Sources) == 0 {
			t.Sources = nil
		}
		t.Role = Role(role)
		t.CreatedAt = time.Unix(ts, 0)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: recent rows: %w", err)
	}
	return turns, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("memory: close: %w", err)
	}
	return nil
}
