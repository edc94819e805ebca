// Package sqlite implements the repository interfaces on SQLite.
//
// DOCUMENT-STYLE STORAGE:
// Each entity row carries its embedded collections — a goal's milestones,
// progress history and achievements, a habit's logs, a user's settings — as
// JSON columns. The row is the aggregate: it is read whole, mutated in
// memory, and written whole, which gives the same per-document atomicity a
// document store provides. Scalar fields that queries filter or sort on
// (status, priority, due dates, completion) stay as real columns.
//
// WHY modernc.org/sqlite?
// A pure-Go translation of SQLite — no CGo, no C compiler, cross-compiles
// anywhere Go does. The driver registers itself with database/sql under the
// name "sqlite" via the blank import below.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Pass ":memory:" for an in-memory database — used by tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed concurrently with a write — important for a web
	// server where the reminder scheduler writes while requests read.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent;
// for a single-binary deployment that is simpler than a migration tracker.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			google_id     TEXT NOT NULL DEFAULT '',
			display_name  TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			settings      TEXT NOT NULL DEFAULT '{}',
			last_login    DATETIME,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);
		-- Partial so password-only accounts (google_id = '') don't collide.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_google_id ON users(google_id) WHERE google_id != '';

		CREATE TABLE IF NOT EXISTS goals (
			id                   TEXT PRIMARY KEY,
			user_id              TEXT NOT NULL REFERENCES users(id),
			title                TEXT NOT NULL,
			description          TEXT NOT NULL DEFAULT '',
			category             TEXT NOT NULL DEFAULT 'Personal',
			priority             TEXT NOT NULL DEFAULT 'medium',
			status               TEXT NOT NULL DEFAULT 'not_started',
			due_date             DATETIME NOT NULL,
			start_date           DATETIME NOT NULL,
			progress             INTEGER NOT NULL DEFAULT 0,
			milestones           TEXT NOT NULL DEFAULT '[]',
			tags                 TEXT NOT NULL DEFAULT '[]',
			notifications        TEXT NOT NULL DEFAULT '{}',
			progress_history     TEXT NOT NULL DEFAULT '[]',
			last_progress_update DATETIME,
			achievements         TEXT NOT NULL DEFAULT '[]',
			created_at           DATETIME NOT NULL,
			updated_at           DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_goals_user_id ON goals(user_id);
		CREATE INDEX IF NOT EXISTS idx_goals_user_status ON goals(user_id, status);

		CREATE TABLE IF NOT EXISTS tasks (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id),
			goal_id      TEXT NOT NULL DEFAULT '',
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			priority     TEXT NOT NULL DEFAULT 'medium',
			due_date     DATETIME,
			completed    INTEGER NOT NULL DEFAULT 0,
			completed_at DATETIME,
			created_at   DATETIME NOT NULL,
			updated_at   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);

		CREATE TABLE IF NOT EXISTS habits (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			logs        TEXT NOT NULL DEFAULT '[]',
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_habits_user_id ON habits(user_id);

		CREATE TABLE IF NOT EXISTS notes (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			category   TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notes_user_id ON notes(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// marshalJSON serializes an embedded collection for storage. A nil slice
// still round-trips as its JSON zero value ("[]"/"{}"), never as NULL.
func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding embedded document: %w", err)
	}
	return string(b), nil
}

// unmarshalJSON restores an embedded collection from its column.
func unmarshalJSON(data string, v any) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decoding embedded document: %w", err)
	}
	return nil
}
