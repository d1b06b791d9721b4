// Package sqlite implements the repository interfaces on SQLite.
//
// We use modernc.org/sqlite (pure Go translation of SQLite, no CGo) so the
// server cross-compiles without a C toolchain, and ":memory:" databases
// keep the repository tests fast and hermetic.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB is the process-wide database handle shared by every request.
//
// The underlying connection is opened lazily: Open never dials, the first
// repository call does. A mutex guards the connect-and-migrate step so that
// N concurrent cold-start requests share a single connection attempt —
// whoever holds the lock dials, everyone else blocks and then sees the
// memoized pool. On failure nothing is memoized, so a later call retries
// and the error propagates to each caller that hit the failed window.
// There is no background reconnect loop; a healthy pool lives for the rest
// of the process.
type DB struct {
	path string

	mu   sync.Mutex
	conn *sql.DB
}

// Open prepares a lazy handle for the database at path. No I/O happens
// here; a bad path only surfaces on first use.
//
// path examples:
//   - "data/codecast.db"  → file-based, persistent
//   - ":memory:"          → in-memory, lost on close (tests)
func Open(path string) *DB {
	return &DB{path: path}
}

// acquire returns the connection pool, dialing and migrating on first use.
func (db *DB) acquire(ctx context.Context) (*sql.DB, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn != nil {
		return db.conn, nil
	}

	conn, err := connect(ctx, db.path)
	if err != nil {
		// Leave db.conn nil so the next caller retries.
		return nil, err
	}

	db.conn = conn
	return conn, nil
}

// connect opens the pool, verifies it, applies pragmas, and migrates.
func connect(ctx context.Context, path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite serializes writes anyway, and a single pooled connection keeps
	// the session pragmas below (and ":memory:" databases) consistent.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress.
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Referential integrity for showcases.user_id → users.id.
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return conn, nil
}

// Ping forces a connection attempt. Used by the health endpoint and at
// startup when eager validation is wanted.
func (db *DB) Ping(ctx context.Context) error {
	_, err := db.acquire(ctx)
	return err
}

// Close closes the connection pool if one was ever opened.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

func migrate(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER,
			github_login  TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);
		-- Partial unique index: email is optional, but unique when present.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email
			ON users(email) WHERE email <> '';
		-- NULL github_ids never collide in SQLite, so credential-only
		-- accounts coexist while each GitHub identity maps to one row.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS showcases (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL REFERENCES users(id),
			title             TEXT NOT NULL,
			description       TEXT NOT NULL,
			video_url         TEXT NOT NULL,
			thumbnail_url     TEXT NOT NULL,
			repo_url          TEXT NOT NULL,
			demo_url          TEXT NOT NULL DEFAULT '',
			category          TEXT NOT NULL,
			repo_name         TEXT NOT NULL DEFAULT '',
			repo_description  TEXT NOT NULL DEFAULT '',
			repo_stars        INTEGER NOT NULL DEFAULT 0,
			repo_language     TEXT NOT NULL DEFAULT '',
			repo_topics       TEXT NOT NULL DEFAULT '[]',
			has_repo_data     INTEGER NOT NULL DEFAULT 0,
			transform_width   INTEGER NOT NULL DEFAULT 1920,
			transform_height  INTEGER NOT NULL DEFAULT 1080,
			transform_quality INTEGER NOT NULL DEFAULT 100,
			views             INTEGER NOT NULL DEFAULT 0,
			likes             INTEGER NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL,
			updated_at        DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_showcases_user_id ON showcases(user_id);
		CREATE INDEX IF NOT EXISTS idx_showcases_created_at ON showcases(created_at);
		CREATE INDEX IF NOT EXISTS idx_showcases_category ON showcases(category);
	`)
	if err != nil {
		return fmt.Errorf("creating showcases table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given column (e.g. "users.username"). The driver exposes this only
// through the error text.
func isUniqueViolation(err error, column string) bool {
	return err != nil &&
		strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), column)
}
