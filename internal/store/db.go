// Package store persists ingestion state: URL bookkeeping and knowledge
// entries in SQLite, raw payloads on the filesystem.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS url_info (
	url          TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	last_checked TIMESTAMP NOT NULL,
	metadata     TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS knowledge_entries (
	id           TEXT PRIMARY KEY,
	url          TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	content_kind TEXT NOT NULL,
	text         TEXT NOT NULL,
	metadata     TEXT NOT NULL DEFAULT '{}',
	tags         TEXT NOT NULL DEFAULT '[]',
	checksum     TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_knowledge_entries_url ON knowledge_entries(url);
`

// DBOptions configures OpenDB.
type DBOptions struct {
	// BusyTimeoutMS is the SQLite busy_timeout pragma. Default 10000.
	BusyTimeoutMS int
}

// OpenDB opens (creating if needed) the SQLite database at path with
// WAL journaling and applies the schema. Pass ":memory:" for tests.
func OpenDB(path string, opts DBOptions) (*sql.DB, error) {
	if opts.BusyTimeoutMS <= 0 {
		opts.BusyTimeoutMS = 10_000
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeoutMS),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return db, nil
}
