// Package index provides SQLite-backed comment indexing with optional FTS5
// full-text search over comment content.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	path          TEXT PRIMARY KEY,
	checksum      TEXT NOT NULL DEFAULT '',
	comment_count INTEGER NOT NULL DEFAULT 0,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS comments (
	doc_path      TEXT NOT NULL,
	comment_id    TEXT NOT NULL,
	author        TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL DEFAULT '',
	anchored_text TEXT NOT NULL DEFAULT '',
	start_pos     INTEGER NOT NULL DEFAULT -1,
	end_pos       INTEGER NOT NULL DEFAULT -1,
	UNIQUE(doc_path, comment_id)
);

CREATE INDEX IF NOT EXISTS idx_comments_doc ON comments(doc_path);
CREATE INDEX IF NOT EXISTS idx_comments_author ON comments(author);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
