// Package index provides the SQLite-backed content store: note rows, a
// full-text mirror, embeddings, and the wikilink edge graph.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path         TEXT NOT NULL,
	vault        TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	aliases      TEXT NOT NULL DEFAULT '[]',
	tags         TEXT NOT NULL DEFAULT '[]',
	content      TEXT NOT NULL DEFAULT '',
	mtime        REAL NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (path, vault)
);

CREATE INDEX IF NOT EXISTS idx_notes_vault ON notes(vault);
CREATE INDEX IF NOT EXISTS idx_notes_title ON notes(vault, title COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS wikilinks (
	source_path  TEXT NOT NULL,
	source_vault TEXT NOT NULL,
	target_raw   TEXT NOT NULL,
	target_path  TEXT,
	FOREIGN KEY (source_path, source_vault) REFERENCES notes(path, vault) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_wikilinks_source ON wikilinks(source_path, source_vault);
CREATE INDEX IF NOT EXISTS idx_wikilinks_target ON wikilinks(source_vault, target_raw);

CREATE TABLE IF NOT EXISTS embeddings (
	note_rowid INTEGER PRIMARY KEY,
	vector     BLOB NOT NULL
);
`

// DB wraps a sql.DB with content-store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
// The schema is idempotent; Open is safe to call on every startup.
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
