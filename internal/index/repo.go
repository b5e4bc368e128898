package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mvarkas/memex/internal/apperr"
	"github.com/mvarkas/memex/internal/models"
	"github.com/mvarkas/memex/internal/parser"
)

// UpsertNote inserts or replaces a note, mirrors its FTS entry, and
// atomically replaces its wikilink edges, all within one transaction.
// A reader never observes a note row without its matching lexical entry
// or with a partially written edge set.
func (db *DB) UpsertNote(vault, path string, note *parser.Result, mtime float64, contentHash string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	aliasesJSON, _ := json.Marshal(emptyIfNil(note.Aliases))
	tagsJSON, _ := json.Marshal(emptyIfNil(note.Tags))

	_, err = tx.Exec(`
		INSERT INTO notes (path, vault, title, aliases, tags, content, mtime, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path, vault) DO UPDATE SET
			title        = excluded.title,
			aliases      = excluded.aliases,
			tags         = excluded.tags,
			content      = excluded.content,
			mtime        = excluded.mtime,
			content_hash = excluded.content_hash
	`, path, vault, note.Title, string(aliasesJSON), string(tagsJSON), note.Body, mtime, contentHash)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// FTS mirror (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, vault, path, note); err != nil {
		return err
	}

	// Replace wikilink edges: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM wikilinks WHERE source_path = ? AND source_vault = ?`, path, vault); err != nil {
		return fmt.Errorf("index: clear wikilinks: %w", err)
	}
	if len(note.Wikilinks) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO wikilinks (source_path, source_vault, target_raw, target_path) VALUES (?, ?, ?, NULL)`)
		if err != nil {
			return fmt.Errorf("index: prepare wikilink insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range note.Wikilinks {
			if _, err := stmt.Exec(path, vault, target); err != nil {
				return fmt.Errorf("index: insert wikilink: %w", err)
			}
		}
	}

	return tx.Commit()
}

// UpdateMtime refreshes only the stored modification time. Used when a
// file's mtime drifted but its content hash is unchanged, so the next
// pass can skip the file without re-reading it.
func (db *DB) UpdateMtime(vault, path string, mtime float64) error {
	if _, err := db.conn.Exec(`UPDATE notes SET mtime = ? WHERE path = ? AND vault = ?`, mtime, path, vault); err != nil {
		return fmt.Errorf("index: update mtime: %w", err)
	}
	return nil
}

// DeleteNote removes a note, its FTS entry, its embedding, and its
// wikilink edges (FK cascade).
func (db *DB) DeleteNote(vault, path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, vault, path)
	if _, err := tx.Exec(`DELETE FROM embeddings WHERE note_rowid IN
		(SELECT rowid FROM notes WHERE path = ? AND vault = ?)`, path, vault); err != nil {
		return fmt.Errorf("index: delete embedding: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ? AND vault = ?`, path, vault); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}

	return tx.Commit()
}

// DeleteVault bulk-deletes every note in a vault and returns the number
// of notes removed.
func (db *DB) DeleteVault(vault string) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeleteVault(tx, vault)
	if _, err := tx.Exec(`DELETE FROM embeddings WHERE note_rowid IN
		(SELECT rowid FROM notes WHERE vault = ?)`, vault); err != nil {
		return 0, fmt.Errorf("index: delete vault embeddings: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM notes WHERE vault = ?`, vault)
	if err != nil {
		return 0, fmt.Errorf("index: delete vault: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}

// GetNote returns a single note, or apperr.ErrNotFound.
func (db *DB) GetNote(vault, path string) (*models.Note, error) {
	row := db.conn.QueryRow(`
		SELECT path, vault, title, aliases, tags, content, mtime, content_hash
		FROM notes WHERE path = ? AND vault = ?
	`, path, vault)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return n, err
}

// NoteRowID returns the internal row identity of a note, used to key
// its embedding.
func (db *DB) NoteRowID(vault, path string) (int64, error) {
	var id int64
	err := db.conn.QueryRow(`SELECT rowid FROM notes WHERE path = ? AND vault = ?`, path, vault).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("index: note rowid: %w", err)
	}
	return id, nil
}

// IndexedMtimes returns path -> mtime for every note in a vault, for
// staleness comparison by the indexer.
func (db *DB) IndexedMtimes(vault string) (map[string]float64, error) {
	rows, err := db.conn.Query(`SELECT path, mtime FROM notes WHERE vault = ?`, vault)
	if err != nil {
		return nil, fmt.Errorf("index: indexed mtimes: %w", err)
	}
	defer rows.Close()
	out := make(map[string]float64)
	for rows.Next() {
		var p string
		var m float64
		if err := rows.Scan(&p, &m); err != nil {
			return nil, err
		}
		out[p] = m
	}
	return out, rows.Err()
}

// GetContentHash returns the stored content hash for a note, or empty
// string if the note is not indexed.
func (db *DB) GetContentHash(vault, path string) (string, error) {
	var h string
	err := db.conn.QueryRow(`SELECT content_hash FROM notes WHERE path = ? AND vault = ?`, path, vault).Scan(&h)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: content hash: %w", err)
	}
	return h, nil
}

// ResolveWikilink matches a raw link target case-insensitively against
// note titles in a vault and returns every matching path. Resolution is
// vault-scoped; an unmatched target resolves to an empty list.
func (db *DB) ResolveWikilink(vault, target string) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT path FROM notes
		WHERE vault = ? AND title = ? COLLATE NOCASE
		ORDER BY path
	`, vault, target)
	if err != nil {
		return nil, fmt.Errorf("index: resolve wikilink: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Backlinks returns the paths of all notes in a vault whose raw
// wikilink target textually matches target. Matching is on the raw
// pre-resolution link text, so a renamed note loses its backlinks until
// the linking notes are re-indexed with the new target.
func (db *DB) Backlinks(vault, target string) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT source_path FROM wikilinks
		WHERE source_vault = ? AND target_raw = ?
		ORDER BY source_path
	`, vault, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Outlinks returns every wikilink edge leaving a note in insertion
// order, with each raw target resolved against current titles.
func (db *DB) Outlinks(vault, path string) ([]models.Outlink, error) {
	rows, err := db.conn.Query(`
		SELECT target_raw FROM wikilinks
		WHERE source_path = ? AND source_vault = ?
		ORDER BY rowid
	`, path, vault)
	if err != nil {
		return nil, fmt.Errorf("index: outlinks: %w", err)
	}
	defer rows.Close()
	var targets []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.Outlink, 0, len(targets))
	for _, t := range targets {
		resolved, err := db.ResolveWikilink(vault, t)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Outlink{Target: t, Resolved: resolved})
	}
	return out, nil
}

// NoteCounts returns the number of indexed notes per vault.
func (db *DB) NoteCounts() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT vault, COUNT(*) FROM notes GROUP BY vault`)
	if err != nil {
		return nil, fmt.Errorf("index: note counts: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var v string
		var n int
		if err := rows.Scan(&v, &n); err != nil {
			return nil, err
		}
		out[v] = n
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var n models.Note
	var aliasesJSON, tagsJSON string
	if err := row.Scan(&n.Path, &n.Vault, &n.Title, &aliasesJSON, &tagsJSON, &n.Content, &n.Mtime, &n.ContentHash); err != nil {
		return nil, err
	}
	if err := decodeJSONList(aliasesJSON, &n.Aliases); err != nil {
		return nil, err
	}
	if err := decodeJSONList(tagsJSON, &n.Tags); err != nil {
		return nil, err
	}
	return &n, nil
}

func decodeJSONList(s string, dst *[]string) error {
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		return fmt.Errorf("index: decode list: %w", err)
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
