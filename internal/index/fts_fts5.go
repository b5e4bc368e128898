//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mvarkas/memex/internal/models"
	"github.com/mvarkas/memex/internal/parser"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			path,
			vault,
			title,
			aliases,
			tags,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, vault, path string, note *parser.Result) error {
	if _, err := tx.Exec(`DELETE FROM notes_fts WHERE path = ? AND vault = ?`, path, vault); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}
	_, err := tx.Exec(`INSERT INTO notes_fts (path, vault, title, aliases, tags, content) VALUES (?, ?, ?, ?, ?, ?)`,
		path, vault, note.Title, strings.Join(note.Aliases, " "), strings.Join(note.Tags, " "), note.Body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, vault, path string) {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE path = ? AND vault = ?`, path, vault)
}

func ftsDeleteVault(tx *sql.Tx, vault string) {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE vault = ?`, vault)
}

// ftsQuery quotes each term so user input (hyphens, slashes, operators)
// is matched literally instead of being parsed as FTS5 syntax. Terms
// combine with the implicit AND.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// SearchLexical performs an FTS5 full-text search over title, aliases,
// tags, and content, best match first. An empty vault searches all vaults.
func (db *DB) SearchLexical(query, vault string, limit int) ([]*models.Note, error) {
	if limit <= 0 {
		limit = 10
	}
	query = ftsQuery(query)
	if query == "" {
		return nil, nil
	}
	var (
		rows *sql.Rows
		err  error
	)
	if vault != "" {
		rows, err = db.conn.Query(`
			SELECT n.path, n.vault, n.title, n.aliases, n.tags, n.content, n.mtime, n.content_hash
			FROM notes_fts f
			JOIN notes n ON n.path = f.path AND n.vault = f.vault
			WHERE notes_fts MATCH ? AND n.vault = ?
			ORDER BY rank
			LIMIT ?
		`, query, vault, limit)
	} else {
		rows, err = db.conn.Query(`
			SELECT n.path, n.vault, n.title, n.aliases, n.tags, n.content, n.mtime, n.content_hash
			FROM notes_fts f
			JOIN notes n ON n.path = f.path AND n.vault = f.vault
			WHERE notes_fts MATCH ?
			ORDER BY rank
			LIMIT ?
		`, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("index: lexical search: %w", err)
	}
	defer rows.Close()

	var out []*models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
