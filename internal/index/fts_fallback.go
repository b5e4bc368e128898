//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mvarkas/memex/internal/models"
	"github.com/mvarkas/memex/internal/parser"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; lexical search uses LIKE over the notes table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _ string, _ *parser.Result) error {
	// All searched fields are already stored in the notes table.
	return nil
}

func ftsDelete(_ *sql.Tx, _, _ string) {}

func ftsDeleteVault(_ *sql.Tx, _ string) {}

// SearchLexical performs a LIKE-based search (fallback when FTS5 is not
// compiled in). Every whitespace-separated term must match at least one
// indexed field. An empty vault searches all vaults.
func (db *DB) SearchLexical(query, vault string, limit int) ([]*models.Note, error) {
	if limit <= 0 {
		limit = 10
	}
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	var args []interface{}
	sb.WriteString(`
		SELECT path, vault, title, aliases, tags, content, mtime, content_hash
		FROM notes
		WHERE 1=1`)
	if vault != "" {
		sb.WriteString(` AND vault = ?`)
		args = append(args, vault)
	}
	for _, term := range terms {
		sb.WriteString(` AND (title LIKE ? OR aliases LIKE ? OR tags LIKE ? OR content LIKE ?)`)
		like := "%" + term + "%"
		args = append(args, like, like, like, like)
	}
	sb.WriteString(` LIMIT ?`)
	args = append(args, limit)

	rows, err := db.conn.Query(sb.String(), args...)
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
