package index

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mvarkas/memex/internal/models"
)

// SemanticHit is one semantic search result with its cosine distance to
// the query vector. Smaller distance means more similar.
type SemanticHit struct {
	Note     *models.Note
	Distance float64
}

// UpsertEmbedding stores (or replaces) the embedding vector for a note
// identified by its row identity.
func (db *DB) UpsertEmbedding(noteRowID int64, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("index: empty embedding vector")
	}
	_, err := db.conn.Exec(`
		INSERT INTO embeddings (note_rowid, vector) VALUES (?, ?)
		ON CONFLICT(note_rowid) DO UPDATE SET vector = excluded.vector
	`, noteRowID, encodeVector(vector))
	if err != nil {
		return fmt.Errorf("index: upsert embedding: %w", err)
	}
	return nil
}

// GetEmbedding returns the stored vector for a note, or nil if none has
// been computed yet.
func (db *DB) GetEmbedding(vault, path string) ([]float32, error) {
	var blob []byte
	err := db.conn.QueryRow(`
		SELECT e.vector FROM embeddings e
		JOIN notes n ON n.rowid = e.note_rowid
		WHERE n.path = ? AND n.vault = ?
	`, path, vault).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get embedding: %w", err)
	}
	return decodeVector(blob)
}

// SearchSemantic scans stored embeddings, computes cosine distance to
// the query vector, and returns the nearest notes first. An empty vault
// searches all vaults.
func (db *DB) SearchSemantic(query []float32, vault string, limit int) ([]SemanticHit, error) {
	if limit <= 0 {
		limit = 10
	}
	var (
		rows *sql.Rows
		err  error
	)
	if vault != "" {
		rows, err = db.conn.Query(`
			SELECT n.path, n.vault, n.title, n.aliases, n.tags, n.content, n.mtime, n.content_hash, e.vector
			FROM embeddings e
			JOIN notes n ON n.rowid = e.note_rowid
			WHERE n.vault = ?
		`, vault)
	} else {
		rows, err = db.conn.Query(`
			SELECT n.path, n.vault, n.title, n.aliases, n.tags, n.content, n.mtime, n.content_hash, e.vector
			FROM embeddings e
			JOIN notes n ON n.rowid = e.note_rowid
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("index: semantic search: %w", err)
	}
	defer rows.Close()

	var hits []SemanticHit
	for rows.Next() {
		var n models.Note
		var aliasesJSON, tagsJSON string
		var blob []byte
		if err := rows.Scan(&n.Path, &n.Vault, &n.Title, &aliasesJSON, &tagsJSON, &n.Content, &n.Mtime, &n.ContentHash, &blob); err != nil {
			return nil, err
		}
		if err := decodeJSONList(aliasesJSON, &n.Aliases); err != nil {
			return nil, err
		}
		if err := decodeJSONList(tagsJSON, &n.Tags); err != nil {
			return nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		if len(vec) != len(query) {
			// Dimension mismatch (e.g. embedding model changed); skip.
			continue
		}
		hits = append(hits, SemanticHit{Note: &n, Distance: cosineDistance(query, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// encodeVector packs a float32 slice as little-endian bytes.
func encodeVector(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("index: malformed embedding blob: %d bytes", len(blob))
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}

// cosineDistance returns 1 - cosine similarity. Zero-norm vectors are
// treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 1
	}
	return 1 - dot/denom
}
