package index

import (
	"github.com/mvarkas/memex/internal/models"
	"github.com/mvarkas/memex/internal/parser"
)

// ContentStore defines the persistence operations the engines depend
// on. Consumers should depend on this interface rather than the
// concrete *DB type to facilitate testing with mocks.
type ContentStore interface {
	UpsertNote(vault, path string, note *parser.Result, mtime float64, contentHash string) error
	UpdateMtime(vault, path string, mtime float64) error
	DeleteNote(vault, path string) error
	DeleteVault(vault string) (int, error)
	GetNote(vault, path string) (*models.Note, error)
	NoteRowID(vault, path string) (int64, error)
	IndexedMtimes(vault string) (map[string]float64, error)
	GetContentHash(vault, path string) (string, error)
	SearchLexical(query, vault string, limit int) ([]*models.Note, error)
	UpsertEmbedding(noteRowID int64, vector []float32) error
	GetEmbedding(vault, path string) ([]float32, error)
	SearchSemantic(query []float32, vault string, limit int) ([]SemanticHit, error)
	ResolveWikilink(vault, target string) ([]string, error)
	Backlinks(vault, target string) ([]string, error)
	Outlinks(vault, path string) ([]models.Outlink, error)
	NoteCounts() (map[string]int, error)
	Close() error
}

// Verify *DB satisfies ContentStore at compile time.
var _ ContentStore = (*DB)(nil)
