package search

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/mvarkas/memex/internal/apperr"
	"github.com/mvarkas/memex/internal/index"
	"github.com/mvarkas/memex/internal/models"
)

// similarCap bounds the number of semantically similar notes returned
// by Explore.
const similarCap = 5

// SimilarNote is a semantically related but unlinked note.
type SimilarNote struct {
	Vault    string
	Path     string
	Title    string
	Distance float64
}

// Neighborhood is the graph and semantic context of one note.
type Neighborhood struct {
	Note      *models.Note
	Outlinks  []models.Outlink
	Backlinks []string
	Similar   []SimilarNote
}

// Explore assembles a note's neighborhood: resolved outlinks, backlinks
// (notes whose raw wikilink target matches this note's title), and up
// to similarCap semantically similar notes that are not already linked.
// A note without a stored embedding simply has no similar notes.
func (e *Engine) Explore(ctx context.Context, vault, notePath string) (*Neighborhood, error) {
	if len(e.vaults) == 0 {
		return nil, apperr.ErrNoVaults
	}
	root, ok := e.vaults[vault]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrVaultUnknown, vault)
	}

	index.IndexVault(ctx, e.db, e.embedder, vault, root, e.logger)

	note, err := e.db.GetNote(vault, notePath)
	if err != nil {
		return nil, err
	}

	outlinks, err := e.db.Outlinks(vault, notePath)
	if err != nil {
		return nil, err
	}

	// Backlinks match the wikilink form of this note: the filename stem.
	noteName := strings.TrimSuffix(path.Base(notePath), ".md")
	backlinks, err := e.db.Backlinks(vault, noteName)
	if err != nil {
		return nil, err
	}

	similar, err := e.similarTo(vault, notePath, backlinks)
	if err != nil {
		return nil, err
	}

	return &Neighborhood{
		Note:      note,
		Outlinks:  outlinks,
		Backlinks: backlinks,
		Similar:   similar,
	}, nil
}

// similarTo returns the nearest unlinked neighbors of a note. It
// overfetches (2x the cap plus the note itself) so that filtering out
// the note and its backlinks still leaves a full set.
func (e *Engine) similarTo(vault, notePath string, backlinks []string) ([]SimilarNote, error) {
	emb, err := e.db.GetEmbedding(vault, notePath)
	if err != nil {
		return nil, err
	}
	if emb == nil {
		return nil, nil
	}

	hits, err := e.db.SearchSemantic(emb, vault, similarCap*2+1)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(backlinks)+1)
	excluded[notePath] = struct{}{}
	for _, p := range backlinks {
		excluded[p] = struct{}{}
	}

	var out []SimilarNote
	for _, h := range hits {
		if _, skip := excluded[h.Note.Path]; skip {
			continue
		}
		out = append(out, SimilarNote{
			Vault:    h.Note.Vault,
			Path:     h.Note.Path,
			Title:    h.Note.Title,
			Distance: h.Distance,
		})
		if len(out) >= similarCap {
			break
		}
	}
	return out, nil
}
