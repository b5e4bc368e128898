// Package search implements hybrid retrieval (lexical + semantic with
// rank fusion) and graph-neighborhood exploration over indexed vaults.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mvarkas/memex/internal/apperr"
	"github.com/mvarkas/memex/internal/embed"
	"github.com/mvarkas/memex/internal/index"
	"github.com/mvarkas/memex/internal/models"
)

// DefaultLimit is the per-page result count when the caller does not
// specify one.
const DefaultLimit = 5

// Engine answers search and explore requests. Every request triggers a
// synchronous re-index of the vaults involved first, so queries always
// see the current state of the filesystem.
type Engine struct {
	db       *index.DB
	embedder embed.Embedder
	vaults   map[string]string // vault id -> root path
	logger   *slog.Logger
}

// NewEngine creates an Engine over the given store and vault map.
// embedder may be nil, in which case semantic search is disabled and
// all retrieval is lexical.
func NewEngine(db *index.DB, embedder embed.Embedder, vaults map[string]string, logger *slog.Logger) *Engine {
	return &Engine{db: db, embedder: embedder, vaults: vaults, logger: logger}
}

// VaultIDs returns the configured vault identifiers in sorted order.
func (e *Engine) VaultIDs() []string {
	ids := make([]string, 0, len(e.vaults))
	for id := range e.vaults {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Refresh synchronously re-indexes every configured vault.
func (e *Engine) Refresh(ctx context.Context) map[string]index.Stats {
	return index.IndexAllVaults(ctx, e.db, e.embedder, e.vaults, e.logger, nil)
}

// Request is one search invocation. At least one of Query (natural
// language, drives semantic search) or Keywords (drives lexical search)
// must be set.
type Request struct {
	Query    string
	Keywords []string
	Vault    string
	Limit    int
	Page     int
	Concise  bool
}

// VaultResults groups one page of ranked results for a single vault.
type VaultResults struct {
	Vault   string
	Results []*models.Note
}

// Response is the outcome of one search. When no group holds results,
// Message carries an explicit explanation instead of an ambiguous
// empty list.
type Response struct {
	Groups         []VaultResults
	Message        string
	VaultsSearched []string
}

// Search runs lexical and/or semantic retrieval, fuses the rankings,
// and returns deduplicated results grouped per vault with 1-indexed
// pagination.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	if req.Query == "" && len(req.Keywords) == 0 {
		return nil, fmt.Errorf("%w: supply query text and/or keywords", apperr.ErrBadInput)
	}
	if len(e.vaults) == 0 {
		return nil, apperr.ErrNoVaults
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	e.Refresh(ctx)

	// Fetch enough candidates to cover the requested page after fusion.
	fetch := req.Limit * req.Page * 2
	if fetch < 20 {
		fetch = 20
	}

	var lexical []*models.Note
	if len(req.Keywords) > 0 {
		var err error
		lexical, err = e.db.SearchLexical(strings.Join(req.Keywords, " "), req.Vault, fetch)
		if err != nil {
			return nil, err
		}
		lexical = dedupeNotes(lexical)
	}

	var semantic []*models.Note
	if req.Query != "" && e.embedder != nil {
		hits, err := e.semanticSearch(ctx, req.Query, req.Vault, fetch)
		if err != nil {
			// Embedding or vector failures degrade semantic results to
			// empty; lexical retrieval still answers.
			e.logger.Warn("search: semantic unavailable", slog.String("error", err.Error()))
		} else {
			for _, h := range hits {
				semantic = append(semantic, h.Note)
			}
			semantic = dedupeNotes(semantic)
		}
	}

	var ranked []*models.Note
	switch {
	case len(lexical) > 0 && len(semantic) > 0:
		ranked = rrfFuse(lexical, semantic)
	case len(semantic) > 0:
		ranked = semantic
	default:
		ranked = lexical
	}

	resp := &Response{VaultsSearched: e.VaultIDs()}
	for _, g := range groupByVault(ranked) {
		page := paginate(g.Results, req.Limit, req.Page)
		if len(page) == 0 {
			continue
		}
		resp.Groups = append(resp.Groups, VaultResults{Vault: g.Vault, Results: page})
	}

	if len(resp.Groups) == 0 {
		if len(ranked) > 0 {
			resp.Message = fmt.Sprintf("no results on page %d; %d result(s) exist on earlier pages", req.Page, len(ranked))
		} else {
			resp.Message = "no results" + describeQuery(req)
		}
	}
	return resp, nil
}

func (e *Engine) semanticSearch(ctx context.Context, query, vault string, limit int) ([]index.SemanticHit, error) {
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}
	return e.db.SearchSemantic(vec, vault, limit)
}

func describeQuery(req Request) string {
	switch {
	case req.Query != "" && len(req.Keywords) > 0:
		return fmt.Sprintf(" for %q with keywords %v", req.Query, req.Keywords)
	case req.Query != "":
		return fmt.Sprintf(" for %q", req.Query)
	default:
		return fmt.Sprintf(" for keywords %v", req.Keywords)
	}
}

// groupByVault splits a ranked list into per-vault groups, preserving
// rank order within each group. Group order follows first appearance.
func groupByVault(ranked []*models.Note) []VaultResults {
	byVault := make(map[string]int)
	var groups []VaultResults
	for _, n := range ranked {
		i, ok := byVault[n.Vault]
		if !ok {
			i = len(groups)
			byVault[n.Vault] = i
			groups = append(groups, VaultResults{Vault: n.Vault})
		}
		groups[i].Results = append(groups[i].Results, n)
	}
	return groups
}

// paginate returns the 1-indexed page window of a ranked list.
func paginate(notes []*models.Note, limit, page int) []*models.Note {
	skip := (page - 1) * limit
	if skip >= len(notes) {
		return nil
	}
	end := skip + limit
	if end > len(notes) {
		end = len(notes)
	}
	return notes[skip:end]
}
