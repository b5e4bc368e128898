package api

import (
	"math"

	"github.com/mvarkas/memex/internal/models"
	"github.com/mvarkas/memex/internal/search"
)

// NoteResult is one search/explore hit. Concise responses carry only
// the identifying fields.
type NoteResult struct {
	Vault   string   `json:"vault"`
	Path    string   `json:"path"`
	Title   string   `json:"title"`
	Aliases []string `json:"aliases,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Content string   `json:"content,omitempty"`
}

func toNoteResult(n *models.Note, concise bool) NoteResult {
	r := NoteResult{Vault: n.Vault, Path: n.Path, Title: n.Title}
	if !concise {
		r.Aliases = n.Aliases
		r.Tags = n.Tags
		r.Content = n.Content
	}
	return r
}

// VaultGroup is one vault's page of ranked results.
type VaultGroup struct {
	Vault   string       `json:"vault"`
	Results []NoteResult `json:"results"`
}

// SearchResponse wraps grouped search results or an explicit message
// when there are none.
type SearchResponse struct {
	Vaults         []VaultGroup `json:"vaults,omitempty"`
	Message        string       `json:"message,omitempty"`
	VaultsSearched []string     `json:"vaults_searched,omitempty"`
}

func toSearchResponse(resp *search.Response, concise bool) SearchResponse {
	out := SearchResponse{}
	if resp.Message != "" {
		out.Message = resp.Message
		out.VaultsSearched = resp.VaultsSearched
		return out
	}
	for _, g := range resp.Groups {
		vg := VaultGroup{Vault: g.Vault, Results: make([]NoteResult, 0, len(g.Results))}
		for _, n := range g.Results {
			vg.Results = append(vg.Results, toNoteResult(n, concise))
		}
		out.Vaults = append(out.Vaults, vg)
	}
	return out
}

// SimilarResult is a semantically related but unlinked note.
type SimilarResult struct {
	Vault    string  `json:"vault"`
	Path     string  `json:"path"`
	Title    string  `json:"title"`
	Distance float64 `json:"distance"`
}

// ExploreResponse is the neighborhood of one note.
type ExploreResponse struct {
	Note      NoteResult       `json:"note"`
	Outlinks  []models.Outlink `json:"outlinks"`
	Backlinks []string         `json:"backlinks"`
	Similar   []SimilarResult  `json:"similar"`
}

func toExploreResponse(nb *search.Neighborhood, concise bool) ExploreResponse {
	out := ExploreResponse{
		Note:      toNoteResult(nb.Note, concise),
		Outlinks:  nb.Outlinks,
		Backlinks: nb.Backlinks,
		Similar:   make([]SimilarResult, 0, len(nb.Similar)),
	}
	if out.Outlinks == nil {
		out.Outlinks = []models.Outlink{}
	}
	if out.Backlinks == nil {
		out.Backlinks = []string{}
	}
	for _, sn := range nb.Similar {
		out.Similar = append(out.Similar, SimilarResult{
			Vault:    sn.Vault,
			Path:     sn.Path,
			Title:    sn.Title,
			Distance: math.Round(sn.Distance*1000) / 1000,
		})
	}
	return out
}

// StatsResponse reports per-vault note counts.
type StatsResponse struct {
	Vaults map[string]int `json:"vaults"`
	Total  int            `json:"total"`
}
