// Package mcpserver exposes memex search and exploration tools over the
// Model Context Protocol via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvarkas/memex/internal/apperr"
	"github.com/mvarkas/memex/internal/models"
	"github.com/mvarkas/memex/internal/search"
)

// Server wraps the MCP server with memex tools.
type Server struct {
	mcp    *server.MCPServer
	engine *search.Engine
}

// New creates an MCP server with the search, explore, and memex_info
// tools registered.
func New(engine *search.Engine) *Server {
	s := &Server{engine: engine}

	s.mcp = server.NewMCPServer(
		"memex",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Search markdown vaults by keyword and/or meaning. "+
			"Supply keywords for exact full-text matching, query for semantic "+
			"similarity, or both to fuse the rankings."),
		mcp.WithString("query", mcp.Description("Natural-language query for semantic search")),
		mcp.WithArray("keywords", mcp.Description("Exact-match terms for full-text search"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("vault", mcp.Description("Restrict to one vault (default: all vaults)")),
		mcp.WithNumber("limit", mcp.DefaultNumber(search.DefaultLimit), mcp.Description("Results per page")),
		mcp.WithNumber("page", mcp.DefaultNumber(1), mcp.Description("1-indexed page number")),
		mcp.WithBoolean("concise", mcp.DefaultBool(false), mcp.Description("Return only vault/path/title")),
	), s.search)

	s.mcp.AddTool(mcp.NewTool("explore",
		mcp.WithDescription("Explore a note's neighborhood: outlinks with resolved "+
			"paths, backlinks, and semantically similar but unlinked notes. "+
			"Use after search to understand a note's context."),
		mcp.WithString("note_path", mcp.Required(), mcp.Description("Relative path within the vault (e.g. folder/note.md)")),
		mcp.WithString("vault", mcp.Required(), mcp.Description("The vault containing the note")),
		mcp.WithBoolean("concise", mcp.DefaultBool(false), mcp.Description("Omit the note's full content")),
	), s.explore)

	s.mcp.AddTool(mcp.NewTool("memex_info",
		mcp.WithDescription("Get setup instructions and example workflow for this server."),
	), s.info)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// noteDTO is the wire shape of one note. Concise results carry only
// identifying fields.
type noteDTO struct {
	Vault   string   `json:"vault"`
	Path    string   `json:"path"`
	Title   string   `json:"title"`
	Aliases []string `json:"aliases,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Content string   `json:"content,omitempty"`
}

func toNoteDTO(n *models.Note, concise bool) noteDTO {
	d := noteDTO{Vault: n.Vault, Path: n.Path, Title: n.Title}
	if !concise {
		d.Aliases = n.Aliases
		d.Tags = n.Tags
		d.Content = n.Content
	}
	return d
}

func (s *Server) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r := search.Request{
		Query:    req.GetString("query", ""),
		Keywords: req.GetStringSlice("keywords", nil),
		Vault:    req.GetString("vault", ""),
		Limit:    req.GetInt("limit", search.DefaultLimit),
		Page:     req.GetInt("page", 1),
		Concise:  req.GetBool("concise", false),
	}

	resp, err := s.engine.Search(ctx, r)
	if err != nil {
		return toolError(err), nil
	}

	if resp.Message != "" {
		return resultJSON(map[string]any{
			"message":         resp.Message,
			"vaults_searched": resp.VaultsSearched,
		})
	}

	type vaultGroup struct {
		Vault   string    `json:"vault"`
		Results []noteDTO `json:"results"`
	}
	groups := make([]vaultGroup, 0, len(resp.Groups))
	for _, g := range resp.Groups {
		vg := vaultGroup{Vault: g.Vault, Results: make([]noteDTO, 0, len(g.Results))}
		for _, n := range g.Results {
			vg.Results = append(vg.Results, toNoteDTO(n, r.Concise))
		}
		groups = append(groups, vg)
	}
	return resultJSON(map[string]any{"vaults": groups})
}

func (s *Server) explore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notePath, err := req.RequireString("note_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vault, err := req.RequireString("vault")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	concise := req.GetBool("concise", false)

	nb, err := s.engine.Explore(ctx, vault, notePath)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("note not found: %s/%s", vault, notePath)), nil
		}
		return toolError(err), nil
	}

	type similarDTO struct {
		Vault    string  `json:"vault"`
		Path     string  `json:"path"`
		Title    string  `json:"title"`
		Distance float64 `json:"distance"`
	}
	similar := make([]similarDTO, 0, len(nb.Similar))
	for _, sn := range nb.Similar {
		similar = append(similar, similarDTO{
			Vault:    sn.Vault,
			Path:     sn.Path,
			Title:    sn.Title,
			Distance: math.Round(sn.Distance*1000) / 1000,
		})
	}

	return resultJSON(map[string]any{
		"note":      toNoteDTO(nb.Note, concise),
		"outlinks":  nb.Outlinks,
		"backlinks": nb.Backlinks,
		"similar":   similar,
	})
}

func (s *Server) info(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(UsageText), nil
}

// toolError maps domain errors to structured tool results with caller
// guidance; the transport never sees a raw error.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNoVaults):
		return mcp.NewToolResultError("no vaults configured: set the MEMEX_VAULTS environment variable")
	case errors.Is(err, apperr.ErrVaultUnknown):
		return mcp.NewToolResultError(err.Error())
	case errors.Is(err, apperr.ErrBadInput):
		return mcp.NewToolResultError(err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func resultJSON(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
