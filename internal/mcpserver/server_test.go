package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mvarkas/memex/internal/search"
	"github.com/mvarkas/memex/internal/testutil"
)

func testServer(t *testing.T, files map[string]string) *Server {
	t.Helper()
	root := testutil.TestVault(t, files)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := search.NewEngine(db, nil, map[string]string{"v": root}, logger)
	return New(engine)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct test helper for tool invocation, so we call
	// the handler methods directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search":
		result, err = srv.search(ctx, req)
	case "explore":
		result, err = srv.explore(ctx, req)
	case "memex_info":
		result, err = srv.info(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSearchTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"golang.md": "Notes about golang concurrency.",
		"other.md":  "Unrelated content.",
	})

	r := callTool(t, srv, "search", map[string]interface{}{
		"keywords": []interface{}{"golang"},
	})
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}

	var payload struct {
		Vaults []struct {
			Vault   string `json:"vault"`
			Results []struct {
				Path    string `json:"path"`
				Title   string `json:"title"`
				Content string `json:"content"`
			} `json:"results"`
		} `json:"vaults"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(payload.Vaults) != 1 || len(payload.Vaults[0].Results) != 1 {
		t.Fatalf("payload = %+v", payload)
	}
	got := payload.Vaults[0].Results[0]
	if got.Path != "golang.md" || got.Content == "" {
		t.Errorf("result = %+v", got)
	}
}

func TestSearchToolConcise(t *testing.T) {
	srv := testServer(t, map[string]string{
		"golang.md": "Notes about golang concurrency.",
	})

	r := callTool(t, srv, "search", map[string]interface{}{
		"keywords": []interface{}{"golang"},
		"concise":  true,
	})
	text := resultText(r)
	if strings.Contains(text, "concurrency") {
		t.Errorf("concise result leaks content: %s", text)
	}
	if !strings.Contains(text, "golang.md") {
		t.Errorf("concise result missing path: %s", text)
	}
}

func TestSearchToolNoInput(t *testing.T) {
	srv := testServer(t, map[string]string{"a.md": "x"})
	r := callTool(t, srv, "search", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without query or keywords")
	}
	if !strings.Contains(resultText(r), "query") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestSearchToolNoVaults(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(search.NewEngine(db, nil, nil, logger))

	r := callTool(t, srv, "search", map[string]interface{}{
		"keywords": []interface{}{"x"},
	})
	if !r.IsError {
		t.Fatal("expected error with no vaults")
	}
	if !strings.Contains(resultText(r), "MEMEX_VAULTS") {
		t.Errorf("error = %q, want setup guidance", resultText(r))
	}
}

func TestSearchToolNoResultsMessage(t *testing.T) {
	srv := testServer(t, map[string]string{"a.md": "golang"})
	r := callTool(t, srv, "search", map[string]interface{}{
		"keywords": []interface{}{"nonexistent-term"},
	})
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "no results") || !strings.Contains(text, "vaults_searched") {
		t.Errorf("result = %s", text)
	}
}

func TestExploreTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"hub.md":    "Points at [[spoke]].",
		"spoke.md":  "Leaf.",
		"linker.md": "Back at [[hub]].",
	})

	r := callTool(t, srv, "explore", map[string]interface{}{
		"note_path": "hub.md",
		"vault":     "v",
	})
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}

	var payload struct {
		Note struct {
			Title string `json:"title"`
		} `json:"note"`
		Outlinks []struct {
			Target   string   `json:"target"`
			Resolved []string `json:"resolved"`
		} `json:"outlinks"`
		Backlinks []string `json:"backlinks"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Note.Title != "hub" {
		t.Errorf("note = %+v", payload.Note)
	}
	if len(payload.Outlinks) != 1 || payload.Outlinks[0].Target != "spoke" {
		t.Errorf("outlinks = %+v", payload.Outlinks)
	}
	if len(payload.Backlinks) != 1 || payload.Backlinks[0] != "linker.md" {
		t.Errorf("backlinks = %v", payload.Backlinks)
	}
}

func TestExploreToolMissingArgs(t *testing.T) {
	srv := testServer(t, map[string]string{"a.md": "x"})
	r := callTool(t, srv, "explore", map[string]interface{}{"vault": "v"})
	if !r.IsError {
		t.Error("expected error without note_path")
	}
}

func TestExploreToolNoteNotFound(t *testing.T) {
	srv := testServer(t, map[string]string{"a.md": "x"})
	r := callTool(t, srv, "explore", map[string]interface{}{
		"note_path": "nope.md",
		"vault":     "v",
	})
	if !r.IsError {
		t.Fatal("expected error for missing note")
	}
	if !strings.Contains(resultText(r), "not found") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestExploreToolUnknownVault(t *testing.T) {
	srv := testServer(t, map[string]string{"a.md": "x"})
	r := callTool(t, srv, "explore", map[string]interface{}{
		"note_path": "a.md",
		"vault":     "ghost",
	})
	if !r.IsError {
		t.Error("expected error for unknown vault")
	}
}

func TestInfoTool(t *testing.T) {
	srv := testServer(t, map[string]string{"a.md": "x"})
	r := callTool(t, srv, "memex_info", nil)
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "MEMEX_VAULTS") {
		t.Error("info should document MEMEX_VAULTS setup")
	}
}
