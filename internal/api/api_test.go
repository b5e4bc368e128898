package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mvarkas/memex/internal/index"
	"github.com/mvarkas/memex/internal/search"
	"github.com/mvarkas/memex/internal/testutil"
)

func testRouter(t *testing.T, files map[string]string, authEnabled bool, token string) (chi.Router, *index.DB) {
	t.Helper()
	root := testutil.TestVault(t, files)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := search.NewEngine(db, nil, map[string]string{"v": root}, logger)
	return NewRouter(engine, db, authEnabled, token, nil), db
}

func get(t *testing.T, r chi.Router, url string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	r, _ := testRouter(t, map[string]string{
		"golang.md": "Notes about golang concurrency.",
		"other.md":  "Unrelated.",
	}, false, "")

	rec := get(t, r, "/search?keywords=golang", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Vaults) != 1 || len(resp.Vaults[0].Results) != 1 {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Vaults[0].Results[0].Path != "golang.md" {
		t.Errorf("result = %+v", resp.Vaults[0].Results[0])
	}
}

func TestSearchEndpointRequiresInput(t *testing.T) {
	r, _ := testRouter(t, map[string]string{"a.md": "x"}, false, "")
	rec := get(t, r, "/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearchEndpointConcise(t *testing.T) {
	r, _ := testRouter(t, map[string]string{"golang.md": "golang concurrency details"}, false, "")
	rec := get(t, r, "/search?keywords=golang&concise=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "concurrency details") {
		t.Errorf("concise response leaks content: %s", rec.Body.String())
	}
}

func TestSearchEndpointNoResults(t *testing.T) {
	r, _ := testRouter(t, map[string]string{"a.md": "golang"}, false, "")
	rec := get(t, r, "/search?keywords=nonexistent-term", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Message == "" {
		t.Error("expected explanatory message for empty result set")
	}
}

func TestExploreEndpoint(t *testing.T) {
	r, _ := testRouter(t, map[string]string{
		"hub.md":    "Points at [[spoke]].",
		"spoke.md":  "Leaf.",
		"linker.md": "Back at [[hub]].",
	}, false, "")

	rec := get(t, r, "/explore?vault=v&path=hub.md", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ExploreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Note.Title != "hub" {
		t.Errorf("note = %+v", resp.Note)
	}
	if len(resp.Outlinks) != 1 || resp.Outlinks[0].Target != "spoke" {
		t.Errorf("outlinks = %+v", resp.Outlinks)
	}
	if len(resp.Backlinks) != 1 || resp.Backlinks[0] != "linker.md" {
		t.Errorf("backlinks = %v", resp.Backlinks)
	}
}

func TestExploreEndpointMissingParams(t *testing.T) {
	r, _ := testRouter(t, map[string]string{"a.md": "x"}, false, "")
	rec := get(t, r, "/explore?vault=v", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestExploreEndpointNotFound(t *testing.T) {
	r, _ := testRouter(t, map[string]string{"a.md": "x"}, false, "")

	rec := get(t, r, "/explore?vault=v&path=nope.md", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = get(t, r, "/explore?vault=ghost&path=a.md", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown vault status = %d, want 404", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	r, _ := testRouter(t, map[string]string{
		"a.md": "one",
		"b.md": "two",
	}, false, "")

	// Populate the index through a search first.
	get(t, r, "/search?keywords=one", nil)

	rec := get(t, r, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 2 || resp.Vaults["v"] != 2 {
		t.Errorf("stats = %+v", resp)
	}
}

func TestAuthMiddleware(t *testing.T) {
	r, _ := testRouter(t, map[string]string{"a.md": "golang"}, true, "secret")

	rec := get(t, r, "/stats", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}

	rec = get(t, r, "/stats", map[string]string{"Authorization": "Bearer wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", rec.Code)
	}

	rec = get(t, r, "/stats", map[string]string{"Authorization": "Bearer secret"})
	if rec.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", rec.Code)
	}
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	r, _ := testRouter(t, map[string]string{"a.md": "golang"}, false, "")
	rec := get(t, r, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", rec.Code)
	}
}
