package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mvarkas/memex/internal/apperr"
	"github.com/mvarkas/memex/internal/index"
	"github.com/mvarkas/memex/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	engine *search.Engine
	db     *index.DB
}

// NewHandler creates a new Handler.
func NewHandler(engine *search.Engine, db *index.DB) *Handler {
	return &Handler{engine: engine, db: db}
}

// Search handles GET /api/search.
// Query parameters: query, keywords (repeatable), vault, limit, page, concise.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	page, _ := strconv.Atoi(q.Get("page"))
	concise := q.Get("concise") == "true"

	req := search.Request{
		Query:    q.Get("query"),
		Keywords: q["keywords"],
		Vault:    q.Get("vault"),
		Limit:    limit,
		Page:     page,
		Concise:  concise,
	}

	resp, err := h.engine.Search(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponse(resp, concise))
}

// Explore handles GET /api/explore.
// Query parameters: vault, path, concise.
func (h *Handler) Explore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vault := q.Get("vault")
	path := q.Get("path")
	if vault == "" || path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("vault and path are required"))
		return
	}
	concise := q.Get("concise") == "true"

	nb, err := h.engine.Explore(r.Context(), vault, path)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExploreResponse(nb, concise))
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.db.NoteCounts()
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, StatsResponse{Vaults: counts, Total: total})
}

// writeDomainError maps domain errors to HTTP status codes with
// structured bodies.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrBadInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrVaultUnknown):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNoVaults):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("no vaults configured: set MEMEX_VAULTS"))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
