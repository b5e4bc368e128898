package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mvarkas/memex/internal/index"
	"github.com/mvarkas/memex/internal/search"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(engine *search.Engine, db *index.DB, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(engine, db)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/search", h.Search)
	r.Get("/explore", h.Explore)
	r.Get("/stats", h.Stats)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
