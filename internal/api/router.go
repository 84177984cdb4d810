package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kabir/a2a-tck/internal/archive"
	"github.com/kabir/a2a-tck/internal/runservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *runservice.Service, store archive.Store, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Latest analysis.
	r.Get("/report", h.GetReport)
	r.Post("/analyze", h.Analyze)
	r.Get("/changes", h.ListChanges)
	r.Get("/requirements", h.ListRequirements)
	r.Get("/tests", h.ListTests)

	// Archived runs.
	r.Get("/search", h.Search)
	r.Get("/runs", h.ListRuns)
	r.Get("/runs/{id}", h.GetRun)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
