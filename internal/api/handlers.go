package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kabir/a2a-tck/internal/apperr"
	"github.com/kabir/a2a-tck/internal/archive"
	"github.com/kabir/a2a-tck/internal/extract"
	"github.com/kabir/a2a-tck/internal/models"
	"github.com/kabir/a2a-tck/internal/runservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc   *runservice.Service
	store archive.Store
}

// NewHandler creates a new Handler. store may be nil when run history is
// not configured; the history endpoints then answer 503.
func NewHandler(svc *runservice.Service, store archive.Store) *Handler {
	return &Handler{svc: svc, store: store}
}

// GetReport handles GET /report: the most recent analysis result.
func (h *Handler) GetReport(w http.ResponseWriter, _ *http.Request) {
	res, err := h.svc.Last()
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("no analysis has completed yet"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Analyze handles POST /analyze: triggers a fresh pipeline run.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Run(r.Context())
	if err != nil {
		var perr *extract.ParseError
		if errors.As(err, &perr) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(perr.Error()))
			return
		}
		slog.Error("analysis failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("analysis failed"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListChanges handles GET /changes with an optional ?type= filter.
func (h *Handler) ListChanges(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Last()
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("no analysis has completed yet"))
		return
	}

	typeFilter := r.URL.Query().Get("type")
	changes := res.Changes
	if typeFilter != "" {
		filtered := make([]models.ChangeRecord, 0, len(changes))
		for _, c := range changes {
			if string(c.Type) == typeFilter {
				filtered = append(filtered, c)
			}
		}
		changes = filtered
	}
	writeJSON(w, http.StatusOK, ChangesResponse{Changes: changes, Summary: res.Summary})
}

// ListRequirements handles GET /requirements with optional ?level=,
// ?category=, and ?covered= filters over the latest result.
func (h *Handler) ListRequirements(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Last()
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("no analysis has completed yet"))
		return
	}

	q := r.URL.Query()
	level := q.Get("level")
	category := q.Get("category")
	coveredParam := q.Get("covered")

	out := make([]models.RequirementStatus, 0, len(res.Requirements))
	for _, req := range res.Requirements {
		if level != "" && string(req.Level) != level {
			continue
		}
		if category != "" && req.Category != category {
			continue
		}
		if coveredParam != "" {
			want := coveredParam == "true"
			if req.Covered() != want {
				continue
			}
		}
		out = append(out, req)
	}
	writeJSON(w, http.StatusOK, RequirementsResponse{Requirements: out, Total: len(out)})
}

// Search handles GET /search: a LIKE search over the archived requirements
// of one run (?run=, defaulting to the latest).
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("run archive not configured"))
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	runID, _ := strconv.ParseInt(r.URL.Query().Get("run"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := h.store.SearchRequirements(runID, q, limit)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("no archived runs"))
			return
		}
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if rows == nil {
		rows = []archive.RequirementRow{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: rows})
}

// ListTests handles GET /tests with an optional ?undocumented=true filter.
func (h *Handler) ListTests(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Last()
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("no analysis has completed yet"))
		return
	}

	undocumentedOnly := r.URL.Query().Get("undocumented") == "true"
	out := make([]models.Test, 0, len(res.Tests))
	for _, t := range res.Tests {
		if undocumentedOnly && t.Documented() {
			continue
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, TestsResponse{Tests: out, Total: len(out)})
}

// ListRuns handles GET /runs: archived run history, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("run archive not configured"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.store.ListRuns(limit)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if runs == nil {
		runs = []archive.RunRow{}
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs})
}

// GetRun handles GET /runs/{id}: one archived result in full.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("run archive not configured"))
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid run id"))
		return
	}
	res, err := h.store.GetRun(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("get run failed", slog.Int64("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
