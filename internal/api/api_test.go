package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kabir/a2a-tck/internal/archive"
	"github.com/kabir/a2a-tck/internal/coverage"
	"github.com/kabir/a2a-tck/internal/models"
	"github.com/kabir/a2a-tck/internal/runservice"
	"github.com/kabir/a2a-tck/internal/source"
)

const baselineDoc = `---
version: "1.0"
---
# 1. Protocol
Servers MUST respond to requests.

# 2. Discovery
Servers MUST serve an agent card.
`

const latestDoc = `---
version: "1.1"
---
# 1. Protocol
Servers MUST respond to requests.

# 2. Discovery
Servers MUST serve an agent card.

Agents MAY cache the card.
`

const manifestDoc = `suite: tck
tests:
  - id: test_respond
    category: mandatory_protocol
    requirements: [1-1]
  - id: test_card
    category: mandatory_discovery
    requirements: [2-1]
  - id: test_unmapped
    category: optional_features
`

// testEnv sets up temp input files, an archive DB, a run service, and the
// router. authToken == "" means auth disabled.
func testEnv(t *testing.T, authToken string) (*runservice.Service, http.Handler) {
	t.Helper()
	svc, router, _ := testEnvWithRoot(t, authToken)
	return svc, router
}

func testEnvWithRoot(t *testing.T, authToken string) (*runservice.Service, http.Handler, string) {
	t.Helper()

	root := t.TempDir()
	for name, content := range map[string]string{
		"baseline.md":   baselineDoc,
		"latest.md":     latestDoc,
		"manifest.yaml": manifestDoc,
	} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	src, err := source.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "tck-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := archive.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	paths := runservice.Paths{Baseline: "baseline.md", Latest: "latest.md", Manifest: "manifest.yaml"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := runservice.New(src, paths, coverage.NewAnalyzer(coverage.Config{}), store, logger)

	router := NewRouter(svc, store, authToken != "", authToken, nil)
	return svc, router, root
}

func do(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetReport_BeforeAnyRun(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/report")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestAnalyzeThenReport(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/analyze")
	if w.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/report")
	if w.Code != http.StatusOK {
		t.Fatalf("report status = %d", w.Code)
	}
	var res models.AnalysisResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Latest.Label != "1.1" || res.Latest.Requirements != 3 {
		t.Errorf("latest = %+v", res.Latest)
	}
	if res.Summary.Added != 1 || res.Summary.Unchanged != 2 {
		t.Errorf("summary = %+v", res.Summary)
	}
}

func TestAnalyze_ParseErrorIs422(t *testing.T) {
	_, router, root := testEnvWithRoot(t, "")

	// Break the latest spec on disk, then re-analyze.
	w := do(t, router, http.MethodPost, "/analyze")
	if w.Code != http.StatusOK {
		t.Fatalf("first analyze = %d", w.Code)
	}
	if err := os.WriteFile(filepath.Join(root, "latest.md"), []byte("---\nbroken"), 0o644); err != nil {
		t.Fatal(err)
	}
	w = do(t, router, http.MethodPost, "/analyze")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", w.Code, w.Body.String())
	}
}

func TestListChanges_TypeFilter(t *testing.T) {
	_, router := testEnv(t, "")
	do(t, router, http.MethodPost, "/analyze")

	w := do(t, router, http.MethodGet, "/changes?type=added")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res ChangesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Changes) != 1 || res.Changes[0].ID != "2-2" {
		t.Errorf("changes = %+v, want one added 2-2", res.Changes)
	}
	if res.Summary.Unchanged != 2 {
		t.Errorf("summary = %+v", res.Summary)
	}
}

func TestListRequirements_Filters(t *testing.T) {
	_, router := testEnv(t, "")
	do(t, router, http.MethodPost, "/analyze")

	w := do(t, router, http.MethodGet, "/requirements?covered=false")
	var res RequirementsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Total != 1 || res.Requirements[0].ID != "2-2" {
		t.Errorf("uncovered = %+v, want only 2-2", res.Requirements)
	}

	w = do(t, router, http.MethodGet, "/requirements?level=MUST")
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("MUST requirements = %d, want 2", res.Total)
	}

	w = do(t, router, http.MethodGet, "/requirements?category=mandatory_discovery")
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Total != 1 || res.Requirements[0].ID != "2-1" {
		t.Errorf("discovery requirements = %+v", res.Requirements)
	}
}

func TestListTests_UndocumentedFilter(t *testing.T) {
	_, router := testEnv(t, "")
	do(t, router, http.MethodPost, "/analyze")

	w := do(t, router, http.MethodGet, "/tests?undocumented=true")
	var res TestsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Total != 1 || res.Tests[0].ID != "test_unmapped" {
		t.Errorf("undocumented = %+v", res.Tests)
	}
}

func TestRunsAndGetRun(t *testing.T) {
	_, router := testEnv(t, "")
	do(t, router, http.MethodPost, "/analyze")
	do(t, router, http.MethodPost, "/analyze")

	w := do(t, router, http.MethodGet, "/runs")
	if w.Code != http.StatusOK {
		t.Fatalf("runs status = %d", w.Code)
	}
	var list RunListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(list.Runs))
	}
	if list.Runs[0].ID <= list.Runs[1].ID {
		t.Errorf("runs not newest-first: %+v", list.Runs)
	}

	w = do(t, router, http.MethodGet, "/runs/1")
	if w.Code != http.StatusOK {
		t.Fatalf("get run status = %d", w.Code)
	}

	w = do(t, router, http.MethodGet, "/runs/999")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing run status = %d, want 404", w.Code)
	}

	w = do(t, router, http.MethodGet, "/runs/abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
}

func TestSearch(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/search?q=card")
	if w.Code != http.StatusNotFound {
		t.Fatalf("empty archive status = %d, want 404", w.Code)
	}

	do(t, router, http.MethodPost, "/analyze")

	w = do(t, router, http.MethodGet, "/search?q=card")
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	var res SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Results) != 2 {
		t.Errorf("results = %+v, want 2 card requirements", res.Results)
	}

	w = do(t, router, http.MethodGet, "/search")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d, want 400", w.Code)
	}
}

func TestAuth(t *testing.T) {
	_, router := testEnv(t, "secret")

	w := do(t, router, http.MethodGet, "/report")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/report", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	// Authenticated but no analysis yet.
	if w.Code != http.StatusNotFound {
		t.Fatalf("valid token status = %d, want 404", w.Code)
	}
}

func TestArchiveDisabled(t *testing.T) {
	root := t.TempDir()
	for name, content := range map[string]string{
		"baseline.md":   baselineDoc,
		"latest.md":     latestDoc,
		"manifest.yaml": manifestDoc,
	} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	src, err := source.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	paths := runservice.Paths{Baseline: "baseline.md", Latest: "latest.md", Manifest: "manifest.yaml"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := runservice.New(src, paths, coverage.NewAnalyzer(coverage.Config{}), nil, logger)
	router := NewRouter(svc, nil, false, "", nil)

	for _, target := range []string{"/runs", "/runs/1", "/search?q=x"} {
		w := do(t, router, http.MethodGet, target)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", target, w.Code)
		}
	}
}
