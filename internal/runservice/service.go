// Package runservice orchestrates the analysis pipeline: extraction of
// both spec versions, manifest indexing, diffing, and coverage analysis.
package runservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kabir/a2a-tck/internal/apperr"
	"github.com/kabir/a2a-tck/internal/archive"
	"github.com/kabir/a2a-tck/internal/coverage"
	"github.com/kabir/a2a-tck/internal/differ"
	"github.com/kabir/a2a-tck/internal/extract"
	"github.com/kabir/a2a-tck/internal/manifest"
	"github.com/kabir/a2a-tck/internal/models"
	"github.com/kabir/a2a-tck/internal/source"
)

// Paths names the three analysis inputs, relative to the workspace root.
type Paths struct {
	Baseline string
	Latest   string
	Manifest string
}

// Service runs the pipeline and caches the most recent result for API and
// MCP consumers. Each run is a pure function of the on-disk snapshot;
// archiving (with its timestamp) happens after the result is complete.
type Service struct {
	src      *source.FS
	paths    Paths
	analyzer *coverage.Analyzer
	store    archive.Store // nil disables archiving
	logger   *slog.Logger

	mu   sync.RWMutex
	last *models.AnalysisResult
}

// New creates a run service. store may be nil for one-shot use.
func New(src *source.FS, paths Paths, analyzer *coverage.Analyzer, store archive.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, paths: paths, analyzer: analyzer, store: store, logger: logger}
}

// Run executes one full analysis. Baseline extraction, latest extraction,
// and manifest loading are independent and run concurrently, joining before
// the diff and coverage passes. Either the whole run succeeds and yields
// one result, or it fails with a diagnostic; partial results are never
// exposed or cached.
func (s *Service) Run(ctx context.Context) (*models.AnalysisResult, error) {
	var (
		baseline *models.SpecVersion
		latest   *models.SpecVersion
		man      *manifest.Manifest
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		baseline, err = s.extractSpec(s.paths.Baseline)
		return err
	})
	g.Go(func() error {
		var err error
		latest, err = s.extractSpec(s.paths.Latest)
		return err
	})
	g.Go(func() error {
		data, err := s.src.Read(s.paths.Manifest)
		if err != nil {
			return err
		}
		man, err = manifest.Load(data)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	changes := differ.Diff(baseline, latest)
	ix := manifest.BuildIndex(man.Tests)
	report := s.analyzer.Analyze(latest, changes, ix, man.Tests)

	res := &models.AnalysisResult{
		Baseline:     baseline.Info(),
		Latest:       latest.Info(),
		Requirements: requirementStatuses(latest, ix),
		Tests:        man.Tests,
		Changes:      changes,
		Summary:      differ.Summarize(changes),
		Report:       report,
		Warnings:     collectWarnings(baseline, latest, ix),
	}

	if s.store != nil {
		if runID, err := s.store.SaveRun(res, time.Now()); err != nil {
			s.logger.Warn("archive failed", slog.String("error", err.Error()))
		} else {
			s.logger.Debug("run archived", slog.Int64("run_id", runID))
		}
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	s.logger.Info("analysis completed",
		slog.String("status", string(report.Status)),
		slog.Float64("coverage", report.Overall.Percent),
		slog.Int("requirements", len(latest.Requirements)),
		slog.Int("changes", res.Summary.Total()-res.Summary.Unchanged))

	return res, nil
}

// Last returns the most recent completed result, or ErrNoAnalysis.
func (s *Service) Last() (*models.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, apperr.ErrNoAnalysis
	}
	return s.last, nil
}

func (s *Service) extractSpec(path string) (*models.SpecVersion, error) {
	data, err := s.src.Read(path)
	if err != nil {
		return nil, err
	}
	return extract.Extract(path, "", data)
}

func requirementStatuses(latest *models.SpecVersion, ix *manifest.Index) []models.RequirementStatus {
	out := make([]models.RequirementStatus, len(latest.Requirements))
	for i, req := range latest.Requirements {
		out[i] = models.RequirementStatus{
			Requirement: req,
			Tests:       ix.TestsFor(req.ID),
		}
	}
	return out
}

func collectWarnings(baseline, latest *models.SpecVersion, ix *manifest.Index) []models.Warning {
	var out []models.Warning
	for _, v := range []*models.SpecVersion{baseline, latest} {
		if len(v.Requirements) == 0 {
			out = append(out, models.Warning{
				Kind:    models.WarnEmptySpec,
				Message: fmt.Sprintf("spec %s (%s) yields zero requirements; coverage degenerates to 100.0%% (0 of 0)", v.Source, v.Label),
				Version: v.Label,
			})
		}
	}
	return append(out, ix.Dangling(latest.IDSet())...)
}
