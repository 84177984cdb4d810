// Package coverage computes requirement coverage and change-impact metrics
// from a spec version, its changelist, and the test index.
package coverage

import (
	"math"
	"sort"

	"github.com/kabir/a2a-tck/internal/manifest"
	"github.com/kabir/a2a-tck/internal/models"
)

// Default thresholds for report status classification.
const (
	DefaultTarget            = 95.0
	DefaultCriticalUncovered = 5
)

// Config tunes status classification.
type Config struct {
	// Target is the minimum overall coverage percentage for GOOD status.
	Target float64
	// CriticalUncovered is the number of uncovered mandatory-level
	// requirements at which status escalates from WARNING to CRITICAL.
	CriticalUncovered int
}

// Analyzer computes coverage reports. Analyze is a pure function of its
// inputs: identical inputs produce identical reports, with no wall-clock
// or randomness involved.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer, applying defaults for unset thresholds.
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.Target <= 0 {
		cfg.Target = DefaultTarget
	}
	if cfg.CriticalUncovered <= 0 {
		cfg.CriticalUncovered = DefaultCriticalUncovered
	}
	return &Analyzer{cfg: cfg}
}

// Analyze combines the latest spec version, the change records, and the
// test index into a coverage report.
func (a *Analyzer) Analyze(latest *models.SpecVersion, changes []models.ChangeRecord, ix *manifest.Index, tests []models.Test) models.CoverageReport {
	var report models.CoverageReport

	levelTotals := make(map[models.Level]*models.Stat)
	categoryTotals := make(map[string]*models.Stat)
	uncoveredMandatory := 0

	for _, req := range latest.Requirements {
		covered := len(ix.TestsFor(req.ID)) > 0

		report.Overall.Total++
		if covered {
			report.Overall.Covered++
		} else if req.Level.Mandatory() {
			uncoveredMandatory++
		}

		tally(levelTotals, req.Level, covered)
		tally(categoryTotals, req.Category, covered)
	}
	report.Overall.Percent = Percent(report.Overall.Covered, report.Overall.Total)

	for _, level := range models.Levels {
		s, ok := levelTotals[level]
		if !ok {
			continue
		}
		s.Percent = Percent(s.Covered, s.Total)
		report.Levels = append(report.Levels, models.LevelCoverage{Level: level, Stat: *s})
	}

	categories := make([]string, 0, len(categoryTotals))
	for c := range categoryTotals {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		s := categoryTotals[c]
		s.Percent = Percent(s.Covered, s.Total)
		report.Categories = append(report.Categories, models.CategoryCoverage{Category: c, Stat: *s})
	}

	report.TestsTotal = len(tests)
	for _, t := range tests {
		if t.Documented() {
			report.TestsDocumented++
		}
	}
	report.TestDocumentation = Percent(report.TestsDocumented, report.TestsTotal)

	report.DirectlyAffected, report.NeedingTests, report.PotentiallyObsolete = a.changeImpact(changes, ix, tests)

	switch {
	case uncoveredMandatory >= a.cfg.CriticalUncovered:
		report.Status = models.StatusCritical
	case uncoveredMandatory > 0,
		len(report.PotentiallyObsolete) > 0,
		report.Overall.Percent < a.cfg.Target:
		report.Status = models.StatusWarning
	default:
		report.Status = models.StatusGood
	}

	return report
}

// changeImpact derives the three change-driven test lists:
//   - directly affected: tests referencing a Modified or Removed requirement
//   - needing tests: Added requirements with zero mapped tests
//   - potentially obsolete: tests whose entire (non-empty) reference set
//     consists of Removed requirements
func (a *Analyzer) changeImpact(changes []models.ChangeRecord, ix *manifest.Index, tests []models.Test) (affected, needing, obsolete []string) {
	removed := make(map[string]struct{})
	affectedSet := make(map[string]struct{})

	for _, c := range changes {
		switch c.Type {
		case models.ChangeModified, models.ChangeRemoved:
			if c.Type == models.ChangeRemoved {
				removed[c.ID] = struct{}{}
			}
			for _, testID := range ix.TestsFor(c.ID) {
				affectedSet[testID] = struct{}{}
			}
		case models.ChangeAdded:
			if len(ix.TestsFor(c.ID)) == 0 {
				needing = append(needing, c.ID)
			}
		}
	}

	for testID := range affectedSet {
		affected = append(affected, testID)
	}
	sort.Strings(affected)
	sort.Strings(needing)

	for _, t := range tests {
		refs := ix.RequirementsOf(t.ID)
		if len(refs) == 0 {
			continue
		}
		allRemoved := true
		for _, reqID := range refs {
			if _, ok := removed[reqID]; !ok {
				allRemoved = false
				break
			}
		}
		if allRemoved {
			obsolete = append(obsolete, t.ID)
		}
	}
	sort.Strings(obsolete)

	return ensure(affected), ensure(needing), ensure(obsolete)
}

func tally[K comparable](m map[K]*models.Stat, key K, covered bool) {
	s, ok := m[key]
	if !ok {
		s = &models.Stat{}
		m[key] = s
	}
	s.Total++
	if covered {
		s.Covered++
	}
}

func ensure(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Percent returns covered/total as a percentage rounded to one decimal.
// A total of zero is defined as full coverage (0 of 0 is not a failure).
func Percent(covered, total int) float64 {
	if total == 0 {
		return 100.0
	}
	return Round1(float64(covered) / float64(total) * 100)
}

// Round1 rounds to one decimal, half away from zero. Fixed explicitly so
// displayed percentages are reproducible across runs and platforms.
func Round1(x float64) float64 {
	if x < 0 {
		return -Round1(-x)
	}
	return math.Floor(x*10+0.5) / 10
}
