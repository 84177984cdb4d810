package models

// Status is the overall health classification of a coverage report.
type Status string

// Report status tiers.
const (
	StatusGood     Status = "GOOD"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
)

// Stat is a covered/total pair with its percentage, rounded to one decimal.
// A total of zero is defined as 100.0% coverage.
type Stat struct {
	Total   int     `json:"total"`
	Covered int     `json:"covered"`
	Percent float64 `json:"percent"`
}

// LevelCoverage is the coverage stat for one normative level.
type LevelCoverage struct {
	Level Level `json:"level"`
	Stat
}

// CategoryCoverage is the coverage stat for one requirement category.
type CategoryCoverage struct {
	Category string `json:"category"`
	Stat
}

// CoverageReport aggregates requirement coverage, test documentation, and
// change-impact findings for one analysis run.
type CoverageReport struct {
	Overall    Stat               `json:"overall"`
	Levels     []LevelCoverage    `json:"levels"`
	Categories []CategoryCoverage `json:"categories"`

	TestsTotal        int     `json:"tests_total"`
	TestsDocumented   int     `json:"tests_documented"`
	TestDocumentation float64 `json:"test_documentation"`

	// DirectlyAffected lists tests referencing a Modified or Removed
	// requirement. NeedingTests lists Added requirements with no mapped
	// test. PotentiallyObsolete lists tests whose entire reference set
	// was removed from the latest version.
	DirectlyAffected    []string `json:"directly_affected_tests"`
	NeedingTests        []string `json:"new_requirements_needing_tests"`
	PotentiallyObsolete []string `json:"potentially_obsolete_tests"`

	Status Status `json:"status"`
}

// WarningKind identifies a recoverable anomaly recorded during a run.
type WarningKind string

// Warning kinds.
const (
	WarnDanglingReference WarningKind = "dangling_reference"
	WarnEmptySpec         WarningKind = "empty_spec"
)

// Warning is a recoverable anomaly attached to the analysis result,
// listed separately from the numeric summary.
type Warning struct {
	Kind          WarningKind `json:"kind"`
	Message       string      `json:"message"`
	TestID        string      `json:"test_id,omitempty"`
	RequirementID string      `json:"requirement_id,omitempty"`
	Version       string      `json:"version,omitempty"`
}

// VersionInfo is the identifying metadata of an extracted spec version.
type VersionInfo struct {
	Label        string `json:"label"`
	Source       string `json:"source"`
	Checksum     string `json:"checksum"`
	Requirements int    `json:"requirements"`
}

// Info returns the version's metadata summary.
func (v *SpecVersion) Info() VersionInfo {
	return VersionInfo{
		Label:        v.Label,
		Source:       v.Source,
		Checksum:     v.Checksum,
		Requirements: len(v.Requirements),
	}
}

// RequirementStatus pairs a requirement of the latest version with the
// tests that reference it.
type RequirementStatus struct {
	Requirement
	Tests []string `json:"tests"`
}

// Covered reports whether at least one test references the requirement.
func (r RequirementStatus) Covered() bool {
	return len(r.Tests) > 0
}

// AnalysisResult is the full structured output of one pipeline run: the
// input contract of any report renderer. It is a pure function of the two
// spec documents and the manifest snapshot; timestamps are attached by
// callers (the archive layer), never here.
type AnalysisResult struct {
	Baseline VersionInfo `json:"baseline"`
	Latest   VersionInfo `json:"latest"`

	Requirements []RequirementStatus `json:"requirements"`
	Tests        []Test              `json:"tests"`

	Changes []ChangeRecord `json:"changes"`
	Summary ChangeSummary  `json:"change_summary"`

	Report   CoverageReport `json:"report"`
	Warnings []Warning      `json:"warnings,omitempty"`
}
