// Package models defines the domain types for the TCK coverage analyzer.
package models

// Level is the normative obligation level of a requirement, following
// RFC 2119 keyword conventions.
type Level string

// Normative levels, strongest obligation first.
const (
	LevelMust        Level = "MUST"
	LevelMustNot     Level = "MUST_NOT"
	LevelRequired    Level = "REQUIRED"
	LevelShould      Level = "SHOULD"
	LevelShouldNot   Level = "SHOULD_NOT"
	LevelRecommended Level = "RECOMMENDED"
	LevelMay         Level = "MAY"
)

// Levels lists all normative levels in obligation-strength order. Report
// sections iterate this slice so output ordering is deterministic.
var Levels = []Level{
	LevelMust,
	LevelMustNot,
	LevelRequired,
	LevelShould,
	LevelShouldNot,
	LevelRecommended,
	LevelMay,
}

// levelByKeyword maps the exact keyword text found in a document to its level.
var levelByKeyword = map[string]Level{
	"MUST":        LevelMust,
	"MUST NOT":    LevelMustNot,
	"REQUIRED":    LevelRequired,
	"SHOULD":      LevelShould,
	"SHOULD NOT":  LevelShouldNot,
	"RECOMMENDED": LevelRecommended,
	"MAY":         LevelMay,
}

// LevelFromKeyword returns the level for a matched keyword. The mapping is
// case-sensitive: lowercase "must" is prose, not a requirement.
func LevelFromKeyword(keyword string) (Level, bool) {
	l, ok := levelByKeyword[keyword]
	return l, ok
}

// Mandatory reports whether the level denotes an absolute obligation.
// Uncovered mandatory requirements escalate report status harder than
// uncovered optional ones.
func (l Level) Mandatory() bool {
	switch l {
	case LevelMust, LevelMustNot, LevelRequired:
		return true
	default:
		return false
	}
}

// Requirement is a single normative statement extracted from a specification.
//
// The identifier is structural (section path plus ordinal within that
// section), so an unchanged location with modified text keeps its identity
// across revisions and diffs as Modified rather than as an Add+Remove pair.
type Requirement struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Level       Level  `json:"level"`
	Section     string `json:"section"`
	Category    string `json:"category"`
}

// SpecVersion is an immutable snapshot of one specification revision:
// its requirements in document order plus identifying metadata.
type SpecVersion struct {
	Label        string        `json:"label"`
	Source       string        `json:"source"`
	Checksum     string        `json:"checksum"`
	Requirements []Requirement `json:"requirements"`
}

// IDSet returns the set of requirement identifiers in this version.
func (v *SpecVersion) IDSet() map[string]struct{} {
	out := make(map[string]struct{}, len(v.Requirements))
	for _, r := range v.Requirements {
		out[r.ID] = struct{}{}
	}
	return out
}

// ByID returns requirements keyed by identifier.
func (v *SpecVersion) ByID() map[string]Requirement {
	out := make(map[string]Requirement, len(v.Requirements))
	for _, r := range v.Requirements {
		out[r.ID] = r
	}
	return out
}

// ChangeType classifies how a requirement moved between two spec versions.
type ChangeType string

// Change classifications.
const (
	ChangeAdded     ChangeType = "added"
	ChangeRemoved   ChangeType = "removed"
	ChangeModified  ChangeType = "modified"
	ChangeUnchanged ChangeType = "unchanged"
)

// ChangeRecord relates the baseline and latest state of one requirement
// identifier. Old is nil for Added, New is nil for Removed; Modified and
// Unchanged carry both.
type ChangeRecord struct {
	ID   string       `json:"id"`
	Type ChangeType   `json:"type"`
	Old  *Requirement `json:"old,omitempty"`
	New  *Requirement `json:"new,omitempty"`
}

// ChangeSummary counts change records by type.
type ChangeSummary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`
}

// Total returns the number of records summarized.
func (s ChangeSummary) Total() int {
	return s.Added + s.Removed + s.Modified + s.Unchanged
}

// Test is one entry of the test-suite manifest: a test identifier, its
// category label, and the ordered requirement identifiers it claims to
// validate.
type Test struct {
	ID           string   `yaml:"id" json:"id"`
	Category     string   `yaml:"category" json:"category"`
	Requirements []string `yaml:"requirements" json:"requirements"`
}

// Documented reports whether the test declares at least one requirement
// reference. Tests with none are "undocumented" and drag down the
// test-documentation percentage.
func (t Test) Documented() bool {
	return len(t.Requirements) > 0
}
