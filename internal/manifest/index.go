package manifest

import (
	"fmt"
	"sort"

	"github.com/kabir/a2a-tck/internal/models"
)

// Index is the bidirectional requirement/test mapping built from a manifest
// snapshot. It is immutable once built; all returned slices are sorted so
// downstream output is deterministic.
type Index struct {
	tests         []models.Test
	byRequirement map[string][]string
	byTest        map[string][]string
}

// BuildIndex constructs the mapping from the manifest's test records.
func BuildIndex(tests []models.Test) *Index {
	ix := &Index{
		tests:         tests,
		byRequirement: make(map[string][]string),
		byTest:        make(map[string][]string, len(tests)),
	}
	for _, t := range tests {
		refs := make([]string, 0, len(t.Requirements))
		seen := make(map[string]struct{}, len(t.Requirements))
		for _, reqID := range t.Requirements {
			if _, dup := seen[reqID]; dup {
				continue
			}
			seen[reqID] = struct{}{}
			refs = append(refs, reqID)
			ix.byRequirement[reqID] = append(ix.byRequirement[reqID], t.ID)
		}
		ix.byTest[t.ID] = refs
	}
	for reqID := range ix.byRequirement {
		sort.Strings(ix.byRequirement[reqID])
	}
	return ix
}

// TestsFor returns the identifiers of tests referencing the requirement,
// sorted. The result is empty (never nil) for uncovered requirements.
func (ix *Index) TestsFor(reqID string) []string {
	ids := ix.byRequirement[reqID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// RequirementsOf returns the deduplicated requirement references of a test
// in their declared order, or nil if the test is unknown.
func (ix *Index) RequirementsOf(testID string) []string {
	return ix.byTest[testID]
}

// Dangling returns a warning for every test reference pointing at an
// identifier absent from the given set (the latest spec version). Dangling
// references are recoverable: they feed potential-obsolescence detection
// but never abort a run.
func (ix *Index) Dangling(known map[string]struct{}) []models.Warning {
	var out []models.Warning
	for _, t := range ix.tests {
		for _, reqID := range ix.byTest[t.ID] {
			if _, ok := known[reqID]; ok {
				continue
			}
			out = append(out, models.Warning{
				Kind:          models.WarnDanglingReference,
				Message:       fmt.Sprintf("test %q references unknown requirement %q", t.ID, reqID),
				TestID:        t.ID,
				RequirementID: reqID,
			})
		}
	}
	return out
}
