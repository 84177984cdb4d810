// Package differ compares two extracted spec versions and classifies every
// requirement identifier as added, removed, modified, or unchanged.
package differ

import "github.com/kabir/a2a-tck/internal/models"

// Diff pairs requirements by identifier and returns one ChangeRecord per
// identifier in the union of both versions: latest-document order first,
// then removed identifiers in baseline order. Description comparison is
// exact text; fuzzy matching would mask real changes.
func Diff(baseline, latest *models.SpecVersion) []models.ChangeRecord {
	old := baseline.ByID()
	inLatest := latest.IDSet()

	records := make([]models.ChangeRecord, 0, len(latest.Requirements))
	for i := range latest.Requirements {
		newReq := latest.Requirements[i]
		oldReq, existed := old[newReq.ID]
		switch {
		case !existed:
			records = append(records, models.ChangeRecord{
				ID:   newReq.ID,
				Type: models.ChangeAdded,
				New:  &latest.Requirements[i],
			})
		case oldReq.Description != newReq.Description || oldReq.Level != newReq.Level:
			o := oldReq
			records = append(records, models.ChangeRecord{
				ID:   newReq.ID,
				Type: models.ChangeModified,
				Old:  &o,
				New:  &latest.Requirements[i],
			})
		default:
			o := oldReq
			records = append(records, models.ChangeRecord{
				ID:   newReq.ID,
				Type: models.ChangeUnchanged,
				Old:  &o,
				New:  &latest.Requirements[i],
			})
		}
	}

	for i := range baseline.Requirements {
		oldReq := baseline.Requirements[i]
		if _, ok := inLatest[oldReq.ID]; ok {
			continue
		}
		records = append(records, models.ChangeRecord{
			ID:   oldReq.ID,
			Type: models.ChangeRemoved,
			Old:  &baseline.Requirements[i],
		})
	}

	return records
}

// Summarize counts change records by type.
func Summarize(records []models.ChangeRecord) models.ChangeSummary {
	var s models.ChangeSummary
	for _, r := range records {
		switch r.Type {
		case models.ChangeAdded:
			s.Added++
		case models.ChangeRemoved:
			s.Removed++
		case models.ChangeModified:
			s.Modified++
		case models.ChangeUnchanged:
			s.Unchanged++
		}
	}
	return s
}
