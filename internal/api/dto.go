package api

import (
	"github.com/kabir/a2a-tck/internal/archive"
	"github.com/kabir/a2a-tck/internal/models"
)

// ChangesResponse wraps the change list with its summary counts.
type ChangesResponse struct {
	Changes []models.ChangeRecord `json:"changes"`
	Summary models.ChangeSummary  `json:"summary"`
}

// RequirementsResponse wraps a filtered requirement listing.
type RequirementsResponse struct {
	Requirements []models.RequirementStatus `json:"requirements"`
	Total        int                        `json:"total"`
}

// TestsResponse wraps a test listing.
type TestsResponse struct {
	Tests []models.Test `json:"tests"`
	Total int           `json:"total"`
}

// SearchResponse wraps archived-requirement search results.
type SearchResponse struct {
	Results []archive.RequirementRow `json:"results"`
}

// RunListResponse wraps the run history listing.
type RunListResponse struct {
	Runs []archive.RunRow `json:"runs"`
}
