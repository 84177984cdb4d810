package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kabir/a2a-tck/internal/apperr"
	"github.com/kabir/a2a-tck/internal/models"
)

// RunRow is the summary row of one archived analysis run.
type RunRow struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	BaselineLabel string    `json:"baseline_label"`
	LatestLabel   string    `json:"latest_label"`
	Status        string    `json:"status"`
	Coverage      float64   `json:"coverage"`
	TestDocs      float64   `json:"test_docs"`
	Added         int       `json:"added"`
	Removed       int       `json:"removed"`
	Modified      int       `json:"modified"`
	Unchanged     int       `json:"unchanged"`
}

// RequirementRow is one archived requirement of a run.
type RequirementRow struct {
	RunID       int64  `json:"run_id"`
	ID          string `json:"id"`
	Level       string `json:"level"`
	Category    string `json:"category"`
	Section     string `json:"section"`
	Description string `json:"description"`
	Covered     bool   `json:"covered"`
}

// SaveRun archives a completed result within a transaction: the summary
// row, the serialized result, and one row per latest requirement. The
// timestamp is supplied by the caller, keeping the result itself clock-free.
func (db *DB) SaveRun(res *models.AnalysisResult, at time.Time) (int64, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return 0, fmt.Errorf("archive: marshal result: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("archive: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	r, err := tx.Exec(`
		INSERT INTO runs (created_at, baseline_label, latest_label, status,
			coverage, test_docs, added, removed, modified, unchanged, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, at, res.Baseline.Label, res.Latest.Label, string(res.Report.Status),
		res.Report.Overall.Percent, res.Report.TestDocumentation,
		res.Summary.Added, res.Summary.Removed, res.Summary.Modified, res.Summary.Unchanged,
		string(payload))
	if err != nil {
		return 0, fmt.Errorf("archive: insert run: %w", err)
	}
	runID, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("archive: run id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO requirements (run_id, req_id, level, category, section, description, covered)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("archive: prepare requirement insert: %w", err)
	}
	defer stmt.Close()
	for _, req := range res.Requirements {
		if _, err := stmt.Exec(runID, req.ID, string(req.Level), req.Category,
			req.Section, req.Description, req.Covered()); err != nil {
			return 0, fmt.Errorf("archive: insert requirement %s: %w", req.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("archive: commit: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, created_at, baseline_label, latest_label, status,
		       coverage, test_docs, added, removed, modified, unchanged
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.BaselineLabel, &r.LatestLabel, &r.Status,
			&r.Coverage, &r.TestDocs, &r.Added, &r.Removed, &r.Modified, &r.Unchanged); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns the full archived result of one run.
func (db *DB) GetRun(id int64) (*models.AnalysisResult, error) {
	var payload string
	err := db.conn.QueryRow(`SELECT result FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("archive: get run %d: %w", id, err)
	}
	var res models.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("archive: unmarshal run %d: %w", id, err)
	}
	return &res, nil
}

// LatestRunID returns the id of the newest archived run.
func (db *DB) LatestRunID() (int64, error) {
	var id int64
	err := db.conn.QueryRow(`SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("archive: latest run: %w", err)
	}
	return id, nil
}

// SearchRequirements performs a LIKE search over the archived requirements
// of one run (the latest when runID <= 0).
func (db *DB) SearchRequirements(runID int64, query string, limit int) ([]RequirementRow, error) {
	if runID <= 0 {
		latest, err := db.LatestRunID()
		if err != nil {
			return nil, err
		}
		runID = latest
	}
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT run_id, req_id, level, category, section, description, covered
		FROM requirements
		WHERE run_id = ? AND (req_id LIKE ? OR description LIKE ? OR section LIKE ?)
		ORDER BY req_id
		LIMIT ?
	`, runID, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: search requirements: %w", err)
	}
	defer rows.Close()

	var out []RequirementRow
	for rows.Next() {
		var r RequirementRow
		if err := rows.Scan(&r.RunID, &r.ID, &r.Level, &r.Category, &r.Section, &r.Description, &r.Covered); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
