// Package archive provides a SQLite-backed, append-only store of completed
// analysis runs. The engine itself stays pure; the archive timestamps rows
// with the instant the caller hands it a result.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kabir/a2a-tck/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at     DATETIME NOT NULL,
	baseline_label TEXT NOT NULL DEFAULT '',
	latest_label   TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT '',
	coverage       REAL NOT NULL DEFAULT 0,
	test_docs      REAL NOT NULL DEFAULT 0,
	added          INTEGER NOT NULL DEFAULT 0,
	removed        INTEGER NOT NULL DEFAULT 0,
	modified       INTEGER NOT NULL DEFAULT 0,
	unchanged      INTEGER NOT NULL DEFAULT 0,
	result         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS requirements (
	run_id      INTEGER NOT NULL,
	req_id      TEXT NOT NULL,
	level       TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	section     TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	covered     INTEGER NOT NULL DEFAULT 0,
	UNIQUE(run_id, req_id)
);

CREATE INDEX IF NOT EXISTS idx_requirements_run ON requirements(run_id);
`

// Store defines the archive operations. Consumers should depend on this
// interface rather than the concrete *DB type to facilitate testing.
type Store interface {
	SaveRun(res *models.AnalysisResult, at time.Time) (int64, error)
	ListRuns(limit int) ([]RunRow, error)
	GetRun(id int64) (*models.AnalysisResult, error)
	LatestRunID() (int64, error)
	SearchRequirements(runID int64, query string, limit int) ([]RequirementRow, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// DB wraps a sql.DB with archive-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("archive: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
