package history

import (
	"database/sql"
	"fmt"
	"time"

	"sentinel-go/internal/history/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Run outcomes.
const (
	OutcomeVerified    = "verified"
	OutcomeNeedsReview = "needs_review"
	OutcomeUnchanged   = "unchanged"
	OutcomeAborted     = "aborted"
	OutcomeError       = "error"
)

// Run is one verification session's provenance row. Informational only; the
// trust record lives in the per-model metadata documents.
type Run struct {
	ID            int64
	RunID         string
	StartedAt     time.Time
	ToolVersion   string
	TargetKey     string
	Outcome       string
	FilesTotal    int
	FilesApproved int
	FilesRejected int
}

// RunLog records and lists verification runs.
type RunLog interface {
	// Record appends a run. The row ID is filled in on return.
	Record(run *Run) error

	// Recent returns the most recent runs, newest first.
	Recent(limit int) ([]*Run, error)

	// Close closes the underlying database.
	Close() error
}

// SQLiteRunLog implements RunLog using SQLite.
type SQLiteRunLog struct {
	db *sql.DB
}

// NewSQLiteRunLog opens (and migrates) a run log database.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteRunLog(path string) (*SQLiteRunLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history database: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating run history database: %w", err)
	}

	return &SQLiteRunLog{db: db}, nil
}

var _ RunLog = (*SQLiteRunLog)(nil)

func (l *SQLiteRunLog) Record(run *Run) error {
	res, err := l.db.Exec(`
		INSERT INTO runs (run_id, started_at, tool_version, target_key, outcome, files_total, files_approved, files_rejected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.ToolVersion,
		run.TargetKey,
		run.Outcome,
		run.FilesTotal,
		run.FilesApproved,
		run.FilesRejected,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	run.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run ID: %w", err)
	}
	return nil
}

func (l *SQLiteRunLog) Recent(limit int) ([]*Run, error) {
	rows, err := l.db.Query(`
		SELECT id, run_id, started_at, tool_version, target_key, outcome, files_total, files_approved, files_rejected
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var startedAt string
		if err := rows.Scan(&r.ID, &r.RunID, &startedAt, &r.ToolVersion, &r.TargetKey, &r.Outcome,
			&r.FilesTotal, &r.FilesApproved, &r.FilesRejected); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing run timestamp %q: %w", startedAt, err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

func (l *SQLiteRunLog) Close() error {
	return l.db.Close()
}
