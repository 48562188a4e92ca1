package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/battletally"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ battletally.ReportWriter = (*ReportStore)(nil)

// Run is a stored collection run.
type Run struct {
	ID          string
	RecordCount int
	CreatedAt   time.Time
}

// RunFilter selects stored runs, newest first.
type RunFilter struct {
	Limit  int
	Offset int
}

// ReportStore keeps the output tables of every run.
type ReportStore struct {
	db  *DB
	now func() time.Time
}

// NewReportStore creates a new ReportStore.
func NewReportStore(db *DB) *ReportStore {
	return &ReportStore{db: db, now: time.Now}
}

// WriteReport implements battletally.ReportWriter.
func (s *ReportStore) WriteReport(ctx context.Context, report *battletally.Report) error {
	_, err := s.SaveReport(ctx, report)
	return err
}

// SaveReport stores report as a new run in a single transaction.
func (s *ReportStore) SaveReport(ctx context.Context, report *battletally.Report) (*Run, error) {
	run := &Run{
		ID:          uuid.New().String(),
		RecordCount: len(report.Records),
		CreatedAt:   s.now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, record_count, created_at) VALUES (?, ?, ?)`,
		run.ID, run.RecordCount, run.CreatedAt.Format(timeLayout),
	); err != nil {
		return nil, err
	}

	for i, r := range report.Records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO records (run_id, position, title, group_name, outcome, result, source_url)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, i, r.Title, r.Group, string(r.Outcome), r.Result, r.SourceURL); err != nil {
			return nil, err
		}
	}

	for i, wc := range report.WinCounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO win_counts (run_id, position, group_name, wins) VALUES (?, ?, ?, ?)`,
			run.ID, i, wc.Group, wc.Wins,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return run, nil
}

// FindRuns returns stored runs, newest first.
func (s *ReportStore) FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	var query strings.Builder
	var args []any
	query.WriteString("SELECT id, record_count, created_at FROM runs ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &run.RecordCount, &createdAt); err != nil {
			return nil, err
		}
		if run.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// FindReport loads the tables stored for a run.
func (s *ReportStore) FindReport(ctx context.Context, runID string) (*battletally.Report, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs WHERE id = ?`, runID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, battletally.Errorf(battletally.ENOTFOUND, "run %q not found", runID)
	}
	if err != nil {
		return nil, err
	}

	report := &battletally.Report{}
	if report.Records, err = s.findRecords(ctx, runID); err != nil {
		return nil, err
	}
	if report.WinCounts, err = s.findWinCounts(ctx, runID); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ReportStore) findRecords(ctx context.Context, runID string) ([]*battletally.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, group_name, outcome, result, source_url
		FROM records
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*battletally.Record
	for rows.Next() {
		var r battletally.Record
		var outcome string
		if err := rows.Scan(&r.Title, &r.Group, &outcome, &r.Result, &r.SourceURL); err != nil {
			return nil, err
		}
		if r.Outcome, err = battletally.ParseOutcome(outcome); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (s *ReportStore) findWinCounts(ctx context.Context, runID string) ([]battletally.WinCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_name, wins FROM win_counts WHERE run_id = ? ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []battletally.WinCount
	for rows.Next() {
		var wc battletally.WinCount
		if err := rows.Scan(&wc.Group, &wc.Wins); err != nil {
			return nil, err
		}
		counts = append(counts, wc)
	}
	return counts, rows.Err()
}
