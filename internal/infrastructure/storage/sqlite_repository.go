package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"LaborStats/internal/domain"
	"LaborStats/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  started_at  TEXT    NOT NULL,
  finished_at TEXT    NOT NULL,
  start_year  INTEGER NOT NULL,
  end_year    INTEGER NOT NULL,
  fetched     INTEGER NOT NULL,
  appended    INTEGER NOT NULL,
  watermark   TEXT    NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS run_series (
  run_id      INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  series_id   TEXT    NOT NULL,
  series_name TEXT    NOT NULL,
  records     INTEGER NOT NULL,
  error       TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_run_series_run ON run_series(run_id);
`

// Open connects to the SQLite run-history database and ensures the schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// SQLiteRepository persists collection run reports into SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.RunRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository wires a sql.DB implementation.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveRun inserts the run and its per-series outcomes in one transaction.
func (r *SQLiteRepository) SaveRun(ctx context.Context, report domain.RunReport) error {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	watermark := ""
	if !report.Watermark.IsZero() {
		watermark = report.Watermark.UTC().Format(time.RFC3339)
	}

	res, err := sq.Insert("runs").
		Columns("started_at", "finished_at", "start_year", "end_year", "fetched", "appended", "watermark").
		Values(
			report.StartedAt.UTC().Format(time.RFC3339),
			report.FinishedAt.UTC().Format(time.RFC3339),
			report.StartYear,
			report.EndYear,
			report.Fetched,
			report.Appended,
			watermark,
		).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	for _, outcome := range report.Outcomes {
		_, err := sq.Insert("run_series").
			Columns("run_id", "series_id", "series_name", "records", "error").
			Values(runID, outcome.Series.ID, outcome.Series.Name, outcome.Records, outcome.Error).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert outcome %s: %w", outcome.Series.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first, with outcomes.
func (r *SQLiteRepository) RecentRuns(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := sq.Select("id", "started_at", "finished_at", "start_year", "end_year", "fetched", "appended", "watermark").
		From("runs").
		OrderBy("id DESC").
		Limit(uint64(limit)).
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var (
		reports []domain.RunReport
		ids     []int64
	)
	for rows.Next() {
		var (
			id                  int64
			started, finished   string
			report              domain.RunReport
			watermark           string
		)
		err := rows.Scan(&id, &started, &finished, &report.StartYear, &report.EndYear,
			&report.Fetched, &report.Appended, &watermark)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if report.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		if report.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at %q: %w", finished, err)
		}
		if watermark != "" {
			if report.Watermark, err = time.Parse(time.RFC3339, watermark); err != nil {
				return nil, fmt.Errorf("parse watermark %q: %w", watermark, err)
			}
		}
		reports = append(reports, report)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runs iteration: %w", err)
	}

	for i, id := range ids {
		outcomes, err := r.outcomes(ctx, id)
		if err != nil {
			return nil, err
		}
		reports[i].Outcomes = outcomes
	}
	return reports, nil
}

func (r *SQLiteRepository) outcomes(ctx context.Context, runID int64) ([]domain.SeriesOutcome, error) {
	rows, err := sq.Select("series_id", "series_name", "records", "error").
		From("run_series").
		Where(sq.Eq{"run_id": runID}).
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []domain.SeriesOutcome
	for rows.Next() {
		var o domain.SeriesOutcome
		if err := rows.Scan(&o.Series.ID, &o.Series.Name, &o.Records, &o.Error); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
