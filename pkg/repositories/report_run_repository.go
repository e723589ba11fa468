package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tradeunity/salesintel/pkg/apperrors"
	"github.com/tradeunity/salesintel/pkg/database"
	"github.com/tradeunity/salesintel/pkg/models"
)

// ReportRunRepository defines the interface for the run registry.
type ReportRunRepository interface {
	// Create inserts a new run in the running state.
	Create(ctx context.Context, run *models.ReportRun) error

	// Finish stores the final status, counters and error of a run.
	Finish(ctx context.Context, run *models.ReportRun) error

	// Get returns a run by ID, or apperrors.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*models.ReportRun, error)

	// List returns the most recent runs first.
	List(ctx context.Context, limit int) ([]*models.ReportRun, error)

	// DeleteOlderThan removes runs started before cutoff together with
	// their sheet rows, returning the number of runs removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// reportRunRepository implements ReportRunRepository using PostgreSQL.
type reportRunRepository struct {
	db *database.DB
}

// NewReportRunRepository creates a new report run repository.
func NewReportRunRepository(db *database.DB) ReportRunRepository {
	return &reportRunRepository{db: db}
}

// Create inserts a new run in the running state.
func (r *reportRunRepository) Create(ctx context.Context, run *models.ReportRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.Status = models.RunStatusRunning
	run.StartedAt = time.Now().UTC()
	if run.Reports == nil {
		run.Reports = []string{}
	}

	query := `
		INSERT INTO report_runs (id, version, reference_date, reports, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		run.ID, run.Version, run.ReferenceDate, run.Reports, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create report run: %w", err)
	}

	return nil
}

// Finish stores the final status, counters and error of a run.
func (r *reportRunRepository) Finish(ctx context.Context, run *models.ReportRun) error {
	now := time.Now().UTC()
	run.FinishedAt = &now

	counts := run.SheetRowCounts
	if counts == nil {
		counts = map[string]int{}
	}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("failed to marshal sheet row counts: %w", err)
	}

	query := `
		UPDATE report_runs
		SET status = $2, sales_lines = $3, unmatched_skus = $4,
		    sheet_row_counts = $5, error = $6, finished_at = $7
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		run.ID, run.Status, run.SalesLines, run.UnmatchedSKUs, countsJSON, run.Error, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to finish report run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report run %s: %w", run.ID, apperrors.ErrNotFound)
	}

	return nil
}

// Get returns a run by ID.
func (r *reportRunRepository) Get(ctx context.Context, id uuid.UUID) (*models.ReportRun, error) {
	query := `
		SELECT id, version, reference_date, reports, status, sales_lines, unmatched_skus,
		       sheet_row_counts, error, started_at, finished_at
		FROM report_runs
		WHERE id = $1`

	run, err := scanReportRun(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("report run %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get report run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first.
func (r *reportRunRepository) List(ctx context.Context, limit int) ([]*models.ReportRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, version, reference_date, reports, status, sales_lines, unmatched_skus,
		       sheet_row_counts, error, started_at, finished_at
		FROM report_runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list report runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ReportRun
	for rows.Next() {
		run, err := scanReportRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report runs: %w", err)
	}

	return runs, nil
}

// DeleteOlderThan removes runs started before cutoff.
func (r *reportRunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM report_runs WHERE started_at < $1`

	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete report runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanReportRun(row pgx.Row) (*models.ReportRun, error) {
	var run models.ReportRun
	var countsJSON []byte
	if err := row.Scan(
		&run.ID, &run.Version, &run.ReferenceDate, &run.Reports, &run.Status,
		&run.SalesLines, &run.UnmatchedSKUs, &countsJSON, &run.Error,
		&run.StartedAt, &run.FinishedAt,
	); err != nil {
		return nil, err
	}

	if len(countsJSON) > 0 {
		if err := json.Unmarshal(countsJSON, &run.SheetRowCounts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sheet row counts: %w", err)
		}
	}
	return &run, nil
}
