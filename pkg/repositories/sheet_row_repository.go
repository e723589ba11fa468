package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tradeunity/salesintel/pkg/database"
)

// SheetRow is one emitted report row, keyed by its position in the sheet.
type SheetRow struct {
	Number int
	Data   map[string]any
}

// SheetRowRepository stores report rows in the run registry.
type SheetRowRepository interface {
	// CopyRows bulk-loads the rows of one sheet of a run. It returns the
	// number of rows written.
	CopyRows(ctx context.Context, runID uuid.UUID, workbook, sheet string, rows []SheetRow) (int64, error)

	// CountRows returns how many rows a run stored for one sheet.
	CountRows(ctx context.Context, runID uuid.UUID, workbook, sheet string) (int, error)
}

type sheetRowRepository struct {
	db *database.DB
}

// NewSheetRowRepository creates a new sheet row repository.
func NewSheetRowRepository(db *database.DB) SheetRowRepository {
	return &sheetRowRepository{db: db}
}

var sheetRowColumns = []string{"run_id", "workbook", "sheet", "row_number", "data"}

func (r *sheetRowRepository) CopyRows(ctx context.Context, runID uuid.UUID, workbook, sheet string, rows []SheetRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	values := make([][]any, len(rows))
	for i, row := range rows {
		data, err := json.Marshal(row.Data)
		if err != nil {
			return 0, fmt.Errorf("failed to encode row %d: %w", row.Number, err)
		}
		values[i] = []any{runID, workbook, sheet, row.Number, data}
	}

	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"report_sheet_rows"},
		sheetRowColumns,
		pgx.CopyFromRows(values))
	if err != nil {
		return n, fmt.Errorf("failed to copy sheet rows: %w", err)
	}

	return n, nil
}

func (r *sheetRowRepository) CountRows(ctx context.Context, runID uuid.UUID, workbook, sheet string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM report_sheet_rows
		WHERE run_id = $1 AND workbook = $2 AND sheet = $3`

	var n int
	if err := r.db.QueryRow(ctx, query, runID, workbook, sheet).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sheet rows: %w", err)
	}
	return n, nil
}
