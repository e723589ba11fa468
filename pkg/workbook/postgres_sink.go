package workbook

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/repositories"
	"github.com/tradeunity/salesintel/pkg/retry"
)

type postgresSink struct {
	rows   repositories.SheetRowRepository
	closer func()
	logger *zap.Logger
}

// NewPostgresSink copies every sheet row of a run into the run registry.
// The run must already exist in report_runs. closer, when set, runs on Close.
func NewPostgresSink(rows repositories.SheetRowRepository, closer func(), logger *zap.Logger) Sink {
	return &postgresSink{rows: rows, closer: closer, logger: logger.Named("postgres")}
}

func (s *postgresSink) Name() string { return "postgres" }

func (s *postgresSink) Write(ctx context.Context, run *models.ReportRun, books []*Workbook) error {
	if run == nil {
		return fmt.Errorf("postgres sink needs a registered run")
	}

	var total int64
	for _, book := range books {
		for _, sheet := range book.Sheets {
			rows := make([]repositories.SheetRow, len(sheet.Rows))
			for i := range sheet.Rows {
				rows[i] = repositories.SheetRow{Number: i + 1, Data: jsonRecord(sheet, i)}
			}
			n, err := retry.DoWithResult(ctx, nil, func() (int64, error) {
				return s.rows.CopyRows(ctx, run.ID, book.Name, sheet.Name, rows)
			})
			if err != nil {
				return fmt.Errorf("failed to store %s/%s: %w", book.Name, sheet.Name, err)
			}
			total += n
		}
	}

	s.logger.Info("Stored report rows",
		zap.String("run_id", run.ID.String()),
		zap.Int64("rows", total))
	return nil
}

func (s *postgresSink) Close() error {
	if s.closer != nil {
		s.closer()
	}
	return nil
}

// jsonRecord renders row i with spreadsheet cell values so the stored JSON
// matches what the workbook shows.
func jsonRecord(sheet *Sheet, i int) map[string]any {
	out := sheet.Record(i)
	for col, v := range out {
		out[col] = Value(v)
	}
	return out
}
