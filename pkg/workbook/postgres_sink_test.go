package workbook

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/repositories"
)

type copyCall struct {
	workbook, sheet string
	rows            []repositories.SheetRow
}

type fakeSheetRows struct {
	calls []copyCall
	err   error
}

func (f *fakeSheetRows) CopyRows(_ context.Context, _ uuid.UUID, workbook, sheet string, rows []repositories.SheetRow) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.calls = append(f.calls, copyCall{workbook: workbook, sheet: sheet, rows: rows})
	return int64(len(rows)), nil
}

func (f *fakeSheetRows) CountRows(context.Context, uuid.UUID, string, string) (int, error) {
	return 0, nil
}

func TestPostgresSink_Write(t *testing.T) {
	repo := &fakeSheetRows{}
	closed := false
	sink := NewPostgresSink(repo, func() { closed = true }, zap.NewNop())

	book := New("Libro", "customers")
	sheet := book.AddSheet("01", "SKU", "Total", "Sano")
	sheet.AddRow("SKU-1", decimal.RequireFromString("1.005"), true)
	sheet.AddRow("SKU-2", decimal.NullDecimal{}, false)

	require.NoError(t, sink.Write(context.Background(), &models.ReportRun{ID: uuid.New()}, []*Workbook{book}))

	require.Len(t, repo.calls, 1)
	call := repo.calls[0]
	assert.Equal(t, "Libro", call.workbook)
	assert.Equal(t, "01", call.sheet)
	require.Len(t, call.rows, 2)
	assert.Equal(t, 1, call.rows[0].Number)
	assert.Equal(t, map[string]any{"SKU": "SKU-1", "Total": 1.01, "Sano": "Sí"}, call.rows[0].Data)
	assert.Nil(t, call.rows[1].Data["Total"])

	require.NoError(t, sink.Close())
	assert.True(t, closed)
}

func TestPostgresSink_Errors(t *testing.T) {
	book := New("Libro", "customers")
	book.AddSheet("01", "SKU").AddRow("SKU-1")

	err := NewPostgresSink(&fakeSheetRows{}, nil, zap.NewNop()).Write(context.Background(), nil, []*Workbook{book})
	assert.Error(t, err)

	boom := errors.New("permission denied for table report_sheet_rows")
	err = NewPostgresSink(&fakeSheetRows{err: boom}, nil, zap.NewNop()).
		Write(context.Background(), &models.ReportRun{ID: uuid.New()}, []*Workbook{book})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "Libro/01")
}
