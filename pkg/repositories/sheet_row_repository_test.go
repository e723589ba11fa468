//go:build integration

package repositories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/testhelpers"
)

func TestSheetRowRepository_CopyAndCount(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	t.Cleanup(func() {
		_, _ = testDB.DB.Exec(context.Background(), "DELETE FROM report_runs")
	})
	ctx := context.Background()

	runs := NewReportRunRepository(testDB.DB)
	run := &models.ReportRun{
		Version:       "test",
		ReferenceDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Reports:       []string{"customers"},
	}
	require.NoError(t, runs.Create(ctx, run))

	repo := NewSheetRowRepository(testDB.DB)
	n, err := repo.CopyRows(ctx, run.ID, "Clientes", "01_TOP", []SheetRow{
		{Number: 1, Data: map[string]any{"Email": "a@x.com", "LTV": 10.5}},
		{Number: 2, Data: map[string]any{"Email": "b@x.com", "LTV": nil}},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err := repo.CountRows(ctx, run.ID, "Clientes", "01_TOP")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountRows(ctx, run.ID, "Clientes", "02_Otro")
	require.NoError(t, err)
	assert.Zero(t, count)

	var raw []byte
	require.NoError(t, testDB.DB.QueryRow(ctx,
		`SELECT data FROM report_sheet_rows WHERE run_id = $1 AND row_number = 1`, run.ID).Scan(&raw))
	var data map[string]any
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Equal(t, "a@x.com", data["Email"])

	// Rows go away with their run.
	_, err = runs.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	count, err = repo.CountRows(ctx, run.ID, "Clientes", "01_TOP")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSheetRowRepository_EmptyCopy(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := NewSheetRowRepository(testDB.DB)

	n, err := repo.CopyRows(context.Background(), uuid.Nil, "x", "y", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
