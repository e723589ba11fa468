package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeunity/salesintel/pkg/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int {
	return &v
}

// assertDec compares a decimal at two decimal places.
func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

// assertNullDec compares a NullDecimal at two decimal places. An empty want
// expects an invalid value.
func assertNullDec(t *testing.T, want string, got decimal.NullDecimal, msgAndArgs ...any) {
	t.Helper()
	if want == "" {
		assert.False(t, got.Valid, msgAndArgs...)
		return
	}
	require.True(t, got.Valid, msgAndArgs...)
	assert.Equal(t, want, got.Decimal.StringFixed(2), msgAndArgs...)
}

// enrichedLine builds an already-enriched line for report and segmentation tests.
func enrichedLine(order, email, sku string, date time.Time, total string) *models.EnrichedLine {
	return &models.EnrichedLine{
		SalesLineItem: models.SalesLineItem{
			OrderID:          order,
			OrderDate:        date,
			Status:           models.StatusComplete,
			CustomerEmail:    email,
			SKU:              sku,
			Cases:            decimal.NewFromInt(1),
			LineTotal:        dec(total),
			LineTotalWithTax: dec(total),
		},
		UnitQuantity: decimal.NewFromInt(10),
	}
}
