package workbook

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheet_AddRow(t *testing.T) {
	book := New("Libro", "customers")
	sheet := book.AddSheet("01", "a", "b", "c")

	sheet.AddRow(1)
	sheet.AddRow(1, 2, 3, 4)

	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, []any{1, nil, nil}, sheet.Rows[0])
	assert.Equal(t, []any{1, 2, 3}, sheet.Rows[1])
	assert.Equal(t, map[string]any{"a": 1, "b": 2, "c": 3}, sheet.Record(1))
	assert.Equal(t, map[string]int{"01": 2}, book.RowCounts())
	assert.Same(t, sheet, book.Sheet("01"))
	assert.Nil(t, book.Sheet("missing"))
}

func TestValue(t *testing.T) {
	n := 7
	var nilInt *int
	when := time.Date(2025, 3, 9, 14, 5, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"decimal rounds to cents", decimal.RequireFromString("10.555"), 10.56},
		{"valid null decimal", decimal.NewNullDecimal(decimal.RequireFromString("1.2")), 1.2},
		{"invalid null decimal", decimal.NullDecimal{}, nil},
		{"int pointer", &n, 7},
		{"nil int pointer", nilInt, nil},
		{"date", when, "09/03/2025 14:05"},
		{"zero date", time.Time{}, nil},
		{"bool", true, "Sí"},
		{"string", "x", "x"},
		{"int", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Value(tt.in))
		})
	}
}

func TestText(t *testing.T) {
	n := 12
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "2.5", Text(decimal.RequireFromString("2.50")))
	assert.Equal(t, "", Text(decimal.NullDecimal{}))
	assert.Equal(t, "12", Text(&n))
	assert.Equal(t, "", Text(time.Time{}))
	assert.Equal(t, "No", Text(false))
	assert.Equal(t, "42", Text(42))
}

func TestSheetName(t *testing.T) {
	used := make(map[string]bool)

	assert.Equal(t, "Resumen_ 2024_2025", SheetName("Resumen: 2024/2025", used))
	assert.Equal(t, "Sheet", SheetName("", used))

	long := strings.Repeat("á", 40)
	first := SheetName(long, used)
	second := SheetName(long, used)
	assert.Equal(t, strings.Repeat("á", MaxSheetName), first)
	assert.Equal(t, strings.Repeat("á", MaxSheetName-2)+"~2", second)
	assert.Equal(t, MaxSheetName, len([]rune(second)))

	// Names compare case-insensitively.
	assert.Equal(t, "sheet~2", SheetName("sheet", used))
}

func TestIdentifiers(t *testing.T) {
	assert.Equal(t, "fecha_creacion", Identifier("Fecha Creación"))
	assert.Equal(t, "clientes", Identifier("%_Clientes"))
	assert.Equal(t, "volumen_total_m", Identifier("Volumen Total (m³)"))
	assert.Equal(t, "tradeunity_customer_intelligence__00_resumen_ejecutivo",
		TableName("TradeUnity Customer Intelligence", "00_Resumen_Ejecutivo"))
	assert.Equal(t, []string{"a_b", "a_b_2", "col_3", "n"}, ColumnNames([]string{"A b", "a-b", "", "Ñ"}))
}

func TestColumnWidths(t *testing.T) {
	sheet := &Sheet{Columns: []string{"SKU", "Nombre"}}
	sheet.AddRow("SKU-12345", strings.Repeat("x", 80))

	assert.Equal(t, []float64{11, MaxColumnWidth}, ColumnWidths(sheet))
}
