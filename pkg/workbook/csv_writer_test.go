package workbook

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBooks() []*Workbook {
	enriched := New("ventas_historicas", "enriched_sales")
	enriched.CSVOnly = true
	rows := enriched.AddSheet("ventas", "SKU", "Total", "Nota")
	rows.AddRow("SKU-1", decimal.RequireFromString("10.555"), nil)
	rows.AddRow("SKU-2", decimal.RequireFromString("3"), `dice "hola", chau`)

	report := New("Libro Clientes", "customers")
	report.AddSheet("01_Resumen", "Métrica", "Valor").AddRow("Clientes", 2)
	report.AddSheet("02_Detalle", "Email", "Sano").AddRow("a@x.com", true)

	return []*Workbook{enriched, report}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testBooks()[0].Sheets[0]))

	assert.Equal(t, "\ufeffSKU,Total,Nota\nSKU-1,10.56,\nSKU-2,3,\"dice \"\"hola\"\", chau\"\n", buf.String())
}

func TestCSVSink_Write(t *testing.T) {
	t.Run("csv-only workbooks", func(t *testing.T) {
		dir := t.TempDir()
		sink := NewCSVSink(dir, false, zap.NewNop())
		require.NoError(t, sink.Write(context.Background(), nil, testBooks()))

		assert.FileExists(t, filepath.Join(dir, "ventas_historicas.csv"))
		assert.NoDirExists(t, filepath.Join(dir, "Libro Clientes"))
	})

	t.Run("every workbook", func(t *testing.T) {
		dir := t.TempDir()
		sink := NewCSVSink(dir, true, zap.NewNop())
		require.NoError(t, sink.Write(context.Background(), nil, testBooks()))

		data, err := os.ReadFile(filepath.Join(dir, "Libro Clientes", "02_Detalle.csv"))
		require.NoError(t, err)
		assert.Equal(t, "\ufeffEmail,Sano\na@x.com,Sí\n", string(data))
		assert.FileExists(t, filepath.Join(dir, "Libro Clientes", "01_Resumen.csv"))
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewCSVSink(t.TempDir(), true, zap.NewNop()).Write(ctx, nil, testBooks())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
