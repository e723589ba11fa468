// Package workbook holds the in-memory report model and the sinks that
// write it: XLSX, CSV, SQLite and Postgres.
package workbook

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeunity/salesintel/pkg/parse"
)

// MaxSheetName is the longest sheet name a spreadsheet accepts.
const MaxSheetName = 31

// Workbook is one report family: an ordered list of sheets.
type Workbook struct {
	// Name is the output file name without extension.
	Name string
	// Report is the report family that built the workbook.
	Report string
	// CSVOnly workbooks are written as a single CSV, never as XLSX.
	CSVOnly bool
	Sheets  []*Sheet
}

// Sheet is a rectangular table with a header row.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// New creates an empty workbook.
func New(name, report string) *Workbook {
	return &Workbook{Name: name, Report: report}
}

// AddSheet appends a sheet with the given header and returns it.
func (w *Workbook) AddSheet(name string, columns ...string) *Sheet {
	s := &Sheet{Name: name, Columns: columns}
	w.Sheets = append(w.Sheets, s)
	return s
}

// Sheet returns the sheet with the given name, or nil.
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// RowCounts returns the number of data rows per sheet.
func (w *Workbook) RowCounts() map[string]int {
	out := make(map[string]int, len(w.Sheets))
	for _, s := range w.Sheets {
		out[s.Name] = len(s.Rows)
	}
	return out
}

// AddRow appends a row. Missing trailing cells are left blank and extra
// cells are dropped so every row matches the header width.
func (s *Sheet) AddRow(values ...any) {
	row := make([]any, len(s.Columns))
	copy(row, values)
	s.Rows = append(s.Rows, row)
}

// Record returns row i as a column→value map.
func (s *Sheet) Record(i int) map[string]any {
	out := make(map[string]any, len(s.Columns))
	for j, col := range s.Columns {
		out[col] = s.Rows[i][j]
	}
	return out
}

// Decimal places used when money and percentages are rendered.
const decimalPlaces = 2

// Value converts a cell to the value a spreadsheet cell stores: numbers
// stay numeric, dates become DD/MM/YYYY HH:MM text, unknowns become nil.
func Value(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return x.Round(decimalPlaces).InexactFloat64()
	case decimal.NullDecimal:
		if !x.Valid {
			return nil
		}
		return x.Decimal.Round(decimalPlaces).InexactFloat64()
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return parse.FormatDate(x)
	case bool:
		return YesNo(x)
	default:
		return x
	}
}

// Text renders a cell as CSV text. Unknown values render blank.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.Round(decimalPlaces).String()
	case decimal.NullDecimal:
		if !x.Valid {
			return ""
		}
		return x.Decimal.Round(decimalPlaces).String()
	case *int:
		if x == nil {
			return ""
		}
		return fmt.Sprint(*x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return parse.FormatDate(x)
	case bool:
		return YesNo(x)
	default:
		return fmt.Sprint(x)
	}
}

// YesNo renders a flag the way the reports show it.
func YesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}
