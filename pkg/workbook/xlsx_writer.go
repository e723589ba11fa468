package workbook

import (
	"context"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/models"
)

// MaxColumnWidth caps the automatic column width, in characters.
const MaxColumnWidth = 50

// defaultSheet is the sheet every new excelize file starts with.
const defaultSheet = "Sheet1"

type xlsxSink struct {
	dir    string
	logger *zap.Logger
}

// NewXLSXSink writes one .xlsx file per workbook into dir.
func NewXLSXSink(dir string, logger *zap.Logger) Sink {
	return &xlsxSink{dir: dir, logger: logger.Named("xlsx")}
}

func (s *xlsxSink) Name() string { return "xlsx" }

func (s *xlsxSink) Write(ctx context.Context, _ *models.ReportRun, books []*Workbook) error {
	if err := ensureDir(s.dir); err != nil {
		return err
	}
	for _, book := range books {
		if book.CSVOnly {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(s.dir, book.Name+".xlsx")
		if err := WriteXLSX(path, book); err != nil {
			return err
		}
		s.logger.Info("Wrote workbook",
			zap.String("path", path),
			zap.Int("sheets", len(book.Sheets)))
	}
	return nil
}

func (s *xlsxSink) Close() error { return nil }

// WriteXLSX writes book to path. Columns are sized to their widest cell,
// capped at MaxColumnWidth.
func WriteXLSX(path string, book *Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool)
	for i, sheet := range book.Sheets {
		name := SheetName(sheet.Name, used)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("failed to rename sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, sheet); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", name, err)
		}
	}
	if len(book.Sheets) > 0 {
		f.SetActiveSheet(0)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// writeSheet streams the header and rows of sheet into the named sheet.
func writeSheet(f *excelize.File, name string, sheet *Sheet) error {
	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return err
	}

	// Widths must be set before the first row is streamed.
	for col, width := range ColumnWidths(sheet) {
		if err := sw.SetColWidth(col+1, col+1, width); err != nil {
			return err
		}
	}

	header := make([]any, len(sheet.Columns))
	for i, c := range sheet.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = Value(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}

	return sw.Flush()
}

// ColumnWidths returns the width of every column: the longest rendered
// value or header plus two, capped at MaxColumnWidth.
func ColumnWidths(sheet *Sheet) []float64 {
	widths := make([]float64, len(sheet.Columns))
	for i, c := range sheet.Columns {
		widths[i] = float64(utf8.RuneCountInString(c))
	}
	for _, row := range sheet.Rows {
		for i, v := range row {
			if i >= len(widths) {
				break
			}
			if n := float64(utf8.RuneCountInString(Text(v))); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i]+2, MaxColumnWidth)
	}
	return widths
}
