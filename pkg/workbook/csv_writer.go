package workbook

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/models"
)

// utf8BOM lets spreadsheet applications detect the encoding.
const utf8BOM = "\ufeff"

type csvSink struct {
	dir      string
	allBooks bool
	logger   *zap.Logger
}

// NewCSVSink writes CSV-only workbooks as <dir>/<name>.csv. With allBooks
// set, every sheet of the other workbooks is also written as
// <dir>/<workbook>/<sheet>.csv.
func NewCSVSink(dir string, allBooks bool, logger *zap.Logger) Sink {
	return &csvSink{dir: dir, allBooks: allBooks, logger: logger.Named("csv")}
}

func (s *csvSink) Name() string { return "csv" }

func (s *csvSink) Write(ctx context.Context, _ *models.ReportRun, books []*Workbook) error {
	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch {
		case book.CSVOnly:
			if err := ensureDir(s.dir); err != nil {
				return err
			}
			for _, sheet := range book.Sheets {
				path := filepath.Join(s.dir, book.Name+".csv")
				if err := WriteCSVFile(path, sheet); err != nil {
					return err
				}
				s.logger.Info("Wrote CSV", zap.String("path", path), zap.Int("rows", len(sheet.Rows)))
			}
		case s.allBooks:
			dir := filepath.Join(s.dir, book.Name)
			if err := ensureDir(dir); err != nil {
				return err
			}
			for _, sheet := range book.Sheets {
				path := filepath.Join(dir, sheet.Name+".csv")
				if err := WriteCSVFile(path, sheet); err != nil {
					return err
				}
			}
			s.logger.Info("Wrote workbook as CSV", zap.String("dir", dir), zap.Int("sheets", len(book.Sheets)))
		}
	}
	return nil
}

func (s *csvSink) Close() error { return nil }

// WriteCSVFile writes sheet to path as UTF-8 CSV with a BOM.
func WriteCSVFile(path string, sheet *Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, sheet); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes the BOM, the header and every row of sheet to w.
func WriteCSV(w io.Writer, sheet *Sheet) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(bw)
	if err := cw.Write(sheet.Columns); err != nil {
		return err
	}
	record := make([]string, len(sheet.Columns))
	for _, row := range sheet.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = Text(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
