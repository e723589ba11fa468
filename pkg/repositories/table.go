package repositories

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/tradeunity/salesintel/pkg/apperrors"
	"github.com/tradeunity/salesintel/pkg/parse"
)

// Table is a CSV file read fully into memory with a normalized header index.
type Table struct {
	Path    string
	Columns []string
	Rows    []Row

	index map[string]int
}

// Row is one data record of a Table. Line is the 1-based line number in the
// source file, counting the header.
type Row struct {
	Line   int
	fields []string
	index  map[string]int
}

// ReadTable opens path and reads it as a CSV table. A missing file is
// reported as apperrors.ErrMissingFile. Every name in required must be
// present in the header or apperrors.ErrMissingColumn is returned.
func ReadTable(path string, required ...string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingFile, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := readTable(f, required...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

// readTable decodes UTF-8 with or without a byte order mark.
func readTable(r io.Reader, required ...string) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file has no header", apperrors.ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &Table{
		Columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		name := parse.Text(h)
		t.Columns[i] = name
		key := headerKey(name)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}

	var missing []string
	for _, col := range required {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingColumn, strings.Join(missing, ", "))
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if blankRecord(rec) {
			continue
		}
		t.Rows = append(t.Rows, Row{Line: line, fields: rec, index: t.index})
	}

	return t, nil
}

// Has reports whether the header contains col.
func (t *Table) Has(col string) bool {
	_, ok := t.index[headerKey(col)]
	return ok
}

// Get returns the trimmed value of the first listed column that is present
// and non-blank. Later names act as fallbacks for renamed export columns.
func (r Row) Get(cols ...string) string {
	for _, col := range cols {
		i, ok := r.index[headerKey(col)]
		if !ok || i >= len(r.fields) {
			continue
		}
		if v := parse.Text(r.fields[i]); v != "" && !strings.EqualFold(v, "nan") {
			return v
		}
	}
	return ""
}

// headerKey folds a column name for lookup. Spreadsheet exports are
// inconsistent about case and the dash used in price headers.
func headerKey(name string) string {
	name = strings.NewReplacer("–", "-", "—", "-").Replace(parse.Text(name))
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
