package workbook

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/retry"
)

type sqliteSink struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteSink writes every sheet as its own table, replacing the table of
// the previous run, and appends the run to a report_runs table. The sink owns
// db and closes it.
func NewSQLiteSink(db *sql.DB, logger *zap.Logger) Sink {
	return &sqliteSink{db: db, logger: logger.Named("sqlite")}
}

func (s *sqliteSink) Name() string { return "sqlite" }

func (s *sqliteSink) Write(ctx context.Context, run *models.ReportRun, books []*Workbook) error {
	counts := make(map[string]int)
	for _, book := range books {
		for _, sheet := range book.Sheets {
			table := TableName(book.Name, sheet.Name)
			err := retry.DoIfRetryable(ctx, nil, func() error {
				return s.writeTable(ctx, table, sheet)
			})
			if err != nil {
				return fmt.Errorf("failed to write table %s: %w", table, err)
			}
			counts[table] = len(sheet.Rows)
		}
	}

	if err := s.recordRun(ctx, run, counts); err != nil {
		return err
	}

	s.logger.Info("Wrote report tables", zap.Int("tables", len(counts)))
	return nil
}

func (s *sqliteSink) Close() error {
	return s.db.Close()
}

// writeTable replaces table with the rows of sheet inside one transaction.
func (s *sqliteSink) writeTable(ctx context.Context, table string, sheet *Sheet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	columns := ColumnNames(sheet.Columns)
	types := columnTypes(sheet)
	defs := make([]string, len(columns))
	quoted := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%q %s", c, types[i])
		quoted[i] = fmt.Sprintf("%q", c)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, table, strings.Join(defs, ", "))); err != nil {
		return err
	}

	placeholders := strings.TrimRight(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
		table, strings.Join(quoted, ", "), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range sheet.Rows {
		args := make([]any, len(columns))
		for i := range args {
			if i < len(row) {
				args[i] = Value(row[i])
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *sqliteSink) recordRun(ctx context.Context, run *models.ReportRun, counts map[string]int) error {
	if run == nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS report_runs (
		id TEXT PRIMARY KEY,
		version TEXT NOT NULL,
		reference_date TEXT NOT NULL,
		reports TEXT NOT NULL,
		table_row_counts TEXT NOT NULL,
		started_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create report_runs table: %w", err)
	}

	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("failed to encode row counts: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO report_runs (id, version, reference_date, reports, table_row_counts, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Version, run.ReferenceDate.Format("2006-01-02"),
		strings.Join(run.Reports, ","), string(countsJSON), run.StartedAt.UTC().Format("2006-01-02T15:04:05Z"))
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// columnTypes picks an SQLite type per column from the first known value.
func columnTypes(sheet *Sheet) []string {
	types := make([]string, len(sheet.Columns))
	for i := range types {
		types[i] = "TEXT"
	rows:
		for _, row := range sheet.Rows {
			if i >= len(row) {
				continue
			}
			switch Value(row[i]).(type) {
			case nil:
				continue
			case float64:
				types[i] = "REAL"
			case int, int64:
				types[i] = "INTEGER"
			}
			break rows
		}
	}
	return types
}

var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Identifier folds a display name into a lower-case ASCII identifier:
// accents are dropped and every other non-alphanumeric run becomes "_".
func Identifier(name string) string {
	folded, _, err := transform.String(asciiFold, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// TableName is the SQL table holding one sheet of one workbook.
func TableName(book, sheet string) string {
	return Identifier(book) + "__" + Identifier(sheet)
}

// ColumnNames folds headers into unique SQL column names.
func ColumnNames(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]int)
	for i, h := range headers {
		name := Identifier(h)
		if name == "" {
			name = fmt.Sprintf("col_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}
