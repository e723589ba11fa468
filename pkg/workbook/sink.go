package workbook

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/tradeunity/salesintel/pkg/models"
)

// Sink writes the workbooks of one run somewhere.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string
	// Write stores every workbook of the run.
	Write(ctx context.Context, run *models.ReportRun, books []*Workbook) error
	// Close releases the sink's resources.
	Close() error
}

// invalidSheetChars are rejected by spreadsheet applications in sheet names.
var invalidSheetChars = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

// SheetName makes name valid as a spreadsheet sheet name: invalid characters
// are replaced and the result is cut to MaxSheetName runes. If the cut
// name is already in used a numeric suffix keeps it unique. used is updated.
func SheetName(name string, used map[string]bool) string {
	base := truncateRunes(invalidSheetChars.Replace(name), MaxSheetName)
	if base == "" {
		base = "Sheet"
	}
	candidate := base
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		candidate = truncateRunes(base, MaxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// ensureDir creates the output directory when missing.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}
