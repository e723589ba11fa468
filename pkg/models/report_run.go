package models

import (
	"time"

	"github.com/google/uuid"
)

// Report run status values.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// ReportRun records one execution of the pipeline in the run registry.
type ReportRun struct {
	ID             uuid.UUID      `json:"id"`
	Version        string         `json:"version"`
	ReferenceDate  time.Time      `json:"reference_date"`
	Reports        []string       `json:"reports"`
	Status         string         `json:"status"`
	SalesLines     int            `json:"sales_lines"`
	UnmatchedSKUs  int            `json:"unmatched_skus"`
	SheetRowCounts map[string]int `json:"sheet_row_counts,omitempty"`
	Error          *string        `json:"error,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty"`
}
