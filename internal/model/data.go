package model

import "time"

// ExportResult represents the result of exporting one signal series
type ExportResult struct {
	Signal      string    `json:"signal"`
	Path        string    `json:"path"` // empty when skipped
	RecordCount int       `json:"record_count"`
	Skipped     bool      `json:"skipped"`
	ExportedAt  time.Time `json:"exported_at"`
}

// Unit statuses
const (
	UnitCompleted = "completed"
	UnitEmpty     = "empty" // no eligible files
	UnitFailed    = "failed"
)

// UnitResult summarizes the processing of one boat/day unit
type UnitResult struct {
	Boat           string        `json:"boat"`
	Day            string        `json:"day"`
	Files          int           `json:"files"`
	Lines          int           `json:"lines"`
	Records        int           `json:"records"`
	Malformed      int           `json:"malformed"`
	Dropped        int           `json:"dropped"`
	Points         int           `json:"points"`
	FilesWritten   int           `json:"files_written"`
	SignalsSkipped int           `json:"signals_skipped"`
	Attempts       int           `json:"attempts"`
	Status         string        `json:"status"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration"`
}
