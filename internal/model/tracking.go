package model

import "time"

// RunSummary is the outcome of one orchestrator run
type RunSummary struct {
	RunID      string       `json:"run_id"`
	InputRoot  string       `json:"input_root"`
	OutputRoot string       `json:"output_root"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Units      []UnitResult `json:"units"`
}

// Totals adds up the per-unit counters.
func (s *RunSummary) Totals() UnitResult {
	var t UnitResult
	for _, u := range s.Units {
		t.Files += u.Files
		t.Lines += u.Lines
		t.Records += u.Records
		t.Malformed += u.Malformed
		t.Dropped += u.Dropped
		t.Points += u.Points
		t.FilesWritten += u.FilesWritten
		t.SignalsSkipped += u.SignalsSkipped
	}
	return t
}

// Failed counts units that ended with an error.
func (s *RunSummary) Failed() int {
	n := 0
	for _, u := range s.Units {
		if u.Status == UnitFailed {
			n++
		}
	}
	return n
}
