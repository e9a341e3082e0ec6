package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-telemetry-pipeline/internal/model"
)

// gathered returns the counter value, or histogram sample count, of the
// metric name whose labels include label=value (label may be empty).
func gathered(t *testing.T, tracker *Tracker, name, label, value string) float64 {
	t.Helper()
	families, err := tracker.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			match := label == ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					match = true
				}
			}
			if !match {
				continue
			}
			if h := m.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestTracker_ObserveUnit(t *testing.T) {
	tracker := NewTracker()
	tracker.ObserveUnit(model.UnitResult{
		Status: model.UnitCompleted, Lines: 10, Records: 9, Malformed: 1,
		FilesWritten: 2, SignalsSkipped: 13, Duration: 20 * time.Millisecond,
	})
	tracker.ObserveUnit(model.UnitResult{Status: model.UnitEmpty})
	tracker.ObservePoints("heading", 4)
	tracker.ObservePoints("heading", 0)

	assert.Equal(t, 1.0, gathered(t, tracker, "telemetry_units_total", "status", model.UnitCompleted))
	assert.Equal(t, 1.0, gathered(t, tracker, "telemetry_units_total", "status", model.UnitEmpty))
	assert.Equal(t, 10.0, gathered(t, tracker, "telemetry_lines_total", "", ""))
	assert.Equal(t, 9.0, gathered(t, tracker, "telemetry_records_total", "", ""))
	assert.Equal(t, 1.0, gathered(t, tracker, "telemetry_malformed_lines_total", "", ""))
	assert.Equal(t, 2.0, gathered(t, tracker, "telemetry_csv_files_written_total", "", ""))
	assert.Equal(t, 13.0, gathered(t, tracker, "telemetry_signals_skipped_total", "", ""))
	assert.Equal(t, 4.0, gathered(t, tracker, "telemetry_points_total", "signal", "heading"))
	assert.Equal(t, 2.0, gathered(t, tracker, "telemetry_unit_duration_seconds", "", ""))
}

func TestTracker_WriteTextfile(t *testing.T) {
	tracker := NewTracker()
	tracker.ObserveUnit(model.UnitResult{Status: model.UnitCompleted, Records: 3})
	tracker.ObservePoints("current_gear", 3)

	path := filepath.Join(t.TempDir(), "pipeline.prom")
	require.NoError(t, tracker.WriteTextfile(path))

	content := readFile(t, path)
	assert.Contains(t, content, `telemetry_units_total{status="completed"} 1`)
	assert.Contains(t, content, "telemetry_records_total 3")
	assert.Contains(t, content, `telemetry_points_total{signal="current_gear"} 3`)
}
