package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go-telemetry-pipeline/internal/model"
)

// Recorder persists run history. The SQLite store implements it.
type Recorder interface {
	StartRun(runID, inputRoot, outputRoot string, startedAt time.Time) error
	RecordUnit(runID string, result model.UnitResult) error
	FinishRun(runID, status string, finishedAt time.Time) error
}

// Tracker holds the Prometheus metrics of a run. All methods are safe for
// concurrent use by unit workers.
type Tracker struct {
	registry *prometheus.Registry

	units        *prometheus.CounterVec
	lines        prometheus.Counter
	records      prometheus.Counter
	malformed    prometheus.Counter
	dropped      prometheus.Counter
	points       *prometheus.CounterVec
	filesWritten prometheus.Counter
	skipped      prometheus.Counter
	unitDuration prometheus.Histogram
}

// NewTracker creates a tracker with its own registry
func NewTracker() *Tracker {
	t := &Tracker{
		registry: prometheus.NewRegistry(),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_units_total",
			Help: "Boat/day units processed, by final status",
		}, []string{"status"}),
		lines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_lines_total",
			Help: "Non-blank input lines read",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_records_total",
			Help: "Records decoded from input lines",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_malformed_lines_total",
			Help: "Input lines that failed to decode",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_dropped_records_total",
			Help: "Decoded lines without timestamp or message type",
		}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_points_total",
			Help: "Data points extracted, by signal",
		}, []string{"signal"}),
		filesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_csv_files_written_total",
			Help: "CSV files written",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_signals_skipped_total",
			Help: "Signal exports skipped because the series was empty",
		}),
		unitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "telemetry_unit_duration_seconds",
			Help:    "Time spent processing one boat/day unit",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
	}

	t.registry.MustRegister(
		t.units, t.lines, t.records, t.malformed, t.dropped,
		t.points, t.filesWritten, t.skipped, t.unitDuration,
	)
	return t
}

// Registry exposes the underlying Prometheus registry
func (t *Tracker) Registry() *prometheus.Registry {
	return t.registry
}

// ObserveUnit records the counters of a finished unit
func (t *Tracker) ObserveUnit(r model.UnitResult) {
	t.units.WithLabelValues(r.Status).Inc()
	t.lines.Add(float64(r.Lines))
	t.records.Add(float64(r.Records))
	t.malformed.Add(float64(r.Malformed))
	t.dropped.Add(float64(r.Dropped))
	t.filesWritten.Add(float64(r.FilesWritten))
	t.skipped.Add(float64(r.SignalsSkipped))
	t.unitDuration.Observe(r.Duration.Seconds())
}

// ObservePoints adds n extracted points for signal
func (t *Tracker) ObservePoints(signal string, n int) {
	if n > 0 {
		t.points.WithLabelValues(signal).Add(float64(n))
	}
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node_exporter textfile collector.
func (t *Tracker) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, t.registry)
}
