package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDay(t *testing.T, root, boat, day string, lines ...string) {
	t.Helper()
	dir := filepath.Join(root, boat, day)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "log.jsonl"), []byte(strings.Join(lines, "\n")+"\n"), 0644))
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	cfg, err := parseFlags([]string{"-o", "out", "-b", "cr38", "--workers", "3", "--retries", "2", "--retry-delay", "1s", "raw"}, &stderr)
	require.NoError(t, err)

	assert.Equal(t, "raw", cfg.InputRoot)
	assert.Equal(t, "out", cfg.Output)
	assert.Equal(t, "cr38", cfg.Boat)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := parseFlags([]string{"raw"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "output_csv", cfg.Output)
	assert.Equal(t, 1, cfg.Workers)
	assert.Empty(t, cfg.Boat)
	assert.Empty(t, cfg.Day)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing input", nil, "missing raw_json_dir"},
		{"too many args", []string{"a", "b"}, "expected 1 positional argument"},
		{"bad log format", []string{"--log-format", "xml", "raw"}, "invalid log format"},
		{"bad workers", []string{"-w", "0", "raw"}, "invalid worker count"},
		{"bad retries", []string{"--retries", "-1", "raw"}, "invalid retry count"},
		{"list runs without db", []string{"--list-runs"}, "--list-runs requires --db"},
		{"unknown flag", []string{"--nope", "raw"}, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_ProcessesInput(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "csv")
	metrics := filepath.Join(t.TempDir(), "pipeline.prom")
	db := filepath.Join(t.TempDir(), "runs.db")
	writeDay(t, in, "cr38", "2024-06-01",
		`{"ts": 1, "msg": {"PentaEngineStatus": {"vessel_status": {"current_gear": 1}}}}`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-o", out, "--metrics-file", metrics, "--db", db, in}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	content, err := os.ReadFile(filepath.Join(out, "cr38", "2024-06-01", "current_gear.csv"))
	require.NoError(t, err)
	assert.Equal(t, "boat,value,timestamp\ncr38,Forward,1\n", string(content))
	assert.Contains(t, stderr.String(), "Processing complete")

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `telemetry_units_total{status="completed"} 1`)

	stdout.Reset()
	code = run(context.Background(), []string{"--db", db, "--list-runs"}, &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "completed")
	assert.Contains(t, stdout.String(), in)
}

func TestRun_ExitCodes(t *testing.T) {
	in := t.TempDir()
	writeDay(t, in, "cr38", "d1", `{"ts": 1, "msg": {"Odometry": {"odometer": 12}}}`)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"help", []string{"-h"}, 0},
		{"missing input root", []string{"-o", t.TempDir(), filepath.Join(in, "missing")}, 1},
		{"unknown boat", []string{"-o", t.TempDir(), "-b", "nobody", in}, 1},
		{"unknown day is skipped", []string{"-o", t.TempDir(), "-d", "d9", in}, 0},
		{"bad catalog", []string{"-c", filepath.Join(in, "missing.yaml"), in}, 1},
		{"bad flag", []string{"--workers", "x", in}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(context.Background(), tt.args, &stdout, &stderr), stderr.String())
		})
	}
}

func TestRun_ListSignals(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--list-signals"}, &stdout, &stderr)
	require.Equal(t, 0, code)

	out := stdout.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 16)
	assert.Contains(t, out, "PentaEngineStatus_gear")
	assert.Contains(t, out, "vessel_status.current_gear")
	assert.Contains(t, out, "gear_state")
	assert.Contains(t, out, "heading.csv")
}

func TestRun_CustomCatalog(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeDay(t, in, "cr38", "d1", `{"ts": "2024-06-01T00:00:00Z", "msg": {"Odometry": {"trip": {"distance": 3.5}}}}`)

	catalog := filepath.Join(t.TempDir(), "signals.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(`signals:
  - id: TripDistance
    message_type: Odometry
    field: trip.distance
    output_name: trip_distance
`), 0644))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run(context.Background(), []string{"-c", catalog, "-o", out, in}, &stdout, &stderr), stderr.String())

	content, err := os.ReadFile(filepath.Join(out, "cr38", "d1", "trip_distance.csv"))
	require.NoError(t, err)
	assert.Equal(t, "boat,value,timestamp\ncr38,3.5,2024-06-01T00:00:00Z\n", string(content))
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, false, "json")
	logger.Debug("hidden")
	logger.Info("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"service":"pipeline"`)
}
