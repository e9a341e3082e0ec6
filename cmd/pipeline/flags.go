package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	InputRoot   string
	Output      string
	Boat        string
	Day         string
	Verbose     bool
	LogFormat   string
	CatalogPath string
	Workers     int
	Retries     int
	RetryDelay  time.Duration
	DBPath      string
	MetricsFile string
	ListSignals bool
	ListRuns    bool
	ShowHelp    bool
}

func parseFlags(args []string, stderr io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{}

	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVarP(&cfg.Output, "output", "o", "output_csv", "Output directory for CSV files")
	fs.StringVarP(&cfg.Boat, "boat", "b", "", "Process only a specific boat (by directory name)")
	fs.StringVarP(&cfg.Day, "day", "d", "", "Process only a specific day (by directory name)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text, json")
	fs.StringVarP(&cfg.CatalogPath, "catalog", "c", "", "Signal catalog file (JSONC or YAML); built-in catalog when empty")
	fs.IntVarP(&cfg.Workers, "workers", "w", 1, "Number of boat/day units processed in parallel")
	fs.IntVar(&cfg.Retries, "retries", 0, "Extra attempts for a unit that fails with an I/O error")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", 500*time.Millisecond, "Delay before the first retry, doubled per attempt")
	fs.StringVar(&cfg.DBPath, "db", "", "SQLite database recording run history; disabled when empty")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file after the run")
	fs.BoolVar(&cfg.ListSignals, "list-signals", false, "Print the signal catalog and exit")
	fs.BoolVar(&cfg.ListRuns, "list-runs", false, "Print the run history from --db and exit")
	fs.BoolVarP(&cfg.ShowHelp, "help", "h", false, "Show help information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `%s - extract per-signal CSV time series from boat telemetry logs

Usage: %s [options] <raw_json_dir>

Options:
`, appName, appName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ShowHelp {
		fs.Usage()
		return cfg, nil
	}

	switch fs.NArg() {
	case 0:
		if !cfg.ListSignals && !cfg.ListRuns {
			fs.Usage()
			return nil, fmt.Errorf("missing raw_json_dir argument")
		}
	case 1:
		cfg.InputRoot = fs.Arg(0)
	default:
		return nil, fmt.Errorf("expected 1 positional argument, got %d", fs.NArg())
	}

	return cfg, validateFlags(cfg)
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d", cfg.Workers)
	}
	if cfg.Retries < 0 {
		return fmt.Errorf("invalid retry count: %d", cfg.Retries)
	}
	if cfg.ListRuns && cfg.DBPath == "" {
		return fmt.Errorf("--list-runs requires --db")
	}
	return nil
}
