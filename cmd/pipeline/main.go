package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"go-telemetry-pipeline/internal/model"
	"go-telemetry-pipeline/internal/pipeline"
	"go-telemetry-pipeline/internal/store"
)

const appName = "pipeline"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if cfg.ShowHelp {
		return 0
	}

	logger := setupLogger(stderr, cfg.Verbose, cfg.LogFormat)

	catalog := pipeline.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = pipeline.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			logger.Error("Failed to load signal catalog", "path", cfg.CatalogPath, "error", err)
			return 1
		}
	}
	if cfg.ListSignals {
		printSignals(stdout, catalog)
		return 0
	}

	var history *store.Store
	if cfg.DBPath != "" {
		history, err = store.Open(cfg.DBPath)
		if err != nil {
			logger.Error("Failed to open run history", "path", cfg.DBPath, "error", err)
			return 1
		}
		defer history.Close()
	}
	if cfg.ListRuns {
		if err := printRuns(stdout, history); err != nil {
			logger.Error("Failed to read run history", "error", err)
			return 1
		}
		return 0
	}

	tracker := pipeline.NewTracker()
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithTracker(tracker),
	}
	if history != nil {
		opts = append(opts, pipeline.WithRecorder(history))
	}

	retry := pipeline.DefaultRetryConfig
	retry.MaxAttempts = cfg.Retries + 1
	retry.InitialDelay = cfg.RetryDelay

	_, err = pipeline.Run(ctx, pipeline.Config{
		InputRoot:  cfg.InputRoot,
		OutputRoot: cfg.Output,
		Boat:       cfg.Boat,
		Day:        cfg.Day,
		Workers:    cfg.Workers,
		Retry:      retry,
	}, catalog, opts...)

	if cfg.MetricsFile != "" {
		if werr := tracker.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Warn("Failed to write metrics file", "path", cfg.MetricsFile, "error", werr)
		}
	}

	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrInputRootMissing), errors.Is(err, pipeline.ErrBoatNotFound):
			logger.Error("Aborting", "error", err)
		default:
			logger.Error("Run failed", "error", err)
		}
		return 1
	}
	return 0
}

func printSignals(w io.Writer, catalog *pipeline.Catalog) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMESSAGE TYPE\tFIELD\tTRANSFORM\tFILE")
	for _, d := range catalog.Definitions() {
		transform := d.TransformName
		if transform == "" {
			transform = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.MessageType, d.FieldPath, transform, d.FileName())
	}
	tw.Flush()
}

func printRuns(w io.Writer, history *store.Store) error {
	runs, err := history.ListRuns()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTATUS\tSTARTED\tUNITS\tFAILED\tCSV FILES\tINPUT")
	for _, r := range runs {
		units, err := history.GetRunUnits(r.ID)
		if err != nil {
			return err
		}
		summary := model.RunSummary{Units: units}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"),
			len(units), summary.Failed(), summary.Totals().FilesWritten, r.InputRoot)
		for _, u := range units {
			if u.Error != "" {
				fmt.Fprintf(tw, "\t%s\t%s/%s\t\t\t\t%s\n", u.Status, u.Boat, u.Day, strings.TrimSpace(u.Error))
			}
		}
	}
	return tw.Flush()
}
