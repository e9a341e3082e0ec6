package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-telemetry-pipeline/internal/model"
	"go-telemetry-pipeline/pkg/utils"
)

// Config selects what a run reads and where it writes
type Config struct {
	InputRoot  string
	OutputRoot string
	Boat       string // optional exact boat directory name
	Day        string // optional exact day directory name
	Workers    int    // units processed in parallel, default 1
	Retry      model.RetryConfig
}

// Option configures optional collaborators of a run
type Option func(*runner)

// WithLogger sets the logger used by every component of the run
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracker records run metrics on t
func WithTracker(t *Tracker) Option {
	return func(r *runner) { r.tracker = t }
}

// WithRecorder persists the run and its unit results
func WithRecorder(rec Recorder) Option {
	return func(r *runner) { r.recorder = rec }
}

type runner struct {
	runID    string
	cfg      Config
	catalog  *Catalog
	output   *utils.OutputManager
	logger   *slog.Logger
	tracker  *Tracker
	recorder Recorder
}

// ------------------- Pipeline Runner -------------------

// Run walks InputRoot/<boat>/<day>, extracts every catalog signal of each
// unit and writes OutputRoot/<boat>/<day>/<signal>.csv. Only a missing input
// root or an unmatched boat filter fail the run; problems inside a unit are
// logged and recorded in the summary.
func Run(ctx context.Context, cfg Config, catalog *Catalog, opts ...Option) (*model.RunSummary, error) {
	r := &runner{
		cfg:     cfg,
		catalog: catalog,
		output:  utils.NewOutputManager(cfg.OutputRoot),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cfg.Workers < 1 {
		r.cfg.Workers = 1
	}
	if r.cfg.Retry.MaxAttempts < 1 {
		r.cfg.Retry = DefaultRetryConfig
	}

	summary := &model.RunSummary{
		RunID:      uuid.New().String(),
		InputRoot:  cfg.InputRoot,
		OutputRoot: cfg.OutputRoot,
		StartedAt:  time.Now().UTC(),
	}
	r.runID = summary.RunID
	logger := r.logger.With("run_id", summary.RunID)
	r.logger = logger

	info, err := os.Stat(cfg.InputRoot)
	if err != nil || !info.IsDir() {
		logger.Error("Raw JSON directory does not exist", "dir", cfg.InputRoot)
		return nil, fmt.Errorf("%w: %s", ErrInputRootMissing, cfg.InputRoot)
	}

	units, err := r.discoverUnits()
	if err != nil {
		return nil, err
	}
	if err := r.output.EnsureOutputDirExists(); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}

	logger.Info("Starting processing", "input", cfg.InputRoot, "output", cfg.OutputRoot,
		"units", len(units), "workers", r.cfg.Workers, "signals", catalog.Len())
	if r.recorder != nil {
		if err := r.recorder.StartRun(summary.RunID, cfg.InputRoot, cfg.OutputRoot, summary.StartedAt); err != nil {
			logger.Warn("Failed to record run start", "error", err)
		}
	}

	summary.Units = r.processUnits(ctx, units)
	summary.FinishedAt = time.Now().UTC()

	status := "completed"
	if ctx.Err() != nil {
		status = "cancelled"
	}
	if r.recorder != nil {
		if err := r.recorder.FinishRun(summary.RunID, status, summary.FinishedAt); err != nil {
			logger.Warn("Failed to record run completion", "error", err)
		}
	}

	totals := summary.Totals()
	logger.Info("Processing complete",
		"status", status,
		"units", len(summary.Units),
		"failed_units", summary.Failed(),
		"records", totals.Records,
		"points", totals.Points,
		"csv_files", totals.FilesWritten,
		"duration", summary.FinishedAt.Sub(summary.StartedAt))

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run cancelled: %w", err)
	}
	return summary, nil
}

// discoverUnits lists the boat/day directories selected by the filters.
func (r *runner) discoverUnits() ([]model.Unit, error) {
	boats, err := subdirs(r.cfg.InputRoot)
	if err != nil {
		return nil, fmt.Errorf("listing boats: %w", err)
	}
	if len(boats) == 0 {
		if r.cfg.Boat != "" {
			r.logger.Error("Boat not found", "boat", r.cfg.Boat, "dir", r.cfg.InputRoot)
			return nil, fmt.Errorf("%w: %q in %s", ErrBoatNotFound, r.cfg.Boat, r.cfg.InputRoot)
		}
		r.logger.Warn("No boat directories found", "dir", r.cfg.InputRoot)
		return nil, nil
	}

	if r.cfg.Boat != "" {
		if !contains(boats, r.cfg.Boat) {
			r.logger.Error("Boat not found", "boat", r.cfg.Boat, "dir", r.cfg.InputRoot)
			return nil, fmt.Errorf("%w: %q in %s", ErrBoatNotFound, r.cfg.Boat, r.cfg.InputRoot)
		}
		boats = []string{r.cfg.Boat}
		r.logger.Info("Processing single boat", "boat", r.cfg.Boat)
	} else {
		r.logger.Info("Found boat directories", "count", len(boats))
	}

	var units []model.Unit
	for _, boat := range boats {
		boatDir := filepath.Join(r.cfg.InputRoot, boat)
		days, err := subdirs(boatDir)
		if err != nil {
			r.logger.Warn("Failed to list day directories", "boat", boat, "error", err)
			continue
		}
		if len(days) == 0 {
			r.logger.Warn("No day directories found", "boat", boat)
			continue
		}
		if r.cfg.Day != "" {
			if !contains(days, r.cfg.Day) {
				r.logger.Warn("Day not found", "day", r.cfg.Day, "boat", boat)
				continue
			}
			days = []string{r.cfg.Day}
		}
		for _, day := range days {
			units = append(units, model.Unit{Boat: boat, Day: day, Dir: filepath.Join(boatDir, day)})
		}
	}
	return units, nil
}

// processUnits fans units out to the configured number of workers. Units
// share nothing but the catalog, the logger and the tracker.
func (r *runner) processUnits(ctx context.Context, units []model.Unit) []model.UnitResult {
	unitCh := make(chan model.Unit)
	resultCh := make(chan model.UnitResult, r.cfg.Workers)

	var wg sync.WaitGroup
	wg.Add(r.cfg.Workers)
	for i := 0; i < r.cfg.Workers; i++ {
		go func() {
			defer wg.Done()
			for u := range unitCh {
				resultCh <- r.processUnit(ctx, u)
			}
		}()
	}

	go func() {
	feed:
		for _, u := range units {
			select {
			case <-ctx.Done():
				break feed
			case unitCh <- u:
			}
		}
		close(unitCh)
		wg.Wait()
		close(resultCh)
	}()

	results := make([]model.UnitResult, 0, len(units))
	for res := range resultCh {
		if r.recorder != nil {
			if err := r.recorder.RecordUnit(r.runID, res); err != nil {
				r.logger.Warn("Failed to record unit", "boat", res.Boat, "day", res.Day, "error", err)
			}
		}
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Boat != results[j].Boat {
			return results[i].Boat < results[j].Boat
		}
		return results[i].Day < results[j].Day
	})
	return results
}

// processUnit runs one unit under the retry policy and reports its result.
func (r *runner) processUnit(ctx context.Context, u model.Unit) model.UnitResult {
	start := time.Now()
	logger := r.logger.With("boat", u.Boat, "day", u.Day)
	logger.Info("Processing day")

	var (
		res model.UnitResult
		day *DayResult
	)
	attempts, err := retryUnit(ctx, r.cfg.Retry, logger, func() error {
		res = model.UnitResult{Boat: u.Boat, Day: u.Day}
		var err error
		day, err = r.runUnit(ctx, u, &res, logger)
		return err
	})

	res.Attempts = attempts
	res.Duration = time.Since(start)
	if err != nil {
		res.Status = model.UnitFailed
		res.Error = err.Error()
		logger.Error("Unit failed", "attempts", attempts, "error", err)
	}

	if r.tracker != nil {
		r.tracker.ObserveUnit(res)
		if err == nil && day != nil {
			for _, def := range r.catalog.Definitions() {
				r.tracker.ObservePoints(def.OutputName, len(day.Series[def.ID]))
			}
		}
	}
	return res
}

// runUnit processes one day directory and exports every catalog signal.
func (r *runner) runUnit(ctx context.Context, u model.Unit, res *model.UnitResult, logger *slog.Logger) (*DayResult, error) {
	day, err := NewDayProcessor(r.catalog, logger).Process(ctx, u.Dir, u.Boat)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", u.Key(), err)
	}

	res.Files = day.Files
	res.Lines = day.Stats.Lines
	res.Records = day.Stats.Records
	res.Malformed = day.Stats.Malformed
	res.Dropped = day.Stats.Dropped
	res.Points = day.Points()

	if day.Files == 0 {
		res.Status = model.UnitEmpty
		return day, nil
	}

	exporter := NewExporter(logger)
	outDir := r.output.UnitDir(u.Boat, u.Day)
	for _, def := range r.catalog.Definitions() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := exporter.Export(day.Series[def.ID], outDir, def.OutputName)
		if err != nil {
			return nil, fmt.Errorf("exporting %s: %w", def.ID, err)
		}
		if result.Skipped {
			res.SignalsSkipped++
		} else {
			res.FilesWritten++
		}
	}
	res.Status = model.UnitCompleted
	return day, nil
}

// subdirs lists the directory names under dir in sorted order, following
// symlinks.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(dir, e.Name())); err == nil && info.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	return names, nil
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
