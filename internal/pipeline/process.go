package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go-telemetry-pipeline/internal/model"
)

// DayResult is the output of processing one boat/day directory
type DayResult struct {
	// Series is keyed by signal ID. When at least one file was found, every
	// catalog signal has an entry, possibly empty.
	Series map[string]model.Series
	Files  int
	Stats  ReadStats
}

// Points counts the data points across all series.
func (r *DayResult) Points() int {
	n := 0
	for _, s := range r.Series {
		n += len(s)
	}
	return n
}

// DayProcessor applies the catalog to every record of one boat/day
type DayProcessor struct {
	catalog *Catalog
	reader  *RecordReader
	logger  *slog.Logger
}

// NewDayProcessor creates a processor for catalog
func NewDayProcessor(catalog *Catalog, logger *slog.Logger) *DayProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DayProcessor{
		catalog: catalog,
		reader:  NewRecordReader(logger),
		logger:  logger,
	}
}

// Process extracts every catalog signal from the telemetry files in dayDir.
// Files are read one after another in name order; records are appended in
// the order they are read and only sorted on export. A directory without
// telemetry files yields an empty result, not an error.
func (p *DayProcessor) Process(ctx context.Context, dayDir, boat string) (*DayResult, error) {
	files, err := telemetryFiles(dayDir)
	if err != nil {
		return nil, err
	}

	result := &DayResult{Series: make(map[string]model.Series)}
	if len(files) == 0 {
		p.logger.Warn("No JSON files found", "dir", dayDir)
		return result, nil
	}

	for _, def := range p.catalog.Definitions() {
		result.Series[def.ID] = model.Series{}
	}

	p.logger.Info("Processing JSON files", "dir", dayDir, "files", len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.logger.Debug("Processing file", "file", path)

		var stats ReadStats
		for rec := range p.reader.Records(path, &stats) {
			p.apply(rec, boat, result.Series)
		}
		result.Stats.Add(stats)
		result.Files++
	}
	return result, nil
}

// apply runs every definition listening to the record's message type.
func (p *DayProcessor) apply(rec model.RawRecord, boat string, series map[string]model.Series) {
	for _, def := range p.catalog.ForMessageType(rec.MessageType) {
		value, ok := Extract(rec.Payload, def.FieldPath)
		if !ok {
			continue
		}
		value = applyTransform(def.Transform, value)
		if value == nil {
			continue
		}
		series[def.ID] = append(series[def.ID], model.DataPoint{
			Boat:      boat,
			Value:     value,
			Timestamp: rec.Timestamp,
		})
	}
}

// telemetryFiles lists the .json and .jsonl files of dir in name order.
// Compressed files such as .jsonl.zst do not match.
func telemetryFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing day directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".jsonl") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
