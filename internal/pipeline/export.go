package pipeline

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go-telemetry-pipeline/internal/model"
	"go-telemetry-pipeline/pkg/utils"
)

var csvHeader = []string{"boat", "value", "timestamp"}

// Exporter writes signal series as CSV files
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates an exporter logging to logger (slog.Default when nil)
func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// Export writes series to outDir/<outputName>.csv sorted by timestamp.
// Points with equal timestamps keep their original order. An empty series
// writes nothing and reports Skipped. The CSV is written to a temporary
// file and renamed into place, so a file either has its full content or
// does not exist.
func (e *Exporter) Export(series model.Series, outDir, outputName string) (model.ExportResult, error) {
	result := model.ExportResult{
		Signal:     outputName,
		ExportedAt: time.Now(),
	}

	if len(series) == 0 {
		e.logger.Warn("No data found", "signal", outputName, "dir", outDir)
		result.Skipped = true
		return result, nil
	}

	sorted := slices.Clone(series)
	slices.SortStableFunc(sorted, func(a, b model.DataPoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return result, fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(outDir, filepath.Base(outputName)+".csv")
	if err := writeCSV(path, sorted); err != nil {
		return result, err
	}

	result.Path = path
	result.RecordCount = len(sorted)
	e.logger.Info("Created CSV", "path", path, "points", len(sorted))
	return result, nil
}

func writeCSV(path string, points model.Series) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	writer := csv.NewWriter(tmp)
	if err = writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, p := range points {
		row := []string{p.Boat, utils.FormatValue(p.Value), p.Timestamp.Raw}
		if err = writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	if err = writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	if err = tmp.Chmod(0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
