package pipeline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"sort"

	"go-telemetry-pipeline/internal/model"
)

const maxLineSize = 64 << 20

// ReadStats counts what happened to the lines of one or more files
type ReadStats struct {
	Lines     int   // non-blank lines
	Records   int   // records emitted
	Malformed int   // lines that failed to decode
	Dropped   int   // decoded lines without timestamp or message type
	Err       error // file could not be opened or read to the end
}

// Add merges o into s. Only the first error is kept.
func (s *ReadStats) Add(o ReadStats) {
	s.Lines += o.Lines
	s.Records += o.Records
	s.Malformed += o.Malformed
	s.Dropped += o.Dropped
	if s.Err == nil {
		s.Err = o.Err
	}
}

// lineEnvelope is the outer shape of every telemetry line:
// {"ts": <timestamp>, "msg": {"<MessageType>": {...}}}
type lineEnvelope struct {
	TS  any `json:"ts"`
	Msg any `json:"msg"`
}

// RecordReader decodes line-delimited JSON telemetry files
type RecordReader struct {
	logger *slog.Logger
}

// NewRecordReader creates a reader logging to logger (slog.Default when nil)
func NewRecordReader(logger *slog.Logger) *RecordReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordReader{logger: logger}
}

// Records returns a single-use sequence over the records of the file at
// path. The file is opened when iteration starts; ranging over the sequence
// a second time yields nothing. Malformed lines are logged and skipped;
// lines without a timestamp or message type are skipped silently. stats may
// be nil.
func (r *RecordReader) Records(path string, stats *ReadStats) iter.Seq[model.RawRecord] {
	if stats == nil {
		stats = &ReadStats{}
	}
	consumed := false
	return func(yield func(model.RawRecord) bool) {
		if consumed {
			return
		}
		consumed = true
		logger := r.logger.With("file", path)

		file, err := os.Open(path)
		if err != nil {
			stats.Err = fmt.Errorf("failed to open telemetry file: %w", err)
			logger.Warn("Failed to read file", "error", err)
			return
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			stats.Lines++

			rec, ok, err := decodeLine(line)
			if err != nil {
				stats.Malformed++
				logger.Warn("Failed to parse JSON line", "line", lineNo, "error", err)
				continue
			}
			if !ok {
				stats.Dropped++
				logger.Debug("Dropping record without timestamp or message type", "line", lineNo)
				continue
			}

			stats.Records++
			if !yield(rec) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			stats.Err = fmt.Errorf("reading telemetry file: %w", err)
			logger.Warn("Failed to read file to the end", "line", lineNo, "error", err)
		}
	}
}

// decodeLine decodes one line. It returns an error for invalid JSON and
// ok=false for a valid line that carries no usable record.
func decodeLine(line []byte) (model.RawRecord, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var env lineEnvelope
	if err := dec.Decode(&env); err != nil {
		return model.RawRecord{}, false, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return model.RawRecord{}, false, fmt.Errorf("unexpected data after JSON object")
	}

	ts, ok := model.NewTimestamp(env.TS)
	if !ok {
		return model.RawRecord{}, false, nil
	}
	msg, ok := env.Msg.(map[string]any)
	if !ok || len(msg) == 0 {
		return model.RawRecord{}, false, nil
	}

	messageType := discriminator(msg)
	return model.RawRecord{
		Timestamp:   ts,
		MessageType: messageType,
		Payload:     msg[messageType],
	}, true, nil
}

// discriminator picks the message type key of a "msg" wrapper. Wrappers are
// expected to hold exactly one key; with several, the lexicographically
// smallest wins so runs stay reproducible.
func discriminator(msg map[string]any) string {
	if len(msg) == 1 {
		for k := range msg {
			return k
		}
	}
	keys := make([]string, 0, len(msg))
	for k := range msg {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}
