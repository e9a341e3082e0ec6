package pipeline

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-telemetry-pipeline/internal/model"
)

func collect(r *RecordReader, path string, stats *ReadStats) []model.RawRecord {
	var out []model.RawRecord
	for rec := range r.Records(path, stats) {
		out = append(out, rec)
	}
	return out
}

func TestRecordReader_Records(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	writeLines(t, path,
		`{"ts": 1700000000.5, "msg": {"VesselHeading": {"heading": 1.5708}}}`,
		``,
		`   `,
		`{"ts": "2024-05-01T10:00:00Z", "msg": {"Odometry": {"odometer": 12}}}`,
	)

	logger, logs := testLogger()
	var stats ReadStats
	recs := collect(NewRecordReader(logger), path, &stats)

	require.Len(t, recs, 2)
	assert.Equal(t, "VesselHeading", recs[0].MessageType)
	assert.Equal(t, model.Timestamp{Raw: "1700000000.5", Numeric: true, Num: 1700000000.5}, recs[0].Timestamp)
	assert.Equal(t, map[string]any{"heading": json.Number("1.5708")}, recs[0].Payload)

	assert.Equal(t, "Odometry", recs[1].MessageType)
	assert.Equal(t, model.Timestamp{Raw: "2024-05-01T10:00:00Z"}, recs[1].Timestamp)

	assert.Equal(t, ReadStats{Lines: 2, Records: 2}, stats)
	assert.Zero(t, logs.count("WARN", "Failed to parse JSON line"))
}

func TestRecordReader_MalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	writeLines(t, path,
		`{"ts": 1, "msg": {"Odometry": {"odometer": `,
		`{"ts": 2, "msg": {"Odometry": {"odometer": 10}}}`,
		`{"ts": 3, "msg": {"Odometry": {"odometer": 11}}}`,
	)

	logger, logs := testLogger()
	var stats ReadStats
	recs := collect(NewRecordReader(logger), path, &stats)

	assert.Len(t, recs, 2)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, 1, logs.count("WARN", "Failed to parse JSON line"))
	assert.Contains(t, logs.String(), "line=1")
}

func TestRecordReader_NonObjectAndTrailingData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	writeLines(t, path,
		`[1, 2, 3]`,
		`"just a string"`,
		`{"ts": 1, "msg": {"A": {}}} {"ts": 2}`,
		`{"ts": 4, "msg": {"A": {"v": 1}}}`,
	)

	var stats ReadStats
	recs := collect(NewRecordReader(nil), path, &stats)
	assert.Len(t, recs, 1)
	assert.Equal(t, 3, stats.Malformed)
}

func TestRecordReader_DropsRecordsWithoutTimestampOrType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	writeLines(t, path,
		`{"msg": {"Odometry": {"odometer": 1}}}`,
		`{"ts": null, "msg": {"Odometry": {"odometer": 1}}}`,
		`{"ts": 1}`,
		`{"ts": 1, "msg": {}}`,
		`{"ts": 1, "msg": "Odometry"}`,
		`{"ts": {"sec": 1}, "msg": {"Odometry": {"odometer": 1}}}`,
		`{"ts": 1, "msg": {"Odometry": {"odometer": 1}}}`,
	)

	logger, logs := testLogger()
	var stats ReadStats
	recs := collect(NewRecordReader(logger), path, &stats)

	assert.Len(t, recs, 1)
	assert.Equal(t, 6, stats.Dropped)
	assert.Zero(t, stats.Malformed)
	assert.Zero(t, logs.count("WARN", "Failed to parse JSON line"))
}

func TestRecordReader_MultiKeyWrapperPicksSmallestKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	writeLines(t, path, `{"ts": 1, "msg": {"Zulu": {"v": 1}, "Alpha": {"v": 2}}}`)

	recs := collect(NewRecordReader(nil), path, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, "Alpha", recs[0].MessageType)
	assert.Equal(t, map[string]any{"v": json.Number("2")}, recs[0].Payload)
}

func TestRecordReader_MissingFile(t *testing.T) {
	logger, logs := testLogger()
	var stats ReadStats
	recs := collect(NewRecordReader(logger), filepath.Join(t.TempDir(), "nope.jsonl"), &stats)

	assert.Empty(t, recs)
	assert.Error(t, stats.Err)
	assert.Equal(t, 1, logs.count("WARN", "Failed to read file"))
}

func TestRecordReader_StopsEarly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	writeLines(t, path,
		`{"ts": 1, "msg": {"A": {}}}`,
		`{"ts": 2, "msg": {"A": {}}}`,
		`{"ts": 3, "msg": {"A": {}}}`,
	)

	var stats ReadStats
	n := 0
	for range NewRecordReader(nil).Records(path, &stats) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, stats.Records)
}

func TestReadStats_Add(t *testing.T) {
	s := ReadStats{Lines: 1, Records: 1}
	s.Add(ReadStats{Lines: 2, Malformed: 1, Dropped: 1, Err: assert.AnError})
	assert.Equal(t, ReadStats{Lines: 3, Records: 1, Malformed: 1, Dropped: 1, Err: assert.AnError}, s)
}

func TestRecordReader_SingleUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	writeLines(t, path,
		`{"ts": 1, "msg": {"Odometry": {"odometer": 1}}}`,
		`{"ts": 2, "msg": {"Odometry": {"odometer": 2}}}`,
	)

	var stats ReadStats
	seq := NewRecordReader(nil).Records(path, &stats)

	n := 0
	for range seq {
		n++
	}
	assert.Equal(t, 2, n)

	for range seq {
		n++
	}
	assert.Equal(t, 2, n)
	assert.Equal(t, ReadStats{Lines: 2, Records: 2}, stats)
}
