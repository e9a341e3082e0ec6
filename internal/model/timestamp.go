package model

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
)

// Timestamp is a record timestamp normalized at ingestion. Raw keeps the text
// exactly as it appeared in the input so exports reproduce it verbatim;
// numeric timestamps also carry their parsed value for ordering.
type Timestamp struct {
	Raw     string
	Numeric bool
	Num     float64
}

// NewTimestamp normalizes a decoded "ts" value. Strings and numbers are
// accepted; anything else (including nil) reports false.
func NewTimestamp(v any) (Timestamp, bool) {
	switch ts := v.(type) {
	case json.Number:
		f, err := ts.Float64()
		if err != nil {
			return Timestamp{Raw: ts.String()}, true
		}
		return Timestamp{Raw: ts.String(), Numeric: true, Num: f}, true
	case string:
		return Timestamp{Raw: ts}, true
	case float64:
		return Timestamp{Raw: strconv.FormatFloat(ts, 'f', -1, 64), Numeric: true, Num: ts}, true
	case int:
		return Timestamp{Raw: strconv.Itoa(ts), Numeric: true, Num: float64(ts)}, true
	case int64:
		return Timestamp{Raw: strconv.FormatInt(ts, 10), Numeric: true, Num: float64(ts)}, true
	default:
		return Timestamp{}, false
	}
}

// Compare orders timestamps: numeric values numerically, strings
// lexicographically, and every numeric timestamp before every string one.
// Numerically equal values such as 1 and 1.0 compare as equal.
func (t Timestamp) Compare(o Timestamp) int {
	switch {
	case t.Numeric && o.Numeric:
		if t.Num < o.Num {
			return -1
		}
		if t.Num > o.Num {
			return 1
		}
		return compareIntegerText(t.Raw, o.Raw)
	case t.Numeric:
		return -1
	case o.Numeric:
		return 1
	default:
		return strings.Compare(t.Raw, o.Raw)
	}
}

// compareIntegerText orders two numerically equal timestamps. Integer
// literals beyond float64 precision are compared exactly; anything else is
// a tie.
func compareIntegerText(a, b string) int {
	x, okA := new(big.Int).SetString(a, 10)
	y, okB := new(big.Int).SetString(b, 10)
	if !okA || !okB {
		return 0
	}
	return x.Cmp(y)
}

func (t Timestamp) String() string {
	return t.Raw
}

// MarshalJSON writes numeric timestamps as numbers and the rest as strings.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Numeric {
		return []byte(t.Raw), nil
	}
	return json.Marshal(t.Raw)
}
