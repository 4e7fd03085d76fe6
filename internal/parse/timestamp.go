package parse

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// values above this are taken to be epoch milliseconds
const millisThreshold = 1e11

var isoLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// ParseTimestamp decodes a JSON timestamp value (number, numeric string or
// ISO-8601 string) into epoch seconds. ok is false for null, missing or
// unparsable values.
func ParseTimestamp(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		return ParseTimeString(s)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return epochSeconds(f)
}

// ParseTimeString converts a textual timestamp to epoch seconds.
func ParseTimeString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return epochSeconds(f)
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return toEpoch(t), true
		}
	}
	return 0, false
}

// epochSeconds rejects NaN and infinities, which ParseFloat accepts but no
// record can store.
func epochSeconds(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > millisThreshold {
		return f / 1000, true
	}
	return f, true
}

func toEpoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// timestampOr decodes raw, falling back to now when it is missing or unparsable.
func (o Options) timestampOr(raw json.RawMessage) float64 {
	if ts, ok := ParseTimestamp(raw); ok {
		return ts
	}
	return o.nowEpoch()
}

// firstTimestamp returns the first of raws that decodes.
func firstTimestamp(raws ...json.RawMessage) (float64, bool) {
	for _, r := range raws {
		if ts, ok := ParseTimestamp(r); ok {
			return ts, true
		}
	}
	return 0, false
}
