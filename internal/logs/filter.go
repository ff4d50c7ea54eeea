package logs

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"mediaflow/internal/logging"
)

// Filter selects log records. Zero fields match everything.
type Filter struct {
	JobID     int64
	MinLevel  string
	Component string
}

func (f Filter) empty() bool {
	return f.JobID == 0 && strings.TrimSpace(f.MinLevel) == "" && strings.TrimSpace(f.Component) == ""
}

// Match reports whether line passes the filter. Lines that are not JSON
// records only pass an empty filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return false
	}
	if f.JobID != 0 && recordInt(record[logging.FieldJobID]) != f.JobID {
		return false
	}
	if c := strings.TrimSpace(f.Component); c != "" {
		got, _ := record[logging.FieldComponent].(string)
		if !strings.EqualFold(got, c) {
			return false
		}
	}
	if lvl := strings.TrimSpace(f.MinLevel); lvl != "" {
		var want, got slog.Level
		if want.UnmarshalText([]byte(lvl)) != nil {
			return true
		}
		raw, _ := record[slog.LevelKey].(string)
		if got.UnmarshalText([]byte(raw)) != nil || got < want {
			return false
		}
	}
	return true
}

func recordInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	}
	return 0
}
