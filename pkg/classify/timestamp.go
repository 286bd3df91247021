package classify

import (
	"strconv"
	"strings"
	"time"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/errors"
)

// DefaultTimestampKeywords identify the timestamp column by header text.
var DefaultTimestampKeywords = []string{
	"timestamp", "time stamp", "time", "date", "datetime",
}

// timestampLayouts are tried against sample rows to identify the export's
// timestamp format. Day-first layouts come before month-first because the
// loggers this tool sees are configured for UK sites.
var timestampLayouts = []string{
	"02/01/2006 15:04",
	"01/02/2006 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"20060102150405",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// excelEpoch is the zero of Excel's serial-date system (the 1900 system
// with its leap-year quirk folded in).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// findTimestampColumn returns the index of the first header containing a
// timestamp keyword.
func findTimestampColumn(headers, keywords []string) (int, error) {
	for i, h := range headers {
		lower := strings.ToLower(h)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return i, nil
			}
		}
	}
	return -1, errors.New(errors.CodeTimestampColumn, "no timestamp column found").
		WithContext("headers", headers)
}

// identifyLayout picks the layout that parses the most of the first
// sampleRows values. Exports that carry Excel serial numbers (plain
// floats) report the empty layout.
func identifyLayout(rows [][]string, col int, sampleRows int) (string, error) {
	if sampleRows > len(rows) {
		sampleRows = len(rows)
	}

	counts := make(map[string]int)
	serial := 0
	for _, row := range rows[:sampleRows] {
		if col >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}
		matched := false
		for _, layout := range timestampLayouts {
			if _, err := time.Parse(layout, value); err == nil {
				counts[layout]++
				matched = true
				break
			}
		}
		if !matched {
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				serial++
			}
		}
	}

	best, bestCount := "", 0
	for layout, n := range counts {
		if n > bestCount {
			best, bestCount = layout, n
		}
	}
	if serial > bestCount {
		return "", nil // Excel serial dates
	}
	if bestCount == 0 {
		return "", errors.New(errors.CodeTimestampFormat, "unable to identify timestamp format")
	}
	return best, nil
}

// parseTimestamp parses one cell using the identified layout, or converts
// an Excel serial number when layout is empty.
func parseTimestamp(value, layout string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if layout != "" {
		t, err := time.Parse(layout, value)
		return t, err == nil
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Time{}, false
	}
	days := int(serial)
	secs := (serial - float64(days)) * 86400
	t := excelEpoch.AddDate(0, 0, days).Add(time.Duration(secs+0.5) * time.Second)
	return t, true
}

// modeInterval computes the sampling interval as the statistical mode of
// consecutive timestamp deltas. The timestamps must be sorted. The mode
// must cover at least half of all deltas; anything looser means the export
// has no dominant cadence and classification fails.
func modeInterval(sorted []time.Time) (time.Duration, error) {
	if len(sorted) < 2 {
		return 0, errors.New(errors.CodeInconsistentInterval, "not enough samples to derive an interval")
	}

	counts := make(map[time.Duration]int)
	total := 0
	for i := 1; i < len(sorted); i++ {
		d := sorted[i].Sub(sorted[i-1])
		if d <= 0 {
			continue // duplicate rows
		}
		counts[d]++
		total++
	}

	var mode time.Duration
	best := 0
	for d, n := range counts {
		if n > best || (n == best && d < mode) {
			mode, best = d, n
		}
	}
	if total == 0 || best*2 < total {
		return 0, errors.New(errors.CodeInconsistentInterval, "no delta recurs with sufficient frequency").
			WithContext("deltas", total).
			WithContext("modeCount", best)
	}
	return mode, nil
}

// canonical formats a timestamp with the engine-wide layout.
func canonical(t time.Time) string {
	return t.Format(model.TimeLayout)
}
