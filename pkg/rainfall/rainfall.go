// Package rainfall extracts rainfall intensity series from classified
// files and aggregates them into contiguous period totals.
package rainfall

import (
	"math"
	"time"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/errors"
)

// Series is one extracted rainfall channel. Values are intensities in
// mm/hr on the classified file's sample grid; NaN marks missing readings.
type Series struct {
	Channel    string
	Timestamps []time.Time
	Values     []float64
	Interval   time.Duration
}

// Extract pulls the rainfall channel out of a classified file. When name
// is empty the first rainfall channel is used. Files without a rainfall
// group fail with NoRainfallData.
func Extract(file *model.ClassifiedFile, name string) (*Series, error) {
	group := file.Group(model.GroupRainfall)
	if len(group) == 0 {
		return nil, errors.New(errors.CodeNoRainfallData, "file has no rainfall channels").
			WithContext("monitorType", file.MonitorType)
	}

	if name == "" {
		name = group[0].Name
	} else {
		found := false
		for _, ch := range group {
			if ch.Name == name {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.UnknownChannel(name)
		}
	}

	values, ok := file.Frame.Column(name)
	if !ok {
		return nil, errors.UnknownChannel(name)
	}
	return &Series{
		Channel:    name,
		Timestamps: file.Frame.Timestamps,
		Values:     values,
		Interval:   file.SampleInterval,
	}, nil
}

// PeriodTotal is the rainfall depth accumulated over one period.
type PeriodTotal struct {
	Start time.Time
	End   time.Time
	// Total is rainfall depth in mm: intensity samples scaled by the
	// fraction of an hour each sample covers.
	Total float64
	// Samples counts non-missing readings in the period.
	Samples int
}

// Totalize sums a series into fixed-length periods aligned to the series
// start. Every period between the first and last sample is emitted, zero
// total included, so consumers get a contiguous sequence.
func Totalize(s *Series, period time.Duration) ([]PeriodTotal, error) {
	if period <= 0 {
		return nil, errors.New(errors.CodeInvalidRange, "period must be positive").
			WithContext("period", period.String())
	}
	if len(s.Timestamps) == 0 {
		return nil, nil
	}

	// Intensity is mm/hr; each sample contributes interval/hour of depth.
	scale := s.Interval.Hours()

	start := s.Timestamps[0]
	last := s.Timestamps[len(s.Timestamps)-1]
	n := int(last.Sub(start)/period) + 1

	totals := make([]PeriodTotal, n)
	for i := range totals {
		totals[i].Start = start.Add(time.Duration(i) * period)
		totals[i].End = totals[i].Start.Add(period)
	}
	for i, ts := range s.Timestamps {
		idx := int(ts.Sub(start) / period)
		if idx < 0 || idx >= n {
			continue
		}
		v := s.Values[i]
		if math.IsNaN(v) {
			continue
		}
		totals[idx].Total += v * scale
		totals[idx].Samples++
	}
	return totals, nil
}

// DayTotal is the rainfall depth recorded on one calendar day.
type DayTotal struct {
	Date  time.Time
	Total float64
}

// DailyTotals buckets a series by calendar day.
func DailyTotals(s *Series) []DayTotal {
	if len(s.Timestamps) == 0 {
		return nil
	}
	scale := s.Interval.Hours()

	var out []DayTotal
	byDay := map[time.Time]int{}
	for i, ts := range s.Timestamps {
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
		idx, ok := byDay[day]
		if !ok {
			idx = len(out)
			byDay[day] = idx
			out = append(out, DayTotal{Date: day})
		}
		if v := s.Values[i]; !math.IsNaN(v) {
			out[idx].Total += v * scale
		}
	}
	return out
}

// WeekTotal is the rainfall depth recorded in one ISO week.
type WeekTotal struct {
	// WeekStarting is the earliest day with data in the week.
	WeekStarting time.Time
	Total        float64
}

// WeeklyTotals rolls daily totals up by ISO year/week.
func WeeklyTotals(daily []DayTotal) []WeekTotal {
	type key struct{ year, week int }

	var out []WeekTotal
	byWeek := map[key]int{}
	for _, d := range daily {
		y, w := d.Date.ISOWeek()
		k := key{y, w}
		idx, ok := byWeek[k]
		if !ok {
			idx = len(out)
			byWeek[k] = idx
			out = append(out, WeekTotal{WeekStarting: d.Date})
		}
		if d.Date.Before(out[idx].WeekStarting) {
			out[idx].WeekStarting = d.Date
		}
		out[idx].Total += d.Total
	}
	return out
}
