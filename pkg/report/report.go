// Package report builds interim survey reports: weekly summaries with a
// grand-total row, daily summaries, and rainfall totals, rendered as xlsx
// workbooks.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/errors"
	"github.com/hydroflow/hydroflow/pkg/rainfall"
)

// Kind selects which metric family an interim report summarizes.
type Kind string

const (
	KindFlow     Kind = "flow"
	KindDepth    Kind = "depth"
	KindRainfall Kind = "rainfall"
)

// KindForFile picks the report kind from the classified channel groups.
func KindForFile(file *model.ClassifiedFile) (Kind, error) {
	switch {
	case len(file.Group(model.GroupFlow)) > 0:
		return KindFlow, nil
	case len(file.Group(model.GroupDepth)) > 0:
		return KindDepth, nil
	case len(file.Group(model.GroupRainfall)) > 0:
		return KindRainfall, nil
	default:
		return "", errors.New(errors.CodeUnknownChannel, "no reportable channel group in file")
	}
}

// Table is one sheet of a report workbook.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]interface{}
}

// Report is a complete interim report: per-week summaries (closed by a
// grand-total row) plus per-day summaries.
type Report struct {
	Kind   Kind
	Weekly Table
	Daily  Table
}

const dateLayout = "2006-01-02"

// Generate builds the interim report for one channel of a classified file.
// An empty column name selects the first channel of the kind's group.
func Generate(file *model.ClassifiedFile, kind Kind, column string) (*Report, error) {
	group := map[Kind]model.ChannelGroup{
		KindFlow:     model.GroupFlow,
		KindDepth:    model.GroupDepth,
		KindRainfall: model.GroupRainfall,
	}[kind]
	if group == "" {
		return nil, errors.Newf(errors.CodeUnknownChannel, "unsupported report kind %q", kind)
	}

	if column == "" {
		chans := file.Group(group)
		if len(chans) == 0 {
			return nil, errors.Newf(errors.CodeUnknownChannel, "file has no %s channels", group)
		}
		column = chans[0].Name
	}
	values, ok := file.Frame.Column(column)
	if !ok {
		return nil, errors.UnknownChannel(column)
	}
	if file.Frame.Len() == 0 {
		return nil, errors.New(errors.CodeEmptyOrMalformed, "no samples to report on")
	}

	r := &Report{Kind: kind}
	switch kind {
	case KindFlow:
		r.Weekly = weeklyFlow(file.Frame.Timestamps, values, file.SampleInterval)
		r.Daily = dailyFlow(file.Frame.Timestamps, values, file.SampleInterval)
	case KindDepth:
		r.Weekly = weeklyDepth(file.Frame.Timestamps, values)
		r.Daily = dailyDepth(file.Frame.Timestamps, values)
	case KindRainfall:
		r.Weekly = weeklyRainfall(file.Frame.Timestamps, values)
		r.Daily = dailyRainfall(file.Frame.Timestamps, values)
	}
	return r, nil
}

// stats accumulates min/max/sum/count skipping missing readings.
type stats struct {
	min, max, sum float64
	n             int
}

func newStats() stats {
	return stats{min: math.Inf(1), max: math.Inf(-1)}
}

func (s *stats) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
	s.sum += v
	s.n++
}

func (s *stats) mean() float64 {
	if s.n == 0 {
		return 0
	}
	return s.sum / float64(s.n)
}

// weekWindows splits the sample range into 7-day windows starting at
// midnight of the first sample's day, returning per-window sample index
// ranges. Windows with no samples are skipped.
type window struct {
	start, end time.Time
	lo, hi     int
}

func weekWindows(timestamps []time.Time) []window {
	first := timestamps[0]
	cur := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())
	last := timestamps[len(timestamps)-1]

	var out []window
	i := 0
	for !cur.After(last) {
		end := cur.AddDate(0, 0, 6)
		end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
		lo := i
		for i < len(timestamps) && !timestamps[i].After(end) {
			i++
		}
		if i > lo {
			out = append(out, window{start: cur, end: end, lo: lo, hi: i})
		}
		cur = end.Add(time.Second)
	}
	return out
}

func weeklyFlow(timestamps []time.Time, flow []float64, interval time.Duration) Table {
	t := Table{
		Title:   "Weekly Summary",
		Headers: []string{"Interim Period", "Date Range", "Total Flow(m3)", "Max Flow(l/s)", "Min Flow(l/s)"},
	}
	grand := newStats()
	var grandTotal float64
	for i, w := range weekWindows(timestamps) {
		s := newStats()
		for _, v := range flow[w.lo:w.hi] {
			s.add(v)
		}
		total := s.sum * interval.Seconds() / 1000
		grandTotal += total
		grand.add(s.max)
		grand.add(s.min)
		t.Rows = append(t.Rows, []interface{}{
			fmt.Sprintf("Interim %d", i+1),
			w.start.Format(dateLayout) + " - " + w.end.Format(dateLayout),
			total, s.max, s.min,
		})
	}
	t.Rows = append(t.Rows, []interface{}{"Grand Total", "", grandTotal, grand.max, grand.min})
	return t
}

func weeklyDepth(timestamps []time.Time, depth []float64) Table {
	t := Table{
		Title:   "Weekly Summary",
		Headers: []string{"Interim Period", "Date Range", "Average Level(m)", "Max Level(m)", "Min Level(m)"},
	}
	grand := newStats()
	meanOfMeans := newStats()
	for i, w := range weekWindows(timestamps) {
		s := newStats()
		for _, v := range depth[w.lo:w.hi] {
			s.add(v)
		}
		meanOfMeans.add(s.mean())
		grand.add(s.max)
		grand.add(s.min)
		t.Rows = append(t.Rows, []interface{}{
			fmt.Sprintf("Interim %d", i+1),
			w.start.Format(dateLayout) + " - " + w.end.Format(dateLayout),
			s.mean(), s.max, s.min,
		})
	}
	t.Rows = append(t.Rows, []interface{}{"Grand Total", "", meanOfMeans.mean(), grand.max, grand.min})
	return t
}

func weeklyRainfall(timestamps []time.Time, rain []float64) Table {
	t := Table{
		Title:   "Weekly Summary",
		Headers: []string{"Interim Period", "Date Range", "Total Rainfall(mm)", "Max Rainfall(mm)", "Min Rainfall(mm)"},
	}
	grand := newStats()
	var grandTotal float64
	for i, w := range weekWindows(timestamps) {
		s := newStats()
		for _, v := range rain[w.lo:w.hi] {
			s.add(v)
		}
		grandTotal += s.sum
		grand.add(s.max)
		grand.add(s.min)
		t.Rows = append(t.Rows, []interface{}{
			fmt.Sprintf("Interim %d", i+1),
			w.start.Format(dateLayout) + " - " + w.end.Format(dateLayout),
			s.sum, s.max, s.min,
		})
	}
	t.Rows = append(t.Rows, []interface{}{"Grand Total", "", grandTotal, grand.max, grand.min})
	return t
}

// dayGroups returns per-calendar-day sample index ranges, in order.
func dayGroups(timestamps []time.Time) []window {
	var out []window
	i := 0
	for i < len(timestamps) {
		ts := timestamps[i]
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
		lo := i
		for i < len(timestamps) && sameDay(timestamps[i], day) {
			i++
		}
		out = append(out, window{start: day, lo: lo, hi: i})
	}
	return out
}

func sameDay(t, day time.Time) bool {
	return t.Year() == day.Year() && t.Month() == day.Month() && t.Day() == day.Day()
}

const dailyDateLayout = "02/01/2006"

func dailyFlow(timestamps []time.Time, flow []float64, interval time.Duration) Table {
	t := Table{
		Title:   "Daily Summary",
		Headers: []string{"Date", "Average Flow(l/s)", "Max Flow(l/s)", "Min Flow(l/s)", "Flow (m3)"},
	}
	for _, d := range dayGroups(timestamps) {
		s := newStats()
		for _, v := range flow[d.lo:d.hi] {
			s.add(v)
		}
		t.Rows = append(t.Rows, []interface{}{
			d.start.Format(dailyDateLayout),
			s.mean(), s.max, s.min, s.sum * interval.Seconds() / 1000,
		})
	}
	return t
}

func dailyDepth(timestamps []time.Time, depth []float64) Table {
	t := Table{
		Title:   "Daily Summary",
		Headers: []string{"Date", "Average Level(m)", "Max Level(m)", "Min Level(m)"},
	}
	for _, d := range dayGroups(timestamps) {
		s := newStats()
		for _, v := range depth[d.lo:d.hi] {
			s.add(v)
		}
		t.Rows = append(t.Rows, []interface{}{
			d.start.Format(dailyDateLayout), s.mean(), s.max, s.min,
		})
	}
	return t
}

func dailyRainfall(timestamps []time.Time, rain []float64) Table {
	t := Table{
		Title:   "Daily Summary",
		Headers: []string{"Date", "Total Rainfall(mm)", "Max Rainfall(mm)", "Min Rainfall(mm)"},
	}
	for _, d := range dayGroups(timestamps) {
		s := newStats()
		for _, v := range rain[d.lo:d.hi] {
			s.add(v)
		}
		t.Rows = append(t.Rows, []interface{}{
			d.start.Format(dailyDateLayout), s.sum, s.max, s.min,
		})
	}
	return t
}

// RainfallTotals builds daily and weekly rainfall-depth tables from an
// extracted series.
func RainfallTotals(s *rainfall.Series) (daily Table, weekly Table) {
	dayTotals := rainfall.DailyTotals(s)
	daily = Table{
		Title:   "Daily Totals",
		Headers: []string{"Date", "Daily Total (mm)"},
	}
	for _, d := range dayTotals {
		daily.Rows = append(daily.Rows, []interface{}{d.Date.Format(dateLayout), d.Total})
	}

	weekly = Table{
		Title:   "Weekly Totals",
		Headers: []string{"Week Starting", "Weekly Total (mm)"},
	}
	for _, w := range rainfall.WeeklyTotals(dayTotals) {
		weekly.Rows = append(weekly.Rows, []interface{}{w.WeekStarting.Format(dateLayout), w.Total})
	}
	return daily, weekly
}
