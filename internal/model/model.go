// Package model defines the core data structures shared across HydroFlow.
package model

import (
	"math"
	"time"
)

// MonitorType describes what kind of sensor produced a logger export.
type MonitorType string

const (
	MonitorDepth       MonitorType = "Depth"
	MonitorVelocity    MonitorType = "Velocity"
	MonitorRainfall    MonitorType = "Rainfall"
	MonitorCombination MonitorType = "Combination"
	MonitorUnknown     MonitorType = "Unknown"
)

// ChannelGroup names one class of measured columns.
type ChannelGroup string

const (
	GroupDepth        ChannelGroup = "depth"
	GroupVelocity     ChannelGroup = "velocity"
	GroupFlow         ChannelGroup = "flow"
	GroupRainfall     ChannelGroup = "rainfall"
	GroupUnclassified ChannelGroup = "unclassified"
)

// RawTable is a logger export as read from disk: a header row plus
// string-valued data rows. Produced by pkg/parser, consumed by pkg/classify.
type RawTable struct {
	Path    string
	Headers []string
	Rows    [][]string
}

// ChannelDescriptor identifies one measured column of a classified file.
// Names are unique within a ClassifiedFile.
type ChannelDescriptor struct {
	Name        string
	ColumnIndex int
	// Unit is the measurement unit captured from the header, if any
	// (e.g. "mm", "m/s").
	Unit string
	// Qualifier carries the site/sensor prefix captured from headers of
	// the form "1234_1|Depth|mm", if present.
	Qualifier string
}

// ClassifiedFile is the result of classifying one raw export. Immutable
// once produced except for the site identity fields, which the session
// store keeps in sync with user edits.
type ClassifiedFile struct {
	ChannelGroups map[ChannelGroup][]ChannelDescriptor
	MonitorType   MonitorType

	StartTimestamp time.Time
	EndTimestamp   time.Time
	// SampleInterval is the mode of consecutive timestamp deltas.
	SampleInterval time.Duration

	SiteID   string
	SiteName string

	// Frame holds the sample data re-gridded onto the sample interval.
	Frame *Frame
	// GapsFilled counts grid slots that had no source row.
	GapsFilled int
}

// Channel looks up a channel by name across all groups.
func (cf *ClassifiedFile) Channel(name string) (ChannelDescriptor, bool) {
	for _, group := range cf.ChannelGroups {
		for _, ch := range group {
			if ch.Name == name {
				return ch, true
			}
		}
	}
	return ChannelDescriptor{}, false
}

// Group returns the descriptors of one channel group.
func (cf *ClassifiedFile) Group(g ChannelGroup) []ChannelDescriptor {
	return cf.ChannelGroups[g]
}

// SiteIdentity is the session-owned identity of the loaded file.
type SiteIdentity struct {
	SiteID         string
	SiteName       string
	StartTimestamp time.Time
	EndTimestamp   time.Time
}

// Frame holds sample values on a regular timestamp grid. Missing or
// unparseable values are stored as NaN so record cardinality survives
// re-gridding.
type Frame struct {
	Timestamps []time.Time
	columns    map[string][]float64
	order      []string
}

// NewFrame creates a frame over the given timestamp grid.
func NewFrame(timestamps []time.Time) *Frame {
	return &Frame{
		Timestamps: timestamps,
		columns:    make(map[string][]float64),
	}
}

// AddColumn registers a value column. The slice length must match the grid.
func (f *Frame) AddColumn(name string, values []float64) {
	if _, ok := f.columns[name]; !ok {
		f.order = append(f.order, name)
	}
	f.columns[name] = values
}

// Column returns the values of a named column.
func (f *Frame) Column(name string) ([]float64, bool) {
	v, ok := f.columns[name]
	return v, ok
}

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.order...)
}

// Len returns the number of grid rows.
func (f *Frame) Len() int {
	return len(f.Timestamps)
}

// NullCount counts NaN entries in a column.
func (f *Frame) NullCount(name string) int {
	n := 0
	for _, v := range f.columns[name] {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Slice returns a view of the frame restricted to [start, end] inclusive.
// Timestamps outside the grid simply narrow to the overlap; a window with
// no overlap yields an empty frame.
func (f *Frame) Slice(start, end time.Time) *Frame {
	lo, hi := 0, len(f.Timestamps)
	for lo < hi && f.Timestamps[lo].Before(start) {
		lo++
	}
	for hi > lo && f.Timestamps[hi-1].After(end) {
		hi--
	}
	out := NewFrame(f.Timestamps[lo:hi])
	for _, name := range f.order {
		out.AddColumn(name, f.columns[name][lo:hi])
	}
	return out
}

// TimeLayout is the canonical timestamp layout used throughout HydroFlow.
const TimeLayout = "2006-01-02 15:04:05"
