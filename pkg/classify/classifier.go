// Package classify turns raw logger exports into typed, regularly-gridded
// classified files. It owns the column heuristics: which column is the
// timestamp, which are depth/velocity/flow/rainfall, what the sampling
// interval is, and who the site is.
package classify

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/diag"
	"github.com/hydroflow/hydroflow/pkg/errors"
)

// sampleRows bounds how many rows format detection inspects.
const sampleRows = 100

// Classifier classifies raw tables using a configurable rule set.
type Classifier struct {
	rules             []Rule
	timestampKeywords []string
	diag              *diag.Channel
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRules replaces the default classification rule table.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) { c.rules = rules }
}

// WithTimestampKeywords replaces the default timestamp header keywords.
func WithTimestampKeywords(keywords []string) Option {
	return func(c *Classifier) { c.timestampKeywords = keywords }
}

// WithDiagnostics routes skipped/unclassified column events to a channel.
func WithDiagnostics(d *diag.Channel) Option {
	return func(c *Classifier) { c.diag = d }
}

// New creates a Classifier with the default rules and keywords.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		rules:             DefaultRules,
		timestampKeywords: DefaultTimestampKeywords,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify is a pure transform over the raw table: same bytes in, same
// classified file out. Diagnostic events are its only side channel.
func (c *Classifier) Classify(ctx context.Context, raw *model.RawTable) (*model.ClassifiedFile, error) {
	if raw == nil || len(raw.Headers) == 0 || len(raw.Rows) == 0 {
		return nil, errors.New(errors.CodeEmptyOrMalformed, "input has no header row or no data")
	}

	tsCol, err := findTimestampColumn(raw.Headers, c.timestampKeywords)
	if err != nil {
		return nil, err
	}

	layout, err := identifyLayout(raw.Rows, tsCol, sampleRows)
	if err != nil {
		return nil, err
	}

	// Parse every row's timestamp; rows that fail to parse are dropped
	// from the grid but reported.
	type parsedRow struct {
		t   time.Time
		row []string
	}
	parsed := make([]parsedRow, 0, len(raw.Rows))
	skipped := 0
	for _, row := range raw.Rows {
		if tsCol >= len(row) {
			skipped++
			continue
		}
		t, ok := parseTimestamp(row[tsCol], layout)
		if !ok {
			skipped++
			continue
		}
		parsed = append(parsed, parsedRow{t: t, row: row})
	}
	if len(parsed) == 0 {
		return nil, errors.New(errors.CodeEmptyOrMalformed, "no rows carry a parseable timestamp")
	}
	if skipped > 0 && c.diag != nil {
		c.diag.Warnf("classify: skipped %d rows with unparseable timestamps in %s", skipped, raw.Path)
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].t.Before(parsed[j].t) })

	sorted := make([]time.Time, len(parsed))
	for i, p := range parsed {
		sorted[i] = p.t
	}
	interval, err := modeInterval(sorted)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Assign columns to groups. Duplicate header names cannot be told
	// apart when selecting channels, so they fail classification.
	groups := make(map[model.ChannelGroup][]model.ChannelDescriptor)
	seen := make(map[string]bool)
	for i, header := range raw.Headers {
		if i == tsCol {
			continue
		}
		name := strings.TrimSpace(header)
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, errors.AmbiguousColumns([]string{name, name})
		}
		seen[name] = true

		group, site, unit := Match(c.rules, name)
		desc := model.ChannelDescriptor{
			Name:        name,
			ColumnIndex: i,
			Unit:        unit,
			Qualifier:   site,
		}
		groups[group] = append(groups[group], desc)
		if group == model.GroupUnclassified && c.diag != nil {
			c.diag.Infof("classify: column %q matched no known pattern, excluded from selection", name)
		}
	}

	// Re-grid the data onto the interval so every slot between start and
	// end exists exactly once; slots with no source row carry NaN.
	start, end := sorted[0], sorted[len(sorted)-1]
	byStamp := make(map[string][]string, len(parsed))
	for _, p := range parsed {
		byStamp[canonical(p.t)] = p.row
	}

	var grid []time.Time
	for t := start; !t.After(end); t = t.Add(interval) {
		grid = append(grid, t)
	}

	frame := model.NewFrame(grid)
	gaps := 0
	for _, t := range grid {
		if _, ok := byStamp[canonical(t)]; !ok {
			gaps++
		}
	}
	for col, header := range raw.Headers {
		if col == tsCol {
			continue
		}
		name := strings.TrimSpace(header)
		if name == "" {
			continue
		}
		values := make([]float64, len(grid))
		for i, t := range grid {
			values[i] = math.NaN()
			row, ok := byStamp[canonical(t)]
			if !ok || col >= len(row) {
				continue
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64); err == nil {
				values[i] = v
			}
		}
		frame.AddColumn(name, values)
	}

	siteID, siteName := extractSiteIdentity(raw.Path, groups)

	cf := &model.ClassifiedFile{
		ChannelGroups:  groups,
		MonitorType:    deriveMonitorType(groups),
		StartTimestamp: start,
		EndTimestamp:   end,
		SampleInterval: interval,
		SiteID:         siteID,
		SiteName:       siteName,
		Frame:          frame,
		GapsFilled:     gaps,
	}

	if c.diag != nil {
		c.diag.Infof("classified %s: monitor=%s interval=%s range=%s..%s gaps=%d",
			raw.Path, cf.MonitorType, interval, canonical(start), canonical(end), gaps)
	}
	return cf, nil
}

// deriveMonitorType maps non-empty channel groups to a monitor type.
// Depth plus velocity means a combination monitor; a single populated
// group names itself; everything else is unknown.
func deriveMonitorType(groups map[model.ChannelGroup][]model.ChannelDescriptor) model.MonitorType {
	has := func(g model.ChannelGroup) bool { return len(groups[g]) > 0 }

	switch {
	case has(model.GroupDepth) && has(model.GroupVelocity):
		return model.MonitorCombination
	case has(model.GroupDepth):
		return model.MonitorDepth
	case has(model.GroupVelocity):
		return model.MonitorVelocity
	case has(model.GroupRainfall):
		return model.MonitorRainfall
	default:
		return model.MonitorUnknown
	}
}
