// Package engine is the conversion engine facade: one entry point over
// classification, session metadata, FDV encoding, rainfall extraction,
// geometry solving, reporting, and batch runs. CLI commands and the watch
// loop talk only to this package.
package engine

import (
	"context"
	"time"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/batch"
	"github.com/hydroflow/hydroflow/pkg/classify"
	"github.com/hydroflow/hydroflow/pkg/diag"
	"github.com/hydroflow/hydroflow/pkg/errors"
	"github.com/hydroflow/hydroflow/pkg/fdv"
	"github.com/hydroflow/hydroflow/pkg/geometry"
	"github.com/hydroflow/hydroflow/pkg/parser"
	"github.com/hydroflow/hydroflow/pkg/rainfall"
	"github.com/hydroflow/hydroflow/pkg/report"
	"github.com/hydroflow/hydroflow/pkg/session"
)

// NoVelocity is the sentinel channel name meaning "export without a
// velocity channel".
const NoVelocity = "none"

// Engine wires the conversion pipeline together around one session.
type Engine struct {
	diag       *diag.Channel
	classifier *classify.Classifier
	session    *session.Store
}

// New builds an engine with a fresh session and diagnostics channel.
func New() *Engine {
	ch := diag.NewChannel(0)
	return &Engine{
		diag:       ch,
		classifier: classify.New(classify.WithDiagnostics(ch)),
		session:    session.NewStore(ch),
	}
}

// Diagnostics exposes the engine's diagnostics channel.
func (e *Engine) Diagnostics() *diag.Channel { return e.diag }

// fail mirrors an operation failure onto the diagnostics channel so the
// log view stays consistent with returned errors.
func (e *Engine) fail(op string, err error) error {
	if err != nil {
		e.diag.Errorf("%s: %v", op, err)
	}
	return err
}

// ClassifyFile reads and classifies a logger export, loading the result
// into the session.
func (e *Engine) ClassifyFile(ctx context.Context, path string) (*model.ClassifiedFile, error) {
	raw, err := parser.Read(ctx, path)
	if err != nil {
		return nil, e.fail("classify", err)
	}
	file, err := e.classifier.Classify(ctx, raw)
	if err != nil {
		return nil, e.fail("classify", err)
	}
	e.session.Load(file)
	return file, nil
}

// Current returns the loaded classified file.
func (e *Engine) Current() (*model.ClassifiedFile, error) {
	return e.session.Current()
}

// ResetSession discards the loaded file.
func (e *Engine) ResetSession() { e.session.Reset() }

// UpdateSiteID overrides the detected site identifier.
func (e *Engine) UpdateSiteID(id string) error {
	return e.fail("update site id", e.session.UpdateSiteID(id))
}

// UpdateSiteName overrides the detected site name.
func (e *Engine) UpdateSiteName(name string) error {
	return e.fail("update site name", e.session.UpdateSiteName(name))
}

// UpdateTimestamps narrows the export window.
func (e *Engine) UpdateTimestamps(start, end time.Time) error {
	return e.fail("update timestamps", e.session.UpdateTimestamps(start, end))
}

// EncodeFDV writes the loaded file's selected channels as a flow FDV.
// velocityChannel may be empty or NoVelocity when the site has no velocity
// sensor.
func (e *Engine) EncodeFDV(depthChannel, velocityChannel string, geom geometry.Descriptor, outputPath string) error {
	file, err := e.session.Current()
	if err != nil {
		return e.fail("encode fdv", err)
	}
	if _, ok := file.Channel(depthChannel); !ok {
		return e.fail("encode fdv", errors.UnknownChannel(depthChannel))
	}
	if velocityChannel == NoVelocity {
		velocityChannel = ""
	}
	if velocityChannel != "" {
		if _, ok := file.Channel(velocityChannel); !ok {
			return e.fail("encode fdv", errors.UnknownChannel(velocityChannel))
		}
	}
	if geom == nil {
		return e.fail("encode fdv", errors.New(errors.CodeInvalidDescriptor, "pipe geometry not set"))
	}

	frame := file.Frame.Slice(file.StartTimestamp, file.EndTimestamp)
	return e.fail("encode fdv", fdv.WriteFlow(outputPath, frame, fdv.FlowOptions{
		SiteName:       file.SiteName,
		Start:          file.StartTimestamp,
		End:            file.EndTimestamp,
		Interval:       file.SampleInterval,
		DepthColumn:    depthChannel,
		VelocityColumn: velocityChannel,
		Geometry:       geom,
		Diagnostics:    e.diag,
	}))
}

// ExtractRainfall writes the loaded file's rainfall channel as a rainfall
// FDV. An empty channel name selects the first rainfall channel.
func (e *Engine) ExtractRainfall(channel, outputPath string) error {
	file, err := e.session.Current()
	if err != nil {
		return e.fail("extract rainfall", err)
	}
	series, err := rainfall.Extract(file, channel)
	if err != nil {
		return e.fail("extract rainfall", err)
	}

	frame := file.Frame.Slice(file.StartTimestamp, file.EndTimestamp)
	return e.fail("extract rainfall", fdv.WriteRainfall(outputPath, frame, fdv.RainfallOptions{
		SiteName:       file.SiteName,
		Start:          file.StartTimestamp,
		End:            file.EndTimestamp,
		Interval:       file.SampleInterval,
		RainfallColumn: series.Channel,
		Diagnostics:    e.diag,
	}))
}

// TotalizeRainfall aggregates the loaded rainfall channel into fixed
// periods aligned to the series start.
func (e *Engine) TotalizeRainfall(channel string, period time.Duration) ([]rainfall.PeriodTotal, error) {
	file, err := e.session.Current()
	if err != nil {
		return nil, e.fail("totalize rainfall", err)
	}
	series, err := rainfall.Extract(file, channel)
	if err != nil {
		return nil, e.fail("totalize rainfall", err)
	}
	totals, err := rainfall.Totalize(series, period)
	return totals, e.fail("totalize rainfall", err)
}

// SolveR3 runs the egg-pipe flank radius solver. Failures of any kind
// surface as the -1 sentinel.
func (e *Engine) SolveR3(width, height float64, eggForm int) float64 {
	return geometry.SolveR3(width, height, eggForm)
}

// GenerateInterimReport writes the interim report workbook for the loaded
// file. Kind and channel are inferred when empty.
func (e *Engine) GenerateInterimReport(kind report.Kind, channel, outputPath string) error {
	file, err := e.session.Current()
	if err != nil {
		return e.fail("interim report", err)
	}
	if kind == "" {
		kind, err = report.KindForFile(file)
		if err != nil {
			return e.fail("interim report", err)
		}
	}
	r, err := report.Generate(file, kind, channel)
	if err != nil {
		return e.fail("interim report", err)
	}
	e.diag.Infof("interim report (%s) -> %s", kind, outputPath)
	return e.fail("interim report", report.WriteReport(outputPath, r))
}

// GenerateRainfallTotals writes the daily/weekly rainfall totals workbook.
func (e *Engine) GenerateRainfallTotals(channel, outputPath string) error {
	file, err := e.session.Current()
	if err != nil {
		return e.fail("rainfall totals", err)
	}
	series, err := rainfall.Extract(file, channel)
	if err != nil {
		return e.fail("rainfall totals", err)
	}
	daily, weekly := report.RainfallTotals(series)
	e.diag.Infof("rainfall totals -> %s", outputPath)
	return e.fail("rainfall totals", report.WriteWorkbook(outputPath, daily, weekly))
}

// RunBatch converts items into outputDir with bounded parallelism.
func (e *Engine) RunBatch(ctx context.Context, items []batch.Item, outputDir string, opts ...batch.Option) (*batch.Summary, error) {
	runner := batch.NewRunner(e.diag, opts...)
	summary, err := runner.Run(ctx, items, outputDir)
	return summary, e.fail("batch", err)
}

// DrainRecentLogs returns the retained diagnostics window.
func (e *Engine) DrainRecentLogs() []diag.Event { return e.diag.Drain() }

// SubscribeLogs returns a live diagnostics feed and its cancel function.
func (e *Engine) SubscribeLogs() (<-chan diag.Event, func()) { return e.diag.Subscribe() }
