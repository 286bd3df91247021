// Package batch converts many logger exports in one run. Items are
// independent: each is classified and encoded on its own, and one item's
// failure never aborts the rest.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/classify"
	"github.com/hydroflow/hydroflow/pkg/diag"
	"github.com/hydroflow/hydroflow/pkg/errors"
	"github.com/hydroflow/hydroflow/pkg/fdv"
	"github.com/hydroflow/hydroflow/pkg/geometry"
	"github.com/hydroflow/hydroflow/pkg/parser"
)

// Item is one unit of batch work.
type Item struct {
	Path string
	// Geometry is required for depth/velocity exports and ignored for
	// rainfall files.
	Geometry geometry.Descriptor
}

// ItemResult records the outcome of one item.
type ItemResult struct {
	Path       string
	OutputPath string
	SiteID     string
	Monitor    model.MonitorType
	Err        error
	ErrKind    errors.Code
	Elapsed    time.Duration
}

// OK reports whether the item converted successfully.
func (r ItemResult) OK() bool { return r.Err == nil }

// Summary is the outcome of a whole run.
type Summary struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Results   []ItemResult
	Succeeded int
	Failed    int
}

// Runner converts batches of logger exports into FDV files.
type Runner struct {
	classifier *classify.Classifier
	diag       *diag.Channel
	workers    int
	progress   func(done, total int)
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers caps concurrent conversions. Zero or negative selects
// min(GOMAXPROCS, item count).
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithProgress installs a callback invoked after each item completes.
func WithProgress(fn func(done, total int)) Option {
	return func(r *Runner) { r.progress = fn }
}

// NewRunner builds a Runner reporting into ch.
func NewRunner(ch *diag.Channel, opts ...Option) *Runner {
	if ch == nil {
		ch = diag.NewChannel(0)
	}
	r := &Runner{
		classifier: classify.New(classify.WithDiagnostics(ch)),
		diag:       ch,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run converts all items into outputDir. The destination is probed before
// any work starts; an unwritable directory fails the whole run. Item
// failures are recorded in the summary, not returned.
func (r *Runner) Run(ctx context.Context, items []Item, outputDir string) (*Summary, error) {
	if len(items) == 0 {
		return nil, errors.New(errors.CodeEmptyOrMalformed, "no items to process")
	}
	if err := probeWritable(outputDir); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Results: make([]ItemResult, len(items)),
	}
	r.diag.Infof("batch %s: %d items -> %s", summary.RunID, len(items), outputDir)

	workers := r.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(items) {
		workers = len(items)
	}

	names := newNameReserver(outputDir)
	var done int
	var doneMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				summary.Results[i] = ItemResult{Path: item.Path, Err: err, ErrKind: errors.CodeUnknown}
				return nil
			}
			started := time.Now()
			r.diag.Infof("batch item started: %s", item.Path)

			res := r.convert(ctx, item, names)
			res.Elapsed = time.Since(started)
			summary.Results[i] = res

			if res.OK() {
				r.diag.Infof("batch item succeeded: %s -> %s", item.Path, res.OutputPath)
			} else {
				r.diag.Errorf("batch item failed: %s: %v", item.Path, res.Err)
			}
			if r.progress != nil {
				doneMu.Lock()
				done++
				n := done
				doneMu.Unlock()
				r.progress(n, len(items))
			}
			return nil
		})
	}
	// Item failures land in Results, never in the group error.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Finished = time.Now()
	for _, res := range summary.Results {
		if res.OK() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	r.diag.Infof("batch %s finished: %d succeeded, %d failed", summary.RunID, summary.Succeeded, summary.Failed)
	return summary, nil
}

func (r *Runner) convert(ctx context.Context, item Item, names *nameReserver) ItemResult {
	res := ItemResult{Path: item.Path}
	fail := func(err error) ItemResult {
		res.Err = err
		res.ErrKind = errors.GetCode(err)
		return res
	}

	raw, err := parser.Read(ctx, item.Path)
	if err != nil {
		return fail(err)
	}
	file, err := r.classifier.Classify(ctx, raw)
	if err != nil {
		return fail(err)
	}
	res.SiteID = file.SiteID
	res.Monitor = file.MonitorType

	if file.MonitorType == model.MonitorRainfall {
		rainChans := file.Group(model.GroupRainfall)
		res.OutputPath = names.reserve(file.SiteID, ".r")
		err = fdv.WriteRainfall(res.OutputPath, file.Frame, fdv.RainfallOptions{
			SiteName:       file.SiteName,
			Start:          file.StartTimestamp,
			End:            file.EndTimestamp,
			Interval:       file.SampleInterval,
			RainfallColumn: rainChans[0].Name,
			Diagnostics:    r.diag,
		})
		if err != nil {
			return fail(err)
		}
		return res
	}

	if item.Geometry == nil {
		return fail(errors.New(errors.CodeInvalidDescriptor, "pipe geometry required for depth/velocity conversion").
			WithContext("path", item.Path))
	}
	depthChans := file.Group(model.GroupDepth)
	if len(depthChans) == 0 {
		return fail(errors.UnknownChannel("depth"))
	}
	velocityCol := ""
	if v := file.Group(model.GroupVelocity); len(v) > 0 {
		velocityCol = v[0].Name
	}

	res.OutputPath = names.reserve(file.SiteID, ".fdv")
	err = fdv.WriteFlow(res.OutputPath, file.Frame, fdv.FlowOptions{
		SiteName:       file.SiteName,
		Start:          file.StartTimestamp,
		End:            file.EndTimestamp,
		Interval:       file.SampleInterval,
		DepthColumn:    depthChans[0].Name,
		VelocityColumn: velocityCol,
		Geometry:       item.Geometry,
		Diagnostics:    r.diag,
	})
	if err != nil {
		return fail(err)
	}
	return res
}

// probeWritable verifies the batch destination before any item runs.
func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeOutputDirUnwritable, "create output directory").
			WithContext("dir", dir)
	}
	probe, err := os.CreateTemp(dir, ".probe*")
	if err != nil {
		return errors.Wrap(err, errors.CodeOutputDirUnwritable, "output directory not writable").
			WithContext("dir", dir)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// nameReserver hands out collision-free output paths: the second item
// resolving to a taken name gets a _1 suffix, the third _2, and so on.
type nameReserver struct {
	mu    sync.Mutex
	dir   string
	taken map[string]struct{}
}

func newNameReserver(dir string) *nameReserver {
	return &nameReserver{dir: dir, taken: make(map[string]struct{})}
}

func (n *nameReserver) reserve(base, ext string) string {
	if base == "" {
		base = "Unknown"
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	name := base + ext
	for i := 1; ; i++ {
		if _, dup := n.taken[name]; !dup {
			break
		}
		name = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
	n.taken[name] = struct{}{}
	return filepath.Join(n.dir, name)
}
