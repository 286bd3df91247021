package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hydroflow/hydroflow/pkg/batch"
	"github.com/hydroflow/hydroflow/pkg/config"
	"github.com/hydroflow/hydroflow/pkg/geometry"
	"github.com/hydroflow/hydroflow/pkg/tui"
	"github.com/hydroflow/hydroflow/pkg/watch"
)

var batchCmd = &cobra.Command{
	Use:   "batch [files...]",
	Short: "Convert many exports in one run",
	Long: `Convert a set of logger exports into FDV files. Items are processed
concurrently and independently: one failure never aborts the rest.
Output names derive from each file's detected site id; collisions get a
_1/_2 suffix.

Geometry comes either from --shape/--dims (applied to every depth/velocity
file) or from a YAML manifest with per-file entries:

  items:
    - path: site42.csv
      shape: circular
      dims: [450]
    - path: gauge7.csv      # rainfall, no geometry needed

Examples:
  hydroflow batch *.csv --out fdv/ --shape circular --dims 450
  hydroflow batch --manifest survey.yaml --out fdv/`,
	RunE: runBatch,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a drop directory and convert incoming exports",
	Long: `Watch a directory for new or rewritten logger exports and convert each
one as it settles. Rainfall files convert on their own; depth/velocity
files use the --shape/--dims geometry.

Examples:
  hydroflow watch --dir incoming/ --out fdv/ --shape circular --dims 450`,
	RunE: runWatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchOutDir, "out", "", "Output directory (required)")
	batchCmd.Flags().StringVar(&batchManifest, "manifest", "", "YAML manifest with per-file geometry")
	batchCmd.Flags().StringVar(&pipeShape, "shape", "", "Pipe shape applied to all depth/velocity files")
	batchCmd.Flags().StringVar(&pipeDims, "dims", "", "Pipe dimensions applied to all depth/velocity files")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Max concurrent conversions (0 = auto)")
	batchCmd.MarkFlagRequired("out")

	watchCmd.Flags().StringVar(&watchDir, "dir", "", "Directory to watch (required)")
	watchCmd.Flags().StringVar(&watchOut, "out", "", "Output directory (required)")
	watchCmd.Flags().StringVar(&pipeShape, "shape", "", "Pipe shape for depth/velocity files")
	watchCmd.Flags().StringVar(&pipeDims, "dims", "", "Pipe dimensions for depth/velocity files")
	watchCmd.MarkFlagRequired("dir")
	watchCmd.MarkFlagRequired("out")
}

// manifest mirrors the batch YAML file.
type manifest struct {
	Items []manifestItem `yaml:"items"`
}

type manifestItem struct {
	Path  string    `yaml:"path"`
	Shape string    `yaml:"shape"`
	Dims  []float64 `yaml:"dims"`
}

func loadManifest(path string) ([]batch.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	base := filepath.Dir(path)
	items := make([]batch.Item, 0, len(m.Items))
	for _, entry := range m.Items {
		itemPath := entry.Path
		if !filepath.IsAbs(itemPath) {
			itemPath = filepath.Join(base, itemPath)
		}
		item := batch.Item{Path: itemPath}
		if entry.Shape != "" {
			shape, err := geometry.ParseShape(entry.Shape)
			if err != nil {
				return nil, err
			}
			if item.Geometry, err = geometry.FromDimensions(shape, entry.Dims); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	defer dumpDiagnostics()

	var items []batch.Item
	var err error

	switch {
	case batchManifest != "":
		if items, err = loadManifest(batchManifest); err != nil {
			return err
		}
	case len(args) > 0:
		var geom geometry.Descriptor
		if pipeShape != "" {
			if geom, err = parseGeometry(pipeShape, pipeDims); err != nil {
				return err
			}
		}
		for _, path := range args {
			items = append(items, batch.Item{Path: path, Geometry: geom})
		}
	default:
		return fmt.Errorf("no input files: pass files as arguments or use --manifest")
	}

	workers := batchWorkers
	if workers == 0 {
		workers = config.Global().Get().Batch.Workers
	}

	bar := tui.ShowProgress(int64(len(items)), "converting")
	summary, err := eng.RunBatch(cmd.Context(), items, batchOutDir,
		batch.WithWorkers(workers),
		batch.WithProgress(func(done, total int) { bar.Set(done) }),
	)
	if err != nil {
		return err
	}
	bar.Finish()
	tui.ClearLine()

	for _, res := range summary.Results {
		tui.PrintBatchLine(res.OK(), res.Path, res.OutputPath, res.Err)
	}
	fmt.Printf("\nBatch %s: %d succeeded, %d failed (%s)\n",
		summary.RunID, summary.Succeeded, summary.Failed,
		summary.Finished.Sub(summary.Started).Round(time.Millisecond))

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d items failed", summary.Failed, len(items))
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	var geom geometry.Descriptor
	var err error
	if pipeShape != "" {
		if geom, err = parseGeometry(pipeShape, pipeDims); err != nil {
			return err
		}
	}

	cfg := config.Global().Get().Watch
	watcher, err := watch.NewWatcher(cfg.Debounce, cfg.Patterns)
	if err != nil {
		return err
	}
	defer watcher.Close()

	stop := streamDiagnostics()
	defer stop()

	watcher.OnFile = func(path string) error {
		summary, err := eng.RunBatch(cmd.Context(),
			[]batch.Item{{Path: path, Geometry: geom}}, watchOut)
		if err != nil {
			return err
		}
		res := summary.Results[0]
		tui.PrintBatchLine(res.OK(), res.Path, res.OutputPath, res.Err)
		return nil
	}
	watcher.OnError = func(path string, err error) {
		if path == "" {
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "watch: %s: %v\n", path, err)
	}

	if err := watcher.Watch(watchDir); err != nil {
		return err
	}
	fmt.Printf("Watching %s -> %s (ctrl-c to stop)\n", watchDir, watchOut)
	if err := watcher.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
