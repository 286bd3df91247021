// HydroFlow - flow survey data converter
// Converts messy logger exports (CSV, XLSX) to FDV interchange files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hydroflow/hydroflow/pkg/config"
	"github.com/hydroflow/hydroflow/pkg/diag"
	"github.com/hydroflow/hydroflow/pkg/engine"
	"github.com/hydroflow/hydroflow/pkg/geometry"
	"github.com/hydroflow/hydroflow/pkg/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	inputFile  string
	outputFile string
	verbose    bool

	// Channel selection flags
	depthChannel    string
	velocityChannel string
	rainfallChannel string

	// Site override flags
	siteID    string
	siteName  string
	startFlag string
	endFlag   string

	// Geometry flags
	pipeShape string
	pipeDims  string

	// Report flags
	reportKind string

	// Batch flags
	batchOutDir   string
	batchManifest string
	batchWorkers  int

	// Watch flags
	watchDir string
	watchOut string
)

var eng = engine.New()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		tui.PrintError(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hydroflow",
	Short: "HydroFlow - Convert flow survey logger exports to FDV",
	Long: `HydroFlow converts messy flow survey logger exports (CSV, XLSX) into
FDV interchange files, classifies depth/velocity/rainfall channels, and
builds interim survey reports.

Run without arguments to launch the interactive wizard.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
	RunE:    runWizard,
}

func init() {
	cobra.OnInitialize(func() {
		if err := config.Global().Load(); err != nil && verbose {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
	})

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print diagnostics after the command")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(rainfallCmd)
	rootCmd.AddCommand(totalsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(r3Cmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
}

// dumpDiagnostics prints the retained diagnostics window in verbose mode.
func dumpDiagnostics() {
	if !verbose {
		return
	}
	for _, ev := range eng.DrainRecentLogs() {
		fmt.Fprintf(os.Stderr, "%s [%s] %s\n", ev.Time.Format("15:04:05"), ev.Level, ev.Message)
	}
}

// streamDiagnostics mirrors live diagnostics to stderr until cancel is
// called. Used by long-running commands.
func streamDiagnostics() func() {
	events, cancel := eng.SubscribeLogs()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if ev.Level == diag.LevelInfo && !verbose {
				continue
			}
			fmt.Fprintf(os.Stderr, "%s [%s] %s\n", ev.Time.Format("15:04:05"), ev.Level, ev.Message)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// parseDims parses a comma-separated dimension list.
func parseDims(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	dims := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid dimension %q: %w", part, err)
		}
		dims = append(dims, v)
	}
	return dims, nil
}

// parseGeometry builds the pipe descriptor from the shape/dims flags.
func parseGeometry(shapeStr, dimsStr string) (geometry.Descriptor, error) {
	shape, err := geometry.ParseShape(shapeStr)
	if err != nil {
		return nil, err
	}
	dims, err := parseDims(dimsStr)
	if err != nil {
		return nil, err
	}
	return geometry.FromDimensions(shape, dims)
}

// applySiteOverrides pushes the site/window flags into the session.
func applySiteOverrides() error {
	if siteID != "" {
		if err := eng.UpdateSiteID(siteID); err != nil {
			return err
		}
	}
	if siteName != "" {
		if err := eng.UpdateSiteName(siteName); err != nil {
			return err
		}
	}
	if startFlag != "" || endFlag != "" {
		file, err := eng.Current()
		if err != nil {
			return err
		}
		start, end := file.StartTimestamp, file.EndTimestamp
		if startFlag != "" {
			if start, err = parseStamp(startFlag); err != nil {
				return err
			}
		}
		if endFlag != "" {
			if end, err = parseStamp(endFlag); err != nil {
				return err
			}
		}
		if err := eng.UpdateTimestamps(start, end); err != nil {
			return err
		}
	}
	return nil
}

func parseStamp(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q (want 2006-01-02 15:04:05)", s)
}
