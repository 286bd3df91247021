package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/tui"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a depth/velocity export to a flow FDV",
	Long: `Classify a logger export and encode the selected depth and velocity
channels as a flow FDV file.

Examples:
  hydroflow convert -i site42.csv -o site42.fdv --shape circular --dims 450
  hydroflow convert -i site42.xlsx -o out.fdv --shape egg1 --dims 0.6,0.9
  hydroflow convert -i site42.csv -o out.fdv --shape rectangular --dims 300,600 --velocity none`,
	RunE: runConvert,
}

var rainfallCmd = &cobra.Command{
	Use:   "rainfall",
	Short: "Convert a rainfall export to a rainfall FDV",
	Long: `Classify a logger export and encode its rainfall channel as a rainfall
FDV file, spreading tip-bucket bursts over preceding dry samples.

Examples:
  hydroflow rainfall -i gauge7.csv -o gauge7.r
  hydroflow rainfall -i gauge7.csv -o gauge7.r --channel "7001_1|Rainfall|mm"`,
	RunE: runRainfall,
}

func init() {
	convertCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file path (required)")
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output FDV file path (required)")
	convertCmd.Flags().StringVar(&depthChannel, "depth", "", "Depth channel name (default: first depth channel)")
	convertCmd.Flags().StringVar(&velocityChannel, "velocity", "", "Velocity channel name, or 'none' (default: first velocity channel)")
	convertCmd.Flags().StringVar(&pipeShape, "shape", "", "Pipe shape: circular, rectangular, egg1, egg2, egg2a, twocirclerect (required)")
	convertCmd.Flags().StringVar(&pipeDims, "dims", "", "Pipe dimensions, comma separated (required, see shape docs)")
	convertCmd.Flags().StringVar(&siteID, "site-id", "", "Override the detected site identifier")
	convertCmd.Flags().StringVar(&siteName, "site-name", "", "Override the detected site name")
	convertCmd.Flags().StringVar(&startFlag, "start", "", "Export window start (2006-01-02 15:04:05)")
	convertCmd.Flags().StringVar(&endFlag, "end", "", "Export window end")
	convertCmd.MarkFlagRequired("input")
	convertCmd.MarkFlagRequired("output")
	convertCmd.MarkFlagRequired("shape")
	convertCmd.MarkFlagRequired("dims")

	rainfallCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file path (required)")
	rainfallCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output rainfall FDV path (required)")
	rainfallCmd.Flags().StringVar(&rainfallChannel, "channel", "", "Rainfall channel name (default: first rainfall channel)")
	rainfallCmd.Flags().StringVar(&siteID, "site-id", "", "Override the detected site identifier")
	rainfallCmd.Flags().StringVar(&siteName, "site-name", "", "Override the detected site name")
	rainfallCmd.Flags().StringVar(&startFlag, "start", "", "Export window start (2006-01-02 15:04:05)")
	rainfallCmd.Flags().StringVar(&endFlag, "end", "", "Export window end")
	rainfallCmd.MarkFlagRequired("input")
	rainfallCmd.MarkFlagRequired("output")
}

func runConvert(cmd *cobra.Command, args []string) error {
	defer dumpDiagnostics()

	geom, err := parseGeometry(pipeShape, pipeDims)
	if err != nil {
		return err
	}

	file, err := eng.ClassifyFile(cmd.Context(), inputFile)
	if err != nil {
		return err
	}
	if err := applySiteOverrides(); err != nil {
		return err
	}

	depth := depthChannel
	if depth == "" {
		chans := file.Group(model.GroupDepth)
		if len(chans) == 0 {
			return fmt.Errorf("%s has no depth channels", inputFile)
		}
		depth = chans[0].Name
	}
	velocity := velocityChannel
	if velocity == "" {
		if chans := file.Group(model.GroupVelocity); len(chans) > 0 {
			velocity = chans[0].Name
		}
	}

	started := time.Now()
	if err := eng.EncodeFDV(depth, velocity, geom, outputFile); err != nil {
		return err
	}
	printReport(outputFile, file, started)
	return nil
}

func runRainfall(cmd *cobra.Command, args []string) error {
	defer dumpDiagnostics()

	file, err := eng.ClassifyFile(cmd.Context(), inputFile)
	if err != nil {
		return err
	}
	if err := applySiteOverrides(); err != nil {
		return err
	}

	started := time.Now()
	if err := eng.ExtractRainfall(rainfallChannel, outputFile); err != nil {
		return err
	}
	printReport(outputFile, file, started)
	return nil
}

func printReport(path string, file *model.ClassifiedFile, started time.Time) {
	size := int64(0)
	if stat, err := os.Stat(path); err == nil {
		size = stat.Size()
	}
	tui.PrintConversionReport(&tui.ConversionReport{
		OutputPath: path,
		Samples:    file.Frame.Len(),
		OutputSize: size,
		Duration:   time.Since(started),
	})
}

// runWizard drives the interactive conversion flow.
func runWizard(cmd *cobra.Command, args []string) error {
	// If subcommand was invoked, don't run wizard
	if cmd.CalledAs() != "hydroflow" && cmd.CalledAs() != "" {
		return nil
	}

	// Check if running in a terminal
	if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		// Not a terminal, show help instead
		return cmd.Help()
	}

	tui.Header(version)
	p := tui.NewPrompter()

	input, err := p.AskInputFile()
	if err != nil {
		return err
	}
	file, err := eng.ClassifyFile(cmd.Context(), input)
	if err != nil {
		return err
	}
	tui.ShowClassification(file)

	fmt.Println()
	id, _ := p.AskString("site id", file.SiteID)
	name, _ := p.AskString("site name", file.SiteName)
	if err := eng.UpdateSiteID(id); err != nil {
		return err
	}
	if err := eng.UpdateSiteName(name); err != nil {
		return err
	}

	if file.MonitorType == model.MonitorRainfall {
		output := strings.TrimSuffix(input, filepath.Ext(input)) + ".r"
		ok, err := p.ConfirmConversion(input, output)
		if err != nil || !ok {
			return err
		}
		outputFile = output
		started := time.Now()
		if err := eng.ExtractRainfall("", output); err != nil {
			return err
		}
		printReport(output, file, started)
		return nil
	}

	shape, _ := p.AskString("pipe shape", "circular")
	dims, _ := p.AskString("pipe dimensions (mm for circular/rectangular)", "")
	geom, err := parseGeometry(shape, dims)
	if err != nil {
		return err
	}

	depth := ""
	if chans := file.Group(model.GroupDepth); len(chans) > 0 {
		depth, _ = p.AskString("depth channel", chans[0].Name)
	} else {
		return fmt.Errorf("%s has no depth channels", input)
	}
	velocity := ""
	if chans := file.Group(model.GroupVelocity); len(chans) > 0 {
		velocity, _ = p.AskString("velocity channel", chans[0].Name)
	}

	output := strings.TrimSuffix(input, filepath.Ext(input)) + ".fdv"
	ok, err := p.ConfirmConversion(input, output)
	if err != nil || !ok {
		return err
	}
	started := time.Now()
	if err := eng.EncodeFDV(depth, velocity, geom, output); err != nil {
		return err
	}
	printReport(output, file, started)
	return nil
}
