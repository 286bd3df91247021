// Package tui provides the interactive CLI surface.
// Simple, streaming, no complex TUI - just clean prompts and output.
package tui

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/hydroflow/hydroflow/internal/model"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#0088CC")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	warning = lipgloss.Color("#CCAA00")
	failure = lipgloss.Color("#FF0000")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Foreground(failure).Bold(true)
	codeStyle    = lipgloss.NewStyle().Background(lipgloss.Color("#1a1a1a")).Foreground(white).Padding(0, 1)
)

// WizardResult holds the conversion configuration collected interactively.
type WizardResult struct {
	InputFile       string
	OutputFile      string
	SiteID          string
	SiteName        string
	DepthChannel    string
	VelocityChannel string
	PipeShape       string
	PipeDimensions  string
}

// Prompter runs the interactive conversion wizard step by step. The
// classification happens between steps, so the caller drives the flow.
type Prompter struct {
	reader *bufio.Reader
}

// NewPrompter builds a Prompter over stdin.
func NewPrompter() *Prompter {
	return &Prompter{reader: bufio.NewReader(os.Stdin)}
}

// Header prints the banner.
func Header(version string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  HYDROFLOW") + mutedStyle.Render(" v"+version))
	fmt.Println(mutedStyle.Render("  Flow survey data converter"))
	fmt.Println()
}

// AskInputFile prompts for the logger export to convert.
func (p *Prompter) AskInputFile() (string, error) {
	fmt.Println()
	fmt.Println(accentStyle.Render("▸ SELECT INPUT FILE"))
	fmt.Println(mutedStyle.Render("  Drag & drop a file, or type the path:"))
	fmt.Println()
	return p.promptPath("  Input: ")
}

// ShowClassification prints the classification result summary.
func ShowClassification(file *model.ClassifiedFile) {
	fmt.Println()
	fmt.Println(mutedStyle.Render("  ─────────────────────────────────────"))
	fmt.Printf("  %s %s\n", mutedStyle.Render("Monitor:"), titleStyle.Render(string(file.MonitorType)))
	fmt.Printf("  %s %s (%s)\n", mutedStyle.Render("Site:"), titleStyle.Render(file.SiteID), file.SiteName)
	fmt.Printf("  %s %s .. %s @ %s\n",
		mutedStyle.Render("Range:"),
		file.StartTimestamp.Format(model.TimeLayout),
		file.EndTimestamp.Format(model.TimeLayout),
		file.SampleInterval)
	for _, group := range []model.ChannelGroup{model.GroupDepth, model.GroupVelocity, model.GroupFlow, model.GroupRainfall} {
		chans := file.Group(group)
		if len(chans) == 0 {
			continue
		}
		names := make([]string, len(chans))
		for i, ch := range chans {
			names[i] = ch.Name
		}
		fmt.Printf("  %s %s\n", mutedStyle.Render(string(group)+":"), strings.Join(names, ", "))
	}
	if file.GapsFilled > 0 {
		fmt.Printf("  %s\n", warnStyle.Render(fmt.Sprintf("%d missing samples gap-filled", file.GapsFilled)))
	}
	fmt.Println(mutedStyle.Render("  ─────────────────────────────────────"))
}

// AskString prompts with a default value.
func (p *Prompter) AskString(field, defaultVal string) (string, error) {
	fmt.Printf("  %s %s: ", mutedStyle.Render(field), mutedStyle.Render("["+defaultVal+"]"))
	input, err := p.reader.ReadString('\n')
	if err != nil {
		return defaultVal, err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal, nil
	}
	return input, nil
}

// Confirm asks a yes/no question, defaulting to yes.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	fmt.Print(prompt)
	input, err := p.reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "" || input == "y" || input == "yes", nil
}

// ConfirmConversion shows the final summary and asks to proceed.
func (p *Prompter) ConfirmConversion(inputPath, outputPath string) (bool, error) {
	fmt.Println()
	fmt.Println(mutedStyle.Render("  ─────────────────────────────────────"))
	fmt.Printf("  %s\n", titleStyle.Render("Ready to convert"))
	fmt.Printf("  %s → %s\n", filepath.Base(inputPath), codeStyle.Render(outputPath))
	fmt.Println(mutedStyle.Render("  ─────────────────────────────────────"))
	fmt.Println()
	return p.Confirm("  Start conversion? [Y/n]: ")
}

func (p *Prompter) promptPath(prompt string) (string, error) {
	fmt.Print(prompt)
	input, err := p.reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	path := strings.TrimSpace(input)
	// Handle drag & drop (removes quotes)
	path = strings.Trim(path, "\"'")
	// Expand ~ to home dir
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}

	return path, nil
}

// ConversionReport for printing results.
type ConversionReport struct {
	OutputPath string
	Samples    int
	OutputSize int64
	Duration   time.Duration
}

// PrintConversionReport prints results after a conversion.
func PrintConversionReport(r *ConversionReport) {
	fmt.Println()
	fmt.Println(successStyle.Render("  ✓ CONVERSION COMPLETE"))
	fmt.Println()
	fmt.Printf("  %s %s\n", mutedStyle.Render("Output:"), titleStyle.Render(r.OutputPath))
	fmt.Printf("  %s %d\n", mutedStyle.Render("Samples:"), r.Samples)
	if r.OutputSize > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Size:"), formatBytes(r.OutputSize))
	}
	if r.Duration > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Time:"), formatDuration(r.Duration))
	}
	fmt.Println()
}

// PrintBatchLine prints one batch item outcome.
func PrintBatchLine(ok bool, input, output string, err error) {
	if ok {
		fmt.Printf("  %s %s → %s\n", successStyle.Render("✓"), filepath.Base(input), filepath.Base(output))
		return
	}
	fmt.Printf("  %s %s: %v\n", errorStyle.Render("✗"), filepath.Base(input), err)
}

// PrintError renders an error line.
func PrintError(err error) {
	fmt.Println(errorStyle.Render("  ✗ " + err.Error()))
}

// ClearLine clears the current line.
func ClearLine() {
	fmt.Print("\r\033[K")
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// ShowProgress creates a progress bar for batch runs.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
