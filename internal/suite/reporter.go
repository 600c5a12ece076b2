package suite

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/axs221/qutebrowser/internal/color"
)

const maxNameWidth = 60

// ReportPrefix starts the name of every JSON report file.
const ReportPrefix = "qutebdd-report-"

// consoleReporter prints a summary table once the run is over.
type consoleReporter struct {
	out   io.Writer
	plain bool
}

// NewConsoleReporter creates a reporter printing to out. With plain set no
// styling is applied.
func NewConsoleReporter(out io.Writer, plain bool) Reporter {
	return &consoleReporter{out: out, plain: plain || color.Disabled()}
}

func (r *consoleReporter) ReportScenarioResult(ScenarioResult) {}

func (r *consoleReporter) render(style lipgloss.Style, s string) string {
	if r.plain {
		return s
	}
	return style.Render(s)
}

func (r *consoleReporter) symbol(result Result) string {
	switch result {
	case ResultPassed:
		return r.render(color.PassedStyle, "✓")
	case ResultSkipped:
		return r.render(color.SkippedStyle, "-")
	default:
		return r.render(color.FailedStyle, "✗")
	}
}

// ReportSuiteResult prints one aligned line per scenario and the totals.
func (r *consoleReporter) ReportSuiteResult(res SuiteResult) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.render(color.HeaderStyle, "Scenario summary"))

	if res.SetupError != "" {
		fmt.Fprintf(r.out, "%s setup failed: %s\n", r.symbol(ResultFailed), res.SetupError)
	}

	width := 0
	for _, sr := range res.ScenarioResults {
		if w := runewidth.StringWidth(sr.Name); w > width {
			width = w
		}
	}
	if width > maxNameWidth {
		width = maxNameWidth
	}

	for _, sr := range res.ScenarioResults {
		name := runewidth.FillRight(runewidth.Truncate(sr.Name, width, "…"), width)
		fmt.Fprintf(r.out, "%s %s  %s\n", r.symbol(sr.Result), name,
			r.render(color.MutedStyle, sr.Duration.Round(time.Millisecond).String()))
		if sr.Error != "" && sr.Result != ResultPassed {
			for _, line := range strings.Split(sr.Error, "\n") {
				fmt.Fprintf(r.out, "    %s\n", line)
			}
		}
	}

	summary := fmt.Sprintf("%d scenarios: %s, %s, %s (%v)",
		res.TotalScenarios,
		r.render(color.PassedStyle, fmt.Sprintf("%d passed", res.PassedScenarios)),
		r.render(color.FailedStyle, fmt.Sprintf("%d failed", res.FailedScenarios)),
		r.render(color.SkippedStyle, fmt.Sprintf("%d skipped", res.SkippedScenarios)),
		res.Duration.Round(time.Millisecond))
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, summary)

	if res.ReportFile != "" {
		fmt.Fprintf(r.out, "Report saved to %s\n", res.ReportFile)
	}
}

// quietReporter only prints failures.
type quietReporter struct {
	out io.Writer
}

// NewQuietReporter creates a reporter that prints failed scenarios and a one
// line verdict.
func NewQuietReporter(out io.Writer) Reporter {
	return &quietReporter{out: out}
}

func (r *quietReporter) ReportScenarioResult(sr ScenarioResult) {
	if sr.Result == ResultPassed || sr.Result == ResultSkipped {
		return
	}
	fmt.Fprintf(r.out, "FAIL %s: %s\n", sr.Name, sr.Error)
}

func (r *quietReporter) ReportSuiteResult(res SuiteResult) {
	if res.FailedScenarios == 0 && res.SetupError == "" {
		fmt.Fprintf(r.out, "ok %d scenarios\n", res.TotalScenarios)
		return
	}
	fmt.Fprintf(r.out, "FAIL %d/%d scenarios\n", res.FailedScenarios, res.TotalScenarios)
}

var now = time.Now

// SaveReport writes res as JSON into dir and returns the file path.
func SaveReport(dir string, res SuiteResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	filename := fmt.Sprintf("%s%s.json", ReportPrefix, now().Format("20060102-150405"))
	fullPath := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return fullPath, nil
}

// LatestReport returns the path of the newest report in dir.
func LatestReport(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, ReportPrefix+"*.json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no report found in %s", dir)
	}
	// The timestamp format sorts lexically.
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
