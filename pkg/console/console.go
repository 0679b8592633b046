// Package console renders run headers, progress, and result summaries to
// the terminal using pterm, independent of the structured logger.
package console

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/milmed-sim/castrain/pkg/cohort"
)

// Console is stateless; every method writes directly to stdout.
type Console struct{}

// PrintHeader prints the run banner with scenario details.
func (Console) PrintHeader(scenario string, totalPatients int, seed int64) {
	pterm.DefaultHeader.WithBackgroundStyle(pterm.NewStyle(pterm.BgDarkGray)).
		WithTextStyle(pterm.NewStyle(pterm.FgLightWhite)).
		Println("Casualty Cohort Generator")

	panel := pterm.DefaultBox.WithTitle("Scenario").WithTitleTopCenter()
	_ = panel.Println(fmt.Sprintf("warfare_scenario: %s\ntotal_patients:   %d\nseed:             %d", scenario, totalPatients, seed))
}

// PrintProgress renders a single-line, carriage-return-updated progress bar.
func (Console) PrintProgress(signal cohort.ProgressSignal) {
	fmt.Printf("\r%-100s", fmt.Sprintf("generating... %d/%d (%d%%)", signal.Completed, signal.Total, signal.Percent))
}

// ClearProgress erases the current progress line.
func (Console) ClearProgress() {
	fmt.Printf("\r%100s\r", "")
}

// PrintSummary renders the final summary header, status, totals, and the
// diagnostic-count table. It does not render a per-triage breakdown.
func (Console) PrintSummary(summary *cohort.Summary) {
	pterm.DefaultHeader.WithBackgroundStyle(pterm.NewStyle(pterm.BgDarkGray)).
		WithTextStyle(pterm.NewStyle(pterm.FgLightWhite)).
		Println("Run Summary")

	pterm.Info.Printfln("status: %s", summary.Status)
	pterm.Info.Printfln("total_generated: %d", summary.TotalGenerated)
	pterm.Info.Printfln("duration_seconds: %.2f", summary.DurationSeconds)

	data := pterm.TableData{
		{"Diagnostic", "Count"},
		{"Sampling errors (fallback to base row)", fmt.Sprintf("%d", summary.SamplingErrors)},
		{"Path-length errors (forced Remains_Role4)", fmt.Sprintf("%d", summary.PathLengthErrors)},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()

	if summary.Status == cohort.StatusFailed {
		pterm.Error.Printfln("run failed: %s", summary.Error)
	}
}

// PrintSuccess wraps pterm.Success for a single consistent call site.
func (Console) PrintSuccess(msg string) {
	pterm.Success.Println(msg)
}

// PrintError wraps pterm.Error for a single consistent call site.
func (Console) PrintError(msg string) {
	pterm.Error.Println(msg)
}
