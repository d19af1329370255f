package orchestrator

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Runner executes phases in sequence, awaiting each before the next.
type Runner struct {
	interactive bool
}

// NewRunner creates a Runner. Spinners and styled output are only used
// when stdout is a terminal.
func NewRunner() *Runner {
	return &Runner{
		interactive: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
}

// Run executes the phases against env. A fatal phase error aborts the
// remaining phases and is returned immediately; step failures accumulate
// into the summary.
func (r *Runner) Run(ctx context.Context, env *Env, phases []Phase) (*Summary, error) {
	summary := &Summary{}

	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		var spinner *pterm.SpinnerPrinter
		if r.interactive {
			spinner, _ = pterm.DefaultSpinner.Start("Running " + phase.Name + " phase")
		}
		env.Log.Info().Str("phase", phase.Name).Msg("Phase started")

		failures, err := phase.Run(ctx, env)
		summary.PhasesRun = append(summary.PhasesRun, phase.Name)
		summary.Failures = append(summary.Failures, failures...)

		if err != nil {
			if spinner != nil {
				spinner.Fail("Phase " + phase.Name + " failed")
			}
			env.Log.Error().Str("phase", phase.Name).Err(err).Msg("Phase aborted the run")
			return summary, err
		}

		if spinner != nil {
			if len(failures) > 0 {
				spinner.Warning("Phase " + phase.Name + " finished with failures")
			} else {
				spinner.Success("Phase " + phase.Name + " done")
			}
		}
		env.Log.Info().Str("phase", phase.Name).Int("failures", len(failures)).Msg("Phase finished")
	}

	return summary, nil
}

// PrintSummary writes the aggregated end-of-run report. Every failed
// sub-item appears with its reason; a clean run prints a single line.
func (r *Runner) PrintSummary(summary *Summary) {
	if summary.OK() {
		pterm.Success.Println("All phases completed")
		return
	}

	rows := pterm.TableData{{"Phase", "Step", "Reason"}}
	for _, failure := range summary.Failures {
		rows = append(rows, []string{failure.Phase, failure.Step, failure.Reason})
	}
	pterm.Warning.Printfln("%d step(s) failed:", len(summary.Failures))
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
