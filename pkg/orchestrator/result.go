package orchestrator

import (
	"fmt"

	"github.com/RD2153874/flowsource/pkg/errors"
)

// StepFailure records one recoverable-step failure for the end-of-run
// summary. A failed template or plugin does not abort its siblings.
type StepFailure struct {
	Phase  string
	Step   string
	Reason string
}

func (f StepFailure) String() string {
	return fmt.Sprintf("%s/%s: %s", f.Phase, f.Step, f.Reason)
}

// Summary aggregates the outcome of a whole run.
type Summary struct {
	PhasesRun []string
	Failures  []StepFailure
}

// OK reports whether every step of every phase succeeded.
func (s *Summary) OK() bool {
	return len(s.Failures) == 0
}

// Err returns a non-nil error when any step failed, for the non-zero
// process exit. The failures themselves are already in the summary.
func (s *Summary) Err() error {
	if s.OK() {
		return nil
	}
	return errors.Newf(errors.ErrPhaseFailed, "%d step(s) failed", len(s.Failures))
}
