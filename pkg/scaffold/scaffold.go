// Package scaffold generates and validates the base app skeleton the
// rest of the run customizes.
package scaffold

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/RD2153874/flowsource/pkg/config"
	"github.com/RD2153874/flowsource/pkg/errors"
	"github.com/RD2153874/flowsource/pkg/logging"
	"github.com/RD2153874/flowsource/pkg/paths"
)

// Scaffolder runs the upstream app generator and checks its output.
type Scaffolder struct {
	fs       afero.Fs
	log      zerolog.Logger
	settings config.ScaffoldSettings
}

// NewScaffolder creates a Scaffolder. fs is used for validation only;
// the generator command always runs against the real filesystem.
func NewScaffolder(fs afero.Fs, settings config.ScaffoldSettings, logger zerolog.Logger) *Scaffolder {
	return &Scaffolder{fs: fs, settings: settings, log: logger}
}

// EnsureSkeleton verifies the destination contains a generated app.
// A missing skeleton is fatal: every later phase patches files that
// only exist after scaffolding.
func (s *Scaffolder) EnsureSkeleton(p *paths.Paths) error {
	for _, dir := range []string{p.Frontend(), p.Backend()} {
		info, err := s.fs.Stat(dir)
		if err != nil || !info.IsDir() {
			return errors.Newf(errors.ErrSkeletonMissing,
				"no generated app skeleton at %s (missing %s); run the scaffold phase first", p.Root(), dir)
		}
	}
	return nil
}

// RunCreateApp invokes the configured generator command in the parent
// of the destination root. The command inherits stdio so its own
// prompts and progress stay visible.
func (s *Scaffolder) RunCreateApp(ctx context.Context, p *paths.Paths) error {
	if s.settings.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.settings.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	s.log.Info().Str("command", s.settings.Command).Strs("args", s.settings.Args).Msg("Running app generator")
	done := logging.LogOperationStart(s.log, "create-app")
	defer done()

	cmd := exec.CommandContext(ctx, s.settings.Command, s.settings.Args...)
	cmd.Dir = p.Root()
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, errors.ErrScaffoldRun, "app generator %q failed", s.settings.Command)
	}
	return nil
}
