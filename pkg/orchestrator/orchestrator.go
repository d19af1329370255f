// Package orchestrator drives a flowsource run: scaffold, theme, auth,
// templates, validate, strictly in that order. Phases mutate
// overlapping files in the destination tree, so there is exactly one
// writer and no parallel phase execution.
//
// Failure policy follows the three error classes: soft conditions are
// logged inside the components, per-step failures are collected into
// the end-of-run summary without aborting sibling steps, and fatal
// errors (unsupported mode, missing skeleton) abort the run.
package orchestrator

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/RD2153874/flowsource/pkg/config"
	"github.com/RD2153874/flowsource/pkg/configmerge"
	"github.com/RD2153874/flowsource/pkg/docfrag"
	"github.com/RD2153874/flowsource/pkg/errors"
	"github.com/RD2153874/flowsource/pkg/patch"
	"github.com/RD2153874/flowsource/pkg/paths"
	"github.com/RD2153874/flowsource/pkg/providers"
	"github.com/RD2153874/flowsource/pkg/scaffold"
	"github.com/RD2153874/flowsource/pkg/theme"
)

// Mode selects which capability areas a run covers.
type Mode string

const (
	ModeFull      Mode = "full"
	ModeUI        Mode = "ui"
	ModeAuth      Mode = "auth"
	ModeTemplates Mode = "templates"
)

// ParseMode validates a mode string. An unsupported mode is fatal.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFull, ModeUI, ModeAuth, ModeTemplates:
		return Mode(s), nil
	}
	return "", errors.Newf(errors.ErrUnsupportedMode, "unsupported mode %q (full, ui, auth, templates)", s)
}

// Env carries the collaborators and run inputs shared by all phases.
// Components own no shared mutable state beyond the filesystem paths
// they are told to touch.
type Env struct {
	FS        afero.Fs
	Paths     *paths.Paths
	Settings  *config.Settings
	Merger    *configmerge.Merger
	Patcher   *patch.Patcher
	Extractor *docfrag.Extractor
	Theme     *theme.Installer
	Scaffold  *scaffold.Scaffolder
	Log       zerolog.Logger

	// Provider is the selected auth provider spec.
	Provider *providers.Spec

	// Values are the collected secret values keyed by canonical
	// placeholder field, gathered by the prompt sequence before the
	// run starts.
	Values map[string]string
}

// NewEnv wires an Env from its leaf components.
func NewEnv(fs afero.Fs, p *paths.Paths, settings *config.Settings, logger zerolog.Logger) *Env {
	return &Env{
		FS:        fs,
		Paths:     p,
		Settings:  settings,
		Merger:    configmerge.NewMerger(fs, logger.With().Str("component", "configmerge").Logger()),
		Patcher:   patch.NewPatcher(logger.With().Str("component", "patch").Logger()),
		Extractor: docfrag.NewExtractor(logger.With().Str("component", "docfrag").Logger()),
		Theme:     theme.NewInstaller(fs, logger.With().Str("component", "theme").Logger()),
		Scaffold:  scaffold.NewScaffolder(fs, settings.Scaffold, logger.With().Str("component", "scaffold").Logger()),
		Log:       logger,
		Values:    make(map[string]string),
	}
}

// Phase is one sequential unit of a run. Returned failures are
// recoverable-step level; a non-nil error is fatal and aborts the run.
type Phase struct {
	Name string
	Run  func(ctx context.Context, env *Env) ([]StepFailure, error)
}

// BuildPhases returns the phase sequence for a mode. Every mode ends
// with the validate phase; only full scaffolds.
func BuildPhases(mode Mode) ([]Phase, error) {
	switch mode {
	case ModeFull:
		return []Phase{scaffoldPhase(), themePhase(), authPhase(), templatesPhase(), validatePhase()}, nil
	case ModeUI:
		return []Phase{skeletonCheckPhase(), themePhase(), validatePhase()}, nil
	case ModeAuth:
		return []Phase{skeletonCheckPhase(), authPhase(), validatePhase()}, nil
	case ModeTemplates:
		return []Phase{skeletonCheckPhase(), templatesPhase(), validatePhase()}, nil
	}
	return nil, errors.Newf(errors.ErrUnsupportedMode, "unsupported mode %q", mode)
}
