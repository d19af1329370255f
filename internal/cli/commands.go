// Package cli builds the flowsource command tree.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/RD2153874/flowsource/internal/version"
	"github.com/RD2153874/flowsource/pkg/config"
	"github.com/RD2153874/flowsource/pkg/configmerge"
	"github.com/RD2153874/flowsource/pkg/errors"
	"github.com/RD2153874/flowsource/pkg/logging"
	"github.com/RD2153874/flowsource/pkg/orchestrator"
	"github.com/RD2153874/flowsource/pkg/paths"
	"github.com/RD2153874/flowsource/pkg/providers"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:     "flowsource",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			logger := logging.GetLogger("cli")
			logger.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newPatchCmd())
	rootCmd.AddCommand(newMergeConfigCmd())
	rootCmd.AddCommand(newValidateConfigCmd())
	rootCmd.AddCommand(newGenConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newCreateCmd() *cobra.Command {
	var (
		dest     string
		mode     string
		provider string
		dualMode bool
		noInput  bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: MsgCreateShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			runMode, err := orchestrator.ParseMode(mode)
			if err != nil {
				return err
			}

			env, err := buildEnv(dest)
			if err != nil {
				return err
			}
			if dualMode {
				env.Settings.Merge.DualMode = true
			}

			if provider != "" {
				spec, err := resolveProvider(provider)
				if err != nil {
					return err
				}
				env.Provider = spec
			}

			if !noInput && (runMode == orchestrator.ModeFull || runMode == orchestrator.ModeAuth) {
				if env.Provider == nil {
					spec, err := promptProvider(env.Settings.Auth.DefaultProvider)
					if err != nil {
						return err
					}
					env.Provider = spec
				}
				env.Values = promptValues(env.Provider)
			}

			phases, err := orchestrator.BuildPhases(runMode)
			if err != nil {
				return err
			}

			runner := orchestrator.NewRunner()
			summary, err := runner.Run(cmd.Context(), env, phases)
			runner.PrintSummary(summary)
			if err != nil {
				return err
			}
			return summary.Err()
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Destination tree (default: $FLOWSOURCE_DEST or current directory)")
	cmd.Flags().StringVar(&mode, "mode", string(orchestrator.ModeFull), "Run mode: full, ui, auth or templates")
	cmd.Flags().StringVar(&provider, "provider", "", "Auth provider to wire (github, gitlab, azure, okta)")
	cmd.Flags().BoolVar(&dualMode, "dual", false, "Write separate template and value configuration documents")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "Never prompt; missing values stay as placeholders")

	return cmd
}

func newPatchCmd() *cobra.Command {
	var (
		dest     string
		provider string
	)

	cmd := &cobra.Command{
		Use:   "patch",
		Short: MsgPatchShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv(dest)
			if err != nil {
				return err
			}

			name := provider
			if name == "" {
				name = env.Settings.Auth.DefaultProvider
			}
			spec, err := resolveProvider(name)
			if err != nil {
				return err
			}
			env.Provider = spec

			if err := env.Scaffold.EnsureSkeleton(env.Paths); err != nil {
				return err
			}

			failures := orchestrator.PatchFrontend(env)
			failures = append(failures, orchestrator.PatchBackend(env)...)
			if len(failures) > 0 {
				for _, failure := range failures {
					fmt.Printf("  - %s: %s\n", failure.Step, failure.Reason)
				}
				return errors.Newf(errors.ErrPhaseFailed, "%d patch step(s) failed", len(failures))
			}
			fmt.Printf(MsgPatchDone, spec.DisplayName)
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Destination tree (default: $FLOWSOURCE_DEST or current directory)")
	cmd.Flags().StringVar(&provider, "provider", "", "Auth provider to wire (default: configured default_provider)")

	return cmd
}

func newMergeConfigCmd() *cobra.Command {
	var (
		dest  string
		label string
	)

	cmd := &cobra.Command{
		Use:   "merge-config <fragment-file>",
		Short: MsgMergeShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv(dest)
			if err != nil {
				return err
			}

			data, err := afero.ReadFile(env.FS, args[0])
			if err != nil {
				return err
			}
			fragment, err := configmerge.ParseFragment(data)
			if err != nil {
				return err
			}

			if !env.Merger.MergeIntoFile(env.Paths.AppConfig(), fragment, label) {
				return errors.Newf(errors.ErrConfigWrite, "could not merge %s into %s", args[0], env.Paths.AppConfig())
			}
			fmt.Printf(MsgMergeDone, args[0], env.Paths.AppConfig())
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Destination tree (default: $FLOWSOURCE_DEST or current directory)")
	cmd.Flags().StringVar(&label, "label", "manual", "Label used in logs for this merge")

	return cmd
}

func newValidateConfigCmd() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: MsgValidateShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv(dest)
			if err != nil {
				return err
			}

			report := env.Merger.Validate(env.Merger.Load(env.Paths.AppConfig()))
			if report.IsValid {
				fmt.Print(MsgValidationOK)
				return nil
			}
			fmt.Print(MsgValidationIssues)
			for _, warning := range report.Warnings {
				fmt.Printf("  - %s\n", warning)
			}
			return errors.Newf(errors.ErrInvalidInput, "%d validation issue(s) found", len(report.Warnings))
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Destination tree (default: $FLOWSOURCE_DEST or current directory)")

	return cmd
}

func newGenConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genconfig",
		Short: MsgGenConfShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(config.ConfigFileName); err == nil {
				fmt.Printf(MsgConfigExists, config.ConfigFileName)
				return nil
			}
			if err := os.WriteFile(config.ConfigFileName, []byte(config.DefaultConfigContent()), 0644); err != nil {
				return err
			}
			fmt.Printf(MsgConfigWritten, config.ConfigFileName)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("flowsource version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}

// buildEnv wires an orchestrator environment against the real
// filesystem, with tool settings resolved from the destination.
func buildEnv(dest string) (*orchestrator.Env, error) {
	p, err := paths.New(dest)
	if err != nil {
		return nil, err
	}
	settings, err := config.Load(p.Root())
	if err != nil {
		return nil, err
	}
	return orchestrator.NewEnv(afero.NewOsFs(), p, settings, log.Logger), nil
}

// resolveProvider looks up a provider, suggesting the closest supported
// name on a typo.
func resolveProvider(name string) (*providers.Spec, error) {
	spec, err := providers.Get(name)
	if err == nil {
		return spec, nil
	}

	matches := fuzzy.RankFindNormalizedFold(name, providers.Names())
	sort.Sort(matches)
	if len(matches) > 0 {
		fmt.Printf(MsgProviderSuggest, name, matches[0].Target)
	} else {
		fmt.Printf(MsgProviderList, strings.Join(providers.Names(), ", "))
	}
	return nil, err
}

// promptProvider asks which auth provider to wire.
func promptProvider(defaultName string) (*providers.Spec, error) {
	selected, err := pterm.DefaultInteractiveSelect.
		WithOptions(providers.Names()).
		WithDefaultOption(defaultName).
		Show("Which auth provider should be wired?")
	if err != nil {
		return nil, err
	}
	return providers.Get(selected)
}

// promptValues collects the provider's secret values. An empty answer
// keeps the canonical placeholder so the output stays visibly
// unconfigured.
func promptValues(spec *providers.Spec) map[string]string {
	values := make(map[string]string, len(spec.PlaceholderFields))
	for _, field := range spec.PlaceholderFields {
		answer, err := pterm.DefaultInteractiveTextInput.
			WithDefaultValue("").
			Show(fmt.Sprintf("%s (%s, empty keeps placeholder)", field, spec.DisplayName))
		if err != nil {
			continue
		}
		if answer != "" {
			values[field] = answer
		}
	}
	return values
}
