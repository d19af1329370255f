package orchestrator

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"github.com/RD2153874/flowsource/pkg/docfrag"
	"github.com/RD2153874/flowsource/pkg/mddocs"
	"github.com/RD2153874/flowsource/pkg/providers"
	"github.com/RD2153874/flowsource/pkg/theme"
)

// scaffoldPhase generates the skeleton when it is absent. A skeleton
// still missing after the generator ran is fatal.
func scaffoldPhase() Phase {
	return Phase{
		Name: "scaffold",
		Run: func(ctx context.Context, env *Env) ([]StepFailure, error) {
			if err := env.Scaffold.EnsureSkeleton(env.Paths); err == nil {
				env.Log.Info().Str("root", env.Paths.Root()).Msg("Skeleton already present, skipping generator")
				return nil, nil
			}
			if err := env.Scaffold.RunCreateApp(ctx, env.Paths); err != nil {
				return nil, err
			}
			return nil, env.Scaffold.EnsureSkeleton(env.Paths)
		},
	}
}

// skeletonCheckPhase guards partial modes: patching a tree that was
// never scaffolded would anchor nothing.
func skeletonCheckPhase() Phase {
	return Phase{
		Name: "skeleton-check",
		Run: func(ctx context.Context, env *Env) ([]StepFailure, error) {
			return nil, env.Scaffold.EnsureSkeleton(env.Paths)
		},
	}
}

// themePhase copies theme assets into the destination tree and rebrands
// the SVG artwork. A missing theme source is a recoverable step.
func themePhase() Phase {
	return Phase{
		Name: "theme",
		Run: func(ctx context.Context, env *Env) ([]StepFailure, error) {
			var failures []StepFailure

			src := env.Settings.Theme.Source
			if err := env.Theme.CopyTree(src, env.Paths.Theme()); err != nil {
				failures = append(failures, StepFailure{Phase: "theme", Step: "copy", Reason: err.Error()})
				return failures, nil
			}

			colors := theme.BrandColors(env.Settings.Theme.PrimaryColor, env.Settings.Theme.SecondaryColor)
			if err := env.Theme.RecolorAssets(env.Paths.Theme(), colors); err != nil {
				failures = append(failures, StepFailure{Phase: "theme", Step: "recolor", Reason: err.Error()})
			}
			return failures, nil
		},
	}
}

// authPhase merges the selected provider's configuration and wires its
// sign-in flow into the generated frontend source.
func authPhase() Phase {
	return Phase{
		Name: "auth",
		Run: func(ctx context.Context, env *Env) ([]StepFailure, error) {
			if env.Provider == nil {
				spec, err := providers.Get(env.Settings.Auth.DefaultProvider)
				if err != nil {
					return nil, err
				}
				env.Provider = spec
			}

			// a collected value that is itself a placeholder token is
			// not a real secret; dropping it keeps the canonical
			// ${FIELD} form in the output instead of a foreign token
			for field, value := range env.Values {
				if docfrag.IsPlaceholder(value) {
					env.Log.Warn().Str("field", field).Msg("Collected value is a placeholder, treating as unset")
					delete(env.Values, field)
				}
			}

			var failures []StepFailure
			dual := env.Settings.Merge.DualMode
			if dual {
				env.Merger.EnableDualMode()
			}

			failures = append(failures, mergeProviderDocs(env, dual)...)
			failures = append(failures, mergeProviderConfig(env, dual)...)
			failures = append(failures, PatchFrontend(env)...)
			failures = append(failures, PatchBackend(env)...)

			if dual {
				_, ok := env.Merger.BuildDualOutputs(
					env.Paths.AppConfig(), env.Paths.AppConfigTemplate(), env.Paths.AppConfigValue())
				if !ok {
					failures = append(failures, StepFailure{Phase: "auth", Step: "dual-outputs",
						Reason: "failed to write dual-mode documents"})
				}
			}
			return failures, nil
		},
	}
}

// mergeProviderDocs folds configuration fragments found in the
// provider's documentation into the persisted document.
func mergeProviderDocs(env *Env, dual bool) []StepFailure {
	docsPath := filepath.Join(env.Settings.Docs.Dir, env.Provider.Name+".md")
	source, err := afero.ReadFile(env.FS, docsPath)
	if err != nil {
		env.Log.Debug().Str("path", docsPath).Msg("No provider documentation, skipping fragment extraction")
		return nil
	}

	tree := mddocs.Parse(source)
	tag := env.Settings.Docs.LanguageTag
	keywords := env.Settings.Docs.Keywords

	var failures []StepFailure
	templateFrags := env.Extractor.ExtractFragments(tree, tag, keywords)
	valueFrags := env.Extractor.ExtractFragments(substitutedTree(tree, env.Values), tag, keywords)

	for i, fragment := range valueFrags {
		if dual {
			env.Merger.AddValueFragment(fragment)
			if i < len(templateFrags) {
				env.Merger.AddTemplateFragment(templateFrags[i])
			}
			continue
		}
		if !env.Merger.MergeIntoFile(env.Paths.AppConfig(), fragment, "docs:"+env.Provider.Name) {
			failures = append(failures, StepFailure{Phase: "auth", Step: "merge-docs",
				Reason: "failed to merge documentation fragment into " + env.Paths.AppConfig()})
		}
	}
	return failures
}

// substitutedTree returns a copy of the tree with collected values
// substituted into every code block, leaving unknown fields in their
// canonical placeholder form.
func substitutedTree(tree *docfrag.DocTree, values map[string]string) *docfrag.DocTree {
	out := &docfrag.DocTree{Sections: tree.Sections}
	for _, block := range tree.CodeBlocks {
		block.Content = docfrag.SubstitutePlaceholders(block.Content, values)
		out.CodeBlocks = append(out.CodeBlocks, block)
	}
	return out
}

// mergeProviderConfig merges the provider's built-in app-config
// fragment, in template and value form under dual mode.
func mergeProviderConfig(env *Env, dual bool) []StepFailure {
	valueFrag, err := env.Provider.ValueFragment(env.Values)
	if err != nil {
		return []StepFailure{{Phase: "auth", Step: "provider-config", Reason: err.Error()}}
	}

	if dual {
		templateFrag, err := env.Provider.TemplateFragment()
		if err != nil {
			return []StepFailure{{Phase: "auth", Step: "provider-config", Reason: err.Error()}}
		}
		env.Merger.AddTemplateFragment(templateFrag)
		env.Merger.AddValueFragment(valueFrag)
		return nil
	}

	if !env.Merger.MergeIntoFile(env.Paths.AppConfig(), valueFrag, "provider:"+env.Provider.Name) {
		return []StepFailure{{Phase: "auth", Step: "provider-config",
			Reason: "failed to merge provider fragment into " + env.Paths.AppConfig()}}
	}
	return nil
}

// PatchFrontend applies the idempotent source edits wiring the selected
// provider into the generated app, and comments out the marked
// implementations of every non-selected provider. Exposed for the patch
// subcommand, which edits source without touching configuration.
func PatchFrontend(env *Env) []StepFailure {
	var failures []StepFailure

	failures = append(failures, patchFile(env, env.Paths.ApisSource(), func(text string) string {
		text = env.Patcher.ExtendImport(text, env.Provider.ImportModule, env.Provider.ImportIdentifier)
		text = env.Patcher.InsertDeclarationBeforeAnchor(text, env.Provider.APIFactory, "export const apis")
		text = env.Patcher.ExtendArrayLiteral(text, "apis", env.Provider.ArrayEntry)
		for _, spec := range providers.All() {
			text = env.Patcher.ReplaceMarkedSection(text, spec.SectionID, spec.Name != env.Provider.Name)
		}
		return text
	})...)

	failures = append(failures, patchFile(env, env.Paths.AppSource(), func(text string) string {
		text = env.Patcher.ExtendImport(text, "@backstage/core-components", "SignInPage")
		text = env.Patcher.ExtendImport(text, env.Provider.ImportModule, env.Provider.ImportIdentifier)
		component := "{ SignInPage: props => <SignInPage {...props} auto providers={[" +
			env.Provider.SignInProvider + "]} /> }"
		return env.Patcher.WireNamedOption(text, "createApp", "components", component)
	})...)

	return failures
}

// PatchBackend registers the selected provider's auth backend module in
// the generated backend entry point. Like the frontend edits this is a
// marker-checked insertion, so reruns leave the file alone.
func PatchBackend(env *Env) []StepFailure {
	registration := "backend.add(import('" + env.Provider.BackendModule + "'));"
	return patchFile(env, env.Paths.AuthModule(), func(text string) string {
		return env.Patcher.InsertDeclarationBeforeAnchor(text, registration, "backend.start()")
	})
}

// patchFile loads a source file, applies edit and writes it back only
// when the text changed. Missing files are per-step failures, not
// fatal: partial modes may run against trees scaffolded differently.
func patchFile(env *Env, path string, edit func(string) string) []StepFailure {
	data, err := afero.ReadFile(env.FS, path)
	if err != nil {
		return []StepFailure{{Phase: "auth", Step: "patch " + filepath.Base(path), Reason: err.Error()}}
	}

	patched := edit(string(data))
	if patched == string(data) {
		env.Log.Debug().Str("path", path).Msg("Source already patched")
		return nil
	}
	if err := afero.WriteFile(env.FS, path, []byte(patched), 0644); err != nil {
		return []StepFailure{{Phase: "auth", Step: "patch " + filepath.Base(path), Reason: err.Error()}}
	}
	env.Log.Info().Str("path", path).Msg("Patched generated source")
	return nil
}

// templatesPhase merges catalog locations for the software templates
// described in the documentation. One failing template does not abort
// the others.
func templatesPhase() Phase {
	return Phase{
		Name: "templates",
		Run: func(ctx context.Context, env *Env) ([]StepFailure, error) {
			docsPath := filepath.Join(env.Settings.Docs.Dir, "templates.md")
			source, err := afero.ReadFile(env.FS, docsPath)
			if err != nil {
				env.Log.Debug().Str("path", docsPath).Msg("No template documentation, nothing to register")
				return nil, nil
			}

			tree := mddocs.Parse(source)
			fragments := env.Extractor.ExtractFragments(tree, env.Settings.Docs.LanguageTag,
				[]string{"catalog", "locations", "target"})

			var failures []StepFailure
			for i, fragment := range fragments {
				if !env.Merger.MergeIntoFile(env.Paths.AppConfig(), fragment, "template") {
					failures = append(failures, StepFailure{
						Phase:  "templates",
						Step:   "register template " + strconv.Itoa(i+1),
						Reason: "failed to merge catalog fragment",
					})
				}
			}
			return failures, nil
		},
	}
}

// validatePhase runs the advisory document sanity check. Warnings are
// logged, never turned into failures: a suspicious document still gets
// written, the operator just hears about it.
func validatePhase() Phase {
	return Phase{
		Name: "validate",
		Run: func(ctx context.Context, env *Env) ([]StepFailure, error) {
			doc := env.Merger.Load(env.Paths.AppConfig())
			report := env.Merger.Validate(doc)
			if report.IsValid {
				env.Log.Info().Msg("Configuration document check passed")
				return nil, nil
			}
			for _, warning := range report.Warnings {
				env.Log.Warn().Str("issue", warning).Msg("Configuration document check")
			}
			return nil, nil
		},
	}
}

