package orchestrator_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RD2153874/flowsource/pkg/config"
	"github.com/RD2153874/flowsource/pkg/errors"
	"github.com/RD2153874/flowsource/pkg/orchestrator"
	"github.com/RD2153874/flowsource/pkg/paths"
	"github.com/RD2153874/flowsource/pkg/providers"
)

const apisSource = `import { createApiFactory, configApiRef } from '@backstage/core-plugin-api';
import { ScmAuth } from '@backstage/integration-react';

const apis = [
  ScmAuth.createDefaultApiFactory(),
];

export const apis;
`

const appSource = `import React from 'react';
import { createApp } from '@backstage/app-defaults';

const app = createApp({
  apis,
});
`

const backendSource = `import { createBackend } from '@backstage/backend-defaults';

const backend = createBackend();

backend.add(import('@backstage/plugin-app-backend'));

backend.start();
`

const githubDoc = "# GitHub\n\nSet the clientId for GitHub.\n\n```yaml\nauth:\n  providers:\n    github:\n      development:\n        clientId: ${GITHUB_CLIENT_ID}\n```\n"

func newTestEnv(t *testing.T) *orchestrator.Env {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/dest/packages/app/src", 0755))
	require.NoError(t, fs.MkdirAll("/dest/packages/backend/src", 0755))
	require.NoError(t, afero.WriteFile(fs, "/dest/packages/app/src/apis.ts", []byte(apisSource), 0644))
	require.NoError(t, afero.WriteFile(fs, "/dest/packages/app/src/App.tsx", []byte(appSource), 0644))
	require.NoError(t, afero.WriteFile(fs, "/dest/packages/backend/src/index.ts", []byte(backendSource), 0644))
	require.NoError(t, afero.WriteFile(fs, "flowsource-docs/github.md", []byte(githubDoc), 0644))

	p, err := paths.New("/dest")
	require.NoError(t, err)

	settings, err := config.Load(t.TempDir())
	require.NoError(t, err)

	return orchestrator.NewEnv(fs, p, settings, zerolog.Nop())
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"full", "ui", "auth", "templates"} {
		_, err := orchestrator.ParseMode(valid)
		assert.NoError(t, err, valid)
	}

	_, err := orchestrator.ParseMode("turbo")
	require.Error(t, err)
	assert.Equal(t, errors.ErrUnsupportedMode, errors.GetCode(err))
}

func TestAuthModeRun(t *testing.T) {
	env := newTestEnv(t)
	env.Values = map[string]string{
		"GITHUB_CLIENT_ID":     "real-id",
		"GITHUB_CLIENT_SECRET": "real-secret",
		"GITHUB_TOKEN":         "real-token",
	}

	phases, err := orchestrator.BuildPhases(orchestrator.ModeAuth)
	require.NoError(t, err)

	summary, err := orchestrator.NewRunner().Run(context.Background(), env, phases)
	require.NoError(t, err)
	assert.True(t, summary.OK(), "failures: %v", summary.Failures)
	assert.Equal(t, []string{"skeleton-check", "auth", "validate"}, summary.PhasesRun)

	// persisted document carries the provider config and the doc fragment
	appConfig, err := afero.ReadFile(env.FS, "/dest/app-config.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(appConfig), "clientId: real-id")
	assert.Contains(t, string(appConfig), "token: real-token")

	// frontend got wired
	apis, err := afero.ReadFile(env.FS, "/dest/packages/app/src/apis.ts")
	require.NoError(t, err)
	assert.Contains(t, string(apis), "githubAuthApiRef")
	assert.Contains(t, string(apis), "githubAuthApiFactory")

	app, err := afero.ReadFile(env.FS, "/dest/packages/app/src/App.tsx")
	require.NoError(t, err)
	assert.Contains(t, string(app), "SignInPage")
	assert.Contains(t, string(app), "components:")

	// backend got the provider module registered before backend.start()
	backend, err := afero.ReadFile(env.FS, "/dest/packages/backend/src/index.ts")
	require.NoError(t, err)
	assert.Contains(t, string(backend),
		"backend.add(import('@backstage/plugin-auth-backend-module-github-provider'));")
	assert.Less(t,
		strings.Index(string(backend), "github-provider"),
		strings.Index(string(backend), "backend.start()"))
}

// Re-running the same phases against the already-migrated tree must not
// change a single byte: every merge and patch is idempotent.
func TestAuthModeRerunIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.Values = map[string]string{"GITHUB_CLIENT_ID": "real-id"}

	phases, err := orchestrator.BuildPhases(orchestrator.ModeAuth)
	require.NoError(t, err)
	runner := orchestrator.NewRunner()

	_, err = runner.Run(context.Background(), env, phases)
	require.NoError(t, err)

	firstConfig, err := afero.ReadFile(env.FS, "/dest/app-config.yaml")
	require.NoError(t, err)
	firstApis, err := afero.ReadFile(env.FS, "/dest/packages/app/src/apis.ts")
	require.NoError(t, err)
	firstApp, err := afero.ReadFile(env.FS, "/dest/packages/app/src/App.tsx")
	require.NoError(t, err)
	firstBackend, err := afero.ReadFile(env.FS, "/dest/packages/backend/src/index.ts")
	require.NoError(t, err)

	// fresh phases, same env and values
	phases, err = orchestrator.BuildPhases(orchestrator.ModeAuth)
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), env, phases)
	require.NoError(t, err)

	secondConfig, err := afero.ReadFile(env.FS, "/dest/app-config.yaml")
	require.NoError(t, err)
	assert.Equal(t, string(firstConfig), string(secondConfig))

	secondApis, err := afero.ReadFile(env.FS, "/dest/packages/app/src/apis.ts")
	require.NoError(t, err)
	assert.Equal(t, string(firstApis), string(secondApis))

	secondApp, err := afero.ReadFile(env.FS, "/dest/packages/app/src/App.tsx")
	require.NoError(t, err)
	assert.Equal(t, string(firstApp), string(secondApp))

	secondBackend, err := afero.ReadFile(env.FS, "/dest/packages/backend/src/index.ts")
	require.NoError(t, err)
	assert.Equal(t, string(firstBackend), string(secondBackend))
}

func TestAuthModeDualMode(t *testing.T) {
	env := newTestEnv(t)
	env.Settings.Merge.DualMode = true
	env.Values = map[string]string{"GITHUB_CLIENT_SECRET": "super-secret"}

	phases, err := orchestrator.BuildPhases(orchestrator.ModeAuth)
	require.NoError(t, err)

	summary, err := orchestrator.NewRunner().Run(context.Background(), env, phases)
	require.NoError(t, err)
	assert.True(t, summary.OK(), "failures: %v", summary.Failures)

	template, err := afero.ReadFile(env.FS, "/dest/app-config.flowsource.yaml")
	require.NoError(t, err)
	assert.NotContains(t, string(template), "super-secret")
	assert.Contains(t, string(template), "${GITHUB_CLIENT_SECRET}")

	value, err := afero.ReadFile(env.FS, "/dest/app-config.local.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(value), "super-secret")
}

// A value that is itself a placeholder token must not be substituted
// into the document; the provider's own canonical placeholder stays.
func TestAuthModePlaceholderValueTreatedAsUnset(t *testing.T) {
	env := newTestEnv(t)
	env.Values = map[string]string{
		"GITHUB_CLIENT_ID":     "${VAULT_GITHUB_ID}",
		"GITHUB_CLIENT_SECRET": "real-secret",
	}

	phases, err := orchestrator.BuildPhases(orchestrator.ModeAuth)
	require.NoError(t, err)

	_, err = orchestrator.NewRunner().Run(context.Background(), env, phases)
	require.NoError(t, err)

	appConfig, err := afero.ReadFile(env.FS, "/dest/app-config.yaml")
	require.NoError(t, err)
	assert.NotContains(t, string(appConfig), "VAULT_GITHUB_ID")
	assert.Contains(t, string(appConfig), "clientId: ${GITHUB_CLIENT_ID}")
	assert.Contains(t, string(appConfig), "clientSecret: real-secret")
}

func TestAuthModeMissingSkeletonIsFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	p, err := paths.New("/dest")
	require.NoError(t, err)
	settings, err := config.Load(t.TempDir())
	require.NoError(t, err)
	env := orchestrator.NewEnv(fs, p, settings, zerolog.Nop())

	phases, err := orchestrator.BuildPhases(orchestrator.ModeAuth)
	require.NoError(t, err)

	_, err = orchestrator.NewRunner().Run(context.Background(), env, phases)
	require.Error(t, err)
	assert.Equal(t, errors.ErrSkeletonMissing, errors.GetCode(err))
}

func TestAuthModeUnknownDefaultProviderIsFatal(t *testing.T) {
	env := newTestEnv(t)
	env.Settings.Auth.DefaultProvider = "facebook"

	phases, err := orchestrator.BuildPhases(orchestrator.ModeAuth)
	require.NoError(t, err)

	_, err = orchestrator.NewRunner().Run(context.Background(), env, phases)
	require.Error(t, err)
	assert.Equal(t, errors.ErrProviderUnknown, errors.GetCode(err))
}

func TestExplicitProviderSelection(t *testing.T) {
	env := newTestEnv(t)
	spec, err := providers.Get("okta")
	require.NoError(t, err)
	env.Provider = spec

	phases, err := orchestrator.BuildPhases(orchestrator.ModeAuth)
	require.NoError(t, err)

	summary, err := orchestrator.NewRunner().Run(context.Background(), env, phases)
	require.NoError(t, err)
	assert.True(t, summary.OK(), "failures: %v", summary.Failures)

	appConfig, err := afero.ReadFile(env.FS, "/dest/app-config.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(appConfig), "okta")
}
