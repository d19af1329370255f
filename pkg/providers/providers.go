// Package providers carries the static wiring knowledge for each
// supported OAuth provider: the app-config fragment it contributes, the
// frontend identifiers to import, and the source edits that hook its
// sign-in flow into the generated app.
package providers

import (
	"sort"
	"strings"

	"github.com/RD2153874/flowsource/pkg/configmerge"
	"github.com/RD2153874/flowsource/pkg/docfrag"
	"github.com/RD2153874/flowsource/pkg/errors"
)

// Spec describes everything needed to wire one auth provider.
type Spec struct {
	// Name is the provider key used in configuration and CLI flags.
	Name string

	// DisplayName is shown in prompts and the run summary.
	DisplayName string

	// ConfigTemplate is the app-config fragment in placeholder form.
	// Placeholder fields are substituted per docfrag conventions.
	ConfigTemplate string

	// PlaceholderFields lists the fields ConfigTemplate expects values
	// for, in the canonical uppercase form.
	PlaceholderFields []string

	// ImportModule and ImportIdentifier extend the frontend apis import.
	ImportModule     string
	ImportIdentifier string

	// APIFactory is the factory declaration inserted before the
	// factories array; ArrayEntry is prepended into it.
	APIFactory string
	ArrayEntry string

	// SignInProvider is wired into createApp's components option.
	SignInProvider string

	// BackendModule is the auth backend module package registered with
	// the backend via backend.add().
	BackendModule string

	// SectionID names the marked section enclosing this provider's
	// implementation in shared source files.
	SectionID string
}

// TemplateFragment parses the provider's config template with every
// field left in canonical placeholder form.
func (s *Spec) TemplateFragment() (*configmerge.Fragment, error) {
	empty := make(map[string]string, len(s.PlaceholderFields))
	for _, field := range s.PlaceholderFields {
		empty[field] = ""
	}
	return s.fragment(empty)
}

// ValueFragment parses the provider's config template with the
// collected values substituted in. Fields missing from values keep the
// canonical placeholder form.
func (s *Spec) ValueFragment(values map[string]string) (*configmerge.Fragment, error) {
	merged := make(map[string]string, len(s.PlaceholderFields))
	for _, field := range s.PlaceholderFields {
		merged[field] = values[field]
	}
	return s.fragment(merged)
}

func (s *Spec) fragment(values map[string]string) (*configmerge.Fragment, error) {
	text := docfrag.SubstitutePlaceholders(s.ConfigTemplate, values)
	fragment, err := configmerge.ParseFragment([]byte(text))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "provider %s has an invalid config template", s.Name)
	}
	return fragment, nil
}

var registry = map[string]*Spec{
	"github": {
		Name:        "github",
		DisplayName: "GitHub",
		ConfigTemplate: `auth:
  environment: development
  providers:
    github:
      development:
        clientId: ${GITHUB_CLIENT_ID}
        clientSecret: ${GITHUB_CLIENT_SECRET}
integrations:
  github:
    - host: github.com
      token: ${GITHUB_TOKEN}
`,
		PlaceholderFields: []string{"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET", "GITHUB_TOKEN"},
		ImportModule:      "@backstage/core-plugin-api",
		ImportIdentifier:  "githubAuthApiRef",
		APIFactory: `const githubAuthApiFactory = createApiFactory({
  api: githubAuthApiRef,
  deps: { discoveryApi: discoveryApiRef, oauthRequestApi: oauthRequestApiRef, configApi: configApiRef },
  factory: ({ discoveryApi, oauthRequestApi, configApi }) =>
    GithubAuth.create({ discoveryApi, oauthRequestApi, configApi }),
});`,
		ArrayEntry:     "githubAuthApiFactory",
		SignInProvider: `{ id: 'github-auth-provider', title: 'GitHub', message: 'Sign in using GitHub', apiRef: githubAuthApiRef }`,
		BackendModule:  "@backstage/plugin-auth-backend-module-github-provider",
		SectionID:      "github-auth",
	},
	"gitlab": {
		Name:        "gitlab",
		DisplayName: "GitLab",
		ConfigTemplate: `auth:
  environment: development
  providers:
    gitlab:
      development:
        clientId: ${GITLAB_CLIENT_ID}
        clientSecret: ${GITLAB_CLIENT_SECRET}
integrations:
  gitlab:
    - host: gitlab.com
      token: ${GITLAB_TOKEN}
`,
		PlaceholderFields: []string{"GITLAB_CLIENT_ID", "GITLAB_CLIENT_SECRET", "GITLAB_TOKEN"},
		ImportModule:      "@backstage/core-plugin-api",
		ImportIdentifier:  "gitlabAuthApiRef",
		APIFactory: `const gitlabAuthApiFactory = createApiFactory({
  api: gitlabAuthApiRef,
  deps: { discoveryApi: discoveryApiRef, oauthRequestApi: oauthRequestApiRef, configApi: configApiRef },
  factory: ({ discoveryApi, oauthRequestApi, configApi }) =>
    GitlabAuth.create({ discoveryApi, oauthRequestApi, configApi }),
});`,
		ArrayEntry:     "gitlabAuthApiFactory",
		SignInProvider: `{ id: 'gitlab-auth-provider', title: 'GitLab', message: 'Sign in using GitLab', apiRef: gitlabAuthApiRef }`,
		BackendModule:  "@backstage/plugin-auth-backend-module-gitlab-provider",
		SectionID:      "gitlab-auth",
	},
	"azure": {
		Name:        "azure",
		DisplayName: "Microsoft Azure",
		ConfigTemplate: `auth:
  environment: development
  providers:
    microsoft:
      development:
        clientId: ${AZURE_CLIENT_ID}
        clientSecret: ${AZURE_CLIENT_SECRET}
        tenantId: ${AZURE_TENANT_ID}
`,
		PlaceholderFields: []string{"AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET", "AZURE_TENANT_ID"},
		ImportModule:      "@backstage/core-plugin-api",
		ImportIdentifier:  "microsoftAuthApiRef",
		APIFactory: `const microsoftAuthApiFactory = createApiFactory({
  api: microsoftAuthApiRef,
  deps: { discoveryApi: discoveryApiRef, oauthRequestApi: oauthRequestApiRef, configApi: configApiRef },
  factory: ({ discoveryApi, oauthRequestApi, configApi }) =>
    MicrosoftAuth.create({ discoveryApi, oauthRequestApi, configApi }),
});`,
		ArrayEntry:     "microsoftAuthApiFactory",
		SignInProvider: `{ id: 'microsoft-auth-provider', title: 'Microsoft', message: 'Sign in using Microsoft', apiRef: microsoftAuthApiRef }`,
		BackendModule:  "@backstage/plugin-auth-backend-module-microsoft-provider",
		SectionID:      "azure-auth",
	},
	"okta": {
		Name:        "okta",
		DisplayName: "Okta",
		ConfigTemplate: `auth:
  environment: development
  providers:
    okta:
      development:
        clientId: ${OKTA_CLIENT_ID}
        clientSecret: ${OKTA_CLIENT_SECRET}
        audience: ${OKTA_AUDIENCE}
`,
		PlaceholderFields: []string{"OKTA_CLIENT_ID", "OKTA_CLIENT_SECRET", "OKTA_AUDIENCE"},
		ImportModule:      "@backstage/core-plugin-api",
		ImportIdentifier:  "oktaAuthApiRef",
		APIFactory: `const oktaAuthApiFactory = createApiFactory({
  api: oktaAuthApiRef,
  deps: { discoveryApi: discoveryApiRef, oauthRequestApi: oauthRequestApiRef, configApi: configApiRef },
  factory: ({ discoveryApi, oauthRequestApi, configApi }) =>
    OktaAuth.create({ discoveryApi, oauthRequestApi, configApi }),
});`,
		ArrayEntry:     "oktaAuthApiFactory",
		SignInProvider: `{ id: 'okta-auth-provider', title: 'Okta', message: 'Sign in using Okta', apiRef: oktaAuthApiRef }`,
		BackendModule:  "@backstage/plugin-auth-backend-module-okta-provider",
		SectionID:      "okta-auth",
	},
}

// Get returns the spec for a provider name, case-insensitively.
func Get(name string) (*Spec, error) {
	if spec, ok := registry[strings.ToLower(name)]; ok {
		return spec, nil
	}
	return nil, errors.Newf(errors.ErrProviderUnknown, "unknown auth provider %q", name)
}

// Names returns the supported provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every provider spec in name order.
func All() []*Spec {
	var specs []*Spec
	for _, name := range Names() {
		specs = append(specs, registry[name])
	}
	return specs
}
