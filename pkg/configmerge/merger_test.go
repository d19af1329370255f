package configmerge_test

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RD2153874/flowsource/pkg/configmerge"
)

func newTestMerger() *configmerge.Merger {
	return configmerge.NewMerger(afero.NewMemMapFs(), zerolog.Nop())
}

func mustParse(t *testing.T, text string) *configmerge.Document {
	t.Helper()
	doc, err := configmerge.Parse([]byte(text))
	require.NoError(t, err)
	return doc
}

func decode(t *testing.T, doc *configmerge.Document) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, doc.Decode(&out))
	return out
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		fragment string
		expected string
	}{
		{
			name:     "scalar_overwrite",
			target:   "app:\n  title: Old\n",
			fragment: "app:\n  title: New\n",
			expected: "app:\n  title: New\n",
		},
		{
			name:     "new_key_appended",
			target:   "app:\n  title: App\n",
			fragment: "backend:\n  baseUrl: http://localhost:7007\n",
			expected: "app:\n  title: App\nbackend:\n  baseUrl: http://localhost:7007\n",
		},
		{
			name:     "nested_mappings_recurse",
			target:   "auth:\n  environment: development\n",
			fragment: "auth:\n  session:\n    secret: abc\n",
			expected: "auth:\n  environment: development\n  session:\n    secret: abc\n",
		},
		{
			name: "provider_map_shallow_union",
			target: `auth:
  providers:
    github:
      development:
        clientId: old-id
`,
			fragment: `auth:
  providers:
    okta:
      development:
        clientId: okta-id
`,
			expected: `auth:
  providers:
    github:
      development:
        clientId: old-id
    okta:
      development:
        clientId: okta-id
`,
		},
		{
			name: "provider_map_fragment_wins_on_conflict",
			target: `auth:
  providers:
    github:
      development:
        clientId: old-id
        clientSecret: old-secret
`,
			fragment: `auth:
  providers:
    github:
      development:
        clientId: new-id
`,
			expected: `auth:
  providers:
    github:
      development:
        clientId: new-id
`,
		},
		{
			name: "type_mismatch_fragment_overwrites",
			target: `catalog:
  rules: simple
`,
			fragment: `catalog:
  rules:
    - allow: [Component]
`,
			expected: `catalog:
  rules:
    - allow: [Component]
`,
		},
		{
			name:     "scalar_sequence_dedup",
			target:   "plugins:\n  - techdocs\n  - kubernetes\n",
			fragment: "plugins:\n  - kubernetes\n  - sonarqube\n",
			expected: "plugins:\n  - techdocs\n  - kubernetes\n  - sonarqube\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMerger()
			target := mustParse(t, tt.target)
			fragment := mustParse(t, tt.fragment)

			merged := m.Merge(target, fragment)
			assert.Equal(t, decode(t, mustParse(t, tt.expected)), decode(t, merged))
		})
	}
}

// A github.com entry carrying a real token must replace the placeholder
// entry for the same host rather than duplicating it.
func TestMergeIntegrationHostReplaces(t *testing.T) {
	m := newTestMerger()
	target := mustParse(t, `integrations:
  github:
    - host: github.com
      token: PLACEHOLDER
`)
	fragment := mustParse(t, `integrations:
  github:
    - host: github.com
      token: X
`)

	merged := decode(t, m.Merge(target, fragment))
	githubs := merged["integrations"].(map[string]interface{})["github"].([]interface{})
	require.Len(t, githubs, 1)
	assert.Equal(t, "X", githubs[0].(map[string]interface{})["token"])
}

func TestMergeIntegrationNewHostAppends(t *testing.T) {
	m := newTestMerger()
	target := mustParse(t, `integrations:
  github:
    - host: github.com
      token: X
`)
	fragment := mustParse(t, `integrations:
  github:
    - host: ghe.example.com
      token: Y
`)

	merged := decode(t, m.Merge(target, fragment))
	githubs := merged["integrations"].(map[string]interface{})["github"].([]interface{})
	assert.Len(t, githubs, 2)
}

func TestMergeCatalogLocationDedup(t *testing.T) {
	m := newTestMerger()
	target := configmerge.NewDocument()
	fragment := mustParse(t, `catalog:
  locations:
    - type: file
      target: ../../t.yaml
`)

	once := m.Merge(target, fragment)
	twice := m.Merge(once, fragment)

	merged := decode(t, twice)
	locations := merged["catalog"].(map[string]interface{})["locations"].([]interface{})
	assert.Len(t, locations, 1)
}

func TestMergeSecretKeysDedup(t *testing.T) {
	m := newTestMerger()
	target := mustParse(t, `backend:
  auth:
    keys:
      - secret: s3cret-one
`)
	fragment := mustParse(t, `backend:
  auth:
    keys:
      - secret: s3cret-one
      - secret: s3cret-two
`)

	merged := decode(t, m.Merge(target, fragment))
	keys := merged["backend"].(map[string]interface{})["auth"].(map[string]interface{})["keys"].([]interface{})
	require.Len(t, keys, 2)
	assert.Equal(t, "s3cret-one", keys[0].(map[string]interface{})["secret"])
	assert.Equal(t, "s3cret-two", keys[1].(map[string]interface{})["secret"])
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	m := newTestMerger()
	target := mustParse(t, "app:\n  title: Old\n")
	fragment := mustParse(t, "app:\n  title: New\n")

	targetBefore, err := target.Encode()
	require.NoError(t, err)
	fragmentBefore, err := fragment.Encode()
	require.NoError(t, err)

	_ = m.Merge(target, fragment)

	targetAfter, err := target.Encode()
	require.NoError(t, err)
	fragmentAfter, err := fragment.Encode()
	require.NoError(t, err)

	assert.Equal(t, string(targetBefore), string(targetAfter))
	assert.Equal(t, string(fragmentBefore), string(fragmentAfter))
}

func TestMergePreservesCommentsAndOrder(t *testing.T) {
	m := newTestMerger()
	target := mustParse(t, `# deployment config
app:
  title: App # display name
backend:
  baseUrl: http://localhost:7007
`)
	fragment := mustParse(t, "app:\n  baseUrl: http://localhost:3000\n")

	out, err := m.Merge(target, fragment).Encode()
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# deployment config")
	assert.Contains(t, text, "# display name")
	// app stays before backend
	assert.Less(t, strings.Index(text, "app:"), strings.Index(text, "backend:"))
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	m := newTestMerger()
	doc := m.Load("/dest/app-config.yaml")
	assert.True(t, doc.IsEmpty())
}

func TestLoadUnparseableFileReturnsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dest/app-config.yaml", []byte("\t{{not yaml"), 0644))
	m := configmerge.NewMerger(fs, zerolog.Nop())

	doc := m.Load("/dest/app-config.yaml")
	assert.True(t, doc.IsEmpty())
}

func TestMergeIntoFileBootstrapsMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := configmerge.NewMerger(fs, zerolog.Nop())
	fragment := mustParse(t, "app:\n  title: FlowSource\n")

	ok := m.MergeIntoFile("/dest/app-config.yaml", fragment, "bootstrap")
	require.True(t, ok)

	data, err := afero.ReadFile(fs, "/dest/app-config.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: FlowSource")
}

func TestMergeIntoFileWriteFailure(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	m := configmerge.NewMerger(fs, zerolog.Nop())
	fragment := mustParse(t, "app:\n  title: FlowSource\n")

	assert.False(t, m.MergeIntoFile("/dest/app-config.yaml", fragment, "bootstrap"))
}

func TestValidateDuplicateProviderKey(t *testing.T) {
	m := newTestMerger()
	doc := mustParse(t, `auth:
  providers:
    github:
      development:
        clientId: a
    github:
      development:
        clientId: b
`)

	report := m.Validate(doc)
	assert.False(t, report.IsValid)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "github")
}

func TestValidateDuplicateSecret(t *testing.T) {
	m := newTestMerger()
	doc := mustParse(t, `backend:
  auth:
    keys:
      - secret: same
      - secret: same
`)

	report := m.Validate(doc)
	assert.False(t, report.IsValid)
}

func TestValidateCleanDocument(t *testing.T) {
	m := newTestMerger()
	doc := mustParse(t, `auth:
  providers:
    github:
      development:
        clientId: a
backend:
  auth:
    keys:
      - secret: one
      - secret: two
`)

	report := m.Validate(doc)
	assert.True(t, report.IsValid)
	assert.Empty(t, report.Warnings)
}
