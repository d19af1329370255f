package mddocs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RD2153874/flowsource/pkg/mddocs"
)

const providerDoc = `# GitHub Authentication

Register an OAuth app and set the clientId below.

` + "```yaml" + `
auth:
  providers:
    github:
      development:
        clientId: ${GITHUB_CLIENT_ID}
` + "```" + `

## Integrations

Add a personal access token:

` + "```yaml" + `
integrations:
  github:
    - host: github.com
      token: ${GITHUB_TOKEN}
` + "```" + `

` + "```bash" + `
export GITHUB_TOKEN=abc
` + "```" + `
`

func TestParseSections(t *testing.T) {
	tree := mddocs.Parse([]byte(providerDoc))

	require.Len(t, tree.Sections, 2)
	assert.Equal(t, "GitHub Authentication", tree.Sections[0].Title)
	assert.Contains(t, tree.Sections[0].Content, "Register an OAuth app")
	assert.Equal(t, "Integrations", tree.Sections[1].Title)
	assert.Contains(t, tree.Sections[1].Content, "personal access token")
}

func TestParseCodeBlocks(t *testing.T) {
	tree := mddocs.Parse([]byte(providerDoc))

	require.Len(t, tree.CodeBlocks, 3)
	assert.Equal(t, "yaml", tree.CodeBlocks[0].Language)
	assert.Contains(t, tree.CodeBlocks[0].Content, "clientId: ${GITHUB_CLIENT_ID}")
	assert.Equal(t, "yaml", tree.CodeBlocks[1].Language)
	assert.Contains(t, tree.CodeBlocks[1].Content, "host: github.com")
	assert.Equal(t, "bash", tree.CodeBlocks[2].Language)
}

func TestParseEmptyDocument(t *testing.T) {
	tree := mddocs.Parse(nil)
	assert.Empty(t, tree.Sections)
	assert.Empty(t, tree.CodeBlocks)
}

func TestParseUntaggedFence(t *testing.T) {
	doc := "# Title\n\n```\nplain text\n```\n"
	tree := mddocs.Parse([]byte(doc))

	require.Len(t, tree.CodeBlocks, 1)
	assert.Equal(t, "", tree.CodeBlocks[0].Language)
}
