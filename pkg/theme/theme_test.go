package theme_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RD2153874/flowsource/pkg/theme"
)

const logoSVG = `<svg xmlns="http://www.w3.org/2000/svg">
  <rect fill="#121212" stroke="#FFFFFF"/>
  <g>
    <circle fill="#121212"/>
  </g>
</svg>`

func TestRecolorSVG(t *testing.T) {
	out, err := theme.RecolorSVG([]byte(logoSVG), map[string]string{
		"#121212": "#1F5493",
	})
	require.NoError(t, err)

	text := string(out)
	assert.NotContains(t, text, "#121212")
	assert.Contains(t, text, `fill="#1F5493"`)
	// nested elements are recolored too
	assert.Contains(t, text, `<circle fill="#1F5493"`)
	// unmapped colors stay
	assert.Contains(t, text, `stroke="#FFFFFF"`)
}

func TestRecolorSVGCaseInsensitiveMatch(t *testing.T) {
	out, err := theme.RecolorSVG([]byte(`<svg><rect fill="#ABCDEF"/></svg>`), map[string]string{
		"#abcdef": "#000000",
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), `fill="#000000"`)
}

func TestRecolorSVGInvalidDocument(t *testing.T) {
	_, err := theme.RecolorSVG([]byte("<svg><unclosed"), map[string]string{})
	assert.Error(t, err)
}

func TestCopyTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/theme/logo.svg", []byte(logoSVG), 0644))
	require.NoError(t, afero.WriteFile(fs, "/theme/fonts/brand.css", []byte("body {}"), 0644))

	installer := theme.NewInstaller(fs, zerolog.Nop())
	require.NoError(t, installer.CopyTree("/theme", "/dest/packages/app/src/theme"))

	data, err := afero.ReadFile(fs, "/dest/packages/app/src/theme/logo.svg")
	require.NoError(t, err)
	assert.Equal(t, logoSVG, string(data))

	exists, err := afero.Exists(fs, "/dest/packages/app/src/theme/fonts/brand.css")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCopyTreeOverwritesExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/theme/logo.svg", []byte("new"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/dest/theme/logo.svg", []byte("old"), 0644))

	installer := theme.NewInstaller(fs, zerolog.Nop())
	require.NoError(t, installer.CopyTree("/theme", "/dest/theme"))

	data, err := afero.ReadFile(fs, "/dest/theme/logo.svg")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestRecolorAssets(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dest/theme/logo.svg", []byte(logoSVG), 0644))
	require.NoError(t, afero.WriteFile(fs, "/dest/theme/broken.svg", []byte("<svg><unclosed"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/dest/theme/readme.txt", []byte("#121212"), 0644))

	installer := theme.NewInstaller(fs, zerolog.Nop())
	require.NoError(t, installer.RecolorAssets("/dest/theme", map[string]string{"#121212": "#1F5493"}))

	logo, err := afero.ReadFile(fs, "/dest/theme/logo.svg")
	require.NoError(t, err)
	assert.Contains(t, string(logo), "#1F5493")

	// broken SVG skipped, non-SVG untouched
	txt, err := afero.ReadFile(fs, "/dest/theme/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "#121212", string(txt))
}
