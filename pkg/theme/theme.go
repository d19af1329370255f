// Package theme copies FlowSource theme assets into a destination tree
// and rebrands SVG artwork to the configured colors.
package theme

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/RD2153874/flowsource/pkg/errors"
)

// Stock palette the shipped theme assets are drawn in. Branding swaps
// these for the configured colors.
const (
	StockPrimaryColor   = "#1F5493"
	StockSecondaryColor = "#565A6E"
)

// BrandColors maps the stock palette to the configured brand colors.
func BrandColors(primary, secondary string) map[string]string {
	colors := make(map[string]string)
	if primary != "" {
		colors[StockPrimaryColor] = primary
	}
	if secondary != "" {
		colors[StockSecondaryColor] = secondary
	}
	return colors
}

// colorAttrs are the SVG attributes carrying paint colors.
var colorAttrs = []string{"fill", "stroke", "stop-color"}

// Installer copies theme assets and applies branding.
type Installer struct {
	fs  afero.Fs
	log zerolog.Logger
}

// NewInstaller creates an Installer operating through fs.
func NewInstaller(fs afero.Fs, logger zerolog.Logger) *Installer {
	return &Installer{fs: fs, log: logger}
}

// CopyTree copies every file under srcDir into dstDir, creating
// directories as needed. Existing files are overwritten: re-running
// against a partially themed tree converges on the theme's content.
func (i *Installer) CopyTree(srcDir, dstDir string) error {
	return afero.Walk(i.fs, srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileNotFound, "cannot walk theme source %s", path)
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return errors.Wrap(err, errors.ErrInternal, "cannot relativize theme path")
		}
		target := filepath.Join(dstDir, rel)

		if info.IsDir() {
			if err := i.fs.MkdirAll(target, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrDirCreate, "cannot create theme directory %s", target)
			}
			return nil
		}

		data, err := afero.ReadFile(i.fs, path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileNotFound, "cannot read theme asset %s", path)
		}
		if err := i.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "cannot create theme directory for %s", target)
		}
		if err := afero.WriteFile(i.fs, target, data, info.Mode().Perm()); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "cannot write theme asset %s", target)
		}
		i.log.Debug().Str("asset", rel).Msg("Copied theme asset")
		return nil
	})
}

// RecolorSVG rewrites paint attributes in an SVG document according to
// the colors map (old color -> new color, matched case-insensitively).
// Unmapped colors are untouched; an unparseable document is an error.
func RecolorSVG(data []byte, colors map[string]string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid SVG document")
	}

	lowered := make(map[string]string, len(colors))
	for old, replacement := range colors {
		lowered[strings.ToLower(old)] = replacement
	}

	recolorElement(doc.Root(), lowered)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to serialize SVG document")
	}
	return out, nil
}

func recolorElement(el *etree.Element, colors map[string]string) {
	if el == nil {
		return
	}
	for _, attr := range colorAttrs {
		if a := el.SelectAttr(attr); a != nil {
			if replacement, ok := colors[strings.ToLower(a.Value)]; ok {
				el.CreateAttr(attr, replacement)
			}
		}
	}
	for _, child := range el.ChildElements() {
		recolorElement(child, colors)
	}
}

// RecolorAssets applies RecolorSVG to every .svg file under dir.
// Unparseable SVGs are skipped with a warning rather than failing the
// phase; a broken asset should not abort the theming run.
func (i *Installer) RecolorAssets(dir string, colors map[string]string) error {
	return afero.Walk(i.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileNotFound, "cannot walk theme directory %s", path)
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".svg") {
			return nil
		}

		data, err := afero.ReadFile(i.fs, path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileNotFound, "cannot read SVG %s", path)
		}
		recolored, err := RecolorSVG(data, colors)
		if err != nil {
			i.log.Warn().Str("path", path).Err(err).Msg("Skipping unparseable SVG asset")
			return nil
		}
		if err := afero.WriteFile(i.fs, path, recolored, info.Mode().Perm()); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "cannot write SVG %s", path)
		}
		i.log.Debug().Str("path", path).Msg("Rebranded SVG asset")
		return nil
	})
}
