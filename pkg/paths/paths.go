// Package paths centralizes every path flowsource touches inside a
// destination tree. The generated app layout is fixed by the upstream
// scaffolder, so these relative locations are constants rather than
// user configuration.
package paths

import (
	"os"
	"path/filepath"

	"github.com/RD2153874/flowsource/pkg/errors"
)

// Environment variable names
const (
	// EnvDestinationRoot overrides the destination tree location
	EnvDestinationRoot = "FLOWSOURCE_DEST"
)

// Locations inside a generated app tree, relative to the destination root.
// These mirror the scaffolder's output layout and are not configurable.
const (
	// AppConfigFile is the persisted configuration document
	AppConfigFile = "app-config.yaml"

	// AppConfigTemplateFile receives the dual-mode template output
	AppConfigTemplateFile = "app-config.flowsource.yaml"

	// AppConfigValueFile receives the dual-mode value output
	AppConfigValueFile = "app-config.local.yaml"

	// FrontendDir is the generated frontend package
	FrontendDir = "packages/app"

	// BackendDir is the generated backend package
	BackendDir = "packages/backend"

	// AppSourceFile assembles the frontend application
	AppSourceFile = "packages/app/src/App.tsx"

	// ApisSourceFile declares frontend API factories
	ApisSourceFile = "packages/app/src/apis.ts"

	// AuthModuleFile wires backend auth providers
	AuthModuleFile = "packages/backend/src/index.ts"

	// ThemeDir receives copied theme assets
	ThemeDir = "packages/app/src/theme"
)

// Paths resolves locations inside one destination tree.
type Paths struct {
	root string
}

// New creates a Paths rooted at destRoot. An empty destRoot falls back
// to FLOWSOURCE_DEST and then to the current directory.
func New(destRoot string) (*Paths, error) {
	if destRoot == "" {
		destRoot = os.Getenv(EnvDestinationRoot)
	}
	if destRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "cannot determine working directory")
		}
		destRoot = cwd
	}

	abs, err := filepath.Abs(destRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid destination root %q", destRoot)
	}

	return &Paths{root: abs}, nil
}

// Root returns the absolute destination root.
func (p *Paths) Root() string { return p.root }

// AppConfig returns the path of the persisted configuration document.
func (p *Paths) AppConfig() string { return filepath.Join(p.root, AppConfigFile) }

// AppConfigTemplate returns the dual-mode template output path.
func (p *Paths) AppConfigTemplate() string { return filepath.Join(p.root, AppConfigTemplateFile) }

// AppConfigValue returns the dual-mode value output path.
func (p *Paths) AppConfigValue() string { return filepath.Join(p.root, AppConfigValueFile) }

// Frontend returns the generated frontend package directory.
func (p *Paths) Frontend() string { return filepath.Join(p.root, filepath.FromSlash(FrontendDir)) }

// Backend returns the generated backend package directory.
func (p *Paths) Backend() string { return filepath.Join(p.root, filepath.FromSlash(BackendDir)) }

// AppSource returns the frontend application source file.
func (p *Paths) AppSource() string { return filepath.Join(p.root, filepath.FromSlash(AppSourceFile)) }

// ApisSource returns the frontend API factory source file.
func (p *Paths) ApisSource() string {
	return filepath.Join(p.root, filepath.FromSlash(ApisSourceFile))
}

// AuthModule returns the backend auth wiring source file.
func (p *Paths) AuthModule() string {
	return filepath.Join(p.root, filepath.FromSlash(AuthModuleFile))
}

// Theme returns the theme asset directory inside the destination tree.
func (p *Paths) Theme() string { return filepath.Join(p.root, filepath.FromSlash(ThemeDir)) }
