// Package config loads flowsource's own tool configuration. Layering,
// lowest precedence first: embedded defaults, a .flowsource.toml next to
// the invocation, then FLOWSOURCE_* environment variables.
//
// This is the tool's configuration, not the destination app's persisted
// configuration document; that one is owned by pkg/configmerge.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/RD2153874/flowsource/pkg/errors"
)

// ConfigFileName is the optional per-project override file.
const ConfigFileName = ".flowsource.toml"

// EnvPrefix namespaces environment overrides, e.g. FLOWSOURCE_AUTH_DEFAULT_PROVIDER.
const EnvPrefix = "FLOWSOURCE_"

// Settings is the resolved tool configuration.
type Settings struct {
	Scaffold ScaffoldSettings `koanf:"scaffold"`
	Theme    ThemeSettings    `koanf:"theme"`
	Auth     AuthSettings     `koanf:"auth"`
	Merge    MergeSettings    `koanf:"merge"`
	Docs     DocsSettings     `koanf:"docs"`
}

// ScaffoldSettings controls skeleton generation.
type ScaffoldSettings struct {
	Command        string   `koanf:"command"`
	Args           []string `koanf:"args"`
	TimeoutSeconds int      `koanf:"timeout_seconds"`
}

// ThemeSettings controls theme copying and branding.
type ThemeSettings struct {
	Source         string `koanf:"source"`
	PrimaryColor   string `koanf:"primary_color"`
	SecondaryColor string `koanf:"secondary_color"`
}

// AuthSettings controls provider selection defaults.
type AuthSettings struct {
	DefaultProvider string `koanf:"default_provider"`
}

// MergeSettings controls configuration-document merging.
type MergeSettings struct {
	DualMode bool `koanf:"dual_mode"`
}

// DocsSettings controls documentation fragment extraction.
type DocsSettings struct {
	Dir         string   `koanf:"dir"`
	LanguageTag string   `koanf:"language_tag"`
	Keywords    []string `koanf:"keywords"`
}

// Load resolves Settings from defaults, optional project file, and
// environment. searchDir is where the project file is looked up;
// empty means the current directory.
func Load(searchDir string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load embedded defaults")
	}

	if searchDir == "" {
		searchDir = "."
	}
	path := filepath.Join(searchDir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal settings")
	}
	return &s, nil
}

// envKeyMapper turns FLOWSOURCE_AUTH_DEFAULT_PROVIDER into
// auth.default_provider. Only the first underscore separates the
// section; the rest stay part of the key.
func envKeyMapper(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.SplitN(key, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}
