package config

import (
	_ "embed"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// DefaultConfigContent returns the embedded defaults, used by the
// genconfig command to seed a project .flowsource.toml.
func DefaultConfigContent() string {
	return string(defaultConfig)
}
