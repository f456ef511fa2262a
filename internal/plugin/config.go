package plugin

import (
	"slices"

	"github.com/yacobolo/cssdts/internal/dialect"
	"github.com/yacobolo/cssdts/internal/logging"
	"github.com/yacobolo/cssdts/internal/registry"
)

// Config configures a session.
type Config struct {
	// Extensions are the stylesheet extensions imports are matched
	// against, exactly and case sensitively.
	Extensions []string
	// DeclarationSuffix is appended to a stylesheet path to form its
	// virtual declaration path.
	DeclarationSuffix string
	// SassBinary is the dart-sass executable. Empty means "sass" on PATH.
	SassBinary string
	// ScopedNames exports scoped class names as token values instead of
	// the local names.
	ScopedNames bool
	// IncludePaths are searched for preprocessor imports after the
	// project's root directories.
	IncludePaths []string

	Log logging.Config
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Extensions:        slices.Clone(dialect.DefaultExtensions),
		DeclarationSuffix: registry.DefaultSuffix,
		ScopedNames:       true,
		Log:               logging.Config{Level: "info"},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.Extensions) == 0 {
		c.Extensions = def.Extensions
	}
	if c.DeclarationSuffix == "" {
		c.DeclarationSuffix = def.DeclarationSuffix
	}
	return c
}
