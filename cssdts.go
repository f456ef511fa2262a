// Package cssdts types stylesheet imports for a TypeScript-style host.
//
// A Session intercepts the host's module resolution and file access so that
// importing a stylesheet resolves to a virtual declaration file listing its
// class names:
//
//	import styles from "./button.module.css"
//	// resolves to ./button.module.css.d.ts:
//	// declare const tokens: { root: string, primary: string };
//	// export = tokens;
//
// CSS, LESS, SCSS and indented Sass sources are supported. Declarations are
// compiled on first import and recompiled when the stylesheet's modification
// time moves past the declaration's.
//
// # Plugin
//
//	s, err := cssdts.NewSession(cssdts.DefaultConfig())
//	if err != nil { ... }
//	defer s.Close()
//	service = s.Create(info)
//
// # Batch use
//
// Generate writes declaration files next to stylesheets, and Check reports
// imports whose stylesheets are missing, fail to compile, or whose
// declarations on disk are out of date:
//
//	result, err := cssdts.Generate(ctx, s, cssdts.GenerateConfig{
//		Patterns: []string{"src/**/*.module.css"},
//		Write:    true,
//	})
//
// The cssdts command wraps both. Install with:
//
//	go install github.com/yacobolo/cssdts/cmd/cssdts@latest
package cssdts

import (
	"github.com/yacobolo/cssdts/internal/plugin"
)

// Config configures a session.
type Config = plugin.Config

// Session is one plugin session.
type Session = plugin.Session

// Option configures a Session.
type Option = plugin.Option

// Host types handed to Session.Create.
type (
	CreateInfo          = plugin.CreateInfo
	LanguageService     = plugin.LanguageService
	LanguageServiceHost = plugin.LanguageServiceHost
	Project             = plugin.Project
	ResolveArgs         = plugin.ResolveArgs
	ResolvedModule      = plugin.ResolvedModule
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return plugin.DefaultConfig()
}

// NewSession builds a session.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	return plugin.NewSession(cfg, opts...)
}

// Session options.
var (
	WithBase       = plugin.WithBase
	WithLogger     = plugin.WithLogger
	WithSassEngine = plugin.WithSassEngine
)
