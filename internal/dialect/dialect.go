// Package dialect enumerates the stylesheet languages cssdts understands.
package dialect

import (
	"path/filepath"
	"slices"
)

// Dialect is a stylesheet source language.
type Dialect int

// Supported dialects.
const (
	Unknown Dialect = iota
	CSS
	Less
	SCSS
	Sass
)

// DefaultExtensions is the default set of recognised stylesheet extensions.
var DefaultExtensions = []string{".css", ".less", ".scss", ".sass"}

// FromExtension maps an extension (with the leading dot) to a dialect.
// Matching is exact and case sensitive.
func FromExtension(ext string) Dialect {
	switch ext {
	case ".css":
		return CSS
	case ".less":
		return Less
	case ".scss":
		return SCSS
	case ".sass":
		return Sass
	default:
		return Unknown
	}
}

// Detect returns the dialect of path if its extension is in allowed.
func Detect(path string, allowed []string) Dialect {
	ext := filepath.Ext(path)
	if !slices.Contains(allowed, ext) {
		return Unknown
	}
	return FromExtension(ext)
}

// Async reports whether the dialect's engine compiles off the caller's
// goroutine.
func (d Dialect) Async() bool {
	return d == Less
}

// Preprocessed reports whether source text must be rendered to CSS before
// token extraction.
func (d Dialect) Preprocessed() bool {
	return d == Less || d == SCSS || d == Sass
}

func (d Dialect) String() string {
	switch d {
	case CSS:
		return "css"
	case Less:
		return "less"
	case SCSS:
		return "scss"
	case Sass:
		return "sass"
	default:
		return "unknown"
	}
}
