// Package cssmodules extracts CSS-Modules tokens from plain CSS: class
// selectors, :export blocks, keyframes names and composed classes.
package cssmodules

import (
	"path"
	"slices"
	"strings"

	"github.com/yacobolo/cssdts/internal/vfs"
	"go.trai.ch/zerr"
)

var (
	// ErrSyntax is returned for CSS the lexer cannot make sense of.
	ErrSyntax = zerr.New("invalid css")
	// ErrImportCycle is returned when composed or imported files form a cycle.
	ErrImportCycle = zerr.New("import cycle")
	// ErrUnknownClass is returned when composes names a class the target
	// file does not define.
	ErrUnknownClass = zerr.New("composed class not found")
)

// Fetcher resolves specifier relative to the file relativeTo and returns
// the absolute path of the target.
type Fetcher func(specifier, relativeTo string) (string, error)

// Source returns the CSS text of a dependency. Preprocessed dialects are
// rendered by the source before the loader sees them.
type Source func(path string) (string, error)

// ScopeFunc maps a local name in the file at path to its exported value.
type ScopeFunc func(local, path string) string

// Result is the outcome of loading one stylesheet.
type Result struct {
	Tokens *Tokens
	// Dependencies lists files pulled in through composes, :import and
	// @import, in first-seen order.
	Dependencies []string
}

// Loader extracts tokens. It is safe for concurrent use; each Load call
// carries its own state.
type Loader struct {
	source Source
	scope  ScopeFunc
}

// Option configures a Loader.
type Option func(*Loader)

// WithSource sets how dependencies are read.
func WithSource(src Source) Option {
	return func(l *Loader) { l.source = src }
}

// WithScope sets how local names become exported values.
func WithScope(fn ScopeFunc) Option {
	return func(l *Loader) { l.scope = fn }
}

// NewLoader creates a loader. By default dependencies are read from the OS
// file system and names are scoped with ScopedName.
func NewLoader(opts ...Option) *Loader {
	files := vfs.OS()
	l := &Loader{
		source: func(p string) (string, error) {
			data, err := files.ReadFile(p)
			return string(data), err
		},
		scope: ScopedName,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load extracts the tokens of css, the content of the file at path.
// Dependencies are located with fetch.
func (l *Loader) Load(css, filePath string, fetch Fetcher) (*Result, error) {
	run := &run{
		loader: l,
		fetch:  fetch,
		cache:  make(map[string]*Tokens),
	}
	tokens, err := run.extract(css, filePath, []string{filePath})
	if err != nil {
		return nil, err
	}
	return &Result{Tokens: tokens, Dependencies: run.deps}, nil
}

// run holds the state of one Load call.
type run struct {
	loader *Loader
	fetch  Fetcher
	cache  map[string]*Tokens
	deps   []string
}

func (r *run) extract(css, filePath string, chain []string) (*Tokens, error) {
	f := &file{
		run:     r,
		path:    filePath,
		chain:   chain,
		tokens:  NewTokens(),
		aliases: make(map[string]string),
	}
	if err := f.walk(css); err != nil {
		return nil, err
	}
	return f.tokens, nil
}

// dependency loads the tokens of the file specifier points at.
func (r *run) dependency(specifier, from string, chain []string) (string, *Tokens, error) {
	target, err := r.fetch(specifier, from)
	if err != nil {
		return "", nil, zerr.With(zerr.Wrap(err, "failed to resolve dependency"), "specifier", specifier)
	}
	if slices.Contains(chain, target) {
		err := zerr.Wrap(ErrImportCycle, "dependency refers back to an importer")
		err = zerr.With(err, "path", target)
		return "", nil, zerr.With(err, "chain", strings.Join(chain, " -> "))
	}
	if !slices.Contains(r.deps, target) {
		r.deps = append(r.deps, target)
	}
	if cached, ok := r.cache[target]; ok {
		return target, cached, nil
	}

	css, err := r.loader.source(target)
	if err != nil {
		return "", nil, zerr.With(zerr.Wrap(err, "failed to read dependency"), "path", target)
	}
	tokens, err := r.extract(css, target, append(slices.Clone(chain), target))
	if err != nil {
		return "", nil, err
	}
	r.cache[target] = tokens
	return target, tokens, nil
}

// ScopedName returns "_<basename>_<local>_<hash>" where hash is derived
// from the file path and the local name.
func ScopedName(local, filePath string) string {
	return "_" + sanitize(stem(filePath)) + "_" + local + "_" + shortHash(filePath+local)
}

// Identity exports local names unchanged.
func Identity(local, _ string) string {
	return local
}

func stem(filePath string) string {
	base := path.Base(strings.ReplaceAll(filePath, `\`, "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
