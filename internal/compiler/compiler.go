// Package compiler turns stylesheet sources into CSS-Modules token sets and
// the declaration documents served for them.
package compiler

import (
	"context"
	"path"

	"github.com/yacobolo/cssdts/internal/cssmodules"
	"github.com/yacobolo/cssdts/internal/dialect"
	"github.com/yacobolo/cssdts/internal/less"
	"github.com/yacobolo/cssdts/internal/resolve"
	"github.com/yacobolo/cssdts/internal/sass"
	"github.com/yacobolo/cssdts/internal/vfs"
	"go.trai.ch/zerr"
)

// ErrUnsupportedDialect is returned for sources no engine can render.
var ErrUnsupportedDialect = zerr.New("unsupported stylesheet dialect")

// Request is one compilation.
type Request struct {
	Source  string
	Dialect dialect.Dialect
	// Path is the absolute, slash separated path of the stylesheet.
	Path string
	// IncludePaths are searched for preprocessor imports after the
	// stylesheet's own directory.
	IncludePaths []string
}

// Result is the outcome of a compilation.
type Result struct {
	// CSS is the dialect engine output before token extraction.
	CSS          string
	Tokens       *cssmodules.Tokens
	Declaration  string
	Dependencies []string
}

// Compiler dispatches on dialect and extracts tokens.
type Compiler struct {
	files      vfs.FileProvider
	resolver   *resolve.Resolver
	sass       sass.Engine
	scope      cssmodules.ScopeFunc
	extensions []string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithScope sets how exported token values are derived.
func WithScope(fn cssmodules.ScopeFunc) Option {
	return func(c *Compiler) { c.scope = fn }
}

// WithExtensions restricts which dependency extensions are rendered by
// their dialect engine.
func WithExtensions(exts []string) Option {
	return func(c *Compiler) { c.extensions = exts }
}

// New creates a compiler reading dependencies from files. engine may be nil
// when SCSS and Sass are not needed.
func New(files vfs.FileProvider, engine sass.Engine, opts ...Option) *Compiler {
	c := &Compiler{
		files:      files,
		resolver:   resolve.New(files),
		sass:       engine,
		scope:      cssmodules.ScopedName,
		extensions: dialect.DefaultExtensions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render produces the CSS for req without extracting tokens.
func (c *Compiler) Render(ctx context.Context, req Request) (string, error) {
	includes := append([]string{path.Dir(req.Path)}, req.IncludePaths...)

	switch req.Dialect {
	case dialect.CSS:
		return req.Source, nil

	case dialect.Less:
		out, err := less.Render(req.Source, req.Path, less.Options{
			Read:  c.files.ReadFile,
			Paths: includes,
		})
		if err != nil {
			return "", annotate(err, req)
		}
		return out.CSS, nil

	case dialect.SCSS, dialect.Sass:
		if c.sass == nil {
			return "", annotate(zerr.Wrap(sass.ErrEngineUnavailable, "no sass engine configured"), req)
		}
		syntax := sass.SCSS
		if req.Dialect == dialect.Sass {
			syntax = sass.Indented
		}
		css, err := c.sass.Render(ctx, sass.Options{
			Source:       req.Source,
			Path:         req.Path,
			Syntax:       syntax,
			IncludePaths: includes,
		})
		if err != nil {
			return "", annotate(err, req)
		}
		return css, nil

	default:
		return "", annotate(zerr.Wrap(ErrUnsupportedDialect, "no engine for dialect"), req)
	}
}

// Compile renders req and extracts its tokens.
func (c *Compiler) Compile(ctx context.Context, req Request) (*Result, error) {
	css, err := c.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	loader := cssmodules.NewLoader(
		cssmodules.WithScope(c.scope),
		cssmodules.WithSource(c.dependencySource(ctx, req.IncludePaths)),
	)
	res, err := loader.Load(css, req.Path, c.resolver.Fetch)
	if err != nil {
		return nil, annotate(zerr.Wrap(err, "token extraction failed"), req)
	}

	return &Result{
		CSS:          css,
		Tokens:       res.Tokens,
		Declaration:  Declaration(res.Tokens.Keys()),
		Dependencies: res.Dependencies,
	}, nil
}

// dependencySource reads composed stylesheets, rendering preprocessor
// dialects so their tokens can be looked up.
func (c *Compiler) dependencySource(ctx context.Context, includes []string) cssmodules.Source {
	return func(p string) (string, error) {
		data, err := c.files.ReadFile(p)
		if err != nil {
			return "", err
		}
		d := dialect.Detect(p, c.extensions)
		if d == dialect.Unknown {
			d = dialect.CSS
		}
		return c.Render(ctx, Request{
			Source:       string(data),
			Dialect:      d,
			Path:         p,
			IncludePaths: includes,
		})
	}
}

func annotate(err error, req Request) error {
	err = zerr.With(err, "path", req.Path)
	return zerr.With(err, "dialect", req.Dialect.String())
}
