// Package sass compiles SCSS and indented Sass through the Dart Sass
// embedded protocol.
package sass

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"
	"github.com/rs/zerolog"
	"go.trai.ch/zerr"
)

var (
	// ErrEngineUnavailable is returned when the Dart Sass binary cannot be
	// started.
	ErrEngineUnavailable = zerr.New("sass engine unavailable")
	// ErrRender is returned when Dart Sass rejects the source.
	ErrRender = zerr.New("sass compilation failed")
)

// DefaultTimeout bounds a single compilation.
const DefaultTimeout = 30 * time.Second

// Syntax selects the input flavour.
type Syntax int

const (
	SCSS Syntax = iota
	Indented
)

// Options describes one compilation.
type Options struct {
	Source string
	// Path is the absolute path of the stylesheet, used for relative
	// imports and error messages.
	Path         string
	Syntax       Syntax
	IncludePaths []string
}

// Engine renders Sass sources to CSS.
//
//go:generate mockgen -source=sass.go -destination=mocks/mock_sass.go -package=mocks
type Engine interface {
	Render(ctx context.Context, opts Options) (string, error)
	Close() error
}

// Config configures the Dart Sass engine.
type Config struct {
	// Binary is the dart-sass executable. Empty means "sass" on PATH.
	Binary  string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// DartSass is an Engine backed by a long-lived godartsass transpiler,
// started on first use.
type DartSass struct {
	cfg Config

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

var _ Engine = (*DartSass)(nil)

// NewDartSass creates an engine. The binary is not started until the first
// Render.
func NewDartSass(cfg Config) *DartSass {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &DartSass{cfg: cfg}
}

func (d *DartSass) start() (*godartsass.Transpiler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transpiler != nil {
		return d.transpiler, nil
	}

	logger := d.cfg.Logger
	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: d.cfg.Binary,
		Timeout:                  d.cfg.Timeout,
		LogEventHandler: func(e godartsass.LogEvent) {
			logger.Warn().Int("type", int(e.Type)).Msg(e.Message)
		},
	})
	if err != nil {
		err = zerr.Wrap(ErrEngineUnavailable, err.Error())
		return nil, zerr.With(err, "binary", d.cfg.Binary)
	}
	d.transpiler = t
	return t, nil
}

// Render implements Engine.
func (d *DartSass) Render(ctx context.Context, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t, err := d.start()
	if err != nil {
		return "", err
	}

	syntax := godartsass.SourceSyntaxSCSS
	if opts.Syntax == Indented {
		syntax = godartsass.SourceSyntaxSASS
	}
	args := godartsass.Args{
		Source:       opts.Source,
		OutputStyle:  godartsass.OutputStyleExpanded,
		SourceSyntax: syntax,
		IncludePaths: opts.IncludePaths,
	}
	if opts.Path != "" {
		args.URL = "file://" + filepath.ToSlash(opts.Path)
	}

	type result struct {
		css string
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := t.Execute(args)
		done <- result{css: res.CSS, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, godartsass.ErrShutdown) {
				d.reset(t)
			}
			err := zerr.Wrap(ErrRender, r.err.Error())
			return "", zerr.With(err, "path", opts.Path)
		}
		return r.css, nil
	}
}

// reset drops a transpiler that shut down so the next Render restarts it.
func (d *DartSass) reset(t *godartsass.Transpiler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler == t {
		d.transpiler = nil
	}
}

// Close stops the transpiler if it was started.
func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler == nil {
		return nil
	}
	err := d.transpiler.Close()
	d.transpiler = nil
	if err != nil && !errors.Is(err, godartsass.ErrShutdown) {
		return zerr.Wrap(err, "failed to stop sass engine")
	}
	return nil
}
