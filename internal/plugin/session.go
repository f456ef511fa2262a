// Package plugin wires the virtual declaration files into a host: module
// resolution, file access, script info and definition lookup.
package plugin

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yacobolo/cssdts/internal/compiler"
	"github.com/yacobolo/cssdts/internal/cssmodules"
	"github.com/yacobolo/cssdts/internal/hook"
	"github.com/yacobolo/cssdts/internal/logging"
	"github.com/yacobolo/cssdts/internal/registry"
	"github.com/yacobolo/cssdts/internal/resolve"
	"github.com/yacobolo/cssdts/internal/sass"
	"github.com/yacobolo/cssdts/internal/vfs"
	"go.trai.ch/zerr"
)

// Session owns the state of one host session: the registry, the compiler
// and the file provider chain. It is safe for concurrent use.
type Session struct {
	cfg       Config
	logger    zerolog.Logger
	loggerSet bool
	closer    io.Closer

	base     vfs.FileProvider
	files    vfs.FileProvider
	engine   sass.Engine
	compiler *compiler.Compiler
	registry *registry.Registry

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	projects []*Project
}

// Option configures a Session.
type Option func(*Session)

// WithBase sets the provider below the virtual file layer. Defaults to the
// OS file system.
func WithBase(base vfs.FileProvider) Option {
	return func(s *Session) { s.base = base }
}

// WithLogger replaces the logger built from Config.Log.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
		s.loggerSet = true
	}
}

// WithSassEngine replaces the Dart Sass engine.
func WithSassEngine(engine sass.Engine) Option {
	return func(s *Session) { s.engine = engine }
}

// NewSession builds a session.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	cfg = cfg.withDefaults()
	s := &Session{cfg: cfg, closer: nopCloser{}}
	for _, opt := range opts {
		opt(s)
	}

	if !s.loggerSet {
		logger, closer, err := logging.New(os.Stderr, cfg.Log)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to create session logger")
		}
		s.logger, s.closer = logger, closer
	}
	if s.base == nil {
		s.base = vfs.OS()
	}
	if s.engine == nil {
		s.engine = sass.NewDartSass(sass.Config{
			Binary: cfg.SassBinary,
			Logger: logging.For(s.logger, "sass"),
		})
	}

	scope := cssmodules.Identity
	if cfg.ScopedNames {
		scope = cssmodules.ScopedName
	}
	s.compiler = compiler.New(s.base, s.engine,
		compiler.WithScope(scope),
		compiler.WithExtensions(cfg.Extensions),
	)
	s.registry = registry.New(registry.Options{
		Suffix:       cfg.DeclarationSuffix,
		Files:        s.base,
		Compiler:     s.compiler,
		IncludePaths: s.includePaths,
		Logger:       logging.For(s.logger, "registry"),
	})
	s.files = vfs.Chain(s.base, s.Middleware())
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Debug().
		Str(logging.SourceField, "plugin").
		Strs("extensions", cfg.Extensions).
		Str("suffix", cfg.DeclarationSuffix).
		Msg("session started")
	return s, nil
}

// Create activates the plugin for one host language service. It installs
// the resolution and script-info hooks and returns the proxied language
// service. Activating again with the same host slots installs nothing new.
func (s *Session) Create(info CreateInfo) LanguageService {
	log := logging.For(s.logger, "plugin")

	if host := info.LanguageServiceHost; host != nil && host.ResolveModuleNames != nil {
		if !hook.Wrap[ResolveArgs, []*ResolvedModule](host.ResolveModuleNames, nil, s.afterResolve) {
			log.Debug().Str("method", host.ResolveModuleNames.Name()).Msg("method already hooked")
		}
	}
	if project := info.Project; project != nil {
		s.addProject(project)
		if project.GetScriptInfo != nil {
			if !hook.Wrap[string, ScriptInfo](project.GetScriptInfo, s.beforeScriptInfo, nil) {
				log.Debug().Str("method", project.GetScriptInfo.Name()).Msg("method already hooked")
			}
		}
	}

	return &proxy{LanguageService: info.LanguageService, session: s}
}

// Config returns the session configuration with defaults applied.
func (s *Session) Config() Config {
	return s.cfg
}

// Logger returns the session logger.
func (s *Session) Logger() zerolog.Logger {
	return s.logger
}

// Files returns the full provider chain, virtual files included.
func (s *Session) Files() vfs.FileProvider {
	return s.files
}

// Registry exposes the session's records.
func (s *Session) Registry() *registry.Registry {
	return s.registry
}

// Compiler exposes the session's compiler.
func (s *Session) Compiler() *compiler.Compiler {
	return s.compiler
}

// Wait blocks until every record has settled.
func (s *Session) Wait(ctx context.Context) error {
	for _, rec := range s.registry.Records() {
		if err := rec.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close stops background compilations and the Sass engine.
func (s *Session) Close() error {
	s.cancel()
	var errs []error
	if err := s.engine.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.closer.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// StatAsync runs Stat through the provider chain on a new goroutine and
// hands the result to callback.
func (s *Session) StatAsync(name string, callback func(fs.FileInfo, error)) {
	go func() {
		callback(s.files.Stat(name))
	}()
}

func (s *Session) addProject(p *Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.projects, p) {
		s.projects = append(s.projects, p)
	}
}

// includePaths lists the directories of every project root file, then the
// configured include paths.
func (s *Session) includePaths() []string {
	s.mu.Lock()
	projects := slices.Clone(s.projects)
	s.mu.Unlock()

	var dirs []string
	for _, p := range projects {
		for _, f := range p.RootFiles() {
			dir := path.Dir(resolve.ToSlash(f))
			if !slices.Contains(dirs, dir) {
				dirs = append(dirs, dir)
			}
		}
	}
	for _, dir := range s.cfg.IncludePaths {
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
