package cssdts

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/yacobolo/cssdts/internal/compiler"
	"github.com/yacobolo/cssdts/internal/dialect"
	"github.com/yacobolo/cssdts/internal/logging"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// GenerateConfig selects the stylesheets to compile.
type GenerateConfig struct {
	// Patterns are doublestar globs. Files whose extension is not one of
	// the session's stylesheet extensions are ignored.
	Patterns []string
	// Write puts each declaration next to its stylesheet.
	Write bool
	// Concurrency bounds parallel compilations. Zero means one per CPU.
	Concurrency int
}

// Declaration is the outcome for one stylesheet.
type Declaration struct {
	Path            string   // stylesheet as matched
	DeclarationPath string   // where the declaration lives
	Dialect         string   // "css", "less", "scss" or "sass"
	Content         string   // declaration document, empty on failure
	Tokens          []string // exported names in order
	Written         bool
	Err             error
}

// GenerateResult summarises a Generate run.
type GenerateResult struct {
	FilesScanned int
	Declarations []Declaration
	Written      int
	Failed       int
}

// Generate compiles every matched stylesheet into its declaration,
// optionally writing it to disk. A stylesheet that fails to compile is
// reported in its Declaration; write failures abort the run.
func Generate(ctx context.Context, s *Session, cfg GenerateConfig) (*GenerateResult, error) {
	log := logging.For(s.Logger(), "generate")
	exts := s.Config().Extensions

	files, stats, err := ExpandPatterns(cfg.Patterns)
	if err != nil {
		return nil, zerr.Wrap(err, "scan failed")
	}

	var sheets []string
	for _, f := range files {
		if dialect.Detect(f, exts) != dialect.Unknown {
			sheets = append(sheets, f)
		}
	}
	log.Debug().Int("files", stats.FilesScanned).Int("stylesheets", len(sheets)).Msg("expanded patterns")

	result := &GenerateResult{
		FilesScanned: len(sheets),
		Declarations: make([]Declaration, len(sheets)),
	}

	limit := cfg.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, sheet := range sheets {
		g.Go(func() error {
			decl := compileOne(gctx, s, sheet)
			if decl.Err == nil && cfg.Write {
				// #nosec G306 - declarations are meant to be readable
				if err := os.WriteFile(decl.DeclarationPath, []byte(decl.Content), 0o644); err != nil {
					return zerr.With(zerr.Wrap(err, "failed to write declaration"), "path", decl.DeclarationPath)
				}
				decl.Written = true
			}
			result.Declarations[i] = decl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, decl := range result.Declarations {
		switch {
		case decl.Err != nil:
			result.Failed++
			logging.Err(log.Warn(), decl.Err).Str("path", decl.Path).Msg("compilation failed")
		case decl.Written:
			result.Written++
		}
	}
	return result, nil
}

func compileOne(ctx context.Context, s *Session, sheet string) Declaration {
	d := dialect.Detect(sheet, s.Config().Extensions)
	decl := Declaration{Path: sheet, Dialect: d.String()}

	abs, err := filepath.Abs(sheet)
	if err != nil {
		decl.Err = zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", sheet)
		return decl
	}
	abs = filepath.ToSlash(abs)
	decl.DeclarationPath = filepath.FromSlash(s.Registry().VirtualPath(abs))

	src, err := s.Files().ReadFile(abs)
	if err != nil {
		decl.Err = zerr.With(zerr.Wrap(err, "failed to read stylesheet"), "path", sheet)
		return decl
	}

	res, err := s.Compiler().Compile(ctx, compiler.Request{
		Source:       string(src),
		Dialect:      d,
		Path:         abs,
		IncludePaths: s.Config().IncludePaths,
	})
	if err != nil {
		decl.Err = err
		return decl
	}
	decl.Content = res.Declaration
	decl.Tokens = res.Tokens.Keys()
	return decl
}
