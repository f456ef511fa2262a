package cssdts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yacobolo/cssdts/internal/compiler"
	"github.com/yacobolo/cssdts/internal/dialect"
	"github.com/yacobolo/cssdts/internal/hook"
	"github.com/yacobolo/cssdts/internal/logging"
	"github.com/yacobolo/cssdts/internal/plugin"
	"github.com/yacobolo/cssdts/internal/registry"
	"github.com/yacobolo/cssdts/internal/report"
	"go.trai.ch/zerr"
)

// CheckConfig holds check configuration.
type CheckConfig struct {
	ScanPaths []string // scripts to scan, e.g. "src/**/*.{ts,tsx}"
	// Stale compares the declarations on disk with freshly compiled ones.
	Stale bool

	MaxIssuesPerLinter int // 0 = unlimited
	MaxSameIssues      int // 0 = unlimited
}

// CheckResult is the outcome of a check run.
type CheckResult struct {
	Issues             []Issue
	FilesScanned       int
	ImportsFound       int
	StylesheetsChecked int
	ErrorCount         int
	WarningCount       int
	TruncatedCount     int
}

// Check runs ResolveImports over every scanned script. It reports imports
// that do not resolve and stylesheets that fail to compile. With Stale it
// also reports declaration files on disk that differ from the compiled ones.
func Check(ctx context.Context, s *Session, cfg CheckConfig) (*CheckResult, error) {
	log := logging.For(s.Logger(), "check")

	scripts, stats, err := ExpandPatterns(cfg.ScanPaths)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to scan files")
	}
	log.Debug().Int("scanned", stats.FilesScanned).Int("skipped", stats.FilesSkipped).Msg("expanded scan paths")

	result := &CheckResult{FilesScanned: len(scripts)}
	checked := make(map[string]bool)

	for _, script := range scripts {
		resolutions, err := ResolveImports(s, script)
		if err != nil {
			return nil, err
		}
		result.ImportsFound += len(resolutions)

		for _, res := range resolutions {
			ref := res.Import
			if res.VirtualPath == "" {
				result.Issues = append(result.Issues, newIssue(ref, report.LinterResolve, report.SeverityError,
					fmt.Sprintf(report.IssueNotFound, ref.Specifier)))
				continue
			}
			if checked[res.VirtualPath] {
				continue
			}
			checked[res.VirtualPath] = true

			rec, ok := s.Registry().Lookup(res.VirtualPath)
			if !ok {
				continue
			}
			if err := rec.Wait(ctx); err != nil {
				return nil, err
			}
			result.StylesheetsChecked++
			result.Issues = append(result.Issues, checkRecord(rec, ref, cfg)...)
		}
	}

	report.Sort(result.Issues)
	result.Issues, result.TruncatedCount = report.Limit(result.Issues, cfg.MaxIssuesPerLinter, cfg.MaxSameIssues)
	result.ErrorCount, result.WarningCount = report.Count(result.Issues)
	return result, nil
}

// checkRecord reports on one compiled record, at the first import that
// reached it.
func checkRecord(rec *registry.Record, ref ImportReference, cfg CheckConfig) []Issue {
	if err := rec.LastError(); err != nil && !rec.Compiled() {
		return []Issue{newIssue(ref, report.LinterCompile, report.SeverityError,
			fmt.Sprintf(report.IssueCompile, ref.Specifier, err))}
	}

	var issues []Issue
	content := rec.Content()
	if content == compiler.FallbackDeclaration {
		issues = append(issues, newIssue(ref, report.LinterCompile, report.SeverityWarning,
			fmt.Sprintf(report.IssueNoClassNames, ref.Specifier)))
	}

	if cfg.Stale {
		onDisk := filepath.FromSlash(rec.VirtualPath())
		// #nosec G304 - path is derived from a scanned import
		data, err := os.ReadFile(onDisk)
		switch {
		case err != nil:
			issues = append(issues, newIssue(ref, report.LinterStale, report.SeverityWarning,
				fmt.Sprintf(report.IssueMissingDecl, GetRelativePath(onDisk))))
		case string(data) != content:
			issues = append(issues, newIssue(ref, report.LinterStale, report.SeverityWarning,
				fmt.Sprintf(report.IssueStale, GetRelativePath(onDisk))))
		}
	}
	return issues
}

func newIssue(ref ImportReference, linter, severity, text string) Issue {
	return Issue{
		FromLinter:  linter,
		Text:        text,
		Severity:    severity,
		SourceLines: []string{ref.Location.Text},
		Pos: report.Pos{
			Filename: ref.Location.File,
			Line:     ref.Location.Line,
			Column:   ref.Location.Column,
		},
	}
}

// Resolution is one stylesheet import and where the resolution hook sent it.
type Resolution struct {
	Import ImportReference
	// VirtualPath is the declaration path, empty when the import did not
	// resolve.
	VirtualPath string
}

// ResolveImports scans script and runs its stylesheet imports through the
// session's resolution hook, exactly as a host would. Imports without a
// stylesheet extension are left out.
func ResolveImports(s *Session, script string) ([]Resolution, error) {
	refs, err := ScanImports(script)
	if err != nil {
		return nil, err
	}

	exts := s.Config().Extensions
	var sheets []ImportReference
	for _, ref := range refs {
		if dialect.Detect(ref.Specifier, exts) != dialect.Unknown {
			sheets = append(sheets, ref)
		}
	}
	if len(sheets) == 0 {
		return nil, nil
	}

	abs, err := filepath.Abs(script)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", script)
	}
	names := make([]string, len(sheets))
	for i, ref := range sheets {
		names[i] = ref.Specifier
	}

	host := unresolvedHost()
	s.Create(plugin.CreateInfo{LanguageServiceHost: host})
	resolved := host.ResolveModuleNames.Call(plugin.ResolveArgs{
		ModuleNames:    names,
		ContainingFile: filepath.ToSlash(abs),
	})

	out := make([]Resolution, len(sheets))
	for i, ref := range sheets {
		out[i] = Resolution{Import: ref}
		if i < len(resolved) && resolved[i] != nil {
			out[i].VirtualPath = resolved[i].ResolvedFileName
		}
	}
	return out, nil
}

// unresolvedHost is a host that resolves nothing itself, leaving every
// module to the session's hook.
func unresolvedHost() *plugin.LanguageServiceHost {
	return &plugin.LanguageServiceHost{
		ResolveModuleNames: hook.New("resolveModuleNames", func(args plugin.ResolveArgs) []*plugin.ResolvedModule {
			return make([]*plugin.ResolvedModule, len(args.ModuleNames))
		}),
	}
}
