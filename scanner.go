package cssdts

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"go.trai.ch/zerr"
)

// ImportReference is a module specifier found in a script.
type ImportReference struct {
	Specifier string       // "./button.module.css"
	Location  FileLocation // where the specifier starts
}

// FileLocation tracks where a reference was found.
type FileLocation struct {
	File   string
	Line   int
	Column int    // 1-based column of the specifier's first character
	Text   string // line content without trailing whitespace
}

// ScanStats tracks file scanning statistics.
type ScanStats struct {
	FilesDiscovered int // files found by the glob patterns
	FilesScanned    int // files kept after filtering
	FilesSkipped    int // generated or ignored files
}

// importPattern finds a quoted specifier in one statement form.
type importPattern struct {
	name  string
	regex *regexp.Regexp
}

var (
	// Ordered so that a specifier matched by an earlier form is not
	// reported again by a later one.
	importPatterns = []importPattern{
		{name: "import from", regex: regexp.MustCompile(`\bfrom\s*(["'])([^"']+)["']`)},
		{name: "side effect import", regex: regexp.MustCompile(`^\s*import\s*(["'])([^"']+)["']`)},
		{name: "require call", regex: regexp.MustCompile(`\brequire\(\s*(["'])([^"']+)["']\s*\)`)},
		{name: "dynamic import", regex: regexp.MustCompile(`\bimport\(\s*(["'])([^"']+)["']\s*\)`)},
	}

	commentPattern = regexp.MustCompile(`^\s*(//|\*|/\*)`)

	gitIgnoreCache *ignore.GitIgnore
	gitIgnoreOnce  sync.Once
)

// isGenerated reports declaration files and dependency trees, which are
// never scanned.
func isGenerated(path string) bool {
	if strings.HasSuffix(path, ".d.ts") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "node_modules" {
			return true
		}
	}
	return false
}

// loadGitIgnore loads ./.gitignore once. A missing file means no filtering.
func loadGitIgnore() *ignore.GitIgnore {
	gitIgnoreOnce.Do(func() {
		gi, err := ignore.CompileIgnoreFile(".gitignore")
		if err != nil {
			return
		}
		gitIgnoreCache = gi
	})
	return gitIgnoreCache
}

// shouldSkipFile filters generated files, then gitignored ones. Gitignore
// only applies to relative paths.
func shouldSkipFile(path string) bool {
	if isGenerated(path) {
		return true
	}
	if !filepath.IsAbs(path) {
		gi := loadGitIgnore()
		if gi != nil && gi.MatchesPath(path) {
			return true
		}
	}
	return false
}

// ExpandPatterns expands doublestar glob patterns to the files they match,
// deduplicated and filtered.
func ExpandPatterns(patterns []string) ([]string, ScanStats, error) {
	var files []string
	seen := make(map[string]bool)
	stats := ScanStats{}

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, stats, zerr.With(zerr.Wrap(err, "invalid glob pattern"), "pattern", pattern)
		}

		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true

			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			stats.FilesDiscovered++
			if shouldSkipFile(match) {
				stats.FilesSkipped++
				continue
			}
			files = append(files, match)
			stats.FilesScanned++
		}
	}

	return files, stats, nil
}

// ScanImports lists the module specifiers imported by a script.
func ScanImports(filePath string) ([]ImportReference, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open script"), "path", filePath)
	}
	defer file.Close()

	var refs []ImportReference
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		refs = append(refs, extractImportsFromLine(scanner.Text(), lineNum, filePath)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read script"), "path", filePath)
	}
	return refs, nil
}

// extractImportsFromLine returns the specifiers of one line in column order.
func extractImportsFromLine(line string, lineNum int, file string) []ImportReference {
	if commentPattern.MatchString(line) {
		return nil
	}

	var refs []ImportReference
	taken := make(map[int]bool)
	for _, pattern := range importPatterns {
		for _, match := range pattern.regex.FindAllStringSubmatchIndex(line, -1) {
			if len(match) < 6 || taken[match[4]] {
				continue
			}
			taken[match[4]] = true
			refs = append(refs, ImportReference{
				Specifier: line[match[4]:match[5]],
				Location: FileLocation{
					File:   file,
					Line:   lineNum,
					Column: match[4] + 1,
					Text:   strings.TrimRight(line, " \t\r"),
				},
			})
		}
	}

	slices.SortStableFunc(refs, func(a, b ImportReference) int {
		return a.Location.Column - b.Location.Column
	})
	return refs
}

// GetRelativePath returns absPath relative to the working directory, or
// absPath when that fails.
func GetRelativePath(absPath string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return absPath
	}
	rel, err := filepath.Rel(cwd, absPath)
	if err != nil {
		return absPath
	}
	return rel
}
