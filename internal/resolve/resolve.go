// Package resolve locates files referenced from stylesheets using
// node-style module lookup: relative and absolute paths are tried as files,
// then with known extensions, then as directories; bare specifiers are
// searched for in every node_modules directory up to the root.
package resolve

import (
	"path"
	"strings"

	"github.com/goccy/go-json"
	"github.com/yacobolo/cssdts/internal/vfs"
	"go.trai.ch/zerr"
)

// ErrNotFound is returned when no candidate exists.
var ErrNotFound = zerr.New("cannot resolve module")

// DefaultExtensions are appended to extensionless specifiers, in order.
var DefaultExtensions = []string{".css", ".less", ".scss", ".sass", ".js", ".json"}

// packageFields are read from package.json, in order, to find a directory's
// entry file.
var packageFields = []string{"style", "main"}

// Resolver resolves specifiers against a file provider.
type Resolver struct {
	files      vfs.FileProvider
	extensions []string
	indexFiles []string
}

// New creates a resolver. When no extensions are given DefaultExtensions
// are used.
func New(files vfs.FileProvider, extensions ...string) *Resolver {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	index := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		index = append(index, "index"+ext)
	}
	return &Resolver{
		files:      files,
		extensions: extensions,
		indexFiles: index,
	}
}

// Unquote strips every single and double quote character from s.
func Unquote(s string) string {
	return strings.NewReplacer(`"`, "", `'`, "").Replace(strings.TrimSpace(s))
}

// Fetch resolves specifier relative to the directory of the file relativeTo.
// It is the callback shape the CSS-Modules loader expects.
func (r *Resolver) Fetch(specifier, relativeTo string) (string, error) {
	return r.Resolve(specifier, path.Dir(ToSlash(relativeTo)))
}

// Resolve resolves specifier relative to basedir.
func (r *Resolver) Resolve(specifier, basedir string) (string, error) {
	spec := ToSlash(Unquote(specifier))
	basedir = ToSlash(basedir)

	if spec == "" {
		return "", zerr.With(zerr.Wrap(ErrNotFound, "empty specifier"), "basedir", basedir)
	}

	if isPathLike(spec) {
		target := spec
		if !path.IsAbs(spec) {
			target = path.Join(basedir, spec)
		}
		if resolved, ok := r.loadAsFile(target); ok {
			return resolved, nil
		}
		if resolved, ok := r.loadAsDirectory(target); ok {
			return resolved, nil
		}
		return "", notFound(specifier, basedir)
	}

	// Webpack-style "~pkg/file" means a node_modules lookup.
	spec = strings.TrimPrefix(spec, "~")
	for _, dir := range nodeModulesPaths(basedir) {
		target := path.Join(dir, spec)
		if resolved, ok := r.loadAsFile(target); ok {
			return resolved, nil
		}
		if resolved, ok := r.loadAsDirectory(target); ok {
			return resolved, nil
		}
	}

	return "", notFound(specifier, basedir)
}

func (r *Resolver) loadAsFile(target string) (string, bool) {
	if r.isFile(target) {
		return target, true
	}
	for _, ext := range r.extensions {
		if candidate := target + ext; r.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) loadAsDirectory(dir string) (string, bool) {
	if data, err := r.files.ReadFile(path.Join(dir, "package.json")); err == nil {
		var pkg map[string]any
		if err := json.Unmarshal(data, &pkg); err == nil {
			for _, field := range packageFields {
				entry, ok := pkg[field].(string)
				if !ok || entry == "" {
					continue
				}
				target := path.Join(dir, entry)
				if resolved, ok := r.loadAsFile(target); ok {
					return resolved, true
				}
				if resolved, ok := r.loadIndex(target); ok {
					return resolved, true
				}
			}
		}
	}
	return r.loadIndex(dir)
}

func (r *Resolver) loadIndex(dir string) (string, bool) {
	for _, name := range r.indexFiles {
		if candidate := path.Join(dir, name); r.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) isFile(p string) bool {
	info, err := r.files.Stat(p)
	return err == nil && !info.IsDir()
}

// nodeModulesPaths lists node_modules directories from basedir up to the root.
func nodeModulesPaths(basedir string) []string {
	var dirs []string
	dir := path.Clean(basedir)
	for {
		if path.Base(dir) != "node_modules" {
			dirs = append(dirs, path.Join(dir, "node_modules"))
		}
		parent := path.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dirs
}

func isPathLike(spec string) bool {
	return path.IsAbs(spec) ||
		spec == "." || spec == ".." ||
		strings.HasPrefix(spec, "./") ||
		strings.HasPrefix(spec, "../")
}

// ToSlash normalises Windows separators to forward slashes.
func ToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func notFound(specifier, basedir string) error {
	err := zerr.Wrap(ErrNotFound, "no file matches specifier")
	err = zerr.With(err, "specifier", specifier)
	return zerr.With(err, "basedir", basedir)
}
