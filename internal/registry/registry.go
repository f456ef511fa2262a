// Package registry maps virtual declaration paths to the stylesheets behind
// them and keeps each declaration fresh.
package registry

import (
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
	"github.com/yacobolo/cssdts/internal/dialect"
	"github.com/yacobolo/cssdts/internal/vfs"
)

// DefaultSuffix is appended to a stylesheet path to form its virtual path.
const DefaultSuffix = ".d.ts"

// Options are shared by every record of a registry.
type Options struct {
	// Suffix is appended to stylesheet paths. Empty means DefaultSuffix.
	Suffix string
	// Files reads stylesheets. It should be the link below the virtual
	// file layer so reads reach the disk.
	Files    vfs.FileProvider
	Compiler Compiler
	// IncludePaths is consulted on every compilation.
	IncludePaths func() []string
	Logger       zerolog.Logger
}

// Registry holds the records of a session. Entries are never removed.
type Registry struct {
	opts    Options
	records cmap.ConcurrentMap[string, *Record]
	reals   cmap.ConcurrentMap[string, string]
}

// New creates an empty registry.
func New(opts Options) *Registry {
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	return &Registry{
		opts:    opts,
		records: cmap.New[*Record](),
		reals:   cmap.New[string](),
	}
}

// VirtualPath returns the virtual declaration path for a stylesheet.
func (g *Registry) VirtualPath(realPath string) string {
	return realPath + g.opts.Suffix
}

// Ensure returns the record for realPath, creating it on first sight. The
// second result reports whether this call created it.
func (g *Registry) Ensure(realPath string, d dialect.Dialect) (*Record, bool) {
	virtual := g.VirtualPath(realPath)
	if rec, ok := g.records.Get(virtual); ok {
		return rec, false
	}

	rec := &Record{
		virtualPath: virtual,
		realPath:    realPath,
		dialect:     d,
		files:       g.opts.Files,
		compiler:    g.opts.Compiler,
		includes:    g.opts.IncludePaths,
		logger:      g.opts.Logger,
	}
	if !g.records.SetIfAbsent(virtual, rec) {
		existing, _ := g.records.Get(virtual)
		return existing, false
	}
	g.reals.Set(realPath, virtual)
	return rec, true
}

// Lookup finds the record behind a virtual path.
func (g *Registry) Lookup(virtualPath string) (*Record, bool) {
	return g.records.Get(virtualPath)
}

// IsStylesheet reports whether realPath backs a registered record.
func (g *Registry) IsStylesheet(realPath string) bool {
	return g.reals.Has(realPath)
}

// Len returns the number of records.
func (g *Registry) Len() int {
	return g.records.Count()
}

// Records returns every record sorted by virtual path.
func (g *Registry) Records() []*Record {
	keys := g.records.Keys()
	sort.Strings(keys)
	out := make([]*Record, 0, len(keys))
	for _, k := range keys {
		if rec, ok := g.records.Get(k); ok {
			out = append(out, rec)
		}
	}
	return out
}
