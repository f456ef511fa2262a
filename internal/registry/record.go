package registry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yacobolo/cssdts/internal/compiler"
	"github.com/yacobolo/cssdts/internal/dialect"
	"github.com/yacobolo/cssdts/internal/logging"
	"github.com/yacobolo/cssdts/internal/vfs"
	"go.trai.ch/zerr"
)

// Compiler produces declaration documents.
type Compiler interface {
	Compile(ctx context.Context, req compiler.Request) (*compiler.Result, error)
}

// Record tracks one virtual declaration file and the stylesheet behind it.
//
// The logical modification time starts at zero, grows by one per completed
// compilation and is raised to the observed stylesheet mtime by CheckUpdate.
// It never decreases.
type Record struct {
	virtualPath string
	realPath    string
	dialect     dialect.Dialect

	files    vfs.FileProvider
	compiler Compiler
	includes func() []string
	logger   zerolog.Logger

	mu        sync.Mutex
	content   string
	compiled  bool
	logical   int64
	inflight  bool
	pending   bool
	requested uint64
	applied   uint64
	lastErr   error
	idle      chan struct{}
}

// VirtualPath is the declaration path the host sees.
func (r *Record) VirtualPath() string { return r.virtualPath }

// RealPath is the backing stylesheet.
func (r *Record) RealPath() string { return r.realPath }

// Dialect is the stylesheet language, fixed at registration.
func (r *Record) Dialect() dialect.Dialect { return r.dialect }

// Content returns the last compiled declaration, or the fallback document
// when no compilation has succeeded.
func (r *Record) Content() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.compiled {
		return compiler.FallbackDeclaration
	}
	return r.content
}

// Compiled reports whether a compilation has been applied.
func (r *Record) Compiled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.compiled
}

// LogicalModTime returns the logical modification time in milliseconds.
func (r *Record) LogicalModTime() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logical
}

// ModTime returns the logical modification time as a time.
func (r *Record) ModTime() time.Time {
	return time.UnixMilli(r.LogicalModTime())
}

// LastError returns the error of the most recent compilation, nil when it
// succeeded.
func (r *Record) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Update recompiles the stylesheet. Only one compilation per record runs at
// a time; a request arriving meanwhile is folded into a single follow-up
// compilation. LESS compiles on its own goroutine and Update returns at
// once, other dialects compile before Update returns.
func (r *Record) Update(ctx context.Context) {
	r.mu.Lock()
	r.requested++
	if r.inflight {
		r.pending = true
		r.mu.Unlock()
		return
	}
	r.inflight = true
	r.idle = make(chan struct{})
	gen := r.requested
	r.mu.Unlock()

	if r.dialect.Async() {
		go r.fly(ctx, gen)
		return
	}
	r.fly(ctx, gen)
}

// CheckUpdate is fed the stylesheet's observed mtime. It triggers Update
// when a compilation has completed before, failed or not, and the mtime is
// past the logical time, which it raises to the observed value first.
func (r *Record) CheckUpdate(ctx context.Context, observed time.Time) bool {
	ms := observed.UnixMilli()

	r.mu.Lock()
	if r.logical == 0 || ms <= r.logical {
		r.mu.Unlock()
		return false
	}
	r.logical = ms
	r.mu.Unlock()

	r.Update(ctx)
	return true
}

// Wait blocks until no compilation is outstanding.
func (r *Record) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		if !r.inflight {
			r.mu.Unlock()
			return nil
		}
		idle := r.idle
		r.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Record) fly(ctx context.Context, gen uint64) {
	for {
		content, err := r.compile(ctx)

		r.mu.Lock()
		// Failures advance the logical time too, so CheckUpdate keeps
		// watching a stylesheet whose first compilation failed.
		if gen > r.applied {
			r.logical++
			r.applied = gen
			r.lastErr = err
			if err == nil {
				r.content = content
				r.compiled = true
			}
		}
		logical := r.logical

		if !r.pending {
			r.inflight = false
			close(r.idle)
			r.mu.Unlock()
			r.report(err, gen, logical)
			return
		}
		r.pending = false
		next := r.requested
		r.mu.Unlock()
		r.report(err, gen, logical)
		gen = next
	}
}

func (r *Record) report(err error, gen uint64, logical int64) {
	if err != nil {
		logging.Err(r.logger.Warn(), err).
			Str("path", r.realPath).
			Msg("compilation failed, keeping previous declaration")
		return
	}
	r.logger.Debug().
		Str("path", r.realPath).
		Uint64("generation", gen).
		Int64("mtime", logical).
		Msg("declaration updated")
}

func (r *Record) compile(ctx context.Context) (string, error) {
	data, err := r.files.ReadFile(r.realPath)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to read stylesheet"), "path", r.realPath)
	}

	var includes []string
	if r.includes != nil {
		includes = r.includes()
	}
	res, err := r.compiler.Compile(ctx, compiler.Request{
		Source:       string(data),
		Dialect:      r.dialect,
		Path:         r.realPath,
		IncludePaths: includes,
	})
	if err != nil {
		return "", err
	}
	return res.Declaration, nil
}
