// Package vfs defines the narrow file capability a host consults and the
// middleware chain that lets virtual files sit in front of the real disk.
package vfs

import (
	"io/fs"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FileProvider is what the host asks before touching the file system.
type FileProvider interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	Exists(path string) bool
}

// Middleware decorates the next provider in the chain.
type Middleware func(next FileProvider) FileProvider

// Chain stacks middlewares on top of base. The first middleware is the
// outermost link and sees every request first.
func Chain(base FileProvider, mws ...Middleware) FileProvider {
	p := base
	for i := len(mws) - 1; i >= 0; i-- {
		p = mws[i](p)
	}
	return p
}

// Billy serves files from a go-billy file system.
type Billy struct {
	fs billy.Filesystem
}

var _ FileProvider = (*Billy)(nil)

// NewBilly wraps a go-billy file system.
func NewBilly(fs billy.Filesystem) *Billy {
	return &Billy{fs: fs}
}

// OS returns a provider over the real file system rooted at "/", so absolute
// paths are used as is.
func OS() *Billy {
	return NewBilly(osfs.New("/"))
}

// Filesystem exposes the wrapped file system.
func (b *Billy) Filesystem() billy.Filesystem {
	return b.fs
}

// Stat implements FileProvider.
func (b *Billy) Stat(path string) (fs.FileInfo, error) {
	return b.fs.Stat(path)
}

// ReadFile implements FileProvider.
func (b *Billy) ReadFile(path string) ([]byte, error) {
	return util.ReadFile(b.fs, path)
}

// Exists implements FileProvider.
func (b *Billy) Exists(path string) bool {
	_, err := b.fs.Stat(path)
	return err == nil
}

// fileInfo overrides a subset of another FileInfo's fields.
type fileInfo struct {
	fs.FileInfo
	name    string
	size    int64
	modTime time.Time
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) ModTime() time.Time { return fi.modTime }

// Override returns info with name, size and modification time replaced.
// Mode, IsDir and Sys pass through from info.
func Override(info fs.FileInfo, name string, size int64, modTime time.Time) fs.FileInfo {
	return &fileInfo{
		FileInfo: info,
		name:     name,
		size:     size,
		modTime:  modTime,
	}
}
