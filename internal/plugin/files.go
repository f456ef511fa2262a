package plugin

import (
	"io/fs"
	"path"

	"github.com/yacobolo/cssdts/internal/registry"
	"github.com/yacobolo/cssdts/internal/vfs"
)

// Middleware returns the virtual file link. Paths of registered virtual
// declaration files are answered from their records; everything else goes
// to the next link untouched.
func (s *Session) Middleware() vfs.Middleware {
	return func(next vfs.FileProvider) vfs.FileProvider {
		return &virtualFiles{next: next, session: s}
	}
}

type virtualFiles struct {
	next    vfs.FileProvider
	session *Session
}

func (v *virtualFiles) lookup(name string) (*registry.Record, bool) {
	return v.session.registry.Lookup(name)
}

// Stat reports the backing stylesheet's info with the record's logical
// modification time, the virtual name and the declaration size. The
// observed stylesheet mtime may trigger a recompilation first.
func (v *virtualFiles) Stat(name string) (fs.FileInfo, error) {
	rec, ok := v.lookup(name)
	if !ok {
		return v.next.Stat(name)
	}

	info, err := v.next.Stat(rec.RealPath())
	if err != nil {
		return nil, err
	}
	rec.CheckUpdate(v.session.ctx, info.ModTime())

	return vfs.Override(info, path.Base(name), int64(len(rec.Content())), rec.ModTime()), nil
}

// ReadFile serves the declaration document. It never touches the disk.
func (v *virtualFiles) ReadFile(name string) ([]byte, error) {
	rec, ok := v.lookup(name)
	if !ok {
		return v.next.ReadFile(name)
	}
	return []byte(rec.Content()), nil
}

// Exists is true for every registered virtual path.
func (v *virtualFiles) Exists(name string) bool {
	if _, ok := v.lookup(name); ok {
		return true
	}
	return v.next.Exists(name)
}
