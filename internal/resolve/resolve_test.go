package resolve

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yacobolo/cssdts/internal/vfs"
)

func newTree(t *testing.T, files map[string]string) *Resolver {
	t.Helper()
	mem := memfs.New()
	for name, body := range files {
		require.NoError(t, util.WriteFile(mem, name, []byte(body), 0o644))
	}
	return New(vfs.NewBilly(mem))
}

func TestResolve(t *testing.T) {
	r := newTree(t, map[string]string{
		"/app/src/a.css":                              ".a{}",
		"/app/src/theme/colors.less":                  "@c: red;",
		"/app/src/widgets/index.css":                  ".w{}",
		"/app/node_modules/bootstrap/package.json":    `{"style": "dist/css/bootstrap.css", "main": "dist/js/bootstrap.js"}`,
		"/app/node_modules/bootstrap/dist/css/bootstrap.css": ".btn{}",
		"/app/node_modules/plain/index.css":           ".p{}",
		"/app/node_modules/scripts/package.json":      `{"main": "lib/main"}`,
		"/app/node_modules/scripts/lib/main.js":       "",
		"/node_modules/global/base.css":               ".g{}",
	})

	tests := []struct {
		name      string
		specifier string
		basedir   string
		want      string
	}{
		{"relative file", "./a.css", "/app/src", "/app/src/a.css"},
		{"quoted specifier", `"./a.css"`, "/app/src", "/app/src/a.css"},
		{"single quoted", `'./a.css'`, "/app/src", "/app/src/a.css"},
		{"parent directory", "../a.css", "/app/src/widgets", "/app/src/a.css"},
		{"extension appended", "./theme/colors", "/app/src", "/app/src/theme/colors.less"},
		{"directory index", "./widgets", "/app/src", "/app/src/widgets/index.css"},
		{"absolute path", "/app/src/a.css", "/elsewhere", "/app/src/a.css"},
		{"package style field", "bootstrap", "/app/src/widgets", "/app/node_modules/bootstrap/dist/css/bootstrap.css"},
		{"package index", "plain", "/app/src", "/app/node_modules/plain/index.css"},
		{"package main field", "scripts", "/app/src", "/app/node_modules/scripts/lib/main.js"},
		{"tilde prefix", "~plain/index.css", "/app/src", "/app/node_modules/plain/index.css"},
		{"root node_modules", "global/base.css", "/app/src", "/node_modules/global/base.css"},
		{"windows separators", `.\theme\colors.less`, `\app\src`, "/app/src/theme/colors.less"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.specifier, tt.basedir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	r := newTree(t, map[string]string{"/app/a.css": ""})

	for _, spec := range []string{"./missing.css", "nopkg", ""} {
		t.Run(spec, func(t *testing.T) {
			_, err := r.Resolve(spec, "/app")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFetch_RelativeToFile(t *testing.T) {
	r := newTree(t, map[string]string{
		"/app/src/base.css":       ".base{}",
		"/app/src/pages/home.css": ".home{}",
	})

	got, err := r.Fetch(`"../base.css"`, "/app/src/pages/home.css")
	require.NoError(t, err)
	assert.Equal(t, "/app/src/base.css", got)
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "./a.css", Unquote(` "./a.css" `))
	assert.Equal(t, "./a.css", Unquote(`'./a.css'`))
	assert.Equal(t, "plain", Unquote("plain"))
}

func TestNodeModulesPaths(t *testing.T) {
	assert.Equal(t, []string{
		"/app/src/node_modules",
		"/app/node_modules",
		"/node_modules",
	}, nodeModulesPaths("/app/src"))

	// An existing node_modules segment is not doubled.
	assert.Equal(t, []string{
		"/app/node_modules/pkg/node_modules",
		"/app/node_modules",
		"/node_modules",
	}, nodeModulesPaths("/app/node_modules/pkg"))
}
