package plugin

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/yacobolo/cssdts/internal/hook"
	"github.com/yacobolo/cssdts/internal/sass/mocks"
)

type fakeService struct {
	defs []DefinitionInfo
}

func (f *fakeService) GetDefinitionAtPosition(string, int) []DefinitionInfo { return f.defs }
func (f *fakeService) GetQuickInfoAtPosition(string, int) *QuickInfo     { return nil }
func (f *fakeService) GetCompletionsAtPosition(string, int) *CompletionInfo {
	return nil
}

type harness struct {
	root    string
	session *Session
	host    *LanguageServiceHost
	project *Project
	service *fakeService

	mu            sync.Mutex
	hostCalls     int
	hostResolved  map[string]*ResolvedModule
	scriptInfoFor []string
}

func newHarness(t *testing.T, files map[string]string) *harness {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		writeFile(t, filepath.Join(root, name), body)
	}

	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Close().Return(nil).AnyTimes()

	cfg := DefaultConfig()
	cfg.ScopedNames = false
	s, err := NewSession(cfg, WithLogger(zerolog.Nop()), WithSassEngine(engine))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })

	h := &harness{root: root, session: s, service: &fakeService{}, hostResolved: map[string]*ResolvedModule{}}
	h.host = &LanguageServiceHost{}
	h.host.ResolveModuleNames = newResolveMethod(h)
	h.project = NewProject(
		func() []string { return []string{filepath.Join(root, "src", "index.ts")} },
		func(name string) ScriptInfo {
			h.mu.Lock()
			h.scriptInfoFor = append(h.scriptInfoFor, name)
			h.mu.Unlock()
			return nil
		},
	)
	return h
}

func newResolveMethod(h *harness) *hook.Method[ResolveArgs, []*ResolvedModule] {
	return hook.New("resolveModuleNames", func(args ResolveArgs) []*ResolvedModule {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.hostCalls++
		out := make([]*ResolvedModule, len(args.ModuleNames))
		for i, name := range args.ModuleNames {
			out[i] = h.hostResolved[name]
		}
		return out
	})
}

func (h *harness) create() LanguageService {
	return h.session.Create(CreateInfo{
		LanguageService:     h.service,
		LanguageServiceHost: h.host,
		Project:             h.project,
	})
}

func (h *harness) path(rel string) string {
	return filepath.ToSlash(filepath.Join(h.root, rel))
}

func (h *harness) resolve(containing string, names ...string) []*ResolvedModule {
	return h.host.ResolveModuleNames.Call(ResolveArgs{
		ModuleNames:    names,
		ContainingFile: h.path(containing),
	})
}

func writeFile(t *testing.T, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, os.WriteFile(name, []byte(body), 0o644))
}

func TestResolve_CSSImport(t *testing.T) {
	h := newHarness(t, map[string]string{"src/a.css": ".foo{color:red}"})
	h.create()

	res := h.resolve("src/x.ts", "./a.css")
	require.Len(t, res, 1)
	require.NotNil(t, res[0])
	assert.Equal(t, h.path("src/a.css.d.ts"), res[0].ResolvedFileName)
	assert.Equal(t, ExtensionDts, res[0].Extension)

	data, err := h.session.Files().ReadFile(res[0].ResolvedFileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "foo: string")
	assert.Equal(t, 1, h.session.Registry().Len())
}

func TestResolve_BrokenStylesheetRecoversAfterFix(t *testing.T) {
	h := newHarness(t, map[string]string{"src/a.css": ".foo{color:red"})
	h.create()

	res := h.resolve("src/x.ts", "./a.css")
	require.NotNil(t, res[0])
	virtual := res[0].ResolvedFileName

	rec, ok := h.session.Registry().Lookup(virtual)
	require.True(t, ok)
	require.Error(t, rec.LastError())

	real := filepath.Join(h.root, "src", "a.css")
	writeFile(t, real, ".foo{color:red}")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(real, later, later))

	_, err := h.session.Files().Stat(virtual)
	require.NoError(t, err)
	require.NoError(t, h.session.Wait(context.Background()))

	data, err := h.session.Files().ReadFile(virtual)
	require.NoError(t, err)
	assert.Contains(t, string(data), "foo: string")
	assert.NoError(t, rec.LastError())
}

func TestResolve_EditRefreshesDeclaration(t *testing.T) {
	h := newHarness(t, map[string]string{"src/a.css": ".foo{color:red}"})
	h.create()

	res := h.resolve("src/x.ts", "./a.css")
	require.NotNil(t, res[0])
	virtual := res[0].ResolvedFileName

	real := filepath.Join(h.root, "src", "a.css")
	writeFile(t, real, ".foo{color:red} .bar{color:blue}")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(real, later, later))

	info, err := h.session.Files().Stat(virtual)
	require.NoError(t, err)
	assert.Equal(t, "a.css.d.ts", info.Name())
	// The observed mtime becomes the watermark, the applied compile adds one.
	assert.Equal(t, later.UnixMilli()+1, info.ModTime().UnixMilli())

	data, err := h.session.Files().ReadFile(virtual)
	require.NoError(t, err)
	assert.Contains(t, string(data), "foo: string")
	assert.Contains(t, string(data), "bar: string")
	assert.Equal(t, int64(len(data)), info.Size())
}

func TestResolve_MissingStylesheet(t *testing.T) {
	h := newHarness(t, nil)
	h.create()

	res := h.resolve("src/x.ts", "./missing.css")
	require.Len(t, res, 1)
	assert.Nil(t, res[0])
	assert.Equal(t, 0, h.session.Registry().Len())
}

func TestResolve_KeepsHostResults(t *testing.T) {
	h := newHarness(t, map[string]string{
		"src/a.css": ".foo{}",
		"src/b.css": ".bar{}",
	})
	hostOwn := &ResolvedModule{ResolvedFileName: "/elsewhere/a.d.ts", Extension: ExtensionDts}
	h.hostResolved["./a.css"] = hostOwn
	h.create()

	res := h.resolve("src/x.ts", "./a.css", "./b.css", "./util")
	require.Len(t, res, 3)
	assert.Same(t, hostOwn, res[0])
	require.NotNil(t, res[1])
	assert.Equal(t, h.path("src/b.css.d.ts"), res[1].ResolvedFileName)
	assert.Nil(t, res[2])
	assert.Equal(t, 1, h.session.Registry().Len())
}

func TestResolve_IgnoresUnlistedExtensions(t *testing.T) {
	h := newHarness(t, map[string]string{"src/a.styl": ".foo{}", "src/a.CSS": ".foo{}"})
	h.create()

	res := h.resolve("src/x.ts", "./a.styl", "./a.CSS")
	assert.Nil(t, res[0])
	assert.Nil(t, res[1])
	assert.Equal(t, 0, h.session.Registry().Len())
}

func TestResolve_LessCompilesInBackground(t *testing.T) {
	h := newHarness(t, map[string]string{
		"src/theme.less": "@c: red;\n.root { color: @c; .title { color: blue; } }\n",
	})
	h.create()

	res := h.resolve("src/x.ts", "./theme.less")
	require.NotNil(t, res[0])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.session.Wait(ctx))

	data, err := h.session.Files().ReadFile(res[0].ResolvedFileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "root: string")
	assert.Contains(t, string(data), "title: string")
}

func TestCreate_Idempotent(t *testing.T) {
	h := newHarness(t, map[string]string{"src/a.css": ".foo{}"})
	h.create()
	h.create()

	assert.True(t, h.host.ResolveModuleNames.Hooked())
	h.resolve("src/x.ts", "./a.css")
	assert.Equal(t, 1, h.hostCalls)
	assert.Equal(t, 1, h.session.Registry().Len())
}

func TestScriptInfo_Stylesheet(t *testing.T) {
	h := newHarness(t, map[string]string{"src/a.css": ".foo{}"})
	h.create()
	h.resolve("src/x.ts", "./a.css")

	info := h.project.GetScriptInfo.Call(h.path("src/a.css"))
	require.NotNil(t, info)
	assert.Equal(t, LineOffset{Line: 1, Offset: 1}, info.PositionToLineOffset(120))

	other := h.path("src/x.ts")
	assert.Nil(t, h.project.GetScriptInfo.Call(other))
	assert.Equal(t, []string{other}, h.scriptInfoFor)
}

func TestDefinition_PointsAtStylesheet(t *testing.T) {
	h := newHarness(t, map[string]string{"src/a.css": ".foo{}"})
	svc := h.create()
	res := h.resolve("src/x.ts", "./a.css")
	require.NotNil(t, res[0])

	h.service.defs = []DefinitionInfo{
		{FileName: res[0].ResolvedFileName, TextSpan: TextSpan{Start: 40, Length: 3}, Name: "foo"},
		{FileName: h.path("src/x.ts"), TextSpan: TextSpan{Start: 7, Length: 2}},
	}
	defs := svc.GetDefinitionAtPosition(h.path("src/x.ts"), 10)
	require.Len(t, defs, 2)
	assert.Equal(t, h.path("src/a.css"), defs[0].FileName)
	assert.Equal(t, TextSpan{}, defs[0].TextSpan)
	assert.Equal(t, "foo", defs[0].Name)
	assert.Equal(t, TextSpan{Start: 7, Length: 2}, defs[1].TextSpan)

	h.service.defs = nil
	assert.NotNil(t, svc.GetDefinitionAtPosition(h.path("src/x.ts"), 1))
}

func TestFiles_PassThrough(t *testing.T) {
	h := newHarness(t, map[string]string{"src/x.ts": "export {}"})
	h.create()

	files := h.session.Files()
	assert.True(t, files.Exists(h.path("src/x.ts")))
	assert.False(t, files.Exists(h.path("src/a.css.d.ts")))

	data, err := files.ReadFile(h.path("src/x.ts"))
	require.NoError(t, err)
	assert.Equal(t, "export {}", string(data))

	_, err = files.Stat(h.path("src/nope.ts"))
	assert.Error(t, err)
}

func TestFiles_StatFailsWhenStylesheetRemoved(t *testing.T) {
	h := newHarness(t, map[string]string{"src/a.css": ".foo{}"})
	h.create()
	res := h.resolve("src/x.ts", "./a.css")
	require.NotNil(t, res[0])

	require.NoError(t, os.Remove(filepath.Join(h.root, "src", "a.css")))

	_, err := h.session.Files().Stat(res[0].ResolvedFileName)
	assert.Error(t, err)
	assert.True(t, h.session.Files().Exists(res[0].ResolvedFileName))
}

func TestStatAsync(t *testing.T) {
	h := newHarness(t, map[string]string{"src/a.css": ".foo{}"})
	h.create()
	res := h.resolve("src/x.ts", "./a.css")
	require.NotNil(t, res[0])

	done := make(chan string, 1)
	h.session.StatAsync(res[0].ResolvedFileName, func(info os.FileInfo, err error) {
		if err != nil {
			done <- err.Error()
			return
		}
		done <- info.Name()
	})

	select {
	case got := <-done:
		assert.Equal(t, "a.css.d.ts", got)
	case <-time.After(5 * time.Second):
		t.Fatal("stat callback never ran")
	}
}

func TestIncludePaths(t *testing.T) {
	h := newHarness(t, nil)
	h.session.cfg.IncludePaths = []string{"/shared/styles"}
	h.create()

	assert.Equal(t, []string{h.path("src"), "/shared/styles"}, h.session.includePaths())
}
