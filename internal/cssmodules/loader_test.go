package cssmodules

import (
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
)

// memFiles serves dependencies from a map and resolves specifiers against
// the importing file's directory.
type memFiles map[string]string

func (m memFiles) source(p string) (string, error) {
	body, ok := m[p]
	if !ok {
		return "", zerr.With(zerr.New("no such file"), "path", p)
	}
	return body, nil
}

func (m memFiles) fetch(specifier, relativeTo string) (string, error) {
	target := path.Join(path.Dir(relativeTo), unquote(specifier))
	if _, ok := m[target]; !ok {
		return "", zerr.With(zerr.New("cannot resolve"), "specifier", specifier)
	}
	return target, nil
}

func load(t *testing.T, files memFiles, css string) *Result {
	t.Helper()
	l := NewLoader(WithSource(files.source), WithScope(Identity))
	res, err := l.Load(css, "/src/app.css", files.fetch)
	require.NoError(t, err)
	return res
}

func TestLoad_ClassOrder(t *testing.T) {
	tests := []struct {
		name string
		css  string
		want []string
	}{
		{"single", ".a{color:red}", []string{"a"}},
		{"discovery order", ".b{} .a{} .b .c{}", []string{"b", "a", "c"}},
		{"selector list", ".x, .y > .z {}", []string{"x", "y", "z"}},
		{"compound", ".btn.primary:hover::before {}", []string{"btn", "primary"}},
		{"inside media", "@media (max-width: 10px) { .m { color: red } }", []string{"m"}},
		{"inside supports", "@supports (display:grid) { .g {} }", []string{"g"}},
		{"pseudo functions", ".a:not(.b):is(.c, .d) {}", []string{"a", "b", "c", "d"}},
		{"global function", ":global(.g) .l {}", []string{"l"}},
		{"global mode", ":global .g .h, .l {}", []string{"l"}},
		{"local function", ":global .g :local(.l) {}", []string{"l"}},
		{"ids and elements ignored", "#id div > span {}", nil},
		{"numbers in values", ".a { margin: .5em 0.25em; }", []string{"a"}},
		{"comments", "/* .nope {} */ .yes {}", []string{"yes"}},
		{"font face", "@font-face { font-family: x; src: url(x.woff); } .f {}", []string{"f"}},
		{"hyphens", ".my-button {}", []string{"my-button"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := load(t, memFiles{}, tt.css)
			names := res.Tokens.Keys()
			if tt.want == nil {
				assert.Empty(t, names)
				return
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestLoad_Keyframes(t *testing.T) {
	res := load(t, memFiles{}, `
@keyframes spin { from { opacity: 0 } 50.5% { opacity: .5 } to { opacity: 1 } }
@-webkit-keyframes fade { 0% {} }
.spinner { animation: spin 1s; }
`)
	assert.Equal(t, []string{"spin", "fade", "spinner"}, res.Tokens.Keys())
}

func TestLoad_Export(t *testing.T) {
	res := load(t, memFiles{}, `
:export {
  primaryColor: #ff0000;
  spacing: 4px  8px;
}
.a {}
`)
	v, ok := res.Tokens.Get("primaryColor")
	require.True(t, ok)
	assert.Equal(t, "#ff0000", v)

	v, _ = res.Tokens.Get("spacing")
	assert.Equal(t, "4px 8px", v)
	assert.Equal(t, []string{"primaryColor", "spacing", "a"}, res.Tokens.Keys())
}

func TestLoad_ComposesLocalAndGlobal(t *testing.T) {
	res := load(t, memFiles{}, `
.base { color: red }
.button { composes: base; padding: 0 }
.link { composes: reset from global }
`)
	v, _ := res.Tokens.Get("button")
	assert.Equal(t, "button base", v)
	v, _ = res.Tokens.Get("link")
	assert.Equal(t, "link reset", v)
}

func TestLoad_ComposesFromFile(t *testing.T) {
	files := memFiles{
		"/src/shared.css": ".rounded { border-radius: 4px } .shadow { composes: rounded }",
	}
	res := load(t, files, `.card { composes: shadow from "./shared.css"; }`)

	v, _ := res.Tokens.Get("card")
	assert.Equal(t, "card shadow rounded", v)
	assert.Equal(t, []string{"card"}, res.Tokens.Keys(), "composed file tokens are not exported")
	assert.Equal(t, []string{"/src/shared.css"}, res.Dependencies)
}

func TestLoad_ComposesUnknownClass(t *testing.T) {
	files := memFiles{"/src/shared.css": ".rounded {}"}
	l := NewLoader(WithSource(files.source))
	_, err := l.Load(`.card { composes: missing from "./shared.css" }`, "/src/app.css", files.fetch)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestLoad_ImportCycle(t *testing.T) {
	files := memFiles{
		"/src/a.css": `.a { composes: b from "./b.css" }`,
		"/src/b.css": `.b { composes: a from "./a.css" }`,
	}
	l := NewLoader(WithSource(files.source))
	_, err := l.Load(files["/src/a.css"], "/src/a.css", files.fetch)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImportCycle)
}

func TestLoad_ICSSImport(t *testing.T) {
	files := memFiles{"/src/colors.css": ":export { brand: #123456 }"}
	res := load(t, files, `
:import("./colors.css") { c-brand: brand; }
:export { accent: c-brand; }
`)
	v, ok := res.Tokens.Get("accent")
	require.True(t, ok)
	assert.Equal(t, "#123456", v)
}

func TestLoad_AtImport(t *testing.T) {
	files := memFiles{"/src/reset.css": "html {}"}
	res := load(t, files, `@import "./reset.css"; @import url(https://fonts.example/x.css); .a {}`)
	assert.Equal(t, []string{"/src/reset.css"}, res.Dependencies)
	assert.Equal(t, []string{"a"}, res.Tokens.Keys())

	l := NewLoader(WithSource(files.source))
	_, err := l.Load(`@import "./missing.css";`, "/src/app.css", files.fetch)
	assert.Error(t, err)
}

func TestLoad_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		css  string
	}{
		{"unclosed block", ".a { color: red"},
		{"stray brace", ".a {} }"},
		{"unterminated string", ".a { content: \"oops\n }"},
		{"unterminated comment", ".a {} /* never closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Load(tt.css, "/src/bad.css", memFiles{}.fetch)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestScopedName(t *testing.T) {
	got := ScopedName("button", "/src/components/card.module.css")
	assert.Regexp(t, `^_card_module_button_[0-9a-f]{5}$`, got)
	assert.Equal(t, got, ScopedName("button", "/src/components/card.module.css"))
	assert.NotEqual(t, got, ScopedName("button", "/src/other/card.module.css"))
}

func TestTokens(t *testing.T) {
	tok := NewTokens()
	assert.True(t, tok.Add("a", "1"))
	assert.False(t, tok.Add("a", "2"))
	tok.Set("b", "x")
	tok.Set("a", "3")
	tok.Append("a", "4")
	tok.Append("missing", "5")

	assert.Equal(t, []string{"a", "b"}, tok.Keys())
	assert.Equal(t, map[string]string{"a": "3 4", "b": "x"}, tok.Map())
	assert.Equal(t, 2, tok.Len())
}
