package less

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, src string) string {
	t.Helper()
	out, err := Render(src, "/src/main.less", Options{})
	require.NoError(t, err)
	return out.CSS
}

func TestRender_Variables(t *testing.T) {
	css := render(t, `
@primary: #336699;
@border: 1px solid @primary;
.box { color: @primary; border: @border; }
`)
	assert.Equal(t, ".box {\n  color: #336699;\n  border: 1px solid #336699;\n}\n", css)
}

func TestRender_LazyAndScopedVariables(t *testing.T) {
	css := render(t, `
.a { color: @c; @c: blue; }
.b { color: @c; }
@c: red;
`)
	assert.Contains(t, css, ".a {\n  color: blue;\n}")
	assert.Contains(t, css, ".b {\n  color: red;\n}")
}

func TestRender_Interpolation(t *testing.T) {
	css := render(t, `
@name: banner;
@prop: color;
.@{name}-title { @{prop}: black; content: "@{name}"; }
`)
	assert.Equal(t, ".banner-title {\n  color: black;\n  content: \"banner\";\n}\n", css)
}

func TestRender_Nesting(t *testing.T) {
	css := render(t, `
.nav {
  margin: 0;
  .item { padding: 2px; }
  &:hover, &.active { color: red; }
  > a { color: blue; }
}
`)
	assert.Equal(t, `.nav {
  margin: 0;
}
.nav .item {
  padding: 2px;
}
.nav:hover,
.nav.active {
  color: red;
}
.nav > a {
  color: blue;
}
`, css)
}

func TestRender_MediaBubbling(t *testing.T) {
	css := render(t, `
@wide: 800px;
.panel {
  width: 100%;
  @media (min-width: @wide) {
    width: 50%;
    @media print { display: none; }
  }
}
`)
	assert.Equal(t, `.panel {
  width: 100%;
}
@media (min-width: 800px) {
  .panel {
    width: 50%;
  }
}
@media (min-width: 800px) and print {
  .panel {
    display: none;
  }
}
`, css)
}

func TestRender_TopLevelMediaGroupsRules(t *testing.T) {
	css := render(t, "@media screen { .a { x: 1; } .b { y: 2; } }")
	assert.Equal(t, "@media screen {\n  .a {\n    x: 1;\n  }\n  .b {\n    y: 2;\n  }\n}\n", css)
}

func TestRender_Mixins(t *testing.T) {
	css := render(t, `
.rounded { border-radius: 4px; }
.shadow(@size: 2px; @color: black) { box-shadow: 0 0 @size @color; }
.card { .rounded; .shadow(5px); }
.chip { .rounded(); .shadow(1px; red); }
`)
	assert.Contains(t, css, ".rounded {\n  border-radius: 4px;\n}")
	assert.Contains(t, css, ".card {\n  border-radius: 4px;\n  box-shadow: 0 0 5px black;\n}")
	assert.Contains(t, css, ".chip {\n  border-radius: 4px;\n  box-shadow: 0 0 1px red;\n}")
	assert.NotContains(t, css, ".shadow")
}

func TestRender_Comments(t *testing.T) {
	css := render(t, `
// line comment { not a block }
/* block
   comment */
.a { background: url(http://example.com/x.png); /* inline */ }
`)
	assert.Equal(t, ".a {\n  background: url(http://example.com/x.png);\n}\n", css)
}

func TestRender_KeyframesVerbatim(t *testing.T) {
	css := render(t, `
@d: 0.5;
@keyframes pulse { from { opacity: 1; } to { opacity: @d; } }
`)
	assert.Equal(t, "@keyframes pulse {\n  from {\n    opacity: 1;\n  }\n  to {\n    opacity: 0.5;\n  }\n}\n", css)
}

func TestRender_ImportsInlinePartial(t *testing.T) {
	mem := memfs.New()
	require.NoError(t, util.WriteFile(mem, "/src/partials/_buttons.less", []byte(`
@btn-color: green;
.btn { color: @btn-color; }
`), 0o644))
	require.NoError(t, util.WriteFile(mem, "/src/theme.less", []byte(`@import "partials/_buttons";`), 0o644))
	read := func(p string) ([]byte, error) { return util.ReadFile(mem, p) }

	out, err := Render(`
@import (less) "theme";
@import "theme.less";
@import "reset.css";
.page { .btn; border-color: @btn-color; }
`, "/src/main.less", Options{Read: read})
	require.NoError(t, err)

	assert.Contains(t, out.CSS, ".btn {\n  color: green;\n}")
	assert.Contains(t, out.CSS, ".page {\n  color: green;\n  border-color: green;\n}")
	assert.Contains(t, out.CSS, `@import "reset.css";`)
	assert.Equal(t, []string{"/src/theme.less", "/src/partials/_buttons.less"}, out.Imports)
}

func TestRender_ImportSearchPaths(t *testing.T) {
	mem := memfs.New()
	require.NoError(t, util.WriteFile(mem, "/lib/vars.less", []byte("@gap: 3px;"), 0o644))
	read := func(p string) ([]byte, error) { return util.ReadFile(mem, p) }

	out, err := Render(`@import "vars"; .a { gap: @gap; }`, "/src/main.less", Options{Read: read, Paths: []string{"/lib"}})
	require.NoError(t, err)
	assert.Contains(t, out.CSS, "gap: 3px;")
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		target error
	}{
		{"missing brace", ".a { color: red;", ErrSyntax},
		{"stray brace", ".a {} }", ErrSyntax},
		{"unterminated string", ".a { content: \"x\n; }", ErrSyntax},
		{"unterminated comment", ".a {} /* open", ErrSyntax},
		{"not a declaration", ".a { color red; }", ErrSyntax},
		{"undefined variable", ".a { color: @nope; }", ErrUndefined},
		{"undefined mixin", ".a { .nope; }", ErrUndefined},
		{"recursive mixin", ".a { .a; }", ErrSyntax},
		{"recursive variable", "@a: @b; @b: @a; .x { y: @a; }", ErrSyntax},
		{"top level declaration", "color: red;", ErrSyntax},
		{"rule guard", ".guard when (@a > 0) { color: red; }", ErrSyntax},
		{"mixin guard", ".m(@a) when not (@a = 0) { width: @a; }", ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.src, "/src/bad.less", Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestRender_MissingImport(t *testing.T) {
	read := func(string) ([]byte, error) { return nil, ErrUndefined }
	_, err := Render(`@import "gone";`, "/src/main.less", Options{Read: read})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read import")
}
