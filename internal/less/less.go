// Package less renders a subset of LESS to CSS: variables, nesting with
// parent references, media bubbling, imports and simple mixins.
// Guards are not supported: a guarded rule or mixin is rejected with
// ErrSyntax.
package less

import (
	"path"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrSyntax is returned for source the parser rejects.
	ErrSyntax = zerr.New("invalid less")
	// ErrUndefined is returned when a variable or mixin has no definition.
	ErrUndefined = zerr.New("undefined reference")
)

// ReadFunc reads an imported file.
type ReadFunc func(path string) ([]byte, error)

// Options configures a render.
type Options struct {
	// Read loads imported files. Required when the source has imports.
	Read ReadFunc
	// Paths are searched for imports that do not resolve next to the
	// importing file.
	Paths []string
}

// Output is the result of a render.
type Output struct {
	CSS string
	// Imports lists every file inlined into the output.
	Imports []string
}

// Render compiles src, the content of filename, to CSS.
func Render(src, filename string, opts Options) (*Output, error) {
	r := &renderer{
		opts:     opts,
		mixins:   make(map[string]*node),
		imported: map[string]bool{filename: true},
		active:   make(map[*node]bool),
	}

	root := &node{kind: kindRoot, file: filename, line: 1, vars: make(map[string]string)}
	p := &parser{r: r, src: src, file: filename, line: 1}
	if err := p.parseBlock(root, true); err != nil {
		return nil, err
	}

	out := &output{}
	if err := r.renderNode(root, nil, nil, nil, out); err != nil {
		return nil, err
	}
	return &Output{CSS: out.String(), Imports: r.imports}, nil
}

type renderer struct {
	opts     Options
	mixins   map[string]*node
	imported map[string]bool
	imports  []string
	active   map[*node]bool
}

// locate finds the file an import specifier refers to.
func (r *renderer) locate(spec, from string) (string, []byte, error) {
	if path.Ext(spec) == "" {
		spec += ".less"
	}
	if r.opts.Read == nil {
		return "", nil, zerr.With(zerr.New("imports are not supported without a reader"), "import", spec)
	}

	candidates := []string{spec}
	if !path.IsAbs(spec) {
		candidates = []string{path.Join(path.Dir(from), spec)}
		for _, dir := range r.opts.Paths {
			candidates = append(candidates, path.Join(strings.ReplaceAll(dir, `\`, "/"), spec))
		}
	}

	var lastErr error
	for _, c := range candidates {
		data, err := r.opts.Read(c)
		if err == nil {
			return c, data, nil
		}
		lastErr = err
	}
	err := zerr.Wrap(lastErr, "failed to read import")
	return "", nil, zerr.With(err, "import", spec)
}
