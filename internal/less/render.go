package less

import (
	"strings"

	"go.trai.ch/zerr"
)

const maxDepth = 32

type scope struct {
	vars   map[string]string
	parent *scope
}

func (s *scope) lookup(name string) (string, *scope, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, sc, true
		}
	}
	return "", nil, false
}

// renderNode emits the rules of n. sels are the resolved selectors of the
// enclosing rule and wrappers the enclosing conditional at-rules.
func (r *renderer) renderNode(n *node, sels, wrappers []string, parent *scope, out *output) error {
	sc := &scope{vars: n.vars, parent: parent}

	var (
		decls    []string
		deferred []func() error
	)
	if err := r.collect(n.items, sc, sels, wrappers, out, &decls, &deferred, 0); err != nil {
		return err
	}

	if len(decls) > 0 {
		if len(sels) == 0 {
			err := zerr.Wrap(ErrSyntax, "declaration outside of a ruleset")
			return zerr.With(zerr.With(err, "path", n.file), "line", n.line)
		}
		out.add(emission{wrappers: wrappers, selectors: sels, decls: decls})
	}
	for _, fn := range deferred {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) collect(items []item, sc *scope, sels, wrappers []string, out *output, decls *[]string, deferred *[]func() error, depth int) error {
	for _, it := range items {
		switch it.kind {
		case itemDecl:
			prop, err := r.interpolate(it.prop, sc, it, 0)
			if err != nil {
				return err
			}
			value, err := r.eval(it.value, sc, it, 0)
			if err != nil {
				return err
			}
			*decls = append(*decls, prop+": "+value)

		case itemRaw:
			text, err := r.interpolate(it.value, sc, it, 0)
			if err != nil {
				return err
			}
			*deferred = append(*deferred, func() error {
				out.add(emission{wrappers: wrappers, raw: text + ";"})
				return nil
			})

		case itemCall:
			if err := r.expand(it, sc, sels, wrappers, out, decls, deferred, depth); err != nil {
				return err
			}

		case itemChild:
			child := it.child
			switch child.kind {
			case kindMixin:
			case kindRule:
				header, err := r.interpolate(child.header, sc, it, 0)
				if err != nil {
					return err
				}
				childSels := combine(sels, splitSelectors(header))
				*deferred = append(*deferred, func() error {
					return r.renderNode(child, childSels, wrappers, sc, out)
				})
			case kindMedia:
				header, err := r.evalHeader(child.header, sc, it)
				if err != nil {
					return err
				}
				inner := nest(wrappers, header)
				*deferred = append(*deferred, func() error {
					return r.renderNode(child, sels, inner, sc, out)
				})
			case kindAt:
				*deferred = append(*deferred, func() error {
					text, err := r.verbatim(child, sc, 0)
					if err != nil {
						return err
					}
					out.add(emission{wrappers: wrappers, raw: text})
					return nil
				})
			}
		}
	}
	return nil
}

// expand applies a mixin call as if the mixin's body were written in place.
func (r *renderer) expand(call item, sc *scope, sels, wrappers []string, out *output, decls *[]string, deferred *[]func() error, depth int) error {
	def, ok := r.mixins[call.prop]
	if !ok {
		err := zerr.Wrap(ErrUndefined, "undefined mixin")
		err = zerr.With(err, "mixin", call.prop)
		return zerr.With(zerr.With(err, "path", call.file), "line", call.line)
	}
	if r.active[def] || depth >= maxDepth {
		err := zerr.Wrap(ErrSyntax, "recursive mixin call")
		err = zerr.With(err, "mixin", call.prop)
		return zerr.With(zerr.With(err, "path", call.file), "line", call.line)
	}

	params := make(map[string]string, len(def.params))
	for i, p := range def.params {
		v := p.def
		if i < len(call.args) {
			arg, err := r.eval(call.args[i], sc, call, 0)
			if err != nil {
				return err
			}
			v = arg
		}
		if v == "" {
			err := zerr.Wrap(ErrUndefined, "missing mixin argument")
			err = zerr.With(err, "param", p.name)
			return zerr.With(zerr.With(err, "path", call.file), "line", call.line)
		}
		params[p.name] = v
	}

	inner := &scope{vars: def.vars, parent: &scope{vars: params, parent: sc}}
	r.active[def] = true
	defer delete(r.active, def)
	return r.collect(def.items, inner, sels, wrappers, out, decls, deferred, depth+1)
}

// verbatim prints a block at-rule such as @keyframes or @font-face with its
// body nested as written.
func (r *renderer) verbatim(n *node, parent *scope, indent int) (string, error) {
	sc := &scope{vars: n.vars, parent: parent}
	header, err := r.evalHeader(n.header, sc, item{file: n.file, line: n.line})
	if err != nil {
		return "", err
	}

	pad := strings.Repeat("  ", indent)
	var b strings.Builder
	b.WriteString(pad + header + " {\n")
	for _, it := range n.items {
		switch it.kind {
		case itemDecl:
			value, err := r.eval(it.value, sc, it, 0)
			if err != nil {
				return "", err
			}
			b.WriteString(pad + "  " + it.prop + ": " + value + ";\n")
		case itemRaw:
			b.WriteString(pad + "  " + it.value + ";\n")
		case itemChild:
			text, err := r.verbatim(it.child, sc, indent+1)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
		}
	}
	b.WriteString(pad + "}\n")
	return b.String(), nil
}

// eval substitutes variables in a value.
func (r *renderer) eval(v string, sc *scope, at item, depth int) (string, error) {
	if depth > maxDepth {
		err := zerr.Wrap(ErrSyntax, "recursive variable")
		return "", zerr.With(zerr.With(err, "path", at.file), "line", at.line)
	}

	var b strings.Builder
	var quote byte
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			if c == '@' && i+1 < len(v) && v[i+1] == '{' {
				name, n := readName(v[i+2:])
				if n < len(v)-i-2 && v[i+2+n] == '}' {
					val, err := r.variable(name, sc, at, depth)
					if err != nil {
						return "", err
					}
					b.WriteString(unquote(val))
					i += 2 + n
					continue
				}
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '~' && i+1 < len(v) && (v[i+1] == '"' || v[i+1] == '\''):
			end := strings.IndexByte(v[i+2:], v[i+1])
			if end >= 0 {
				inner, err := r.eval(v[i+2:i+2+end], sc, at, depth+1)
				if err != nil {
					return "", err
				}
				b.WriteString(inner)
				i += end + 2
				continue
			}
		case c == '@':
			braced := i+1 < len(v) && v[i+1] == '{'
			start := i + 1
			if braced {
				start++
			}
			name, n := readName(v[start:])
			if n == 0 {
				break
			}
			val, err := r.variable(name, sc, at, depth)
			if err != nil {
				return "", err
			}
			b.WriteString(val)
			i = start + n - 1
			if braced && i+1 < len(v) && v[i+1] == '}' {
				i++
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

// evalHeader evaluates the prelude of an at-rule, leaving its keyword alone.
func (r *renderer) evalHeader(h string, sc *scope, at item) (string, error) {
	keyword, rest, _ := strings.Cut(h, " ")
	if !strings.HasPrefix(keyword, "@") {
		return r.eval(h, sc, at, 0)
	}
	if strings.Contains(keyword, "@{") {
		var err error
		if keyword, err = r.interpolate(keyword, sc, at, 0); err != nil {
			return "", err
		}
	}
	rest, err := r.eval(rest, sc, at, 0)
	if err != nil {
		return "", err
	}
	return normalize(keyword + " " + rest), nil
}

// interpolate substitutes only @{name} references, as used in selectors
// and property names.
func (r *renderer) interpolate(s string, sc *scope, at item, depth int) (string, error) {
	if !strings.Contains(s, "@{") {
		return s, nil
	}
	var b strings.Builder
	for {
		i := strings.Index(s, "@{")
		if i < 0 {
			b.WriteString(s)
			return b.String(), nil
		}
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			b.WriteString(s)
			return b.String(), nil
		}
		val, err := r.variable(s[i+2:i+end], sc, at, depth)
		if err != nil {
			return "", err
		}
		b.WriteString(s[:i])
		b.WriteString(unquote(val))
		s = s[i+end+1:]
	}
}

func (r *renderer) variable(name string, sc *scope, at item, depth int) (string, error) {
	raw, owner, ok := sc.lookup(name)
	if !ok {
		err := zerr.Wrap(ErrUndefined, "undefined variable")
		err = zerr.With(err, "variable", "@"+name)
		return "", zerr.With(zerr.With(err, "path", at.file), "line", at.line)
	}
	return r.eval(raw, owner, at, depth+1)
}

func readName(s string) (string, int) {
	n := 0
	for n < len(s) {
		c := s[n]
		if c == '-' || c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			n++
			continue
		}
		break
	}
	return s[:n], n
}

// splitSelectors splits a selector list on top-level commas.
func splitSelectors(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, normalize(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, normalize(s[start:]))
}

func normalize(sel string) string {
	return strings.Join(strings.Fields(sel), " ")
}

// combine joins every parent selector with every child selector. A child
// containing '&' places the parent at each '&'.
func combine(parents, children []string) []string {
	if len(parents) == 0 {
		out := make([]string, 0, len(children))
		for _, c := range children {
			out = append(out, strings.ReplaceAll(c, "&", ""))
		}
		return out
	}
	out := make([]string, 0, len(parents)*len(children))
	for _, p := range parents {
		for _, c := range children {
			if strings.Contains(c, "&") {
				out = append(out, strings.ReplaceAll(c, "&", p))
			} else {
				out = append(out, p+" "+c)
			}
		}
	}
	return out
}

// nest adds a conditional at-rule inside wrappers. Consecutive @media
// queries merge with "and".
func nest(wrappers []string, header string) []string {
	out := append([]string(nil), wrappers...)
	if n := len(out); n > 0 && strings.HasPrefix(out[n-1], "@media") && strings.HasPrefix(header, "@media") {
		out[n-1] = out[n-1] + " and " + strings.TrimSpace(strings.TrimPrefix(header, "@media"))
		return out
	}
	return append(out, normalize(header))
}

type emission struct {
	wrappers  []string
	selectors []string
	decls     []string
	raw       string
}

type output struct {
	items []emission
}

func (o *output) add(e emission) {
	o.items = append(o.items, e)
}

func (o *output) String() string {
	var b strings.Builder
	for i := 0; i < len(o.items); {
		j := i + 1
		for j < len(o.items) && sameWrappers(o.items[i].wrappers, o.items[j].wrappers) {
			j++
		}
		writeGroup(&b, o.items[i:j])
		i = j
	}
	return b.String()
}

func writeGroup(b *strings.Builder, group []emission) {
	wrappers := group[0].wrappers
	for depth, w := range wrappers {
		b.WriteString(strings.Repeat("  ", depth) + w + " {\n")
	}
	pad := strings.Repeat("  ", len(wrappers))
	for _, e := range group {
		if e.raw != "" {
			for _, line := range strings.Split(strings.TrimRight(e.raw, "\n"), "\n") {
				b.WriteString(pad + line + "\n")
			}
			continue
		}
		b.WriteString(pad + strings.Join(e.selectors, ",\n"+pad) + " {\n")
		for _, d := range e.decls {
			b.WriteString(pad + "  " + d + ";\n")
		}
		b.WriteString(pad + "}\n")
	}
	for depth := len(wrappers) - 1; depth >= 0; depth-- {
		b.WriteString(strings.Repeat("  ", depth) + "}\n")
	}
}

func sameWrappers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
