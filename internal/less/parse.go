package less

import (
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

type kind int

const (
	kindRoot  kind = iota
	kindRule       // selector block
	kindMedia      // @media, @supports: bubbles out of rules
	kindAt         // other block at-rules, printed verbatim
	kindMixin      // parameterised mixin definition, never printed
)

type itemKind int

const (
	itemDecl itemKind = iota
	itemChild
	itemCall
	itemRaw
)

type item struct {
	kind  itemKind
	line  int
	file  string
	prop  string
	value string
	child *node
	args  []string
}

type param struct {
	name string
	def  string
}

type node struct {
	kind   kind
	header string
	file   string
	line   int
	vars   map[string]string
	items  []item
	params []param
}

var (
	variableDef = regexp.MustCompile(`^@([\w-]+)\s*:`)
	mixinCall   = regexp.MustCompile(`^([.#][\w-]+)\s*(?:\((.*)\))?\s*(?:!important)?$`)
	mixinDef    = regexp.MustCompile(`^([.#][\w-]+)\s*\((.*)\)$`)
	simpleClass = regexp.MustCompile(`^[.#][\w-]+$`)
	importArgs  = regexp.MustCompile(`^@import\s*(?:\(([\w\s,]*)\))?\s*(.+)$`)
	guard       = regexp.MustCompile(`\swhen\s*(?:not\s*)?\(`)
)

type parser struct {
	r    *renderer
	src  string
	pos  int
	line int
	file string
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) errorf(line int, msg string) error {
	err := zerr.Wrap(ErrSyntax, msg)
	err = zerr.With(err, "path", p.file)
	return zerr.With(err, "line", line)
}

func (p *parser) advance(n int) {
	p.line += strings.Count(p.src[p.pos:p.pos+n], "\n")
	p.pos += n
}

// skip consumes whitespace and comments.
func (p *parser) skip() error {
	for !p.eof() {
		rest := p.src[p.pos:]
		switch {
		case rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '\r':
			p.advance(1)
		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}
			p.advance(end)
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return p.errorf(p.line, "unterminated comment")
			}
			p.advance(end + 4)
		default:
			return nil
		}
	}
	return nil
}

// parseBlock fills n with the items up to the matching closing brace, or to
// the end of input when top is set.
func (p *parser) parseBlock(n *node, top bool) error {
	for {
		if err := p.skip(); err != nil {
			return err
		}
		if p.eof() {
			if !top {
				return p.errorf(n.line, "missing closing brace")
			}
			return nil
		}
		if p.src[p.pos] == '}' {
			if top {
				return p.errorf(p.line, "unexpected closing brace")
			}
			p.advance(1)
			return nil
		}

		line := p.line
		text, term, err := p.readStatement()
		if err != nil {
			return err
		}
		if term == '{' {
			if !strings.HasPrefix(text, "@") && guard.MatchString(text) {
				return p.errorf(line, "guards are not supported")
			}
			child := &node{header: text, file: p.file, line: line, vars: make(map[string]string)}
			if err := p.parseBlock(child, false); err != nil {
				return err
			}
			p.classify(child)
			n.items = append(n.items, item{kind: itemChild, line: line, file: p.file, child: child})
			continue
		}
		if text == "" {
			continue
		}
		if err := p.statement(n, text, line); err != nil {
			return err
		}
	}
}

// readStatement reads up to the next ';' or '{' outside strings and
// parentheses, or up to a '}' which is left unread. It returns the trimmed
// text and the terminator, 0 at end of input.
func (p *parser) readStatement() (string, byte, error) {
	var b strings.Builder
	depth := 0
	for !p.eof() {
		c := p.src[p.pos]
		rest := p.src[p.pos:]
		switch {
		case c == '"' || c == '\'':
			end := strings.IndexAny(rest[1:], string(c)+"\n")
			if end < 0 || rest[1+end] == '\n' {
				return "", 0, p.errorf(p.line, "unterminated string")
			}
			b.WriteString(rest[:end+2])
			p.advance(end + 2)
			continue
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return "", 0, p.errorf(p.line, "unterminated comment")
			}
			b.WriteByte(' ')
			p.advance(end + 4)
			continue
		case depth == 0 && strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}
			p.advance(end)
			continue
		case strings.HasPrefix(rest, "@{"):
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return "", 0, p.errorf(p.line, "unterminated interpolation")
			}
			b.WriteString(rest[:end+1])
			p.advance(end + 1)
			continue
		case c == '(':
			depth++
		case c == ')':
			if depth == 0 {
				return "", 0, p.errorf(p.line, "unbalanced parenthesis")
			}
			depth--
		case depth == 0 && (c == ';' || c == '{'):
			p.advance(1)
			return strings.TrimSpace(b.String()), c, nil
		case depth == 0 && c == '}':
			return strings.TrimSpace(b.String()), '}', nil
		}
		b.WriteByte(c)
		p.advance(1)
	}
	if depth != 0 {
		return "", 0, p.errorf(p.line, "unbalanced parenthesis")
	}
	return strings.TrimSpace(b.String()), 0, nil
}

func (p *parser) classify(n *node) {
	h := n.header
	switch {
	case strings.HasPrefix(h, "@media"), strings.HasPrefix(h, "@supports"):
		n.kind = kindMedia
	case strings.HasPrefix(h, "@") && !strings.HasPrefix(h, "@{"):
		n.kind = kindAt
	case mixinDef.MatchString(h):
		m := mixinDef.FindStringSubmatch(h)
		n.kind = kindMixin
		n.header = m[1]
		n.params = parseParams(m[2])
		p.r.mixins[m[1]] = n
	default:
		n.kind = kindRule
		if simpleClass.MatchString(h) {
			p.r.mixins[h] = n
		}
	}
}

func (p *parser) statement(n *node, text string, line int) error {
	switch {
	case strings.HasPrefix(text, "@import"):
		return p.importRule(n, text, line)
	case variableDef.MatchString(text):
		m := variableDef.FindStringSubmatch(text)
		n.vars[m[1]] = strings.TrimSpace(text[len(m[0]):])
	case strings.HasPrefix(text, "@") && !strings.HasPrefix(text, "@{"):
		n.items = append(n.items, item{kind: itemRaw, line: line, file: p.file, value: text})
	case mixinCall.MatchString(text):
		m := mixinCall.FindStringSubmatch(text)
		n.items = append(n.items, item{kind: itemCall, line: line, file: p.file, prop: m[1], args: splitArgs(m[2])})
	default:
		prop, value, ok := strings.Cut(text, ":")
		if !ok || strings.TrimSpace(prop) == "" {
			return p.errorf(line, "expected declaration")
		}
		n.items = append(n.items, item{
			kind:  itemDecl,
			line:  line,
			file:  p.file,
			prop:  strings.TrimSpace(prop),
			value: strings.TrimSpace(value),
		})
	}
	return nil
}

func (p *parser) importRule(n *node, text string, line int) error {
	m := importArgs.FindStringSubmatch(text)
	if m == nil {
		return p.errorf(line, "malformed @import")
	}
	options, target := m[1], strings.TrimSpace(m[2])

	if strings.HasPrefix(target, "url(") {
		n.items = append(n.items, item{kind: itemRaw, line: line, file: p.file, value: text})
		return nil
	}
	spec := unquote(target)
	if spec == target {
		return p.errorf(line, "@import expects a quoted path")
	}
	if strings.HasSuffix(spec, ".css") && !strings.Contains(options, "less") {
		n.items = append(n.items, item{kind: itemRaw, line: line, file: p.file, value: text})
		return nil
	}

	resolved, data, err := p.r.locate(spec, p.file)
	if err != nil {
		return zerr.With(zerr.With(err, "path", p.file), "line", line)
	}
	if p.r.imported[resolved] {
		return nil
	}
	p.r.imported[resolved] = true
	p.r.imports = append(p.r.imports, resolved)

	sub := &parser{r: p.r, src: string(data), file: resolved, line: 1}
	return sub.parseBlock(n, true)
}

func parseParams(s string) []param {
	var params []param
	for _, arg := range splitArgs(s) {
		name, def, _ := strings.Cut(arg, ":")
		params = append(params, param{
			name: strings.TrimPrefix(strings.TrimSpace(name), "@"),
			def:  strings.TrimSpace(def),
		})
	}
	return params
}

// splitArgs splits on top-level ';' or ',' outside parentheses and strings.
func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	sep := byte(',')
	if strings.Contains(s, ";") {
		sep = ';'
	}

	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		parts = append(parts, last)
	}
	return parts
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
