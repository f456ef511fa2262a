package cssmodules

import (
	"errors"
	"io"
	"slices"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.trai.ch/zerr"
)

type blockKind int

const (
	kindRule      blockKind = iota // selector block, may compose
	kindGroup                      // @media, @supports and friends
	kindKeyframes                  // @keyframes body
	kindDecls                      // @font-face, keyframe selectors
	kindExport                     // :export
	kindImport                     // :import("...")
)

// groupRules contain rulesets rather than declarations.
var groupRules = map[string]bool{
	"@media":     true,
	"@supports":  true,
	"@layer":     true,
	"@container": true,
	"@document":  true,
	"@scope":     true,
}

type token struct {
	tt   css.TokenType
	data string
}

type block struct {
	kind    blockKind
	classes []string
	dep     *Tokens
}

// file walks one stylesheet.
type file struct {
	run     *run
	path    string
	chain   []string
	tokens  *Tokens
	aliases map[string]string

	stack   []*block
	prelude []token
	line    int
}

func (f *file) walk(src string) error {
	lexer := css.NewLexer(parse.NewInputString(src))
	f.line = 1

	for {
		tt, data := lexer.Next()
		text := string(data)

		var err error
		switch tt {
		case css.ErrorToken:
			return f.finish(lexer.Err())
		case css.BadStringToken:
			err = f.syntax("unterminated string")
		case css.BadURLToken:
			err = f.syntax("malformed url")
		case css.CommentToken:
			if !strings.HasSuffix(text, "*/") || len(text) < 4 {
				err = f.syntax("unterminated comment")
			}
		case css.LeftBraceToken:
			err = f.open()
		case css.RightBraceToken:
			err = f.close()
		case css.SemicolonToken:
			err = f.statement()
		default:
			f.prelude = append(f.prelude, token{tt: tt, data: text})
		}
		if err != nil {
			return err
		}
		f.line += strings.Count(text, "\n")
	}
}

func (f *file) finish(err error) error {
	if err != nil && !errors.Is(err, io.EOF) {
		return f.syntax(err.Error())
	}
	if len(f.stack) > 0 {
		return f.syntax("unclosed block")
	}
	return f.statement()
}

func (f *file) top() *block {
	if len(f.stack) == 0 {
		return nil
	}
	return f.stack[len(f.stack)-1]
}

func (f *file) push(b *block) {
	f.stack = append(f.stack, b)
}

func (f *file) takePrelude() []token {
	pre := trim(f.prelude)
	f.prelude = nil
	return pre
}

func (f *file) open() error {
	pre := f.takePrelude()
	top := f.top()

	if len(pre) > 0 && pre[0].tt == css.AtKeywordToken {
		name := strings.ToLower(pre[0].data)
		switch {
		case strings.HasSuffix(name, "keyframes"):
			f.keyframes(pre[1:])
			f.push(&block{kind: kindKeyframes})
		case groupRules[name]:
			f.push(&block{kind: kindGroup})
		default:
			f.push(&block{kind: kindDecls})
		}
		return nil
	}

	if top != nil && top.kind == kindKeyframes {
		f.push(&block{kind: kindDecls})
		return nil
	}

	sel := scanSelector(pre)
	switch {
	case sel.export:
		f.push(&block{kind: kindExport})
	case sel.importSpec != "":
		_, dep, err := f.run.dependency(sel.importSpec, f.path, f.chain)
		if err != nil {
			return err
		}
		f.push(&block{kind: kindImport, dep: dep})
	default:
		for _, class := range sel.classes {
			f.tokens.Add(class, f.run.loader.scope(class, f.path))
		}
		classes := sel.classes
		if len(classes) == 0 && top != nil && top.kind == kindRule {
			classes = top.classes
		}
		f.push(&block{kind: kindRule, classes: classes})
	}
	return nil
}

func (f *file) close() error {
	if len(f.stack) == 0 {
		return f.syntax("unexpected }")
	}
	if err := f.statement(); err != nil {
		return err
	}
	f.stack = f.stack[:len(f.stack)-1]
	return nil
}

func (f *file) statement() error {
	pre := f.takePrelude()
	if len(pre) == 0 {
		return nil
	}
	if pre[0].tt == css.AtKeywordToken {
		if strings.EqualFold(pre[0].data, "@import") {
			return f.importRule(pre[1:])
		}
		return nil
	}
	top := f.top()
	if top == nil {
		return nil
	}
	return f.declaration(top, pre)
}

func (f *file) declaration(top *block, pre []token) error {
	prop, value, ok := splitDeclaration(pre)
	if !ok {
		return nil
	}

	switch top.kind {
	case kindExport:
		text := join(value)
		if alias, ok := f.aliases[text]; ok {
			text = alias
		}
		f.tokens.Set(prop, text)
	case kindImport:
		name := join(value)
		exported, ok := top.dep.Get(name)
		if !ok {
			return f.unknownClass(name)
		}
		f.aliases[prop] = exported
	case kindRule:
		switch strings.ToLower(prop) {
		case "composes", "compose-with":
			return f.composes(top, value)
		}
	}
	return nil
}

func (f *file) composes(top *block, value []token) error {
	var (
		names  []string
		from   string
		global bool
	)
	vals := significant(value)
	for i := 0; i < len(vals); i++ {
		t := vals[i]
		if t.tt != css.IdentToken {
			continue
		}
		if t.data == "from" && i+1 < len(vals) {
			next := vals[i+1]
			if next.tt == css.IdentToken && next.data == "global" {
				global = true
			} else {
				from = unquote(next.data)
			}
			break
		}
		names = append(names, t.data)
	}

	values := make([]string, 0, len(names))
	switch {
	case global:
		values = append(values, names...)
	case from != "":
		_, dep, err := f.run.dependency(from, f.path, f.chain)
		if err != nil {
			return err
		}
		for _, name := range names {
			v, ok := dep.Get(name)
			if !ok {
				return zerr.With(f.unknownClass(name), "from", from)
			}
			values = append(values, v)
		}
	default:
		for _, name := range names {
			v, ok := f.tokens.Get(name)
			if !ok {
				v = f.run.loader.scope(name, f.path)
				f.tokens.Add(name, v)
			}
			values = append(values, v)
		}
	}

	extra := strings.Join(values, " ")
	for _, class := range top.classes {
		f.tokens.Append(class, extra)
	}
	return nil
}

func (f *file) importRule(args []token) error {
	spec := ""
	for _, t := range significant(args) {
		switch t.tt {
		case css.StringToken:
			spec = unquote(t.data)
		case css.URLToken:
			spec = unquote(strings.TrimSuffix(strings.TrimPrefix(t.data, "url("), ")"))
		default:
			continue
		}
		break
	}
	if spec == "" || isExternal(spec) {
		return nil
	}
	target, err := f.run.fetch(spec, f.path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve @import"), "specifier", spec)
	}
	if !slices.Contains(f.run.deps, target) {
		f.run.deps = append(f.run.deps, target)
	}
	return nil
}

func (f *file) keyframes(args []token) {
	vals := significant(args)
	if len(vals) == 0 {
		return
	}
	switch {
	case vals[0].tt == css.IdentToken:
		f.tokens.Add(vals[0].data, f.run.loader.scope(vals[0].data, f.path))
	case len(vals) >= 3 && vals[0].tt == css.ColonToken &&
		strings.EqualFold(vals[1].data, "local(") && vals[2].tt == css.IdentToken:
		f.tokens.Add(vals[2].data, f.run.loader.scope(vals[2].data, f.path))
	}
}

func (f *file) syntax(msg string) error {
	err := zerr.Wrap(ErrSyntax, msg)
	err = zerr.With(err, "path", f.path)
	return zerr.With(err, "line", f.line)
}

func (f *file) unknownClass(name string) error {
	err := zerr.Wrap(ErrUnknownClass, "referenced class is not exported")
	err = zerr.With(err, "class", name)
	return zerr.With(err, "path", f.path)
}

type selector struct {
	classes    []string
	export     bool
	importSpec string
}

type scope struct {
	saved bool // mode outside the parentheses
	entry bool // mode right after the opening parenthesis
}

// scanSelector collects the local class names of a selector list.
func scanSelector(toks []token) selector {
	var (
		sel    selector
		global bool
		scopes []scope
	)

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.tt {
		case css.ColonToken:
			if i+1 >= len(toks) {
				continue
			}
			next := toks[i+1]
			switch next.tt {
			case css.IdentToken:
				switch strings.ToLower(next.data) {
				case "global":
					global = true
				case "local":
					global = false
				case "export":
					sel.export = true
				}
				i++
			case css.FunctionToken:
				s := scope{saved: global}
				switch strings.ToLower(next.data) {
				case "global(":
					global = true
				case "local(":
					global = false
				case "import(":
					spec, end := collectUntilParen(toks, i+2)
					sel.importSpec = unquote(spec)
					i = end
					continue
				}
				s.entry = global
				scopes = append(scopes, s)
				i++
			}
		case css.FunctionToken, css.LeftParenthesisToken:
			scopes = append(scopes, scope{saved: global, entry: global})
		case css.RightParenthesisToken:
			if n := len(scopes); n > 0 {
				global = scopes[n-1].saved
				scopes = scopes[:n-1]
			}
		case css.CommaToken:
			if n := len(scopes); n > 0 {
				global = scopes[n-1].entry
			} else {
				global = false
			}
		case css.DelimToken:
			if t.data == "." && i+1 < len(toks) && toks[i+1].tt == css.IdentToken {
				name := toks[i+1].data
				if !global && !slices.Contains(sel.classes, name) {
					sel.classes = append(sel.classes, name)
				}
				i++
			}
		}
	}
	return sel
}

// collectUntilParen joins token text from start up to the closing
// parenthesis and returns the index of that parenthesis.
func collectUntilParen(toks []token, start int) (string, int) {
	var b strings.Builder
	i := start
	for ; i < len(toks) && toks[i].tt != css.RightParenthesisToken; i++ {
		b.WriteString(toks[i].data)
	}
	return strings.TrimSpace(b.String()), i
}

func splitDeclaration(toks []token) (string, []token, bool) {
	vals := significant(toks)
	if len(vals) < 2 || vals[0].tt != css.IdentToken || vals[1].tt != css.ColonToken {
		return "", nil, false
	}
	for i, t := range toks {
		if t.tt == css.ColonToken {
			return vals[0].data, trim(toks[i+1:]), true
		}
	}
	return "", nil, false
}

func significant(toks []token) []token {
	out := make([]token, 0, len(toks))
	for _, t := range toks {
		if t.tt != css.WhitespaceToken && t.tt != css.CommentToken {
			out = append(out, t)
		}
	}
	return out
}

func trim(toks []token) []token {
	for len(toks) > 0 && toks[0].tt == css.WhitespaceToken {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].tt == css.WhitespaceToken {
		toks = toks[:len(toks)-1]
	}
	return toks
}

// join renders a value with whitespace runs collapsed to one space.
func join(toks []token) string {
	var b strings.Builder
	for _, t := range trim(toks) {
		switch t.tt {
		case css.WhitespaceToken:
			b.WriteByte(' ')
		case css.CommentToken:
		default:
			b.WriteString(t.data)
		}
	}
	return b.String()
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func isExternal(spec string) bool {
	return strings.HasPrefix(spec, "//") ||
		strings.HasPrefix(spec, "data:") ||
		strings.Contains(spec, "://")
}
