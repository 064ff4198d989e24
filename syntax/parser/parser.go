// Copyright © 2024 The ELPS authors

// Package parser turns source text into syntax trees.  Tokens are matched
// with a goparsec scanner; the grammar itself is recursive descent with
// precedence climbing for binary operators.
package parser

import (
	"fmt"

	"github.com/luthersystems/sharpbind/syntax"
)

// Error is a syntax error.
type Error struct {
	Loc syntax.Location
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Loc, e.Msg)
}

// reserved words can never be used as identifiers unless written with @.
var reserved = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true,
	"default": true, "delegate": true, "do": true, "double": true,
	"else": true, "enum": true, "event": true, "explicit": true,
	"extern": true, "false": true, "finally": true, "fixed": true,
	"float": true, "for": true, "foreach": true, "goto": true, "if": true,
	"implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true,
	"namespace": true, "new": true, "null": true, "object": true,
	"operator": true, "out": true, "override": true, "params": true,
	"private": true, "protected": true, "public": true, "readonly": true,
	"ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true,
	"string": true, "struct": true, "switch": true, "this": true,
	"throw": true, "true": true, "try": true, "typeof": true, "uint": true,
	"ulong": true, "unchecked": true, "unsafe": true, "ushort": true,
	"using": true, "virtual": true, "void": true, "volatile": true,
	"while": true,
}

// Parser holds the token stream of one source text.
type Parser struct {
	file  string
	lines *lineIndex
	toks  []token
	pos   int
}

// bailout is the panic payload used to unwind on the first syntax error.
type bailout struct {
	err *Error
}

func newParser(file string, src []byte) (*Parser, error) {
	p := &Parser{file: file, lines: newLineIndex(file, src)}
	toks, err := lex(src)
	if err != nil {
		if oe, ok := err.(*offsetError); ok {
			return nil, &Error{Loc: p.lines.location(oe.pos, oe.pos+1), Msg: oe.msg}
		}
		return nil, err
	}
	p.toks = toks
	return p, nil
}

func (p *Parser) run(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = b.err
		}
	}()
	fn()
	return nil
}

// ParseExpr parses a single expression.
func ParseExpr(file string, src string) (syntax.Expr, error) {
	p, err := newParser(file, []byte(src))
	if err != nil {
		return nil, err
	}
	var x syntax.Expr
	err = p.run(func() {
		x = p.parseExpr()
		if p.tok().kind != tokEOF {
			p.errorf("unexpected %s after expression", p.describe(p.tok()))
		}
	})
	if err != nil {
		return nil, err
	}
	return x, nil
}

// ParseType parses a type reference such as List<int>[] or int*.
func ParseType(src string) (syntax.Type, error) {
	p, err := newParser("", []byte(src))
	if err != nil {
		return nil, err
	}
	var t syntax.Type
	err = p.run(func() {
		t = p.parseType(true)
		if p.tok().kind != tokEOF {
			p.errorf("unexpected %s after type", p.describe(p.tok()))
		}
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Parser) tok() token {
	return p.toks[p.pos]
}

func (p *Parser) peek(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *Parser) is(text string) bool {
	t := p.tok()
	return (t.kind == tokPunct || (t.kind == tokIdent && !t.verbatim)) && t.text == text
}

func (p *Parser) isAt(n int, text string) bool {
	t := p.peek(n)
	return (t.kind == tokPunct || (t.kind == tokIdent && !t.verbatim)) && t.text == text
}

func (p *Parser) accept(text string) bool {
	if p.is(text) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(text string) token {
	if !p.is(text) {
		p.errorf("expected '%s' but found %s", text, p.describe(p.tok()))
	}
	return p.next()
}

// adjacent reports whether the token at offset n starts exactly where the
// token before it ends.
func (p *Parser) adjacent(n int) bool {
	return p.peek(n-1).end == p.peek(n).pos
}

func (p *Parser) isIdent(t token) bool {
	return t.kind == tokIdent && (t.verbatim || !reserved[t.text])
}

func (p *Parser) expectIdent() (string, syntax.Location) {
	t := p.tok()
	if !p.isIdent(t) {
		p.errorf("expected identifier but found %s", p.describe(t))
	}
	p.next()
	return t.text, p.lines.location(t.pos, t.end)
}

func (p *Parser) describe(t token) string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("'%s'", t.text)
}

// loc returns the location of the single token at index i.
func (p *Parser) locOf(i int) syntax.Location {
	t := p.toks[i]
	return p.lines.location(t.pos, t.end)
}

// span returns a location from the token at index start through the last
// consumed token.
func (p *Parser) span(start int) syntax.Location {
	first := p.toks[start]
	last := first
	if p.pos > start {
		last = p.toks[p.pos-1]
	}
	return p.lines.location(first.pos, last.end)
}

func (p *Parser) errorf(format string, v ...interface{}) {
	t := p.tok()
	panic(bailout{&Error{Loc: p.lines.location(t.pos, t.end), Msg: fmt.Sprintf(format, v...)}})
}

// speculate runs fn and restores the token position when fn fails or
// returns false.
func (p *Parser) speculate(fn func() bool) (ok bool) {
	save := p.pos
	defer func() {
		if r := recover(); r != nil {
			if _, isBail := r.(bailout); !isBail {
				panic(r)
			}
			ok = false
		}
		if !ok {
			p.pos = save
		}
	}()
	return fn()
}
