// Copyright © 2024 The ELPS authors

package parser

import (
	"github.com/luthersystems/sharpbind/syntax"
)

// ParseScript parses a script: using directives followed by local
// declarations, expression statements and nested blocks.
func ParseScript(file string, src string) (*syntax.Script, error) {
	p, err := newParser(file, []byte(src))
	if err != nil {
		return nil, err
	}
	script := &syntax.Script{File: file}
	err = p.run(func() {
		for p.is("using") {
			script.Usings = append(script.Usings, p.parseUsing())
		}
		start := p.pos
		body := &syntax.Block{}
		for p.tok().kind != tokEOF {
			body.Statements = append(body.Statements, p.parseStatement())
		}
		body.Source = p.span(start)
		script.Body = body
	})
	if err != nil {
		return nil, err
	}
	return script, nil
}

func (p *Parser) parseUsing() *syntax.UsingDirective {
	start := p.pos
	p.expect("using")
	u := &syntax.UsingDirective{}
	if p.isIdent(p.tok()) && p.isAt(1, "=") {
		u.Alias, u.AliasLoc = p.expectIdent()
		p.next()
	}
	typ, ok := p.parseNonArrayType().(*syntax.NamedType)
	if !ok {
		p.errorf("expected namespace or type name in using directive")
	}
	u.Name = typ
	p.expect(";")
	u.Source = p.span(start)
	return u
}

func (p *Parser) parseStatement() syntax.Statement {
	start := p.pos
	switch {
	case p.is("{"):
		return p.parseBlock(false)
	case p.is("unsafe") && p.isAt(1, "{"):
		p.next()
		b := p.parseBlock(true)
		b.Source = p.span(start)
		return b
	case p.is(";"):
		p.errorf("empty statement")
	}
	if decl := p.tryLocalDecl(); decl != nil {
		return decl
	}
	x := p.parseExpr()
	p.expect(";")
	return &syntax.ExprStmt{X: x, Source: p.span(start)}
}

func (p *Parser) parseBlock(unsafe bool) *syntax.Block {
	start := p.pos
	p.expect("{")
	b := &syntax.Block{Unsafe: unsafe}
	for !p.is("}") {
		if p.tok().kind == tokEOF {
			p.errorf("expected '}' but found %s", p.describe(p.tok()))
		}
		b.Statements = append(b.Statements, p.parseStatement())
	}
	p.expect("}")
	b.Source = p.span(start)
	return b
}

// tryLocalDecl parses T a [= e], b; when the statement starts with a type
// followed by a declarator.
func (p *Parser) tryLocalDecl() *syntax.LocalDecl {
	start := p.pos
	decl := &syntax.LocalDecl{}
	ok := p.speculate(func() bool {
		decl.Const = p.accept("const")
		decl.Type = p.parseType(true)
		if !p.isIdent(p.tok()) {
			return false
		}
		return p.isAt(1, "=") || p.isAt(1, ";") || p.isAt(1, ",")
	})
	if !ok {
		return nil
	}
	for {
		d := &syntax.Declarator{}
		d.Name, d.NameLoc = p.expectIdent()
		if p.accept("=") {
			d.Init = p.parseExpr()
		}
		decl.Declarators = append(decl.Declarators, d)
		if !p.accept(",") {
			break
		}
	}
	p.expect(";")
	decl.Source = p.span(start)
	return decl
}
