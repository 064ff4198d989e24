// Copyright © 2024 The ELPS authors

package parser

import (
	"github.com/luthersystems/sharpbind/syntax"
)

// parseType parses a type reference.  allowNullable controls whether a
// trailing ? is read as a nullable type suffix.
func (p *Parser) parseType(allowNullable bool) syntax.Type {
	start := p.pos
	typ := p.parseNonArrayType()
	for {
		switch {
		case allowNullable && p.is("?") && !(p.adjacent(1) && (p.isAt(1, ".") || p.isAt(1, "["))):
			p.next()
			typ = &syntax.NullableType{Elem: typ, Source: p.span(start)}
		case p.is("*"):
			p.next()
			typ = &syntax.PointerType{Elem: typ, Source: p.span(start)}
		case p.is("[") && (p.isAt(1, "]") || p.isAt(1, ",")):
			p.next()
			rank := 1
			for p.accept(",") {
				rank++
			}
			p.expect("]")
			typ = &syntax.ArrayType{Elem: typ, Rank: rank, Source: p.span(start)}
		default:
			return typ
		}
	}
}

func (p *Parser) parseNonArrayType() syntax.Type {
	start := p.pos
	t := p.tok()
	if t.kind == tokIdent && !t.verbatim && syntax.PredefinedKeywords[t.text] {
		p.next()
		return &syntax.PredefinedType{Keyword: t.text, Source: p.span(start)}
	}
	var named *syntax.NamedType
	for {
		name, _ := p.expectIdent()
		var args []syntax.Type
		if p.is("<") {
			args = p.parseTypeArgList()
		}
		named = &syntax.NamedType{Qualifier: named, Name: name, TypeArgs: args, Source: p.span(start)}
		if !p.is(".") || !p.isIdent(p.peek(1)) {
			return named
		}
		p.next()
	}
}

func (p *Parser) parseTypeArgList() []syntax.Type {
	p.expect("<")
	var args []syntax.Type
	for {
		args = append(args, p.parseType(true))
		if !p.accept(",") {
			break
		}
	}
	p.expect(">")
	return args
}
