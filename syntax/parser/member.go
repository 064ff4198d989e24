// Copyright © 2024 The ELPS authors

package parser

import (
	"github.com/luthersystems/sharpbind/syntax"
)

var memberModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
	"static": true, "virtual": true, "abstract": true, "override": true,
	"sealed": true, "readonly": true, "const": true, "event": true,
	"extern": true, "unsafe": true,
}

var overloadableOps = map[string]bool{
	"+": true, "-": true, "!": true, "~": true, "++": true, "--": true,
	"*": true, "/": true, "%": true, "&": true, "|": true, "^": true,
	"<<": true, "==": true, "!=": true, "<": true, ">": true, "<=": true,
	">=": true, "true": true, "false": true,
}

// ParseMember parses a single bodiless member signature.  typeName is the
// simple name of the declaring type, used to recognize constructors.
func ParseMember(typeName, src string) (*syntax.MemberDecl, error) {
	p, err := newParser("", []byte(src))
	if err != nil {
		return nil, err
	}
	var d *syntax.MemberDecl
	err = p.run(func() {
		d = p.parseMember(typeName)
		p.accept(";")
		if p.tok().kind != tokEOF {
			p.errorf("unexpected %s after member", p.describe(p.tok()))
		}
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) parseMember(typeName string) *syntax.MemberDecl {
	start := p.pos
	d := &syntax.MemberDecl{}
	for p.tok().kind == tokIdent && memberModifiers[p.tok().text] {
		d.Modifiers = append(d.Modifiers, p.next().text)
	}
	switch {
	case p.is("implicit") || p.is("explicit"):
		d.Kind = syntax.MemberConversion
		d.Operator = p.next().text
		p.expect("operator")
		d.Type = p.parseType(true)
		d.Params = p.parseParamList("(", ")")
		d.Source = p.span(start)
		return d
	case p.isIdent(p.tok()) && p.tok().text == typeName && p.isAt(1, "("):
		d.Kind = syntax.MemberConstructor
		d.Name, _ = p.expectIdent()
		d.Params = p.parseParamList("(", ")")
		d.Source = p.span(start)
		return d
	}
	d.Type = p.parseType(true)
	switch {
	case p.accept("operator"):
		d.Kind = syntax.MemberOperator
		op := p.next()
		text := op.text
		if text == ">" && p.is(">") && p.adjacent(0) {
			p.next()
			text = ">>"
		}
		if !overloadableOps[text] && text != ">>" {
			p.errorf("operator %s cannot be overloaded", p.describe(op))
		}
		d.Operator = text
		d.Params = p.parseParamList("(", ")")
	case p.accept("this"):
		d.Kind = syntax.MemberIndexer
		d.Params = p.parseParamList("[", "]")
		p.parseAccessors(d)
	default:
		d.Name, _ = p.expectIdent()
		switch {
		case p.is("<") || p.is("("):
			d.Kind = syntax.MemberMethod
			if p.is("<") {
				d.TypeParams = p.parseTypeParamList()
			}
			d.Params = p.parseParamList("(", ")")
			for p.is("where") {
				d.Constraints = append(d.Constraints, p.parseConstraint())
			}
		case p.is("{"):
			d.Kind = syntax.MemberProperty
			p.parseAccessors(d)
		case d.HasModifier("event"):
			d.Kind = syntax.MemberEvent
		case d.HasModifier("const"):
			d.Kind = syntax.MemberConst
			p.expect("=")
			d.Value = p.parseExpr()
		default:
			d.Kind = syntax.MemberField
		}
	}
	d.Source = p.span(start)
	return d
}

func (p *Parser) parseAccessors(d *syntax.MemberDecl) {
	p.expect("{")
	for !p.accept("}") {
		switch {
		case p.accept("get"):
			d.Get = true
		case p.accept("set"):
			d.Set = true
		default:
			p.errorf("expected 'get' or 'set' but found %s", p.describe(p.tok()))
		}
		p.accept(";")
	}
}

// parseTypeParamList parses <in T, out U, V>.
func (p *Parser) parseTypeParamList() []*syntax.TypeParamDecl {
	p.expect("<")
	var tps []*syntax.TypeParamDecl
	for {
		tp := &syntax.TypeParamDecl{}
		if p.is("in") || p.is("out") {
			tp.Variance = p.next().text
		}
		tp.Name, _ = p.expectIdent()
		tps = append(tps, tp)
		if !p.accept(",") {
			break
		}
	}
	p.expect(">")
	return tps
}

// ParseTypeParams parses a type parameter list such as "<out T>" written
// after a type name.
func ParseTypeParams(src string) ([]*syntax.TypeParamDecl, error) {
	p, err := newParser("", []byte(src))
	if err != nil {
		return nil, err
	}
	var tps []*syntax.TypeParamDecl
	err = p.run(func() {
		tps = p.parseTypeParamList()
		if p.tok().kind != tokEOF {
			p.errorf("unexpected %s after type parameters", p.describe(p.tok()))
		}
	})
	if err != nil {
		return nil, err
	}
	return tps, nil
}

// ParseConstraint parses a single "where T : ..." clause.
func ParseConstraint(src string) (*syntax.ConstraintDecl, error) {
	p, err := newParser("", []byte(src))
	if err != nil {
		return nil, err
	}
	var c *syntax.ConstraintDecl
	err = p.run(func() {
		c = p.parseConstraint()
		if p.tok().kind != tokEOF {
			p.errorf("unexpected %s after constraint", p.describe(p.tok()))
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Parser) parseConstraint() *syntax.ConstraintDecl {
	p.expect("where")
	c := &syntax.ConstraintDecl{}
	c.Param, _ = p.expectIdent()
	p.expect(":")
	for {
		switch {
		case p.accept("class"):
			c.Class = true
		case p.accept("struct"):
			c.Struct = true
		case p.accept("new"):
			p.expect("(")
			p.expect(")")
			c.New = true
		default:
			c.Types = append(c.Types, p.parseType(false))
		}
		if !p.accept(",") {
			return c
		}
	}
}

func (p *Parser) parseParamList(open, close string) []*syntax.ParamDecl {
	p.expect(open)
	var params []*syntax.ParamDecl
	if p.accept(close) {
		return params
	}
	for {
		start := p.pos
		param := &syntax.ParamDecl{}
		switch {
		case p.accept("this"):
			param.This = true
		case p.accept("params"):
			param.Params = true
		}
		param.RefKind = p.parseRefKind()
		param.Type = p.parseType(true)
		param.Name, _ = p.expectIdent()
		if p.accept("=") {
			param.Default = p.parseExpr()
		}
		param.Source = p.span(start)
		params = append(params, param)
		if !p.accept(",") {
			break
		}
	}
	p.expect(close)
	return params
}
