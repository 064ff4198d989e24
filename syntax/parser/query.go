// Copyright © 2024 The ELPS authors

package parser

import (
	"github.com/luthersystems/sharpbind/syntax"
)

// isQueryStart reports whether the current position begins a query
// expression.  from is contextual, so it must be followed by a range
// variable (optionally preceded by a type) and in.
func (p *Parser) isQueryStart() bool {
	if !p.is("from") {
		return false
	}
	if p.isIdent(p.peek(1)) && p.isAt(2, "in") {
		return true
	}
	save := p.pos
	defer func() { p.pos = save }()
	return p.speculate(func() bool {
		p.next()
		p.parseType(true)
		if !p.isIdent(p.tok()) {
			return false
		}
		p.next()
		return p.is("in")
	})
}

func (p *Parser) parseQuery() syntax.Expr {
	start := p.pos
	from := p.parseFromClause()
	body := p.parseQueryBody()
	return &syntax.Query{From: from, Body: body, Source: p.span(start)}
}

func (p *Parser) parseFromClause() *syntax.FromClause {
	start := p.pos
	p.expect("from")
	clause := &syntax.FromClause{}
	if !(p.isIdent(p.tok()) && p.isAt(1, "in")) {
		clause.Type = p.parseType(true)
	}
	clause.Name, clause.NameLoc = p.expectIdent()
	p.expect("in")
	clause.In = p.parseExpr()
	clause.Source = p.span(start)
	return clause
}

func (p *Parser) parseQueryBody() *syntax.QueryBody {
	body := &syntax.QueryBody{}
	for {
		start := p.pos
		switch {
		case p.is("from"):
			body.Clauses = append(body.Clauses, p.parseFromClause())
		case p.is("let"):
			p.next()
			c := &syntax.LetClause{}
			c.Name, c.NameLoc = p.expectIdent()
			p.expect("=")
			c.Value = p.parseExpr()
			c.Source = p.span(start)
			body.Clauses = append(body.Clauses, c)
		case p.is("where"):
			p.next()
			cond := p.parseExpr()
			body.Clauses = append(body.Clauses, &syntax.WhereClause{Cond: cond, Source: p.span(start)})
		case p.is("join"):
			body.Clauses = append(body.Clauses, p.parseJoinClause())
		case p.is("orderby"):
			p.next()
			c := &syntax.OrderByClause{}
			for {
				ordStart := p.pos
				o := &syntax.Ordering{Key: p.parseExpr()}
				if p.accept("descending") {
					o.Descending = true
				} else {
					p.accept("ascending")
				}
				o.Source = p.span(ordStart)
				c.Orderings = append(c.Orderings, o)
				if !p.accept(",") {
					break
				}
			}
			c.Source = p.span(start)
			body.Clauses = append(body.Clauses, c)
		case p.is("select"):
			p.next()
			v := p.parseExpr()
			body.SelectOrGroup = &syntax.SelectClause{Value: v, Source: p.span(start)}
			body.Continuation = p.parseContinuation()
			return body
		case p.is("group"):
			p.next()
			v := p.parseExpr()
			p.expect("by")
			by := p.parseExpr()
			body.SelectOrGroup = &syntax.GroupClause{Value: v, By: by, Source: p.span(start)}
			body.Continuation = p.parseContinuation()
			return body
		default:
			p.errorf("expected query clause but found %s", p.describe(p.tok()))
		}
	}
}

func (p *Parser) parseJoinClause() *syntax.JoinClause {
	start := p.pos
	p.expect("join")
	c := &syntax.JoinClause{}
	if !(p.isIdent(p.tok()) && p.isAt(1, "in")) {
		c.Type = p.parseType(true)
	}
	c.Name, c.NameLoc = p.expectIdent()
	p.expect("in")
	c.In = p.parseExpr()
	p.expect("on")
	c.Left = p.parseExpr()
	p.expect("equals")
	c.Right = p.parseExpr()
	if p.accept("into") {
		c.Into, c.IntoLoc = p.expectIdent()
	}
	c.Source = p.span(start)
	return c
}

func (p *Parser) parseContinuation() *syntax.QueryContinuation {
	if !p.is("into") {
		return nil
	}
	start := p.pos
	p.next()
	c := &syntax.QueryContinuation{}
	c.Name, c.NameLoc = p.expectIdent()
	c.Body = p.parseQueryBody()
	c.Source = p.span(start)
	return c
}
