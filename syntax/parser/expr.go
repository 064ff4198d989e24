// Copyright © 2024 The ELPS authors

package parser

import (
	"github.com/luthersystems/sharpbind/syntax"
)

func (p *Parser) parseExpr() syntax.Expr {
	if p.isLambdaStart() {
		return p.parseLambda()
	}
	if p.isQueryStart() {
		return p.parseQuery()
	}
	start := p.pos
	lhs := p.parseConditional()
	if op, compound, n, ok := p.assignmentOp(); ok {
		p.pos += n
		rhs := p.parseExpr()
		return &syntax.Assignment{
			Compound: compound,
			Op:       op,
			Left:     lhs,
			Right:    rhs,
			Source:   p.span(start),
		}
	}
	return lhs
}

var compoundAssignOps = map[string]syntax.BinaryOp{
	"+=":  syntax.BinaryAdd,
	"-=":  syntax.BinarySub,
	"*=":  syntax.BinaryMul,
	"/=":  syntax.BinaryDiv,
	"%=":  syntax.BinaryMod,
	"&=":  syntax.BinaryAnd,
	"|=":  syntax.BinaryOr,
	"^=":  syntax.BinaryXor,
	"<<=": syntax.BinaryShl,
	"??=": syntax.BinaryCoalesce,
}

func (p *Parser) assignmentOp() (syntax.BinaryOp, bool, int, bool) {
	t := p.tok()
	if t.kind != tokPunct {
		return 0, false, 0, false
	}
	if t.text == "=" {
		return 0, false, 1, true
	}
	if op, ok := compoundAssignOps[t.text]; ok {
		return op, true, 1, true
	}
	if t.text == ">" && p.isAt(1, ">=") && p.adjacent(1) {
		return syntax.BinaryShr, true, 2, true
	}
	return 0, false, 0, false
}

// isLambdaStart reports whether the tokens at the current position begin a
// lambda expression: x => ..., or a parenthesized parameter list followed
// by =>.
func (p *Parser) isLambdaStart() bool {
	if p.isIdent(p.tok()) && p.isAt(1, "=>") {
		return true
	}
	if !p.is("(") {
		return false
	}
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.kind == tokEOF {
			return false
		}
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				nt := p.toks[i+1]
				return nt.kind == tokPunct && nt.text == "=>"
			}
		}
	}
	return false
}

func (p *Parser) parseLambda() syntax.Expr {
	start := p.pos
	var params []*syntax.LambdaParam
	if p.isIdent(p.tok()) {
		name, loc := p.expectIdent()
		params = append(params, &syntax.LambdaParam{Name: name, Source: loc})
	} else {
		p.expect("(")
		for !p.is(")") {
			params = append(params, p.parseLambdaParam())
			if !p.accept(",") {
				break
			}
		}
		p.expect(")")
	}
	p.expect("=>")
	body := p.parseExpr()
	return &syntax.Lambda{Params: params, Body: body, Source: p.span(start)}
}

func (p *Parser) parseLambdaParam() *syntax.LambdaParam {
	start := p.pos
	param := &syntax.LambdaParam{RefKind: p.parseRefKind()}
	if p.isIdent(p.tok()) && (p.isAt(1, ",") || p.isAt(1, ")")) {
		param.Name, _ = p.expectIdent()
		param.Source = p.span(start)
		return param
	}
	param.Type = p.parseType(true)
	param.Name, _ = p.expectIdent()
	param.Source = p.span(start)
	return param
}

func (p *Parser) parseRefKind() syntax.RefKind {
	switch {
	case p.accept("ref"):
		return syntax.RefRef
	case p.accept("out"):
		return syntax.RefOut
	case p.accept("in"):
		return syntax.RefIn
	}
	return syntax.RefNone
}

func (p *Parser) parseConditional() syntax.Expr {
	start := p.pos
	cond := p.parseCoalesce()
	if !p.is("?") {
		return cond
	}
	p.next()
	then := p.parseExpr()
	p.expect(":")
	els := p.parseExpr()
	return &syntax.Conditional{Cond: cond, Then: then, Else: els, Source: p.span(start)}
}

func (p *Parser) parseCoalesce() syntax.Expr {
	start := p.pos
	left := p.parseBinary(1)
	if !p.is("??") {
		return left
	}
	p.next()
	var right syntax.Expr
	if p.isLambdaStart() {
		right = p.parseLambda()
	} else {
		right = p.parseCoalesce()
	}
	return &syntax.Binary{Op: syntax.BinaryCoalesce, X: left, Y: right, Source: p.span(start)}
}

type binaryOpInfo struct {
	op   syntax.BinaryOp
	prec int
}

var binaryOps = map[string]binaryOpInfo{
	"||": {syntax.BinaryLogicalOr, 1},
	"&&": {syntax.BinaryLogicalAnd, 2},
	"|":  {syntax.BinaryOr, 3},
	"^":  {syntax.BinaryXor, 4},
	"&":  {syntax.BinaryAnd, 5},
	"==": {syntax.BinaryEq, 6},
	"!=": {syntax.BinaryNe, 6},
	"<":  {syntax.BinaryLt, 7},
	">":  {syntax.BinaryGt, 7},
	"<=": {syntax.BinaryLe, 7},
	">=": {syntax.BinaryGe, 7},
	"<<": {syntax.BinaryShl, 8},
	"+":  {syntax.BinaryAdd, 9},
	"-":  {syntax.BinarySub, 9},
	"*":  {syntax.BinaryMul, 10},
	"/":  {syntax.BinaryDiv, 10},
	"%":  {syntax.BinaryMod, 10},
}

const relationalPrec = 7

// binaryOp classifies the operator at the current position.  n is the
// number of tokens it spans; "is" and "as" report typeTest.
func (p *Parser) binaryOp() (info binaryOpInfo, n int, typeTest string, ok bool) {
	t := p.tok()
	if t.kind == tokIdent && !t.verbatim && (t.text == "is" || t.text == "as") {
		return binaryOpInfo{prec: relationalPrec}, 1, t.text, true
	}
	if t.kind != tokPunct {
		return info, 0, "", false
	}
	if t.text == ">" && p.adjacent(1) {
		if p.isAt(1, ">") {
			return binaryOpInfo{syntax.BinaryShr, 8}, 2, "", true
		}
		if p.isAt(1, ">=") {
			return info, 0, "", false
		}
	}
	info, ok = binaryOps[t.text]
	return info, 1, "", ok
}

func (p *Parser) parseBinary(minPrec int) syntax.Expr {
	start := p.pos
	left := p.parseUnary()
	for {
		info, n, typeTest, ok := p.binaryOp()
		if !ok || info.prec < minPrec {
			return left
		}
		p.pos += n
		if typeTest != "" {
			typ := p.parseType(false)
			if typeTest == "is" {
				left = &syntax.IsType{X: left, Type: typ, Source: p.span(start)}
			} else {
				left = &syntax.AsType{X: left, Type: typ, Source: p.span(start)}
			}
			continue
		}
		var right syntax.Expr
		if p.isLambdaStart() {
			right = p.parseLambda()
		} else {
			right = p.parseBinary(info.prec + 1)
		}
		left = &syntax.Binary{Op: info.op, X: left, Y: right, Source: p.span(start)}
	}
}

var prefixOps = map[string]syntax.UnaryOp{
	"+":  syntax.UnaryPlus,
	"-":  syntax.UnaryMinus,
	"!":  syntax.UnaryNot,
	"~":  syntax.UnaryComplement,
	"++": syntax.UnaryPreIncrement,
	"--": syntax.UnaryPreDecrement,
	"&":  syntax.UnaryAddressOf,
	"*":  syntax.UnaryDeref,
}

func (p *Parser) parseUnary() syntax.Expr {
	start := p.pos
	t := p.tok()
	if t.kind == tokPunct {
		if op, ok := prefixOps[t.text]; ok {
			p.next()
			x := p.parseUnary()
			return &syntax.Unary{Op: op, X: x, Source: p.span(start)}
		}
		if t.text == "(" {
			if cast := p.tryCast(); cast != nil {
				return cast
			}
		}
	}
	return p.parsePostfix(p.parsePrimary(), start)
}

// tryCast parses (T)x when the tokens after the closing parenthesis can
// only continue a cast.
func (p *Parser) tryCast() syntax.Expr {
	start := p.pos
	var typ syntax.Type
	ok := p.speculate(func() bool {
		p.expect("(")
		typ = p.parseType(true)
		p.expect(")")
		return p.castFollows(typ)
	})
	if !ok {
		return nil
	}
	x := p.parseUnary()
	return &syntax.Cast{Type: typ, X: x, Source: p.span(start)}
}

func (p *Parser) castFollows(typ syntax.Type) bool {
	t := p.tok()
	switch t.kind {
	case tokEOF:
		return false
	case tokInt, tokReal, tokString, tokChar:
		return true
	case tokIdent:
		if !t.verbatim && (t.text == "is" || t.text == "as") {
			return false
		}
		return true
	}
	switch t.text {
	case "~", "!", "(":
		return true
	}
	if isPredefined(typ) {
		switch t.text {
		case "-", "+", "&", "*", "++", "--":
			return true
		}
	}
	return false
}

func isPredefined(t syntax.Type) bool {
	switch t := t.(type) {
	case *syntax.PredefinedType:
		return true
	case *syntax.ArrayType:
		return isPredefined(t.Elem)
	case *syntax.PointerType:
		return isPredefined(t.Elem)
	case *syntax.NullableType:
		return isPredefined(t.Elem)
	}
	return false
}

func (p *Parser) parsePostfix(x syntax.Expr, start int) syntax.Expr {
	for {
		switch {
		case p.is("."):
			p.next()
			nameStart := p.pos
			name, _ := p.expectIdent()
			typeArgs := p.tryTypeArgs()
			x = &syntax.MemberAccess{
				X:        x,
				Name:     name,
				TypeArgs: typeArgs,
				NameLoc:  p.span(nameStart),
				Source:   p.span(start),
			}
		case p.is("("):
			args := p.parseArgs("(", ")")
			x = &syntax.Invocation{Fn: x, Args: args, Source: p.span(start)}
		case p.is("["):
			args := p.parseArgs("[", "]")
			x = &syntax.ElementAccess{X: x, Args: args, Source: p.span(start)}
		case p.is("++"):
			p.next()
			x = &syntax.Unary{Op: syntax.UnaryPostIncrement, X: x, Source: p.span(start)}
		case p.is("--"):
			p.next()
			x = &syntax.Unary{Op: syntax.UnaryPostDecrement, X: x, Source: p.span(start)}
		case p.is("?") && p.adjacent(1) && (p.isAt(1, ".") || p.isAt(1, "[")):
			p.next()
			whenStart := p.pos
			recv := &syntax.ImplicitReceiver{Source: p.locOf(p.pos)}
			var when syntax.Expr
			if p.accept(".") {
				nameStart := p.pos
				name, _ := p.expectIdent()
				typeArgs := p.tryTypeArgs()
				when = &syntax.MemberAccess{
					X:        recv,
					Name:     name,
					TypeArgs: typeArgs,
					NameLoc:  p.span(nameStart),
					Source:   p.span(whenStart),
				}
			} else {
				args := p.parseArgs("[", "]")
				when = &syntax.ElementAccess{X: recv, Args: args, Source: p.span(whenStart)}
			}
			when = p.parsePostfix(when, whenStart)
			return &syntax.ConditionalAccess{X: x, WhenNotNull: when, Source: p.span(start)}
		default:
			return x
		}
	}
}

func (p *Parser) parseArgs(open, close string) []*syntax.Argument {
	p.expect(open)
	var args []*syntax.Argument
	for !p.is(close) {
		arg := &syntax.Argument{}
		if p.isIdent(p.tok()) && p.isAt(1, ":") {
			arg.Name, arg.NameLoc = p.expectIdent()
			p.next()
		}
		arg.RefKind = p.parseRefKind()
		arg.Value = p.parseExpr()
		args = append(args, arg)
		if !p.accept(",") {
			break
		}
	}
	p.expect(close)
	return args
}

// typeArgFollow lists the tokens that may follow a type argument list in an
// expression; anything else means the < was a less-than operator.
var typeArgFollow = map[string]bool{
	"(": true, ")": true, "]": true, "}": true, ":": true, ";": true,
	",": true, ".": true, "?": true, "==": true, "!=": true, "|": true,
	"^": true, "&&": true, "||": true, "[": true,
}

func (p *Parser) tryTypeArgs() []syntax.Type {
	if !p.is("<") {
		return nil
	}
	var args []syntax.Type
	if !p.speculate(func() bool {
		args = p.parseTypeArgList()
		t := p.tok()
		return t.kind == tokEOF || (t.kind == tokPunct && typeArgFollow[t.text])
	}) {
		return nil
	}
	return args
}

func (p *Parser) parsePrimary() syntax.Expr {
	start := p.pos
	t := p.tok()
	switch t.kind {
	case tokInt:
		p.next()
		v, suffix, err := decodeInt(t.text)
		if err != nil {
			p.pos = start
			p.errorf("%v", err)
		}
		return &syntax.Literal{Kind: syntax.LitInt, Text: t.text, Value: v, Suffix: suffix, Source: p.span(start)}
	case tokReal:
		p.next()
		v, suffix, err := decodeReal(t.text)
		if err != nil {
			p.pos = start
			p.errorf("%v", err)
		}
		return &syntax.Literal{Kind: syntax.LitReal, Text: t.text, Value: v, Suffix: suffix, Source: p.span(start)}
	case tokString:
		p.next()
		v, err := decodeString(t.text)
		if err != nil {
			p.pos = start
			p.errorf("%v", err)
		}
		return &syntax.Literal{Kind: syntax.LitString, Text: t.text, Value: v, Source: p.span(start)}
	case tokChar:
		p.next()
		v, err := decodeChar(t.text)
		if err != nil {
			p.pos = start
			p.errorf("%v", err)
		}
		return &syntax.Literal{Kind: syntax.LitChar, Text: t.text, Value: v, Source: p.span(start)}
	case tokIdent:
		return p.parseIdentPrimary()
	case tokPunct:
		if t.text == "(" {
			p.next()
			x := p.parseExpr()
			p.expect(")")
			return &syntax.Paren{X: x, Source: p.span(start)}
		}
	}
	p.errorf("unexpected %s", p.describe(t))
	return nil
}

func (p *Parser) parseIdentPrimary() syntax.Expr {
	start := p.pos
	t := p.tok()
	if !t.verbatim {
		switch t.text {
		case "true":
			p.next()
			return &syntax.Literal{Kind: syntax.LitTrue, Text: t.text, Value: true, Source: p.span(start)}
		case "false":
			p.next()
			return &syntax.Literal{Kind: syntax.LitFalse, Text: t.text, Value: false, Source: p.span(start)}
		case "null":
			p.next()
			return &syntax.Literal{Kind: syntax.LitNull, Text: t.text, Source: p.span(start)}
		case "this":
			p.next()
			return &syntax.This{Source: p.span(start)}
		case "base":
			p.next()
			return &syntax.Base{Source: p.span(start)}
		case "new":
			return p.parseNew()
		case "typeof", "sizeof", "default":
			p.next()
			p.expect("(")
			typ := p.parseType(true)
			p.expect(")")
			switch t.text {
			case "typeof":
				return &syntax.TypeOf{Type: typ, Source: p.span(start)}
			case "sizeof":
				return &syntax.SizeOf{Type: typ, Source: p.span(start)}
			}
			return &syntax.Default{Type: typ, Source: p.span(start)}
		}
		if syntax.PredefinedKeywords[t.text] {
			p.next()
			return &syntax.PredefinedType{Keyword: t.text, Source: p.span(start)}
		}
		if reserved[t.text] {
			p.errorf("unexpected keyword '%s'", t.text)
		}
	}
	name, _ := p.expectIdent()
	if args := p.tryTypeArgs(); args != nil {
		return &syntax.GenericName{Name: name, TypeArgs: args, Source: p.span(start)}
	}
	return &syntax.Identifier{Name: name, Source: p.span(start)}
}

func (p *Parser) parseNew() syntax.Expr {
	start := p.pos
	p.expect("new")
	if p.is("{") {
		return p.parseAnonymousObject(start)
	}
	if p.is("[") {
		p.next()
		rank := 1
		for p.accept(",") {
			rank++
		}
		p.expect("]")
		init := p.parseArrayInit()
		return &syntax.ArrayCreation{Rank: rank, Init: init, HasInit: true, Source: p.span(start)}
	}
	typ := p.parseType(true)
	if arr, ok := typ.(*syntax.ArrayType); ok {
		// new int[] { ... }
		init := p.parseArrayInit()
		return &syntax.ArrayCreation{Elem: arr.Elem, Rank: arr.Rank, Init: init, HasInit: true, Source: p.span(start)}
	}
	if p.is("[") {
		sizeArgs := p.parseArgs("[", "]")
		sizes := make([]syntax.Expr, len(sizeArgs))
		for i, a := range sizeArgs {
			sizes[i] = a.Value
		}
		x := &syntax.ArrayCreation{Elem: typ, Rank: len(sizes), Sizes: sizes}
		if p.is("{") {
			x.Init = p.parseArrayInit()
			x.HasInit = true
		}
		x.Source = p.span(start)
		return x
	}
	if !p.is("(") {
		p.errorf("expected '(' or '[' after type in object creation")
	}
	args := p.parseArgs("(", ")")
	return &syntax.ObjectCreation{Type: typ, Args: args, Source: p.span(start)}
}

func (p *Parser) parseArrayInit() []syntax.Expr {
	p.expect("{")
	var elems []syntax.Expr
	for !p.is("}") {
		elems = append(elems, p.parseExpr())
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	return elems
}

func (p *Parser) parseAnonymousObject(start int) syntax.Expr {
	p.expect("{")
	var members []*syntax.AnonymousMember
	for !p.is("}") {
		m := &syntax.AnonymousMember{}
		if p.isIdent(p.tok()) && p.isAt(1, "=") {
			m.Name, m.NameLoc = p.expectIdent()
			p.next()
		}
		m.Value = p.parseExpr()
		members = append(members, m)
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	return &syntax.AnonymousObjectCreation{Members: members, Source: p.span(start)}
}
