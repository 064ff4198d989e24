// Copyright © 2024 The ELPS authors

package binder

import (
	"strings"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// lambdaParam is a parameter of a lambda still waiting for a delegate
// type.
type lambdaParam struct {
	name    string
	loc     syntax.Location
	typ     syntax.Type
	refKind syntax.RefKind
	// vars are the range variables reached through the parameter of a
	// lambda synthesized for a query clause.
	vars []rangeVarPath
}

// rangeVarPath locates a range variable inside a query lambda parameter:
// the chain of anonymous type members leading to it.  An empty path means
// the parameter is the range variable.
type rangeVarPath struct {
	sym  *symbols.RangeVariable
	path []string
}

// lambdaState is the state of an unbound lambda.  The body is bound once
// per candidate delegate type during overload resolution, and once more for
// real against the delegate type finally chosen.
type lambdaState struct {
	binder   *Binder
	syntax   syntax.Node
	params   []lambdaParam
	body     syntax.Expr
	query    bool
	explicit []symbols.Type
	attempts map[string]*lambdaAttempt
}

type lambdaAttempt struct {
	lambda *bound.Lambda
	body   bound.Expr
	diags  *diagnostic.Bag
}

var _ bound.LambdaState = (*lambdaState)(nil)

// ParameterNames implements bound.LambdaState.
func (s *lambdaState) ParameterNames() []string {
	names := make([]string, len(s.params))
	for i, p := range s.params {
		names[i] = p.name
	}
	return names
}

func (s *lambdaState) hasExplicitTypes() bool { return s.explicit != nil }

func (b *Binder) bindLambda(x *syntax.Lambda) bound.Expr {
	st := &lambdaState{binder: b, syntax: x, body: x.Body}
	for _, p := range x.Params {
		st.params = append(st.params, lambdaParam{name: p.Name, loc: p.Source, typ: p.Type, refKind: p.RefKind})
	}
	if x.HasExplicitTypes() {
		st.explicit = make([]symbols.Type, len(x.Params))
		for i, p := range x.Params {
			st.explicit[i] = b.bindType(p.Type)
		}
	}
	return bound.New(&bound.UnboundLambda{State: st}, x, nil)
}

// parameterTypes returns the parameter types the lambda takes when
// converted to a delegate whose Invoke method is invoke.
func (s *lambdaState) parameterTypes(invoke *symbols.Method) []symbols.Type {
	if s.explicit != nil {
		return s.explicit
	}
	types := make([]symbols.Type, len(invoke.Parameters()))
	for i, p := range invoke.Parameters() {
		types[i] = p.Type()
	}
	return types
}

// shapeMatches reports whether the parameter list fits the delegate's.
func (s *lambdaState) shapeMatches(invoke *symbols.Method) bool {
	ps := invoke.Parameters()
	if len(ps) != len(s.params) {
		return false
	}
	for i, p := range ps {
		if p.RefKind() != s.params[i].refKind {
			return false
		}
		if s.explicit != nil && !symbols.Identical(s.explicit[i], p.Type()) {
			return false
		}
	}
	return true
}

// convertible reports whether the lambda converts to delegate type d.
func (s *lambdaState) convertible(d symbols.Type) bool {
	invoke := symbols.DelegateInvoke(d)
	if invoke == nil || !s.shapeMatches(invoke) {
		return false
	}
	if invoke.IsVoid() && !isStatementExpression(s.body) {
		return false
	}
	att := s.attempt(s.parameterTypes(invoke), invoke.ReturnType(), d)
	return !att.diags.HasErrors() && !att.lambda.HasErrors()
}

// inferReturnType returns the type of the body when the parameters have
// the given types, or nil when the body has no type.
func (s *lambdaState) inferReturnType(types []symbols.Type) symbols.Type {
	if len(types) != len(s.params) {
		return nil
	}
	if s.explicit != nil {
		types = s.explicit
	}
	att := s.attempt(types, nil, nil)
	return att.body.Type()
}

func attemptKey(types []symbols.Type, ret symbols.Type) string {
	var key strings.Builder
	for _, t := range types {
		key.WriteString(symbols.TypeKey(t))
		key.WriteByte(',')
	}
	key.WriteString("->")
	if ret != nil {
		key.WriteString(symbols.TypeKey(ret))
	} else {
		key.WriteString("?")
	}
	return key.String()
}

// attempt binds the body speculatively.  Attempts are cached by parameter
// and return types so that overload resolution binds each shape once.
func (s *lambdaState) attempt(types []symbols.Type, ret, d symbols.Type) *lambdaAttempt {
	key := attemptKey(types, ret)
	if att, ok := s.attempts[key]; ok {
		return att
	}
	bag := diagnostic.NewBag()
	lambda, body := s.bindBody(s.binder.speculative(bag), types, ret, d)
	att := &lambdaAttempt{lambda: lambda, body: body, diags: bag}
	if s.attempts == nil {
		s.attempts = make(map[string]*lambdaAttempt)
	}
	s.attempts[key] = att
	return att
}

// bindTo binds the lambda for real against delegate type d, reporting to
// the binder the lambda was created in.
func (s *lambdaState) bindTo(d symbols.Type, loc syntax.Location) bound.Expr {
	b := s.binder
	invoke := symbols.DelegateInvoke(d)
	if invoke == nil {
		if !symbols.IsErrorType(d) {
			b.report(diagnostic.LambdaNotDelegate, loc, d)
		}
		return s.bindWithErrorTypes()
	}
	if len(invoke.Parameters()) != len(s.params) {
		b.report(diagnostic.LambdaArity, loc, d, len(s.params))
		return s.bindWithErrorTypes()
	}
	if !s.shapeMatches(invoke) {
		b.report(diagnostic.LambdaParameterTypes, loc, d)
		return s.bindWithErrorTypes()
	}
	lambda, _ := s.bindBody(b, s.parameterTypes(invoke), invoke.ReturnType(), d)
	return lambda
}

// bindWithErrorTypes binds the body with every implicitly typed parameter
// of an error type, so that the body is still checked when the lambda
// cannot be converted.
func (s *lambdaState) bindWithErrorTypes() bound.Expr {
	types := s.explicit
	if types == nil {
		types = make([]symbols.Type, len(s.params))
		for i := range types {
			types[i] = symbols.Error
		}
	}
	lambda, _ := s.bindBody(s.binder, types, nil, nil)
	return bound.WithErrors[bound.Lambda](lambda)
}

// bindBody binds the body in a new lambda scope.  A nil ret leaves the body
// unconverted; a nil d types the lambda as an error.
func (s *lambdaState) bindBody(b *Binder, types []symbols.Type, ret, d symbols.Type) (*bound.Lambda, bound.Expr) {
	inner := b.push(ScopeLambda, s.syntax)
	params := make([]*symbols.Parameter, len(s.params))
	for i, p := range s.params {
		params[i] = symbols.NewParameter(p.name, types[i], symbols.ParameterOptions{RefKind: p.refKind, Location: p.loc})
	}
	symRet := ret
	if symRet == nil {
		symRet = symbols.Error
	}
	sym := symbols.NewMethod("lambda", nil, params, symRet, symbols.MethodOptions{
		MemberOptions: symbols.MemberOptions{Location: locOf(s.syntax)},
		Kind:          symbols.MethodLambda,
	})
	for i, p := range s.params {
		if len(p.vars) == 0 || strings.HasPrefix(p.name, "<") {
			inner.arena().declare(inner.scope, params[i])
			if !s.query {
				inner.recordDeclaration(p.name, params[i], p.loc)
			}
		}
		for _, v := range p.vars {
			inner.arena().declare(inner.scope, v.sym)
			inner.arena().setRangeValue(inner.scope, v.sym, inner.rangeAccess(params[i], v.path, s.syntax))
		}
	}
	body := inner.bindValue(s.body, valueStatement)
	if ret != nil {
		body = inner.lambdaReturn(s, body, ret, d)
	}
	typ := d
	if typ == nil {
		typ = symbols.Error
	}
	return bound.New(&bound.Lambda{Symbol: sym, Body: body}, s.syntax, typ), body
}

// lambdaReturn converts a lambda body to the delegate's return type.
func (b *Binder) lambdaReturn(s *lambdaState, body bound.Expr, ret, d symbols.Type) bound.Expr {
	if symbols.IsVoid(ret) {
		if !isStatementExpression(s.body) && !body.HasErrors() {
			b.report(diagnostic.LambdaReturnType, s.body.Loc(), d, ret)
			return b.badTyped(s.body, body.Type(), bound.NotAValue, nil, body)
		}
		return body
	}
	return b.convertImplicit(body, ret)
}

// rangeAccess builds the access path from a query lambda parameter to one
// of the range variables it carries.
func (b *Binder) rangeAccess(p *symbols.Parameter, path []string, syn syntax.Node) bound.Expr {
	var e bound.Expr = bound.New(&bound.Parameter{Symbol: p}, syn, p.Type())
	for _, name := range path {
		var prop *symbols.Property
		for _, m := range b.table().LookupMembers(e.Type(), name) {
			if pr, ok := m.(*symbols.Property); ok {
				prop = pr
				break
			}
		}
		if prop == nil {
			return b.bad(syn, bound.NotAValue, nil, e)
		}
		e = bound.New(&bound.PropertyAccess{Receiver: e, Property: prop}, syn, prop.Type())
	}
	return e
}

// isStatementExpression reports whether x may stand alone as the body of
// a lambda returning void.
func isStatementExpression(x syntax.Expr) bool {
	switch x := x.(type) {
	case *syntax.Invocation, *syntax.Assignment, *syntax.ObjectCreation:
		return true
	case *syntax.Unary:
		switch x.Op {
		case syntax.UnaryPreIncrement, syntax.UnaryPreDecrement, syntax.UnaryPostIncrement, syntax.UnaryPostDecrement:
			return true
		}
	case *syntax.ConditionalAccess:
		return isStatementExpression(x.WhenNotNull)
	}
	return false
}
