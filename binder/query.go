// Copyright © 2024 The ELPS authors

package binder

import (
	"sync"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// Members of the anonymous pair standing for a transparent identifier.
const (
	pairFirst  = "Item1"
	pairSecond = "Item2"
)

// queryState is the translation state of one query body.  The lambda
// parameter for the current element is named param and carries the range
// variables in scope along the paths in vars.
type queryState struct {
	acc      bound.Expr
	param    string
	paramLoc syntax.Location
	vars     []rangeVarPath
	pending  []syntax.Clause
	terminal syntax.Clause
	// explicit is set while the current body starts with a from clause
	// naming the element type.
	explicit bool
}

var queryStatePool = sync.Pool{
	New: func() interface{} { return new(queryState) },
}

func newQueryState() *queryState {
	return queryStatePool.Get().(*queryState)
}

func (st *queryState) free() {
	*st = queryState{pending: st.pending[:0]}
	queryStatePool.Put(st)
}

// reset makes rv the only range variable.
func (st *queryState) reset(rv *symbols.RangeVariable, loc syntax.Location) {
	st.param = rv.Name()
	st.paramLoc = loc
	st.vars = []rangeVarPath{{sym: rv}}
}

// push stacks clauses so that they pop in source order.
func (st *queryState) push(clauses []syntax.Clause) {
	for i := len(clauses) - 1; i >= 0; i-- {
		st.pending = append(st.pending, clauses[i])
	}
}

func (st *queryState) pop() syntax.Clause {
	n := len(st.pending) - 1
	c := st.pending[n]
	st.pending[n] = nil
	st.pending = st.pending[:n]
	return c
}

// fusesSelect reports whether the clause just popped is the last one and
// the body ends with select, so that the clause's result selector can
// compute the projection directly.
func (st *queryState) fusesSelect() bool {
	_, ok := st.terminal.(*syntax.SelectClause)
	return ok && len(st.pending) == 0
}

// element returns the lambda parameter standing for the current element.
func (st *queryState) element() lambdaParam {
	vars := make([]rangeVarPath, len(st.vars))
	copy(vars, st.vars)
	return lambdaParam{name: st.param, loc: st.paramLoc, vars: vars}
}

// isRangeVariable reports whether x is a reference to the current element
// and nothing else.
func (st *queryState) isRangeVariable(x syntax.Expr) bool {
	id, ok := syntax.Unparen(x).(*syntax.Identifier)
	return ok && len(st.vars) == 1 && len(st.vars[0].path) == 0 && id.Name == st.param
}

// pair returns the projection combining the current element with value.
func (st *queryState) pair(value syntax.Expr, loc syntax.Location) syntax.Expr {
	return &syntax.AnonymousObjectCreation{
		Members: []*syntax.AnonymousMember{
			{Name: pairFirst, NameLoc: loc, Value: &syntax.Identifier{Name: st.param, Source: loc}},
			{Name: pairSecond, NameLoc: loc, Value: value},
		},
		Source: loc,
	}
}

// introduce replaces the current element with a transparent identifier
// pairing it with rv.
func (st *queryState) introduce(name string, rv *symbols.RangeVariable, loc syntax.Location) {
	vars := make([]rangeVarPath, 0, len(st.vars)+1)
	for _, v := range st.vars {
		path := append([]string{pairFirst}, v.path...)
		vars = append(vars, rangeVarPath{sym: v.sym, path: path})
	}
	vars = append(vars, rangeVarPath{sym: rv, path: []string{pairSecond}})
	st.param = name
	st.paramLoc = loc
	st.vars = vars
}

// bindQuery translates a query expression into calls to the query
// operators of its source.
func (b *Binder) bindQuery(x *syntax.Query) bound.Expr {
	end := b.trace("query", "from", x.Source)
	defer end()

	st := newQueryState()
	defer st.free()
	q := b.push(ScopeQuery, x)
	if !q.bindQuerySource(st, x.From) {
		return b.queryResult(x, st.acc)
	}
	body := x.Body
	for {
		q.bindQueryBody(st, body)
		cont := body.Continuation
		if cont == nil {
			return b.queryResult(x, st.acc)
		}
		// The continuation starts a new query whose only range variable
		// is the one named by into.
		q = b.push(ScopeQuery, cont)
		rv := symbols.NewRangeVariable(cont.Name, cont.NameLoc)
		q.recordDeclaration(cont.Name, rv, cont.NameLoc)
		st.reset(rv, cont.NameLoc)
		st.explicit = false
		st.acc = bound.New(&bound.QueryClause{Clause: cont, Value: st.acc, Definition: rv}, cont, st.acc.Type())
		body = cont.Body
	}
}

// queryResult returns the translation of x.  A translation with errors
// is wrapped in a bad expression for the whole query, keeping its type,
// so that it reads as the query that failed rather than its last clause.
func (b *Binder) queryResult(x *syntax.Query, acc bound.Expr) bound.Expr {
	if !acc.HasErrors() {
		return acc
	}
	return b.badTyped(x, acc.Type(), bound.NotAValue, nil, acc)
}

// bindQuerySource binds the initial from clause.  It returns false when
// the query cannot be translated at all.
func (b *Binder) bindQuerySource(st *queryState, from *syntax.FromClause) bool {
	src := b.bindValue(from.In, valueRValue)
	rv := symbols.NewRangeVariable(from.Name, from.NameLoc)
	b.recordDeclaration(from.Name, rv, from.NameLoc)
	st.reset(rv, from.NameLoc)
	switch t := src.Type(); {
	case src.HasErrors():
		st.acc = b.bad(from, bound.NotAValue, nil, src)
		return false
	case t == nil:
		b.report(diagnostic.QueryNoProvider, from.In.Loc(), typeString(src), "Select")
		st.acc = b.bad(from, bound.NotAValue, nil, b.bindToNothing(src))
		return false
	case symbols.IsDynamic(t):
		b.report(diagnostic.DynamicQuery, from.In.Loc())
		st.acc = b.bad(from, bound.NotAValue, nil, src)
		return false
	}
	var cast bound.Expr
	value := src
	if from.Type != nil {
		st.explicit = true
		elem := b.bindType(from.Type)
		cb, bag := b.clauseBinder()
		cast = cb.queryCall(st, from, "from", src, "Cast", []symbols.Type{elem})
		b.flushClause(bag, from, "from")
		value = cast
	}
	st.acc = bound.New(&bound.QueryClause{Clause: from, Value: value, Definition: rv, Cast: cast}, from, value.Type())
	return true
}

// bindQueryBody folds the clauses of body into st.acc, one at a time in
// source order, then the terminal select or group clause.
func (b *Binder) bindQueryBody(st *queryState, body *syntax.QueryBody) {
	st.push(body.Clauses)
	st.terminal = body.SelectOrGroup
	for len(st.pending) > 0 {
		switch c := st.pop().(type) {
		case *syntax.WhereClause:
			b.bindWhereClause(st, c)
		case *syntax.OrderByClause:
			b.bindOrderByClause(st, c)
		case *syntax.LetClause:
			b.bindLetClause(st, c)
		case *syntax.FromClause:
			if b.bindFromClause(st, c) {
				return
			}
		case *syntax.JoinClause:
			if b.bindJoinClause(st, c) {
				return
			}
		default:
			invariant("unexpected query clause %T", c)
		}
	}
	switch c := st.terminal.(type) {
	case *syntax.SelectClause:
		b.bindSelectClause(st, c)
	case *syntax.GroupClause:
		b.bindGroupClause(st, c)
	default:
		invariant("query body ends with %T", c)
	}
}

// queryLambda returns an unbound lambda for a query clause.  Diagnostics
// from its body go to b.
func (b *Binder) queryLambda(syn syntax.Node, body syntax.Expr, params ...lambdaParam) bound.Expr {
	st := &lambdaState{binder: b, syntax: syn, params: params, body: body, query: true}
	return bound.New(&bound.UnboundLambda{State: st}, syn, nil)
}

// declareRangeVariable declares a range variable introduced by a clause.
func (b *Binder) declareRangeVariable(name string, loc syntax.Location) (*symbols.RangeVariable, lambdaParam) {
	rv := symbols.NewRangeVariable(name, loc)
	b.recordDeclaration(name, rv, loc)
	return rv, lambdaParam{name: name, loc: loc, vars: []rangeVarPath{{sym: rv}}}
}

func (b *Binder) finishClause(st *queryState, c syntax.Clause, call bound.Expr, def *symbols.RangeVariable) {
	st.acc = bound.New(&bound.QueryClause{Clause: c, Value: call, Operation: call, Definition: def}, c, call.Type())
}

func (b *Binder) bindWhereClause(st *queryState, c *syntax.WhereClause) {
	cb, bag := b.clauseBinder()
	pred := cb.queryLambda(c, c.Cond, st.element())
	call := cb.queryCall(st, c, "where", st.acc, "Where", nil, pred)
	b.flushClause(bag, c, "where")
	b.finishClause(st, c, call, nil)
}

func (b *Binder) bindOrderByClause(st *queryState, c *syntax.OrderByClause) {
	for i, o := range c.Orderings {
		name := "OrderBy"
		if i > 0 {
			name = "ThenBy"
		}
		if o.Descending {
			name += "Descending"
		}
		cb, bag := b.clauseBinder()
		key := cb.queryLambda(o, o.Key, st.element())
		call := cb.queryCall(st, o, "orderby", st.acc, name, nil, key)
		b.flushClause(bag, o, "orderby")
		st.acc = bound.New(&bound.QueryClause{Clause: o, Value: call, Operation: call}, o, call.Type())
	}
	st.acc = bound.New(&bound.QueryClause{Clause: c, Value: st.acc}, c, st.acc.Type())
}

// bindLetClause translates let y = f to Select(x => new { x, y = f }).
func (b *Binder) bindLetClause(st *queryState, c *syntax.LetClause) {
	cb, bag := b.clauseBinder()
	elem := st.element()
	rv, _ := b.declareRangeVariable(c.Name, c.NameLoc)
	sel := cb.queryLambda(c, st.pair(c.Value, c.Source), elem)
	call := cb.queryCall(st, c, "let", st.acc, "Select", nil, sel)
	b.flushClause(bag, c, "let", c.Value.Loc())
	b.finishClause(st, c, call, rv)
	st.introduce(b.nextTransparent(), rv, c.Source)
}

// bindFromClause translates a from clause after the first to SelectMany.
// It returns true when the terminal select was fused into the call.
func (b *Binder) bindFromClause(st *queryState, c *syntax.FromClause) bool {
	cb, bag := b.clauseBinder()
	elem := st.element()
	coll := c.In
	if c.Type != nil {
		coll = &syntax.Invocation{
			Fn:     &syntax.MemberAccess{X: c.In, Name: "Cast", TypeArgs: []syntax.Type{c.Type}, NameLoc: c.Source, Source: c.Source},
			Source: c.Source,
		}
	}
	collSel := cb.queryLambda(c, coll, elem)
	rv, second := b.declareRangeVariable(c.Name, c.NameLoc)
	fused := st.fusesSelect()
	var result syntax.Expr
	if fused {
		result = st.terminal.(*syntax.SelectClause).Value
	} else {
		result = st.pair(&syntax.Identifier{Name: c.Name, Source: c.NameLoc}, c.Source)
	}
	resSel := cb.queryLambda(c, result, elem, second)
	call := cb.queryCall(st, c, "from", st.acc, "SelectMany", nil, collSel, resSel)
	b.flushClause(bag, c, "from")
	b.finishClause(st, c, call, rv)
	if fused {
		sel := st.terminal
		st.acc = bound.New(&bound.QueryClause{Clause: sel, Value: st.acc}, sel, st.acc.Type())
		return true
	}
	st.introduce(b.nextTransparent(), rv, c.Source)
	return false
}

// bindJoinClause translates join to Join, or to GroupJoin when the clause
// has into.  It returns true when the terminal select was fused into the
// call.
func (b *Binder) bindJoinClause(st *queryState, c *syntax.JoinClause) bool {
	cb, bag := b.clauseBinder()
	elem := st.element()
	inner := cb.bindValue(c.In, valueRValue)
	if c.Type != nil && !inner.HasErrors() {
		inner = cb.queryCall(st, c, "join", inner, "Cast", []symbols.Type{cb.bindType(c.Type)})
	}
	outerKey := cb.queryLambda(c, c.Left, elem)
	// The joined variable is only visible in its key selector and, without
	// into, in the result.
	joined, innerParam := b.declareRangeVariable(c.Name, c.NameLoc)
	innerKey := cb.queryLambda(c, c.Right, innerParam)
	name, def, second := "Join", joined, innerParam
	if c.Into != "" {
		name = "GroupJoin"
		def, second = b.declareRangeVariable(c.Into, c.IntoLoc)
	}
	fused := st.fusesSelect()
	var result syntax.Expr
	if fused {
		result = st.terminal.(*syntax.SelectClause).Value
	} else {
		result = st.pair(&syntax.Identifier{Name: def.Name(), Source: c.Source}, c.Source)
	}
	resSel := cb.queryLambda(c, result, elem, second)
	call := cb.queryCall(st, c, "join", st.acc, name, nil, inner, outerKey, innerKey, resSel)
	b.flushClause(bag, c, "join")
	b.finishClause(st, c, call, def)
	if fused {
		sel := st.terminal
		st.acc = bound.New(&bound.QueryClause{Clause: sel, Value: st.acc}, sel, st.acc.Type())
		return true
	}
	st.introduce(b.nextTransparent(), def, c.Source)
	return false
}

// bindSelectClause translates select v to Select(x => v).  Selecting the
// range variable itself adds no call: the degenerate query from x in e
// select x is e, and a select after other clauses ends at their last call.
// A bare from clause naming an element type still gets its Select.
func (b *Binder) bindSelectClause(st *queryState, c *syntax.SelectClause) {
	if st.isRangeVariable(c.Value) && !(st.explicit && isSourceClause(st.acc)) {
		st.acc = bound.New(&bound.QueryClause{Clause: c, Value: st.acc}, c, st.acc.Type())
		return
	}
	cb, bag := b.clauseBinder()
	sel := cb.queryLambda(c, c.Value, st.element())
	call := cb.queryCall(st, c, "select", st.acc, "Select", nil, sel)
	b.flushClause(bag, c, "select")
	b.finishClause(st, c, call, nil)
}

// isSourceClause reports whether acc is the untranslated source of the
// query, so that no clause other than the initial from precedes select.
func isSourceClause(acc bound.Expr) bool {
	qc, ok := acc.(*bound.QueryClause)
	if !ok {
		return false
	}
	switch qc.Clause.(type) {
	case *syntax.FromClause:
		return qc.Operation == nil
	case *syntax.QueryContinuation:
		return true
	}
	return false
}

// bindGroupClause translates group v by k to GroupBy(x => k, x => v), or
// to GroupBy(x => k) when v is the range variable.  The two-lambda call is
// kept as the unoptimized form of the one-lambda call.
func (b *Binder) bindGroupClause(st *queryState, c *syntax.GroupClause) {
	cb, bag := b.clauseBinder()
	key := cb.queryLambda(c, c.By, st.element())
	if !st.isRangeVariable(c.Value) {
		elem := cb.queryLambda(c, c.Value, st.element())
		call := cb.queryCall(st, c, "group", st.acc, "GroupBy", nil, key, elem)
		b.flushClause(bag, c, "group")
		b.finishClause(st, c, call, nil)
		return
	}
	call := cb.queryCall(st, c, "group", st.acc, "GroupBy", nil, key)
	b.flushClause(bag, c, "group")

	scratch := diagnostic.NewBag()
	sb := b.speculative(scratch)
	ukey := sb.queryLambda(c, c.By, st.element())
	uelem := sb.queryLambda(c, c.Value, st.element())
	unopt := sb.queryCall(st, c, "group", st.acc, "GroupBy", nil, ukey, uelem)
	st.acc = bound.New(&bound.QueryClause{Clause: c, Value: call, Operation: call, UnoptimizedForm: unopt}, c, call.Type())
}

// clauseBinder returns a binder whose diagnostics are held back so that
// flushClause can phrase failures of the query pattern in terms of the
// clause.
func (b *Binder) clauseBinder() (*Binder, *diagnostic.Bag) {
	bag := diagnostic.NewBag()
	return b.withDiagnostics(bag), bag
}

// queryCall binds recv.name<typeArgs>(args) for clause c the way an
// ordinary invocation is bound, member lookup and extension methods
// included.
func (b *Binder) queryCall(st *queryState, c syntax.Node, keyword string, recv bound.Expr, name string, typeArgs []symbols.Type, args ...bound.Expr) bound.Expr {
	loc := locOf(c)
	end := b.trace("query", keyword, loc)
	defer end()

	aa := newArguments()
	defer aa.Free()
	for _, a := range args {
		aa.Add(a, "", syntax.Location{}, syntax.RefNone)
	}
	if recv.HasErrors() || symbols.IsErrorType(recv.Type()) {
		return b.bad(c, bound.NotAValue, nil, append([]bound.Expr{recv}, b.badArguments(aa)...)...)
	}
	ma := &syntax.MemberAccess{Name: name, NameLoc: loc, Source: loc}
	fn := b.bindMember(ma, recv, typeArgs, loc, true)
	g, ok := fn.(*bound.MethodGroup)
	if !ok {
		if !fn.HasErrors() {
			b.report(diagnostic.NonInvocableMember, loc, name)
		}
		return b.bad(c, bound.NotAValue, nil, append([]bound.Expr{fn}, b.badArguments(aa)...)...)
	}
	call := b.bindMethodGroupInvocation(c, g, aa)
	if bad, ok := call.(*bound.BadExpression); ok && len(bad.Symbols) == 0 && bad.ResultKind == bound.Empty {
		b.diags.Add(b.missingOperator(st, recv, name, loc))
	}
	return call
}

// missingOperator describes a query operator not found on recv.
func (b *Binder) missingOperator(st *queryState, recv bound.Expr, name string, loc syntax.Location) diagnostic.Diagnostic {
	src := recv.Type()
	if st != nil && !st.explicit && len(st.vars) == 1 {
		if ie := b.special(symbols.SpecialIEnumerable); ie != nil && b.conv().ClassifyImplicit(src, ie).IsImplicit() {
			return diagnostic.New(diagnostic.QueryNoProviderCast, loc, src, name, st.param)
		}
	}
	if b.hasExtensionMethods(name) {
		return diagnostic.New(diagnostic.QueryOperatorNotFound, loc, src, name)
	}
	return diagnostic.New(diagnostic.QueryNoProvider, loc, src, name)
}

// flushClause moves the diagnostics held back for clause c to b.
// Diagnostics at the clause itself are about the synthesized call and
// are restated in terms of the clause; the ordinary lookup failure is
// dropped in favor of the query pattern diagnostic.  A bad projection
// at one of the values locs is a malformed clause expression.
func (b *Binder) flushClause(bag *diagnostic.Bag, c syntax.Node, keyword string, values ...syntax.Location) {
	loc := locOf(c)
	query := false
	for _, d := range bag.Diagnostics() {
		if d.Code.Family() == diagnostic.FamilyQueryOperator {
			query = true
		}
	}
	for _, d := range bag.Diagnostics() {
		switch {
		case d.Location == loc && query && (d.Code == diagnostic.MemberNotFound || d.Code == diagnostic.ExtensionNotFound || d.Code == diagnostic.NameNotFound):
			continue
		case d.Location == loc && d.Code == diagnostic.CannotInferTypeArgs:
			code := diagnostic.QueryClauseInference
			if keyword == "join" {
				code = diagnostic.QueryJoinKeyInference
			}
			d = diagnostic.New(code, loc, keyword, methodName(d.Args))
		case d.Location == loc && d.Code == diagnostic.BadArguments:
			d = diagnostic.New(diagnostic.QueryLambdaConversion, loc, keyword, methodName(d.Args))
		case d.Code == diagnostic.AnonymousBadValue && containsLoc(values, d.Location):
			d = diagnostic.New(diagnostic.QueryVoidProjection, d.Location, keyword)
		}
		b.diags.Add(d)
	}
}

func methodName(args []interface{}) string {
	if len(args) == 0 {
		return ""
	}
	if m, ok := args[0].(*symbols.Method); ok {
		return m.Name()
	}
	return ""
}

func containsLoc(locs []syntax.Location, loc syntax.Location) bool {
	for _, l := range locs {
		if l == loc {
			return true
		}
	}
	return false
}
