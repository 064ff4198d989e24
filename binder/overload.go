// Copyright © 2024 The ELPS authors

package binder

import (
	"sort"
	"strings"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/conversion"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// candidate is a member taking part in overload resolution: a method,
// constructor or indexer.
type candidate struct {
	member symbols.Symbol
	method *symbols.Method
	params []*symbols.Parameter
	key    string
}

func methodCandidates(ms []*symbols.Method) []candidate {
	out := make([]candidate, len(ms))
	for i, m := range ms {
		out[i] = candidate{member: m, method: m, params: m.Parameters(), key: candidateKey(m, m.ContainingType(), m.Parameters())}
	}
	return out
}

func indexerCandidates(ps []*symbols.Property) []candidate {
	out := make([]candidate, len(ps))
	for i, p := range ps {
		out[i] = candidate{member: p, params: p.Parameters(), key: candidateKey(p, p.ContainingType(), p.Parameters())}
	}
	return out
}

// candidateKey orders candidates independently of the order in which
// lookup produced them.
func candidateKey(sym symbols.Symbol, container *symbols.NamedType, params []*symbols.Parameter) string {
	var key strings.Builder
	if container != nil {
		key.WriteString(container.QualifiedName())
	}
	key.WriteByte('|')
	key.WriteString(sym.String())
	for _, p := range params {
		key.WriteByte('|')
		key.WriteString(symbols.TypeKey(p.Type()))
	}
	return key.String()
}

func (c candidate) hasParamsArray() bool {
	if len(c.params) == 0 {
		return false
	}
	last := c.params[len(c.params)-1]
	_, isArray := last.Type().(*symbols.ArrayType)
	return last.IsParams() && isArray
}

// failureKind says why a candidate is not applicable.  Later kinds got
// further through the applicability check.
type failureKind int

const (
	failArgCount failureKind = iota
	failNames
	failInference
	failLambdaShape
	failArgument
	failNone
)

// MemberAnalysis is the applicability analysis of one candidate.
type MemberAnalysis struct {
	Member symbols.Symbol
	// Method is the method to call, constructed when type arguments were
	// written or inferred.  It is nil for indexers.
	Method *symbols.Method
	Params []*symbols.Parameter
	// ParamTypes holds the type each argument is converted to, the
	// element type for arguments gathered into an expanded params array.
	ParamTypes   []symbols.Type
	ArgsToParams []int
	Expanded     bool
	Conversions  []conversion.Conversion
	DefaultsUsed int
	Failure      failureKind
	BadArgument  int

	key string
}

// Applicable reports whether the candidate can be called with the
// arguments.
func (m *MemberAnalysis) Applicable() bool { return m.Failure == failNone }

// argsToParams returns the mapping to store in a bound node, nil when
// every argument maps to the parameter at its own position.
func (m *MemberAnalysis) argsToParams() []int {
	for i, p := range m.ArgsToParams {
		if p != i {
			return append([]int(nil), m.ArgsToParams...)
		}
	}
	return nil
}

// OverloadResult is the outcome of overload resolution.  Kind is Viable
// with Best set, Ambiguous with the two best candidates in Ambiguous,
// OverloadResolutionFailure when no candidate applies or Empty when there
// were no candidates.
type OverloadResult struct {
	Kind       bound.ResultKind
	Best       *MemberAnalysis
	Ambiguous  []*MemberAnalysis
	Applicable []*MemberAnalysis
	Candidates []*MemberAnalysis
}

// bestFailure returns the candidate that got furthest, the first in
// candidate order on a tie.
func (r *OverloadResult) bestFailure() *MemberAnalysis {
	var best *MemberAnalysis
	for _, c := range r.Candidates {
		if best == nil || c.Failure > best.Failure {
			best = c
		}
	}
	return best
}

func (r *OverloadResult) candidateSymbols() []symbols.Symbol {
	out := make([]symbols.Symbol, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.Member
	}
	return out
}

func (r *OverloadResult) applicableMethods() []*symbols.Method {
	var out []*symbols.Method
	for _, c := range r.Applicable {
		if c.Method != nil {
			out = append(out, c.Method)
		}
	}
	return out
}

// resolve picks the best of cands for args.  Candidates are put in a
// canonical order first so that the result does not depend on lookup
// order.
func (b *Binder) resolve(cands []candidate, typeArgs []symbols.Type, args *AnalyzedArguments) *OverloadResult {
	res := &OverloadResult{Kind: bound.Empty}
	if len(cands) == 0 {
		return res
	}
	sorted := append([]candidate(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].key < sorted[j].key })
	for _, c := range sorted {
		ma := b.analyze(c, typeArgs, args)
		res.Candidates = append(res.Candidates, ma)
		if ma.Applicable() {
			res.Applicable = append(res.Applicable, ma)
		}
	}
	switch len(res.Applicable) {
	case 0:
		res.Kind = bound.OverloadResolutionFailure
		return res
	case 1:
		res.Kind = bound.Viable
		res.Best = res.Applicable[0]
		return res
	}
	best, tied := b.pickBest(res.Applicable, args)
	if best != nil {
		res.Kind = bound.Viable
		res.Best = best
		return res
	}
	res.Kind = bound.Ambiguous
	res.Ambiguous = tied
	return res
}

// analyze checks c in its normal form and, when that fails and c has a
// params array, in its expanded form.
func (b *Binder) analyze(c candidate, typeArgs []symbols.Type, args *AnalyzedArguments) *MemberAnalysis {
	normal := b.analyzeForm(c, typeArgs, args, false)
	if normal.Applicable() || !c.hasParamsArray() {
		return normal
	}
	expanded := b.analyzeForm(c, typeArgs, args, true)
	if expanded.Applicable() || expanded.Failure > normal.Failure {
		return expanded
	}
	return normal
}

func (b *Binder) analyzeForm(c candidate, typeArgs []symbols.Type, args *AnalyzedArguments, expanded bool) *MemberAnalysis {
	ma := &MemberAnalysis{
		Member:      c.member,
		Method:      c.method,
		Params:      c.params,
		Expanded:    expanded,
		BadArgument: -1,
		key:         c.key,
	}
	argsToParams, fail, bad := mapArguments(c.params, args, expanded)
	if fail != failNone {
		ma.Failure = fail
		ma.BadArgument = bad
		return ma
	}
	ma.ArgsToParams = argsToParams
	ma.DefaultsUsed = defaultsUsed(c.params, argsToParams, expanded)

	params := c.params
	if m := c.method; m != nil && m.IsGeneric() && !m.IsConstructed() {
		targs := typeArgs
		if len(targs) == 0 {
			inferred, ok := b.inferTypeArguments(m, args, argsToParams, expanded)
			if !ok {
				ma.Failure = failInference
				return ma
			}
			targs = inferred
		} else if len(targs) != m.Arity() {
			ma.Failure = failInference
			return ma
		}
		ma.Method = m.Construct(targs)
		params = ma.Method.Parameters()
		ma.Params = params
	}

	n := args.Len()
	ma.ParamTypes = make([]symbols.Type, n)
	ma.Conversions = make([]conversion.Conversion, n)
	last := len(params) - 1
	for i, arg := range args.Args {
		j := argsToParams[i]
		p := params[j]
		pt := p.Type()
		prk := p.RefKind()
		if expanded && j == last {
			pt = pt.(*symbols.ArrayType).Elem
			prk = syntax.RefNone
		}
		ma.ParamTypes[i] = pt
		rk := args.RefKind(i)
		if rk != prk && !(prk == syntax.RefIn && rk == syntax.RefNone) {
			ma.Failure = failArgument
			ma.BadArgument = i
			return ma
		}
		var conv conversion.Conversion
		if rk == syntax.RefRef || rk == syntax.RefOut {
			if arg.Type() != nil && b.conv().IdentityConvertible(arg.Type(), pt) {
				conv = conversion.Of(conversion.Identity)
			}
		} else {
			conv = b.classify(arg, pt)
		}
		if !conv.IsImplicit() {
			ma.Failure = failArgument
			if lam, ok := arg.(*bound.UnboundLambda); ok {
				if inv := symbols.DelegateInvoke(pt); inv == nil || !lam.State.(*lambdaState).shapeMatches(inv) {
					ma.Failure = failLambdaShape
				}
			}
			ma.BadArgument = i
			return ma
		}
		if args.IsExtensionMethodInvocation && i == 0 && !isReceiverConversion(conv) {
			ma.Failure = failArgument
			ma.BadArgument = i
			return ma
		}
		ma.Conversions[i] = conv
	}
	ma.Failure = failNone
	return ma
}

// isReceiverConversion reports whether conv may carry the receiver of an
// extension method call to its first parameter.
func isReceiverConversion(conv conversion.Conversion) bool {
	switch conv.Kind {
	case conversion.Identity, conversion.ImplicitReference, conversion.Boxing:
		return true
	}
	return false
}

// mapArguments maps each argument to a parameter: positional arguments
// by position, named arguments by name.  In the expanded form every
// positional argument past the last fixed parameter goes to the params
// array.  Parameters without an argument must be optional.
func mapArguments(params []*symbols.Parameter, args *AnalyzedArguments, expanded bool) ([]int, failureKind, int) {
	n := len(params)
	out := make([]int, args.Len())
	used := make([]bool, n)
	for i := range args.Args {
		name := args.Name(i)
		if name == "" {
			j := i
			switch {
			case expanded && j >= n-1:
				j = n - 1
			case j >= n:
				return nil, failArgCount, i
			}
			out[i] = j
			used[j] = true
			continue
		}
		j := -1
		for k, p := range params {
			if p.Name() == name {
				j = k
				break
			}
		}
		if j < 0 || used[j] || (expanded && j == n-1) {
			return nil, failNames, i
		}
		out[i] = j
		used[j] = true
	}
	for j, p := range params {
		if used[j] || p.IsOptional() || (expanded && j == n-1) {
			continue
		}
		return nil, failArgCount, -1
	}
	return out, failNone, -1
}

func defaultsUsed(params []*symbols.Parameter, argsToParams []int, expanded bool) int {
	used := make([]bool, len(params))
	for _, j := range argsToParams {
		used[j] = true
	}
	n := 0
	for j, p := range params {
		if !used[j] && p.IsOptional() && !(expanded && j == len(params)-1) {
			n++
		}
	}
	return n
}

// pickBest returns the applicable candidate better than every other one.
// When there is none it returns the first two candidates that no other
// candidate beats.
func (b *Binder) pickBest(app []*MemberAnalysis, args *AnalyzedArguments) (*MemberAnalysis, []*MemberAnalysis) {
	for _, x := range app {
		wins := true
		for _, y := range app {
			if x != y && b.better(x, y, args) != conversion.Left {
				wins = false
				break
			}
		}
		if wins {
			return x, nil
		}
	}
	var undominated []*MemberAnalysis
	for _, x := range app {
		dominated := false
		for _, y := range app {
			if x != y && b.better(y, x, args) == conversion.Left {
				dominated = true
				break
			}
		}
		if !dominated {
			undominated = append(undominated, x)
		}
	}
	if len(undominated) < 2 {
		undominated = app
	}
	return nil, undominated[:2]
}

// better compares two applicable candidates argument by argument, then by
// the tie-breaking rules.
func (b *Binder) better(x, y *MemberAnalysis, args *AnalyzedArguments) conversion.Betterness {
	xBetter, yBetter := false, false
	for i, arg := range args.Args {
		switch b.betterConversionFromExpression(arg, x.ParamTypes[i], y.ParamTypes[i]) {
		case conversion.Left:
			xBetter = true
		case conversion.Right:
			yBetter = true
		}
	}
	switch {
	case xBetter && !yBetter:
		return conversion.Left
	case yBetter && !xBetter:
		return conversion.Right
	case xBetter && yBetter:
		return conversion.Neither
	}
	for i := range args.Args {
		if !b.conv().IdentityConvertible(x.ParamTypes[i], y.ParamTypes[i]) {
			return conversion.Neither
		}
	}
	xg, yg := isGenericCandidate(x), isGenericCandidate(y)
	switch {
	case !xg && yg:
		return conversion.Left
	case xg && !yg:
		return conversion.Right
	}
	switch {
	case !x.Expanded && y.Expanded:
		return conversion.Left
	case x.Expanded && !y.Expanded:
		return conversion.Right
	}
	switch {
	case x.DefaultsUsed == 0 && y.DefaultsUsed > 0:
		return conversion.Left
	case y.DefaultsUsed == 0 && x.DefaultsUsed > 0:
		return conversion.Right
	}
	return b.moreSpecific(x, y, args)
}

func isGenericCandidate(m *MemberAnalysis) bool {
	return m.Method != nil && m.Method.IsGeneric()
}

// betterConversionFromExpression compares converting e to t1 with
// converting it to t2.
func (b *Binder) betterConversionFromExpression(e bound.Expr, t1, t2 symbols.Type) conversion.Betterness {
	if b.conv().IdentityConvertible(t1, t2) {
		return conversion.Neither
	}
	if lam, ok := e.(*bound.UnboundLambda); ok {
		inv1, inv2 := symbols.DelegateInvoke(t1), symbols.DelegateInvoke(t2)
		if inv1 == nil || inv2 == nil || !sameParameterTypes(inv1, inv2) {
			return conversion.Neither
		}
		r1, r2 := inv1.ReturnType(), inv2.ReturnType()
		st := lam.State.(*lambdaState)
		if inferred := st.inferReturnType(st.parameterTypes(inv1)); inferred != nil && !symbols.IsErrorType(inferred) {
			id1, id2 := symbols.Identical(inferred, r1), symbols.Identical(inferred, r2)
			switch {
			case id1 && !id2:
				return conversion.Left
			case id2 && !id1:
				return conversion.Right
			}
		}
		switch {
		case symbols.IsVoid(r1) && !symbols.IsVoid(r2):
			return conversion.Right
		case symbols.IsVoid(r2) && !symbols.IsVoid(r1):
			return conversion.Left
		}
		return b.conv().BetterTarget(r1, r2)
	}
	if t := e.Type(); t != nil {
		id1, id2 := symbols.Identical(t, t1), symbols.Identical(t, t2)
		switch {
		case id1 && !id2:
			return conversion.Left
		case id2 && !id1:
			return conversion.Right
		}
	}
	return b.conv().BetterTarget(t1, t2)
}

func sameParameterTypes(a, c *symbols.Method) bool {
	pa, pc := a.Parameters(), c.Parameters()
	if len(pa) != len(pc) {
		return false
	}
	for i := range pa {
		if !symbols.Identical(pa[i].Type(), pc[i].Type()) || pa[i].RefKind() != pc[i].RefKind() {
			return false
		}
	}
	return true
}

// moreSpecific compares the declared parameter types of two candidates
// whose instantiated parameter types are identical.  A type parameter is
// less specific than any other type.
func (b *Binder) moreSpecific(x, y *MemberAnalysis, args *AnalyzedArguments) conversion.Betterness {
	xd, yd := declaredParams(x), declaredParams(y)
	if xd == nil || yd == nil {
		return conversion.Neither
	}
	xMore, yMore := false, false
	for i := range args.Args {
		px, py := xd[x.ArgsToParams[i]].Type(), yd[y.ArgsToParams[i]].Type()
		switch typeSpecificity(px, py) {
		case conversion.Left:
			xMore = true
		case conversion.Right:
			yMore = true
		}
	}
	switch {
	case xMore && !yMore:
		return conversion.Left
	case yMore && !xMore:
		return conversion.Right
	}
	return conversion.Neither
}

func declaredParams(m *MemberAnalysis) []*symbols.Parameter {
	if m.Method != nil {
		return m.Method.OriginalDefinition().Parameters()
	}
	if p, ok := m.Member.(*symbols.Property); ok {
		return p.OriginalDefinition().Parameters()
	}
	return nil
}

func typeSpecificity(a, c symbols.Type) conversion.Betterness {
	_, aParam := a.(*symbols.TypeParameter)
	_, cParam := c.(*symbols.TypeParameter)
	switch {
	case aParam && !cParam:
		return conversion.Right
	case cParam && !aParam:
		return conversion.Left
	case aParam && cParam:
		return conversion.Neither
	}
	switch at := a.(type) {
	case *symbols.ArrayType:
		if ct, ok := c.(*symbols.ArrayType); ok {
			return typeSpecificity(at.Elem, ct.Elem)
		}
	case *symbols.NamedType:
		ct, ok := c.(*symbols.NamedType)
		if !ok || at.OriginalDefinition() != ct.OriginalDefinition() {
			return conversion.Neither
		}
		aMore, cMore := false, false
		aa, ca := at.TypeArguments(), ct.TypeArguments()
		for i := range aa {
			switch typeSpecificity(aa[i], ca[i]) {
			case conversion.Left:
				aMore = true
			case conversion.Right:
				cMore = true
			}
		}
		switch {
		case aMore && !cMore:
			return conversion.Left
		case cMore && !aMore:
			return conversion.Right
		}
	}
	return conversion.Neither
}

// reportOverloadFailure reports why resolution failed and returns the
// erroneous node standing for the call.  children are kept beneath it
// before the arguments.
func (b *Binder) reportOverloadFailure(syn syntax.Node, name string, res *OverloadResult, args *AnalyzedArguments, children ...bound.Expr) bound.Expr {
	loc := locOf(syn)
	if res.Kind == bound.Ambiguous {
		x, y := res.Ambiguous[0], res.Ambiguous[1]
		if !argumentsHaveErrors(args) {
			b.report(diagnostic.AmbiguousCall, loc, x.Member, y.Member)
		}
		children = append(children, b.badArguments(args)...)
		return b.bad(syn, bound.Ambiguous, []symbols.Symbol{x.Member, y.Member}, children...)
	}
	worst := res.bestFailure()
	if worst == nil {
		children = append(children, b.badArguments(args)...)
		return b.bad(syn, bound.Empty, nil, children...)
	}
	switch worst.Failure {
	case failArgCount:
		d := diagnostic.New(diagnostic.NoOverloadForArgCount, loc, name, args.Len())
		for _, c := range res.Candidates {
			d = d.WithNote("candidate: %s", c.Member)
		}
		b.diags.Add(d)
		children = append(children, b.badArguments(args)...)
	case failNames:
		nameLoc := loc
		if args.NameLocs != nil && args.NameLocs[worst.BadArgument].IsValid() {
			nameLoc = args.NameLocs[worst.BadArgument]
		}
		b.report(diagnostic.BadNamedArgument, nameLoc, worst.Member, args.Name(worst.BadArgument))
		children = append(children, b.badArguments(args)...)
	case failInference:
		if !argumentsHaveErrors(args) {
			b.report(diagnostic.CannotInferTypeArgs, loc, worst.Member)
		}
		children = append(children, b.badArguments(args)...)
	default:
		children = append(children, b.reportBadArgument(loc, worst, res, args)...)
	}
	return b.bad(syn, bound.OverloadResolutionFailure, res.candidateSymbols(), children...)
}

// reportBadArgument reports the first argument of worst that does not
// convert and returns the arguments finished as best they can be.
func (b *Binder) reportBadArgument(loc syntax.Location, worst *MemberAnalysis, res *OverloadResult, args *AnalyzedArguments) []bound.Expr {
	i := worst.BadArgument
	out := make([]bound.Expr, args.Len())
	for k, a := range args.Args {
		if k != i {
			out[k] = b.bindToNothing(a)
		}
	}
	arg := args.Args[i]
	pt := worst.ParamTypes[i]
	argLoc := argumentLocation(args, i)
	if !argLoc.IsValid() {
		argLoc = loc
	}
	if lam, ok := arg.(*bound.UnboundLambda); ok && pt != nil {
		// Binding the lambda against the parameter type reports what is
		// wrong with it.
		out[i] = lam.State.(*lambdaState).bindTo(pt, argLoc)
		return out
	}
	out[i] = b.bindToNothing(arg)
	if arg.HasErrors() {
		return out
	}
	d := diagnostic.New(diagnostic.BadArguments, loc, worst.Member)
	if len(res.Candidates) > 1 {
		for _, c := range res.Candidates {
			d = d.WithNote("candidate: %s", c.Member)
		}
	}
	b.diags.Add(d)
	rk, prk := args.RefKind(i), worst.Params[worst.ArgsToParams[i]].RefKind()
	if worst.Expanded && worst.ArgsToParams[i] == len(worst.Params)-1 {
		prk = syntax.RefNone
	}
	switch {
	case rk != prk && prk != syntax.RefNone:
		b.report(diagnostic.BadArgumentRef, argLoc, i+1, prk)
	case rk != prk:
		b.report(diagnostic.BadArgumentType, argLoc, i+1, rk.String()+" "+typeString(arg), pt)
	default:
		b.report(diagnostic.BadArgumentType, argLoc, i+1, typeString(arg), pt)
	}
	return out
}

func argumentsHaveErrors(args *AnalyzedArguments) bool {
	for _, a := range args.Args {
		if a.HasErrors() {
			return true
		}
	}
	return false
}
