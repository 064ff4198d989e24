// Copyright © 2024 The ELPS authors

package binder

import (
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// inferrer infers the type arguments of one generic method call.  Each
// type parameter collects exact, lower and upper bounds until it is fixed.
type inferrer struct {
	b      *Binder
	params []*symbols.TypeParameter
	index  map[*symbols.TypeParameter]int
	exact  [][]symbols.Type
	lower  [][]symbols.Type
	upper  [][]symbols.Type
	fixed  []symbols.Type
}

func newInferrer(b *Binder, params []*symbols.TypeParameter) *inferrer {
	inf := &inferrer{
		b:      b,
		params: params,
		index:  make(map[*symbols.TypeParameter]int, len(params)),
		exact:  make([][]symbols.Type, len(params)),
		lower:  make([][]symbols.Type, len(params)),
		upper:  make([][]symbols.Type, len(params)),
		fixed:  make([]symbols.Type, len(params)),
	}
	for i, p := range params {
		inf.index[p] = i
	}
	return inf
}

// inferTypeArguments infers the type arguments of m from args.  The first
// phase takes bounds from every argument with a type.  The second phase
// alternates between inferring from the return types of lambdas and
// method groups whose parameter types are known and fixing type
// parameters, until everything is fixed or no progress is made.
func (b *Binder) inferTypeArguments(m *symbols.Method, args *AnalyzedArguments, argsToParams []int, expanded bool) ([]symbols.Type, bool) {
	inf := newInferrer(b, m.TypeParameters())
	params := m.Parameters()
	formal := func(i int) symbols.Type {
		j := argsToParams[i]
		t := params[j].Type()
		if expanded && j == len(params)-1 {
			t = t.(*symbols.ArrayType).Elem
		}
		return t
	}

	var pending []int
	for i, arg := range args.Args {
		pt := formal(i)
		switch a := arg.(type) {
		case *bound.UnboundLambda:
			st := a.State.(*lambdaState)
			if inv := symbols.DelegateInvoke(pt); inv != nil && st.hasExplicitTypes() && len(inv.Parameters()) == len(st.explicit) {
				for j, p := range inv.Parameters() {
					inf.exactInference(st.explicit[j], p.Type())
				}
			}
			pending = append(pending, i)
			continue
		case *bound.MethodGroup:
			pending = append(pending, i)
			continue
		}
		t := arg.Type()
		if t == nil || symbols.IsErrorType(t) {
			continue
		}
		if args.RefKind(i) == syntax.RefRef || args.RefKind(i) == syntax.RefOut {
			inf.exactInference(t, pt)
		} else {
			inf.lowerBoundInference(t, pt)
		}
	}

	for !inf.allFixed() {
		progress := false
		remaining := pending[:0:0]
		for _, i := range pending {
			inv := symbols.DelegateInvoke(formal(i))
			if inv == nil {
				continue
			}
			if !inf.inputsFixed(inv) {
				remaining = append(remaining, i)
				continue
			}
			inf.outputInference(args.Args[i], inv)
			progress = true
		}
		pending = remaining

		fixedAny := false
		for j := range inf.params {
			if inf.fixed[j] != nil || !inf.hasBounds(j) || inf.occursInPendingOutput(j, pending, formal) {
				continue
			}
			if !inf.fix(j) {
				return nil, false
			}
			fixedAny = true
		}
		if !fixedAny && !progress {
			for j := range inf.params {
				if inf.fixed[j] != nil || !inf.hasBounds(j) {
					continue
				}
				if !inf.fix(j) {
					return nil, false
				}
				fixedAny = true
			}
		}
		if !fixedAny && !progress {
			return nil, false
		}
	}
	return inf.fixed, true
}

func (inf *inferrer) allFixed() bool {
	for _, t := range inf.fixed {
		if t == nil {
			return false
		}
	}
	return true
}

func (inf *inferrer) hasBounds(j int) bool {
	return len(inf.exact[j])+len(inf.lower[j])+len(inf.upper[j]) > 0
}

// unfixed reports whether t mentions a type parameter still being
// inferred.
func (inf *inferrer) unfixed(t symbols.Type) bool {
	return symbols.ContainsTypeParameter(t, func(tp *symbols.TypeParameter) bool {
		j, ok := inf.index[tp]
		return ok && inf.fixed[j] == nil
	})
}

func (inf *inferrer) inputsFixed(inv *symbols.Method) bool {
	for _, p := range inv.Parameters() {
		if inf.unfixed(p.Type()) {
			return false
		}
	}
	return true
}

// occursInPendingOutput reports whether type parameter j appears in the
// return type of a delegate argument not yet inferred from.
func (inf *inferrer) occursInPendingOutput(j int, pending []int, formal func(int) symbols.Type) bool {
	tp := inf.params[j]
	for _, i := range pending {
		inv := symbols.DelegateInvoke(formal(i))
		if inv == nil {
			continue
		}
		if symbols.ContainsTypeParameter(inv.ReturnType(), func(p *symbols.TypeParameter) bool { return p == tp }) {
			return true
		}
	}
	return false
}

func (inf *inferrer) substitution() symbols.Substitution {
	s := make(symbols.Substitution)
	for j, t := range inf.fixed {
		if t != nil {
			s[inf.params[j]] = t
		}
	}
	return s
}

// outputInference infers from the return type of a lambda or method group
// argument once the parameter types of its delegate are known.
func (inf *inferrer) outputInference(arg bound.Expr, inv *symbols.Method) {
	s := inf.substitution()
	types := make([]symbols.Type, len(inv.Parameters()))
	for k, p := range inv.Parameters() {
		types[k] = s.Apply(p.Type())
	}
	ret := inv.ReturnType()
	var inferred symbols.Type
	switch a := arg.(type) {
	case *bound.UnboundLambda:
		inferred = a.State.(*lambdaState).inferReturnType(types)
	case *bound.MethodGroup:
		args := newArguments()
		defer args.Free()
		for k, t := range types {
			args.Add(placeholder(t), "", syntax.Location{}, inv.Parameters()[k].RefKind())
		}
		res := inf.b.resolve(methodCandidates(a.Methods), a.TypeArgs, args)
		if res.Kind == bound.Viable {
			inferred = res.Best.Method.ReturnType()
		}
	}
	if inferred == nil || symbols.IsErrorType(inferred) || symbols.IsVoid(inferred) {
		return
	}
	inf.lowerBoundInference(inferred, ret)
}

func (inf *inferrer) addBound(bounds [][]symbols.Type, j int, t symbols.Type) {
	for _, have := range bounds[j] {
		if symbols.Identical(have, t) {
			return
		}
	}
	bounds[j] = append(bounds[j], t)
}

// target returns the index of v when it is a type parameter being
// inferred.
func (inf *inferrer) target(v symbols.Type) (int, bool) {
	tp, ok := v.(*symbols.TypeParameter)
	if !ok {
		return 0, false
	}
	j, ok := inf.index[tp]
	if !ok || inf.fixed[j] != nil {
		return 0, false
	}
	return j, true
}

func (inf *inferrer) exactInference(u, v symbols.Type) {
	if j, ok := inf.target(v); ok {
		inf.addBound(inf.exact, j, u)
		return
	}
	switch vt := v.(type) {
	case *symbols.ArrayType:
		if ut, ok := u.(*symbols.ArrayType); ok && ut.Rank == vt.Rank {
			inf.exactInference(ut.Elem, vt.Elem)
		}
	case *symbols.NamedType:
		ut, ok := u.(*symbols.NamedType)
		if !ok || ut.OriginalDefinition() != vt.OriginalDefinition() {
			return
		}
		ua, va := ut.TypeArguments(), vt.TypeArguments()
		for i := range va {
			if i < len(ua) {
				inf.exactInference(ua[i], va[i])
			}
		}
	}
}

func (inf *inferrer) lowerBoundInference(u, v symbols.Type) {
	if j, ok := inf.target(v); ok {
		inf.addBound(inf.lower, j, u)
		return
	}
	if !inf.unfixed(v) {
		return
	}
	switch vt := v.(type) {
	case *symbols.ArrayType:
		ut, ok := u.(*symbols.ArrayType)
		if !ok || ut.Rank != vt.Rank {
			return
		}
		if ut.Elem.IsReferenceType() {
			inf.lowerBoundInference(ut.Elem, vt.Elem)
		} else {
			inf.exactInference(ut.Elem, vt.Elem)
		}
	case *symbols.NamedType:
		if symbols.IsNullable(vt) {
			if un := symbols.NullableUnderlying(u); un != nil {
				inf.exactInference(un, symbols.NullableUnderlying(vt))
			}
			return
		}
		match := inf.uniqueBase(u, vt.OriginalDefinition())
		if match == nil {
			return
		}
		inf.byVariance(match, vt, true)
	}
}

func (inf *inferrer) upperBoundInference(u, v symbols.Type) {
	if j, ok := inf.target(v); ok {
		inf.addBound(inf.upper, j, u)
		return
	}
	if !inf.unfixed(v) {
		return
	}
	switch vt := v.(type) {
	case *symbols.ArrayType:
		ut, ok := u.(*symbols.ArrayType)
		if !ok || ut.Rank != vt.Rank {
			return
		}
		if ut.Elem.IsReferenceType() {
			inf.upperBoundInference(ut.Elem, vt.Elem)
		} else {
			inf.exactInference(ut.Elem, vt.Elem)
		}
	case *symbols.NamedType:
		ut, ok := u.(*symbols.NamedType)
		if !ok {
			return
		}
		// u must be a base of v: find the construction of u's definition
		// among v's bases.
		match := inf.uniqueBase(vt, ut.OriginalDefinition())
		if match == nil {
			return
		}
		inf.byVariance(ut, match, false)
	}
}

// byVariance infers from the type arguments of u to those of v, which are
// constructions of the same definition.  A lower-bound inference keeps the
// direction for covariant parameters and reverses it for contravariant
// ones; invariant parameters and value-type arguments are exact.
func (inf *inferrer) byVariance(u, v *symbols.NamedType, lower bool) {
	ua, va := u.TypeArguments(), v.TypeArguments()
	tps := v.OriginalDefinition().TypeParameters()
	for i := range va {
		if i >= len(ua) || i >= len(tps) {
			return
		}
		if !ua[i].IsReferenceType() {
			inf.exactInference(ua[i], va[i])
			continue
		}
		switch tps[i].Variance() {
		case symbols.Covariant:
			if lower {
				inf.lowerBoundInference(ua[i], va[i])
			} else {
				inf.upperBoundInference(ua[i], va[i])
			}
		case symbols.Contravariant:
			if lower {
				inf.upperBoundInference(ua[i], va[i])
			} else {
				inf.lowerBoundInference(ua[i], va[i])
			}
		default:
			inf.exactInference(ua[i], va[i])
		}
	}
}

// uniqueBase returns the one construction of def among u, its base types
// and its interfaces, or nil when there is none or more than one.
func (inf *inferrer) uniqueBase(u symbols.Type, def *symbols.NamedType) *symbols.NamedType {
	table := inf.b.table()
	var found []*symbols.NamedType
	add := func(t symbols.Type) {
		nt, ok := t.(*symbols.NamedType)
		if !ok || nt.OriginalDefinition() != def {
			return
		}
		for _, f := range found {
			if symbols.Identical(f, nt) {
				return
			}
		}
		found = append(found, nt)
	}
	for cur := u; cur != nil; cur = table.BaseType(cur) {
		add(cur)
	}
	for _, iface := range table.Interfaces(u) {
		add(iface)
	}
	if len(found) != 1 {
		return nil
	}
	return found[0]
}

// fix picks the type of parameter j from its bounds: a candidate that
// every bound accepts and to which every other such candidate converts.
func (inf *inferrer) fix(j int) bool {
	conv := inf.b.conv()
	var cands []symbols.Type
	for _, set := range [][]symbols.Type{inf.exact[j], inf.lower[j], inf.upper[j]} {
		for _, t := range set {
			dup := false
			for _, c := range cands {
				if symbols.Identical(c, t) {
					dup = true
					break
				}
			}
			if !dup {
				cands = append(cands, t)
			}
		}
	}
	var viable []symbols.Type
	for _, c := range cands {
		ok := true
		for _, e := range inf.exact[j] {
			if !conv.IdentityConvertible(c, e) {
				ok = false
			}
		}
		for _, l := range inf.lower[j] {
			if !conv.ClassifyImplicit(l, c).Exists() {
				ok = false
			}
		}
		for _, u := range inf.upper[j] {
			if !conv.ClassifyImplicit(c, u).Exists() {
				ok = false
			}
		}
		if ok {
			viable = append(viable, c)
		}
	}
	var best []symbols.Type
	for _, c := range viable {
		general := true
		for _, o := range viable {
			if !conv.ClassifyImplicit(o, c).Exists() {
				general = false
				break
			}
		}
		if general {
			best = append(best, c)
		}
	}
	if len(best) == 0 {
		return false
	}
	for _, o := range best[1:] {
		if !conv.IdentityConvertible(best[0], o) {
			return false
		}
	}
	inf.fixed[j] = best[0]
	return true
}

// inferFromReceiver infers the type arguments of the extension method m
// that appear in its first parameter from the receiver type alone.  It
// returns the first parameter type with those arguments substituted.
func (b *Binder) inferFromReceiver(m *symbols.Method, recv symbols.Type) (symbols.Type, bool) {
	first := m.Parameters()[0].Type()
	if !m.IsGeneric() || m.IsConstructed() {
		return first, true
	}
	inf := newInferrer(b, m.TypeParameters())
	inf.lowerBoundInference(recv, first)
	for j, tp := range inf.params {
		if !symbols.ContainsTypeParameter(first, func(p *symbols.TypeParameter) bool { return p == tp }) {
			continue
		}
		if !inf.hasBounds(j) || !inf.fix(j) {
			return nil, false
		}
	}
	return inf.substitution().Apply(first), true
}
