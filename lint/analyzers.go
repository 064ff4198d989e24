// Copyright © 2024 The ELPS authors

package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// AnalyzerDynamicCall warns when a dynamically dispatched method call has
// statically applicable candidates that the run-time binder treats
// differently from the compile-time one.
var AnalyzerDynamicCall = &Analyzer{
	Name:     "dynamic-call-restrictions",
	Severity: SeverityWarning,
	Doc:      "Warn when a dynamic call has candidates the run-time binder handles differently.\n\nA call with a dynamic argument is resolved when it runs. Candidates that need method type arguments inferred, or that take ref or out parameters, are applicable when compiling but may be rejected or chosen differently at run time.",
	Run: func(pass *Pass) error {
		inspectAll(pass, func(e bound.Expr) bool {
			n, ok := e.(*bound.DynamicInvocation)
			if !ok {
				return true
			}
			g, ok := n.Expression.(*bound.MethodGroup)
			if !ok {
				return true
			}
			var notes []string
			for _, m := range n.Applicable {
				switch {
				case m.IsGeneric() && len(g.TypeArgs) == 0:
					notes = append(notes, fmt.Sprintf("%s infers its type arguments from run-time types", m))
				case hasRefParam(m):
					notes = append(notes, fmt.Sprintf("%s takes a ref or out parameter", m))
				}
			}
			if len(notes) == 0 {
				return true
			}
			pass.ReportWithNotes(Diagnostic{
				Pos:     PositionOf(locOf(n)),
				Message: fmt.Sprintf("dynamic call to %s has candidates resolved differently at run time", g.Name),
			}, notes...)
			return true
		})
		return nil
	},
}

func hasRefParam(m *symbols.Method) bool {
	for _, p := range m.Parameters() {
		if p.RefKind() != syntax.RefNone {
			return true
		}
	}
	return false
}

// AnalyzerIdentitySelect reports select clauses that project the range
// variable unchanged.  Such a select survives translation only because
// the from clause named an element type, whose Cast already produces the
// sequence.
var AnalyzerIdentitySelect = &Analyzer{
	Name:     "identity-select",
	Severity: SeverityInfo,
	Doc:      "Report `select x` kept only because of a typed range variable.\n\n`from T x in e select x` translates to `e.Cast<T>().Select(x => x)`. The Select call does nothing; `e.Cast<T>()` is the same sequence.",
	Run: func(pass *Pass) error {
		inspectAll(pass, func(e bound.Expr) bool {
			qc, ok := e.(*bound.QueryClause)
			if !ok {
				return true
			}
			sel, ok := qc.Clause.(*syntax.SelectClause)
			if !ok {
				return true
			}
			call, ok := bound.Strip(qc.Value).(*bound.Call)
			if !ok || call.Method.Name() != "Select" || len(call.Args) == 0 {
				return true
			}
			lam := lambdaOf(call.Args[len(call.Args)-1])
			if lam == nil || !isIdentity(lam) {
				return true
			}
			pass.Reportf(sel.Source, "select %s is an identity projection", sel.Value)
			return true
		})
		return nil
	},
}

// lambdaOf returns the lambda e converts, if any.
func lambdaOf(e bound.Expr) *bound.Lambda {
	for {
		switch n := e.(type) {
		case *bound.Lambda:
			return n
		case *bound.Conversion:
			e = n.Operand
		case *bound.DelegateCreation:
			e = n.Argument
		default:
			return nil
		}
	}
}

// isIdentity reports whether lam returns its only parameter.
func isIdentity(lam *bound.Lambda) bool {
	params := lam.Symbol.Parameters()
	if len(params) != 1 {
		return false
	}
	body := bound.Strip(lam.Body)
	if rv, ok := body.(*bound.RangeVariable); ok {
		body = bound.Strip(rv.Value)
	}
	p, ok := body.(*bound.Parameter)
	return ok && p.Symbol == params[0]
}

// AnalyzerConditionalAccess warns about ?. on a receiver that cannot be
// null.
var AnalyzerConditionalAccess = &Analyzer{
	Name:     "conditional-access-non-null",
	Severity: SeverityWarning,
	Doc:      "Warn when `?.` is applied to a receiver that is never null.\n\nLiterals, object and array creation expressions and `this` are never null. The conditional access only makes the result nullable.",
	Run: func(pass *Pass) error {
		inspectAll(pass, func(e bound.Expr) bool {
			n, ok := e.(*bound.ConditionalAccess)
			if !ok {
				return true
			}
			if what := neverNull(n.Receiver); what != "" {
				pass.Reportf(locOf(n.Receiver), "?. applied to %s, which is never null", what)
			}
			return true
		})
		return nil
	},
}

func neverNull(e bound.Expr) string {
	switch n := bound.Strip(e).(type) {
	case *bound.Literal:
		if n.Value != nil {
			return "a literal"
		}
	case *bound.ObjectCreation, *bound.AnonymousObjectCreation:
		return "an object creation expression"
	case *bound.ArrayCreation:
		return "an array creation expression"
	case *bound.This:
		return "this"
	}
	return ""
}

// AnalyzerConstantCondition warns about conditions whose value is known
// when binding.
var AnalyzerConstantCondition = &Analyzer{
	Name:     "constant-condition",
	Severity: SeverityWarning,
	Doc:      "Warn when a conditional operator or where clause has a constant condition.\n\nOne branch of `c ? a : b` with a constant `c` is dead code. A where clause with a constant predicate keeps every element or none.",
	Run: func(pass *Pass) error {
		inspectAll(pass, func(e bound.Expr) bool {
			switch n := e.(type) {
			case *bound.Conditional:
				if c := n.Cond.Constant(); c != nil {
					pass.Reportf(locOf(n.Cond), "condition is always %v", c.Value)
				}
			case *bound.QueryClause:
				w, ok := n.Clause.(*syntax.WhereClause)
				if !ok {
					break
				}
				call, ok := bound.Strip(n.Value).(*bound.Call)
				if !ok || len(call.Args) == 0 {
					break
				}
				lam := lambdaOf(call.Args[len(call.Args)-1])
				if lam == nil {
					break
				}
				if c := lam.Body.Constant(); c != nil {
					pass.Reportf(w.Cond.Loc(), "where condition is always %v", c.Value)
				}
			}
			return true
		})
		return nil
	},
}

func inspectAll(pass *Pass, fn func(bound.Expr) bool) {
	for _, e := range pass.Exprs() {
		bound.Inspect(e, fn)
	}
}

func locOf(e bound.Expr) syntax.Location {
	if syn := e.Syntax(); syn != nil {
		return syn.Loc()
	}
	return syntax.Location{}
}

// AnalyzerNames returns a sorted list of all default analyzer names.
func AnalyzerNames() []string {
	analyzers := DefaultAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}

// AnalyzerDoc returns a formatted documentation string for all analyzers.
func AnalyzerDoc() string {
	var b strings.Builder
	for _, a := range DefaultAnalyzers() {
		fmt.Fprintf(&b, "  %s\n", a.Name)
		lines := strings.Split(a.Doc, "\n")
		fmt.Fprintf(&b, "    %s\n\n", lines[0])
	}
	return b.String()
}
