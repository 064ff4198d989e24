// Copyright © 2024 The ELPS authors

package bound

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of the tree rooted at e, one node per
// line with its kind, the symbol it refers to, its type and its flags.
func Dump(w io.Writer, e Expr) error {
	var err error
	Walk(e, func(n, _ Expr, depth int) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), describe(n))
	})
	return err
}

// DumpString returns the outline written by Dump.
func DumpString(e Expr) string {
	var b strings.Builder
	_ = Dump(&b, e)
	return b.String()
}

// KindName returns the name of e's node kind.
func KindName(e Expr) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", e), "*bound.")
}

func describe(e Expr) string {
	var b strings.Builder
	b.WriteString(KindName(e))
	if detail := nodeDetail(e); detail != "" {
		b.WriteString(" ")
		b.WriteString(detail)
	}
	if t := e.Type(); t != nil {
		b.WriteString(" : ")
		b.WriteString(t.String())
	}
	if c := e.Constant(); c != nil {
		b.WriteString(" = ")
		b.WriteString(FormatConstant(c.Value, e.Type()))
	}
	if e.HasErrors() {
		b.WriteString(" [errors]")
	}
	return b.String()
}

func nodeDetail(e Expr) string {
	switch n := e.(type) {
	case *Local:
		return n.Symbol.Name()
	case *Parameter:
		return n.Symbol.Name()
	case *RangeVariable:
		return n.Symbol.Name()
	case *This:
		if n.Implicit {
			return "implicit"
		}
	case *NamespaceExpr:
		return n.Namespace.QualifiedName()
	case *FieldAccess:
		return n.Field.String()
	case *PropertyAccess:
		return n.Property.String()
	case *EventAccess:
		return n.Event.String()
	case *IndexerAccess:
		return n.Indexer.String()
	case *Call:
		s := n.Method.String()
		if n.InvokedAsExtension {
			s += " extension"
		}
		if n.Expanded {
			s += " expanded"
		}
		return s
	case *ObjectCreation:
		return n.Constructor.String()
	case *DelegateCreation:
		if n.Method != nil {
			return n.Method.String()
		}
	case *Conversion:
		if n.Explicit {
			return n.Conversion.String() + " explicit"
		}
		return n.Conversion.String()
	case *Unary:
		if n.Method != nil {
			return n.Op.String() + " " + n.Method.String()
		}
		return n.Op.String()
	case *Binary:
		if n.Method != nil {
			return n.Op.String() + " " + n.Method.String()
		}
		return n.Op.String()
	case *DynamicUnary:
		return n.Op.String()
	case *DynamicBinary:
		return n.Op.String()
	case *Assignment:
		if n.Compound {
			return n.Op.String() + "="
		}
	case *Lambda:
		names := make([]string, len(n.Symbol.Parameters()))
		for i, p := range n.Symbol.Parameters() {
			names[i] = p.Type().String() + " " + p.Name()
		}
		return "(" + strings.Join(names, ", ") + ")"
	case *MethodGroup:
		return fmt.Sprintf("%s (%d candidates, %v)", n.Name, len(n.Methods), n.ResultKind)
	case *BadExpression:
		names := make([]string, len(n.Symbols))
		for i, s := range n.Symbols {
			names[i] = s.String()
		}
		if len(names) == 0 {
			return n.ResultKind.String()
		}
		return n.ResultKind.String() + " [" + strings.Join(names, "; ") + "]"
	case *QueryClause:
		if n.Clause != nil {
			if f := strings.Fields(n.Clause.String()); len(f) > 0 {
				return f[0]
			}
		}
	case *DynamicInvocation:
		return fmt.Sprintf("(%d applicable)", len(n.Applicable))
	case *DynamicMemberAccess:
		return n.Name
	}
	return ""
}
