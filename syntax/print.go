// Copyright © 2024 The ELPS authors

package syntax

import (
	"strconv"
	"strings"
)

// printer renders nodes back to compact source text.  The output is used
// in diagnostics and tests, so it is normalized rather than faithful to the
// original spacing.
type printer struct {
	strings.Builder
}

func render(n Node) string {
	var p printer
	p.node(n)
	return p.String()
}

func (p *printer) list(n int, sep string, fn func(i int)) {
	for i := 0; i < n; i++ {
		if i > 0 {
			p.WriteString(sep)
		}
		fn(i)
	}
}

func (p *printer) typeArgs(args []Type) {
	if len(args) == 0 {
		return
	}
	p.WriteByte('<')
	p.list(len(args), ", ", func(i int) { p.node(args[i]) })
	p.WriteByte('>')
}

func (p *printer) args(args []*Argument) {
	p.list(len(args), ", ", func(i int) {
		a := args[i]
		if a.Name != "" {
			p.WriteString(a.Name)
			p.WriteString(": ")
		}
		if a.RefKind != RefNone {
			p.WriteString(a.RefKind.String())
			p.WriteByte(' ')
		}
		p.node(a.Value)
	})
}

func (p *printer) body(body *QueryBody) {
	for _, c := range body.Clauses {
		p.WriteByte(' ')
		p.node(c)
	}
	if body.SelectOrGroup != nil {
		p.WriteByte(' ')
		p.node(body.SelectOrGroup)
	}
	if body.Continuation != nil {
		p.WriteString(" into ")
		p.WriteString(body.Continuation.Name)
		p.body(body.Continuation.Body)
	}
}

func (p *printer) node(n Node) {
	switch n := n.(type) {
	case nil:
		p.WriteString("<nil>")
	case *Literal:
		p.literal(n)
	case *Identifier:
		p.WriteString(n.Name)
	case *GenericName:
		p.WriteString(n.Name)
		p.typeArgs(n.TypeArgs)
	case *MemberAccess:
		p.node(n.X)
		p.WriteByte('.')
		p.WriteString(n.Name)
		p.typeArgs(n.TypeArgs)
	case *Invocation:
		p.node(n.Fn)
		p.WriteByte('(')
		p.args(n.Args)
		p.WriteByte(')')
	case *ElementAccess:
		p.node(n.X)
		p.WriteByte('[')
		p.args(n.Args)
		p.WriteByte(']')
	case *ImplicitReceiver:
	case *ConditionalAccess:
		p.node(n.X)
		p.WriteByte('?')
		p.node(n.WhenNotNull)
	case *ObjectCreation:
		p.WriteString("new ")
		p.node(n.Type)
		p.WriteByte('(')
		p.args(n.Args)
		p.WriteByte(')')
	case *ArrayCreation:
		p.WriteString("new")
		if n.Elem != nil {
			p.WriteByte(' ')
			p.node(n.Elem)
		}
		p.WriteByte('[')
		if len(n.Sizes) > 0 {
			p.list(len(n.Sizes), ", ", func(i int) { p.node(n.Sizes[i]) })
		} else {
			p.WriteString(strings.Repeat(",", n.Rank-1))
		}
		p.WriteByte(']')
		if n.HasInit {
			p.WriteString(" { ")
			p.list(len(n.Init), ", ", func(i int) { p.node(n.Init[i]) })
			p.WriteString(" }")
		}
	case *AnonymousObjectCreation:
		p.WriteString("new { ")
		p.list(len(n.Members), ", ", func(i int) {
			m := n.Members[i]
			if m.Name != "" {
				p.WriteString(m.Name)
				p.WriteString(" = ")
			}
			p.node(m.Value)
		})
		p.WriteString(" }")
	case *Unary:
		if n.Op.IsPostfix() {
			p.node(n.X)
			p.WriteString(n.Op.String())
		} else {
			p.WriteString(n.Op.String())
			p.node(n.X)
		}
	case *Binary:
		p.node(n.X)
		p.WriteByte(' ')
		p.WriteString(n.Op.String())
		p.WriteByte(' ')
		p.node(n.Y)
	case *Conditional:
		p.node(n.Cond)
		p.WriteString(" ? ")
		p.node(n.Then)
		p.WriteString(" : ")
		p.node(n.Else)
	case *Assignment:
		p.node(n.Left)
		p.WriteByte(' ')
		if n.Compound {
			p.WriteString(n.Op.String())
		}
		p.WriteString("= ")
		p.node(n.Right)
	case *Cast:
		p.WriteByte('(')
		p.node(n.Type)
		p.WriteByte(')')
		p.node(n.X)
	case *IsType:
		p.node(n.X)
		p.WriteString(" is ")
		p.node(n.Type)
	case *AsType:
		p.node(n.X)
		p.WriteString(" as ")
		p.node(n.Type)
	case *TypeOf:
		p.WriteString("typeof(")
		p.node(n.Type)
		p.WriteByte(')')
	case *SizeOf:
		p.WriteString("sizeof(")
		p.node(n.Type)
		p.WriteByte(')')
	case *Default:
		p.WriteString("default(")
		p.node(n.Type)
		p.WriteByte(')')
	case *This:
		p.WriteString("this")
	case *Base:
		p.WriteString("base")
	case *Paren:
		p.WriteByte('(')
		p.node(n.X)
		p.WriteByte(')')
	case *Lambda:
		if len(n.Params) == 1 && n.Params[0].Type == nil && n.Params[0].RefKind == RefNone {
			p.WriteString(n.Params[0].Name)
		} else {
			p.WriteByte('(')
			p.list(len(n.Params), ", ", func(i int) { p.node(n.Params[i]) })
			p.WriteByte(')')
		}
		p.WriteString(" => ")
		p.node(n.Body)
	case *LambdaParam:
		if n.RefKind != RefNone {
			p.WriteString(n.RefKind.String())
			p.WriteByte(' ')
		}
		if n.Type != nil {
			p.node(n.Type)
			p.WriteByte(' ')
		}
		p.WriteString(n.Name)
	case *Query:
		p.node(n.From)
		p.body(n.Body)
	case *QueryContinuation:
		p.WriteString("into ")
		p.WriteString(n.Name)
		p.body(n.Body)
	case *FromClause:
		p.WriteString("from ")
		if n.Type != nil {
			p.node(n.Type)
			p.WriteByte(' ')
		}
		p.WriteString(n.Name)
		p.WriteString(" in ")
		p.node(n.In)
	case *LetClause:
		p.WriteString("let ")
		p.WriteString(n.Name)
		p.WriteString(" = ")
		p.node(n.Value)
	case *WhereClause:
		p.WriteString("where ")
		p.node(n.Cond)
	case *JoinClause:
		p.WriteString("join ")
		if n.Type != nil {
			p.node(n.Type)
			p.WriteByte(' ')
		}
		p.WriteString(n.Name)
		p.WriteString(" in ")
		p.node(n.In)
		p.WriteString(" on ")
		p.node(n.Left)
		p.WriteString(" equals ")
		p.node(n.Right)
		if n.Into != "" {
			p.WriteString(" into ")
			p.WriteString(n.Into)
		}
	case *OrderByClause:
		p.WriteString("orderby ")
		p.list(len(n.Orderings), ", ", func(i int) { p.node(n.Orderings[i]) })
	case *Ordering:
		p.node(n.Key)
		if n.Descending {
			p.WriteString(" descending")
		}
	case *SelectClause:
		p.WriteString("select ")
		p.node(n.Value)
	case *GroupClause:
		p.WriteString("group ")
		p.node(n.Value)
		p.WriteString(" by ")
		p.node(n.By)
	case *PredefinedType:
		p.WriteString(n.Keyword)
	case *NamedType:
		if n.Qualifier != nil {
			p.node(n.Qualifier)
			p.WriteByte('.')
		}
		p.WriteString(n.Name)
		p.typeArgs(n.TypeArgs)
	case *ArrayType:
		p.node(n.Elem)
		p.WriteByte('[')
		p.WriteString(strings.Repeat(",", n.Rank-1))
		p.WriteByte(']')
	case *PointerType:
		p.node(n.Elem)
		p.WriteByte('*')
	case *NullableType:
		p.node(n.Elem)
		p.WriteByte('?')
	case *UsingDirective:
		p.WriteString("using ")
		if n.Alias != "" {
			p.WriteString(n.Alias)
			p.WriteString(" = ")
		}
		p.node(n.Name)
		p.WriteByte(';')
	case *LocalDecl:
		if n.Const {
			p.WriteString("const ")
		}
		p.node(n.Type)
		p.WriteByte(' ')
		p.list(len(n.Declarators), ", ", func(i int) {
			d := n.Declarators[i]
			p.WriteString(d.Name)
			if d.Init != nil {
				p.WriteString(" = ")
				p.node(d.Init)
			}
		})
		p.WriteByte(';')
	case *ExprStmt:
		p.node(n.X)
		p.WriteByte(';')
	case *Block:
		if n.Unsafe {
			p.WriteString("unsafe ")
		}
		p.WriteString("{ ")
		for _, s := range n.Statements {
			p.node(s)
			p.WriteByte(' ')
		}
		p.WriteByte('}')
	default:
		p.WriteString("<?>")
	}
}

func (p *printer) literal(n *Literal) {
	if n.Text != "" {
		p.WriteString(n.Text)
		return
	}
	switch v := n.Value.(type) {
	case nil:
		p.WriteString("null")
	case bool:
		p.WriteString(strconv.FormatBool(v))
	case string:
		p.WriteString(strconv.Quote(v))
	case rune:
		p.WriteString(strconv.QuoteRune(v))
	case uint64:
		p.WriteString(strconv.FormatUint(v, 10))
	case float64:
		p.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
}

func (x *Literal) String() string                 { return render(x) }
func (x *Identifier) String() string              { return render(x) }
func (x *GenericName) String() string             { return render(x) }
func (x *MemberAccess) String() string            { return render(x) }
func (x *Invocation) String() string              { return render(x) }
func (x *ElementAccess) String() string           { return render(x) }
func (x *ImplicitReceiver) String() string        { return "" }
func (x *ConditionalAccess) String() string       { return render(x) }
func (x *ObjectCreation) String() string          { return render(x) }
func (x *ArrayCreation) String() string           { return render(x) }
func (x *AnonymousObjectCreation) String() string { return render(x) }
func (x *Unary) String() string                   { return render(x) }
func (x *Binary) String() string                  { return render(x) }
func (x *Conditional) String() string             { return render(x) }
func (x *Assignment) String() string              { return render(x) }
func (x *Cast) String() string                    { return render(x) }
func (x *IsType) String() string                  { return render(x) }
func (x *AsType) String() string                  { return render(x) }
func (x *TypeOf) String() string                  { return render(x) }
func (x *SizeOf) String() string                  { return render(x) }
func (x *Default) String() string                 { return render(x) }
func (x *This) String() string                    { return render(x) }
func (x *Base) String() string                    { return render(x) }
func (x *Paren) String() string                   { return render(x) }
func (x *Lambda) String() string                  { return render(x) }
func (x *LambdaParam) String() string             { return render(x) }
func (x *Query) String() string                   { return render(x) }
func (x *QueryContinuation) String() string       { return render(x) }
func (x *FromClause) String() string              { return render(x) }
func (x *LetClause) String() string               { return render(x) }
func (x *WhereClause) String() string             { return render(x) }
func (x *JoinClause) String() string              { return render(x) }
func (x *Ordering) String() string                { return render(x) }
func (x *OrderByClause) String() string           { return render(x) }
func (x *SelectClause) String() string            { return render(x) }
func (x *GroupClause) String() string             { return render(x) }
func (t *PredefinedType) String() string          { return render(t) }
func (t *NamedType) String() string               { return render(t) }
func (t *ArrayType) String() string               { return render(t) }
func (t *PointerType) String() string             { return render(t) }
func (t *NullableType) String() string            { return render(t) }
func (x *UsingDirective) String() string          { return render(x) }
func (x *LocalDecl) String() string               { return render(x) }
func (x *ExprStmt) String() string                { return render(x) }
func (x *Block) String() string                   { return render(x) }
