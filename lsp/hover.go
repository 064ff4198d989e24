// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/symbols"
)

func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.docs.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	defer doc.mu.Unlock()
	off := positionOffset(doc.Content, params.Position)

	var content string
	if sym := declarationAt(doc.result, off); sym != nil {
		content = hoverSymbol(sym)
	} else if e := nodeAt(doc.result, off); e != nil {
		content = hoverExpr(e)
	}
	if content == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: "```csharp\n" + content + "\n```",
		},
	}, nil
}

// hoverExpr describes the bound node e and its type.
func hoverExpr(e bound.Expr) string {
	var sb strings.Builder
	switch n := e.(type) {
	case *bound.Local:
		return hoverSymbol(n.Symbol)
	case *bound.Parameter:
		fmt.Fprintf(&sb, "(parameter) %s %s", typeName(n.Type()), n.Symbol.Name())
	case *bound.RangeVariable:
		fmt.Fprintf(&sb, "(range variable) %s %s", typeName(n.Type()), n.Symbol.Name())
	case *bound.Call:
		fmt.Fprintf(&sb, "(method) %s %s", typeName(n.Method.ReturnType()), n.Method)
		if n.InvokedAsExtension {
			sb.WriteString(" (extension)")
		}
	case *bound.ObjectCreation:
		fmt.Fprintf(&sb, "(constructor) %s", n.Constructor)
	case *bound.PropertyAccess:
		fmt.Fprintf(&sb, "(property) %s %s", typeName(n.Type()), n.Property)
	case *bound.FieldAccess:
		fmt.Fprintf(&sb, "(field) %s %s", typeName(n.Type()), n.Field)
	case *bound.TypeExpr:
		fmt.Fprintf(&sb, "(type) %s", typeName(n.Type()))
	case *bound.NamespaceExpr:
		fmt.Fprintf(&sb, "(namespace) %s", n.Namespace)
	default:
		if bound.IsTypeless(e) {
			return ""
		}
		fmt.Fprintf(&sb, "%s : %s", e.Syntax(), typeName(e.Type()))
	}
	if c := e.Constant(); c != nil {
		fmt.Fprintf(&sb, " = %s", bound.FormatConstant(c.Value, e.Type()))
	}
	return sb.String()
}

// hoverSymbol describes a declared local or range variable.
func hoverSymbol(sym symbols.Symbol) string {
	switch s := sym.(type) {
	case *symbols.Local:
		kind := "local"
		if s.IsConst() {
			kind = "constant"
		}
		text := fmt.Sprintf("(%s) %s %s", kind, typeName(s.Type()), s.Name())
		if s.IsConst() {
			text += " = " + bound.FormatConstant(s.ConstValue(), s.Type())
		}
		return text
	case *symbols.RangeVariable:
		return "(range variable) " + s.Name()
	}
	return fmt.Sprintf("(%s) %s", sym.Kind(), sym)
}

func typeName(t symbols.Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}
