// Copyright © 2024 The ELPS authors

package symbols

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// RenderNamespaceList writes every namespace in t with the number of types
// it declares.
func RenderNamespaceList(w io.Writer, t *Table) error {
	var walk func(ns *Namespace) error
	walk = func(ns *Namespace) error {
		if n := len(ns.Types()); n > 0 {
			name := ns.QualifiedName()
			if name == "" {
				name = "<global>"
			}
			if _, err := fmt.Fprintf(w, "  %-32s (%d types)\n", name, n); err != nil {
				return err
			}
		}
		for _, c := range ns.Namespaces() {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(t.global)
}

// RenderNamespace writes the types declared in the namespace named query.
func RenderNamespace(w io.Writer, t *Table, query string) error {
	ns := t.LookupNamespace(query)
	if ns == nil {
		return fmt.Errorf("no namespace: %q", query)
	}
	if _, err := fmt.Fprintf(w, "namespace %s\n\n", ns.QualifiedName()); err != nil {
		return err
	}
	for _, nt := range ns.Types() {
		if _, err := fmt.Fprintf(w, "  %s %s\n", typeKeyword(nt), nt); err != nil {
			return err
		}
	}
	return nil
}

// RenderType writes the declaration and members of nt.
func RenderType(w io.Writer, t *Table, nt *NamedType) error {
	header := typeKeyword(nt) + " " + nt.QualifiedName()
	if len(nt.typeParams) > 0 {
		header = typeKeyword(nt) + " " + typeHeader(nt)
	}
	var supers []string
	if base := nt.BaseType(); base != nil && nt.special != SpecialObject {
		supers = append(supers, base.String())
	}
	for _, iface := range nt.Interfaces() {
		supers = append(supers, iface.String())
	}
	if len(supers) > 0 {
		header += " : " + strings.Join(supers, ", ")
	}
	if _, err := fmt.Fprintln(w, wordwrap.String(header, 72)); err != nil {
		return err
	}
	for _, m := range nt.Members() {
		line := memberSignature(m)
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintln(w, indent.String(wordwrap.String(line, 70), 2)); err != nil {
			return err
		}
	}
	return nil
}

// RenderGlobals writes the members of the script class.
func RenderGlobals(w io.Writer, t *Table) error {
	for _, m := range t.script.Members() {
		if _, err := fmt.Fprintln(w, indent.String(wordwrap.String(memberSignature(m), 70), 2)); err != nil {
			return err
		}
	}
	return nil
}

func typeHeader(nt *NamedType) string {
	var b strings.Builder
	b.WriteString(nt.QualifiedName())
	b.WriteByte('<')
	for i, tp := range nt.typeParams {
		if i > 0 {
			b.WriteString(", ")
		}
		switch tp.variance {
		case Covariant:
			b.WriteString("out ")
		case Contravariant:
			b.WriteString("in ")
		}
		b.WriteString(tp.name)
	}
	b.WriteByte('>')
	return b.String()
}

func typeKeyword(nt *NamedType) string {
	switch {
	case nt.IsStaticClass():
		return "static class"
	case nt.kind == TypeClass:
		return "class"
	}
	return nt.kind.String()
}

func memberSignature(m Symbol) string {
	var mods []string
	if m.Accessibility() != Public {
		mods = append(mods, m.Accessibility().String())
	}
	if m.IsStatic() {
		if f, ok := m.(*Field); !ok || !f.constant {
			mods = append(mods, "static")
		}
	}
	prefix := strings.Join(mods, " ")
	if prefix != "" {
		prefix += " "
	}
	switch m := m.(type) {
	case *Field:
		if m.constant {
			return fmt.Sprintf("%sconst %s %s = %v", prefix, m.typ, m.name, m.value)
		}
		if m.readOnly {
			prefix += "readonly "
		}
		return fmt.Sprintf("%s%s %s", prefix, m.typ, m.name)
	case *Property:
		var acc []string
		if m.hasGet {
			acc = append(acc, "get;")
		}
		if m.hasSet {
			acc = append(acc, "set;")
		}
		name := m.name
		if m.IsIndexer() {
			name = "this[" + paramList(m.params) + "]"
		}
		return fmt.Sprintf("%s%s %s { %s }", prefix, m.typ, name, strings.Join(acc, " "))
	case *Event:
		return fmt.Sprintf("%sevent %s %s", prefix, m.typ, m.name)
	case *Method:
		if m.kind == MethodConstructor {
			return fmt.Sprintf("%s%s(%s)", prefix, m.container.name, paramList(m.params))
		}
		return fmt.Sprintf("%s%s %s", prefix, m.ret, strings.TrimPrefix(m.String(), memberPrefix(m.container)))
	case *NamedType:
		return fmt.Sprintf("%s%s %s", prefix, typeKeyword(m), m.name)
	}
	return ""
}
