// Copyright © 2024 The ELPS authors

package lsp

import (
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax/parser"
)

var keywords = []string{
	"ascending", "by", "default", "descending", "equals", "false", "from",
	"group", "in", "into", "join", "let", "new", "null", "on", "orderby",
	"select", "true", "typeof", "using", "var", "where",
}

func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.docs.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	defer doc.mu.Unlock()
	off := positionOffset(doc.Content, params.Position)
	prefix := wordBefore(doc.Content, off)
	start := off - len(prefix)

	var c completer
	c.prefix = prefix
	if start > 0 && doc.Content[start-1] == '.' {
		s.memberCompletions(&c, doc, receiverBefore(doc.Content, start-1))
	} else {
		s.scopeCompletions(&c, doc, off)
	}
	sort.Slice(c.items, func(i, j int) bool { return c.items[i].Label < c.items[j].Label })
	return c.items, nil
}

type completer struct {
	prefix string
	seen   map[string]bool
	items  []protocol.CompletionItem
}

func (c *completer) add(label string, kind protocol.CompletionItemKind, detail string) {
	if !strings.HasPrefix(label, c.prefix) || strings.HasPrefix(label, "<") {
		return
	}
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[label] {
		return
	}
	c.seen[label] = true
	item := protocol.CompletionItem{Label: label, Kind: &kind}
	if detail != "" {
		item.Detail = &detail
	}
	c.items = append(c.items, item)
}

// scopeCompletions offers the names visible at off: locals declared
// before it, script globals, imported types, namespaces and keywords.
func (s *Server) scopeCompletions(c *completer, doc *Document, off int) {
	if doc.result != nil {
		for _, l := range doc.result.Locals {
			if locs := l.Locations(); len(locs) > 0 && locs[0].Pos < off {
				c.add(l.Name(), protocol.CompletionItemKindVariable, typeName(l.Type()))
			}
		}
	}
	table := s.context.Table
	for _, m := range table.ScriptClass().Members() {
		c.add(m.Name(), memberKind(m), m.String())
	}
	usings := s.context.Options.Usings
	if usings == nil {
		usings = binder.DefaultUsings
	}
	if doc.script != nil {
		for _, u := range doc.script.Usings {
			if u.Alias != "" {
				c.add(u.Alias, protocol.CompletionItemKindModule, u.Name.QualifiedName())
				continue
			}
			usings = append(usings[:len(usings):len(usings)], u.Name.QualifiedName())
		}
	}
	for _, u := range usings {
		if ns := table.LookupNamespace(u); ns != nil {
			for _, t := range ns.Types() {
				c.add(t.Name(), protocol.CompletionItemKindClass, t.String())
			}
		}
	}
	for _, ns := range table.GlobalNamespace().Namespaces() {
		c.add(ns.Name(), protocol.CompletionItemKindModule, "")
	}
	for _, kw := range keywords {
		c.add(kw, protocol.CompletionItemKindKeyword, "")
	}
}

// memberCompletions offers the members of the namespace named recv, or
// of the type of the expression recv.
func (s *Server) memberCompletions(c *completer, doc *Document, recv string) {
	if recv == "" {
		return
	}
	table := s.context.Table
	if ns := table.LookupNamespace(recv); ns != nil {
		for _, t := range ns.Types() {
			c.add(t.Name(), protocol.CompletionItemKindClass, t.String())
		}
		for _, n := range ns.Namespaces() {
			c.add(n.Name(), protocol.CompletionItemKindModule, "")
		}
		return
	}
	x, err := parser.ParseExpr("<complete>", recv)
	if err != nil {
		return
	}
	scope := s.context.Root()
	if doc.result != nil {
		scope = doc.result.Scope
	}
	res, err := s.context.BindIn(scope, x)
	if err != nil || res.Diagnostics.HasErrors() {
		return
	}
	for t := res.Expr.Type(); t != nil; {
		nt, ok := t.(*symbols.NamedType)
		if !ok {
			break
		}
		for _, m := range nt.Members() {
			if mm, ok := m.(*symbols.Method); ok && mm.IsConstructor() {
				continue
			}
			c.add(m.Name(), memberKind(m), m.String())
		}
		t = nt.BaseType()
	}
}

// receiverBefore returns the dotted name ending just before the dot at
// dot.
func receiverBefore(content string, dot int) string {
	start := dot
	for start > 0 && (isIdentChar(content[start-1]) || content[start-1] == '.') {
		start--
	}
	return strings.Trim(content[start:dot], ".")
}

func memberKind(m symbols.Symbol) protocol.CompletionItemKind {
	switch m.Kind() {
	case symbols.KindMethod:
		return protocol.CompletionItemKindMethod
	case symbols.KindProperty:
		return protocol.CompletionItemKindProperty
	case symbols.KindField:
		return protocol.CompletionItemKindField
	case symbols.KindEvent:
		return protocol.CompletionItemKindEvent
	case symbols.KindNamedType:
		return protocol.CompletionItemKindClass
	default:
		return protocol.CompletionItemKindText
	}
}
