// Copyright © 2024 The ELPS authors

package lsp

import (
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	doc := s.docs.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	defer doc.mu.Unlock()
	sym := symbolAt(doc.result, positionOffset(doc.Content, params.Position))
	if sym == nil {
		return nil, nil
	}

	var locs []protocol.Location
	if params.Context.IncludeDeclaration {
		for _, loc := range sym.Locations() {
			locs = append(locs, protocol.Location{URI: doc.URI, Range: locationRange(doc.Content, loc)})
		}
	}
	for _, loc := range references(doc.result, sym) {
		locs = append(locs, protocol.Location{URI: doc.URI, Range: locationRange(doc.Content, loc)})
	}
	return locs, nil
}

// symbolAt returns the local or range variable declared or referenced
// at the byte offset off.
func symbolAt(res *binder.ScriptResult, off int) symbols.Symbol {
	if sym := declarationAt(res, off); sym != nil {
		return sym
	}
	switch n := nodeAt(res, off).(type) {
	case *bound.Local:
		return n.Symbol
	case *bound.RangeVariable:
		return n.Symbol
	}
	return nil
}

// declarationAt returns the symbol whose declaring name contains off.
func declarationAt(res *binder.ScriptResult, off int) symbols.Symbol {
	if res == nil {
		return nil
	}
	declares := func(sym symbols.Symbol) bool {
		for _, loc := range sym.Locations() {
			if loc.Contains(off) {
				return true
			}
		}
		return false
	}
	for _, l := range res.Locals {
		if declares(l) {
			return l
		}
	}
	for _, e := range res.Exprs {
		for _, rv := range bound.FindAll[*bound.RangeVariable](e) {
			if declares(rv.Symbol) {
				return rv.Symbol
			}
		}
	}
	return nil
}

// references returns the locations of the simple names in res bound to
// sym, in source order.
func references(res *binder.ScriptResult, sym symbols.Symbol) []syntax.Location {
	seen := make(map[int]bool)
	var locs []syntax.Location
	for _, e := range res.Exprs {
		bound.Inspect(e, func(n bound.Expr) bool {
			var target symbols.Symbol
			switch n := n.(type) {
			case *bound.Local:
				target = n.Symbol
			case *bound.RangeVariable:
				target = n.Symbol
			}
			id, ok := n.Syntax().(*syntax.Identifier)
			if target == sym && ok && !seen[id.Source.Pos] {
				seen[id.Source.Pos] = true
				locs = append(locs, id.Source)
			}
			return true
		})
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].Before(locs[j]) })
	return locs
}
