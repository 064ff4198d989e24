// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDocumentSymbol lists the locals a script declares.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.result == nil {
		return []protocol.DocumentSymbol{}, nil
	}
	result := make([]protocol.DocumentSymbol, 0, len(doc.result.Locals))
	for _, l := range doc.result.Locals {
		locs := l.Locations()
		if len(locs) == 0 {
			continue
		}
		kind := protocol.SymbolKindVariable
		if l.IsConst() {
			kind = protocol.SymbolKindConstant
		}
		r := locationRange(doc.Content, locs[0])
		detail := typeName(l.Type())
		result = append(result, protocol.DocumentSymbol{
			Name:           l.Name(),
			Detail:         &detail,
			Kind:           kind,
			Range:          r,
			SelectionRange: r,
		})
	}
	return result, nil
}
