// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDefinition resolves locals and range variables to their
// declarations.  Metadata symbols have no navigable source.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc := s.docs.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	defer doc.mu.Unlock()
	sym := symbolAt(doc.result, positionOffset(doc.Content, params.Position))
	if sym == nil || len(sym.Locations()) == 0 {
		return nil, nil
	}
	return protocol.Location{
		URI:   doc.URI,
		Range: locationRange(doc.Content, sym.Locations()[0]),
	}, nil
}
