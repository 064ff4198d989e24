// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentPrepareRename returns the range of the local or range
// variable under the cursor.  Per the protocol it returns null, not an
// error, for anything else.
func (s *Server) textDocumentPrepareRename(_ *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	doc := s.docs.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	defer doc.mu.Unlock()
	off := positionOffset(doc.Content, params.Position)
	sym := symbolAt(doc.result, off)
	if sym == nil {
		return nil, nil
	}
	start := off
	for start > 0 && isIdentChar(doc.Content[start-1]) {
		start--
	}
	return &protocol.RangeWithPlaceholder{
		Range: protocol.Range{
			Start: offsetPosition(doc.Content, start),
			End:   offsetPosition(doc.Content, start+len(sym.Name())),
		},
		Placeholder: sym.Name(),
	}, nil
}

func (s *Server) textDocumentRename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	doc := s.docs.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, fmt.Errorf("document not found")
	}
	if !isIdentifier(params.NewName) {
		return nil, fmt.Errorf("invalid name: %q", params.NewName)
	}
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	defer doc.mu.Unlock()
	sym := symbolAt(doc.result, positionOffset(doc.Content, params.Position))
	if sym == nil {
		return nil, fmt.Errorf("no local at position")
	}

	var edits []protocol.TextEdit
	for _, loc := range append(sym.Locations(), references(doc.result, sym)...) {
		edits = append(edits, protocol.TextEdit{
			Range:   locationRange(doc.Content, loc),
			NewText: params.NewName,
		})
	}
	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{doc.URI: edits},
	}, nil
}

func isIdentifier(name string) bool {
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isIdentChar(name[i]) {
			return false
		}
	}
	return true
}
