// Copyright © 2024 The ELPS authors

package lsp

import (
	"errors"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/sharpbind/lint"
	"github.com/luthersystems/sharpbind/syntax/parser"
)

const debounceDelay = 300 * time.Millisecond

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.client.capture(ctx)
	doc := s.docs.update(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.client.capture(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.update(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		content,
	)

	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(debounceDelay, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("analyze %s: %v", doc.URI, r)
			}
		}()
		if d := s.docs.lookup(doc.URI); d != nil {
			s.analyzeAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.client.capture(ctx)
	s.cancelDebounce(params.TextDocument.URI)
	if doc := s.docs.lookup(params.TextDocument.URI); doc != nil {
		s.analyzeAndPublish(doc)
	}
	return nil
}

func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelDebounce(params.TextDocument.URI)

	// Clear diagnostics for the closed file.
	s.client.notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.remove(params.TextDocument.URI)
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// analyzeAndPublish binds and lints a document and publishes the
// resulting diagnostics to the client.
func (s *Server) analyzeAndPublish(doc *Document) {
	s.ensureAnalysis(doc)

	doc.mu.Lock()
	parseErr := doc.parseErr
	content := doc.Content
	lintDiags := doc.lint
	uri := doc.URI
	doc.mu.Unlock()

	diags := []protocol.Diagnostic{}
	if parseErr != nil {
		diags = append(diags, protocol.Diagnostic{
			Range:    parseErrorRange(content, parseErr),
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr("sharpbind"),
			Message:  parseErr.Error(),
		})
	}
	for _, d := range lintDiags {
		diags = append(diags, convertLintDiagnostic(content, d))
	}
	log.Debugf("publish %d diagnostics for %s", len(diags), uri)

	s.client.notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// convertLintDiagnostic converts a lint.Diagnostic to an LSP Diagnostic.
// Binder diagnostics carry their code; analyzer diagnostics carry the
// analyzer name.
func convertLintDiagnostic(content string, d lint.Diagnostic) protocol.Diagnostic {
	sev := mapLintSeverity(d.Severity)
	code := d.Analyzer
	source := "sharpbind-lint"
	if d.Analyzer == lint.BindAnalyzer {
		code = string(d.Code)
		source = "sharpbind"
	}
	msg := d.Message
	for _, n := range d.Notes {
		msg += "\nnote: " + n
	}
	return protocol.Diagnostic{
		Range:    lintRange(content, d.Pos),
		Severity: &sev,
		Source:   strPtr(source),
		Code:     &protocol.IntegerOrString{Value: code},
		Message:  msg,
	}
}

// lintRange covers the reported columns, or the word at the start column
// when the diagnostic has no extent.
func lintRange(content string, pos lint.Position) protocol.Range {
	if pos.Line <= 0 || pos.Col <= 0 || pos.EndCol <= pos.Col {
		return wordRange(content, pos.Line, pos.Col)
	}
	line := safeUint(pos.Line - 1)
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: safeUint(pos.Col - 1)},
		End:   protocol.Position{Line: line, Character: safeUint(pos.EndCol - 1)},
	}
}

func mapLintSeverity(sev lint.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return protocol.DiagnosticSeverityError
	case lint.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case lint.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

// parseErrorRange returns the range of a syntax error, or the start of the
// document when err has no location.
func parseErrorRange(content string, err error) protocol.Range {
	var perr *parser.Error
	if errors.As(err, &perr) && perr.Loc.IsValid() {
		return locationRange(content, perr.Loc)
	}
	return protocol.Range{}
}

func strPtr(s string) *string {
	return &s
}
