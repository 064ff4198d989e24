// Copyright © 2024 The ELPS authors

package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/syntax"
)

const testURI = "file:///work/test.csx"

const testScript = `var xs = new List<int>();
const int limit = 10;
var big = from x in xs where x > limit select x * 2;
limit + 1;
`

func testServer(t *testing.T) *Server {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

// openDoc opens a document in the test server and returns it.
func openDoc(s *Server, uri, content string) *Document {
	return s.docs.update(uri, 1, content)
}

// capturingContext returns a context that captures published diagnostics.
func capturingContext() (*glsp.Context, *[]*protocol.PublishDiagnosticsParams) {
	var captured []*protocol.PublishDiagnosticsParams
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				captured = append(captured, params.(*protocol.PublishDiagnosticsParams))
			}
		},
	}
	return ctx, &captured
}

func pos(line, char int) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(char)}
}

func docPos(line, char int) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Position:     pos(line, char),
	}
}

// completionLabels extracts labels from a completion result.
func completionLabels(t *testing.T, result any) []string {
	t.Helper()
	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok, "completion result should be []CompletionItem, got %T", result)
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	return labels
}

func TestOffsetPosition(t *testing.T) {
	content := "ab\ncde\n\nf"
	assert.Equal(t, pos(0, 0), offsetPosition(content, 0))
	assert.Equal(t, pos(0, 2), offsetPosition(content, 2))
	assert.Equal(t, pos(1, 0), offsetPosition(content, 3))
	assert.Equal(t, pos(1, 2), offsetPosition(content, 5))
	assert.Equal(t, pos(3, 0), offsetPosition(content, 8))
	assert.Equal(t, pos(3, 1), offsetPosition(content, 100))

	for off := 0; off <= len(content); off++ {
		assert.Equal(t, off, positionOffset(content, offsetPosition(content, off)), "offset %d", off)
	}
	// Characters past the end of a line clamp to it.
	assert.Equal(t, 6, positionOffset(content, pos(1, 50)))
	assert.Equal(t, len(content), positionOffset(content, pos(9, 0)))
}

func TestLocationRange(t *testing.T) {
	content := "int a;\nint bb = a;"
	r := locationRange(content, syntax.Location{Pos: 11, Line: 2, Col: 5, End: 13})
	assert.Equal(t, pos(1, 4), r.Start)
	assert.Equal(t, pos(1, 6), r.End)

	r = wordRange(content, 2, 5)
	assert.Equal(t, pos(1, 4), r.Start)
	assert.Equal(t, pos(1, 6), r.End)
}

func TestWorkspace(t *testing.T) {
	ws := newWorkspace()
	doc := ws.update(testURI, 1, "int a = 1;")
	require.NotNil(t, doc)
	assert.NotNil(t, doc.script)
	assert.NoError(t, doc.parseErr)
	assert.Same(t, doc, ws.lookup(testURI))
	assert.Nil(t, ws.lookup("file:///nonexistent.csx"))

	changed := ws.update(testURI, 3, "int a = ;")
	assert.Same(t, doc, changed)
	assert.Equal(t, int32(3), changed.Version)
	assert.Nil(t, changed.script)
	assert.Error(t, changed.parseErr)
	assert.False(t, changed.analyzed)

	// A late update for an older version is ignored.
	stale := ws.update(testURI, 2, "int a = 2;")
	assert.Equal(t, int32(3), stale.Version)
	assert.Equal(t, "int a = ;", stale.Content)

	ws.remove(testURI)
	assert.Nil(t, ws.lookup(testURI))
}

func TestPublishDiagnostics(t *testing.T) {
	s := testServer(t)
	ctx, captured := capturingContext()

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: testURI, Version: 1, Text: "int a = 1;\nint b = fnord;"},
	})
	require.NoError(t, err)
	require.Len(t, *captured, 1)
	diags := (*captured)[0].Diagnostics
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, string(diagnostic.NameNotFound), d.Code.Value)
	assert.Equal(t, "sharpbind", *d.Source)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Equal(t, pos(1, 8), d.Range.Start)
	assert.Equal(t, pos(1, 13), d.Range.End)
	assert.Contains(t, d.Message, "fnord")

	// Saving a clean document clears them.
	s.docs.update(testURI, 2, "int a = 1;")
	err = s.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	require.Len(t, *captured, 2)
	assert.Empty(t, (*captured)[1].Diagnostics)

	err = s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	assert.Nil(t, s.docs.lookup(testURI))
}

func TestPublishParseError(t *testing.T) {
	s := testServer(t)
	ctx, captured := capturingContext()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: testURI, Version: 1, Text: "int a = ;"},
	})
	require.NoError(t, err)
	require.Len(t, *captured, 1)
	diags := (*captured)[0].Diagnostics
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)
	assert.Nil(t, diags[0].Code)
	assert.Equal(t, protocol.UInteger(0), diags[0].Range.Start.Line)
}

func TestPublishLintDiagnostics(t *testing.T) {
	s := testServer(t)
	ctx, captured := capturingContext()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: testURI, Version: 1, Text: "int n = 1;\nvar a = true ? n : 2;"},
	})
	require.NoError(t, err)
	require.Len(t, *captured, 1)
	diags := (*captured)[0].Diagnostics
	require.Len(t, diags, 1)
	assert.Equal(t, "constant-condition", diags[0].Code.Value)
	assert.Equal(t, "sharpbind-lint", *diags[0].Source)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *diags[0].Severity)
}

func TestHover(t *testing.T) {
	s := testServer(t)
	openDoc(s, testURI, testScript)

	hover := func(line, char int) string {
		h, err := s.textDocumentHover(nil, &protocol.HoverParams{TextDocumentPositionParams: docPos(line, char)})
		require.NoError(t, err)
		if h == nil {
			return ""
		}
		return h.Contents.(protocol.MarkupContent).Value
	}

	assert.Contains(t, hover(3, 1), "(constant) int limit = 10")
	assert.Contains(t, hover(1, 12), "(constant) int limit = 10")
	assert.Contains(t, hover(0, 5), "(local) List<int> xs")
	assert.Contains(t, hover(2, 5), "(local) IEnumerable<int> big")
	assert.Contains(t, hover(2, 29), "(range variable) int x")
	assert.Equal(t, "", hover(4, 0))
}

func TestDefinition(t *testing.T) {
	s := testServer(t)
	openDoc(s, testURI, testScript)

	res, err := s.textDocumentDefinition(nil, &protocol.DefinitionParams{TextDocumentPositionParams: docPos(3, 2)})
	require.NoError(t, err)
	loc, ok := res.(protocol.Location)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, testURI, loc.URI)
	assert.Equal(t, pos(1, 10), loc.Range.Start)
	assert.Equal(t, pos(1, 15), loc.Range.End)

	// Metadata symbols have no definition.
	res, err = s.textDocumentDefinition(nil, &protocol.DefinitionParams{TextDocumentPositionParams: docPos(0, 14)})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestReferences(t *testing.T) {
	s := testServer(t)
	openDoc(s, testURI, testScript)

	params := &protocol.ReferenceParams{TextDocumentPositionParams: docPos(1, 11)}
	params.Context.IncludeDeclaration = true
	locs, err := s.textDocumentReferences(nil, params)
	require.NoError(t, err)
	require.Len(t, locs, 3)
	assert.Equal(t, pos(1, 10), locs[0].Range.Start)
	assert.Equal(t, pos(2, 33), locs[1].Range.Start)
	assert.Equal(t, pos(3, 0), locs[2].Range.Start)

	params.Context.IncludeDeclaration = false
	locs, err = s.textDocumentReferences(nil, params)
	require.NoError(t, err)
	assert.Len(t, locs, 2)
}

func TestRename(t *testing.T) {
	s := testServer(t)
	openDoc(s, testURI, testScript)

	prep, err := s.textDocumentPrepareRename(nil, &protocol.PrepareRenameParams{TextDocumentPositionParams: docPos(3, 3)})
	require.NoError(t, err)
	rp, ok := prep.(*protocol.RangeWithPlaceholder)
	require.True(t, ok, "got %T", prep)
	assert.Equal(t, "limit", rp.Placeholder)
	assert.Equal(t, pos(3, 0), rp.Range.Start)
	assert.Equal(t, pos(3, 5), rp.Range.End)

	edit, err := s.textDocumentRename(nil, &protocol.RenameParams{TextDocumentPositionParams: docPos(3, 3), NewName: "max"})
	require.NoError(t, err)
	assert.Len(t, edit.Changes[testURI], 3)
	for _, e := range edit.Changes[testURI] {
		assert.Equal(t, "max", e.NewText)
	}

	_, err = s.textDocumentRename(nil, &protocol.RenameParams{TextDocumentPositionParams: docPos(3, 3), NewName: "1x"})
	assert.Error(t, err)

	prep, err = s.textDocumentPrepareRename(nil, &protocol.PrepareRenameParams{TextDocumentPositionParams: docPos(0, 14)})
	require.NoError(t, err)
	assert.Nil(t, prep)
}

func TestDocumentSymbols(t *testing.T) {
	s := testServer(t)
	openDoc(s, testURI, testScript)

	res, err := s.textDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	syms, ok := res.([]protocol.DocumentSymbol)
	require.True(t, ok)
	require.Len(t, syms, 3)
	assert.Equal(t, "xs", syms[0].Name)
	assert.Equal(t, protocol.SymbolKindVariable, syms[0].Kind)
	assert.Equal(t, "limit", syms[1].Name)
	assert.Equal(t, protocol.SymbolKindConstant, syms[1].Kind)
	assert.Equal(t, "int", *syms[1].Detail)
	assert.Equal(t, "big", syms[2].Name)
}

func TestCompletion(t *testing.T) {
	s := testServer(t)
	content := testScript + "limit;\nxs.Count;\nConsole.WriteLine(1);\n" +
		"var e = default(System.Collections.Generic.IEnumerable<int>);\n"
	openDoc(s, testURI, content)

	complete := func(line, char int) []string {
		res, err := s.textDocumentCompletion(nil, &protocol.CompletionParams{TextDocumentPositionParams: docPos(line, char)})
		require.NoError(t, err)
		return completionLabels(t, res)
	}

	assert.Contains(t, complete(4, 2), "limit")
	assert.Contains(t, complete(5, 6), "Count")
	assert.Contains(t, complete(6, 5), "Console")
	assert.Contains(t, complete(7, 38), "Generic")

	// Locals are offered only after their declaration.
	assert.NotContains(t, complete(0, 0), "big")
}

func TestInitialize(t *testing.T) {
	s := testServer(t)
	root := "file:///work"
	res, err := s.initialize(&glsp.Context{}, &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)
	result, ok := res.(protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, serverName, result.ServerInfo.Name)
	assert.NotNil(t, result.Capabilities.HoverProvider)
	assert.NotNil(t, result.Capabilities.CompletionProvider)
	assert.Equal(t, root, s.rootURI)

	var code = -1
	s.exitFn = func(c int) { code = c }
	require.NoError(t, s.shutdown(nil))
	require.NoError(t, s.exit(nil))
	assert.Equal(t, 0, code)
}
