// Copyright © 2024 The ELPS authors

// Package lsp implements a Language Server Protocol server for scripts.
// It publishes binder and lint diagnostics and answers hover,
// go-to-definition, references, rename, completion and document symbol
// requests from the bound tree of each open document.
package lsp

import (
	"os"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/lint"
	"github.com/luthersystems/sharpbind/symbols"
)

const serverName = "sharpbind-lsp"

var log = commonlog.GetLogger("sharpbind.lsp")

// Server is the script language server.
type Server struct {
	handler protocol.Handler
	glspSrv *glspserver.Server
	docs    *workspace
	rootURI string

	context *binder.Context // shared by every document
	linter  *lint.Linter

	// pending analyses, one per URI, reset by each didChange
	debounceMu sync.Mutex
	debounce   map[string]*time.Timer

	client notifier

	exitFn func(int)
}

// Option configures the LSP server.
type Option func(*Server)

// WithContext binds documents with ctx instead of a context over the
// core library.
func WithContext(ctx *binder.Context) Option {
	return func(s *Server) { s.context = ctx }
}

// WithAnalyzers replaces the default lint analyzers.
func WithAnalyzers(analyzers ...*lint.Analyzer) Option {
	return func(s *Server) { s.linter.Analyzers = analyzers }
}

// New creates a new language server.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		docs:     newWorkspace(),
		linter:   &lint.Linter{Analyzers: lint.DefaultAnalyzers()},
		debounce: make(map[string]*time.Timer),
		exitFn:   os.Exit,
	}
	for _, o := range opts {
		o(s)
	}
	if s.context == nil {
		ctx, err := binder.NewContext(symbols.NewCorLib(), binder.Options{})
		if err != nil {
			return nil, err
		}
		s.context = ctx
	}
	s.linter.Context = s.context

	s.handler = protocol.Handler{
		Initialize: s.initialize,
		Shutdown:   s.shutdown,
		Exit:       s.exit,
		SetTrace:   s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover:          s.textDocumentHover,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentReferences:     s.textDocumentReferences,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		TextDocumentRename:         s.textDocumentRename,
		TextDocumentPrepareRename:  s.textDocumentPrepareRename,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s, nil
}

// RunStdio serves a single client over stdin and stdout.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP serves clients connecting to addr.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.client.capture(ctx)

	if params.RootURI != nil {
		s.rootURI = *params.RootURI
	} else if params.RootPath != nil {
		s.rootURI = pathToURI(*params.RootPath)
	}
	log.Infof("initialize: root %q", s.rootURI)

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}
	capabilities.RenameProvider = &protocol.RenameOptions{
		PrepareProvider: boolPtr(true),
	}

	version := "0.1.0"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

// shutdown drops pending analyses.  Documents stay open until exit.
func (s *Server) shutdown(_ *glsp.Context) error {
	s.debounceMu.Lock()
	pending := s.debounce
	s.debounce = make(map[string]*time.Timer)
	s.debounceMu.Unlock()
	for uri, t := range pending {
		t.Stop()
		log.Debugf("shutdown: dropped analysis of %s", uri)
	}
	return nil
}

func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// ensureAnalysis binds and lints doc if its content changed since the
// last analysis.
func (s *Server) ensureAnalysis(doc *Document) {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.analyzed {
		return
	}
	doc.analyze(s.context, s.linter)
}

// notifier sends server-initiated notifications through the connection of
// the most recent client message.  Diagnostics published after a debounce
// have no request of their own.
type notifier struct {
	mu sync.Mutex
	fn glsp.NotifyFunc
}

func (n *notifier) capture(ctx *glsp.Context) {
	n.mu.Lock()
	n.fn = ctx.Notify
	n.mu.Unlock()
}

func (n *notifier) notify(method string, params any) {
	n.mu.Lock()
	fn := n.fn
	n.mu.Unlock()
	if fn == nil {
		log.Debugf("no client connection for %s", method)
		return
	}
	fn(method, params)
}

func boolPtr(b bool) *bool {
	return &b
}
