// Copyright © 2024 The ELPS authors

package lsp

import (
	"sync"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/lint"
	"github.com/luthersystems/sharpbind/syntax"
	"github.com/luthersystems/sharpbind/syntax/parser"
)

// Document is an open script with its most recent parse, bind and lint
// results.  Fields are guarded by mu.
type Document struct {
	mu       sync.Mutex
	URI      string
	Version  int32
	Content  string
	script   *syntax.Script
	parseErr error

	analyzed bool
	result   *binder.ScriptResult
	lint     []lint.Diagnostic
}

// parse parses the document content.  A script with a syntax error has no
// tree; only the error is reported for it.
func (d *Document) parse() {
	d.script, d.parseErr = parser.ParseScript(uriToPath(d.URI), d.Content)
	d.analyzed = false
	d.result = nil
	d.lint = nil
}

// analyze binds the parsed script and lints the result.
func (d *Document) analyze(ctx *binder.Context, l *lint.Linter) {
	d.analyzed = true
	if d.script == nil {
		return
	}
	res, err := ctx.BindScript(d.script)
	if err != nil {
		log.Errorf("bind %s: %v", d.URI, err)
		return
	}
	d.result = res
	diags, err := l.LintBound(res, []byte(d.Content), uriToPath(d.URI))
	if err != nil {
		log.Errorf("lint %s: %v", d.URI, err)
		return
	}
	d.lint = diags
}

// workspace holds the open documents, keyed by URI.
type workspace struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func newWorkspace() *workspace {
	return &workspace{docs: make(map[string]*Document)}
}

// update replaces the text of the document at uri, creating it if needed,
// and re-parses it.  An update older than the stored version is dropped and
// the stored document returned unchanged.
func (w *workspace) update(uri string, version int32, text string) *Document {
	w.mu.Lock()
	doc := w.docs[uri]
	if doc == nil {
		doc = &Document{URI: uri, Version: -1}
		w.docs[uri] = doc
	}
	w.mu.Unlock()

	doc.mu.Lock()
	defer doc.mu.Unlock()
	if version < doc.Version {
		return doc
	}
	doc.Version, doc.Content = version, text
	doc.parse()
	return doc
}

func (w *workspace) remove(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, uri)
}

// lookup returns the open document at uri, or nil.
func (w *workspace) lookup(uri string) *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.docs[uri]
}
