// Copyright © 2018 The ELPS authors

package repl

import (
	"sort"
	"strings"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/symbols"
)

// symbolCompleter implements readline.AutoCompleter by enumerating the
// names visible in a session: locals, script globals, imported types and
// query keywords.  After a dot it completes the members of the receiver.
type symbolCompleter struct {
	session *Session
}

var keywords = []string{
	"ascending", "by", "descending", "equals", "from", "group", "in", "into",
	"join", "let", "new", "on", "orderby", "select", "typeof", "using",
	"var", "where",
}

func (c *symbolCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the word being typed (backwards from cursor to a delimiter).
	start := pos
	for start > 0 {
		ch := line[start-1]
		if !isWordRune(ch) && ch != '.' {
			break
		}
		start--
	}
	word := string(line[start:pos])
	if word == "" {
		return nil, 0
	}

	var candidates []string
	prefix := word
	if dot := strings.LastIndexByte(word, '.'); dot >= 0 {
		prefix = word[dot+1:]
		candidates = c.collectMembers(word[:dot], prefix)
	} else {
		candidates = c.collectSymbols(prefix)
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	// Build completions: each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, sym := range candidates {
		result = append(result, []rune(sym[len(prefix):]))
	}
	return result, len(prefix)
}

func isWordRune(ch rune) bool {
	return ch == '_' || ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func (c *symbolCompleter) collectSymbols(prefix string) []string {
	seen := make(map[string]bool)
	var result []string
	add := func(name string) {
		if strings.HasPrefix(name, prefix) && !strings.HasPrefix(name, "<") && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	for _, l := range c.session.locals {
		add(l.Name())
	}
	table := c.session.ctx.Table
	for _, m := range table.ScriptClass().Members() {
		add(m.Name())
	}
	usings := c.session.ctx.Options.Usings
	if usings == nil {
		usings = binder.DefaultUsings
	}
	for _, u := range usings {
		if ns := table.LookupNamespace(u); ns != nil {
			for _, t := range ns.Types() {
				add(t.Name())
			}
		}
	}
	for _, ns := range table.GlobalNamespace().Namespaces() {
		add(ns.Name())
	}
	for _, kw := range keywords {
		add(kw)
	}

	sort.Strings(result)
	return result
}

// collectMembers binds recv quietly and lists the members of its type,
// or of the type or namespace it names.
func (c *symbolCompleter) collectMembers(recv, prefix string) []string {
	table := c.session.ctx.Table
	seen := make(map[string]bool)
	var result []string
	add := func(name string) {
		if strings.HasPrefix(name, prefix) && !strings.HasPrefix(name, "<") && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	if ns := table.LookupNamespace(recv); ns != nil {
		for _, t := range ns.Types() {
			add(t.Name())
		}
		for _, n := range ns.Namespaces() {
			add(n.Name())
		}
		sort.Strings(result)
		return result
	}
	t := c.session.typeOf(recv)
	for t != nil {
		nt, ok := t.(*symbols.NamedType)
		if !ok {
			break
		}
		for _, m := range nt.Members() {
			if m.Kind() == symbols.KindMethod {
				if mm := m.(*symbols.Method); mm.IsConstructor() {
					continue
				}
			}
			add(m.Name())
		}
		t = nt.BaseType()
	}
	sort.Strings(result)
	return result
}
