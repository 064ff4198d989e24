// Copyright © 2018 The ELPS authors

package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func completions(c *symbolCompleter, line string) ([]string, int) {
	candidates, offset := c.Do([]rune(line), len([]rune(line)))
	var out []string
	for _, r := range candidates {
		out = append(out, string(r))
	}
	return out, offset
}

func TestSymbolCompleter(t *testing.T) {
	s, _ := newSession(t)
	s.Eval("int counter = 1;")
	s.Eval(`var text = "abc";`)
	c := &symbolCompleter{session: s}

	// Locals, imported types and keywords.
	got, offset := completions(c, "1 + cou")
	assert.Equal(t, 3, offset)
	assert.Contains(t, got, "nter")

	got, _ = completions(c, "Cons")
	assert.Contains(t, got, "ole")

	got, _ = completions(c, "from x in y sel")
	assert.Contains(t, got, "ect")

	// Members of the receiver's type.
	got, offset = completions(c, "text.Sub")
	assert.Equal(t, 3, offset)
	assert.Equal(t, []string{"string"}, got)

	// Types of a namespace.
	got, _ = completions(c, "System.Collections.Gen")
	assert.Contains(t, got, "eric")

	got, _ = completions(c, "zzz")
	assert.Empty(t, got)
}
