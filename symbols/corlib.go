// Copyright © 2024 The ELPS authors

package symbols

import (
	_ "embed"
	"strings"
)

//go:embed corlib.yaml
var corlibYAML string

// NewCorLib returns a table populated with the core library: System,
// System.Collections, System.Collections.Generic and System.Linq.
func NewCorLib() *Table {
	t := NewTable()
	if err := LoadYAML(t, "corlib.yaml", strings.NewReader(corlibYAML)); err != nil {
		panic("corlib: " + err.Error())
	}
	t.script.SetBase(t.Object())
	return t
}
