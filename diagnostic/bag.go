// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"sort"
	"sync"

	"github.com/luthersystems/sharpbind/syntax"
)

// Bag accumulates diagnostics.  It is safe for concurrent use so that
// independent bindings may share one bag.
type Bag struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// NewBag returns an empty bag.
func NewBag() *Bag { return &Bag{} }

// Add appends d.
func (b *Bag) Add(d Diagnostic) {
	b.mu.Lock()
	b.diags = append(b.diags, d)
	b.mu.Unlock()
}

// Report constructs a diagnostic with New and adds it.
func (b *Bag) Report(code Code, loc syntax.Location, args ...interface{}) Diagnostic {
	d := New(code, loc, args...)
	b.Add(d)
	return d
}

// AddAll appends every diagnostic in other.  Adding a bag to itself is a
// no-op.
func (b *Bag) AddAll(other *Bag) {
	if other == nil || other == b {
		return
	}
	ds := other.Diagnostics()
	b.mu.Lock()
	b.diags = append(b.diags, ds...)
	b.mu.Unlock()
}

// Diagnostics returns a copy of the bag's contents in insertion order.
func (b *Bag) Diagnostics() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Diagnostic(nil), b.diags...)
}

// Sorted returns the contents ordered by position, then code.  Diagnostics
// at the same position keep their insertion order.
func (b *Bag) Sorted() []Diagnostic {
	ds := b.Diagnostics()
	sort.SliceStable(ds, func(i, j int) bool {
		li, lj := ds[i].Location, ds[j].Location
		if li.File != lj.File {
			return li.File < lj.File
		}
		if li.Pos != lj.Pos {
			return li.Pos < lj.Pos
		}
		return ds[i].Code < ds[j].Code
	})
	return ds
}

func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.diags)
}

// HasErrors reports whether any diagnostic has error severity.
func (b *Bag) HasErrors() bool { return b.ErrorCount() > 0 }

func (b *Bag) ErrorCount() int { return b.count(SeverityError) }

func (b *Bag) WarningCount() int { return b.count(SeverityWarning) }

func (b *Bag) count(sev Severity) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for i := range b.diags {
		if b.diags[i].Severity == sev {
			n++
		}
	}
	return n
}

// Codes returns the code of every diagnostic in insertion order.
func (b *Bag) Codes() []Code {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Code, len(b.diags))
	for i := range b.diags {
		out[i] = b.diags[i].Code
	}
	return out
}

// Clear removes every diagnostic.
func (b *Bag) Clear() {
	b.mu.Lock()
	b.diags = nil
	b.mu.Unlock()
}
