// Copyright © 2024 The ELPS authors

// Package syntax defines the purely syntactic expression trees consumed by
// the binder, along with the small script format used to describe local
// declarations, imports and nested scopes around those expressions.
package syntax

import "fmt"

// Location is a position in a source file.  Pos is the zero-based byte
// offset and determines source order; Line and Col are one-based and only
// used for display.
type Location struct {
	File string
	Pos  int
	Line int
	Col  int
	// End is the byte offset just past the located text, or zero when the
	// extent is unknown.
	End int
}

// Before reports whether loc occurs strictly before other in source order.
func (loc Location) Before(other Location) bool {
	if loc.File != other.File {
		return loc.File < other.File
	}
	return loc.Pos < other.Pos
}

// IsValid reports whether loc refers to a real position.
func (loc Location) IsValid() bool {
	return loc.Line > 0
}

// Width returns the number of bytes covered by loc, at least one.
func (loc Location) Width() int {
	if loc.End > loc.Pos {
		return loc.End - loc.Pos
	}
	return 1
}

// Contains reports whether the byte offset pos falls inside loc.
func (loc Location) Contains(pos int) bool {
	return pos >= loc.Pos && pos < loc.Pos+loc.Width()
}

func (loc Location) String() string {
	file := loc.File
	if file == "" {
		file = "<expr>"
	}
	if loc.Line == 0 {
		return file
	}
	return fmt.Sprintf("%s:%d:%d", file, loc.Line, loc.Col)
}
