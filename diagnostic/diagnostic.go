// Copyright © 2024 The ELPS authors

// Package diagnostic defines the diagnostics reported by the binder, the
// Bag they accumulate in, and Rust-style annotated rendering for CLI
// output.  It depends only on the syntax package so that every layer above
// the parser can report through it.
package diagnostic

import (
	"fmt"

	"github.com/luthersystems/sharpbind/syntax"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Span identifies a region of source code to highlight in the diagnostic.
type Span struct {
	File   string `json:"file"`              // path for reading source; display name if unreadable
	Line   int    `json:"line"`              // 1-based line number
	Col    int    `json:"col"`               // 1-based start column
	EndCol int    `json:"end_col,omitempty"` // 1-based end column (0 = auto-detect from source)
	Label  string `json:"label,omitempty"`   // text shown under the underline
}

// SpanOf returns the span covering loc.  Spans are single-line; the
// underline of a multi-line location is clipped by the renderer.
func SpanOf(loc syntax.Location, label string) Span {
	s := Span{File: loc.File, Line: loc.Line, Col: loc.Col, Label: label}
	if loc.End > loc.Pos {
		s.EndCol = loc.Col + loc.Width() - 1
	}
	return s
}

// Diagnostic is a single error, warning or note.  Args are the message
// arguments as reported; Message is the formatted text.
type Diagnostic struct {
	Code     Code            `json:"code"`
	Severity Severity        `json:"severity"`
	Location syntax.Location `json:"-"`
	Message  string          `json:"message"`
	Args     []interface{}   `json:"-"`
	Spans    []Span          `json:"spans,omitempty"`
	Notes    []string        `json:"notes,omitempty"` // "= note:" lines
}

// New returns a diagnostic for code at loc.  The message is the code's
// format applied to args, and the primary span covers loc.
func New(code Code, loc syntax.Location, args ...interface{}) Diagnostic {
	info := code.Info()
	d := Diagnostic{
		Code:     code,
		Severity: info.Severity,
		Location: loc,
		Args:     args,
		Message:  fmt.Sprintf(info.Format, args...),
	}
	if loc.IsValid() {
		d.Spans = []Span{SpanOf(loc, "")}
	}
	return d
}

// WithNote returns a copy of d with an extra note line.
func (d Diagnostic) WithNote(format string, v ...interface{}) Diagnostic {
	d.Notes = append(append([]string(nil), d.Notes...), fmt.Sprintf(format, v...))
	return d
}

// WithLabel returns a copy of d whose primary span carries label.
func (d Diagnostic) WithLabel(label string) Diagnostic {
	if len(d.Spans) == 0 {
		return d
	}
	d.Spans = append([]Span(nil), d.Spans...)
	d.Spans[0].Label = label
	return d
}

// WithSecondary returns a copy of d with an additional span at loc.
func (d Diagnostic) WithSecondary(loc syntax.Location, label string) Diagnostic {
	if !loc.IsValid() {
		return d
	}
	d.Spans = append(append([]Span(nil), d.Spans...), SpanOf(loc, label))
	return d
}

// String returns "file:line:col: severity CODE: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Location, d.Severity, d.Code, d.Message)
}
