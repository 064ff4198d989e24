// Copyright © 2024 The ELPS authors

// Package lint provides static analysis for bound scripts.
//
// The linter is modeled after go vet: each check is an independent Analyzer
// that receives the bound trees of a script and reports diagnostics. The
// framework handles parsing, binding, running analyzers, collecting results,
// and formatting output.
//
// Analyzers only see scripts that bind; binder errors are returned as
// diagnostics of the "bind" pseudo-analyzer and no check runs.
package lint

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/syntax"
	"github.com/luthersystems/sharpbind/syntax/parser"
)

// Severity indicates the severity level of a lint diagnostic.  The zero
// value means the analyzer's default.
type Severity int

const (
	severityUnset Severity = iota
	SeverityError
	SeverityWarning
	SeverityInfo
)

var severityNames = [...]string{
	SeverityError:   "error",
	SeverityWarning: "warning",
	SeverityInfo:    "info",
}

func (s Severity) String() string {
	if s > severityUnset && int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.  An unset severity is
// written as "warning".
func (s Severity) MarshalText() ([]byte, error) {
	if s == severityUnset {
		s = SeverityWarning
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	for i, name := range severityNames {
		if name != "" && name == string(text) {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity: %q", text)
}

// severityOf maps a binder severity onto the lint scale.
func severityOf(s diagnostic.Severity) Severity {
	switch s {
	case diagnostic.SeverityError:
		return SeverityError
	case diagnostic.SeverityNote:
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is a short identifier for this check (e.g. "identity-select").
	Name string

	// Doc is a human-readable description. The first line is a short summary.
	Doc string

	// Severity is the default severity for diagnostics from this analyzer.
	Severity Severity

	// Run executes the check. It should call pass.Report() for each finding.
	Run func(pass *Pass) error
}

// Pass provides context to a running analyzer.
type Pass struct {
	// Analyzer is the currently running check.
	Analyzer *Analyzer

	// Filename is the source file being analyzed.
	Filename string

	// Script is the bound script.
	Script *binder.ScriptResult

	// diagnostics collects reported findings.
	diagnostics []Diagnostic
}

// Exprs returns the bound expressions of the script in source order.
func (p *Pass) Exprs() []bound.Expr {
	return p.Script.Exprs
}

// Report records a diagnostic finding.  A diagnostic without a file is
// placed in the file being analyzed.
func (p *Pass) Report(d Diagnostic) {
	d.Analyzer = p.Analyzer.Name
	if d.Severity == severityUnset {
		d.Severity = p.Analyzer.Severity
	}
	if d.Pos.File == "" {
		d.Pos.File = p.Filename
	}
	p.diagnostics = append(p.diagnostics, d)
}

// ReportWithNotes records a diagnostic with additional hint text.
func (p *Pass) ReportWithNotes(d Diagnostic, notes ...string) {
	d.Notes = append(d.Notes, notes...)
	p.Report(d)
}

// Reportf is a convenience for reporting a diagnostic at a location.
func (p *Pass) Reportf(loc syntax.Location, format string, args ...interface{}) {
	p.Report(Diagnostic{
		Pos:     PositionOf(loc),
		Message: fmt.Sprintf(format, args...),
	})
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	// Pos is the source location of the problem.
	Pos Position `json:"pos"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`

	// Analyzer is the name of the check that found this problem.
	Analyzer string `json:"analyzer"`

	// Severity is the severity level of the diagnostic.
	Severity Severity `json:"severity"`

	// Code is the binder diagnostic code for diagnostics of the "bind"
	// pseudo-analyzer.
	Code diagnostic.Code `json:"code,omitempty"`

	// Notes are optional hint text lines for the user.
	Notes []string `json:"notes,omitempty"`
}

// Position identifies a location in source code.  EndCol, when set, is the
// column just past the reported text on the same line.
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Col    int    `json:"col,omitempty"`
	EndCol int    `json:"end_col,omitempty"`
}

// PositionOf converts a syntax location.
func PositionOf(loc syntax.Location) Position {
	p := Position{File: loc.File, Line: loc.Line, Col: loc.Col}
	if w := loc.Width(); w > 0 {
		p.EndCol = loc.Col + w
	}
	return p
}

// String returns the position as file, file:line or file:line:col.
func (p Position) String() string {
	switch {
	case p.Line == 0:
		return p.File
	case p.Col == 0:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
}

// String returns the diagnostic as "pos: message (analyzer)" followed by
// its notes.  Binder diagnostics carry their code after the analyzer name.
func (d Diagnostic) String() string {
	var b strings.Builder
	check := d.Analyzer
	if d.Code != "" {
		check += " " + string(d.Code)
	}
	fmt.Fprintf(&b, "%s: %s (%s)", d.Pos, d.Message, check)
	for _, n := range d.Notes {
		b.WriteString("\n  = note: ")
		b.WriteString(n)
	}
	return b.String()
}

// BindAnalyzer is the pseudo-analyzer that binder diagnostics are
// attributed to.
const BindAnalyzer = "bind"

// Linter runs a set of analyzers over source files.
type Linter struct {
	Analyzers []*Analyzer
	// Context binds the linted scripts.
	Context *binder.Context
}

// LintFile parses and binds a script, then analyzes it.
func (l *Linter) LintFile(source []byte, filename string) ([]Diagnostic, error) {
	s, err := parser.ParseScript(filename, string(source))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	res, err := l.Context.BindScript(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return l.LintBound(res, source, filename)
}

// LintBound analyzes a script already bound from source.  Diagnostics
// suppressed by nolint comments in source are dropped.
func (l *Linter) LintBound(res *binder.ScriptResult, source []byte, filename string) ([]Diagnostic, error) {
	all, err := l.LintScript(res, filename)
	if err != nil {
		return nil, err
	}
	all = parseSuppressions(source).filter(all)
	sortDiagnostics(all)
	return all, nil
}

// LintScript analyzes a bound script.  When binding reported errors the
// errors are returned and no analyzer runs.
func (l *Linter) LintScript(res *binder.ScriptResult, filename string) ([]Diagnostic, error) {
	var all []Diagnostic
	for _, d := range res.Diagnostics.Sorted() {
		all = append(all, Diagnostic{
			Pos:      PositionOf(d.Location),
			Message:  d.Message,
			Analyzer: BindAnalyzer,
			Severity: severityOf(d.Severity),
			Code:     d.Code,
			Notes:    d.Notes,
		})
	}
	if res.Diagnostics.HasErrors() {
		return all, nil
	}

	for _, analyzer := range l.Analyzers {
		pass := &Pass{
			Analyzer: analyzer,
			Filename: filename,
			Script:   res,
		}
		if err := analyzer.Run(pass); err != nil {
			return nil, fmt.Errorf("%s: analyzer %s: %w", filename, analyzer.Name, err)
		}
		all = append(all, pass.diagnostics...)
	}
	return all, nil
}

func sortDiagnostics(all []Diagnostic) {
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Pos.File != all[j].Pos.File {
			return all[i].Pos.File < all[j].Pos.File
		}
		if all[i].Pos.Line != all[j].Pos.Line {
			return all[i].Pos.Line < all[j].Pos.Line
		}
		return all[i].Pos.Col < all[j].Pos.Col
	})
}

// suppressions maps a line number to the analyzers its nolint comment
// names.  An empty list suppresses every analyzer on the line.
type suppressions map[int][]string

// parseSuppressions collects "// nolint" and "// nolint:a,b" comments.
func parseSuppressions(source []byte) suppressions {
	sup := make(suppressions)
	sc := bufio.NewScanner(bytes.NewReader(source))
	for line := 1; sc.Scan(); line++ {
		_, comment, ok := strings.Cut(sc.Text(), "//")
		if !ok {
			continue
		}
		rest, ok := strings.CutPrefix(strings.TrimSpace(comment), "nolint")
		switch {
		case !ok:
		case rest == "":
			sup[line] = []string{}
		case rest[0] == ':':
			var names []string
			for _, name := range strings.Split(rest[1:], ",") {
				if name = strings.TrimSpace(name); name != "" {
					names = append(names, name)
				}
			}
			sup[line] = names
		}
	}
	return sup
}

func (sup suppressions) covers(d Diagnostic) bool {
	names, ok := sup[d.Pos.Line]
	if !ok || d.Analyzer == BindAnalyzer {
		return false
	}
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if name == d.Analyzer {
			return true
		}
	}
	return false
}

// filter drops suppressed analyzer diagnostics.  Binder diagnostics are
// never suppressed.
func (sup suppressions) filter(diags []Diagnostic) []Diagnostic {
	kept := diags[:0]
	for _, d := range diags {
		if !sup.covers(d) {
			kept = append(kept, d)
		}
	}
	return kept
}

// FormatText writes diagnostics in go vet text format.
func FormatText(w io.Writer, diags []Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes diagnostics as JSON.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}

// DefaultAnalyzers returns the built-in set of lint checks.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerDynamicCall,
		AnalyzerIdentitySelect,
		AnalyzerConditionalAccess,
		AnalyzerConstantCondition,
	}
}
