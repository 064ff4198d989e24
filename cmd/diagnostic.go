// Copyright © 2024 The ELPS authors

package cmd

import (
	"io"

	"github.com/spf13/viper"

	"github.com/luthersystems/sharpbind/diagnostic"
	lintpkg "github.com/luthersystems/sharpbind/lint"
)

func colorMode() diagnostic.ColorMode {
	return diagnostic.ParseColorMode(viper.GetString("color"))
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode(), Sources: make(map[string]string)}
}

// lintDiagToDiagnostic converts a lint.Diagnostic to a diagnostic.Diagnostic.
func lintDiagToDiagnostic(ld lintpkg.Diagnostic) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Code:     ld.Code,
		Severity: diagnostic.SeverityWarning,
		Message:  ld.Message,
	}
	switch ld.Severity {
	case lintpkg.SeverityError:
		d.Severity = diagnostic.SeverityError
	case lintpkg.SeverityInfo:
		d.Severity = diagnostic.SeverityNote
	}
	if ld.Analyzer != lintpkg.BindAnalyzer {
		d.Message += " (" + ld.Analyzer + ")"
	}
	if ld.Pos.Line > 0 {
		span := diagnostic.Span{File: ld.Pos.File, Line: ld.Pos.Line, Col: ld.Pos.Col}
		if ld.Pos.EndCol > ld.Pos.Col {
			span.EndCol = ld.Pos.EndCol - 1
		}
		d.Spans = append(d.Spans, span)
	}
	d.Notes = append(d.Notes, ld.Notes...)
	if ld.Analyzer != lintpkg.BindAnalyzer {
		d.Notes = append(d.Notes, "to suppress: add \"// nolint:"+ld.Analyzer+"\" as a comment on this line")
	}
	return d
}

// renderLintDiagnostics renders lint diagnostics with diagnostic formatting.
func renderLintDiagnostics(w io.Writer, diags []lintpkg.Diagnostic) {
	var ds []diagnostic.Diagnostic
	for _, ld := range diags {
		ds = append(ds, lintDiagToDiagnostic(ld))
	}
	_ = newRenderer().RenderAll(w, ds)
}
