// Copyright © 2024 The ELPS authors

package lint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/bindtest"
	"github.com/luthersystems/sharpbind/diagnostic"
)

const fixture = `
assembly: lint
usings: [System, System.Collections.Generic, System.Linq]
globals:
  - "IEnumerable<int> xs"
  - "IEnumerable<object> objs"
  - "dynamic d"
  - "static void H<T>(T x)"
  - "static void H(string s)"
`

func newLinter(t *testing.T, analyzers ...*Analyzer) *Linter {
	t.Helper()
	if len(analyzers) == 0 {
		analyzers = DefaultAnalyzers()
	}
	env := bindtest.NewEnv(t, fixture)
	return &Linter{Analyzers: analyzers, Context: env.Context}
}

// lintSource runs all default analyzers on the given source and returns diagnostics.
func lintSource(t *testing.T, source string) []Diagnostic {
	t.Helper()
	diags, err := newLinter(t).LintFile([]byte(source), "test.csx")
	require.NoError(t, err)
	return diags
}

// lintCheck runs a single analyzer on the given source.
func lintCheck(t *testing.T, analyzer *Analyzer, source string) []Diagnostic {
	t.Helper()
	diags, err := newLinter(t, analyzer).LintFile([]byte(source), "test.csx")
	require.NoError(t, err)
	return diags
}

// assertHasDiag checks that at least one diagnostic contains the given substring.
func assertHasDiag(t *testing.T, diags []Diagnostic, substr string) {
	t.Helper()
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return
		}
	}
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.String())
	}
	t.Errorf("expected diagnostic containing %q, got: %v", substr, msgs)
}

// assertNoDiags checks that there are no diagnostics.
func assertNoDiags(t *testing.T, diags []Diagnostic) {
	t.Helper()
	if len(diags) > 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.String())
		}
		t.Errorf("expected no diagnostics, got %d: %v", len(diags), msgs)
	}
}

// --- Position.String() ---

func TestPosition_String(t *testing.T) {
	assert.Equal(t, "test.csx", Position{File: "test.csx"}.String())
	assert.Equal(t, "test.csx:10", Position{File: "test.csx", Line: 10}.String())
	assert.Equal(t, "test.csx:10:5", Position{File: "test.csx", Line: 10, Col: 5}.String())
}

// --- Diagnostic.String() ---

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Pos:      Position{File: "test.csx", Line: 10},
		Message:  "condition is always true",
		Analyzer: "constant-condition",
		Notes:    []string{"remove the dead branch"},
	}
	assert.Equal(t, "test.csx:10: condition is always true (constant-condition)\n  = note: remove the dead branch", d.String())

	d = Diagnostic{
		Pos:      Position{File: "test.csx", Line: 2, Col: 9},
		Message:  "The name 'fnord' does not exist in the current context",
		Analyzer: BindAnalyzer,
		Code:     "SB0103",
	}
	assert.Equal(t, "test.csx:2:9: The name 'fnord' does not exist in the current context (bind SB0103)", d.String())
}

func TestParseSuppressions(t *testing.T) {
	sup := parseSuppressions([]byte("a; // nolint\nb; // nolint: x, y\nc; // nolintx\nd;\n"))
	assert.Equal(t, suppressions{1: {}, 2: {"x", "y"}}, sup)

	at := func(line int, analyzer string) Diagnostic {
		return Diagnostic{Pos: Position{Line: line}, Analyzer: analyzer}
	}
	assert.True(t, sup.covers(at(1, "x")))
	assert.True(t, sup.covers(at(2, "y")))
	assert.False(t, sup.covers(at(2, "z")))
	assert.False(t, sup.covers(at(1, BindAnalyzer)))
	assert.False(t, sup.covers(at(4, "x")))
}

// --- Analyzer error propagation ---

func TestLintFile_AnalyzerError(t *testing.T) {
	errAnalyzer := &Analyzer{
		Name: "fail",
		Doc:  "Always fails.",
		Run: func(pass *Pass) error {
			return fmt.Errorf("intentional failure")
		},
	}
	_, err := newLinter(t, errAnalyzer).LintFile([]byte("1 + 2;"), "test.csx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intentional failure")
	assert.Contains(t, err.Error(), "fail")
}

func TestLintFile_BindErrors(t *testing.T) {
	ran := false
	noop := &Analyzer{
		Name: "noop",
		Run: func(pass *Pass) error {
			ran = true
			return nil
		},
	}
	diags, err := newLinter(t, noop).LintFile([]byte("var v;\n"), "test.csx")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, BindAnalyzer, diags[0].Analyzer)
	assert.Equal(t, diagnostic.ImplicitlyTypedInit, diags[0].Code)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, 1, diags[0].Pos.Line)
	assert.False(t, ran, "analyzers do not run on scripts that fail to bind")
}

func TestLintFile_ParseError(t *testing.T) {
	_, err := newLinter(t).LintFile([]byte("var = ;"), "test.csx")
	assert.Error(t, err)
}

// --- identity-select ---

func TestIdentitySelect_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerIdentitySelect, "var q = from int x in objs select x;")
	require.Len(t, diags, 1)
	assertHasDiag(t, diags, "identity projection")
	assert.Equal(t, SeverityInfo, diags[0].Severity)
}

func TestIdentitySelect_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerIdentitySelect, "var q = from x in xs select x;"))
	assertNoDiags(t, lintCheck(t, AnalyzerIdentitySelect, "var q = from int x in objs select x + 1;"))
}

// --- constant-condition ---

func TestConstantCondition_Conditional(t *testing.T) {
	diags := lintCheck(t, AnalyzerConstantCondition, "int n = 1;\nvar a = true ? n : 2;")
	require.Len(t, diags, 1)
	assertHasDiag(t, diags, "condition is always true")
	assert.Equal(t, 2, diags[0].Pos.Line)
}

func TestConstantCondition_Where(t *testing.T) {
	diags := lintCheck(t, AnalyzerConstantCondition, "var q = from x in xs where false select x;")
	assertHasDiag(t, diags, "where condition is always false")
}

func TestConstantCondition_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerConstantCondition, "int n = 1;\nvar a = n > 0 ? n : 2;"))
}

// --- conditional-access-non-null ---

func TestConditionalAccess(t *testing.T) {
	diags := lintCheck(t, AnalyzerConditionalAccess, `var n = "abc"?.Length;`)
	require.Len(t, diags, 1)
	assertHasDiag(t, diags, "a literal")

	assertNoDiags(t, lintCheck(t, AnalyzerConditionalAccess, "string s = null;\nvar n = s?.Length;"))
}

// --- dynamic-call-restrictions ---

func TestDynamicCall(t *testing.T) {
	diags := lintCheck(t, AnalyzerDynamicCall, "H(d);")
	require.Len(t, diags, 1)
	assertHasDiag(t, diags, "dynamic call to H")
	assert.NotEmpty(t, diags[0].Notes)

	assertNoDiags(t, lintCheck(t, AnalyzerDynamicCall, `H("s");`))
}

// --- nolint ---

func TestNolint(t *testing.T) {
	source := "var a = true ? 1 : 2; // nolint:constant-condition\nvar b = false ? 1 : 2; //nolint\nvar c = true ? 1 : 2; // nolint:identity-select\n"
	diags := lintSource(t, source)
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].Pos.Line)
}

// --- output ---

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, []Diagnostic{
		{Pos: Position{File: "test.csx", Line: 1}, Message: "m1", Analyzer: "a"},
		{Pos: Position{File: "test.csx", Line: 2}, Message: "m2", Analyzer: "b"},
	})
	assert.Equal(t, "test.csx:1: m1 (a)\ntest.csx:2: m2 (b)\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	diags := []Diagnostic{
		{Pos: Position{File: "test.csx", Line: 10}, Message: "condition is always true", Analyzer: "constant-condition", Severity: SeverityWarning},
		{Pos: Position{File: "test.csx", Line: 11}, Message: "unset"},
	}
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, diags))

	var decoded []Diagnostic
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, diags[0], decoded[0])
	assert.Equal(t, SeverityWarning, decoded[1].Severity, "unset severity marshals as warning")
	assert.NotContains(t, buf.String(), `"notes"`)
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "unknown", Severity(0).String())  // severityUnset zero value
	assert.Equal(t, "unknown", Severity(99).String()) // out of range
}

func TestSeverity_UnmarshalUnknown(t *testing.T) {
	var s Severity
	assert.Error(t, json.Unmarshal([]byte(`"fatal"`), &s))
}

func TestAnalyzerNames(t *testing.T) {
	assert.Equal(t, []string{
		"conditional-access-non-null",
		"constant-condition",
		"dynamic-call-restrictions",
		"identity-select",
	}, AnalyzerNames())
	doc := AnalyzerDoc()
	for _, name := range AnalyzerNames() {
		assert.Contains(t, doc, name)
	}
}
