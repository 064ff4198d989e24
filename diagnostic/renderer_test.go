// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/syntax"
)

func testRenderer(sources map[string]string) *Renderer {
	return &Renderer{
		Color:   ColorNever,
		Sources: sources,
		ReadFile: func(name string) ([]byte, error) {
			return nil, errors.New("no such file: " + name)
		},
	}
}

func render(t *testing.T, r *Renderer, d Diagnostic) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, d))
	return buf.String()
}

func loc(file string, line, col, pos, width int) syntax.Location {
	return syntax.Location{File: file, Line: line, Col: col, Pos: pos, End: pos + width}
}

// --- construction ---

func TestNewFormatsMessage(t *testing.T) {
	d := New(NameNotFound, loc("a.csx", 1, 9, 8, 1), "y")
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "The name 'y' does not exist in the current context", d.Message)
	require.Len(t, d.Spans, 1)
	assert.Equal(t, Span{File: "a.csx", Line: 1, Col: 9, EndCol: 9}, d.Spans[0])
	assert.Equal(t, "a.csx:1:9: error SB0103: The name 'y' does not exist in the current context", d.String())
	assert.Equal(t, FamilyNameNotFound, d.Code.Family())
}

func TestNewWithoutLocation(t *testing.T) {
	d := New(MethodNameExpected, syntax.Location{})
	assert.Empty(t, d.Spans)
	assert.Equal(t, "Method name expected", d.Message)
}

func TestUnknownCodeIsWarning(t *testing.T) {
	d := New(Code("identity-select"), syntax.Location{}, "select clause is an identity projection")
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Equal(t, FamilyLint, d.Code.Family())
	assert.Equal(t, "select clause is an identity projection", d.Message)
}

func TestBuildersCopy(t *testing.T) {
	d := New(NameNotFound, loc("a.csx", 1, 1, 0, 1), "x")
	labeled := d.WithLabel("not found").WithNote("declared at %d", 3).WithSecondary(loc("a.csx", 2, 5, 20, 1), "here")
	assert.Empty(t, d.Spans[0].Label)
	assert.Empty(t, d.Notes)
	assert.Equal(t, "not found", labeled.Spans[0].Label)
	assert.Equal(t, []string{"declared at 3"}, labeled.Notes)
	require.Len(t, labeled.Spans, 2)
	assert.Equal(t, "here", labeled.Spans[1].Label)
}

func TestCodesRegistered(t *testing.T) {
	codes := Codes()
	require.NotEmpty(t, codes)
	for i, c := range codes {
		assert.True(t, strings.HasPrefix(string(c), "SB"), c)
		assert.Len(t, string(c), 6, c)
		assert.NotEmpty(t, c.Info().Format, c)
		if i > 0 {
			assert.Less(t, string(codes[i-1]), string(c))
		}
	}
}

// --- rendering ---

func TestRenderError(t *testing.T) {
	r := testRenderer(map[string]string{"a.csx": "var x = y + 1;"})
	d := New(NameNotFound, loc("a.csx", 1, 9, 8, 1), "y").WithLabel("not found")
	got := render(t, r, d)
	assert.Equal(t, strings.Join([]string{
		"error[SB0103]: The name 'y' does not exist in the current context",
		" --> a.csx:1:9",
		"  |",
		"1 |  var x = y + 1;",
		"  |          ^ not found",
		"  |",
		"",
	}, "\n"), got)
}

func TestRenderWarningAutoEnd(t *testing.T) {
	r := testRenderer(map[string]string{"a.csx": "int x = 1;\nfrom n in xs select n"})
	d := Diagnostic{
		Code:     "identity-select",
		Severity: SeverityWarning,
		Message:  "identity projection",
		Spans:    []Span{{File: "a.csx", Line: 2, Col: 11}},
	}
	got := render(t, r, d)
	assert.Contains(t, got, "warning[identity-select]: identity projection")
	assert.Contains(t, got, "2 |  from n in xs select n")
	assert.Contains(t, got, "  |            ^^\n")
}

func TestRenderClipsToLine(t *testing.T) {
	r := testRenderer(map[string]string{"a.csx": "ab"})
	d := Diagnostic{Message: "m", Spans: []Span{{File: "a.csx", Line: 1, Col: 2, EndCol: 40}}}
	assert.Contains(t, render(t, r, d), "  |   ^\n")
}

func TestRenderUsesLocationWithoutSpans(t *testing.T) {
	r := testRenderer(map[string]string{"a.csx": "abc"})
	d := Diagnostic{Message: "m", Location: loc("a.csx", 1, 2, 1, 2)}
	got := render(t, r, d)
	assert.Contains(t, got, " --> a.csx:1:2")
	assert.Contains(t, got, "  |   ^^\n")
}

func TestRenderMissingSource(t *testing.T) {
	r := testRenderer(nil)
	got := render(t, r, New(NameNotFound, loc("gone.csx", 3, 1, 0, 1), "z"))
	assert.Contains(t, got, " --> gone.csx:3:1")
	assert.NotContains(t, got, "3 |")
}

func TestRenderSecondarySpan(t *testing.T) {
	r := testRenderer(map[string]string{"a.csx": "int x = 1;\nint x = 2;"})
	d := New(DuplicateLocal, loc("a.csx", 2, 5, 15, 1), "x").
		WithSecondary(loc("a.csx", 1, 5, 4, 1), "first declared here")
	got := render(t, r, d)
	assert.Contains(t, got, " ::: a.csx:1:5")
	assert.Contains(t, got, "  |      - first declared here")
}

func TestRenderWrapsNotes(t *testing.T) {
	r := testRenderer(nil)
	r.NoteWidth = 20
	d := Diagnostic{Message: "m", Notes: []string{"the quick brown fox jumps over the lazy dog"}}
	got := render(t, r, d)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.True(t, len(lines) > 2, got)
	assert.Equal(t, " = note: the quick brown fox", lines[1][:len(" = note: the quick brown fox")])
	for _, l := range lines[2:] {
		assert.True(t, strings.HasPrefix(l, strings.Repeat(" ", 9)), l)
	}
}

func TestRenderAllSeparates(t *testing.T) {
	r := testRenderer(nil)
	var buf bytes.Buffer
	ds := []Diagnostic{{Message: "one"}, {Message: "two"}}
	require.NoError(t, r.RenderAll(&buf, ds))
	assert.Equal(t, "error: one\n\nerror: two\n", buf.String())
}

func TestRenderColor(t *testing.T) {
	r := testRenderer(nil)
	r.Color = ColorAlways
	got := render(t, r, Diagnostic{Severity: SeverityWarning, Message: "m"})
	assert.Contains(t, got, "\033[1;33mwarning")
	assert.False(t, IsTerminal(&bytes.Buffer{}))
	assert.Equal(t, ColorNever, ParseColorMode("never"))
	assert.Equal(t, ColorAuto, ParseColorMode("bogus"))
}

// --- bag ---

func TestBag(t *testing.T) {
	b := NewBag()
	b.Report(NameNotFound, loc("a.csx", 2, 1, 10, 1), "b")
	b.Report(NameNotFound, loc("a.csx", 1, 1, 0, 1), "a")
	b.Add(Diagnostic{Code: "lint", Severity: SeverityWarning, Location: loc("a.csx", 1, 1, 0, 1)})

	assert.Equal(t, 3, b.Len())
	assert.True(t, b.HasErrors())
	assert.Equal(t, 2, b.ErrorCount())
	assert.Equal(t, 1, b.WarningCount())
	assert.Equal(t, []Code{NameNotFound, NameNotFound, "lint"}, b.Codes())

	sorted := b.Sorted()
	assert.Equal(t, []interface{}{"a"}, sorted[0].Args)
	assert.Equal(t, Code("lint"), sorted[1].Code)

	other := NewBag()
	other.AddAll(b)
	other.AddAll(other)
	assert.Equal(t, 3, other.Len())

	b.Clear()
	assert.Zero(t, b.Len())
	assert.False(t, b.HasErrors())
}

func TestBagConcurrent(t *testing.T) {
	b := NewBag()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Report(NameNotFound, syntax.Location{}, "x")
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, b.ErrorCount())
}
