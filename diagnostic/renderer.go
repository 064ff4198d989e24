// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const defaultNoteWidth = 72

// Renderer writes diagnostics as annotated source snippets:
//
//	error[SB0103]: The name 'y' does not exist in the current context
//	  --> script.csx:1:9
//	   |
//	 1 |  var x = y + 1;
//	   |          ^ not found
//	   |
//	   = note: ...
type Renderer struct {
	Color ColorMode

	// Sources holds in-memory text by file name.  Files not present are
	// read with ReadFile, or os.ReadFile when ReadFile is nil.
	Sources  map[string]string
	ReadFile func(string) ([]byte, error)

	// NoteWidth is the column notes wrap at.  Zero means 72.
	NoteWidth int

	lines map[string][]string
}

// Render writes d to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	p := choosePalette(r.Color, w)
	bw := bufio.NewWriter(w)
	out := &errWriter{w: bw}

	code := ""
	if d.Code != "" {
		code = "[" + string(d.Code) + "]"
	}
	out.printf("%s%s%s%s: %s%s%s\n", p.severity(d.Severity), d.Severity, code, p.reset, p.bold, d.Message, p.reset)

	spans := d.Spans
	if len(spans) == 0 && d.Location.IsValid() {
		spans = []Span{SpanOf(d.Location, "")}
	}
	gutter := 0
	for _, s := range spans {
		if n := len(strconv.Itoa(s.Line)); n > gutter {
			gutter = n
		}
	}
	for i, s := range spans {
		r.writeSpan(out, s, i == 0, gutter, p)
	}

	width := r.NoteWidth
	if width <= 0 {
		width = defaultNoteWidth
	}
	pad := strings.Repeat(" ", gutter+1)
	for _, note := range d.Notes {
		wrapped := wordwrap.String(note, width)
		first, rest, _ := strings.Cut(wrapped, "\n")
		out.printf("%s%s=%s note: %s\n", pad, p.gutter, p.reset, first)
		if rest != "" {
			out.print(indent.String(rest, uint(gutter+9)))
			out.print("\n")
		}
	}
	if out.err != nil {
		return out.err
	}
	return bw.Flush()
}

// RenderAll writes ds to w with a blank line between diagnostics.
func (r *Renderer) RenderAll(w io.Writer, ds []Diagnostic) error {
	for i := range ds {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, ds[i]); err != nil {
			return err
		}
	}
	return nil
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, v ...interface{}) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, format, v...)
	}
}

func (ew *errWriter) print(s string) {
	if ew.err == nil {
		_, ew.err = io.WriteString(ew.w, s)
	}
}

func (r *Renderer) writeSpan(out *errWriter, s Span, primary bool, gutter int, p palette) {
	pad := strings.Repeat(" ", gutter)
	where := s.File
	if s.Line > 0 {
		where += ":" + strconv.Itoa(s.Line)
		if s.Col > 0 {
			where += ":" + strconv.Itoa(s.Col)
		}
	}
	if primary {
		out.printf("%s%s-->%s %s\n", pad, p.gutter, p.reset, where)
	} else {
		out.printf("%s%s:::%s %s\n", pad, p.gutter, p.reset, where)
	}

	src, ok := r.line(s.File, s.Line)
	if !ok {
		out.printf("%s %s|%s\n", pad, p.gutter, p.reset)
		return
	}
	num := fmt.Sprintf("%*d", gutter, s.Line)
	out.printf("%s %s|%s\n", pad, p.gutter, p.reset)
	out.printf("%s%s |%s  %s\n", p.gutter, num, p.reset, expandTabs(src))

	col := s.Col
	if col < 1 {
		col = 1
	}
	end := s.EndCol
	if end <= 0 {
		end = tokenEnd(src, col)
	}
	if end > len(src) {
		end = len(src)
	}
	if end < col {
		end = col
	}
	lead, marked := src, ""
	if col-1 < len(src) {
		lead, marked = src[:col-1], src[col-1:end]
	}
	mark, color := "^", p.error
	if !primary {
		mark, color = "-", p.gutter
	}
	out.printf("%s %s|%s  %s%s%s%s", pad, p.gutter, p.reset,
		strings.Repeat(" ", columns(lead)), color, strings.Repeat(mark, max(1, columns(marked))), p.reset)
	if s.Label != "" {
		out.printf(" %s%s%s", color, s.Label, p.reset)
	}
	out.print("\n")
	out.printf("%s %s|%s\n", pad, p.gutter, p.reset)
}

// line returns the 1-based line n of file.
func (r *Renderer) line(file string, n int) (string, bool) {
	if n <= 0 || file == "" {
		return "", false
	}
	lines, ok := r.lines[file]
	if !ok {
		lines = r.load(file)
		if r.lines == nil {
			r.lines = make(map[string][]string)
		}
		r.lines[file] = lines
	}
	if n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

func (r *Renderer) load(file string) []string {
	text, ok := r.Sources[file]
	if !ok {
		read := r.ReadFile
		if read == nil {
			read = os.ReadFile
		}
		b, err := read(file)
		if err != nil {
			return nil
		}
		text = string(b)
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines
}

// tokenEnd returns the 1-based column of the last byte of the identifier
// or literal starting at col.
func tokenEnd(src string, col int) int {
	if col > len(src) {
		return col
	}
	i := col - 1
	for i < len(src) {
		c, size := utf8.DecodeRuneInString(src[i:])
		if !isWordRune(c) {
			break
		}
		i += size
	}
	if i == col-1 {
		return col
	}
	return i
}

func isWordRune(c rune) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= utf8.RuneSelf
}

func expandTabs(s string) string { return strings.ReplaceAll(s, "\t", "    ") }

// columns is the display width of s with tabs expanded.
func columns(s string) int {
	n := 0
	for _, c := range s {
		if c == '\t' {
			n += 4
		} else {
			n++
		}
	}
	return n
}
