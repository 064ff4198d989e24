// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ColorMode controls when ANSI escapes are written.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // color when writing to a terminal and NO_COLOR is unset
	ColorAlways                  // always color
	ColorNever                   // never color
)

// ParseColorMode maps the --color flag values "auto", "always" and "never"
// to a ColorMode.  Unknown values select ColorAuto.
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

type palette struct {
	bold    string
	error   string
	warning string
	note    string
	gutter  string
	reset   string
}

var (
	ansi = palette{
		bold:    "\033[1m",
		error:   "\033[1;31m",
		warning: "\033[1;33m",
		note:    "\033[1;36m",
		gutter:  "\033[1;34m",
		reset:   "\033[0m",
	}
	plain = palette{}
)

func (p palette) severity(s Severity) string {
	switch s {
	case SeverityError:
		return p.error
	case SeverityWarning:
		return p.warning
	default:
		return p.note
	}
}

func choosePalette(mode ColorMode, w io.Writer) palette {
	switch mode {
	case ColorAlways:
		return ansi
	case ColorNever:
		return plain
	}
	if os.Getenv("NO_COLOR") != "" {
		return plain
	}
	if IsTerminal(w) {
		return ansi
	}
	return plain
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
