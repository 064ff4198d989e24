// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/syntax"
)

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// offsetPosition converts a byte offset in content to a 0-based LSP
// position.
func offsetPosition(content string, off int) protocol.Position {
	if off > len(content) {
		off = len(content)
	}
	if off < 0 {
		off = 0
	}
	line := strings.Count(content[:off], "\n")
	col := off - (strings.LastIndexByte(content[:off], '\n') + 1)
	return protocol.Position{Line: safeUint(line), Character: safeUint(col)}
}

// positionOffset converts a 0-based LSP position to a byte offset in
// content, clamped to the end of its line.
func positionOffset(content string, pos protocol.Position) int {
	off := 0
	for line := 0; line < int(pos.Line); line++ {
		i := strings.IndexByte(content[off:], '\n')
		if i < 0 {
			return len(content)
		}
		off += i + 1
	}
	end := strings.IndexByte(content[off:], '\n')
	if end < 0 {
		end = len(content) - off
	}
	if int(pos.Character) < end {
		return off + int(pos.Character)
	}
	return off + end
}

// locationRange converts a syntax location to an LSP range.
func locationRange(content string, loc syntax.Location) protocol.Range {
	return protocol.Range{
		Start: offsetPosition(content, loc.Pos),
		End:   offsetPosition(content, loc.Pos+loc.Width()),
	}
}

// wordRange returns the range of the identifier starting at the 1-based
// line and column, or a single character when there is none.
func wordRange(content string, line, col int) protocol.Range {
	if line <= 0 {
		return protocol.Range{}
	}
	if col <= 0 {
		col = 1
	}
	start := positionOffset(content, protocol.Position{Line: safeUint(line - 1), Character: safeUint(col - 1)})
	end := start
	for end < len(content) && isIdentChar(content[end]) {
		end++
	}
	if end == start && end < len(content) {
		end++
	}
	return protocol.Range{Start: offsetPosition(content, start), End: offsetPosition(content, end)}
}

// wordBefore returns the identifier characters immediately before off.
func wordBefore(content string, off int) string {
	start := off
	for start > 0 && isIdentChar(content[start-1]) {
		start--
	}
	return content[start:off]
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// nodeAt returns the smallest bound node of res whose syntax contains
// the byte offset off.
func nodeAt(res *binder.ScriptResult, off int) bound.Expr {
	if res == nil {
		return nil
	}
	var (
		best  bound.Expr
		width int
	)
	for _, e := range res.Exprs {
		bound.Inspect(e, func(n bound.Expr) bool {
			syn := n.Syntax()
			if syn == nil {
				return true
			}
			loc := syn.Loc()
			if !loc.IsValid() || !loc.Contains(off) {
				return true
			}
			// On ties the outer node wins unless it is a conversion.
			_, conv := best.(*bound.Conversion)
			if best == nil || loc.Width() < width || loc.Width() == width && conv {
				best, width = n, loc.Width()
			}
			return true
		})
	}
	return best
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
