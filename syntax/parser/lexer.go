// Copyright © 2024 The ELPS authors

package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	parsec "github.com/prataprc/goparsec"

	"github.com/luthersystems/sharpbind/syntax"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokReal
	tokString
	tokChar
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokInt, tokReal:
		return "number"
	case tokString:
		return "string"
	case tokChar:
		return "character"
	default:
		return "punctuation"
	}
}

type token struct {
	kind tokenKind
	text string
	// verbatim is set for identifiers written with a leading @, which are
	// never keywords.
	verbatim bool
	pos      int
	end      int
}

type lexRule struct {
	kind    tokenKind
	pattern string
}

// Patterns are anchored explicitly so matching never skips input.
var (
	triviaPatterns = []string{
		`^//[^\n]*`,
		`^/\*(?s:.*?)\*/`,
	}
	lexRules = []lexRule{
		{tokString, `^@"(?:[^"]|"")*"`},
		{tokString, `^"(?:[^"\\\n]|\\.)*"`},
		{tokChar, `^'(?:[^'\\\n]|\\[^\n]+?)'`},
		{tokInt, `^0[xX][0-9a-fA-F]+(?:[uU][lL]?|[lL][uU]?)?`},
		{tokReal, `^[0-9]+\.[0-9]+(?:[eE][+-]?[0-9]+)?[fFdDmM]?`},
		{tokReal, `^[0-9]+[eE][+-]?[0-9]+[fFdDmM]?`},
		{tokReal, `^[0-9]+[fFdDmM]`},
		{tokInt, `^[0-9]+(?:[uU][lL]?|[lL][uU]?)?`},
		{tokIdent, `^@?[\p{L}_][\p{L}\p{N}_]*`},
		{tokPunct, `^(?:<<=|\?\?=|=>|\?\?|==|!=|<=|>=|&&|\|\||\+\+|--|\+=|-=|\*=|/=|%=|&=|\|=|\^=|<<|->)`},
		{tokPunct, `^[-+*/%&|^!~<>=?:.,;()\[\]{}]`},
	}
)

// lex splits src into tokens.  The final token is always tokEOF.
func lex(src []byte) ([]token, error) {
	var toks []token
	s := parsec.NewScanner(src)
	for {
		s = skipTrivia(s)
		start := s.GetCursor()
		if s.Endof() {
			toks = append(toks, token{kind: tokEOF, pos: start, end: start})
			return toks, nil
		}
		matched := false
		for _, rule := range lexRules {
			var b []byte
			b, s = s.Match(rule.pattern)
			if b == nil {
				continue
			}
			tok := token{kind: rule.kind, text: string(b), pos: start, end: start + len(b)}
			if rule.kind == tokIdent && strings.HasPrefix(tok.text, "@") {
				tok.text = tok.text[1:]
				tok.verbatim = true
			}
			toks = append(toks, tok)
			matched = true
			break
		}
		if !matched {
			r, _ := utf8.DecodeRune(src[start:])
			return toks, &offsetError{pos: start, msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
}

func skipTrivia(s parsec.Scanner) parsec.Scanner {
	for {
		_, s = s.SkipWS()
		skipped := false
		for _, pat := range triviaPatterns {
			var b []byte
			b, s = s.Match(pat)
			if b != nil {
				skipped = true
			}
		}
		if !skipped {
			return s
		}
	}
}

// offsetError is an error positioned by byte offset; the parser converts it
// to an *Error once line information is available.
type offsetError struct {
	pos int
	msg string
}

func (e *offsetError) Error() string { return e.msg }

// decodeInt decodes an integer literal, returning its value and lower-case
// suffix.
func decodeInt(text string) (uint64, string, error) {
	body, suffix := splitSuffix(text, "uUlL")
	var v uint64
	var err error
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		v, err = strconv.ParseUint(body[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(body, 10, 64)
	}
	if err != nil {
		return 0, "", fmt.Errorf("integral constant is too large: %s", text)
	}
	return v, normalizeSuffix(suffix), nil
}

// decodeReal decodes a real literal, returning its value and lower-case
// suffix.
func decodeReal(text string) (float64, string, error) {
	body, suffix := splitSuffix(text, "fFdDmM")
	v, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid real literal: %s", text)
	}
	return v, strings.ToLower(suffix), nil
}

func splitSuffix(text string, chars string) (string, string) {
	i := len(text)
	for i > 0 && strings.ContainsRune(chars, rune(text[i-1])) {
		if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
			// d, D and friends are hex digits; only u and l are suffixes.
			if !strings.ContainsRune("uUlL", rune(text[i-1])) {
				break
			}
		}
		i--
	}
	return text[:i], text[i:]
}

func normalizeSuffix(s string) string {
	s = strings.ToLower(s)
	if s == "lu" {
		return "ul"
	}
	return s
}

// decodeString decodes a regular or verbatim string literal.
func decodeString(text string) (string, error) {
	if strings.HasPrefix(text, "@") {
		return strings.ReplaceAll(text[2:len(text)-1], `""`, `"`), nil
	}
	return unescape(text[1 : len(text)-1])
}

// decodeChar decodes a character literal.
func decodeChar(text string) (rune, error) {
	s, err := unescape(text[1 : len(text)-1])
	if err != nil {
		return 0, err
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("too many characters in character literal")
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("unterminated escape sequence")
		}
		switch s[i] {
		case '\'', '"', '\\':
			b.WriteByte(s[i])
		case '0':
			b.WriteByte(0)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case 'u', 'x':
			n := 4
			j := i + 1
			for j < len(s) && j < i+1+n && isHex(s[j]) {
				j++
			}
			if j == i+1 || (s[i] == 'u' && j != i+1+n) {
				return "", fmt.Errorf("invalid escape sequence")
			}
			v, _ := strconv.ParseUint(s[i+1:j], 16, 32)
			b.WriteRune(rune(v))
			i = j - 1
		default:
			return "", fmt.Errorf(`unrecognized escape sequence \%c`, s[i])
		}
	}
	return b.String(), nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// lineIndex maps byte offsets to one-based line and column numbers.
type lineIndex struct {
	file   string
	starts []int
}

func newLineIndex(file string, src []byte) *lineIndex {
	idx := &lineIndex{file: file, starts: []int{0}}
	for i, c := range src {
		if c == '\n' {
			idx.starts = append(idx.starts, i+1)
		}
	}
	return idx
}

func (idx *lineIndex) location(pos, end int) syntax.Location {
	lo, hi := 0, len(idx.starts)
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if idx.starts[mid] <= pos {
			lo = mid
		} else {
			hi = mid
		}
	}
	return syntax.Location{
		File: idx.file,
		Pos:  pos,
		End:  end,
		Line: lo + 1,
		Col:  pos - idx.starts[lo] + 1,
	}
}
