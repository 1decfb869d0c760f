package tsparse

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"matseed/internal/syntax"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokTemplate
	tokNumber
	tokBigInt
	tokRegex
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of file"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokTemplate:
		return "template"
	case tokNumber:
		return "number"
	case tokBigInt:
		return "bigint"
	case tokRegex:
		return "regular expression"
	default:
		return "punctuation"
	}
}

type token struct {
	kind tokenKind
	// text is the identifier name, the punctuator, or the raw literal.
	text string
	// str is the cooked value of string and template tokens.
	str string
	num float64
	// subst is set on templates that contain ${...} substitutions.
	subst bool
	// nl is set when a line terminator precedes the token.
	nl  bool
	pos syntax.Pos
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

func (t token) punct(text string) bool { return t.is(tokPunct, text) }

func (t token) ident(text string) bool { return t.is(tokIdent, text) }

// punctuators ordered longest first so the scanner can take the first match.
var punctuators = []string{
	">>>=",
	"...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<", ">>",
	"{", "}", "(", ")", "[", "]", ";", ",", "<", ">", "+", "-", "*", "/",
	"%", "&", "|", "^", "!", "~", "?", ":", "=", ".", "@", "#",
}

// keywords after which a slash starts a regular expression, not a division.
var regexAfterKeyword = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

type lexer struct {
	file string
	src  string
	off  int
	line int
	col  int
	prev *token
}

func newLexer(file string, src []byte) *lexer {
	return &lexer{file: file, src: string(src), line: 1, col: 1}
}

func (lx *lexer) pos() syntax.Pos {
	return syntax.Pos{File: lx.file, Line: lx.line, Col: lx.col}
}

func (lx *lexer) errorf(p syntax.Pos, format string, args ...any) error {
	return fmt.Errorf("%s: %s", p, fmt.Sprintf(format, args...))
}

func (lx *lexer) peekByte(n int) byte {
	if lx.off+n < len(lx.src) {
		return lx.src[lx.off+n]
	}
	return 0
}

// advance consumes n bytes, keeping line and column current.
func (lx *lexer) advance(n int) {
	for i := 0; i < n && lx.off < len(lx.src); i++ {
		if lx.src[lx.off] == '\n' {
			lx.line++
			lx.col = 1
		} else if lx.src[lx.off]&0xC0 != 0x80 {
			lx.col++
		}
		lx.off++
	}
}

// tokenize scans the whole source.
func (lx *lexer) tokenize() ([]token, error) {
	if strings.HasPrefix(lx.src, "#!") {
		for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
			lx.advance(1)
		}
	}
	var toks []token
	for {
		nl, err := lx.skipSpace()
		if err != nil {
			return nil, err
		}
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		tok.nl = nl
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
		lx.prev = &toks[len(toks)-1]
	}
}

// skipSpace skips whitespace and comments and reports whether a line
// terminator was crossed.
func (lx *lexer) skipSpace() (bool, error) {
	nl := false
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		switch {
		case c == '\n':
			nl = true
			lx.advance(1)
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			lx.advance(1)
		case c == '/' && lx.peekByte(1) == '/':
			for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
				lx.advance(1)
			}
		case c == '/' && lx.peekByte(1) == '*':
			start := lx.pos()
			end := strings.Index(lx.src[lx.off+2:], "*/")
			if end < 0 {
				return nl, lx.errorf(start, "unterminated block comment")
			}
			if strings.Contains(lx.src[lx.off:lx.off+2+end], "\n") {
				nl = true
			}
			lx.advance(end + 4)
		case c >= utf8.RuneSelf:
			r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
			if r == '\u2028' || r == '\u2029' {
				nl = true
			} else if !unicode.IsSpace(r) && r != '\ufeff' {
				return nl, nil
			}
			lx.advance(size)
		default:
			return nl, nil
		}
	}
	return nl, nil
}

func (lx *lexer) next() (token, error) {
	start := lx.pos()
	if lx.off >= len(lx.src) {
		return token{kind: tokEOF, pos: start}, nil
	}
	c := lx.src[lx.off]
	switch {
	case c == '"' || c == '\'':
		s, err := lx.scanString(c)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, str: s, pos: start}, nil
	case c == '`':
		s, subst, err := lx.scanTemplate()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokTemplate, str: s, subst: subst, pos: start}, nil
	case isDigit(c) || (c == '.' && isDigit(lx.peekByte(1))):
		return lx.scanNumber(start)
	case isIdentStart(lx.src[lx.off:]):
		return lx.scanIdent(start), nil
	case c == '/' && lx.regexAllowed():
		return lx.scanRegex(start)
	}
	for _, p := range punctuators {
		if strings.HasPrefix(lx.src[lx.off:], p) {
			// "?." followed by a digit is a conditional operator and a number.
			if p == "?." && isDigit(lx.peekByte(2)) {
				continue
			}
			lx.advance(len(p))
			return token{kind: tokPunct, text: p, pos: start}, nil
		}
	}
	r, _ := utf8.DecodeRuneInString(lx.src[lx.off:])
	return token{}, lx.errorf(start, "unexpected character %q", r)
}

func (lx *lexer) regexAllowed() bool {
	if lx.prev == nil {
		return true
	}
	switch lx.prev.kind {
	case tokNumber, tokString, tokTemplate, tokRegex, tokBigInt:
		return false
	case tokIdent:
		return regexAfterKeyword[lx.prev.text]
	case tokPunct:
		switch lx.prev.text {
		case ")", "]", "}":
			return false
		}
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '\u200c' || r == '\u200d'
}

func (lx *lexer) scanIdent(start syntax.Pos) token {
	begin := lx.off
	for lx.off < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
		if !isIdentPart(r) {
			break
		}
		lx.advance(size)
	}
	return token{kind: tokIdent, text: lx.src[begin:lx.off], pos: start}
}

func (lx *lexer) scanNumber(start syntax.Pos) (token, error) {
	begin := lx.off
	base := 10
	if lx.src[lx.off] == '0' {
		switch lx.peekByte(1) | 0x20 {
		case 'x':
			base = 16
		case 'o':
			base = 8
		case 'b':
			base = 2
		}
	}
	if base != 10 {
		lx.advance(2)
		for lx.off < len(lx.src) && (isHex(lx.src[lx.off]) || lx.src[lx.off] == '_') {
			lx.advance(1)
		}
	} else {
		for lx.off < len(lx.src) && (isDigit(lx.src[lx.off]) || lx.src[lx.off] == '_') {
			lx.advance(1)
		}
		if lx.off < len(lx.src) && lx.src[lx.off] == '.' {
			lx.advance(1)
			for lx.off < len(lx.src) && (isDigit(lx.src[lx.off]) || lx.src[lx.off] == '_') {
				lx.advance(1)
			}
		}
		if lx.off < len(lx.src) && (lx.src[lx.off]|0x20) == 'e' {
			lx.advance(1)
			if lx.off < len(lx.src) && (lx.src[lx.off] == '+' || lx.src[lx.off] == '-') {
				lx.advance(1)
			}
			for lx.off < len(lx.src) && isDigit(lx.src[lx.off]) {
				lx.advance(1)
			}
		}
	}
	raw := lx.src[begin:lx.off]
	if lx.off < len(lx.src) && lx.src[lx.off] == 'n' {
		lx.advance(1)
		return token{kind: tokBigInt, text: raw + "n", pos: start}, nil
	}
	if lx.off < len(lx.src) && isIdentStart(lx.src[lx.off:]) {
		return token{}, lx.errorf(start, "identifier starts immediately after numeric literal %q", raw)
	}
	clean := strings.ReplaceAll(raw, "_", "")
	var n float64
	if base != 10 {
		u, err := strconv.ParseUint(clean[2:], base, 64)
		if err != nil {
			return token{}, lx.errorf(start, "invalid numeric literal %q", raw)
		}
		n = float64(u)
	} else {
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return token{}, lx.errorf(start, "invalid numeric literal %q", raw)
		}
		n = f
	}
	return token{kind: tokNumber, text: raw, num: n, pos: start}, nil
}

func isHex(c byte) bool {
	return isDigit(c) || (c|0x20) >= 'a' && (c|0x20) <= 'f'
}

func (lx *lexer) scanString(quote byte) (string, error) {
	start := lx.pos()
	lx.advance(1)
	var sb strings.Builder
	for {
		if lx.off >= len(lx.src) {
			return "", lx.errorf(start, "unterminated string literal")
		}
		c := lx.src[lx.off]
		switch {
		case c == quote:
			lx.advance(1)
			return sb.String(), nil
		case c == '\n':
			return "", lx.errorf(start, "unterminated string literal")
		case c == '\\':
			if err := lx.scanEscape(&sb); err != nil {
				return "", err
			}
		default:
			_, size := utf8.DecodeRuneInString(lx.src[lx.off:])
			sb.WriteString(lx.src[lx.off : lx.off+size])
			lx.advance(size)
		}
	}
}

// scanTemplate scans a template literal. Substitutions are skipped; the
// cooked text is only meaningful when subst is false.
func (lx *lexer) scanTemplate() (string, bool, error) {
	start := lx.pos()
	lx.advance(1)
	var sb strings.Builder
	subst := false
	for {
		if lx.off >= len(lx.src) {
			return "", false, lx.errorf(start, "unterminated template literal")
		}
		c := lx.src[lx.off]
		switch {
		case c == '`':
			lx.advance(1)
			return sb.String(), subst, nil
		case c == '\\':
			if err := lx.scanEscape(&sb); err != nil {
				return "", false, err
			}
		case c == '$' && lx.peekByte(1) == '{':
			subst = true
			lx.advance(2)
			if err := lx.skipSubstitution(); err != nil {
				return "", false, err
			}
		case c == '\r':
			// Template literals normalise CRLF and CR to LF.
			lx.advance(1)
			if lx.off < len(lx.src) && lx.src[lx.off] == '\n' {
				lx.advance(1)
			}
			sb.WriteByte('\n')
		default:
			_, size := utf8.DecodeRuneInString(lx.src[lx.off:])
			sb.WriteString(lx.src[lx.off : lx.off+size])
			lx.advance(size)
		}
	}
}

// skipSubstitution skips the body of a ${...} up to and including its
// closing brace.
func (lx *lexer) skipSubstitution() error {
	start := lx.pos()
	depth := 1
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		switch c {
		case '{':
			depth++
			lx.advance(1)
		case '}':
			depth--
			lx.advance(1)
			if depth == 0 {
				return nil
			}
		case '"', '\'':
			if _, err := lx.scanString(c); err != nil {
				return err
			}
		case '`':
			if _, _, err := lx.scanTemplate(); err != nil {
				return err
			}
		case '/':
			if _, err := lx.skipSpace(); err != nil {
				return err
			}
			if lx.off < len(lx.src) && lx.src[lx.off] == '/' {
				lx.advance(1)
			}
		default:
			lx.advance(1)
		}
	}
	return lx.errorf(start, "unterminated template substitution")
}

func (lx *lexer) scanEscape(sb *strings.Builder) error {
	start := lx.pos()
	lx.advance(1) // backslash
	if lx.off >= len(lx.src) {
		return lx.errorf(start, "unterminated escape sequence")
	}
	c := lx.src[lx.off]
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0':
		if isDigit(lx.peekByte(1)) {
			return lx.errorf(start, "octal escape sequences are not allowed")
		}
		sb.WriteByte(0)
	case '\r':
		lx.advance(1)
		if lx.off < len(lx.src) && lx.src[lx.off] == '\n' {
			lx.advance(1)
		}
		return nil
	case '\n':
		// Line continuation.
	case 'x':
		if lx.off+2 >= len(lx.src) || !isHex(lx.src[lx.off+1]) || !isHex(lx.src[lx.off+2]) {
			return lx.errorf(start, "invalid hexadecimal escape sequence")
		}
		v, _ := strconv.ParseUint(lx.src[lx.off+1:lx.off+3], 16, 8)
		sb.WriteRune(rune(v))
		lx.advance(3)
		return nil
	case 'u':
		r, err := lx.scanUnicodeEscape(start)
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) && strings.HasPrefix(lx.src[lx.off:], `\u`) {
			save := *lx
			lx.advance(1)
			if lo, err := lx.scanUnicodeEscape(start); err == nil {
				if pair := utf16.DecodeRune(r, lo); pair != unicode.ReplacementChar {
					sb.WriteRune(pair)
					return nil
				}
			}
			*lx = save
		}
		sb.WriteRune(r)
		return nil
	default:
		_, size := utf8.DecodeRuneInString(lx.src[lx.off:])
		sb.WriteString(lx.src[lx.off : lx.off+size])
		lx.advance(size)
		return nil
	}
	lx.advance(1)
	return nil
}

// scanUnicodeEscape scans the part of a \u escape after the backslash.
func (lx *lexer) scanUnicodeEscape(start syntax.Pos) (rune, error) {
	lx.advance(1) // 'u'
	if lx.off < len(lx.src) && lx.src[lx.off] == '{' {
		end := strings.IndexByte(lx.src[lx.off:], '}')
		if end < 2 {
			return 0, lx.errorf(start, "invalid unicode escape sequence")
		}
		v, err := strconv.ParseUint(lx.src[lx.off+1:lx.off+end], 16, 32)
		if err != nil || v > unicode.MaxRune {
			return 0, lx.errorf(start, "invalid unicode escape sequence")
		}
		lx.advance(end + 1)
		return rune(v), nil
	}
	if lx.off+4 > len(lx.src) {
		return 0, lx.errorf(start, "invalid unicode escape sequence")
	}
	v, err := strconv.ParseUint(lx.src[lx.off:lx.off+4], 16, 32)
	if err != nil {
		return 0, lx.errorf(start, "invalid unicode escape sequence")
	}
	lx.advance(4)
	return rune(v), nil
}

func (lx *lexer) scanRegex(start syntax.Pos) (token, error) {
	begin := lx.off
	lx.advance(1)
	inClass := false
	for {
		if lx.off >= len(lx.src) || lx.src[lx.off] == '\n' {
			return token{}, lx.errorf(start, "unterminated regular expression literal")
		}
		c := lx.src[lx.off]
		switch {
		case c == '\\':
			lx.advance(2)
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			lx.advance(1)
			for lx.off < len(lx.src) && isIdentStart(lx.src[lx.off:]) {
				lx.advance(1)
			}
			return token{kind: tokRegex, text: lx.src[begin:lx.off], pos: start}, nil
		}
		lx.advance(1)
	}
}
