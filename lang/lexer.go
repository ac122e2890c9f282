package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Position identifies a location in a logical line.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based, in runes
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokName
	tokInt
	tokFloat
	tokString
	tokOp
	tokKeyword
)

var tokenKindNames = [...]string{
	tokEOF:     "end of input",
	tokName:    "name",
	tokInt:     "integer",
	tokFloat:   "float",
	tokString:  "string",
	tokOp:      "operator",
	tokKeyword: "keyword",
}

func (k tokenKind) String() string { return tokenKindNames[k] }

type token struct {
	kind tokenKind
	text string // source text; for strings, the decoded value
	pos  Position
	ival int64
	fval float64
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"None": true, "True": true, "False": true, "lambda": true,
	"import": true, "from": true, "if": true, "else": true,
}

// Multi-character operators, longest first.
var operators = []string{
	"//=", "**",
	"//", "==", "!=", "<=", ">=", "+=", "-=", "*=", "/=", "%=",
	"+", "-", "*", "/", "%", "<", ">", "=",
	"(", ")", "[", "]", "{", "}", ",", ":", ";", ".",
}

// lexer converts a logical line into tokens.
type lexer struct {
	input string
	pos   int
	line  int
	col   int
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{input: src, line: 1, col: 1}

	var toks []token

	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}

		toks = append(toks, tok)

		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) eof() bool { return lx.pos >= len(lx.input) }

func (lx *lexer) peek() rune {
	if lx.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(lx.input[lx.pos:])

	return r
}

func (lx *lexer) peekAt(n int) byte {
	if lx.pos+n >= len(lx.input) {
		return 0
	}

	return lx.input[lx.pos+n]
}

func (lx *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(lx.input[lx.pos:])
	lx.pos += size

	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}

	return r
}

func (lx *lexer) position() Position {
	return Position{Offset: lx.pos, Line: lx.line, Column: lx.col}
}

func (lx *lexer) errorf(pos Position, msg string) error {
	return ErrSyntax.WithPosition(pos).Wrapf(msg)
}

func (lx *lexer) skipSpace() {
	for !lx.eof() {
		r := lx.peek()

		switch {
		case r == '#':
			for !lx.eof() && lx.peek() != '\n' {
				lx.advance()
			}
		case unicode.IsSpace(r):
			lx.advance()
		default:
			return
		}
	}
}

func (lx *lexer) next() (token, error) {
	lx.skipSpace()

	pos := lx.position()
	if lx.eof() {
		return token{kind: tokEOF, pos: pos}, nil
	}

	r := lx.peek()

	switch {
	case isIdentStart(r):
		start := lx.pos
		for !lx.eof() && isIdentPart(lx.peek()) {
			lx.advance()
		}

		word := lx.input[start:lx.pos]
		if keywords[word] {
			return token{kind: tokKeyword, text: word, pos: pos}, nil
		}

		return token{kind: tokName, text: word, pos: pos}, nil

	case isDigit(r), r == '.' && isDigit(rune(lx.peekAt(1))):
		return lx.number(pos)

	case r == '\'' || r == '"':
		return lx.string(pos)
	}

	for _, op := range operators {
		if strings.HasPrefix(lx.input[lx.pos:], op) {
			for range op {
				lx.advance()
			}

			return token{kind: tokOp, text: op, pos: pos}, nil
		}
	}

	return token{}, lx.errorf(pos, "unexpected character "+strconv.QuoteRune(r))
}

func (lx *lexer) number(pos Position) (token, error) {
	start := lx.pos

	if lx.peek() == '0' {
		base := 0

		switch lx.peekAt(1) {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}

		if base != 0 {
			lx.advance()
			lx.advance()

			for !lx.eof() && (isHexDigit(lx.peek()) || lx.peek() == '_') {
				lx.advance()
			}

			raw := lx.input[start+2 : lx.pos]

			n, err := strconv.ParseInt(strings.ReplaceAll(raw, "_", ""), base, 64)
			if err != nil || !separated(strings.TrimPrefix(raw, "_"), isHexDigit) {
				return token{}, lx.errorf(pos, "invalid integer literal "+
					strconv.Quote(lx.input[start:lx.pos]))
			}

			return token{kind: tokInt, text: lx.input[start:lx.pos], pos: pos, ival: n}, nil
		}
	}

	isFloat := false

	lx.digits()

	if lx.peek() == '.' && lx.peekAt(1) != '.' {
		isFloat = true

		lx.advance()
		lx.digits()
	}

	if r := lx.peek(); r == 'e' || r == 'E' {
		sign := lx.peekAt(1)
		if isDigit(rune(sign)) ||
			((sign == '+' || sign == '-') && isDigit(rune(lx.peekAt(2)))) {
			isFloat = true

			lx.advance()

			if sign == '+' || sign == '-' {
				lx.advance()
			}

			lx.digits()
		}
	}

	text := lx.input[start:lx.pos]
	clean := strings.ReplaceAll(text, "_", "")

	if !separated(text, isDigit) {
		return token{}, lx.errorf(pos, "invalid decimal literal "+strconv.Quote(text))
	}

	if isFloat {
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return token{}, lx.errorf(pos, "invalid float literal "+strconv.Quote(text))
		}

		return token{kind: tokFloat, text: text, pos: pos, fval: f}, nil
	}

	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return token{}, lx.errorf(pos, "integer literal too large")
		}

		return token{}, lx.errorf(pos, "invalid integer literal "+strconv.Quote(text))
	}

	return token{kind: tokInt, text: text, pos: pos, ival: n}, nil
}

// separated reports whether every '_' in s sits between two digits.
func separated(s string, digit func(rune) bool) bool {
	for i := range len(s) {
		if s[i] != '_' {
			continue
		}

		if i == 0 || i == len(s)-1 || !digit(rune(s[i-1])) || !digit(rune(s[i+1])) {
			return false
		}
	}

	return true
}

func (lx *lexer) digits() {
	for !lx.eof() && (isDigit(lx.peek()) || lx.peek() == '_') {
		lx.advance()
	}
}

func (lx *lexer) string(pos Position) (token, error) {
	quote := lx.advance()

	var b strings.Builder

	for {
		if lx.eof() {
			return token{}, lx.errorf(pos, "unterminated string literal")
		}

		r := lx.advance()

		switch {
		case r == quote:
			return token{kind: tokString, text: b.String(), pos: pos}, nil
		case r == '\n':
			return token{}, lx.errorf(pos, "unterminated string literal")
		case r != '\\':
			b.WriteRune(r)

			continue
		}

		if lx.eof() {
			return token{}, lx.errorf(pos, "unterminated string literal")
		}

		esc := lx.advance()

		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"':
			b.WriteRune(esc)
		case 'x', 'u':
			n := 2
			if esc == 'u' {
				n = 4
			}

			if lx.pos+n > len(lx.input) {
				return token{}, lx.errorf(lx.position(), "truncated escape sequence")
			}

			code, err := strconv.ParseUint(lx.input[lx.pos:lx.pos+n], 16, 32)
			if err != nil {
				return token{}, ErrSyntax.WithPosition(lx.position()).
					With(slog.String("escape", lx.input[lx.pos:lx.pos+n])).
					Wrapf("invalid escape sequence")
			}

			for range n {
				lx.advance()
			}

			b.WriteRune(rune(code))
		default:
			b.WriteByte('\\')
			b.WriteRune(esc)
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
