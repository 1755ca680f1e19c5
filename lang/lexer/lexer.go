// Package lexer tokenizes BlackLua source text. Its structure — a
// one-byte-lookahead scan loop, an advanceIf helper for two-character
// operators, and a position-reporting callback — follows the teacher's
// lang/scanner package; the token set and literal rules are BlackLua's own
// (spec.md §4.1).
package lexer

import (
	"fmt"
	"strings"

	"github.com/blacklua-lang/blacklua/internal/arena"
	"github.com/blacklua-lang/blacklua/lang/token"
)

// Lexer tokenizes one source file.
type Lexer struct {
	file *token.File
	src  []byte
	err  func(pos token.Position, msg string)

	cur  byte // current byte, or 0 at EOF
	off  int  // offset of cur
	roff int  // offset after cur
}

// New creates a Lexer over src, which must have exactly file.Size() bytes.
// errHandler is invoked for every lex error encountered; scanning continues
// afterward (spec.md §7: "Recorded, lexing continues.").
func New(file *token.File, src []byte, errHandler func(token.Position, string)) *Lexer {
	if file.Size() != len(src) {
		panic(fmt.Sprintf("file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}
	l := &Lexer{file: file, src: src, err: errHandler}
	l.advance()
	return l
}

// ScanAll runs the Lexer to completion and returns every token, including
// the terminal EOF (spec.md §3: "the token stream terminates with
// end-of-input").
func ScanAll(file *token.File, src []byte, errHandler func(token.Position, string)) []token.Token {
	l := New(file, src, errHandler)
	var toks []token.Token
	for {
		tok := l.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func (l *Lexer) advance() {
	if l.roff >= len(l.src) {
		l.off = len(l.src)
		if l.cur == '\n' {
			l.file.AddLine(l.off)
		}
		l.cur = 0
		return
	}
	l.off = l.roff
	if l.cur == '\n' {
		l.file.AddLine(l.off)
	}
	l.cur = l.src[l.roff]
	l.roff++
}

func (l *Lexer) peek() byte {
	if l.roff < len(l.src) {
		return l.src[l.roff]
	}
	return 0
}

func (l *Lexer) atEOF() bool { return l.off >= len(l.src) }

// advanceIf advances past cur and returns true if cur equals b.
func (l *Lexer) advanceIf(b byte) bool {
	if !l.atEOF() && l.cur == b {
		l.advance()
		return true
	}
	return false
}

func (l *Lexer) errorf(off int, format string, args ...any) {
	if l.err == nil {
		return
	}
	l.err(l.file.Position(token.Pos(off)), fmt.Sprintf(format, args...))
}

func (l *Lexer) rangeFrom(start int) token.SourceRange {
	return token.SourceRange{Start: token.Pos(start), End: token.Pos(l.off)}
}

// Scan returns the next token, advancing past it. At end of input it
// returns an EOF token repeatedly.
func (l *Lexer) Scan() token.Token {
	l.skipWhitespaceAndComments()

	start := l.off
	if l.atEOF() {
		return token.Token{Kind: token.EOF, Range: l.rangeFrom(start)}
	}

	switch c := l.cur; {
	case isLetter(c):
		lit := l.ident()
		kind := token.Lookup(lit)
		return token.Token{Kind: kind, Text: lit, Range: l.rangeFrom(start)}

	case isDigit(c) || (c == '.' && isDigit(l.peek())):
		return l.number(start)

	case c == '\'':
		return l.charLiteral(start)

	case c == '"':
		return l.stringLiteral(start)
	}

	return l.punct(start)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for !l.atEOF() && isSpace(l.cur) {
			l.advance()
		}
		if !l.atEOF() && l.cur == '/' && l.peek() == '/' {
			for !l.atEOF() && l.cur != '\n' {
				l.advance()
			}
			continue
		}
		break
	}
}

func (l *Lexer) ident() string {
	start := l.off
	for !l.atEOF() && (isLetter(l.cur) || isDigit(l.cur)) {
		l.advance()
	}
	return string(l.src[start:l.off])
}

// number scans a numeric literal: a leading digit run, an optional single
// '.', and a suffix of {u,l,f} letters, per spec.md §4.1's suffix table.
func (l *Lexer) number(start int) token.Token {
	sawDot := false
	for !l.atEOF() {
		switch {
		case isDigit(l.cur):
			l.advance()
		case l.cur == '.' && !sawDot:
			sawDot = true
			l.advance()
		default:
			goto suffix
		}
	}
suffix:
	sb := arena.NewStringBuilder(4)
	for !l.atEOF() && isSuffixLetter(l.cur) {
		sb.WriteByte(l.cur)
		l.advance()
	}
	suffix := strings.ToLower(sb.String())
	lit := string(l.src[start:l.off])

	hasU := strings.Contains(suffix, "u")
	hasL := strings.Contains(suffix, "l")
	hasF := strings.Contains(suffix, "f")

	var kind token.Kind
	switch {
	case hasF && sawDot:
		kind = token.FLOATLIT
	case sawDot && !hasF:
		kind = token.DOUBLELIT
	case hasU && hasL:
		kind = token.ULONGLIT
	case hasU:
		kind = token.UINTLIT
	case hasL:
		kind = token.LONGLIT
	default:
		kind = token.INTLIT
	}
	return token.Token{Kind: kind, Text: lit, Range: l.rangeFrom(start)}
}

func isSuffixLetter(b byte) bool { return b == 'u' || b == 'l' || b == 'f' || b == 'U' || b == 'L' || b == 'F' }

// charLiteral scans 'x' — exactly one verbatim byte, no escapes (spec.md
// §9: "the lexer does not interpret \n, \t, etc.").
func (l *Lexer) charLiteral(start int) token.Token {
	l.advance() // opening quote
	if l.atEOF() || l.cur == '\'' {
		l.errorf(start, "empty character literal")
		if !l.atEOF() {
			l.advance()
		}
		return token.Token{Kind: token.ILLEGAL, Text: string(l.src[start:l.off]), Range: l.rangeFrom(start)}
	}
	ch := l.cur
	l.advance()
	if l.atEOF() || l.cur != '\'' {
		l.errorf(start, "unterminated character literal")
		return token.Token{Kind: token.ILLEGAL, Text: string(l.src[start:l.off]), Range: l.rangeFrom(start)}
	}
	l.advance() // closing quote
	return token.Token{Kind: token.CHARLIT, Text: string(ch), Range: l.rangeFrom(start)}
}

// stringLiteral scans "..." — raw bytes up to the next '"', no escapes.
func (l *Lexer) stringLiteral(start int) token.Token {
	l.advance() // opening quote
	contentStart := l.off
	for !l.atEOF() && l.cur != '"' && l.cur != '\n' {
		l.advance()
	}
	content := string(l.src[contentStart:l.off])
	if l.atEOF() || l.cur != '"' {
		l.errorf(start, "unterminated string literal")
		return token.Token{Kind: token.ILLEGAL, Text: content, Range: l.rangeFrom(start)}
	}
	l.advance() // closing quote
	return token.Token{Kind: token.STRINGLIT, Text: content, Range: l.rangeFrom(start)}
}

// punct scans punctuation and operators, including the "plain or =-suffixed"
// family and the doubled bitwise forms (&&, ||, ^^).
func (l *Lexer) punct(start int) token.Token {
	c := l.cur
	l.advance()

	mk := func(k token.Kind) token.Token {
		return token.Token{Kind: k, Text: string(l.src[start:l.off]), Range: l.rangeFrom(start)}
	}

	switch c {
	case '(':
		return mk(token.LPAREN)
	case ')':
		return mk(token.RPAREN)
	case '{':
		return mk(token.LBRACE)
	case '}':
		return mk(token.RBRACE)
	case '[':
		return mk(token.LBRACK)
	case ']':
		return mk(token.RBRACK)
	case ',':
		return mk(token.COMMA)
	case '.':
		return mk(token.DOT)
	case ';':
		return mk(token.SEMI)
	case '+':
		if l.advanceIf('=') {
			return mk(token.PLUS_EQ)
		}
		return mk(token.PLUS)
	case '-':
		if l.advanceIf('=') {
			return mk(token.MINUS_EQ)
		}
		return mk(token.MINUS)
	case '*':
		if l.advanceIf('=') {
			return mk(token.STAR_EQ)
		}
		return mk(token.STAR)
	case '/':
		if l.advanceIf('=') {
			return mk(token.SLASH_EQ)
		}
		return mk(token.SLASH)
	case '%':
		if l.advanceIf('=') {
			return mk(token.PCT_EQ)
		}
		return mk(token.PERCENT)
	case '=':
		if l.advanceIf('=') {
			return mk(token.EQ)
		}
		return mk(token.ASSIGN)
	case '!':
		if l.advanceIf('=') {
			return mk(token.NEQ)
		}
		return mk(token.BANG)
	case '<':
		if l.advanceIf('=') {
			return mk(token.LE)
		}
		return mk(token.LT)
	case '>':
		if l.advanceIf('=') {
			return mk(token.GE)
		}
		return mk(token.GT)
	case '&':
		if l.advanceIf('&') {
			return mk(token.AMP_AMP)
		}
		if l.advanceIf('=') {
			return mk(token.AMP_EQ)
		}
		return mk(token.AMP)
	case '|':
		if l.advanceIf('|') {
			return mk(token.PIPE_PIPE)
		}
		if l.advanceIf('=') {
			return mk(token.PIPE_EQ)
		}
		return mk(token.PIPE)
	case '^':
		if l.advanceIf('^') {
			return mk(token.CARET_CARET)
		}
		if l.advanceIf('=') {
			return mk(token.CARET_EQ)
		}
		return mk(token.CARET)
	}

	l.errorf(start, "illegal character %q", c)
	return token.Token{Kind: token.ILLEGAL, Text: string(c), Range: l.rangeFrom(start)}
}

func isSpace(b byte) bool  { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }
func isLetter(b byte) bool { return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || b == '_' }
func isDigit(b byte) bool  { return '0' <= b && b <= '9' }
