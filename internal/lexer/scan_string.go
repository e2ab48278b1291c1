package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

// scanString reads a literal delimited by quote and decodes its escapes into
// Token.Value. Strings may span several lines.
func (lx *Lexer) scanString(quote byte) token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	var b strings.Builder
	for !lx.cursor.EOF() {
		c := lx.cursor.Peek()
		if c == quote {
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp), Value: b.String()}
		}
		if c != '\\' {
			b.WriteByte(lx.cursor.Bump())
			continue
		}
		escStart := lx.cursor.Mark()
		lx.cursor.Bump()
		if !lx.scanEscape(&b, escStart) {
			// keep going so the whole literal is consumed; the error is already recorded
			continue
		}
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
	return lx.invalid(sp)
}

func (lx *Lexer) scanEscape(b *strings.Builder, escStart Mark) bool {
	c := lx.cursor.Bump()
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case '\\', '"', '\'':
		b.WriteByte(c)
	case 'x':
		v, ok := lx.hexDigits(2)
		if !ok {
			lx.errLex(diag.LexBadEscape, lx.cursor.SpanFrom(escStart), "\\x must be followed by 2 hexadecimal digits")
			return false
		}
		b.WriteByte(byte(v))
	case 'u':
		v, ok := lx.hexDigits(4)
		if !ok || !utf8.ValidRune(rune(v)) {
			lx.errLex(diag.LexBadEscape, lx.cursor.SpanFrom(escStart), "\\u must be followed by 4 hexadecimal digits")
			return false
		}
		b.WriteRune(rune(v))
	case 0:
		return false
	default:
		lx.errLexf(diag.LexBadEscape, lx.cursor.SpanFrom(escStart), "invalid escape sequence \\%c", c)
		return false
	}
	return true
}

func (lx *Lexer) hexDigits(n int) (uint32, bool) {
	var v uint32
	for range n {
		c := lx.cursor.Peek()
		if !isHex(c) {
			return 0, false
		}
		lx.cursor.Bump()
		v = v<<4 | hexValue(c)
	}
	return v, true
}

func hexValue(c byte) uint32 {
	switch {
	case c >= '0' && c <= '9':
		return uint32(c - '0')
	case c >= 'a' && c <= 'f':
		return uint32(c-'a') + 10
	default:
		return uint32(c-'A') + 10
	}
}
