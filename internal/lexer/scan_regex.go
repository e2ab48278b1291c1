package lexer

import (
	"regexp"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

// scanRegex reads /pattern/flags. The pattern is validated here so malformed
// expressions fail at compile time with a line number.
func (lx *Lexer) scanRegex() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	var b strings.Builder
	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnterminatedRegex, sp, "unterminated regular expression")
			return lx.invalid(sp)
		}
		c := lx.cursor.Bump()
		if c == '/' {
			break
		}
		if c == '\\' && lx.cursor.Peek() == '/' {
			b.WriteByte(lx.cursor.Bump())
			continue
		}
		b.WriteByte(c)
		if c == '\\' && !lx.cursor.EOF() {
			b.WriteByte(lx.cursor.Bump())
		}
	}
	flagStart := lx.cursor.Off
	for {
		c := lx.cursor.Peek()
		if c != 'i' && c != 'm' && c != 's' {
			break
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	flags := string(lx.file.Content[flagStart:sp.End])
	pattern := b.String()
	if _, err := regexp.Compile(RegexSource(pattern, flags)); err != nil {
		lx.errLexf(diag.LexBadRegex, sp, "invalid regular expression: %v", err)
		return lx.invalid(sp)
	}
	return token.Token{Kind: token.RegexLit, Span: sp, Text: lx.text(sp), Value: pattern, Flags: flags}
}

// RegexSource folds literal flags into a Go regexp pattern.
func RegexSource(pattern, flags string) string {
	if flags == "" {
		return pattern
	}
	return "(?" + flags + ")" + pattern
}
