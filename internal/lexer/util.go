package lexer

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

// compound lists the operators longer than one byte, longest first so that
// `<<=` wins over `<<` and `<=>` over `<=`.
var compound = []struct {
	text string
	kind token.Kind
}{
	{"<=>", token.Compare},
	{"<<=", token.ShlAssign},
	{">>=", token.ShrAssign},
	{"==", token.EqEq},
	{"!=", token.BangEq},
	{"<=", token.LtEq},
	{">=", token.GtEq},
	{"<<", token.Shl},
	{">>", token.Shr},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"*=", token.StarAssign},
	{"/=", token.SlashAssign},
	{"%=", token.PercentAssign},
	{"^=", token.CaretAssign},
	{"&=", token.AmpAssign},
}

// acceptCompound consumes the longest compound operator at the cursor.
func (lx *Lexer) acceptCompound() (token.Kind, bool) {
	rest := lx.file.Content[lx.cursor.Off:lx.cursor.Limit]
	for _, op := range compound {
		if bytes.HasPrefix(rest, []byte(op.text)) {
			lx.cursor.Off += uint32(len(op.text))
			return op.kind, true
		}
	}
	return token.Invalid, false
}

func (lx *Lexer) peekRune() (r rune, size int) {
	if lx.cursor.EOF() {
		return utf8.RuneError, 0
	}
	if b := lx.cursor.Peek(); b < utf8.RuneSelf {
		return rune(b), 1
	}
	return utf8.DecodeRune(lx.file.Content[lx.cursor.Off:lx.cursor.Limit])
}

func (lx *Lexer) bumpRune() {
	_, sz := lx.peekRune()
	lx.cursor.Off += uint32(sz)
}

// Identifiers start with a letter or '_' from any script. After the first
// rune, ASCII digits and combining marks are allowed too, so that names
// spelled with diacritics survive NFC interning as a single identifier.
// Digits from other scripts are not part of an identifier.

func isIdentStartByte(b byte) bool {
	return b == '_' || (b|0x20 >= 'a' && b|0x20 <= 'z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isIdentStartRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinueRune(r rune) bool {
	if r < utf8.RuneSelf {
		return isIdentContinueByte(byte(r))
	}
	return unicode.IsLetter(r) || unicode.In(r, unicode.Mn, unicode.Mc)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDec(b) || (b|0x20 >= 'a' && b|0x20 <= 'f')
}

// isNumberAfterDot reports a '.' followed by a digit, as in `.5`.
func (lx *Lexer) isNumberAfterDot() bool {
	b0, b1, ok := lx.cursor.Peek2()
	return ok && b0 == '.' && isDec(b1)
}
