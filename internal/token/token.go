package token

import (
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
	// Value is the decoded string literal or the regex pattern.
	Value string
	// Flags holds the trailing flags of a regex literal.
	Flags string
	// NewlineBefore is set when a line break precedes the token.
	NewlineBefore bool
}

// IsLiteral reports whether the token is a literal value.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, StringLit, RegexLit, KwTrue, KwFalse, KwNull, KwNan:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool { return t.Kind.IsKeyword() }

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// EndsOperand reports whether a token can end an operand. The lexer uses it to
// tell a regex literal from the division operator.
func (t Token) EndsOperand() bool {
	switch t.Kind {
	case Ident, IntLit, FloatLit, StringLit, RegexLit, RParen, RBracket, RBrace,
		KwTrue, KwFalse, KwNull, KwNan, KwEnd:
		return true
	default:
		return false
	}
}
