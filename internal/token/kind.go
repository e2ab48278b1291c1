package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// IntLit is a decimal or hexadecimal integer literal.
	IntLit
	FloatLit
	StringLit
	// RegexLit is a /pattern/flags literal.
	RegexLit

	keywordBegin
	KwAnd      // and
	KwAs       // as
	KwAssert   // assert
	KwBreak    // break
	KwContinue // continue
	KwDo       // do
	KwDownto   // downto
	KwElse     // else
	KwElsif    // elsif
	KwEnd      // end
	KwExport   // export
	KwFalse    // false
	KwFor      // for
	KwForeach  // foreach
	KwFunction // function
	KwIf       // if
	KwImport   // import
	KwIn       // in
	KwLocal    // local
	KwNan      // nan
	KwNot      // not
	KwNull     // null
	KwOr       // or
	KwPass     // pass
	KwPrint    // print
	KwRef      // ref
	KwRepeat   // repeat
	KwReturn   // return
	KwStep     // step
	KwThen     // then
	KwThrow    // throw
	KwTo       // to
	KwTrue     // true
	KwUntil    // until
	KwVar      // var
	KwWhile    // while
	keywordEnd

	operatorBegin
	Plus          // +
	Minus         // -
	Star          // *
	Slash         // /
	Percent       // %
	Caret         // ^
	Amp           // &
	Shl           // <<
	Shr           // >>
	Assign        // =
	PlusAssign    // +=
	MinusAssign   // -=
	StarAssign    // *=
	SlashAssign   // /=
	PercentAssign // %=
	CaretAssign   // ^=
	AmpAssign     // &=
	ShlAssign     // <<=
	ShrAssign     // >>=
	EqEq          // ==
	BangEq        // !=
	Lt            // <
	LtEq          // <=
	Gt            // >
	GtEq          // >=
	Compare       // <=>
	Colon         // :
	Semicolon     // ;
	Comma         // ,
	Dot           // .
	LParen        // (
	RParen        // )
	LBrace        // {
	RBrace        // }
	LBracket      // [
	RBracket      // ]
	operatorEnd
)

var kindNames = [...]string{
	Invalid:       "invalid",
	EOF:           "end of file",
	Ident:         "identifier",
	IntLit:        "integer literal",
	FloatLit:      "float literal",
	StringLit:     "string literal",
	RegexLit:      "regular expression",
	KwAnd:         "and",
	KwAs:          "as",
	KwAssert:      "assert",
	KwBreak:       "break",
	KwContinue:    "continue",
	KwDo:          "do",
	KwDownto:      "downto",
	KwElse:        "else",
	KwElsif:       "elsif",
	KwEnd:         "end",
	KwExport:      "export",
	KwFalse:       "false",
	KwFor:         "for",
	KwForeach:     "foreach",
	KwFunction:    "function",
	KwIf:          "if",
	KwImport:      "import",
	KwIn:          "in",
	KwLocal:       "local",
	KwNan:         "nan",
	KwNot:         "not",
	KwNull:        "null",
	KwOr:          "or",
	KwPass:        "pass",
	KwPrint:       "print",
	KwRef:         "ref",
	KwRepeat:      "repeat",
	KwReturn:      "return",
	KwStep:        "step",
	KwThen:        "then",
	KwThrow:       "throw",
	KwTo:          "to",
	KwTrue:        "true",
	KwUntil:       "until",
	KwVar:         "var",
	KwWhile:       "while",
	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	Slash:         "/",
	Percent:       "%",
	Caret:         "^",
	Amp:           "&",
	Shl:           "<<",
	Shr:           ">>",
	Assign:        "=",
	PlusAssign:    "+=",
	MinusAssign:   "-=",
	StarAssign:    "*=",
	SlashAssign:   "/=",
	PercentAssign: "%=",
	CaretAssign:   "^=",
	AmpAssign:     "&=",
	ShlAssign:     "<<=",
	ShrAssign:     ">>=",
	EqEq:          "==",
	BangEq:        "!=",
	Lt:            "<",
	LtEq:          "<=",
	Gt:            ">",
	GtEq:          ">=",
	Compare:       "<=>",
	Colon:         ":",
	Semicolon:     ";",
	Comma:         ",",
	Dot:           ".",
	LParen:        "(",
	RParen:        ")",
	LBrace:        "{",
	RBrace:        "}",
	LBracket:      "[",
	RBracket:      "]",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "invalid"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return k > keywordBegin && k < keywordEnd }

// IsOperator reports whether k is an operator or punctuation mark.
func (k Kind) IsOperator() bool { return k > operatorBegin && k < operatorEnd }
