package token

import (
	"slices"
	"strings"
)

type keyword struct {
	text string
	kind Kind
}

// keywords must stay sorted by text: LookupKeyword bisects it.
var keywords = []keyword{
	{"and", KwAnd},
	{"as", KwAs},
	{"assert", KwAssert},
	{"break", KwBreak},
	{"continue", KwContinue},
	{"do", KwDo},
	{"downto", KwDownto},
	{"else", KwElse},
	{"elsif", KwElsif},
	{"end", KwEnd},
	{"export", KwExport},
	{"false", KwFalse},
	{"for", KwFor},
	{"foreach", KwForeach},
	{"function", KwFunction},
	{"if", KwIf},
	{"import", KwImport},
	{"in", KwIn},
	{"local", KwLocal},
	{"nan", KwNan},
	{"not", KwNot},
	{"null", KwNull},
	{"or", KwOr},
	{"pass", KwPass},
	{"print", KwPrint},
	{"ref", KwRef},
	{"repeat", KwRepeat},
	{"return", KwReturn},
	{"step", KwStep},
	{"then", KwThen},
	{"throw", KwThrow},
	{"to", KwTo},
	{"true", KwTrue},
	{"until", KwUntil},
	{"var", KwVar},
	{"while", KwWhile},
}

// LookupKeyword returns the keyword kind for ident. Keywords are case sensitive.
func LookupKeyword(ident string) (Kind, bool) {
	i, ok := slices.BinarySearchFunc(keywords, ident, func(kw keyword, s string) int {
		return strings.Compare(kw.text, s)
	})
	if !ok {
		return Invalid, false
	}
	return keywords[i].kind, true
}
