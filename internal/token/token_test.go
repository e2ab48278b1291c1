package token

import (
	"slices"
	"strings"
	"testing"
)

func TestKeywordTableSorted(t *testing.T) {
	if !slices.IsSortedFunc(keywords, func(a, b keyword) int { return strings.Compare(a.text, b.text) }) {
		t.Fatal("keyword table is not sorted")
	}
	for _, kw := range keywords {
		if kw.kind.String() != kw.text {
			t.Errorf("kind name %q does not match keyword %q", kw.kind.String(), kw.text)
		}
		if !kw.kind.IsKeyword() {
			t.Errorf("%q not reported as keyword", kw.text)
		}
	}
}

func TestLookupKeyword(t *testing.T) {
	cases := map[string]Kind{
		"and":      KwAnd,
		"while":    KwWhile,
		"function": KwFunction,
		"foreach":  KwForeach,
		"elsif":    KwElsif,
		"var":      KwVar,
		"nan":      KwNan,
	}
	for lexeme, want := range cases {
		got, ok := LookupKeyword(lexeme)
		if !ok || got != want {
			t.Fatalf("LookupKeyword(%q) = %v, %v; want %v", lexeme, got, ok, want)
		}
	}
	for _, s := range []string{"While", "fn", "let", "x", "", "zzz", "a"} {
		if _, ok := LookupKeyword(s); ok {
			t.Fatalf("LookupKeyword(%q) returned ok", s)
		}
	}
}

func TestOperatorKinds(t *testing.T) {
	if !ShlAssign.IsOperator() || ShlAssign.String() != "<<=" {
		t.Fatalf("ShlAssign = %q", ShlAssign.String())
	}
	if Ident.IsOperator() || Ident.IsKeyword() {
		t.Fatal("Ident misclassified")
	}
	if Kind(250).String() != "invalid" {
		t.Fatal("out of range kind must print invalid")
	}
}
