package lexer_test

import (
	"fmt"
	"testing"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/lexer"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

// testReporter collects every diagnostic the lexer emits.
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Notes:    notes,
	})
}

func (r *testReporter) ErrorMessages() []string {
	messages := make([]string, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		messages = append(messages, fmt.Sprintf("[%s] %s: %s", d.Code.ID(), d.Severity, d.Message))
	}
	return messages
}

func makeTestLexer(input string) (*lexer.Lexer, *testReporter) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.phon", []byte(input))
	file := fs.Get(fileID)

	reporter := &testReporter{}
	lx := lexer.New(file, lexer.Options{Reporter: reporter})
	return lx, reporter
}

func collectAllTokens(lx *lexer.Lexer) []token.Token {
	tokens := make([]token.Token, 0)
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens
		}
	}
}

func kindsOf(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestStatementTokens(t *testing.T) {
	lx, rep := makeTestLexer("var x = 1; while x < 5 do x += 1 end # comment\nreturn x")
	got := kindsOf(collectAllTokens(lx))
	want := []token.Kind{
		token.KwVar, token.Ident, token.Assign, token.IntLit, token.Semicolon,
		token.KwWhile, token.Ident, token.Lt, token.IntLit, token.KwDo,
		token.Ident, token.PlusAssign, token.IntLit, token.KwEnd,
		token.KwReturn, token.Ident, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if len(rep.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rep.ErrorMessages())
	}
}

func TestGreedyOperators(t *testing.T) {
	tests := []struct {
		input string
		want  []token.Kind
	}{
		{"<=>", []token.Kind{token.Compare}},
		{"<<=", []token.Kind{token.ShlAssign}},
		{"<< =", []token.Kind{token.Shl, token.Assign}},
		{">>=>=", []token.Kind{token.ShrAssign, token.GtEq}},
		{"a==b!=c", []token.Kind{token.Ident, token.EqEq, token.Ident, token.BangEq, token.Ident}},
		{"&= & ^= ^", []token.Kind{token.AmpAssign, token.Amp, token.CaretAssign, token.Caret}},
	}
	for _, tt := range tests {
		lx, _ := makeTestLexer(tt.input)
		got := kindsOf(collectAllTokens(lx))
		got = got[:len(got)-1]
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIdentifierRunes(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"voyelle_2", []string{"voyelle_2"}},
		{"été", []string{"été"}},
		// n followed by a combining tilde stays one identifier.
		{"n\u0303asal", []string{"n\u0303asal"}},
		{"x\u0663", []string{"x", "\u0663"}},
		{"_Ab9 z", []string{"_Ab9", "z"}},
	}
	for _, tt := range tests {
		lx, _ := makeTestLexer(tt.input)
		toks := collectAllTokens(lx)
		var got []string
		for _, tok := range toks[:len(toks)-1] {
			got = append(got, tok.Text)
		}
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("%q: got %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"42", token.IntLit},
		{"0x1F", token.IntLit},
		{"1.5", token.FloatLit},
		{".5", token.FloatLit},
		{"1e3", token.FloatLit},
		{"2.5E-3", token.FloatLit},
	}
	for _, tt := range tests {
		lx, rep := makeTestLexer(tt.input)
		tok := lx.Next()
		if tok.Kind != tt.kind || tok.Text != tt.input {
			t.Errorf("%q: got %v %q", tt.input, tok.Kind, tok.Text)
		}
		if len(rep.diagnostics) != 0 {
			t.Errorf("%q: %v", tt.input, rep.ErrorMessages())
		}
	}

	lx, _ := makeTestLexer("1.foo")
	if k := kindsOf(collectAllTokens(lx)); fmt.Sprint(k) != fmt.Sprint([]token.Kind{token.IntLit, token.Dot, token.Ident, token.EOF}) {
		t.Fatalf("1.foo lexed as %v", k)
	}
}

func TestStringEscapes(t *testing.T) {
	lx, rep := makeTestLexer(`"a\tb\n\x41\u00e9\\\"" 'it''s'`)
	tok := lx.Next()
	if tok.Kind != token.StringLit || tok.Value != "a\tb\nA\u00e9\\\"" {
		t.Fatalf("got %v %q", tok.Kind, tok.Value)
	}
	if tok = lx.Next(); tok.Value != "it" {
		t.Fatalf("single quoted = %q", tok.Value)
	}
	if len(rep.diagnostics) != 0 {
		t.Fatal(rep.ErrorMessages())
	}
}

func TestRegexVersusDivision(t *testing.T) {
	lx, rep := makeTestLexer("var r = /a\\/b+/i\nx = a / b / c")
	toks := collectAllTokens(lx)
	if toks[3].Kind != token.RegexLit || toks[3].Value != "a/b+" || toks[3].Flags != "i" {
		t.Fatalf("regex token = %+v", toks[3])
	}
	slashes := 0
	for _, tk := range toks {
		if tk.Kind == token.Slash {
			slashes++
		}
	}
	if slashes != 2 {
		t.Fatalf("expected 2 division operators, got %d", slashes)
	}
	if len(rep.diagnostics) != 0 {
		t.Fatal(rep.ErrorMessages())
	}
	if lexer.RegexSource("x", "im") != "(?im)x" {
		t.Fatal("flags not folded")
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx, _ := makeTestLexer("a b")
	if p := lx.Peek(); p.Text != "a" {
		t.Fatalf("peek = %q", p.Text)
	}
	if p := lx.Peek(); p.Text != "a" {
		t.Fatalf("second peek = %q", p.Text)
	}
	if n := lx.Next(); n.Text != "a" {
		t.Fatalf("next = %q", n.Text)
	}
	if n := lx.Next(); n.Text != "b" {
		t.Fatalf("next = %q", n.Text)
	}
	if n := lx.Next(); n.Kind != token.EOF {
		t.Fatalf("expected EOF, got %v", n.Kind)
	}
	if n := lx.Next(); n.Kind != token.EOF {
		t.Fatalf("EOF must repeat, got %v", n.Kind)
	}
}

func TestLexErrorsCarryLine(t *testing.T) {
	tests := []struct {
		input string
		code  diag.Code
		line  int
	}{
		{"x = 1\ny = \"abc", diag.LexUnterminatedString, 2},
		{"a\n\n b $ c", diag.LexUnknownChar, 3},
		{"12abc", diag.LexBadNumber, 1},
		{"1e+", diag.LexBadNumber, 1},
		{"\"\\q\"", diag.LexBadEscape, 1},
		{"\"\\u12\"", diag.LexBadEscape, 1},
		{"x = /abc", diag.LexUnterminatedRegex, 1},
		{"x = /a(/", diag.LexBadRegex, 1},
	}
	for _, tt := range tests {
		lx, rep := makeTestLexer(tt.input)
		toks := collectAllTokens(lx)
		err := lx.Err()
		if err == nil {
			t.Errorf("%q: no error, tokens %v", tt.input, kindsOf(toks))
			continue
		}
		if err.Kind != diag.SyntaxError || err.Code != tt.code || err.Line != tt.line {
			t.Errorf("%q: got %v %s line %d", tt.input, err.Kind, err.Code.ID(), err.Line)
		}
		if len(rep.diagnostics) == 0 {
			t.Errorf("%q: nothing reported", tt.input)
		}
	}
}

func TestNewlineBefore(t *testing.T) {
	lx, _ := makeTestLexer("return # done\n x y")
	toks := collectAllTokens(lx)
	want := []bool{false, true, false}
	for i, nl := range want {
		if toks[i].NewlineBefore != nl {
			t.Errorf("token %d (%s): NewlineBefore = %v, want %v", i, toks[i].Text, toks[i].NewlineBefore, nl)
		}
	}
}
