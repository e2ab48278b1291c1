package diagfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/lexer"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

const script = "var x = 1\nvar s = \"abc\nprint x\n"

func unterminated(t *testing.T) (*source.FileSet, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.phon", []byte(script))
	bag := diag.NewBag(10)
	d := diag.NewError(diag.LexUnterminatedString, source.Span{File: id, Start: 18, End: 22}, "unterminated string literal")
	bag.Add(d.WithNote(source.Span{File: id, Start: 0, End: 3}, "declaration starts here"))
	return fs, bag
}

func TestPrettyUnderlinesSpan(t *testing.T) {
	fs, bag := unterminated(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true}); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"t.phon:2:9: error LEX1002: unterminated string literal",
		"  2 | var s = \"abc",
		"    |         ^^^^",
		"  note: t.phon:1:1: declaration starts here",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines:\n%s", len(got), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i+1, got[i], want[i])
		}
	}
}

func TestPrettyContextLines(t *testing.T) {
	fs, bag := unterminated(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Context: 1}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{"  1 | var x = 1", "  2 | var s", "  3 | print x"} {
		if !strings.Contains(out, s) {
			t.Errorf("missing %q in:\n%s", s, out)
		}
	}
	if strings.Contains(out, "note:") {
		t.Errorf("notes shown without ShowNotes:\n%s", out)
	}
}

func TestErrorWithBacktrace(t *testing.T) {
	fs := source.NewFileSet()
	fs.AddVirtual("t.phon", []byte(script))
	e := &diag.Error{
		Kind:    diag.RuntimeError,
		Code:    diag.RunThrow,
		File:    "t.phon",
		Line:    3,
		Message: "boom",
		Backtrace: []diag.Frame{
			{Routine: "f", File: "t.phon", Line: 3},
			{File: "t.phon", Line: 5},
		},
	}
	var buf bytes.Buffer
	if err := Error(&buf, e, fs, PrettyOpts{ShowBacktrace: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{
		"t.phon:3: RuntimeError RUN4016: boom\n",
		"  3 | print x\n",
		"backtrace:\n",
		"#0 f (t.phon:3)",
		"#1 <main> (t.phon:5)",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("missing %q in:\n%s", s, out)
		}
	}
}

func TestErrorWithoutSource(t *testing.T) {
	e := &diag.Error{Kind: diag.RuntimeError, Code: diag.HostError, Message: "open failed", Cause: os.ErrPermission}
	var buf bytes.Buffer
	if err := Error(&buf, e, nil, PrettyOpts{ShowBacktrace: true}); err != nil {
		t.Fatal(err)
	}
	want := "RuntimeError HST5001: open failed\n  caused by: permission denied\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := Error(&buf, errors.New("plain"), nil, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "error: plain\n" {
		t.Fatalf("plain error rendered as %q", buf.String())
	}
}

func TestErrorColor(t *testing.T) {
	e := &diag.Error{Kind: diag.SyntaxError, Code: diag.SynExpectExpression, File: "a.phon", Line: 1, Message: "m"}
	var plain, colored bytes.Buffer
	if err := Error(&plain, e, nil, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	if err := Error(&colored, e, nil, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("escape codes without color: %q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("no escape codes with color: %q", colored.String())
	}
}

func TestFormatPath(t *testing.T) {
	tests := []struct {
		path string
		mode PathMode
		base string
		want string
	}{
		{"/home/u/proj/src/a.phon", PathModeBasename, "", "a.phon"},
		{"/home/u/proj/src/a.phon", PathModeRelative, "/home/u/proj", "src/a.phon"},
		{"/home/u/proj/src/a.phon", PathModeAuto, "/home/u/proj", "src/a.phon"},
		{"/tmp/b.phon", PathModeAuto, "/home/u/proj", "/tmp/b.phon"},
		{"/tmp/b.phon", PathModeRelative, "/home/u/proj", "../../../tmp/b.phon"},
		{"<string>", PathModeBasename, "", "<string>"},
		{"/tmp/b.phon", PathModeAbsolute, "", "/tmp/b.phon"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path, tt.mode, tt.base); got != tt.want {
			t.Errorf("formatPath(%q, %d, %q) = %q, want %q", tt.path, tt.mode, tt.base, got, tt.want)
		}
	}
}

func TestJSONDiagnostics(t *testing.T) {
	fs, bag := unterminated(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Severity != "error" || d.Code != "LEX1002" {
		t.Errorf("severity %s code %s", d.Severity, d.Code)
	}
	if d.Location.StartLine != 2 || d.Location.StartCol != 9 || d.Location.EndCol != 13 {
		t.Errorf("location %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location.StartLine != 1 {
		t.Errorf("notes %+v", d.Notes)
	}

	bag.Add(diag.NewError(diag.LexBadNumber, source.Span{}, "second"))
	if got := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1}); got.Count != 1 || got.Diagnostics[0].Notes != nil {
		t.Errorf("Max or IncludeNotes ignored: %+v", got)
	}
}

func TestErrorJSON(t *testing.T) {
	e := &diag.Error{
		Kind:      diag.RuntimeError,
		Code:      diag.HostError,
		File:      "/p/a.phon",
		Line:      4,
		Message:   "failed",
		Cause:     os.ErrNotExist,
		Backtrace: []diag.Frame{{Routine: "g", File: "/p/a.phon", Line: 4}},
	}
	var buf bytes.Buffer
	if err := ErrorJSONTo(&buf, e, JSONOpts{PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	var out ErrorJSON
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Kind != "RuntimeError" || out.Code != "HST5001" || out.File != "a.phon" || out.Line != 4 {
		t.Errorf("%+v", out)
	}
	if out.Cause != os.ErrNotExist.Error() || len(out.Backtrace) != 1 || out.Backtrace[0].File != "a.phon" {
		t.Errorf("%+v", out)
	}
	if got := BuildErrorOutput(errors.New("x"), JSONOpts{}); got.Code != "HST5001" || got.Message != "x" {
		t.Errorf("plain error: %+v", got)
	}
}

func lex(t *testing.T, src string) (*source.FileSet, []token.Token) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("t.phon", []byte(src)))
	lx := lexer.New(f, lexer.Options{})
	var toks []token.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return fs, toks
		}
	}
}

func TestFormatTokens(t *testing.T) {
	fs, toks := lex(t, "x = \"a\\n\"\nprint x")
	var buf bytes.Buffer
	if err := FormatTokensPretty(&buf, toks, fs); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{
		`  1: identifier      "x" at 1:1-1:2`,
		`value="a\n"`,
		"print",
		"(newline)",
		"end of file",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("missing %q in:\n%s", s, out)
		}
	}

	buf.Reset()
	if err := FormatTokensJSON(&buf, toks, fs); err != nil {
		t.Fatal(err)
	}
	var got []TokenOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != len(toks) {
		t.Fatalf("%d tokens in JSON, want %d", len(got), len(toks))
	}
	if got[3].Kind != "print" || got[3].Line != 2 || !got[3].NewlineBefore {
		t.Errorf("print token %+v", got[3])
	}
	if got[2].Value != "a\n" {
		t.Errorf("string value %q", got[2].Value)
	}
}
