package parser_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/parser"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/testkit"
)

func parse(t *testing.T, src string, opts parser.Options) (*ast.Builder, ast.StmtID, error) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.phon", []byte(src))
	return parser.ParseFile(context.Background(), fs, id, opts)
}

func mustParse(t *testing.T, src string) (*ast.Builder, []ast.StmtID) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.phon", []byte(src))
	b, root, err := parser.ParseFile(context.Background(), fs, id, parser.Options{})
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	if err := testkit.CheckSpanInvariants(b, root, fs.Get(id)); err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return b, b.Stmts.Block(root).Stmts
}

// sexpr renders an expression as a parenthesised prefix form.
func sexpr(b *ast.Builder, id ast.ExprID) string {
	e := b.Exprs.Get(id)
	switch e.Kind {
	case ast.ExprIdent:
		d, _ := b.Exprs.Ident(id)
		return b.Name(d.Name)
	case ast.ExprLit:
		d, _ := b.Exprs.Literal(id)
		switch d.Kind {
		case ast.ExprLitInt:
			return fmt.Sprint(d.Int)
		case ast.ExprLitFloat:
			return fmt.Sprintf("%gf", d.Float)
		case ast.ExprLitString:
			return fmt.Sprintf("%q", d.Str)
		case ast.ExprLitRegex:
			return "/" + d.Str + "/" + d.Flags
		case ast.ExprLitTrue:
			return "true"
		case ast.ExprLitFalse:
			return "false"
		case ast.ExprLitNan:
			return "nan"
		}
		return "null"
	case ast.ExprUnary:
		d, _ := b.Exprs.Unary(id)
		return "(" + d.Op.String() + " " + sexpr(b, d.Operand) + ")"
	case ast.ExprBinary:
		d, _ := b.Exprs.Binary(id)
		return "(" + d.Op.String() + " " + sexpr(b, d.Left) + " " + sexpr(b, d.Right) + ")"
	case ast.ExprCall:
		d, _ := b.Exprs.Call(id)
		return "(call " + sexpr(b, d.Target) + list(b, d.Args) + ")"
	case ast.ExprIndex:
		d, _ := b.Exprs.Index(id)
		return "(index " + sexpr(b, d.Target) + list(b, d.Indices) + ")"
	case ast.ExprMember:
		d, _ := b.Exprs.Member(id)
		return "(. " + sexpr(b, d.Target) + " " + b.Name(d.Field) + ")"
	case ast.ExprList, ast.ExprSet:
		d, _ := b.Exprs.List(id)
		tag := "list"
		if e.Kind == ast.ExprSet {
			tag = "set"
		}
		return "(" + tag + list(b, d.Elements) + ")"
	case ast.ExprTable:
		d, _ := b.Exprs.Table(id)
		var sb strings.Builder
		sb.WriteString("(table")
		for i := range d.Keys {
			sb.WriteString(" " + sexpr(b, d.Keys[i]) + ":" + sexpr(b, d.Values[i]))
		}
		return sb.String() + ")"
	case ast.ExprFunc:
		return "(function)"
	case ast.ExprCond:
		d, _ := b.Exprs.Cond(id)
		return "(if " + sexpr(b, d.Cond) + " " + sexpr(b, d.Then) + " " + sexpr(b, d.Else) + ")"
	}
	return "?"
}

func list(b *ast.Builder, ids []ast.ExprID) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(" " + sexpr(b, id))
	}
	return sb.String()
}

func exprOf(t *testing.T, b *ast.Builder, stmt ast.StmtID) ast.ExprID {
	t.Helper()
	d := b.Stmts.Expr(stmt)
	if d == nil {
		t.Fatalf("statement kind %d is not an expression statement", b.Stmts.Get(stmt).Kind)
	}
	return d.Expr
}

func TestExpressionShapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a + b * c", "(+ a (* b c))"},
		{"-x ^ 2", "(- (^ x 2))"},
		{"a ^ b ^ c", "(^ a (^ b c))"},
		{"not a == b", "(not (== a b))"},
		{"a or b and c", "(or a (and b c))"},
		{"a & b + 1", "(& a (+ b 1))"},
		{"a << 1 + 2", "(<< a 3)"},
		{"f(1, x)[2].y", "(. (index (call f 1 x) 2) y)"},
		{"t[1, 2]", "(index t 1 2)"},
		{"[1, 2,]", "(list 1 2)"},
		{"{}", "(table)"},
		{"{'a': 1}", `(table "a":1)`},
		{"{1, 2}", "(set 1 2)"},
		{"x if c else y", "(if c x y)"},
		{"a <=> b", "(<=> a b)"},
		{"ref x", "(ref x)"},
	}
	for _, tt := range tests {
		b, stmts := mustParse(t, tt.src)
		if len(stmts) != 1 {
			t.Fatalf("%q: expected 1 statement, got %d", tt.src, len(stmts))
		}
		if got := sexpr(b, exprOf(t, b, stmts[0])); got != tt.want {
			t.Errorf("%q: got %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "7"},
		{"-2 ^ 2", "-4"},
		{"7 % 3", "1"},
		{"1 / 2", "0.5f"},
		{"2 ^ -1", "0.5f"},
		{"1 << 4", "16"},
		{"9223372036854775807 + 1", "9.223372036854776e+18f"},
		{"1 / 0", "(/ 1 0)"},
		{"1 % 0", "(% 1 0)"},
		{"1 << -1", "(<< 1 -1)"},
		{"x + 1 + 2", "(+ (+ x 1) 2)"},
		{"'a' & 'b'", `(& "a" "b")`},
	}
	for _, tt := range tests {
		b, stmts := mustParse(t, tt.src)
		if got := sexpr(b, exprOf(t, b, stmts[0])); got != tt.want {
			t.Errorf("%q: got %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestStatements(t *testing.T) {
	src := `
var i = 0
while i < 10 do
	i += 1
	if i == 3 then continue elsif i == 8 then break else pass end
end
repeat i -= 1 until i == 0
for k = 1 to 10 step 2 do print k, end
for (var j = 0; j < 3; j += 1) do print j end
foreach key, ref v in t do v = key end
function f(a, ref b: Integer, c as String) return a end
local function g() return
end
assert i == 0, "bad"
throw "boom"
do var z = 1 end
`
	b, stmts := mustParse(t, src)
	kinds := []ast.StmtKind{
		ast.StmtVar, ast.StmtWhile, ast.StmtRepeat, ast.StmtFor, ast.StmtCFor,
		ast.StmtForeach, ast.StmtFunc, ast.StmtFunc, ast.StmtAssert, ast.StmtThrow, ast.StmtBlock,
	}
	if len(stmts) != len(kinds) {
		t.Fatalf("expected %d statements, got %d", len(kinds), len(stmts))
	}
	for i, k := range kinds {
		if got := b.Stmts.Get(stmts[i]).Kind; got != k {
			t.Fatalf("statement %d: kind %d, want %d", i, got, k)
		}
	}

	loop := b.Stmts.While(stmts[1])
	body := b.Stmts.Block(loop.Body)
	if len(body.Stmts) != 2 {
		t.Fatalf("while body: %d statements", len(body.Stmts))
	}
	assign := b.Stmts.Assign(body.Stmts[0])
	if assign == nil || !assign.Compound || assign.Op != ast.ExprBinaryAdd {
		t.Fatalf("expected compound += assignment")
	}
	cond := b.Stmts.If(body.Stmts[1])
	if len(cond.Conds) != 2 || !cond.Else.IsValid() {
		t.Fatalf("if chain: %d conditions, else=%v", len(cond.Conds), cond.Else.IsValid())
	}

	rng := b.Stmts.For(stmts[3])
	if b.Name(rng.Var) != "k" || !rng.Step.IsValid() || rng.Down {
		t.Fatalf("bad range loop header")
	}
	pr := b.Stmts.Print(b.Stmts.Block(rng.Body).Stmts[0])
	if pr.Newline || len(pr.Args) != 1 {
		t.Fatalf("trailing comma should suppress newline: %+v", pr)
	}

	each := b.Stmts.Foreach(stmts[5])
	if b.Name(each.Key) != "key" || b.Name(each.Value) != "v" || !each.ByRef {
		t.Fatalf("bad foreach header")
	}

	fn := b.Funcs.Get(b.Stmts.Func(stmts[6]).Func)
	if b.Name(fn.Name) != "f" || len(fn.Params) != 3 || fn.Local {
		t.Fatalf("bad function header")
	}
	if fn.Params[0].Type.IsValid() || !fn.Params[1].ByRef || !fn.Params[1].Type.IsValid() || !fn.Params[2].Type.IsValid() {
		t.Fatalf("bad parameters: %+v", fn.Params)
	}

	local := b.Funcs.Get(b.Stmts.Func(stmts[7]).Func)
	ret := b.Stmts.Return(b.Stmts.Block(local.Body).Stmts[0])
	if !local.Local || ret.Expr.IsValid() {
		t.Fatalf("return followed by a newline must not take a value")
	}

	as := b.Stmts.Assert(stmts[8])
	if !as.Msg.IsValid() {
		t.Fatalf("assert message missing")
	}
}

func TestNewlineEndsPostfix(t *testing.T) {
	b, stmts := mustParse(t, "f\n(x)\ny = 1")
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
	if got := sexpr(b, exprOf(t, b, stmts[0])); got != "f" {
		t.Fatalf("first statement %s", got)
	}
}

func TestImportExportDesugar(t *testing.T) {
	b, stmts := mustParse(t, "import a.b.c, d as e\nexport var x = 1\nexport function f() end")
	imp := b.Stmts.Var(stmts[0])
	if imp == nil || len(imp.Names) != 2 {
		t.Fatalf("import should become a two-name declaration")
	}
	if b.Name(imp.Names[0]) != "c" || b.Name(imp.Names[1]) != "e" {
		t.Fatalf("bindings %s, %s", b.Name(imp.Names[0]), b.Name(imp.Names[1]))
	}
	if got := sexpr(b, imp.Values[0]); got != `(call $import "a.b.c")` {
		t.Fatalf("import value %s", got)
	}

	for i, name := range []string{"x", "f"} {
		blk := b.Stmts.Block(stmts[1+i])
		if blk == nil || blk.Scoped || len(blk.Stmts) != 2 {
			t.Fatalf("export %s should be an unscoped two-statement block", name)
		}
		a := b.Stmts.Assign(blk.Stmts[1])
		want := "(. $module " + name + ")"
		if got := sexpr(b, a.Target); got != want || sexpr(b, a.Value) != name {
			t.Fatalf("export %s assigns %s = %s", name, got, sexpr(b, a.Value))
		}
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
		line int
	}{
		{"var a, b = 1", diag.SynBadDeclaration, 1},
		{"x = 1\nwhile x do\n", diag.SynExpectEnd, 2},
		{"foreach ref k, v in t do end", diag.SynForeachRefKey, 1},
		{"function f()\nexport var x = 1\nend", diag.SynBadExport, 2},
		{"x = (1 + \n", diag.SynExpectExpression, 1},
		{"print 99999999999999999999", diag.SynConstantOverflow, 1},
		{"\n\nif x then\n y = ) end", diag.SynExpectExpression, 4},
	}
	for _, tt := range tests {
		_, _, err := parse(t, tt.src, parser.Options{})
		var de *diag.Error
		if !errors.As(err, &de) {
			t.Fatalf("%q: expected *diag.Error, got %v", tt.src, err)
		}
		if de.Kind != diag.SyntaxError {
			t.Errorf("%q: kind %s", tt.src, de.Kind)
		}
		if de.Code != tt.code {
			t.Errorf("%q: code %s, want %s (%s)", tt.src, de.Code.ID(), tt.code.ID(), de.Message)
		}
		if de.Line != tt.line {
			t.Errorf("%q: line %d, want %d", tt.src, de.Line, tt.line)
		}
	}
}

func TestRecursionLimit(t *testing.T) {
	src := "x = " + strings.Repeat("(", 100) + "1" + strings.Repeat(")", 100)
	_, _, err := parse(t, src, parser.Options{MaxDepth: 50})
	var de *diag.Error
	if !errors.As(err, &de) || de.Code != diag.SynTooMuchRecursion {
		t.Fatalf("expected too much recursion, got %v", err)
	}
	if !strings.Contains(de.Message, "too much recursion") {
		t.Fatalf("message %q", de.Message)
	}
	if _, _, err := parse(t, src, parser.Options{}); err != nil {
		t.Fatalf("default depth should accept 100 levels: %v", err)
	}
}
