package ast

import (
	"testing"

	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

func TestArenaIDsAreOneBased(t *testing.T) {
	a := NewArena[int](0)
	if a.Get(0) != nil {
		t.Fatal("index 0 must be nil")
	}
	id := a.Allocate(7)
	if id != 1 || *a.Get(id) != 7 || a.Len() != 1 {
		t.Fatalf("id=%d len=%d", id, a.Len())
	}
}

func TestBuilderRoundTrip(t *testing.T) {
	b := NewBuilder(Hints{}, nil)
	sp := source.Span{Start: 0, End: 1}
	x := b.Exprs.NewIdent(sp, b.Strings.Intern("x"))
	one := b.Exprs.NewLiteral(sp, ExprLiteralData{Kind: ExprLitInt, Int: 1})
	sum := b.Exprs.NewBinary(sp, ExprBinaryAdd, x, one)

	bin, ok := b.Exprs.Binary(sum)
	if !ok || bin.Left != x || bin.Right != one || bin.Op.String() != "+" {
		t.Fatalf("binary = %+v", bin)
	}
	if _, ok := b.Exprs.Unary(sum); ok {
		t.Fatal("binary expr reported as unary")
	}
	id, ok := b.Exprs.Ident(x)
	if !ok || b.Name(id.Name) != "x" {
		t.Fatal("ident lookup failed")
	}

	ret := b.Stmts.NewReturn(sp, sum)
	blk := b.Stmts.NewBlock(sp, []StmtID{ret}, true)
	if data := b.Stmts.Block(blk); data == nil || len(data.Stmts) != 1 || !data.Scoped {
		t.Fatalf("block = %+v", data)
	}
	if b.Stmts.Return(ret).Expr != sum {
		t.Fatal("return payload lost")
	}
	if b.Stmts.While(ret) != nil {
		t.Fatal("return reported as while")
	}
	set := b.Exprs.NewList(sp, ExprSet, []ExprID{one})
	if l, ok := b.Exprs.List(set); !ok || len(l.Elements) != 1 {
		t.Fatal("set literal not readable as list")
	}
}

func TestBinaryOpClasses(t *testing.T) {
	for _, op := range []ExprBinaryOp{ExprBinaryAdd, ExprBinaryPow, ExprBinaryShiftRight} {
		if !op.IsArithmetic() {
			t.Errorf("%s should be arithmetic", op)
		}
	}
	for _, op := range []ExprBinaryOp{ExprBinaryConcat, ExprBinaryEq, ExprBinaryLogicalAnd} {
		if op.IsArithmetic() {
			t.Errorf("%s should not be arithmetic", op)
		}
	}
}
