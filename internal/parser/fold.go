package parser

import (
	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/number"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

var foldOps = map[ast.ExprBinaryOp]number.Op{
	ast.ExprBinaryAdd:        number.Add,
	ast.ExprBinarySub:        number.Sub,
	ast.ExprBinaryMul:        number.Mul,
	ast.ExprBinaryDiv:        number.Div,
	ast.ExprBinaryMod:        number.Mod,
	ast.ExprBinaryPow:        number.Pow,
	ast.ExprBinaryShiftLeft:  number.Shl,
	ast.ExprBinaryShiftRight: number.Shr,
}

// makeBinary builds a binary node, folding it into a literal when both sides
// are numeric literals and the operation succeeds. Failing operations are
// left for the VM so the error surfaces at run time with a line number.
func (p *Parser) makeBinary(op ast.ExprBinaryOp, left, right ast.ExprID) ast.ExprID {
	span := p.exprSpan(left).Cover(p.exprSpan(right))
	if op.IsArithmetic() {
		x, okx := p.numericLiteral(left)
		y, oky := p.numericLiteral(right)
		if okx && oky {
			if r, err := number.Arith(foldOps[op], x, y); err == nil {
				return p.newNumber(span, r)
			}
		}
	}
	return p.arenas.Exprs.NewBinary(span, op, left, right)
}

func (p *Parser) makeNegation(span source.Span, operand ast.ExprID) ast.ExprID {
	if x, ok := p.numericLiteral(operand); ok {
		return p.newNumber(span, number.Neg(x))
	}
	return p.arenas.Exprs.NewUnary(span, ast.ExprUnaryMinus, operand)
}

func (p *Parser) numericLiteral(id ast.ExprID) (number.Num, bool) {
	lit, ok := p.arenas.Exprs.Literal(id)
	if !ok || !lit.IsNumber() {
		return number.Num{}, false
	}
	if lit.Kind == ast.ExprLitFloat {
		return number.Float(lit.Float), true
	}
	return number.Int(lit.Int), true
}

func (p *Parser) newNumber(span source.Span, n number.Num) ast.ExprID {
	if n.IsFloat {
		return p.arenas.Exprs.NewLiteral(span, ast.ExprLiteralData{Kind: ast.ExprLitFloat, Float: n.F})
	}
	return p.arenas.Exprs.NewLiteral(span, ast.ExprLiteralData{Kind: ast.ExprLitInt, Int: n.I})
}
