package parser

import (
	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

// Binary operator precedence, higher binds tighter.
const (
	precLogicalOr      = 1  // or
	precLogicalAnd     = 2  // and
	precNot            = 3  // not (prefix)
	precComparison     = 4  // == != < <= > >= <=>
	precConcat         = 5  // &
	precShift          = 6  // << >>
	precAdditive       = 7  // + -
	precMultiplicative = 8  // * / %
	precUnary          = 9  // unary -
	precPower          = 10 // ^ (right associative)
)

// binaryPrec returns the precedence and associativity of a binary operator
// token, or -1 when kind is not one.
func binaryPrec(kind token.Kind) (prec int, rightAssoc bool) {
	switch kind {
	case token.KwOr:
		return precLogicalOr, false
	case token.KwAnd:
		return precLogicalAnd, false
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq, token.Compare:
		return precComparison, false
	case token.Amp:
		return precConcat, false
	case token.Shl, token.Shr:
		return precShift, false
	case token.Plus, token.Minus:
		return precAdditive, false
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative, false
	case token.Caret:
		return precPower, true
	default:
		return -1, false
	}
}

var binaryOps = map[token.Kind]ast.ExprBinaryOp{
	token.Plus:    ast.ExprBinaryAdd,
	token.Minus:   ast.ExprBinarySub,
	token.Star:    ast.ExprBinaryMul,
	token.Slash:   ast.ExprBinaryDiv,
	token.Percent: ast.ExprBinaryMod,
	token.Caret:   ast.ExprBinaryPow,
	token.Amp:     ast.ExprBinaryConcat,
	token.Shl:     ast.ExprBinaryShiftLeft,
	token.Shr:     ast.ExprBinaryShiftRight,
	token.EqEq:    ast.ExprBinaryEq,
	token.BangEq:  ast.ExprBinaryNotEq,
	token.Lt:      ast.ExprBinaryLess,
	token.LtEq:    ast.ExprBinaryLessEq,
	token.Gt:      ast.ExprBinaryGreater,
	token.GtEq:    ast.ExprBinaryGreaterEq,
	token.Compare: ast.ExprBinaryCompare,
	token.KwAnd:   ast.ExprBinaryLogicalAnd,
	token.KwOr:    ast.ExprBinaryLogicalOr,
}

// compoundOps maps `op=` tokens to the operator they apply.
var compoundOps = map[token.Kind]ast.ExprBinaryOp{
	token.PlusAssign:    ast.ExprBinaryAdd,
	token.MinusAssign:   ast.ExprBinarySub,
	token.StarAssign:    ast.ExprBinaryMul,
	token.SlashAssign:   ast.ExprBinaryDiv,
	token.PercentAssign: ast.ExprBinaryMod,
	token.CaretAssign:   ast.ExprBinaryPow,
	token.AmpAssign:     ast.ExprBinaryConcat,
	token.ShlAssign:     ast.ExprBinaryShiftLeft,
	token.ShrAssign:     ast.ExprBinaryShiftRight,
}
