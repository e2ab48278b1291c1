package ast

import (
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

// ExprKind enumerates the different kinds of expressions.
type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprLit
	ExprUnary
	ExprBinary
	ExprCall
	ExprIndex
	ExprMember
	ExprList
	ExprTable
	ExprSet
	ExprFunc
	ExprCond
)

// Expr represents an expression node in the AST.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// ExprBinaryOp enumerates binary operator kinds.
type ExprBinaryOp uint8

const (
	ExprBinaryAdd ExprBinaryOp = iota
	ExprBinarySub
	ExprBinaryMul
	ExprBinaryDiv
	ExprBinaryMod
	ExprBinaryPow
	ExprBinaryConcat
	ExprBinaryShiftLeft
	ExprBinaryShiftRight

	ExprBinaryEq
	ExprBinaryNotEq
	ExprBinaryLess
	ExprBinaryLessEq
	ExprBinaryGreater
	ExprBinaryGreaterEq
	ExprBinaryCompare

	// short-circuit
	ExprBinaryLogicalAnd
	ExprBinaryLogicalOr
)

var binaryOpNames = [...]string{
	ExprBinaryAdd:        "+",
	ExprBinarySub:        "-",
	ExprBinaryMul:        "*",
	ExprBinaryDiv:        "/",
	ExprBinaryMod:        "%",
	ExprBinaryPow:        "^",
	ExprBinaryConcat:     "&",
	ExprBinaryShiftLeft:  "<<",
	ExprBinaryShiftRight: ">>",
	ExprBinaryEq:         "==",
	ExprBinaryNotEq:      "!=",
	ExprBinaryLess:       "<",
	ExprBinaryLessEq:     "<=",
	ExprBinaryGreater:    ">",
	ExprBinaryGreaterEq:  ">=",
	ExprBinaryCompare:    "<=>",
	ExprBinaryLogicalAnd: "and",
	ExprBinaryLogicalOr:  "or",
}

// String returns the symbol representation of a binary operator.
func (op ExprBinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// IsArithmetic reports operators that fold over numeric constants.
func (op ExprBinaryOp) IsArithmetic() bool {
	return op <= ExprBinaryShiftRight && op != ExprBinaryConcat
}

// ExprUnaryOp enumerates unary operator kinds.
type ExprUnaryOp uint8

const (
	ExprUnaryMinus ExprUnaryOp = iota
	ExprUnaryNot
	// ExprUnaryRef takes a reference to an lvalue: `ref x`.
	ExprUnaryRef
)

func (op ExprUnaryOp) String() string {
	switch op {
	case ExprUnaryMinus:
		return "-"
	case ExprUnaryNot:
		return "not"
	case ExprUnaryRef:
		return "ref"
	default:
		return "?"
	}
}

// ExprLitKind enumerates literal kinds.
type ExprLitKind uint8

const (
	ExprLitNull ExprLitKind = iota
	ExprLitTrue
	ExprLitFalse
	ExprLitNan
	ExprLitInt
	ExprLitFloat
	ExprLitString
	ExprLitRegex
)

type ExprIdentData struct {
	Name source.StringID
}

// ExprLiteralData holds a decoded literal. Int and Float are set for numbers,
// Str for strings and regex patterns, Flags for regex flags.
type ExprLiteralData struct {
	Kind  ExprLitKind
	Int   int64
	Float float64
	Str   string
	Flags string
}

// IsNumber reports integer and float literals.
func (d *ExprLiteralData) IsNumber() bool {
	return d.Kind == ExprLitInt || d.Kind == ExprLitFloat
}

type ExprBinaryData struct {
	Op    ExprBinaryOp
	Left  ExprID
	Right ExprID
}

type ExprUnaryData struct {
	Op      ExprUnaryOp
	Operand ExprID
}

type ExprCallData struct {
	Target ExprID
	Args   []ExprID
}

// ExprIndexData is `target[i, j, ...]`.
type ExprIndexData struct {
	Target  ExprID
	Indices []ExprID
}

type ExprMemberData struct {
	Target ExprID
	Field  source.StringID
}

// ExprListData also backs set literals.
type ExprListData struct {
	Elements []ExprID
}

type ExprTableData struct {
	Keys   []ExprID
	Values []ExprID
}

type ExprFuncData struct {
	Func FuncID
}

// ExprCondData is `Then if Cond else Else`.
type ExprCondData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}
