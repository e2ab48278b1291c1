package ast

import (
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

type StmtKind uint8

const (
	StmtBlock StmtKind = iota
	StmtExpr
	StmtVar
	StmtAssign
	StmtIf
	StmtWhile
	StmtRepeat
	StmtFor
	StmtCFor
	StmtForeach
	StmtFunc
	StmtReturn
	StmtBreak
	StmtContinue
	StmtPass
	StmtPrint
	StmtAssert
	StmtThrow
)

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

// StmtBlockData lists statements. Scoped blocks open a new lexical scope.
type StmtBlockData struct {
	Stmts  []StmtID
	Scoped bool
}

type StmtExprData struct {
	Expr ExprID
}

// StmtVarData declares Names; Values is empty or has one entry per name.
type StmtVarData struct {
	Names  []source.StringID
	Spans  []source.Span
	Values []ExprID
}

// StmtAssignData is `Target = Value` or, when Compound, `Target Op= Value`.
type StmtAssignData struct {
	Target   ExprID
	Value    ExprID
	Op       ExprBinaryOp
	Compound bool
}

// StmtIfData holds the if/elsif chain; Else may be NoStmtID.
type StmtIfData struct {
	Conds  []ExprID
	Blocks []StmtID
	Else   StmtID
}

type StmtWhileData struct {
	Cond ExprID
	Body StmtID
}

// StmtRepeatData is `repeat Body until Cond`; Cond sees Body's locals.
type StmtRepeatData struct {
	Body StmtID
	Cond ExprID
}

// StmtForData is the numeric range loop. Step may be NoExprID.
type StmtForData struct {
	Var   source.StringID
	Start ExprID
	End   ExprID
	Step  ExprID
	Down  bool
	Body  StmtID
}

// StmtCForData is `for (Init; Cond; Post) do Body end`; every part is optional.
type StmtCForData struct {
	Init StmtID
	Cond ExprID
	Post StmtID
	Body StmtID
}

// StmtForeachData iterates Coll. Key is NoStringID when only values are bound.
type StmtForeachData struct {
	Key   source.StringID
	Value source.StringID
	ByRef bool
	Coll  ExprID
	Body  StmtID
}

type StmtFuncData struct {
	Func FuncID
}

type StmtReturnData struct {
	Expr ExprID
}

type StmtPrintData struct {
	Args    []ExprID
	Newline bool
}

type StmtAssertData struct {
	Cond ExprID
	Msg  ExprID
}

type StmtThrowData struct {
	Expr ExprID
}
