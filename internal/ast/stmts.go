package ast

import (
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

// Stmts manages allocation of statements.
type Stmts struct {
	Arena    *Arena[Stmt]
	Blocks   *Arena[StmtBlockData]
	Exprs    *Arena[StmtExprData]
	Vars     *Arena[StmtVarData]
	Assigns  *Arena[StmtAssignData]
	Ifs      *Arena[StmtIfData]
	Whiles   *Arena[StmtWhileData]
	Repeats  *Arena[StmtRepeatData]
	Fors     *Arena[StmtForData]
	CFors    *Arena[StmtCForData]
	Foreachs *Arena[StmtForeachData]
	Funcs    *Arena[StmtFuncData]
	Returns  *Arena[StmtReturnData]
	Prints   *Arena[StmtPrintData]
	Asserts  *Arena[StmtAssertData]
	Throws   *Arena[StmtThrowData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/8 + 1
	return &Stmts{
		Arena:    NewArena[Stmt](capHint),
		Blocks:   NewArena[StmtBlockData](small),
		Exprs:    NewArena[StmtExprData](capHint),
		Vars:     NewArena[StmtVarData](small),
		Assigns:  NewArena[StmtAssignData](small),
		Ifs:      NewArena[StmtIfData](small),
		Whiles:   NewArena[StmtWhileData](small),
		Repeats:  NewArena[StmtRepeatData](small),
		Fors:     NewArena[StmtForData](small),
		CFors:    NewArena[StmtCForData](small),
		Foreachs: NewArena[StmtForeachData](small),
		Funcs:    NewArena[StmtFuncData](small),
		Returns:  NewArena[StmtReturnData](small),
		Prints:   NewArena[StmtPrintData](small),
		Asserts:  NewArena[StmtAssertData](small),
		Throws:   NewArena[StmtThrowData](small),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) payload(id StmtID, kind StmtKind) (uint32, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != kind {
		return 0, false
	}
	return uint32(st.Payload), true
}

func (s *Stmts) NewBlock(span source.Span, stmts []StmtID, scoped bool) StmtID {
	return s.new(StmtBlock, span, s.Blocks.Allocate(StmtBlockData{Stmts: stmts, Scoped: scoped}))
}

func (s *Stmts) Block(id StmtID) *StmtBlockData {
	if p, ok := s.payload(id, StmtBlock); ok {
		return s.Blocks.Get(p)
	}
	return nil
}

func (s *Stmts) NewExpr(span source.Span, expr ExprID) StmtID {
	return s.new(StmtExpr, span, s.Exprs.Allocate(StmtExprData{Expr: expr}))
}

func (s *Stmts) Expr(id StmtID) *StmtExprData {
	if p, ok := s.payload(id, StmtExpr); ok {
		return s.Exprs.Get(p)
	}
	return nil
}

func (s *Stmts) NewVar(span source.Span, data StmtVarData) StmtID {
	return s.new(StmtVar, span, s.Vars.Allocate(data))
}

func (s *Stmts) Var(id StmtID) *StmtVarData {
	if p, ok := s.payload(id, StmtVar); ok {
		return s.Vars.Get(p)
	}
	return nil
}

func (s *Stmts) NewAssign(span source.Span, data StmtAssignData) StmtID {
	return s.new(StmtAssign, span, s.Assigns.Allocate(data))
}

func (s *Stmts) Assign(id StmtID) *StmtAssignData {
	if p, ok := s.payload(id, StmtAssign); ok {
		return s.Assigns.Get(p)
	}
	return nil
}

func (s *Stmts) NewIf(span source.Span, data StmtIfData) StmtID {
	return s.new(StmtIf, span, s.Ifs.Allocate(data))
}

func (s *Stmts) If(id StmtID) *StmtIfData {
	if p, ok := s.payload(id, StmtIf); ok {
		return s.Ifs.Get(p)
	}
	return nil
}

func (s *Stmts) NewWhile(span source.Span, cond ExprID, body StmtID) StmtID {
	return s.new(StmtWhile, span, s.Whiles.Allocate(StmtWhileData{Cond: cond, Body: body}))
}

func (s *Stmts) While(id StmtID) *StmtWhileData {
	if p, ok := s.payload(id, StmtWhile); ok {
		return s.Whiles.Get(p)
	}
	return nil
}

func (s *Stmts) NewRepeat(span source.Span, body StmtID, cond ExprID) StmtID {
	return s.new(StmtRepeat, span, s.Repeats.Allocate(StmtRepeatData{Body: body, Cond: cond}))
}

func (s *Stmts) Repeat(id StmtID) *StmtRepeatData {
	if p, ok := s.payload(id, StmtRepeat); ok {
		return s.Repeats.Get(p)
	}
	return nil
}

func (s *Stmts) NewFor(span source.Span, data StmtForData) StmtID {
	return s.new(StmtFor, span, s.Fors.Allocate(data))
}

func (s *Stmts) For(id StmtID) *StmtForData {
	if p, ok := s.payload(id, StmtFor); ok {
		return s.Fors.Get(p)
	}
	return nil
}

func (s *Stmts) NewCFor(span source.Span, data StmtCForData) StmtID {
	return s.new(StmtCFor, span, s.CFors.Allocate(data))
}

func (s *Stmts) CFor(id StmtID) *StmtCForData {
	if p, ok := s.payload(id, StmtCFor); ok {
		return s.CFors.Get(p)
	}
	return nil
}

func (s *Stmts) NewForeach(span source.Span, data StmtForeachData) StmtID {
	return s.new(StmtForeach, span, s.Foreachs.Allocate(data))
}

func (s *Stmts) Foreach(id StmtID) *StmtForeachData {
	if p, ok := s.payload(id, StmtForeach); ok {
		return s.Foreachs.Get(p)
	}
	return nil
}

func (s *Stmts) NewFunc(span source.Span, fn FuncID) StmtID {
	return s.new(StmtFunc, span, s.Funcs.Allocate(StmtFuncData{Func: fn}))
}

func (s *Stmts) Func(id StmtID) *StmtFuncData {
	if p, ok := s.payload(id, StmtFunc); ok {
		return s.Funcs.Get(p)
	}
	return nil
}

func (s *Stmts) NewReturn(span source.Span, expr ExprID) StmtID {
	return s.new(StmtReturn, span, s.Returns.Allocate(StmtReturnData{Expr: expr}))
}

func (s *Stmts) Return(id StmtID) *StmtReturnData {
	if p, ok := s.payload(id, StmtReturn); ok {
		return s.Returns.Get(p)
	}
	return nil
}

// NewSimple creates a statement without payload (break, continue, pass).
func (s *Stmts) NewSimple(kind StmtKind, span source.Span) StmtID {
	return s.new(kind, span, 0)
}

func (s *Stmts) NewPrint(span source.Span, args []ExprID, newline bool) StmtID {
	return s.new(StmtPrint, span, s.Prints.Allocate(StmtPrintData{Args: args, Newline: newline}))
}

func (s *Stmts) Print(id StmtID) *StmtPrintData {
	if p, ok := s.payload(id, StmtPrint); ok {
		return s.Prints.Get(p)
	}
	return nil
}

func (s *Stmts) NewAssert(span source.Span, cond, msg ExprID) StmtID {
	return s.new(StmtAssert, span, s.Asserts.Allocate(StmtAssertData{Cond: cond, Msg: msg}))
}

func (s *Stmts) Assert(id StmtID) *StmtAssertData {
	if p, ok := s.payload(id, StmtAssert); ok {
		return s.Asserts.Get(p)
	}
	return nil
}

func (s *Stmts) NewThrow(span source.Span, expr ExprID) StmtID {
	return s.new(StmtThrow, span, s.Throws.Allocate(StmtThrowData{Expr: expr}))
}

func (s *Stmts) Throw(id StmtID) *StmtThrowData {
	if p, ok := s.payload(id, StmtThrow); ok {
		return s.Throws.Get(p)
	}
	return nil
}
