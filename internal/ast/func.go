package ast

import (
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

// Param is a routine parameter. Type is an expression evaluated when the
// closure is created; NoExprID means any type.
type Param struct {
	Name  source.StringID
	Span  source.Span
	Type  ExprID
	ByRef bool
}

// FuncData is a function declaration or literal. Name is NoStringID for literals.
type FuncData struct {
	Name   source.StringID
	Span   source.Span
	Params []Param
	Body   StmtID
	Local  bool
}

type Funcs struct {
	Arena *Arena[FuncData]
}

func NewFuncs(capHint uint) *Funcs {
	return &Funcs{Arena: NewArena[FuncData](capHint)}
}

func (f *Funcs) New(data FuncData) FuncID {
	return FuncID(f.Arena.Allocate(data))
}

func (f *Funcs) Get(id FuncID) *FuncData {
	return f.Arena.Get(uint32(id))
}
