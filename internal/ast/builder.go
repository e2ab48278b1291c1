package ast

import (
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

type Hints struct{ Stmts, Exprs, Funcs uint }

// Builder owns every node of one parsed script.
type Builder struct {
	Stmts   *Stmts
	Exprs   *Exprs
	Funcs   *Funcs
	Strings *source.Interner
}

// NewBuilder creates a builder. A nil interner gets a fresh one.
func NewBuilder(hints Hints, strings *source.Interner) *Builder {
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 8
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	if hints.Funcs == 0 {
		hints.Funcs = 1 << 4
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Builder{
		Stmts:   NewStmts(hints.Stmts),
		Exprs:   NewExprs(hints.Exprs),
		Funcs:   NewFuncs(hints.Funcs),
		Strings: strings,
	}
}

// Name returns the interned text of id.
func (b *Builder) Name(id source.StringID) string {
	s, _ := b.Strings.Lookup(id)
	return s
}
