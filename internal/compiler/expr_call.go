package compiler

import (
	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
)

// compileCall pushes the callee, marks it with Precall so argument
// instructions can consult its by-reference flags, then pushes the arguments.
func (rc *routineCompiler) compileCall(e *ast.Expr, d *ast.ExprCallData) error {
	if err := rc.compileExpr(d.Target); err != nil {
		return err
	}
	rc.at(e.Span)
	if err := rc.emit(bytecode.OpPrecall); err != nil {
		return err
	}
	for pos, arg := range d.Args {
		if err := rc.compileArg(arg, pos); err != nil {
			return err
		}
	}
	rc.at(e.Span)
	return rc.emit(bytecode.OpCall, len(d.Args))
}

// compileArg pushes an lvalue argument by reference when the callee declares
// the parameter at pos as `ref`, by value otherwise.
func (rc *routineCompiler) compileArg(id ast.ExprID, pos int) error {
	exprs := rc.c.b.Exprs
	e := exprs.Get(id)
	switch e.Kind {
	case ast.ExprIdent:
		d, _ := exprs.Ident(id)
		v, err := rc.resolve(rc.c.name(d.Name))
		if err != nil {
			return err
		}
		rc.at(e.Span)
		return rc.emitVar(accessArg, v, pos)
	case ast.ExprIndex:
		d, _ := exprs.Index(id)
		if err := rc.compileIndexOperands(d, rc.compileTarget); err != nil {
			return err
		}
		rc.at(e.Span)
		return rc.emit(bytecode.OpGetIndexArg, len(d.Indices), pos)
	case ast.ExprMember:
		d, _ := exprs.Member(id)
		if err := rc.compileTarget(d.Target); err != nil {
			return err
		}
		return rc.emitField(bytecode.OpGetFieldArg, e, d, pos)
	}
	return rc.compileExpr(id)
}
