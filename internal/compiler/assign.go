package compiler

import (
	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
)

// compileAssign lowers plain and compound assignments. Indexed and member
// targets are prepared before the right-hand side so evaluation runs left to
// right; the store goes through the set_item/set_field protocol at run time.
func (rc *routineCompiler) compileAssign(st *ast.Stmt, d *ast.StmtAssignData) error {
	exprs := rc.c.b.Exprs
	target := exprs.Get(d.Target)

	switch target.Kind {
	case ast.ExprIdent:
		id, _ := exprs.Ident(d.Target)
		v, err := rc.resolve(rc.c.name(id.Name))
		if err != nil {
			return err
		}
		if d.Compound {
			if err := rc.emitVar(accessGet, v); err != nil {
				return err
			}
		}
		if err := rc.compileValue(st, d); err != nil {
			return err
		}
		return rc.emitVar(accessSet, v)

	case ast.ExprIndex:
		idx, _ := exprs.Index(d.Target)
		if err := rc.compileIndexOperands(idx, rc.compileTarget); err != nil {
			return err
		}
		n := len(idx.Indices)
		if d.Compound {
			if err := rc.emit(bytecode.OpDuplicate, n+1); err != nil {
				return err
			}
			if err := rc.emit(bytecode.OpGetIndex, n); err != nil {
				return err
			}
		}
		if err := rc.compileValue(st, d); err != nil {
			return err
		}
		return rc.emit(bytecode.OpSetIndex, n)

	case ast.ExprMember:
		m, _ := exprs.Member(d.Target)
		if err := rc.compileTarget(m.Target); err != nil {
			return err
		}
		if d.Compound {
			if err := rc.emit(bytecode.OpDuplicate, 1); err != nil {
				return err
			}
			if err := rc.emitField(bytecode.OpGetField, target, m); err != nil {
				return err
			}
		}
		if err := rc.compileValue(st, d); err != nil {
			return err
		}
		return rc.emitField(bytecode.OpSetField, target, m)
	}
	return rc.c.errorf(diag.CmpNotAssignable, target.Span, "cannot assign to this expression")
}

// compileValue pushes the right-hand side, combined with the current value
// already on the stack for compound assignments.
func (rc *routineCompiler) compileValue(st *ast.Stmt, d *ast.StmtAssignData) error {
	if err := rc.compileExpr(d.Value); err != nil {
		return err
	}
	rc.at(st.Span)
	if !d.Compound {
		return nil
	}
	if d.Op == ast.ExprBinaryConcat {
		return rc.emit(bytecode.OpConcat, 2)
	}
	return rc.emit(binaryOpcodes[d.Op])
}
