package compiler

import (
	"fmt"

	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
)

func (rc *routineCompiler) compileBlock(id ast.StmtID) error {
	blk := rc.c.b.Stmts.Block(id)
	if blk == nil {
		return rc.compileStmt(id)
	}
	if blk.Scoped {
		rc.beginScope()
	}
	for _, st := range blk.Stmts {
		if err := rc.compileStmt(st); err != nil {
			return err
		}
	}
	if blk.Scoped {
		return rc.endScope()
	}
	return nil
}

// compileScopedBody compiles a block in a fresh scope whether or not the
// parser marked it scoped.
func (rc *routineCompiler) compileScopedBody(id ast.StmtID) error {
	rc.beginScope()
	if blk := rc.c.b.Stmts.Block(id); blk != nil {
		for _, st := range blk.Stmts {
			if err := rc.compileStmt(st); err != nil {
				return err
			}
		}
	} else if err := rc.compileStmt(id); err != nil {
		return err
	}
	return rc.endScope()
}

func (rc *routineCompiler) compileStmt(id ast.StmtID) error {
	stmts := rc.c.b.Stmts
	st := stmts.Get(id)
	if st == nil {
		return fmt.Errorf("compile: unknown statement %d", id)
	}
	if err := rc.c.enter(st.Span); err != nil {
		return err
	}
	defer rc.c.leave()
	rc.at(st.Span)

	switch st.Kind {
	case ast.StmtBlock:
		return rc.compileBlock(id)

	case ast.StmtExpr:
		if err := rc.compileExpr(stmts.Expr(id).Expr); err != nil {
			return err
		}
		return rc.emit(bytecode.OpPop)

	case ast.StmtVar:
		return rc.compileVar(stmts.Var(id))

	case ast.StmtAssign:
		return rc.compileAssign(st, stmts.Assign(id))

	case ast.StmtIf:
		return rc.compileIf(stmts.If(id))

	case ast.StmtWhile:
		return rc.compileWhile(stmts.While(id))

	case ast.StmtRepeat:
		return rc.compileRepeat(stmts.Repeat(id))

	case ast.StmtFor:
		return rc.compileFor(st, stmts.For(id))

	case ast.StmtCFor:
		return rc.compileCFor(stmts.CFor(id))

	case ast.StmtForeach:
		return rc.compileForeach(st, stmts.Foreach(id))

	case ast.StmtFunc:
		return rc.compileFuncDecl(stmts.Func(id).Func)

	case ast.StmtReturn:
		if e := stmts.Return(id).Expr; e.IsValid() {
			if err := rc.compileExpr(e); err != nil {
				return err
			}
		} else if err := rc.emit(bytecode.OpPushNull); err != nil {
			return err
		}
		return rc.emit(bytecode.OpReturn)

	case ast.StmtBreak:
		l := rc.innerLoop()
		if l == nil {
			return rc.c.errorf(diag.CmpBreakOutsideLoop, st.Span, "'break' outside of a loop")
		}
		at, err := rc.emitJump(bytecode.OpJump)
		if err != nil {
			return err
		}
		l.breaks = append(l.breaks, at)
		return nil

	case ast.StmtContinue:
		l := rc.innerLoop()
		if l == nil {
			return rc.c.errorf(diag.CmpContinueOutsideLoop, st.Span, "'continue' outside of a loop")
		}
		if l.continueTarget >= 0 {
			return rc.emit(bytecode.OpJump, l.continueTarget)
		}
		at, err := rc.emitJump(bytecode.OpJump)
		if err != nil {
			return err
		}
		l.continues = append(l.continues, at)
		return nil

	case ast.StmtPass:
		return nil

	case ast.StmtPrint:
		data := stmts.Print(id)
		for _, e := range data.Args {
			if err := rc.compileExpr(e); err != nil {
				return err
			}
		}
		rc.at(st.Span)
		if data.Newline {
			return rc.emit(bytecode.OpPrintLine, len(data.Args))
		}
		return rc.emit(bytecode.OpPrint, len(data.Args))

	case ast.StmtAssert:
		data := stmts.Assert(id)
		n := 1
		if err := rc.compileExpr(data.Cond); err != nil {
			return err
		}
		if data.Msg.IsValid() {
			n++
			if err := rc.compileExpr(data.Msg); err != nil {
				return err
			}
		}
		rc.at(st.Span)
		return rc.emit(bytecode.OpAssert, n)

	case ast.StmtThrow:
		if err := rc.compileExpr(stmts.Throw(id).Expr); err != nil {
			return err
		}
		rc.at(st.Span)
		return rc.emit(bytecode.OpThrow)
	}
	return fmt.Errorf("compile: unexpected statement kind %d", st.Kind)
}

// compileVar evaluates each initialiser before its name is in scope, so
// `var x = x` reads the outer x.
func (rc *routineCompiler) compileVar(data *ast.StmtVarData) error {
	for i, nameID := range data.Names {
		if len(data.Values) > i {
			if err := rc.compileExpr(data.Values[i]); err != nil {
				return err
			}
		} else if err := rc.emit(bytecode.OpPushNull); err != nil {
			return err
		}
		rc.at(data.Spans[i])
		name := rc.c.name(nameID)
		if rc.isModuleScope() && rc.c.opts.GlobalDecls {
			k, err := rc.stringConst(name)
			if err != nil {
				return err
			}
			if err := rc.emit(bytecode.OpSetGlobal, k); err != nil {
				return err
			}
			continue
		}
		slot, err := rc.declareLocal(name, data.Spans[i])
		if err != nil {
			return err
		}
		if err := rc.emit(bytecode.OpDefineLocal, slot); err != nil {
			return err
		}
	}
	return nil
}

// isModuleScope reports the outermost scope of the top-level routine.
func (rc *routineCompiler) isModuleScope() bool {
	return rc.parent == nil && rc.depth <= 1
}

func (rc *routineCompiler) compileIf(data *ast.StmtIfData) error {
	var exits []int
	for i, cond := range data.Conds {
		if err := rc.compileExpr(cond); err != nil {
			return err
		}
		next, err := rc.emitJump(bytecode.OpJumpFalse)
		if err != nil {
			return err
		}
		if err := rc.compileBlock(data.Blocks[i]); err != nil {
			return err
		}
		if i < len(data.Conds)-1 || data.Else.IsValid() {
			at, err := rc.emitJump(bytecode.OpJump)
			if err != nil {
				return err
			}
			exits = append(exits, at)
		}
		if err := rc.patchHere(next); err != nil {
			return err
		}
	}
	if data.Else.IsValid() {
		if err := rc.compileBlock(data.Else); err != nil {
			return err
		}
	}
	for _, at := range exits {
		if err := rc.patchHere(at); err != nil {
			return err
		}
	}
	return nil
}
