package compiler

import (
	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

// Hidden locals of desugared loops. '$' keeps them out of reach of scripts.
const (
	rangeEndLocal  = "$end"
	rangeStepLocal = "$step"
	iteratorLocal  = "$iter"
)

func (rc *routineCompiler) compileWhile(data *ast.StmtWhileData) error {
	start := rc.routine.Code.Len()
	if err := rc.compileExpr(data.Cond); err != nil {
		return err
	}
	exit, err := rc.emitJump(bytecode.OpJumpFalse)
	if err != nil {
		return err
	}
	rc.pushLoop(start)
	if err := rc.compileBlock(data.Body); err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpJump, start); err != nil {
		return err
	}
	if err := rc.patchHere(exit); err != nil {
		return err
	}
	return rc.popLoop(rc.routine.Code.Len())
}

// compileRepeat keeps the body's locals visible to the until condition.
func (rc *routineCompiler) compileRepeat(data *ast.StmtRepeatData) error {
	start := rc.routine.Code.Len()
	rc.pushLoop(start)
	rc.beginScope()
	if blk := rc.c.b.Stmts.Block(data.Body); blk != nil {
		for _, st := range blk.Stmts {
			if err := rc.compileStmt(st); err != nil {
				return err
			}
		}
	}
	if err := rc.compileExpr(data.Cond); err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpJumpFalse, start); err != nil {
		return err
	}
	if err := rc.endScope(); err != nil {
		return err
	}
	return rc.popLoop(rc.routine.Code.Len())
}

// compileFor lowers `for v = a to b [step s]` to a counter local plus hidden
// end and step locals. Bounds are evaluated once.
func (rc *routineCompiler) compileFor(st *ast.Stmt, data *ast.StmtForData) error {
	rc.beginScope()
	if err := rc.compileExpr(data.Start); err != nil {
		return err
	}
	counter, err := rc.declareLocal(rc.c.name(data.Var), st.Span)
	if err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpDefineLocal, counter); err != nil {
		return err
	}
	if err := rc.compileExpr(data.End); err != nil {
		return err
	}
	end, err := rc.declareLocal(rangeEndLocal, st.Span)
	if err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpDefineLocal, end); err != nil {
		return err
	}
	step := -1
	if data.Step.IsValid() {
		if err := rc.compileExpr(data.Step); err != nil {
			return err
		}
		if step, err = rc.declareLocal(rangeStepLocal, st.Span); err != nil {
			return err
		}
		if err := rc.emit(bytecode.OpDefineLocal, step); err != nil {
			return err
		}
	}

	rc.at(st.Span)
	start := rc.routine.Code.Len()
	test := bytecode.OpGreater
	if data.Down {
		test = bytecode.OpLess
	}
	if err := rc.emit(bytecode.OpGetLocal, counter); err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpGetLocal, end); err != nil {
		return err
	}
	if err := rc.emit(test); err != nil {
		return err
	}
	exit, err := rc.emitJump(bytecode.OpJumpTrue)
	if err != nil {
		return err
	}

	loop := rc.pushLoop(-1)
	if err := rc.compileScopedBody(data.Body); err != nil {
		return err
	}
	rc.at(st.Span)
	loop.continueTarget = rc.routine.Code.Len()
	if err := rc.emitStep(counter, step, data.Down); err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpJump, start); err != nil {
		return err
	}
	if err := rc.patchHere(exit); err != nil {
		return err
	}
	if err := rc.popLoop(rc.routine.Code.Len()); err != nil {
		return err
	}
	return rc.endScope()
}

func (rc *routineCompiler) emitStep(counter, step int, down bool) error {
	if step < 0 {
		if down {
			return rc.emit(bytecode.OpDecrementLocal, counter)
		}
		return rc.emit(bytecode.OpIncrementLocal, counter)
	}
	op := bytecode.OpAdd
	if down {
		op = bytecode.OpSubtract
	}
	if err := rc.emit(bytecode.OpGetLocal, counter); err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpGetLocal, step); err != nil {
		return err
	}
	if err := rc.emit(op); err != nil {
		return err
	}
	return rc.emit(bytecode.OpSetLocal, counter)
}

func (rc *routineCompiler) compileCFor(data *ast.StmtCForData) error {
	rc.beginScope()
	if data.Init.IsValid() {
		if err := rc.compileStmt(data.Init); err != nil {
			return err
		}
	}
	start := rc.routine.Code.Len()
	exit := -1
	if data.Cond.IsValid() {
		if err := rc.compileExpr(data.Cond); err != nil {
			return err
		}
		at, err := rc.emitJump(bytecode.OpJumpFalse)
		if err != nil {
			return err
		}
		exit = at
	}
	loop := rc.pushLoop(-1)
	if err := rc.compileBlock(data.Body); err != nil {
		return err
	}
	loop.continueTarget = rc.routine.Code.Len()
	if data.Post.IsValid() {
		if err := rc.compileStmt(data.Post); err != nil {
			return err
		}
	}
	if err := rc.emit(bytecode.OpJump, start); err != nil {
		return err
	}
	if exit >= 0 {
		if err := rc.patchHere(exit); err != nil {
			return err
		}
	}
	if err := rc.popLoop(rc.routine.Code.Len()); err != nil {
		return err
	}
	return rc.endScope()
}

// compileForeach lowers the loop to an iterator held in a hidden local. Key and
// value are rebound on every iteration so closures capture one pass each.
func (rc *routineCompiler) compileForeach(st *ast.Stmt, data *ast.StmtForeachData) error {
	rc.beginScope()
	if err := rc.compileExpr(data.Coll); err != nil {
		return err
	}
	rc.at(st.Span)
	byRef := 0
	if data.ByRef {
		byRef = 1
	}
	if err := rc.emit(bytecode.OpNewIterator, byRef); err != nil {
		return err
	}
	iter, err := rc.declareLocal(iteratorLocal, st.Span)
	if err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpDefineLocal, iter); err != nil {
		return err
	}
	key := -1
	if data.Key != source.NoStringID {
		if key, err = rc.declareLocal(rc.c.name(data.Key), st.Span); err != nil {
			return err
		}
	}
	value, err := rc.declareLocal(rc.c.name(data.Value), st.Span)
	if err != nil {
		return err
	}

	start := rc.routine.Code.Len()
	if err := rc.emit(bytecode.OpGetLocal, iter); err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpTestIterator); err != nil {
		return err
	}
	exit, err := rc.emitJump(bytecode.OpJumpFalse)
	if err != nil {
		return err
	}
	if key >= 0 {
		if err := rc.emit(bytecode.OpGetLocal, iter); err != nil {
			return err
		}
		if err := rc.emit(bytecode.OpNextKey); err != nil {
			return err
		}
		if err := rc.emit(bytecode.OpDefineLocal, key); err != nil {
			return err
		}
	}
	if err := rc.emit(bytecode.OpGetLocal, iter); err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpNextValue); err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpDefineLocal, value); err != nil {
		return err
	}

	rc.pushLoop(start)
	if err := rc.compileScopedBody(data.Body); err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpJump, start); err != nil {
		return err
	}
	if err := rc.patchHere(exit); err != nil {
		return err
	}
	if err := rc.popLoop(rc.routine.Code.Len()); err != nil {
		return err
	}
	return rc.endScope()
}
