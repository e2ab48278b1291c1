package compiler

import (
	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
)

// lambdaName is the routine name of anonymous function literals.
const lambdaName = "<lambda>"

// compileFuncDecl binds a named function. At module scope a plain
// `function f` adds to the global overload set of f; anywhere else, and for
// `local function`, it adds to a local of the current scope. The local is
// declared before the body is compiled so the function can call itself.
func (rc *routineCompiler) compileFuncDecl(id ast.FuncID) error {
	fn := rc.c.b.Funcs.Get(id)
	name := rc.c.name(fn.Name)

	if !fn.Local && rc.isModuleScope() {
		if err := rc.compileFunction(id, name); err != nil {
			return err
		}
		k, err := rc.stringConst(name)
		if err != nil {
			return err
		}
		rc.at(fn.Span)
		return rc.emit(bytecode.OpDefineGlobalFunc, k)
	}

	slot, ok := rc.localInScope(name)
	if !ok {
		var err error
		if slot, err = rc.declareLocal(name, fn.Span); err != nil {
			return err
		}
		rc.at(fn.Span)
		if err := rc.emit(bytecode.OpPushNull); err != nil {
			return err
		}
		if err := rc.emit(bytecode.OpDefineLocal, slot); err != nil {
			return err
		}
	}
	if err := rc.compileFunction(id, name); err != nil {
		return err
	}
	rc.at(fn.Span)
	return rc.emit(bytecode.OpDefineLocalFunc, slot)
}

// compileFunction compiles fn into a nested routine and emits the closure
// creation. Parameter types are evaluated here, in the enclosing routine,
// every time the closure is created.
func (rc *routineCompiler) compileFunction(id ast.FuncID, name string) error {
	fn := rc.c.b.Funcs.Get(id)
	if err := rc.c.enter(fn.Span); err != nil {
		return err
	}
	defer rc.c.leave()

	if len(fn.Params) > bytecode.MaxParams {
		return rc.c.errorf(diag.CmpTooManyParams, fn.Span, "too many parameters: %d (limit is %d)", len(fn.Params), bytecode.MaxParams)
	}
	for _, p := range fn.Params {
		if p.Type.IsValid() {
			if err := rc.compileExpr(p.Type); err != nil {
				return err
			}
			continue
		}
		k, err := rc.stringConst(ObjectClass)
		if err != nil {
			return err
		}
		rc.at(p.Span)
		if err := rc.emit(bytecode.OpGetGlobal, k); err != nil {
			return err
		}
	}

	if name == "" {
		name = lambdaName
	}
	child := rc.c.newRoutine(rc, name, rc.c.lineOf(fn.Span))
	child.beginScope()
	for i, p := range fn.Params {
		pname := rc.c.name(p.Name)
		if _, dup := child.localInScope(pname); dup {
			return rc.c.errorf(diag.CmpDuplicateParam, p.Span, "duplicate parameter %q", pname)
		}
		if _, err := child.declareLocal(pname, p.Span); err != nil {
			return err
		}
		if p.ByRef {
			child.routine.SetRef(i)
		}
	}
	child.routine.NumParams = len(fn.Params)
	if err := child.emitFrame(); err != nil {
		return err
	}
	if err := child.compileBlock(fn.Body); err != nil {
		return err
	}
	if err := child.finish(rc.c.lastLine(fn.Span)); err != nil {
		return err
	}

	idx, err := rc.routine.AddRoutine(child.routine)
	if err != nil {
		return rc.codeError(err)
	}
	rc.at(fn.Span)
	return rc.emit(bytecode.OpNewClosure, idx, len(fn.Params))
}
