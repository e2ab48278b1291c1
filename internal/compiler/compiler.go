// Package compiler lowers a parsed script into a bytecode Routine.
//
// Every identifier is resolved at compile time to a local slot, an upvalue
// captured from an enclosing routine, or a global name. Nested function
// literals become nested routines referenced by index from their parent.
package compiler

import (
	"context"
	"errors"
	"fmt"

	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/parser"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

// DefaultMaxDepth bounds nesting of expressions, statements and functions.
const DefaultMaxDepth = 256

// ObjectClass is the global looked up for untyped parameters.
const ObjectClass = "Object"

type Options struct {
	// Name of the top-level routine; empty for scripts.
	Name     string
	MaxDepth int
	// GlobalDecls makes top-level `var` declarations define globals instead
	// of module locals. The REPL compiles each line with it set.
	GlobalDecls bool
}

// Compile lowers the block root into a top-level routine. The routine takes
// one hidden parameter, the module object exports are written to.
func Compile(ctx context.Context, b *ast.Builder, root ast.StmtID, file *source.File, opts Options) (*bytecode.Routine, error) {
	if b == nil || !root.IsValid() {
		return nil, errors.New("compile: no syntax tree")
	}
	_, span := trace.StartSpan(ctx, trace.ScopePhase, "compile")
	defer span.End(file.Path)

	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	c := &compiler{b: b, file: file, opts: opts}
	rc := c.newRoutine(nil, opts.Name, 1)
	rc.beginScope()
	if _, err := rc.declareLocal(parser.ModuleParam, source.Span{File: file.ID}); err != nil {
		return nil, err
	}
	rc.routine.NumParams = 1
	if err := rc.emitFrame(); err != nil {
		return nil, err
	}
	if err := rc.compileStmt(root); err != nil {
		return nil, err
	}
	if err := rc.finish(c.lastLine(c.b.Stmts.Get(root).Span)); err != nil {
		return nil, err
	}
	return rc.routine, nil
}

type compiler struct {
	b     *ast.Builder
	file  *source.File
	opts  Options
	depth int
}

type local struct {
	name  string
	depth int
	slot  int
}

type loopCtx struct {
	breaks    []int
	continues []int
	// continueTarget is -1 until the continuation address is known.
	continueTarget int
}

// routineCompiler holds the state for one routine being compiled.
type routineCompiler struct {
	c       *compiler
	parent  *routineCompiler
	routine *bytecode.Routine

	locals    []local
	depth     int
	maxSlots  int
	loopStack []*loopCtx
	frameAt   int
	line      int
}

func (c *compiler) newRoutine(parent *routineCompiler, name string, line int) *routineCompiler {
	return &routineCompiler{
		c:       c,
		parent:  parent,
		routine: bytecode.NewRoutine(name, c.file.Path, line),
		line:    line,
	}
}

func (c *compiler) lineOf(sp source.Span) int {
	return c.file.LineOf(sp.Start)
}

// lastLine is the line the implicit return of a routine spanning sp is attributed to.
func (c *compiler) lastLine(sp source.Span) int {
	if sp.End > 0 {
		return c.file.LineOf(sp.End - 1)
	}
	return 1
}

func (c *compiler) name(id source.StringID) string {
	return c.b.Name(id)
}

// errorf builds the error for code located at sp.
func (c *compiler) errorf(code diag.Code, sp source.Span, format string, args ...any) error {
	return &diag.Error{
		Kind:    code.Kind(),
		Code:    code,
		File:    c.file.Path,
		Line:    c.lineOf(sp),
		Message: fmt.Sprintf(format, args...),
	}
}

func (c *compiler) enter(sp source.Span) error {
	c.depth++
	if c.depth > c.opts.MaxDepth {
		return c.errorf(diag.CmpTooMuchRecursion, sp, "too much recursion")
	}
	return nil
}

func (c *compiler) leave() {
	c.depth--
}

// emitFrame reserves the frame instruction whose local count is patched by finish.
func (rc *routineCompiler) emitFrame() error {
	at, err := rc.routine.Code.Emit(bytecode.OpNewFrame, rc.line, 0)
	if err != nil {
		return err
	}
	rc.frameAt = at + 1
	return nil
}

// finish appends the implicit `return null` and seals the frame size.
func (rc *routineCompiler) finish(line int) error {
	rc.line = line
	if err := rc.emit(bytecode.OpPushNull); err != nil {
		return err
	}
	if err := rc.emit(bytecode.OpReturn); err != nil {
		return err
	}
	rc.routine.NumLocals = rc.maxSlots
	return rc.routine.Code.Patch(rc.frameAt, rc.maxSlots)
}

func (rc *routineCompiler) at(sp source.Span) {
	rc.line = rc.c.lineOf(sp)
}

func (rc *routineCompiler) emit(op bytecode.Opcode, operands ...int) error {
	if _, err := rc.routine.Code.Emit(op, rc.line, operands...); err != nil {
		return rc.codeError(err)
	}
	return nil
}

func (rc *routineCompiler) emitJump(op bytecode.Opcode) (int, error) {
	at, err := rc.routine.Code.EmitJump(op, rc.line)
	if err != nil {
		return 0, rc.codeError(err)
	}
	return at, nil
}

// patchHere points the jump operand at operandAt to the next instruction.
func (rc *routineCompiler) patchHere(operandAt int) error {
	return rc.patch(operandAt, rc.routine.Code.Len())
}

func (rc *routineCompiler) patch(operandAt, target int) error {
	if err := rc.routine.Code.PatchJump(operandAt, target); err != nil {
		return rc.codeError(err)
	}
	return nil
}

func (rc *routineCompiler) codeError(err error) error {
	code := diag.CmpTooManyConstants
	msg := err.Error()
	switch {
	case errors.Is(err, bytecode.ErrJumpRange):
		code, msg = diag.CmpJumpTooFar, "routine is too large: jump target out of range"
	case errors.Is(err, bytecode.ErrPoolFull):
		msg = "too many constants in routine"
	}
	return &diag.Error{
		Kind:    code.Kind(),
		Code:    code,
		File:    rc.c.file.Path,
		Line:    rc.line,
		Message: msg,
	}
}

func (rc *routineCompiler) stringConst(s string) (int, error) {
	i, err := rc.routine.AddString(s)
	if err != nil {
		return 0, rc.codeError(err)
	}
	return i, nil
}

func (rc *routineCompiler) innerLoop() *loopCtx {
	if len(rc.loopStack) == 0 {
		return nil
	}
	return rc.loopStack[len(rc.loopStack)-1]
}

func (rc *routineCompiler) pushLoop(continueTarget int) *loopCtx {
	l := &loopCtx{continueTarget: continueTarget}
	rc.loopStack = append(rc.loopStack, l)
	return l
}

// popLoop patches every break to breakTarget and pending continues to the
// loop's continuation address.
func (rc *routineCompiler) popLoop(breakTarget int) error {
	l := rc.innerLoop()
	rc.loopStack = rc.loopStack[:len(rc.loopStack)-1]
	for _, at := range l.breaks {
		if err := rc.patch(at, breakTarget); err != nil {
			return err
		}
	}
	for _, at := range l.continues {
		if err := rc.patch(at, l.continueTarget); err != nil {
			return err
		}
	}
	return nil
}
