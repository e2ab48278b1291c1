package compiler

import (
	"fmt"
	"math"

	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
)

var binaryOpcodes = map[ast.ExprBinaryOp]bytecode.Opcode{
	ast.ExprBinaryAdd:        bytecode.OpAdd,
	ast.ExprBinarySub:        bytecode.OpSubtract,
	ast.ExprBinaryMul:        bytecode.OpMultiply,
	ast.ExprBinaryDiv:        bytecode.OpDivide,
	ast.ExprBinaryMod:        bytecode.OpModulus,
	ast.ExprBinaryPow:        bytecode.OpPower,
	ast.ExprBinaryShiftLeft:  bytecode.OpShiftLeft,
	ast.ExprBinaryShiftRight: bytecode.OpShiftRight,
	ast.ExprBinaryEq:         bytecode.OpEqual,
	ast.ExprBinaryNotEq:      bytecode.OpNotEqual,
	ast.ExprBinaryLess:       bytecode.OpLess,
	ast.ExprBinaryLessEq:     bytecode.OpLessEqual,
	ast.ExprBinaryGreater:    bytecode.OpGreater,
	ast.ExprBinaryGreaterEq:  bytecode.OpGreaterEqual,
	ast.ExprBinaryCompare:    bytecode.OpCompare,
}

func (rc *routineCompiler) compileExpr(id ast.ExprID) error {
	exprs := rc.c.b.Exprs
	e := exprs.Get(id)
	if e == nil {
		return fmt.Errorf("compile: unknown expression %d", id)
	}
	if err := rc.c.enter(e.Span); err != nil {
		return err
	}
	defer rc.c.leave()

	switch e.Kind {
	case ast.ExprIdent:
		d, _ := exprs.Ident(id)
		v, err := rc.resolve(rc.c.name(d.Name))
		if err != nil {
			return err
		}
		rc.at(e.Span)
		return rc.emitVar(accessGet, v)

	case ast.ExprLit:
		d, _ := exprs.Literal(id)
		rc.at(e.Span)
		return rc.compileLiteral(d)

	case ast.ExprUnary:
		d, _ := exprs.Unary(id)
		if d.Op == ast.ExprUnaryRef {
			return rc.compileRef(d.Operand)
		}
		if err := rc.compileExpr(d.Operand); err != nil {
			return err
		}
		rc.at(e.Span)
		if d.Op == ast.ExprUnaryNot {
			return rc.emit(bytecode.OpNot)
		}
		return rc.emit(bytecode.OpNegate)

	case ast.ExprBinary:
		d, _ := exprs.Binary(id)
		return rc.compileBinary(e, d)

	case ast.ExprCall:
		d, _ := exprs.Call(id)
		return rc.compileCall(e, d)

	case ast.ExprIndex:
		d, _ := exprs.Index(id)
		if err := rc.compileIndexOperands(d, rc.compileExpr); err != nil {
			return err
		}
		rc.at(e.Span)
		return rc.emit(bytecode.OpGetIndex, len(d.Indices))

	case ast.ExprMember:
		d, _ := exprs.Member(id)
		if err := rc.compileExpr(d.Target); err != nil {
			return err
		}
		return rc.emitField(bytecode.OpGetField, e, d)

	case ast.ExprList, ast.ExprSet:
		d, _ := exprs.List(id)
		for _, el := range d.Elements {
			if err := rc.compileExpr(el); err != nil {
				return err
			}
		}
		rc.at(e.Span)
		if e.Kind == ast.ExprSet {
			return rc.emit(bytecode.OpNewSet, len(d.Elements))
		}
		return rc.emit(bytecode.OpNewList, len(d.Elements))

	case ast.ExprTable:
		d, _ := exprs.Table(id)
		for i := range d.Keys {
			if err := rc.compileExpr(d.Keys[i]); err != nil {
				return err
			}
			if err := rc.compileExpr(d.Values[i]); err != nil {
				return err
			}
		}
		rc.at(e.Span)
		return rc.emit(bytecode.OpNewTable, len(d.Keys))

	case ast.ExprFunc:
		d, _ := exprs.Func(id)
		return rc.compileFunction(d.Func, "")

	case ast.ExprCond:
		d, _ := exprs.Cond(id)
		if err := rc.compileExpr(d.Cond); err != nil {
			return err
		}
		other, err := rc.emitJump(bytecode.OpJumpFalse)
		if err != nil {
			return err
		}
		if err := rc.compileExpr(d.Then); err != nil {
			return err
		}
		exit, err := rc.emitJump(bytecode.OpJump)
		if err != nil {
			return err
		}
		if err := rc.patchHere(other); err != nil {
			return err
		}
		if err := rc.compileExpr(d.Else); err != nil {
			return err
		}
		return rc.patchHere(exit)
	}
	return fmt.Errorf("compile: unexpected expression kind %d", e.Kind)
}

func (rc *routineCompiler) compileLiteral(d *ast.ExprLiteralData) error {
	switch d.Kind {
	case ast.ExprLitNull:
		return rc.emit(bytecode.OpPushNull)
	case ast.ExprLitTrue:
		return rc.emit(bytecode.OpPushTrue)
	case ast.ExprLitFalse:
		return rc.emit(bytecode.OpPushFalse)
	case ast.ExprLitNan:
		return rc.emit(bytecode.OpPushNan)
	case ast.ExprLitInt:
		if d.Int >= math.MinInt16 && d.Int <= math.MaxInt16 {
			return rc.emit(bytecode.OpPushSmallInt, int(d.Int))
		}
		k, err := rc.routine.AddInteger(d.Int)
		if err != nil {
			return rc.codeError(err)
		}
		return rc.emit(bytecode.OpPushInteger, k)
	case ast.ExprLitFloat:
		k, err := rc.routine.AddFloat(d.Float)
		if err != nil {
			return rc.codeError(err)
		}
		return rc.emit(bytecode.OpPushFloat, k)
	case ast.ExprLitString:
		k, err := rc.stringConst(d.Str)
		if err != nil {
			return err
		}
		return rc.emit(bytecode.OpPushString, k)
	case ast.ExprLitRegex:
		pat, err := rc.stringConst(d.Str)
		if err != nil {
			return err
		}
		flags, err := rc.stringConst(d.Flags)
		if err != nil {
			return err
		}
		return rc.emit(bytecode.OpNewRegex, pat, flags)
	}
	return fmt.Errorf("compile: unexpected literal kind %d", d.Kind)
}

func (rc *routineCompiler) compileBinary(e *ast.Expr, d *ast.ExprBinaryData) error {
	switch d.Op {
	case ast.ExprBinaryLogicalAnd, ast.ExprBinaryLogicalOr:
		if err := rc.compileExpr(d.Left); err != nil {
			return err
		}
		op := bytecode.OpJumpFalseAnd
		if d.Op == ast.ExprBinaryLogicalOr {
			op = bytecode.OpJumpTrueOr
		}
		rc.at(e.Span)
		exit, err := rc.emitJump(op)
		if err != nil {
			return err
		}
		if err := rc.compileExpr(d.Right); err != nil {
			return err
		}
		return rc.patchHere(exit)

	case ast.ExprBinaryConcat:
		operands := rc.concatOperands(d, nil)
		for _, op := range operands {
			if err := rc.compileExpr(op); err != nil {
				return err
			}
		}
		rc.at(e.Span)
		return rc.emit(bytecode.OpConcat, len(operands))
	}

	if err := rc.compileExpr(d.Left); err != nil {
		return err
	}
	if err := rc.compileExpr(d.Right); err != nil {
		return err
	}
	rc.at(e.Span)
	return rc.emit(binaryOpcodes[d.Op])
}

// concatOperands flattens a left-leaning chain `a & b & c` into one list.
func (rc *routineCompiler) concatOperands(d *ast.ExprBinaryData, out []ast.ExprID) []ast.ExprID {
	if left, ok := rc.c.b.Exprs.Binary(d.Left); ok && left.Op == ast.ExprBinaryConcat {
		out = rc.concatOperands(left, out)
	} else {
		out = append(out, d.Left)
	}
	return append(out, d.Right)
}

func (rc *routineCompiler) compileIndexOperands(d *ast.ExprIndexData, target func(ast.ExprID) error) error {
	if err := target(d.Target); err != nil {
		return err
	}
	for _, idx := range d.Indices {
		if err := rc.compileExpr(idx); err != nil {
			return err
		}
	}
	return nil
}

func (rc *routineCompiler) emitField(op bytecode.Opcode, e *ast.Expr, d *ast.ExprMemberData, extra ...int) error {
	k, err := rc.stringConst(rc.c.name(d.Field))
	if err != nil {
		return err
	}
	rc.at(e.Span)
	return rc.emit(op, append([]int{k}, extra...)...)
}

// compileRef pushes a reference to an lvalue. Anything else is pushed by value.
func (rc *routineCompiler) compileRef(id ast.ExprID) error {
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
		return rc.emitVar(accessRef, v)
	case ast.ExprIndex:
		d, _ := exprs.Index(id)
		if err := rc.compileIndexOperands(d, rc.compileTarget); err != nil {
			return err
		}
		rc.at(e.Span)
		return rc.emit(bytecode.OpGetIndexRef, len(d.Indices))
	case ast.ExprMember:
		d, _ := exprs.Member(id)
		if err := rc.compileTarget(d.Target); err != nil {
			return err
		}
		return rc.emitField(bytecode.OpGetFieldRef, e, d)
	}
	return rc.compileExpr(id)
}

// compileTarget pushes the container an indexed or member assignment writes
// into. Containers are shared by reference, so the stored object itself is
// updated and every variable holding it sees the change.
func (rc *routineCompiler) compileTarget(id ast.ExprID) error {
	return rc.compileExpr(id)
}
