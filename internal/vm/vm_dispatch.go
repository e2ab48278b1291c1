package vm

import (
	"io"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/number"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// opWidth caches the encoded size of every opcode.
var opWidth = func() (w [256]int) {
	for i := range w {
		w[i] = bytecode.Opcode(i).Width()
	}
	return w
}()

var arithOps = map[bytecode.Opcode]struct {
	op  number.Op
	sym string
}{
	bytecode.OpAdd:        {number.Add, "+"},
	bytecode.OpSubtract:   {number.Sub, "-"},
	bytecode.OpMultiply:   {number.Mul, "*"},
	bytecode.OpDivide:     {number.Div, "/"},
	bytecode.OpModulus:    {number.Mod, "%"},
	bytecode.OpPower:      {number.Pow, "^"},
	bytecode.OpShiftLeft:  {number.Shl, "<<"},
	bytecode.OpShiftRight: {number.Shr, ">>"},
}

// run executes instructions until the frame count drops to stop. The
// collector gets a chance to run between instructions, except while a
// native that called back into the VM is still on the Go stack.
func (vm *VM) run(stop int) *diag.Error {
	for len(vm.frames) > stop {
		if vm.natives == 0 {
			vm.heap.MaybeCollect()
		}

		f := &vm.frames[len(vm.frames)-1]
		code := f.Routine.Code.Bytes
		if f.ip >= len(code) {
			return vm.eb.makeError(diag.RunInfo, "routine %s ran past its end", f.name())
		}
		f.pc = f.ip
		op := bytecode.Opcode(code[f.ip])
		if vm.trace != nil {
			vm.trace.TraceInstr(vm, f)
		}
		f.ip += opWidth[op]
		if err := vm.exec(f, op); err != nil {
			return err
		}
	}
	return nil
}

// exec runs one instruction. f is only valid until the instruction pushes a
// new frame.
func (vm *VM) exec(f *Frame, op bytecode.Opcode) *diag.Error {
	h := vm.heap
	r := f.Routine

	switch op {
	case bytecode.OpNoop:
	case bytecode.OpPop:
		h.Release(vm.pop())
	case bytecode.OpDuplicate:
		n := f.word(f.pc + 1)
		for i := 0; i < n; i++ {
			vm.push(h.Retain(vm.stack[vm.sp-n]))
		}
	case bytecode.OpPushNull:
		vm.push(object.Null)
	case bytecode.OpPushTrue:
		vm.push(object.Bool(true))
	case bytecode.OpPushFalse:
		vm.push(object.Bool(false))
	case bytecode.OpPushNan:
		vm.push(object.Nan())
	case bytecode.OpPushSmallInt:
		vm.push(object.Int(int64(r.Code.SignedWord(f.pc + 1))))
	case bytecode.OpPushInteger:
		vm.push(object.Int(r.Integers[f.word(f.pc+1)]))
	case bytecode.OpPushFloat:
		vm.push(object.Float(r.Floats[f.word(f.pc+1)]))
	case bytecode.OpPushString:
		vm.push(object.String(r.Strings[f.word(f.pc+1)]))
	case bytecode.OpNewRegex:
		pattern, flags := r.Strings[f.word(f.pc+1)], r.Strings[f.word(f.pc+3)]
		re, err := h.NewRegex(pattern, flags)
		if err != nil {
			return vm.eb.typeMismatch("invalid regular expression /%s/: %v", pattern, err)
		}
		vm.push(re)

	case bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide,
		bytecode.OpModulus, bytecode.OpPower, bytecode.OpShiftLeft, bytecode.OpShiftRight:
		a := arithOps[op]
		return vm.arith(a.op, a.sym)
	case bytecode.OpNegate:
		return vm.negate()
	case bytecode.OpConcat:
		vm.concat(f.word(f.pc + 1))
	case bytecode.OpEqual, bytecode.OpNotEqual, bytecode.OpLess, bytecode.OpLessEqual,
		bytecode.OpGreater, bytecode.OpGreaterEqual, bytecode.OpCompare:
		return vm.compare(op)
	case bytecode.OpNot:
		v := vm.pop()
		vm.push(object.Bool(!vm.truthy(v)))
		h.Release(v)

	case bytecode.OpJump:
		f.ip = f.word(f.pc + 1)
	case bytecode.OpJumpFalse, bytecode.OpJumpTrue:
		v := vm.pop()
		if vm.truthy(v) == (op == bytecode.OpJumpTrue) {
			f.ip = f.word(f.pc + 1)
		}
		h.Release(v)
	case bytecode.OpJumpFalseAnd, bytecode.OpJumpTrueOr:
		if vm.truthy(vm.peek(0)) == (op == bytecode.OpJumpTrueOr) {
			f.ip = f.word(f.pc + 1)
		} else {
			h.Release(vm.pop())
		}

	case bytecode.OpPrecall:
		vm.precalls = append(vm.precalls, vm.sp-1)
	case bytecode.OpCall:
		if n := len(vm.precalls); n > 0 {
			vm.precalls = vm.precalls[:n-1]
		}
		return vm.callValue(f.word(f.pc+1), false)
	case bytecode.OpReturn:
		vm.ret()
	case bytecode.OpNewFrame:
		need := f.base + f.word(f.pc+1)
		for vm.sp < need {
			vm.push(object.Null)
		}
	case bytecode.OpNewClosure:
		return vm.newClosure(f, f.word(f.pc+1), f.word(f.pc+3))
	case bytecode.OpThrow:
		v := vm.pop()
		msg := h.ToString(v)
		h.Release(v)
		return vm.eb.makeError(diag.RunThrow, "%s", msg)
	case bytecode.OpAssert:
		return vm.assert(f.word(f.pc + 1))
	case bytecode.OpPrint, bytecode.OpPrintLine:
		return vm.print(f.word(f.pc+1), op == bytecode.OpPrintLine)

	case bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpDefineLocal, bytecode.OpClearLocal,
		bytecode.OpGetLocalRef, bytecode.OpGetLocalArg,
		bytecode.OpIncrementLocal, bytecode.OpDecrementLocal, bytecode.OpDefineLocalFunc:
		return vm.execLocal(f, op)
	case bytecode.OpGetUpvalue, bytecode.OpSetUpvalue, bytecode.OpGetUpvalueRef, bytecode.OpGetUpvalueArg:
		return vm.execUpvalue(f, op)
	case bytecode.OpGetGlobal, bytecode.OpSetGlobal, bytecode.OpGetGlobalRef,
		bytecode.OpGetGlobalArg, bytecode.OpDefineGlobalFunc:
		return vm.execGlobal(f, op)

	case bytecode.OpGetIndex:
		return vm.invokeMethod(getItem, f.word(f.pc+1)+1, false)
	case bytecode.OpSetIndex:
		return vm.invokeMethod(setItem, f.word(f.pc+1)+2, true)
	case bytecode.OpGetIndexRef:
		return vm.indexRef(f.word(f.pc + 1))
	case bytecode.OpGetIndexArg:
		if vm.argIsRef(f.word(f.pc + 3)) {
			return vm.indexRef(f.word(f.pc + 1))
		}
		return vm.invokeMethod(getItem, f.word(f.pc+1)+1, false)
	case bytecode.OpGetField:
		vm.push(object.String(r.Strings[f.word(f.pc+1)]))
		return vm.invokeMethod(getField, 2, false)
	case bytecode.OpSetField:
		vm.insert(1, object.String(r.Strings[f.word(f.pc+1)]))
		return vm.invokeMethod(setField, 3, true)
	case bytecode.OpGetFieldRef:
		return vm.fieldRef(r.Strings[f.word(f.pc+1)])
	case bytecode.OpGetFieldArg:
		name := r.Strings[f.word(f.pc+1)]
		if vm.argIsRef(f.word(f.pc + 3)) {
			return vm.fieldRef(name)
		}
		vm.push(object.String(name))
		return vm.invokeMethod(getField, 2, false)

	case bytecode.OpNewList:
		vm.push(h.NewList(vm.popN(f.word(f.pc + 1))))
	case bytecode.OpNewTable:
		vm.newTable(f.word(f.pc + 1))
	case bytecode.OpNewSet:
		vm.push(h.NewSet(vm.popN(f.word(f.pc + 1))))

	case bytecode.OpNewIterator:
		return vm.newIterator(f.word(f.pc+1) != 0)
	case bytecode.OpTestIterator, bytecode.OpNextKey, bytecode.OpNextValue:
		return vm.stepIterator(op)

	default:
		return vm.eb.makeError(diag.RunInfo, "invalid opcode 0x%02x at %d", byte(op), f.pc)
	}
	return nil
}

func (vm *VM) truthy(v object.Value) bool {
	return object.Truthy(vm.heap.Deref(v))
}

func (vm *VM) newTable(pairs int) {
	h := vm.heap
	vals := vm.popN(2 * pairs)
	tv := h.NewTable()
	t := h.Payload(tv).(*object.Table)
	for i := 0; i < len(vals); i += 2 {
		t.Put(h, vals[i], vals[i+1])
	}
	vm.push(tv)
}

func (vm *VM) assert(n int) *diag.Error {
	h := vm.heap
	msg := object.Null
	if n > 1 {
		msg = vm.pop()
	}
	cond := vm.pop()
	ok := vm.truthy(cond)
	h.Release(cond)
	if ok {
		h.Release(msg)
		return nil
	}
	text := "assertion failed"
	if n > 1 {
		text += ": " + h.ToString(msg)
	}
	h.Release(msg)
	return vm.eb.makeError(diag.RunAssertion, "%s", text)
}

// print writes its operands separated by single spaces.
func (vm *VM) print(n int, newline bool) *diag.Error {
	h := vm.heap
	vals := vm.popN(n)
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(h.ToString(v))
	}
	h.ReleaseAll(vals)
	if newline {
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(vm.out, b.String()); err != nil {
		e := vm.eb.makeError(diag.HostIOError, "print: %v", err)
		e.Cause = err
		return e
	}
	return nil
}
