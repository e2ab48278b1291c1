package vm

import (
	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/number"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// Reads push an owned copy of the variable's content. Stores write through
// aliases; definitions rebind the slot, so a variable captured by an earlier
// closure keeps its old cell.

func (vm *VM) execLocal(f *Frame, op bytecode.Opcode) *diag.Error {
	h := vm.heap
	slot := vm.local(f, f.word(f.pc+1))

	switch op {
	case bytecode.OpGetLocal:
		vm.push(h.Load(*slot))
	case bytecode.OpSetLocal:
		h.Assign(slot, vm.pop())
	case bytecode.OpDefineLocal:
		h.Rebind(slot, vm.pop())
	case bytecode.OpClearLocal:
		h.Rebind(slot, object.Null)
	case bytecode.OpGetLocalRef:
		vm.push(h.MakeAlias(slot))
	case bytecode.OpGetLocalArg:
		if vm.argIsRef(f.word(f.pc + 3)) {
			vm.push(h.MakeAlias(slot))
		} else {
			vm.push(h.Load(*slot))
		}
	case bytecode.OpIncrementLocal, bytecode.OpDecrementLocal:
		return vm.step(slot, op == bytecode.OpIncrementLocal)
	case bytecode.OpDefineLocalFunc:
		if err := h.DefineFunction(slot, vm.pop()); err != nil {
			return vm.eb.makeError(diag.RunRefMismatch, "%v", err)
		}
	}
	return nil
}

// step adds or subtracts one in place; used by range loops.
func (vm *VM) step(slot *object.Value, up bool) *diag.Error {
	h := vm.heap
	v := h.Deref(*slot)
	if !v.IsNumber() {
		return vm.eb.typeMismatch("loop counter must be a number, got %s", h.TypeName(v))
	}
	op, sym := number.Add, "+"
	if !up {
		op, sym = number.Sub, "-"
	}
	res, err := number.Arith(op, v.Num(), number.Int(1))
	if err != nil {
		return vm.eb.arith(err, sym)
	}
	h.Assign(slot, object.FromNum(res))
	return nil
}

func (vm *VM) execUpvalue(f *Frame, op bytecode.Opcode) *diag.Error {
	h := vm.heap
	slot := &f.Closure.Upvalues[f.word(f.pc+1)]

	switch op {
	case bytecode.OpGetUpvalue:
		vm.push(h.Load(*slot))
	case bytecode.OpSetUpvalue:
		h.Assign(slot, vm.pop())
	case bytecode.OpGetUpvalueRef:
		vm.push(h.Retain(*slot))
	case bytecode.OpGetUpvalueArg:
		if vm.argIsRef(f.word(f.pc + 3)) {
			vm.push(h.Retain(*slot))
		} else {
			vm.push(h.Load(*slot))
		}
	}
	return nil
}

func (vm *VM) execGlobal(f *Frame, op bytecode.Opcode) *diag.Error {
	h := vm.heap
	name := f.Routine.Strings[f.word(f.pc+1)]

	switch op {
	case bytecode.OpGetGlobal:
		slot, ok := vm.globals[name]
		if !ok {
			return vm.undefined(name)
		}
		vm.push(h.Load(*slot))
	case bytecode.OpSetGlobal:
		h.Assign(vm.globalSlot(name), vm.pop())
	case bytecode.OpGetGlobalRef:
		vm.push(h.MakeAlias(vm.globalSlot(name)))
	case bytecode.OpGetGlobalArg:
		if vm.argIsRef(f.word(f.pc + 3)) {
			vm.push(h.MakeAlias(vm.globalSlot(name)))
			return nil
		}
		slot, ok := vm.globals[name]
		if !ok {
			return vm.undefined(name)
		}
		vm.push(h.Load(*slot))
	case bytecode.OpDefineGlobalFunc:
		if err := h.DefineFunction(vm.globalSlot(name), vm.pop()); err != nil {
			return vm.eb.makeError(diag.RunRefMismatch, "%v", err)
		}
	}
	return nil
}

func (vm *VM) undefined(name string) *diag.Error {
	return vm.eb.makeError(diag.RunUndefinedGlobal, "undefined variable '%s'", name)
}
