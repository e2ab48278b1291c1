package vm

import (
	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// Frame is one activation of a compiled closure. The callee occupies the
// stack slot just below base; locals start at base.
type Frame struct {
	Closure *object.Closure
	Routine *bytecode.Routine
	base    int
	ip      int
	// pc is the offset of the instruction being executed.
	pc int
	// discard drops the return value; set for set_item/set_field methods
	// invoked by a store.
	discard bool
}

func (f *Frame) line() int {
	return f.Routine.Code.LineAt(f.pc)
}

func (f *Frame) name() string {
	return f.Routine.DisplayName()
}

func (f *Frame) word(at int) int {
	return f.Routine.Code.Word(at)
}

// push takes ownership of v. Exceeding the stack capacity raises a runtime
// error, recovered by Call.
func (vm *VM) push(v object.Value) {
	if vm.sp >= len(vm.stack) {
		vm.heap.Release(v)
		panic(vm.eb.stackOverflow())
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

// pop transfers ownership of the top value to the caller.
func (vm *VM) pop() object.Value {
	if vm.sp <= vm.floor() {
		panic(vm.eb.makeError(diag.RunStackUnderflow, "stack underflow"))
	}
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = object.Null
	return v
}

// floor is the lowest stack slot the current frame may pop.
func (vm *VM) floor() int {
	if n := len(vm.frames); n > 0 {
		return vm.frames[n-1].base
	}
	return 0
}

func (vm *VM) peek(depth int) object.Value {
	return vm.stack[vm.sp-1-depth]
}

// popN removes the top n values and returns them, owned.
func (vm *VM) popN(n int) []object.Value {
	if vm.sp-n < vm.floor() {
		panic(vm.eb.makeError(diag.RunStackUnderflow, "stack underflow"))
	}
	out := make([]object.Value, n)
	copy(out, vm.stack[vm.sp-n:vm.sp])
	for i := vm.sp - n; i < vm.sp; i++ {
		vm.stack[i] = object.Null
	}
	vm.sp -= n
	return out
}

// insert places v below the top n values.
func (vm *VM) insert(n int, v object.Value) {
	vm.push(object.Null)
	at := vm.sp - 1 - n
	copy(vm.stack[at+1:vm.sp], vm.stack[at:vm.sp-1])
	vm.stack[at] = v
}

func (vm *VM) local(f *Frame, slot int) *object.Value {
	return &vm.stack[f.base+slot]
}
