// Package vm executes compiled routines on a fixed-capacity value stack.
//
// The VM owns one reference for every object value held in a stack slot or a
// global. Natives see their arguments as borrowed values and hand back an
// owned result; see object.NativeFunc.
package vm

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

const (
	DefaultStackSize    = 1 << 16
	DefaultMaxCallDepth = 1000
)

// Options configures a VM.
type Options struct {
	// StackSize is the capacity of the value stack, in values.
	StackSize int
	// MaxCallDepth bounds the number of active frames.
	MaxCallDepth int
	// Output receives print statements. Defaults to os.Stdout.
	Output io.Writer
	// Trace, when set, logs every executed instruction.
	Trace *Tracer
}

// VM is a bytecode interpreter bound to one heap.
type VM struct {
	heap    *object.Heap
	stack   []object.Value
	sp      int
	frames  []Frame
	globals map[string]*object.Value

	// precalls holds the stack positions of callees whose arguments are
	// being evaluated.
	precalls []int
	// nesting counts re-entrant Call invocations.
	nesting int
	// natives counts native bodies in progress. Automatic collection waits
	// until none is running.
	natives  int
	maxDepth int

	out   io.Writer
	trace *Tracer
	eb    *errorBuilder
}

// New creates a VM on heap h and installs the built-in protocol methods on
// its classes.
func New(h *object.Heap, opts Options) *VM {
	if opts.StackSize <= 0 {
		opts.StackSize = DefaultStackSize
	}
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = DefaultMaxCallDepth
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	vm := &VM{
		heap:     h,
		stack:    make([]object.Value, opts.StackSize),
		frames:   make([]Frame, 0, 64),
		globals:  make(map[string]*object.Value),
		maxDepth: opts.MaxCallDepth,
		out:      opts.Output,
		trace:    opts.Trace,
	}
	vm.eb = &errorBuilder{vm: vm}
	installProtocols(h)
	return vm
}

// Heap returns the heap the VM allocates on.
func (vm *VM) Heap() *object.Heap { return vm.heap }

// Output returns the writer print statements go to.
func (vm *VM) Output() io.Writer { return vm.out }

// SetOutput redirects print statements.
func (vm *VM) SetOutput(w io.Writer) { vm.out = w }

// Line returns the source line of the instruction being executed, or 0 when
// the VM is idle.
func (vm *VM) Line() int {
	if len(vm.frames) == 0 {
		return 0
	}
	return vm.frames[len(vm.frames)-1].line()
}

// File returns the source file of the routine being executed, or "" when
// the VM is idle.
func (vm *VM) File() string {
	if len(vm.frames) == 0 {
		return ""
	}
	return vm.frames[len(vm.frames)-1].Routine.File
}

// Depth returns the number of active frames.
func (vm *VM) Depth() int { return len(vm.frames) }

// SetGlobal binds name to v. v is borrowed; the VM keeps its own reference.
func (vm *VM) SetGlobal(name string, v object.Value) {
	slot := vm.globalSlot(name)
	vm.heap.Assign(slot, vm.heap.Load(v))
}

// DefineGlobal binds name to v, taking ownership of v. A Function value
// joins the overload set already bound to name.
func (vm *VM) DefineGlobal(name string, v object.Value) error {
	slot := vm.globalSlot(name)
	if err := vm.heap.DefineFunction(slot, v); err != nil {
		return fmt.Errorf("define %s: %w", name, err)
	}
	return nil
}

// Global returns the value bound to name, borrowed.
func (vm *VM) Global(name string) (object.Value, bool) {
	slot, ok := vm.globals[name]
	if !ok {
		return object.Null, false
	}
	return vm.heap.Deref(*slot), true
}

// GlobalNames lists the defined globals in sorted order.
func (vm *VM) GlobalNames() []string {
	names := make([]string, 0, len(vm.globals))
	for name := range vm.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (vm *VM) globalSlot(name string) *object.Value {
	slot, ok := vm.globals[name]
	if !ok {
		slot = new(object.Value)
		vm.globals[name] = slot
	}
	return slot
}

// NewClosure wraps a top-level routine into a callable Function. Every
// parameter accepts any value.
func (vm *VM) NewClosure(r *bytecode.Routine) object.Value {
	params := make([]*object.Class, r.NumParams)
	for i := range params {
		params[i] = vm.heap.Classes().Object
	}
	return vm.heap.NewFunction(r.DisplayName(), &object.Closure{
		Name:     r.DisplayName(),
		Routine:  r,
		Params:   params,
		RefFlags: r.RefFlags,
	})
}

// Interpret runs fn, a Function value, with borrowed arguments and returns
// its owned result.
func (vm *VM) Interpret(fn object.Value, args ...object.Value) (object.Value, error) {
	return vm.Call(fn, args...)
}

// Call invokes a callable value. It may be used re-entrantly from natives:
// the new activation runs on top of the current one and unwinds to it on
// failure.
func (vm *VM) Call(callee object.Value, args ...object.Value) (result object.Value, err error) {
	sp, depth, pre := vm.sp, len(vm.frames), len(vm.precalls)
	defer func() {
		if r := recover(); r != nil {
			err = vm.eb.recovered(r)
		}
		if err != nil {
			vm.unwind(sp, depth, pre)
			result = object.Null
		}
	}()

	vm.nesting++
	defer func() { vm.nesting-- }()
	if vm.nesting > vm.maxDepth {
		return object.Null, vm.eb.stackOverflow()
	}

	vm.push(vm.heap.Retain(callee))
	for _, a := range args {
		vm.push(vm.heap.Retain(a))
	}
	if vmErr := vm.callValue(len(args), false); vmErr != nil {
		return object.Null, vmErr
	}
	if len(vm.frames) > depth {
		if vmErr := vm.run(depth); vmErr != nil {
			return object.Null, vmErr
		}
	}
	return vm.pop(), nil
}

// unwind drops every frame and stack value above the given marks. Frames go
// first so that the slots they own can be released.
func (vm *VM) unwind(sp, depth, pre int) {
	vm.frames = vm.frames[:depth]
	vm.precalls = vm.precalls[:pre]
	for vm.sp > sp {
		vm.sp--
		v := vm.stack[vm.sp]
		vm.stack[vm.sp] = object.Null
		vm.heap.Release(v)
	}
}

// Close releases every global. The VM must not be used afterwards.
func (vm *VM) Close() {
	vm.unwind(0, 0, 0)
	for _, name := range vm.GlobalNames() {
		slot := vm.globals[name]
		vm.heap.Rebind(slot, object.Null)
		delete(vm.globals, name)
	}
}

var _ object.Context = (*VM)(nil)
