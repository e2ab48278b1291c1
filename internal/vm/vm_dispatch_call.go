package vm

import (
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// callValue calls the value sitting below the top argc stack slots. Natives
// complete immediately and leave their result in place of the callee;
// compiled closures push a frame that the dispatch loop then runs. With
// discard set the result is dropped instead.
func (vm *VM) callValue(argc int, discard bool) *diag.Error {
	at := vm.sp - argc - 1
	fn, vmErr := vm.callable(vm.stack[at])
	if vmErr != nil {
		return vmErr
	}
	c, vmErr := vm.resolve(fn, at+1, argc)
	if vmErr != nil {
		return vmErr
	}
	vm.bindArgs(c, at+1, argc)
	if c.IsNative() {
		return vm.callNative(c, at, argc, discard)
	}
	if len(vm.frames) >= vm.maxDepth {
		return vm.eb.stackOverflow()
	}
	vm.frames = append(vm.frames, Frame{
		Closure: c,
		Routine: c.Routine,
		base:    at + 1,
		discard: discard,
	})
	return nil
}

// callable returns the overload set a value dispatches to. Calling a class
// calls its `new` method.
func (vm *VM) callable(v object.Value) (*object.Function, *diag.Error) {
	h := vm.heap
	v = h.Deref(v)
	if fn, ok := h.AsFunction(v); ok {
		return fn, nil
	}
	if c, ok := h.AsClass(v); ok {
		if m, ok := c.Lookup("new"); ok {
			if fn, ok := h.AsFunction(m); ok {
				return fn, nil
			}
		}
		return nil, vm.eb.makeError(diag.RunNotCallable, "class %s cannot be instantiated", c.Name)
	}
	return nil, vm.eb.makeError(diag.RunNotCallable, "a value of type %s is not callable", h.TypeName(v))
}

// resolve picks the closure of fn that best matches the arguments at
// stack[first:first+argc]. An argument of the parameter's exact class costs
// nothing, each inheritance step costs one and null fits any parameter for
// free. The cheapest candidate wins; a tie is an error.
func (vm *VM) resolve(fn *object.Function, first, argc int) (*object.Closure, *diag.Error) {
	var (
		best     *object.Closure
		bestCost int
		ties     int
		arity    bool
	)
	for _, c := range fn.Closures {
		if len(c.Params) != argc {
			continue
		}
		arity = true
		cost, ok := vm.matchCost(c, first)
		if !ok {
			continue
		}
		switch {
		case best == nil || cost < bestCost:
			best, bestCost, ties = c, cost, 0
		case cost == bestCost:
			ties++
		}
	}
	switch {
	case !arity:
		return nil, vm.eb.makeError(diag.RunArity,
			"no overload of '%s' takes %d argument(s); candidates are:%s", fn.Name, argc, fn.Signatures())
	case best == nil:
		return nil, vm.eb.makeError(diag.RunNoOverload,
			"cannot resolve call to '%s' with arguments %s; candidates are:%s", fn.Name, vm.argTypes(first, argc), fn.Signatures())
	case ties > 0:
		return nil, vm.eb.makeError(diag.RunAmbiguousCall,
			"ambiguous call to '%s' with arguments %s; candidates are:%s", fn.Name, vm.argTypes(first, argc), fn.Signatures())
	}
	return best, nil
}

func (vm *VM) matchCost(c *object.Closure, first int) (int, bool) {
	h := vm.heap
	cost := 0
	for i, p := range c.Params {
		arg := h.Deref(vm.stack[first+i])
		if arg.IsNull() {
			continue
		}
		d := h.ClassOf(arg).Distance(p)
		if d < 0 {
			return 0, false
		}
		cost += d
	}
	return cost, true
}

func (vm *VM) argTypes(first, argc int) string {
	names := make([]string, argc)
	for i := range names {
		names[i] = vm.heap.TypeName(vm.stack[first+i])
	}
	return describeArgs(names)
}

// bindArgs makes by-reference parameters hold aliases and the others plain
// values. A temporary passed by reference gets a fresh cell of its own.
func (vm *VM) bindArgs(c *object.Closure, first, argc int) {
	h := vm.heap
	for i := 0; i < argc; i++ {
		slot := &vm.stack[first+i]
		switch {
		case c.IsRef(i) && !slot.IsAlias():
			*slot = h.NewAlias(*slot)
		case !c.IsRef(i) && slot.IsAlias():
			v := h.Load(*slot)
			h.Release(*slot)
			*slot = v
		}
	}
}

func (vm *VM) callNative(c *object.Closure, at, argc int, discard bool) *diag.Error {
	h := vm.heap
	res, vmErr := vm.invokeNative(c, vm.stack[at+1:at+1+argc])
	if vmErr != nil {
		return vmErr
	}
	for vm.sp > at {
		h.Release(vm.pop())
	}
	if discard {
		h.Release(res)
		return nil
	}
	vm.push(res)
	return nil
}

// invokeNative runs a native body, converting returned errors and panics
// into runtime errors located at the calling instruction.
func (vm *VM) invokeNative(c *object.Closure, args []object.Value) (res object.Value, vmErr *diag.Error) {
	vm.natives++
	defer func() {
		vm.natives--
		if r := recover(); r != nil {
			res = object.Null
			vmErr = vm.eb.nativePanic(c.Name, r)
		}
	}()
	v, err := c.Native(vm, args)
	if err != nil {
		vm.heap.Release(v)
		return object.Null, vm.eb.native(c.Name, err)
	}
	if v.IsAlias() {
		inner := vm.heap.Load(v)
		vm.heap.Release(v)
		v = inner
	}
	return v, nil
}

// ret pops the current frame, releasing its callee, locals and
// temporaries, and pushes the result for the caller.
func (vm *VM) ret() {
	h := vm.heap
	res := vm.pop()
	if res.IsAlias() {
		inner := h.Load(res)
		h.Release(res)
		res = inner
	}
	f := vm.frames[len(vm.frames)-1]
	for i := f.base - 1; i < vm.sp; i++ {
		old := vm.stack[i]
		vm.stack[i] = object.Null
		h.Release(old)
	}
	vm.sp = f.base - 1
	vm.frames = vm.frames[:len(vm.frames)-1]
	if f.discard {
		h.Release(res)
		return
	}
	vm.push(res)
}

// argIsRef reports whether the callee marked by the innermost Precall takes
// argument pos by reference.
func (vm *VM) argIsRef(pos int) bool {
	n := len(vm.precalls)
	if n == 0 {
		return false
	}
	h := vm.heap
	callee := h.Deref(vm.stack[vm.precalls[n-1]])
	if fn, ok := h.AsFunction(callee); ok {
		return fn.RefFlag(pos)
	}
	if c, ok := h.AsClass(callee); ok {
		if m, ok := c.Lookup("new"); ok {
			if fn, ok := h.AsFunction(m); ok {
				return fn.RefFlag(pos)
			}
		}
	}
	return false
}

// newClosure pops the parameter classes and pushes a Function around the
// nested routine idx. Captured locals of the current frame are turned into
// shared cells.
func (vm *VM) newClosure(f *Frame, idx, nparams int) *diag.Error {
	h := vm.heap
	classes := vm.popN(nparams)
	defer h.ReleaseAll(classes)

	r := f.Routine.Routines[idx]
	params := make([]*object.Class, nparams)
	for i, cv := range classes {
		c, ok := h.AsClass(cv)
		if !ok {
			return vm.eb.typeMismatch("type of parameter %d of %s must be a class, got %s", i+1, r.DisplayName(), h.TypeName(cv))
		}
		params[i] = c
	}
	ups := make([]object.Value, len(r.Upvalues))
	for i, u := range r.Upvalues {
		if u.IsLocal {
			ups[i] = h.MakeAlias(vm.local(f, u.Index))
		} else {
			ups[i] = h.Retain(f.Closure.Upvalues[u.Index])
		}
	}
	vm.push(h.NewFunction(r.DisplayName(), &object.Closure{
		Name:     r.DisplayName(),
		Routine:  r,
		Params:   params,
		RefFlags: r.RefFlags,
		Upvalues: ups,
	}))
	return nil
}
