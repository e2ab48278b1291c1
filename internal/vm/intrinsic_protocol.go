package vm

import (
	"math"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// Indexing and member access dispatch to methods looked up on the class of
// the target. Host classes override them by defining methods with the same
// names.
const (
	getItem  = "get_item"
	setItem  = "set_item"
	getField = "get_field"
	setField = "set_field"
)

// invokeMethod calls the protocol method name on the target sitting argc
// slots below the top of the stack. The target and the remaining operands
// become the arguments.
func (vm *VM) invokeMethod(name string, argc int, discard bool) *diag.Error {
	h := vm.heap
	target := h.Deref(vm.stack[vm.sp-argc])
	m, ok := h.ClassOf(target).Lookup(name)
	if !ok {
		return vm.eb.typeMismatch("%s does not support %s", h.TypeName(target), protocolVerb(name))
	}
	vm.insert(argc, h.Retain(m))
	return vm.callValue(argc, discard)
}

func protocolVerb(name string) string {
	switch name {
	case getItem:
		return "indexing"
	case setItem:
		return "index assignment"
	case getField:
		return "member access"
	}
	return "member assignment"
}

// indexRef replaces target and its n indices with an alias to the indexed
// storage. A table entry that does not exist yet is created as null.
func (vm *VM) indexRef(n int) *diag.Error {
	h := vm.heap
	if n == 1 {
		target := h.Deref(vm.peek(1))
		switch c := h.Payload(target).(type) {
		case *object.List:
			i, ok := toIndex(h.Deref(vm.peek(0)))
			if !ok {
				return vm.eb.typeMismatch("list index must be an integer, got %s", h.TypeName(vm.peek(0)))
			}
			pos, ok := object.Position(i, c.Len())
			if !ok {
				return vm.eb.makeError(diag.RunIndexOutOfRange, "index %d out of range for list of length %d", i, c.Len())
			}
			vm.replaceWithAlias(2, &c.Items[pos])
			return nil
		case *object.Table:
			key := vm.peek(0)
			at, ok := c.Find(h, key)
			if !ok {
				c.Put(h, h.Load(key), object.Null)
				at, _ = c.Find(h, key)
			}
			vm.replaceWithAlias(2, c.Slot(at))
			return nil
		}
	}
	return vm.invokeMethod(getItem, n+1, false)
}

// fieldRef replaces the target with an alias to its field name.
func (vm *VM) fieldRef(name string) *diag.Error {
	h := vm.heap
	var fields *object.Table
	switch p := h.Payload(h.Deref(vm.peek(0))).(type) {
	case *object.Instance:
		fields = &p.Fields
	case *object.Module:
		fields = &p.Exports
	}
	if fields == nil {
		vm.push(object.String(name))
		return vm.invokeMethod(getField, 2, false)
	}
	key := object.String(name)
	at, ok := fields.Find(h, key)
	if !ok {
		fields.Put(h, key, object.Null)
		at, _ = fields.Find(h, key)
	}
	vm.replaceWithAlias(1, fields.Slot(at))
	return nil
}

// replaceWithAlias pops n operands and pushes an alias to slot. The alias
// is taken first so the storage outlives the operands being released.
func (vm *VM) replaceWithAlias(n int, slot *object.Value) {
	h := vm.heap
	alias := h.MakeAlias(slot)
	h.ReleaseAll(vm.popN(n))
	vm.push(alias)
}

// toIndex accepts integers and floats with an integral value.
func toIndex(v object.Value) (int64, bool) {
	switch v.Kind {
	case object.KindInt:
		return v.I, true
	case object.KindFloat:
		if v.F == math.Trunc(v.F) && math.Abs(v.F) < 1<<53 {
			return int64(v.F), true
		}
	}
	return 0, false
}

func runtimeError(code diag.Code, format string, args ...any) error {
	return diag.Errorf(diag.RuntimeError, code, format, args...)
}

// installProtocols defines the protocol methods of the built-in classes.
func installProtocols(h *object.Heap) {
	cs := h.Classes()
	def := func(c *object.Class, name string, fn object.NativeFunc, params ...*object.Class) {
		if err := h.SetMethod(c, name, h.NewNative(name, fn, params, 0)); err != nil {
			panic(err)
		}
	}
	obj, str := cs.Object, cs.String

	def(cs.List, getItem, listGetItem, cs.List, obj)
	def(cs.List, setItem, listSetItem, cs.List, obj, obj)
	def(cs.Table, getItem, tableGetItem, cs.Table, obj)
	def(cs.Table, setItem, tableSetItem, cs.Table, obj, obj)
	def(cs.String, getItem, stringGetItem, cs.String, obj)
	def(cs.Object, getField, objectGetField, obj, str)
	def(cs.Object, setField, objectSetField, obj, str, obj)
	def(cs.Class, getField, classGetField, cs.Class, str)
}

func listGetItem(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	l := h.Payload(args[0]).(*object.List)
	pos, err := listPosition(h, l, args[1])
	if err != nil {
		return object.Null, err
	}
	return h.Load(l.Items[pos]), nil
}

func listSetItem(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	l := h.Payload(args[0]).(*object.List)
	pos, err := listPosition(h, l, args[1])
	if err != nil {
		return object.Null, err
	}
	h.Assign(&l.Items[pos], h.Load(args[2]))
	return object.Null, nil
}

func listPosition(h *object.Heap, l *object.List, idx object.Value) (int, error) {
	i, ok := toIndex(idx)
	if !ok {
		return 0, runtimeError(diag.RunTypeMismatch, "list index must be an integer, got %s", h.TypeName(idx))
	}
	pos, ok := object.Position(i, l.Len())
	if !ok {
		return 0, runtimeError(diag.RunIndexOutOfRange, "index %d out of range for list of length %d", i, l.Len())
	}
	return pos, nil
}

func tableGetItem(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	t := h.Payload(args[0]).(*object.Table)
	v, ok := t.Get(h, args[1])
	if !ok {
		return object.Null, runtimeError(diag.RunMissingKey, "key %s not found in table", h.Repr(args[1]))
	}
	return h.Retain(v), nil
}

func tableSetItem(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	t := h.Payload(args[0]).(*object.Table)
	t.Put(h, h.Load(args[1]), h.Load(args[2]))
	return object.Null, nil
}

func stringGetItem(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	runes := []rune(args[0].S)
	i, ok := toIndex(args[1])
	if !ok {
		return object.Null, runtimeError(diag.RunTypeMismatch, "string index must be an integer, got %s", h.TypeName(args[1]))
	}
	pos, ok := object.Position(i, len(runes))
	if !ok {
		return object.Null, runtimeError(diag.RunIndexOutOfRange, "index %d out of range for string of length %d", i, len(runes))
	}
	return object.String(string(runes[pos])), nil
}

// fieldsOf returns the named storage of instances and modules.
func fieldsOf(h *object.Heap, v object.Value) *object.Table {
	switch p := h.Payload(v).(type) {
	case *object.Instance:
		return &p.Fields
	case *object.Module:
		return &p.Exports
	}
	return nil
}

// objectGetField reads a field, then falls back to the methods of the
// target's class.
func objectGetField(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	target, name := args[0], args[1]
	if fields := fieldsOf(h, target); fields != nil {
		if v, ok := fields.Get(h, name); ok {
			return h.Retain(v), nil
		}
	}
	if m, ok := h.ClassOf(target).Lookup(name.S); ok {
		return h.Retain(m), nil
	}
	if _, isModule := h.Payload(target).(*object.Module); isModule {
		return object.Null, runtimeError(diag.RunNoSuchField, "module does not export '%s'", name.S)
	}
	return object.Null, runtimeError(diag.RunNoSuchField, "%s has no member '%s'", h.TypeName(target), name.S)
}

func objectSetField(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	target, name := args[0], args[1]
	fields := fieldsOf(h, target)
	if fields == nil {
		return object.Null, runtimeError(diag.RunTypeMismatch, "cannot set member '%s' on %s", name.S, h.TypeName(target))
	}
	fields.Put(h, name, h.Load(args[2]))
	return object.Null, nil
}

// classGetField looks up a method on the class itself, so `Point.new` works.
func classGetField(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	c, _ := h.AsClass(args[0])
	if m, ok := c.Lookup(args[1].S); ok {
		return h.Retain(m), nil
	}
	return object.Null, runtimeError(diag.RunNoSuchField, "class %s has no method '%s'", c.Name, args[1].S)
}
