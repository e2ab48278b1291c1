package vm

import (
	"errors"

	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// newIterator replaces the collection on top of the stack by an iterator
// over it.
func (vm *VM) newIterator(byRef bool) *diag.Error {
	h := vm.heap
	coll := vm.pop()
	defer h.Release(coll)

	it, err := h.NewIterator(coll, byRef)
	switch {
	case errors.Is(err, object.ErrIterByRef):
		return vm.eb.makeError(diag.RunNotIterable, "cannot iterate over %s by reference", h.TypeName(coll))
	case err != nil:
		return vm.eb.makeError(diag.RunNotIterable, "cannot iterate over a value of type %s", h.TypeName(coll))
	}
	vm.push(it)
	return nil
}

// stepIterator consumes the iterator on top of the stack and pushes whether
// it has more elements, the current key, or the current value.
func (vm *VM) stepIterator(op bytecode.Opcode) *diag.Error {
	h := vm.heap
	iv := vm.pop()
	defer h.Release(iv)

	it, ok := h.Payload(h.Deref(iv)).(*object.Iterator)
	if !ok {
		return vm.eb.typeMismatch("expected an iterator, got %s", h.TypeName(iv))
	}
	switch op {
	case bytecode.OpTestIterator:
		vm.push(object.Bool(it.More(h)))
	case bytecode.OpNextKey:
		vm.push(it.Key(h))
	default:
		vm.push(it.Next(h))
	}
	return nil
}
