package builtins

import (
	"slices"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// unwrap turns an element removed from a container into a plain owned
// value, dropping the alias it may have been stored behind.
func unwrap(h *object.Heap, v object.Value) object.Value {
	if v.IsAlias() {
		inner := h.Load(v)
		h.Release(v)
		return inner
	}
	return v
}

func listIsEmpty(ctx object.Context, args []object.Value) (object.Value, error) {
	return object.Bool(listOf(ctx.Heap(), args[0]).Len() == 0), nil
}

func tableIsEmpty(ctx object.Context, args []object.Value) (object.Value, error) {
	return object.Bool(ctx.Heap().Payload(args[0]).(*object.Table).Len() == 0), nil
}

func setIsEmpty(ctx object.Context, args []object.Value) (object.Value, error) {
	return object.Bool(ctx.Heap().Payload(args[0]).(*object.Set).Len() == 0), nil
}

func first(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	l := listOf(h, args[0])
	if l.Len() == 0 {
		return object.Null, runtimeError(diag.RunIndexOutOfRange, "cannot get first element of an empty list")
	}
	return h.Load(l.Items[0]), nil
}

func last(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	l := listOf(h, args[0])
	if l.Len() == 0 {
		return object.Null, runtimeError(diag.RunIndexOutOfRange, "cannot get last element of an empty list")
	}
	return h.Load(l.Items[l.Len()-1]), nil
}

func prepend(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	listOf(h, args[0]).Insert(1, h.Load(args[1]))
	return object.Null, nil
}

// shift removes and returns the first element of a list.
func shift(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	l := listOf(h, args[0])
	if l.Len() == 0 {
		return object.Null, runtimeError(diag.RunIndexOutOfRange, "cannot shift an empty list")
	}
	return unwrap(h, l.Remove(0)), nil
}

func removeAt(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	l := listOf(h, args[0])
	at, ok := object.Position(args[1].I, l.Len())
	if !ok {
		return object.Null, runtimeError(diag.RunIndexOutOfRange, "index %d out of range in list of length %d", args[1].I, l.Len())
	}
	return unwrap(h, l.Remove(at)), nil
}

// removeFromList drops every element equal to the value and returns how
// many were removed.
func removeFromList(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	l := listOf(h, args[0])
	var dropped []object.Value
	l.Items = slices.DeleteFunc(l.Items, func(item object.Value) bool {
		if h.Equal(item, args[1]) {
			dropped = append(dropped, item)
			return true
		}
		return false
	})
	for _, v := range dropped {
		h.Release(v)
	}
	return object.Int(int64(len(dropped))), nil
}

func removeFirst(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	l := listOf(h, args[0])
	i := slices.IndexFunc(l.Items, func(item object.Value) bool { return h.Equal(item, args[1]) })
	if i < 0 {
		return object.Bool(false), nil
	}
	h.Release(l.Remove(i))
	return object.Bool(true), nil
}

func removeFromTable(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	v, ok := h.Payload(args[0]).(*object.Table).Remove(h, args[1])
	h.Release(v)
	return object.Bool(ok), nil
}

func removeFromSet(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	return object.Bool(h.Payload(args[0]).(*object.Set).Remove(h, args[1])), nil
}

// findInList returns the position of the first element equal to the value,
// or 0.
func findInList(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	i := slices.IndexFunc(listOf(h, args[0]).Items, func(item object.Value) bool { return h.Equal(item, args[1]) })
	return object.Int(int64(i + 1)), nil
}

func clearList(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	listOf(h, args[0]).Clear(h)
	return object.Null, nil
}

func clearTable(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	h.Payload(args[0]).(*object.Table).Clear(h)
	return object.Null, nil
}

func clearSet(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	h.Payload(args[0]).(*object.Set).Clear(h)
	return object.Null, nil
}

// join concatenates the string forms of the elements.
func join(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	items := listOf(h, args[0]).Items
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = h.ToString(item)
	}
	return object.String(strings.Join(parts, args[1].S)), nil
}

func reverseList(ctx object.Context, args []object.Value) (object.Value, error) {
	slices.Reverse(listOf(ctx.Heap(), args[0]).Items)
	return object.Null, nil
}

// compareItems orders two elements, failing when they are not comparable.
func compareItems(h *object.Heap, x, y object.Value) (int, error) {
	c, ok := h.Compare(x, y)
	if !ok {
		return 0, runtimeError(diag.RunTypeMismatch, "cannot compare %s and %s", h.TypeName(h.Deref(x)), h.TypeName(h.Deref(y)))
	}
	return c, nil
}

// sortList sorts numbers or strings in place, keeping equal elements in
// order. The list is left untouched when two elements cannot be compared.
func sortList(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	l := listOf(h, args[0])
	for i := 1; i < l.Len(); i++ {
		if _, err := compareItems(h, l.Items[0], l.Items[i]); err != nil {
			return object.Null, err
		}
	}
	var sortErr error
	slices.SortStableFunc(l.Items, func(x, y object.Value) int {
		c, err := compareItems(h, x, y)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c
	})
	return object.Null, sortErr
}

func isSorted(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	items := listOf(h, args[0]).Items
	for i := 1; i < len(items); i++ {
		c, err := compareItems(h, items[i-1], items[i])
		if err != nil {
			return object.Null, err
		}
		if c > 0 {
			return object.Bool(false), nil
		}
	}
	return object.Bool(true), nil
}

// tableGet returns the value stored under a key, or a default.
func tableGet(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	if v, ok := h.Payload(args[0]).(*object.Table).Get(h, args[1]); ok {
		return h.Retain(v), nil
	}
	return h.Retain(args[2]), nil
}

// setOp builds a new set from the elements of a that satisfy keep. When both
// is set, the elements of b that a lacks are added too.
func setOp(ctx object.Context, args []object.Value, keep func(inB bool) bool, both bool) (object.Value, error) {
	h := ctx.Heap()
	a := h.Payload(args[0]).(*object.Set)
	b := h.Payload(args[1]).(*object.Set)
	var items []object.Value
	for i := range a.Len() {
		v := a.Item(i)
		if keep(b.Contains(h, v)) {
			items = append(items, h.Retain(v))
		}
	}
	if both {
		for i := range b.Len() {
			if v := b.Item(i); !a.Contains(h, v) {
				items = append(items, h.Retain(v))
			}
		}
	}
	return h.NewSet(items), nil
}

func intersect(ctx object.Context, args []object.Value) (object.Value, error) {
	return setOp(ctx, args, func(inB bool) bool { return inB }, false)
}

func unite(ctx object.Context, args []object.Value) (object.Value, error) {
	return setOp(ctx, args, func(bool) bool { return true }, true)
}

func subtract(ctx object.Context, args []object.Value) (object.Value, error) {
	return setOp(ctx, args, func(inB bool) bool { return !inB }, false)
}
