package builtins

import (
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

func listOf(h *object.Heap, v object.Value) *object.List {
	return h.Payload(v).(*object.List)
}

func listLen(ctx object.Context, args []object.Value) (object.Value, error) {
	return object.Int(int64(listOf(ctx.Heap(), args[0]).Len())), nil
}

func tableLen(ctx object.Context, args []object.Value) (object.Value, error) {
	return object.Int(int64(ctx.Heap().Payload(args[0]).(*object.Table).Len())), nil
}

func setLen(ctx object.Context, args []object.Value) (object.Value, error) {
	return object.Int(int64(ctx.Heap().Payload(args[0]).(*object.Set).Len())), nil
}

// stringLen counts code points.
func stringLen(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Int(int64(len([]rune(args[0].S)))), nil
}

func appendItem(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	listOf(h, args[0]).Append(h.Load(args[1]))
	return object.Null, nil
}

func insertItem(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	l := listOf(h, args[0])
	v := h.Load(args[2])
	if !l.Insert(args[1].I, v) {
		h.Release(v)
		return object.Null, runtimeError(diag.RunIndexOutOfRange, "cannot insert at position %d in list of length %d", args[1].I, l.Len())
	}
	return object.Null, nil
}

func addToSet(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	added := h.Payload(args[0]).(*object.Set).Add(h, h.Load(args[1]))
	return object.Bool(added), nil
}

// popItem removes and returns the last element of a list.
func popItem(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	l := listOf(h, args[0])
	if l.Len() == 0 {
		return object.Null, runtimeError(diag.RunIndexOutOfRange, "cannot pop from an empty list")
	}
	return unwrap(h, l.Remove(l.Len()-1)), nil
}

func listContains(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	for _, item := range listOf(h, args[0]).Items {
		if h.Equal(item, args[1]) {
			return object.Bool(true), nil
		}
	}
	return object.Bool(false), nil
}

func tableContains(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	_, ok := h.Payload(args[0]).(*object.Table).Find(h, args[1])
	return object.Bool(ok), nil
}

func setContains(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	return object.Bool(h.Payload(args[0]).(*object.Set).Contains(h, args[1])), nil
}

func stringContains(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Bool(strings.Contains(args[0].S, args[1].S)), nil
}

// tableKeys returns the keys of a table in insertion order.
func tableKeys(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	t := h.Payload(args[0]).(*object.Table)
	keys := make([]object.Value, t.Len())
	for i := range keys {
		k, _ := t.Entry(i)
		keys[i] = h.Load(k)
	}
	return h.NewList(keys), nil
}
