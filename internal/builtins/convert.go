package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/number"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// typeOf returns the class of its argument.
func typeOf(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	return h.Retain(h.ClassOf(args[0]).Value()), nil
}

func toStr(ctx object.Context, args []object.Value) (object.Value, error) {
	return object.String(ctx.Heap().ToString(args[0])), nil
}

func toInt(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	v := args[0]
	switch v.Kind {
	case object.KindInt:
		return v, nil
	case object.KindBool:
		return object.Int(v.I), nil
	case object.KindFloat:
		if math.IsNaN(v.F) || v.F >= math.MaxInt64 || v.F < math.MinInt64 {
			return object.Null, runtimeError(diag.RunInvalidFloat, "cannot convert %s to an integer", number.FormatFloat(v.F))
		}
		return object.Int(int64(v.F)), nil
	case object.KindString:
		i, err := number.ParseInt(strings.TrimSpace(v.S))
		if err != nil {
			return object.Null, runtimeError(diag.RunTypeMismatch, "cannot convert %q to an integer", v.S)
		}
		return object.Int(i), nil
	}
	return object.Null, runtimeError(diag.RunTypeMismatch, "cannot convert a value of type %s to an integer", h.TypeName(v))
}

func toFloat(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	v := args[0]
	switch v.Kind {
	case object.KindFloat:
		return v, nil
	case object.KindInt:
		return object.Float(float64(v.I)), nil
	case object.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.S), 64)
		if err != nil {
			return object.Null, runtimeError(diag.RunTypeMismatch, "cannot convert %q to a float", v.S)
		}
		return object.Float(f), nil
	}
	return object.Null, runtimeError(diag.RunTypeMismatch, "cannot convert a value of type %s to a float", h.TypeName(v))
}

// collect runs a collection cycle and returns the number of objects freed.
func collect(ctx object.Context, _ []object.Value) (object.Value, error) {
	return object.Int(int64(ctx.Heap().Collect())), nil
}

func objectCount(ctx object.Context, _ []object.Value) (object.Value, error) {
	return object.Int(int64(ctx.Heap().Live())), nil
}
