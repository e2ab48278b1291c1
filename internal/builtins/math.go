package builtins

import (
	"math"
	"math/rand/v2"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/number"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// unary lifts a float function into a native. The result is checked the way
// arithmetic results are: a NaN produced from a finite argument is an error.
func unary(name string, f func(float64) float64) object.NativeFunc {
	return func(_ object.Context, args []object.Value) (object.Value, error) {
		x := args[0].Num().Float64()
		r := f(x)
		if math.IsNaN(r) && !math.IsNaN(x) {
			return object.Null, runtimeError(diag.RunInvalidFloat, "%s(%s) is not a number", name, number.FormatFloat(x))
		}
		return object.Float(r), nil
	}
}

var (
	mathSqrt  = unary("sqrt", math.Sqrt)
	mathFloor = unary("floor", math.Floor)
	mathCeil  = unary("ceil", math.Ceil)
	mathExp   = unary("exp", math.Exp)
	mathLog   = unary("log", math.Log)
	mathLog10 = unary("log10", math.Log10)
	mathLog2  = unary("log2", math.Log2)
	mathSin   = unary("sin", math.Sin)
	mathCos   = unary("cos", math.Cos)
	mathTan   = unary("tan", math.Tan)
	mathAsin  = unary("asin", math.Asin)
	mathAcos  = unary("acos", math.Acos)
	mathAtan  = unary("atan", math.Atan)
)

func mathAbs(_ object.Context, args []object.Value) (object.Value, error) {
	n := args[0].Num()
	if n.IsFloat {
		return object.Float(math.Abs(n.F)), nil
	}
	if n.I < 0 {
		n = number.Neg(n)
	}
	return object.FromNum(n), nil
}

// mathRound rounds half away from zero. Integers are returned unchanged.
func mathRound(_ object.Context, args []object.Value) (object.Value, error) {
	if args[0].Kind == object.KindInt {
		return args[0], nil
	}
	return object.Float(math.Round(args[0].F)), nil
}

// mathRoundTo rounds to a number of decimal places.
func mathRoundTo(_ object.Context, args []object.Value) (object.Value, error) {
	places := args[1].I
	if places < 0 || places > 15 {
		return object.Null, runtimeError(diag.RunIndexOutOfRange, "cannot round to %d decimal places", places)
	}
	scale := math.Pow(10, float64(places))
	return object.Float(math.Round(args[0].Num().Float64()*scale) / scale), nil
}

func mathAtan2(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Float(math.Atan2(args[0].Num().Float64(), args[1].Num().Float64())), nil
}

func minInt(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Int(min(args[0].I, args[1].I)), nil
}

func maxInt(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Int(max(args[0].I, args[1].I)), nil
}

// minNumber and maxNumber mix integers and floats; the result is a float.
func minNumber(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Float(math.Min(args[0].Num().Float64(), args[1].Num().Float64())), nil
}

func maxNumber(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Float(math.Max(args[0].Num().Float64(), args[1].Num().Float64())), nil
}

// random returns a float in [0, 1).
func random(_ object.Context, _ []object.Value) (object.Value, error) {
	return object.Float(rand.Float64()), nil
}

// randomInt returns an integer in [1, n].
func randomInt(_ object.Context, args []object.Value) (object.Value, error) {
	if args[0].I < 1 {
		return object.Null, runtimeError(diag.RunIndexOutOfRange, "random bound must be positive, got %d", args[0].I)
	}
	return object.Int(rand.Int64N(args[0].I) + 1), nil
}
