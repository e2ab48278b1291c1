// Package number implements the arithmetic shared by constant folding and the
// virtual machine, so that folded and executed expressions agree bit for bit.
package number

import (
	"errors"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// Num is an integer or a float.
type Num struct {
	I       int64
	F       float64
	IsFloat bool
}

func Int(i int64) Num     { return Num{I: i} }
func Float(f float64) Num { return Num{F: f, IsFloat: true} }

// Float64 converts n to a float.
func (n Num) Float64() float64 {
	if n.IsFloat {
		return n.F
	}
	return float64(n.I)
}

func (n Num) String() string {
	if n.IsFloat {
		return FormatFloat(n.F)
	}
	return strconv.FormatInt(n.I, 10)
}

type Op uint8

const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
	Pow
	Shl
	Shr
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("floating point overflow")
	ErrUnderflow      = errors.New("floating point underflow")
	ErrInvalid        = errors.New("invalid floating point operation")
	ErrShiftOperand   = errors.New("shift operands must be integers")
	ErrNegativeShift  = errors.New("negative shift count")
)

// Arith applies op to x and y. Integer results that overflow are promoted to
// float; float results are checked for overflow, underflow and invalid
// operations. NaN operands propagate silently.
func Arith(op Op, x, y Num) (Num, error) {
	switch op {
	case Shl, Shr:
		return shift(op, x, y)
	case Div:
		if y.Float64() == 0 {
			return Num{}, ErrDivisionByZero
		}
		return checked(op, x.Float64(), y.Float64(), x.Float64()/y.Float64())
	}
	if !x.IsFloat && !y.IsFloat {
		if r, ok := intArith(op, x.I, y.I); ok {
			return Int(r), nil
		}
		if op == Mod {
			return Num{}, ErrDivisionByZero
		}
	}
	a, b := x.Float64(), y.Float64()
	switch op {
	case Add:
		return checked(op, a, b, a+b)
	case Sub:
		return checked(op, a, b, a-b)
	case Mul:
		return checked(op, a, b, a*b)
	case Mod:
		if b == 0 {
			return Num{}, ErrDivisionByZero
		}
		return checked(op, a, b, math.Mod(a, b))
	case Pow:
		return checked(op, a, b, math.Pow(a, b))
	}
	return Num{}, ErrInvalid
}

// intArith reports false when the result does not fit in an int64.
func intArith(op Op, a, b int64) (int64, bool) {
	switch op {
	case Add:
		r := a + b
		if (a >= 0) == (b >= 0) && (r >= 0) != (a >= 0) {
			return 0, false
		}
		return r, true
	case Sub:
		r := a - b
		if (a >= 0) != (b >= 0) && (r >= 0) != (a >= 0) {
			return 0, false
		}
		return r, true
	case Mul:
		return mulInt(a, b)
	case Mod:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case Pow:
		if b < 0 {
			return 0, false
		}
		return powInt(a, b)
	}
	return 0, false
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	neg := (a < 0) != (b < 0)
	hi, lo := bits.Mul64(abs(a), abs(b))
	if hi != 0 {
		return 0, false
	}
	if neg {
		if lo > 1<<63 {
			return 0, false
		}
		return -int64(lo - 1) - 1, true
	}
	if lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

func powInt(base, exp int64) (int64, bool) {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			r, ok := mulInt(result, base)
			if !ok {
				return 0, false
			}
			result = r
		}
		exp >>= 1
		if exp > 0 {
			b, ok := mulInt(base, base)
			if !ok {
				return 0, false
			}
			base = b
		}
	}
	return result, true
}

func abs(a int64) uint64 {
	if a < 0 {
		return uint64(-(a + 1)) + 1
	}
	return uint64(a)
}

func shift(op Op, x, y Num) (Num, error) {
	if x.IsFloat || y.IsFloat {
		return Num{}, ErrShiftOperand
	}
	if y.I < 0 {
		return Num{}, ErrNegativeShift
	}
	n := uint64(y.I)
	if op == Shl {
		if n >= 64 {
			return Int(0), nil
		}
		return Int(x.I << n), nil
	}
	if n >= 64 {
		if x.I < 0 {
			return Int(-1), nil
		}
		return Int(0), nil
	}
	return Int(x.I >> n), nil
}

func checked(op Op, a, b, r float64) (Num, error) {
	if math.IsNaN(a) || math.IsNaN(b) {
		return Float(r), nil
	}
	if math.IsNaN(r) {
		return Num{}, ErrInvalid
	}
	if math.IsInf(r, 0) && !math.IsInf(a, 0) && !math.IsInf(b, 0) {
		return Num{}, ErrOverflow
	}
	if r == 0 && a != 0 && (op == Mul && b != 0 || op == Div && !math.IsInf(b, 0) || op == Pow && !math.IsInf(b, 0)) {
		return Num{}, ErrUnderflow
	}
	return Float(r), nil
}

// Neg negates n; the smallest integer is promoted to float.
func Neg(n Num) Num {
	if n.IsFloat {
		return Float(-n.F)
	}
	if n.I == math.MinInt64 {
		return Float(-float64(n.I))
	}
	return Int(-n.I)
}

// Compare returns -1, 0 or 1. NaN compares unordered and yields 0 with ok false.
func Compare(x, y Num) (int, bool) {
	if !x.IsFloat && !y.IsFloat {
		switch {
		case x.I < y.I:
			return -1, true
		case x.I > y.I:
			return 1, true
		}
		return 0, true
	}
	a, b := x.Float64(), y.Float64()
	switch {
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	case a == b:
		return 0, true
	}
	return 0, false
}

// ParseInt decodes a decimal or 0x hexadecimal integer literal.
func ParseInt(s string) (int64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		u, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, err
		}
		if u > math.MaxInt64 {
			return 0, strconv.ErrRange
		}
		return int64(u), nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// FormatFloat renders floats the way scripts print them: integral values keep
// a trailing ".0", non-finite values print as nan, inf and -inf.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
