package vm

import (
	"errors"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/number"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// arith pops two numbers and pushes op applied to them. Integer overflow
// promotes to float; float results are checked for overflow, underflow and
// invalid operations.
func (vm *VM) arith(op number.Op, sym string) *diag.Error {
	h := vm.heap
	y, x := vm.pop(), vm.pop()
	defer h.Release(x)
	defer h.Release(y)

	xv, yv := h.Deref(x), h.Deref(y)
	if !xv.IsNumber() || !yv.IsNumber() {
		return vm.eb.typeMismatch("cannot apply '%s' to %s and %s", sym, h.TypeName(xv), h.TypeName(yv))
	}
	res, err := number.Arith(op, xv.Num(), yv.Num())
	if err != nil {
		if errors.Is(err, number.ErrShiftOperand) || errors.Is(err, number.ErrNegativeShift) {
			return vm.eb.typeMismatch("'%s': %v", sym, err)
		}
		return vm.eb.arith(err, sym)
	}
	vm.push(object.FromNum(res))
	return nil
}

func (vm *VM) negate() *diag.Error {
	h := vm.heap
	v := vm.pop()
	defer h.Release(v)
	n := h.Deref(v)
	if !n.IsNumber() {
		return vm.eb.typeMismatch("cannot negate a value of type %s", h.TypeName(n))
	}
	vm.push(object.FromNum(number.Neg(n.Num())))
	return nil
}

// concat joins the string forms of the top n values.
func (vm *VM) concat(n int) {
	h := vm.heap
	vals := vm.popN(n)
	var b strings.Builder
	for _, v := range vals {
		b.WriteString(h.ToString(v))
	}
	h.ReleaseAll(vals)
	vm.push(object.String(b.String()))
}

func (vm *VM) compare(op bytecode.Opcode) *diag.Error {
	h := vm.heap
	y, x := vm.pop(), vm.pop()
	defer h.Release(x)
	defer h.Release(y)

	switch op {
	case bytecode.OpEqual:
		vm.push(object.Bool(h.Equal(x, y)))
		return nil
	case bytecode.OpNotEqual:
		vm.push(object.Bool(!h.Equal(x, y)))
		return nil
	}

	xv, yv := h.Deref(x), h.Deref(y)
	c, ok := h.Compare(xv, yv)
	if !ok {
		numeric := xv.IsNumber() && yv.IsNumber()
		switch {
		case numeric && op == bytecode.OpCompare:
			return vm.eb.makeError(diag.RunInvalidFloat, "cannot order nan")
		case numeric:
			// Every ordering involving nan is false.
			vm.push(object.Bool(false))
			return nil
		}
		return vm.eb.typeMismatch("cannot compare %s and %s", h.TypeName(xv), h.TypeName(yv))
	}

	var res bool
	switch op {
	case bytecode.OpCompare:
		vm.push(object.Int(int64(c)))
		return nil
	case bytecode.OpLess:
		res = c < 0
	case bytecode.OpLessEqual:
		res = c <= 0
	case bytecode.OpGreater:
		res = c > 0
	case bytecode.OpGreaterEqual:
		res = c >= 0
	}
	vm.push(object.Bool(res))
	return nil
}
