package vm

import (
	"errors"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/number"
)

// errorBuilder constructs runtime errors located at the current instruction
// with a backtrace of the active frames.
type errorBuilder struct {
	vm *VM
}

func (eb *errorBuilder) makeError(code diag.Code, format string, args ...any) *diag.Error {
	e := diag.Errorf(diag.RuntimeError, code, format, args...)
	eb.locate(e)
	return e
}

// locate fills in file, line and backtrace, innermost frame first.
func (eb *errorBuilder) locate(e *diag.Error) {
	frames := eb.vm.frames
	if len(frames) == 0 {
		return
	}
	top := &frames[len(frames)-1]
	e.File = top.Routine.File
	e.Line = top.line()
	e.Backtrace = make([]diag.Frame, 0, len(frames))
	for i := len(frames) - 1; i >= 0; i-- {
		f := &frames[i]
		e.Backtrace = append(e.Backtrace, diag.Frame{
			Routine: f.name(),
			File:    f.Routine.File,
			Line:    f.line(),
		})
	}
}

func (eb *errorBuilder) stackOverflow() *diag.Error {
	return eb.makeError(diag.RunStackOverflow, "stack overflow")
}

func (eb *errorBuilder) typeMismatch(format string, args ...any) *diag.Error {
	return eb.makeError(diag.RunTypeMismatch, format, args...)
}

// arith maps a failed number.Arith to its runtime error.
func (eb *errorBuilder) arith(err error, op string) *diag.Error {
	switch {
	case errors.Is(err, number.ErrDivisionByZero):
		return eb.makeError(diag.RunDivisionByZero, "division by zero")
	case errors.Is(err, number.ErrOverflow):
		return eb.makeError(diag.RunFloatOverflow, "floating point overflow in '%s'", op)
	case errors.Is(err, number.ErrUnderflow):
		return eb.makeError(diag.RunFloatUnderflow, "floating point underflow in '%s'", op)
	case errors.Is(err, number.ErrInvalid):
		return eb.makeError(diag.RunInvalidFloat, "invalid floating point operation in '%s'", op)
	}
	return eb.typeMismatch("%v", err)
}

// native wraps the failure of a native function. Engine errors raised by
// the native keep their code; missing location is filled in. Other errors
// become host errors carrying the original as Cause.
func (eb *errorBuilder) native(name string, err error) *diag.Error {
	var de *diag.Error
	if errors.As(err, &de) {
		if de.Line == 0 && len(de.Backtrace) == 0 {
			eb.locate(de)
		}
		if de.Kind == 0 {
			de.Kind = diag.RuntimeError
		}
		return de
	}
	e := eb.makeError(diag.HostError, "%s: %v", name, err)
	e.Cause = err
	return e
}

// recovered converts a value caught by recover into an error. Anything that
// is not an engine error is a host panic.
func (eb *errorBuilder) recovered(r any) *diag.Error {
	if e, ok := r.(*diag.Error); ok {
		if e.Line == 0 && len(e.Backtrace) == 0 {
			eb.locate(e)
		}
		return e
	}
	e := eb.makeError(diag.HostPanic, "panic: %v", r)
	if err, ok := r.(error); ok {
		e.Cause = err
	}
	return e
}

// nativePanic wraps a panic raised inside the native name.
func (eb *errorBuilder) nativePanic(name string, r any) *diag.Error {
	if e, ok := r.(*diag.Error); ok {
		return eb.recovered(e)
	}
	e := eb.makeError(diag.HostPanic, "native function '%s' panicked: %v", name, r)
	if err, ok := r.(error); ok {
		e.Cause = err
	}
	return e
}

func describeArgs(names []string) string {
	return "(" + strings.Join(names, ", ") + ")"
}
