package object

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
)

// Context is the view of the running interpreter a native function gets.
type Context interface {
	Heap() *Heap
	// Call invokes a callable value with borrowed arguments and returns an
	// owned result.
	Call(callee Value, args ...Value) (Value, error)
	Output() io.Writer
	// Line is the source line of the instruction that called the native.
	Line() int
}

// NativeFunc implements a function in Go. Arguments are borrowed and already
// checked against the declared parameter classes; by-reference parameters
// arrive as aliases. The result is owned by the caller: return a fresh
// object or Retain an argument.
type NativeFunc func(ctx Context, args []Value) (Value, error)

// Closure is one callable body: a compiled routine with its captured cells,
// or a native function.
type Closure struct {
	Name    string
	Routine *bytecode.Routine
	Native  NativeFunc
	// Params holds the declared class of each parameter.
	Params   []*Class
	RefFlags uint64
	// Upvalues are alias values, one per routine upvalue.
	Upvalues []Value
}

func (c *Closure) IsNative() bool { return c.Native != nil }

func (c *Closure) IsRef(i int) bool { return i < 64 && c.RefFlags&(1<<uint(i)) != 0 }

// Signature renders the closure as `name(ref Integer, String)`.
func (c *Closure) Signature() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('(')
	for i, p := range c.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if c.IsRef(i) {
			b.WriteString("ref ")
		}
		b.WriteString(p.Name)
	}
	b.WriteByte(')')
	return b.String()
}

func (c *Closure) sameSignature(o *Closure) bool {
	if len(c.Params) != len(o.Params) {
		return false
	}
	for i := range c.Params {
		if c.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}

// Function is an overload set: every closure defined under one name.
type Function struct {
	Name     string
	Closures []*Closure
}

// ErrRefMismatch reports overloads that disagree on by-reference parameters.
var ErrRefMismatch = errors.New("overloads disagree on by-reference parameters")

// NewFunction allocates a function holding closures.
func (h *Heap) NewFunction(name string, closures ...*Closure) Value {
	return h.alloc(h.classes.Function, &Function{Name: name, Closures: closures})
}

// NewNative builds a one-closure function around fn.
func (h *Heap) NewNative(name string, fn NativeFunc, params []*Class, refFlags uint64) Value {
	return h.NewFunction(name, &Closure{Name: name, Native: fn, Params: params, RefFlags: refFlags})
}

// RefFlag reports whether argument pos is passed by reference. Every overload
// agrees on it, so the first closure answers for the set.
func (f *Function) RefFlag(pos int) bool {
	for _, c := range f.Closures {
		if pos < len(c.Params) {
			return c.IsRef(pos)
		}
	}
	return false
}

// Add merges c into the overload set. A closure with an identical signature
// replaces the earlier one; the replaced closure is returned so the caller
// can release its upvalues.
func (f *Function) Add(c *Closure) (*Closure, error) {
	for i, old := range f.Closures {
		if old.sameSignature(c) {
			if old.RefFlags != c.RefFlags {
				return nil, fmt.Errorf("%w: %s and %s", ErrRefMismatch, old.Signature(), c.Signature())
			}
			f.Closures[i] = c
			return old, nil
		}
	}
	for _, old := range f.Closures {
		if len(old.Params) == len(c.Params) && old.RefFlags != c.RefFlags {
			return nil, fmt.Errorf("%w: %s and %s", ErrRefMismatch, old.Signature(), c.Signature())
		}
	}
	f.Closures = append(f.Closures, c)
	return nil, nil
}

// Signatures lists every overload, one per line.
func (f *Function) Signatures() string {
	var b strings.Builder
	for _, c := range f.Closures {
		b.WriteString("\n  ")
		b.WriteString(c.Signature())
	}
	return b.String()
}

// DefineFunction binds fn (an owned Function value) at *slot. When the slot
// already holds a function, fn's closures join its overload set instead of
// replacing it.
func (h *Heap) DefineFunction(slot *Value, fn Value) error {
	src, ok := h.Payload(fn).(*Function)
	if !ok {
		h.Assign(slot, fn)
		return nil
	}
	dst, ok := h.Payload(h.Deref(*slot)).(*Function)
	if !ok || dst == src {
		h.Assign(slot, fn)
		return nil
	}
	var failed error
	for _, c := range src.Closures {
		for _, u := range c.Upvalues {
			h.Retain(u)
		}
		old, err := dst.Add(c)
		if err != nil {
			h.ReleaseAll(c.Upvalues)
			failed = err
			continue
		}
		if old != nil {
			h.ReleaseAll(old.Upvalues)
		}
	}
	h.Release(fn)
	return failed
}

// AsFunction returns the overload set behind v.
func (h *Heap) AsFunction(v Value) (*Function, bool) {
	f, ok := h.Payload(h.Deref(v)).(*Function)
	return f, ok
}

func traverseFunction(o *Object, visit func(Value)) {
	if f, ok := o.Payload.(*Function); ok {
		for _, c := range f.Closures {
			for _, u := range c.Upvalues {
				visit(u)
			}
		}
	}
}
