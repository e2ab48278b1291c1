package engine

import (
	"fmt"

	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// Param declares one parameter of a native function.
type Param struct {
	Class *Class
	// ByRef makes the native receive an alias it can assign through.
	ByRef bool
}

// Params declares by-value parameters of the given classes.
func Params(classes ...*Class) []Param {
	out := make([]Param, len(classes))
	for i, c := range classes {
		out[i] = Param{Class: c}
	}
	return out
}

func splitParams(name string, params []Param) ([]*Class, uint64, error) {
	if len(params) > bytecode.MaxParams {
		return nil, 0, fmt.Errorf("%s: too many parameters (%d, max %d)", name, len(params), bytecode.MaxParams)
	}
	classes := make([]*Class, len(params))
	var refs uint64
	for i, p := range params {
		if p.Class == nil {
			return nil, 0, fmt.Errorf("%s: parameter %d has no class", name, i+1)
		}
		classes[i] = p.Class
		if p.ByRef {
			refs |= 1 << uint(i)
		}
	}
	return classes, refs, nil
}

// RegisterNative binds fn as a global function. Registering the same name
// again with another signature adds an overload; an identical signature
// replaces the previous one.
func (rt *Runtime) RegisterNative(name string, fn NativeFunc, params ...Param) error {
	classes, refs, err := splitParams(name, params)
	if err != nil {
		return err
	}
	return rt.DefineNative(name, fn, classes, refs)
}

// DefineNative is RegisterNative with the signature given as classes plus
// a by-reference bit set.
func (rt *Runtime) DefineNative(name string, fn NativeFunc, params []*Class, refFlags uint64) error {
	if rt.closed {
		return ErrClosed
	}
	if fn == nil {
		return fmt.Errorf("native %s: nil function", name)
	}
	return rt.vm.DefineGlobal(name, rt.heap.NewNative(name, fn, params, refFlags))
}

// Method is one method of a registered type. Params lists every argument,
// including the receiver for protocol methods; `new` receives only the
// constructor arguments.
type Method struct {
	Name   string
	Fn     NativeFunc
	Params []Param
}

// TypeSpec describes a host class.
type TypeSpec struct {
	Name string
	// Parent defaults to Object.
	Parent  *Class
	Methods []Method
	// Traverse enumerates the values held by a host payload allocated with
	// Heap().NewObject. Instances with named fields need none.
	Traverse func(o *object.Object, visit func(Value))
	Finalize func(o *object.Object)
}

// RegisterType creates a class, installs its methods and binds it as a
// global under its name. Defining the get_item, set_item, get_field and
// set_field methods hooks the class into indexing and member access.
func (rt *Runtime) RegisterType(spec TypeSpec) (*Class, error) {
	if rt.closed {
		return nil, ErrClosed
	}
	c, err := rt.heap.NewClass(spec.Name, spec.Parent)
	if err != nil {
		return nil, err
	}
	c.Traverse = spec.Traverse
	c.Finalize = spec.Finalize
	if spec.Traverse != nil {
		c.Atomic = false
	}
	for _, m := range spec.Methods {
		classes, refs, err := splitParams(spec.Name+"."+m.Name, m.Params)
		if err != nil {
			return nil, err
		}
		if m.Fn == nil {
			return nil, fmt.Errorf("%s.%s: nil function", spec.Name, m.Name)
		}
		if err := rt.heap.SetMethod(c, m.Name, rt.heap.NewNative(m.Name, m.Fn, classes, refs)); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", spec.Name, m.Name, err)
		}
	}
	rt.vm.SetGlobal(spec.Name, c.Value())
	return c, nil
}
