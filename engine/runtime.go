package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/phonometrica/phonometrica-sub000/internal/builtins"
	"github.com/phonometrica/phonometrica-sub000/internal/driver"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
	"github.com/phonometrica/phonometrica-sub000/internal/parser"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/trace"
	"github.com/phonometrica/phonometrica-sub000/internal/vm"
)

type (
	// Value is a script value. Object values are reference counted.
	Value = object.Value
	// Class is a type descriptor.
	Class = object.Class
	// Context is what a native function sees of the running interpreter.
	Context = object.Context
	// NativeFunc implements a script function in Go.
	NativeFunc = object.NativeFunc
)

// Null is the null value.
var Null = object.Null

func Int(i int64) Value     { return object.Int(i) }
func Float(f float64) Value { return object.Float(f) }
func Bool(b bool) Value     { return object.Bool(b) }
func String(s string) Value { return object.String(s) }

// ErrClosed is returned by every entry point once Close was called.
var ErrClosed = errors.New("engine: runtime is closed")

// Runtime is the explicit interpreter context: heap, VM, globals, loaded
// modules and source files.
type Runtime struct {
	cfg     Config
	heap    *object.Heap
	vm      *vm.VM
	files   *source.FileSet
	strings *source.Interner
	cache   *driver.DiskCache
	tracer  trace.Tracer

	// modules maps a resolved path to its module object, owned.
	modules map[string]Value
	loading map[string]bool
	// repl is the module of Eval, created on first use.
	repl Value
	// ctx is the context of the outermost running entry point, used by
	// natives that load code.
	ctx    context.Context
	closed bool
}

// New creates a runtime: built-in classes are bound as globals, the module
// resolver is installed and, when cfg.Builtins is set, the native library.
func New(cfg Config) (*Runtime, error) {
	if cfg.ModuleExt == "" {
		cfg.ModuleExt = DefaultModuleExt
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	rt := &Runtime{
		cfg:     cfg,
		files:   source.NewFileSet(),
		strings: source.NewInterner(),
		tracer:  tracer,
		modules: make(map[string]Value),
		loading: make(map[string]bool),
		repl:    object.Null,
		ctx:     context.Background(),
	}
	rt.heap = object.NewHeap(cfg.GCThreshold, tracer)
	opts := vm.Options{
		StackSize:    cfg.StackSize,
		MaxCallDepth: cfg.MaxCallDepth,
		Output:       cfg.Output,
	}
	if cfg.TraceVM != nil {
		opts.Trace = vm.NewTracer(cfg.TraceVM)
	}
	rt.vm = vm.New(rt.heap, opts)
	for _, c := range rt.heap.Classes().All() {
		rt.vm.SetGlobal(c.Name, c.Value())
	}
	importer := rt.heap.NewNative(parser.ImportFunc, rt.importModule, []*Class{rt.heap.Classes().String}, 0)
	if err := rt.vm.DefineGlobal(parser.ImportFunc, importer); err != nil {
		return nil, err
	}

	if cfg.Cache {
		var err error
		if cfg.CacheDir != "" {
			rt.cache, err = driver.NewDiskCache(cfg.CacheDir)
		} else {
			rt.cache, err = driver.OpenDiskCache("phon")
		}
		if err != nil {
			return nil, fmt.Errorf("open compile cache: %w", err)
		}
	}
	if cfg.Builtins {
		if err := rt.LoadBuiltins(); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// LoadBuiltins registers the standard native library: container helpers,
// conversions, files, regular expressions and collector control.
func (rt *Runtime) LoadBuiltins() error {
	if rt.closed {
		return ErrClosed
	}
	return builtins.Install(rt)
}

// Close releases every module and global, collects the remaining cycles
// and frees the heap. The runtime must not be used afterwards.
func (rt *Runtime) Close() {
	if rt.closed {
		return
	}
	rt.closed = true
	for path, m := range rt.modules {
		rt.heap.Release(m)
		delete(rt.modules, path)
	}
	rt.heap.Release(rt.repl)
	rt.repl = object.Null
	rt.vm.Close()
	freed := rt.heap.Collect()
	trace.Point(rt.tracer, trace.ScopeCommand, "runtime_close", fmt.Sprintf("freed %d", freed), trace.SpanContext{})
	rt.heap.Close()
}

// Heap gives natives and hosts access to allocation and value inspection.
func (rt *Runtime) Heap() *object.Heap { return rt.heap }

// Classes returns the built-in class descriptors.
func (rt *Runtime) Classes() *object.Classes { return rt.heap.Classes() }

// Files returns the sources loaded so far, for error rendering.
func (rt *Runtime) Files() *source.FileSet { return rt.files }

// Config returns the configuration the runtime was created with.
func (rt *Runtime) Config() Config { return rt.cfg }

// SetGlobal binds name to v. v is borrowed.
func (rt *Runtime) SetGlobal(name string, v Value) {
	rt.vm.SetGlobal(name, v)
}

// Global returns the value bound to name. The result is owned.
func (rt *Runtime) Global(name string) (Value, bool) {
	v, ok := rt.vm.Global(name)
	if !ok {
		return object.Null, false
	}
	return rt.heap.Load(v), true
}

// GlobalNames lists the defined globals in sorted order.
func (rt *Runtime) GlobalNames() []string { return rt.vm.GlobalNames() }

// Retain adds a reference to v and returns it.
func (rt *Runtime) Retain(v Value) Value { return rt.heap.Retain(v) }

// Release gives back a value returned by the runtime.
func (rt *Runtime) Release(v Value) { rt.heap.Release(v) }

// ToString renders v the way print does.
func (rt *Runtime) ToString(v Value) string { return rt.heap.ToString(v) }

// Repr renders v with strings quoted.
func (rt *Runtime) Repr(v Value) string { return rt.heap.Repr(v) }

// Collect runs a cycle collection and returns the number of freed objects.
func (rt *Runtime) Collect() int { return rt.heap.Collect() }

// Live returns the number of live heap objects.
func (rt *Runtime) Live() int { return rt.heap.Live() }
