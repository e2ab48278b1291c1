package engine

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/compiler"
	"github.com/phonometrica/phonometrica-sub000/internal/driver"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
	"github.com/phonometrica/phonometrica-sub000/internal/parser"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

// StringName is the file name reported for code given to CompileString
// and DoString.
const StringName = "<string>"

// withTracer installs the runtime tracer unless ctx already carries an
// active one.
func (rt *Runtime) withTracer(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if trace.FromContext(ctx).Enabled() {
		return ctx
	}
	return trace.WithTracer(ctx, rt.tracer)
}

func (rt *Runtime) compile(ctx context.Context, id source.FileID, opts compiler.Options) (*bytecode.Routine, error) {
	if rt.closed {
		return nil, ErrClosed
	}
	res, err := driver.Compile(rt.withTracer(ctx), rt.files, id, driver.Options{
		Compiler: opts,
		Parser:   parser.Options{Strings: rt.strings},
		Cache:    rt.cache,
	})
	if err != nil {
		return nil, err
	}
	return res.Routine, nil
}

// CompileFile compiles the script at path into a function taking the
// module object as its only argument. The result is owned.
func (rt *Runtime) CompileFile(ctx context.Context, path string) (Value, error) {
	if rt.closed {
		return object.Null, ErrClosed
	}
	id, err := rt.files.Load(path)
	if err != nil {
		return object.Null, fmt.Errorf("load %s: %w", path, err)
	}
	r, err := rt.compile(ctx, id, compiler.Options{})
	if err != nil {
		return object.Null, err
	}
	return rt.vm.NewClosure(r), nil
}

// CompileString compiles code as if it were a file named name; an empty
// name stands for StringName.
func (rt *Runtime) CompileString(ctx context.Context, code, name string) (Value, error) {
	if rt.closed {
		return object.Null, ErrClosed
	}
	if name == "" {
		name = StringName
	}
	id := rt.files.AddVirtual(name, []byte(code))
	r, err := rt.compile(ctx, id, compiler.Options{})
	if err != nil {
		return object.Null, err
	}
	return rt.vm.NewClosure(r), nil
}

// DoFile compiles and runs the script at path and returns what its top
// level returned.
func (rt *Runtime) DoFile(ctx context.Context, path string) (Value, error) {
	fn, err := rt.CompileFile(ctx, path)
	if err != nil {
		return object.Null, err
	}
	defer rt.heap.Release(fn)
	mod := rt.heap.NewModule(moduleName(path), path)
	defer rt.heap.Release(mod)
	return rt.run(ctx, fn, mod, path)
}

// DoString compiles and runs code.
func (rt *Runtime) DoString(ctx context.Context, code string) (Value, error) {
	fn, err := rt.CompileString(ctx, code, "")
	if err != nil {
		return object.Null, err
	}
	defer rt.heap.Release(fn)
	mod := rt.heap.NewModule("main", StringName)
	defer rt.heap.Release(mod)
	return rt.run(ctx, fn, mod, StringName)
}

// Eval runs one chunk of interactive input. Top-level variables become
// globals so later chunks see them; exports go to a module kept for the
// lifetime of the runtime.
func (rt *Runtime) Eval(ctx context.Context, code string) (Value, error) {
	if rt.closed {
		return object.Null, ErrClosed
	}
	id := rt.files.AddVirtual("<repl>", []byte(code))
	r, err := rt.compile(ctx, id, compiler.Options{GlobalDecls: true})
	if err != nil {
		return object.Null, err
	}
	fn := rt.vm.NewClosure(r)
	defer rt.heap.Release(fn)
	if rt.repl.IsNull() {
		rt.repl = rt.heap.NewModule("repl", "<repl>")
	}
	return rt.run(ctx, fn, rt.repl, "<repl>")
}

// Call invokes a callable value with borrowed arguments. The result is
// owned.
func (rt *Runtime) Call(ctx context.Context, callee Value, args ...Value) (Value, error) {
	if rt.closed {
		return object.Null, ErrClosed
	}
	return rt.run(ctx, callee, object.Null, "call", args...)
}

// run executes callee with mod prepended to args unless mod is null.
func (rt *Runtime) run(ctx context.Context, callee, mod Value, what string, args ...Value) (Value, error) {
	ctx = rt.withTracer(ctx)
	if err := ctx.Err(); err != nil {
		return object.Null, err
	}
	ctx, span := trace.StartSpan(ctx, trace.ScopePhase, "run")
	defer span.End(what)

	if !mod.IsNull() {
		args = append([]Value{mod}, args...)
	}
	outer := rt.ctx
	if rt.vm.Depth() == 0 {
		rt.ctx = ctx
	}
	defer func() { rt.ctx = outer }()

	res, err := rt.vm.Call(callee, args...)
	if err != nil {
		return object.Null, err
	}
	return res, nil
}

// Disassemble writes the bytecode of a compiled function, nested routines
// included.
func (rt *Runtime) Disassemble(w io.Writer, fn Value) error {
	f, ok := rt.heap.AsFunction(fn)
	if !ok {
		return fmt.Errorf("disassemble: %s is not a function", rt.heap.TypeName(fn))
	}
	for _, c := range f.Closures {
		if c.IsNative() {
			if _, err := fmt.Fprintf(w, "%s: native\n", c.Signature()); err != nil {
				return err
			}
			continue
		}
		if err := bytecode.Disassemble(w, c.Routine); err != nil {
			return err
		}
	}
	return nil
}

func moduleName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
