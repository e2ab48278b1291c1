package vm_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/phonometrica/phonometrica-sub000/internal/compiler"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
	"github.com/phonometrica/phonometrica-sub000/internal/parser"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/testkit"
	"github.com/phonometrica/phonometrica-sub000/internal/vm"
)

type harness struct {
	t    *testing.T
	h    *object.Heap
	vm   *vm.VM
	out  bytes.Buffer
	base int
}

func newHarness(t *testing.T, opts vm.Options) *harness {
	t.Helper()
	return newHarnessOn(t, object.NewHeap(0, nil), opts)
}

func newHarnessOn(t *testing.T, h *object.Heap, opts vm.Options) *harness {
	t.Helper()
	hs := &harness{t: t, h: h}
	opts.Output = &hs.out
	hs.vm = vm.New(hs.h, opts)
	for _, c := range hs.h.Classes().All() {
		hs.vm.SetGlobal(c.Name, c.Value())
	}
	hs.base = hs.h.Live()
	return hs
}

func (hs *harness) native(name string, fn object.NativeFunc, params ...*object.Class) {
	hs.t.Helper()
	if err := hs.vm.DefineGlobal(name, hs.h.NewNative(name, fn, params, 0)); err != nil {
		hs.t.Fatalf("define %s: %v", name, err)
	}
}

// exec compiles src and runs it with a fresh module, which is returned owned.
func (hs *harness) exec(src string) (object.Value, error) {
	hs.t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.phon", []byte(src))
	b, root, err := parser.ParseFile(context.Background(), fs, id, parser.Options{})
	if err != nil {
		hs.t.Fatalf("parse: %v", err)
	}
	r, err := compiler.Compile(context.Background(), b, root, fs.Get(id), compiler.Options{})
	if err != nil {
		hs.t.Fatalf("compile: %v", err)
	}
	fn := hs.vm.NewClosure(r)
	defer hs.h.Release(fn)
	mod := hs.h.NewModule("test", "test.phon")
	res, err := hs.vm.Call(fn, mod)
	hs.h.Release(res)
	return mod, err
}

func (hs *harness) run(src string) error {
	hs.t.Helper()
	mod, err := hs.exec(src)
	hs.h.Release(mod)
	return err
}

func (hs *harness) mustRun(src string) string {
	hs.t.Helper()
	if err := hs.run(src); err != nil {
		hs.t.Fatalf("run: %v", err)
	}
	return hs.out.String()
}

// checkLeaks closes the VM and verifies that only the objects present
// before the scripts ran are alive.
func (hs *harness) checkLeaks() {
	hs.t.Helper()
	hs.vm.Close()
	hs.h.Collect()
	if err := testkit.CheckHeap(hs.h, hs.base); err != nil {
		hs.t.Fatal(err)
	}
}

func runtimeErr(t *testing.T, err error, code diag.Code) *diag.Error {
	t.Helper()
	var de *diag.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *diag.Error, got %v", err)
	}
	if de.Kind != diag.RuntimeError || de.Code != code {
		t.Fatalf("got %s %s (%s), want %s", de.Kind, de.Code.ID(), de.Message, code.ID())
	}
	return de
}

func TestPrintAndArithmetic(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	got := hs.mustRun(`
var big = 4611686018427387904
var seven = 7
print big * 4 > big, seven / 2, seven % 3, -seven, seven << 2
print "a" & 1 & 2.0 & null, 1 <=> 2, 2 == 2.0
print "x",
print "y"
`)
	want := "true 3.5 1 -7 28\na12.0null -1 true\nxy\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	hs.checkLeaks()
}

func TestControlFlow(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	got := hs.mustRun(`
var s = 0
for i = 1 to 4 do s += i end
var n = 0
while true do
	n += 1
	if n == 3 then break end
end
var r = 5
repeat r -= 2 until r < 0
print s, n, r, 1 if s > 5 else 2, null or "dflt", false and x
`)
	if want := "10 3 -1 1 dflt false\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	hs.checkLeaks()
}

func TestClosuresShareCells(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	got := hs.mustRun(`
function make_counter()
	var n = 0
	local function bump()
		n += 1
		return n
	end
	return bump
end
var c = make_counter()
var d = make_counter()
c()
c()
print c(), d()
`)
	if got != "3 1\n" {
		t.Fatalf("got %q", got)
	}
	hs.checkLeaks()
}

func TestRecursiveLocalFunctionIsCollected(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	got := hs.mustRun(`
function run()
	local function fact(n)
		if n <= 1 then return 1 end
		return n * fact(n - 1)
	end
	return fact(10)
end
print run()
`)
	if got != "3628800\n" {
		t.Fatalf("got %q", got)
	}
	hs.checkLeaks()
}

func TestReferenceParameters(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	got := hs.mustRun(`
function bump(ref x)
	x += 10
end
var a = 1
bump(a)
var t = [1, 2]
bump(t[2])
var m = {"k": 5}
bump(m["k"])
bump(3)
print a, t, m["k"]
`)
	if want := "11 [1, 12] 15\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	hs.checkLeaks()
}

func TestOverloadResolution(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	got := hs.mustRun(`
function f(x as Integer) return "int" end
function f(x as Number) return "num" end
function f(x) return "any" end
print f(1), f(2.5), f("s")
`)
	if got != "int num any\n" {
		t.Fatalf("got %q", got)
	}

	tests := []struct {
		name string
		src  string
		code diag.Code
		msg  string
	}{
		{"ambiguous", "function g(x as Integer, y) end\nfunction g(x, y as Integer) end\ng(1, 2)", diag.RunAmbiguousCall, "ambiguous call to 'g'"},
		{"no match", "function h(x as String) end\nh(1)", diag.RunNoOverload, "h(String)"},
		{"arity", "function k(x) end\nk(1, 2)", diag.RunArity, "takes 2 argument"},
		{"not callable", "var v = 3\nv()", diag.RunNotCallable, "Integer is not callable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t, vm.Options{})
			de := runtimeErr(t, hs.run(tt.src), tt.code)
			if !strings.Contains(de.Message, tt.msg) {
				t.Fatalf("message %q does not mention %q", de.Message, tt.msg)
			}
			hs.checkLeaks()
		})
	}
}

func TestNullMatchesAnyParameter(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	got := hs.mustRun(`
function f(x as String) return "string" end
print f(null)
`)
	if got != "string\n" {
		t.Fatalf("got %q", got)
	}
}

func TestForeach(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	got := hs.mustRun(`
var t = [1, 2, 3]
foreach ref v in t do v *= 2 end
var sum = 0
foreach i, v in t do sum += i * v end
print t, sum
foreach k, v in {"a": 1, "b": 2} do print k, v end
foreach c in "hé" do print c, end
print
`)
	if want := "[2, 4, 6] 28\na 1\nb 2\nhé\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	hs.checkLeaks()
}

func TestForeachErrors(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	de := runtimeErr(t, hs.run("foreach x in 3 do end"), diag.RunNotIterable)
	if !strings.Contains(de.Message, "Integer") {
		t.Fatalf("message %q", de.Message)
	}
	runtimeErr(t, hs.run("foreach ref x in {1, 2} do end"), diag.RunNotIterable)
	hs.checkLeaks()
}

func TestIndexing(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	got := hs.mustRun(`
var t = {"a": 1}
t["b"] = 2
t["a"] += 5
var l = [10, 20, 30]
l[-1] = 99
print t["a"], t["b"], l[1], l[3], "héllo"[2]
`)
	if want := "6 2 10 99 é\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	runtimeErr(t, hs.run("var t = {\"a\": 1}\nprint t[\"zz\"]"), diag.RunMissingKey)
	runtimeErr(t, hs.run("var l = [1]\nprint l[5]"), diag.RunIndexOutOfRange)
	runtimeErr(t, hs.run("var l = [1]\nprint l[\"x\"]"), diag.RunTypeMismatch)
	runtimeErr(t, hs.run("var n = 1\nprint n[1]"), diag.RunTypeMismatch)
	hs.checkLeaks()
}

func TestContainersAreShared(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	got := hs.mustRun(`
var a = [1, 2]
var b = a
b[1] = 9
function f(l) l[2] = 7 end
f(a)
var rows = [[0]]
var row = rows[1]
row[1] = 5
rows[1][1] += 1
print a, b, rows
`)
	if want := "[9, 7] [9, 7] [[6]]\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	hs.checkLeaks()
}

func TestModuleExports(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	mod, err := hs.exec("export var answer = 42\nexport function twice(x) return 2 * x end")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	m := hs.h.Payload(mod).(*object.Module)
	v, ok := m.Exports.Get(hs.h, object.String("answer"))
	if !ok || v.Kind != object.KindInt || v.I != 42 {
		t.Fatalf("answer = %v, %v", v, ok)
	}
	if _, ok := m.Exports.Get(hs.h, object.String("twice")); !ok {
		t.Fatalf("twice not exported")
	}
	hs.h.Release(mod)
	hs.checkLeaks()
}

func TestHostClass(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	h := hs.h
	cs := h.Classes()
	point, err := h.NewClass("Point", nil)
	if err != nil {
		t.Fatal(err)
	}
	newPoint := func(ctx object.Context, args []object.Value) (object.Value, error) {
		h := ctx.Heap()
		p := h.NewInstance(point, nil)
		in := h.Payload(p).(*object.Instance)
		in.Fields.Put(h, object.String("x"), h.Load(args[0]))
		in.Fields.Put(h, object.String("y"), h.Load(args[1]))
		return p, nil
	}
	if err := h.SetMethod(point, "new", h.NewNative("new", newPoint, []*object.Class{cs.Number, cs.Number}, 0)); err != nil {
		t.Fatal(err)
	}
	hs.vm.SetGlobal("Point", point.Value())
	hs.base = h.Live()

	got := hs.mustRun(`
function bump(ref v) v += 1 end
var p = Point(1, 2)
p.x = 10
bump(p.y)
var q = Point.new(0, 0)
print p.x + p.y, q.x
`)
	if got != "13 0\n" {
		t.Fatalf("got %q", got)
	}
	de := runtimeErr(t, hs.run("var p = Point(1, 2)\nprint p.z"), diag.RunNoSuchField)
	if !strings.Contains(de.Message, "Point has no member 'z'") {
		t.Fatalf("message %q", de.Message)
	}
	runtimeErr(t, hs.run("Point(\"a\", 2)"), diag.RunNoOverload)
	hs.checkLeaks()
}

func TestRuntimeErrorBacktrace(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	err := hs.run(`function inner()
	throw "boom"
end
function outer()
	inner()
end
outer()
`)
	de := runtimeErr(t, err, diag.RunThrow)
	if de.Message != "boom" || de.Line != 2 || de.File != "test.phon" {
		t.Fatalf("got %q at %s:%d", de.Message, de.File, de.Line)
	}
	want := []diag.Frame{
		{Routine: "inner", File: "test.phon", Line: 2},
		{Routine: "outer", File: "test.phon", Line: 5},
		{Routine: "<main>", File: "test.phon", Line: 7},
	}
	if len(de.Backtrace) != len(want) {
		t.Fatalf("backtrace %+v", de.Backtrace)
	}
	for i := range want {
		if de.Backtrace[i] != want[i] {
			t.Fatalf("frame %d: got %+v, want %+v", i, de.Backtrace[i], want[i])
		}
	}
	if hs.vm.Depth() != 0 {
		t.Fatalf("frames left after error: %d", hs.vm.Depth())
	}
	hs.checkLeaks()
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
		msg  string
		line int
	}{
		{"undefined", "var a = 1\nprint zzz", diag.RunUndefinedGlobal, "undefined variable 'zzz'", 2},
		{"division", "var z = 0\nprint 1 / z", diag.RunDivisionByZero, "division by zero", 2},
		{"assert", "var a = 1\nassert a == 2, \"nope\"", diag.RunAssertion, "assertion failed: nope", 2},
		{"mismatch", "var s = \"a\"\nprint s + 1", diag.RunTypeMismatch, "cannot apply '+' to String and Integer", 2},
		{"compare", "var s = \"a\"\nprint s < 1", diag.RunTypeMismatch, "cannot compare String and Integer", 2},
		{"overflow", "var x = 1e308\nprint x * 10", diag.RunFloatOverflow, "overflow", 2},
		{"nan order", "var x = nan\nprint x <=> 1", diag.RunInvalidFloat, "nan", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t, vm.Options{})
			de := runtimeErr(t, hs.run(tt.src), tt.code)
			if !strings.Contains(de.Message, tt.msg) || de.Line != tt.line {
				t.Fatalf("got %q at line %d", de.Message, de.Line)
			}
			hs.checkLeaks()
		})
	}
}

func TestNanComparisonsAreFalse(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	got := hs.mustRun("var x = nan\nprint x < 1, x >= 1, x == x")
	if got != "false false false\n" {
		t.Fatalf("got %q", got)
	}
}

func TestStackOverflow(t *testing.T) {
	src := "function r(n) return r(n + 1) end\nr(0)"
	for _, opts := range []vm.Options{{MaxCallDepth: 50}, {StackSize: 64}} {
		hs := newHarness(t, opts)
		runtimeErr(t, hs.run(src), diag.RunStackOverflow)
		if hs.vm.Depth() != 0 {
			t.Fatalf("frames left: %d", hs.vm.Depth())
		}
		// The VM stays usable.
		if got := hs.mustRun("print 1"); got != "1\n" {
			t.Fatalf("got %q", got)
		}
		hs.checkLeaks()
	}
}

func TestNativeFunctions(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	cs := hs.h.Classes()
	errDisk := errors.New("disk full")

	hs.native("apply", func(ctx object.Context, args []object.Value) (object.Value, error) {
		return ctx.Call(args[0], args[1])
	}, cs.Object, cs.Object)
	hs.native("fail", func(ctx object.Context, args []object.Value) (object.Value, error) {
		return object.Null, errDisk
	})
	hs.native("boom", func(ctx object.Context, args []object.Value) (object.Value, error) {
		panic("kaboom")
	})
	hs.native("missing", func(ctx object.Context, args []object.Value) (object.Value, error) {
		return object.Null, diag.Errorf(diag.RuntimeError, diag.RunMissingKey, "no such key")
	})
	hs.native("where", func(ctx object.Context, args []object.Value) (object.Value, error) {
		return object.Int(int64(ctx.Line())), nil
	})

	got := hs.mustRun("function sq(x) return x * x end\nprint apply(sq, 7)\nprint where()")
	if got != "49\n3\n" {
		t.Fatalf("got %q", got)
	}

	de := runtimeErr(t, hs.run("var a = 1\nfail()"), diag.HostError)
	if !errors.Is(de, errDisk) || de.Line != 2 {
		t.Fatalf("host error %v at line %d", de, de.Line)
	}
	de = runtimeErr(t, hs.run("boom()"), diag.HostPanic)
	if !strings.Contains(de.Message, "kaboom") {
		t.Fatalf("panic message %q", de.Message)
	}
	de = runtimeErr(t, hs.run("var a = 1\nmissing()"), diag.RunMissingKey)
	if de.Line != 2 {
		t.Fatalf("missing key located at line %d", de.Line)
	}
	// An error raised inside a re-entrant call surfaces unchanged.
	de = runtimeErr(t, hs.run("function bad(x) throw \"inner\" end\napply(bad, 1)"), diag.RunThrow)
	if de.Message != "inner" {
		t.Fatalf("message %q", de.Message)
	}
	hs.checkLeaks()
}

func TestNoAutomaticCollectionInsideNatives(t *testing.T) {
	hs := newHarnessOn(t, object.NewHeap(4, nil), vm.Options{})
	cs := hs.h.Classes()
	var during, after int
	hs.native("guarded", func(ctx object.Context, args []object.Value) (object.Value, error) {
		before := ctx.Heap().Live()
		res, err := ctx.Call(args[0])
		during = ctx.Heap().Live() - before
		return res, err
	}, cs.Object)
	hs.native("live", func(ctx object.Context, args []object.Value) (object.Value, error) {
		after = ctx.Heap().Live()
		return object.Null, nil
	})

	got := hs.mustRun(`
function churn()
	var i = 0
	while i < 20 do
		var t = {}
		t["self"] = t
		i += 1
	end
	return i
end
print guarded(churn)
var pad = 0
pad += 1
live()
`)
	if got != "20\n" {
		t.Fatalf("got %q", got)
	}
	// Every cycle built by churn outlives the callback.
	if during < 20 {
		t.Fatalf("%d objects left after the callback, want at least 20", during)
	}
	if after >= hs.base+20 {
		t.Fatalf("cycles still alive after the native returned: %d objects", after)
	}
	hs.checkLeaks()
}

func TestTracer(t *testing.T) {
	var trace bytes.Buffer
	hs := newHarness(t, vm.Options{Trace: vm.NewTracer(&trace)})
	hs.mustRun("print 1")
	out := trace.String()
	for _, want := range []string{"[depth=1] <main> @0000 NEW_FRAME", "PRINT_LINE 1 (line 1)", "RETURN"} {
		if !strings.Contains(out, want) {
			t.Fatalf("trace lacks %q:\n%s", want, out)
		}
	}
}

func TestGlobals(t *testing.T) {
	hs := newHarness(t, vm.Options{})
	hs.vm.SetGlobal("limit", object.Int(3))
	got := hs.mustRun("total = limit * 2\nprint total")
	if got != "6\n" {
		t.Fatalf("got %q", got)
	}
	v, ok := hs.vm.Global("total")
	if !ok || v.I != 6 {
		t.Fatalf("total = %v, %v", v, ok)
	}
	hs.checkLeaks()
}
