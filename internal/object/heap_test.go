package object

import (
	"errors"
	"testing"
)

func TestBootstrapClasses(t *testing.T) {
	h := NewHeap(0, nil)
	cs := h.Classes()

	if h.Get(cs.Object.handle).Class != cs.Class || h.Get(cs.Class.handle).Class != cs.Class {
		t.Fatalf("Object and Class objects must both be instances of Class")
	}
	if cs.Class.Parent != cs.Object || cs.Object.Parent != nil {
		t.Fatalf("Class must derive from Object")
	}
	if d := cs.Integer.Distance(cs.Object); d != 2 {
		t.Fatalf("Integer -> Object distance = %d, want 2", d)
	}
	if d := cs.Integer.Distance(cs.String); d != -1 {
		t.Fatalf("Integer -> String distance = %d, want -1", d)
	}
	if !cs.ListIterator.Inherits(cs.Iterator) {
		t.Fatalf("ListIterator must inherit Iterator")
	}
	for _, c := range cs.All() {
		if h.Get(c.handle).Color != Green {
			t.Fatalf("class %s must be green", c.Name)
		}
		if got, ok := cs.Named(c.Name); !ok || got != c {
			t.Fatalf("class %s not registered by name", c.Name)
		}
	}
	if h.Candidates() != 0 || h.allocs != 0 {
		t.Fatalf("bootstrap left candidates=%d allocs=%d", h.Candidates(), h.allocs)
	}
}

func TestClassOf(t *testing.T) {
	h := NewHeap(0, nil)
	cs := h.Classes()
	l := h.NewList(nil)
	tests := []struct {
		v    Value
		want *Class
	}{
		{Null, cs.Null},
		{Bool(true), cs.Boolean},
		{Int(3), cs.Integer},
		{Float(1.5), cs.Float},
		{String("x"), cs.String},
		{l, cs.List},
		{cs.Integer.Value(), cs.Class},
	}
	for _, tt := range tests {
		if got := h.ClassOf(tt.v); got != tt.want {
			t.Errorf("ClassOf(%v) = %s, want %s", tt.v, got.Name, tt.want.Name)
		}
	}
	h.Release(l)
}

func TestReleaseFreesAcyclicGraph(t *testing.T) {
	h := NewHeap(0, nil)
	base := h.Live()

	tbl := h.NewTable()
	h.Payload(tbl).(*Table).Put(h, String("k"), h.NewList([]Value{Int(1), String("s")}))
	outer := h.NewList([]Value{tbl})
	if h.Live() != base+3 {
		t.Fatalf("live = %d, want %d", h.Live(), base+3)
	}
	h.Release(outer)
	if h.Live() != base {
		t.Fatalf("live after release = %d, want %d", h.Live(), base)
	}
	if h.Candidates() != 0 {
		t.Fatalf("acyclic release should not buffer candidates, got %d", h.Candidates())
	}
}

func TestAliasAssignAndRebind(t *testing.T) {
	h := NewHeap(0, nil)
	base := h.Live()

	slot := Int(1)
	a := h.MakeAlias(&slot)
	if slot.Kind != KindAlias || slot.H != a.H {
		t.Fatalf("slot should now hold the alias")
	}
	h.Assign(&slot, Int(5))
	if got := h.Deref(a); got.Kind != KindInt || got.I != 5 {
		t.Fatalf("write through alias: got %v", got)
	}
	again := h.MakeAlias(&slot)
	if again.H != a.H {
		t.Fatalf("aliasing an alias slot must reuse the cell")
	}
	h.Release(again)

	h.Rebind(&slot, Int(7))
	if got := h.Deref(a); got.I != 5 {
		t.Fatalf("rebind must not write through: got %v", got)
	}
	h.Release(a)
	h.Collect()
	if h.Live() != base {
		t.Fatalf("live = %d, want %d", h.Live(), base)
	}
}

func TestTableKeys(t *testing.T) {
	h := NewHeap(0, nil)
	tv := h.NewTable()
	tbl := h.Payload(tv).(*Table)
	tbl.Put(h, Int(1), String("one"))
	tbl.Put(h, String("b"), Int(2))
	tbl.Put(h, Float(1.0), String("uno"))

	if tbl.Len() != 2 {
		t.Fatalf("len = %d, want 2", tbl.Len())
	}
	if v, ok := tbl.Get(h, Int(1)); !ok || v.S != "uno" {
		t.Fatalf("Get(1) = %v, %v", v, ok)
	}
	if k, _ := tbl.Entry(0); k.Kind != KindInt {
		t.Fatalf("first key should stay the integer 1, got %v", k)
	}
	if _, ok := tbl.Get(h, Float(1.5)); ok {
		t.Fatalf("1.5 must not match 1")
	}
	v, ok := tbl.Remove(h, Int(1))
	if !ok || v.S != "uno" || tbl.Len() != 1 {
		t.Fatalf("Remove: %v %v len=%d", v, ok, tbl.Len())
	}
	if k, _ := tbl.Entry(0); k.S != "b" {
		t.Fatalf("remaining key = %v", k)
	}
	if i, ok := tbl.Find(h, String("b")); !ok || i != 0 {
		t.Fatalf("index not rebuilt after removal: %d %v", i, ok)
	}
	h.Release(tv)
}

func TestSetDeduplicates(t *testing.T) {
	h := NewHeap(0, nil)
	base := h.Live()
	l := h.NewList(nil)
	sv := h.NewSet([]Value{Int(1), Float(1), String("a"), h.Retain(l), h.Retain(l)})
	s := h.Payload(sv).(*Set)
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	if h.Get(l.H).RC != 2 {
		t.Fatalf("duplicate element must be released, rc = %d", h.Get(l.H).RC)
	}
	if !s.Contains(h, String("a")) || s.Contains(h, String("b")) {
		t.Fatalf("Contains is wrong")
	}
	if !s.Remove(h, Int(1)) || s.Len() != 2 {
		t.Fatalf("Remove failed")
	}
	h.Release(l)
	h.Release(sv)
	h.Collect()
	if h.Live() != base {
		t.Fatalf("live = %d, want %d", h.Live(), base)
	}
}

func TestFunctionOverloads(t *testing.T) {
	h := NewHeap(0, nil)
	cs := h.Classes()
	f := &Function{Name: "f"}
	c1 := &Closure{Name: "f", Params: []*Class{cs.Integer}}
	c2 := &Closure{Name: "f", Params: []*Class{cs.String}}
	c3 := &Closure{Name: "f", Params: []*Class{cs.Integer}}
	for _, c := range []*Closure{c1, c2} {
		if _, err := f.Add(c); err != nil {
			t.Fatal(err)
		}
	}
	old, err := f.Add(c3)
	if err != nil || old != c1 || len(f.Closures) != 2 || f.Closures[0] != c3 {
		t.Fatalf("identical signature should replace: old=%v err=%v n=%d", old, err, len(f.Closures))
	}
	bad := &Closure{Name: "f", Params: []*Class{cs.Float}, RefFlags: 1}
	if _, err := f.Add(bad); !errors.Is(err, ErrRefMismatch) {
		t.Fatalf("expected ref mismatch, got %v", err)
	}
	if got := bad.Signature(); got != "f(ref Float)" {
		t.Fatalf("signature = %q", got)
	}
}

func TestDefineFunctionMerges(t *testing.T) {
	h := NewHeap(0, nil)
	cs := h.Classes()
	base := h.Live()
	nop := func(Context, []Value) (Value, error) { return Null, nil }

	var slot Value
	if err := h.DefineFunction(&slot, h.NewNative("g", nop, []*Class{cs.Integer}, 0)); err != nil {
		t.Fatal(err)
	}
	if err := h.DefineFunction(&slot, h.NewNative("g", nop, []*Class{cs.String}, 0)); err != nil {
		t.Fatal(err)
	}
	fn, ok := h.AsFunction(slot)
	if !ok || len(fn.Closures) != 2 {
		t.Fatalf("expected a merged overload set")
	}
	if h.Live() != base+1 {
		t.Fatalf("the merged-in function should be freed: live = %d", h.Live()-base)
	}
	h.Release(slot)
	if h.Live() != base {
		t.Fatalf("live = %d, want %d", h.Live(), base)
	}
}

func TestIteratorByReference(t *testing.T) {
	h := NewHeap(0, nil)
	base := h.Live()
	lv := h.NewList([]Value{Int(1), Int(2)})
	itv, err := h.NewIterator(lv, true)
	if err != nil {
		t.Fatal(err)
	}
	it := h.Payload(itv).(*Iterator)
	for it.More(h) {
		k := it.Key(h)
		v := it.Next(h)
		h.Assign(&v, Int(k.I*10))
		h.Release(v)
	}
	l := h.Payload(lv).(*List)
	if h.Deref(l.Items[0]).I != 10 || h.Deref(l.Items[1]).I != 20 {
		t.Fatalf("list not updated: %s", h.ToString(lv))
	}
	if _, err := h.NewIterator(String("abc"), true); !errors.Is(err, ErrIterByRef) {
		t.Fatalf("strings cannot be iterated by reference, got %v", err)
	}
	if _, err := h.NewIterator(Int(3), false); !errors.Is(err, ErrNotIterable) {
		t.Fatalf("integers are not iterable, got %v", err)
	}
	h.Release(itv)
	h.Release(lv)
	h.Collect()
	if h.Live() != base {
		t.Fatalf("live = %d, want %d", h.Live(), base)
	}
}

func TestStringIterator(t *testing.T) {
	h := NewHeap(0, nil)
	itv, err := h.NewIterator(String("hé!"), false)
	if err != nil {
		t.Fatal(err)
	}
	it := h.Payload(itv).(*Iterator)
	var got string
	for it.More(h) {
		got += it.Next(h).S + "|"
	}
	if got != "h|é|!|" {
		t.Fatalf("got %q", got)
	}
	h.Release(itv)
}

func TestToStringAndEqual(t *testing.T) {
	h := NewHeap(0, nil)
	inner := h.NewList([]Value{Int(1)})
	tv := h.NewTable()
	h.Payload(tv).(*Table).Put(h, String("a"), inner)
	lv := h.NewList([]Value{Int(1), String("a"), Float(2), Null, Bool(true), tv})
	if got, want := h.ToString(lv), `[1, "a", 2.0, null, true, {"a": [1]}]`; got != want {
		t.Fatalf("ToString = %s, want %s", got, want)
	}
	if h.ToString(String("x")) != "x" || h.Repr(String("x")) != `"x"` {
		t.Fatalf("string rendering")
	}
	other := h.NewList([]Value{Int(1)})
	if !h.Equal(Int(1), Float(1)) || h.Equal(Int(1), String("1")) || !h.Equal(inner, other) {
		t.Fatalf("Equal is wrong")
	}
	if c, ok := h.Compare(String("a"), String("b")); !ok || c != -1 {
		t.Fatalf("Compare strings = %d %v", c, ok)
	}
	if _, ok := h.Compare(Int(1), String("b")); ok {
		t.Fatalf("mixed comparison must fail")
	}
	h.Release(lv)
	h.Release(other)
}

func TestPosition(t *testing.T) {
	tests := []struct {
		i    int64
		n    int
		want int
		ok   bool
	}{
		{1, 3, 0, true},
		{3, 3, 2, true},
		{-1, 3, 2, true},
		{-3, 3, 0, true},
		{0, 3, 0, false},
		{4, 3, 0, false},
		{-4, 3, 0, false},
	}
	for _, tt := range tests {
		got, ok := Position(tt.i, tt.n)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("Position(%d, %d) = %d, %v", tt.i, tt.n, got, ok)
		}
	}
}
