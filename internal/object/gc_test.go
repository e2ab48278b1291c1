package object_test

import (
	"testing"

	"github.com/phonometrica/phonometrica-sub000/internal/object"
	"github.com/phonometrica/phonometrica-sub000/internal/testkit"
	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

func selfCycle(h *object.Heap) {
	l := h.NewList(nil)
	h.Payload(l).(*object.List).Append(h.Retain(l))
	h.Release(l)
}

func TestCollectSelfCycle(t *testing.T) {
	h := object.NewHeap(0, nil)
	base := h.Live()

	selfCycle(h)
	if h.Live() != base+1 || h.Candidates() != 1 {
		t.Fatalf("before collection: live=%d candidates=%d", h.Live()-base, h.Candidates())
	}
	if n := h.Collect(); n != 1 {
		t.Fatalf("freed %d, want 1", n)
	}
	if err := testkit.CheckHeap(h, base); err != nil {
		t.Fatal(err)
	}
}

func TestCollectExternallyRootedCycle(t *testing.T) {
	h := object.NewHeap(0, nil)
	base := h.Live()

	a, b := h.NewTable(), h.NewTable()
	h.Payload(a).(*object.Table).Put(h, object.String("next"), h.Retain(b))
	h.Payload(b).(*object.Table).Put(h, object.String("next"), h.Retain(a))
	ext := h.Retain(a)
	h.Release(a)
	h.Release(b)

	if n := h.Collect(); n != 0 {
		t.Fatalf("a reachable cycle must survive, freed %d", n)
	}
	if err := testkit.CheckHeap(h, base+2); err != nil {
		t.Fatal(err)
	}
	if got := h.Get(ext.H).RC; got != 2 {
		t.Fatalf("reference count not restored: %d", got)
	}

	h.Release(ext)
	if n := h.Collect(); n != 2 {
		t.Fatalf("freed %d, want 2", n)
	}
	if err := testkit.CheckHeap(h, base); err != nil {
		t.Fatal(err)
	}
}

func TestCollectClosureCycle(t *testing.T) {
	h := object.NewHeap(0, nil)
	base := h.Live()

	// A function that captures the variable it is stored in.
	var slot object.Value
	cell := h.MakeAlias(&slot)
	fn := h.NewFunction("f", &object.Closure{Name: "f", Upvalues: []object.Value{cell}})
	h.Assign(&slot, h.Retain(fn))
	h.Release(fn)
	h.Rebind(&slot, object.Null)

	if n := h.Collect(); n != 2 {
		t.Fatalf("freed %d, want 2", n)
	}
	if err := testkit.CheckHeap(h, base); err != nil {
		t.Fatal(err)
	}
}

func TestCollectReleasesAtomicChildren(t *testing.T) {
	h := object.NewHeap(0, nil)
	base := h.Live()

	re, err := h.NewRegex("a+", "i")
	if err != nil {
		t.Fatal(err)
	}
	l := h.NewList([]object.Value{re})
	h.Payload(l).(*object.List).Append(h.Retain(l))
	h.Release(l)

	if n := h.Collect(); n != 2 {
		t.Fatalf("freed %d, want 2", n)
	}
	if err := testkit.CheckHeap(h, base); err != nil {
		t.Fatal(err)
	}
}

func TestSuspendDefersCollection(t *testing.T) {
	h := object.NewHeap(0, nil)
	base := h.Live()
	selfCycle(h)

	h.Suspend()
	if n := h.Collect(); n != 0 || !h.Suspended() {
		t.Fatalf("collection ran while suspended: %d", n)
	}
	h.Resume()
	if n := h.Collect(); n != 1 {
		t.Fatalf("freed %d, want 1", n)
	}
	if err := testkit.CheckHeap(h, base); err != nil {
		t.Fatal(err)
	}
}

func TestMaybeCollectThreshold(t *testing.T) {
	h := object.NewHeap(3, nil)
	base := h.Live()
	selfCycle(h)

	if n := h.MaybeCollect(); n != 0 {
		t.Fatalf("collected below threshold: %d", n)
	}
	h.Release(h.NewList(nil))
	h.Release(h.NewTable())
	if n := h.MaybeCollect(); n != 1 {
		t.Fatalf("freed %d, want 1", n)
	}
	if err := testkit.CheckHeap(h, base); err != nil {
		t.Fatal(err)
	}
}

func TestCollectEmitsTracePoint(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelDebug)
	h := object.NewHeap(0, ring)
	selfCycle(h)
	h.Collect()

	var found bool
	for _, ev := range ring.Snapshot() {
		if ev.Name == "gc" && ev.Kind == trace.KindPoint {
			found = true
			if ev.Extra["freed"] != "1" || ev.Extra["candidates"] != "1" {
				t.Fatalf("unexpected gc event extras: %v", ev.Extra)
			}
		}
	}
	if !found {
		t.Fatalf("no gc event recorded")
	}
}

func TestHostClass(t *testing.T) {
	h := object.NewHeap(0, nil)
	base := h.Live()

	c, err := h.NewClass("Sound", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.NewClass("Sound", nil); err == nil {
		t.Fatalf("duplicate class accepted")
	}
	if c.Parent != h.Classes().Object {
		t.Fatalf("default parent should be Object")
	}
	inst := h.NewInstance(c, "payload")
	in := h.Payload(inst).(*object.Instance)
	in.Fields.Put(h, object.String("self"), h.Retain(inst))
	h.Release(inst)
	if n := h.Collect(); n != 1 {
		t.Fatalf("freed %d, want 1", n)
	}
	if err := testkit.CheckHeap(h, base+1); err != nil {
		t.Fatal(err)
	}
}
