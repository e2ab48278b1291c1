package object

import (
	"fmt"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

// Handle indexes an object in the heap arena. Handle(0) is always invalid.
// Freed handles are recycled.
type Handle uint32

// Color is the collector state of an object.
type Color uint8

const (
	// Green objects are atomic: they cannot take part in a cycle and are
	// never traced.
	Green Color = iota
	Black
	Grey
	White
	Purple
)

func (c Color) String() string {
	switch c {
	case Green:
		return "green"
	case Black:
		return "black"
	case Grey:
		return "grey"
	case White:
		return "white"
	case Purple:
		return "purple"
	}
	return "?"
}

// Object is a heap cell. Payload holds the concrete data: *List, *Table,
// *Set, *Function, *Cell, *Iterator, *Module, *Instance, *File, *Regex or
// *Class.
type Object struct {
	Class   *Class
	RC      int32
	Color   Color
	Payload any

	// buffered is set while the object sits on the candidate list.
	buffered   bool
	prev, next Handle
	allocID    uint64
}

// DefaultThreshold is the number of collectable allocations between two
// automatic collections.
const DefaultThreshold = 10000

// Heap owns every object of one runtime.
type Heap struct {
	objs    []*Object
	free    []Handle
	live    int
	allocID uint64

	// Candidate list of possible cycle roots.
	roots  Handle
	nroots int

	allocs    int
	threshold int
	suspended int
	freed     uint64

	classes Classes
	tracer  trace.Tracer
}

// NewHeap creates a heap and bootstraps the built-in classes. A threshold of
// zero selects DefaultThreshold.
func NewHeap(threshold int, tracer trace.Tracer) *Heap {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if tracer == nil {
		tracer = trace.Nop
	}
	h := &Heap{
		objs:      make([]*Object, 1, 256),
		threshold: threshold,
		tracer:    tracer,
	}
	h.bootstrap()
	return h
}

// Classes returns the built-in class descriptors.
func (h *Heap) Classes() *Classes { return &h.classes }

// Live returns the number of objects currently allocated, classes included.
func (h *Heap) Live() int { return h.live }

// Candidates returns the length of the candidate list.
func (h *Heap) Candidates() int { return h.nroots }

func (h *Heap) alloc(class *Class, payload any) Value {
	var hd Handle
	if n := len(h.free); n > 0 {
		hd = h.free[n-1]
		h.free = h.free[:n-1]
	} else {
		h.objs = append(h.objs, nil)
		hd = Handle(len(h.objs) - 1)
	}
	h.allocID++
	o := &Object{Class: class, RC: 1, Payload: payload, allocID: h.allocID}
	if class == nil || !class.Atomic {
		o.Color = Black
		h.allocs++
	}
	h.objs[hd] = o
	h.live++
	return Value{Kind: KindObject, H: hd}
}

// Get returns the object behind hd. Invalid handles are a host bug and panic.
func (h *Heap) Get(hd Handle) *Object {
	if hd == 0 || int(hd) >= len(h.objs) || h.objs[hd] == nil {
		panic(diag.Errorf(diag.RuntimeError, diag.RunInfo, "invalid object handle %d", hd))
	}
	return h.objs[hd]
}

func (h *Heap) lookup(hd Handle) (*Object, bool) {
	if hd == 0 || int(hd) >= len(h.objs) {
		return nil, false
	}
	o := h.objs[hd]
	return o, o != nil
}

// Payload returns the payload of an object value, or nil.
func (h *Heap) Payload(v Value) any {
	if v.Kind != KindObject {
		return nil
	}
	o, ok := h.lookup(v.H)
	if !ok {
		return nil
	}
	return o.Payload
}

// Retain adds a reference to v and returns it.
func (h *Heap) Retain(v Value) Value {
	if v.HasHandle() {
		h.Get(v.H).RC++
	}
	return v
}

// Release drops a reference to v. An object whose count reaches zero is
// destroyed at once; otherwise it becomes a possible cycle root.
func (h *Heap) Release(v Value) {
	if !v.HasHandle() {
		return
	}
	o, ok := h.lookup(v.H)
	if !ok {
		return
	}
	o.RC--
	switch {
	case o.RC > 0:
		h.possibleRoot(v.H, o)
	case o.RC == 0:
		h.release(v.H, o)
	default:
		panic(diag.Errorf(diag.RuntimeError, diag.RunInfo, "negative reference count on %s #%d", o.Class.Name, v.H))
	}
}

// ReleaseAll releases every value of vs.
func (h *Heap) ReleaseAll(vs []Value) {
	for _, v := range vs {
		h.Release(v)
	}
}

// release destroys an object whose last reference went away. A buffered
// object keeps its slot until the collector unlinks it.
func (h *Heap) release(hd Handle, o *Object) {
	h.finalize(o)
	children := h.children(o)
	o.Payload = nil
	o.Color = Black
	if !o.buffered {
		h.freeSlot(hd)
	}
	for _, c := range children {
		h.Release(c)
	}
}

func (h *Heap) finalize(o *Object) {
	if o.Class != nil {
		if fin := o.Class.finalizer(); fin != nil {
			fin(o)
		}
	}
}

// children lists the references held by o.
func (h *Heap) children(o *Object) []Value {
	if o.Payload == nil || o.Class == nil {
		return nil
	}
	tr := o.Class.traverser()
	if tr == nil {
		return nil
	}
	var out []Value
	tr(o, func(v Value) {
		if v.HasHandle() {
			out = append(out, v)
		}
	})
	return out
}

func (h *Heap) freeSlot(hd Handle) {
	h.objs[hd] = nil
	h.free = append(h.free, hd)
	h.live--
	h.freed++
}

// Each calls fn for every live object in handle order.
func (h *Heap) Each(fn func(hd Handle, o *Object)) {
	for hd, o := range h.objs {
		if o != nil && hd != 0 {
			fn(Handle(hd), o)
		}
	}
}

// Buffered reports whether o is on the candidate list.
func (o *Object) Buffered() bool { return o.buffered }

// Deref follows an alias to the value it holds. The result is borrowed.
func (h *Heap) Deref(v Value) Value {
	for v.Kind == KindAlias {
		c := h.cell(v.H)
		if c == nil {
			return Null
		}
		v = c.Value
	}
	return v
}

func (h *Heap) cell(hd Handle) *Cell {
	o, ok := h.lookup(hd)
	if !ok {
		return nil
	}
	c, _ := o.Payload.(*Cell)
	return c
}

// Load returns an owned copy of the value v refers to.
func (h *Heap) Load(v Value) Value {
	return h.Retain(h.Deref(v))
}

// Assign stores the owned value v into *slot. When the slot holds an alias
// the write goes to the aliased cell.
func (h *Heap) Assign(slot *Value, v Value) {
	if v.Kind == KindAlias {
		inner := h.Load(v)
		h.Release(v)
		v = inner
	}
	for slot.Kind == KindAlias {
		c := h.cell(slot.H)
		if c == nil {
			break
		}
		slot = &c.Value
	}
	old := *slot
	*slot = v
	h.Release(old)
}

// Rebind replaces the content of *slot with the owned value v, dropping any
// alias the slot held.
func (h *Heap) Rebind(slot *Value, v Value) {
	old := *slot
	*slot = v
	h.Release(old)
}

// MakeAlias turns *slot into an alias cell (unless it already is one) and
// returns an owned reference to the cell.
func (h *Heap) MakeAlias(slot *Value) Value {
	if slot.Kind != KindAlias {
		cell := h.alloc(h.classes.Alias, &Cell{Value: *slot})
		*slot = Value{Kind: KindAlias, H: cell.H}
	}
	return h.Retain(*slot)
}

// NewAlias wraps the owned value v in a fresh cell.
func (h *Heap) NewAlias(v Value) Value {
	if v.Kind == KindAlias {
		return v
	}
	cell := h.alloc(h.classes.Alias, &Cell{Value: v})
	return Value{Kind: KindAlias, H: cell.H}
}

// Close drops every remaining object, running finalizers. Built-in classes
// go last, in reverse bootstrap order, and the class of classes after them.
func (h *Heap) Close() {
	for hd, o := range h.objs {
		if o == nil || hd == 0 {
			continue
		}
		if _, isClass := o.Payload.(*Class); isClass {
			continue
		}
		h.finalize(o)
		o.Payload = nil
	}
	h.closeClasses()
	h.objs = h.objs[:1]
	h.free = nil
	h.live = 0
	h.roots, h.nroots = 0, 0
}

// String describes an object for debugging.
func (o *Object) String() string {
	name := "?"
	if o.Class != nil {
		name = o.Class.Name
	}
	return fmt.Sprintf("%s(rc=%d, %s)", name, o.RC, o.Color)
}
