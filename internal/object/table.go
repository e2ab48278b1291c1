package object

import (
	"fmt"
	"math"
)

// Key is the hashable identity of a value used as a table key or set
// element. Integral floats hash like the equal integer, strings by content
// and objects by identity.
type Key struct {
	kind Kind
	i    int64
	s    string
}

// KeyOf computes the key of v. Aliases are looked through.
func (h *Heap) KeyOf(v Value) Key {
	v = h.Deref(v)
	switch v.Kind {
	case KindBool, KindInt:
		return Key{kind: v.Kind, i: v.I}
	case KindFloat:
		if v.F == math.Trunc(v.F) && v.F >= math.MinInt64 && v.F < math.MaxInt64 {
			return Key{kind: KindInt, i: int64(v.F)}
		}
		return Key{kind: KindFloat, i: int64(math.Float64bits(v.F))}
	case KindString:
		return Key{kind: KindString, s: v.S}
	case KindObject:
		return Key{kind: KindObject, i: int64(v.H)}
	}
	return Key{}
}

// Table maps keys to values and remembers insertion order.
type Table struct {
	index map[Key]int
	keys  []Value
	vals  []Value
}

// NewTable allocates an empty table.
func (h *Heap) NewTable() Value {
	return h.alloc(h.classes.Table, &Table{index: make(map[Key]int)})
}

func (t *Table) Len() int { return len(t.keys) }

// Entry returns the i-th key and value in insertion order. Both are borrowed
// and the value may be an alias.
func (t *Table) Entry(i int) (Value, Value) { return t.keys[i], t.vals[i] }

// Slot returns the storage of the i-th value.
func (t *Table) Slot(i int) *Value { return &t.vals[i] }

// Find returns the position of k.
func (t *Table) Find(h *Heap, k Value) (int, bool) {
	i, ok := t.index[h.KeyOf(k)]
	return i, ok
}

// Get returns the value stored under k, borrowed and dereferenced.
func (t *Table) Get(h *Heap, k Value) (Value, bool) {
	i, ok := t.Find(h, k)
	if !ok {
		return Null, false
	}
	return h.Deref(t.vals[i]), true
}

// Put stores v under k, taking ownership of both. An existing entry keeps
// its key and position; the write goes through an alias if it holds one.
func (t *Table) Put(h *Heap, k, v Value) {
	k = h.deAlias(k)
	key := h.KeyOf(k)
	if i, ok := t.index[key]; ok {
		h.Release(k)
		h.Assign(&t.vals[i], v)
		return
	}
	t.index[key] = len(t.keys)
	t.keys = append(t.keys, k)
	t.vals = append(t.vals, h.deAlias(v))
}

// Remove deletes k and returns its value, owned by the caller.
func (t *Table) Remove(h *Heap, k Value) (Value, bool) {
	key := h.KeyOf(k)
	i, ok := t.index[key]
	if !ok {
		return Null, false
	}
	h.Release(t.keys[i])
	v := h.deAlias(t.vals[i])
	delete(t.index, key)
	t.keys = append(t.keys[:i], t.keys[i+1:]...)
	t.vals = append(t.vals[:i], t.vals[i+1:]...)
	for j := i; j < len(t.keys); j++ {
		t.index[h.KeyOf(t.keys[j])] = j
	}
	return v, true
}

// Clear removes every entry.
func (t *Table) Clear(h *Heap) {
	keys, vals := t.keys, t.vals
	t.keys, t.vals = nil, nil
	clear(t.index)
	for i := range keys {
		h.Release(keys[i])
		h.Release(vals[i])
	}
}

// deAlias replaces an owned alias by an owned copy of its content.
func (h *Heap) deAlias(v Value) Value {
	if v.Kind != KindAlias {
		return v
	}
	inner := h.Load(v)
	h.Release(v)
	return inner
}

func (t *Table) traverse(visit func(Value)) {
	for i := range t.keys {
		visit(t.keys[i])
		visit(t.vals[i])
	}
}

func traverseTable(o *Object, visit func(Value)) {
	if t, ok := o.Payload.(*Table); ok {
		t.traverse(visit)
	}
}

// Set is an unordered collection of distinct values, iterated in insertion
// order.
type Set struct {
	index map[Key]int
	items []Value
}

// NewSet allocates a set holding items, taking ownership of them.
// Duplicates are released.
func (h *Heap) NewSet(items []Value) Value {
	s := &Set{index: make(map[Key]int, len(items))}
	for _, v := range items {
		s.Add(h, v)
	}
	return h.alloc(h.classes.Set, s)
}

func (s *Set) Len() int { return len(s.items) }

// Item returns the i-th element, borrowed.
func (s *Set) Item(i int) Value { return s.items[i] }

func (s *Set) Contains(h *Heap, v Value) bool {
	_, ok := s.index[h.KeyOf(v)]
	return ok
}

// Add inserts the owned value v and reports whether it was new.
func (s *Set) Add(h *Heap, v Value) bool {
	v = h.deAlias(v)
	key := h.KeyOf(v)
	if _, dup := s.index[key]; dup {
		h.Release(v)
		return false
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, v)
	return true
}

// Remove deletes v and reports whether it was present.
func (s *Set) Remove(h *Heap, v Value) bool {
	key := h.KeyOf(v)
	i, ok := s.index[key]
	if !ok {
		return false
	}
	h.Release(s.items[i])
	delete(s.index, key)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[h.KeyOf(s.items[j])] = j
	}
	return true
}

// Clear removes every element.
func (s *Set) Clear(h *Heap) {
	items := s.items
	s.items = nil
	clear(s.index)
	for _, v := range items {
		h.Release(v)
	}
}

func traverseSet(o *Object, visit func(Value)) {
	if s, ok := o.Payload.(*Set); ok {
		for _, v := range s.items {
			visit(v)
		}
	}
}

func (k Key) String() string {
	switch k.kind {
	case KindString:
		return fmt.Sprintf("%q", k.s)
	case KindObject:
		return fmt.Sprintf("#%d", k.i)
	}
	return fmt.Sprintf("%s:%d", k.kind, k.i)
}
