package object

import "errors"

var (
	ErrNotIterable = errors.New("value is not iterable")
	ErrIterByRef   = errors.New("cannot iterate by reference")
)

// Iterator walks a list, table, set or string. Keys of lists, sets and
// strings are 1-based positions.
type Iterator struct {
	Target Value
	ByRef  bool
	pos    int
	runes  []rune
}

// NewIterator creates an iterator over the borrowed collection coll. By
// reference iteration is supported for lists and tables only.
func (h *Heap) NewIterator(coll Value, byRef bool) (Value, error) {
	coll = h.Deref(coll)
	cs := &h.classes
	if coll.Kind == KindString {
		if byRef {
			return Null, ErrIterByRef
		}
		return h.alloc(cs.StringIterator, &Iterator{Target: coll, runes: []rune(coll.S)}), nil
	}
	var class *Class
	switch h.Payload(coll).(type) {
	case *List:
		class = cs.ListIterator
	case *Table:
		class = cs.TableIterator
	case *Set:
		if byRef {
			return Null, ErrIterByRef
		}
		class = cs.SetIterator
	default:
		return Null, ErrNotIterable
	}
	return h.alloc(class, &Iterator{Target: h.Retain(coll), ByRef: byRef}), nil
}

func (it *Iterator) length(h *Heap) int {
	if it.Target.Kind == KindString {
		return len(it.runes)
	}
	switch c := h.Payload(it.Target).(type) {
	case *List:
		return c.Len()
	case *Table:
		return c.Len()
	case *Set:
		return c.Len()
	}
	return 0
}

// More reports whether another element is available.
func (it *Iterator) More(h *Heap) bool { return it.pos < it.length(h) }

// Key returns the key of the current element without advancing.
func (it *Iterator) Key(h *Heap) Value {
	if t, ok := h.Payload(it.Target).(*Table); ok {
		if it.pos < t.Len() {
			k, _ := t.Entry(it.pos)
			return h.Load(k)
		}
		return Null
	}
	return Int(int64(it.pos) + 1)
}

// Next returns the current element and advances. By reference, the element's
// storage is turned into an alias so writes reach the collection.
func (it *Iterator) Next(h *Heap) Value {
	if !it.More(h) {
		return Null
	}
	at := it.pos
	it.pos++
	if it.Target.Kind == KindString {
		return String(string(it.runes[at]))
	}
	switch c := h.Payload(it.Target).(type) {
	case *List:
		if it.ByRef {
			return h.MakeAlias(&c.Items[at])
		}
		return h.Load(c.Items[at])
	case *Table:
		if it.ByRef {
			return h.MakeAlias(c.Slot(at))
		}
		_, v := c.Entry(at)
		return h.Load(v)
	case *Set:
		return h.Load(c.Item(at))
	}
	return Null
}

func traverseIterator(o *Object, visit func(Value)) {
	if it, ok := o.Payload.(*Iterator); ok {
		visit(it.Target)
	}
}
