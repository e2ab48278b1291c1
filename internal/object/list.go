package object

// List is an ordered, growable sequence. Elements may be aliases after a
// by-reference iteration; readers go through Heap.Deref.
type List struct {
	Items []Value
}

// NewList allocates a list that takes ownership of items.
func (h *Heap) NewList(items []Value) Value {
	return h.alloc(h.classes.List, &List{Items: items})
}

func (l *List) Len() int { return len(l.Items) }

// Append takes ownership of v.
func (l *List) Append(v Value) { l.Items = append(l.Items, v) }

// Position converts a 1-based, possibly negative, script index into a slice
// offset. Negative indices count from the end: -1 is the last element.
func Position(i int64, n int) (int, bool) {
	switch {
	case i > 0 && i <= int64(n):
		return int(i - 1), true
	case i < 0 && -i <= int64(n):
		return n + int(i), true
	}
	return 0, false
}

// Insert places v before 1-based position pos; pos == Len()+1 appends.
func (l *List) Insert(pos int64, v Value) bool {
	n := len(l.Items)
	if pos == int64(n)+1 {
		l.Items = append(l.Items, v)
		return true
	}
	at, ok := Position(pos, n)
	if !ok {
		return false
	}
	l.Items = append(l.Items, Null)
	copy(l.Items[at+1:], l.Items[at:])
	l.Items[at] = v
	return true
}

// Remove deletes the element at offset at and returns it, still owned.
func (l *List) Remove(at int) Value {
	v := l.Items[at]
	copy(l.Items[at:], l.Items[at+1:])
	l.Items[len(l.Items)-1] = Null
	l.Items = l.Items[:len(l.Items)-1]
	return v
}

// Clear removes every element.
func (l *List) Clear(h *Heap) {
	items := l.Items
	l.Items = nil
	for _, v := range items {
		h.Release(v)
	}
}

func traverseList(o *Object, visit func(Value)) {
	if l, ok := o.Payload.(*List); ok {
		for _, v := range l.Items {
			visit(v)
		}
	}
}
