package object

import (
	"strconv"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/number"
)

// maxFormatDepth bounds nested container rendering; deeper levels print "...".
const maxFormatDepth = 32

// ToString is the string form used by print, `&` and str().
func (h *Heap) ToString(v Value) string {
	var b strings.Builder
	h.format(&b, v, false, 0)
	return b.String()
}

// Repr is like ToString but quotes strings.
func (h *Heap) Repr(v Value) string {
	var b strings.Builder
	h.format(&b, v, true, 0)
	return b.String()
}

func (h *Heap) format(b *strings.Builder, v Value, quote bool, depth int) {
	v = h.Deref(v)
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
		return
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Bool()))
		return
	case KindInt:
		b.WriteString(strconv.FormatInt(v.I, 10))
		return
	case KindFloat:
		b.WriteString(number.FormatFloat(v.F))
		return
	case KindString:
		if quote {
			b.WriteString(strconv.Quote(v.S))
		} else {
			b.WriteString(v.S)
		}
		return
	}
	o, ok := h.lookup(v.H)
	if !ok {
		b.WriteString("<freed>")
		return
	}
	if depth >= maxFormatDepth {
		b.WriteString("...")
		return
	}
	switch p := o.Payload.(type) {
	case *List:
		b.WriteByte('[')
		for i, it := range p.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			h.format(b, it, true, depth+1)
		}
		b.WriteByte(']')
	case *Table:
		b.WriteByte('{')
		for i := 0; i < p.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			k, val := p.Entry(i)
			h.format(b, k, true, depth+1)
			b.WriteString(": ")
			h.format(b, val, true, depth+1)
		}
		b.WriteByte('}')
	case *Set:
		b.WriteByte('{')
		for i := 0; i < p.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			h.format(b, p.Item(i), true, depth+1)
		}
		b.WriteByte('}')
	case *Function:
		b.WriteString("<function ")
		b.WriteString(p.Name)
		b.WriteByte('>')
	case *Class:
		b.WriteString("<class ")
		b.WriteString(p.Name)
		b.WriteByte('>')
	case *Module:
		b.WriteString("<module ")
		b.WriteString(p.Name)
		b.WriteByte('>')
	case *Regex:
		b.WriteByte('/')
		b.WriteString(p.Pattern)
		b.WriteByte('/')
		b.WriteString(p.Flags)
	case *File:
		b.WriteString("<file ")
		b.WriteString(strconv.Quote(p.Path))
		b.WriteByte('>')
	default:
		b.WriteByte('<')
		b.WriteString(o.Class.Name)
		b.WriteByte('>')
	}
}

// Equal is the `==` relation. Numbers compare by value across integer and
// float, strings by content, lists element-wise and other objects by
// identity.
func (h *Heap) Equal(x, y Value) bool {
	return h.equal(x, y, 0)
}

func (h *Heap) equal(x, y Value, depth int) bool {
	x, y = h.Deref(x), h.Deref(y)
	if x.IsNumber() && y.IsNumber() {
		c, ok := number.Compare(x.Num(), y.Num())
		return ok && c == 0
	}
	if x.Kind != y.Kind {
		return false
	}
	switch x.Kind {
	case KindNull:
		return true
	case KindBool:
		return x.I == y.I
	case KindString:
		return x.S == y.S
	}
	if x.H == y.H {
		return true
	}
	if depth >= maxFormatDepth {
		return false
	}
	lx, ok1 := h.Payload(x).(*List)
	ly, ok2 := h.Payload(y).(*List)
	if !ok1 || !ok2 || lx.Len() != ly.Len() {
		return false
	}
	for i := range lx.Items {
		if !h.equal(lx.Items[i], ly.Items[i], depth+1) {
			return false
		}
	}
	return true
}

// Compare orders numbers and strings. ok is false when the operands are not
// comparable, including NaN.
func (h *Heap) Compare(x, y Value) (int, bool) {
	x, y = h.Deref(x), h.Deref(y)
	if x.IsNumber() && y.IsNumber() {
		return number.Compare(x.Num(), y.Num())
	}
	if x.Kind == KindString && y.Kind == KindString {
		return strings.Compare(x.S, y.S), true
	}
	return 0, false
}

// TypeName is the class name of v.
func (h *Heap) TypeName(v Value) string { return h.ClassOf(v).Name }
