package object

import "fmt"

// Class is a type descriptor. Classes form a single-inheritance tree rooted
// at Object; every class is itself a heap object whose class is Class.
type Class struct {
	Name   string
	Parent *Class
	// Methods maps a name to a Function value owned by the class.
	Methods map[string]Value
	// Atomic instances cannot hold references that lead back to themselves
	// and are never traced by the collector.
	Atomic bool

	// Traverse enumerates the references an instance holds. Nil means the
	// parent's callback applies.
	Traverse func(o *Object, visit func(Value))
	// Finalize releases resources other than references.
	Finalize func(o *Object)

	handle Handle
	depth  int
}

// Value returns the class object. The result is borrowed.
func (c *Class) Value() Value { return Value{Kind: KindObject, H: c.handle} }

func (c *Class) String() string { return c.Name }

// Distance counts the inheritance steps from c up to ancestor, or returns -1
// when ancestor is not on c's parent chain.
func (c *Class) Distance(ancestor *Class) int {
	if ancestor == nil {
		return -1
	}
	n := 0
	for k := c; k != nil; k = k.Parent {
		if k == ancestor {
			return n
		}
		n++
	}
	return -1
}

// Inherits reports whether c is ancestor or derives from it.
func (c *Class) Inherits(ancestor *Class) bool { return c.Distance(ancestor) >= 0 }

// Lookup finds a method on c or its ancestors.
func (c *Class) Lookup(name string) (Value, bool) {
	for k := c; k != nil; k = k.Parent {
		if m, ok := k.Methods[name]; ok {
			return m, true
		}
	}
	return Null, false
}

func (c *Class) traverser() func(*Object, func(Value)) {
	for k := c; k != nil; k = k.Parent {
		if k.Traverse != nil {
			return k.Traverse
		}
	}
	return nil
}

func (c *Class) finalizer() func(*Object) {
	for k := c; k != nil; k = k.Parent {
		if k.Finalize != nil {
			return k.Finalize
		}
	}
	return nil
}

// Classes holds the built-in descriptors of one heap.
type Classes struct {
	Object  *Class
	Class   *Class
	Null    *Class
	Boolean *Class
	Number  *Class
	Integer *Class
	Float   *Class
	String  *Class
	List    *Class
	Table   *Class
	Set     *Class
	// Function values aggregate closures; see Function.
	Function *Class
	Module   *Class
	File     *Class
	Regex    *Class
	Alias    *Class

	Iterator       *Class
	ListIterator   *Class
	TableIterator  *Class
	SetIterator    *Class
	StringIterator *Class

	all    []*Class
	byName map[string]*Class
}

// All returns every registered class in registration order.
func (cs *Classes) All() []*Class { return cs.all }

// Named finds a class by name.
func (cs *Classes) Named(name string) (*Class, bool) {
	c, ok := cs.byName[name]
	return c, ok
}

// bootstrap builds the built-in classes. Object and Class refer to each
// other, so their objects are patched once both descriptors exist.
func (h *Heap) bootstrap() {
	cs := &h.classes
	cs.byName = make(map[string]*Class)

	cs.Object = &Class{Name: "Object", Traverse: traverseInstance}
	cs.Class = &Class{Name: "Class", Parent: cs.Object, Atomic: true}
	for _, c := range []*Class{cs.Object, cs.Class} {
		v := h.alloc(nil, c)
		h.register(c, v.H)
	}
	for _, c := range cs.all {
		o := h.objs[c.handle]
		o.Class = cs.Class
		o.Color = Green
	}
	h.allocs = 0

	atomic := func(name string, parent *Class) *Class {
		return h.builtin(&Class{Name: name, Parent: parent, Atomic: true})
	}
	cs.Null = atomic("Null", cs.Object)
	cs.Boolean = atomic("Boolean", cs.Object)
	cs.Number = atomic("Number", cs.Object)
	cs.Integer = atomic("Integer", cs.Number)
	cs.Float = atomic("Float", cs.Number)
	cs.String = atomic("String", cs.Object)

	cs.List = h.builtin(&Class{Name: "List", Parent: cs.Object, Traverse: traverseList})
	cs.Table = h.builtin(&Class{Name: "Table", Parent: cs.Object, Traverse: traverseTable})
	cs.Set = h.builtin(&Class{Name: "Set", Parent: cs.Object, Traverse: traverseSet})
	cs.Function = h.builtin(&Class{Name: "Function", Parent: cs.Object, Traverse: traverseFunction})
	cs.Module = h.builtin(&Class{Name: "Module", Parent: cs.Object, Traverse: traverseModule})
	cs.File = h.builtin(&Class{Name: "File", Parent: cs.Object, Atomic: true, Finalize: finalizeFile})
	cs.Regex = atomic("Regex", cs.Object)
	cs.Alias = h.builtin(&Class{Name: "Alias", Parent: cs.Object, Traverse: traverseCell})

	cs.Iterator = h.builtin(&Class{Name: "Iterator", Parent: cs.Object, Traverse: traverseIterator})
	cs.ListIterator = h.builtin(&Class{Name: "ListIterator", Parent: cs.Iterator})
	cs.TableIterator = h.builtin(&Class{Name: "TableIterator", Parent: cs.Iterator})
	cs.SetIterator = h.builtin(&Class{Name: "SetIterator", Parent: cs.Iterator})
	cs.StringIterator = h.builtin(&Class{Name: "StringIterator", Parent: cs.Iterator})
}

func (h *Heap) builtin(c *Class) *Class {
	v := h.alloc(h.classes.Class, c)
	h.register(c, v.H)
	return c
}

func (h *Heap) register(c *Class, hd Handle) {
	c.handle = hd
	if c.Parent != nil {
		c.depth = c.Parent.depth + 1
	}
	h.classes.all = append(h.classes.all, c)
	h.classes.byName[c.Name] = c
}

// NewClass registers a host class. A nil parent derives from Object.
// Instances carry an *Instance payload unless the host allocates its own
// with NewObject.
func (h *Heap) NewClass(name string, parent *Class) (*Class, error) {
	if _, dup := h.classes.byName[name]; dup {
		return nil, fmt.Errorf("class %q is already defined", name)
	}
	if parent == nil {
		parent = h.classes.Object
	}
	return h.builtin(&Class{Name: name, Parent: parent, Atomic: parent.Atomic}), nil
}

// ClassOf returns the class of v, looking through aliases.
func (h *Heap) ClassOf(v Value) *Class {
	cs := &h.classes
	v = h.Deref(v)
	switch v.Kind {
	case KindNull:
		return cs.Null
	case KindBool:
		return cs.Boolean
	case KindInt:
		return cs.Integer
	case KindFloat:
		return cs.Float
	case KindString:
		return cs.String
	case KindObject:
		if o, ok := h.lookup(v.H); ok && o.Class != nil {
			return o.Class
		}
	}
	return cs.Object
}

// AsClass returns the descriptor when v is a class object.
func (h *Heap) AsClass(v Value) (*Class, bool) {
	c, ok := h.Payload(h.Deref(v)).(*Class)
	return c, ok
}

// SetMethod adds fn, a Function value, to the methods of c. Overloads with
// the same name are merged. fn is owned by the call.
func (h *Heap) SetMethod(c *Class, name string, fn Value) error {
	if c.Methods == nil {
		c.Methods = make(map[string]Value)
	}
	slot := c.Methods[name]
	if err := h.DefineFunction(&slot, fn); err != nil {
		return err
	}
	c.Methods[name] = slot
	return nil
}

func (h *Heap) closeClasses() {
	cs := &h.classes
	for i := len(cs.all) - 1; i >= 0; i-- {
		c := cs.all[i]
		if c == cs.Class {
			continue
		}
		c.Methods = nil
		h.objs[c.handle] = nil
	}
	cs.Class.Methods = nil
	h.objs[cs.Class.handle] = nil
}
