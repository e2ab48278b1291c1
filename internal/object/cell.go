package object

// Cell is the storage behind an alias. Closures capture variables as cells,
// by-reference arguments and `ref` expressions share them.
type Cell struct {
	Value Value
}

// CellOf returns the cell an alias value refers to.
func (h *Heap) CellOf(v Value) (*Cell, bool) {
	if v.Kind != KindAlias {
		return nil, false
	}
	c := h.cell(v.H)
	return c, c != nil
}

func traverseCell(o *Object, visit func(Value)) {
	if c, ok := o.Payload.(*Cell); ok {
		visit(c.Value)
	}
}
