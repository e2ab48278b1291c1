package object

import (
	"strconv"

	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

// possibleRoot records an object whose count dropped to a non-zero value: it
// may now be kept alive only by a cycle.
func (h *Heap) possibleRoot(hd Handle, o *Object) {
	if o.Color == Green || o.Color == Purple {
		return
	}
	o.Color = Purple
	if !o.buffered {
		h.addCandidate(hd, o)
	}
}

func (h *Heap) addCandidate(hd Handle, o *Object) {
	o.buffered = true
	o.prev = 0
	o.next = h.roots
	if h.roots != 0 {
		h.objs[h.roots].prev = hd
	}
	h.roots = hd
	h.nroots++
}

func (h *Heap) removeCandidate(hd Handle, o *Object) {
	if o.prev != 0 {
		h.objs[o.prev].next = o.next
	} else {
		h.roots = o.next
	}
	if o.next != 0 {
		h.objs[o.next].prev = o.prev
	}
	o.prev, o.next = 0, 0
	o.buffered = false
	h.nroots--
}

// Suspend disables collection until the matching Resume.
func (h *Heap) Suspend() { h.suspended++ }

// Resume undoes one Suspend.
func (h *Heap) Resume() {
	if h.suspended > 0 {
		h.suspended--
	}
}

func (h *Heap) Suspended() bool { return h.suspended > 0 }

// Threshold returns the number of collectable allocations that triggers an
// automatic collection.
func (h *Heap) Threshold() int { return h.threshold }

// MaybeCollect runs a collection when enough collectable objects were
// allocated since the last one. The VM calls it between instructions.
func (h *Heap) MaybeCollect() int {
	if h.allocs < h.threshold || h.suspended > 0 {
		return 0
	}
	return h.Collect()
}

// Collect reclaims every cycle that is no longer reachable from outside and
// returns the number of objects freed. It does nothing while suspended.
func (h *Heap) Collect() int {
	if h.suspended > 0 {
		return 0
	}
	before := h.freed
	candidates := h.nroots
	h.allocs = 0

	h.markCandidates()
	for hd := h.roots; hd != 0; hd = h.objs[hd].next {
		h.scan(hd)
	}
	h.collectCandidates()

	n := int(h.freed - before)
	trace.Point(h.tracer, trace.ScopeRuntime, "gc", "", trace.SpanContext{},
		"candidates", strconv.Itoa(candidates),
		"freed", strconv.Itoa(n),
		"live", strconv.Itoa(h.live))
	return n
}

// markCandidates greys the subgraph of every purple candidate, subtracting
// internal references. Candidates that are no longer purple leave the list;
// those already released are freed.
func (h *Heap) markCandidates() {
	for hd := h.roots; hd != 0; {
		o := h.objs[hd]
		next := o.next
		if o.Color == Purple {
			h.markGrey(o)
		} else {
			h.removeCandidate(hd, o)
			if o.Color == Black && o.RC == 0 {
				h.freeSlot(hd)
			}
		}
		hd = next
	}
}

func (h *Heap) markGrey(o *Object) {
	if o.Color == Grey {
		return
	}
	o.Color = Grey
	for _, c := range h.children(o) {
		child, ok := h.lookup(c.H)
		if !ok || child.Color == Green {
			continue
		}
		child.RC--
		h.markGrey(child)
	}
}

// scan whitens grey objects with no external reference and restores the
// ones that have one.
func (h *Heap) scan(hd Handle) {
	o, ok := h.lookup(hd)
	if !ok || o.Color != Grey {
		return
	}
	if o.RC > 0 {
		h.scanBlack(o)
		return
	}
	o.Color = White
	for _, c := range h.children(o) {
		h.scan(c.H)
	}
}

func (h *Heap) scanBlack(o *Object) {
	o.Color = Black
	for _, c := range h.children(o) {
		child, ok := h.lookup(c.H)
		if !ok || child.Color == Green {
			continue
		}
		child.RC++
		if child.Color != Black {
			h.scanBlack(child)
		}
	}
}

func (h *Heap) collectCandidates() {
	for h.roots != 0 {
		hd := h.roots
		o := h.objs[hd]
		h.removeCandidate(hd, o)
		h.collectWhite(hd)
	}
}

// collectWhite frees a white object and its white descendants. References
// to atomic objects were never subtracted and are released normally.
func (h *Heap) collectWhite(hd Handle) {
	o, ok := h.lookup(hd)
	if !ok || o.Color != White || o.buffered {
		return
	}
	o.Color = Black
	children := h.children(o)
	h.finalize(o)
	o.Payload = nil
	h.freeSlot(hd)
	for _, c := range children {
		child, ok := h.lookup(c.H)
		if !ok {
			continue
		}
		if child.Color == Green {
			h.Release(c)
			continue
		}
		h.collectWhite(c.H)
	}
}
