package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) every statement and expression span is well formed, belongs to sf and
// lies within its content
// 2) the root block covers each of its top-level statements
func CheckSpanInvariants(b *ast.Builder, root ast.StmtID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	check := func(what string, i int, sp source.Span) error {
		if sp.End < sp.Start {
			return fmt.Errorf("%s %d: inverted span %v", what, i, sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("%s %d: span file mismatch: got=%d want=%d", what, i, sp.File, sf.ID)
		}
		if sp.End > lenContent {
			return fmt.Errorf("%s %d: span end beyond content: %d > %d", what, i, sp.End, lenContent)
		}
		return nil
	}
	for i, st := range b.Stmts.Arena.Slice() {
		if err := check("stmt", i+1, st.Span); err != nil {
			return err
		}
	}
	for i, e := range b.Exprs.Arena.Slice() {
		if err := check("expr", i+1, e.Span); err != nil {
			return err
		}
	}

	rs := b.Stmts.Get(root)
	if rs == nil {
		return fmt.Errorf("root statement not found")
	}
	blk := b.Stmts.Block(root)
	if blk == nil {
		return fmt.Errorf("root is not a block")
	}
	for _, id := range blk.Stmts {
		sp := b.Stmts.Get(id).Span
		if sp.Start < rs.Span.Start || sp.End > rs.Span.End {
			return fmt.Errorf("statement span %v is outside root span %v", sp, rs.Span)
		}
	}
	return nil
}

// CheckHeap verifies reference-count bookkeeping after a test released
// everything it allocated:
// 1) exactly want objects are live
// 2) no live object has a non-positive count unless it waits on the
// candidate list
// 3) the candidate list holds only collectable objects and its length
// matches the number of buffered objects
func CheckHeap(h *object.Heap, want int) error {
	if h == nil {
		return fmt.Errorf("nil heap")
	}
	if got := h.Live(); got != want {
		return fmt.Errorf("live objects: got %d, want %d", got, want)
	}
	var firstErr error
	buffered := 0
	h.Each(func(hd object.Handle, o *object.Object) {
		if firstErr != nil {
			return
		}
		if o.Buffered() {
			buffered++
			if o.Color == object.Green {
				firstErr = fmt.Errorf("atomic object #%d %v on candidate list", hd, o)
			}
			return
		}
		if o.RC <= 0 {
			firstErr = fmt.Errorf("object #%d %v has no owner", hd, o)
		}
	})
	if firstErr != nil {
		return firstErr
	}
	if buffered != h.Candidates() {
		return fmt.Errorf("candidate list length %d, buffered objects %d", h.Candidates(), buffered)
	}
	return nil
}
