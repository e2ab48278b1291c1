package diag

import (
	"fmt"

	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

type dedupKey struct {
	code  Code
	file  source.FileID
	start uint32
	msg   string
}

// DedupReporter forwards diagnostics to another Reporter without repeats.
// A diagnostic that starts where the previous one of the same code ended,
// such as each byte of a run of illegal characters, extends that one
// instead of being reported on its own. The last diagnostic is held back
// until the next unrelated report or Flush.
type DedupReporter struct {
	next    Reporter
	seen    map[dedupKey]struct{}
	pending *Diagnostic
	folded  int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r == nil {
		return
	}
	key := dedupKey{code: code, file: primary.File, start: primary.Start, msg: msg}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}

	if p := r.pending; p != nil && p.Code == code && p.Primary.File == primary.File && p.Primary.End == primary.Start {
		p.Primary.End = primary.End
		p.Notes = append(p.Notes, notes...)
		r.folded++
		return
	}
	r.Flush()
	r.pending = &Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes}
}

// Flush forwards the diagnostic being held, if any.
func (r *DedupReporter) Flush() {
	if r == nil || r.pending == nil {
		return
	}
	d := r.pending
	r.pending = nil
	if r.folded > 0 {
		d.Message = fmt.Sprintf("%s (and %d more)", d.Message, r.folded)
		r.folded = 0
	}
	if r.next != nil {
		r.next.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	}
}
