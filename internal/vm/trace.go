package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
)

// Tracer outputs execution traces for debugging.
type Tracer struct {
	w io.Writer
	// Stack also dumps the operand stack of the current frame.
	Stack bool
}

// NewTracer creates a new tracer that writes to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// TraceInstr traces the instruction about to execute in f.
// Format: [depth=N] <routine> @<offset> <instr> (line <line>)
func (t *Tracer) TraceInstr(vm *VM, f *Frame) {
	if t == nil || t.w == nil {
		return
	}
	in, _, err := f.Routine.Code.Decode(f.pc)
	if err != nil {
		fmt.Fprintf(t.w, "[depth=%d] %s @%04d <%v>\n", len(vm.frames), f.name(), f.pc, err)
		return
	}
	fmt.Fprintf(t.w, "[depth=%d] %s @%04d %s (line %d)\n",
		len(vm.frames), f.name(), f.pc, bytecode.FormatInstr(f.Routine, in), f.line())

	if t.Stack {
		var b strings.Builder
		for i := f.base; i < vm.sp; i++ {
			if i > f.base {
				b.WriteString(", ")
			}
			b.WriteString(vm.heap.Repr(vm.stack[i]))
		}
		fmt.Fprintf(t.w, "    stack [%s]\n", b.String())
	}
}
