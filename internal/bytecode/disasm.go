package bytecode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Disassemble writes a listing of r and, after it, of every nested routine.
// Each instruction line shows offset, source line, mnemonic, operands and the
// constant or name an operand resolves to.
func Disassemble(w io.Writer, r *Routine) error {
	bw := bufio.NewWriter(w)
	if err := disassemble(bw, r, r.DisplayName()); err != nil {
		return err
	}
	return bw.Flush()
}

func disassemble(w *bufio.Writer, r *Routine, path string) error {
	fmt.Fprintf(w, "== %s", path)
	if r.File != "" {
		fmt.Fprintf(w, " (%s:%d)", r.File, r.Line)
	}
	fmt.Fprintf(w, " params=%d locals=%d upvalues=%d", r.NumParams, r.NumLocals, len(r.Upvalues))
	if r.RefFlags != 0 {
		fmt.Fprintf(w, " refs=%s", refList(r))
	}
	w.WriteString(" ==\n")

	lastLine := -1
	for at := 0; at < r.Code.Len(); {
		in, next, err := r.Code.Decode(at)
		if err != nil {
			return err
		}
		line := r.Code.LineAt(at)
		if line == lastLine {
			fmt.Fprintf(w, "%04d     |  ", at)
		} else {
			fmt.Fprintf(w, "%04d  %4d  ", at, line)
			lastLine = line
		}
		w.WriteString(FormatInstr(r, in))
		w.WriteByte('\n')
		at = next
	}
	for i, up := range r.Upvalues {
		where := "upvalue"
		if up.IsLocal {
			where = "local"
		}
		fmt.Fprintf(w, "  upvalue %d %s <- %s %d\n", i, up.Name, where, up.Index)
	}
	for i, child := range r.Routines {
		w.WriteByte('\n')
		if err := disassemble(w, child, fmt.Sprintf("%s/%d:%s", path, i, child.DisplayName())); err != nil {
			return err
		}
	}
	return nil
}

func refList(r *Routine) string {
	var parts []string
	for i := range r.NumParams {
		if r.IsRef(i) {
			parts = append(parts, strconv.Itoa(i))
		}
	}
	return strings.Join(parts, ",")
}

// FormatInstr renders one decoded instruction of r.
func FormatInstr(r *Routine, in Instr) string {
	info := in.Op.Info()
	var b strings.Builder
	b.WriteString(info.Name)
	var notes []string
	for i, v := range in.Operands {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(v))
		if note := operandNote(r, info.Operands[i], v); note != "" {
			notes = append(notes, note)
		}
	}
	if len(notes) > 0 {
		b.WriteString("  ; ")
		b.WriteString(strings.Join(notes, ", "))
	}
	return b.String()
}

func operandNote(r *Routine, kind Operand, v int) string {
	switch kind {
	case OperandInteger:
		if v < len(r.Integers) {
			return strconv.FormatInt(r.Integers[v], 10)
		}
	case OperandFloat:
		if v < len(r.Floats) {
			return strconv.FormatFloat(r.Floats[v], 'g', -1, 64)
		}
	case OperandString:
		if v < len(r.Strings) {
			return strconv.Quote(r.Strings[v])
		}
	case OperandRoutine:
		if v < len(r.Routines) {
			return r.Routines[v].DisplayName()
		}
	case OperandLocal:
		return r.LocalName(v)
	case OperandUpvalue:
		if v < len(r.Upvalues) {
			return r.Upvalues[v].Name
		}
	case OperandJump:
		return fmt.Sprintf("-> %04d", v)
	}
	return ""
}
