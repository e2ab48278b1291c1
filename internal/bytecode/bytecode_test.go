package bytecode

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestEmitAndDecode(t *testing.T) {
	var c Code
	if _, err := c.Emit(OpPushSmallInt, 1, -7); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if _, err := c.Emit(OpGetLocalArg, 1, 3, 2); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if _, err := c.Emit(OpReturn, 2); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if c.Len() != 3+5+1 {
		t.Fatalf("unexpected length %d", c.Len())
	}

	want := []struct {
		op       Opcode
		operands []int
		line     int
	}{
		{OpPushSmallInt, []int{-7}, 1},
		{OpGetLocalArg, []int{3, 2}, 1},
		{OpReturn, nil, 2},
	}
	at := 0
	for i, w := range want {
		in, next, err := c.Decode(at)
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		if in.Op != w.op || len(in.Operands) != len(w.operands) {
			t.Fatalf("instr %d: got %v %v", i, in.Op, in.Operands)
		}
		for j := range w.operands {
			if in.Operands[j] != w.operands[j] {
				t.Fatalf("instr %d operand %d: got %d want %d", i, j, in.Operands[j], w.operands[j])
			}
		}
		if got := c.LineAt(at); got != w.line {
			t.Fatalf("instr %d: line %d, want %d", i, got, w.line)
		}
		at = next
	}
	if len(c.Lines) != 2 {
		t.Fatalf("expected 2 line runs, got %d", len(c.Lines))
	}
}

func TestEmitOperandRange(t *testing.T) {
	var c Code
	if _, err := c.Emit(OpPushSmallInt, 1, math.MaxInt16+1); !errors.Is(err, ErrOperandRange) {
		t.Fatalf("expected ErrOperandRange, got %v", err)
	}
	if _, err := c.Emit(OpGetLocal, 1, math.MaxUint16+1); !errors.Is(err, ErrOperandRange) {
		t.Fatalf("expected ErrOperandRange, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("failed emit left %d bytes", c.Len())
	}
	if _, err := c.Emit(OpCall, 1); err == nil {
		t.Fatalf("expected operand count error")
	}
}

func TestPatchJump(t *testing.T) {
	var c Code
	at, err := c.EmitJump(OpJumpFalse, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Emit(OpPushNull, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.PatchJump(at, c.Len()); err != nil {
		t.Fatal(err)
	}
	in, _, err := c.Decode(0)
	if err != nil {
		t.Fatal(err)
	}
	if in.Operands[0] != 4 {
		t.Fatalf("jump target %d, want 4", in.Operands[0])
	}
	if err := c.PatchJump(at, math.MaxUint16+1); !errors.Is(err, ErrJumpRange) {
		t.Fatalf("expected ErrJumpRange, got %v", err)
	}
}

func TestConstantPools(t *testing.T) {
	r := NewRoutine("f", "a.phon", 1)
	i1, _ := r.AddInteger(1 << 40)
	i2, _ := r.AddInteger(1 << 40)
	if i1 != i2 || len(r.Integers) != 1 {
		t.Fatalf("integer pool not deduplicated")
	}
	f1, _ := r.AddFloat(math.NaN())
	f2, _ := r.AddFloat(math.NaN())
	if f1 != f2 {
		t.Fatalf("NaN constants not deduplicated")
	}
	z1, _ := r.AddFloat(0)
	z2, _ := r.AddFloat(math.Copysign(0, -1))
	if z1 == z2 {
		t.Fatalf("0.0 and -0.0 share a slot")
	}
	s1, _ := r.AddString("x")
	s2, _ := r.AddString("y")
	if s1 == s2 {
		t.Fatalf("distinct strings share a slot")
	}
}

func TestRefFlags(t *testing.T) {
	r := NewRoutine("f", "", 0)
	r.NumParams = 3
	r.SetRef(0)
	r.SetRef(2)
	if !r.IsRef(0) || r.IsRef(1) || !r.IsRef(2) || r.IsRef(MaxParams) {
		t.Fatalf("unexpected ref flags %b", r.RefFlags)
	}
}

func TestDisassemble(t *testing.T) {
	top := NewRoutine("", "main.phon", 1)
	child := NewRoutine("square", "main.phon", 2)
	child.NumParams = 1
	child.Locals = []LocalInfo{{Name: "x", Depth: 1, Slot: 0}}
	child.Code.Emit(OpGetLocal, 3, 0)
	child.Code.Emit(OpGetLocal, 3, 0)
	child.Code.Emit(OpMultiply, 3)
	child.Code.Emit(OpReturn, 3)

	idx, _ := top.AddRoutine(child)
	name, _ := top.AddString("square")
	obj, _ := top.AddString("Object")
	top.Code.Emit(OpGetGlobal, 2, obj)
	top.Code.Emit(OpNewClosure, 2, idx, 1)
	top.Code.Emit(OpDefineGlobalFunc, 2, name)
	top.Code.Emit(OpPushNull, 4)
	top.Code.Emit(OpReturn, 4)

	var out strings.Builder
	if err := Disassemble(&out, top); err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"== <main> (main.phon:1)",
		"NEW_CLOSURE 0 1  ; square",
		`DEFINE_GLOBAL_FUNC 0  ; "square"`,
		"== <main>/0:square (main.phon:2) params=1",
		"GET_LOCAL 0  ; x",
		"MULTIPLY",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("listing lacks %q:\n%s", want, text)
		}
	}
}

func TestOpcodeNames(t *testing.T) {
	seen := make(map[string]Opcode)
	for op, info := range opcodeTable {
		if prev, ok := seen[info.Name]; ok {
			t.Fatalf("opcodes %d and %d share name %s", prev, op, info.Name)
		}
		seen[info.Name] = op
	}
	if Opcode(0xff).Valid() {
		t.Fatalf("0xff should not be valid")
	}
}
