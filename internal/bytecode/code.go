package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"fortio.org/safecast"
)

var (
	// ErrOperandRange is returned when an operand does not fit in its 16-bit word.
	ErrOperandRange = errors.New("operand out of range")
	// ErrJumpRange is returned when a jump target lies beyond the addressable code.
	ErrJumpRange = errors.New("jump target out of range")
)

// LineRun maps every byte from Offset up to the next run to Line.
type LineRun struct {
	Offset uint32 `msgpack:"o"`
	Line   uint32 `msgpack:"l"`
}

// Code is an instruction buffer with a run-length line table.
type Code struct {
	Bytes []byte    `msgpack:"b"`
	Lines []LineRun `msgpack:"l"`
}

// Len returns the current length in bytes, which is also the next instruction offset.
func (c *Code) Len() int {
	return len(c.Bytes)
}

// Emit appends op with its operands and returns the offset of the instruction.
func (c *Code) Emit(op Opcode, line int, operands ...int) (int, error) {
	info := op.Info()
	if len(operands) != len(info.Operands) {
		return 0, fmt.Errorf("%s: expected %d operands, got %d", info.Name, len(info.Operands), len(operands))
	}
	at := len(c.Bytes)
	if err := c.mark(at, line); err != nil {
		return 0, err
	}
	c.Bytes = append(c.Bytes, byte(op))
	for i, v := range operands {
		w, err := encodeOperand(info.Operands[i], v)
		if err != nil {
			c.Bytes = c.Bytes[:at]
			return 0, fmt.Errorf("%s operand %d: %w", info.Name, v, err)
		}
		c.Bytes = binary.LittleEndian.AppendUint16(c.Bytes, w)
	}
	return at, nil
}

func encodeOperand(kind Operand, v int) (uint16, error) {
	if kind == OperandSmallInt {
		s, err := safecast.Conv[int16](v)
		if err != nil {
			return 0, ErrOperandRange
		}
		return uint16(s), nil
	}
	w, err := safecast.Conv[uint16](v)
	if err != nil {
		if kind == OperandJump {
			return 0, ErrJumpRange
		}
		return 0, ErrOperandRange
	}
	return w, nil
}

func (c *Code) mark(offset, line int) error {
	ln, err := safecast.Conv[uint32](line)
	if err != nil {
		return err
	}
	if n := len(c.Lines); n > 0 && c.Lines[n-1].Line == ln {
		return nil
	}
	off, err := safecast.Conv[uint32](offset)
	if err != nil {
		return err
	}
	c.Lines = append(c.Lines, LineRun{Offset: off, Line: ln})
	return nil
}

// EmitJump emits a jump with a placeholder target and returns the offset of
// its operand for PatchJump.
func (c *Code) EmitJump(op Opcode, line int) (int, error) {
	at, err := c.Emit(op, line, 0)
	if err != nil {
		return 0, err
	}
	return at + 1, nil
}

// PatchJump points the jump operand at operandAt to target.
func (c *Code) PatchJump(operandAt, target int) error {
	if err := c.Patch(operandAt, target); err != nil {
		if errors.Is(err, ErrOperandRange) {
			return ErrJumpRange
		}
		return err
	}
	return nil
}

// Patch overwrites the unsigned operand word at operandAt.
func (c *Code) Patch(operandAt, value int) error {
	w, err := safecast.Conv[uint16](value)
	if err != nil {
		return ErrOperandRange
	}
	if operandAt < 1 || operandAt+2 > len(c.Bytes) {
		return fmt.Errorf("patch offset %d outside code", operandAt)
	}
	binary.LittleEndian.PutUint16(c.Bytes[operandAt:], w)
	return nil
}

// Op returns the opcode at offset.
func (c *Code) Op(offset int) Opcode {
	return Opcode(c.Bytes[offset])
}

// Word returns the raw operand word at offset.
func (c *Code) Word(offset int) int {
	return int(binary.LittleEndian.Uint16(c.Bytes[offset:]))
}

// SignedWord returns the operand at offset as a signed value.
func (c *Code) SignedWord(offset int) int {
	return int(int16(binary.LittleEndian.Uint16(c.Bytes[offset:])))
}

// Instr is a decoded instruction.
type Instr struct {
	Offset   int
	Op       Opcode
	Operands []int
}

// Decode reads the instruction at offset and returns it with the offset of
// the following instruction.
func (c *Code) Decode(offset int) (Instr, int, error) {
	if offset < 0 || offset >= len(c.Bytes) {
		return Instr{}, 0, fmt.Errorf("offset %d outside code", offset)
	}
	op := Opcode(c.Bytes[offset])
	if !op.Valid() {
		return Instr{}, 0, fmt.Errorf("invalid opcode 0x%02x at %d", byte(op), offset)
	}
	info := op.Info()
	next := offset + op.Width()
	if next > len(c.Bytes) {
		return Instr{}, 0, fmt.Errorf("truncated %s at %d", info.Name, offset)
	}
	in := Instr{Offset: offset, Op: op}
	for i, kind := range info.Operands {
		at := offset + 1 + 2*i
		if kind == OperandSmallInt {
			in.Operands = append(in.Operands, c.SignedWord(at))
		} else {
			in.Operands = append(in.Operands, c.Word(at))
		}
	}
	return in, next, nil
}

// LineAt returns the source line of the instruction at offset, or 0.
func (c *Code) LineAt(offset int) int {
	i := sort.Search(len(c.Lines), func(i int) bool {
		return int(c.Lines[i].Offset) > offset
	})
	if i == 0 {
		return 0
	}
	return int(c.Lines[i-1].Line)
}
