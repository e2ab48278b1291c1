package bytecode

import "fmt"

// Opcode is a single VM instruction. Every operand is a 16-bit little-endian
// word following the opcode byte.
type Opcode uint8

// Literals and stack
const (
	OpNoop Opcode = iota
	OpPop
	OpDuplicate // duplicate the top n values
	OpPushNull
	OpPushTrue
	OpPushFalse
	OpPushNan
	OpPushSmallInt // signed 16-bit immediate
	OpPushInteger  // integer pool index
	OpPushFloat    // float pool index
	OpPushString   // string pool index
	OpNewRegex     // pattern, flags (string pool indices)
)

// Arithmetic, comparison and logic
const (
	OpAdd Opcode = iota + 0x20
	OpSubtract
	OpMultiply
	OpDivide
	OpModulus
	OpPower
	OpShiftLeft
	OpShiftRight
	OpNegate
	OpConcat // n operands
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpCompare
	OpNot
)

// Control flow; jump operands are absolute code offsets.
const (
	OpJump Opcode = iota + 0x40
	OpJumpFalse
	OpJumpTrue
	OpJumpFalseAnd // keep the operand if it is false and jump, pop it otherwise
	OpJumpTrueOr   // keep the operand if it is true and jump, pop it otherwise
	OpPrecall
	OpCall // argument count
	OpReturn
	OpNewFrame   // local count
	OpNewClosure // routine index, parameter count
	OpThrow
	OpAssert     // 1 or 2 operands on the stack
	OpPrint      // n values, no newline
	OpPrintLine  // n values, newline
)

// Variables
const (
	OpGetLocal Opcode = iota + 0x60
	OpSetLocal
	OpDefineLocal
	OpClearLocal
	OpGetLocalRef
	OpGetLocalArg // slot, argument position
	OpIncrementLocal
	OpDecrementLocal
	OpDefineLocalFunc

	OpGetUpvalue
	OpSetUpvalue
	OpGetUpvalueRef
	OpGetUpvalueArg

	OpGetGlobal
	OpSetGlobal
	OpGetGlobalRef
	OpGetGlobalArg
	OpDefineGlobalFunc
)

// Containers, protocols and iteration
const (
	OpGetIndex Opcode = iota + 0x90 // index count
	OpSetIndex
	OpGetIndexRef
	OpGetIndexArg // index count, argument position

	OpGetField // field name
	OpSetField
	OpGetFieldRef
	OpGetFieldArg

	OpNewList  // element count
	OpNewTable // pair count
	OpNewSet   // element count

	OpNewIterator // 1 for by-reference iteration
	OpTestIterator
	OpNextKey
	OpNextValue
)

// Operand describes how an operand word is interpreted.
type Operand uint8

const (
	OperandNone Operand = iota
	OperandCount
	OperandSmallInt
	OperandInteger
	OperandFloat
	OperandString
	OperandRoutine
	OperandLocal
	OperandUpvalue
	OperandJump
	OperandArgPos
	OperandFlag
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name     string
	Operands []Operand
}

var (
	none     = []Operand(nil)
	count    = []Operand{OperandCount}
	local    = []Operand{OperandLocal}
	upvalue  = []Operand{OperandUpvalue}
	global   = []Operand{OperandString}
	jump     = []Operand{OperandJump}
	localArg = []Operand{OperandLocal, OperandArgPos}
)

var opcodeTable = map[Opcode]OpcodeInfo{
	OpNoop:         {"NOOP", none},
	OpPop:          {"POP", none},
	OpDuplicate:    {"DUPLICATE", count},
	OpPushNull:     {"PUSH_NULL", none},
	OpPushTrue:     {"PUSH_TRUE", none},
	OpPushFalse:    {"PUSH_FALSE", none},
	OpPushNan:      {"PUSH_NAN", none},
	OpPushSmallInt: {"PUSH_SMALL_INT", []Operand{OperandSmallInt}},
	OpPushInteger:  {"PUSH_INTEGER", []Operand{OperandInteger}},
	OpPushFloat:    {"PUSH_FLOAT", []Operand{OperandFloat}},
	OpPushString:   {"PUSH_STRING", []Operand{OperandString}},
	OpNewRegex:     {"NEW_REGEX", []Operand{OperandString, OperandString}},

	OpAdd:          {"ADD", none},
	OpSubtract:     {"SUBTRACT", none},
	OpMultiply:     {"MULTIPLY", none},
	OpDivide:       {"DIVIDE", none},
	OpModulus:      {"MODULUS", none},
	OpPower:        {"POWER", none},
	OpShiftLeft:    {"SHIFT_LEFT", none},
	OpShiftRight:   {"SHIFT_RIGHT", none},
	OpNegate:       {"NEGATE", none},
	OpConcat:       {"CONCAT", count},
	OpEqual:        {"EQUAL", none},
	OpNotEqual:     {"NOT_EQUAL", none},
	OpLess:         {"LESS", none},
	OpLessEqual:    {"LESS_EQUAL", none},
	OpGreater:      {"GREATER", none},
	OpGreaterEqual: {"GREATER_EQUAL", none},
	OpCompare:      {"COMPARE", none},
	OpNot:          {"NOT", none},

	OpJump:         {"JUMP", jump},
	OpJumpFalse:    {"JUMP_FALSE", jump},
	OpJumpTrue:     {"JUMP_TRUE", jump},
	OpJumpFalseAnd: {"JUMP_FALSE_AND", jump},
	OpJumpTrueOr:   {"JUMP_TRUE_OR", jump},
	OpPrecall:      {"PRECALL", none},
	OpCall:         {"CALL", count},
	OpReturn:       {"RETURN", none},
	OpNewFrame:     {"NEW_FRAME", count},
	OpNewClosure:   {"NEW_CLOSURE", []Operand{OperandRoutine, OperandCount}},
	OpThrow:        {"THROW", none},
	OpAssert:       {"ASSERT", count},
	OpPrint:        {"PRINT", count},
	OpPrintLine:    {"PRINT_LINE", count},

	OpGetLocal:        {"GET_LOCAL", local},
	OpSetLocal:        {"SET_LOCAL", local},
	OpDefineLocal:     {"DEFINE_LOCAL", local},
	OpClearLocal:      {"CLEAR_LOCAL", local},
	OpGetLocalRef:     {"GET_LOCAL_REF", local},
	OpGetLocalArg:     {"GET_LOCAL_ARG", localArg},
	OpIncrementLocal:  {"INCREMENT_LOCAL", local},
	OpDecrementLocal:  {"DECREMENT_LOCAL", local},
	OpDefineLocalFunc: {"DEFINE_LOCAL_FUNC", local},

	OpGetUpvalue:    {"GET_UPVALUE", upvalue},
	OpSetUpvalue:    {"SET_UPVALUE", upvalue},
	OpGetUpvalueRef: {"GET_UPVALUE_REF", upvalue},
	OpGetUpvalueArg: {"GET_UPVALUE_ARG", []Operand{OperandUpvalue, OperandArgPos}},

	OpGetGlobal:        {"GET_GLOBAL", global},
	OpSetGlobal:        {"SET_GLOBAL", global},
	OpGetGlobalRef:     {"GET_GLOBAL_REF", global},
	OpGetGlobalArg:     {"GET_GLOBAL_ARG", []Operand{OperandString, OperandArgPos}},
	OpDefineGlobalFunc: {"DEFINE_GLOBAL_FUNC", global},

	OpGetIndex:    {"GET_INDEX", count},
	OpSetIndex:    {"SET_INDEX", count},
	OpGetIndexRef: {"GET_INDEX_REF", count},
	OpGetIndexArg: {"GET_INDEX_ARG", []Operand{OperandCount, OperandArgPos}},

	OpGetField:    {"GET_FIELD", global},
	OpSetField:    {"SET_FIELD", global},
	OpGetFieldRef: {"GET_FIELD_REF", global},
	OpGetFieldArg: {"GET_FIELD_ARG", []Operand{OperandString, OperandArgPos}},

	OpNewList:  {"NEW_LIST", count},
	OpNewTable: {"NEW_TABLE", count},
	OpNewSet:   {"NEW_SET", count},

	OpNewIterator:  {"NEW_ITERATOR", []Operand{OperandFlag}},
	OpTestIterator: {"TEST_ITERATOR", none},
	OpNextKey:      {"NEXT_KEY", none},
	OpNextValue:    {"NEXT_VALUE", none},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Valid reports whether op is a defined instruction.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Width is the encoded size of the instruction in bytes.
func (op Opcode) Width() int {
	return 1 + 2*len(op.Info().Operands)
}

func (op Opcode) String() string {
	return op.Info().Name
}
