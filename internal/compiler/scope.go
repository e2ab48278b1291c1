package compiler

import (
	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

func (rc *routineCompiler) beginScope() {
	rc.depth++
}

// endScope drops the locals of the innermost scope. Their slots are cleared so
// the values they hold are released before the frame ends.
func (rc *routineCompiler) endScope() error {
	rc.depth--
	n := len(rc.locals)
	for n > 0 && rc.locals[n-1].depth > rc.depth {
		if err := rc.emit(bytecode.OpClearLocal, rc.locals[n-1].slot); err != nil {
			return err
		}
		n--
	}
	rc.locals = rc.locals[:n]
	return nil
}

// declareLocal adds name to the current scope and returns its slot.
func (rc *routineCompiler) declareLocal(name string, sp source.Span) (int, error) {
	for i := len(rc.locals) - 1; i >= 0 && rc.locals[i].depth == rc.depth; i-- {
		if rc.locals[i].name == name {
			return 0, rc.c.errorf(diag.CmpDuplicateLocal, sp, "variable %q is already declared in this scope", name)
		}
	}
	slot := len(rc.locals)
	if slot >= bytecode.MaxPool {
		return 0, rc.c.errorf(diag.CmpTooManyLocals, sp, "too many local variables")
	}
	rc.locals = append(rc.locals, local{name: name, depth: rc.depth, slot: slot})
	rc.routine.Locals = append(rc.routine.Locals, bytecode.LocalInfo{Name: name, Depth: rc.depth, Slot: slot})
	rc.maxSlots = max(rc.maxSlots, slot+1)
	return slot, nil
}

// localInScope returns the slot of name when it is declared in the current scope.
func (rc *routineCompiler) localInScope(name string) (int, bool) {
	for i := len(rc.locals) - 1; i >= 0 && rc.locals[i].depth == rc.depth; i-- {
		if rc.locals[i].name == name {
			return rc.locals[i].slot, true
		}
	}
	return 0, false
}

func (rc *routineCompiler) resolveLocal(name string) (int, bool) {
	for i := len(rc.locals) - 1; i >= 0; i-- {
		if rc.locals[i].name == name {
			return rc.locals[i].slot, true
		}
	}
	return 0, false
}

// resolveUpvalue looks name up in the enclosing routines. A hit in the
// immediate parent's locals captures that slot; a deeper hit chains through
// the parent's own upvalue.
func (rc *routineCompiler) resolveUpvalue(name string) (int, bool) {
	if rc.parent == nil {
		return 0, false
	}
	if slot, ok := rc.parent.resolveLocal(name); ok {
		return rc.addUpvalue(name, true, slot), true
	}
	if idx, ok := rc.parent.resolveUpvalue(name); ok {
		return rc.addUpvalue(name, false, idx), true
	}
	return 0, false
}

func (rc *routineCompiler) addUpvalue(name string, isLocal bool, index int) int {
	for i, up := range rc.routine.Upvalues {
		if up.IsLocal == isLocal && up.Index == index {
			return i
		}
	}
	rc.routine.Upvalues = append(rc.routine.Upvalues, bytecode.UpvalueInfo{Name: name, IsLocal: isLocal, Index: index})
	return len(rc.routine.Upvalues) - 1
}

type varKind uint8

const (
	varLocal varKind = iota
	varUpvalue
	varGlobal
)

// variable is a resolved identifier: a slot, an upvalue index or a name constant.
type variable struct {
	kind  varKind
	index int
}

func (rc *routineCompiler) resolve(name string) (variable, error) {
	if slot, ok := rc.resolveLocal(name); ok {
		return variable{kind: varLocal, index: slot}, nil
	}
	if idx, ok := rc.resolveUpvalue(name); ok {
		return variable{kind: varUpvalue, index: idx}, nil
	}
	k, err := rc.stringConst(name)
	if err != nil {
		return variable{}, err
	}
	return variable{kind: varGlobal, index: k}, nil
}

// accessOps lists the opcode of each access mode for locals, upvalues and globals.
var accessOps = map[access][3]bytecode.Opcode{
	accessGet: {bytecode.OpGetLocal, bytecode.OpGetUpvalue, bytecode.OpGetGlobal},
	accessSet: {bytecode.OpSetLocal, bytecode.OpSetUpvalue, bytecode.OpSetGlobal},
	accessRef: {bytecode.OpGetLocalRef, bytecode.OpGetUpvalueRef, bytecode.OpGetGlobalRef},
	accessArg: {bytecode.OpGetLocalArg, bytecode.OpGetUpvalueArg, bytecode.OpGetGlobalArg},
}

type access uint8

const (
	accessGet access = iota
	accessSet
	accessRef
	accessArg
)

// emitVar emits the instruction for mode on v. accessArg takes the argument position.
func (rc *routineCompiler) emitVar(mode access, v variable, argPos ...int) error {
	op := accessOps[mode][v.kind]
	if mode == accessArg {
		return rc.emit(op, v.index, argPos[0])
	}
	return rc.emit(op, v.index)
}
