package bytecode

import (
	"errors"
	"math"
)

// MaxParams is the largest parameter count a routine may declare; by-reference
// flags for all parameters fit in one word.
const MaxParams = 64

// MaxPool bounds each constant pool and the local table.
const MaxPool = math.MaxUint16 + 1

// ErrPoolFull is returned when a constant pool has no room left.
var ErrPoolFull = errors.New("too many constants")

// LocalInfo describes one local slot. Slots are reused by sibling scopes, so
// several entries may share a slot.
type LocalInfo struct {
	Name  string `msgpack:"n"`
	Depth int    `msgpack:"d"`
	Slot  int    `msgpack:"s"`
}

// UpvalueInfo tells a closure where to capture an upvalue from: a local slot
// of the enclosing frame when IsLocal, otherwise an upvalue of the enclosing closure.
type UpvalueInfo struct {
	Name    string `msgpack:"n"`
	IsLocal bool   `msgpack:"l"`
	Index   int    `msgpack:"i"`
}

// Routine is one compiled function body.
type Routine struct {
	Name      string        `msgpack:"name"`
	File      string        `msgpack:"file"`
	Line      int           `msgpack:"line"`
	Code      Code          `msgpack:"code"`
	Integers  []int64       `msgpack:"ints"`
	Floats    []float64     `msgpack:"floats"`
	Strings   []string      `msgpack:"strs"`
	Routines  []*Routine    `msgpack:"routines"`
	Locals    []LocalInfo   `msgpack:"locals"`
	Upvalues  []UpvalueInfo `msgpack:"upvalues"`
	NumParams int           `msgpack:"nparams"`
	NumLocals int           `msgpack:"nlocals"`
	// RefFlags has bit i set when parameter i is passed by reference.
	RefFlags uint64 `msgpack:"refs"`

	intIndex   map[int64]int
	floatIndex map[uint64]int
	strIndex   map[string]int
}

// NewRoutine creates an empty routine.
func NewRoutine(name, file string, line int) *Routine {
	return &Routine{Name: name, File: file, Line: line}
}

// IsRef reports whether parameter i is passed by reference.
func (r *Routine) IsRef(i int) bool {
	return i >= 0 && i < MaxParams && r.RefFlags&(1<<uint(i)) != 0
}

// SetRef marks parameter i as passed by reference.
func (r *Routine) SetRef(i int) {
	if i >= 0 && i < MaxParams {
		r.RefFlags |= 1 << uint(i)
	}
}

// AddInteger interns v in the integer pool.
func (r *Routine) AddInteger(v int64) (int, error) {
	if r.intIndex == nil {
		r.intIndex = make(map[int64]int)
	}
	if i, ok := r.intIndex[v]; ok {
		return i, nil
	}
	if len(r.Integers) >= MaxPool {
		return 0, ErrPoolFull
	}
	r.Integers = append(r.Integers, v)
	r.intIndex[v] = len(r.Integers) - 1
	return len(r.Integers) - 1, nil
}

// AddFloat interns v in the float pool, keyed by bit pattern.
func (r *Routine) AddFloat(v float64) (int, error) {
	if r.floatIndex == nil {
		r.floatIndex = make(map[uint64]int)
	}
	bits := math.Float64bits(v)
	if i, ok := r.floatIndex[bits]; ok {
		return i, nil
	}
	if len(r.Floats) >= MaxPool {
		return 0, ErrPoolFull
	}
	r.Floats = append(r.Floats, v)
	r.floatIndex[bits] = len(r.Floats) - 1
	return len(r.Floats) - 1, nil
}

// AddString interns s in the string pool. Global and field names live here too.
func (r *Routine) AddString(s string) (int, error) {
	if r.strIndex == nil {
		r.strIndex = make(map[string]int)
	}
	if i, ok := r.strIndex[s]; ok {
		return i, nil
	}
	if len(r.Strings) >= MaxPool {
		return 0, ErrPoolFull
	}
	r.Strings = append(r.Strings, s)
	r.strIndex[s] = len(r.Strings) - 1
	return len(r.Strings) - 1, nil
}

// AddRoutine appends a nested routine.
func (r *Routine) AddRoutine(child *Routine) (int, error) {
	if len(r.Routines) >= MaxPool {
		return 0, ErrPoolFull
	}
	r.Routines = append(r.Routines, child)
	return len(r.Routines) - 1, nil
}

// LocalName returns the name of the innermost local declared in slot.
func (r *Routine) LocalName(slot int) string {
	name := ""
	for _, l := range r.Locals {
		if l.Slot == slot {
			name = l.Name
		}
	}
	return name
}

// DisplayName is the routine name used in backtraces and listings.
func (r *Routine) DisplayName() string {
	if r.Name == "" {
		return "<main>"
	}
	return r.Name
}
