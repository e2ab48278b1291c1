// Package object implements script values, the heap they live on, the class
// descriptors that type them and the cycle collector that reclaims them.
//
// Heap objects are reference counted. A Value of kind KindObject or KindAlias
// that is stored anywhere (a VM stack slot, a container element, a global)
// owns one reference; see Heap.Retain and Heap.Release.
package object

import (
	"math"

	"github.com/phonometrica/phonometrica-sub000/internal/number"
)

// Kind discriminates a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindObject
	// KindAlias refers to an alias cell: a shared variable slot. Reads see
	// the cell's content and writes replace it.
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindAlias:
		return "alias"
	}
	return "invalid"
}

// Value is a tagged script value. The zero Value is null.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	S    string
	H    Handle
}

var Null = Value{}

func Bool(b bool) Value {
	if b {
		return Value{Kind: KindBool, I: 1}
	}
	return Value{Kind: KindBool}
}

func Int(i int64) Value     { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, F: f} }
func String(s string) Value { return Value{Kind: KindString, S: s} }

// Nan is the value of the `nan` literal.
func Nan() Value { return Float(math.NaN()) }

func (v Value) IsNull() bool   { return v.Kind == KindNull }
func (v Value) IsObject() bool { return v.Kind == KindObject }
func (v Value) IsAlias() bool  { return v.Kind == KindAlias }

// HasHandle reports whether v references a heap object.
func (v Value) HasHandle() bool {
	return (v.Kind == KindObject || v.Kind == KindAlias) && v.H != 0
}

func (v Value) Bool() bool { return v.I != 0 }

// IsNumber reports whether v is an integer or a float.
func (v Value) IsNumber() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// Num converts a numeric value for internal/number.
func (v Value) Num() number.Num {
	if v.Kind == KindFloat {
		return number.Float(v.F)
	}
	return number.Int(v.I)
}

// FromNum is the inverse of Num.
func FromNum(n number.Num) Value {
	if n.IsFloat {
		return Float(n.F)
	}
	return Int(n.I)
}

// Truthy reports how v behaves as a condition: null and false are false,
// everything else is true.
func Truthy(v Value) bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.I != 0
	}
	return true
}
