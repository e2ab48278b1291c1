// Package builtins holds the native functions a host may install into a
// runtime: container, string and math helpers, conversions, files, regular
// expressions and collector control. Each name is registered as a set of
// overloads, one per accepted argument class.
package builtins

import (
	"fmt"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// Definer registers one overload of a native function.
type Definer interface {
	DefineNative(name string, fn object.NativeFunc, params []*object.Class, refFlags uint64) error
	Heap() *object.Heap
}

type entry struct {
	name   string
	fn     object.NativeFunc
	params func(cs *object.Classes) []*object.Class
}

func sig(classes ...func(cs *object.Classes) *object.Class) func(cs *object.Classes) []*object.Class {
	return func(cs *object.Classes) []*object.Class {
		out := make([]*object.Class, len(classes))
		for i, c := range classes {
			out[i] = c(cs)
		}
		return out
	}
}

func anyClass(cs *object.Classes) *object.Class     { return cs.Object }
func listClass(cs *object.Classes) *object.Class    { return cs.List }
func tableClass(cs *object.Classes) *object.Class   { return cs.Table }
func setClass(cs *object.Classes) *object.Class     { return cs.Set }
func stringClass(cs *object.Classes) *object.Class  { return cs.String }
func numberClass(cs *object.Classes) *object.Class  { return cs.Number }
func integerClass(cs *object.Classes) *object.Class { return cs.Integer }
func fileClass(cs *object.Classes) *object.Class    { return cs.File }
func regexClass(cs *object.Classes) *object.Class   { return cs.Regex }

var table = []entry{
	{"len", listLen, sig(listClass)},
	{"len", tableLen, sig(tableClass)},
	{"len", setLen, sig(setClass)},
	{"len", stringLen, sig(stringClass)},
	{"append", appendItem, sig(listClass, anyClass)},
	{"insert", insertItem, sig(listClass, integerClass, anyClass)},
	{"insert", addToSet, sig(setClass, anyClass)},
	{"pop", popItem, sig(listClass)},
	{"contains", listContains, sig(listClass, anyClass)},
	{"contains", tableContains, sig(tableClass, anyClass)},
	{"contains", setContains, sig(setClass, anyClass)},
	{"contains", stringContains, sig(stringClass, stringClass)},
	{"keys", tableKeys, sig(tableClass)},
	{"type", typeOf, sig(anyClass)},
	{"str", toStr, sig(anyClass)},
	{"int", toInt, sig(anyClass)},
	{"float", toFloat, sig(anyClass)},
	{"collect", collect, sig()},
	{"object_count", objectCount, sig()},
	{"open", openFile, sig(stringClass)},
	{"open", openFileMode, sig(stringClass, stringClass)},
	{"read_line", readLine, sig(fileClass)},
	{"write", writeFile, sig(fileClass, anyClass)},
	{"close", closeFile, sig(fileClass)},
	{"read_lines", readLines, sig(fileClass)},
	{"write_line", writeLine, sig(fileClass, anyClass)},
	{"eof", eof, sig(fileClass)},

	{"is_empty", listIsEmpty, sig(listClass)},
	{"is_empty", tableIsEmpty, sig(tableClass)},
	{"is_empty", setIsEmpty, sig(setClass)},
	{"is_empty", stringIsEmpty, sig(stringClass)},
	{"clear", clearList, sig(listClass)},
	{"clear", clearTable, sig(tableClass)},
	{"clear", clearSet, sig(setClass)},
	{"remove", removeFromList, sig(listClass, anyClass)},
	{"remove", removeFromTable, sig(tableClass, anyClass)},
	{"remove", removeFromSet, sig(setClass, anyClass)},
	{"remove_first", removeFirst, sig(listClass, anyClass)},
	{"remove_at", removeAt, sig(listClass, integerClass)},
	{"first", first, sig(listClass)},
	{"last", last, sig(listClass)},
	{"prepend", prepend, sig(listClass, anyClass)},
	{"shift", shift, sig(listClass)},
	{"find", findInList, sig(listClass, anyClass)},
	{"join", join, sig(listClass, stringClass)},
	{"reverse", reverseList, sig(listClass)},
	{"sort", sortList, sig(listClass)},
	{"is_sorted", isSorted, sig(listClass)},
	{"get", tableGet, sig(tableClass, anyClass, anyClass)},
	{"intersect", intersect, sig(setClass, setClass)},
	{"unite", unite, sig(setClass, setClass)},
	{"subtract", subtract, sig(setClass, setClass)},

	{"to_upper", toUpper, sig(stringClass)},
	{"to_lower", toLower, sig(stringClass)},
	{"starts_with", startsWith, sig(stringClass, stringClass)},
	{"ends_with", endsWith, sig(stringClass, stringClass)},
	{"trim", trim, sig(stringClass)},
	{"ltrim", ltrim, sig(stringClass)},
	{"rtrim", rtrim, sig(stringClass)},
	{"split", split, sig(stringClass, stringClass)},
	{"replace", replaceAll, sig(stringClass, stringClass, stringClass)},
	{"replace_first", replaceFirst, sig(stringClass, stringClass, stringClass)},
	{"replace_last", replaceLast, sig(stringClass, stringClass, stringClass)},
	{"count", countString, sig(stringClass, stringClass)},
	{"find", findString, sig(stringClass, stringClass)},
	{"find", findStringFrom, sig(stringClass, stringClass, integerClass)},
	{"find_back", findBack, sig(stringClass, stringClass)},
	{"left", left, sig(stringClass, integerClass)},
	{"right", right, sig(stringClass, integerClass)},
	{"reverse", reverseString, sig(stringClass)},

	{"abs", mathAbs, sig(numberClass)},
	{"sqrt", mathSqrt, sig(numberClass)},
	{"floor", mathFloor, sig(numberClass)},
	{"ceil", mathCeil, sig(numberClass)},
	{"round", mathRound, sig(numberClass)},
	{"round", mathRoundTo, sig(numberClass, integerClass)},
	{"exp", mathExp, sig(numberClass)},
	{"log", mathLog, sig(numberClass)},
	{"log10", mathLog10, sig(numberClass)},
	{"log2", mathLog2, sig(numberClass)},
	{"sin", mathSin, sig(numberClass)},
	{"cos", mathCos, sig(numberClass)},
	{"tan", mathTan, sig(numberClass)},
	{"asin", mathAsin, sig(numberClass)},
	{"acos", mathAcos, sig(numberClass)},
	{"atan", mathAtan, sig(numberClass)},
	{"atan2", mathAtan2, sig(numberClass, numberClass)},
	{"min", minInt, sig(integerClass, integerClass)},
	{"min", minNumber, sig(numberClass, numberClass)},
	{"max", maxInt, sig(integerClass, integerClass)},
	{"max", maxNumber, sig(numberClass, numberClass)},
	{"random", random, sig()},
	{"random", randomInt, sig(integerClass)},

	{"match", match, sig(regexClass, stringClass)},
	{"match", matchFrom, sig(regexClass, stringClass, integerClass)},
	{"has_match", hasMatch, sig(regexClass)},
	{"count", countGroups, sig(regexClass)},
	{"group", group, sig(regexClass, integerClass)},
	{"get_start", groupStart, sig(regexClass, integerClass)},
	{"get_end", groupEnd, sig(regexClass, integerClass)},
}

// Install registers every built-in function with d.
func Install(d Definer) error {
	cs := d.Heap().Classes()
	for _, e := range table {
		if err := d.DefineNative(e.name, e.fn, e.params(cs), 0); err != nil {
			return fmt.Errorf("builtin %s: %w", e.name, err)
		}
	}
	return nil
}

// Names lists the installed function names in registration order, without
// repetition.
func Names() []string {
	seen := make(map[string]bool, len(table))
	var out []string
	for _, e := range table {
		if !seen[e.name] {
			seen[e.name] = true
			out = append(out, e.name)
		}
	}
	return out
}

func runtimeError(code diag.Code, format string, args ...any) error {
	return diag.Errorf(diag.RuntimeError, code, format, args...)
}
