package builtins

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

// String functions never modify their argument; positions and lengths are
// counted in code points and positions are 1-based.

func stringIsEmpty(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Bool(args[0].S == ""), nil
}

func toUpper(_ object.Context, args []object.Value) (object.Value, error) {
	return object.String(cases.Upper(language.Und).String(args[0].S)), nil
}

func toLower(_ object.Context, args []object.Value) (object.Value, error) {
	return object.String(cases.Lower(language.Und).String(args[0].S)), nil
}

func startsWith(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Bool(strings.HasPrefix(args[0].S, args[1].S)), nil
}

func endsWith(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Bool(strings.HasSuffix(args[0].S, args[1].S)), nil
}

func trim(_ object.Context, args []object.Value) (object.Value, error) {
	return object.String(strings.TrimSpace(args[0].S)), nil
}

func ltrim(_ object.Context, args []object.Value) (object.Value, error) {
	return object.String(strings.TrimLeftFunc(args[0].S, unicode.IsSpace)), nil
}

func rtrim(_ object.Context, args []object.Value) (object.Value, error) {
	return object.String(strings.TrimRightFunc(args[0].S, unicode.IsSpace)), nil
}

// split cuts a string around every occurrence of a separator. An empty
// separator splits into code points.
func split(ctx object.Context, args []object.Value) (object.Value, error) {
	parts := strings.Split(args[0].S, args[1].S)
	items := make([]object.Value, len(parts))
	for i, p := range parts {
		items[i] = object.String(p)
	}
	return ctx.Heap().NewList(items), nil
}

func replaceAll(_ object.Context, args []object.Value) (object.Value, error) {
	if args[1].S == "" {
		return args[0], nil
	}
	return object.String(strings.ReplaceAll(args[0].S, args[1].S, args[2].S)), nil
}

func replaceFirst(_ object.Context, args []object.Value) (object.Value, error) {
	if args[1].S == "" {
		return args[0], nil
	}
	return object.String(strings.Replace(args[0].S, args[1].S, args[2].S, 1)), nil
}

func replaceLast(_ object.Context, args []object.Value) (object.Value, error) {
	s, old := args[0].S, args[1].S
	i := strings.LastIndex(s, old)
	if old == "" || i < 0 {
		return args[0], nil
	}
	return object.String(s[:i] + args[2].S + s[i+len(old):]), nil
}

func countString(_ object.Context, args []object.Value) (object.Value, error) {
	if args[1].S == "" {
		return object.Int(0), nil
	}
	return object.Int(int64(strings.Count(args[0].S, args[1].S))), nil
}

// findString returns the position of the first occurrence of a substring,
// or 0 when there is none.
func findString(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Int(runeIndex(args[0].S, strings.Index(args[0].S, args[1].S))), nil
}

// findStringFrom starts the search at a given position; negative positions
// count from the end.
func findStringFrom(_ object.Context, args []object.Value) (object.Value, error) {
	s := args[0].S
	n := utf8.RuneCountInString(s)
	at, ok := object.Position(args[2].I, n)
	if !ok {
		return object.Null, runtimeError(diag.RunIndexOutOfRange, "position %d out of range in string of length %d", args[2].I, n)
	}
	off := byteOffset(s, at)
	i := strings.Index(s[off:], args[1].S)
	if i < 0 {
		return object.Int(0), nil
	}
	return object.Int(runeIndex(s, off+i)), nil
}

func findBack(_ object.Context, args []object.Value) (object.Value, error) {
	return object.Int(runeIndex(args[0].S, strings.LastIndex(args[0].S, args[1].S))), nil
}

// left returns the first n code points.
func left(_ object.Context, args []object.Value) (object.Value, error) {
	s, n := args[0].S, args[1].I
	if n <= 0 {
		return object.String(""), nil
	}
	if n >= int64(len(s)) {
		return args[0], nil
	}
	return object.String(s[:byteOffset(s, int(n))]), nil
}

// right returns the last n code points.
func right(_ object.Context, args []object.Value) (object.Value, error) {
	s, n := args[0].S, args[1].I
	count := int64(utf8.RuneCountInString(s))
	switch {
	case n <= 0:
		return object.String(""), nil
	case n >= count:
		return args[0], nil
	}
	return object.String(s[byteOffset(s, int(count-n)):]), nil
}

func reverseString(_ object.Context, args []object.Value) (object.Value, error) {
	r := []rune(args[0].S)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return object.String(string(r)), nil
}

// byteOffset converts a 0-based code-point offset into a byte offset. Offsets
// past the end clamp to len(s).
func byteOffset(s string, runes int) int {
	for i := range s {
		if runes == 0 {
			return i
		}
		runes--
	}
	return len(s)
}

// runeIndex converts a byte index from the strings package into a 1-based
// position, mapping -1 to 0.
func runeIndex(s string, i int) int64 {
	if i < 0 {
		return 0
	}
	return int64(utf8.RuneCountInString(s[:i])) + 1
}
