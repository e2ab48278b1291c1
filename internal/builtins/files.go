package builtins

import (
	"unicode/utf8"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
)

func openFile(ctx object.Context, args []object.Value) (object.Value, error) {
	return open(ctx, args[0].S, "r")
}

func openFileMode(ctx object.Context, args []object.Value) (object.Value, error) {
	switch mode := args[1].S; mode {
	case "r", "w", "a":
		return open(ctx, args[0].S, mode)
	default:
		return object.Null, runtimeError(diag.RunTypeMismatch, "invalid file mode %q (expected r, w or a)", mode)
	}
}

func open(ctx object.Context, path, mode string) (object.Value, error) {
	f, err := ctx.Heap().OpenFile(path, mode)
	if err != nil {
		e := diag.Errorf(diag.RuntimeError, diag.HostIOError, "cannot open %s: %v", path, err)
		e.Cause = err
		return object.Null, e
	}
	return f, nil
}

func fileOf(h *object.Heap, v object.Value) (*object.File, error) {
	f := h.Payload(v).(*object.File)
	if !f.IsOpen() {
		return nil, runtimeError(diag.HostIOError, "file %s is closed", f.Path)
	}
	return f, nil
}

func ioError(f *object.File, err error) error {
	e := diag.Errorf(diag.RuntimeError, diag.HostIOError, "%s: %v", f.Path, err)
	e.Cause = err
	return e
}

// readLine returns the next line, or null at end of file.
func readLine(ctx object.Context, args []object.Value) (object.Value, error) {
	f, err := fileOf(ctx.Heap(), args[0])
	if err != nil {
		return object.Null, err
	}
	line, ok, err := f.ReadLine()
	if err != nil {
		return object.Null, ioError(f, err)
	}
	if !ok {
		return object.Null, nil
	}
	return object.String(line), nil
}

func writeFile(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	f, err := fileOf(h, args[0])
	if err != nil {
		return object.Null, err
	}
	if err := f.Write(h.ToString(args[1])); err != nil {
		return object.Null, ioError(f, err)
	}
	return object.Null, nil
}

func closeFile(ctx object.Context, args []object.Value) (object.Value, error) {
	f := ctx.Heap().Payload(args[0]).(*object.File)
	if err := f.Close(); err != nil {
		return object.Null, ioError(f, err)
	}
	return object.Null, nil
}

// readLines returns the remaining lines of a file as a list.
func readLines(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	f, err := fileOf(h, args[0])
	if err != nil {
		return object.Null, err
	}
	var lines []object.Value
	for {
		line, ok, err := f.ReadLine()
		if err != nil {
			return object.Null, ioError(f, err)
		}
		if !ok {
			return h.NewList(lines), nil
		}
		lines = append(lines, object.String(line))
	}
}

func writeLine(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	f, err := fileOf(h, args[0])
	if err != nil {
		return object.Null, err
	}
	if err := f.Write(h.ToString(args[1]) + "\n"); err != nil {
		return object.Null, ioError(f, err)
	}
	return object.Null, nil
}

func eof(ctx object.Context, args []object.Value) (object.Value, error) {
	f, err := fileOf(ctx.Heap(), args[0])
	if err != nil {
		return object.Null, err
	}
	return object.Bool(f.EOF()), nil
}

func regexOf(h *object.Heap, v object.Value) *object.Regex {
	return h.Payload(v).(*object.Regex)
}

// match runs a regex against a subject and keeps the captures for group,
// get_start and get_end.
func match(ctx object.Context, args []object.Value) (object.Value, error) {
	return object.Bool(regexOf(ctx.Heap(), args[0]).Match(args[1].S, 0)), nil
}

// matchFrom starts matching at a 1-based code-point position.
func matchFrom(ctx object.Context, args []object.Value) (object.Value, error) {
	s := args[1].S
	n := utf8.RuneCountInString(s)
	if args[2].I == int64(n)+1 {
		return object.Bool(regexOf(ctx.Heap(), args[0]).Match(s, len(s))), nil
	}
	at, ok := object.Position(args[2].I, n)
	if !ok {
		return object.Null, runtimeError(diag.RunIndexOutOfRange, "position %d out of range in string of length %d", args[2].I, n)
	}
	return object.Bool(regexOf(ctx.Heap(), args[0]).Match(s, byteOffset(s, at))), nil
}

func hasMatch(ctx object.Context, args []object.Value) (object.Value, error) {
	return object.Bool(regexOf(ctx.Heap(), args[0]).HasMatch()), nil
}

// countGroups returns the number of capture groups in a regex.
func countGroups(ctx object.Context, args []object.Value) (object.Value, error) {
	return object.Int(int64(regexOf(ctx.Heap(), args[0]).Groups())), nil
}

func group(ctx object.Context, args []object.Value) (object.Value, error) {
	re := regexOf(ctx.Heap(), args[0])
	s, ok := re.Group(int(args[1].I))
	if !ok {
		return object.Null, groupError(re, args[1].I)
	}
	return object.String(s), nil
}

func groupStart(ctx object.Context, args []object.Value) (object.Value, error) {
	re := regexOf(ctx.Heap(), args[0])
	start, _, ok := re.Span(int(args[1].I))
	if !ok {
		return object.Null, groupError(re, args[1].I)
	}
	return object.Int(int64(start)), nil
}

func groupEnd(ctx object.Context, args []object.Value) (object.Value, error) {
	re := regexOf(ctx.Heap(), args[0])
	_, end, ok := re.Span(int(args[1].I))
	if !ok {
		return object.Null, groupError(re, args[1].I)
	}
	return object.Int(int64(end)), nil
}

func groupError(re *object.Regex, i int64) error {
	if !re.HasMatch() {
		return runtimeError(diag.RunIndexOutOfRange, "regex %q has no match", re.Pattern)
	}
	return runtimeError(diag.RunIndexOutOfRange, "group %d out of range in regex %q with %d group(s)", i, re.Pattern, re.Groups())
}
