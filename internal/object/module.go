package object

import (
	"bufio"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Module is the value `import` binds: the names a script exported.
type Module struct {
	Name    string
	Path    string
	Exports Table
}

// NewModule allocates an empty module.
func (h *Heap) NewModule(name, path string) Value {
	return h.alloc(h.classes.Module, &Module{Name: name, Path: path, Exports: Table{index: make(map[Key]int)}})
}

func traverseModule(o *Object, visit func(Value)) {
	if m, ok := o.Payload.(*Module); ok {
		m.Exports.traverse(visit)
	}
}

// Instance is the payload of objects of host-registered classes: named
// fields plus optional host data.
type Instance struct {
	Fields Table
	Data   any
}

// NewInstance allocates an object of class c.
func (h *Heap) NewInstance(c *Class, data any) Value {
	return h.alloc(c, &Instance{Fields: Table{index: make(map[Key]int)}, Data: data})
}

// NewObject allocates an object of class c with a host-defined payload. The
// class must provide Traverse if the payload holds values.
func (h *Heap) NewObject(c *Class, payload any) Value {
	return h.alloc(c, payload)
}

func traverseInstance(o *Object, visit func(Value)) {
	if in, ok := o.Payload.(*Instance); ok {
		in.Fields.traverse(visit)
	}
}

// File is an open file handle.
type File struct {
	Path   string
	Mode   string
	f      *os.File
	reader *bufio.Reader
	writer *bufio.Writer
}

// OpenFile opens path with mode "r", "w" or "a".
func (h *Heap) OpenFile(path, mode string) (Value, error) {
	var (
		f   *os.File
		err error
	)
	switch mode {
	case "w":
		f, err = os.Create(path)
	case "a":
		f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	default:
		mode = "r"
		f, err = os.Open(path)
	}
	if err != nil {
		return Null, err
	}
	file := &File{Path: path, Mode: mode, f: f}
	if mode == "r" {
		file.reader = bufio.NewReader(f)
	} else {
		file.writer = bufio.NewWriter(f)
	}
	return h.alloc(h.classes.File, file), nil
}

func (f *File) IsOpen() bool { return f.f != nil }

// ReadLine returns the next line without its terminator; ok is false at end
// of file.
func (f *File) ReadLine() (line string, ok bool, err error) {
	if f.reader == nil {
		return "", false, os.ErrInvalid
	}
	s, err := f.reader.ReadString('\n')
	if s == "" && err != nil {
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimRight(s, "\r\n"), true, nil
}

// EOF reports whether a file opened for reading has no more input.
func (f *File) EOF() bool {
	if f.reader == nil {
		return true
	}
	_, err := f.reader.Peek(1)
	return err != nil
}

func (f *File) Write(s string) error {
	if f.writer == nil {
		return os.ErrInvalid
	}
	_, err := f.writer.WriteString(s)
	return err
}

// Close flushes and closes the file. Closing twice is a no-op.
func (f *File) Close() error {
	if f.f == nil {
		return nil
	}
	var err error
	if f.writer != nil {
		err = f.writer.Flush()
	}
	if cerr := f.f.Close(); err == nil {
		err = cerr
	}
	f.f = nil
	return err
}

func finalizeFile(o *Object) {
	if f, ok := o.Payload.(*File); ok {
		_ = f.Close()
	}
}

// Regex is a compiled regular expression literal. It remembers the outcome
// of its last Match so that captures can be queried afterwards.
type Regex struct {
	Pattern string
	Flags   string
	Re      *regexp.Regexp

	subject string
	loc     []int
}

// Match runs the expression against subject starting at byte offset from and
// records the result.
func (r *Regex) Match(subject string, from int) bool {
	r.subject, r.loc = subject, nil
	if from < 0 || from > len(subject) {
		return false
	}
	loc := r.Re.FindStringSubmatchIndex(subject[from:])
	if loc == nil {
		return false
	}
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += from
		}
	}
	r.loc = loc
	return true
}

// HasMatch reports whether the last Match succeeded.
func (r *Regex) HasMatch() bool { return r.loc != nil }

// Groups is the number of capture groups, not counting the whole match.
func (r *Regex) Groups() int { return r.Re.NumSubexp() }

// Group returns capture i of the last match; 0 is the whole match. A group
// that did not participate yields "".
func (r *Regex) Group(i int) (string, bool) {
	if r.loc == nil || i < 0 || i > r.Groups() {
		return "", false
	}
	if r.loc[2*i] < 0 {
		return "", true
	}
	return r.subject[r.loc[2*i]:r.loc[2*i+1]], true
}

// Span returns the code-point offsets of capture i in the last subject, as
// a 1-based start and the position just past the end.
func (r *Regex) Span(i int) (start, end int, ok bool) {
	if r.loc == nil || i < 0 || i > r.Groups() || r.loc[2*i] < 0 {
		return 0, 0, false
	}
	start = utf8.RuneCountInString(r.subject[:r.loc[2*i]]) + 1
	end = start + utf8.RuneCountInString(r.subject[r.loc[2*i]:r.loc[2*i+1]])
	return start, end, true
}

// NewRegex compiles pattern. Flags: i (case-insensitive), m (multi-line),
// s (dot matches newline).
func (h *Heap) NewRegex(pattern, flags string) (Value, error) {
	prefix := ""
	for _, f := range flags {
		if strings.ContainsRune("ims", f) && !strings.ContainsRune(prefix, f) {
			prefix += string(f)
		}
	}
	src := pattern
	if prefix != "" {
		src = "(?" + prefix + ")" + pattern
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return Null, err
	}
	return h.alloc(h.classes.Regex, &Regex{Pattern: pattern, Flags: flags, Re: re}), nil
}
