package diag

import (
	"fmt"
	"strings"
)

// Kind classifies an engine failure.
type Kind uint8

const (
	SyntaxError Kind = iota + 1
	CompileError
	RuntimeError
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case CompileError:
		return "CompileError"
	case RuntimeError:
		return "RuntimeError"
	}
	return "Error"
}

// Frame is one entry of a runtime backtrace, innermost first.
type Frame struct {
	Routine string
	File    string
	Line    int
}

// Error is the error value every engine entry point returns.
type Error struct {
	Kind      Kind
	Code      Code
	File      string
	Line      int
	Message   string
	Backtrace []Frame
	// Cause is set when a native function failed with a host error.
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.File != "" || e.Line > 0 {
		b.WriteString(" in ")
		if e.File != "" {
			b.WriteString(e.File)
		}
		if e.Line > 0 {
			fmt.Fprintf(&b, " at line %d", e.Line)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Errorf builds an error of the given kind without location; the raiser fills it in.
func Errorf(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// FormatBacktrace renders the backtrace one frame per line.
func (e *Error) FormatBacktrace() string {
	if len(e.Backtrace) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("backtrace:\n")
	for i, fr := range e.Backtrace {
		name := fr.Routine
		if name == "" {
			name = "<main>"
		}
		fmt.Fprintf(&b, "  #%d %s", i, name)
		if fr.File != "" {
			fmt.Fprintf(&b, " (%s:%d)", fr.File, fr.Line)
		} else if fr.Line > 0 {
			fmt.Fprintf(&b, " (line %d)", fr.Line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
