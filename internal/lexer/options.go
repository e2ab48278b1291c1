package lexer

import (
	"fmt"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

type Options struct {
	// Reporter receives lexical diagnostics; may be nil.
	Reporter diag.Reporter
}

// errLex reports a lexical error and remembers the first one.
func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	if lx.err == nil {
		start := toLine(lx.file, sp.Start)
		lx.err = &diag.Error{
			Kind:    code.Kind(),
			Code:    code,
			File:    lx.file.Path,
			Line:    start,
			Message: msg,
		}
	}
}

func (lx *Lexer) errLexf(code diag.Code, sp source.Span, format string, args ...any) {
	lx.errLex(code, sp, fmt.Sprintf(format, args...))
}

func toLine(f *source.File, off uint32) int {
	return f.LineOf(off)
}
