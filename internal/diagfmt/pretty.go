package diagfmt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, caret, loc *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgBlue, color.Bold),
		note:   color.New(color.FgCyan),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		loc:    color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.loc} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty writes every diagnostic of bag in a compiler-style layout:
//
//	path:line:col: error LEX1002: message
//	   3 | var s = "abc
//	     |         ^^^^
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		f := fs.Get(d.Primary.File)
		start, _ := fs.Resolve(d.Primary)
		path := formatPath(f.Path, opts.PathMode, opts.BaseDir)
		if _, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.loc.Sprintf("%s:%d:%d", path, start.Line, start.Col),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			d.Code.ID(), d.Message); err != nil {
			return err
		}
		if err := writeExcerpt(w, p, f, start.Line, opts.Context, &d.Primary); err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			ns, _ := fs.Resolve(n.Span)
			npath := formatPath(fs.Get(n.Span.File).Path, opts.PathMode, opts.BaseDir)
			if _, err := fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", p.note.Sprint("note:"), npath, ns.Line, ns.Col, n.Msg); err != nil {
				return err
			}
		}
	}
	return nil
}

// Error writes an engine error with the offending source line and, when
// requested, the runtime backtrace. fs may be nil, in which case no excerpt
// is shown. Errors that are not *diag.Error are written as-is.
func Error(w io.Writer, err error, fs *source.FileSet, opts PrettyOpts) error {
	var e *diag.Error
	if !errors.As(err, &e) {
		_, werr := fmt.Fprintf(w, "%s %s\n", newPalette(opts.Color).err.Sprint("error:"), err)
		return werr
	}
	p := newPalette(opts.Color)
	var head strings.Builder
	if e.File != "" {
		head.WriteString(formatPath(e.File, opts.PathMode, opts.BaseDir))
		if e.Line > 0 {
			fmt.Fprintf(&head, ":%d", e.Line)
		}
	}
	loc := ""
	if head.Len() > 0 {
		loc = p.loc.Sprint(head.String()) + ": "
	}
	if _, werr := fmt.Fprintf(w, "%s%s %s: %s\n", loc, p.err.Sprint(e.Kind.String()), e.Code.ID(), e.Message); werr != nil {
		return werr
	}
	if e.Cause != nil && !strings.Contains(e.Message, e.Cause.Error()) {
		if _, werr := fmt.Fprintf(w, "  %s %v\n", p.note.Sprint("caused by:"), e.Cause); werr != nil {
			return werr
		}
	}
	if fs != nil && e.File != "" && e.Line > 0 {
		if id, ok := fs.GetLatest(e.File); ok {
			line, lerr := lineNumber(e.Line)
			if lerr == nil {
				if werr := writeExcerpt(w, p, fs.Get(id), line, opts.Context, nil); werr != nil {
					return werr
				}
			}
		}
	}
	if opts.ShowBacktrace && len(e.Backtrace) > 0 {
		if _, werr := io.WriteString(w, e.FormatBacktrace()); werr != nil {
			return werr
		}
	}
	return nil
}

func lineNumber(n int) (uint32, error) {
	if n <= 0 || n > 1<<31 {
		return 0, fmt.Errorf("line %d out of range", n)
	}
	return uint32(n), nil
}

// writeExcerpt prints the lines around line with a gutter. When span is set
// the primary line is underlined.
func writeExcerpt(w io.Writer, p palette, f *source.File, line uint32, context uint8, span *source.Span) error {
	lines := excerpt(f, line, context)
	if len(lines) == 0 {
		return nil
	}
	width := len(fmt.Sprint(lines[len(lines)-1].num))
	for _, l := range lines {
		text := strings.ReplaceAll(l.text, "\t", "    ")
		if _, err := fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", width+2, l.num), text); err != nil {
			return err
		}
		if span == nil || l.num != line {
			continue
		}
		from, to := caretRange(f, *span, line)
		raw := l.text
		from, to = min(from, len(raw)), min(to, len(raw))
		pad := runewidth.StringWidth(strings.ReplaceAll(raw[:from], "\t", "    "))
		n := max(runewidth.StringWidth(raw[from:to]), 1)
		if _, err := fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", width+2, ""), strings.Repeat(" ", pad), p.caret.Sprint(strings.Repeat("^", n))); err != nil {
			return err
		}
	}
	return nil
}
