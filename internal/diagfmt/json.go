package diagfmt

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

// LocationJSON is a source location in JSON output.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root object written by JSON.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// FrameJSON is one backtrace entry.
type FrameJSON struct {
	Routine string `json:"routine"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ErrorJSON is the JSON form of an engine error.
type ErrorJSON struct {
	Kind      string      `json:"kind"`
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	File      string      `json:"file,omitempty"`
	Line      int         `json:"line,omitempty"`
	Cause     string      `json:"cause,omitempty"`
	Backtrace []FrameJSON `json:"backtrace,omitempty"`
}

func makeLocation(span source.Span, fs *source.FileSet, opts JSONOpts) LocationJSON {
	f := fs.Get(span.File)
	loc := LocationJSON{
		File:      formatPath(f.Path, opts.PathMode, opts.BaseDir),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if opts.IncludePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

// BuildDiagnosticsOutput builds the JSON structure without serializing it.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	n := len(items)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	diagnostics := make([]DiagnosticJSON, 0, n)
	for _, d := range items[:n] {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: makeLocation(d.Primary, fs, opts),
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				dj.Notes[j] = NoteJSON{Message: note.Msg, Location: makeLocation(note.Span, fs, opts)}
			}
		}
		diagnostics = append(diagnostics, dj)
	}
	return DiagnosticsOutput{Diagnostics: diagnostics, Count: len(diagnostics)}
}

// JSON writes the diagnostics of bag as one indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}

// BuildErrorOutput converts err for JSON output. Errors that are not engine
// errors become a HostError with only a message.
func BuildErrorOutput(err error, opts JSONOpts) ErrorJSON {
	var e *diag.Error
	if !errors.As(err, &e) {
		return ErrorJSON{Kind: diag.RuntimeError.String(), Code: diag.HostError.ID(), Message: err.Error()}
	}
	out := ErrorJSON{
		Kind:    e.Kind.String(),
		Code:    e.Code.ID(),
		Message: e.Message,
		File:    formatPath(e.File, opts.PathMode, opts.BaseDir),
		Line:    e.Line,
	}
	if e.Cause != nil {
		out.Cause = e.Cause.Error()
	}
	for _, fr := range e.Backtrace {
		out.Backtrace = append(out.Backtrace, FrameJSON{
			Routine: fr.Routine,
			File:    formatPath(fr.File, opts.PathMode, opts.BaseDir),
			Line:    fr.Line,
		})
	}
	return out
}

// ErrorJSONTo writes err as a single-line JSON object.
func ErrorJSONTo(w io.Writer, err error, opts JSONOpts) error {
	return json.NewEncoder(w).Encode(BuildErrorOutput(err, opts))
}
