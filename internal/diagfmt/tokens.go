package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

type TokenOutput struct {
	Kind          string      `json:"kind"`
	Text          string      `json:"text,omitempty"`
	Value         string      `json:"value,omitempty"`
	Flags         string      `json:"flags,omitempty"`
	Span          source.Span `json:"span"`
	Line          uint32      `json:"line"`
	Col           uint32      `json:"col"`
	NewlineBefore bool        `json:"newline_before,omitempty"`
}

// FormatTokensPretty writes one token per line with its position.
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		startPos, endPos := fs.Resolve(tok.Span)
		if _, err := fmt.Fprintf(w, "%3d: %-15s", i+1, tok.Kind.String()); err != nil {
			return err
		}
		if tok.Text != "" {
			fmt.Fprintf(w, " %q", tok.Text)
		}
		if tok.Kind == token.StringLit && tok.Value != tok.Text {
			fmt.Fprintf(w, " value=%q", tok.Value)
		}
		if tok.Flags != "" {
			fmt.Fprintf(w, " flags=%s", tok.Flags)
		}
		fmt.Fprintf(w, " at %d:%d-%d:%d", startPos.Line, startPos.Col, endPos.Line, endPos.Col)
		if tok.NewlineBefore {
			io.WriteString(w, " (newline)")
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON writes the tokens as an indented JSON array.
func FormatTokensJSON(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		start, _ := fs.Resolve(tok.Span)
		out := TokenOutput{
			Kind:          tok.Kind.String(),
			Text:          tok.Text,
			Flags:         tok.Flags,
			Span:          tok.Span,
			Line:          start.Line,
			Col:           start.Col,
			NewlineBefore: tok.NewlineBefore,
		}
		if tok.Value != tok.Text {
			out.Value = tok.Value
		}
		output = append(output, out)
		if tok.Kind == token.EOF {
			break
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
