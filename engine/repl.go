package engine

import (
	"errors"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
)

// Incomplete reports whether err, returned by Eval for code, only means
// the input stopped before a block, bracket or string was closed. An
// interactive caller then reads another line and evaluates the whole chunk
// again.
func Incomplete(code string, err error) bool {
	var e *diag.Error
	if !errors.As(err, &e) || e.Kind != diag.SyntaxError {
		return false
	}
	switch e.Code {
	case diag.SynExpectEnd, diag.SynUnclosedParen, diag.SynUnclosedBracket,
		diag.SynUnclosedBrace, diag.LexUnterminatedString:
	default:
		return false
	}
	lines := strings.Count(strings.TrimRight(code, "\n"), "\n") + 1
	return e.Line >= lines
}
