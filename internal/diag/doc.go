// Package diag defines the diagnostic and error model shared by the lexer,
// parser, compiler and virtual machine.
//
// Two layers live here:
//
//   - Diagnostic, Bag and Reporter: data-only records that phases emit while
//     they run. The CLI collects them in a Bag and renders them with
//     internal/diagfmt.
//   - Error: the single error value handed back to the host. Its Kind tells
//     apart syntax, compile and runtime failures; File and Line locate the
//     failure, and runtime errors also carry the script backtrace.
//
// Compilation stops at the first error: the parser and compiler report the
// diagnostic and return the matching *Error. The VM raises *Error values with
// panic and recovers them at the interpreter boundary.
package diag
