// Package fuzztests holds fuzz harnesses for the front end of the engine
// (source -> lexer -> parser -> compiler). They guard against panics and
// hangs on arbitrary input.
package fuzztests
