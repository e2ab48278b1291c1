// Package token defines lexical token kinds for phon scripts.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Span matches Text exactly (Begin..End).
//   - Token.Value holds the decoded payload of string and regex literals.
//   - Keywords are lowercase and looked up in a sorted table.
package token
