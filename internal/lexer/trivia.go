package lexer

// skipTrivia consumes whitespace, newlines and '#' line comments and records
// whether a line break was crossed.
func (lx *Lexer) skipTrivia() {
	lx.newline = false
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '\n':
			lx.newline = true
			lx.cursor.Bump()
		case ' ', '\t', '\r', '\f', '\v':
			lx.cursor.Bump()
		case '#':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		default:
			return
		}
	}
}
