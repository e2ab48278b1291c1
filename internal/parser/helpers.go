package parser

import (
	"fmt"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

// advance consumes the next token and updates lastSpan.
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

// accept consumes the next token when it has kind k.
func (p *Parser) accept(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// diagnosticSpan points just past the last token when the parser ran into EOF.
func (p *Parser) diagnosticSpan() source.Span {
	peek := p.lx.Peek()
	if peek.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

// expect consumes a token of kind k or reports "expected k where, got ...".
func (p *Parser) expect(k token.Kind, code diag.Code, where string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errorf(code, "expected %q %s, got %s", k.String(), where, describe(p.lx.Peek()))
	return token.Token{Kind: token.Invalid, Span: p.diagnosticSpan()}, false
}

func (p *Parser) expectIdent(where string) (token.Token, bool) {
	if p.at(token.Ident) {
		return p.advance(), true
	}
	p.errorf(diag.SynExpectIdentifier, "expected identifier %s, got %s", where, describe(p.lx.Peek()))
	return token.Token{Kind: token.Invalid, Span: p.diagnosticSpan()}, false
}

func (p *Parser) errorf(code diag.Code, format string, args ...any) bool {
	return p.report(code, p.diagnosticSpan(), fmt.Sprintf(format, args...))
}

// report records the first syntax error. Errors following a lexical error are
// consequences of it and are dropped.
func (p *Parser) report(code diag.Code, sp source.Span, msg string) bool {
	if p.err != nil || p.lx.Err() != nil {
		return false
	}
	diag.ReportError(p.opts.Reporter, code, sp, msg).Emit()
	p.err = &diag.Error{
		Kind:    code.Kind(),
		Code:    code,
		File:    p.file.Path,
		Line:    p.lx.Line(sp.Start),
		Message: msg,
	}
	return true
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Invalid:
		return "invalid token"
	}
	if tok.Text != "" {
		return fmt.Sprintf("%q", tok.Text)
	}
	return fmt.Sprintf("%q", tok.Kind.String())
}

// endsStatement reports whether the next token cannot continue the current
// statement on the same line.
func (p *Parser) endsStatement() bool {
	tok := p.lx.Peek()
	if tok.NewlineBefore {
		return true
	}
	switch tok.Kind {
	case token.EOF, token.Semicolon, token.KwEnd, token.KwElse, token.KwElsif, token.KwUntil:
		return true
	}
	return false
}
