package parser

import (
	"strconv"

	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/number"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

func (p *Parser) parsePrimaryExpr() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return p.arenas.Exprs.NewIdent(tok.Span, p.intern(tok.Text)), true
	case token.IntLit:
		p.advance()
		v, err := number.ParseInt(tok.Text)
		if err != nil {
			p.report(diag.SynConstantOverflow, tok.Span, "integer literal "+tok.Text+" is out of range")
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewLiteral(tok.Span, ast.ExprLiteralData{Kind: ast.ExprLitInt, Int: v}), true
	case token.FloatLit:
		p.advance()
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.report(diag.SynConstantOverflow, tok.Span, "float literal "+tok.Text+" is out of range")
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewLiteral(tok.Span, ast.ExprLiteralData{Kind: ast.ExprLitFloat, Float: v}), true
	case token.StringLit:
		p.advance()
		return p.arenas.Exprs.NewLiteral(tok.Span, ast.ExprLiteralData{
			Kind: ast.ExprLitString,
			Str:  p.arenas.Strings.Canonical(tok.Value),
		}), true
	case token.RegexLit:
		p.advance()
		return p.arenas.Exprs.NewLiteral(tok.Span, ast.ExprLiteralData{Kind: ast.ExprLitRegex, Str: tok.Value, Flags: tok.Flags}), true
	case token.KwTrue, token.KwFalse, token.KwNull, token.KwNan:
		p.advance()
		return p.arenas.Exprs.NewLiteral(tok.Span, ast.ExprLiteralData{Kind: constantKinds[tok.Kind]}), true
	case token.LParen:
		p.advance()
		e, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "in parenthesized expression"); !ok {
			return ast.NoExprID, false
		}
		return e, true
	case token.LBracket:
		return p.parseListLiteral()
	case token.LBrace:
		return p.parseTableOrSetLiteral()
	case token.KwFunction:
		p.advance()
		fn, ok := p.parseFunction(tok, ast.FuncData{Local: true})
		if !ok {
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewFunc(tok.Span.Cover(p.lastSpan), fn), true
	case token.Invalid:
		// the lexer has already reported it
		p.advance()
		return ast.NoExprID, false
	default:
		p.errorf(diag.SynExpectExpression, "expected expression, got %s", describe(tok))
		return ast.NoExprID, false
	}
}

var constantKinds = map[token.Kind]ast.ExprLitKind{
	token.KwTrue:  ast.ExprLitTrue,
	token.KwFalse: ast.ExprLitFalse,
	token.KwNull:  ast.ExprLitNull,
	token.KwNan:   ast.ExprLitNan,
}

func (p *Parser) parseListLiteral() (ast.ExprID, bool) {
	open := p.advance()
	elems, ok := p.parseExprList(token.RBracket, "in list literal")
	if !ok {
		return ast.NoExprID, false
	}
	closeTok := p.advance()
	return p.arenas.Exprs.NewList(open.Span.Cover(closeTok.Span), ast.ExprList, elems), true
}

// parseTableOrSetLiteral decides on the first element: `{k: v, ...}` is a
// table, `{a, b}` a set and `{}` an empty table.
func (p *Parser) parseTableOrSetLiteral() (ast.ExprID, bool) {
	open := p.advance()
	if p.at(token.RBrace) {
		closeTok := p.advance()
		return p.arenas.Exprs.NewTable(open.Span.Cover(closeTok.Span), nil, nil), true
	}
	first, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if !p.accept(token.Colon) {
		elems := []ast.ExprID{first}
		if p.accept(token.Comma) {
			rest, ok := p.parseExprList(token.RBrace, "in set literal")
			if !ok {
				return ast.NoExprID, false
			}
			elems = append(elems, rest...)
		}
		closeTok, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "at the end of set literal")
		if !ok {
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewList(open.Span.Cover(closeTok.Span), ast.ExprSet, elems), true
	}

	keys := []ast.ExprID{first}
	var values []ast.ExprID
	for {
		v, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		values = append(values, v)
		if !p.accept(token.Comma) || p.at(token.RBrace) {
			break
		}
		k, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		keys = append(keys, k)
		if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "in table literal"); !ok {
			return ast.NoExprID, false
		}
	}
	closeTok, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "at the end of table literal")
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewTable(open.Span.Cover(closeTok.Span), keys, values), true
}
