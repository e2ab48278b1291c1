package parser

import (
	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

// parseExpr parses a full expression, including the trailing conditional
// form `a if c else b`. A line break ends the expression before `if`.
func (p *Parser) parseExpr() (ast.ExprID, bool) {
	e, ok := p.parseBinaryExpr(0)
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.KwIf) || p.lx.Peek().NewlineBefore {
		return e, true
	}
	p.advance()
	cond, ok := p.parseBinaryExpr(0)
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok = p.expect(token.KwElse, diag.SynUnexpectedToken, "in conditional expression"); !ok {
		return ast.NoExprID, false
	}
	els, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	span := p.exprSpan(e).Cover(p.exprSpan(els))
	return p.arenas.Exprs.NewCond(span, cond, e, els), true
}

// parseBinaryExpr is a precedence climber over binaryPrec. `not` is a prefix
// operator sitting between `and` and the comparisons.
func (p *Parser) parseBinaryExpr(minPrec int) (ast.ExprID, bool) {
	if !p.enter() {
		return ast.NoExprID, false
	}
	defer p.leave()

	var left ast.ExprID
	if p.at(token.KwNot) {
		notTok := p.advance()
		operand, ok := p.parseBinaryExpr(max(minPrec, precNot))
		if !ok {
			return ast.NoExprID, false
		}
		left = p.arenas.Exprs.NewUnary(notTok.Span.Cover(p.exprSpan(operand)), ast.ExprUnaryNot, operand)
	} else {
		var ok bool
		if left, ok = p.parseUnaryExpr(); !ok {
			return ast.NoExprID, false
		}
	}

	for {
		tok := p.lx.Peek()
		prec, rightAssoc := binaryPrec(tok.Kind)
		if prec < 0 || prec < minPrec {
			return left, true
		}
		p.advance()
		next := prec + 1
		if rightAssoc {
			next = prec
		}
		right, ok := p.parseBinaryExpr(next)
		if !ok {
			return ast.NoExprID, false
		}
		left = p.makeBinary(binaryOps[tok.Kind], left, right)
	}
}

// parseUnaryExpr handles prefix minus and ref. Minus binds looser than `^`,
// so -2^2 is -(2^2).
func (p *Parser) parseUnaryExpr() (ast.ExprID, bool) {
	if !p.enter() {
		return ast.NoExprID, false
	}
	defer p.leave()

	switch p.lx.Peek().Kind {
	case token.Minus:
		opTok := p.advance()
		operand, ok := p.parseBinaryExpr(precPower)
		if !ok {
			return ast.NoExprID, false
		}
		return p.makeNegation(opTok.Span.Cover(p.exprSpan(operand)), operand), true
	case token.Plus:
		p.advance()
		return p.parseBinaryExpr(precPower)
	case token.KwRef:
		refTok := p.advance()
		operand, ok := p.parsePostfixExpr()
		if !ok {
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewUnary(refTok.Span.Cover(p.exprSpan(operand)), ast.ExprUnaryRef, operand), true
	default:
		return p.parsePostfixExpr()
	}
}

func (p *Parser) parsePostfixExpr() (ast.ExprID, bool) {
	expr, ok := p.parsePrimaryExpr()
	if !ok {
		return ast.NoExprID, false
	}
	return p.parsePostfixFrom(expr)
}

// parsePostfixFrom applies calls, indexing and member access to expr. A '('
// or '[' at the start of a line opens a new expression instead.
func (p *Parser) parsePostfixFrom(expr ast.ExprID) (ast.ExprID, bool) {
	for {
		tok := p.lx.Peek()
		var ok bool
		switch {
		case tok.Kind == token.LParen && !tok.NewlineBefore:
			expr, ok = p.parseCallExpr(expr)
		case tok.Kind == token.LBracket && !tok.NewlineBefore:
			expr, ok = p.parseIndexExpr(expr)
		case tok.Kind == token.Dot:
			expr, ok = p.parseMemberExpr(expr)
		default:
			return expr, true
		}
		if !ok {
			return ast.NoExprID, false
		}
	}
}

func (p *Parser) parseCallExpr(target ast.ExprID) (ast.ExprID, bool) {
	p.advance() // '('
	args, ok := p.parseExprList(token.RParen, "in argument list")
	if !ok {
		return ast.NoExprID, false
	}
	closeTok, ok := p.expect(token.RParen, diag.SynUnclosedParen, "after arguments")
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewCall(p.exprSpan(target).Cover(closeTok.Span), target, args), true
}

func (p *Parser) parseIndexExpr(target ast.ExprID) (ast.ExprID, bool) {
	p.advance() // '['
	if p.at(token.RBracket) {
		p.errorf(diag.SynExpectExpression, "expected index expression")
		return ast.NoExprID, false
	}
	indices, ok := p.parseExprList(token.RBracket, "in index")
	if !ok {
		return ast.NoExprID, false
	}
	closeTok, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "after index")
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewIndex(p.exprSpan(target).Cover(closeTok.Span), target, indices), true
}

func (p *Parser) parseMemberExpr(target ast.ExprID) (ast.ExprID, bool) {
	p.advance() // '.'
	name, ok := p.expectIdent("after '.'")
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewMember(p.exprSpan(target).Cover(name.Span), target, p.intern(name.Text)), true
}

// parseExprList parses comma-separated expressions up to (not including)
// closer. A trailing comma is allowed.
func (p *Parser) parseExprList(closer token.Kind, where string) ([]ast.ExprID, bool) {
	var list []ast.ExprID
	for !p.at(closer) {
		e, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		list = append(list, e)
		if !p.accept(token.Comma) {
			break
		}
	}
	if !p.at(closer) {
		p.errorf(unclosedCode(closer), "expected %q or \",\" %s, got %s", closer.String(), where, describe(p.lx.Peek()))
		return nil, false
	}
	return list, true
}

func unclosedCode(closer token.Kind) diag.Code {
	switch closer {
	case token.RParen:
		return diag.SynUnclosedParen
	case token.RBracket:
		return diag.SynUnclosedBracket
	case token.RBrace:
		return diag.SynUnclosedBrace
	}
	return diag.SynUnexpectedToken
}
