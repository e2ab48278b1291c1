package parser

import (
	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

// parseStmtList parses statements until a block terminator (end, else,
// elsif, until) or EOF. The terminator is left for the caller.
func (p *Parser) parseStmtList() ([]ast.StmtID, bool) {
	var stmts []ast.StmtID
	for {
		for p.accept(token.Semicolon) {
		}
		if p.atOr(token.EOF, token.KwEnd, token.KwElse, token.KwElsif, token.KwUntil) {
			return stmts, true
		}
		id, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		stmts = append(stmts, id)
	}
}

// parseBody parses a block closed by `end` and consumes the `end`.
func (p *Parser) parseBody(scoped bool, where string) (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	stmts, ok := p.parseStmtList()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.KwEnd, diag.SynExpectEnd, where); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewBlock(start.Cover(p.lastSpan), stmts, scoped), true
}

func (p *Parser) parseStmt() (ast.StmtID, bool) {
	if !p.enter() {
		return ast.NoStmtID, false
	}
	defer p.leave()

	tok := p.lx.Peek()
	switch tok.Kind {
	case token.KwVar:
		p.advance()
		return p.parseVarDecl(tok)
	case token.KwLocal:
		p.advance()
		if p.at(token.KwFunction) {
			p.advance()
			return p.parseFuncDecl(tok, true)
		}
		return p.parseVarDecl(tok)
	case token.KwFunction:
		p.advance()
		if p.at(token.Ident) {
			return p.parseFuncDecl(tok, false)
		}
		return p.parseFuncLiteralStmt(tok)
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwRepeat:
		return p.parseRepeat()
	case token.KwFor:
		return p.parseFor()
	case token.KwForeach:
		return p.parseForeach()
	case token.KwDo:
		p.advance()
		return p.parseBody(true, "to close block")
	case token.KwReturn:
		p.advance()
		if p.endsStatement() {
			return p.arenas.Stmts.NewReturn(tok.Span, ast.NoExprID), true
		}
		e, ok := p.parseExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		return p.arenas.Stmts.NewReturn(tok.Span.Cover(p.exprSpan(e)), e), true
	case token.KwBreak:
		p.advance()
		return p.arenas.Stmts.NewSimple(ast.StmtBreak, tok.Span), true
	case token.KwContinue:
		p.advance()
		return p.arenas.Stmts.NewSimple(ast.StmtContinue, tok.Span), true
	case token.KwPass:
		p.advance()
		return p.arenas.Stmts.NewSimple(ast.StmtPass, tok.Span), true
	case token.KwPrint:
		return p.parsePrint()
	case token.KwAssert:
		p.advance()
		cond, ok := p.parseExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		msg := ast.NoExprID
		if p.accept(token.Comma) {
			if msg, ok = p.parseExpr(); !ok {
				return ast.NoStmtID, false
			}
		}
		return p.arenas.Stmts.NewAssert(tok.Span.Cover(p.lastSpan), cond, msg), true
	case token.KwThrow:
		p.advance()
		e, ok := p.parseExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		return p.arenas.Stmts.NewThrow(tok.Span.Cover(p.exprSpan(e)), e), true
	case token.KwImport:
		return p.parseImport()
	case token.KwExport:
		return p.parseExport()
	default:
		return p.parseSimpleStmt()
	}
}

// parseSimpleStmt parses an expression statement or an assignment. Whether
// the target is assignable is checked by the compiler.
func (p *Parser) parseSimpleStmt() (ast.StmtID, bool) {
	target, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	return p.finishSimpleStmt(target)
}

func (p *Parser) finishSimpleStmt(target ast.ExprID) (ast.StmtID, bool) {
	tok := p.lx.Peek()
	data := ast.StmtAssignData{Target: target}
	if op, compound := compoundOps[tok.Kind]; compound {
		data.Op, data.Compound = op, true
	} else if tok.Kind != token.Assign {
		return p.arenas.Stmts.NewExpr(p.exprSpan(target), target), true
	}
	p.advance()
	value, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	data.Value = value
	return p.arenas.Stmts.NewAssign(p.exprSpan(target).Cover(p.exprSpan(value)), data), true
}

func (p *Parser) parseVarDecl(kw token.Token) (ast.StmtID, bool) {
	var data ast.StmtVarData
	for {
		name, ok := p.expectIdent("in variable declaration")
		if !ok {
			return ast.NoStmtID, false
		}
		data.Names = append(data.Names, p.intern(name.Text))
		data.Spans = append(data.Spans, name.Span)
		if !p.accept(token.Comma) {
			break
		}
	}
	if p.accept(token.Assign) {
		for {
			v, ok := p.parseExpr()
			if !ok {
				return ast.NoStmtID, false
			}
			data.Values = append(data.Values, v)
			if !p.accept(token.Comma) {
				break
			}
		}
		if len(data.Values) != len(data.Names) {
			p.report(diag.SynBadDeclaration, kw.Span.Cover(p.lastSpan),
				"invalid declaration: the number of variables and values doesn't match")
			return ast.NoStmtID, false
		}
	}
	return p.arenas.Stmts.NewVar(kw.Span.Cover(p.lastSpan), data), true
}

func (p *Parser) parseIf() (ast.StmtID, bool) {
	start := p.advance()
	data := ast.StmtIfData{Else: ast.NoStmtID}
	for {
		cond, ok := p.parseExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		if _, ok := p.expect(token.KwThen, diag.SynUnexpectedToken, "after condition"); !ok {
			return ast.NoStmtID, false
		}
		blockStart := p.lx.Peek().Span
		stmts, ok := p.parseStmtList()
		if !ok {
			return ast.NoStmtID, false
		}
		data.Conds = append(data.Conds, cond)
		data.Blocks = append(data.Blocks, p.arenas.Stmts.NewBlock(blockStart.Cover(p.lastSpan), stmts, true))
		if !p.accept(token.KwElsif) {
			break
		}
	}
	if p.accept(token.KwElse) {
		els, ok := p.parseBody(true, "to close if statement")
		if !ok {
			return ast.NoStmtID, false
		}
		data.Else = els
	} else if _, ok := p.expect(token.KwEnd, diag.SynExpectEnd, "to close if statement"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewIf(start.Span.Cover(p.lastSpan), data), true
}

func (p *Parser) parseWhile() (ast.StmtID, bool) {
	start := p.advance()
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.KwDo, diag.SynUnexpectedToken, "in while statement"); !ok {
		return ast.NoStmtID, false
	}
	body, ok := p.parseBody(true, "to close while loop")
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewWhile(start.Span.Cover(p.lastSpan), cond, body), true
}

// parseRepeat leaves the body unscoped: the compiler opens one scope around
// the body and the condition so that the condition sees the body's locals.
func (p *Parser) parseRepeat() (ast.StmtID, bool) {
	start := p.advance()
	stmts, ok := p.parseStmtList()
	if !ok {
		return ast.NoStmtID, false
	}
	body := p.arenas.Stmts.NewBlock(start.Span.Cover(p.lastSpan), stmts, false)
	if _, ok := p.expect(token.KwUntil, diag.SynExpectEnd, "to close repeat loop"); !ok {
		return ast.NoStmtID, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewRepeat(start.Span.Cover(p.lastSpan), body, cond), true
}

func (p *Parser) parseFor() (ast.StmtID, bool) {
	start := p.advance()
	if p.at(token.LParen) {
		return p.parseCFor(start.Span)
	}
	const where = "in for loop"
	name, ok := p.expectIdent(where)
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.Assign, diag.SynForBadHeader, where); !ok {
		return ast.NoStmtID, false
	}
	data := ast.StmtForData{Var: p.intern(name.Text), Step: ast.NoExprID}
	if data.Start, ok = p.parseExpr(); !ok {
		return ast.NoStmtID, false
	}
	switch {
	case p.accept(token.KwTo):
	case p.accept(token.KwDownto):
		data.Down = true
	default:
		p.errorf(diag.SynForBadHeader, "expected \"to\" or \"downto\" in for loop, got %s", describe(p.lx.Peek()))
		return ast.NoStmtID, false
	}
	if data.End, ok = p.parseExpr(); !ok {
		return ast.NoStmtID, false
	}
	if p.accept(token.KwStep) {
		if data.Step, ok = p.parseExpr(); !ok {
			return ast.NoStmtID, false
		}
	}
	if _, ok := p.expect(token.KwDo, diag.SynForBadHeader, where); !ok {
		return ast.NoStmtID, false
	}
	if data.Body, ok = p.parseBody(false, "to close for loop"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewFor(start.Span.Cover(p.lastSpan), data), true
}

// parseCFor parses `for (init; cond; post) do ... end`.
func (p *Parser) parseCFor(start source.Span) (ast.StmtID, bool) {
	const where = "in for loop header"
	p.advance() // '('
	data := ast.StmtCForData{Init: ast.NoStmtID, Cond: ast.NoExprID, Post: ast.NoStmtID}
	var ok bool
	if !p.at(token.Semicolon) {
		if p.at(token.KwVar) || p.at(token.KwLocal) {
			if data.Init, ok = p.parseVarDecl(p.advance()); !ok {
				return ast.NoStmtID, false
			}
		} else if data.Init, ok = p.parseSimpleStmt(); !ok {
			return ast.NoStmtID, false
		}
	}
	if _, ok := p.expect(token.Semicolon, diag.SynForBadHeader, where); !ok {
		return ast.NoStmtID, false
	}
	if !p.at(token.Semicolon) {
		if data.Cond, ok = p.parseExpr(); !ok {
			return ast.NoStmtID, false
		}
	}
	if _, ok := p.expect(token.Semicolon, diag.SynForBadHeader, where); !ok {
		return ast.NoStmtID, false
	}
	if !p.at(token.RParen) {
		if data.Post, ok = p.parseSimpleStmt(); !ok {
			return ast.NoStmtID, false
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, where); !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.KwDo, diag.SynForBadHeader, "in for loop"); !ok {
		return ast.NoStmtID, false
	}
	if data.Body, ok = p.parseBody(true, "to close for loop"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewCFor(start.Cover(p.lastSpan), data), true
}

// parseForeach parses `foreach [ref] v in e` and `foreach k, [ref] v in e`.
func (p *Parser) parseForeach() (ast.StmtID, bool) {
	const where = "in foreach loop"
	start := p.advance()
	firstRef := p.accept(token.KwRef)
	first, ok := p.expectIdent(where)
	if !ok {
		return ast.NoStmtID, false
	}
	data := ast.StmtForeachData{Value: p.intern(first.Text), ByRef: firstRef}
	if p.accept(token.Comma) {
		if firstRef {
			p.report(diag.SynForeachRefKey, first.Span, "key in foreach loop cannot be taken by reference")
			return ast.NoStmtID, false
		}
		data.Key = data.Value
		data.ByRef = p.accept(token.KwRef)
		second, ok := p.expectIdent(where)
		if !ok {
			return ast.NoStmtID, false
		}
		data.Value = p.intern(second.Text)
	}
	if _, ok := p.expect(token.KwIn, diag.SynUnexpectedToken, where); !ok {
		return ast.NoStmtID, false
	}
	if data.Coll, ok = p.parseExpr(); !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.KwDo, diag.SynUnexpectedToken, where); !ok {
		return ast.NoStmtID, false
	}
	if data.Body, ok = p.parseBody(false, "to close foreach loop"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewForeach(start.Span.Cover(p.lastSpan), data), true
}

// parsePrint parses `print e1, e2, ...`. A trailing comma suppresses the newline.
func (p *Parser) parsePrint() (ast.StmtID, bool) {
	start := p.advance()
	var args []ast.ExprID
	newline := true
	for !p.endsStatement() {
		e, ok := p.parseExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		args = append(args, e)
		if !p.accept(token.Comma) {
			break
		}
		if p.endsStatement() {
			newline = false
		}
	}
	return p.arenas.Stmts.NewPrint(start.Span.Cover(p.lastSpan), args, newline), true
}
