package parser

import (
	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

// parseFuncDecl parses `function name(params) body end`; the keyword has been consumed.
func (p *Parser) parseFuncDecl(kw token.Token, local bool) (ast.StmtID, bool) {
	name, ok := p.expectIdent("in function declaration")
	if !ok {
		return ast.NoStmtID, false
	}
	fn, ok := p.parseFunction(kw, ast.FuncData{Name: p.intern(name.Text), Local: local})
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewFunc(kw.Span.Cover(p.lastSpan), fn), true
}

// parseFuncLiteralStmt handles a statement starting with an anonymous
// function, such as an immediately called literal.
func (p *Parser) parseFuncLiteralStmt(kw token.Token) (ast.StmtID, bool) {
	fn, ok := p.parseFunction(kw, ast.FuncData{Local: true})
	if !ok {
		return ast.NoStmtID, false
	}
	lit := p.arenas.Exprs.NewFunc(kw.Span.Cover(p.lastSpan), fn)
	e, ok := p.parsePostfixFrom(lit)
	if !ok {
		return ast.NoStmtID, false
	}
	return p.finishSimpleStmt(e)
}

// parseFunction parses the parameter list and body shared by declarations
// and literals. The body block is unscoped: the routine itself is the scope.
func (p *Parser) parseFunction(kw token.Token, data ast.FuncData) (ast.FuncID, bool) {
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "in function declaration"); !ok {
		return ast.NoFuncID, false
	}
	for !p.at(token.RParen) {
		param, ok := p.parseParam()
		if !ok {
			return ast.NoFuncID, false
		}
		data.Params = append(data.Params, param)
		if !p.accept(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "in parameter list"); !ok {
		return ast.NoFuncID, false
	}

	p.funcDepth++
	body, ok := p.parseBody(false, "to close function")
	p.funcDepth--
	if !ok {
		return ast.NoFuncID, false
	}
	data.Body = body
	data.Span = kw.Span.Cover(p.lastSpan)
	return p.arenas.Funcs.New(data), true
}

// parseParam parses `[ref] name [: Type | as Type]`. The type is a postfix
// expression such as `Integer` or `mod.Point`.
func (p *Parser) parseParam() (ast.Param, bool) {
	byRef := p.accept(token.KwRef)
	name, ok := p.expectIdent("in parameter list")
	if !ok {
		return ast.Param{}, false
	}
	param := ast.Param{Name: p.intern(name.Text), Span: name.Span, Type: ast.NoExprID, ByRef: byRef}
	if p.accept(token.Colon) || p.accept(token.KwAs) {
		if param.Type, ok = p.parsePostfixExpr(); !ok {
			return ast.Param{}, false
		}
		param.Span = param.Span.Cover(p.exprSpan(param.Type))
	}
	return param, true
}
