package parser

import (
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

// Hidden names used by import/export. They start with '$' so scripts cannot
// spell them.
const (
	ImportFunc  = "$import"
	ModuleParam = "$module"
)

// parseImport desugars `import a.b [as c], ...` into `var c = $import("a.b")`.
func (p *Parser) parseImport() (ast.StmtID, bool) {
	kw := p.advance()
	var data ast.StmtVarData
	for {
		path, last, span, ok := p.parseModulePath()
		if !ok {
			return ast.NoStmtID, false
		}
		binding := last
		if p.accept(token.KwAs) {
			alias, ok := p.expectIdent("after \"as\" in import")
			if !ok {
				return ast.NoStmtID, false
			}
			binding = alias
		}
		callee := p.arenas.Exprs.NewIdent(kw.Span, p.intern(ImportFunc))
		arg := p.arenas.Exprs.NewLiteral(span, ast.ExprLiteralData{Kind: ast.ExprLitString, Str: path})
		call := p.arenas.Exprs.NewCall(kw.Span.Cover(span), callee, []ast.ExprID{arg})
		data.Names = append(data.Names, p.intern(binding.Text))
		data.Spans = append(data.Spans, binding.Span)
		data.Values = append(data.Values, call)
		if !p.accept(token.Comma) {
			break
		}
	}
	return p.arenas.Stmts.NewVar(kw.Span.Cover(p.lastSpan), data), true
}

// parseModulePath reads `a.b.c` and returns the dotted path and its last component.
func (p *Parser) parseModulePath() (path string, last token.Token, span source.Span, ok bool) {
	var parts []string
	for {
		id, ok := p.expectIdent("in import")
		if !ok {
			return "", token.Token{}, span, false
		}
		if len(parts) == 0 {
			span = id.Span
		}
		span = span.Cover(id.Span)
		parts = append(parts, id.Text)
		last = id
		if !p.accept(token.Dot) {
			break
		}
	}
	return strings.Join(parts, "."), last, span, true
}

// parseExport desugars `export var x = e` and `export function f ... end`
// into the definition followed by `$module.x = x`.
func (p *Parser) parseExport() (ast.StmtID, bool) {
	kw := p.advance()
	if p.funcDepth > 0 {
		p.report(diag.SynBadExport, kw.Span, "export is only allowed at the top level of a script")
		return ast.NoStmtID, false
	}
	var (
		def   ast.StmtID
		names []source.StringID
		spans []source.Span
		ok    bool
	)
	switch tok := p.lx.Peek(); tok.Kind {
	case token.KwVar, token.KwLocal:
		p.advance()
		if def, ok = p.parseVarDecl(tok); !ok {
			return ast.NoStmtID, false
		}
		v := p.arenas.Stmts.Var(def)
		names, spans = v.Names, v.Spans
	case token.KwFunction:
		p.advance()
		if def, ok = p.parseFuncDecl(tok, false); !ok {
			return ast.NoStmtID, false
		}
		fn := p.arenas.Funcs.Get(p.arenas.Stmts.Func(def).Func)
		names, spans = []source.StringID{fn.Name}, []source.Span{tok.Span}
	default:
		p.errorf(diag.SynBadExport, "expected \"var\" or \"function\" after \"export\", got %s", describe(tok))
		return ast.NoStmtID, false
	}

	stmts := []ast.StmtID{def}
	module := p.intern(ModuleParam)
	for i, name := range names {
		sp := spans[i]
		target := p.arenas.Exprs.NewMember(sp, p.arenas.Exprs.NewIdent(sp, module), name)
		value := p.arenas.Exprs.NewIdent(sp, name)
		stmts = append(stmts, p.arenas.Stmts.NewAssign(sp, ast.StmtAssignData{Target: target, Value: value}))
	}
	return p.arenas.Stmts.NewBlock(kw.Span.Cover(p.lastSpan), stmts, false), true
}
