package parser

import (
	"context"
	"fmt"
	"slices"

	"github.com/phonometrica/phonometrica-sub000/internal/ast"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/lexer"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

// DefaultMaxDepth bounds statement and expression nesting when Options.MaxDepth is zero.
const DefaultMaxDepth = 512

type Options struct {
	Reporter diag.Reporter
	// Strings interns identifiers; nil allocates a fresh interner.
	Strings  *source.Interner
	MaxDepth int
}

// Parser holds the state for one file. Parsing stops at the first error.
type Parser struct {
	lx        *lexer.Lexer
	arenas    *ast.Builder
	file      *source.File
	opts      Options
	lastSpan  source.Span // span of the last consumed token
	depth     int
	funcDepth int
	err       *diag.Error
}

// ParseFile parses a whole script and returns the arena together with the
// top-level block. The error, if any, is a *diag.Error of kind SyntaxError.
func ParseFile(ctx context.Context, fs *source.FileSet, fileID source.FileID, opts Options) (*ast.Builder, ast.StmtID, error) {
	file := fs.Get(fileID)
	if file == nil {
		return nil, ast.NoStmtID, fmt.Errorf("parse: unknown file id %d", fileID)
	}
	_, span := trace.StartSpan(ctx, trace.ScopePhase, "parse")
	defer span.End(file.Path)

	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	p := &Parser{
		lx:     lexer.New(file, lexer.Options{Reporter: opts.Reporter}),
		arenas: ast.NewBuilder(ast.Hints{Exprs: uint(len(file.Content)/4 + 1)}, opts.Strings),
		file:   file,
		opts:   opts,
	}
	root, ok := p.parseTopLevel()
	if err := p.lx.Err(); err != nil {
		return p.arenas, ast.NoStmtID, err
	}
	if p.err != nil {
		return p.arenas, ast.NoStmtID, p.err
	}
	if !ok {
		return p.arenas, ast.NoStmtID, fmt.Errorf("parse %s: failed without a diagnostic", file.Path)
	}
	return p.arenas, root, nil
}

func (p *Parser) parseTopLevel() (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	stmts, ok := p.parseStmtList()
	if !ok {
		return ast.NoStmtID, false
	}
	if !p.at(token.EOF) {
		p.errorf(diag.SynUnexpectedToken, "unexpected %s at top level", describe(p.lx.Peek()))
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewBlock(start.Cover(p.lastSpan), stmts, false), true
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

// enter guards recursive productions; every successful call must be paired with leave.
func (p *Parser) enter() bool {
	p.depth++
	if p.depth > p.opts.MaxDepth {
		p.errorf(diag.SynTooMuchRecursion, "too much recursion")
		return false
	}
	return true
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) intern(s string) source.StringID {
	return p.arenas.Strings.Intern(s)
}

func (p *Parser) exprSpan(id ast.ExprID) source.Span {
	if e := p.arenas.Exprs.Get(id); e != nil {
		return e.Span
	}
	return p.lastSpan
}
