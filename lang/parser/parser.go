// Package parser implements BlackLua's recursive-descent statement parser
// and Pratt-style expression climber (spec.md §4.2). Structure — a parser
// struct holding a token cursor plus an expect/error-recovery pair, and a
// precedence-climbing parseSubExpr — is grounded on the teacher's
// lang/parser package (parser.go's cursor/expect/error shape, expr.go's
// parseSubExpr climbing loop); the grammar itself is BlackLua's own.
package parser

import (
	"fmt"

	"github.com/blacklua-lang/blacklua/internal/arena"
	"github.com/blacklua-lang/blacklua/lang/ast"
	"github.com/blacklua-lang/blacklua/lang/token"
)

// arenas holds one bump allocator per AST node type, so every node the
// parser produces is arena-owned for the lifetime of the compilation
// (spec.md §3/§9: "arena... owning all AST... data").
type arenas struct {
	constant     arena.Arena[ast.ConstantExpr]
	varRef       arena.Arena[ast.VarRefExpr]
	arrayAccess  arena.Arena[ast.ArrayAccessExpr]
	self         arena.Arena[ast.SelfExpr]
	member       arena.Arena[ast.MemberExpr]
	methodCall   arena.Arena[ast.MethodCallExpr]
	call         arena.Arena[ast.CallExpr]
	paren        arena.Arena[ast.ParenExpr]
	cast         arena.Arena[ast.CastExpr]
	unary        arena.Arena[ast.UnaryExpr]
	binary       arena.Arena[ast.BinaryExpr]
	badExpr      arena.Arena[ast.BadExpr]
	compound     arena.Arena[ast.CompoundStmt]
	exprStmt     arena.Arena[ast.ExprStmt]
	varDecl      arena.Arena[ast.VarDeclStmt]
	paramDecl    arena.Arena[ast.ParamDeclStmt]
	funcDecl     arena.Arena[ast.FunctionDeclStmt]
	structDecl   arena.Arena[ast.StructDeclStmt]
	whileStmt    arena.Arena[ast.WhileStmt]
	doWhileStmt  arena.Arena[ast.DoWhileStmt]
	forStmt      arena.Arena[ast.ForStmt]
	ifStmt       arena.Arena[ast.IfStmt]
	returnStmt   arena.Arena[ast.ReturnStmt]
	breakStmt    arena.Arena[ast.BreakStmt]
	continueStmt arena.Arena[ast.ContinueStmt]
	badStmt      arena.Arena[ast.BadStmt]
}

// Parser holds the state for one parse of a token stream into an AST.
type Parser struct {
	toks []token.Token
	pos  int
	err  func(pos token.SourceRange, msg string)

	arenas arenas
	failed bool
}

// New creates a Parser over toks (as produced by lexer.ScanAll, including
// its terminal EOF). errHandler is invoked for every parse error; the
// parser records that it failed and attempts to keep parsing to gather
// further diagnostics (spec.md §4.2 / §7).
func New(toks []token.Token, errHandler func(token.SourceRange, string)) *Parser {
	return &Parser{toks: toks, err: errHandler}
}

// Failed reports whether any parse error was recorded (spec.md §8's
// "isValid() = false" on the error path; here it is the negation).
func (p *Parser) Failed() bool { return p.failed }

func (p *Parser) cur() token.Token { return p.toks[p.pos] }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// expect consumes the current token if it has kind k, else records an error
// at the previous token's range (spec.md §4.2: "reported at the previous
// token's range").
func (p *Parser) expect(k token.Kind) token.Token {
	if p.cur().Kind == k {
		return p.advance()
	}
	prev := p.prevRange()
	p.errorf(prev, "expected %s, found %s", k, p.cur().Kind)
	return token.Token{Kind: token.ILLEGAL, Range: p.cur().Range}
}

func (p *Parser) prevRange() token.SourceRange {
	if p.pos == 0 {
		return p.cur().Range
	}
	return p.toks[p.pos-1].Range
}

func (p *Parser) errorf(rng token.SourceRange, format string, args ...any) {
	p.failed = true
	if p.err != nil {
		p.err(rng, fmt.Sprintf(format, args...))
	}
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) atAny(ks ...token.Kind) bool {
	for _, k := range ks {
		if p.at(k) {
			return true
		}
	}
	return false
}

// spanFrom builds a SourceRange from a starting token position to the
// current (just-consumed) position.
func (p *Parser) spanFrom(start token.Pos) token.SourceRange {
	return token.SourceRange{Start: start, End: p.prevRange().End}
}

// ParseProgram parses a whole source file: a sequence of top-level
// declarations (var decls, function decls, struct decls, extern decls).
func (p *Parser) ParseProgram() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.at(token.EOF) {
		before := p.pos
		stmts = append(stmts, p.parseStmt())
		if p.pos == before {
			// Guarantee forward progress on a token the statement dispatch
			// didn't recognize at all.
			p.advance()
		}
	}
	return stmts
}
