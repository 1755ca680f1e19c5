package parser

import (
	"github.com/blacklua-lang/blacklua/lang/ast"
	"github.com/blacklua-lang/blacklua/lang/token"
)

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.LBRACE:
		return p.parseCompound()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDoWhile()
	case token.FOR:
		return p.parseFor()
	case token.BREAK:
		start := p.advance().Range.Start
		p.expect(token.SEMI)
		n := p.arenas.breakStmt.New()
		n.Rng = p.spanFrom(start)
		return n
	case token.CONTINUE:
		start := p.advance().Range.Start
		p.expect(token.SEMI)
		n := p.arenas.continueStmt.New()
		n.Rng = p.spanFrom(start)
		return n
	case token.RETURN:
		return p.parseReturn()
	case token.STRUCT:
		return p.parseStructDecl()
	case token.EXTERN:
		return p.parseExternFuncDecl()
	}

	if p.isDeclStart() {
		return p.parseVarOrFuncDecl()
	}
	return p.parseExprStmt()
}

// typeFormLookaheadEnd returns the token index just past a type form
// starting at i (primitive keyword or identifier, optional "[]"), and
// whether a type form was present at all.
func (p *Parser) typeFormLookaheadEnd(i int) (int, bool) {
	if i >= len(p.toks) || !isTypeFormStart(p.toks[i].Kind) {
		return i, false
	}
	i++
	if i+1 < len(p.toks) && p.toks[i].Kind == token.LBRACK && p.toks[i+1].Kind == token.RBRACK {
		i += 2
	}
	return i, true
}

// isDeclStart reports whether the tokens at the current position form a
// type followed by an identifier (spec.md §4.2's "Type-led" statement
// rule).
func (p *Parser) isDeclStart() bool {
	end, ok := p.typeFormLookaheadEnd(p.pos)
	if !ok {
		return false
	}
	return end < len(p.toks) && p.toks[end].Kind == token.IDENT
}

func (p *Parser) parseCompound() *ast.CompoundStmt {
	start := p.cur().Range.Start
	p.expect(token.LBRACE)
	n := p.arenas.compound.New()
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		n.Stmts = append(n.Stmts, p.parseStmt())
	}
	p.expect(token.RBRACE)
	n.Rng = p.spanFrom(start)
	return n
}

// parseBody parses a braced compound body, or wraps a single statement in
// a synthetic Compound when braces are omitted (spec.md §4.2: "Braced
// compound body is optional for single-statement bodies").
func (p *Parser) parseBody() ast.Stmt {
	if p.at(token.LBRACE) {
		return p.parseCompound()
	}
	start := p.cur().Range.Start
	s := p.parseStmt()
	n := p.arenas.compound.New()
	n.Stmts = []ast.Stmt{s}
	n.Rng = p.spanFrom(start)
	return n
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.advance().Range.Start // if
	p.expect(token.LPAREN)
	cond := p.ParseExpr()
	p.expect(token.RPAREN)
	body := p.parseBody()
	n := p.arenas.ifStmt.New()
	n.Cond = cond
	n.Body = body
	if p.at(token.ELSE) {
		p.advance()
		n.Else = p.parseBody()
	}
	n.Rng = p.spanFrom(start)
	return n
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.advance().Range.Start // while
	p.expect(token.LPAREN)
	cond := p.ParseExpr()
	p.expect(token.RPAREN)
	body := p.parseBody()
	n := p.arenas.whileStmt.New()
	n.Cond = cond
	n.Body = body
	n.Rng = p.spanFrom(start)
	return n
}

func (p *Parser) parseDoWhile() ast.Stmt {
	start := p.advance().Range.Start // do
	body := p.parseBody()
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.ParseExpr()
	p.expect(token.RPAREN)
	p.expect(token.SEMI)
	n := p.arenas.doWhileStmt.New()
	n.Body = body
	n.Cond = cond
	n.Rng = p.spanFrom(start)
	return n
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.advance().Range.Start // for
	p.expect(token.LPAREN)
	n := p.arenas.forStmt.New()
	if !p.at(token.SEMI) {
		n.Prologue = p.parseSimpleForClause()
	} else {
		p.advance()
	}
	if !p.at(token.SEMI) {
		n.Cond = p.ParseExpr()
	}
	p.expect(token.SEMI)
	if !p.at(token.RPAREN) {
		n.Epilogue = p.parseExprStmtNoSemi()
	}
	p.expect(token.RPAREN)
	n.Body = p.parseBody()
	n.Rng = p.spanFrom(start)
	return n
}

// parseSimpleForClause parses the for-loop prologue, which is either a
// variable declaration or an expression statement, each of which consumes
// its own terminating ';'.
func (p *Parser) parseSimpleForClause() ast.Stmt {
	if p.isDeclStart() {
		s := p.parseVarOrFuncDecl()
		return s
	}
	return p.parseExprStmt()
}

// parseExprStmtNoSemi parses a bare expression statement without consuming
// a trailing ';' (used for the for-loop epilogue clause).
func (p *Parser) parseExprStmtNoSemi() ast.Stmt {
	start := p.cur().Range.Start
	e := p.ParseExpr()
	n := p.arenas.exprStmt.New()
	n.Expr = e
	n.Rng = p.spanFrom(start)
	return n
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.advance().Range.Start // return
	n := p.arenas.returnStmt.New()
	if !p.at(token.SEMI) {
		n.Value = p.ParseExpr()
	}
	p.expect(token.SEMI)
	n.Rng = p.spanFrom(start)
	return n
}

func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.cur().Range.Start
	e := p.ParseExpr()
	p.expect(token.SEMI)
	n := p.arenas.exprStmt.New()
	n.Expr = e
	n.Rng = p.spanFrom(start)
	return n
}

// parseVarOrFuncDecl parses "type ident ;", "type ident = expr ;", or
// "type ident ( params ) [body]" (spec.md §4.2's Type-led rule).
func (p *Parser) parseVarOrFuncDecl() ast.Stmt {
	start := p.cur().Range.Start
	tf := p.parseTypeForm()
	nameTok := p.expect(token.IDENT)

	if p.at(token.LPAREN) {
		params := p.parseParamList()
		n := p.arenas.funcDecl.New()
		n.Name = nameTok.Text
		n.ReturnTypeName = tf
		n.Params = params
		if p.at(token.LBRACE) {
			n.Body = p.parseCompound()
		} else {
			p.expect(token.SEMI)
		}
		n.Rng = p.spanFrom(start)
		return n
	}

	n := p.arenas.varDecl.New()
	n.Name = nameTok.Text
	n.TypeName = tf
	if p.at(token.ASSIGN) {
		p.advance()
		n.Init = p.ParseExpr()
	}
	p.expect(token.SEMI)
	n.Rng = p.spanFrom(start)
	return n
}

func (p *Parser) parseParamList() []*ast.ParamDeclStmt {
	p.expect(token.LPAREN)
	var params []*ast.ParamDeclStmt
	if !p.at(token.RPAREN) {
		params = append(params, p.parseParam())
		for p.at(token.COMMA) {
			p.advance()
			params = append(params, p.parseParam())
		}
	}
	p.expect(token.RPAREN)
	return params
}

func (p *Parser) parseParam() *ast.ParamDeclStmt {
	start := p.cur().Range.Start
	tf := p.parseTypeForm()
	nameTok := p.expect(token.IDENT)
	n := p.arenas.paramDecl.New()
	n.Name = nameTok.Text
	n.TypeName = tf
	n.Rng = p.spanFrom(start)
	return n
}

// parseExternFuncDecl parses "extern type ident(params);" (spec.md §4.2:
// "extern implies the function is resolved by name against the host's
// native registry at call sites").
func (p *Parser) parseExternFuncDecl() ast.Stmt {
	start := p.advance().Range.Start // extern
	tf := p.parseTypeForm()
	nameTok := p.expect(token.IDENT)
	params := p.parseParamList()
	p.expect(token.SEMI)
	n := p.arenas.funcDecl.New()
	n.Name = nameTok.Text
	n.ReturnTypeName = tf
	n.Params = params
	n.Extern = true
	n.Rng = p.spanFrom(start)
	return n
}

// parseStructDecl parses "struct Ident { fields; methods }" (spec.md
// §4.2).
func (p *Parser) parseStructDecl() ast.Stmt {
	start := p.advance().Range.Start // struct
	nameTok := p.expect(token.IDENT)
	p.expect(token.LBRACE)

	n := p.arenas.structDecl.New()
	n.Name = nameTok.Text
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		memberStart := p.cur().Range.Start
		tf := p.parseTypeForm()
		memberName := p.expect(token.IDENT)
		if p.at(token.LPAREN) {
			params := p.parseParamList()
			m := p.arenas.funcDecl.New()
			m.Name = memberName.Text
			m.ReturnTypeName = tf
			m.Params = params
			m.Body = p.parseCompound()
			m.Rng = p.spanFrom(memberStart)
			n.Methods = append(n.Methods, m)
		} else {
			p.expect(token.SEMI)
			n.Fields = append(n.Fields, ast.FieldDecl{
				Name: memberName.Text, TypeName: tf, Rng: p.spanFrom(memberStart),
			})
		}
	}
	p.expect(token.RBRACE)
	n.Rng = p.spanFrom(start)
	return n
}
