package parser

import (
	"strconv"
	"strings"

	"github.com/blacklua-lang/blacklua/lang/ast"
	"github.com/blacklua-lang/blacklua/lang/token"
)

// binopPriority maps each binary-operator token kind to its precedence
// level, per spec.md §4.2's table (higher binds tighter).
var binopPriority = map[token.Kind]int{
	token.ASSIGN: 10, token.PLUS_EQ: 10, token.MINUS_EQ: 10, token.STAR_EQ: 10,
	token.SLASH_EQ: 10, token.PCT_EQ: 10, token.AMP_EQ: 10, token.PIPE_EQ: 10, token.CARET_EQ: 10,

	token.LT: 20, token.LE: 20, token.GT: 20, token.GE: 20,
	token.EQ: 20, token.NEQ: 20, token.AMP_AMP: 20, token.PIPE_PIPE: 20,

	token.AMP: 30, token.PIPE: 30, token.CARET: 30,

	token.PLUS: 40, token.MINUS: 40,

	token.STAR: 50, token.SLASH: 50, token.PERCENT: 50,
}

var binopKind = map[token.Kind]ast.BinaryOp{
	token.ASSIGN: ast.Assign,
	token.PLUS_EQ: ast.AddAssign, token.MINUS_EQ: ast.SubAssign, token.STAR_EQ: ast.MulAssign,
	token.SLASH_EQ: ast.DivAssign, token.PCT_EQ: ast.ModAssign,
	token.AMP_EQ: ast.BitAndAssign, token.PIPE_EQ: ast.BitOrAssign, token.CARET_EQ: ast.BitXorAssign,

	token.LT: ast.Less, token.LE: ast.LessEq, token.GT: ast.Greater, token.GE: ast.GreaterEq,
	token.EQ: ast.EqualOp, token.NEQ: ast.NotEqual,
	token.AMP_AMP: ast.LogicalAnd, token.PIPE_PIPE: ast.LogicalOr,

	token.AMP: ast.BitAnd, token.PIPE: ast.BitOr, token.CARET: ast.BitXor,

	token.PLUS: ast.Add, token.MINUS: ast.Sub,
	token.STAR: ast.Mul, token.SLASH: ast.Div, token.PERCENT: ast.Mod,
}

func (p *Parser) isBinop() (ast.BinaryOp, int, bool) {
	prio, ok := binopPriority[p.cur().Kind]
	if !ok {
		return 0, 0, false
	}
	return binopKind[p.cur().Kind], prio, true
}

// ParseExpr parses a full expression.
func (p *Parser) ParseExpr() ast.Expr { return p.parseSubExpr(0) }

// parseSubExpr climbs operators whose precedence exceeds minPrec,
// left-associatively, per spec.md §4.2.
func (p *Parser) parseSubExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		op, prio, ok := p.isBinop()
		if !ok || prio <= minPrec {
			break
		}
		opTok := p.advance()
		rhs := p.parseSubExpr(prio)
		left = p.newBinary(op, left, rhs, opTok)
	}
	return left
}

func (p *Parser) newBinary(op ast.BinaryOp, lhs, rhs ast.Expr, opTok token.Token) ast.Expr {
	n := p.arenas.binary.New()
	n.Op = op
	n.LHS = lhs
	n.RHS = rhs
	n.Rng = token.SourceRange{Start: lhs.Range().Start, End: rhs.Range().End}
	return n
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case token.MINUS:
		start := p.cur().Range.Start
		p.advance()
		inner := p.parseUnary()
		n := p.arenas.unary.New()
		n.Op = ast.Negate
		n.Inner = inner
		n.Rng = token.SourceRange{Start: start, End: inner.Range().End}
		return n
	case token.BANG:
		start := p.cur().Range.Start
		p.advance()
		inner := p.parseUnary()
		n := p.arenas.unary.New()
		n.Op = ast.Not
		n.Inner = inner
		n.Rng = token.SourceRange{Start: start, End: inner.Range().End}
		return n
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary value followed by any chain of call,
// member, array-index, or method-call suffixes.
func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.DOT:
			start := e.Range().Start
			p.advance()
			nameTok := p.expect(token.IDENT)
			if p.at(token.LPAREN) {
				args := p.parseArgs()
				n := p.arenas.methodCall.New()
				n.Parent = e
				n.Name = nameTok.Text
				n.Args = args
				n.Rng = p.spanFrom(start)
				e = n
			} else {
				n := p.arenas.member.New()
				n.Parent = e
				n.Name = nameTok.Text
				n.Rng = p.spanFrom(start)
				e = n
			}
		case token.LBRACK:
			start := e.Range().Start
			p.advance()
			idx := p.ParseExpr()
			p.expect(token.RBRACK)
			n := p.arenas.arrayAccess.New()
			n.Parent = e
			n.Index = idx
			n.Rng = p.spanFrom(start)
			e = n
		default:
			return e
		}
	}
}

func (p *Parser) parseArgs() []ast.Expr {
	p.expect(token.LPAREN)
	var args []ast.Expr
	if !p.at(token.RPAREN) {
		args = append(args, p.ParseExpr())
		for p.at(token.COMMA) {
			p.advance()
			args = append(args, p.ParseExpr())
		}
	}
	p.expect(token.RPAREN)
	return args
}

// isTypeFormStart reports whether a token of kind k begins a type form
// (primitive keyword or identifier), used to disambiguate "(expr)" from
// "(type) expr" casts with one token of lookahead on the token *after* the
// opening paren.
func isTypeFormStart(k token.Kind) bool {
	return k.IsTypeName() || k == token.IDENT
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.cur().Range.Start
	switch p.cur().Kind {
	case token.LPAREN:
		// Disambiguate a cast "(type) expr" from a grouping "(expr)" by
		// checking whether, immediately after a type-form token (and an
		// optional "[]"), the next token closes the parens (spec.md §4.2).
		if p.castLookaheadMatches() {
			p.advance() // (
			tf := p.parseTypeForm()
			p.expect(token.RPAREN)
			inner := p.parseUnary()
			n := p.arenas.cast.New()
			n.TypeName = tf
			n.Inner = inner
			n.Rng = p.spanFrom(start)
			return n
		}
		p.advance() // (
		inner := p.ParseExpr()
		p.expect(token.RPAREN)
		n := p.arenas.paren.New()
		n.Inner = inner
		n.Rng = p.spanFrom(start)
		return n

	case token.SELF:
		p.advance()
		n := p.arenas.self.New()
		n.Rng = p.spanFrom(start)
		return n

	case token.TRUE, token.FALSE:
		tok := p.advance()
		n := p.arenas.constant.New()
		n.ConstKind = ast.ConstBool
		n.Bool = tok.Kind == token.TRUE
		n.Rng = p.spanFrom(start)
		return n

	case token.CHARLIT:
		tok := p.advance()
		n := p.arenas.constant.New()
		n.ConstKind = ast.ConstChar
		if len(tok.Text) > 0 {
			n.Int = int64(tok.Text[0])
		}
		n.Rng = p.spanFrom(start)
		return n

	case token.STRINGLIT:
		tok := p.advance()
		n := p.arenas.constant.New()
		n.ConstKind = ast.ConstString
		n.Str = tok.Text
		n.Rng = p.spanFrom(start)
		return n

	case token.INTLIT, token.UINTLIT, token.LONGLIT, token.ULONGLIT:
		return p.parseIntConstant(start)

	case token.FLOATLIT, token.DOUBLELIT:
		return p.parseFloatConstant(start)

	case token.IDENT:
		nameTok := p.advance()
		if p.at(token.LPAREN) {
			args := p.parseArgs()
			n := p.arenas.call.New()
			n.Name = nameTok.Text
			n.Args = args
			n.Rng = p.spanFrom(start)
			return n
		}
		n := p.arenas.varRef.New()
		n.Name = nameTok.Text
		n.Rng = p.spanFrom(start)
		return n

	default:
		p.errorf(p.cur().Range, "expected expression, found %s", p.cur().Kind)
		tok := p.advance()
		n := p.arenas.badExpr.New()
		n.Rng = tok.Range
		return n
	}
}

func (p *Parser) parseIntConstant(start token.Pos) ast.Expr {
	tok := p.advance()
	digits := strings.TrimRightFunc(tok.Text, func(r rune) bool {
		return r == 'u' || r == 'U' || r == 'l' || r == 'L'
	})
	v, _ := strconv.ParseInt(digits, 10, 64)
	n := p.arenas.constant.New()
	switch tok.Kind {
	case token.UINTLIT:
		n.ConstKind = ast.ConstUInt
	case token.LONGLIT:
		n.ConstKind = ast.ConstLong
	case token.ULONGLIT:
		n.ConstKind = ast.ConstULong
	default:
		n.ConstKind = ast.ConstInt
	}
	n.Int = v
	n.Rng = p.spanFrom(start)
	return n
}

func (p *Parser) parseFloatConstant(start token.Pos) ast.Expr {
	tok := p.advance()
	digits := strings.TrimRightFunc(tok.Text, func(r rune) bool { return r == 'f' || r == 'F' })
	v, _ := strconv.ParseFloat(digits, 64)
	n := p.arenas.constant.New()
	if tok.Kind == token.FLOATLIT {
		n.ConstKind = ast.ConstFloat
	} else {
		n.ConstKind = ast.ConstDouble
	}
	n.Float = v
	n.Rng = p.spanFrom(start)
	return n
}

// castLookaheadMatches checks, without consuming input, whether the tokens
// following the current '(' form "type [ '[' ']' ] )".
func (p *Parser) castLookaheadMatches() bool {
	i := p.pos + 1
	if i >= len(p.toks) || !isTypeFormStart(p.toks[i].Kind) {
		return false
	}
	i++
	if i+1 < len(p.toks) && p.toks[i].Kind == token.LBRACK && p.toks[i+1].Kind == token.RBRACK {
		i += 2
	}
	return i < len(p.toks) && p.toks[i].Kind == token.RPAREN
}

// parseTypeForm parses a primitive keyword or identifier, optionally
// followed by "[]".
func (p *Parser) parseTypeForm() ast.TypeForm {
	start := p.cur().Range.Start
	nameTok := p.advance()
	tf := ast.TypeForm{Name: nameTok.Text}
	if tf.Name == "" {
		tf.Name = nameTok.Kind.String()
	}
	if p.at(token.LBRACK) {
		p.advance()
		p.expect(token.RBRACK)
		tf.IsArray = true
	}
	tf.Rng = p.spanFrom(start)
	return tf
}
