package parser

import (
	"github.com/ambralang/ambra/ast"
	"github.com/ambralang/ambra/errors"
	"github.com/ambralang/ambra/types"
)

type Parser struct {
	toks        []types.Token
	pos         int
	nextID      ast.NodeID
	diags       []errors.Diagnostic
	lexReported bool
}

func NewParser(toks []types.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse consumes a filtered token sequence and always returns a Program;
// syntax errors are accumulated as diagnostics, the offending statement is
// discarded, and parsing resumes at the next statement boundary.
func Parse(toks []types.Token) (*ast.Program, []errors.Diagnostic) {
	p := NewParser(toks)
	return p.parseProgram(), p.diags
}

// ParseExpr parses a single expression. It returns nil when any error
// occurred during the parse.
func ParseExpr(toks []types.Token) (expr ast.Expr) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(diagnosable); !ok {
				panic(r)
			}
			expr = nil
		}
	}()
	p := NewParser(toks)
	if p.at(types.ERROR) {
		return nil
	}
	return p.expression()
}

// diagnosable is what parse panics carry: a typed error that knows how to
// render itself as a Diagnostic.
type diagnosable interface {
	error
	Diagnostic() errors.Diagnostic
}

// lexFailure rewraps the lexer's ERROR token as a typed error.
func lexFailure(tok types.Token) errors.LexFailed {
	msg := "lexical error"
	if s, ok := tok.Literal.(types.StringLit); ok {
		msg = string(s)
	}
	return errors.LexFailed{Message: msg, Location: tok.Pos}
}

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{Start: p.peek().Pos}
	for !p.at(types.EOF) {
		if p.at(types.ERROR) {
			// the lexer halted; the stream is truncated after this token
			if !p.lexReported {
				p.diags = append(p.diags, lexFailure(p.peek()).Diagnostic())
			}
			break
		}
		before := p.pos
		if s := p.statement(); s != nil {
			prog.Statements = append(prog.Statements, s)
		} else if p.pos == before {
			// recovery stopped on the offending token itself (a stray
			// '}' at top level); skip it or the loop never advances
			p.advance()
		}
	}
	prog.End = p.peek().Pos
	prog.HadError = len(p.diags) > 0
	return prog
}

// statement parses one statement, converting any parse panic into a
// diagnostic and resynchronizing so unrelated errors still surface.
func (p *Parser) statement() (s ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			d, ok := r.(diagnosable)
			if !ok {
				panic(r)
			}
			if _, lexical := r.(errors.LexFailed); lexical {
				p.lexReported = true
			}
			p.diags = append(p.diags, d.Diagnostic())
			p.synchronize()
			s = nil
		}
	}()
	return p.parseStmt()
}

func (p *Parser) parseStmt() ast.Stmt {
	tok := p.peek()
	switch tok.Kind {
	case types.SUMMON:
		return p.parseSummon()
	case types.SAY:
		return p.parseSay()
	case types.LBRACE:
		return p.parseBlock()
	case types.SHOULD:
		return p.parseIfChain()
	case types.ASLONGAS:
		return p.parseWhile()
	case types.ERROR:
		panic(lexFailure(tok))
	}
	panic(errors.ExpectedOneOfKindGotKind{
		Expected: []types.TokenKind{types.SUMMON, types.SAY, types.LBRACE, types.SHOULD, types.ASLONGAS},
		Got:      tok.Kind,
		Location: tok.Pos,
	})
}

func (p *Parser) parseSummon() ast.Stmt {
	kw := p.advance()
	name := p.expect(types.IDENT)
	p.expect(types.EQUALS)
	init := p.expression()
	p.expect(types.SEMICOLON)
	return ast.Summon{Loc: kw.Pos, Name: name.Lexeme, NameLoc: name.Pos, Init: init}
}

func (p *Parser) parseSay() ast.Stmt {
	kw := p.advance()
	x := p.expression()
	p.expect(types.SEMICOLON)
	return ast.Say{Loc: kw.Pos, X: x}
}

func (p *Parser) parseBlock() *ast.Block {
	open := p.expect(types.LBRACE)
	blk := &ast.Block{Loc: open.Pos}
	for !p.at(types.RBRACE) && !p.at(types.EOF) && !p.at(types.ERROR) {
		if s := p.statement(); s != nil {
			blk.Stmts = append(blk.Stmts, s)
		}
	}
	p.expect(types.RBRACE)
	return blk
}

func (p *Parser) parseIfChain() ast.Stmt {
	kw := p.advance()
	chain := ast.IfChain{Loc: kw.Pos}
	chain.Branches = append(chain.Branches, p.parseBranch())

	for p.at(types.OTHERWISE) {
		p.advance()
		if p.at(types.SHOULD) {
			p.advance()
			chain.Branches = append(chain.Branches, p.parseBranch())
			continue
		}
		chain.Else = p.parseBlock()
		break
	}
	return chain
}

func (p *Parser) parseBranch() ast.IfBranch {
	p.expect(types.LPAREN)
	cond := p.expression()
	p.expect(types.RPAREN)
	return ast.IfBranch{Cond: cond, Body: p.parseBlock()}
}

func (p *Parser) parseWhile() ast.Stmt {
	kw := p.advance()
	p.expect(types.LPAREN)
	cond := p.expression()
	p.expect(types.RPAREN)
	return ast.While{Loc: kw.Pos, Cond: cond, Body: p.parseBlock()}
}

// synchronize skips forward to the next statement boundary after an error:
// past the next semicolon, or up to a token that can begin or end a
// statement.
func (p *Parser) synchronize() {
	for !p.at(types.EOF) && !p.at(types.ERROR) {
		if p.at(types.SEMICOLON) {
			p.advance()
			return
		}
		switch p.peek().Kind {
		case types.SUMMON, types.SAY, types.SHOULD, types.ASLONGAS, types.LBRACE, types.RBRACE:
			return
		}
		p.advance()
	}
}

// Precedence climbing, lowest to highest: equality, comparison, addition,
// multiplication, unary, primary. All binary levels are left-associative.

func (p *Parser) expression() ast.Expr {
	return p.equality()
}

func (p *Parser) equality() ast.Expr {
	left := p.comparison()
	for {
		var op ast.BinOp
		switch p.peek().Kind {
		case types.EQEQ:
			op = ast.OpEq
		case types.BANGEQ:
			op = ast.OpNeq
		default:
			return left
		}
		p.advance()
		right := p.comparison()
		left = ast.Binary{ExprNode: p.node(left.Pos()), Left: left, Op: op, Right: right}
	}
}

func (p *Parser) comparison() ast.Expr {
	left := p.addition()
	for {
		var op ast.BinOp
		switch p.peek().Kind {
		case types.LESS:
			op = ast.OpLt
		case types.LESSEQ:
			op = ast.OpLtEq
		case types.GREATER:
			op = ast.OpGt
		case types.GREATEREQ:
			op = ast.OpGtEq
		default:
			return left
		}
		p.advance()
		right := p.addition()
		left = ast.Binary{ExprNode: p.node(left.Pos()), Left: left, Op: op, Right: right}
	}
}

func (p *Parser) addition() ast.Expr {
	left := p.mult()
	for {
		var op ast.BinOp
		switch p.peek().Kind {
		case types.PLUS:
			op = ast.OpAdd
		case types.MINUS:
			op = ast.OpSub
		default:
			return left
		}
		p.advance()
		right := p.mult()
		left = ast.Binary{ExprNode: p.node(left.Pos()), Left: left, Op: op, Right: right}
	}
}

func (p *Parser) mult() ast.Expr {
	left := p.unary()
	for {
		var op ast.BinOp
		switch p.peek().Kind {
		case types.STAR:
			op = ast.OpMul
		case types.SLASH:
			op = ast.OpDiv
		default:
			return left
		}
		p.advance()
		right := p.unary()
		left = ast.Binary{ExprNode: p.node(left.Pos()), Left: left, Op: op, Right: right}
	}
}

func (p *Parser) unary() ast.Expr {
	switch p.peek().Kind {
	case types.NOT:
		tok := p.advance()
		return ast.Unary{ExprNode: p.node(tok.Pos), Op: ast.UnaryNot, Operand: p.unary()}
	case types.MINUS:
		tok := p.advance()
		return ast.Unary{ExprNode: p.node(tok.Pos), Op: ast.UnaryNeg, Operand: p.unary()}
	}
	return p.primary()
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case types.INT:
		p.advance()
		return ast.IntLit{ExprNode: p.node(tok.Pos), Value: int32(tok.Literal.(types.IntLit))}
	case types.BOOL:
		p.advance()
		return ast.BoolLit{ExprNode: p.node(tok.Pos), Value: bool(tok.Literal.(types.BoolLit))}
	case types.IDENT:
		p.advance()
		return ast.Ident{ExprNode: p.node(tok.Pos), Name: tok.Lexeme}
	case types.LPAREN:
		p.advance()
		inner := p.expression()
		p.expect(types.RPAREN)
		return ast.Grouping{ExprNode: p.node(tok.Pos), Inner: inner}
	case types.STRING:
		return p.parseStringSequence()
	case types.ERROR:
		panic(lexFailure(tok))
	}
	panic(errors.ExpectedOneOfKindGotKind{
		Expected: []types.TokenKind{types.INT, types.BOOL, types.STRING, types.IDENT, types.LPAREN},
		Got:      tok.Kind,
		Location: tok.Pos,
	})
}

// parseStringSequence collapses a run of string-chunk tokens and embedded
// INTERP_START expr INTERP_END groups into one interpolated-string
// expression located at the first chunk.
func (p *Parser) parseStringSequence() ast.Expr {
	first := p.expect(types.STRING)
	parts := []ast.StringPart{ast.TextPart{Text: string(first.Literal.(types.StringLit)), Loc: first.Pos}}

	for p.at(types.INTERP_START) {
		p.advance()
		embedded := p.expression()
		p.expect(types.INTERP_END)
		parts = append(parts, ast.ExprPart{X: embedded})

		// the chunk directly after INTERP_END always belongs to this
		// literal; the lexer emits one even when it is empty
		chunk := p.expect(types.STRING)
		parts = append(parts, ast.TextPart{Text: string(chunk.Literal.(types.StringLit)), Loc: chunk.Pos})
	}
	return ast.InterpString{ExprNode: p.node(first.Pos), Parts: parts}
}

func (p *Parser) node(at types.Position) ast.ExprNode {
	n := ast.ExprNode{Loc: at, NID: p.nextID}
	p.nextID++
	return n
}

func (p *Parser) peek() types.Token {
	if p.pos >= len(p.toks) {
		if len(p.toks) == 0 {
			return types.Token{Kind: types.EOF}
		}
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *Parser) at(k types.TokenKind) bool { return p.peek().Kind == k }

func (p *Parser) advance() types.Token {
	t := p.peek()
	if t.Kind != types.EOF && p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k types.TokenKind) types.Token {
	tok := p.peek()
	if tok.Kind == types.ERROR {
		panic(lexFailure(tok))
	}
	if tok.Kind != k {
		panic(errors.ExpectedKindGotKind{Expected: k, Got: tok.Kind, Location: tok.Pos})
	}
	return p.advance()
}
