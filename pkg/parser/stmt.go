package parser

import (
	"github.com/raymyers/stackcc/pkg/ast"
	"github.com/raymyers/stackcc/pkg/diag"
	"github.com/raymyers/stackcc/pkg/lexer"
)

// blockItem parses a declaration or a statement. A declaration yields
// one statement per declarator; a directive line yields none.
func (p *Parser) blockItem() []ast.Stmt {
	tok := p.peek()
	if tok.Type == lexer.TokenHash {
		p.skipDirective()
		return nil
	}
	if p.startsDeclaration(tok) && !p.atLabel() {
		return p.localDeclaration()
	}
	return []ast.Stmt{p.statement()}
}

func (p *Parser) atLabel() bool {
	return p.cur.peek().Type == lexer.TokenIdent && p.cur.peekAt(1).Type == lexer.TokenColon
}

func (p *Parser) statement() ast.Stmt {
	p.enter()
	defer p.leave()

	tok := p.peek()
	switch tok.Type {
	case lexer.TokenLBrace:
		return p.block()
	case lexer.TokenIf:
		return p.ifStatement()
	case lexer.TokenWhile:
		p.advance()
		cond := p.condition("while")
		return &ast.While{Cond: cond, Body: p.statement()}
	case lexer.TokenDo:
		p.advance()
		body := p.statement()
		p.expect(lexer.TokenWhile, "after do body")
		cond := p.condition("while")
		p.expect(lexer.TokenSemicolon, "after do-while")
		return &ast.DoWhile{Body: body, Cond: cond}
	case lexer.TokenFor:
		return p.forStatement()
	case lexer.TokenSwitch:
		return p.switchStatement()
	case lexer.TokenReturn:
		p.advance()
		ret := &ast.Return{Pos: pos(tok)}
		if !p.match(lexer.TokenSemicolon) {
			ret.Expr = p.expression()
			p.expect(lexer.TokenSemicolon, "after return value")
		}
		return ret
	case lexer.TokenBreak:
		p.advance()
		p.expect(lexer.TokenSemicolon, "after break")
		return &ast.Break{Pos: pos(tok)}
	case lexer.TokenContinue:
		p.advance()
		p.expect(lexer.TokenSemicolon, "after continue")
		return &ast.Continue{Pos: pos(tok)}
	case lexer.TokenGoto:
		p.advance()
		label := p.expectIdent("after goto")
		p.expect(lexer.TokenSemicolon, "after goto label")
		return &ast.Goto{Label: label.Lexeme}
	case lexer.TokenSemicolon:
		p.advance()
		return &ast.Empty{}
	case lexer.TokenStaticAssert:
		return p.staticAssert()
	case lexer.TokenCase, lexer.TokenDefault:
		p.fail(tok, diag.UnexpectedToken, "'%s' label not within a switch statement", tok.Lexeme)
	case lexer.TokenIdent:
		if p.atLabel() {
			p.advance()
			p.advance()
			label := &ast.Label{Name: tok.Lexeme}
			if p.check(lexer.TokenRBrace) {
				label.Stmt = &ast.Empty{}
			} else {
				label.Stmt = p.statement()
			}
			return label
		}
	}
	if p.startsDeclaration(tok) {
		p.fail(tok, diag.InvalidDeclaration, "a declaration is not allowed here")
	}

	expr := p.expression()
	p.expect(lexer.TokenSemicolon, "after expression")
	return &ast.ExpressionStatement{Expr: expr}
}

// condition parses a parenthesized controlling expression
func (p *Parser) condition(after string) ast.Expr {
	p.expect(lexer.TokenLParen, "after "+after)
	cond := p.expression()
	p.expect(lexer.TokenRParen, "after condition")
	return cond
}

func (p *Parser) block() *ast.Block {
	p.expect(lexer.TokenLBrace, "to open block")
	b := &ast.Block{}
	for !p.check(lexer.TokenRBrace) {
		if p.check(lexer.TokenEOF) {
			p.unexpected("'}' to close block", true)
		}
		b.Stmts = append(b.Stmts, p.blockItem()...)
	}
	p.advance()
	return b
}

func (p *Parser) ifStatement() ast.Stmt {
	p.advance()
	s := &ast.If{Cond: p.condition("if")}
	s.Then = p.statement()
	if p.match(lexer.TokenElse) {
		s.Else = p.statement()
	}
	return s
}

func (p *Parser) forStatement() ast.Stmt {
	p.advance()
	p.expect(lexer.TokenLParen, "after for")
	s := &ast.For{}

	switch {
	case p.match(lexer.TokenSemicolon):
	case p.startsDeclaration(p.peek()):
		decls := p.localDeclaration()
		if len(decls) == 1 {
			s.Init = decls[0]
		} else {
			s.Init = &ast.Block{Stmts: decls}
		}
	default:
		s.Init = &ast.ExpressionStatement{Expr: p.expression()}
		p.expect(lexer.TokenSemicolon, "after for initializer")
	}
	if !p.check(lexer.TokenSemicolon) {
		s.Cond = p.expression()
	}
	p.expect(lexer.TokenSemicolon, "after for condition")
	if !p.check(lexer.TokenRParen) {
		s.Post = p.expression()
	}
	p.expect(lexer.TokenRParen, "after for clauses")
	s.Body = p.statement()
	return s
}

// switchStatement parses a switch whose body is a brace-enclosed list of
// case and default sections.
func (p *Parser) switchStatement() ast.Stmt {
	p.advance()
	s := &ast.Switch{Expr: p.condition("switch")}
	p.expect(lexer.TokenLBrace, "to open switch body")

	var cur *ast.SwitchCase
	for !p.check(lexer.TokenRBrace) {
		tok := p.peek()
		switch tok.Type {
		case lexer.TokenCase:
			p.advance()
			cur = &ast.SwitchCase{Value: p.conditional()}
			p.expect(lexer.TokenColon, "after case value")
			s.Cases = append(s.Cases, cur)
		case lexer.TokenDefault:
			p.advance()
			p.expect(lexer.TokenColon, "after default")
			cur = &ast.SwitchCase{}
			s.Cases = append(s.Cases, cur)
		case lexer.TokenEOF:
			p.unexpected("'}' to close switch body", true)
		default:
			if cur == nil {
				p.fail(tok, diag.UnexpectedToken, "statement before first case label")
			}
			cur.Stmts = append(cur.Stmts, p.blockItem()...)
		}
	}
	p.advance()
	return s
}
