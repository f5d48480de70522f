package parser

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/raymyers/stackcc/pkg/ast"
	"github.com/raymyers/stackcc/pkg/diag"
	"github.com/raymyers/stackcc/pkg/lexer"
)

var assignOps = map[lexer.TokenType]ast.AssignOp{
	lexer.TokenAssign:        ast.OpAssign,
	lexer.TokenPlusAssign:    ast.OpAddAssign,
	lexer.TokenMinusAssign:   ast.OpSubAssign,
	lexer.TokenStarAssign:    ast.OpMulAssign,
	lexer.TokenSlashAssign:   ast.OpDivAssign,
	lexer.TokenPercentAssign: ast.OpModAssign,
	lexer.TokenAndAssign:     ast.OpAndAssign,
	lexer.TokenOrAssign:      ast.OpOrAssign,
	lexer.TokenXorAssign:     ast.OpXorAssign,
	lexer.TokenShlAssign:     ast.OpShlAssign,
	lexer.TokenShrAssign:     ast.OpShrAssign,
}

// Binary operator levels, loosest first
var (
	logicalOrOps  = map[lexer.TokenType]ast.BinaryOp{lexer.TokenOr: ast.OpOr}
	logicalAndOps = map[lexer.TokenType]ast.BinaryOp{lexer.TokenAnd: ast.OpAnd}
	bitOrOps      = map[lexer.TokenType]ast.BinaryOp{lexer.TokenPipe: ast.OpBitOr}
	bitXorOps     = map[lexer.TokenType]ast.BinaryOp{lexer.TokenCaret: ast.OpBitXor}
	bitAndOps     = map[lexer.TokenType]ast.BinaryOp{lexer.TokenAmpersand: ast.OpBitAnd}
	equalityOps   = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokenEq: ast.OpEq,
		lexer.TokenNe: ast.OpNe,
	}
	relationalOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokenLt: ast.OpLt,
		lexer.TokenLe: ast.OpLe,
		lexer.TokenGt: ast.OpGt,
		lexer.TokenGe: ast.OpGe,
	}
	shiftOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokenShl: ast.OpShl,
		lexer.TokenShr: ast.OpShr,
	}
	additiveOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokenPlus:  ast.OpAdd,
		lexer.TokenMinus: ast.OpSub,
	}
	multiplicativeOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokenStar:    ast.OpMul,
		lexer.TokenSlash:   ast.OpDiv,
		lexer.TokenPercent: ast.OpMod,
	}
)

var prefixOps = map[lexer.TokenType]ast.UnaryOp{
	lexer.TokenMinus:     ast.OpNeg,
	lexer.TokenPlus:      ast.OpPlus,
	lexer.TokenNot:       ast.OpNot,
	lexer.TokenTilde:     ast.OpBitNot,
	lexer.TokenIncrement: ast.OpPreInc,
	lexer.TokenDecrement: ast.OpPreDec,
	lexer.TokenAmpersand: ast.OpAddrOf,
	lexer.TokenStar:      ast.OpDeref,
}

// expression parses a full expression. The comma operator is not
// supported, so this is an assignment expression.
func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

// assignment is right-associative; the target must be an lvalue form
func (p *Parser) assignment() ast.Expr {
	p.enter()
	defer p.leave()

	lhs := p.conditional()
	tok := p.peek()
	op, ok := assignOps[tok.Type]
	if !ok {
		return lhs
	}
	if !ast.IsAssignable(lhs) {
		p.fail(tok, diag.InvalidAssignmentTarget, "cannot assign to %s", ast.ExprString(lhs))
	}
	p.advance()
	return &ast.Assignment{Target: lhs, Op: op, Value: p.assignment()}
}

func (p *Parser) conditional() ast.Expr {
	cond := p.logicalOr()
	if !p.match(lexer.TokenQuestion) {
		return cond
	}
	then := p.expression()
	p.expect(lexer.TokenColon, "in conditional expression")
	return &ast.TernaryIf{Cond: cond, Then: then, Else: p.conditional()}
}

// binary parses one left-associative precedence level
func (p *Parser) binary(next func() ast.Expr, ops map[lexer.TokenType]ast.BinaryOp) ast.Expr {
	expr := next()
	for {
		op, ok := ops[p.peek().Type]
		if !ok {
			return expr
		}
		p.advance()
		expr = &ast.BinaryOperation{Left: expr, Op: op, Right: next()}
	}
}

func (p *Parser) logicalOr() ast.Expr  { return p.binary(p.logicalAnd, logicalOrOps) }
func (p *Parser) logicalAnd() ast.Expr { return p.binary(p.bitOr, logicalAndOps) }
func (p *Parser) bitOr() ast.Expr      { return p.binary(p.bitXor, bitOrOps) }
func (p *Parser) bitXor() ast.Expr     { return p.binary(p.bitAnd, bitXorOps) }
func (p *Parser) bitAnd() ast.Expr     { return p.binary(p.equality, bitAndOps) }
func (p *Parser) equality() ast.Expr   { return p.binary(p.relational, equalityOps) }
func (p *Parser) relational() ast.Expr { return p.binary(p.shift, relationalOps) }
func (p *Parser) shift() ast.Expr      { return p.binary(p.additive, shiftOps) }
func (p *Parser) additive() ast.Expr   { return p.binary(p.multiplicative, additiveOps) }

func (p *Parser) multiplicative() ast.Expr {
	return p.binary(p.unary, multiplicativeOps)
}

func (p *Parser) unary() ast.Expr {
	p.enter()
	defer p.leave()

	tok := p.peek()
	if op, ok := prefixOps[tok.Type]; ok {
		p.advance()
		return &ast.UnaryOperation{Op: op, Operand: p.unary()}
	}
	switch tok.Type {
	case lexer.TokenSizeof:
		p.advance()
		if p.check(lexer.TokenLParen) && p.startsType(p.cur.peekAt(1)) {
			p.advance()
			t := p.typeName()
			p.expect(lexer.TokenRParen, "after type in sizeof")
			return &ast.SizeOfType{Type: t}
		}
		return &ast.SizeOf{Expr: p.unary()}
	case lexer.TokenAlignof:
		p.advance()
		p.expect(lexer.TokenLParen, "after _Alignof")
		if !p.startsType(p.peek()) {
			p.unexpected("type name", false)
		}
		t := p.typeName()
		p.expect(lexer.TokenRParen, "after type in _Alignof")
		return &ast.AlignOf{Type: t}
	}
	return p.postfix()
}

func (p *Parser) postfix() ast.Expr {
	expr := p.primary()
	for {
		tok := p.peek()
		switch tok.Type {
		case lexer.TokenLBracket:
			p.advance()
			idx := p.expression()
			p.expect(lexer.TokenRBracket, "after array index")
			expr = &ast.ArrayAccess{Array: expr, Index: idx}
		case lexer.TokenLParen:
			v, ok := expr.(*ast.Variable)
			if !ok {
				p.fail(tok, diag.NotCallable, "%s is not a function name", ast.ExprString(expr))
			}
			p.advance()
			expr = &ast.FunctionCall{Name: v.Name, Args: p.arguments(), Pos: v.Pos}
		case lexer.TokenDot:
			p.advance()
			field := p.expectIdent("after '.'")
			expr = &ast.StructFieldAccess{Object: expr, Field: field.Lexeme}
		case lexer.TokenArrow:
			p.advance()
			field := p.expectIdent("after '->'")
			expr = &ast.PointerFieldAccess{Pointer: expr, Field: field.Lexeme}
		case lexer.TokenIncrement:
			p.advance()
			expr = &ast.UnaryOperation{Op: ast.OpPostInc, Operand: expr}
		case lexer.TokenDecrement:
			p.advance()
			expr = &ast.UnaryOperation{Op: ast.OpPostDec, Operand: expr}
		default:
			return expr
		}
	}
}

func (p *Parser) arguments() []ast.Expr {
	args := []ast.Expr{}
	if p.match(lexer.TokenRParen) {
		return args
	}
	for {
		args = append(args, p.assignment())
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRParen, "after arguments")
	return args
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()
	switch {
	case tok.Type == lexer.TokenIntLit:
		p.advance()
		return p.intLiteral(tok)
	case tok.Type == lexer.TokenFloatLit:
		p.advance()
		return p.floatLiteral(tok)
	case tok.Type.IsCharLiteral():
		p.advance()
		return charLiteral(tok)
	case tok.Type.IsStringLiteral():
		return p.stringLiteral()
	case tok.Type == lexer.TokenIdent:
		p.advance()
		return &ast.Variable{Name: tok.Lexeme, Pos: pos(tok)}
	case tok.Type == lexer.TokenLParen:
		p.advance()
		if p.startsType(p.peek()) {
			return p.castOrCompound()
		}
		expr := p.expression()
		p.expect(lexer.TokenRParen, "to close parenthesized expression")
		return expr
	case tok.Type == lexer.TokenGeneric:
		return p.genericSelection()
	}
	p.unexpected("expression", false)
	return nil
}

// castOrCompound parses what follows '(' type-name: a cast operand, or
// the initializer list of a compound literal.
func (p *Parser) castOrCompound() ast.Expr {
	t := p.typeName()
	p.expect(lexer.TokenRParen, "after type name")
	if p.check(lexer.TokenLBrace) {
		return &ast.CompoundLiteral{Type: t, Elements: p.initList().Elements}
	}
	return &ast.Cast{Type: t, Expr: p.unary()}
}

func (p *Parser) intLiteral(tok lexer.Token) ast.Expr {
	digits := strings.TrimRight(tok.Lexeme, "uUlL")
	v, err := strconv.ParseUint(digits, 0, 64)
	if err != nil {
		p.fail(tok, diag.InvalidNumber, "integer constant %s is too large", tok.Lexeme)
	}
	return &ast.IntegerLiteral{Value: int64(v), Text: tok.Lexeme}
}

func (p *Parser) floatLiteral(tok lexer.Token) ast.Expr {
	digits := strings.TrimRight(tok.Lexeme, "fFlL")
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		p.fail(tok, diag.InvalidNumber, "invalid floating constant %s", tok.Lexeme)
	}
	return &ast.FloatLiteral{Value: v, Text: tok.Lexeme}
}

// charLiteral decodes a character constant. A narrow constant has type
// int: one byte is sign-extended as a char, several are packed
// big-endian as in GCC.
func charLiteral(tok lexer.Token) ast.Expr {
	enc := encoding(tok.Type)
	lit := &ast.CharLiteral{Encoding: enc}
	if enc != ast.EncodingNone {
		lit.Value, _ = utf8.DecodeRuneInString(tok.Literal)
		return lit
	}
	if len(tok.Literal) == 1 {
		lit.Value = rune(int8(tok.Literal[0]))
		return lit
	}
	var v int32
	for i := 0; i < len(tok.Literal); i++ {
		v = v<<8 | int32(tok.Literal[i])
	}
	lit.Value = v
	return lit
}

// stringLiteral concatenates adjacent string literals
func (p *Parser) stringLiteral() *ast.StringLiteral {
	lit := &ast.StringLiteral{}
	var sb strings.Builder
	for p.peek().Type.IsStringLiteral() {
		tok := p.advance()
		sb.WriteString(tok.Literal)
		if enc := encoding(tok.Type); enc != ast.EncodingNone {
			lit.Encoding = enc
		}
	}
	lit.Value = sb.String()
	return lit
}

func encoding(t lexer.TokenType) ast.Encoding {
	switch t {
	case lexer.TokenWideCharLit, lexer.TokenWideStringLit:
		return ast.EncodingWide
	case lexer.TokenUTF8StringLit:
		return ast.EncodingUTF8
	case lexer.TokenUTF16CharLit, lexer.TokenUTF16StringLit:
		return ast.EncodingUTF16
	case lexer.TokenUTF32CharLit, lexer.TokenUTF32StringLit:
		return ast.EncodingUTF32
	}
	return ast.EncodingNone
}

func (p *Parser) genericSelection() ast.Expr {
	p.advance()
	p.expect(lexer.TokenLParen, "after _Generic")
	g := &ast.GenericSelection{Control: p.assignment()}
	for p.match(lexer.TokenComma) {
		if p.match(lexer.TokenDefault) {
			p.expect(lexer.TokenColon, "after default")
			g.Default = p.assignment()
			continue
		}
		t := p.typeName()
		p.expect(lexer.TokenColon, "after type in generic association")
		g.Assocs = append(g.Assocs, ast.GenericAssoc{Type: t, Expr: p.assignment()})
	}
	p.expect(lexer.TokenRParen, "to close _Generic")
	return g
}
