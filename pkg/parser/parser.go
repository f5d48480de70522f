// Package parser implements a recursive descent parser for C. Expressions
// are parsed by precedence climbing through one function per level;
// declarations use a declarator parser that supports nested pointer,
// array and function derivations.
package parser

import (
	"fmt"
	"strings"

	"github.com/raymyers/stackcc/pkg/ast"
	"github.com/raymyers/stackcc/pkg/diag"
	"github.com/raymyers/stackcc/pkg/lexer"
)

// maxDepth bounds expression and statement nesting so pathological input
// reports an error instead of exhausting the stack.
const maxDepth = 512

// Parser parses a token stream into an AST. A Parser is single-use and
// must not be shared between goroutines.
type Parser struct {
	cur      cursor
	lines    []string        // source lines for snippets, when known
	typedefs map[string]bool // typedef names declared so far
	sizes    map[*ast.Array]ast.Expr
	prog     *ast.Program
	pending  []ast.Stmt // enumerator declarations awaiting placement
	depth    int
	anon     int
}

// bailout carries the first error up to the entry point
type bailout struct {
	err *diag.Error
}

// New creates a new Parser over tokens. The slice should end with an EOF
// token, as produced by the lexer; one is appended otherwise.
func New(tokens []lexer.Token) *Parser {
	return &Parser{
		cur:      newCursor(stripExtensions(tokens)),
		typedefs: builtinTypedefs(),
		sizes:    make(map[*ast.Array]ast.Expr),
		prog:     &ast.Program{},
	}
}

// ParseSource lexes and parses src, attaching source snippets to errors
func ParseSource(src string) (*ast.Program, error) {
	p := New(lexer.Scan(src))
	p.SetSource(src)
	return p.Parse()
}

// SetSource supplies the original text so errors quote the exact source
// line instead of one rebuilt from tokens.
func (p *Parser) SetSource(src string) {
	p.lines = strings.Split(src, "\n")
}

// Parse parses a whole translation unit. It stops at the first error,
// which is always a *diag.Error.
func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer p.catch(&err)

	for !p.cur.atEnd() {
		p.topLevel()
	}
	return p.prog, nil
}

// ParseStatement parses one statement at the cursor. Together with
// Synchronize it lets tools collect several diagnostics from one input.
func (p *Parser) ParseStatement() (stmt ast.Stmt, err error) {
	defer p.catch(&err)

	stmts := p.blockItem()
	switch len(stmts) {
	case 0:
		return &ast.Empty{}, nil
	case 1:
		return stmts[0], nil
	default:
		return &ast.Block{Stmts: stmts}, nil
	}
}

// ParseExpression parses a single expression at the cursor
func (p *Parser) ParseExpression() (expr ast.Expr, err error) {
	defer p.catch(&err)
	return p.expression(), nil
}

// AtEnd reports whether every token has been consumed
func (p *Parser) AtEnd() bool {
	return p.cur.atEnd()
}

// Synchronize discards tokens up to the next statement boundary: just
// past a ';' or '}', or before a keyword that starts a statement. Parse
// never calls it.
func (p *Parser) Synchronize() {
	p.depth = 0
	if !p.cur.atEnd() {
		p.cur.advance()
	}
	for !p.cur.atEnd() {
		switch p.cur.previous().Type {
		case lexer.TokenSemicolon, lexer.TokenRBrace:
			return
		}
		switch p.cur.peek().Type {
		case lexer.TokenIf, lexer.TokenWhile, lexer.TokenDo, lexer.TokenFor,
			lexer.TokenReturn, lexer.TokenSwitch, lexer.TokenBreak,
			lexer.TokenContinue, lexer.TokenGoto, lexer.TokenLBrace:
			return
		}
		p.cur.advance()
	}
}

func (p *Parser) catch(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

// fail aborts parsing with an error at tok
func (p *Parser) fail(tok lexer.Token, kind diag.Kind, format string, args ...any) {
	err := diag.Newf(kind, tok.Line, tok.Column, format, args...)
	err.WithSnippet(p.sourceLine(tok.Line))
	panic(bailout{err})
}

// sourceLine returns line as written when the source is known, otherwise
// reconstructed from the tokens that start on it
func (p *Parser) sourceLine(line int) string {
	if line <= 0 {
		return ""
	}
	if line <= len(p.lines) {
		return p.lines[line-1]
	}

	var sb strings.Builder
	col := 1
	for _, tok := range p.cur.lineTokens(line) {
		if tok.Column > col {
			sb.WriteString(strings.Repeat(" ", tok.Column-col))
			col = tok.Column
		}
		sb.WriteString(tok.Lexeme)
		col += len(tok.Lexeme)
	}
	return sb.String()
}

// peek returns the next token, failing on lexical error tokens
func (p *Parser) peek() lexer.Token {
	tok := p.cur.peek()
	if tok.Type == lexer.TokenError {
		lexErr := lexer.ErrorOf(tok)
		p.fail(tok, lexErr.Kind, "%s", lexErr.Context)
	}
	return tok
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	p.peek()
	return p.cur.match(types...)
}

func (p *Parser) advance() lexer.Token {
	p.peek()
	return p.cur.advance()
}

// expect consumes a token of type t or fails, naming what was expected
func (p *Parser) expect(t lexer.TokenType, context string) lexer.Token {
	tok := p.peek()
	if tok.Type == t {
		return p.cur.advance()
	}
	p.unexpected(fmt.Sprintf("'%s' %s", t, context), isPunctuation(t))
	return tok
}

func (p *Parser) expectIdent(context string) lexer.Token {
	tok := p.peek()
	if tok.Type != lexer.TokenIdent {
		p.unexpected("identifier "+context, false)
	}
	return p.cur.advance()
}

// unexpected fails at the next token. Missing punctuation is reported
// with its own kind since it is the most common slip.
func (p *Parser) unexpected(expected string, punct bool) {
	tok := p.peek()
	switch {
	case tok.Type == lexer.TokenEOF:
		p.fail(tok, diag.UnexpectedEOF, "expected %s", expected)
	case punct:
		p.fail(tok, diag.MissingPunctuation, "expected %s, got '%s'", expected, tok.Lexeme)
	default:
		p.fail(tok, diag.UnexpectedToken, "expected %s, got '%s'", expected, tok.Lexeme)
	}
}

func isPunctuation(t lexer.TokenType) bool {
	switch t {
	case lexer.TokenSemicolon, lexer.TokenComma, lexer.TokenColon,
		lexer.TokenRParen, lexer.TokenRBracket, lexer.TokenRBrace,
		lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenLBrace:
		return true
	}
	return false
}

func (p *Parser) enter() {
	p.depth++
	if p.depth > maxDepth {
		p.fail(p.cur.peek(), diag.NestingTooDeep, "more than %d nested levels", maxDepth)
	}
}

func (p *Parser) leave() {
	p.depth--
}

func pos(tok lexer.Token) ast.Pos {
	return ast.Pos{Line: tok.Line, Column: tok.Column}
}

// skipDirective consumes a directive line: the '#' and every token that
// starts on the same line. #include targets are recorded.
func (p *Parser) skipDirective() {
	hash := p.cur.advance()
	if p.cur.check(lexer.TokenPPInclude) {
		p.cur.advance()
		if tok := p.cur.peek(); tok.Line == hash.Line &&
			(tok.Type == lexer.TokenHeaderName || tok.Type == lexer.TokenStringLit) {
			p.prog.Includes = append(p.prog.Includes, tok.Literal)
		}
	}
	for !p.cur.atEnd() && p.cur.peek().Line == hash.Line {
		p.cur.advance()
	}
}
