package parser

import "github.com/raymyers/stackcc/pkg/lexer"

// cursor walks an immutable token slice. Lookahead is bounded; it never
// moves backwards.
type cursor struct {
	toks []lexer.Token
	pos  int
}

func newCursor(toks []lexer.Token) cursor {
	if n := len(toks); n == 0 || toks[n-1].Type != lexer.TokenEOF {
		eof := lexer.Token{Type: lexer.TokenEOF}
		if n > 0 {
			eof.Line = toks[n-1].Line
			eof.Column = toks[n-1].Column + len(toks[n-1].Lexeme)
		}
		toks = append(toks[:n:n], eof)
	}
	return cursor{toks: toks}
}

func (c *cursor) peek() lexer.Token {
	return c.toks[c.pos]
}

// peekAt returns the token n positions ahead, clamped to EOF
func (c *cursor) peekAt(n int) lexer.Token {
	if c.pos+n >= len(c.toks) {
		return c.toks[len(c.toks)-1]
	}
	return c.toks[c.pos+n]
}

func (c *cursor) previous() lexer.Token {
	if c.pos == 0 {
		return c.toks[0]
	}
	return c.toks[c.pos-1]
}

func (c *cursor) atEnd() bool {
	return c.toks[c.pos].Type == lexer.TokenEOF
}

func (c *cursor) advance() lexer.Token {
	tok := c.toks[c.pos]
	if !c.atEnd() {
		c.pos++
	}
	return tok
}

func (c *cursor) check(t lexer.TokenType) bool {
	return c.toks[c.pos].Type == t
}

// match consumes the next token if it has one of the given types
func (c *cursor) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if c.check(t) {
			c.advance()
			return true
		}
	}
	return false
}

// lineTokens returns the tokens that start on line, in order
func (c *cursor) lineTokens(line int) []lexer.Token {
	var out []lexer.Token
	for _, tok := range c.toks {
		if tok.Line == line && tok.Type != lexer.TokenEOF {
			out = append(out, tok)
		}
	}
	return out
}
