package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes C source code
type Lexer struct {
	src    string
	tokens []Token

	start   int // offset of the token being scanned
	current int // offset of the next unread byte
	line    int
	column  int

	startLine   int
	startColumn int

	atLineStart bool // no token has been produced on the current line yet
	inDirective bool // scanning the remainder of a directive line
	includes    []string
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	input = strings.TrimPrefix(input, "\uFEFF")
	return &Lexer{src: input, line: 1, column: 1, atLineStart: true}
}

// Scan tokenizes src in one pass
func Scan(src string) []Token {
	return New(src).Scan()
}

// Scan tokenizes the whole input. The result always ends with a single
// EOF token; malformed input produces TokenError tokens rather than
// stopping the scan.
func (l *Lexer) Scan() []Token {
	for !l.atEnd() {
		l.start = l.current
		l.startLine, l.startColumn = l.line, l.column
		l.scanToken()
	}
	l.tokens = append(l.tokens, Token{Type: TokenEOF, Line: l.line, Column: l.column})
	return l.tokens
}

// Includes returns the targets of the #include directives seen so far,
// in source order.
func (l *Lexer) Includes() []string {
	return l.includes
}

func (l *Lexer) atEnd() bool {
	return l.current >= len(l.src)
}

func (l *Lexer) advance() byte {
	c := l.src[l.current]
	l.current++
	if c == '\n' {
		l.line++
		l.column = 1
	} else if c&0xC0 != 0x80 {
		// continuation bytes of a UTF-8 sequence share the column of
		// their lead byte
		l.column++
	}
	return c
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.src) {
		return 0
	}
	return l.src[l.current+1]
}

func (l *Lexer) match(expected byte) bool {
	if l.peek() != expected || l.atEnd() {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) lexeme() string {
	return l.src[l.start:l.current]
}

func (l *Lexer) addToken(t TokenType) {
	l.emit(Token{Type: t, Lexeme: l.lexeme(), Line: l.startLine, Column: l.startColumn})
}

func (l *Lexer) addLiteral(t TokenType, literal string) {
	l.emit(Token{
		Type:       t,
		Lexeme:     l.lexeme(),
		Line:       l.startLine,
		Column:     l.startColumn,
		Literal:    literal,
		HasLiteral: true,
	})
}

// errorToken reports the text scanned so far as an error; msg is one of
// the err* messages in errors.go.
func (l *Lexer) errorToken(msg string) {
	l.addLiteral(TokenError, msg)
}

func (l *Lexer) emit(tok Token) {
	if n := len(l.tokens); n > 0 && l.tokens[n-1].Type == TokenPPInclude &&
		(tok.Type == TokenHeaderName || tok.Type == TokenStringLit) {
		l.includes = append(l.includes, tok.Literal)
	}
	l.tokens = append(l.tokens, tok)
	l.atLineStart = false
}

func (l *Lexer) scanToken() {
	c := l.advance()

	switch c {
	case ' ', '\t', '\r', '\f', '\v':
	case '\n':
		l.atLineStart = true
		l.inDirective = false
	case '\\':
		// line splice
		if l.peek() == '\n' || (l.peek() == '\r' && l.peekNext() == '\n') {
			l.match('\r')
			l.match('\n')
			return
		}
		l.errorToken(errUnexpectedChar)
	case '(':
		l.addToken(TokenLParen)
	case ')':
		l.addToken(TokenRParen)
	case '{':
		l.addToken(TokenLBrace)
	case '}':
		l.addToken(TokenRBrace)
	case '[':
		l.addToken(TokenLBracket)
	case ']':
		l.addToken(TokenRBracket)
	case ';':
		l.addToken(TokenSemicolon)
	case ',':
		l.addToken(TokenComma)
	case '?':
		l.addToken(TokenQuestion)
	case ':':
		l.addToken(TokenColon)
	case '~':
		l.addToken(TokenTilde)
	case '+':
		switch {
		case l.match('+'):
			l.addToken(TokenIncrement)
		case l.match('='):
			l.addToken(TokenPlusAssign)
		default:
			l.addToken(TokenPlus)
		}
	case '-':
		switch {
		case l.match('-'):
			l.addToken(TokenDecrement)
		case l.match('='):
			l.addToken(TokenMinusAssign)
		case l.match('>'):
			l.addToken(TokenArrow)
		default:
			l.addToken(TokenMinus)
		}
	case '*':
		l.addToken(l.either('=', TokenStarAssign, TokenStar))
	case '%':
		l.addToken(l.either('=', TokenPercentAssign, TokenPercent))
	case '^':
		l.addToken(l.either('=', TokenXorAssign, TokenCaret))
	case '=':
		l.addToken(l.either('=', TokenEq, TokenAssign))
	case '!':
		l.addToken(l.either('=', TokenNe, TokenNot))
	case '&':
		switch {
		case l.match('&'):
			l.addToken(TokenAnd)
		case l.match('='):
			l.addToken(TokenAndAssign)
		default:
			l.addToken(TokenAmpersand)
		}
	case '|':
		switch {
		case l.match('|'):
			l.addToken(TokenOr)
		case l.match('='):
			l.addToken(TokenOrAssign)
		default:
			l.addToken(TokenPipe)
		}
	case '<':
		if l.expectingHeaderName() {
			l.headerName()
			return
		}
		switch {
		case l.match('<'):
			l.addToken(l.either('=', TokenShlAssign, TokenShl))
		case l.match('='):
			l.addToken(TokenLe)
		default:
			l.addToken(TokenLt)
		}
	case '>':
		switch {
		case l.match('>'):
			l.addToken(l.either('=', TokenShrAssign, TokenShr))
		case l.match('='):
			l.addToken(TokenGe)
		default:
			l.addToken(TokenGt)
		}
	case '/':
		switch {
		case l.match('/'):
			l.lineComment()
		case l.match('*'):
			l.blockComment()
		case l.match('='):
			l.addToken(TokenSlashAssign)
		default:
			l.addToken(TokenSlash)
		}
	case '.':
		switch {
		case isDigit(l.peek()):
			l.number(c)
		case l.peek() == '.' && l.peekNext() == '.':
			l.advance()
			l.advance()
			l.addToken(TokenEllipsis)
		default:
			l.addToken(TokenDot)
		}
	case '#':
		if l.atLineStart {
			l.directive()
			return
		}
		l.addToken(l.either('#', TokenHashHash, TokenHash))
	case '"':
		l.stringLit(TokenStringLit)
	case '\'':
		l.charLit(TokenCharLit)
	default:
		switch {
		case isDigit(c):
			l.number(c)
		case isIdentStart(c):
			l.identifier()
		default:
			l.invalidChar(c)
		}
	}
}

// either consumes next and returns yes when it follows, otherwise no
func (l *Lexer) either(next byte, yes, no TokenType) TokenType {
	if l.match(next) {
		return yes
	}
	return no
}

func (l *Lexer) lineComment() {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) blockComment() {
	for !l.atEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
	l.errorToken(errUnterminatedComment)
}

// invalidChar consumes the rest of a multi-byte character so the error
// token carries the whole rune.
func (l *Lexer) invalidChar(c byte) {
	if c >= utf8.RuneSelf {
		l.current = l.start
		l.column = l.startColumn
		r, size := utf8.DecodeRuneInString(l.src[l.current:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		if unicode.IsLetter(r) {
			l.identifier()
			return
		}
	}
	l.errorToken(errUnexpectedChar)
}

func (l *Lexer) identifier() {
	for !l.atEnd() {
		c := l.peek()
		if isIdentChar(c) {
			l.advance()
			continue
		}
		if c < utf8.RuneSelf {
			break
		}
		r, size := utf8.DecodeRuneInString(l.src[l.current:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		for i := 0; i < size; i++ {
			l.advance()
		}
	}

	text := l.lexeme()
	switch l.peek() {
	case '"':
		if kind, ok := stringPrefixes[text]; ok {
			l.advance()
			l.stringLit(kind)
			return
		}
	case '\'':
		if kind, ok := charPrefixes[text]; ok {
			l.advance()
			l.charLit(kind)
			return
		}
	}

	l.addLiteral(LookupIdent(text), text)
}

var stringPrefixes = map[string]TokenType{
	"L":  TokenWideStringLit,
	"u":  TokenUTF16StringLit,
	"U":  TokenUTF32StringLit,
	"u8": TokenUTF8StringLit,
}

var charPrefixes = map[string]TokenType{
	"L": TokenWideCharLit,
	"u": TokenUTF16CharLit,
	"U": TokenUTF32CharLit,
}

func isIdentStart(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch == '$'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}
