package lexer

// directive scans the start of a directive line; the '#' has been
// consumed. It emits Hash and, when a name follows, the directive
// keyword. The rest of the line is scanned as ordinary tokens. No macro
// expansion or conditional evaluation happens here.
func (l *Lexer) directive() {
	l.addToken(TokenHash)
	l.inDirective = true

	for l.peek() == ' ' || l.peek() == '\t' {
		l.advance()
	}
	if !isIdentStart(l.peek()) {
		// null directive or a "# 12 file.c" line marker
		return
	}

	l.start = l.current
	l.startLine, l.startColumn = l.line, l.column
	for isIdentChar(l.peek()) {
		l.advance()
	}
	kind, ok := directives[l.lexeme()]
	if !ok {
		kind = TokenPPUnknown
	}
	l.addLiteral(kind, l.lexeme())
}

func (l *Lexer) expectingHeaderName() bool {
	n := len(l.tokens)
	return l.inDirective && n > 0 && l.tokens[n-1].Type == TokenPPInclude
}

// headerName scans <name> after #include; the '<' has been consumed
func (l *Lexer) headerName() {
	for !l.atEnd() && l.peek() != '>' && l.peek() != '\n' {
		l.advance()
	}
	if !l.match('>') {
		l.errorToken(errUnterminatedHeader)
		return
	}
	text := l.lexeme()
	l.addLiteral(TokenHeaderName, text[1:len(text)-1])
}
