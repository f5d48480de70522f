package lexer

import (
	"strings"
	"unicode/utf8"
)

// stringLit scans the body of a string literal; the opening quote (and
// any encoding prefix) has been consumed.
func (l *Lexer) stringLit(kind TokenType) {
	value, ok := l.quoted('"', isWide(kind))
	if !ok {
		l.errorToken(errUnterminatedString)
		return
	}
	l.addLiteral(kind, value)
}

func (l *Lexer) charLit(kind TokenType) {
	value, ok := l.quoted('\'', isWide(kind))
	switch {
	case !ok:
		l.errorToken(errUnterminatedChar)
	case value == "":
		l.errorToken(errEmptyChar)
	default:
		l.addLiteral(kind, value)
	}
}

func isWide(kind TokenType) bool {
	switch kind {
	case TokenWideStringLit, TokenUTF16StringLit, TokenUTF32StringLit,
		TokenWideCharLit, TokenUTF16CharLit, TokenUTF32CharLit:
		return true
	}
	return false
}

// quoted reads up to the closing quote and returns the escape-processed
// text. A newline or end of input before the quote leaves ok false.
func (l *Lexer) quoted(quote byte, wide bool) (value string, ok bool) {
	var sb strings.Builder
	for {
		if l.atEnd() || l.peek() == '\n' {
			return sb.String(), false
		}
		c := l.advance()
		switch c {
		case quote:
			return sb.String(), true
		case '\\':
			l.escape(&sb, wide)
		default:
			sb.WriteByte(c)
		}
	}
}

// escape decodes one escape sequence after its backslash. Malformed
// sequences are kept as written; unknown escapes yield the character.
func (l *Lexer) escape(sb *strings.Builder, wide bool) {
	if l.atEnd() {
		sb.WriteByte('\\')
		return
	}

	c := l.advance()
	switch c {
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'v':
		sb.WriteByte('\v')
	case '\n':
		// line splice inside a literal
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := uint32(c - '0')
		for i := 0; i < 2 && isOctalDigit(l.peek()); i++ {
			v = v*8 + uint32(l.advance()-'0')
		}
		writeCode(sb, v, wide)
	case 'x':
		if !isHexDigit(l.peek()) {
			sb.WriteByte('x')
			return
		}
		var v uint32
		for isHexDigit(l.peek()) {
			d := hexValue(l.advance())
			if v <= utf8.MaxRune {
				v = v*16 + d
			}
		}
		writeCode(sb, v, wide)
	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		digits := l.current
		for i := 0; i < n && isHexDigit(l.peek()); i++ {
			l.advance()
		}
		hex := l.src[digits:l.current]
		if len(hex) != n {
			sb.WriteByte(c)
			sb.WriteString(hex)
			return
		}
		var v uint32
		for i := 0; i < len(hex); i++ {
			v = v*16 + hexValue(hex[i])
		}
		writeRune(sb, v)
	default:
		// \\ \' \" \? and unknown escapes
		sb.WriteByte(c)
	}
}

// writeCode stores a numeric escape: narrow literals hold raw bytes,
// wide literals hold code points.
func writeCode(sb *strings.Builder, v uint32, wide bool) {
	if !wide && v <= 0xFF {
		sb.WriteByte(byte(v))
		return
	}
	writeRune(sb, v)
}

func writeRune(sb *strings.Builder, v uint32) {
	r := rune(v)
	if v > utf8.MaxRune || !utf8.ValidRune(r) {
		r = utf8.RuneError
	}
	sb.WriteRune(r)
}

// number scans a numeric literal whose first character (a digit or the
// '.' of ".5") has been consumed. The literal payload is the lexeme; the
// suffix stays part of it and does not change the value.
func (l *Lexer) number(first byte) {
	isFloat := false

	switch {
	case first == '.':
		isFloat = true
		l.digits(isDigit)
		if !l.exponent('e', 'E') {
			return
		}
	case first == '0' && (l.peek() == 'x' || l.peek() == 'X') &&
		(isHexDigit(l.peekNext()) || l.peekNext() == '.'):
		l.advance()
		l.digits(isHexDigit)
		if l.peek() == '.' {
			isFloat = true
			l.advance()
			l.digits(isHexDigit)
		}
		if l.peek() == 'p' || l.peek() == 'P' {
			isFloat = true
		}
		if isFloat && !l.exponent('p', 'P') {
			return
		}
	case first == '0' && (l.peek() == 'b' || l.peek() == 'B') && isBinaryDigit(l.peekNext()):
		l.advance()
		l.digits(isBinaryDigit)
	default:
		l.digits(isDigit)
		if l.peek() == '.' {
			isFloat = true
			l.advance()
			l.digits(isDigit)
		}
		if l.peek() == 'e' || l.peek() == 'E' {
			isFloat = true
			if !l.exponent('e', 'E') {
				return
			}
		}
	}

	suffixStart := l.current
	for isIdentChar(l.peek()) {
		l.advance()
	}
	suffix := l.src[suffixStart:l.current]

	if isFloat {
		if !validFloatSuffix(suffix) {
			l.errorToken(errBadSuffix)
			return
		}
		l.addLiteral(TokenFloatLit, l.lexeme())
		return
	}

	if !validIntSuffix(suffix) {
		l.errorToken(errBadSuffix)
		return
	}
	digits := l.src[l.start:suffixStart]
	if len(digits) > 1 && digits[0] == '0' && isDigit(digits[1]) &&
		strings.ContainsAny(digits, "89") {
		l.errorToken(errBadOctal)
		return
	}
	l.addLiteral(TokenIntLit, l.lexeme())
}

func (l *Lexer) digits(accept func(byte) bool) {
	for accept(l.peek()) {
		l.advance()
	}
}

// exponent consumes an optional exponent part marked by lower or upper.
// It reports false (after emitting an error token) when the marker is
// not followed by digits.
func (l *Lexer) exponent(lower, upper byte) bool {
	if l.peek() != lower && l.peek() != upper {
		return true
	}
	l.advance()
	if l.peek() == '+' || l.peek() == '-' {
		l.advance()
	}
	if !isDigit(l.peek()) {
		l.errorToken(errBadExponent)
		return false
	}
	l.digits(isDigit)
	return true
}

func validFloatSuffix(s string) bool {
	switch s {
	case "", "f", "F", "l", "L":
		return true
	}
	return false
}

func validIntSuffix(s string) bool {
	switch s {
	case "", "u", "U",
		"l", "L", "ul", "uL", "Ul", "UL", "lu", "lU", "Lu", "LU",
		"ll", "LL", "ull", "uLL", "Ull", "ULL", "llu", "llU", "LLu", "LLU":
		return true
	}
	return false
}

func isOctalDigit(ch byte) bool {
	return '0' <= ch && ch <= '7'
}

func isBinaryDigit(ch byte) bool {
	return ch == '0' || ch == '1'
}

func hexValue(ch byte) uint32 {
	switch {
	case isDigit(ch):
		return uint32(ch - '0')
	case 'a' <= ch && ch <= 'f':
		return uint32(ch-'a') + 10
	default:
		return uint32(ch-'A') + 10
	}
}
