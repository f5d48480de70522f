package lexer

import (
	"fmt"

	"github.com/raymyers/stackcc/pkg/diag"
)

// Messages carried in the Literal of TokenError tokens
const (
	errUnexpectedChar      = "unexpected character"
	errUnterminatedString  = "unterminated string literal"
	errUnterminatedChar    = "unterminated character constant"
	errUnterminatedHeader  = "unterminated header name"
	errUnterminatedComment = "unterminated block comment"
	errEmptyChar           = "empty character constant"
	errBadExponent         = "exponent has no digits"
	errBadSuffix           = "invalid suffix on numeric constant"
	errBadOctal            = "invalid digit in octal constant"
)

var errorKinds = map[string]diag.Kind{
	errUnexpectedChar:      diag.InvalidCharacter,
	errUnterminatedString:  diag.UnterminatedString,
	errUnterminatedChar:    diag.UnterminatedString,
	errUnterminatedHeader:  diag.UnterminatedString,
	errUnterminatedComment: diag.UnterminatedComment,
	errEmptyChar:           diag.InvalidCharacter,
	errBadExponent:         diag.InvalidNumber,
	errBadSuffix:           diag.InvalidNumber,
	errBadOctal:            diag.InvalidNumber,
}

// ErrorKind classifies a TokenError token
func ErrorKind(tok Token) diag.Kind {
	if kind, ok := errorKinds[tok.Literal]; ok {
		return kind
	}
	return diag.InvalidCharacter
}

// ErrorOf converts a TokenError token into a positioned diagnostic
func ErrorOf(tok Token) *diag.Error {
	msg := tok.Literal
	if msg == "" {
		msg = errUnexpectedChar
	}
	text := tok.Lexeme
	if len(text) > 16 {
		text = text[:16] + "..."
	}
	return diag.New(ErrorKind(tok), tok.Line, tok.Column, fmt.Sprintf("%s %q", msg, text))
}

// Errors returns a diagnostic for every TokenError in tokens
func Errors(tokens []Token) []*diag.Error {
	var errs []*diag.Error
	for _, tok := range tokens {
		if tok.Type == TokenError {
			errs = append(errs, ErrorOf(tok))
		}
	}
	return errs
}
