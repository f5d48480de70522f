// Package diag defines the error-kind taxonomy shared by the lexer, the
// parser and the semantic analyzer, and the positioned error they report.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a diagnostic
type Kind int

const (
	// Lexical errors
	InvalidCharacter Kind = iota
	UnterminatedString
	UnterminatedComment
	InvalidNumber

	// Syntactic errors
	UnexpectedToken
	UnexpectedEOF
	MissingPunctuation
	InvalidAssignmentTarget
	NotCallable
	InvalidType
	InvalidDeclaration
	NestingTooDeep

	// Semantic errors
	UndefinedSymbol
	TypeMismatch
	WrongArgumentCount
	MisplacedBreak
	MisplacedContinue
	MisplacedReturn
	Redeclaration
	MissingMain
)

var kindNames = map[Kind]string{
	InvalidCharacter:        "invalid character",
	UnterminatedString:      "unterminated string",
	UnterminatedComment:     "unterminated comment",
	InvalidNumber:           "invalid number",
	UnexpectedToken:         "unexpected token",
	UnexpectedEOF:           "unexpected end of file",
	MissingPunctuation:      "missing punctuation",
	InvalidAssignmentTarget: "invalid assignment target",
	NotCallable:             "expression is not callable",
	InvalidType:             "invalid type",
	InvalidDeclaration:      "invalid declaration",
	NestingTooDeep:          "nesting too deep",
	UndefinedSymbol:         "undefined symbol",
	TypeMismatch:            "type mismatch",
	WrongArgumentCount:      "wrong argument count",
	MisplacedBreak:          "break outside loop or switch",
	MisplacedContinue:       "continue outside loop",
	MisplacedReturn:         "misplaced return",
	Redeclaration:           "redeclaration",
	MissingMain:             "missing main function",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Family groups kinds by the compiler stage that reports them
type Family int

const (
	Lexical Family = iota
	Syntactic
	Semantic
)

func (f Family) String() string {
	switch f {
	case Lexical:
		return "lexical"
	case Syntactic:
		return "syntax"
	case Semantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// Family returns the family k belongs to
func (k Kind) Family() Family {
	switch {
	case k <= InvalidNumber:
		return Lexical
	case k <= NestingTooDeep:
		return Syntactic
	default:
		return Semantic
	}
}

// Sentinels matched by errors.Is against any *Error of the family.
var (
	ErrLexical  = errors.New("lexical error")
	ErrSyntax   = errors.New("syntax error")
	ErrSemantic = errors.New("semantic error")
)

// Error is a positioned diagnostic. Line and Column are 1-based; zero
// means the position is unknown. Snippet is the source line the error
// occurred on, if available.
type Error struct {
	Kind    Kind
	Line    int
	Column  int
	Context string
	Snippet string
}

// New creates an error of the given kind at line:col
func New(kind Kind, line, col int, context string) *Error {
	return &Error{Kind: kind, Line: line, Column: col, Context: context}
}

// Newf is New with a formatted context
func Newf(kind Kind, line, col int, format string, args ...any) *Error {
	return New(kind, line, col, fmt.Sprintf(format, args...))
}

// WithSnippet attaches the offending source line and returns e
func (e *Error) WithSnippet(line string) *Error {
	e.Snippet = strings.TrimRight(line, "\r\n")
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&sb, "%d:%d: ", e.Line, e.Column)
	}
	sb.WriteString(e.Kind.String())
	if e.Context != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Context)
	}
	return sb.String()
}

// Is reports whether target is the sentinel of e's family
func (e *Error) Is(target error) bool {
	switch target {
	case ErrLexical:
		return e.Kind.Family() == Lexical
	case ErrSyntax:
		return e.Kind.Family() == Syntactic
	case ErrSemantic:
		return e.Kind.Family() == Semantic
	}
	return false
}

// Render formats the error followed by the snippet with a caret under
// the reported column:
//
//	3:9: missing punctuation: expected ';' after return value
//	  3 |     return 1
//	    |             ^
func (e *Error) Render() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if e.Snippet == "" || e.Line <= 0 {
		return sb.String()
	}
	num := fmt.Sprintf("%d", e.Line)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(&sb, "\n  %s | %s", num, e.Snippet)
	if e.Column > 0 {
		fmt.Fprintf(&sb, "\n  %s | %s^", pad, caretIndent(e.Snippet, e.Column))
	}
	return sb.String()
}

// caretIndent reproduces the whitespace before column col so tabs in the
// snippet line up with the caret.
func caretIndent(line string, col int) string {
	var sb strings.Builder
	n := 0
	for _, r := range line {
		n++
		if n >= col {
			break
		}
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	for ; n < col-1; n++ {
		sb.WriteByte(' ')
	}
	return sb.String()
}

// As returns the *Error in err's chain, if any
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
