package lexer

import (
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/raymyers/stackcc/pkg/diag"
)

func TestScanSimpleFunction(t *testing.T) {
	input := `int main() { return 42; }`

	tests := []struct {
		expectedType   TokenType
		expectedLexeme string
	}{
		{TokenInt, "int"},
		{TokenIdent, "main"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenReturn, "return"},
		{TokenIntLit, "42"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	tokens := Scan(input)
	if len(tokens) != len(tests) {
		t.Fatalf("wrong token count. expected=%d, got=%d", len(tests), len(tokens))
	}

	for i, tt := range tests {
		tok := tokens[i]

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q",
				i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `+ - * / % = == != < <= > >= && || ! & | ^ ~ << >> ? : ++ -- -> . ...
	+= -= *= /= %= &= |= ^= <<= >>=`

	expected := []TokenType{
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
		TokenAssign, TokenEq, TokenNe, TokenLt, TokenLe, TokenGt, TokenGe,
		TokenAnd, TokenOr, TokenNot, TokenAmpersand, TokenPipe, TokenCaret, TokenTilde,
		TokenShl, TokenShr, TokenQuestion, TokenColon,
		TokenIncrement, TokenDecrement, TokenArrow, TokenDot, TokenEllipsis,
		TokenPlusAssign, TokenMinusAssign, TokenStarAssign, TokenSlashAssign,
		TokenPercentAssign, TokenAndAssign, TokenOrAssign, TokenXorAssign,
		TokenShlAssign, TokenShrAssign,
		TokenEOF,
	}

	tokens := Scan(input)
	if len(tokens) != len(expected) {
		t.Fatalf("wrong token count. expected=%d, got=%d", len(expected), len(tokens))
	}
	for i, tt := range expected {
		if tokens[i].Type != tt {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt, tokens[i].Type)
		}
		if tt != TokenEOF && tokens[i].Lexeme != tt.String() {
			t.Errorf("tests[%d] - lexeme wrong. expected=%q, got=%q",
				i, tt.String(), tokens[i].Lexeme)
		}
	}
}

func TestMaximalMunch(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"a<<=b", []TokenType{TokenIdent, TokenShlAssign, TokenIdent}},
		{"a<<b", []TokenType{TokenIdent, TokenShl, TokenIdent}},
		{"a<=b", []TokenType{TokenIdent, TokenLe, TokenIdent}},
		{"a+++b", []TokenType{TokenIdent, TokenIncrement, TokenPlus, TokenIdent}},
		{"p->x", []TokenType{TokenIdent, TokenArrow, TokenIdent}},
		{"a..b", []TokenType{TokenIdent, TokenDot, TokenDot, TokenIdent}},
		{"x/y", []TokenType{TokenIdent, TokenSlash, TokenIdent}},
	}

	for i, tt := range tests {
		tokens := Scan(tt.input)
		got := types(tokens[:len(tokens)-1])
		if !equalTypes(got, tt.expected) {
			t.Errorf("tests[%d] %q - expected=%v, got=%v", i, tt.input, tt.expected, got)
		}
	}
}

func TestKeywords(t *testing.T) {
	for word, kind := range keywords {
		tokens := Scan(word)
		if tokens[0].Type != kind {
			t.Errorf("%q - tokentype wrong. expected=%q, got=%q", word, kind, tokens[0].Type)
		}
	}

	if got := LookupIdent("mainly"); got != TokenIdent {
		t.Errorf("LookupIdent(mainly) = %q, want IDENT", got)
	}
}

func TestNumericLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"0x1F", TokenIntLit},
		{"0b101", TokenIntLit},
		{"017", TokenIntLit},
		{"3.14e2f", TokenFloatLit},
		{"42", TokenIntLit},
		{"0", TokenIntLit},
		{"10UL", TokenIntLit},
		{"10ull", TokenIntLit},
		{"7LLU", TokenIntLit},
		{"1.5", TokenFloatLit},
		{".5", TokenFloatLit},
		{"1e9", TokenFloatLit},
		{"1E-3", TokenFloatLit},
		{"2.5f", TokenFloatLit},
		{"2.5L", TokenFloatLit},
		{"1.", TokenFloatLit},
		{"0x1.8p3", TokenFloatLit},
		{"09.5", TokenFloatLit},
	}

	for i, tt := range tests {
		tokens := Scan(tt.input)
		if len(tokens) != 2 {
			t.Fatalf("tests[%d] %q - expected one literal token, got %d tokens",
				i, tt.input, len(tokens)-1)
		}
		tok := tokens[0]
		if tok.Type != tt.expected {
			t.Errorf("tests[%d] %q - tokentype wrong. expected=%q, got=%q",
				i, tt.input, tt.expected, tok.Type)
		}
		if tok.Lexeme != tt.input {
			t.Errorf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.input, tok.Lexeme)
		}
		if !tok.HasLiteral || tok.Literal != tt.input {
			t.Errorf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.input, tok.Literal)
		}
	}
}

func TestMalformedNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  diag.Kind
	}{
		{"1e", diag.InvalidNumber},
		{"1e+", diag.InvalidNumber},
		{"08", diag.InvalidNumber},
		{"10f", diag.InvalidNumber},
		{"12abc", diag.InvalidNumber},
		{"1.5u", diag.InvalidNumber},
	}

	for i, tt := range tests {
		tokens := Scan(tt.input)
		if tokens[0].Type != TokenError {
			t.Fatalf("tests[%d] %q - expected error token, got %q", i, tt.input, tokens[0].Type)
		}
		if kind := ErrorKind(tokens[0]); kind != tt.kind {
			t.Errorf("tests[%d] %q - kind wrong. expected=%s, got=%s", i, tt.input, tt.kind, kind)
		}
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		input    string
		kind     TokenType
		expected string
	}{
		{`"hello"`, TokenStringLit, "hello"},
		{`""`, TokenStringLit, ""},
		{`"a\nb\tc"`, TokenStringLit, "a\nb\tc"},
		{`"q\"q\\"`, TokenStringLit, `q"q\`},
		{`"\x41\102"`, TokenStringLit, "AB"},
		{`"\0"`, TokenStringLit, "\x00"},
		{`"\xff"`, TokenStringLit, "\xff"},
		{`"é"`, TokenStringLit, "é"},
		{`"\U0001F600"`, TokenStringLit, "\U0001F600"},
		{`"\q"`, TokenStringLit, "q"},
		{`"\xg"`, TokenStringLit, "xg"},
		{`"\u12"`, TokenStringLit, "u12"},
		{`L"wide"`, TokenWideStringLit, "wide"},
		{`u"utf16"`, TokenUTF16StringLit, "utf16"},
		{`U"utf32"`, TokenUTF32StringLit, "utf32"},
		{`u8"utf8"`, TokenUTF8StringLit, "utf8"},
		{`L"\xff"`, TokenWideStringLit, "ÿ"},
	}

	for i, tt := range tests {
		tokens := Scan(tt.input)
		if len(tokens) != 2 {
			t.Fatalf("tests[%d] %s - expected one token, got %d", i, tt.input, len(tokens)-1)
		}
		tok := tokens[0]
		if tok.Type != tt.kind {
			t.Errorf("tests[%d] %s - tokentype wrong. expected=%q, got=%q", i, tt.input, tt.kind, tok.Type)
		}
		if tok.Literal != tt.expected {
			t.Errorf("tests[%d] %s - literal wrong. expected=%q, got=%q", i, tt.input, tt.expected, tok.Literal)
		}
		if tok.Lexeme != tt.input {
			t.Errorf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.input, tok.Lexeme)
		}
	}
}

func TestCharLiterals(t *testing.T) {
	tests := []struct {
		input    string
		kind     TokenType
		expected string
	}{
		{`'a'`, TokenCharLit, "a"},
		{`'\n'`, TokenCharLit, "\n"},
		{`'\''`, TokenCharLit, "'"},
		{`'\0'`, TokenCharLit, "\x00"},
		{`L'x'`, TokenWideCharLit, "x"},
		{`u'x'`, TokenUTF16CharLit, "x"},
		{`U'x'`, TokenUTF32CharLit, "x"},
	}

	for i, tt := range tests {
		tok := Scan(tt.input)[0]
		if tok.Type != tt.kind {
			t.Errorf("tests[%d] %s - tokentype wrong. expected=%q, got=%q", i, tt.input, tt.kind, tok.Type)
		}
		if tok.Literal != tt.expected {
			t.Errorf("tests[%d] %s - literal wrong. expected=%q, got=%q", i, tt.input, tt.expected, tok.Literal)
		}
	}
}

func TestPrefixIdentifiersStayIdentifiers(t *testing.T) {
	tokens := Scan("L u U u8 Lx")
	for i, tok := range tokens[:len(tokens)-1] {
		if tok.Type != TokenIdent {
			t.Errorf("tokens[%d] %q - expected IDENT, got %q", i, tok.Lexeme, tok.Type)
		}
	}
}

func TestLexicalErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  diag.Kind
	}{
		{"@", diag.InvalidCharacter},
		{"`", diag.InvalidCharacter},
		{`"abc`, diag.UnterminatedString},
		{"\"abc\nx\"", diag.UnterminatedString},
		{`'a`, diag.UnterminatedString},
		{`''`, diag.InvalidCharacter},
		{"/* never closed", diag.UnterminatedComment},
	}

	for i, tt := range tests {
		tokens := Scan(tt.input)
		errs := Errors(tokens)
		if len(errs) == 0 {
			t.Fatalf("tests[%d] %q - expected an error token", i, tt.input)
		}
		if errs[0].Kind != tt.kind {
			t.Errorf("tests[%d] %q - kind wrong. expected=%s, got=%s", i, tt.input, tt.kind, errs[0].Kind)
		}
		if tokens[len(tokens)-1].Type != TokenEOF {
			t.Errorf("tests[%d] - scan must end with EOF", i)
		}
	}
}

func TestErrorTokenDoesNotStopScan(t *testing.T) {
	tokens := Scan("a @ b")
	got := types(tokens)
	expected := []TokenType{TokenIdent, TokenError, TokenIdent, TokenEOF}
	if !equalTypes(got, expected) {
		t.Fatalf("expected=%v, got=%v", expected, got)
	}

	err := ErrorOf(tokens[1])
	if err.Line != 1 || err.Column != 3 {
		t.Errorf("position wrong. expected=1:3, got=%d:%d", err.Line, err.Column)
	}
}

func TestUnicodeIdentifiers(t *testing.T) {
	tokens := Scan("int café = 1; §")
	if tokens[1].Type != TokenIdent || tokens[1].Lexeme != "café" {
		t.Errorf("expected identifier café, got %q %q", tokens[1].Type, tokens[1].Lexeme)
	}
	if tokens[2].Column != 10 {
		t.Errorf("column after multi-byte identifier wrong. expected=10, got=%d", tokens[2].Column)
	}
	last := tokens[len(tokens)-2]
	if last.Type != TokenError || last.Lexeme != "§" {
		t.Errorf("expected error token for §, got %q %q", last.Type, last.Lexeme)
	}
}

func TestComments(t *testing.T) {
	input := `// line comment
int /* block
spanning */ x; // trailing`

	tokens := Scan(input)
	expected := []TokenType{TokenInt, TokenIdent, TokenSemicolon, TokenEOF}
	if got := types(tokens); !equalTypes(got, expected) {
		t.Fatalf("expected=%v, got=%v", expected, got)
	}
	if tokens[0].Line != 2 {
		t.Errorf("int line wrong. expected=2, got=%d", tokens[0].Line)
	}
	if tokens[1].Line != 3 || tokens[1].Column != 13 {
		t.Errorf("x position wrong. expected=3:13, got=%d:%d", tokens[1].Line, tokens[1].Column)
	}
}

func TestPositions(t *testing.T) {
	input := "int x;\n  return x;"
	tokens := Scan(input)

	tests := []struct {
		line, column int
	}{
		{1, 1}, {1, 5}, {1, 6}, {2, 3}, {2, 10}, {2, 11},
	}
	for i, tt := range tests {
		if tokens[i].Line != tt.line || tokens[i].Column != tt.column {
			t.Errorf("tokens[%d] %q - position wrong. expected=%d:%d, got=%d:%d",
				i, tokens[i].Lexeme, tt.line, tt.column, tokens[i].Line, tokens[i].Column)
		}
	}
}

func TestDirectives(t *testing.T) {
	input := `#include <stdio.h>
  #  include "local.h"
#define MAX 10
#pragma once
#frobnicate
int a = b # c;`

	l := New(input)
	tokens := l.Scan()

	expected := []TokenType{
		TokenHash, TokenPPInclude, TokenHeaderName,
		TokenHash, TokenPPInclude, TokenStringLit,
		TokenHash, TokenPPDefine, TokenIdent, TokenIntLit,
		TokenHash, TokenPPPragma, TokenIdent,
		TokenHash, TokenPPUnknown,
		TokenInt, TokenIdent, TokenAssign, TokenIdent, TokenHash, TokenIdent, TokenSemicolon,
		TokenEOF,
	}
	if got := types(tokens); !equalTypes(got, expected) {
		t.Fatalf("expected=%v\ngot=%v", expected, got)
	}

	if tokens[2].Lexeme != "<stdio.h>" || tokens[2].Literal != "stdio.h" {
		t.Errorf("header name wrong. lexeme=%q literal=%q", tokens[2].Lexeme, tokens[2].Literal)
	}

	includes := l.Includes()
	if len(includes) != 2 || includes[0] != "stdio.h" || includes[1] != "local.h" {
		t.Errorf("includes wrong. got=%v", includes)
	}
}

func TestLessThanOutsideInclude(t *testing.T) {
	tokens := Scan("#if A < B\n#endif\na < b")
	for _, tok := range tokens {
		if tok.Type == TokenHeaderName {
			t.Fatalf("unexpected header name %q", tok.Lexeme)
		}
	}
}

func TestLineSpliceContinuesDirective(t *testing.T) {
	tokens := Scan("#define X \\\n  1\nint")
	expected := []TokenType{TokenHash, TokenPPDefine, TokenIdent, TokenIntLit, TokenInt, TokenEOF}
	if got := types(tokens); !equalTypes(got, expected) {
		t.Fatalf("expected=%v, got=%v", expected, got)
	}
}

func TestByteOrderMarkDropped(t *testing.T) {
	tokens := Scan("\uFEFFint")
	if tokens[0].Type != TokenInt || tokens[0].Column != 1 {
		t.Errorf("expected int at column 1, got %q at %d", tokens[0].Type, tokens[0].Column)
	}
}

// Concatenating the lexemes of every non-EOF token reproduces the input
// with whitespace and comments removed.
func TestLexemesReconstructSource(t *testing.T) {
	inputs := []string{
		`int main() { return 42; }`,
		"int f(int a, char *b) {\n\tif (a >= 0x1F) b[a] += 'x'; /* c */ return a<<=2;\n}",
		`struct s { long long v; } x = { .v = 3.14e2f }; // trailing`,
		`char *s = u8"h\x41" L"w"; x = y ? z : a->b...`,
		"#include <stdio.h>\n#define N 10\nint a[N];",
	}

	for i, input := range inputs {
		var sb strings.Builder
		for _, tok := range Scan(input) {
			if tok.Type == TokenError {
				t.Fatalf("inputs[%d] - unexpected error token %q", i, tok.Lexeme)
			}
			sb.WriteString(tok.Lexeme)
		}
		if got, want := sb.String(), stripLayout(input); got != want {
			t.Errorf("inputs[%d] - reconstruction wrong.\nexpected=%q\ngot=     %q", i, want, got)
		}
	}
}

// stripLayout removes comments and whitespace outside literals
func stripLayout(src string) string {
	var sb strings.Builder
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(src) && src[j] != c {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			sb.WriteString(src[i : j+1])
			i = j
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			i += end + 3
		case c == ' ' || c == '\t' || c == '\n':
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// LexTestSpec represents a test case from lex.yaml
type LexTestSpec struct {
	Name   string   `yaml:"name"`
	Input  string   `yaml:"input"`
	Tokens []string `yaml:"tokens"`
}

// LexTestFile represents the lex.yaml file structure
type LexTestFile struct {
	Tests []LexTestSpec `yaml:"tests"`
}

func TestLexYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/lex.yaml")
	if err != nil {
		t.Fatalf("failed to read lex.yaml: %v", err)
	}

	var testFile LexTestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse lex.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			tokens := Scan(tc.Input)
			var got []string
			for _, tok := range tokens[:len(tokens)-1] {
				got = append(got, tok.Type.String()+" "+tok.Lexeme)
			}
			if len(got) != len(tc.Tokens) {
				t.Fatalf("token count wrong. expected=%d, got=%d\n%s",
					len(tc.Tokens), len(got), strings.Join(got, "\n"))
			}
			for i := range got {
				if got[i] != tc.Tokens[i] {
					t.Errorf("tokens[%d] - expected=%q, got=%q", i, tc.Tokens[i], got[i])
				}
			}
		})
	}
}

func types(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func equalTypes(a, b []TokenType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
