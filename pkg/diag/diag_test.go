package diag

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindFamily(t *testing.T) {
	tests := []struct {
		kind   Kind
		family Family
	}{
		{InvalidCharacter, Lexical},
		{UnterminatedComment, Lexical},
		{InvalidNumber, Lexical},
		{UnexpectedToken, Syntactic},
		{InvalidAssignmentTarget, Syntactic},
		{NestingTooDeep, Syntactic},
		{UndefinedSymbol, Semantic},
		{MissingMain, Semantic},
	}

	for i, tt := range tests {
		if got := tt.kind.Family(); got != tt.family {
			t.Errorf("tests[%d] - %s: family wrong. expected=%s, got=%s",
				i, tt.kind, tt.family, got)
		}
	}
}

func TestKindNamesComplete(t *testing.T) {
	for k := InvalidCharacter; k <= MissingMain; k++ {
		if _, ok := kindNames[k]; !ok {
			t.Errorf("kind %d has no name", int(k))
		}
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		err      *Error
		expected string
	}{
		{New(UnexpectedToken, 3, 7, "expected ';'"), "3:7: unexpected token: expected ';'"},
		{New(MissingMain, 0, 0, ""), "missing main function"},
		{Newf(UndefinedSymbol, 1, 2, "'%s'", "x"), "1:2: undefined symbol: 'x'"},
	}

	for i, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("tests[%d] - expected=%q, got=%q", i, tt.expected, got)
		}
	}
}

func TestErrorsIsFamily(t *testing.T) {
	err := fmt.Errorf("parsing foo.c: %w", New(NotCallable, 1, 1, ""))

	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected errors.Is(err, ErrSyntax)")
	}
	if errors.Is(err, ErrSemantic) {
		t.Errorf("syntax error must not match ErrSemantic")
	}

	de, ok := As(err)
	if !ok {
		t.Fatalf("As failed on wrapped error")
	}
	if de.Kind != NotCallable {
		t.Errorf("kind wrong. expected=%s, got=%s", NotCallable, de.Kind)
	}
}

func TestRender(t *testing.T) {
	err := New(MissingPunctuation, 2, 12, "expected ';' after return value").
		WithSnippet("    return 1\n")

	expected := "2:12: missing punctuation: expected ';' after return value\n" +
		"  2 |     return 1\n" +
		"    |            ^"
	if got := err.Render(); got != expected {
		t.Errorf("render wrong.\nexpected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestRenderKeepsTabs(t *testing.T) {
	err := New(UnexpectedToken, 1, 3, "").WithSnippet("\t\tx")

	expected := "1:3: unexpected token\n" +
		"  1 | \t\tx\n" +
		"    | \t\t^"
	if got := err.Render(); got != expected {
		t.Errorf("render wrong.\nexpected:\n%q\ngot:\n%q", expected, got)
	}
}

func TestRenderWithoutSnippet(t *testing.T) {
	err := New(UnexpectedEOF, 4, 1, "")
	if got := err.Render(); got != err.Error() {
		t.Errorf("expected plain message, got %q", got)
	}
}
