package analyzer

import (
	"errors"
	"testing"

	"github.com/raymyers/stackcc/pkg/ast"
	"github.com/raymyers/stackcc/pkg/diag"
	"github.com/raymyers/stackcc/pkg/parser"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.ParseSource(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func kinds(err error) []diag.Kind {
	var out []diag.Kind
	if err == nil {
		return out
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, kinds(e)...)
		}
		return out
	}
	if de, ok := diag.As(err); ok {
		out = append(out, de.Kind)
	}
	return out
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []diag.Kind
	}{
		{"valid", "int main() { int x = 1; return x; }", nil},
		{"missing main", "int f() { return 0; }", []diag.Kind{diag.MissingMain}},
		{"undeclared variable", "int main() { return y; }", []diag.Kind{diag.UndefinedSymbol}},
		{"use before declaration", "int main() { x = 1; int x; return x; }", []diag.Kind{diag.UndefinedSymbol}},
		{"redeclaration", "int main() { int a; int a; return 0; }", []diag.Kind{diag.Redeclaration}},
		{"parameter redeclared", "int f(int a) { int a; return a; } int main() { return f(1); }", []diag.Kind{diag.Redeclaration}},
		{"shadowing in inner block", "int main() { int a = 1; { int a = 2; } return a; }", nil},
		{"for scope", "int main() { for (int i = 0; i < 3; i++) {} for (int i = 0; i < 3; i++) {} return 0; }", nil},
		{"for variable out of scope", "int main() { for (int i = 0; i < 3; i++) {} return i; }", []diag.Kind{diag.UndefinedSymbol}},
		{"undeclared function", "int main() { return g(); }", []diag.Kind{diag.UndefinedSymbol}},
		{"prototype", "int g(int a, int b); int main() { return g(1, 2); }", nil},
		{"too few arguments", "int g(int a, int b); int main() { return g(1); }", []diag.Kind{diag.WrongArgumentCount}},
		{"too many arguments", "int g(int a) { return a; } int main() { return g(1, 2); }", []diag.Kind{diag.WrongArgumentCount}},
		{"variadic", "int printf(const char *fmt, ...); int main() { printf(\"%d %d\", 1, 2); return 0; }", nil},
		{"variadic too few", "int printf(const char *fmt, ...); int main() { printf(); return 0; }", []diag.Kind{diag.WrongArgumentCount}},
		{"unprototyped", "int g(); int main() { return g(1, 2, 3); }", nil},
		{"break outside loop", "int main() { break; return 0; }", []diag.Kind{diag.MisplacedBreak}},
		{"continue outside loop", "int main() { continue; return 0; }", []diag.Kind{diag.MisplacedContinue}},
		{"continue in switch", "int main() { switch (1) { case 1: continue; } return 0; }", []diag.Kind{diag.MisplacedContinue}},
		{"break in switch", "int main() { switch (1) { case 1: break; } return 0; }", nil},
		{"continue in loop in switch", "int main() { while (1) { switch (1) { case 1: continue; } } return 0; }", nil},
		{"globals and enums", "enum { RED, GREEN }; int counter = GREEN; int main() { return counter + RED; }", nil},
		{"function as value", "int f(void) { return 1; } int main() { int (*p)(void) = f; return p(); }", nil},
		{"goto", "int main() { goto done; done: return 0; }", nil},
		{"goto undefined label", "int main() { goto nowhere; return 0; }", []diag.Kind{diag.UndefinedSymbol}},
		{"void returns value", "void f() { return 1; } int main() { f(); return 0; }", []diag.Kind{diag.TypeMismatch}},
		{"extern redeclared", "int main() { extern int n; extern int n; return n; }", nil},
		{"builtin", "int main() { __builtin_trap(); return 0; }", nil},
		{"several errors", "int main() { break; return zz; }", []diag.Kind{diag.MisplacedBreak, diag.UndefinedSymbol}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(Analyze(parse(t, tt.input)))
			if len(got) != len(tt.want) {
				t.Fatalf("got errors %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("error %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRequireMainOption(t *testing.T) {
	prog := parse(t, "int helper(int x) { return x * 2; }")

	if err := New(Options{}).Analyze(prog); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := New(DefaultOptions()).Analyze(prog); err == nil {
		t.Error("expected missing main error")
	}
}

func TestIncludesRelaxNameChecks(t *testing.T) {
	prog := parse(t, "#include <stdio.h>\nint main() { printf(\"hi\\n\"); fflush(stdout); return 0; }")

	if err := Analyze(prog); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestErrorsAreSemantic(t *testing.T) {
	err := Analyze(parse(t, "int main() {\n  return missing;\n}"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, diag.ErrSemantic) {
		t.Errorf("expected semantic error, got %v", err)
	}
	de, ok := diag.As(err)
	if !ok {
		t.Fatalf("expected *diag.Error, got %T", err)
	}
	if de.Line != 2 || de.Column != 10 {
		t.Errorf("position = %d:%d, want 2:10", de.Line, de.Column)
	}
}

func TestAnalyzerReuse(t *testing.T) {
	a := New(DefaultOptions())
	if err := a.Analyze(parse(t, "int main() { return x; }")); err == nil {
		t.Fatal("expected error")
	}
	if err := a.Analyze(parse(t, "int main() { int x = 0; return x; }")); err != nil {
		t.Errorf("state leaked between runs: %v", err)
	}
	if len(a.Errors()) != 0 {
		t.Errorf("Errors() = %v, want none", a.Errors())
	}
}
