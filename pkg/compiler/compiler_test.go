package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raymyers/stackcc/pkg/codegen"
	"github.com/raymyers/stackcc/pkg/config"
	"github.com/raymyers/stackcc/pkg/diag"
)

// noPreprocessor keeps tests independent of a system cc
func noPreprocessor() *config.Config {
	cfg := config.Default()
	cfg.Preprocessor.Enabled = false
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompile(t *testing.T) {
	res, err := New(noPreprocessor(), nil).Compile("add.c", "int add(int a, int b) { return a + b; }\nint main() { return add(1, 2); }\n")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"_add:", "_main:", "call _add", "ret"} {
		if !strings.Contains(res.Assembly, want) {
			t.Errorf("assembly missing %q:\n%s", want, res.Assembly)
		}
	}
	if res.Program == nil || len(res.Tokens) == 0 {
		t.Error("intermediate results not kept")
	}
}

func TestRunStopsAtStage(t *testing.T) {
	src := "int main() { return undefined_name; }"
	c := New(noPreprocessor(), nil)

	tests := []struct {
		stop    Stage
		wantErr bool
	}{
		{StageLex, false},
		{StageParse, false},
		{StageAnalyze, true},
		{StageCodegen, true},
	}
	for _, tt := range tests {
		t.Run(tt.stop.String(), func(t *testing.T) {
			res, err := c.Run("x.c", src, tt.stop)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if res.Assembly != "" {
				t.Error("code generated despite stopping early")
			}
		})
	}
}

func TestSyntaxErrorIsPrefixed(t *testing.T) {
	_, err := New(noPreprocessor(), nil).Compile("bad.c", "int main() {\n  return 1\n}\n")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "bad.c: ") {
		t.Errorf("error not prefixed with file name: %v", err)
	}
	if !errors.Is(err, diag.ErrSyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}
	de, ok := diag.As(err)
	if !ok || de.Snippet == "" {
		t.Errorf("diagnostic should carry a snippet: %#v", de)
	}
}

func TestAnalyzerCanBeDisabled(t *testing.T) {
	cfg := noPreprocessor()
	src := "int helper() { return 1; }"

	if _, err := New(cfg, nil).Compile("lib.c", src); err == nil {
		t.Error("expected missing main error")
	}
	cfg.Analyzer.RequireMain = false
	if _, err := New(cfg, nil).Compile("lib.c", src); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.Analyzer.Enabled = false
	if _, err := New(cfg, nil).Compile("lib.c", "int f() { return g; }"); err != nil {
		t.Errorf("analysis ran while disabled: %v", err)
	}
}

func TestOptimizationLevels(t *testing.T) {
	src := "int main() { int unused = 4; return 6 * 7; }"

	tests := []struct {
		level config.Level
		want  []string
		not   []string
	}{
		{config.LevelNone, []string{"mov $7, %rax", "mov $6, %rax", "imul %rcx, %rax"}, []string{"mov $42, %rax"}},
		{config.LevelBasic, []string{"mov $42, %rax", "mov $4, %rax"}, []string{"imul"}},
		{config.LevelFull, []string{"mov $42, %rax"}, []string{"mov $4, %rax"}},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			cfg := noPreprocessor()
			cfg.Optimization.Level = tt.level
			res, err := New(cfg, nil).Compile("opt.c", src)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(res.Assembly, w) {
					t.Errorf("missing %q:\n%s", w, res.Assembly)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(res.Assembly, n) {
					t.Errorf("unexpected %q:\n%s", n, res.Assembly)
				}
			}
		})
	}
}

func TestPipelineHonorsSwitches(t *testing.T) {
	cfg := noPreprocessor()
	cfg.Optimization.Level = config.LevelFull
	cfg.Optimization.ConstantFolding = false

	names := New(cfg, nil).Pipeline().Names()
	if strings.Join(names, ",") != "inline,dead-code" {
		t.Errorf("passes = %v, want [inline dead-code]", names)
	}

	cfg.Optimization.FunctionInlining = false
	names = New(cfg, nil).Pipeline().Names()
	if strings.Join(names, ",") != "dead-code" {
		t.Errorf("passes = %v, want [dead-code]", names)
	}
}

func TestStrictOutput(t *testing.T) {
	cfg := noPreprocessor()
	src := "int main() { float f = 1.5; return 0; }"

	res, err := New(cfg, nil).Compile("f.c", src)
	if err != nil {
		t.Fatalf("permissive mode failed: %v", err)
	}
	if len(res.Skipped) == 0 {
		t.Error("skipped constructs not reported")
	}

	cfg.Output.Strict = true
	if _, err := New(cfg, nil).Compile("f.c", src); !errors.Is(err, codegen.ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestTrace(t *testing.T) {
	var lines []string
	logf := func(format string, args ...any) {
		lines = append(lines, format)
	}
	cfg := noPreprocessor()
	cfg.Optimization.Level = config.LevelBasic
	if _, err := New(cfg, logf).Compile("t.c", "int main() { return 0; }"); err != nil {
		t.Fatal(err)
	}
	got := strings.Join(lines, "|")
	for _, want := range []string{"lexing %s", "parsing %s", "analyzing %s", "running pass %s", "generating code for %s"} {
		if !strings.Contains(got, want) {
			t.Errorf("trace missing %q: %s", want, got)
		}
	}
}

func TestCompileFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "one.i", "int main() { return 1; }\n"),
		writeFile(t, dir, "two.i", "int main() { return x; }\n"),
		writeFile(t, dir, "three.i", "int main() { return 3; }\n"),
		filepath.Join(dir, "missing.i"),
	}

	results, err := New(config.Default(), nil).CompileFiles(context.Background(), paths)
	if err == nil {
		t.Fatal("expected errors")
	}
	if !strings.Contains(err.Error(), "two.i") || !strings.Contains(err.Error(), "missing.i") {
		t.Errorf("error should name both failing files: %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}
	if !strings.Contains(results[0].Assembly, "mov $1, %rax") || !strings.Contains(results[2].Assembly, "mov $3, %rax") {
		t.Error("results not in input order")
	}
	if results[3] != nil {
		t.Error("unreadable file should have no result")
	}
}

func TestCompileFilesSerializesTrace(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := range 16 {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("f%d.i", i), "int main() { int x = 1; return x; }\n"))
	}

	// appends without a lock of its own
	var lines []string
	logf := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	if _, err := New(noPreprocessor(), logf).CompileFiles(context.Background(), paths); err != nil {
		t.Fatal(err)
	}

	lexed := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "lexing ") {
			lexed++
		}
	}
	if lexed != len(paths) {
		t.Errorf("got %d lexing lines, want %d", lexed, len(paths))
	}
}

func TestCompileFilesCanceled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.i", "int main() { return 0; }\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(config.Default(), nil).CompileFiles(ctx, []string{path})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestReadSourceSkipsPreprocessedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pre.i", "#define X 1\nint main() { return 0; }\n")

	src, err := New(config.Default(), nil).ReadSource(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "#define X 1") {
		t.Error(".i files must be read verbatim")
	}
}
