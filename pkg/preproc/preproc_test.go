package preproc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNeedsPreprocessing(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"main.c", true},
		{"dir/lib.C", true},
		{"header.h", true},
		{"out.i", false},
		{"OUT.I", false},
		{"noext", true},
	}

	for _, tt := range tests {
		if got := NeedsPreprocessing(tt.filename); got != tt.expected {
			t.Errorf("NeedsPreprocessing(%q) = %v, want %v", tt.filename, got, tt.expected)
		}
	}
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		expected string
	}{
		{"defaults", Options{}, "-E -P"},
		{"line markers", Options{LineMarkers: true}, "-E"},
		{"comments", Options{KeepComments: true}, "-E -P -C"},
		{
			"paths",
			Options{IncludePaths: []string{"inc", "/usr/local/include"}, SystemPaths: []string{"sys"}},
			"-E -P -Iinc -I/usr/local/include -isystem sys",
		},
		{
			"defines sorted",
			Options{Defines: map[string]string{"Z": "", "A": "1", "M": "x y"}, Undefines: []string{"NDEBUG"}},
			"-E -P -DA=1 -DM=x y -DZ -UNDEBUG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(Args(&tt.opts), " "); got != tt.expected {
				t.Errorf("Args() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseDefine(t *testing.T) {
	tests := []struct {
		def, name, value string
	}{
		{"DEBUG", "DEBUG", ""},
		{"N=10", "N", "10"},
		{"EXPR=a=b", "EXPR", "a=b"},
		{"EMPTY=", "EMPTY", ""},
	}

	for _, tt := range tests {
		name, value := ParseDefine(tt.def)
		if name != tt.name || value != tt.value {
			t.Errorf("ParseDefine(%q) = %q, %q; want %q, %q", tt.def, name, value, tt.name, tt.value)
		}
	}
}

func TestMissingCommand(t *testing.T) {
	_, err := PreprocessString("int x;", "x.c", &Options{Command: filepath.Join(t.TempDir(), "no-such-cpp")})
	if err == nil {
		t.Fatal("expected an error for a missing preprocessor")
	}
	if errors.Is(err, ErrNoPreprocessor) {
		t.Errorf("an explicit command should be run, not searched for: %v", err)
	}
}

func requirePreprocessor(t *testing.T) {
	t.Helper()
	if findPreprocessor() == "" {
		t.Skip("no system C preprocessor available")
	}
}

func TestPreprocessString(t *testing.T) {
	requirePreprocessor(t)

	src := "#define N 3\n#ifdef EXTRA\nint extra;\n#endif\nint main() { return N + VALUE; }\n"
	out, err := PreprocessString(src, "main.c", &Options{Defines: map[string]string{"VALUE": "4", "EXTRA": ""}})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"int extra;", "return 3 + 4;"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "# 1") {
		t.Errorf("line markers should be omitted:\n%s", out)
	}
}

func TestPreprocessFileWithInclude(t *testing.T) {
	requirePreprocessor(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "defs.h"), []byte("#define ANSWER 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	main := filepath.Join(dir, "main.c")
	if err := os.WriteFile(main, []byte("#include \"defs.h\"\nint main() { return ANSWER; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := Preprocess(main, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "return 42;") {
		t.Errorf("include not expanded:\n%s", out)
	}
}

func TestPreprocessError(t *testing.T) {
	requirePreprocessor(t)

	_, err := PreprocessString("#error stop here\n", "bad.c", nil)
	if err == nil {
		t.Fatal("expected #error to fail")
	}
	if !strings.Contains(err.Error(), "stop here") {
		t.Errorf("stderr not reported: %v", err)
	}
}
