// Package preproc runs the system C preprocessor (cc -E) ahead of the
// lexer. The compiler core never calls it; the driver does when a source
// file has not been preprocessed yet.
package preproc

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNoPreprocessor is returned when no preprocessor command can be found
var ErrNoPreprocessor = errors.New("no C preprocessor found (tried: cc, gcc, clang)")

// Options configures the preprocessing step
type Options struct {
	IncludePaths []string          // -I directories
	SystemPaths  []string          // -isystem directories
	Defines      map[string]string // -D macros (name -> value, empty string for simple define)
	Undefines    []string          // -U macros
	KeepComments bool              // -C
	LineMarkers  bool              // keep # line markers (omits -P)
	Command      string            // preprocessor to run instead of searching for one
}

// Preprocess runs the C preprocessor on the given source file and returns
// the preprocessed text
func Preprocess(filename string, opts *Options) (string, error) {
	return run(opts, filepath.Dir(filename), nil, filename)
}

// PreprocessString preprocesses source held in memory. filename is used
// only to resolve relative #include "..." paths.
func PreprocessString(source, filename string, opts *Options) (string, error) {
	return run(opts, filepath.Dir(filename), strings.NewReader(source), "-")
}

func run(opts *Options, dir string, stdin *strings.Reader, input string) (string, error) {
	if opts == nil {
		opts = &Options{}
	}
	cppCmd := opts.Command
	if cppCmd == "" {
		cppCmd = findPreprocessor()
	}
	if cppCmd == "" {
		return "", ErrNoPreprocessor
	}

	args := Args(opts)
	if input == "-" {
		args = append(args, "-x", "c")
	}
	args = append(args, input)

	cmd := exec.Command(cppCmd, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}
	// relative includes resolve against the source file's directory
	cmd.Dir = dir

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("preprocessing failed: %w\n%s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Args builds the preprocessor command line for opts, without the input
// file. Defines are emitted in name order so the command is reproducible.
func Args(opts *Options) []string {
	args := []string{"-E"}
	if !opts.LineMarkers {
		args = append(args, "-P")
	}
	if opts.KeepComments {
		args = append(args, "-C")
	}
	for _, path := range opts.IncludePaths {
		args = append(args, "-I"+path)
	}
	for _, path := range opts.SystemPaths {
		args = append(args, "-isystem", path)
	}
	for _, name := range slices.Sorted(maps.Keys(opts.Defines)) {
		if value := opts.Defines[name]; value != "" {
			args = append(args, "-D"+name+"="+value)
		} else {
			args = append(args, "-D"+name)
		}
	}
	for _, name := range opts.Undefines {
		args = append(args, "-U"+name)
	}
	return args
}

// ParseDefine splits a -D argument of the form NAME or NAME=VALUE
func ParseDefine(def string) (name, value string) {
	name, value, _ = strings.Cut(def, "=")
	return name, value
}

// NeedsPreprocessing returns true if the file might need preprocessing.
// Files ending in .i are considered already preprocessed.
func NeedsPreprocessing(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) != ".i"
}

// findPreprocessor searches for a C preprocessor on the system
func findPreprocessor() string {
	for _, cmd := range []string{"cc", "gcc", "clang"} {
		if path, err := exec.LookPath(cmd); err == nil {
			return path
		}
	}
	return ""
}
