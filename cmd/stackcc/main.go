package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/raymyers/stackcc/pkg/ast"
	"github.com/raymyers/stackcc/pkg/compiler"
	"github.com/raymyers/stackcc/pkg/config"
	"github.com/raymyers/stackcc/pkg/diag"
	"github.com/raymyers/stackcc/pkg/lexer"
	"github.com/raymyers/stackcc/pkg/preproc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "0.1.0"

// options holds the command line of one invocation
type options struct {
	// debug dumps
	dTokens bool
	dParse  bool
	dAsm    bool

	output     string
	asmOnly    bool // -S; assembly is the only output, accepted for familiarity
	strict     bool
	configPath string
	verbose    bool

	// preprocessor
	preprocessOnly bool
	includePaths   []string
	defineFlags    []string
	undefineFlags  []string
	noCpp          bool
	cppCommand     string

	// analysis and optimization
	noAnalyze     bool
	noRequireMain bool
	optLevel      string
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Normalize single-dash debug flags to double-dash for pflag compatibility
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the debug flags that also accept single-dash style
var debugFlagNames = []string{"dtokens", "dparse", "dasm"}

// normalizeFlags converts single-dash flags like -dparse to --dparse
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "stackcc [file...]",
		Short: "stackcc compiles C to x86-64 assembly",
		Long: `stackcc is a C compiler for a practical subset of C11. It lexes,
parses and analyzes each translation unit and emits AT&T syntax x86-64
assembly for Mach-O using a simple stack-slot code generator.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if opts.output != "" && len(args) > 1 && !opts.preprocessOnly {
				err := errors.New("-o cannot be used with several input files")
				fmt.Fprintf(errOut, "stackcc: %v\n", err)
				return err
			}

			cfg, err := buildConfig(cmd.Flags(), opts)
			if err != nil {
				fmt.Fprintf(errOut, "stackcc: %v\n", err)
				return err
			}
			logf := func(format string, args ...any) {
				if cfg.Verbose {
					fmt.Fprintf(errOut, "stackcc: "+format+"\n", args...)
				}
			}
			c := compiler.New(cfg, logf)

			switch {
			case opts.preprocessOnly:
				return doPreprocessOnly(c, args, opts.output, out, errOut)
			case opts.dTokens:
				return forEach(args, errOut, func(path string) error { return doTokens(c, path, out) })
			case opts.dParse:
				return forEach(args, errOut, func(path string) error { return doParse(c, path, out) })
			}
			return doCompile(cmd.Context(), c, args, opts, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	addDebugFlags(rootCmd.Flags(), opts)
	addOutputFlags(rootCmd.Flags(), opts)
	addPreprocessorFlags(rootCmd.Flags(), opts)
	addAnalysisFlags(rootCmd.Flags(), opts)

	return rootCmd
}

func addDebugFlags(fs *pflag.FlagSet, opts *options) {
	fs.BoolVar(&opts.dTokens, "dtokens", false, "Dump the token stream")
	fs.BoolVar(&opts.dParse, "dparse", false, "Dump after parsing")
	fs.BoolVar(&opts.dAsm, "dasm", false, "Dump assembly")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Trace compiler phases on stderr")
}

func addOutputFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVarP(&opts.output, "output", "o", "", "Write output to `file`")
	fs.BoolVarP(&opts.asmOnly, "assemble", "S", true, "Emit assembly (the only output format)")
	fs.BoolVar(&opts.strict, "strict", false, "Fail on constructs the code generator cannot lower")
	fs.StringVar(&opts.configPath, "config", "", "Read configuration from a YAML `file`")
}

func addPreprocessorFlags(fs *pflag.FlagSet, opts *options) {
	fs.BoolVarP(&opts.preprocessOnly, "preprocess", "E", false, "Preprocess only, output to stdout")
	fs.StringArrayVarP(&opts.includePaths, "include", "I", nil, "Add directory to include search path")
	fs.StringArrayVarP(&opts.defineFlags, "define", "D", nil, "Define macro (NAME or NAME=VALUE)")
	fs.StringArrayVarP(&opts.undefineFlags, "undefine", "U", nil, "Undefine macro")
	fs.BoolVar(&opts.noCpp, "no-cpp", false, "Do not run the C preprocessor")
	fs.StringVar(&opts.cppCommand, "cpp", "", "Preprocessor `command` to run instead of cc")
}

func addAnalysisFlags(fs *pflag.FlagSet, opts *options) {
	fs.BoolVar(&opts.noAnalyze, "no-analyze", false, "Skip semantic analysis")
	fs.BoolVar(&opts.noRequireMain, "no-require-main", false, "Accept a translation unit without main")
	fs.StringVarP(&opts.optLevel, "opt-level", "O", "0", "Optimization `level`: 0-2 or none, basic, full")
}

// buildConfig loads the config file, if any, and lets flags given on the
// command line override it
func buildConfig(fs *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if fs.Changed("opt-level") {
		level, err := config.ParseLevel(opts.optLevel)
		if err != nil {
			return nil, err
		}
		cfg.Optimization.Level = level
	}
	if fs.Changed("strict") {
		cfg.Output.Strict = opts.strict
	}
	if fs.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	if fs.Changed("no-analyze") {
		cfg.Analyzer.Enabled = !opts.noAnalyze
	}
	if fs.Changed("no-require-main") {
		cfg.Analyzer.RequireMain = !opts.noRequireMain
	}

	pp := &cfg.Preprocessor
	if fs.Changed("no-cpp") {
		pp.Enabled = !opts.noCpp
	}
	if opts.cppCommand != "" {
		pp.Command = opts.cppCommand
	}
	pp.IncludePaths = append(pp.IncludePaths, opts.includePaths...)
	pp.Undefines = append(pp.Undefines, opts.undefineFlags...)
	if len(opts.defineFlags) > 0 && pp.Defines == nil {
		pp.Defines = make(map[string]string)
	}
	for _, d := range opts.defineFlags {
		name, value := preproc.ParseDefine(d)
		pp.Defines[name] = value
	}
	return cfg, nil
}

// forEach runs fn on every file, reporting each failure, and fails if any did
func forEach(paths []string, errOut io.Writer, fn func(path string) error) error {
	var errs []error
	for _, path := range paths {
		if err := fn(path); err != nil {
			reportError(errOut, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reportError prints err, expanding diagnostics with their source snippet
func reportError(errOut io.Writer, err error) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			reportError(errOut, e)
		}
		return
	}
	msg := err.Error()
	if de, ok := diag.As(err); ok {
		msg = strings.Replace(msg, de.Error(), de.Render(), 1)
	}
	fmt.Fprintf(errOut, "stackcc: %s\n", msg)
}

// doPreprocessOnly preprocesses and outputs to stdout or -o (-E flag)
func doPreprocessOnly(c *compiler.Compiler, paths []string, output string, out, errOut io.Writer) error {
	var sb strings.Builder
	err := forEach(paths, errOut, func(path string) error {
		content, err := preproc.Preprocess(path, c.PreprocessOptions())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		sb.WriteString(content)
		return nil
	})
	if err != nil {
		return err
	}
	if output != "" {
		return writeOutput(output, sb.String(), errOut)
	}
	fmt.Fprint(out, sb.String())
	return nil
}

// doTokens lexes the file and writes one token per line to a .tokens file
// and to stdout
func doTokens(c *compiler.Compiler, path string, out io.Writer) error {
	res, err := c.RunFile(path, compiler.StageLex)
	if err != nil {
		return err
	}
	var sb strings.Builder
	for _, tok := range res.Tokens {
		sb.WriteString(formatToken(tok))
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(outputFilename(path, ".tokens"), []byte(sb.String()), 0o644); err != nil {
		return err
	}
	fmt.Fprint(out, sb.String())
	return nil
}

// formatToken renders a token as line:col, kind and lexeme, plus the
// decoded literal when it differs from the lexeme
func formatToken(tok lexer.Token) string {
	s := fmt.Sprintf("%d:%d\t%s\t%s", tok.Line, tok.Column, tok.Type, tok.Lexeme)
	if tok.HasLiteral && tok.Literal != tok.Lexeme {
		s += fmt.Sprintf("\t%q", tok.Literal)
	}
	return s
}

// doParse parses the file and writes the AST to a .parsed.c file and to
// stdout
func doParse(c *compiler.Compiler, path string, out io.Writer) error {
	res, err := c.RunFile(path, compiler.StageParse)
	if err != nil {
		return err
	}
	var sb strings.Builder
	ast.NewPrinter(&sb).PrintProgram(res.Program)
	if err := os.WriteFile(outputFilename(path, ".parsed.c"), []byte(sb.String()), 0o644); err != nil {
		return err
	}
	fmt.Fprint(out, sb.String())
	return nil
}

// doCompile compiles every file concurrently and writes each assembly
// listing next to its source, or to -o
func doCompile(ctx context.Context, c *compiler.Compiler, paths []string, opts *options, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := c.CompileFiles(ctx, paths)

	var failed []error
	if err != nil {
		reportError(errOut, err)
		failed = append(failed, err)
	}
	for _, res := range results {
		if res == nil || res.Assembly == "" {
			continue
		}
		for _, s := range res.Skipped {
			fmt.Fprintf(errOut, "stackcc: warning: %s: unsupported %s\n", res.Name, s)
		}
		dest := opts.output
		if dest == "" {
			dest = outputFilename(res.Name, ".s")
		}
		if err := writeOutput(dest, res.Assembly, errOut); err != nil {
			failed = append(failed, err)
			continue
		}
		if opts.dAsm {
			fmt.Fprint(out, res.Assembly)
		}
	}
	return errors.Join(failed...)
}

func writeOutput(path, content string, errOut io.Writer) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		fmt.Fprintf(errOut, "stackcc: error creating %s: %v\n", path, err)
		return err
	}
	return nil
}

// outputFilename replaces the source extension with ext:
// input.c -> input.s, input.i -> input.s
func outputFilename(path, ext string) string {
	switch filepath.Ext(path) {
	case ".c", ".i":
		return strings.TrimSuffix(path, filepath.Ext(path)) + ext
	}
	return path + ext
}
