// Package compiler composes the stages into one driver: preprocess, lex,
// parse, analyze, transform and generate assembly.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/raymyers/stackcc/pkg/analyzer"
	"github.com/raymyers/stackcc/pkg/ast"
	"github.com/raymyers/stackcc/pkg/codegen"
	"github.com/raymyers/stackcc/pkg/config"
	"github.com/raymyers/stackcc/pkg/lexer"
	"github.com/raymyers/stackcc/pkg/parser"
	"github.com/raymyers/stackcc/pkg/preproc"
	"github.com/raymyers/stackcc/pkg/transform"
	"golang.org/x/sync/errgroup"
)

// Stage names a point in the pipeline where compilation can stop
type Stage int

const (
	StageLex Stage = iota
	StageParse
	StageAnalyze
	StageTransform
	StageCodegen
)

func (s Stage) String() string {
	switch s {
	case StageLex:
		return "lex"
	case StageParse:
		return "parse"
	case StageAnalyze:
		return "analyze"
	case StageTransform:
		return "transform"
	case StageCodegen:
		return "codegen"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Result holds what each stage produced for one translation unit
type Result struct {
	Name     string
	Source   string
	Tokens   []lexer.Token
	Program  *ast.Program
	Assembly string
	Skipped  []string // constructs the generator could not lower
}

// Compiler runs the pipeline with a fixed configuration. It holds no
// per-file state, so one Compiler may compile several files at once.
type Compiler struct {
	cfg  *config.Config
	logf func(format string, args ...any)
}

// New creates a Compiler. logf receives phase tracing and may be nil.
// Calls to logf are serialized, so it need not be safe for concurrent use.
func New(cfg *config.Config, logf func(format string, args ...any)) *Compiler {
	if cfg == nil {
		cfg = config.Default()
	}
	if logf == nil {
		return &Compiler{cfg: cfg, logf: func(string, ...any) {}}
	}
	var mu sync.Mutex
	return &Compiler{cfg: cfg, logf: func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		logf(format, args...)
	}}
}

// Config returns the configuration in use
func (c *Compiler) Config() *config.Config {
	return c.cfg
}

// PreprocessOptions converts the preprocessor section of the config
func (c *Compiler) PreprocessOptions() *preproc.Options {
	pp := c.cfg.Preprocessor
	return &preproc.Options{
		IncludePaths: pp.IncludePaths,
		Defines:      pp.Defines,
		Undefines:    pp.Undefines,
		KeepComments: pp.KeepComments,
		Command:      pp.Command,
	}
}

// Pipeline builds the transform passes the config asks for
func (c *Compiler) Pipeline() *transform.Pipeline {
	opt := c.cfg.Optimization
	p := transform.NewPipeline()
	if opt.Level >= config.LevelFull && opt.FunctionInlining {
		p.Add(transform.NewInliner())
	}
	if opt.Level >= config.LevelBasic && opt.ConstantFolding {
		p.Add(transform.NewConstantFolder())
	}
	if opt.Level >= config.LevelFull && opt.DeadCodeElimination {
		p.Add(transform.NewDeadCode())
	}
	p.SetTrace(c.logf)
	return p
}

// ReadSource reads path and preprocesses it when the config enables the
// preprocessor and the file is not already preprocessed
func (c *Compiler) ReadSource(path string) (string, error) {
	if c.cfg.Preprocessor.Enabled && preproc.NeedsPreprocessing(path) {
		c.logf("preprocessing %s", path)
		return preproc.Preprocess(path, c.PreprocessOptions())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CompileFile reads and compiles the file at path through every stage
func (c *Compiler) CompileFile(path string) (*Result, error) {
	return c.RunFile(path, StageCodegen)
}

// RunFile reads the file at path and runs the pipeline up to stop
func (c *Compiler) RunFile(path string, stop Stage) (*Result, error) {
	src, err := c.ReadSource(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c.Run(path, src, stop)
}

// Compile runs every stage over src
func (c *Compiler) Compile(name, src string) (*Result, error) {
	return c.Run(name, src, StageCodegen)
}

// Run runs the pipeline over src, stopping after stage stop. Errors are
// prefixed with name; diagnostics stay reachable through diag.As.
func (c *Compiler) Run(name, src string, stop Stage) (*Result, error) {
	res := &Result{Name: name, Source: src}

	c.logf("lexing %s", name)
	res.Tokens = lexer.Scan(src)
	if stop == StageLex {
		return res, nil
	}

	c.logf("parsing %s", name)
	p := parser.New(res.Tokens)
	p.SetSource(src)
	prog, err := p.Parse()
	if err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	res.Program = prog
	if stop == StageParse {
		return res, nil
	}

	if c.cfg.Analyzer.Enabled {
		c.logf("analyzing %s", name)
		a := analyzer.New(analyzer.Options{RequireMain: c.cfg.Analyzer.RequireMain})
		if err := a.Analyze(prog); err != nil {
			return res, fmt.Errorf("%s: %w", name, err)
		}
	}
	if stop == StageAnalyze {
		return res, nil
	}

	if err := c.Pipeline().Run(prog); err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	if stop == StageTransform {
		return res, nil
	}

	c.logf("generating code for %s", name)
	gen := codegen.New(codegen.Options{Strict: c.cfg.Output.Strict})
	res.Assembly, err = gen.Run(prog)
	res.Skipped = gen.Unsupported()
	for _, s := range res.Skipped {
		c.logf("%s: skipped %s", name, s)
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

// CompileFiles compiles independent translation units concurrently, one
// goroutine per file. Results are in the order of paths. Every file is
// compiled even when another fails; the returned error joins all failures.
func (c *Compiler) CompileFiles(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))
	errs := make([]error, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = c.CompileFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, errors.Join(errs...)
}
