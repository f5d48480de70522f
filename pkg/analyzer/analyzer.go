// Package analyzer performs the semantic checks that run between parsing
// and code generation: name resolution, scoping of locals, placement of
// break and continue, and call arity against known prototypes.
package analyzer

import (
	"errors"
	"strings"

	"github.com/raymyers/stackcc/pkg/ast"
	"github.com/raymyers/stackcc/pkg/diag"
)

// Options configures which checks run
type Options struct {
	RequireMain bool // report a translation unit without main
}

// DefaultOptions returns the options used by Analyze
func DefaultOptions() Options {
	return Options{RequireMain: true}
}

// Analyze checks prog with the default options
func Analyze(prog *ast.Program) error {
	return New(DefaultOptions()).Analyze(prog)
}

// Analyzer walks a program and collects semantic errors. An Analyzer may
// be reused; each Analyze call starts from a clean state.
type Analyzer struct {
	opts Options
	prog *ast.Program

	globals map[string]bool
	protos  map[string]*ast.FuncType
	// lenient is set when #include lines were not expanded, so names the
	// headers would declare cannot be checked
	lenient bool

	// per function
	fn       *ast.Function
	scopes   []map[string]bool
	loops    int
	switches int
	labels   map[string]bool
	gotos    []string

	errs []error
}

// New creates an Analyzer
func New(opts Options) *Analyzer {
	return &Analyzer{opts: opts}
}

// Analyze checks prog and returns every error found, joined. Each error
// is a *diag.Error of the semantic family.
func (a *Analyzer) Analyze(prog *ast.Program) error {
	a.prog = prog
	a.globals = make(map[string]bool)
	a.protos = make(map[string]*ast.FuncType)
	a.lenient = len(prog.Includes) > 0
	a.errs = nil

	hasMain := false
	for _, f := range prog.Functions {
		if f.Name == "main" && !f.IsExternal {
			hasMain = true
		}
		a.protos[f.Name] = &ast.FuncType{Return: f.ReturnType, Params: f.Params, IsVariadic: f.IsVariadic}
	}
	for _, s := range prog.Globals {
		a.declareGlobal(s)
	}
	for _, s := range prog.Globals {
		a.globalInit(s)
	}
	if a.opts.RequireMain && !hasMain {
		a.errs = append(a.errs, diag.New(diag.MissingMain, 0, 0, "program must define main"))
	}
	for _, f := range prog.Functions {
		if !f.IsExternal {
			a.function(f)
		}
	}
	return errors.Join(a.errs...)
}

// Errors returns the errors found by the last Analyze call
func (a *Analyzer) Errors() []error {
	return a.errs
}

func (a *Analyzer) errorf(kind diag.Kind, pos ast.Pos, format string, args ...any) {
	a.errs = append(a.errs, diag.Newf(kind, pos.Line, pos.Column, format, args...))
}

func (a *Analyzer) declareGlobal(s ast.Stmt) {
	switch s := unwrap(s).(type) {
	case *ast.VariableDeclaration:
		a.globals[s.Name] = true
		if ft, ok := a.prog.Resolve(s.Type).(*ast.FuncType); ok {
			a.protos[s.Name] = ft
		}
	case *ast.ArrayDeclaration:
		a.globals[s.Name] = true
	}
}

func (a *Analyzer) globalInit(s ast.Stmt) {
	switch s := unwrap(s).(type) {
	case *ast.VariableDeclaration:
		if !s.IsEnumerator {
			a.expr(s.Init)
		}
	case *ast.ArrayDeclaration:
		a.expr(s.Size)
		a.expr(s.Init)
	case *ast.StaticAssert:
		a.expr(s.Cond)
	}
}

func unwrap(s ast.Stmt) ast.Stmt {
	for {
		switch w := s.(type) {
		case *ast.AtomicDeclaration:
			s = w.Decl
		case *ast.ThreadLocalDeclaration:
			s = w.Decl
		case *ast.NoReturnDeclaration:
			s = w.Decl
		default:
			return s
		}
	}
}

func (a *Analyzer) function(f *ast.Function) {
	a.fn = f
	a.scopes = nil
	a.loops, a.switches = 0, 0
	a.labels = make(map[string]bool)
	a.gotos = nil

	// parameters share the outermost scope with the body
	a.push()
	for _, p := range f.Params {
		if p.Name != "" {
			a.declare(p.Name, f.Pos)
		}
	}
	a.stmts(f.Body)
	a.pop()

	for _, l := range a.gotos {
		if !a.labels[l] {
			a.errorf(diag.UndefinedSymbol, f.Pos, "label '%s' used in %s but not defined", l, f.Name)
		}
	}
	a.fn = nil
}

func (a *Analyzer) push() { a.scopes = append(a.scopes, make(map[string]bool)) }
func (a *Analyzer) pop()  { a.scopes = a.scopes[:len(a.scopes)-1] }

func (a *Analyzer) declare(name string, pos ast.Pos) {
	scope := a.scopes[len(a.scopes)-1]
	if scope[name] {
		a.errorf(diag.Redeclaration, pos, "'%s' is already declared in this scope", name)
		return
	}
	scope[name] = true
}

func (a *Analyzer) defined(name string) bool {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if a.scopes[i][name] {
			return true
		}
	}
	if a.globals[name] {
		return true
	}
	_, isFunc := a.protos[name]
	return isFunc || builtin(name)
}

func builtin(name string) bool {
	return name == "__func__" || strings.HasPrefix(name, "__builtin_")
}
