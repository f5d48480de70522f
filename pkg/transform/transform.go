// Package transform implements AST-to-AST passes that run between semantic
// analysis and code generation. Passes mutate the program in place.
package transform

import (
	"fmt"

	"github.com/raymyers/stackcc/pkg/ast"
)

// Transform is a single pass over a program
type Transform interface {
	Apply(prog *ast.Program) error
	Name() string
}

// Pipeline runs a fixed list of passes in order
type Pipeline struct {
	passes []Transform
	trace  func(format string, args ...any)
}

// NewPipeline creates a pipeline of the given passes
func NewPipeline(passes ...Transform) *Pipeline {
	return &Pipeline{passes: passes}
}

// ForLevel builds the pipeline for an optimization level: nothing at 0,
// constant folding at 1, and inlining, constant folding and dead code
// elimination from 2 up.
func ForLevel(level int) *Pipeline {
	p := NewPipeline()
	if level >= 2 {
		p.Add(NewInliner())
	}
	if level >= 1 {
		p.Add(NewConstantFolder())
	}
	if level >= 2 {
		p.Add(NewDeadCode())
	}
	return p
}

// Add appends a pass
func (p *Pipeline) Add(t Transform) {
	p.passes = append(p.passes, t)
}

// SetTrace installs a function called with the name of each pass before
// it runs
func (p *Pipeline) SetTrace(trace func(format string, args ...any)) {
	p.trace = trace
}

// Names lists the passes in run order
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.passes))
	for i, t := range p.passes {
		names[i] = t.Name()
	}
	return names
}

// Len returns the number of passes
func (p *Pipeline) Len() int {
	return len(p.passes)
}

// Run applies every pass to prog, stopping at the first failure
func (p *Pipeline) Run(prog *ast.Program) error {
	for _, t := range p.passes {
		if p.trace != nil {
			p.trace("running pass %s", t.Name())
		}
		if err := t.Apply(prog); err != nil {
			return fmt.Errorf("%s: %w", t.Name(), err)
		}
	}
	return nil
}

// rewriteStmts applies fn to every statement of list, recursing into
// nested statements first. A nil result keeps the statement.
func rewriteStmts(list []ast.Stmt, fn func(ast.Stmt) ast.Stmt) {
	for i, s := range list {
		list[i] = rewriteStmt(s, fn)
	}
}

func rewriteStmt(s ast.Stmt, fn func(ast.Stmt) ast.Stmt) ast.Stmt {
	switch s := s.(type) {
	case nil:
		return nil
	case *ast.Block:
		rewriteStmts(s.Stmts, fn)
	case *ast.If:
		s.Then = rewriteStmt(s.Then, fn)
		s.Else = rewriteStmt(s.Else, fn)
	case *ast.While:
		s.Body = rewriteStmt(s.Body, fn)
	case *ast.DoWhile:
		s.Body = rewriteStmt(s.Body, fn)
	case *ast.For:
		s.Init = rewriteStmt(s.Init, fn)
		s.Body = rewriteStmt(s.Body, fn)
	case *ast.Switch:
		for _, c := range s.Cases {
			rewriteStmts(c.Stmts, fn)
		}
	case *ast.Label:
		s.Stmt = rewriteStmt(s.Stmt, fn)
	case *ast.AtomicDeclaration:
		s.Decl = rewriteStmt(s.Decl, fn)
	case *ast.ThreadLocalDeclaration:
		s.Decl = rewriteStmt(s.Decl, fn)
	case *ast.NoReturnDeclaration:
		s.Decl = rewriteStmt(s.Decl, fn)
	}
	if r := fn(s); r != nil {
		return r
	}
	return s
}

// containsLabel reports whether a goto could jump into s
func containsLabel(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.Label:
		return true
	case *ast.Block:
		for _, c := range s.Stmts {
			if containsLabel(c) {
				return true
			}
		}
	case *ast.If:
		return containsLabel(s.Then) || containsLabel(s.Else)
	case *ast.While:
		return containsLabel(s.Body)
	case *ast.DoWhile:
		return containsLabel(s.Body)
	case *ast.For:
		return containsLabel(s.Body)
	case *ast.Switch:
		for _, c := range s.Cases {
			for _, st := range c.Stmts {
				if containsLabel(st) {
					return true
				}
			}
		}
	}
	return false
}
