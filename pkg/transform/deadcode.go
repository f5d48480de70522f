package transform

import (
	"github.com/raymyers/stackcc/pkg/ast"
)

// DeadCode removes code that can never run or whose result is never used:
// statements after an unconditional jump, if and while statements with a
// constant condition, and local declarations that are never referenced
// and have no side effects. Anything a goto could still reach is kept.
type DeadCode struct {
	removed int
}

// NewDeadCode creates a dead code elimination pass
func NewDeadCode() *DeadCode {
	return &DeadCode{}
}

func (*DeadCode) Name() string { return "dead-code" }

// Removed returns how many statements were dropped
func (d *DeadCode) Removed() int {
	return d.removed
}

func (d *DeadCode) Apply(prog *ast.Program) error {
	for _, f := range prog.Functions {
		if f.IsExternal {
			continue
		}
		rewriteStmts(f.Body, d.simplify)
		f.Body = d.list(f.Body)

		used := make(map[string]bool)
		for _, s := range f.Body {
			usedInStmt(s, used)
		}
		f.Body = d.unused(f.Body, used)
	}
	return nil
}

// simplify resolves branches on constant conditions
func (d *DeadCode) simplify(s ast.Stmt) ast.Stmt {
	switch s := s.(type) {
	case *ast.Block:
		s.Stmts = d.list(s.Stmts)
	case *ast.Switch:
		for _, c := range s.Cases {
			c.Stmts = d.list(c.Stmts)
		}
	case *ast.If:
		cond, ok := ast.EvalConst(s.Cond, nil)
		if !ok {
			return nil
		}
		live, dead := s.Then, s.Else
		if cond == 0 {
			live, dead = s.Else, s.Then
		}
		if containsLabel(dead) {
			return nil
		}
		d.removed++
		if live == nil {
			return &ast.Empty{}
		}
		return live
	case *ast.While:
		if cond, ok := ast.EvalConst(s.Cond, nil); ok && cond == 0 && !containsLabel(s.Body) {
			d.removed++
			return &ast.Empty{}
		}
	}
	return nil
}

// list drops unreachable statements that follow a return, break,
// continue or goto, up to the next label
func (d *DeadCode) list(stmts []ast.Stmt) []ast.Stmt {
	out := stmts[:0]
	dead := false
	for _, s := range stmts {
		if dead && !containsLabel(s) && !isDeclaration(s) {
			d.removed++
			continue
		}
		if containsLabel(s) {
			dead = false
		}
		out = append(out, s)
		switch s.(type) {
		case *ast.Return, *ast.Break, *ast.Continue, *ast.Goto:
			dead = true
		}
	}
	return out
}

// unused drops declarations, at any depth, of names never referenced in
// the function
func (d *DeadCode) unused(stmts []ast.Stmt, used map[string]bool) []ast.Stmt {
	out := stmts[:0]
	for _, s := range stmts {
		if name, init, ok := localDecl(s); ok && !used[name] && pure(init) {
			d.removed++
			continue
		}
		d.unusedIn(s, used)
		out = append(out, s)
	}
	return out
}

func (d *DeadCode) unusedIn(s ast.Stmt, used map[string]bool) {
	switch s := s.(type) {
	case *ast.Block:
		s.Stmts = d.unused(s.Stmts, used)
	case *ast.Switch:
		for _, c := range s.Cases {
			c.Stmts = d.unused(c.Stmts, used)
		}
	case *ast.If:
		d.unusedIn(s.Then, used)
		d.unusedIn(s.Else, used)
	case *ast.While:
		d.unusedIn(s.Body, used)
	case *ast.DoWhile:
		d.unusedIn(s.Body, used)
	case *ast.For:
		d.unusedIn(s.Body, used)
	case *ast.Label:
		d.unusedIn(s.Stmt, used)
	}
}

func isDeclaration(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.VariableDeclaration, *ast.ArrayDeclaration:
		return true
	}
	return false
}

// localDecl matches a plain automatic declaration. Static, extern and
// volatile objects and function prototypes are never removed.
func localDecl(s ast.Stmt) (name string, init ast.Expr, ok bool) {
	switch s := s.(type) {
	case *ast.VariableDeclaration:
		if s.Storage == ast.StorageStatic || s.Storage == ast.StorageExtern || s.IsEnumerator || volatile(s.Type) {
			return "", nil, false
		}
		if _, isFunc := ast.Unqualified(s.Type).(*ast.FuncType); isFunc {
			return "", nil, false
		}
		return s.Name, s.Init, true
	case *ast.ArrayDeclaration:
		if s.Storage == ast.StorageStatic || s.Storage == ast.StorageExtern || volatile(s.Type) {
			return "", nil, false
		}
		// a variable length array evaluates its size
		if !pure(s.Size) {
			return "", nil, false
		}
		return s.Name, s.Init, true
	}
	return "", nil, false
}

func volatile(t ast.Type) bool {
	for {
		switch q := t.(type) {
		case *ast.Qualified:
			if q.Qual == ast.Volatile {
				return true
			}
			t = q.Elem
		case *ast.Array:
			t = q.Elem
		default:
			return false
		}
	}
}

// pure reports whether evaluating e has no side effects
func pure(e ast.Expr) bool {
	switch e := e.(type) {
	case nil, *ast.IntegerLiteral, *ast.FloatLiteral, *ast.CharLiteral,
		*ast.StringLiteral, *ast.Variable, *ast.SizeOfType, *ast.AlignOf:
		return true
	case *ast.SizeOf:
		return true
	case *ast.BinaryOperation:
		return pure(e.Left) && pure(e.Right)
	case *ast.UnaryOperation:
		switch e.Op {
		case ast.OpPreInc, ast.OpPreDec, ast.OpPostInc, ast.OpPostDec:
			return false
		}
		return pure(e.Operand)
	case *ast.TernaryIf:
		return pure(e.Cond) && pure(e.Then) && pure(e.Else)
	case *ast.Cast:
		return pure(e.Expr)
	case *ast.ArrayAccess:
		return pure(e.Array) && pure(e.Index)
	case *ast.StructFieldAccess:
		return pure(e.Object)
	case *ast.PointerFieldAccess:
		return pure(e.Pointer)
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			if !pure(el) {
				return false
			}
		}
		return true
	case *ast.DesignatedInit:
		return pure(e.Index) && pure(e.Value)
	}
	return false
}

// usedInStmt records every name s refers to
func usedInStmt(s ast.Stmt, used map[string]bool) {
	switch s := s.(type) {
	case *ast.Return:
		usedInExpr(s.Expr, used)
	case *ast.VariableDeclaration:
		usedInExpr(s.Init, used)
		usedInExpr(s.Alignment, used)
	case *ast.ArrayDeclaration:
		usedInExpr(s.Size, used)
		usedInExpr(s.Init, used)
		usedInExpr(s.Alignment, used)
	case *ast.Block:
		for _, c := range s.Stmts {
			usedInStmt(c, used)
		}
	case *ast.If:
		usedInExpr(s.Cond, used)
		usedInStmt(s.Then, used)
		usedInStmt(s.Else, used)
	case *ast.While:
		usedInExpr(s.Cond, used)
		usedInStmt(s.Body, used)
	case *ast.DoWhile:
		usedInStmt(s.Body, used)
		usedInExpr(s.Cond, used)
	case *ast.For:
		usedInStmt(s.Init, used)
		usedInExpr(s.Cond, used)
		usedInExpr(s.Post, used)
		usedInStmt(s.Body, used)
	case *ast.Switch:
		usedInExpr(s.Expr, used)
		for _, c := range s.Cases {
			usedInExpr(c.Value, used)
			for _, st := range c.Stmts {
				usedInStmt(st, used)
			}
		}
	case *ast.Label:
		usedInStmt(s.Stmt, used)
	case *ast.ExpressionStatement:
		usedInExpr(s.Expr, used)
	case *ast.StaticAssert:
		usedInExpr(s.Cond, used)
	case *ast.AtomicDeclaration:
		usedInStmt(s.Decl, used)
	case *ast.ThreadLocalDeclaration:
		usedInStmt(s.Decl, used)
	case *ast.NoReturnDeclaration:
		usedInStmt(s.Decl, used)
	}
}

func usedInExpr(e ast.Expr, used map[string]bool) {
	switch e := e.(type) {
	case *ast.Variable:
		used[e.Name] = true
	case *ast.FunctionCall:
		// a call through a local function pointer names the pointer
		used[e.Name] = true
		for _, a := range e.Args {
			usedInExpr(a, used)
		}
	case *ast.BinaryOperation:
		usedInExpr(e.Left, used)
		usedInExpr(e.Right, used)
	case *ast.UnaryOperation:
		usedInExpr(e.Operand, used)
	case *ast.Assignment:
		usedInExpr(e.Target, used)
		usedInExpr(e.Value, used)
	case *ast.TernaryIf:
		usedInExpr(e.Cond, used)
		usedInExpr(e.Then, used)
		usedInExpr(e.Else, used)
	case *ast.Cast:
		usedInExpr(e.Expr, used)
	case *ast.SizeOf:
		usedInExpr(e.Expr, used)
	case *ast.ArrayAccess:
		usedInExpr(e.Array, used)
		usedInExpr(e.Index, used)
	case *ast.StructFieldAccess:
		usedInExpr(e.Object, used)
	case *ast.PointerFieldAccess:
		usedInExpr(e.Pointer, used)
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			usedInExpr(el, used)
		}
	case *ast.CompoundLiteral:
		for _, el := range e.Elements {
			usedInExpr(el, used)
		}
	case *ast.DesignatedInit:
		usedInExpr(e.Index, used)
		usedInExpr(e.Value, used)
	case *ast.GenericSelection:
		usedInExpr(e.Control, used)
		for _, a := range e.Assocs {
			usedInExpr(a.Expr, used)
		}
		usedInExpr(e.Default, used)
	}
}
