package analyzer

import (
	"github.com/raymyers/stackcc/pkg/ast"
	"github.com/raymyers/stackcc/pkg/diag"
)

func (a *Analyzer) stmts(list []ast.Stmt) {
	for _, s := range list {
		a.stmt(s)
	}
}

func (a *Analyzer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case nil, *ast.Empty:
	case *ast.Return:
		a.expr(s.Expr)
		a.checkReturn(s)
	case *ast.VariableDeclaration:
		a.local(s.Name, s.Type, s.Storage, s.Pos)
		a.expr(s.Alignment)
		a.expr(s.Init)
	case *ast.ArrayDeclaration:
		a.expr(s.Size)
		a.local(s.Name, s.Type, s.Storage, s.Pos)
		a.expr(s.Alignment)
		a.expr(s.Init)
	case *ast.Block:
		a.push()
		a.stmts(s.Stmts)
		a.pop()
	case *ast.If:
		a.expr(s.Cond)
		a.stmt(s.Then)
		a.stmt(s.Else)
	case *ast.While:
		a.expr(s.Cond)
		a.loop(s.Body)
	case *ast.DoWhile:
		a.loop(s.Body)
		a.expr(s.Cond)
	case *ast.For:
		a.push()
		a.stmt(s.Init)
		a.expr(s.Cond)
		a.expr(s.Post)
		a.loop(s.Body)
		a.pop()
	case *ast.Switch:
		a.expr(s.Expr)
		a.switches++
		a.push()
		for _, c := range s.Cases {
			a.expr(c.Value)
			a.stmts(c.Stmts)
		}
		a.pop()
		a.switches--
	case *ast.Break:
		if a.loops == 0 && a.switches == 0 {
			a.errorf(diag.MisplacedBreak, s.Pos, "in %s", a.fn.Name)
		}
	case *ast.Continue:
		if a.loops == 0 {
			a.errorf(diag.MisplacedContinue, s.Pos, "in %s", a.fn.Name)
		}
	case *ast.Goto:
		a.gotos = append(a.gotos, s.Label)
	case *ast.Label:
		if a.labels[s.Name] {
			a.errorf(diag.Redeclaration, a.fn.Pos, "label '%s' defined twice in %s", s.Name, a.fn.Name)
		}
		a.labels[s.Name] = true
		a.stmt(s.Stmt)
	case *ast.ExpressionStatement:
		a.expr(s.Expr)
	case *ast.StaticAssert:
		a.expr(s.Cond)
	case *ast.AtomicDeclaration:
		a.stmt(s.Decl)
	case *ast.ThreadLocalDeclaration:
		a.stmt(s.Decl)
	case *ast.NoReturnDeclaration:
		a.stmt(s.Decl)
	}
}

func (a *Analyzer) loop(body ast.Stmt) {
	a.loops++
	a.stmt(body)
	a.loops--
}

// local declares a block-scope name. extern declarations and function
// prototypes may be repeated.
func (a *Analyzer) local(name string, t ast.Type, storage ast.Storage, pos ast.Pos) {
	ft, isFunc := a.prog.Resolve(t).(*ast.FuncType)
	if isFunc {
		if _, known := a.protos[name]; !known {
			a.protos[name] = ft
		}
	}
	if (isFunc || storage == ast.StorageExtern) && a.scopes[len(a.scopes)-1][name] {
		return
	}
	a.declare(name, pos)
}

func (a *Analyzer) checkReturn(r *ast.Return) {
	p, ok := a.prog.Resolve(a.fn.ReturnType).(*ast.Primitive)
	if ok && p.Kind == ast.Void && r.Expr != nil {
		a.errorf(diag.TypeMismatch, r.Pos, "%s returns void but a value is returned", a.fn.Name)
	}
}

func (a *Analyzer) expr(e ast.Expr) {
	switch e := e.(type) {
	case nil:
	case *ast.Variable:
		if !a.defined(e.Name) && !a.lenient {
			a.errorf(diag.UndefinedSymbol, e.Pos, "'%s' is used before being declared", e.Name)
		}
	case *ast.FunctionCall:
		a.call(e)
	case *ast.BinaryOperation:
		a.expr(e.Left)
		a.expr(e.Right)
	case *ast.UnaryOperation:
		a.expr(e.Operand)
	case *ast.Assignment:
		a.expr(e.Target)
		a.expr(e.Value)
	case *ast.TernaryIf:
		a.expr(e.Cond)
		a.expr(e.Then)
		a.expr(e.Else)
	case *ast.Cast:
		a.expr(e.Expr)
	case *ast.SizeOf:
		a.expr(e.Expr)
	case *ast.ArrayAccess:
		a.expr(e.Array)
		a.expr(e.Index)
	case *ast.StructFieldAccess:
		a.expr(e.Object)
	case *ast.PointerFieldAccess:
		a.expr(e.Pointer)
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			a.expr(el)
		}
	case *ast.CompoundLiteral:
		for _, el := range e.Elements {
			a.expr(el)
		}
	case *ast.DesignatedInit:
		a.expr(e.Index)
		a.expr(e.Value)
	case *ast.GenericSelection:
		a.expr(e.Control)
		for _, as := range e.Assocs {
			a.expr(as.Expr)
		}
		a.expr(e.Default)
	}
}

func (a *Analyzer) call(c *ast.FunctionCall) {
	for _, arg := range c.Args {
		a.expr(arg)
	}
	if a.shadowed(c.Name) {
		// a local function pointer
		return
	}
	ft, ok := a.protos[c.Name]
	if !ok {
		if !a.globals[c.Name] && !builtin(c.Name) && !a.lenient {
			a.errorf(diag.UndefinedSymbol, c.Pos, "call to undeclared function '%s'", c.Name)
		}
		return
	}
	// f() and f(void) both carry no parameters; only listed ones are checked
	if len(ft.Params) == 0 {
		return
	}
	if n := len(c.Args); n < len(ft.Params) || (n > len(ft.Params) && !ft.IsVariadic) {
		a.errorf(diag.WrongArgumentCount, c.Pos, "'%s' expects %d arguments, got %d", c.Name, len(ft.Params), n)
	}
}

func (a *Analyzer) shadowed(name string) bool {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if a.scopes[i][name] {
			return true
		}
	}
	return false
}
