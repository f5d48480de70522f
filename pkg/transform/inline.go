package transform

import "github.com/raymyers/stackcc/pkg/ast"

// Inliner replaces calls to small functions with their bodies. A function
// qualifies when its whole body is a single return of a side-effect-free
// expression that calls nothing, every parameter is a scalar used at most
// once and never has its address taken. Arguments must be side-effect free
// too. Arguments and the result are wrapped in casts to the declared types,
// keeping the conversions a real call would perform.
type Inliner struct {
	prog    *ast.Program
	inlined int
}

func NewInliner() *Inliner {
	return &Inliner{}
}

func (*Inliner) Name() string { return "inline" }

// Inlined returns the number of calls replaced by the last Apply
func (in *Inliner) Inlined() int {
	return in.inlined
}

// inlineCandidate is a function whose calls can be replaced
type inlineCandidate struct {
	fn     *ast.Function
	result ast.Expr
	free   map[string]bool // names the body reads besides its parameters
}

func (in *Inliner) Apply(prog *ast.Program) error {
	in.prog = prog
	in.inlined = 0

	candidates := make(map[string]*inlineCandidate)
	for _, f := range prog.Functions {
		if c := in.candidate(f); c != nil {
			candidates[f.Name] = c
		} else if !f.IsExternal {
			delete(candidates, f.Name)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	for _, f := range prog.Functions {
		if f.IsExternal {
			continue
		}
		c := &inlineCall{in: in, candidates: candidates, declared: declaredNames(f)}
		c.stmts(f.Body)
	}
	return nil
}

func (in *Inliner) candidate(f *ast.Function) *inlineCandidate {
	if f.IsExternal || f.IsVariadic || len(f.Body) != 1 || !in.scalar(f.ReturnType) {
		return nil
	}
	ret, ok := f.Body[0].(*ast.Return)
	if !ok || ret.Expr == nil || !pure(ret.Expr) || hasCall(ret.Expr) {
		return nil
	}

	uses := make(map[string]int)
	params := make(map[string]bool)
	for _, p := range f.Params {
		if p.Name == "" || params[p.Name] || !in.scalar(p.Type) {
			return nil
		}
		params[p.Name] = true
	}
	free := make(map[string]bool)
	ok = walkExpr(ret.Expr, func(e ast.Expr) bool {
		switch e := e.(type) {
		case *ast.Variable:
			if params[e.Name] {
				uses[e.Name]++
				return uses[e.Name] <= 1
			}
			free[e.Name] = true
		case *ast.UnaryOperation:
			if e.Op == ast.OpAddrOf && refersTo(e.Operand, params) {
				return false
			}
		}
		return true
	})
	if !ok {
		return nil
	}
	return &inlineCandidate{fn: f, result: ret.Expr, free: free}
}

// scalar reports whether values of t survive a cast unchanged in meaning
func (in *Inliner) scalar(t ast.Type) bool {
	switch t := ast.Unqualified(in.prog.Resolve(t)).(type) {
	case *ast.Primitive:
		return t.Kind.IsInteger()
	case *ast.Pointer:
		return true
	}
	return false
}

// inlineCall rewrites the calls inside one function body
type inlineCall struct {
	in         *Inliner
	candidates map[string]*inlineCandidate
	declared   map[string]bool
}

func (c *inlineCall) stmts(list []ast.Stmt) {
	for _, s := range list {
		c.stmt(s)
	}
}

func (c *inlineCall) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Return:
		s.Expr = c.expr(s.Expr)
	case *ast.ExpressionStatement:
		s.Expr = c.expr(s.Expr)
	case *ast.VariableDeclaration:
		s.Init = c.expr(s.Init)
	case *ast.ArrayDeclaration:
		s.Init = c.expr(s.Init)
	case *ast.Block:
		c.stmts(s.Stmts)
	case *ast.If:
		s.Cond = c.expr(s.Cond)
		c.stmt(s.Then)
		c.stmt(s.Else)
	case *ast.While:
		s.Cond = c.expr(s.Cond)
		c.stmt(s.Body)
	case *ast.DoWhile:
		c.stmt(s.Body)
		s.Cond = c.expr(s.Cond)
	case *ast.For:
		c.stmt(s.Init)
		s.Cond = c.expr(s.Cond)
		s.Post = c.expr(s.Post)
		c.stmt(s.Body)
	case *ast.Switch:
		s.Expr = c.expr(s.Expr)
		for _, cs := range s.Cases {
			c.stmts(cs.Stmts)
		}
	case *ast.Label:
		c.stmt(s.Stmt)
	case *ast.AtomicDeclaration:
		c.stmt(s.Decl)
	case *ast.ThreadLocalDeclaration:
		c.stmt(s.Decl)
	case *ast.NoReturnDeclaration:
		c.stmt(s.Decl)
	}
}

func (c *inlineCall) expr(e ast.Expr) ast.Expr {
	switch e := e.(type) {
	case *ast.BinaryOperation:
		e.Left = c.expr(e.Left)
		e.Right = c.expr(e.Right)
	case *ast.UnaryOperation:
		e.Operand = c.expr(e.Operand)
	case *ast.Assignment:
		e.Target = c.expr(e.Target)
		e.Value = c.expr(e.Value)
	case *ast.TernaryIf:
		e.Cond = c.expr(e.Cond)
		e.Then = c.expr(e.Then)
		e.Else = c.expr(e.Else)
	case *ast.Cast:
		e.Expr = c.expr(e.Expr)
	case *ast.ArrayAccess:
		e.Array = c.expr(e.Array)
		e.Index = c.expr(e.Index)
	case *ast.StructFieldAccess:
		e.Object = c.expr(e.Object)
	case *ast.PointerFieldAccess:
		e.Pointer = c.expr(e.Pointer)
	case *ast.ArrayLiteral:
		for i, el := range e.Elements {
			e.Elements[i] = c.expr(el)
		}
	case *ast.DesignatedInit:
		e.Value = c.expr(e.Value)
	case *ast.FunctionCall:
		for i, a := range e.Args {
			e.Args[i] = c.expr(a)
		}
		if r := c.replace(e); r != nil {
			return r
		}
	}
	return e
}

// replace returns the inlined body for call, or nil when it must stay a call
func (c *inlineCall) replace(call *ast.FunctionCall) ast.Expr {
	cand, ok := c.candidates[call.Name]
	if !ok || c.declared[call.Name] || len(call.Args) != len(cand.fn.Params) {
		return nil
	}
	for name := range cand.free {
		if c.declared[name] {
			return nil
		}
	}
	args := make(map[string]ast.Expr, len(call.Args))
	for i, a := range call.Args {
		if !pure(a) {
			return nil
		}
		p := cand.fn.Params[i]
		args[p.Name] = &ast.Cast{Type: ast.Unqualified(p.Type), Expr: a}
	}
	c.in.inlined++
	return &ast.Cast{Type: ast.Unqualified(cand.fn.ReturnType), Expr: substitute(cand.result, args)}
}

// declaredNames collects every parameter and local declared in f. Inlined
// bodies that read one of these names could be captured by the local.
func declaredNames(f *ast.Function) map[string]bool {
	names := make(map[string]bool)
	for _, p := range f.Params {
		names[p.Name] = true
	}
	var visit func(s ast.Stmt)
	visit = func(s ast.Stmt) {
		switch s := s.(type) {
		case *ast.VariableDeclaration:
			names[s.Name] = true
		case *ast.ArrayDeclaration:
			names[s.Name] = true
		case *ast.Block:
			for _, st := range s.Stmts {
				visit(st)
			}
		case *ast.If:
			visit(s.Then)
			visit(s.Else)
		case *ast.While:
			visit(s.Body)
		case *ast.DoWhile:
			visit(s.Body)
		case *ast.For:
			visit(s.Init)
			visit(s.Body)
		case *ast.Switch:
			for _, cs := range s.Cases {
				for _, st := range cs.Stmts {
					visit(st)
				}
			}
		case *ast.Label:
			visit(s.Stmt)
		case *ast.AtomicDeclaration:
			visit(s.Decl)
		case *ast.ThreadLocalDeclaration:
			visit(s.Decl)
		case *ast.NoReturnDeclaration:
			visit(s.Decl)
		}
	}
	for _, s := range f.Body {
		visit(s)
	}
	return names
}

// substitute returns a copy of e with parameter references replaced by
// args. Every node is copied so later passes can rewrite each inlined
// body independently.
func substitute(e ast.Expr, args map[string]ast.Expr) ast.Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *ast.Variable:
		if a, ok := args[e.Name]; ok {
			return a
		}
		v := *e
		return &v
	case *ast.IntegerLiteral:
		v := *e
		return &v
	case *ast.FloatLiteral:
		v := *e
		return &v
	case *ast.CharLiteral:
		v := *e
		return &v
	case *ast.StringLiteral:
		v := *e
		return &v
	case *ast.BinaryOperation:
		return &ast.BinaryOperation{Left: substitute(e.Left, args), Op: e.Op, Right: substitute(e.Right, args)}
	case *ast.UnaryOperation:
		return &ast.UnaryOperation{Op: e.Op, Operand: substitute(e.Operand, args)}
	case *ast.TernaryIf:
		return &ast.TernaryIf{Cond: substitute(e.Cond, args), Then: substitute(e.Then, args), Else: substitute(e.Else, args)}
	case *ast.Cast:
		return &ast.Cast{Type: e.Type, Expr: substitute(e.Expr, args)}
	case *ast.SizeOf:
		return &ast.SizeOf{Expr: substitute(e.Expr, args)}
	case *ast.SizeOfType:
		v := *e
		return &v
	case *ast.AlignOf:
		v := *e
		return &v
	case *ast.ArrayAccess:
		return &ast.ArrayAccess{Array: substitute(e.Array, args), Index: substitute(e.Index, args)}
	case *ast.StructFieldAccess:
		return &ast.StructFieldAccess{Object: substitute(e.Object, args), Field: e.Field}
	case *ast.PointerFieldAccess:
		return &ast.PointerFieldAccess{Pointer: substitute(e.Pointer, args), Field: e.Field}
	}
	return e
}

// walkExpr calls fn on e and its subexpressions until fn returns false
func walkExpr(e ast.Expr, fn func(ast.Expr) bool) bool {
	if e == nil {
		return true
	}
	if !fn(e) {
		return false
	}
	switch e := e.(type) {
	case *ast.BinaryOperation:
		return walkExpr(e.Left, fn) && walkExpr(e.Right, fn)
	case *ast.UnaryOperation:
		return walkExpr(e.Operand, fn)
	case *ast.Assignment:
		return walkExpr(e.Target, fn) && walkExpr(e.Value, fn)
	case *ast.TernaryIf:
		return walkExpr(e.Cond, fn) && walkExpr(e.Then, fn) && walkExpr(e.Else, fn)
	case *ast.Cast:
		return walkExpr(e.Expr, fn)
	case *ast.SizeOf:
		return walkExpr(e.Expr, fn)
	case *ast.ArrayAccess:
		return walkExpr(e.Array, fn) && walkExpr(e.Index, fn)
	case *ast.StructFieldAccess:
		return walkExpr(e.Object, fn)
	case *ast.PointerFieldAccess:
		return walkExpr(e.Pointer, fn)
	case *ast.FunctionCall:
		for _, a := range e.Args {
			if !walkExpr(a, fn) {
				return false
			}
		}
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			if !walkExpr(el, fn) {
				return false
			}
		}
	}
	return true
}

func hasCall(e ast.Expr) bool {
	return !walkExpr(e, func(e ast.Expr) bool {
		_, call := e.(*ast.FunctionCall)
		return !call
	})
}

// refersTo reports whether e names one of params directly
func refersTo(e ast.Expr, params map[string]bool) bool {
	v, ok := e.(*ast.Variable)
	return ok && params[v.Name]
}
