package codegen

import (
	"math"

	"github.com/raymyers/stackcc/pkg/asm"
	"github.com/raymyers/stackcc/pkg/ast"
)

func (g *Generator) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case nil, *ast.Empty:
	case *ast.Return:
		if s.Expr != nil {
			g.expr(s.Expr)
		}
		g.epilogue()
	case *ast.VariableDeclaration:
		g.localVar(s)
	case *ast.ArrayDeclaration:
		g.localArray(s)
	case *ast.ExpressionStatement:
		g.expr(s.Expr)
	case *ast.Block:
		g.frame.push()
		for _, inner := range s.Stmts {
			g.stmt(inner)
		}
		g.frame.pop()
	case *ast.If:
		g.ifStmt(s)
	case *ast.While:
		g.whileStmt(s)
	case *ast.DoWhile:
		g.doWhile(s)
	case *ast.For:
		g.forStmt(s)
	case *ast.Switch:
		g.switchStmt(s)
	case *ast.Break:
		if len(g.breaks) == 0 {
			g.skip("break outside loop or switch")
			return
		}
		g.emit(asm.JMP{Target: g.breaks[len(g.breaks)-1]})
	case *ast.Continue:
		if len(g.continues) == 0 {
			g.skip("continue outside loop")
			return
		}
		g.emit(asm.JMP{Target: g.continues[len(g.continues)-1]})
	case *ast.Goto:
		g.emit(asm.JMP{Target: g.userLabel(s.Label)})
	case *ast.Label:
		g.code.AppendLabel(g.userLabel(s.Name))
		g.stmt(s.Stmt)
	case *ast.StaticAssert:
		// checked by the analyzer
	case *ast.AtomicDeclaration:
		g.stmt(s.Decl)
	case *ast.ThreadLocalDeclaration:
		g.skip("thread-local storage")
		g.stmt(s.Decl)
	case *ast.NoReturnDeclaration:
		g.stmt(s.Decl)
	default:
		g.skip("statement %T", s)
	}
}

// userLabel maps a source label to a function-unique assembler label
func (g *Generator) userLabel(name string) asm.Label {
	if l, ok := g.userLbls[name]; ok {
		return l
	}
	l := g.label("label")
	g.userLbls[name] = l
	return l
}

// loop pushes the break and continue targets for the duration of body
func (g *Generator) loop(brk, cont asm.Label, body func()) {
	g.breaks = append(g.breaks, brk)
	g.continues = append(g.continues, cont)
	body()
	g.breaks = g.breaks[:len(g.breaks)-1]
	g.continues = g.continues[:len(g.continues)-1]
}

// test evaluates cond and jumps to target when it is zero
func (g *Generator) test(cond ast.Expr, target asm.Label) {
	g.expr(cond)
	g.emit(asm.CMP{Src: asm.Imm(0), Dst: rax})
	g.emit(asm.Jcc{Cond: asm.CondE, Target: target})
}

func (g *Generator) ifStmt(s *ast.If) {
	elseLbl := g.label("if_else")
	end := g.label("if_end")
	if s.Else == nil {
		g.test(s.Cond, end)
		g.stmt(s.Then)
		g.code.AppendLabel(end)
		return
	}
	g.test(s.Cond, elseLbl)
	g.stmt(s.Then)
	g.emit(asm.JMP{Target: end})
	g.code.AppendLabel(elseLbl)
	g.stmt(s.Else)
	g.code.AppendLabel(end)
}

func (g *Generator) whileStmt(s *ast.While) {
	start := g.label("while_start")
	end := g.label("while_end")
	g.code.AppendLabel(start)
	g.test(s.Cond, end)
	g.loop(end, start, func() { g.stmt(s.Body) })
	g.emit(asm.JMP{Target: start})
	g.code.AppendLabel(end)
}

func (g *Generator) doWhile(s *ast.DoWhile) {
	start := g.label("do_start")
	check := g.label("do_check")
	end := g.label("do_end")
	g.code.AppendLabel(start)
	g.loop(end, check, func() { g.stmt(s.Body) })
	g.code.AppendLabel(check)
	g.expr(s.Cond)
	g.emit(asm.CMP{Src: asm.Imm(0), Dst: rax})
	g.emit(asm.Jcc{Cond: asm.CondNE, Target: start})
	g.code.AppendLabel(end)
}

// forStmt places the condition after the body; continue runs the
// increment before re-checking
func (g *Generator) forStmt(s *ast.For) {
	start := g.label("for_start")
	check := g.label("for_check")
	end := g.label("for_end")
	next := check
	if s.Post != nil {
		next = g.label("for_next")
	}

	g.frame.push()
	defer g.frame.pop()
	g.stmt(s.Init)
	g.emit(asm.JMP{Target: check})
	g.code.AppendLabel(start)
	g.loop(end, next, func() { g.stmt(s.Body) })
	if s.Post != nil {
		g.code.AppendLabel(next)
		g.expr(s.Post)
	}
	g.code.AppendLabel(check)
	if s.Cond != nil {
		g.expr(s.Cond)
		g.emit(asm.CMP{Src: asm.Imm(0), Dst: rax})
		g.emit(asm.Jcc{Cond: asm.CondNE, Target: start})
	} else {
		g.emit(asm.JMP{Target: start})
	}
	g.code.AppendLabel(end)
}

// switchStmt compares the controlling value against each case in order,
// then lays the case bodies out so control falls through
func (g *Generator) switchStmt(s *ast.Switch) {
	end := g.label("switch_end")
	g.expr(s.Expr)

	targets := make([]asm.Label, len(s.Cases))
	dflt := end
	for i, c := range s.Cases {
		targets[i] = g.label("case")
		if c.Value == nil {
			dflt = targets[i]
			continue
		}
		v, ok := ast.EvalConst(c.Value, g.constant)
		if !ok {
			g.skip("non-constant case label")
			continue
		}
		if v > math.MaxInt32 || v < math.MinInt32 {
			g.emit(asm.MOV{Src: asm.Imm(v), Dst: rcx})
			g.emit(asm.CMP{Src: rcx, Dst: rax})
		} else {
			g.emit(asm.CMP{Src: asm.Imm(v), Dst: rax})
		}
		g.emit(asm.Jcc{Cond: asm.CondE, Target: targets[i]})
	}
	g.emit(asm.JMP{Target: dflt})

	g.breaks = append(g.breaks, end)
	g.frame.push()
	for i, c := range s.Cases {
		g.code.AppendLabel(targets[i])
		for _, inner := range c.Stmts {
			g.stmt(inner)
		}
	}
	g.frame.pop()
	g.breaks = g.breaks[:len(g.breaks)-1]
	g.code.AppendLabel(end)
}

func (g *Generator) localVar(d *ast.VariableDeclaration) {
	t := g.prog.Resolve(d.Type)
	if d.IsEnumerator {
		v, _ := ast.ConstValue(d, d.Name)
		g.frame.bind(d.Name, &local{typ: intType, isConst: true, value: v})
		return
	}
	if _, isFunc := t.(*ast.FuncType); isFunc {
		return
	}
	switch d.Storage {
	case ast.StorageExtern:
		g.frame.bind(d.Name, &local{typ: t, sym: asm.SymbolName(d.Name)})
		g.globals[d.Name] = t
		return
	case ast.StorageStatic:
		g.staticLocal(d.Name, t, d.Init, d.Alignment)
		return
	}

	l := g.frame.alloc(d.Name, t, g.sizeOf(t))
	if g.isAggregate(t) {
		g.initLocal(l, t, d.Init)
		return
	}
	if ast.IsFloating(t) {
		g.skip("floating-point local %s", d.Name)
	}
	g.expr(d.Init)
	if d.Init != nil {
		g.fit(g.settled(d.Init), t)
	}
	g.emit(asm.MOV{Src: rax, Dst: asm.Mem{Base: asm.RBP, Disp: l.off}})
}

func (g *Generator) localArray(d *ast.ArrayDeclaration) {
	t, ok := g.arrayType(d.Type, d.Size, d.Init)
	if !ok {
		g.skip("variable-length array %s", d.Name)
		g.frame.alloc(d.Name, ast.PointerTo(d.Type), slotSize)
		return
	}
	switch d.Storage {
	case ast.StorageExtern:
		g.frame.bind(d.Name, &local{typ: t, sym: asm.SymbolName(d.Name)})
		g.globals[d.Name] = t
		return
	case ast.StorageStatic:
		g.staticLocal(d.Name, t, d.Init, d.Alignment)
		return
	}
	l := g.frame.alloc(d.Name, t, g.sizeOf(t))
	g.initLocal(l, t, d.Init)
}

// staticLocal places a block-scope static in data under a name private
// to the function
func (g *Generator) staticLocal(name string, t ast.Type, init, align ast.Expr) {
	sym := g.fn.Name + "." + name
	g.frame.bind(name, &local{typ: t, sym: asm.SymbolName(sym)})
	g.emitGlobal(sym, t, init, align, true)
}

// arrayType completes an array declaration's type. Unsized arrays take
// their length from the initializer. ok is false for a size that is not
// a constant.
func (g *Generator) arrayType(elem ast.Type, size, init ast.Expr) (ast.Type, bool) {
	if size != nil {
		n, ok := ast.EvalConst(size, g.constant)
		if !ok || n < 0 {
			return nil, false
		}
		return ast.ArrayOf(elem, int(n)), true
	}
	switch init := init.(type) {
	case *ast.StringLiteral:
		return ast.ArrayOf(elem, len(init.Value)+1), true
	case *ast.ArrayLiteral:
		return ast.ArrayOf(elem, g.listLength(init)), true
	}
	return ast.ArrayOf(elem, 0), true
}

// listLength counts the elements an initializer list defines, honoring
// index designators
func (g *Generator) listLength(l *ast.ArrayLiteral) int {
	n, longest := 0, 0
	for _, e := range l.Elements {
		if d, ok := e.(*ast.DesignatedInit); ok && d.Index != nil {
			if v, ok := ast.EvalConst(d.Index, g.constant); ok {
				n = int(v)
			}
		}
		n++
		if n > longest {
			longest = n
		}
	}
	return longest
}
