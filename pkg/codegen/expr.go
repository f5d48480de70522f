package codegen

import (
	"github.com/raymyers/stackcc/pkg/asm"
	"github.com/raymyers/stackcc/pkg/ast"
)

var (
	rax = asm.R(asm.RAX)
	rcx = asm.R(asm.RCX)
	rdx = asm.R(asm.RDX)
)

// expr evaluates e into %rax
func (g *Generator) expr(e ast.Expr) {
	switch e := e.(type) {
	case nil:
		g.emit(asm.MOV{Src: asm.Imm(0), Dst: rax})
	case *ast.IntegerLiteral:
		g.emit(asm.MOV{Src: asm.Imm(e.Value), Dst: rax})
	case *ast.CharLiteral:
		g.emit(asm.MOV{Src: asm.Imm(int64(e.Value)), Dst: rax})
	case *ast.StringLiteral:
		g.stringAddr(e)
	case *ast.Variable:
		g.variable(e)
	case *ast.BinaryOperation:
		g.binary(e)
	case *ast.UnaryOperation:
		g.unary(e)
	case *ast.Assignment:
		g.assign(e)
	case *ast.TernaryIf:
		g.ternary(e)
	case *ast.Cast:
		g.expr(e.Expr)
		g.convert(g.typeOf(e.Expr), e.Type)
	case *ast.SizeOf:
		g.emit(asm.MOV{Src: asm.Imm(g.sizeOf(g.typeOf(e.Expr))), Dst: rax})
	case *ast.SizeOfType:
		g.emit(asm.MOV{Src: asm.Imm(g.sizeOf(e.Type)), Dst: rax})
	case *ast.AlignOf:
		g.emit(asm.MOV{Src: asm.Imm(int64(g.prog.AlignOf(e.Type))), Dst: rax})
	case *ast.FunctionCall:
		g.call(e)
	case *ast.ArrayAccess, *ast.StructFieldAccess, *ast.PointerFieldAccess:
		if g.address(e) {
			g.load(g.typeOf(e), asm.Mem{Base: asm.RAX})
		}
	case *ast.FloatLiteral:
		g.unsupported("floating-point constant")
	case *ast.CompoundLiteral:
		g.unsupported("compound literal")
	case *ast.GenericSelection:
		g.unsupported("generic selection")
	default:
		g.unsupported("expression %T", e)
	}
}

// unsupported records a skipped expression, which evaluates to 0
func (g *Generator) unsupported(format string, args ...any) {
	g.skip(format, args...)
	g.emit(asm.MOV{Src: asm.Imm(0), Dst: rax})
}

func (g *Generator) stringAddr(s *ast.StringLiteral) {
	switch s.Encoding {
	case ast.EncodingWide, ast.EncodingUTF16, ast.EncodingUTF32:
		g.unsupported("%s string literal", s.Encoding.Prefix())
		return
	}
	g.emit(asm.LEA{Src: asm.RIPRel{Symbol: g.str(s.Value)}, Dst: asm.RAX})
}

// load replaces %rax with the value of type t stored at src. Aggregates
// are left as addresses.
func (g *Generator) load(t ast.Type, src asm.Operand) {
	if g.isAggregate(t) {
		if src != (asm.Mem{Base: asm.RAX}) {
			g.emit(asm.LEA{Src: src, Dst: asm.RAX})
		}
		return
	}
	w, signed, ok := g.scalar(t)
	if !ok {
		g.unsupported("load of %s", ast.Declare(t, ""))
		return
	}
	g.emit(asm.MOVX{Src: src, Dst: asm.RAX, Width: w, Signed: signed})
}

// store writes %rax to dst with the width of t
func (g *Generator) store(t ast.Type, dst asm.Operand) {
	w, _, ok := g.scalar(t)
	if !ok {
		g.skip("store of %s", ast.Declare(t, ""))
		return
	}
	g.emit(asm.STORE{Src: asm.RAX, Dst: dst, Width: w})
}

func (g *Generator) variable(v *ast.Variable) {
	if l := g.frame.lookup(v.Name); l != nil {
		switch {
		case l.isConst:
			g.emit(asm.MOV{Src: asm.Imm(l.value), Dst: rax})
		case l.sym != "":
			g.load(l.typ, asm.RIPRel{Symbol: l.sym})
		case g.isAggregate(l.typ):
			g.emit(asm.LEA{Src: asm.Mem{Base: asm.RBP, Disp: l.off}, Dst: asm.RAX})
		default:
			g.emit(asm.MOV{Src: asm.Mem{Base: asm.RBP, Disp: l.off}, Dst: rax})
		}
		return
	}
	if c, ok := g.consts[v.Name]; ok {
		g.emit(asm.MOV{Src: asm.Imm(c), Dst: rax})
		return
	}
	sym := asm.RIPRel{Symbol: asm.SymbolName(v.Name)}
	t, ok := g.globals[v.Name]
	if !ok {
		g.emit(asm.MOV{Src: sym, Dst: rax})
		return
	}
	g.load(t, sym)
}

// place locates an assignable object. Locals and globals are addressed
// directly; anything else has its address computed into %r11, which
// clobbers %rax.
type place struct {
	mem  asm.Operand
	typ  ast.Type
	slot bool // an 8-byte local slot
}

// direct returns the place of a named object without emitting code
func (g *Generator) direct(e ast.Expr) (place, bool) {
	v, ok := e.(*ast.Variable)
	if !ok {
		return place{}, false
	}
	if l := g.frame.lookup(v.Name); l != nil {
		if l.isConst || g.isAggregate(l.typ) {
			return place{}, false
		}
		if l.sym != "" {
			return place{mem: asm.RIPRel{Symbol: l.sym}, typ: l.typ}, true
		}
		return place{mem: asm.Mem{Base: asm.RBP, Disp: l.off}, typ: l.typ, slot: true}, true
	}
	if _, isConst := g.consts[v.Name]; isConst {
		return place{}, false
	}
	t, ok := g.globals[v.Name]
	if !ok {
		t = longType
	}
	if g.isAggregate(t) {
		return place{}, false
	}
	return place{mem: asm.RIPRel{Symbol: asm.SymbolName(v.Name)}, typ: t}, true
}

func (g *Generator) place(e ast.Expr) (place, bool) {
	if p, ok := g.direct(e); ok {
		return p, true
	}
	if !g.address(e) {
		return place{}, false
	}
	g.emit(asm.MOV{Src: rax, Dst: asm.R(asm.R11)})
	return place{mem: asm.Mem{Base: asm.R11}, typ: g.typeOf(e)}, true
}

func (p place) read(g *Generator) {
	if p.slot {
		g.emit(asm.MOV{Src: p.mem, Dst: rax})
		return
	}
	g.load(p.typ, p.mem)
}

// write stores %rax, a value of type from, into p. The value is first
// narrowed to the place's type so the result of the assignment and the
// contents of a slot agree with a store of that width.
func (p place) write(g *Generator, from ast.Type) {
	g.fit(from, p.typ)
	if p.slot {
		g.emit(asm.MOV{Src: rax, Dst: p.mem})
		return
	}
	g.store(p.typ, p.mem)
}

// address computes the address of an lvalue into %rax
func (g *Generator) address(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Variable:
		if l := g.frame.lookup(e.Name); l != nil {
			switch {
			case l.isConst:
			case l.sym != "":
				g.emit(asm.LEA{Src: asm.RIPRel{Symbol: l.sym}, Dst: asm.RAX})
				return true
			default:
				g.emit(asm.LEA{Src: asm.Mem{Base: asm.RBP, Disp: l.off}, Dst: asm.RAX})
				return true
			}
		} else if _, isConst := g.consts[e.Name]; !isConst {
			g.emit(asm.LEA{Src: asm.RIPRel{Symbol: asm.SymbolName(e.Name)}, Dst: asm.RAX})
			return true
		}
	case *ast.UnaryOperation:
		if e.Op == ast.OpDeref {
			g.expr(e.Operand)
			return true
		}
	case *ast.ArrayAccess:
		base, index := e.Array, e.Index
		if !ast.IsPointer(g.typeOf(base)) && ast.IsPointer(g.typeOf(index)) {
			base, index = index, base
		}
		g.expr(index)
		g.push()
		g.expr(base)
		g.pop(asm.RCX)
		g.scale(asm.RCX, g.elem(g.typeOf(base)))
		g.emit(asm.ADD{Src: rcx, Dst: rax})
		return true
	case *ast.StructFieldAccess:
		off, _, ok := g.prog.FieldOffset(g.typeOf(e.Object), e.Field)
		if !ok {
			g.unsupported("member %s", e.Field)
			return false
		}
		if !g.address(e.Object) {
			return false
		}
		g.offset(int64(off))
		return true
	case *ast.PointerFieldAccess:
		off, _, ok := g.prog.FieldOffset(g.elem(g.typeOf(e.Pointer)), e.Field)
		if !ok {
			g.unsupported("member %s", e.Field)
			return false
		}
		g.expr(e.Pointer)
		g.offset(int64(off))
		return true
	case *ast.StringLiteral:
		g.stringAddr(e)
		return true
	case *ast.CompoundLiteral:
		g.unsupported("compound literal")
		return false
	}
	g.unsupported("address of %s", ast.ExprString(e))
	return false
}

func (g *Generator) offset(off int64) {
	if off != 0 {
		g.emit(asm.ADD{Src: asm.Imm(off), Dst: rax})
	}
}

// scale multiplies r by the size of elem for pointer arithmetic
func (g *Generator) scale(r asm.Reg, elem ast.Type) {
	if n := g.sizeOf(elem); n > 1 {
		g.emit(asm.IMUL{Src: asm.Imm(n), Dst: asm.R(r)})
	}
}

func (g *Generator) binary(e *ast.BinaryOperation) {
	switch e.Op {
	case ast.OpAnd, ast.OpOr:
		g.logical(e)
		return
	}
	lt, rt := g.typeOf(e.Left), g.typeOf(e.Right)
	if ast.IsFloating(lt) || ast.IsFloating(rt) {
		g.unsupported("floating-point arithmetic")
		return
	}

	// right operand first, then left; the right side ends in %rcx
	g.expr(e.Right)
	g.push()
	g.expr(e.Left)
	g.pop(asm.RCX)

	switch {
	case e.Op == ast.OpAdd && ast.IsPointer(lt) && !ast.IsPointer(rt):
		g.scale(asm.RCX, g.elem(lt))
	case e.Op == ast.OpAdd && ast.IsPointer(rt) && !ast.IsPointer(lt):
		g.scale(asm.RAX, g.elem(rt))
	case e.Op == ast.OpSub && ast.IsPointer(lt) && !ast.IsPointer(rt):
		g.scale(asm.RCX, g.elem(lt))
	case e.Op == ast.OpSub && ast.IsPointer(lt) && ast.IsPointer(rt):
		g.emit(asm.SUB{Src: rcx, Dst: rax})
		if n := g.sizeOf(g.elem(lt)); n > 1 {
			g.emit(asm.MOV{Src: asm.Imm(n), Dst: rcx})
			g.emit(asm.CQO{})
			g.emit(asm.IDIV{Src: rcx})
		}
		return
	}

	unsigned := isUnsigned(arith(lt, rt))
	if ast.IsPointer(lt) || ast.IsPointer(rt) {
		unsigned = true
	}
	if e.Op == ast.OpShr {
		unsigned = isUnsigned(promote(lt))
	}
	g.apply(e.Op, unsigned)
}

// apply computes %rax op %rcx into %rax
func (g *Generator) apply(op ast.BinaryOp, unsigned bool) {
	switch op {
	case ast.OpAdd:
		g.emit(asm.ADD{Src: rcx, Dst: rax})
	case ast.OpSub:
		g.emit(asm.SUB{Src: rcx, Dst: rax})
	case ast.OpMul:
		g.emit(asm.IMUL{Src: rcx, Dst: rax})
	case ast.OpDiv, ast.OpMod:
		if unsigned {
			g.emit(asm.MOV{Src: asm.Imm(0), Dst: rdx})
			g.emit(asm.DIV{Src: rcx})
		} else {
			g.emit(asm.CQO{})
			g.emit(asm.IDIV{Src: rcx})
		}
		if op == ast.OpMod {
			g.emit(asm.MOV{Src: rdx, Dst: rax})
		}
	case ast.OpBitAnd:
		g.emit(asm.AND{Src: rcx, Dst: rax})
	case ast.OpBitOr:
		g.emit(asm.OR{Src: rcx, Dst: rax})
	case ast.OpBitXor:
		g.emit(asm.XOR{Src: rcx, Dst: rax})
	case ast.OpShl:
		g.emit(asm.SHL{Dst: rax})
	case ast.OpShr:
		if unsigned {
			g.emit(asm.SHR{Dst: rax})
		} else {
			g.emit(asm.SAR{Dst: rax})
		}
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		g.emit(asm.CMP{Src: rcx, Dst: rax})
		g.setcc(condition(op, unsigned))
	}
}

func condition(op ast.BinaryOp, unsigned bool) asm.CondCode {
	switch op {
	case ast.OpEq:
		return asm.CondE
	case ast.OpNe:
		return asm.CondNE
	case ast.OpLt:
		if unsigned {
			return asm.CondB
		}
		return asm.CondL
	case ast.OpLe:
		if unsigned {
			return asm.CondBE
		}
		return asm.CondLE
	case ast.OpGt:
		if unsigned {
			return asm.CondA
		}
		return asm.CondG
	}
	if unsigned {
		return asm.CondAE
	}
	return asm.CondGE
}

// setcc materializes a flag as 0 or 1 in %rax
func (g *Generator) setcc(c asm.CondCode) {
	g.emit(asm.SETcc{Cond: c, Dst: asm.RAX})
	g.emit(asm.MOVZX{Src: asm.RAX, Dst: asm.RAX})
}

// truth normalizes %rax to 0 or 1
func (g *Generator) truth() {
	g.emit(asm.CMP{Src: asm.Imm(0), Dst: rax})
	g.setcc(asm.CondNE)
}

func (g *Generator) logical(e *ast.BinaryOperation) {
	end := g.label("logical_end")
	g.expr(e.Left)
	g.emit(asm.CMP{Src: asm.Imm(0), Dst: rax})
	if e.Op == ast.OpAnd {
		g.emit(asm.Jcc{Cond: asm.CondE, Target: end})
		g.expr(e.Right)
		g.truth()
		g.code.AppendLabel(end)
		return
	}
	yes := g.label("logical_true")
	g.emit(asm.Jcc{Cond: asm.CondNE, Target: yes})
	g.expr(e.Right)
	g.truth()
	g.emit(asm.JMP{Target: end})
	g.code.AppendLabel(yes)
	g.emit(asm.MOV{Src: asm.Imm(1), Dst: rax})
	g.code.AppendLabel(end)
}

func (g *Generator) unary(e *ast.UnaryOperation) {
	switch e.Op {
	case ast.OpAddrOf:
		g.address(e.Operand)
		return
	case ast.OpPreInc, ast.OpPreDec, ast.OpPostInc, ast.OpPostDec:
		g.incdec(e)
		return
	case ast.OpDeref:
		g.expr(e.Operand)
		g.load(g.elem(g.typeOf(e.Operand)), asm.Mem{Base: asm.RAX})
		return
	}
	if ast.IsFloating(g.typeOf(e.Operand)) {
		g.unsupported("floating-point %s", e.Op)
		return
	}
	g.expr(e.Operand)
	switch e.Op {
	case ast.OpNeg:
		g.emit(asm.NEG{Dst: rax})
	case ast.OpBitNot:
		g.emit(asm.NOT{Dst: rax})
	case ast.OpNot:
		g.emit(asm.CMP{Src: asm.Imm(0), Dst: rax})
		g.setcc(asm.CondE)
	}
}

// incdec loads, adjusts and stores back, keeping the original value in
// %rdx for the postfix forms
func (g *Generator) incdec(e *ast.UnaryOperation) {
	p, ok := g.place(e.Operand)
	if !ok {
		return
	}
	step := int64(1)
	if ast.IsPointer(p.typ) {
		step = g.sizeOf(g.elem(p.typ))
	}
	p.read(g)
	post := e.Op.IsPostfix()
	if post {
		g.emit(asm.MOV{Src: rax, Dst: rdx})
	}
	if e.Op == ast.OpPreInc || e.Op == ast.OpPostInc {
		g.emit(asm.ADD{Src: asm.Imm(step), Dst: rax})
	} else {
		g.emit(asm.SUB{Src: asm.Imm(step), Dst: rax})
	}
	p.write(g, nil)
	if post {
		g.emit(asm.MOV{Src: rdx, Dst: rax})
	}
}

func (g *Generator) assign(e *ast.Assignment) {
	tt := g.typeOf(e.Target)
	if g.isAggregate(tt) {
		g.unsupported("assignment of %s", ast.Declare(tt, ""))
		return
	}
	bop, compound := e.Op.Binary()
	vt := g.typeOf(e.Value)
	from := g.settled(e.Value)

	g.expr(e.Value)
	p, direct := g.direct(e.Target)
	if !direct {
		g.push()
		if p, direct = g.place(e.Target); !direct {
			g.pop(asm.RAX)
			return
		}
		g.pop(asm.RAX)
	}
	if compound {
		g.emit(asm.MOV{Src: rax, Dst: rcx})
		p.read(g)
		if ast.IsPointer(tt) && (bop == ast.OpAdd || bop == ast.OpSub) {
			g.scale(asm.RCX, g.elem(tt))
		}
		unsigned := isUnsigned(arith(tt, vt))
		if bop == ast.OpShr {
			unsigned = isUnsigned(promote(tt))
		}
		g.apply(bop, unsigned)
		from = nil
	}
	p.write(g, from)
}

func (g *Generator) ternary(e *ast.TernaryIf) {
	elseLbl := g.label("ternary_else")
	end := g.label("ternary_end")
	g.expr(e.Cond)
	g.emit(asm.CMP{Src: asm.Imm(0), Dst: rax})
	g.emit(asm.Jcc{Cond: asm.CondE, Target: elseLbl})
	g.expr(e.Then)
	g.emit(asm.JMP{Target: end})
	g.code.AppendLabel(elseLbl)
	g.expr(e.Else)
	g.code.AppendLabel(end)
}

// settled returns the type of e when evaluating e leaves %rax extended
// from that type, or nil when the value came out of 64-bit arithmetic
func (g *Generator) settled(e ast.Expr) ast.Type {
	switch e := e.(type) {
	case *ast.IntegerLiteral, *ast.CharLiteral, *ast.Variable, *ast.Cast,
		*ast.ArrayAccess, *ast.StructFieldAccess, *ast.PointerFieldAccess:
		return g.typeOf(e)
	case *ast.UnaryOperation:
		if e.Op == ast.OpDeref {
			return g.typeOf(e)
		}
	}
	return nil
}

// fit narrows %rax to t unless from already has t's width and
// signedness. A nil from is always narrowed.
func (g *Generator) fit(from, to ast.Type) {
	w, signed, ok := g.scalar(to)
	if !ok || w == asm.W8 || ast.IsFloating(g.prog.Resolve(to)) {
		return
	}
	if from != nil {
		fw, fsigned, ok := g.scalar(from)
		if ok && fw == w && fsigned == signed && g.isBool(from) == g.isBool(to) {
			return
		}
	}
	g.convert(to, to)
}

func (g *Generator) isBool(t ast.Type) bool {
	p, ok := g.prog.Resolve(t).(*ast.Primitive)
	return ok && p.Kind == ast.Bool
}

// convert narrows or extends %rax from type from to type to
func (g *Generator) convert(from, to ast.Type) {
	to = g.prog.Resolve(to)
	if ast.IsFloating(from) || ast.IsFloating(to) {
		g.skip("floating-point conversion")
		return
	}
	p, ok := to.(*ast.Primitive)
	if !ok {
		if g.isAggregate(to) {
			g.skip("cast to %s", ast.Declare(to, ""))
		}
		return
	}
	if p.Kind == ast.Bool {
		g.truth()
		return
	}
	w, signed, ok := g.scalar(p)
	if !ok || w == asm.W8 {
		return
	}
	g.emit(asm.MOVX{Src: asm.Register{Reg: asm.RAX, Width: w}, Dst: asm.RAX, Width: w, Signed: signed})
}

// call passes the first six arguments in registers and the rest on the
// stack, keeping %rsp 16-byte aligned at the call
func (g *Generator) call(e *ast.FunctionCall) {
	n := len(e.Args)
	stack := 0
	if n > len(asm.ArgRegs) {
		stack = n - len(asm.ArgRegs)
	}
	pad := (g.depth+stack)%2 == 1
	if pad {
		g.emit(asm.SUB{Src: asm.Imm(8), Dst: asm.R(asm.RSP)})
		g.depth++
	}
	for i := n - 1; i >= 0; i-- {
		if ast.IsFloating(g.typeOf(e.Args[i])) {
			g.skip("floating-point argument to %s", e.Name)
		}
		g.expr(e.Args[i])
		g.push()
	}
	for i := 0; i < n && i < len(asm.ArgRegs); i++ {
		g.pop(asm.ArgRegs[i])
	}

	ft, indirect := g.callee(e.Name)
	if indirect {
		g.variable(&ast.Variable{Name: e.Name})
		g.emit(asm.MOV{Src: rax, Dst: asm.R(asm.R10)})
	}
	if ft == nil || ft.IsVariadic {
		// %al carries the vector register count for variadic callees
		g.emit(asm.MOV{Src: asm.Imm(0), Dst: rax})
	}
	if indirect {
		g.emit(asm.CALLI{Target: asm.R10})
	} else {
		g.emit(asm.CALL{Target: e.Name})
	}

	if cleanup := int64(stack) * slotSize; cleanup > 0 || pad {
		if pad {
			cleanup += slotSize
			g.depth--
		}
		g.emit(asm.ADD{Src: asm.Imm(cleanup), Dst: asm.R(asm.RSP)})
		g.depth -= stack
	}
	if ft != nil {
		if w, signed, ok := g.scalar(ft.Return); ok && w < asm.W8 {
			g.emit(asm.MOVX{Src: asm.Register{Reg: asm.RAX, Width: w}, Dst: asm.RAX, Width: w, Signed: signed})
		}
	}
}

// callee returns the function type behind name and whether the call goes
// through a pointer held in a variable
func (g *Generator) callee(name string) (*ast.FuncType, bool) {
	t := g.prog.Resolve(g.varType(name))
	if ft, ok := t.(*ast.FuncType); ok {
		return ft, false
	}
	if p, ok := t.(*ast.Pointer); ok {
		ft, _ := g.prog.Resolve(p.Elem).(*ast.FuncType)
		return ft, true
	}
	return nil, false
}
