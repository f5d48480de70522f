package codegen

import (
	"github.com/raymyers/stackcc/pkg/asm"
	"github.com/raymyers/stackcc/pkg/ast"
)

var (
	intType   = ast.Prim(ast.Int)
	longType  = ast.Prim(ast.Long)
	ulongType = ast.Prim(ast.ULong)
	charPtr   = ast.PointerTo(ast.Prim(ast.Char))
)

// typeOf infers the type of e with typedefs resolved. Unknown names are
// treated as long.
func (g *Generator) typeOf(e ast.Expr) ast.Type {
	return g.prog.Resolve(g.infer(e))
}

func (g *Generator) infer(e ast.Expr) ast.Type {
	switch e := e.(type) {
	case *ast.IntegerLiteral:
		if e.Value > 0x7fffffff || e.Value < -0x80000000 {
			return longType
		}
		return intType
	case *ast.CharLiteral:
		return intType
	case *ast.FloatLiteral:
		return ast.Prim(ast.Double)
	case *ast.StringLiteral:
		return charPtr
	case *ast.Variable:
		return g.varType(e.Name)
	case *ast.BinaryOperation:
		return g.binaryType(e)
	case *ast.UnaryOperation:
		t := g.typeOf(e.Operand)
		switch e.Op {
		case ast.OpNot:
			return intType
		case ast.OpAddrOf:
			return ast.PointerTo(t)
		case ast.OpDeref:
			return g.elem(t)
		case ast.OpNeg, ast.OpPlus, ast.OpBitNot:
			return promote(t)
		}
		return t
	case *ast.Assignment:
		return g.typeOf(e.Target)
	case *ast.TernaryIf:
		return g.typeOf(e.Then)
	case *ast.Cast:
		return e.Type
	case *ast.SizeOf, *ast.SizeOfType, *ast.AlignOf:
		return ulongType
	case *ast.FunctionCall:
		if ft, ok := g.prog.Resolve(g.varType(e.Name)).(*ast.FuncType); ok {
			return ft.Return
		}
		if p, ok := g.prog.Resolve(g.varType(e.Name)).(*ast.Pointer); ok {
			if ft, ok := g.prog.Resolve(p.Elem).(*ast.FuncType); ok {
				return ft.Return
			}
		}
		return intType
	case *ast.ArrayAccess:
		if t := g.typeOf(e.Array); ast.IsPointer(t) {
			return g.elem(t)
		}
		return g.elem(g.typeOf(e.Index))
	case *ast.StructFieldAccess:
		_, ft, _ := g.prog.FieldOffset(g.typeOf(e.Object), e.Field)
		return ft
	case *ast.PointerFieldAccess:
		_, ft, _ := g.prog.FieldOffset(g.elem(g.typeOf(e.Pointer)), e.Field)
		return ft
	case *ast.CompoundLiteral:
		return e.Type
	}
	return longType
}

func (g *Generator) varType(name string) ast.Type {
	if g.frame != nil {
		if l := g.frame.lookup(name); l != nil {
			if l.isConst {
				return intType
			}
			return l.typ
		}
	}
	if t, ok := g.globals[name]; ok {
		return t
	}
	if _, ok := g.consts[name]; ok {
		return intType
	}
	return longType
}

func (g *Generator) binaryType(e *ast.BinaryOperation) ast.Type {
	if e.Op.IsComparison() || e.Op == ast.OpAnd || e.Op == ast.OpOr {
		return intType
	}
	l, r := g.typeOf(e.Left), g.typeOf(e.Right)
	switch e.Op {
	case ast.OpAdd:
		if ast.IsPointer(l) {
			return decay(l)
		}
		if ast.IsPointer(r) {
			return decay(r)
		}
	case ast.OpSub:
		if ast.IsPointer(l) && ast.IsPointer(r) {
			return longType
		}
		if ast.IsPointer(l) {
			return decay(l)
		}
	case ast.OpShl, ast.OpShr:
		return promote(l)
	}
	return arith(l, r)
}

// elem returns the pointee of a pointer or array type
func (g *Generator) elem(t ast.Type) ast.Type {
	switch t := g.prog.Resolve(t).(type) {
	case *ast.Pointer:
		return g.prog.Resolve(t.Elem)
	case *ast.Array:
		return g.prog.Resolve(t.Elem)
	}
	return longType
}

// decay converts an array type to a pointer to its element
func decay(t ast.Type) ast.Type {
	if a, ok := ast.Unqualified(t).(*ast.Array); ok {
		return ast.PointerTo(a.Elem)
	}
	return t
}

func kindOf(t ast.Type) (ast.Kind, bool) {
	switch t := ast.Unqualified(t).(type) {
	case *ast.Primitive:
		return t.Kind, true
	case *ast.Tagged:
		if t.Kind == ast.TagEnum {
			return ast.Int, true
		}
	}
	return 0, false
}

// promote applies the integer promotions
func promote(t ast.Type) ast.Type {
	k, ok := kindOf(t)
	if !ok || k.IsFloating() {
		return t
	}
	if k < ast.Int {
		return intType
	}
	return ast.Prim(k)
}

// arith applies the usual arithmetic conversions to integer operands
func arith(l, r ast.Type) ast.Type {
	lk, lok := kindOf(promote(l))
	rk, rok := kindOf(promote(r))
	switch {
	case !lok && !rok:
		return longType
	case !lok:
		return ast.Prim(rk)
	case !rok:
		return ast.Prim(lk)
	}
	if lk.IsFloating() || rk.IsFloating() {
		return ast.Prim(ast.Double)
	}
	hi, lo := lk, rk
	if rank(rk) > rank(lk) {
		hi, lo = rk, lk
	}
	if rank(hi) == rank(lo) && (lo.IsUnsigned() || hi.IsUnsigned()) {
		return ast.Prim(unsignedOf(hi))
	}
	// a wider signed type holds every value of a narrower unsigned one
	return ast.Prim(hi)
}

func rank(k ast.Kind) int {
	switch k {
	case ast.Int, ast.UInt:
		return 1
	case ast.Long, ast.ULong, ast.LongLong, ast.ULongLong:
		return 2
	}
	return 0
}

func unsignedOf(k ast.Kind) ast.Kind {
	switch k {
	case ast.Int:
		return ast.UInt
	case ast.Long:
		return ast.ULong
	case ast.LongLong:
		return ast.ULongLong
	}
	return k
}

// isUnsigned reports whether values of t compare and divide unsigned.
// Pointers count as unsigned.
func isUnsigned(t ast.Type) bool {
	if ast.IsPointer(t) {
		return true
	}
	k, ok := kindOf(t)
	return ok && k.IsUnsigned()
}

// scalar returns the width and signedness used to load and store t. ok is
// false for aggregates, functions and floating types.
func (g *Generator) scalar(t ast.Type) (w asm.Width, signed, ok bool) {
	switch t := g.prog.Resolve(t).(type) {
	case nil:
		return asm.W8, true, true
	case *ast.Pointer:
		return asm.W8, false, true
	case *ast.Tagged:
		if t.Kind == ast.TagEnum {
			return asm.W4, true, true
		}
	case *ast.Primitive:
		if t.Kind.IsFloating() || t.Kind == ast.Void {
			return 0, false, false
		}
		switch ast.TypeSize(t) {
		case 1:
			return asm.W1, !t.Kind.IsUnsigned(), true
		case 2:
			return asm.W2, !t.Kind.IsUnsigned(), true
		case 4:
			return asm.W4, !t.Kind.IsUnsigned(), true
		}
		return asm.W8, !t.Kind.IsUnsigned(), true
	}
	return 0, false, false
}

// isAggregate reports whether values of t are represented by their address
func (g *Generator) isAggregate(t ast.Type) bool {
	switch t := g.prog.Resolve(t).(type) {
	case *ast.Array, *ast.FuncType:
		return true
	case *ast.Tagged:
		return t.Kind != ast.TagEnum
	}
	return false
}

func (g *Generator) sizeOf(t ast.Type) int64 {
	return int64(g.prog.SizeOf(t))
}
