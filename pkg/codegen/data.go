package codegen

import (
	"math"

	"github.com/raymyers/stackcc/pkg/asm"
	"github.com/raymyers/stackcc/pkg/ast"
)

// global records a file-scope declaration and emits its storage
func (g *Generator) global(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VariableDeclaration:
		t := g.prog.Resolve(s.Type)
		if s.IsEnumerator {
			g.consts[s.Name], _ = ast.ConstValue(s, s.Name)
			return
		}
		if _, isFunc := t.(*ast.FuncType); isFunc {
			if _, known := g.globals[s.Name]; !known {
				g.globals[s.Name] = t
			}
			return
		}
		g.globals[s.Name] = t
		if s.Storage == ast.StorageExtern {
			return
		}
		g.emitGlobal(s.Name, t, s.Init, s.Alignment, s.Storage == ast.StorageStatic)
	case *ast.ArrayDeclaration:
		t, ok := g.arrayType(s.Type, s.Size, s.Init)
		if !ok {
			g.skip("non-constant size for global array %s", s.Name)
			return
		}
		g.globals[s.Name] = t
		if s.Storage == ast.StorageExtern {
			return
		}
		g.emitGlobal(s.Name, t, s.Init, s.Alignment, s.Storage == ast.StorageStatic)
	case *ast.AtomicDeclaration:
		g.global(s.Decl)
	case *ast.ThreadLocalDeclaration:
		g.skip("thread-local storage")
		g.global(s.Decl)
	case *ast.NoReturnDeclaration:
		g.global(s.Decl)
	case *ast.StaticAssert:
	default:
		g.skip("file-scope %T", s)
	}
}

// emitGlobal lays out one object in the data section
func (g *Generator) emitGlobal(name string, t ast.Type, init, alignment ast.Expr, static bool) {
	size := g.sizeOf(t)
	align := g.prog.AlignOf(t)
	if alignment != nil {
		if a, ok := ast.EvalConst(alignment, g.constant); ok && int(a) > align {
			align = int(a)
		}
	}
	di := &dataInit{g: g, name: name}
	g.walkInit(di, 0, t, init)
	gv := asm.GlobVar{
		Name:   name,
		Static: static,
		Align:  align,
		Init:   di.layout(size),
	}
	// a later definition completes an earlier tentative one
	for i := range g.out.Globals {
		if g.out.Globals[i].Name == name {
			g.out.Globals[i] = gv
			return
		}
	}
	g.out.Globals = append(g.out.Globals, gv)
}

// constData converts a constant scalar initializer to a data directive
func (g *Generator) constData(t ast.Type, e ast.Expr) (asm.Data, bool) {
	t = g.prog.Resolve(t)
	kind := dataKind(g.sizeOf(t))
	if p, ok := t.(*ast.Primitive); ok && p.Kind.IsFloating() {
		return floatData(p.Kind, e)
	}
	if v, ok := ast.EvalConst(e, g.constant); ok {
		if k, isInt := kindOf(t); isInt {
			v = ast.Truncate(v, k)
		}
		return asm.Data{Kind: kind, Value: v}, true
	}
	if kind != asm.DataQuad {
		return asm.Data{}, false
	}
	sym, off, ok := g.constAddr(e)
	if !ok {
		return asm.Data{}, false
	}
	return asm.Data{Kind: asm.DataAddr, Symbol: sym, Value: off}, true
}

// constAddr resolves an address constant: a string literal, the address
// of a global, an array or function name, optionally cast
func (g *Generator) constAddr(e ast.Expr) (sym string, off int64, ok bool) {
	switch e := e.(type) {
	case *ast.StringLiteral:
		if e.Encoding != ast.EncodingNone && e.Encoding != ast.EncodingUTF8 {
			return "", 0, false
		}
		return g.str(e.Value), 0, true
	case *ast.Cast:
		return g.constAddr(e.Expr)
	case *ast.Variable:
		t, known := g.globals[e.Name]
		if known && g.isAggregate(t) {
			return asm.SymbolName(e.Name), 0, true
		}
	case *ast.UnaryOperation:
		if e.Op != ast.OpAddrOf {
			break
		}
		switch x := e.Operand.(type) {
		case *ast.Variable:
			if _, known := g.globals[x.Name]; known {
				return asm.SymbolName(x.Name), 0, true
			}
		case *ast.ArrayAccess:
			base, ok := x.Array.(*ast.Variable)
			idx, isConst := ast.EvalConst(x.Index, g.constant)
			if ok && isConst {
				if t, known := g.globals[base.Name]; known {
					return asm.SymbolName(base.Name), idx * g.sizeOf(g.elem(t)), true
				}
			}
		}
	case *ast.BinaryOperation:
		if e.Op != ast.OpAdd && e.Op != ast.OpSub {
			break
		}
		sym, off, ok := g.constAddr(e.Left)
		n, isConst := ast.EvalConst(e.Right, g.constant)
		if !ok || !isConst {
			break
		}
		n *= g.sizeOf(g.elem(g.typeOf(e.Left)))
		if e.Op == ast.OpSub {
			n = -n
		}
		return sym, off + n, true
	}
	return "", 0, false
}

func dataKind(size int64) asm.DataKind {
	switch size {
	case 1:
		return asm.DataByte
	case 2:
		return asm.DataShort
	case 4:
		return asm.DataLong
	}
	return asm.DataQuad
}

// floatData encodes a floating constant by its IEEE bit pattern
func floatData(k ast.Kind, e ast.Expr) (asm.Data, bool) {
	var f float64
	switch x := e.(type) {
	case *ast.FloatLiteral:
		f = x.Value
	case *ast.IntegerLiteral:
		f = float64(x.Value)
	case *ast.UnaryOperation:
		if x.Op != ast.OpNeg {
			return asm.Data{}, false
		}
		d, ok := floatData(ast.Double, x.Operand)
		if !ok {
			return d, false
		}
		f = -math.Float64frombits(uint64(d.Value))
	default:
		return asm.Data{}, false
	}
	switch k {
	case ast.Float:
		return asm.Data{Kind: asm.DataLong, Value: int64(math.Float32bits(float32(f)))}, true
	case ast.Double:
		return asm.Data{Kind: asm.DataQuad, Value: int64(math.Float64bits(f))}, true
	}
	return asm.Data{}, false
}
