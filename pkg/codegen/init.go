package codegen

import (
	"sort"

	"github.com/raymyers/stackcc/pkg/asm"
	"github.com/raymyers/stackcc/pkg/ast"
)

// initVisitor receives the scalar pieces of an initializer with their
// byte offsets inside the object
type initVisitor interface {
	scalar(off int64, t ast.Type, e ast.Expr)
	// chars fills a character array from a string literal; s holds
	// exactly the bytes that fit, terminator included when it fits
	chars(off int64, s string)
}

// walkInit flattens init for an object of type t placed at off
func (g *Generator) walkInit(v initVisitor, off int64, t ast.Type, init ast.Expr) {
	if init == nil {
		return
	}
	switch rt := g.prog.Resolve(t).(type) {
	case *ast.Array:
		n := int64(-1)
		if rt.Size != nil {
			n = int64(*rt.Size)
		}
		if s, ok := init.(*ast.StringLiteral); ok && g.sizeOf(rt.Elem) == 1 {
			b := s.Value + "\x00"
			if n >= 0 && int64(len(b)) > n {
				b = b[:n]
			}
			v.chars(off, b)
			return
		}
		list, ok := init.(*ast.ArrayLiteral)
		if !ok {
			g.skip("array initializer %s", ast.ExprString(init))
			return
		}
		esize := g.sizeOf(rt.Elem)
		i := int64(0)
		for _, e := range list.Elements {
			if d, ok := e.(*ast.DesignatedInit); ok {
				if d.Index != nil {
					if idx, ok := ast.EvalConst(d.Index, g.constant); ok {
						i = idx
					}
				}
				e = d.Value
			}
			if n >= 0 && i >= n {
				g.skip("excess elements in array initializer")
				return
			}
			g.walkInit(v, off+i*esize, rt.Elem, e)
			i++
		}
	case *ast.Tagged:
		if rt.Kind == ast.TagEnum {
			v.scalar(off, rt, scalarInit(init))
			return
		}
		def := g.prog.FindStruct(rt.Name, rt.Kind == ast.TagUnion)
		list, ok := init.(*ast.ArrayLiteral)
		if def == nil || !ok {
			g.skip("struct initializer %s", ast.ExprString(init))
			return
		}
		i := 0
		for _, e := range list.Elements {
			if d, ok := e.(*ast.DesignatedInit); ok {
				if d.Field != "" {
					i = fieldIndex(def, d.Field)
				}
				e = d.Value
			}
			if i < 0 || i >= len(def.Fields) {
				g.skip("excess elements in struct initializer")
				return
			}
			g.walkInit(v, off+g.memberOffset(def, i), def.Fields[i].Type, e)
			i++
			if def.IsUnion {
				return
			}
		}
	default:
		v.scalar(off, rt, scalarInit(init))
	}
}

// scalarInit unwraps the braces allowed around a scalar initializer
func scalarInit(e ast.Expr) ast.Expr {
	if l, ok := e.(*ast.ArrayLiteral); ok {
		if len(l.Elements) == 0 {
			return &ast.IntegerLiteral{Value: 0, Text: "0"}
		}
		return scalarInit(l.Elements[0])
	}
	return e
}

func fieldIndex(s *ast.Struct, name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// memberOffset returns the offset of the i-th member of s
func (g *Generator) memberOffset(s *ast.Struct, i int) int64 {
	if s.IsUnion {
		return 0
	}
	off := 0
	for j, f := range s.Fields {
		a := g.prog.AlignOf(f.Type)
		if a > 1 {
			off = (off + a - 1) / a * a
		}
		if j == i {
			return int64(off)
		}
		off += g.prog.SizeOf(f.Type)
	}
	return int64(off)
}

// localInit stores initializer pieces into a stack object
type localInit struct {
	g    *Generator
	base int64
}

func (li localInit) scalar(off int64, t ast.Type, e ast.Expr) {
	g := li.g
	g.expr(e)
	g.store(t, asm.Mem{Base: asm.RBP, Disp: li.base + off})
}

func (li localInit) chars(off int64, s string) {
	g := li.g
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			continue // already zeroed
		}
		g.emit(asm.MOV{Src: asm.Imm(int64(s[i])), Dst: rax})
		g.emit(asm.STORE{Src: asm.RAX, Dst: asm.Mem{Base: asm.RBP, Disp: li.base + off + int64(i)}, Width: asm.W1})
	}
}

// initLocal zeroes the slots of an aggregate local and applies init
func (g *Generator) initLocal(l *local, t ast.Type, init ast.Expr) {
	slots := (g.sizeOf(t) + slotSize - 1) / slotSize
	for i := int64(0); i < slots; i++ {
		g.emit(asm.MOV{Src: asm.Imm(0), Dst: asm.Mem{Base: asm.RBP, Disp: l.off + i*slotSize}})
	}
	g.walkInit(localInit{g: g, base: l.off}, 0, t, init)
}

// chunk is one data directive at a byte offset
type chunk struct {
	off  int64
	data asm.Data
}

// dataInit collects constant initializer pieces for a global
type dataInit struct {
	g      *Generator
	name   string
	chunks []chunk
}

func (di *dataInit) scalar(off int64, t ast.Type, e ast.Expr) {
	if d, ok := di.g.constData(t, e); ok {
		di.chunks = append(di.chunks, chunk{off: off, data: d})
		return
	}
	di.g.skip("non-constant initializer for %s", di.name)
}

func (di *dataInit) chars(off int64, s string) {
	if n := len(s); n > 0 && s[n-1] == 0 {
		di.chunks = append(di.chunks, chunk{off: off, data: asm.Data{Kind: asm.DataAsciz, Text: s[:n-1]}})
		return
	}
	for i := 0; i < len(s); i++ {
		di.chunks = append(di.chunks, chunk{off: off + int64(i), data: asm.Data{Kind: asm.DataByte, Value: int64(s[i])}})
	}
}

// layout orders the chunks and fills the gaps with zeros up to size. A
// later piece at the same offset replaces an earlier one.
func (di *dataInit) layout(size int64) []asm.Data {
	byOff := make(map[int64]asm.Data)
	for _, c := range di.chunks {
		byOff[c.off] = c.data
	}
	offs := make([]int64, 0, len(byOff))
	for off := range byOff {
		offs = append(offs, off)
	}
	sort.Slice(offs, func(i, j int) bool { return offs[i] < offs[j] })

	var out []asm.Data
	pos := int64(0)
	for _, off := range offs {
		if off < pos {
			continue // overlaps the previous piece
		}
		if off > pos {
			out = append(out, asm.Data{Kind: asm.DataZero, Value: off - pos})
		}
		d := byOff[off]
		out = append(out, d)
		pos = off + d.Size()
	}
	if pos < size {
		out = append(out, asm.Data{Kind: asm.DataZero, Value: size - pos})
	}
	return out
}
