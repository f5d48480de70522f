package codegen

import (
	"github.com/raymyers/stackcc/pkg/asm"
	"github.com/raymyers/stackcc/pkg/ast"
)

const slotSize = 8

// local is a name visible inside a function body
type local struct {
	off     int64    // offset from %rbp
	typ     ast.Type // declared type
	sym     string   // set when the object lives in data (static, extern)
	isConst bool     // block-scope enumerator
	value   int64
}

// frame assigns stack slots to one function's locals. Offsets grow
// downward in declaration order and are never reused.
type frame struct {
	scopes  []map[string]*local
	next    int64
	offsets map[string]int
}

func newFrame() *frame {
	return &frame{
		scopes:  []map[string]*local{{}},
		offsets: make(map[string]int),
	}
}

func (f *frame) push() {
	f.scopes = append(f.scopes, map[string]*local{})
}

func (f *frame) pop() {
	f.scopes = f.scopes[:len(f.scopes)-1]
}

// alloc reserves enough slots for size bytes and binds name to the lowest
// address of the area
func (f *frame) alloc(name string, typ ast.Type, size int64) *local {
	n := (size + slotSize - 1) / slotSize
	if n < 1 {
		n = 1
	}
	f.next -= n * slotSize
	l := &local{off: f.next, typ: typ}
	f.bind(name, l)
	if _, seen := f.offsets[name]; !seen {
		f.offsets[name] = int(l.off)
	}
	return l
}

// bind makes l visible in the innermost scope
func (f *frame) bind(name string, l *local) {
	f.scopes[len(f.scopes)-1][name] = l
}

func (f *frame) lookup(name string) *local {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if l, ok := f.scopes[i][name]; ok {
			return l
		}
	}
	return nil
}

// slots returns the number of 8-byte slots handed out so far
func (f *frame) slots() int64 {
	return -f.next / slotSize
}

// frameSize is the byte size reserved below %rbp: one slot per top-level
// statement or per allocated slot, whichever is larger, kept 16-byte
// aligned for calls.
func frameSize(stmts int, slots int64) int64 {
	n := int64(stmts)
	if slots > n {
		n = slots
	}
	size := n * slotSize
	return (size + 15) &^ 15
}

func (g *Generator) function(f *ast.Function) {
	g.fn = f
	g.frame = newFrame()
	g.depth = 0
	g.breaks, g.continues = nil, nil
	g.userLbls = make(map[string]asm.Label)
	defer func() { g.fn, g.frame = nil, nil }()

	body := asm.NewFunction(f.Name)
	body.Static = f.IsStatic
	g.code = body

	g.params(f)
	for _, s := range f.Body {
		g.stmt(s)
	}
	if len(f.Body) == 0 || !isReturn(f.Body[len(f.Body)-1]) {
		if f.Name == "main" {
			g.emit(asm.MOV{Src: asm.Imm(0), Dst: asm.R(asm.RAX)})
		}
		g.epilogue()
	}

	out := asm.NewFunction(f.Name)
	out.Static = f.IsStatic
	out.Append(asm.PUSH{Src: asm.R(asm.RBP)})
	out.Append(asm.MOV{Src: asm.R(asm.RSP), Dst: asm.R(asm.RBP)})
	if n := frameSize(len(f.Body), g.frame.slots()); n > 0 {
		out.Append(asm.SUB{Src: asm.Imm(n), Dst: asm.R(asm.RSP)})
	}
	out.Code = append(out.Code, body.Code...)

	g.offsets[f.Name] = g.frame.offsets
	g.out.Functions = append(g.out.Functions, *out)
}

// params spills register arguments to slots; stack arguments stay in the
// caller's frame above the return address
func (g *Generator) params(f *ast.Function) {
	for i, p := range f.Params {
		if p.Name == "" {
			continue
		}
		t := g.prog.Resolve(p.Type)
		if ast.IsFloating(t) {
			g.skip("floating-point parameter %s", p.Name)
		}
		if arr, ok := t.(*ast.Array); ok {
			t = ast.PointerTo(arr.Elem)
		}
		if i >= len(asm.ArgRegs) {
			l := &local{off: int64(16 + slotSize*(i-len(asm.ArgRegs))), typ: t}
			g.frame.bind(p.Name, l)
			g.frame.offsets[p.Name] = int(l.off)
			continue
		}
		reg := asm.ArgRegs[i]
		if w, signed, ok := g.scalar(t); ok && w < asm.W8 {
			g.emit(asm.MOVX{Src: asm.Register{Reg: reg, Width: w}, Dst: reg, Width: w, Signed: signed})
		}
		l := g.frame.alloc(p.Name, t, slotSize)
		g.emit(asm.STORE{Src: reg, Dst: asm.Mem{Base: asm.RBP, Disp: l.off}, Width: asm.W8})
	}
}

func (g *Generator) epilogue() {
	g.emit(asm.MOV{Src: asm.R(asm.RBP), Dst: asm.R(asm.RSP)})
	g.emit(asm.POP{Dst: asm.R(asm.RBP)})
	g.emit(asm.RET{})
}

func isReturn(s ast.Stmt) bool {
	_, ok := s.(*ast.Return)
	return ok
}
