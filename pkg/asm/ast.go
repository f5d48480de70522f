// Package asm defines the x86-64 assembly representation in AT&T syntax.
// This is the final output of the compiler; the printer renders it as
// Mach-O flavoured GNU assembler text.
package asm

import "fmt"

// Reg is a general-purpose register, named by its 64-bit form
type Reg int

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
)

// ArgRegs are the System V integer argument registers in order
var ArgRegs = []Reg{RDI, RSI, RDX, RCX, R8, R9}

// Width is an operand size in bytes
type Width int

const (
	W1 Width = 1
	W2 Width = 2
	W4 Width = 4
	W8 Width = 8
)

var regNames = map[Width][]string{
	W8: {"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi", "r8", "r9", "r10", "r11"},
	W4: {"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi", "r8d", "r9d", "r10d", "r11d"},
	W2: {"ax", "cx", "dx", "bx", "sp", "bp", "si", "di", "r8w", "r9w", "r10w", "r11w"},
	W1: {"al", "cl", "dl", "bl", "spl", "bpl", "sil", "dil", "r8b", "r9b", "r10b", "r11b"},
}

// Name returns the register's name at width w, without the % sigil
func (r Reg) Name(w Width) string {
	names, ok := regNames[w]
	if !ok || int(r) < 0 || int(r) >= len(names) {
		return "?"
	}
	return names[r]
}

func (r Reg) String() string { return r.Name(W8) }

// Operand is an instruction operand
type Operand interface {
	implOperand()
	String() string
}

// Register is a register operand of a given width; a zero width means 64 bits
type Register struct {
	Reg   Reg
	Width Width
}

// Imm is an immediate operand
type Imm int64

// Mem addresses Disp(Base)
type Mem struct {
	Base Reg
	Disp int64
}

// RIPRel addresses a symbol relative to the instruction pointer,
// optionally with a constant displacement
type RIPRel struct {
	Symbol string
	Disp   int64
}

func (Register) implOperand() {}
func (Imm) implOperand()      {}
func (Mem) implOperand()      {}
func (RIPRel) implOperand()   {}

func (r Register) String() string {
	w := r.Width
	if w == 0 {
		w = W8
	}
	return "%" + r.Reg.Name(w)
}

func (i Imm) String() string { return fmt.Sprintf("$%d", int64(i)) }

func (m Mem) String() string {
	if m.Disp == 0 {
		return fmt.Sprintf("(%%%s)", m.Base)
	}
	return fmt.Sprintf("%d(%%%s)", m.Disp, m.Base)
}

func (r RIPRel) String() string {
	if r.Disp == 0 {
		return r.Symbol + "(%rip)"
	}
	return fmt.Sprintf("%s%+d(%%rip)", r.Symbol, r.Disp)
}

// R returns the 64-bit register operand for r
func R(r Reg) Register { return Register{Reg: r, Width: W8} }

// CondCode is a condition for SETcc and Jcc
type CondCode int

const (
	CondE  CondCode = iota // equal
	CondNE                 // not equal
	CondL                  // signed less
	CondLE                 // signed less or equal
	CondG                  // signed greater
	CondGE                 // signed greater or equal
	CondB                  // unsigned below
	CondBE                 // unsigned below or equal
	CondA                  // unsigned above
	CondAE                 // unsigned above or equal
)

var condNames = []string{"e", "ne", "l", "le", "g", "ge", "b", "be", "a", "ae"}

func (c CondCode) String() string {
	if int(c) < 0 || int(c) >= len(condNames) {
		return "?"
	}
	return condNames[c]
}

// Label represents a branch target label
type Label string

// --- Instruction Interface ---

// Instruction is the interface for x86-64 instructions
type Instruction interface {
	implInstruction()
}

// --- Data Movement ---

// MOV copies Src to Dst
type MOV struct {
	Src, Dst Operand
}

// MOVX moves the low Width bytes of Src into Dst, sign- or
// zero-extending to 64 bits. Src is memory or a register.
type MOVX struct {
	Src    Operand
	Dst    Reg
	Width  Width
	Signed bool
}

// STORE writes the low Width bytes of Src to Dst
type STORE struct {
	Src   Reg
	Dst   Operand
	Width Width
}

// MOVZX zero-extends a byte register into a 64-bit register
type MOVZX struct {
	Src, Dst Reg
}

// LEA loads the address of Src into Dst
type LEA struct {
	Src Operand
	Dst Reg
}

// PUSH pushes a 64-bit value
type PUSH struct {
	Src Operand
}

// POP pops a 64-bit value
type POP struct {
	Dst Operand
}

// --- Arithmetic and Logic ---

// ADD computes Dst += Src
type ADD struct{ Src, Dst Operand }

// SUB computes Dst -= Src
type SUB struct{ Src, Dst Operand }

// IMUL computes Dst *= Src (signed)
type IMUL struct{ Src, Dst Operand }

// AND computes Dst &= Src
type AND struct{ Src, Dst Operand }

// OR computes Dst |= Src
type OR struct{ Src, Dst Operand }

// XOR computes Dst ^= Src
type XOR struct{ Src, Dst Operand }

// SHL shifts Dst left by %cl
type SHL struct{ Dst Operand }

// SAR shifts Dst right arithmetically by %cl
type SAR struct{ Dst Operand }

// SHR shifts Dst right logically by %cl
type SHR struct{ Dst Operand }

// NEG negates Dst
type NEG struct{ Dst Operand }

// NOT complements Dst
type NOT struct{ Dst Operand }

// CQO sign-extends %rax into %rdx:%rax
type CQO struct{}

// IDIV divides %rdx:%rax by Src (signed)
type IDIV struct{ Src Operand }

// DIV divides %rdx:%rax by Src (unsigned)
type DIV struct{ Src Operand }

// --- Comparison ---

// CMP sets flags from Dst - Src
type CMP struct{ Src, Dst Operand }

// SETcc sets the byte register Dst to 1 if Cond holds, else 0
type SETcc struct {
	Cond CondCode
	Dst  Reg
}

// --- Control Flow ---

// JMP jumps unconditionally
type JMP struct{ Target Label }

// Jcc jumps if Cond holds
type Jcc struct {
	Cond   CondCode
	Target Label
}

// CALL calls a function by symbol name
type CALL struct{ Target string }

// CALLI calls the function whose address is in Target
type CALLI struct{ Target Reg }

// RET returns from the current function
type RET struct{}

// LabelDef is a label definition (pseudo-instruction)
type LabelDef struct{ Name Label }

// --- Marker methods for Instruction interface ---

func (MOV) implInstruction()      {}
func (MOVX) implInstruction()     {}
func (STORE) implInstruction()    {}
func (MOVZX) implInstruction()    {}
func (LEA) implInstruction()      {}
func (PUSH) implInstruction()     {}
func (POP) implInstruction()      {}
func (ADD) implInstruction()      {}
func (SUB) implInstruction()      {}
func (IMUL) implInstruction()     {}
func (AND) implInstruction()      {}
func (OR) implInstruction()       {}
func (XOR) implInstruction()      {}
func (SHL) implInstruction()      {}
func (SAR) implInstruction()      {}
func (SHR) implInstruction()      {}
func (NEG) implInstruction()      {}
func (NOT) implInstruction()      {}
func (CQO) implInstruction()      {}
func (IDIV) implInstruction()     {}
func (DIV) implInstruction()      {}
func (CMP) implInstruction()      {}
func (SETcc) implInstruction()    {}
func (JMP) implInstruction()      {}
func (Jcc) implInstruction()      {}
func (CALL) implInstruction()     {}
func (CALLI) implInstruction()    {}
func (RET) implInstruction()      {}
func (LabelDef) implInstruction() {}

// --- Function and Program ---

// Function represents an assembly function
type Function struct {
	Name   string
	Static bool // local symbol, no .globl
	Code   []Instruction
}

// DataKind selects a data directive
type DataKind int

const (
	DataByte  DataKind = iota // .byte
	DataShort                 // .short
	DataLong                  // .long
	DataQuad                  // .quad
	DataZero                  // .zero Value
	DataAddr                  // .quad Symbol
	DataAsciz                 // .asciz Text
)

// Data is one data directive of a global
type Data struct {
	Kind   DataKind
	Value  int64
	Symbol string
	Text   string
}

// Size returns the number of bytes d occupies
func (d Data) Size() int64 {
	switch d.Kind {
	case DataByte:
		return 1
	case DataShort:
		return 2
	case DataLong:
		return 4
	case DataQuad, DataAddr:
		return 8
	case DataZero:
		return d.Value
	case DataAsciz:
		return int64(len(d.Text)) + 1
	}
	return 0
}

// GlobVar represents a global variable
type GlobVar struct {
	Name   string
	Static bool
	Align  int
	Init   []Data
}

// StringLit is a C string literal placed in the cstring section
type StringLit struct {
	Label string
	Value string
}

// Program represents a complete assembly program
type Program struct {
	Functions []Function
	Globals   []GlobVar
	Strings   []StringLit
}

// NewFunction creates a new assembly function
func NewFunction(name string) *Function {
	return &Function{
		Name: name,
		Code: make([]Instruction, 0),
	}
}

// Append adds an instruction to the function
func (f *Function) Append(inst Instruction) {
	f.Code = append(f.Code, inst)
}

// AppendLabel adds a label definition
func (f *Function) AppendLabel(name Label) {
	f.Code = append(f.Code, LabelDef{Name: name})
}
