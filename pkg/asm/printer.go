package asm

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs x86-64 assembly in AT&T syntax with Mach-O symbol naming
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new assembly printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram outputs an entire program: code first, then mutable data,
// then string literals
func (p *Printer) PrintProgram(prog *Program) {
	fmt.Fprintf(p.w, ".section __TEXT,__text,regular,pure_instructions\n")
	for _, f := range prog.Functions {
		p.printFunction(f)
	}

	if len(prog.Globals) > 0 {
		fmt.Fprintf(p.w, "\n.section __DATA,__data\n")
		for _, g := range prog.Globals {
			p.printGlobal(g)
		}
	}

	if len(prog.Strings) > 0 {
		fmt.Fprintf(p.w, "\n.section __TEXT,__cstring,cstring_literals\n")
		for _, s := range prog.Strings {
			fmt.Fprintf(p.w, "%s:\n", s.Label)
			fmt.Fprintf(p.w, "    .asciz \"%s\"\n", Escape(s.Value))
		}
	}
}

// log2 returns the base-2 logarithm of n (assumes n is a power of 2)
func log2(n int) int {
	r := 0
	for n > 1 {
		n >>= 1
		r++
	}
	return r
}

// SymbolName returns the Mach-O symbol for a C identifier
func SymbolName(name string) string {
	return "_" + name
}

func (p *Printer) printGlobal(g GlobVar) {
	fmt.Fprintf(p.w, "\n")
	if !g.Static {
		fmt.Fprintf(p.w, ".globl %s\n", SymbolName(g.Name))
	}
	if g.Align > 1 {
		fmt.Fprintf(p.w, ".p2align %d\n", log2(g.Align))
	}
	fmt.Fprintf(p.w, "%s:\n", SymbolName(g.Name))
	if len(g.Init) == 0 {
		fmt.Fprintf(p.w, "    .zero 1\n")
		return
	}
	for _, d := range g.Init {
		p.printData(d)
	}
}

func (p *Printer) printData(d Data) {
	switch d.Kind {
	case DataByte:
		fmt.Fprintf(p.w, "    .byte %d\n", d.Value)
	case DataShort:
		fmt.Fprintf(p.w, "    .short %d\n", d.Value)
	case DataLong:
		fmt.Fprintf(p.w, "    .long %d\n", d.Value)
	case DataQuad:
		fmt.Fprintf(p.w, "    .quad %d\n", d.Value)
	case DataZero:
		fmt.Fprintf(p.w, "    .zero %d\n", d.Value)
	case DataAddr:
		if d.Value != 0 {
			fmt.Fprintf(p.w, "    .quad %s%+d\n", d.Symbol, d.Value)
		} else {
			fmt.Fprintf(p.w, "    .quad %s\n", d.Symbol)
		}
	case DataAsciz:
		fmt.Fprintf(p.w, "    .asciz \"%s\"\n", Escape(d.Text))
	}
}

// Escape renders s for an .asciz directive
func Escape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if c < 0x20 || c >= 0x7f {
				fmt.Fprintf(&sb, "\\%03o", c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	return sb.String()
}

func (p *Printer) printFunction(f Function) {
	sym := SymbolName(f.Name)
	fmt.Fprintf(p.w, "\n")
	if !f.Static {
		fmt.Fprintf(p.w, ".globl %s\n", sym)
	}
	fmt.Fprintf(p.w, ".p2align 4, 0x90\n")
	fmt.Fprintf(p.w, "%s:\n", sym)

	for _, inst := range f.Code {
		p.printInstruction(inst)
	}
}

func isReg(o Operand) bool {
	_, ok := o.(Register)
	return ok
}

// mnemonic appends the q suffix when no register operand fixes the size.
// Extensions always spell both sizes.
func mnemonic(op string, ops ...Operand) string {
	for _, o := range ops {
		if isReg(o) {
			return op
		}
	}
	return op + "q"
}

func (p *Printer) emit(format string, args ...any) {
	fmt.Fprintf(p.w, "    "+format+"\n", args...)
}

func (p *Printer) binary(op string, src, dst Operand) {
	p.emit("%s %s, %s", mnemonic(op, src, dst), src, dst)
}

func (p *Printer) printInstruction(inst Instruction) {
	switch i := inst.(type) {
	// Data movement
	case MOV:
		p.binary("mov", i.Src, i.Dst)
	case MOVX:
		p.printExtend(i)
	case STORE:
		w := i.Width
		if w == 0 {
			w = W8
		}
		p.emit("mov %s, %s", Register{Reg: i.Src, Width: w}, i.Dst)
	case MOVZX:
		p.emit("movzbq %s, %s", Register{Reg: i.Src, Width: W1}, R(i.Dst))
	case LEA:
		p.binary("lea", i.Src, R(i.Dst))
	case PUSH:
		p.emit("%s %s", mnemonic("push", i.Src), i.Src)
	case POP:
		p.emit("%s %s", mnemonic("pop", i.Dst), i.Dst)

	// Arithmetic and logic
	case ADD:
		p.binary("add", i.Src, i.Dst)
	case SUB:
		p.binary("sub", i.Src, i.Dst)
	case IMUL:
		p.binary("imul", i.Src, i.Dst)
	case AND:
		p.binary("and", i.Src, i.Dst)
	case OR:
		p.binary("or", i.Src, i.Dst)
	case XOR:
		p.binary("xor", i.Src, i.Dst)
	case SHL:
		p.emit("%s %%cl, %s", mnemonic("shl", i.Dst), i.Dst)
	case SAR:
		p.emit("%s %%cl, %s", mnemonic("sar", i.Dst), i.Dst)
	case SHR:
		p.emit("%s %%cl, %s", mnemonic("shr", i.Dst), i.Dst)
	case NEG:
		p.emit("%s %s", mnemonic("neg", i.Dst), i.Dst)
	case NOT:
		p.emit("%s %s", mnemonic("not", i.Dst), i.Dst)
	case CQO:
		p.emit("cqo")
	case IDIV:
		p.emit("%s %s", mnemonic("idiv", i.Src), i.Src)
	case DIV:
		p.emit("%s %s", mnemonic("div", i.Src), i.Src)

	// Comparison
	case CMP:
		p.binary("cmp", i.Src, i.Dst)
	case SETcc:
		p.emit("set%s %s", i.Cond, Register{Reg: i.Dst, Width: W1})

	// Control flow
	case JMP:
		p.emit("jmp %s", i.Target)
	case Jcc:
		p.emit("j%s %s", i.Cond, i.Target)
	case CALL:
		p.emit("call %s", SymbolName(i.Target))
	case CALLI:
		p.emit("call *%s", R(i.Target))
	case RET:
		p.emit("ret")
	case LabelDef:
		fmt.Fprintf(p.w, "%s:\n", i.Name)

	default:
		p.emit("# unknown instruction %T", inst)
	}
}

func (p *Printer) printExtend(i MOVX) {
	dst := R(i.Dst)
	switch i.Width {
	case W1:
		if i.Signed {
			p.emit("movsbq %s, %s", i.Src, dst)
		} else {
			p.emit("movzbq %s, %s", i.Src, dst)
		}
	case W2:
		if i.Signed {
			p.emit("movswq %s, %s", i.Src, dst)
		} else {
			p.emit("movzwq %s, %s", i.Src, dst)
		}
	case W4:
		if i.Signed {
			p.emit("movslq %s, %s", i.Src, dst)
		} else {
			// 32-bit moves clear the upper half
			p.emit("movl %s, %s", i.Src, Register{Reg: i.Dst, Width: W4})
		}
	default:
		p.emit("mov %s, %s", i.Src, dst)
	}
}
