package asm

import (
	"bytes"
	"strings"
	"testing"
)

type printCase struct {
	name string
	inst Instruction
	want string
}

func runPrintCases(t *testing.T, tests []printCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := NewPrinter(&buf)
			p.printInstruction(tt.inst)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintArithmeticInstructions(t *testing.T) {
	runPrintCases(t, []printCase{
		{"ADD", ADD{Src: R(RCX), Dst: R(RAX)}, "    add %rcx, %rax\n"},
		{"ADD imm", ADD{Src: Imm(16), Dst: R(RSP)}, "    add $16, %rsp\n"},
		{"ADD to memory", ADD{Src: Imm(1), Dst: Mem{Base: RBP, Disp: -8}}, "    addq $1, -8(%rbp)\n"},
		{"SUB", SUB{Src: R(RCX), Dst: R(RAX)}, "    sub %rcx, %rax\n"},
		{"SUB frame", SUB{Src: Imm(32), Dst: R(RSP)}, "    sub $32, %rsp\n"},
		{"IMUL", IMUL{Src: R(RCX), Dst: R(RAX)}, "    imul %rcx, %rax\n"},
		{"AND", AND{Src: R(RCX), Dst: R(RAX)}, "    and %rcx, %rax\n"},
		{"OR", OR{Src: R(RCX), Dst: R(RAX)}, "    or %rcx, %rax\n"},
		{"XOR", XOR{Src: R(RCX), Dst: R(RAX)}, "    xor %rcx, %rax\n"},
		{"NEG", NEG{Dst: R(RAX)}, "    neg %rax\n"},
		{"NOT", NOT{Dst: R(RAX)}, "    not %rax\n"},
		{"CQO", CQO{}, "    cqo\n"},
		{"IDIV", IDIV{Src: R(RCX)}, "    idiv %rcx\n"},
		{"DIV", DIV{Src: R(RCX)}, "    div %rcx\n"},
	})
}

func TestPrintShiftInstructions(t *testing.T) {
	runPrintCases(t, []printCase{
		{"SHL", SHL{Dst: R(RAX)}, "    shl %cl, %rax\n"},
		{"SAR", SAR{Dst: R(RAX)}, "    sar %cl, %rax\n"},
		{"SHR", SHR{Dst: R(RAX)}, "    shr %cl, %rax\n"},
	})
}

func TestPrintLoadStoreInstructions(t *testing.T) {
	slot := Mem{Base: RBP, Disp: -16}
	runPrintCases(t, []printCase{
		{"load quad", MOVX{Src: slot, Dst: RAX, Width: W8}, "    mov -16(%rbp), %rax\n"},
		{"load signed int", MOVX{Src: Mem{Base: RAX}, Dst: RAX, Width: W4, Signed: true}, "    movslq (%rax), %rax\n"},
		{"load unsigned int", MOVX{Src: Mem{Base: RAX}, Dst: RAX, Width: W4}, "    movl (%rax), %eax\n"},
		{"load signed short", MOVX{Src: slot, Dst: RAX, Width: W2, Signed: true}, "    movswq -16(%rbp), %rax\n"},
		{"load unsigned short", MOVX{Src: slot, Dst: RAX, Width: W2}, "    movzwq -16(%rbp), %rax\n"},
		{"load signed char", MOVX{Src: slot, Dst: RAX, Width: W1, Signed: true}, "    movsbq -16(%rbp), %rax\n"},
		{"load unsigned char", MOVX{Src: slot, Dst: RAX, Width: W1}, "    movzbq -16(%rbp), %rax\n"},
		{"load global", MOVX{Src: RIPRel{Symbol: "_g"}, Dst: RAX, Width: W4, Signed: true}, "    movslq _g(%rip), %rax\n"},
		{"store quad", STORE{Src: RAX, Dst: slot, Width: W8}, "    mov %rax, -16(%rbp)\n"},
		{"store default width", STORE{Src: RAX, Dst: slot}, "    mov %rax, -16(%rbp)\n"},
		{"store int", STORE{Src: RAX, Dst: Mem{Base: RCX}, Width: W4}, "    mov %eax, (%rcx)\n"},
		{"store short", STORE{Src: RAX, Dst: Mem{Base: RCX}, Width: W2}, "    mov %ax, (%rcx)\n"},
		{"store byte", STORE{Src: RAX, Dst: Mem{Base: RCX}, Width: W1}, "    mov %al, (%rcx)\n"},
		{"extend register", MOVX{Src: Register{Reg: RAX, Width: W4}, Dst: RAX, Width: W4, Signed: true}, "    movslq %eax, %rax\n"},
		{"zero extend register", MOVX{Src: Register{Reg: RDI, Width: W1}, Dst: RDI, Width: W1}, "    movzbq %dil, %rdi\n"},
		{"store param", STORE{Src: RDI, Dst: Mem{Base: RBP, Disp: -8}, Width: W8}, "    mov %rdi, -8(%rbp)\n"},
	})
}

func TestPrintMoveInstructions(t *testing.T) {
	runPrintCases(t, []printCase{
		{"MOV imm", MOV{Src: Imm(42), Dst: R(RAX)}, "    mov $42, %rax\n"},
		{"MOV reg", MOV{Src: R(RSP), Dst: R(RBP)}, "    mov %rsp, %rbp\n"},
		{"MOV imm to memory", MOV{Src: Imm(0), Dst: Mem{Base: RBP, Disp: -8}}, "    movq $0, -8(%rbp)\n"},
		{"MOVZX", MOVZX{Src: RAX, Dst: RAX}, "    movzbq %al, %rax\n"},
		{"LEA string", LEA{Src: RIPRel{Symbol: "L.str.0"}, Dst: RAX}, "    lea L.str.0(%rip), %rax\n"},
		{"LEA local", LEA{Src: Mem{Base: RBP, Disp: -24}, Dst: RAX}, "    lea -24(%rbp), %rax\n"},
		{"PUSH", PUSH{Src: R(RAX)}, "    push %rax\n"},
		{"POP", POP{Dst: R(RCX)}, "    pop %rcx\n"},
	})
}

// A register operand fixes the operand size, so only memory-only forms
// carry the q suffix
func TestPrintMnemonicSuffix(t *testing.T) {
	runPrintCases(t, []printCase{
		{"ADD register", ADD{Src: Imm(1), Dst: R(RAX)}, "    add $1, %rax\n"},
		{"ADD memory", ADD{Src: Imm(1), Dst: Mem{Base: RBP, Disp: -8}}, "    addq $1, -8(%rbp)\n"},
		{"LEA register", LEA{Src: Mem{Base: RAX, Disp: 8}, Dst: R11}, "    lea 8(%rax), %r11\n"},
		{"PUSH memory", PUSH{Src: Mem{Base: RBP, Disp: -16}}, "    pushq -16(%rbp)\n"},
		{"NEG memory", NEG{Dst: Mem{Base: RBP, Disp: -8}}, "    negq -8(%rbp)\n"},
	})
}

func TestPrintCompareInstructions(t *testing.T) {
	runPrintCases(t, []printCase{
		{"CMP", CMP{Src: R(RCX), Dst: R(RAX)}, "    cmp %rcx, %rax\n"},
		{"CMP zero", CMP{Src: Imm(0), Dst: R(RAX)}, "    cmp $0, %rax\n"},
		{"SETE", SETcc{Cond: CondE, Dst: RAX}, "    sete %al\n"},
		{"SETL", SETcc{Cond: CondL, Dst: RAX}, "    setl %al\n"},
		{"SETB", SETcc{Cond: CondB, Dst: RAX}, "    setb %al\n"},
	})
}

func TestPrintBranchInstructions(t *testing.T) {
	runPrintCases(t, []printCase{
		{"JMP", JMP{Target: ".Lwhile_start_0"}, "    jmp .Lwhile_start_0\n"},
		{"JE", Jcc{Cond: CondE, Target: ".Lif_else_1"}, "    je .Lif_else_1\n"},
		{"JNE", Jcc{Cond: CondNE, Target: ".Llogical_end_2"}, "    jne .Llogical_end_2\n"},
		{"CALL", CALL{Target: "printf"}, "    call _printf\n"},
		{"CALLI", CALLI{Target: R10}, "    call *%r10\n"},
		{"RET", RET{}, "    ret\n"},
	})
}

func TestPrintLabelDef(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.printInstruction(LabelDef{Name: ".L1"})
	if got := buf.String(); got != ".L1:\n" {
		t.Errorf("got %q, want %q", got, ".L1:\n")
	}
}

func TestPrintFunction(t *testing.T) {
	f := Function{
		Name: "add_one",
		Code: []Instruction{
			ADD{Src: Imm(1), Dst: R(RAX)},
			RET{},
		},
	}

	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.printFunction(f)

	want := "\n.globl _add_one\n.p2align 4, 0x90\n_add_one:\n    add $1, %rax\n    ret\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrintStaticFunction(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.printFunction(Function{Name: "helper", Static: true, Code: []Instruction{RET{}}})

	output := buf.String()
	if strings.Contains(output, ".globl") {
		t.Error("static function should not be exported")
	}
	if !strings.Contains(output, "_helper:") {
		t.Error("Missing function label")
	}
}

func TestPrintProgram(t *testing.T) {
	prog := &Program{
		Globals: []GlobVar{
			{Name: "counter", Align: 4, Init: []Data{{Kind: DataLong, Value: 3}}},
			{Name: "table", Static: true, Align: 8, Init: []Data{
				{Kind: DataAddr, Symbol: "L.str.0"},
				{Kind: DataZero, Value: 8},
			}},
		},
		Functions: []Function{
			{
				Name: "main",
				Code: []Instruction{
					MOV{Src: Imm(0), Dst: R(RAX)},
					RET{},
				},
			},
		},
		Strings: []StringLit{{Label: "L.str.0", Value: "hi\n"}},
	}

	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintProgram(prog)

	want := `.section __TEXT,__text,regular,pure_instructions

.globl _main
.p2align 4, 0x90
_main:
    mov $0, %rax
    ret

.section __DATA,__data

.globl _counter
.p2align 2
_counter:
    .long 3

.p2align 3
_table:
    .quad L.str.0
    .zero 8

.section __TEXT,__cstring,cstring_literals
L.str.0:
    .asciz "hi\n"
`
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintProgramOmitsEmptySections(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(&Program{})
	output := buf.String()
	if strings.Contains(output, "__DATA") || strings.Contains(output, "__cstring") {
		t.Errorf("empty program printed data sections:\n%s", output)
	}
	if !strings.HasPrefix(output, ".section __TEXT,__text") {
		t.Errorf("missing text section:\n%s", output)
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a\"b", `a\"b`},
		{`back\slash`, `back\\slash`},
		{"tab\tnl\n", `tab\tnl\n`},
		{"\x00\x7f\xff", `\000\177\377`},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
