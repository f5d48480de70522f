package asm

import "testing"

func TestCondCodeString(t *testing.T) {
	tests := []struct {
		cond CondCode
		want string
	}{
		{CondE, "e"},
		{CondNE, "ne"},
		{CondL, "l"},
		{CondLE, "le"},
		{CondG, "g"},
		{CondGE, "ge"},
		{CondB, "b"},
		{CondBE, "be"},
		{CondA, "a"},
		{CondAE, "ae"},
		{CondCode(100), "?"}, // invalid
	}
	for _, tt := range tests {
		if got := tt.cond.String(); got != tt.want {
			t.Errorf("CondCode(%d).String() = %q, want %q", tt.cond, got, tt.want)
		}
	}
}

func TestRegisterNames(t *testing.T) {
	tests := []struct {
		reg   Reg
		width Width
		want  string
	}{
		{RAX, W8, "rax"},
		{RAX, W4, "eax"},
		{RAX, W2, "ax"},
		{RAX, W1, "al"},
		{RDI, W1, "dil"},
		{R8, W4, "r8d"},
		{R9, W8, "r9"},
		{R11, W1, "r11b"},
		{Reg(99), W8, "?"},
		{RAX, Width(3), "?"},
	}
	for _, tt := range tests {
		if got := tt.reg.Name(tt.width); got != tt.want {
			t.Errorf("Reg(%d).Name(%d) = %q, want %q", tt.reg, tt.width, got, tt.want)
		}
	}
}

func TestOperandString(t *testing.T) {
	tests := []struct {
		name string
		op   Operand
		want string
	}{
		{"register", R(RAX), "%rax"},
		{"zero width register", Register{Reg: RCX}, "%rcx"},
		{"byte register", Register{Reg: RAX, Width: W1}, "%al"},
		{"immediate", Imm(42), "$42"},
		{"negative immediate", Imm(-1), "$-1"},
		{"frame slot", Mem{Base: RBP, Disp: -8}, "-8(%rbp)"},
		{"indirect", Mem{Base: RAX}, "(%rax)"},
		{"rip relative", RIPRel{Symbol: "_x"}, "_x(%rip)"},
		{"rip relative offset", RIPRel{Symbol: "_x", Disp: 8}, "_x+8(%rip)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstructionInterface(t *testing.T) {
	// Verify all instruction types implement the Instruction interface
	var _ Instruction = MOV{}
	var _ Instruction = MOVX{}
	var _ Instruction = STORE{}
	var _ Instruction = MOVZX{}
	var _ Instruction = LEA{}
	var _ Instruction = PUSH{}
	var _ Instruction = POP{}
	var _ Instruction = ADD{}
	var _ Instruction = SUB{}
	var _ Instruction = IMUL{}
	var _ Instruction = AND{}
	var _ Instruction = OR{}
	var _ Instruction = XOR{}
	var _ Instruction = SHL{}
	var _ Instruction = SAR{}
	var _ Instruction = SHR{}
	var _ Instruction = NEG{}
	var _ Instruction = NOT{}
	var _ Instruction = CQO{}
	var _ Instruction = IDIV{}
	var _ Instruction = DIV{}
	var _ Instruction = CMP{}
	var _ Instruction = SETcc{}
	var _ Instruction = JMP{}
	var _ Instruction = Jcc{}
	var _ Instruction = CALL{}
	var _ Instruction = CALLI{}
	var _ Instruction = RET{}
	var _ Instruction = LabelDef{}
}

func TestNewFunction(t *testing.T) {
	fn := NewFunction("main")
	if fn.Name != "main" {
		t.Errorf("Name = %q, want %q", fn.Name, "main")
	}
	if len(fn.Code) != 0 {
		t.Errorf("Code length = %d, want 0", len(fn.Code))
	}
}

func TestFunctionAppend(t *testing.T) {
	fn := NewFunction("test")
	fn.Append(MOV{Src: Imm(1), Dst: R(RAX)})
	fn.Append(RET{})
	if len(fn.Code) != 2 {
		t.Fatalf("Code length = %d, want 2", len(fn.Code))
	}
	if _, ok := fn.Code[1].(RET); !ok {
		t.Errorf("Code[1] = %T, want RET", fn.Code[1])
	}
}

func TestFunctionAppendLabel(t *testing.T) {
	fn := NewFunction("test")
	fn.AppendLabel(".Lwhile_start_0")
	if len(fn.Code) != 1 {
		t.Fatalf("Code length = %d, want 1", len(fn.Code))
	}
	lbl, ok := fn.Code[0].(LabelDef)
	if !ok {
		t.Fatalf("Code[0] = %T, want LabelDef", fn.Code[0])
	}
	if lbl.Name != ".Lwhile_start_0" {
		t.Errorf("Name = %q", lbl.Name)
	}
}

func TestDataSize(t *testing.T) {
	tests := []struct {
		data Data
		want int64
	}{
		{Data{Kind: DataByte, Value: 7}, 1},
		{Data{Kind: DataShort}, 2},
		{Data{Kind: DataLong}, 4},
		{Data{Kind: DataQuad}, 8},
		{Data{Kind: DataAddr, Symbol: "_x"}, 8},
		{Data{Kind: DataZero, Value: 12}, 12},
		{Data{Kind: DataAsciz, Text: "hi"}, 3},
	}
	for _, tt := range tests {
		if got := tt.data.Size(); got != tt.want {
			t.Errorf("%+v.Size() = %d, want %d", tt.data, got, tt.want)
		}
	}
}
