package ast

// BinaryOp represents binary operators
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpAnd // &&
	OpOr  // ||
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl // <<
	OpShr // >>
)

var binaryNames = []string{"+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!=", "&&", "||", "&", "|", "^", "<<", ">>"}

func (op BinaryOp) String() string {
	if int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return "?"
}

// IsComparison reports whether op yields a 0/1 truth value
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpLt, OpLe, OpGt, OpGe, OpEq, OpNe:
		return true
	}
	return false
}

// UnaryOp represents unary operators. Increment and decrement carry their
// position: prefix yields the updated value, postfix the original one.
type UnaryOp int

const (
	OpNeg     UnaryOp = iota // -
	OpPlus                   // +
	OpNot                    // !
	OpBitNot                 // ~
	OpPreInc                 // ++x
	OpPreDec                 // --x
	OpPostInc                // x++
	OpPostDec                // x--
	OpAddrOf                 // &
	OpDeref                  // *
)

var unaryNames = []string{"-", "+", "!", "~", "++", "--", "++", "--", "&", "*"}

func (op UnaryOp) String() string {
	if int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return "?"
}

// IsPostfix reports whether op is written after its operand
func (op UnaryOp) IsPostfix() bool {
	return op == OpPostInc || op == OpPostDec
}

// AssignOp is the operator of an Assignment; OpAssign is plain '='
type AssignOp int

const (
	OpAssign AssignOp = iota
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpModAssign
	OpAndAssign
	OpOrAssign
	OpXorAssign
	OpShlAssign
	OpShrAssign
)

var assignNames = []string{"=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>="}

func (op AssignOp) String() string {
	if int(op) < len(assignNames) {
		return assignNames[op]
	}
	return "?"
}

// Binary returns the arithmetic operator a compound assignment applies.
// ok is false for plain '='.
func (op AssignOp) Binary() (bop BinaryOp, ok bool) {
	switch op {
	case OpAddAssign:
		return OpAdd, true
	case OpSubAssign:
		return OpSub, true
	case OpMulAssign:
		return OpMul, true
	case OpDivAssign:
		return OpDiv, true
	case OpModAssign:
		return OpMod, true
	case OpAndAssign:
		return OpBitAnd, true
	case OpOrAssign:
		return OpBitOr, true
	case OpXorAssign:
		return OpBitXor, true
	case OpShlAssign:
		return OpShl, true
	case OpShrAssign:
		return OpShr, true
	}
	return 0, false
}
