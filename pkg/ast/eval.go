package ast

// EvalConst evaluates an integer constant expression. lookup resolves
// names such as enumeration constants and may be nil. ok is false when e
// is not constant or its evaluation is undefined (division by zero,
// out-of-range shift).
func EvalConst(e Expr, lookup func(name string) (int64, bool)) (v int64, ok bool) {
	switch e := e.(type) {
	case *IntegerLiteral:
		return e.Value, true
	case *CharLiteral:
		return int64(e.Value), true
	case *Variable:
		if lookup == nil {
			return 0, false
		}
		return lookup(e.Name)
	case *UnaryOperation:
		x, ok := EvalConst(e.Operand, lookup)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case OpNeg:
			return -x, true
		case OpPlus:
			return x, true
		case OpBitNot:
			return ^x, true
		case OpNot:
			return boolInt(x == 0), true
		}
		return 0, false
	case *BinaryOperation:
		l, ok := EvalConst(e.Left, lookup)
		if !ok {
			return 0, false
		}
		// && and || do not evaluate their right side when decided
		switch {
		case e.Op == OpAnd && l == 0:
			return 0, true
		case e.Op == OpOr && l != 0:
			return 1, true
		}
		r, ok := EvalConst(e.Right, lookup)
		if !ok {
			return 0, false
		}
		return EvalBinary(e.Op, l, r)
	case *TernaryIf:
		c, ok := EvalConst(e.Cond, lookup)
		if !ok {
			return 0, false
		}
		if c != 0 {
			return EvalConst(e.Then, lookup)
		}
		return EvalConst(e.Else, lookup)
	case *Cast:
		x, ok := EvalConst(e.Expr, lookup)
		if !ok {
			return 0, false
		}
		p, isPrim := Unqualified(e.Type).(*Primitive)
		if !isPrim || !p.Kind.IsInteger() {
			return 0, false
		}
		return Truncate(x, p.Kind), true
	case *SizeOfType:
		if n := TypeSize(e.Type); n > 0 {
			return int64(n), true
		}
	case *AlignOf:
		return int64(TypeAlign(e.Type)), true
	}
	return 0, false
}

// EvalBinary applies op to two 64-bit signed operands
func EvalBinary(op BinaryOp, l, r int64) (int64, bool) {
	switch op {
	case OpAdd:
		return l + r, true
	case OpSub:
		return l - r, true
	case OpMul:
		return l * r, true
	case OpDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case OpMod:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case OpLt:
		return boolInt(l < r), true
	case OpLe:
		return boolInt(l <= r), true
	case OpGt:
		return boolInt(l > r), true
	case OpGe:
		return boolInt(l >= r), true
	case OpEq:
		return boolInt(l == r), true
	case OpNe:
		return boolInt(l != r), true
	case OpAnd:
		return boolInt(l != 0 && r != 0), true
	case OpOr:
		return boolInt(l != 0 || r != 0), true
	case OpBitAnd:
		return l & r, true
	case OpBitOr:
		return l | r, true
	case OpBitXor:
		return l ^ r, true
	case OpShl:
		if r < 0 || r >= 64 {
			return 0, false
		}
		return l << uint(r), true
	case OpShr:
		if r < 0 || r >= 64 {
			return 0, false
		}
		return l >> uint(r), true
	}
	return 0, false
}

// Truncate converts v to the range of integer kind k
func Truncate(v int64, k Kind) int64 {
	switch k {
	case Bool:
		return boolInt(v != 0)
	case Char, SChar:
		return int64(int8(v))
	case UChar:
		return int64(uint8(v))
	case Short:
		return int64(int16(v))
	case UShort:
		return int64(uint16(v))
	case Int:
		return int64(int32(v))
	case UInt:
		return int64(uint32(v))
	}
	return v
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// ConstValue returns the value of s when it declares name as a
// const-qualified integer with a literal initializer, the form
// enumerators take.
func ConstValue(s Stmt, name string) (int64, bool) {
	d, ok := s.(*VariableDeclaration)
	if !ok || d.Name != name {
		return 0, false
	}
	q, ok := d.Type.(*Qualified)
	if !ok || q.Qual != Const {
		return 0, false
	}
	if p, ok := Unqualified(q.Elem).(*Primitive); !ok || !p.Kind.IsInteger() {
		return 0, false
	}
	return EvalConst(d.Init, nil)
}
