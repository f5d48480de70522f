package transform

import (
	"math"
	"strconv"
	"strings"

	"github.com/raymyers/stackcc/pkg/ast"
)

// ConstantFolder evaluates integer constant expressions at compile time.
// Only values of type int are folded, so the result keeps the type the
// expression had: operands must be unsuffixed literals that fit in an int
// and so must the result.
type ConstantFolder struct {
	folded int
}

// NewConstantFolder creates a constant folding pass
func NewConstantFolder() *ConstantFolder {
	return &ConstantFolder{}
}

func (*ConstantFolder) Name() string { return "constant-folding" }

// Folded returns how many expressions were replaced by literals
func (c *ConstantFolder) Folded() int {
	return c.folded
}

func (c *ConstantFolder) Apply(prog *ast.Program) error {
	for _, f := range prog.Functions {
		c.stmts(f.Body)
	}
	return nil
}

func (c *ConstantFolder) stmts(list []ast.Stmt) {
	for _, s := range list {
		c.stmt(s)
	}
}

func (c *ConstantFolder) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Return:
		s.Expr = c.expr(s.Expr)
	case *ast.VariableDeclaration:
		s.Init = c.expr(s.Init)
	case *ast.ArrayDeclaration:
		s.Init = c.expr(s.Init)
	case *ast.ExpressionStatement:
		s.Expr = c.expr(s.Expr)
	case *ast.Block:
		c.stmts(s.Stmts)
	case *ast.If:
		s.Cond = c.expr(s.Cond)
		c.stmt(s.Then)
		c.stmt(s.Else)
	case *ast.While:
		s.Cond = c.expr(s.Cond)
		c.stmt(s.Body)
	case *ast.DoWhile:
		c.stmt(s.Body)
		s.Cond = c.expr(s.Cond)
	case *ast.For:
		c.stmt(s.Init)
		s.Cond = c.expr(s.Cond)
		s.Post = c.expr(s.Post)
		c.stmt(s.Body)
	case *ast.Switch:
		s.Expr = c.expr(s.Expr)
		for _, cs := range s.Cases {
			cs.Value = c.expr(cs.Value)
			c.stmts(cs.Stmts)
		}
	case *ast.Label:
		c.stmt(s.Stmt)
	case *ast.AtomicDeclaration:
		c.stmt(s.Decl)
	case *ast.ThreadLocalDeclaration:
		c.stmt(s.Decl)
	case *ast.NoReturnDeclaration:
		c.stmt(s.Decl)
	}
}

func (c *ConstantFolder) expr(e ast.Expr) ast.Expr {
	switch e := e.(type) {
	case *ast.BinaryOperation:
		e.Left = c.expr(e.Left)
		e.Right = c.expr(e.Right)
		l, lok := intValue(e.Left)
		if !lok {
			return e
		}
		// the right side of a decided && or || is never evaluated
		if (e.Op == ast.OpAnd && l == 0) || (e.Op == ast.OpOr && l != 0) {
			return c.literal(boolInt(e.Op == ast.OpOr))
		}
		r, rok := intValue(e.Right)
		if !rok {
			return e
		}
		if (e.Op == ast.OpShl || e.Op == ast.OpShr) && (r < 0 || r >= 32 || l < 0) {
			return e
		}
		if v, ok := ast.EvalBinary(e.Op, l, r); ok && fitsInt(v) {
			return c.literal(v)
		}
	case *ast.UnaryOperation:
		e.Operand = c.expr(e.Operand)
		x, ok := intValue(e.Operand)
		if !ok {
			return e
		}
		var v int64
		switch e.Op {
		case ast.OpNeg:
			v = -x
		case ast.OpPlus:
			v = x
		case ast.OpBitNot:
			v = ^x
		case ast.OpNot:
			v = boolInt(x == 0)
		default:
			return e
		}
		if fitsInt(v) {
			return c.literal(v)
		}
	case *ast.TernaryIf:
		e.Cond = c.expr(e.Cond)
		e.Then = c.expr(e.Then)
		e.Else = c.expr(e.Else)
		cond, ok := intValue(e.Cond)
		then, tok := intValue(e.Then)
		els, eok := intValue(e.Else)
		if ok && tok && eok {
			if cond != 0 {
				return c.literal(then)
			}
			return c.literal(els)
		}
	case *ast.Cast:
		e.Expr = c.expr(e.Expr)
		x, ok := intValue(e.Expr)
		p, isPrim := ast.Unqualified(e.Type).(*ast.Primitive)
		if ok && isPrim && promotesToInt(p.Kind) {
			return c.literal(ast.Truncate(x, p.Kind))
		}
	case *ast.Assignment:
		e.Target = c.expr(e.Target)
		e.Value = c.expr(e.Value)
	case *ast.FunctionCall:
		for i, a := range e.Args {
			e.Args[i] = c.expr(a)
		}
	case *ast.ArrayAccess:
		e.Array = c.expr(e.Array)
		e.Index = c.expr(e.Index)
	case *ast.StructFieldAccess:
		e.Object = c.expr(e.Object)
	case *ast.PointerFieldAccess:
		e.Pointer = c.expr(e.Pointer)
	case *ast.ArrayLiteral:
		for i, el := range e.Elements {
			e.Elements[i] = c.expr(el)
		}
	case *ast.DesignatedInit:
		e.Value = c.expr(e.Value)
	case *ast.CompoundLiteral:
		for i, el := range e.Elements {
			e.Elements[i] = c.expr(el)
		}
	}
	// sizeof operands are left alone: folding could change their type
	return e
}

func (c *ConstantFolder) literal(v int64) *ast.IntegerLiteral {
	c.folded++
	return &ast.IntegerLiteral{Value: v, Text: strconv.FormatInt(v, 10)}
}

// intValue returns the value of an int-typed constant operand
func intValue(e ast.Expr) (int64, bool) {
	switch e := e.(type) {
	case *ast.IntegerLiteral:
		if strings.ContainsAny(e.Text, "uUlL") || !fitsInt(e.Value) {
			return 0, false
		}
		return e.Value, true
	case *ast.CharLiteral:
		if e.Encoding != ast.EncodingNone {
			return 0, false
		}
		return int64(e.Value), true
	}
	return 0, false
}

func fitsInt(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

func promotesToInt(k ast.Kind) bool {
	switch k {
	case ast.Bool, ast.Char, ast.SChar, ast.UChar, ast.Short, ast.UShort, ast.Int:
		return true
	}
	return false
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
