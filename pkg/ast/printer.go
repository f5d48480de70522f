package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printer outputs the AST as C source. Every binary operation is
// parenthesized so the tree shape is visible in the output.
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a new AST printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, indent: 0}
}

// ExprString renders a single expression
func ExprString(e Expr) string {
	var sb strings.Builder
	NewPrinter(&sb).PrintExpr(e)
	return sb.String()
}

// StmtString renders a single statement, without a trailing newline
func StmtString(s Stmt) string {
	var sb strings.Builder
	NewPrinter(&sb).printStmt(s)
	return strings.TrimRight(sb.String(), "\n")
}

// PrintProgram prints a complete program
func (p *Printer) PrintProgram(prog *Program) {
	for _, inc := range prog.Includes {
		fmt.Fprintf(p.w, "#include <%s>\n", inc)
	}
	if len(prog.Includes) > 0 {
		fmt.Fprintln(p.w)
	}
	for _, td := range prog.Typedefs {
		fmt.Fprintf(p.w, "typedef %s;\n", Declare(td.Type, td.Name))
	}
	for _, s := range prog.Structs {
		p.printStruct(s)
		fmt.Fprintln(p.w)
	}
	for _, g := range prog.Globals {
		p.printStmt(g)
	}
	if len(prog.Globals) > 0 {
		fmt.Fprintln(p.w)
	}
	for _, f := range prog.Functions {
		p.PrintFunction(f)
		fmt.Fprintln(p.w)
	}
}

// PrintFunction prints a definition or prototype
func (p *Printer) PrintFunction(f *Function) {
	if f.IsStatic {
		fmt.Fprint(p.w, "static ")
	}
	if f.IsInline {
		fmt.Fprint(p.w, "inline ")
	}
	if f.IsNoReturn {
		fmt.Fprint(p.w, "_Noreturn ")
	}
	sig := &FuncType{Return: f.ReturnType, Params: f.Params, IsVariadic: f.IsVariadic}
	fmt.Fprint(p.w, Declare(sig, f.Name))
	if f.IsExternal {
		fmt.Fprintln(p.w, ";")
		return
	}
	fmt.Fprintln(p.w)
	p.printBlock(&Block{Stmts: f.Body})
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

func (p *Printer) printStruct(s *Struct) {
	kw := "struct"
	if s.IsUnion {
		kw = "union"
	}
	if s.Name != "" {
		fmt.Fprintf(p.w, "%s %s {\n", kw, s.Name)
	} else {
		fmt.Fprintf(p.w, "%s {\n", kw)
	}
	p.indent++
	for _, field := range s.Fields {
		p.writeIndent()
		fmt.Fprintf(p.w, "%s;\n", Declare(field.Type, field.Name))
	}
	p.indent--
	fmt.Fprintln(p.w, "};")
}

func (p *Printer) printBlock(b *Block) {
	p.writeIndent()
	fmt.Fprintln(p.w, "{")
	p.indent++
	for _, stmt := range b.Stmts {
		p.printStmt(stmt)
	}
	p.indent--
	p.writeIndent()
	fmt.Fprintln(p.w, "}")
}

// printNested prints the body of a control statement one level deeper,
// keeping blocks at the current level
func (p *Printer) printNested(s Stmt) {
	if b, ok := s.(*Block); ok {
		p.printBlock(b)
		return
	}
	p.indent++
	p.printStmt(s)
	p.indent--
}

func (p *Printer) printStmt(stmt Stmt) {
	if b, ok := stmt.(*Block); ok {
		p.printBlock(b)
		return
	}
	p.writeIndent()
	switch s := stmt.(type) {
	case *Return:
		fmt.Fprint(p.w, "return")
		if s.Expr != nil {
			fmt.Fprint(p.w, " ")
			p.PrintExpr(s.Expr)
		}
		fmt.Fprintln(p.w, ";")
	case *ExpressionStatement:
		p.PrintExpr(s.Expr)
		fmt.Fprintln(p.w, ";")
	case *Empty:
		fmt.Fprintln(p.w, ";")
	case *VariableDeclaration, *ArrayDeclaration:
		p.printDecl(stmt)
		fmt.Fprintln(p.w, ";")
	case *If:
		fmt.Fprint(p.w, "if (")
		p.PrintExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printNested(s.Then)
		if s.Else != nil {
			p.writeIndent()
			fmt.Fprintln(p.w, "else")
			p.printNested(s.Else)
		}
	case *While:
		fmt.Fprint(p.w, "while (")
		p.PrintExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printNested(s.Body)
	case *DoWhile:
		fmt.Fprintln(p.w, "do")
		p.printNested(s.Body)
		p.writeIndent()
		fmt.Fprint(p.w, "while (")
		p.PrintExpr(s.Cond)
		fmt.Fprintln(p.w, ");")
	case *For:
		if b, ok := s.Init.(*Block); ok {
			// several declarators: hoist them into an enclosing block
			fmt.Fprintln(p.w, "{")
			p.indent++
			for _, d := range b.Stmts {
				p.printStmt(d)
			}
			p.printStmt(&For{Cond: s.Cond, Post: s.Post, Body: s.Body})
			p.indent--
			p.writeIndent()
			fmt.Fprintln(p.w, "}")
			return
		}
		fmt.Fprint(p.w, "for (")
		switch init := s.Init.(type) {
		case nil:
		case *ExpressionStatement:
			p.PrintExpr(init.Expr)
		default:
			p.printDecl(init)
		}
		fmt.Fprint(p.w, "; ")
		if s.Cond != nil {
			p.PrintExpr(s.Cond)
		}
		fmt.Fprint(p.w, "; ")
		if s.Post != nil {
			p.PrintExpr(s.Post)
		}
		fmt.Fprintln(p.w, ")")
		p.printNested(s.Body)
	case *Break:
		fmt.Fprintln(p.w, "break;")
	case *Continue:
		fmt.Fprintln(p.w, "continue;")
	case *Switch:
		fmt.Fprint(p.w, "switch (")
		p.PrintExpr(s.Expr)
		fmt.Fprintln(p.w, ") {")
		for _, c := range s.Cases {
			p.writeIndent()
			if c.Value == nil {
				fmt.Fprintln(p.w, "default:")
			} else {
				fmt.Fprint(p.w, "case ")
				p.PrintExpr(c.Value)
				fmt.Fprintln(p.w, ":")
			}
			p.indent++
			for _, cs := range c.Stmts {
				p.printStmt(cs)
			}
			p.indent--
		}
		p.writeIndent()
		fmt.Fprintln(p.w, "}")
	case *Goto:
		fmt.Fprintf(p.w, "goto %s;\n", s.Label)
	case *Label:
		fmt.Fprintf(p.w, "%s:\n", s.Name)
		p.printStmt(s.Stmt)
	case *StaticAssert:
		fmt.Fprint(p.w, "_Static_assert(")
		p.PrintExpr(s.Cond)
		if s.Message != "" {
			fmt.Fprintf(p.w, ", %s", quote(s.Message, '"'))
		}
		fmt.Fprintln(p.w, ");")
	case *AtomicDeclaration:
		p.printWrapped("_Atomic", s.Decl)
	case *ThreadLocalDeclaration:
		p.printWrapped("_Thread_local", s.Decl)
	case *NoReturnDeclaration:
		p.printWrapped("_Noreturn", s.Decl)
	default:
		fmt.Fprintf(p.w, "/* unknown stmt %T */;\n", stmt)
	}
}

func (p *Printer) printWrapped(keyword string, decl Stmt) {
	fmt.Fprintf(p.w, "%s ", keyword)
	p.printDecl(decl)
	fmt.Fprintln(p.w, ";")
}

// printDecl prints a declaration without the trailing semicolon
func (p *Printer) printDecl(stmt Stmt) {
	switch d := stmt.(type) {
	case *VariableDeclaration:
		p.printStorage(d.Storage, d.Alignment)
		fmt.Fprint(p.w, Declare(d.Type, d.Name))
		if d.Init != nil {
			fmt.Fprint(p.w, " = ")
			p.PrintExpr(d.Init)
		}
	case *ArrayDeclaration:
		p.printStorage(d.Storage, d.Alignment)
		size := ""
		if d.Size != nil {
			size = ExprString(d.Size)
		}
		fmt.Fprint(p.w, Declare(d.Type, d.Name+"["+size+"]"))
		if d.Init != nil {
			fmt.Fprint(p.w, " = ")
			p.PrintExpr(d.Init)
		}
	default:
		fmt.Fprintf(p.w, "/* unknown decl %T */", stmt)
	}
}

func (p *Printer) printStorage(s Storage, align Expr) {
	if s != StorageNone {
		fmt.Fprintf(p.w, "%s ", s)
	}
	if align != nil {
		fmt.Fprint(p.w, "_Alignas(")
		p.PrintExpr(align)
		fmt.Fprint(p.w, ") ")
	}
}

// PrintExpr prints a single expression
func (p *Printer) PrintExpr(expr Expr) {
	switch e := expr.(type) {
	case *IntegerLiteral:
		if e.Text != "" {
			fmt.Fprint(p.w, e.Text)
		} else {
			fmt.Fprintf(p.w, "%d", e.Value)
		}
	case *FloatLiteral:
		if e.Text != "" {
			fmt.Fprint(p.w, e.Text)
		} else {
			fmt.Fprint(p.w, strconv.FormatFloat(e.Value, 'g', -1, 64))
		}
	case *CharLiteral:
		fmt.Fprint(p.w, e.Encoding.Prefix()+quote(string(e.Value), '\''))
	case *StringLiteral:
		fmt.Fprint(p.w, e.Encoding.Prefix()+quote(e.Value, '"'))
	case *ArrayLiteral:
		p.printInitList(e.Elements)
	case *DesignatedInit:
		if e.Index != nil {
			fmt.Fprint(p.w, "[")
			p.PrintExpr(e.Index)
			fmt.Fprint(p.w, "]")
		} else {
			fmt.Fprintf(p.w, ".%s", e.Field)
		}
		fmt.Fprint(p.w, " = ")
		p.PrintExpr(e.Value)
	case *Variable:
		fmt.Fprint(p.w, e.Name)
	case *UnaryOperation:
		if e.Op.IsPostfix() {
			p.printOperand(e.Operand, true)
			fmt.Fprint(p.w, e.Op.String())
		} else {
			fmt.Fprint(p.w, e.Op.String())
			p.printOperand(e.Operand, false)
		}
	case *BinaryOperation:
		fmt.Fprint(p.w, "(")
		p.PrintExpr(e.Left)
		fmt.Fprintf(p.w, " %s ", e.Op.String())
		p.PrintExpr(e.Right)
		fmt.Fprint(p.w, ")")
	case *Assignment:
		p.PrintExpr(e.Target)
		fmt.Fprintf(p.w, " %s ", e.Op.String())
		p.PrintExpr(e.Value)
	case *TernaryIf:
		fmt.Fprint(p.w, "(")
		p.PrintExpr(e.Cond)
		fmt.Fprint(p.w, " ? ")
		p.PrintExpr(e.Then)
		fmt.Fprint(p.w, " : ")
		p.PrintExpr(e.Else)
		fmt.Fprint(p.w, ")")
	case *Cast:
		fmt.Fprintf(p.w, "(%s)", e.Type)
		p.printOperand(e.Expr, false)
	case *SizeOf:
		fmt.Fprint(p.w, "sizeof ")
		p.printOperand(e.Expr, false)
	case *SizeOfType:
		fmt.Fprintf(p.w, "sizeof(%s)", e.Type)
	case *AlignOf:
		fmt.Fprintf(p.w, "_Alignof(%s)", e.Type)
	case *FunctionCall:
		fmt.Fprint(p.w, e.Name)
		fmt.Fprint(p.w, "(")
		for i, arg := range e.Args {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			p.PrintExpr(arg)
		}
		fmt.Fprint(p.w, ")")
	case *ArrayAccess:
		p.printOperand(e.Array, true)
		fmt.Fprint(p.w, "[")
		p.PrintExpr(e.Index)
		fmt.Fprint(p.w, "]")
	case *StructFieldAccess:
		p.printOperand(e.Object, true)
		fmt.Fprintf(p.w, ".%s", e.Field)
	case *PointerFieldAccess:
		p.printOperand(e.Pointer, true)
		fmt.Fprintf(p.w, "->%s", e.Field)
	case *CompoundLiteral:
		fmt.Fprintf(p.w, "(%s)", e.Type)
		p.printInitList(e.Elements)
	case *GenericSelection:
		fmt.Fprint(p.w, "_Generic(")
		p.PrintExpr(e.Control)
		for _, a := range e.Assocs {
			fmt.Fprintf(p.w, ", %s: ", a.Type)
			p.PrintExpr(a.Expr)
		}
		if e.Default != nil {
			fmt.Fprint(p.w, ", default: ")
			p.PrintExpr(e.Default)
		}
		fmt.Fprint(p.w, ")")
	default:
		fmt.Fprintf(p.w, "/* unknown expr %T */", expr)
	}
}

// printOperand prints the operand of a unary or postfix operator,
// parenthesized when it would otherwise bind differently on reparse
func (p *Printer) printOperand(e Expr, postfix bool) {
	paren := false
	switch e := e.(type) {
	case *Assignment:
		paren = true
	case *UnaryOperation:
		paren = !e.Op.IsPostfix()
	case *Cast, *SizeOf, *SizeOfType, *AlignOf:
		paren = postfix
	}
	if !paren {
		p.PrintExpr(e)
		return
	}
	fmt.Fprint(p.w, "(")
	p.PrintExpr(e)
	fmt.Fprint(p.w, ")")
}

func (p *Printer) printInitList(elems []Expr) {
	fmt.Fprint(p.w, "{")
	for i, el := range elems {
		if i > 0 {
			fmt.Fprint(p.w, ",")
		}
		fmt.Fprint(p.w, " ")
		p.PrintExpr(el)
	}
	if len(elems) > 0 {
		fmt.Fprint(p.w, " ")
	}
	fmt.Fprint(p.w, "}")
}

// quote spells s as a C literal delimited by q. Bytes outside printable
// ASCII use three-digit octal escapes so a following digit cannot extend
// them.
func quote(s string, q byte) string {
	var sb strings.Builder
	sb.WriteByte(q)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\\':
			sb.WriteString(`\\`)
		case c == q:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&sb, `\%03o`, c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}
