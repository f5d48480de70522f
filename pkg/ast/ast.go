// Package ast defines the abstract syntax tree produced by the parser and
// consumed by the code generator. Nodes are pointers and form a strict
// tree: every child has exactly one parent, so passes may rewrite
// subtrees in place.
package ast

// Node is the base interface for all AST nodes
type Node interface {
	implNode()
}

// Expr is the interface for all expression nodes
type Expr interface {
	Node
	implExpr()
}

// Stmt is the interface for all statement nodes
type Stmt interface {
	Node
	implStmt()
}

// Pos is a 1-based source position; the zero value means unknown
type Pos struct {
	Line   int
	Column int
}

// Program is one translation unit
type Program struct {
	Functions []*Function
	Structs   []*Struct
	Typedefs  []*Typedef
	Includes  []string
	Globals   []Stmt // file-scope declarations in source order
}

// Function is a function definition, or a prototype when IsExternal
type Function struct {
	Name       string
	ReturnType Type
	Params     []Param
	Body       []Stmt
	IsVariadic bool
	IsExternal bool // declared without a body
	IsStatic   bool
	IsInline   bool
	IsNoReturn bool
	Pos        Pos
}

// Param is a named function parameter; Name is empty in prototypes that
// omit it.
type Param struct {
	Name string
	Type Type
}

// Struct is a struct or union definition
type Struct struct {
	Name    string
	IsUnion bool
	Fields  []Field
}

// Field is a struct or union member
type Field struct {
	Name string
	Type Type
}

// Typedef records a typedef name and the type it denotes
type Typedef struct {
	Name string
	Type Type
}

// Storage is the storage class of a declaration
type Storage int

const (
	StorageNone Storage = iota
	StorageStatic
	StorageExtern
	StorageAuto
	StorageRegister
)

func (s Storage) String() string {
	switch s {
	case StorageStatic:
		return "static"
	case StorageExtern:
		return "extern"
	case StorageAuto:
		return "auto"
	case StorageRegister:
		return "register"
	default:
		return ""
	}
}

// Statements

// Return is a return statement; Expr is nil for a bare return
type Return struct {
	Expr Expr
	Pos  Pos
}

// VariableDeclaration declares a scalar (or pointer, struct, function)
// object. Type is nil only for declarations synthesized without one.
type VariableDeclaration struct {
	Name      string
	Type      Type
	Init      Expr
	IsGlobal  bool
	Storage   Storage
	Alignment Expr // _Alignas argument, if any
	Pos       Pos

	IsEnumerator bool // synthesized from an enum body
}

// ArrayDeclaration declares an array. Type is the element type; Size is
// nil for an unsized array.
type ArrayDeclaration struct {
	Name      string
	Type      Type
	Size      Expr
	Init      Expr
	IsGlobal  bool
	Storage   Storage
	Alignment Expr
	Pos       Pos
}

// Block is a compound statement
type Block struct {
	Stmts []Stmt
}

// If represents if (cond) then else
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

// While represents while (cond) body
type While struct {
	Cond Expr
	Body Stmt
}

// DoWhile represents do body while (cond);
type DoWhile struct {
	Body Stmt
	Cond Expr
}

// For represents for (init; cond; post) body. Init is an
// ExpressionStatement or a declaration; any part may be nil.
type For struct {
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
}

// Switch holds its cases in source order
type Switch struct {
	Expr  Expr
	Cases []*SwitchCase
}

// SwitchCase is one case label and the statements up to the next label.
// Value is nil for default.
type SwitchCase struct {
	Value Expr
	Stmts []Stmt
}

// Break represents break;
type Break struct {
	Pos Pos
}

// Continue represents continue;
type Continue struct {
	Pos Pos
}

// Goto represents goto label;
type Goto struct {
	Label string
}

// Label represents name: stmt
type Label struct {
	Name string
	Stmt Stmt
}

// ExpressionStatement is an expression evaluated for its effects
type ExpressionStatement struct {
	Expr Expr
}

// Empty is the null statement ';'
type Empty struct{}

// StaticAssert represents _Static_assert(cond, "message")
type StaticAssert struct {
	Cond    Expr
	Message string
}

// AtomicDeclaration wraps a declaration qualified with _Atomic
type AtomicDeclaration struct {
	Decl Stmt
}

// ThreadLocalDeclaration wraps a _Thread_local declaration
type ThreadLocalDeclaration struct {
	Decl Stmt
}

// NoReturnDeclaration wraps a block-scope _Noreturn function declaration
type NoReturnDeclaration struct {
	Decl Stmt
}

// Expressions

// IntegerLiteral keeps the source spelling (with any suffix) in Text
type IntegerLiteral struct {
	Value int64
	Text  string
}

// FloatLiteral represents a floating constant
type FloatLiteral struct {
	Value float64
	Text  string
}

// Encoding is the prefix of a character or string literal
type Encoding int

const (
	EncodingNone  Encoding = iota
	EncodingWide           // L
	EncodingUTF8           // u8
	EncodingUTF16          // u
	EncodingUTF32          // U
)

// Prefix returns the source prefix of e
func (e Encoding) Prefix() string {
	switch e {
	case EncodingWide:
		return "L"
	case EncodingUTF8:
		return "u8"
	case EncodingUTF16:
		return "u"
	case EncodingUTF32:
		return "U"
	default:
		return ""
	}
}

// CharLiteral is a character constant with its decoded value
type CharLiteral struct {
	Value    rune
	Encoding Encoding
}

// StringLiteral holds the decoded contents of (possibly concatenated)
// string literals
type StringLiteral struct {
	Value    string
	Encoding Encoding
}

// ArrayLiteral is a brace-enclosed initializer list
type ArrayLiteral struct {
	Elements []Expr
}

// DesignatedInit is a designated initializer element: .Field = Value or
// [Index] = Value
type DesignatedInit struct {
	Field string
	Index Expr
	Value Expr
}

// Variable is a reference to a named object or function
type Variable struct {
	Name string
	Pos  Pos
}

// BinaryOperation represents left op right
type BinaryOperation struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
}

// UnaryOperation represents a prefix or postfix operator application
type UnaryOperation struct {
	Op      UnaryOp
	Operand Expr
}

// Assignment represents target op value. Target is always a Variable,
// ArrayAccess, StructFieldAccess or PointerFieldAccess.
type Assignment struct {
	Target Expr
	Op     AssignOp
	Value  Expr
}

// TernaryIf represents cond ? then : else
type TernaryIf struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Cast represents (Type)Expr
type Cast struct {
	Type Type
	Expr Expr
}

// SizeOf represents sizeof applied to an expression
type SizeOf struct {
	Expr Expr
}

// SizeOfType represents sizeof(type)
type SizeOfType struct {
	Type Type
}

// AlignOf represents _Alignof(type)
type AlignOf struct {
	Type Type
}

// FunctionCall calls a function by name
type FunctionCall struct {
	Name string
	Args []Expr
	Pos  Pos
}

// ArrayAccess represents array[index]
type ArrayAccess struct {
	Array Expr
	Index Expr
}

// StructFieldAccess represents object.field
type StructFieldAccess struct {
	Object Expr
	Field  string
}

// PointerFieldAccess represents pointer->field
type PointerFieldAccess struct {
	Pointer Expr
	Field   string
}

// CompoundLiteral represents (Type){elements}
type CompoundLiteral struct {
	Type     Type
	Elements []Expr
}

// GenericAssoc is one type: expr association of a _Generic selection
type GenericAssoc struct {
	Type Type
	Expr Expr
}

// GenericSelection represents _Generic(control, assocs..., default: expr)
type GenericSelection struct {
	Control Expr
	Assocs  []GenericAssoc
	Default Expr // nil when there is no default association
}

// Marker methods for interface implementation
func (*Return) implNode()                 {}
func (*VariableDeclaration) implNode()    {}
func (*ArrayDeclaration) implNode()       {}
func (*Block) implNode()                  {}
func (*If) implNode()                     {}
func (*While) implNode()                  {}
func (*DoWhile) implNode()                {}
func (*For) implNode()                    {}
func (*Switch) implNode()                 {}
func (*Break) implNode()                  {}
func (*Continue) implNode()               {}
func (*Goto) implNode()                   {}
func (*Label) implNode()                  {}
func (*ExpressionStatement) implNode()    {}
func (*Empty) implNode()                  {}
func (*StaticAssert) implNode()           {}
func (*AtomicDeclaration) implNode()      {}
func (*ThreadLocalDeclaration) implNode() {}
func (*NoReturnDeclaration) implNode()    {}

func (*Return) implStmt()                 {}
func (*VariableDeclaration) implStmt()    {}
func (*ArrayDeclaration) implStmt()       {}
func (*Block) implStmt()                  {}
func (*If) implStmt()                     {}
func (*While) implStmt()                  {}
func (*DoWhile) implStmt()                {}
func (*For) implStmt()                    {}
func (*Switch) implStmt()                 {}
func (*Break) implStmt()                  {}
func (*Continue) implStmt()               {}
func (*Goto) implStmt()                   {}
func (*Label) implStmt()                  {}
func (*ExpressionStatement) implStmt()    {}
func (*Empty) implStmt()                  {}
func (*StaticAssert) implStmt()           {}
func (*AtomicDeclaration) implStmt()      {}
func (*ThreadLocalDeclaration) implStmt() {}
func (*NoReturnDeclaration) implStmt()    {}

func (*IntegerLiteral) implNode()     {}
func (*FloatLiteral) implNode()       {}
func (*CharLiteral) implNode()        {}
func (*StringLiteral) implNode()      {}
func (*ArrayLiteral) implNode()       {}
func (*DesignatedInit) implNode()     {}
func (*Variable) implNode()           {}
func (*BinaryOperation) implNode()    {}
func (*UnaryOperation) implNode()     {}
func (*Assignment) implNode()         {}
func (*TernaryIf) implNode()          {}
func (*Cast) implNode()               {}
func (*SizeOf) implNode()             {}
func (*SizeOfType) implNode()         {}
func (*AlignOf) implNode()            {}
func (*FunctionCall) implNode()       {}
func (*ArrayAccess) implNode()        {}
func (*StructFieldAccess) implNode()  {}
func (*PointerFieldAccess) implNode() {}
func (*CompoundLiteral) implNode()    {}
func (*GenericSelection) implNode()   {}

func (*IntegerLiteral) implExpr()     {}
func (*FloatLiteral) implExpr()       {}
func (*CharLiteral) implExpr()        {}
func (*StringLiteral) implExpr()      {}
func (*ArrayLiteral) implExpr()       {}
func (*DesignatedInit) implExpr()     {}
func (*Variable) implExpr()           {}
func (*BinaryOperation) implExpr()    {}
func (*UnaryOperation) implExpr()     {}
func (*Assignment) implExpr()         {}
func (*TernaryIf) implExpr()          {}
func (*Cast) implExpr()               {}
func (*SizeOf) implExpr()             {}
func (*SizeOfType) implExpr()         {}
func (*AlignOf) implExpr()            {}
func (*FunctionCall) implExpr()       {}
func (*ArrayAccess) implExpr()        {}
func (*StructFieldAccess) implExpr()  {}
func (*PointerFieldAccess) implExpr() {}
func (*CompoundLiteral) implExpr()    {}
func (*GenericSelection) implExpr()   {}

// IsAssignable reports whether e may appear as an assignment target
func IsAssignable(e Expr) bool {
	switch e.(type) {
	case *Variable, *ArrayAccess, *StructFieldAccess, *PointerFieldAccess:
		return true
	}
	return false
}

// FindStruct returns the struct or union definition named name
func (p *Program) FindStruct(name string, union bool) *Struct {
	for _, s := range p.Structs {
		if s.Name == name && s.IsUnion == union {
			return s
		}
	}
	return nil
}

// FindFunction returns the definition of name, falling back to its
// prototype
func (p *Program) FindFunction(name string) *Function {
	var proto *Function
	for _, f := range p.Functions {
		if f.Name != name {
			continue
		}
		if !f.IsExternal {
			return f
		}
		if proto == nil {
			proto = f
		}
	}
	return proto
}
