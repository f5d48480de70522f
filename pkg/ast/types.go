package ast

import (
	"fmt"
	"strings"
)

// Type is a C type. Struct, union, enum and typedef names are kept as
// unresolved references.
type Type interface {
	implType()
	String() string
}

// Kind is a primitive scalar kind
type Kind int

const (
	Void Kind = iota
	Bool
	Char
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Float
	Double
	LongDouble
	Complex
)

var kindNames = []string{
	"void", "_Bool", "char", "signed char", "unsigned char", "short", "unsigned short",
	"int", "unsigned int", "long", "unsigned long", "long long", "unsigned long long",
	"float", "double", "long double", "double _Complex",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "?"
}

// IsInteger reports whether k is an integer kind (including char and _Bool)
func (k Kind) IsInteger() bool {
	return k >= Bool && k <= ULongLong
}

// IsFloating reports whether k is a real or complex floating kind
func (k Kind) IsFloating() bool {
	return k >= Float
}

// IsUnsigned reports whether k is an unsigned integer kind
func (k Kind) IsUnsigned() bool {
	switch k {
	case Bool, UChar, UShort, UInt, ULong, ULongLong:
		return true
	}
	return false
}

// Primitive is a scalar base type
type Primitive struct {
	Kind Kind
}

// Pointer is a pointer to Elem
type Pointer struct {
	Elem Type
}

// Array is an array of Elem. Size is nil for unsized and variable-length
// arrays.
type Array struct {
	Elem Type
	Size *int
}

// TagKind distinguishes struct, union and enum references
type TagKind int

const (
	TagStruct TagKind = iota
	TagUnion
	TagEnum
)

func (k TagKind) String() string {
	switch k {
	case TagUnion:
		return "union"
	case TagEnum:
		return "enum"
	default:
		return "struct"
	}
}

// Tagged references a struct, union or enum by name
type Tagged struct {
	Kind TagKind
	Name string
}

// FuncType is a function type
type FuncType struct {
	Return     Type
	Params     []Param
	IsVariadic bool
}

// Qualifier is a type qualifier
type Qualifier int

const (
	Const Qualifier = iota
	Volatile
	Restrict
	Atomic
)

func (q Qualifier) String() string {
	switch q {
	case Volatile:
		return "volatile"
	case Restrict:
		return "restrict"
	case Atomic:
		return "_Atomic"
	default:
		return "const"
	}
}

// Qualified applies a qualifier to Elem
type Qualified struct {
	Qual Qualifier
	Elem Type
}

// TypeDef references a typedef name
type TypeDef struct {
	Name string
}

func (*Primitive) implType() {}
func (*Pointer) implType()   {}
func (*Array) implType()     {}
func (*Tagged) implType()    {}
func (*FuncType) implType()  {}
func (*Qualified) implType() {}
func (*TypeDef) implType()   {}

func (t *Primitive) String() string { return Declare(t, "") }
func (t *Pointer) String() string   { return Declare(t, "") }
func (t *Array) String() string     { return Declare(t, "") }
func (t *Tagged) String() string    { return Declare(t, "") }
func (t *FuncType) String() string  { return Declare(t, "") }
func (t *Qualified) String() string { return Declare(t, "") }
func (t *TypeDef) String() string   { return Declare(t, "") }

// Prim returns the primitive type of kind k
func Prim(k Kind) *Primitive {
	return &Primitive{Kind: k}
}

// PointerTo returns a pointer to elem
func PointerTo(elem Type) *Pointer {
	return &Pointer{Elem: elem}
}

// ArrayOf returns an array of n elems; n < 0 means unsized
func ArrayOf(elem Type, n int) *Array {
	if n < 0 {
		return &Array{Elem: elem}
	}
	return &Array{Elem: elem, Size: &n}
}

// Declare spells a declaration of name with type t in C declarator
// syntax, e.g. "int (*name)[4]". An empty name yields the abstract type.
func Declare(t Type, name string) string {
	return strings.TrimSpace(declare(t, name))
}

func declare(t Type, inner string) string {
	switch t := t.(type) {
	case nil:
		return join("int", inner)
	case *Primitive:
		return join(t.Kind.String(), inner)
	case *Tagged:
		return join(t.Kind.String()+" "+t.Name, inner)
	case *TypeDef:
		return join(t.Name, inner)
	case *Pointer:
		return declare(t.Elem, derivedPointer(t.Elem, "*"+inner))
	case *Qualified:
		if p, ok := t.Elem.(*Pointer); ok {
			return declare(p.Elem, derivedPointer(p.Elem, "*"+t.Qual.String()+sep(inner)))
		}
		return t.Qual.String() + " " + declare(t.Elem, inner)
	case *Array:
		size := ""
		if t.Size != nil {
			size = fmt.Sprintf("%d", *t.Size)
		}
		return declare(t.Elem, inner+"["+size+"]")
	case *FuncType:
		return declare(t.Return, inner+"("+paramList(t.Params, t.IsVariadic)+")")
	}
	return join("?", inner)
}

// derivedPointer parenthesizes a pointer declarator whose target binds
// tighter than '*'
func derivedPointer(elem Type, decl string) string {
	switch elem.(type) {
	case *Array, *FuncType:
		return "(" + decl + ")"
	}
	return decl
}

func sep(inner string) string {
	if inner == "" || strings.HasPrefix(inner, "[") || strings.HasPrefix(inner, "(") {
		return inner
	}
	return " " + inner
}

func join(base, inner string) string {
	if inner == "" {
		return base
	}
	return base + " " + inner
}

func paramList(params []Param, variadic bool) string {
	parts := make([]string, 0, len(params)+1)
	for _, p := range params {
		parts = append(parts, Declare(p.Type, p.Name))
	}
	if variadic {
		parts = append(parts, "...")
	}
	if len(parts) == 0 {
		return "void"
	}
	return strings.Join(parts, ", ")
}

// Unqualified strips qualifier wrappers from t
func Unqualified(t Type) Type {
	for {
		q, ok := t.(*Qualified)
		if !ok {
			return t
		}
		t = q.Elem
	}
}

// IsFloating reports whether t is a floating scalar type
func IsFloating(t Type) bool {
	p, ok := Unqualified(t).(*Primitive)
	return ok && p.Kind.IsFloating()
}

// IsPointer reports whether t is a pointer (or decays to one as an array)
func IsPointer(t Type) bool {
	switch Unqualified(t).(type) {
	case *Pointer, *Array:
		return true
	}
	return false
}

// TypeSize returns the LP64 size of t in bytes. Struct and union references
// and typedef names are unresolved here and report 0, as do unsized
// arrays and function types.
func TypeSize(t Type) int {
	switch t := Unqualified(t).(type) {
	case *Primitive:
		return primitiveSize(t.Kind)
	case *Pointer:
		return 8
	case *Array:
		if t.Size == nil {
			return 0
		}
		return *t.Size * TypeSize(t.Elem)
	case *Tagged:
		if t.Kind == TagEnum {
			return 4
		}
	}
	return 0
}

// TypeAlign returns the LP64 alignment of t in bytes, 1 when unknown
func TypeAlign(t Type) int {
	switch t := Unqualified(t).(type) {
	case *Primitive:
		if t.Kind == Complex {
			return 8
		}
		return primitiveSize(t.Kind)
	case *Pointer:
		return 8
	case *Array:
		return TypeAlign(t.Elem)
	case *Tagged:
		if t.Kind == TagEnum {
			return 4
		}
	}
	return 1
}

func primitiveSize(k Kind) int {
	switch k {
	case Void, Bool, Char, SChar, UChar:
		return 1
	case Short, UShort:
		return 2
	case Int, UInt, Float:
		return 4
	case LongDouble, Complex:
		return 16
	default:
		return 8
	}
}
