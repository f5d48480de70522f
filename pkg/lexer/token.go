package lexer

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenIdent          // main, foo, x
	TokenIntLit         // 42, 0x1F, 017, 0b101, 10UL
	TokenFloatLit       // 3.14, 1e9, 2.5f
	TokenCharLit        // 'a'
	TokenWideCharLit    // L'a'
	TokenUTF16CharLit   // u'a'
	TokenUTF32CharLit   // U'a'
	TokenStringLit      // "hello"
	TokenWideStringLit  // L"hello"
	TokenUTF8StringLit  // u8"hello"
	TokenUTF16StringLit // u"hello"
	TokenUTF32StringLit // U"hello"
	TokenHeaderName     // <stdio.h> after #include

	// Type keywords
	TokenVoid      // void
	TokenChar      // char
	TokenShort     // short
	TokenInt       // int
	TokenLong      // long
	TokenFloat     // float
	TokenDouble    // double
	TokenSigned    // signed
	TokenUnsigned  // unsigned
	TokenBool      // _Bool
	TokenComplex   // _Complex
	TokenImaginary // _Imaginary
	TokenStruct    // struct
	TokenUnion     // union
	TokenEnum      // enum

	// Qualifiers, storage classes and function specifiers
	TokenConst       // const
	TokenVolatile    // volatile
	TokenRestrict    // restrict
	TokenAtomic      // _Atomic
	TokenStatic      // static
	TokenExtern      // extern
	TokenAuto        // auto
	TokenRegister    // register
	TokenTypedef     // typedef
	TokenThreadLocal // _Thread_local
	TokenInline      // inline
	TokenNoreturn    // _Noreturn
	TokenAlignas     // _Alignas

	// Statement and operator keywords
	TokenReturn       // return
	TokenIf           // if
	TokenElse         // else
	TokenWhile        // while
	TokenDo           // do
	TokenFor          // for
	TokenBreak        // break
	TokenContinue     // continue
	TokenSwitch       // switch
	TokenCase         // case
	TokenDefault      // default
	TokenGoto         // goto
	TokenSizeof       // sizeof
	TokenAlignof      // _Alignof
	TokenGeneric      // _Generic
	TokenStaticAssert // _Static_assert

	// Operators
	TokenPlus      // +
	TokenMinus     // -
	TokenStar      // *
	TokenSlash     // /
	TokenPercent   // %
	TokenAssign    // =
	TokenEq        // ==
	TokenNe        // !=
	TokenLt        // <
	TokenLe        // <=
	TokenGt        // >
	TokenGe        // >=
	TokenAnd       // &&
	TokenOr        // ||
	TokenNot       // !
	TokenAmpersand // &
	TokenPipe      // |
	TokenCaret     // ^
	TokenTilde     // ~
	TokenShl       // <<
	TokenShr       // >>
	TokenQuestion  // ?
	TokenColon     // :

	// Compound assignment operators
	TokenPlusAssign    // +=
	TokenMinusAssign   // -=
	TokenStarAssign    // *=
	TokenSlashAssign   // /=
	TokenPercentAssign // %=
	TokenAndAssign     // &=
	TokenOrAssign      // |=
	TokenXorAssign     // ^=
	TokenShlAssign     // <<=
	TokenShrAssign     // >>=

	// Increment/decrement
	TokenIncrement // ++
	TokenDecrement // --

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenSemicolon // ;
	TokenComma     // ,
	TokenDot       // .
	TokenArrow     // ->
	TokenEllipsis  // ...
	TokenHash      // #
	TokenHashHash  // ##

	// Directive keywords, only produced directly after a line-leading '#'
	TokenPPInclude // include
	TokenPPDefine  // define
	TokenPPUndef   // undef
	TokenPPIf      // if
	TokenPPIfdef   // ifdef
	TokenPPIfndef  // ifndef
	TokenPPElif    // elif
	TokenPPElse    // else
	TokenPPEndif   // endif
	TokenPPPragma  // pragma
	TokenPPError   // error
	TokenPPWarning // warning
	TokenPPLine    // line
	TokenPPUnknown // any other directive name
)

var tokenNames = map[TokenType]string{
	TokenEOF:            "EOF",
	TokenError:          "ERROR",
	TokenIdent:          "IDENT",
	TokenIntLit:         "INT",
	TokenFloatLit:       "FLOAT",
	TokenCharLit:        "CHAR",
	TokenWideCharLit:    "WCHAR",
	TokenUTF16CharLit:   "CHAR16",
	TokenUTF32CharLit:   "CHAR32",
	TokenStringLit:      "STRING",
	TokenWideStringLit:  "WSTRING",
	TokenUTF8StringLit:  "STRING8",
	TokenUTF16StringLit: "STRING16",
	TokenUTF32StringLit: "STRING32",
	TokenHeaderName:     "HEADER",
	TokenVoid:           "void",
	TokenChar:           "char",
	TokenShort:          "short",
	TokenInt:            "int",
	TokenLong:           "long",
	TokenFloat:          "float",
	TokenDouble:         "double",
	TokenSigned:         "signed",
	TokenUnsigned:       "unsigned",
	TokenBool:           "_Bool",
	TokenComplex:        "_Complex",
	TokenImaginary:      "_Imaginary",
	TokenStruct:         "struct",
	TokenUnion:          "union",
	TokenEnum:           "enum",
	TokenConst:          "const",
	TokenVolatile:       "volatile",
	TokenRestrict:       "restrict",
	TokenAtomic:         "_Atomic",
	TokenStatic:         "static",
	TokenExtern:         "extern",
	TokenAuto:           "auto",
	TokenRegister:       "register",
	TokenTypedef:        "typedef",
	TokenThreadLocal:    "_Thread_local",
	TokenInline:         "inline",
	TokenNoreturn:       "_Noreturn",
	TokenAlignas:        "_Alignas",
	TokenReturn:         "return",
	TokenIf:             "if",
	TokenElse:           "else",
	TokenWhile:          "while",
	TokenDo:             "do",
	TokenFor:            "for",
	TokenBreak:          "break",
	TokenContinue:       "continue",
	TokenSwitch:         "switch",
	TokenCase:           "case",
	TokenDefault:        "default",
	TokenGoto:           "goto",
	TokenSizeof:         "sizeof",
	TokenAlignof:        "_Alignof",
	TokenGeneric:        "_Generic",
	TokenStaticAssert:   "_Static_assert",
	TokenPlus:           "+",
	TokenMinus:          "-",
	TokenStar:           "*",
	TokenSlash:          "/",
	TokenPercent:        "%",
	TokenAssign:         "=",
	TokenEq:             "==",
	TokenNe:             "!=",
	TokenLt:             "<",
	TokenLe:             "<=",
	TokenGt:             ">",
	TokenGe:             ">=",
	TokenAnd:            "&&",
	TokenOr:             "||",
	TokenNot:            "!",
	TokenAmpersand:      "&",
	TokenPipe:           "|",
	TokenCaret:          "^",
	TokenTilde:          "~",
	TokenShl:            "<<",
	TokenShr:            ">>",
	TokenQuestion:       "?",
	TokenColon:          ":",
	TokenPlusAssign:     "+=",
	TokenMinusAssign:    "-=",
	TokenStarAssign:     "*=",
	TokenSlashAssign:    "/=",
	TokenPercentAssign:  "%=",
	TokenAndAssign:      "&=",
	TokenOrAssign:       "|=",
	TokenXorAssign:      "^=",
	TokenShlAssign:      "<<=",
	TokenShrAssign:      ">>=",
	TokenIncrement:      "++",
	TokenDecrement:      "--",
	TokenLParen:         "(",
	TokenRParen:         ")",
	TokenLBrace:         "{",
	TokenRBrace:         "}",
	TokenLBracket:       "[",
	TokenRBracket:       "]",
	TokenSemicolon:      ";",
	TokenComma:          ",",
	TokenDot:            ".",
	TokenArrow:          "->",
	TokenEllipsis:       "...",
	TokenHash:           "#",
	TokenHashHash:       "##",
	TokenPPInclude:      "#include",
	TokenPPDefine:       "#define",
	TokenPPUndef:        "#undef",
	TokenPPIf:           "#if",
	TokenPPIfdef:        "#ifdef",
	TokenPPIfndef:       "#ifndef",
	TokenPPElif:         "#elif",
	TokenPPElse:         "#else",
	TokenPPEndif:        "#endif",
	TokenPPPragma:       "#pragma",
	TokenPPError:        "#error",
	TokenPPWarning:      "#warning",
	TokenPPLine:         "#line",
	TokenPPUnknown:      "#unknown",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsStringLiteral reports whether t is any of the string literal kinds
func (t TokenType) IsStringLiteral() bool {
	switch t {
	case TokenStringLit, TokenWideStringLit, TokenUTF8StringLit, TokenUTF16StringLit, TokenUTF32StringLit:
		return true
	}
	return false
}

// IsCharLiteral reports whether t is any of the character literal kinds
func (t TokenType) IsCharLiteral() bool {
	switch t {
	case TokenCharLit, TokenWideCharLit, TokenUTF16CharLit, TokenUTF32CharLit:
		return true
	}
	return false
}

// IsDirective reports whether t is a directive keyword
func (t TokenType) IsDirective() bool {
	return t >= TokenPPInclude && t <= TokenPPUnknown
}

// Token represents a lexical token.
// Lexeme is the exact source text; Literal carries the decoded payload
// (escape-processed text for strings and chars) when HasLiteral is set.
type Token struct {
	Type       TokenType
	Lexeme     string
	Line       int
	Column     int
	Literal    string
	HasLiteral bool
}

// keywords maps keyword strings to token types
var keywords = map[string]TokenType{
	"void":           TokenVoid,
	"char":           TokenChar,
	"short":          TokenShort,
	"int":            TokenInt,
	"long":           TokenLong,
	"float":          TokenFloat,
	"double":         TokenDouble,
	"signed":         TokenSigned,
	"unsigned":       TokenUnsigned,
	"_Bool":          TokenBool,
	"_Complex":       TokenComplex,
	"_Imaginary":     TokenImaginary,
	"struct":         TokenStruct,
	"union":          TokenUnion,
	"enum":           TokenEnum,
	"const":          TokenConst,
	"volatile":       TokenVolatile,
	"restrict":       TokenRestrict,
	"_Atomic":        TokenAtomic,
	"static":         TokenStatic,
	"extern":         TokenExtern,
	"auto":           TokenAuto,
	"register":       TokenRegister,
	"typedef":        TokenTypedef,
	"_Thread_local":  TokenThreadLocal,
	"inline":         TokenInline,
	"_Noreturn":      TokenNoreturn,
	"_Alignas":       TokenAlignas,
	"return":         TokenReturn,
	"if":             TokenIf,
	"else":           TokenElse,
	"while":          TokenWhile,
	"do":             TokenDo,
	"for":            TokenFor,
	"break":          TokenBreak,
	"continue":       TokenContinue,
	"switch":         TokenSwitch,
	"case":           TokenCase,
	"default":        TokenDefault,
	"goto":           TokenGoto,
	"sizeof":         TokenSizeof,
	"_Alignof":       TokenAlignof,
	"_Generic":       TokenGeneric,
	"_Static_assert": TokenStaticAssert,
}

// directives maps directive names (the word after a line-leading '#')
var directives = map[string]TokenType{
	"include": TokenPPInclude,
	"define":  TokenPPDefine,
	"undef":   TokenPPUndef,
	"if":      TokenPPIf,
	"ifdef":   TokenPPIfdef,
	"ifndef":  TokenPPIfndef,
	"elif":    TokenPPElif,
	"else":    TokenPPElse,
	"endif":   TokenPPEndif,
	"pragma":  TokenPPPragma,
	"error":   TokenPPError,
	"warning": TokenPPWarning,
	"line":    TokenPPLine,
}

// LookupIdent returns the token type for an identifier (keyword or IDENT)
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
