package parser

import (
	"fmt"

	"github.com/raymyers/stackcc/pkg/ast"
	"github.com/raymyers/stackcc/pkg/diag"
	"github.com/raymyers/stackcc/pkg/lexer"
)

// specs holds parsed declaration specifiers
type specs struct {
	tok         lexer.Token
	base        ast.Type
	storage     ast.Storage
	typedef     bool
	inline      bool
	noreturn    bool
	threadLocal bool
	atomic      bool
	align       ast.Expr
}

// startsType reports whether tok can begin a type name
func (p *Parser) startsType(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.TokenVoid, lexer.TokenChar, lexer.TokenShort, lexer.TokenInt,
		lexer.TokenLong, lexer.TokenFloat, lexer.TokenDouble, lexer.TokenSigned,
		lexer.TokenUnsigned, lexer.TokenBool, lexer.TokenComplex,
		lexer.TokenImaginary, lexer.TokenStruct, lexer.TokenUnion,
		lexer.TokenEnum, lexer.TokenConst, lexer.TokenVolatile,
		lexer.TokenRestrict, lexer.TokenAtomic:
		return true
	case lexer.TokenIdent:
		return p.typedefs[tok.Lexeme]
	}
	return false
}

// startsDeclaration reports whether tok can begin a declaration
func (p *Parser) startsDeclaration(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.TokenStatic, lexer.TokenExtern, lexer.TokenAuto,
		lexer.TokenRegister, lexer.TokenTypedef, lexer.TokenThreadLocal,
		lexer.TokenInline, lexer.TokenNoreturn, lexer.TokenAlignas:
		return true
	}
	return p.startsType(tok)
}

// declSpecs parses declaration specifiers in any order and combines the
// basic type keywords into one primitive kind.
func (p *Parser) declSpecs() *specs {
	s := &specs{tok: p.peek()}
	var (
		kind             lexer.TokenType // void, char, int, float, double or _Bool
		kindTok          lexer.Token
		signed, unsigned bool
		short, long      int
		complex          bool
		quals            []ast.Qualifier
	)
	seen := func() bool {
		return s.base != nil || kind != 0 || signed || unsigned || short > 0 || long > 0 || complex
	}

loop:
	for {
		tok := p.peek()
		switch tok.Type {
		case lexer.TokenConst:
			quals = append(quals, ast.Const)
		case lexer.TokenVolatile:
			quals = append(quals, ast.Volatile)
		case lexer.TokenRestrict:
			quals = append(quals, ast.Restrict)
		case lexer.TokenAtomic:
			p.advance()
			if p.match(lexer.TokenLParen) {
				t := p.typeName()
				p.expect(lexer.TokenRParen, "after _Atomic type")
				s.base = &ast.Qualified{Qual: ast.Atomic, Elem: t}
			} else {
				s.atomic = true
			}
			continue
		case lexer.TokenStatic:
			p.storage(s, ast.StorageStatic)
		case lexer.TokenExtern:
			p.storage(s, ast.StorageExtern)
		case lexer.TokenAuto:
			p.storage(s, ast.StorageAuto)
		case lexer.TokenRegister:
			p.storage(s, ast.StorageRegister)
		case lexer.TokenTypedef:
			s.typedef = true
		case lexer.TokenInline:
			s.inline = true
		case lexer.TokenNoreturn:
			s.noreturn = true
		case lexer.TokenThreadLocal:
			s.threadLocal = true
		case lexer.TokenAlignas:
			p.advance()
			p.expect(lexer.TokenLParen, "after _Alignas")
			if p.startsType(p.peek()) {
				s.align = &ast.AlignOf{Type: p.typeName()}
			} else {
				s.align = p.conditional()
			}
			p.expect(lexer.TokenRParen, "after alignment")
			continue
		case lexer.TokenVoid, lexer.TokenChar, lexer.TokenInt, lexer.TokenFloat,
			lexer.TokenDouble, lexer.TokenBool:
			if kind != 0 || s.base != nil {
				p.fail(tok, diag.InvalidType, "two or more data types in declaration specifiers")
			}
			kind, kindTok = tok.Type, tok
		case lexer.TokenShort:
			short++
		case lexer.TokenLong:
			long++
			if long > 2 {
				p.fail(tok, diag.InvalidType, "'long long long' is too long")
			}
		case lexer.TokenSigned:
			signed = true
		case lexer.TokenUnsigned:
			unsigned = true
		case lexer.TokenComplex, lexer.TokenImaginary:
			complex = true
		case lexer.TokenStruct, lexer.TokenUnion:
			if seen() {
				p.fail(tok, diag.InvalidType, "two or more data types in declaration specifiers")
			}
			s.base = p.structSpecifier()
			continue
		case lexer.TokenEnum:
			if seen() {
				p.fail(tok, diag.InvalidType, "two or more data types in declaration specifiers")
			}
			s.base = p.enumSpecifier()
			continue
		case lexer.TokenIdent:
			if !p.typedefs[tok.Lexeme] || seen() {
				break loop
			}
			s.base = &ast.TypeDef{Name: tok.Lexeme}
		default:
			break loop
		}
		p.advance()
	}

	if s.base != nil {
		if kind != 0 || signed || unsigned || short > 0 || long > 0 || complex {
			p.fail(s.tok, diag.InvalidType, "invalid combination of type specifiers")
		}
	} else {
		if !seen() {
			p.unexpected("type specifier", false)
		}
		k, ok := primitiveKind(kind, signed, unsigned, short, long, complex)
		if !ok {
			at := kindTok
			if at.Type == 0 {
				at = s.tok
			}
			p.fail(at, diag.InvalidType, "invalid combination of type specifiers")
		}
		s.base = ast.Prim(k)
	}
	for _, q := range quals {
		s.base = &ast.Qualified{Qual: q, Elem: s.base}
	}
	return s
}

func (p *Parser) storage(s *specs, st ast.Storage) {
	if s.storage != ast.StorageNone && s.storage != st {
		p.fail(p.peek(), diag.InvalidDeclaration, "multiple storage classes in declaration specifiers")
	}
	s.storage = st
}

// primitiveKind maps a combination of basic type keywords to its kind
func primitiveKind(kind lexer.TokenType, signed, unsigned bool, short, long int, complex bool) (ast.Kind, bool) {
	if signed && unsigned || short > 0 && long > 0 {
		return 0, false
	}
	modified := signed || unsigned || short > 0 || long > 0
	switch kind {
	case lexer.TokenVoid:
		return ast.Void, !modified && !complex
	case lexer.TokenBool:
		return ast.Bool, !modified && !complex
	case lexer.TokenChar:
		if short > 0 || long > 0 || complex {
			return 0, false
		}
		switch {
		case signed:
			return ast.SChar, true
		case unsigned:
			return ast.UChar, true
		}
		return ast.Char, true
	case lexer.TokenFloat:
		if complex {
			return ast.Complex, !modified
		}
		return ast.Float, !modified
	case lexer.TokenDouble:
		if signed || unsigned || short > 0 || long > 1 {
			return 0, false
		}
		if complex {
			return ast.Complex, true
		}
		if long == 1 {
			return ast.LongDouble, true
		}
		return ast.Double, true
	}
	if complex {
		return ast.Complex, !modified
	}
	switch {
	case short > 0 && unsigned:
		return ast.UShort, true
	case short > 0:
		return ast.Short, true
	case long == 1 && unsigned:
		return ast.ULong, true
	case long == 1:
		return ast.Long, true
	case long == 2 && unsigned:
		return ast.ULongLong, true
	case long == 2:
		return ast.LongLong, true
	case unsigned:
		return ast.UInt, true
	}
	return ast.Int, true
}

// structSpecifier parses a struct or union specifier. A definition is
// recorded on the program; anonymous ones get a synthesized tag.
func (p *Parser) structSpecifier() ast.Type {
	kw := p.advance()
	tag := ast.TagStruct
	if kw.Type == lexer.TokenUnion {
		tag = ast.TagUnion
	}
	name := ""
	if p.check(lexer.TokenIdent) {
		name = p.advance().Lexeme
	}
	if !p.check(lexer.TokenLBrace) {
		if name == "" {
			p.unexpected(fmt.Sprintf("%s tag or '{'", kw.Lexeme), false)
		}
		return &ast.Tagged{Kind: tag, Name: name}
	}
	if name == "" {
		p.anon++
		name = fmt.Sprintf("__anon%d", p.anon)
	}
	p.advance()

	def := &ast.Struct{Name: name, IsUnion: tag == ast.TagUnion}
	for !p.check(lexer.TokenRBrace) {
		if p.check(lexer.TokenStaticAssert) {
			p.staticAssert()
			continue
		}
		fs := p.declSpecs()
		if p.match(lexer.TokenSemicolon) {
			// anonymous member struct or union
			def.Fields = append(def.Fields, ast.Field{Type: fs.base})
			continue
		}
		for {
			d := p.declarator(fs.base, true)
			if p.match(lexer.TokenColon) {
				p.conditional() // bit-field width
			}
			def.Fields = append(def.Fields, ast.Field{Name: d.name, Type: d.typ})
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		p.expect(lexer.TokenSemicolon, "after struct member")
	}
	p.expect(lexer.TokenRBrace, "to close "+kw.Lexeme)
	p.addStruct(def)
	return &ast.Tagged{Kind: tag, Name: name}
}

// addStruct records def, completing an earlier definition with the same
// tag if there is one.
func (p *Parser) addStruct(def *ast.Struct) {
	if old := p.prog.FindStruct(def.Name, def.IsUnion); old != nil {
		old.Fields = def.Fields
		return
	}
	p.prog.Structs = append(p.prog.Structs, def)
}

// enumSpecifier parses an enum specifier. Each enumerator becomes a
// constant int declaration queued on p.pending.
func (p *Parser) enumSpecifier() ast.Type {
	p.advance()
	name := ""
	if p.check(lexer.TokenIdent) {
		name = p.advance().Lexeme
	}
	if !p.match(lexer.TokenLBrace) {
		if name == "" {
			p.unexpected("enum tag or '{'", false)
		}
		return &ast.Tagged{Kind: ast.TagEnum, Name: name}
	}

	var next int64
	for !p.check(lexer.TokenRBrace) {
		tok := p.expectIdent("in enumerator list")
		if p.match(lexer.TokenAssign) {
			e := p.conditional()
			v, ok := ast.EvalConst(e, p.constant)
			if !ok {
				p.fail(tok, diag.InvalidDeclaration, "value of enumerator '%s' is not an integer constant", tok.Lexeme)
			}
			next = v
		}
		p.pending = append(p.pending, &ast.VariableDeclaration{
			Name: tok.Lexeme,
			Type: &ast.Qualified{Qual: ast.Const, Elem: ast.Prim(ast.Int)},
			Init: &ast.IntegerLiteral{Value: next},
			Pos:  pos(tok),

			IsEnumerator: true,
		})
		next++
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRBrace, "to close enum")
	return &ast.Tagged{Kind: ast.TagEnum, Name: name}
}

// constant resolves enumerators declared so far
func (p *Parser) constant(name string) (int64, bool) {
	find := func(stmts []ast.Stmt) (int64, bool) {
		for i := len(stmts) - 1; i >= 0; i-- {
			if v, ok := ast.ConstValue(stmts[i], name); ok {
				return v, true
			}
		}
		return 0, false
	}
	if v, ok := find(p.pending); ok {
		return v, true
	}
	return find(p.prog.Globals)
}

// takePending returns queued enumerator declarations
func (p *Parser) takePending(global bool) []ast.Stmt {
	out := p.pending
	p.pending = nil
	for _, s := range out {
		s.(*ast.VariableDeclaration).IsGlobal = global
	}
	return out
}

// decl is a parsed declarator applied to its base type
type decl struct {
	name string
	pos  ast.Pos
	typ  ast.Type
}

// typeName parses a type name as used in casts, sizeof and _Generic
func (p *Parser) typeName() ast.Type {
	s := p.declSpecs()
	d := p.declarator(s.base, true)
	if d.name != "" {
		p.fail(p.cur.previous(), diag.InvalidType, "unexpected name '%s' in type name", d.name)
	}
	return d.typ
}

// declarator parses a declarator and applies it to base. With abstract
// set the name may be omitted.
func (p *Parser) declarator(base ast.Type, abstract bool) decl {
	name, at, wrap := p.declaratorParts(abstract)
	return decl{name: name, pos: at, typ: wrap(base)}
}

// declaratorParts returns the declared name and a function deriving the
// declared type from the base type. Derivations bind tighter the closer
// they are to the name: suffixes before pointers, and a parenthesized
// inner declarator last.
func (p *Parser) declaratorParts(abstract bool) (string, ast.Pos, func(ast.Type) ast.Type) {
	p.enter()
	defer p.leave()

	var ptrs [][]ast.Qualifier
	for p.match(lexer.TokenStar) {
		var qs []ast.Qualifier
	quals:
		for {
			switch p.peek().Type {
			case lexer.TokenConst:
				qs = append(qs, ast.Const)
			case lexer.TokenVolatile:
				qs = append(qs, ast.Volatile)
			case lexer.TokenRestrict:
				qs = append(qs, ast.Restrict)
			case lexer.TokenAtomic:
				qs = append(qs, ast.Atomic)
			default:
				break quals
			}
			p.advance()
		}
		ptrs = append(ptrs, qs)
	}

	var (
		name  string
		at    ast.Pos
		inner func(ast.Type) ast.Type
	)
	tok := p.peek()
	switch {
	case tok.Type == lexer.TokenIdent && !(abstract && p.typedefs[tok.Lexeme]):
		p.advance()
		name, at = tok.Lexeme, pos(tok)
	case tok.Type == lexer.TokenLParen && p.nestedDeclarator():
		p.advance()
		name, at, inner = p.declaratorParts(abstract)
		p.expect(lexer.TokenRParen, "to close declarator")
	default:
		if !abstract {
			p.unexpected("identifier in declarator", false)
		}
		at = pos(tok)
	}

	var suffixes []func(ast.Type) ast.Type
	for {
		if p.match(lexer.TokenLBracket) {
			suffixes = append(suffixes, p.arraySuffix())
		} else if p.match(lexer.TokenLParen) {
			suffixes = append(suffixes, p.paramSuffix())
		} else {
			break
		}
	}

	return name, at, func(t ast.Type) ast.Type {
		for _, qs := range ptrs {
			t = &ast.Pointer{Elem: t}
			for _, q := range qs {
				t = &ast.Qualified{Qual: q, Elem: t}
			}
		}
		for i := len(suffixes) - 1; i >= 0; i-- {
			t = suffixes[i](t)
		}
		if inner != nil {
			t = inner(t)
		}
		return t
	}
}

// nestedDeclarator reports whether the '(' at the cursor opens a nested
// declarator rather than a parameter list.
func (p *Parser) nestedDeclarator() bool {
	next := p.cur.peekAt(1)
	switch next.Type {
	case lexer.TokenStar, lexer.TokenLParen, lexer.TokenLBracket:
		return true
	case lexer.TokenIdent:
		return !p.typedefs[next.Lexeme]
	}
	return false
}

// arraySuffix parses the part of an array declarator after '['. Only a
// literal size completes the type; any other size expression is kept
// for the declaration.
func (p *Parser) arraySuffix() func(ast.Type) ast.Type {
	for p.match(lexer.TokenStatic, lexer.TokenConst, lexer.TokenVolatile, lexer.TokenRestrict) {
	}
	var size ast.Expr
	if p.check(lexer.TokenStar) && p.cur.peekAt(1).Type == lexer.TokenRBracket {
		p.advance()
	} else if !p.check(lexer.TokenRBracket) {
		size = p.assignment()
	}
	p.expect(lexer.TokenRBracket, "to close array size")

	return func(elem ast.Type) ast.Type {
		arr := &ast.Array{Elem: elem}
		if lit, ok := size.(*ast.IntegerLiteral); ok && lit.Value >= 0 {
			n := int(lit.Value)
			arr.Size = &n
		}
		if size != nil {
			p.sizes[arr] = size
		}
		return arr
	}
}

// paramSuffix parses a parameter list after '('
func (p *Parser) paramSuffix() func(ast.Type) ast.Type {
	var (
		params   []ast.Param
		variadic bool
	)
	if p.check(lexer.TokenVoid) && p.cur.peekAt(1).Type == lexer.TokenRParen {
		p.advance()
	} else if !p.check(lexer.TokenRParen) {
		for {
			if p.match(lexer.TokenEllipsis) {
				variadic = true
				break
			}
			if !p.startsDeclaration(p.peek()) {
				p.unexpected("parameter declaration", false)
			}
			s := p.declSpecs()
			d := p.declarator(s.base, true)
			params = append(params, ast.Param{Name: d.name, Type: d.typ})
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.expect(lexer.TokenRParen, "to close parameter list")

	return func(ret ast.Type) ast.Type {
		return &ast.FuncType{Return: ret, Params: params, IsVariadic: variadic}
	}
}
