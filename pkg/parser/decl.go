package parser

import (
	"github.com/raymyers/stackcc/pkg/ast"
	"github.com/raymyers/stackcc/pkg/diag"
	"github.com/raymyers/stackcc/pkg/lexer"
)

// topLevel parses one external declaration: a function definition, a
// prototype, a typedef, a tag declaration or a list of globals.
func (p *Parser) topLevel() {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenHash:
		p.skipDirective()
		return
	case lexer.TokenSemicolon:
		p.advance()
		return
	case lexer.TokenStaticAssert:
		p.prog.Globals = append(p.prog.Globals, p.staticAssert())
		return
	}
	if !p.startsDeclaration(tok) {
		p.unexpected("declaration or function definition", false)
	}

	s := p.declSpecs()
	p.prog.Globals = append(p.prog.Globals, p.takePending(true)...)
	if p.match(lexer.TokenSemicolon) {
		return
	}
	if s.typedef {
		p.typedefDecl(s)
		return
	}

	for first := true; ; first = false {
		d := p.declarator(s.base, false)
		if fn, ok := d.typ.(*ast.FuncType); ok {
			f := &ast.Function{
				Name:       d.name,
				ReturnType: fn.Return,
				Params:     fn.Params,
				IsVariadic: fn.IsVariadic,
				IsStatic:   s.storage == ast.StorageStatic,
				IsInline:   s.inline,
				IsNoReturn: s.noreturn,
				Pos:        d.pos,
			}
			if first && p.check(lexer.TokenLBrace) {
				f.Body = p.functionBody()
				p.prog.Functions = append(p.prog.Functions, f)
				return
			}
			f.IsExternal = true
			p.prog.Functions = append(p.prog.Functions, f)
		} else {
			p.prog.Globals = append(p.prog.Globals, p.objectDecl(s, d, true))
		}
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenSemicolon, "after declaration")
}

func (p *Parser) functionBody() []ast.Stmt {
	p.expect(lexer.TokenLBrace, "to open function body")
	body := []ast.Stmt{}
	for !p.check(lexer.TokenRBrace) {
		if p.check(lexer.TokenEOF) {
			p.unexpected("'}' to close function body", true)
		}
		body = append(body, p.blockItem()...)
	}
	p.advance()
	return body
}

// localDeclaration parses a declaration inside a function body, one
// statement per declarator.
func (p *Parser) localDeclaration() []ast.Stmt {
	s := p.declSpecs()
	stmts := p.takePending(false)
	if p.match(lexer.TokenSemicolon) {
		return stmts
	}
	if s.typedef {
		p.typedefDecl(s)
		return stmts
	}
	for {
		d := p.declarator(s.base, false)
		stmts = append(stmts, p.objectDecl(s, d, false))
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenSemicolon, "after declaration")
	return stmts
}

func (p *Parser) typedefDecl(s *specs) {
	for {
		d := p.declarator(s.base, false)
		p.typedefs[d.name] = true
		p.prog.Typedefs = append(p.prog.Typedefs, &ast.Typedef{Name: d.name, Type: d.typ})
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenSemicolon, "after typedef")
}

// objectDecl builds the declaration of one object from its declarator,
// parsing an initializer if present. Objects without one get a zero
// value of their type unless they are extern.
func (p *Parser) objectDecl(s *specs, d decl, global bool) ast.Stmt {
	var init ast.Expr
	if p.match(lexer.TokenAssign) {
		init = p.initializer()
	} else if s.storage != ast.StorageExtern {
		init = p.zeroValue(d.typ)
	}

	var out ast.Stmt
	if arr, ok := d.typ.(*ast.Array); ok {
		out = &ast.ArrayDeclaration{
			Name:      d.name,
			Type:      arr.Elem,
			Size:      p.sizes[arr],
			Init:      init,
			IsGlobal:  global,
			Storage:   s.storage,
			Alignment: s.align,
			Pos:       d.pos,
		}
	} else {
		out = &ast.VariableDeclaration{
			Name:      d.name,
			Type:      d.typ,
			Init:      init,
			IsGlobal:  global,
			Storage:   s.storage,
			Alignment: s.align,
			Pos:       d.pos,
		}
	}
	if s.atomic {
		out = &ast.AtomicDeclaration{Decl: out}
	}
	if s.threadLocal {
		out = &ast.ThreadLocalDeclaration{Decl: out}
	}
	if s.noreturn {
		out = &ast.NoReturnDeclaration{Decl: out}
	}
	return out
}

// zeroValue returns the implicit initializer for an object of type t
func (p *Parser) zeroValue(t ast.Type) ast.Expr {
	switch t := p.prog.Resolve(t).(type) {
	case *ast.Primitive:
		switch {
		case t.Kind.IsFloating():
			return &ast.FloatLiteral{Value: 0}
		case t.Kind == ast.Char || t.Kind == ast.SChar || t.Kind == ast.UChar:
			return &ast.CharLiteral{Value: 0}
		}
		return &ast.IntegerLiteral{Value: 0}
	case *ast.Pointer:
		return &ast.IntegerLiteral{Value: 0}
	case *ast.Array:
		return &ast.ArrayLiteral{}
	case *ast.Tagged:
		if t.Kind == ast.TagEnum {
			return &ast.IntegerLiteral{Value: 0}
		}
		return &ast.ArrayLiteral{}
	}
	return nil
}

func (p *Parser) initializer() ast.Expr {
	if p.check(lexer.TokenLBrace) {
		return p.initList()
	}
	return p.assignment()
}

// initList parses a brace-enclosed initializer list. Designators may
// name one field or one index; chains are rejected.
func (p *Parser) initList() *ast.ArrayLiteral {
	p.enter()
	defer p.leave()

	p.expect(lexer.TokenLBrace, "to open initializer list")
	lit := &ast.ArrayLiteral{}
	for !p.check(lexer.TokenRBrace) {
		var elem ast.Expr
		switch {
		case p.match(lexer.TokenDot):
			field := p.expectIdent("after '.' in designator")
			p.singleDesignator()
			p.expect(lexer.TokenAssign, "after designator")
			elem = &ast.DesignatedInit{Field: field.Lexeme, Value: p.initializer()}
		case p.match(lexer.TokenLBracket):
			idx := p.conditional()
			p.expect(lexer.TokenRBracket, "after array designator")
			p.singleDesignator()
			p.expect(lexer.TokenAssign, "after designator")
			elem = &ast.DesignatedInit{Index: idx, Value: p.initializer()}
		default:
			elem = p.initializer()
		}
		lit.Elements = append(lit.Elements, elem)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRBrace, "to close initializer list")
	return lit
}

func (p *Parser) singleDesignator() {
	if tok := p.peek(); tok.Type == lexer.TokenDot || tok.Type == lexer.TokenLBracket {
		p.fail(tok, diag.InvalidDeclaration, "nested designators are not supported")
	}
}

func (p *Parser) staticAssert() ast.Stmt {
	p.advance()
	p.expect(lexer.TokenLParen, "after _Static_assert")
	sa := &ast.StaticAssert{Cond: p.conditional()}
	if p.match(lexer.TokenComma) {
		if !p.peek().Type.IsStringLiteral() {
			p.unexpected("string literal", false)
		}
		sa.Message = p.stringLiteral().Value
	}
	p.expect(lexer.TokenRParen, "to close _Static_assert")
	p.expect(lexer.TokenSemicolon, "after _Static_assert")
	return sa
}
