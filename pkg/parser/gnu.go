package parser

import "github.com/raymyers/stackcc/pkg/lexer"

// Spellings of standard keywords used by system headers
var keywordAliases = map[string]lexer.TokenType{
	"__const":      lexer.TokenConst,
	"__const__":    lexer.TokenConst,
	"__volatile":   lexer.TokenVolatile,
	"__volatile__": lexer.TokenVolatile,
	"__restrict":   lexer.TokenRestrict,
	"__restrict__": lexer.TokenRestrict,
	"__inline":     lexer.TokenInline,
	"__inline__":   lexer.TokenInline,
	"__signed":     lexer.TokenSigned,
	"__signed__":   lexer.TokenSigned,
	"__alignof":    lexer.TokenAlignof,
	"__alignof__":  lexer.TokenAlignof,
}

// Extensions dropped together with a parenthesized argument, if any
var droppedExtensions = map[string]bool{
	"__attribute":   true,
	"__attribute__": true,
	"__asm":         true,
	"__asm__":       true,
	"asm":           true,
	"__declspec":    true,
	"__extension__": true,
}

func builtinTypedefs() map[string]bool {
	return map[string]bool{
		"__builtin_va_list": true,
	}
}

// stripExtensions rewrites GNU keyword aliases to their standard tokens
// and removes attribute and asm-label annotations, so preprocessed system
// headers parse with the standard grammar.
func stripExtensions(tokens []lexer.Token) []lexer.Token {
	out := make([]lexer.Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Type != lexer.TokenIdent {
			out = append(out, tok)
			continue
		}
		if t, ok := keywordAliases[tok.Lexeme]; ok {
			tok.Type = t
			out = append(out, tok)
			continue
		}
		if !droppedExtensions[tok.Lexeme] {
			out = append(out, tok)
			continue
		}
		if tok.Lexeme == "__extension__" {
			continue
		}
		// asm qualifiers, then a balanced (...) group
		j := i + 1
		for j < len(tokens) && isAsmQualifier(tokens[j]) {
			j++
		}
		if j >= len(tokens) || tokens[j].Type != lexer.TokenLParen {
			out = append(out, tok)
			continue
		}
		depth := 0
		for ; j < len(tokens)-1; j++ {
			switch tokens[j].Type {
			case lexer.TokenLParen:
				depth++
			case lexer.TokenRParen:
				depth--
			}
			if depth == 0 {
				break
			}
		}
		i = j
	}
	return out
}

func isAsmQualifier(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.TokenVolatile, lexer.TokenInline, lexer.TokenGoto:
		return true
	}
	return keywordAliases[tok.Lexeme] == lexer.TokenVolatile
}
