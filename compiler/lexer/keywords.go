package lexer

import "unicode"

// keywords maps the literal words of the notation to their token types.
// Statement words such as "element" or "optional" are matched by the parser
// in context and stay usable as field names.
var keywords = map[string]TokenType{
	"true":  TOKEN_TRUE,
	"false": TOKEN_FALSE,
	"nil":   TOKEN_NIL,
}

// lookupKeyword checks if a string is a keyword and returns its token type
func lookupKeyword(s string) (TokenType, bool) {
	tokenType, ok := keywords[s]
	return tokenType, ok
}

// IsKeyword reports whether s is reserved by the notation
func IsKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}

// IsIdentifier reports whether s scans as a single identifier token
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}
