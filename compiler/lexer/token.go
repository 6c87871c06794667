package lexer

import "fmt"

// TokenType represents the type of token in the metamodel notation
type TokenType int

const (
	// Special tokens
	TOKEN_EOF TokenType = iota
	TOKEN_NEWLINE
	TOKEN_COMMENT

	// Literals
	TOKEN_IDENTIFIER
	TOKEN_INT_LITERAL
	TOKEN_FLOAT_LITERAL
	TOKEN_STRING_LITERAL
	TOKEN_TRUE
	TOKEN_FALSE
	TOKEN_NIL

	// Operators and delimiters
	TOKEN_EQUAL     // =
	TOKEN_DOT       // .
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_ARROW     // ->
	TOKEN_MINUS     // -
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
)

// Token represents a single lexical token
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{} // For literals (numbers, strings, etc.)
	Line    int
	Column  int
	File    string // Source file path
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	switch t {
	case TOKEN_EOF:
		return "EOF"
	case TOKEN_NEWLINE:
		return "NEWLINE"
	case TOKEN_COMMENT:
		return "COMMENT"
	case TOKEN_IDENTIFIER:
		return "IDENTIFIER"
	case TOKEN_INT_LITERAL:
		return "INT_LITERAL"
	case TOKEN_FLOAT_LITERAL:
		return "FLOAT_LITERAL"
	case TOKEN_STRING_LITERAL:
		return "STRING_LITERAL"
	case TOKEN_TRUE:
		return "TRUE"
	case TOKEN_FALSE:
		return "FALSE"
	case TOKEN_NIL:
		return "NIL"
	case TOKEN_EQUAL:
		return "EQUAL"
	case TOKEN_DOT:
		return "DOT"
	case TOKEN_COMMA:
		return "COMMA"
	case TOKEN_SEMICOLON:
		return "SEMICOLON"
	case TOKEN_ARROW:
		return "ARROW"
	case TOKEN_MINUS:
		return "MINUS"
	case TOKEN_LPAREN:
		return "LPAREN"
	case TOKEN_RPAREN:
		return "RPAREN"
	default:
		return "UNKNOWN"
	}
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s(%v) [%d:%d]", t.Type, t.Literal, t.Line, t.Column)
	}
	return fmt.Sprintf("%s(%s) [%d:%d]", t.Type, t.Lexeme, t.Line, t.Column)
}

// LexError represents a lexical analysis error
type LexError struct {
	Code    string // compiler/errors code
	Message string
	Line    int
	Column  int
	File    string
}

// Error implements the error interface
func (e LexError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}
