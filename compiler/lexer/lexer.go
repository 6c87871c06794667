// Package lexer tokenizes schema (.m2) and instance (.m1) descriptions.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	cerrors "github.com/conduit-lang/metamodel/compiler/errors"
)

// Lexer tokenizes metamodel notation
type Lexer struct {
	source      []rune // Source code as runes for Unicode support
	start       int    // Start position of current token
	current     int    // Current position in source
	line        int    // Current line number
	column      int    // Current column number
	startColumn int    // Column where current token started
	file        string
	tokens      []Token
	errors      []LexError
	comments    bool
}

// New creates a new Lexer for the given source
func New(source, file string) *Lexer {
	return &Lexer{
		source:      []rune(source),
		line:        1,
		column:      1,
		startColumn: 1,
		file:        file,
		tokens:      make([]Token, 0, len(source)/4),
	}
}

// SetPreserveComments sets whether comments are emitted as tokens
func (l *Lexer) SetPreserveComments(preserve bool) {
	l.comments = preserve
}

// ScanTokens scans all tokens from the source and returns them with any errors
func (l *Lexer) ScanTokens() ([]Token, []LexError) {
	for !l.isAtEnd() {
		l.start = l.current
		l.startColumn = l.column
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Type:   TOKEN_EOF,
		Line:   l.line,
		Column: l.column,
		File:   l.file,
	})

	return l.tokens, l.errors
}

// scanToken scans a single token
func (l *Lexer) scanToken() {
	r := l.advance()

	switch r {
	case '(':
		l.addToken(TOKEN_LPAREN, nil)
	case ')':
		l.addToken(TOKEN_RPAREN, nil)
	case ',':
		l.addToken(TOKEN_COMMA, nil)
	case '=':
		l.addToken(TOKEN_EQUAL, nil)
	case '.':
		l.addToken(TOKEN_DOT, nil)
	case ';':
		l.addToken(TOKEN_SEMICOLON, nil)
	case '-':
		if l.match('>') {
			l.addToken(TOKEN_ARROW, nil)
		} else {
			l.addToken(TOKEN_MINUS, nil)
		}
	case '#':
		l.scanComment()
	case '"':
		l.scanString()
	case ' ', '\r', '\t':
		// Ignore whitespace
	case '\n':
		l.addToken(TOKEN_NEWLINE, nil)
		l.line++
		l.column = 1
	default:
		if isDigit(r) {
			l.scanNumber()
		} else if isAlpha(r) {
			l.scanIdentifier()
		} else {
			l.addError(cerrors.ErrInvalidCharacter, fmt.Sprintf("Unexpected character: %c", r))
		}
	}
}

// scanComment scans a single-line comment starting with #
func (l *Lexer) scanComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}

	if l.comments {
		l.addToken(TOKEN_COMMENT, string(l.source[l.start:l.current]))
	}
}

// scanString scans a double quoted string literal with escape sequences
func (l *Lexer) scanString() {
	var builder strings.Builder

	for !l.isAtEnd() && l.peek() != '"' {
		if l.peek() == '\n' {
			l.addError(cerrors.ErrUnterminatedString, "Unterminated string")
			return
		}

		if l.peek() != '\\' {
			builder.WriteRune(l.advance())
			continue
		}

		l.advance() // consume backslash
		if l.isAtEnd() {
			break
		}
		switch escaped := l.advance(); escaped {
		case 'n':
			builder.WriteRune('\n')
		case 't':
			builder.WriteRune('\t')
		case 'r':
			builder.WriteRune('\r')
		case '\\':
			builder.WriteRune('\\')
		case '"':
			builder.WriteRune('"')
		default:
			l.addError(cerrors.ErrInvalidEscape, fmt.Sprintf("Invalid escape sequence: \\%c", escaped))
		}
	}

	if l.isAtEnd() {
		l.addError(cerrors.ErrUnterminatedString, "Unterminated string")
		return
	}

	// Consume closing quote
	l.advance()

	l.addToken(TOKEN_STRING_LITERAL, builder.String())
}

// scanNumber scans an integer or float literal
func (l *Lexer) scanNumber() {
	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	isFloat := false
	if l.peek() == '.' && isDigit(l.peekNext()) {
		isFloat = true
		l.advance() // consume '.'
		for isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if !isDigit(l.peek()) {
			l.addError(cerrors.ErrInvalidNumber, "Invalid scientific notation")
			return
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	lexeme := strings.ReplaceAll(string(l.source[l.start:l.current]), "_", "")

	if isFloat {
		value, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			l.addError(cerrors.ErrInvalidNumber, fmt.Sprintf("Invalid float literal: %v", err))
			return
		}
		l.addToken(TOKEN_FLOAT_LITERAL, value)
		return
	}

	value, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		l.addError(cerrors.ErrInvalidNumber, fmt.Sprintf("Invalid integer literal: %v", err))
		return
	}
	l.addToken(TOKEN_INT_LITERAL, value)
}

// scanIdentifier scans an identifier or keyword
func (l *Lexer) scanIdentifier() {
	for isAlphaNumeric(l.peek()) {
		l.advance()
	}

	lexeme := string(l.source[l.start:l.current])
	if tokenType, ok := lookupKeyword(lexeme); ok {
		l.addToken(tokenType, nil)
		return
	}
	l.addToken(TOKEN_IDENTIFIER, lexeme)
}

// Helper methods

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	r := l.source[l.current]
	l.current++
	l.column++
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.current++
	l.column++
	return true
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() rune {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlpha(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || isDigit(r)
}

func (l *Lexer) addToken(tokenType TokenType, literal interface{}) {
	l.tokens = append(l.tokens, Token{
		Type:    tokenType,
		Lexeme:  string(l.source[l.start:l.current]),
		Literal: literal,
		Line:    l.line,
		Column:  l.startColumn,
		File:    l.file,
	})
}

func (l *Lexer) addError(code, message string) {
	l.errors = append(l.errors, LexError{
		Code:    code,
		Message: message,
		Line:    l.line,
		Column:  l.startColumn,
		File:    l.file,
	})
}
