// Package parser builds statement trees from schema (.m2) and instance (.m1)
// token streams.
package parser

import (
	"fmt"

	cerrors "github.com/conduit-lang/metamodel/compiler/errors"
	"github.com/conduit-lang/metamodel/compiler/lexer"
)

// Statement keywords. They are matched by lexeme so that the same words
// stay usable as field names.
const (
	kwElement     = "element"
	kwAttribute   = "attribute"
	kwAssociation = "association"
	kwAbstract    = "abstract"
	kwExtends     = "extends"
	kwLimit       = "limit"
	kwOptional    = "optional"
)

// Parser transforms token streams into statement trees
type Parser struct {
	tokens    []lexer.Token
	current   int
	errors    []ParseError
	panicMode bool
}

// New creates a new Parser from a token stream
func New(tokens []lexer.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TOKEN_EOF {
		tokens = append(tokens, lexer.Token{Type: lexer.TOKEN_EOF})
	}
	return &Parser{
		tokens: tokens,
		errors: []ParseError{},
	}
}

// ParseSchema parses the token stream as a schema description
func (p *Parser) ParseSchema() (*SchemaFile, []ParseError) {
	file := &SchemaFile{Location: TokenToLocation(p.peek())}

	for !p.isAtEnd() {
		if p.skipSeparators() {
			continue
		}

		stmt := p.parseSchemaStmt()
		if p.panicMode {
			p.synchronize()
			continue
		}
		file.Statements = append(file.Statements, stmt)
		p.endStatement()
	}

	return file, p.errors
}

// ParseInstance parses the token stream as an instance description
func (p *Parser) ParseInstance() (*InstanceFile, []ParseError) {
	file := &InstanceFile{Location: TokenToLocation(p.peek())}

	for !p.isAtEnd() {
		if p.skipSeparators() {
			continue
		}

		stmt := p.parseInstanceStmt()
		if p.panicMode {
			p.synchronize()
			continue
		}
		file.Statements = append(file.Statements, stmt)
		p.endStatement()
	}

	return file, p.errors
}

// ParseSchemaSource lexes and parses a schema description
func ParseSchemaSource(source, file string) (*SchemaFile, ParseErrorList) {
	tokens, lexErrs := lexer.New(source, file).ScanTokens()
	if len(lexErrs) > 0 {
		return nil, lexErrors(lexErrs)
	}
	f, errs := New(tokens).ParseSchema()
	if len(errs) > 0 {
		return nil, errs
	}
	return f, nil
}

// ParseInstanceSource lexes and parses an instance description
func ParseInstanceSource(source, file string) (*InstanceFile, ParseErrorList) {
	tokens, lexErrs := lexer.New(source, file).ScanTokens()
	if len(lexErrs) > 0 {
		return nil, lexErrors(lexErrs)
	}
	f, errs := New(tokens).ParseInstance()
	if len(errs) > 0 {
		return nil, errs
	}
	return f, nil
}

func lexErrors(errs []lexer.LexError) ParseErrorList {
	out := make(ParseErrorList, len(errs))
	for i, e := range errs {
		out[i] = ParseError{
			Code:     e.Code,
			Message:  e.Message,
			Location: SourceLocation{File: e.File, Line: e.Line, Column: e.Column},
		}
	}
	return out
}

// Schema statements

func (p *Parser) parseSchemaStmt() SchemaStmt {
	tok := p.peek()
	if tok.Type != lexer.TOKEN_IDENTIFIER {
		p.errorAt(tok, cerrors.ErrInvalidStatement,
			fmt.Sprintf("Unexpected token %q. Expected 'element', 'attribute' or 'association'", tok.Lexeme))
		return nil
	}

	switch tok.Lexeme {
	case kwElement:
		return p.parseElement()
	case kwAttribute:
		return p.parseAttribute()
	case kwAssociation:
		return p.parseAssociation()
	}

	p.errorAt(tok, cerrors.ErrInvalidStatement, fmt.Sprintf("Unknown schema statement %q", tok.Lexeme))
	return nil
}

// parseElement parses `element Name [abstract] [extends Super]`
func (p *Parser) parseElement() SchemaStmt {
	start := p.advance()
	name, ok := p.consumeIdentifier("Expected element name after 'element'")
	if !ok {
		return nil
	}

	decl := &ElementDecl{Name: name.Lexeme, Location: TokenToLocation(start)}
	for p.check(lexer.TOKEN_IDENTIFIER) {
		mod := p.peek()
		switch mod.Lexeme {
		case kwAbstract:
			p.advance()
			if decl.Abstract {
				p.errorAt(mod, cerrors.ErrInvalidModifier, "Duplicate 'abstract' modifier")
				return nil
			}
			decl.Abstract = true
		case kwExtends:
			p.advance()
			if decl.Extends != "" {
				p.errorAt(mod, cerrors.ErrInvalidModifier, "Duplicate 'extends' clause")
				return nil
			}
			super, ok := p.consumeIdentifier("Expected superclass name after 'extends'")
			if !ok {
				return nil
			}
			decl.Extends = super.Lexeme
		default:
			p.errorAt(mod, cerrors.ErrInvalidModifier,
				fmt.Sprintf("Unknown element modifier %q. Expected 'abstract' or 'extends'", mod.Lexeme))
			return nil
		}
	}
	return decl
}

// parseAttribute parses `attribute Element name`
func (p *Parser) parseAttribute() SchemaStmt {
	start := p.advance()
	element, ok := p.consumeIdentifier("Expected element name after 'attribute'")
	if !ok {
		return nil
	}
	name, ok := p.consumeIdentifier("Expected attribute name")
	if !ok {
		return nil
	}
	return &AttributeDecl{Element: element.Lexeme, Name: name.Lexeme, Location: TokenToLocation(start)}
}

// parseAssociation parses
// `association Parent.children -> Child.parent [limit N] [optional]`
func (p *Parser) parseAssociation() SchemaStmt {
	start := p.advance()
	decl := &AssociationDecl{Location: TokenToLocation(start)}

	parent, childField, ok := p.parseDottedName()
	if !ok {
		return nil
	}
	if _, ok := p.consume(lexer.TOKEN_ARROW, cerrors.ErrUnexpectedToken, "Expected '->' between association ends"); !ok {
		return nil
	}
	child, parentField, ok := p.parseDottedName()
	if !ok {
		return nil
	}
	decl.Parent, decl.ChildField = parent, childField
	decl.Child, decl.ParentField = child, parentField

	for p.check(lexer.TOKEN_IDENTIFIER) {
		mod := p.peek()
		switch mod.Lexeme {
		case kwLimit:
			p.advance()
			if decl.HasLimit {
				p.errorAt(mod, cerrors.ErrInvalidModifier, "Duplicate 'limit' modifier")
				return nil
			}
			n, ok := p.consume(lexer.TOKEN_INT_LITERAL, cerrors.ErrInvalidValue, "Expected integer after 'limit'")
			if !ok {
				return nil
			}
			decl.Limit = int(n.Literal.(int64))
			decl.HasLimit = true
		case kwOptional:
			p.advance()
			if decl.Optional {
				p.errorAt(mod, cerrors.ErrInvalidModifier, "Duplicate 'optional' modifier")
				return nil
			}
			decl.Optional = true
		default:
			p.errorAt(mod, cerrors.ErrInvalidModifier,
				fmt.Sprintf("Unknown association modifier %q. Expected 'limit' or 'optional'", mod.Lexeme))
			return nil
		}
	}
	return decl
}

func (p *Parser) parseDottedName() (string, string, bool) {
	owner, ok := p.consumeIdentifier("Expected element name")
	if !ok {
		return "", "", false
	}
	if _, ok := p.consume(lexer.TOKEN_DOT, cerrors.ErrUnexpectedToken,
		fmt.Sprintf("Expected '.' after %q", owner.Lexeme)); !ok {
		return "", "", false
	}
	field, ok := p.consumeIdentifier("Expected field name after '.'")
	if !ok {
		return "", "", false
	}
	return owner.Lexeme, field.Lexeme, true
}

// Instance statements

func (p *Parser) parseInstanceStmt() InstanceStmt {
	start := p.peek()
	first, ok := p.consumeIdentifier("Expected identifier or element type at start of statement")
	if !ok {
		return nil
	}

	// name.field = value
	if p.match(lexer.TOKEN_DOT) {
		field, ok := p.consumeIdentifier("Expected field name after '.'")
		if !ok {
			return nil
		}
		if _, ok := p.consume(lexer.TOKEN_EQUAL, cerrors.ErrUnexpectedToken, "Expected '=' in assignment"); !ok {
			return nil
		}
		value := p.parseValue()
		if value == nil {
			return nil
		}
		return &AssignStmt{Target: first.Lexeme, Field: field.Lexeme, Value: value, Location: TokenToLocation(start)}
	}

	// [a = b =] Type(...)
	var names []string
	current := first
	for p.match(lexer.TOKEN_EQUAL) {
		names = append(names, current.Lexeme)
		next, ok := p.consumeIdentifier("Expected identifier or element type after '='")
		if !ok {
			return nil
		}
		current = next
	}

	if !p.check(lexer.TOKEN_LPAREN) {
		p.errorAt(p.peek(), cerrors.ErrExpectedParen,
			fmt.Sprintf("Expected '(' after element type %q", current.Lexeme))
		return nil
	}
	ctor := p.parseConstructor(current)
	if ctor == nil {
		return nil
	}
	return &ConstructStmt{Names: names, Constructor: ctor, Location: TokenToLocation(start)}
}

// parseConstructor parses the argument list following typeName
func (p *Parser) parseConstructor(typeName lexer.Token) *Constructor {
	p.advance() // (
	ctor := &Constructor{Type: typeName.Lexeme, Location: TokenToLocation(typeName)}
	seen := make(map[string]bool)

	p.skipNewlines()
	for !p.check(lexer.TOKEN_RPAREN) {
		name, ok := p.consumeIdentifier("Expected field name in argument list")
		if !ok {
			return nil
		}
		if seen[name.Lexeme] {
			p.errorAt(name, cerrors.ErrInvalidValue, fmt.Sprintf("Field %q given twice", name.Lexeme))
			return nil
		}
		seen[name.Lexeme] = true

		if _, ok := p.consume(lexer.TOKEN_EQUAL, cerrors.ErrUnexpectedToken,
			fmt.Sprintf("Expected '=' after field name %q", name.Lexeme)); !ok {
			return nil
		}
		value := p.parseValue()
		if value == nil {
			return nil
		}
		ctor.Args = append(ctor.Args, &Argument{Name: name.Lexeme, Value: value, Location: TokenToLocation(name)})

		p.skipNewlines()
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
		p.skipNewlines()
	}

	if _, ok := p.consume(lexer.TOKEN_RPAREN, cerrors.ErrExpectedParen, "Expected ')' to close argument list"); !ok {
		return nil
	}
	return ctor
}

// parseValue parses a literal, an identifier or a nested constructor
func (p *Parser) parseValue() ValueNode {
	tok := p.peek()

	switch tok.Type {
	case lexer.TOKEN_TRUE:
		p.advance()
		return &Literal{Value: true, Location: TokenToLocation(tok)}
	case lexer.TOKEN_FALSE:
		p.advance()
		return &Literal{Value: false, Location: TokenToLocation(tok)}
	case lexer.TOKEN_NIL:
		p.advance()
		return &Literal{Value: nil, Location: TokenToLocation(tok)}
	case lexer.TOKEN_INT_LITERAL, lexer.TOKEN_FLOAT_LITERAL, lexer.TOKEN_STRING_LITERAL:
		p.advance()
		return &Literal{Value: tok.Literal, Location: TokenToLocation(tok)}
	case lexer.TOKEN_MINUS:
		p.advance()
		num := p.peek()
		switch num.Type {
		case lexer.TOKEN_INT_LITERAL:
			p.advance()
			return &Literal{Value: -num.Literal.(int64), Location: TokenToLocation(tok)}
		case lexer.TOKEN_FLOAT_LITERAL:
			p.advance()
			return &Literal{Value: -num.Literal.(float64), Location: TokenToLocation(tok)}
		}
		p.errorAt(num, cerrors.ErrInvalidValue, "Expected number after '-'")
		return nil
	case lexer.TOKEN_IDENTIFIER:
		p.advance()
		if p.check(lexer.TOKEN_LPAREN) {
			if ctor := p.parseConstructor(tok); ctor != nil {
				return ctor
			}
			return nil
		}
		return &Identifier{Name: tok.Lexeme, Location: TokenToLocation(tok)}
	}

	p.errorAt(tok, cerrors.ErrInvalidValue, fmt.Sprintf("Expected value, got %s", describe(tok)))
	return nil
}

// Helper methods for token manipulation

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TOKEN_EOF
}

func (p *Parser) peek() lexer.Token {
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // Return EOF
	}
	return p.tokens[p.current]
}

func (p *Parser) previous() lexer.Token {
	if p.current > 0 {
		return p.tokens[p.current-1]
	}
	return p.tokens[0]
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(tokenType lexer.TokenType) bool {
	return p.peek().Type == tokenType
}

// match consumes the current token if it has one of the given types
func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, tokenType := range types {
		if p.check(tokenType) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(tokenType lexer.TokenType, code, message string) (lexer.Token, bool) {
	if p.check(tokenType) {
		return p.advance(), true
	}
	p.errorAt(p.peek(), code, message)
	return lexer.Token{}, false
}

func (p *Parser) consumeIdentifier(message string) (lexer.Token, bool) {
	return p.consume(lexer.TOKEN_IDENTIFIER, cerrors.ErrExpectedIdentifier, message)
}

func (p *Parser) skipNewlines() {
	for p.match(lexer.TOKEN_NEWLINE, lexer.TOKEN_COMMENT) {
		// Keep skipping
	}
}

// skipSeparators skips blank lines, comments and stray semicolons
func (p *Parser) skipSeparators() bool {
	return p.match(lexer.TOKEN_NEWLINE, lexer.TOKEN_SEMICOLON, lexer.TOKEN_COMMENT)
}

// endStatement requires a statement to be followed by a separator
func (p *Parser) endStatement() {
	p.match(lexer.TOKEN_COMMENT)
	if p.isAtEnd() || p.match(lexer.TOKEN_NEWLINE, lexer.TOKEN_SEMICOLON) {
		return
	}
	p.errorAt(p.peek(), cerrors.ErrUnexpectedToken,
		fmt.Sprintf("Unexpected %s after end of statement", describe(p.peek())))
	p.synchronize()
}

func (p *Parser) errorAt(tok lexer.Token, code, message string) {
	if p.panicMode {
		return
	}
	p.errors = append(p.errors, ParseError{Code: code, Message: message, Location: TokenToLocation(tok)})
	p.panicMode = true
}

// synchronize skips tokens up to and including the next statement separator
func (p *Parser) synchronize() {
	p.panicMode = false
	for !p.isAtEnd() {
		if p.match(lexer.TOKEN_NEWLINE, lexer.TOKEN_SEMICOLON) {
			return
		}
		p.advance()
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TOKEN_EOF:
		return "end of file"
	case lexer.TOKEN_NEWLINE:
		return "end of line"
	}
	return fmt.Sprintf("%q", tok.Lexeme)
}
