package parser

import "github.com/conduit-lang/metamodel/compiler/lexer"

// SourceLocation represents a location in source code
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// TokenToLocation converts a token to a SourceLocation
func TokenToLocation(token lexer.Token) SourceLocation {
	return SourceLocation{
		File:   token.File,
		Line:   token.Line,
		Column: token.Column,
	}
}

// Schema statements

// SchemaFile is the root node of a schema description
type SchemaFile struct {
	Statements []SchemaStmt
	Location   SourceLocation
}

// SchemaStmt is the interface for all schema statements
type SchemaStmt interface {
	schemaStmt()
	GetLocation() SourceLocation
}

// ElementDecl represents `element Name [abstract] [extends Super]`
type ElementDecl struct {
	Name     string
	Abstract bool
	Extends  string // empty when there is no superclass
	Location SourceLocation
}

func (s *ElementDecl) schemaStmt()                  {}
func (s *ElementDecl) GetLocation() SourceLocation { return s.Location }

// AttributeDecl represents `attribute Element name`
type AttributeDecl struct {
	Element  string
	Name     string
	Location SourceLocation
}

func (s *AttributeDecl) schemaStmt()                  {}
func (s *AttributeDecl) GetLocation() SourceLocation { return s.Location }

// AssociationDecl represents
// `association Parent.children -> Child.parent [limit N] [optional]`
type AssociationDecl struct {
	Parent      string
	ChildField  string // collection installed on Parent
	Child       string
	ParentField string // reference installed on Child
	Limit       int
	HasLimit    bool
	Optional    bool
	Location    SourceLocation
}

func (s *AssociationDecl) schemaStmt()                  {}
func (s *AssociationDecl) GetLocation() SourceLocation { return s.Location }

// Instance statements

// InstanceFile is the root node of an instance description
type InstanceFile struct {
	Statements []InstanceStmt
	Location   SourceLocation
}

// InstanceStmt is the interface for all instance statements
type InstanceStmt interface {
	instanceStmt()
	GetLocation() SourceLocation
}

// ConstructStmt represents `[a = b =] Type(field=value, ...)`
type ConstructStmt struct {
	Names       []string
	Constructor *Constructor
	Location    SourceLocation
}

func (s *ConstructStmt) instanceStmt()                {}
func (s *ConstructStmt) GetLocation() SourceLocation { return s.Location }

// AssignStmt represents `name.field = value`
type AssignStmt struct {
	Target   string
	Field    string
	Value    ValueNode
	Location SourceLocation
}

func (s *AssignStmt) instanceStmt()                {}
func (s *AssignStmt) GetLocation() SourceLocation { return s.Location }

// ValueNode is the interface for field values
type ValueNode interface {
	valueNode()
	GetLocation() SourceLocation
}

// Literal is a nil, bool, int64, float64 or string value
type Literal struct {
	Value    interface{}
	Location SourceLocation
}

func (v *Literal) valueNode()                   {}
func (v *Literal) GetLocation() SourceLocation { return v.Location }

// Identifier refers to a previously bound element
type Identifier struct {
	Name     string
	Location SourceLocation
}

func (v *Identifier) valueNode()                   {}
func (v *Identifier) GetLocation() SourceLocation { return v.Location }

// Constructor creates an element; it is both a statement body and a nested value
type Constructor struct {
	Type     string
	Args     []*Argument
	Location SourceLocation
}

func (v *Constructor) valueNode()                   {}
func (v *Constructor) GetLocation() SourceLocation { return v.Location }

// Argument is one `field=value` pair of a constructor
type Argument struct {
	Name     string
	Value    ValueNode
	Location SourceLocation
}
