package parser

import (
	"strings"
	"testing"

	cerrors "github.com/conduit-lang/metamodel/compiler/errors"
	"github.com/conduit-lang/metamodel/compiler/lexer"
)

func parseSchema(t *testing.T, source string) (*SchemaFile, []ParseError) {
	t.Helper()
	tokens, lexErrors := lexer.New(source, "test.m2").ScanTokens()
	if len(lexErrors) > 0 {
		t.Fatalf("Lexer errors: %v", lexErrors)
	}
	return New(tokens).ParseSchema()
}

func parseInstance(t *testing.T, source string) (*InstanceFile, []ParseError) {
	t.Helper()
	tokens, lexErrors := lexer.New(source, "test.m1").ScanTokens()
	if len(lexErrors) > 0 {
		t.Fatalf("Lexer errors: %v", lexErrors)
	}
	return New(tokens).ParseInstance()
}

func TestParser_Schema(t *testing.T) {
	source := `
# Petri nets
element Net
element Node abstract
element Place extends Node
element InterfacePlace extends Place abstract
attribute Node name
association Net.places -> Place.of limit 2
association Place.next -> Place.previous optional; association Net.nodes -> Node.net
`

	file, errors := parseSchema(t, source)
	if len(errors) > 0 {
		t.Fatalf("Expected no errors, got: %v", errors)
	}
	if len(file.Statements) != 8 {
		t.Fatalf("Expected 8 statements, got %d", len(file.Statements))
	}

	node := file.Statements[1].(*ElementDecl)
	if node.Name != "Node" || !node.Abstract || node.Extends != "" {
		t.Errorf("Unexpected Node declaration: %+v", node)
	}

	inner := file.Statements[3].(*ElementDecl)
	if inner.Extends != "Place" || !inner.Abstract {
		t.Errorf("Unexpected InterfacePlace declaration: %+v", inner)
	}

	attr := file.Statements[4].(*AttributeDecl)
	if attr.Element != "Node" || attr.Name != "name" {
		t.Errorf("Unexpected attribute: %+v", attr)
	}

	assoc := file.Statements[5].(*AssociationDecl)
	if assoc.Parent != "Net" || assoc.ChildField != "places" || assoc.Child != "Place" || assoc.ParentField != "of" {
		t.Errorf("Unexpected association ends: %+v", assoc)
	}
	if !assoc.HasLimit || assoc.Limit != 2 || assoc.Optional {
		t.Errorf("Unexpected association modifiers: %+v", assoc)
	}
	if assoc.Location.Line != 8 {
		t.Errorf("Expected association on line 8, got %d", assoc.Location.Line)
	}

	self := file.Statements[6].(*AssociationDecl)
	if !self.Optional || self.HasLimit {
		t.Errorf("Unexpected self association modifiers: %+v", self)
	}
}

func TestParser_SchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{"unknown statement", "entity Place", cerrors.ErrInvalidStatement},
		{"missing name", "element", cerrors.ErrExpectedIdentifier},
		{"unknown modifier", "element Place final", cerrors.ErrInvalidModifier},
		{"duplicate abstract", "element Place abstract abstract", cerrors.ErrInvalidModifier},
		{"missing arrow", "association Net.places Place.of", cerrors.ErrUnexpectedToken},
		{"missing dot", "association Net places -> Place.of", cerrors.ErrUnexpectedToken},
		{"limit without number", "association Net.places -> Place.of limit x", cerrors.ErrInvalidValue},
		{"trailing tokens", "attribute Place name extra", cerrors.ErrUnexpectedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errors := parseSchema(t, tt.source)
			if len(errors) == 0 {
				t.Fatal("Expected a parse error")
			}
			if errors[0].Code != tt.code {
				t.Errorf("Expected code %s, got %s (%s)", tt.code, errors[0].Code, errors[0].Message)
			}
		})
	}
}

func TestParser_ErrorRecovery(t *testing.T) {
	source := "element A\nelement\nelement B final\nelement C\n"

	file, errors := parseSchema(t, source)
	if len(errors) != 2 {
		t.Fatalf("Expected 2 errors, got %d: %v", len(errors), errors)
	}
	if len(file.Statements) != 2 {
		t.Errorf("Expected the 2 valid statements to survive, got %d", len(file.Statements))
	}
	if errors[1].Location.Line != 3 {
		t.Errorf("Expected second error on line 3, got %d", errors[1].Location.Line)
	}
}

func TestParser_Instance(t *testing.T) {
	source := `root = net = Net(name="demo")
p1 = Place(of=root, tokens=-3, weight=1.5, done=false, note=nil)
Transition(from=p1, label=Label(text="t"))
p1.next = Place(
    of=root,
)
`

	file, errors := parseInstance(t, source)
	if len(errors) > 0 {
		t.Fatalf("Expected no errors, got: %v", errors)
	}
	if len(file.Statements) != 4 {
		t.Fatalf("Expected 4 statements, got %d", len(file.Statements))
	}

	first := file.Statements[0].(*ConstructStmt)
	if len(first.Names) != 2 || first.Names[0] != "root" || first.Names[1] != "net" {
		t.Errorf("Expected names [root net], got %v", first.Names)
	}
	if first.Constructor.Type != "Net" {
		t.Errorf("Expected type Net, got %s", first.Constructor.Type)
	}

	place := file.Statements[1].(*ConstructStmt).Constructor
	expected := []interface{}{nil, int64(-3), 1.5, false, nil}
	for i, arg := range place.Args {
		if i == 0 {
			if id, ok := arg.Value.(*Identifier); !ok || id.Name != "root" {
				t.Errorf("Expected identifier root, got %#v", arg.Value)
			}
			continue
		}
		lit, ok := arg.Value.(*Literal)
		if !ok {
			t.Fatalf("arg %s: expected literal, got %T", arg.Name, arg.Value)
		}
		if lit.Value != expected[i] {
			t.Errorf("arg %s: expected %v, got %v", arg.Name, expected[i], lit.Value)
		}
	}

	anon := file.Statements[2].(*ConstructStmt)
	if len(anon.Names) != 0 {
		t.Errorf("Expected anonymous statement, got names %v", anon.Names)
	}
	if nested, ok := anon.Constructor.Args[1].Value.(*Constructor); !ok || nested.Type != "Label" {
		t.Errorf("Expected nested Label constructor, got %#v", anon.Constructor.Args[1].Value)
	}

	assign := file.Statements[3].(*AssignStmt)
	if assign.Target != "p1" || assign.Field != "next" {
		t.Errorf("Unexpected assignment: %+v", assign)
	}
	if _, ok := assign.Value.(*Constructor); !ok {
		t.Errorf("Expected constructor value, got %T", assign.Value)
	}
}

func TestParser_InstanceErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{"missing paren", "root = Net", cerrors.ErrExpectedParen},
		{"unclosed paren", "root = Net(name=1", cerrors.ErrExpectedParen},
		{"missing value", "root = Net(name=)", cerrors.ErrInvalidValue},
		{"duplicate argument", "Net(a=1, a=2)", cerrors.ErrInvalidValue},
		{"minus without number", `Net(a=-"x")`, cerrors.ErrInvalidValue},
		{"literal statement", "42", cerrors.ErrExpectedIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errors := parseInstance(t, tt.source)
			if len(errors) == 0 {
				t.Fatal("Expected a parse error")
			}
			if errors[0].Code != tt.code {
				t.Errorf("Expected code %s, got %s (%s)", tt.code, errors[0].Code, errors[0].Message)
			}
		})
	}
}

func TestParseSource_LexErrors(t *testing.T) {
	_, errs := ParseInstanceSource(`root = Net(name="open`, "bad.m1")
	if !errs.HasErrors() {
		t.Fatal("Expected errors")
	}
	diag := errs.ToCompilerErrors()[0]
	if diag.Code != cerrors.ErrUnterminatedString || diag.Phase != "lexer" {
		t.Errorf("Unexpected diagnostic: %+v", diag)
	}
	if !strings.HasPrefix(errs.Error(), "bad.m1:1:") {
		t.Errorf("Expected positioned message, got %s", errs.Error())
	}
}

func TestFormatInstance(t *testing.T) {
	source := `root = net = Net(name="a \"quoted\"\n line", ratio=2.0, big=1e+21)
Transition(from=root, label=Label(text="t"))
root.next = other
`

	file, errors := parseInstance(t, source)
	if len(errors) > 0 {
		t.Fatalf("Expected no errors, got: %v", errors)
	}

	got := FormatInstance(file.Statements)
	if got != source {
		t.Errorf("Expected formatted output\n%s\ngot\n%s", source, got)
	}
}

func TestFormatSchema(t *testing.T) {
	source := `element Node abstract
element Place extends Node
attribute Node name
association Node.next -> Node.previous limit 3 optional
`

	file, errors := parseSchema(t, source)
	if len(errors) > 0 {
		t.Fatalf("Expected no errors, got: %v", errors)
	}
	if got := FormatSchema(file.Statements); got != source {
		t.Errorf("Expected formatted output\n%s\ngot\n%s", source, got)
	}
}

func TestFormatLiteral(t *testing.T) {
	tests := []struct {
		value    interface{}
		expected string
	}{
		{nil, "nil"},
		{true, "true"},
		{int64(-7), "-7"},
		{3.0, "3.0"},
		{0.25, "0.25"},
		{"tab\there", `"tab\there"`},
		{struct{}{}, ""},
	}

	for _, tt := range tests {
		if got := FormatLiteral(tt.value); got != tt.expected {
			t.Errorf("FormatLiteral(%#v): expected %s, got %s", tt.value, tt.expected, got)
		}
	}
}
