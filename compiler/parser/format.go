package parser

import (
	"math"
	"strconv"
	"strings"
)

// FormatInstance renders instance statements as notation text, one per line
func FormatInstance(stmts []InstanceStmt) string {
	var b strings.Builder
	for _, stmt := range stmts {
		writeStmt(&b, stmt)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatSchema renders schema statements as notation text, one per line
func FormatSchema(stmts []SchemaStmt) string {
	var b strings.Builder
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ElementDecl:
			b.WriteString(kwElement + " " + s.Name)
			if s.Abstract {
				b.WriteString(" " + kwAbstract)
			}
			if s.Extends != "" {
				b.WriteString(" " + kwExtends + " " + s.Extends)
			}
		case *AttributeDecl:
			b.WriteString(kwAttribute + " " + s.Element + " " + s.Name)
		case *AssociationDecl:
			b.WriteString(kwAssociation + " " + s.Parent + "." + s.ChildField + " -> " + s.Child + "." + s.ParentField)
			if s.HasLimit {
				b.WriteString(" " + kwLimit + " " + strconv.Itoa(s.Limit))
			}
			if s.Optional {
				b.WriteString(" " + kwOptional)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// String renders the statement
func (s *ConstructStmt) String() string {
	var b strings.Builder
	writeStmt(&b, s)
	return b.String()
}

// String renders the statement
func (s *AssignStmt) String() string {
	var b strings.Builder
	writeStmt(&b, s)
	return b.String()
}

// String renders the constructor call
func (v *Constructor) String() string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeStmt(b *strings.Builder, stmt InstanceStmt) {
	switch s := stmt.(type) {
	case *ConstructStmt:
		for _, name := range s.Names {
			b.WriteString(name)
			b.WriteString(" = ")
		}
		writeValue(b, s.Constructor)
	case *AssignStmt:
		b.WriteString(s.Target)
		b.WriteString(".")
		b.WriteString(s.Field)
		b.WriteString(" = ")
		writeValue(b, s.Value)
	}
}

func writeValue(b *strings.Builder, v ValueNode) {
	switch v := v.(type) {
	case *Identifier:
		b.WriteString(v.Name)
	case *Literal:
		b.WriteString(FormatLiteral(v.Value))
	case *Constructor:
		b.WriteString(v.Type)
		b.WriteString("(")
		for i, arg := range v.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(arg.Name)
			b.WriteString("=")
			writeValue(b, arg.Value)
		}
		b.WriteString(")")
	}
}

// FormatLiteral renders a literal value so that the lexer reads it back
// unchanged. It returns "" for values the notation can not express.
func FormatLiteral(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case string:
		return quote(v)
	}
	return ""
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
