// Package declare ships the Declare process model schema and the
// graphviz styles of its constraints.
package declare

import (
	_ "embed"

	"github.com/conduit-lang/metamodel/internal/loader"
	"github.com/conduit-lang/metamodel/pkg/model"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

// SchemaFile is the name the embedded schema is reported under
const SchemaFile = "declare.m2"

//go:embed declare.m2
var schemaSource string

//go:embed sample.m1
var sampleSource string

// SchemaSource returns the schema notation
func SchemaSource() string {
	return schemaSource
}

// SampleSource returns a small instance of the schema
func SampleSource() string {
	return sampleSource
}

// Schema builds a fresh registry from the embedded schema
func Schema(opts ...loader.Option) (*schema.Registry, error) {
	return loader.New(opts...).ParseSchema(schemaSource, SchemaFile)
}

// Style is how a binary constraint is drawn: the arrow at each end, whether
// the edge is cut by a negation and how many parallel lines it has
type Style struct {
	Tail   string
	Head   string
	Negate bool
	Lines  int
}

var styles = map[string]Style{
	"RespondedExistence": {Tail: "dot", Head: "none", Lines: 1},
	"CoExistence":        {Tail: "dot", Head: "dot", Lines: 1},

	"Precedence": {Tail: "none", Head: "dotnormal", Lines: 1},
	"Response":   {Tail: "dot", Head: "normal", Lines: 1},
	"Succession": {Tail: "dot", Head: "dotnormal", Lines: 1},

	"AlternateResponse":   {Tail: "none", Head: "dotnormal", Lines: 2},
	"AlternatePrecedence": {Tail: "dot", Head: "normal", Lines: 2},
	"AlternateSuccession": {Tail: "dot", Head: "dotnormal", Lines: 2},

	"ChainResponse":   {Tail: "none", Head: "dotnormal", Lines: 3},
	"ChainPrecedence": {Tail: "dot", Head: "normal", Lines: 3},
	"ChainSuccession": {Tail: "dot", Head: "dotnormal", Lines: 3},

	"NotCoExistence":     {Tail: "dot", Head: "dot", Negate: true, Lines: 1},
	"NotSuccession":      {Tail: "dot", Head: "dotnormal", Negate: true, Lines: 1},
	"NotChainSuccession": {Tail: "dot", Head: "dotnormal", Negate: true, Lines: 3},
}

// BinaryStyle returns the style of a binary constraint. Types declared
// outside the embedded schema, subclasses included, have none.
func BinaryStyle(e *model.Element) (Style, bool) {
	s, ok := styles[e.Type().Name()]
	return s, ok
}

// RelationKind is the closed set of n-ary relations
type RelationKind int

const (
	RelationUnknown RelationKind = iota
	RelationChoice
	RelationExclusive
)

// Relation classifies an n-ary relation element
func Relation(e *model.Element) RelationKind {
	switch e.Type().Name() {
	case "Choice":
		return RelationChoice
	case "Exclusive":
		return RelationExclusive
	}
	return RelationUnknown
}

// Bounds returns the occurrence bounds of an activity. The upper bound is
// one below absence and only set when bounded is true.
func Bounds(activity *model.Element) (lower, upper int64, bounded bool) {
	if v, err := activity.Attr("existence"); err == nil {
		if n, ok := v.(int64); ok {
			lower = n
		}
	}
	if v, err := activity.Attr("absence"); err == nil {
		if n, ok := v.(int64); ok {
			upper, bounded = n-1, true
		}
	}
	return lower, upper, bounded
}

// IsInit reports whether the activity must start every trace
func IsInit(activity *model.Element) bool {
	v, err := activity.Attr("init")
	return err == nil && v == true
}

// Label returns the name attribute of e, or its handle label when unset
func Label(e *model.Element) string {
	if v, err := e.Attr("name"); err == nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return e.String()
}
