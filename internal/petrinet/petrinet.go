// Package petrinet ships the place/transition net schema and the
// transformations defined over it.
package petrinet

import (
	_ "embed"

	"github.com/conduit-lang/metamodel/internal/loader"
	"github.com/conduit-lang/metamodel/pkg/model"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

// SchemaFile is the name the embedded schema is reported under
const SchemaFile = "petrinet.m2"

//go:embed petrinet.m2
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

// Kind is the closed set of net constructs
type Kind int

const (
	KindUnknown Kind = iota
	KindNet
	KindPlace
	KindTransition
	KindPlaceArc      // place -> transition
	KindTransitionArc // transition -> place
)

// String returns the construct name
func (k Kind) String() string {
	switch k {
	case KindNet:
		return "net"
	case KindPlace:
		return "place"
	case KindTransition:
		return "transition"
	case KindPlaceArc:
		return "place-arc"
	case KindTransitionArc:
		return "transition-arc"
	default:
		return "unknown"
	}
}

var kinds = map[string]Kind{
	"Petrinet":            KindNet,
	"Place":               KindPlace,
	"InterfacePlace":      KindPlace,
	"Transition":          KindTransition,
	"InterfaceTransition": KindTransition,
	"PlaceToTransition":   KindPlaceArc,
	"TransitionToPlace":   KindTransitionArc,
}

// Classify maps an element onto its construct. Types declared outside
// the embedded schema, subclasses included, are KindUnknown.
func Classify(e *model.Element) Kind {
	return kinds[e.Type().Name()]
}

// IsInterface reports whether e is an interface place or transition
func IsInterface(e *model.Element) bool {
	switch e.Type().Name() {
	case "InterfacePlace", "InterfaceTransition":
		return true
	}
	return false
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
