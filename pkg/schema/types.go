// Package schema provides element type declaration for metamodels.
// It defines element types, their attribute and association fields, single
// inheritance with retroactive field propagation, and the registry that
// validates every declaration.
package schema

import (
	"fmt"
	"strconv"
)

// FieldKind represents the kind of a field descriptor
type FieldKind int

const (
	// KindAttribute holds an arbitrary scalar value
	KindAttribute FieldKind = iota
	// KindParentReference holds at most one element of the target type
	KindParentReference
	// KindChildCollection holds the elements pointing back via the peer reference
	KindChildCollection
)

// String returns the string representation of the field kind
func (k FieldKind) String() string {
	switch k {
	case KindAttribute:
		return "attribute"
	case KindParentReference:
		return "parent"
	case KindChildCollection:
		return "children"
	default:
		return "unknown"
	}
}

// Field describes one field of an element type.
//
// Parent references and child collections come in pairs: Peer names the
// counterpart field on the Target type.
type Field struct {
	Name     string
	Kind     FieldKind
	Peer     string
	Target   *ElementType
	Optional bool // parent references only
	Limit    int  // child collections only, 0 means unbounded
}

// IsAttribute returns true for attribute fields
func (f *Field) IsAttribute() bool { return f.Kind == KindAttribute }

// IsReference returns true for parent reference fields
func (f *Field) IsReference() bool { return f.Kind == KindParentReference }

// IsCollection returns true for child collection fields
func (f *Field) IsCollection() bool { return f.Kind == KindChildCollection }

// Required returns true for parent references that must be set at construction
func (f *Field) Required() bool {
	return f.Kind == KindParentReference && !f.Optional
}

// Describe returns a human readable description of the field
func (f *Field) Describe() string {
	switch f.Kind {
	case KindAttribute:
		return fmt.Sprintf("<attribute> %s", f.Name)
	case KindChildCollection:
		limit := ""
		if f.Limit > 0 {
			limit = strconv.Itoa(f.Limit)
		}
		return fmt.Sprintf("%s[%s] %s", f.Target.Name(), limit, f.Name)
	case KindParentReference:
		if f.Optional {
			return fmt.Sprintf("%s %s (optional)", f.Target.Name(), f.Name)
		}
		return fmt.Sprintf("%s %s", f.Target.Name(), f.Name)
	default:
		return fmt.Sprintf("<unknown> %s", f.Name)
	}
}

// ElementType is a schema-declared class of graph node.
type ElementType struct {
	name       string
	extends    *ElementType
	abstract   bool
	fields     []*Field
	index      map[string]*Field
	subclasses []*ElementType
}

func newElementType(name string, extends *ElementType, abstract bool) *ElementType {
	t := &ElementType{
		name:     name,
		extends:  extends,
		abstract: abstract,
		index:    make(map[string]*Field),
	}
	if extends != nil {
		// Inherited fields are shared descriptors, copied in declaration order
		for _, f := range extends.fields {
			t.install(f)
		}
		extends.subclasses = append(extends.subclasses, t)
	}
	return t
}

// Name returns the element type name
func (t *ElementType) Name() string { return t.name }

// Extends returns the superclass, or nil
func (t *ElementType) Extends() *ElementType { return t.extends }

// Abstract reports whether the type can not be instantiated
func (t *ElementType) Abstract() bool { return t.abstract }

// Field returns the field descriptor for name, including inherited fields
func (t *ElementType) Field(name string) (*Field, bool) {
	f, ok := t.index[name]
	return f, ok
}

// Fields returns all fields in declaration order, inherited fields first
func (t *ElementType) Fields() []*Field {
	out := make([]*Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Subclasses returns the direct subclasses in declaration order
func (t *ElementType) Subclasses() []*ElementType {
	out := make([]*ElementType, len(t.subclasses))
	copy(out, t.subclasses)
	return out
}

// IsA reports whether t is other or one of its subclasses
func (t *ElementType) IsA(other *ElementType) bool {
	for c := t; c != nil; c = c.extends {
		if c == other {
			return true
		}
	}
	return false
}

// String returns the type name
func (t *ElementType) String() string { return t.name }

// family returns t followed by all of its transitive subclasses
func (t *ElementType) family() []*ElementType {
	out := []*ElementType{t}
	for i := 0; i < len(out); i++ {
		out = append(out, out[i].subclasses...)
	}
	return out
}

func (t *ElementType) install(f *Field) {
	t.fields = append(t.fields, f)
	t.index[f.Name] = f
}
