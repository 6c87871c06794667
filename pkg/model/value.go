package model

import (
	"math"
	"unicode/utf8"
)

// ValueKind tags the variant held by a Value
type ValueKind int

const (
	// ValueAttribute holds an attribute value
	ValueAttribute ValueKind = iota
	// ValueElement holds a parent reference
	ValueElement
	// ValueCollection holds a child collection
	ValueCollection
)

// String returns the string representation of the kind
func (k ValueKind) String() string {
	switch k {
	case ValueAttribute:
		return "attribute"
	case ValueElement:
		return "element"
	case ValueCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// Value is the content of one field: an attribute value, an element
// handle or a handle set.
type Value struct {
	kind  ValueKind
	set   bool
	attr  interface{}
	ref   Handle
	coll  *Collection
	graph *Graph
}

// Kind returns the variant held by v
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsSet reports whether the field was ever written. Collections are
// always set once read.
func (v Value) IsSet() bool {
	return v.set
}

// Attribute returns the attribute value, nil for other kinds
func (v Value) Attribute() interface{} {
	if v.kind != ValueAttribute {
		return nil
	}
	return v.attr
}

// Element resolves the referenced element, nil when unset
func (v Value) Element() *Element {
	if v.kind != ValueElement || !v.set {
		return nil
	}
	return v.graph.elements[v.ref]
}

// Collection returns the child collection, nil for other kinds
func (v Value) Collection() *Collection {
	if v.kind != ValueCollection {
		return nil
	}
	return v.coll
}

// normalize maps Go numeric types onto int64 and float64
func normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v)
		}
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}
	case float32:
		return float64(v)
	}
	return value
}

// serializable reports whether the notation can express value
func serializable(value interface{}) bool {
	switch v := value.(type) {
	case nil, bool:
		return true
	case string:
		// String literals hold text; raw bytes would come back as U+FFFD
		return utf8.ValidString(v)
	case int64:
		// A negative literal is a minus applied to a positive one
		return v != math.MinInt64
	case float64:
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	return false
}
