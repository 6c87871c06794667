package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/conduit-lang/metamodel/pkg/schema"
)

// Handle addresses an element within its graph's arena
type Handle uint32

// Key identifies an element across graphs
type Key struct {
	Graph  uuid.UUID
	Handle Handle
}

// String renders the key as "<graph>/<handle>"
func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.Graph, k.Handle)
}

// slot stores one field value; references and collections hold handles
type slot struct {
	set  bool
	attr interface{}
	ref  Handle
	coll *Collection
}

// Element is one node of a model graph
type Element struct {
	graph  *Graph
	handle Handle
	typ    *schema.ElementType
	values map[string]*slot
}

// FieldValue is an initial field value passed to a constructor
type FieldValue struct {
	Name  string
	Value interface{}
}

// With pairs a field name with a value
func With(name string, value interface{}) FieldValue {
	return FieldValue{Name: name, Value: value}
}

// Graph returns the owning graph
func (e *Element) Graph() *Graph {
	return e.graph
}

// Handle returns the element's arena handle
func (e *Element) Handle() Handle {
	return e.handle
}

// Key returns the element's graph-independent key
func (e *Element) Key() Key {
	return Key{Graph: e.graph.id, Handle: e.handle}
}

// Type returns the element type
func (e *Element) Type() *schema.ElementType {
	return e.typ
}

// String renders the element as "Type#handle"
func (e *Element) String() string {
	return fmt.Sprintf("%s#%d", e.typ.Name(), e.handle)
}

// Get reads a field. Reading an unset collection materializes it; later
// reads return the same collection.
func (e *Element) Get(name string) (Value, error) {
	f, err := e.field(name)
	if err != nil {
		return Value{}, err
	}

	switch f.Kind {
	case schema.KindChildCollection:
		return Value{kind: ValueCollection, set: true, coll: e.collection(f), graph: e.graph}, nil
	case schema.KindParentReference:
		s := e.values[name]
		if s == nil || !s.set {
			return Value{kind: ValueElement, graph: e.graph}, nil
		}
		return Value{kind: ValueElement, set: true, ref: s.ref, graph: e.graph}, nil
	default:
		s := e.values[name]
		if s == nil {
			return Value{kind: ValueAttribute, graph: e.graph}, nil
		}
		return Value{kind: ValueAttribute, set: s.set, attr: s.attr, graph: e.graph}, nil
	}
}

// Attr reads an attribute value
func (e *Element) Attr(name string) (interface{}, error) {
	v, err := e.Get(name)
	if err != nil {
		return nil, err
	}
	if v.kind != ValueAttribute {
		return nil, e.fail(name, ErrTypeMismatch, "not an attribute")
	}
	return v.attr, nil
}

// Ref reads a parent reference, nil when unset
func (e *Element) Ref(name string) (*Element, error) {
	v, err := e.Get(name)
	if err != nil {
		return nil, err
	}
	if v.kind != ValueElement {
		return nil, e.fail(name, ErrTypeMismatch, "not a parent reference")
	}
	return v.Element(), nil
}

// Children reads a child collection
func (e *Element) Children(name string) (*Collection, error) {
	v, err := e.Get(name)
	if err != nil {
		return nil, err
	}
	if v.kind != ValueCollection {
		return nil, e.fail(name, ErrTypeMismatch, "not a child collection")
	}
	return v.coll, nil
}

// IsSet reports whether a field holds a value
func (e *Element) IsSet(name string) bool {
	s := e.values[name]
	if s == nil {
		return false
	}
	if s.coll != nil {
		return true
	}
	return s.set
}

// Set writes a field. Parent references keep the peer collection of the
// old and new parent in sync; collections can not be written.
func (e *Element) Set(name string, value interface{}) error {
	f, err := e.field(name)
	if err != nil {
		return err
	}

	switch f.Kind {
	case schema.KindChildCollection:
		return e.fail(name, ErrReadOnlyField, fmt.Sprintf("set %s.%s instead", f.Target.Name(), f.Peer))
	case schema.KindParentReference:
		return e.setRef(f, value)
	default:
		e.slot(name).set = true
		e.slot(name).attr = normalize(value)
		return nil
	}
}

// Validate reports every required parent reference that is unset
func (e *Element) Validate() error {
	var missing []string
	for _, f := range e.typ.Fields() {
		if f.Required() && !e.IsSet(f.Name) {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Type: e.typ.Name(), Element: e.String(), Fields: missing, Err: ErrMissingRequired}
	}
	return nil
}

func (e *Element) setRef(f *schema.Field, value interface{}) error {
	var parent *Element
	switch v := value.(type) {
	case nil:
	case *Element:
		parent = v
	default:
		return e.fail(f.Name, ErrTypeMismatch, fmt.Sprintf("expected %s, got %T", f.Target.Name(), value))
	}

	s := e.slot(f.Name)
	var old *Element
	if s.set {
		old = e.graph.elements[s.ref]
	}

	if parent == nil {
		if old == nil {
			return nil
		}
		if !f.Optional {
			return e.fail(f.Name, ErrMissingRequired, "required reference can not be cleared")
		}
		old.collection(peerOf(old, f)).remove(e.handle)
		s.set = false
		return nil
	}

	if parent.graph != e.graph {
		return e.fail(f.Name, ErrTypeMismatch, fmt.Sprintf("%s belongs to another graph", parent))
	}
	if !parent.typ.IsA(f.Target) {
		return e.fail(f.Name, ErrTypeMismatch, fmt.Sprintf("expected %s, got %s", f.Target.Name(), parent.typ.Name()))
	}
	if parent == old {
		return nil
	}

	// Capacity is checked before unlinking so a failed write changes nothing
	peer := parent.collection(peerOf(parent, f))
	if peer.Full() {
		return e.fail(f.Name, ErrCapacityExceeded,
			fmt.Sprintf("%s.%s already holds %d", parent, peer.field.Name, peer.field.Limit))
	}

	if old != nil {
		old.collection(peerOf(old, f)).remove(e.handle)
	}
	peer.insert(e.handle)
	s.set = true
	s.ref = parent.handle
	return nil
}

// peerOf returns the collection field on parent that mirrors ref
func peerOf(parent *Element, ref *schema.Field) *schema.Field {
	f, _ := parent.typ.Field(ref.Peer)
	return f
}

func (e *Element) field(name string) (*schema.Field, error) {
	f, ok := e.typ.Field(name)
	if !ok {
		return nil, e.fail(name, ErrUnknownField, "")
	}
	return f, nil
}

func (e *Element) slot(name string) *slot {
	s := e.values[name]
	if s == nil {
		s = &slot{}
		e.values[name] = s
	}
	return s
}

func (e *Element) collection(f *schema.Field) *Collection {
	s := e.slot(f.Name)
	if s.coll == nil {
		s.coll = newCollection(e.graph, e.handle, f)
		s.set = true
	}
	return s.coll
}

// unlinkAll removes e from every parent collection
func (e *Element) unlinkAll() {
	for _, f := range e.typ.Fields() {
		if !f.IsReference() {
			continue
		}
		if s := e.values[f.Name]; s != nil && s.set {
			parent := e.graph.elements[s.ref]
			parent.collection(peerOf(parent, f)).remove(e.handle)
			s.set = false
		}
	}
}

func (e *Element) fail(field string, err error, detail string) error {
	return &ValidationError{Type: e.typ.Name(), Element: e.String(), Field: field, Detail: detail, Err: err}
}
