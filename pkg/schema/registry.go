package schema

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/compiler/lexer"
)

// Registry owns all element types of a metamodel
type Registry struct {
	types  map[string]*ElementType
	order  []*ElementType
	logger *zap.Logger
	mu     sync.RWMutex
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used for declaration events
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a new, empty schema registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		types:  make(map[string]*ElementType),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ElementOption configures an element declaration
type ElementOption func(*elementDecl)

type elementDecl struct {
	extends  *ElementType
	abstract bool
}

// Extends makes the new element a subclass of super
func Extends(super *ElementType) ElementOption {
	return func(d *elementDecl) { d.extends = super }
}

// Abstract marks the new element as not instantiable
func Abstract() ElementOption {
	return func(d *elementDecl) { d.abstract = true }
}

// DefineElement registers a new element type
func (r *Registry) DefineElement(name string, opts ...ElementOption) (*ElementType, error) {
	var decl elementDecl
	for _, opt := range opts {
		opt(&decl)
	}

	if err := checkName(name); err != nil {
		return nil, &SchemaError{Element: name, Err: ErrInvalidName, Detail: err.Error()}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[name]; exists {
		return nil, &SchemaError{Element: name, Err: ErrDuplicateElement}
	}
	if decl.extends != nil && r.types[decl.extends.name] != decl.extends {
		return nil, &SchemaError{Element: name, Err: ErrUnknownElement,
			Detail: fmt.Sprintf("superclass %s belongs to another registry", decl.extends.name)}
	}

	t := newElementType(name, decl.extends, decl.abstract)
	r.types[name] = t
	r.order = append(r.order, t)

	super := ""
	if decl.extends != nil {
		super = decl.extends.name
	}
	r.logger.Debug("element defined",
		zap.String("element", name),
		zap.String("extends", super),
		zap.Bool("abstract", decl.abstract),
		zap.Int("inherited_fields", len(t.fields)))

	return t, nil
}

// DefineAttribute adds an attribute field to t and all of its subclasses
func (r *Registry) DefineAttribute(t *ElementType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.owned(t); err != nil {
		return err
	}
	if err := checkFieldName(t, name); err != nil {
		return err
	}
	if err := checkCollision(t, name); err != nil {
		return err
	}

	r.propagate(t, &Field{Name: name, Kind: KindAttribute})
	return nil
}

// AssociationOption configures an association declaration
type AssociationOption func(*assocDecl)

type assocDecl struct {
	limit    int
	limitSet bool
	optional bool
}

// WithLimit bounds the size of the child collection
func WithLimit(n int) AssociationOption {
	return func(d *assocDecl) {
		d.limit = n
		d.limitSet = true
	}
}

// Optional allows the parent reference to stay unset
func Optional() AssociationOption {
	return func(d *assocDecl) { d.optional = true }
}

// DefineAssociation creates a parent/child association.
//
// parentField is installed on child as a reference to parent and childField
// is installed on parent as the collection of children.
func (r *Registry) DefineAssociation(parent, child *ElementType, parentField, childField string, opts ...AssociationOption) error {
	var decl assocDecl
	for _, opt := range opts {
		opt(&decl)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.owned(parent); err != nil {
		return err
	}
	if err := r.owned(child); err != nil {
		return err
	}
	if err := checkFieldName(child, parentField); err != nil {
		return err
	}
	if err := checkFieldName(parent, childField); err != nil {
		return err
	}
	if err := checkCollision(child, parentField); err != nil {
		return err
	}
	if err := checkCollision(parent, childField); err != nil {
		return err
	}

	// Both fields end up on the same types when the families overlap
	if parentField == childField && (child.IsA(parent) || parent.IsA(child)) {
		return &SchemaError{Element: parent.name, Field: childField, Err: ErrSelfAssociation,
			Detail: "parent and child field names must differ"}
	}
	if parent == child && !decl.optional {
		return &SchemaError{Element: parent.name, Field: parentField, Err: ErrSelfAssociation,
			Detail: fmt.Sprintf("%s -> %s must be optional", childField, parentField)}
	}
	if decl.limitSet && decl.limit <= 0 {
		return &SchemaError{Element: parent.name, Field: childField, Err: ErrInvalidLimit,
			Detail: fmt.Sprintf("got %d", decl.limit)}
	}

	r.propagate(child, &Field{
		Name:     parentField,
		Kind:     KindParentReference,
		Peer:     childField,
		Target:   parent,
		Optional: decl.optional,
	})
	r.propagate(parent, &Field{
		Name:   childField,
		Kind:   KindChildCollection,
		Peer:   parentField,
		Target: child,
		Limit:  decl.limit,
	})
	return nil
}

// Element returns the element type registered under name
func (r *Registry) Element(name string) (*ElementType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[name]
	return t, ok
}

// MustElement returns the element type registered under name or an error
func (r *Registry) MustElement(name string) (*ElementType, error) {
	t, ok := r.Element(name)
	if !ok {
		return nil, &SchemaError{Element: name, Err: ErrUnknownElement}
	}
	return t, nil
}

// Elements returns all element types in declaration order
func (r *Registry) Elements() []*ElementType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ElementType, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered element types
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Describe returns a human readable listing of every element type and its fields
func (r *Registry) Describe() string {
	var b strings.Builder
	for i, t := range r.Elements() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Element ")
		b.WriteString(t.name)
		if t.abstract {
			b.WriteString(" (abstract)")
		}
		if t.extends != nil {
			b.WriteString(" extends ")
			b.WriteString(t.extends.name)
		}
		for _, f := range t.fields {
			b.WriteString("\n    ")
			b.WriteString(f.Describe())
		}
	}
	return b.String()
}

// String implements fmt.Stringer
func (r *Registry) String() string {
	return r.Describe()
}

// propagate installs f on t and every current subclass. Subclasses declared
// later pick the field up from their superclass at declaration time.
func (r *Registry) propagate(t *ElementType, f *Field) {
	family := t.family()
	for _, member := range family {
		member.install(f)
	}
	r.logger.Debug("field defined",
		zap.String("element", t.name),
		zap.String("field", f.Name),
		zap.Stringer("kind", f.Kind),
		zap.Int("propagated_to", len(family)-1))
}

func (r *Registry) owned(t *ElementType) error {
	if t == nil {
		return &SchemaError{Err: ErrUnknownElement, Detail: "nil element type"}
	}
	if r.types[t.name] != t {
		return &SchemaError{Element: t.name, Err: ErrUnknownElement,
			Detail: "element belongs to another registry"}
	}
	return nil
}

// checkCollision rejects name if it exists on t (inherited fields included)
// or on any of its current subclasses
func checkCollision(t *ElementType, name string) error {
	for _, member := range t.family() {
		if existing, ok := member.index[name]; ok {
			return &SchemaError{Element: member.name, Field: name, Err: ErrDuplicateField,
				Detail: existing.Describe()}
		}
	}
	return nil
}

func checkFieldName(t *ElementType, name string) error {
	if err := checkName(name); err != nil {
		return &SchemaError{Element: t.name, Field: name, Err: ErrInvalidName, Detail: err.Error()}
	}
	return nil
}

func checkName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name is empty")
	case strings.HasPrefix(name, "_"):
		return fmt.Errorf("names can not start with an underscore")
	case lexer.IsKeyword(name):
		return fmt.Errorf("%q is a reserved word", name)
	case !lexer.IsIdentifier(name):
		return fmt.Errorf("%q is not an identifier", name)
	}
	return nil
}
