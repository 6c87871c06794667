// Package model holds element instances conforming to a schema and the
// graphs that own them.
package model

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/compiler/lexer"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

// RootIdentifier is the identifier every serializable graph binds
const RootIdentifier = "root"

// DefaultIdentifierPrefix prefixes generated identifiers
const DefaultIdentifierPrefix = "e"

// Graph is an arena of elements plus a table of named identifiers.
// A Graph is not safe for concurrent mutation.
type Graph struct {
	id       uuid.UUID
	registry *schema.Registry
	elements []*Element
	names    map[string]Handle
	logger   *zap.Logger
	prefix   string
}

// Option configures a Graph
type Option func(*Graph)

// WithLogger sets the graph logger
func WithLogger(logger *zap.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithIdentifierPrefix sets the prefix of generated identifiers
func WithIdentifierPrefix(prefix string) Option {
	return func(g *Graph) {
		if lexer.IsIdentifier(prefix) && !lexer.IsKeyword(prefix) {
			g.prefix = prefix
		}
	}
}

// NewGraph creates an empty graph over reg
func NewGraph(reg *schema.Registry, opts ...Option) *Graph {
	g := &Graph{
		id:       uuid.New(),
		registry: reg,
		names:    make(map[string]Handle),
		logger:   zap.NewNop(),
		prefix:   DefaultIdentifierPrefix,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ID returns the graph identity used in element keys
func (g *Graph) ID() uuid.UUID {
	return g.id
}

// Registry returns the schema the graph conforms to
func (g *Graph) Registry() *schema.Registry {
	return g.registry
}

// Len returns the number of elements in the arena
func (g *Graph) Len() int {
	return len(g.elements)
}

// Element returns the element with handle h
func (g *Graph) Element(h Handle) (*Element, bool) {
	if int(h) >= len(g.elements) {
		return nil, false
	}
	return g.elements[h], true
}

// Elements returns every element in creation order
func (g *Graph) Elements() []*Element {
	out := make([]*Element, len(g.elements))
	copy(out, g.elements)
	return out
}

// New creates an element of the named type
func (g *Graph) New(typeName string, values ...FieldValue) (*Element, error) {
	t, err := g.registry.MustElement(typeName)
	if err != nil {
		return nil, err
	}
	return g.Instantiate(t, values...)
}

// Instantiate creates an element of type t. Every value goes through Set;
// afterwards all unset required references are reported together. On
// failure the element is removed again.
func (g *Graph) Instantiate(t *schema.ElementType, values ...FieldValue) (*Element, error) {
	if t.Abstract() {
		return nil, &ValidationError{Type: t.Name(), Err: ErrAbstractType}
	}
	if known, ok := g.registry.Element(t.Name()); !ok || known != t {
		return nil, &schema.SchemaError{Element: t.Name(), Err: schema.ErrUnknownElement,
			Detail: "element type belongs to another registry"}
	}

	e := &Element{
		graph:  g,
		handle: Handle(len(g.elements)),
		typ:    t,
		values: make(map[string]*slot),
	}
	g.elements = append(g.elements, e)

	for _, v := range values {
		if err := e.Set(v.Name, v.Value); err != nil {
			g.discard(e)
			return nil, err
		}
	}
	if err := e.Validate(); err != nil {
		g.discard(e)
		return nil, err
	}
	return e, nil
}

// discard drops the most recently created element
func (g *Graph) discard(e *Element) {
	e.unlinkAll()
	if last := len(g.elements) - 1; last >= 0 && g.elements[last] == e {
		g.elements[last] = nil
		g.elements = g.elements[:last]
	}
}

// Bind associates name with e, replacing any previous binding
func (g *Graph) Bind(name string, e *Element) error {
	if !lexer.IsIdentifier(name) || lexer.IsKeyword(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	if e == nil || e.graph != g {
		return fmt.Errorf("%w: %s is not an element of this graph", ErrTypeMismatch, name)
	}
	g.names[name] = e.handle
	return nil
}

// Lookup returns the element bound to name
func (g *Graph) Lookup(name string) (*Element, bool) {
	h, ok := g.names[name]
	if !ok {
		return nil, false
	}
	return g.elements[h], true
}

// Identifiers returns all bound names, sorted
func (g *Graph) Identifiers() []string {
	out := make([]string, 0, len(g.names))
	for name := range g.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NamesOf returns the names bound to e, sorted
func (g *Graph) NamesOf(e *Element) []string {
	var out []string
	for name, h := range g.names {
		if h == e.handle {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Root returns the element bound to "root"
func (g *Graph) Root() (*Element, error) {
	root, ok := g.Lookup(RootIdentifier)
	if !ok {
		return nil, ErrMissingRoot
	}
	return root, nil
}

// Reachable returns every element reachable from root through references
// and collections, in handle order
func (g *Graph) Reachable() ([]*Element, error) {
	root, err := g.Root()
	if err != nil {
		return nil, err
	}

	seen := make([]bool, len(g.elements))
	seen[root.handle] = true
	queue := []*Element{root}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		for _, next := range e.neighbours() {
			if !seen[next.handle] {
				seen[next.handle] = true
				queue = append(queue, next)
			}
		}
	}

	var out []*Element
	for h, ok := range seen {
		if ok {
			out = append(out, g.elements[h])
		}
	}
	return out, nil
}

// Validate checks every reachable element for unset required references
func (g *Graph) Validate() []error {
	elements, err := g.Reachable()
	if err != nil {
		return []error{err}
	}
	var errs []error
	for _, e := range elements {
		if err := e.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// neighbours returns set parent references followed by collection children
func (e *Element) neighbours() []*Element {
	var out []*Element
	for _, f := range e.typ.Fields() {
		s := e.values[f.Name]
		if s == nil {
			continue
		}
		switch {
		case f.IsReference() && s.set:
			out = append(out, e.graph.elements[s.ref])
		case f.IsCollection() && s.coll != nil:
			out = append(out, s.coll.Elements()...)
		}
	}
	return out
}
