package model

import (
	"github.com/google/btree"

	"github.com/conduit-lang/metamodel/pkg/schema"
)

// btreeDegree is the node width of collection trees
const btreeDegree = 8

type handleItem Handle

func (h handleItem) Less(than btree.Item) bool {
	return h < than.(handleItem)
}

// Collection is the child side of an association: an ordered set of
// element handles. Iteration follows creation order.
type Collection struct {
	graph *Graph
	owner Handle
	field *schema.Field
	tree  *btree.BTree
}

func newCollection(g *Graph, owner Handle, field *schema.Field) *Collection {
	return &Collection{
		graph: g,
		owner: owner,
		field: field,
		tree:  btree.New(btreeDegree),
	}
}

// Field returns the collection's field descriptor
func (c *Collection) Field() *schema.Field {
	return c.field
}

// Owner returns the element holding the collection
func (c *Collection) Owner() *Element {
	return c.graph.elements[c.owner]
}

// Len returns the number of children
func (c *Collection) Len() int {
	return c.tree.Len()
}

// Limit returns the declared maximum size, 0 when unbounded
func (c *Collection) Limit() int {
	return c.field.Limit
}

// Full reports whether one more child would exceed the limit
func (c *Collection) Full() bool {
	return c.field.Limit > 0 && c.tree.Len() >= c.field.Limit
}

// Contains reports whether e is a child
func (c *Collection) Contains(e *Element) bool {
	if e == nil || e.graph != c.graph {
		return false
	}
	return c.tree.Has(handleItem(e.handle))
}

// Handles returns the child handles in ascending order
func (c *Collection) Handles() []Handle {
	out := make([]Handle, 0, c.tree.Len())
	c.tree.Ascend(func(i btree.Item) bool {
		out = append(out, Handle(i.(handleItem)))
		return true
	})
	return out
}

// Elements returns the children in ascending handle order
func (c *Collection) Elements() []*Element {
	out := make([]*Element, 0, c.tree.Len())
	c.Each(func(e *Element) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Each calls fn for every child until fn returns false
func (c *Collection) Each(fn func(*Element) bool) {
	c.tree.Ascend(func(i btree.Item) bool {
		return fn(c.graph.elements[Handle(i.(handleItem))])
	})
}

func (c *Collection) insert(h Handle) {
	c.tree.ReplaceOrInsert(handleItem(h))
}

func (c *Collection) remove(h Handle) {
	c.tree.Delete(handleItem(h))
}
