package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func petriNet(t *testing.T) (*Registry, *ElementType, *ElementType) {
	t.Helper()

	r := NewRegistry()
	place, err := r.DefineElement("Place")
	require.NoError(t, err)
	transition, err := r.DefineElement("Transition")
	require.NoError(t, err)
	return r, place, transition
}

func TestDefineElement(t *testing.T) {
	t.Run("register and lookup", func(t *testing.T) {
		r := NewRegistry()

		place, err := r.DefineElement("Place")
		require.NoError(t, err)

		got, ok := r.Element("Place")
		require.True(t, ok)
		assert.Same(t, place, got)
		assert.Equal(t, 1, r.Count())
	})

	t.Run("duplicate name", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.DefineElement("Place")
		require.NoError(t, err)

		_, err = r.DefineElement("Place")
		require.ErrorIs(t, err, ErrDuplicateElement)

		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "Place", schemaErr.Element)
	})

	t.Run("invalid names", func(t *testing.T) {
		r := NewRegistry()
		for _, name := range []string{"", "_Hidden", "nil", "2fast", "with space"} {
			_, err := r.DefineElement(name)
			assert.ErrorIs(t, err, ErrInvalidName, name)
		}
		assert.Equal(t, 0, r.Count())
	})

	t.Run("subclass copies inherited fields", func(t *testing.T) {
		r := NewRegistry()
		node, err := r.DefineElement("Node", Abstract())
		require.NoError(t, err)
		require.NoError(t, r.DefineAttribute(node, "name"))

		place, err := r.DefineElement("Place", Extends(node))
		require.NoError(t, err)

		f, ok := place.Field("name")
		require.True(t, ok)
		assert.Equal(t, KindAttribute, f.Kind)
		assert.True(t, node.Abstract())
		assert.False(t, place.Abstract())
		assert.True(t, place.IsA(node))
		assert.False(t, node.IsA(place))
	})

	t.Run("superclass from another registry", func(t *testing.T) {
		other := NewRegistry()
		foreign, err := other.DefineElement("Node")
		require.NoError(t, err)

		_, err = NewRegistry().DefineElement("Place", Extends(foreign))
		assert.ErrorIs(t, err, ErrUnknownElement)
	})
}

func TestDefineAttribute(t *testing.T) {
	t.Run("duplicate field", func(t *testing.T) {
		r, place, _ := petriNet(t)
		require.NoError(t, r.DefineAttribute(place, "tokens"))
		assert.ErrorIs(t, r.DefineAttribute(place, "tokens"), ErrDuplicateField)
	})

	t.Run("reserved marker and words", func(t *testing.T) {
		r, place, _ := petriNet(t)
		assert.ErrorIs(t, r.DefineAttribute(place, "_internal"), ErrInvalidName)
		assert.ErrorIs(t, r.DefineAttribute(place, "true"), ErrInvalidName)
		assert.Empty(t, place.Fields())
	})

	t.Run("propagates to existing subclasses", func(t *testing.T) {
		r := NewRegistry()
		node, err := r.DefineElement("Node")
		require.NoError(t, err)
		place, err := r.DefineElement("Place", Extends(node))
		require.NoError(t, err)
		inner, err := r.DefineElement("InterfacePlace", Extends(place))
		require.NoError(t, err)

		require.NoError(t, r.DefineAttribute(node, "name"))

		_, ok := place.Field("name")
		assert.True(t, ok)
		_, ok = inner.Field("name")
		assert.True(t, ok)

		// and to subclasses declared afterwards
		late, err := r.DefineElement("LatePlace", Extends(place))
		require.NoError(t, err)
		_, ok = late.Field("name")
		assert.True(t, ok)
	})

	t.Run("collision with subclass field", func(t *testing.T) {
		r := NewRegistry()
		node, err := r.DefineElement("Node")
		require.NoError(t, err)
		place, err := r.DefineElement("Place", Extends(node))
		require.NoError(t, err)
		require.NoError(t, r.DefineAttribute(place, "name"))

		err = r.DefineAttribute(node, "name")
		require.ErrorIs(t, err, ErrDuplicateField)
		_, ok := node.Field("name")
		assert.False(t, ok, "failed declaration must not leave a partial field")
	})

	t.Run("collision with inherited field", func(t *testing.T) {
		r := NewRegistry()
		node, err := r.DefineElement("Node")
		require.NoError(t, err)
		require.NoError(t, r.DefineAttribute(node, "name"))
		place, err := r.DefineElement("Place", Extends(node))
		require.NoError(t, err)

		assert.ErrorIs(t, r.DefineAttribute(place, "name"), ErrDuplicateField)
	})
}

func TestDefineAssociation(t *testing.T) {
	t.Run("installs both sides", func(t *testing.T) {
		r, place, transition := petriNet(t)
		require.NoError(t, r.DefineAssociation(place, transition, "from", "outputs", WithLimit(2)))

		ref, ok := transition.Field("from")
		require.True(t, ok)
		assert.Equal(t, KindParentReference, ref.Kind)
		assert.Equal(t, "outputs", ref.Peer)
		assert.Same(t, place, ref.Target)
		assert.True(t, ref.Required())

		coll, ok := place.Field("outputs")
		require.True(t, ok)
		assert.Equal(t, KindChildCollection, coll.Kind)
		assert.Equal(t, "from", coll.Peer)
		assert.Equal(t, 2, coll.Limit)
	})

	t.Run("self-association must be optional", func(t *testing.T) {
		r := NewRegistry()
		node, err := r.DefineElement("Node")
		require.NoError(t, err)

		err = r.DefineAssociation(node, node, "parent", "children")
		require.ErrorIs(t, err, ErrSelfAssociation)
		_, ok := node.Field("parent")
		assert.False(t, ok)

		require.NoError(t, r.DefineAssociation(node, node, "parent", "children", Optional()))
	})

	t.Run("self-association needs distinct names", func(t *testing.T) {
		r := NewRegistry()
		node, err := r.DefineElement("Node")
		require.NoError(t, err)

		err = r.DefineAssociation(node, node, "link", "link", Optional())
		assert.ErrorIs(t, err, ErrSelfAssociation)
	})

	t.Run("limit must be positive", func(t *testing.T) {
		r, place, transition := petriNet(t)
		for _, limit := range []int{0, -1} {
			err := r.DefineAssociation(place, transition, "from", "outputs", WithLimit(limit))
			assert.ErrorIs(t, err, ErrInvalidLimit)
		}
		assert.Empty(t, place.Fields())
		assert.Empty(t, transition.Fields())
	})

	t.Run("collision on either side", func(t *testing.T) {
		r, place, transition := petriNet(t)
		require.NoError(t, r.DefineAttribute(place, "outputs"))

		err := r.DefineAssociation(place, transition, "from", "outputs")
		require.ErrorIs(t, err, ErrDuplicateField)
		_, ok := transition.Field("from")
		assert.False(t, ok)
	})

	t.Run("propagates to subclasses of both sides", func(t *testing.T) {
		r := NewRegistry()
		net, err := r.DefineElement("Net")
		require.NoError(t, err)
		node, err := r.DefineElement("Node", Abstract())
		require.NoError(t, err)
		place, err := r.DefineElement("Place", Extends(node))
		require.NoError(t, err)

		require.NoError(t, r.DefineAssociation(net, node, "of", "nodes"))

		f, ok := place.Field("of")
		require.True(t, ok)
		assert.Same(t, net, f.Target)
	})
}

func TestDescribe(t *testing.T) {
	r, place, transition := petriNet(t)
	require.NoError(t, r.DefineAttribute(place, "name"))
	require.NoError(t, r.DefineAssociation(place, transition, "from", "outputs", WithLimit(2)))
	require.NoError(t, r.DefineAssociation(transition, place, "source", "produced", Optional()))
	require.NoError(t, r.DefineAssociation(place, place, "next", "previous", Optional()))

	expected := `Element Place
    <attribute> name
    Transition[2] outputs
    Transition source (optional)
    Place next (optional)
    Place[] previous
Element Transition
    Place from
    Place[] produced`
	assert.Equal(t, expected, r.Describe())
}

func TestRequiredCycles(t *testing.T) {
	r := NewRegistry()
	a, err := r.DefineElement("A")
	require.NoError(t, err)
	b, err := r.DefineElement("B")
	require.NoError(t, err)
	c, err := r.DefineElement("C")
	require.NoError(t, err)

	require.NoError(t, r.DefineAssociation(a, b, "a", "bs"))
	require.NoError(t, r.DefineAssociation(b, a, "b", "as"))
	require.NoError(t, r.DefineAssociation(a, c, "owner", "cs", Optional()))

	cycles := r.RequiredCycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"A", "B"}, []string(cycles[0]))
	assert.Contains(t, cycles[0].String(), " -> ")
}
