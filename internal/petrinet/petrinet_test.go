package petrinet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metamodel/internal/loader"
	"github.com/conduit-lang/metamodel/pkg/model"
)

func sample(t *testing.T) *model.Graph {
	t.Helper()

	reg, err := Schema()
	require.NoError(t, err)
	g, err := loader.ParseInstance(SampleSource(), "sample.m1", reg)
	require.NoError(t, err)
	return g
}

func TestSchema(t *testing.T) {
	reg, err := Schema()
	require.NoError(t, err)

	arc, ok := reg.Element("Arc")
	require.True(t, ok)
	assert.True(t, arc.Abstract())

	place, ok := reg.Element("InterfacePlace")
	require.True(t, ok)
	for _, field := range []string{"name", "tokens", "of", "totransitions", "fromtransitions"} {
		_, ok := place.Field(field)
		assert.True(t, ok, field)
	}
	assert.Empty(t, reg.RequiredCycles())
}

func TestClassify(t *testing.T) {
	g := sample(t)

	counts := map[Kind]int{}
	for _, e := range g.Elements() {
		counts[Classify(e)]++
	}
	assert.Equal(t, map[Kind]int{
		KindNet:           1,
		KindPlace:         3,
		KindTransition:    2,
		KindPlaceArc:      2,
		KindTransitionArc: 2,
	}, counts)

	request, ok := g.Lookup("request")
	require.True(t, ok)
	assert.True(t, IsInterface(request))
	assert.Equal(t, "request", Label(request))
}

func TestSkeleton(t *testing.T) {
	src := sample(t)

	out, err := Skeleton(src)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID(), out.ID())
	assert.Equal(t, 10, src.Len(), "source is left alone")

	root, err := out.Root()
	require.NoError(t, err)
	name, err := root.Attr("name")
	require.NoError(t, err)
	assert.Equal(t, "handshake", name)

	places, err := root.Children("places")
	require.NoError(t, err)
	transitions, err := root.Children("transitions")
	require.NoError(t, err)

	var placeNames []string
	for _, p := range places.Elements() {
		assert.False(t, IsInterface(p))
		placeNames = append(placeNames, Label(p))
	}
	assert.ElementsMatch(t, []string{"ready", "done"}, placeNames)
	require.Equal(t, 1, transitions.Len())

	fire := transitions.Elements()[0]
	in, err := fire.Children("fromplaces")
	require.NoError(t, err)
	require.Equal(t, 1, in.Len(), "the arc from the interface place is dropped")

	arc := in.Elements()[0]
	weight, err := arc.Attr("weight")
	require.NoError(t, err)
	assert.Equal(t, int64(2), weight)
	source, err := arc.Ref("source")
	require.NoError(t, err)
	assert.Equal(t, "ready", Label(source))

	tokens, err := source.Attr("tokens")
	require.NoError(t, err)
	assert.Equal(t, int64(1), tokens)

	// net, two places, one transition, two arcs
	assert.Equal(t, 6, out.Len())
	assert.Empty(t, out.Validate())
}

func TestSkeleton_RoundTrip(t *testing.T) {
	out, err := Skeleton(sample(t))
	require.NoError(t, err)

	text, err := out.Format()
	require.NoError(t, err)

	again, err := loader.ParseInstance(text, "skeleton.m1", out.Registry())
	require.NoError(t, err)
	assert.Equal(t, out.Len(), again.Len())
}

func TestSkeleton_MissingRoot(t *testing.T) {
	reg, err := Schema()
	require.NoError(t, err)

	_, err = Skeleton(model.NewGraph(reg))
	assert.ErrorIs(t, err, model.ErrMissingRoot)
}
