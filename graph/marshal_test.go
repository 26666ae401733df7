package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ripple"
	"github.com/syssam/ripple/graph"
)

// TestGraphRoundTrip tests that a marshaled model restores with its resolved
// policy table intact, without re-deriving.
func TestGraphRoundTrip(t *testing.T) {
	t.Parallel()

	g := build(t, Airport{}, Flight{}, Author{}, Location{}, Student{}, Course{}, Category{})

	b, err := graph.MarshalGraph(g)
	require.NoError(t, err)

	restored, err := graph.UnmarshalGraph(b)
	require.NoError(t, err)

	require.Len(t, restored.Types, len(g.Types))
	require.Len(t, restored.Assocs, len(g.Assocs))

	for _, want := range g.Types {
		got, ok := restored.Type(want.Name)
		require.True(t, ok, "type %s missing after round trip", want.Name)
		assert.Equal(t, want.Table, got.Table)
		require.Len(t, got.Rels, len(want.Rels))
		for i, wr := range want.Rels {
			gr := got.Rels[i]
			assert.Equal(t, wr.Name, gr.Name)
			assert.Equal(t, wr.Type.Name, gr.Type.Name)
			assert.Equal(t, wr.Unique, gr.Unique)
			assert.Equal(t, wr.Required, gr.Required)
			assert.Equal(t, wr.Inverse, gr.Inverse)
			assert.Equal(t, wr.Override, gr.Override)
		}
	}

	for i, want := range g.Assocs {
		got := restored.Assocs[i]
		assert.Equal(t, want.Label, got.Label)
		assert.Equal(t, want.Rel, got.Rel)
		assert.Equal(t, want.DeclaredOwner, got.DeclaredOwner)
		if want.Owner != nil {
			require.NotNil(t, got.Owner)
			assert.Equal(t, want.Owner.Name, got.Owner.Name)
		}
		for _, d := range []ripple.Direction{ripple.OwnerToDependent, ripple.DependentToOwner} {
			assert.Equal(t, want.Policy(d), got.Policy(d), "%s %s", want.Label, d)
		}
	}
}

// TestGraphRoundTripSides tests that side pairing and directions survive the
// round trip, so the executor can run on a restored model.
func TestGraphRoundTripSides(t *testing.T) {
	t.Parallel()

	g := build(t, Airport{}, Flight{})
	b, err := graph.MarshalGraph(g)
	require.NoError(t, err)
	restored, err := graph.UnmarshalGraph(b)
	require.NoError(t, err)

	airport, ok := restored.Type("Airport")
	require.True(t, ok)
	flights, ok := airport.Rel("flights")
	require.True(t, ok)
	assert.Equal(t, ripple.OwnerToDependent, flights.Direction())
	assert.Equal(t, ripple.PolicyAll, restored.PolicyFor(flights))

	flight, ok := restored.Type("Flight")
	require.True(t, ok)
	back, ok := flight.Rel("airport")
	require.True(t, ok)
	assert.Same(t, flights, back.Ref)
	assert.Equal(t, ripple.PolicyNone, restored.PolicyFor(back))
}

func TestUnmarshalGraphInvalid(t *testing.T) {
	t.Parallel()

	_, err := graph.UnmarshalGraph([]byte("not msgpack"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding snapshot")
}
