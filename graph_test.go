package tgenmm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributedGraphEdges(t *testing.T) {
	ag := CreateAttributedGraph()
	a := ag.AddVertex(nil)
	b := ag.AddVertex(vertexAttrs("b", "state"))

	e0 := mustAddEdge(t, ag, a, b, nil)
	e1 := mustAddEdge(t, ag, a, a, nil)
	e2 := mustAddEdge(t, ag, b, a, nil)

	assert.Equal(t, 2, ag.NumVertices())
	assert.Equal(t, 3, ag.NumEdges())
	assert.Equal(t, []int{e0, e1}, ag.OutEdges(a))
	assert.Equal(t, []int{e2}, ag.OutEdges(b))
	assert.Nil(t, ag.OutEdges(7))

	from, to := ag.Endpoints(e2)
	assert.Equal(t, b, from)
	assert.Equal(t, a, to)

	_, err := ag.AddEdge(a, 2, nil)
	assert.Error(t, err)
	_, err = ag.AddEdge(-1, a, nil)
	assert.Error(t, err)
}

func TestAttributedGraphLookups(t *testing.T) {
	ag := CreateAttributedGraph()
	v := ag.AddVertex(Attrs{"id": StrAttr("S1"), "type": StrAttr(""), "weight": NumAttr(2)})
	w := ag.AddVertex(nil)
	e := mustAddEdge(t, ag, v, w, Attrs{"weight": NumAttr(1.5), "mu": NumAttr(math.NaN()), "type": StrAttr("transition")})

	id, ok := ag.VertexString(v, "id")
	require.True(t, ok)
	assert.Equal(t, "S1", id)

	_, ok = ag.VertexString(v, "type")
	assert.False(t, ok, "empty strings count as absent")
	_, ok = ag.VertexString(v, "weight")
	assert.False(t, ok, "numbers are not strings")
	_, ok = ag.VertexString(w, "id")
	assert.False(t, ok)

	weight, ok := ag.EdgeNumber(e, "weight")
	require.True(t, ok)
	assert.Equal(t, 1.5, weight)

	_, ok = ag.EdgeNumber(e, "mu")
	assert.False(t, ok, "NaN counts as absent")
	_, ok = ag.EdgeNumber(e, "type")
	assert.False(t, ok)
	_, ok = ag.EdgeNumber(e, "lambda")
	assert.False(t, ok)

	typeStr, ok := ag.EdgeString(e, "type")
	require.True(t, ok)
	assert.Equal(t, "transition", typeStr)
}
