package tgenmm

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loopGraphML = `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="d0" for="node" attr.name="type" attr.type="string"/>
  <key id="d1" for="edge" attr.name="type" attr.type="string"/>
  <key id="d2" for="edge" attr.name="weight" attr.type="double"/>
  <key id="d3" for="edge" attr.name="lognorm_mu" attr.type="double"><default>0</default></key>
  <key id="d4" for="edge" attr.name="lognorm_sigma" attr.type="double"><default>0</default></key>
  <key id="d5" for="edge" attr.name="exp_lambda" attr.type="double"/>
  <graph id="loop" edgedefault="directed">
    <node id="start"/>
    <node id="S1"><data key="d0">state</data></node>
    <node id="S2"><data key="d0">state</data></node>
    <node id="+"><data key="d0">observation</data></node>
    <node id="-"><data key="d0">observation</data></node>
    <node id="$"><data key="d0">observation</data></node>
    <node id="F"><data key="d0">observation</data></node>
    <edge source="start" target="S1"><data key="d1">transition</data><data key="d2">1</data></edge>
    <edge source="S1" target="S1"><data key="d1">transition</data><data key="d2">3</data></edge>
    <edge source="S1" target="S2"><data key="d1">transition</data><data key="d2">1</data></edge>
    <edge source="S2" target="S1"><data key="d1">transition</data><data key="d2">1</data></edge>
    <edge source="S1" target="+"><data key="d1">emission</data><data key="d2">1</data><data key="d5">0.001</data></edge>
    <edge source="S1" target="-"><data key="d1">emission</data><data key="d2">1</data><data key="d3">5</data><data key="d4">1</data><data key="d5">0</data></edge>
    <edge source="S2" target="$"><data key="d1">emission</data><data key="d2">1</data><data key="d5">0.01</data></edge>
    <edge source="S2" target="F"><data key="d1">emission</data><data key="d2"> 0.05 </data><data key="d5">1</data></edge>
  </graph>
</graphml>
`

func TestReadGraphML(t *testing.T) {
	ag, err := ReadGraphML(strings.NewReader(loopGraphML))
	require.NoError(t, err)
	assert.Equal(t, 7, ag.NumVertices())
	assert.Equal(t, 8, ag.NumEdges())

	id, ok := ag.VertexString(0, AttrID)
	require.True(t, ok)
	assert.Equal(t, StartID, id)
	_, ok = ag.VertexString(0, AttrType)
	assert.False(t, ok, "an absent string key reads as empty")

	// an absent numeric key without default reads as NaN
	attr, present := ag.EdgeAttr(0, AttrExpLambda)
	require.True(t, present)
	assert.True(t, math.IsNaN(attr.Num))

	mu, ok := ag.EdgeNumber(4, AttrLogNormMu)
	require.True(t, ok)
	assert.Equal(t, 0.0, mu, "defaults apply")

	weight, ok := ag.EdgeNumber(7, AttrWeight)
	require.True(t, ok)
	assert.Equal(t, 0.05, weight)

	_, err = LoadModel(ag, WithLogger(discardLogger()))
	assert.NoError(t, err)
}

func TestReadGraphMLIDOverride(t *testing.T) {
	doc := `<graphml>
  <key id="vid" for="node" attr.name="id" attr.type="string"/>
  <key id="t" for="all" attr.name="type" attr.type="string"/>
  <key id="w" for="edge" attr.name="weight" attr.type="int"/>
  <key id="l" for="edge" attr.name="exp_lambda" attr.type="double"><default>2</default></key>
  <key id="m" for="edge" attr.name="lognorm_mu" attr.type="double"><default>0</default></key>
  <key id="s" for="edge" attr.name="lognorm_sigma" attr.type="double"><default>0</default></key>
  <graph edgedefault="directed">
    <node id="n0"><data key="vid">start</data></node>
    <node id="n1"><data key="vid">S1</data><data key="t">state</data></node>
    <node id="n2"><data key="vid">+</data><data key="t">observation</data></node>
    <edge source="n0" target="n1"><data key="t">transition</data><data key="w">1</data></edge>
    <edge source="n1" target="n2"><data key="t">emission</data><data key="w">1</data></edge>
  </graph>
</graphml>`

	ag, err := ReadGraphML(strings.NewReader(doc))
	require.NoError(t, err)
	id, _ := ag.VertexString(2, AttrID)
	assert.Equal(t, "+", id)

	rng := &seqSource{vals: []float64{0.5, 0.5, 0}}
	mm, err := LoadModel(ag, WithRandomSource(rng), WithLogger(discardLogger()))
	require.NoError(t, err)
	obs, delay := mm.NextObservation()
	assert.Equal(t, PacketToServer, obs)
	assert.Equal(t, uint64(4), delay)
}

func TestReadGraphMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"malformed", `<graphml><graph>`, ""},
		{"no graph", `<graphml/>`, "no graph"},
		{"undirected", `<graphml><graph id="g" edgedefault="undirected"/></graphml>`, "undirected"},
		{"undeclared key", `<graphml><graph><node id="a"><data key="k">x</data></node></graph></graphml>`, "undeclared key"},
		{"bad number", `<graphml><key id="w" for="node" attr.name="w" attr.type="double"/>
			<graph><node id="a"><data key="w">heavy</data></node></graph></graphml>`, "not a number"},
		{"bad key type", `<graphml><key id="w" for="node" attr.type="complex"/><graph/></graphml>`, "unsupported attr.type"},
		{"duplicate node", `<graphml><graph><node id="a"/><node id="a"/></graph></graphml>`, "duplicated node id"},
		{"unknown source", `<graphml><graph><node id="a"/><edge source="b" target="a"/></graph></graphml>`, "unknown source"},
		{"unknown target", `<graphml><graph><node id="a"/><edge source="a" target="b"/></graph></graphml>`, "unknown target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGraphML(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrGraphSource)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadGraphFileGraphML(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "loop.graphml")
	require.NoError(t, os.WriteFile(filename, []byte(loopGraphML), 0o644))

	ag, err := LoadGraphFile(filename)
	require.NoError(t, err)
	assert.Equal(t, 8, ag.NumEdges())

	bad := filepath.Join(t.TempDir(), "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte("<graphml><graph>"), 0o644))
	_, err = LoadGraphFile(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraphSource)
	assert.Contains(t, err.Error(), bad)
}
