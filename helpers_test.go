package tgenmm

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// seqSource replays a fixed list of uniform draws, cycling when it runs out
type seqSource struct {
	vals  []float64
	drawn int
}

func (s *seqSource) RandU01() float64 {
	v := s.vals[s.drawn%len(s.vals)]
	s.drawn += 1
	return v
}

// pcgSource is a seeded source, for tests that need many draws
type pcgSource struct {
	r *rand.Rand
}

func newPCGSource(seed uint64) *pcgSource {
	return &pcgSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *pcgSource) RandU01() float64 {
	return p.r.Float64()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func vertexAttrs(id, vtype string) Attrs {
	attrs := Attrs{AttrID: StrAttr(id)}
	if len(vtype) > 0 {
		attrs[AttrType] = StrAttr(vtype)
	}
	return attrs
}

func transitionAttrs(weight float64) Attrs {
	return Attrs{AttrType: StrAttr("transition"), AttrWeight: NumAttr(weight)}
}

func emissionAttrs(weight, mu, sigma, lambda float64) Attrs {
	return Attrs{
		AttrType:         StrAttr("emission"),
		AttrWeight:       NumAttr(weight),
		AttrLogNormMu:    NumAttr(mu),
		AttrLogNormSigma: NumAttr(sigma),
		AttrExpLambda:    NumAttr(lambda),
	}
}

func mustAddEdge(t *testing.T, ag *AttributedGraph, from, to int, attrs Attrs) int {
	t.Helper()
	e, err := ag.AddEdge(from, to, attrs)
	require.NoError(t, err)
	return e
}

// scenarioGraph is start -> S1 -> '+', the emission exponential with rate 2
func scenarioGraph(t *testing.T) *AttributedGraph {
	t.Helper()
	ag := CreateAttributedGraph()
	start := ag.AddVertex(vertexAttrs(StartID, ""))
	s1 := ag.AddVertex(vertexAttrs("S1", "state"))
	plus := ag.AddVertex(vertexAttrs(ToServerID, "observation"))
	mustAddEdge(t, ag, start, s1, transitionAttrs(1))
	mustAddEdge(t, ag, s1, plus, emissionAttrs(1, 0, 0, 2.0))
	return ag
}

// loopDesc describes a model that cycles between two states and ends rarely
func loopDesc() *GraphDesc {
	gd := CreateGraphDesc("loop")
	gd.AddVertex(map[string]any{"id": "start"})
	gd.AddVertex(map[string]any{"id": "S1", "type": "state"})
	gd.AddVertex(map[string]any{"id": "S2", "type": "state"})
	gd.AddVertex(map[string]any{"id": "+", "type": "observation"})
	gd.AddVertex(map[string]any{"id": "-", "type": "observation"})
	gd.AddVertex(map[string]any{"id": "$", "type": "observation"})
	gd.AddVertex(map[string]any{"id": "F", "type": "observation"})

	gd.AddEdge("start", "S1", map[string]any{"type": "transition", "weight": 1.0})
	gd.AddEdge("S1", "S1", map[string]any{"type": "transition", "weight": 3.0})
	gd.AddEdge("S1", "S2", map[string]any{"type": "transition", "weight": 1.0})
	gd.AddEdge("S2", "S1", map[string]any{"type": "transition", "weight": 1.0})

	emission := func(weight, mu, sigma, lambda float64) map[string]any {
		return map[string]any{"type": "emission", "weight": weight,
			"lognorm_mu": mu, "lognorm_sigma": sigma, "exp_lambda": lambda}
	}
	gd.AddEdge("S1", "+", emission(1.0, 0, 0, 0.001))
	gd.AddEdge("S1", "-", emission(1.0, 5.0, 1.0, 0))
	gd.AddEdge("S2", "$", emission(1.0, 0, 0, 0.01))
	gd.AddEdge("S2", "F", emission(0.05, 0, 0, 1.0))
	return gd
}

func loopGraph(t *testing.T) *AttributedGraph {
	t.Helper()
	ag, err := loopDesc().AttributedGraph()
	require.NoError(t, err)
	return ag
}

func buildGraph(t *testing.T, ag *AttributedGraph) *Graph {
	t.Helper()
	g, err := BuildGraph(ag, discardLogger())
	require.NoError(t, err)
	return g
}

type step struct {
	obs   Observation
	delay uint64
}

func walk(mm *Model, n int) []step {
	steps := make([]step, 0, n)
	for i := 0; i < n; i++ {
		obs, delay := mm.NextObservation()
		steps = append(steps, step{obs: obs, delay: delay})
	}
	return steps
}

// writeLoopModel stores loopDesc as yaml in a temporary directory and returns its path
func writeLoopModel(t *testing.T) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "loop.yaml")
	require.NoError(t, loopDesc().WriteToFile(filename))
	return filename
}
