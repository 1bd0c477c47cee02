package tgenmm

// analyze.go looks at the shape of a compiled graph.  Validation only checks
// attributes, so a well-formed model may still contain states the walk can
// never reach, or reachable states with nowhere to go.  The walk treats the
// latter as an early end; here we find them ahead of time so they can be
// reported when the model is loaded.
//
// The transition edges are copied into a gonum directed graph and walked
// breadth-first from the start vertex.

import (
	"log/slog"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Reachability lists vertex indices, each list sorted
type Reachability struct {
	// non-observation vertices no sequence of transitions from start reaches
	Unreachable []int

	// reachable vertices entered by a transition that have no emission edge
	NoEmission []int

	// reachable vertices with no transition edge leaving them
	NoTransition []int
}

// Clean is true when nothing was found
func (rch *Reachability) Clean() bool {
	return len(rch.Unreachable) == 0 && len(rch.NoEmission) == 0 && len(rch.NoTransition) == 0
}

// buildTransitionGraph represents the transition edges among non-observation vertices
// in gonum form.  Self loops are dropped, they do not change what is reachable
func buildTransitionGraph(g *Graph) *simple.DirectedGraph {
	tg := simple.NewDirectedGraph()
	for v, rec := range g.vertices {
		if rec.kind != ObservationVertex {
			tg.AddNode(simple.Node(v))
		}
	}
	for _, rec := range g.edges {
		if rec.kind != TransitionEdge || rec.from == rec.to {
			continue
		}
		tg.SetEdge(simple.Edge{F: simple.Node(rec.from), T: simple.Node(rec.to)})
	}
	return tg
}

func analyzeReachability(g *Graph) *Reachability {
	rch := &Reachability{Unreachable: []int{}, NoEmission: []int{}, NoTransition: []int{}}
	tg := buildTransitionGraph(g)

	reached := make(map[int]bool)
	reached[g.start] = true
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) { reached[int(n.ID())] = true },
	}
	bf.Walk(tg, simple.Node(g.start), nil)

	// states the cursor can land on, i.e. the destinations of reachable transitions
	entered := make(map[int]bool)
	for v := range reached {
		for _, e := range g.transitions[v].edges {
			entered[g.edges[e].to] = true
		}
	}

	for v, rec := range g.vertices {
		if rec.kind == ObservationVertex {
			continue
		}
		if !reached[v] {
			rch.Unreachable = append(rch.Unreachable, v)
			continue
		}
		if len(g.transitions[v].edges) == 0 {
			rch.NoTransition = append(rch.NoTransition, v)
		}
		if entered[v] && len(g.emissions[v].edges) == 0 {
			rch.NoEmission = append(rch.NoEmission, v)
		}
	}

	slices.Sort(rch.Unreachable)
	slices.Sort(rch.NoEmission)
	slices.Sort(rch.NoTransition)
	return rch
}

func (rch *Reachability) log(logger *slog.Logger, g *Graph) {
	ids := func(vs []int) []string {
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			out = append(out, g.vertices[v].id)
		}
		return out
	}
	if len(rch.Unreachable) > 0 {
		logger.Warn("model has states unreachable from start", "ids", ids(rch.Unreachable))
	}
	if len(rch.NoEmission) > 0 {
		logger.Warn("model has reachable states without emission edges", "ids", ids(rch.NoEmission))
	}
	if len(rch.NoTransition) > 0 {
		logger.Warn("model has reachable states without transition edges", "ids", ids(rch.NoTransition))
	}
}
