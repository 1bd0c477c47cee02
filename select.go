package tgenmm

// select.go implements weighted random choice among the out-going edges of
// a vertex that share an edge kind.
//
// For each vertex and edge kind the matching edges are listed in the graph's
// edge order alongside their running weight sum.  A draw r from [0, total) picks
// the first edge whose running sum is at least r.  Because weights are
// non-negative the running sums never decrease, so a binary search finds the
// same edge a front-to-back scan would.

import (
	"golang.org/x/exp/slices"
)

// choiceTable lists the candidate edges for one (vertex, edge kind) pair
type choiceTable struct {
	edges      []int
	cumulative []float64
}

func (ct *choiceTable) add(edgeIdx int, weight float64) {
	sum := weight
	if n := len(ct.cumulative); n > 0 {
		sum += ct.cumulative[n-1]
	}
	ct.edges = append(ct.edges, edgeIdx)
	ct.cumulative = append(ct.cumulative, sum)
}

// total is the summed weight of every candidate edge
func (ct *choiceTable) total() float64 {
	if len(ct.cumulative) == 0 {
		return 0
	}
	return ct.cumulative[len(ct.cumulative)-1]
}

// choose returns the index of the chosen edge, or false if there are no candidates.
// When every candidate weighs zero the first candidate is chosen without a draw.
func (ct *choiceTable) choose(rng RandomSource) (int, bool) {
	if len(ct.edges) == 0 {
		return -1, false
	}

	total := ct.total()
	if !(total > 0) {
		return ct.edges[0], true
	}

	r := UniformRange(rng, 0, total)

	// first position whose running sum is >= r
	pos, _ := slices.BinarySearch(ct.cumulative, r)
	if pos == len(ct.cumulative) {
		return -1, false
	}
	return ct.edges[pos], true
}

// chooseEdge picks an out-going edge of the given kind from vertex 'from', returning the
// edge index and its destination vertex.  The flag is false if no such edge exists
func (g *Graph) chooseEdge(from int, kind EdgeKind, rng RandomSource) (int, int, bool) {
	var ct *choiceTable
	if kind == TransitionEdge {
		ct = &g.transitions[from]
	} else {
		ct = &g.emissions[from]
	}

	edgeIdx, found := ct.choose(rng)
	if !found {
		return -1, -1, false
	}
	return edgeIdx, g.edges[edgeIdx].to, true
}
