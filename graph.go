package tgenmm

// graph.go holds the attributed graph produced by the model file readers.
// Vertices and edges are kept in flat slices and are referred to by index;
// the out-going edges of each vertex are listed, by edge index, in the order
// the edges were added.  Nothing here knows about the meaning of the attributes,
// that is the job of the validator.

import (
	"fmt"
	"math"
)

// AttrKind says whether an attribute carries a string or a number
type AttrKind int

const (
	StringAttr AttrKind = iota
	NumberAttr
)

// Attr is the value of one named attribute
type Attr struct {
	Kind AttrKind
	Str  string
	Num  float64
}

// StrAttr is a constructor for a string valued attribute
func StrAttr(value string) Attr {
	return Attr{Kind: StringAttr, Str: value}
}

// NumAttr is a constructor for a numeric attribute
func NumAttr(value float64) Attr {
	return Attr{Kind: NumberAttr, Num: value}
}

// Attrs maps attribute name to value
type Attrs map[string]Attr

// AttrVertex is a vertex and its attribute bag
type AttrVertex struct {
	Attrs Attrs
}

// AttrEdge is a directed edge between two vertex indices, and its attribute bag
type AttrEdge struct {
	From  int
	To    int
	Attrs Attrs
}

// AttributedGraph is a directed multigraph with named attributes on vertices and edges
type AttributedGraph struct {
	Vertices []AttrVertex
	Edges    []AttrEdge
	out      [][]int
}

// CreateAttributedGraph is a constructor
func CreateAttributedGraph() *AttributedGraph {
	ag := new(AttributedGraph)
	ag.Vertices = make([]AttrVertex, 0)
	ag.Edges = make([]AttrEdge, 0)
	ag.out = make([][]int, 0)
	return ag
}

// AddVertex appends a vertex and returns its index
func (ag *AttributedGraph) AddVertex(attrs Attrs) int {
	if attrs == nil {
		attrs = make(Attrs)
	}
	ag.Vertices = append(ag.Vertices, AttrVertex{Attrs: attrs})
	ag.out = append(ag.out, make([]int, 0))
	return len(ag.Vertices) - 1
}

// AddEdge appends an edge from vertex 'from' to vertex 'to' and returns its index.
// An error is returned if either endpoint is not a vertex of the graph.
func (ag *AttributedGraph) AddEdge(from, to int, attrs Attrs) (int, error) {
	if from < 0 || from >= len(ag.Vertices) {
		return -1, fmt.Errorf("edge source vertex %d out of range", from)
	}
	if to < 0 || to >= len(ag.Vertices) {
		return -1, fmt.Errorf("edge destination vertex %d out of range", to)
	}
	if attrs == nil {
		attrs = make(Attrs)
	}
	ag.Edges = append(ag.Edges, AttrEdge{From: from, To: to, Attrs: attrs})
	edgeIdx := len(ag.Edges) - 1
	ag.out[from] = append(ag.out[from], edgeIdx)
	return edgeIdx, nil
}

// NumVertices returns the number of vertices
func (ag *AttributedGraph) NumVertices() int {
	return len(ag.Vertices)
}

// NumEdges returns the number of edges
func (ag *AttributedGraph) NumEdges() int {
	return len(ag.Edges)
}

// OutEdges returns the indices of the edges leaving vertex v, in insertion order
func (ag *AttributedGraph) OutEdges(v int) []int {
	if v < 0 || v >= len(ag.out) {
		return nil
	}
	return ag.out[v]
}

// Endpoints returns the source and destination vertex indices of edge e
func (ag *AttributedGraph) Endpoints(e int) (int, int) {
	edge := ag.Edges[e]
	return edge.From, edge.To
}

// VertexAttr returns the attribute named on vertex v, and whether it is present at all
func (ag *AttributedGraph) VertexAttr(v int, name string) (Attr, bool) {
	attr, present := ag.Vertices[v].Attrs[name]
	return attr, present
}

// EdgeAttr returns the attribute named on edge e, and whether it is present at all
func (ag *AttributedGraph) EdgeAttr(e int, name string) (Attr, bool) {
	attr, present := ag.Edges[e].Attrs[name]
	return attr, present
}

// VertexString returns a string attribute of vertex v.  The flag is false when the
// attribute is missing, is not a string, or is empty
func (ag *AttributedGraph) VertexString(v int, name string) (string, bool) {
	attr, present := ag.VertexAttr(v, name)
	return nonEmptyString(attr, present)
}

// EdgeString returns a string attribute of edge e, with the same rules as VertexString
func (ag *AttributedGraph) EdgeString(e int, name string) (string, bool) {
	attr, present := ag.EdgeAttr(e, name)
	return nonEmptyString(attr, present)
}

// EdgeNumber returns a numeric attribute of edge e.  A NaN value is reported as absent
func (ag *AttributedGraph) EdgeNumber(e int, name string) (float64, bool) {
	attr, present := ag.EdgeAttr(e, name)
	if !present || attr.Kind != NumberAttr || math.IsNaN(attr.Num) {
		return 0, false
	}
	return attr.Num, true
}

func nonEmptyString(attr Attr, present bool) (string, bool) {
	if !present || attr.Kind != StringAttr || len(attr.Str) == 0 {
		return "", false
	}
	return attr.Str, true
}
