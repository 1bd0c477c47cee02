package tgenmm

// validate.go checks an AttributedGraph against the attribute schema of a
// traffic model and compiles it into the typed Graph the simulation runs on.
// Each vertex and each edge is visited once.  Problems are gathered rather
// than stopping at the first one, so a hand-written model file can be fixed
// in one round.

import (
	"fmt"
	"log/slog"
	"math"
)

type graphValidator struct {
	ag       *AttributedGraph
	logger   *slog.Logger
	problems []Problem
}

func (gv *graphValidator) fail(entity string, index int, attr string, format string, args ...any) {
	p := Problem{Entity: entity, Index: index, Attr: attr, Msg: fmt.Sprintf(format, args...)}
	gv.problems = append(gv.problems, p)
	gv.logger.Warn("model validation problem", "entity", entity, "index", index, "attr", attr, "msg", p.Msg)
}

// takeProblems returns the problems gathered so far as a ValidationError, or nil
func (gv *graphValidator) takeProblems(stage string) error {
	if len(gv.problems) == 0 {
		return nil
	}
	ve := &ValidationError{Stage: stage, Problems: gv.problems}
	gv.problems = nil
	return ve
}

// ValidateGraph checks every vertex and every edge of the graph and returns the
// index of the start vertex.  The returned error joins a vertex ValidationError and
// an edge ValidationError when both passes find problems.
func ValidateGraph(ag *AttributedGraph, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	gv := &graphValidator{ag: ag, logger: logger}

	start, vertexErr := gv.validateVertices()
	if vertexErr == nil {
		logger.Info("model passed vertex validation", "vertices", ag.NumVertices())
	} else {
		logger.Warn("model failed vertex validation", "error", vertexErr)
	}

	edgeErr := gv.validateEdges()
	if edgeErr == nil {
		logger.Info("model passed edge validation", "edges", ag.NumEdges())
	} else {
		logger.Warn("model failed edge validation", "error", edgeErr)
	}

	if err := ReportErrs([]error{vertexErr, edgeErr}); err != nil {
		return -1, err
	}
	return start, nil
}

func (gv *graphValidator) validateVertices() (int, error) {
	start := -1
	for v := 0; v < gv.ag.NumVertices(); v++ {
		id, ok := gv.checkVertex(v)
		if !ok || !isStartID(id) {
			continue
		}
		if start >= 0 {
			gv.fail(VertexStage, v, AttrID, "second start vertex, the first is vertex %d", start)
			continue
		}
		start = v
	}

	if start < 0 {
		gv.fail(VertexStage, -1, AttrID, "unable to find a vertex with id '%s'", StartID)
	}
	return start, gv.takeProblems(VertexStage)
}

// checkVertex validates the attributes of one vertex and returns its id.  The flag is
// false if the id is missing, in which case nothing else on the vertex is checked
func (gv *graphValidator) checkVertex(v int) (string, bool) {
	attr, present := gv.ag.VertexAttr(v, AttrID)
	if !present {
		gv.fail(VertexStage, v, AttrID, "required attribute '%s' is missing", AttrID)
		return "", false
	}
	id, ok := nonEmptyString(attr, present)
	if !ok {
		gv.fail(VertexStage, v, AttrID, "required attribute '%s' is empty or not a string", AttrID)
		return "", false
	}

	// the start vertex needs no type
	if isStartID(id) {
		gv.logger.Debug("found vertex", "index", v, "id", id)
		return id, true
	}

	attr, present = gv.ag.VertexAttr(v, AttrType)
	if !present {
		gv.fail(VertexStage, v, AttrType, "required attribute '%s' is missing on vertex '%s'", AttrType, id)
		return id, true
	}
	typeStr, ok := nonEmptyString(attr, present)
	if !ok {
		gv.fail(VertexStage, v, AttrType, "required attribute '%s' is empty on vertex '%s'", AttrType, id)
		return id, true
	}

	kind, ok := parseVertexType(typeStr)
	switch {
	case !ok:
		gv.fail(VertexStage, v, AttrType, "value '%s' is invalid, need '%s' or '%s'",
			typeStr, StateVertex, ObservationVertex)
	case kind == ObservationVertex && !isEmissionID(id):
		gv.fail(VertexStage, v, AttrID, "'%s' vertex must have id '%s', '%s', '%s' or '%s', but has id '%s'",
			ObservationVertex, ToServerID, ToOriginID, StreamID, EndID, id)
	case kind == StateVertex && isEmissionID(id):
		gv.fail(VertexStage, v, AttrID, "'%s' vertex must not use the observation id '%s'", StateVertex, id)
	default:
		gv.logger.Debug("found vertex", "index", v, "id", id, "type", typeStr)
	}
	return id, true
}

func (gv *graphValidator) validateEdges() error {
	for e := 0; e < gv.ag.NumEdges(); e++ {
		gv.checkEdge(e)
	}
	return gv.takeProblems(EdgeStage)
}

func (gv *graphValidator) checkEdge(e int) {
	from, to := gv.ag.Endpoints(e)

	fromID, found := gv.ag.VertexString(from, AttrID)
	if !found {
		gv.fail(EdgeStage, e, AttrID, "unable to find the id of source vertex %d", from)
		return
	}
	toID, found := gv.ag.VertexString(to, AttrID)
	if !found {
		gv.fail(EdgeStage, e, AttrID, "unable to find the id of destination vertex %d", to)
		return
	}

	weight, ok := gv.checkNonNegative(e, fromID, toID, AttrWeight)

	typeStr, found := gv.ag.EdgeString(e, AttrType)
	if !found {
		gv.fail(EdgeStage, e, AttrType, "required attribute '%s' is missing or empty (from '%s' to '%s')",
			AttrType, fromID, toID)
		return
	}

	kind, known := parseEdgeType(typeStr)
	if !known {
		gv.fail(EdgeStage, e, AttrType, "value '%s' is invalid (from '%s' to '%s'), need '%s' or '%s'",
			typeStr, fromID, toID, TransitionEdge, EmissionEdge)
		return
	}

	validEmission := kind == EmissionEdge
	if isEmissionID(fromID) {
		gv.fail(EdgeStage, e, AttrID, "source vertex '%s' of %s edge must not be an observation vertex",
			fromID, kind)
		validEmission = false
	}
	switch kind {
	case TransitionEdge:
		if isEmissionID(toID) {
			gv.fail(EdgeStage, e, AttrID, "destination vertex '%s' of %s edge must not be an observation vertex",
				toID, kind)
		}
	case EmissionEdge:
		if !isEmissionID(toID) {
			gv.fail(EdgeStage, e, AttrID, "destination vertex '%s' of %s edge must be an observation vertex",
				toID, kind)
			validEmission = false
		}
	}

	if validEmission {
		gv.checkNonNegative(e, fromID, toID, AttrLogNormMu)
		gv.checkNonNegative(e, fromID, toID, AttrLogNormSigma)
		gv.checkNonNegative(e, fromID, toID, AttrExpLambda)
	}

	if ok {
		gv.logger.Debug("found edge", "index", e, "from", fromID, "to", toID, "type", kind, "weight", weight)
	}
}

// checkNonNegative requires a finite, non-negative numeric attribute on edge e
func (gv *graphValidator) checkNonNegative(e int, fromID, toID, name string) (float64, bool) {
	value, found := gv.ag.EdgeNumber(e, name)
	if !found {
		gv.fail(EdgeStage, e, name, "required attribute '%s' is missing, not a number, or NaN (from '%s' to '%s')",
			name, fromID, toID)
		return 0, false
	}
	if value < 0 || math.IsInf(value, 0) {
		gv.fail(EdgeStage, e, name, "required attribute '%s' must be finite and non-negative, got %g (from '%s' to '%s')",
			name, value, fromID, toID)
		return 0, false
	}
	return value, true
}

// compileGraph turns a validated AttributedGraph into typed vertex and edge records,
// and builds the per-vertex selection tables.  It trusts that ValidateGraph succeeded.
func compileGraph(ag *AttributedGraph, start int) *Graph {
	g := new(Graph)
	g.start = start
	g.vertices = make([]vertexRec, ag.NumVertices())
	g.edges = make([]edgeRec, ag.NumEdges())
	g.transitions = make([]choiceTable, ag.NumVertices())
	g.emissions = make([]choiceTable, ag.NumVertices())

	for v := range g.vertices {
		id, _ := ag.VertexString(v, AttrID)
		rec := vertexRec{id: id, class: emissionClassOf(id)}
		switch {
		case v == start:
			rec.kind = StartVertex
		case rec.class != NoEmission:
			rec.kind = ObservationVertex
		default:
			rec.kind = StateVertex
		}
		g.vertices[v] = rec
	}

	for e := range g.edges {
		from, to := ag.Endpoints(e)
		typeStr, _ := ag.EdgeString(e, AttrType)
		kind, _ := parseEdgeType(typeStr)
		weight, _ := ag.EdgeNumber(e, AttrWeight)
		rec := edgeRec{from: from, to: to, kind: kind, weight: weight}
		if kind == EmissionEdge {
			rec.dist.Mu, _ = ag.EdgeNumber(e, AttrLogNormMu)
			rec.dist.Sigma, _ = ag.EdgeNumber(e, AttrLogNormSigma)
			rec.dist.Lambda, _ = ag.EdgeNumber(e, AttrExpLambda)
		}
		g.edges[e] = rec
	}

	// selection tables follow the native out-edge order of each vertex
	for v := range g.vertices {
		for _, e := range ag.OutEdges(v) {
			switch g.edges[e].kind {
			case TransitionEdge:
				g.transitions[v].add(e, g.edges[e].weight)
			case EmissionEdge:
				g.emissions[v].add(e, g.edges[e].weight)
			}
		}
	}
	return g
}
