package tgenmm

// vocab.go holds the closed vocabulary of the model file: attribute names,
// vertex and edge type names, and the ids that mark the start vertex and the
// four observation symbols.  Everything read as a string from the model file
// is turned into one of the enumerations here exactly once, at load time.

import (
	"strings"

	"golang.org/x/exp/slices"
)

// names of the attributes consulted on vertices and edges
const (
	AttrID           = "id"
	AttrType         = "type"
	AttrWeight       = "weight"
	AttrLogNormMu    = "lognorm_mu"
	AttrLogNormSigma = "lognorm_sigma"
	AttrExpLambda    = "exp_lambda"
)

// ids with special meaning.  The four observation markers each also accept a
// descriptive alias
const (
	StartID    = "start"
	ToServerID = "+"
	ToOriginID = "-"
	StreamID   = "$"
	EndID      = "F"
)

// VertexKind says what role a vertex plays in the hidden Markov walk
type VertexKind int

const (
	StartVertex VertexKind = iota
	StateVertex
	ObservationVertex
)

var vertexKindToStr = map[VertexKind]string{
	StartVertex:       "start",
	StateVertex:       "state",
	ObservationVertex: "observation",
}

func (vk VertexKind) String() string {
	str, present := vertexKindToStr[vk]
	if !present {
		return "unknown"
	}
	return str
}

// parseVertexType maps the value of a vertex 'type' attribute to a VertexKind.
// Only "state" and "observation" may be named in a model file.
func parseVertexType(typeStr string) (VertexKind, bool) {
	switch {
	case strings.EqualFold(typeStr, StateVertex.String()):
		return StateVertex, true
	case strings.EqualFold(typeStr, ObservationVertex.String()):
		return ObservationVertex, true
	}
	return StateVertex, false
}

// EdgeKind distinguishes the two edge types
type EdgeKind int

const (
	TransitionEdge EdgeKind = iota
	EmissionEdge
)

func (ek EdgeKind) String() string {
	switch ek {
	case TransitionEdge:
		return "transition"
	case EmissionEdge:
		return "emission"
	}
	return "unknown"
}

func parseEdgeType(typeStr string) (EdgeKind, bool) {
	switch {
	case strings.EqualFold(typeStr, TransitionEdge.String()):
		return TransitionEdge, true
	case strings.EqualFold(typeStr, EmissionEdge.String()):
		return EmissionEdge, true
	}
	return TransitionEdge, false
}

// EmissionClass identifies which observation symbol (if any) a vertex id names
type EmissionClass int

const (
	NoEmission EmissionClass = iota
	EmitToServer
	EmitToOrigin
	EmitStream
	EmitEnd
)

// emissionIDs lists the accepted spellings of each observation marker, the
// symbol first
var emissionIDs = map[EmissionClass][]string{
	EmitToServer: {ToServerID, "to-server"},
	EmitToOrigin: {ToOriginID, "to-origin"},
	EmitStream:   {StreamID, "stream-boundary"},
	EmitEnd:      {EndID, "end"},
}

func (ec EmissionClass) String() string {
	ids, present := emissionIDs[ec]
	if !present {
		return "none"
	}
	return ids[0]
}

// emissionClassOf returns the observation class named by a vertex id, or NoEmission
// for the ids of start and state vertices
func emissionClassOf(id string) EmissionClass {
	for _, ec := range []EmissionClass{EmitToServer, EmitToOrigin, EmitStream, EmitEnd} {
		if slices.ContainsFunc(emissionIDs[ec], func(s string) bool { return strings.EqualFold(s, id) }) {
			return ec
		}
	}
	return NoEmission
}

// isEmissionID is true when the id names one of the four observation symbols
func isEmissionID(id string) bool {
	return emissionClassOf(id) != NoEmission
}

func isStartID(id string) bool {
	return strings.EqualFold(id, StartID)
}

// Observation is the symbol handed to the traffic generator on every step
type Observation int

const (
	PacketToOrigin Observation = iota
	PacketToServer
	Stream
	End
)

var obsToStr = map[Observation]string{
	PacketToOrigin: "PacketToOrigin",
	PacketToServer: "PacketToServer",
	Stream:         "Stream",
	End:            "End",
}

func (obs Observation) String() string {
	str, present := obsToStr[obs]
	if !present {
		return "Unknown"
	}
	return str
}

// Observation maps an emission class to the observation it produces.  Anything
// that is not a packet or stream marker ends the session.
func (ec EmissionClass) Observation() Observation {
	switch ec {
	case EmitToOrigin:
		return PacketToOrigin
	case EmitToServer:
		return PacketToServer
	case EmitStream:
		return Stream
	}
	return End
}
