package tgenmm

// model.go holds the compiled, read-only Graph and the Model that walks it.
//
// A Graph is built once from a validated AttributedGraph and never changes, so
// any number of Models may share it.  A Model carries the mutable part of a walk,
// its cursor and terminal flag, along with its own random stream.  A Model is
// not safe for concurrent use.

import (
	"log/slog"

	"github.com/iti/rngstream"
)

// DefaultMaxDelay is the largest delay, in microseconds, a Model hands out
const DefaultMaxDelay uint64 = 60000000

type vertexRec struct {
	id    string
	kind  VertexKind
	class EmissionClass
}

type edgeRec struct {
	from   int
	to     int
	kind   EdgeKind
	weight float64
	dist   DelayParams
}

// Graph is a validated traffic model graph
type Graph struct {
	vertices    []vertexRec
	edges       []edgeRec
	transitions []choiceTable // indexed by vertex
	emissions   []choiceTable // indexed by vertex
	start       int
	reach       *Reachability
}

// BuildGraph validates the attributed graph and compiles it.  Reachability
// findings are logged but never cause a failure.
func BuildGraph(ag *AttributedGraph, logger *slog.Logger) (*Graph, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("starting model graph validation", "vertices", ag.NumVertices(), "edges", ag.NumEdges())

	start, err := ValidateGraph(ag, logger)
	if err != nil {
		return nil, err
	}

	g := compileGraph(ag, start)
	g.reach = analyzeReachability(g)
	g.reach.log(logger, g)

	logger.Info("validated model graph", "start", start)
	return g, nil
}

// Start returns the index of the start vertex
func (g *Graph) Start() int {
	return g.start
}

// NumVertices returns the number of vertices
func (g *Graph) NumVertices() int {
	return len(g.vertices)
}

// NumEdges returns the number of edges
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// VertexID returns the id attribute of vertex v
func (g *Graph) VertexID(v int) string {
	return g.vertices[v].id
}

// VertexKind returns the role of vertex v
func (g *Graph) VertexKind(v int) VertexKind {
	return g.vertices[v].kind
}

// Reachability returns the report computed when the graph was built
func (g *Graph) Reachability() *Reachability {
	return g.reach
}

// modelOptions gathers what a ModelOption may set
type modelOptions struct {
	name     string
	rng      RandomSource
	logger   *slog.Logger
	metrics  *Metrics
	maxDelay uint64
}

// ModelOption configures a Model
type ModelOption func(*modelOptions)

// WithName names the model; the name labels log records and seeds the name of the
// default random stream
func WithName(name string) ModelOption {
	return func(mo *modelOptions) {
		mo.name = name
	}
}

// WithRandomSource replaces the model's default rngstream stream
func WithRandomSource(rng RandomSource) ModelOption {
	return func(mo *modelOptions) {
		mo.rng = rng
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ModelOption {
	return func(mo *modelOptions) {
		mo.logger = logger
	}
}

// WithMetrics records model activity into m
func WithMetrics(m *Metrics) ModelOption {
	return func(mo *modelOptions) {
		mo.metrics = m
	}
}

// WithMaxDelay sets the ceiling, in microseconds, on delays.  Zero keeps DefaultMaxDelay
func WithMaxDelay(maxDelay uint64) ModelOption {
	return func(mo *modelOptions) {
		if maxDelay > 0 {
			mo.maxDelay = maxDelay
		}
	}
}

func resolveModelOptions(opts []ModelOption) *modelOptions {
	mo := &modelOptions{name: "tgenmm", maxDelay: DefaultMaxDelay}
	for _, opt := range opts {
		opt(mo)
	}
	if mo.logger == nil {
		mo.logger = slog.Default()
	}
	return mo
}

// Model walks a Graph as a hidden Markov process
type Model struct {
	graph    *Graph
	name     string
	current  int
	terminal bool
	rng      RandomSource
	maxDelay uint64
	logger   *slog.Logger
	metrics  *Metrics
}

// LoadModel validates and compiles the attributed graph and returns a Model
// positioned at the start vertex.  No Model is returned if validation fails.
func LoadModel(ag *AttributedGraph, opts ...ModelOption) (*Model, error) {
	mo := resolveModelOptions(opts)

	g, err := BuildGraph(ag, mo.logger)
	mo.metrics.recordLoad(err == nil)
	if err != nil {
		mo.logger.Info("failed to create markov model", "name", mo.name)
		return nil, err
	}
	return g.newModel(mo), nil
}

// LoadModelFile reads the model file at modelPath and loads it
func LoadModelFile(modelPath string, opts ...ModelOption) (*Model, error) {
	ag, err := LoadGraphFile(modelPath)
	if err != nil {
		mo := resolveModelOptions(opts)
		mo.metrics.recordLoad(false)
		mo.logger.Warn("failed to read markov model graph", "path", modelPath, "error", err)
		return nil, err
	}
	return LoadModel(ag, opts...)
}

// NewModel creates a Model with its own cursor over the shared graph
func (g *Graph) NewModel(opts ...ModelOption) *Model {
	return g.newModel(resolveModelOptions(opts))
}

func (g *Graph) newModel(mo *modelOptions) *Model {
	mm := new(Model)
	mm.graph = g
	mm.name = mo.name
	mm.rng = mo.rng
	if mm.rng == nil {
		mm.rng = rngstream.New(mo.name)
	}
	mm.maxDelay = mo.maxDelay
	mm.logger = mo.logger.With("model", mo.name)
	mm.metrics = mo.metrics
	mm.current = g.start
	return mm
}

// Clone returns a Model over the same graph with a fresh cursor and, unless one is
// given in opts, a fresh random stream.  Logger, metrics and delay ceiling carry over.
func (mm *Model) Clone(opts ...ModelOption) *Model {
	base := []ModelOption{
		WithName(mm.name),
		WithLogger(mm.logger),
		WithMetrics(mm.metrics),
		WithMaxDelay(mm.maxDelay),
	}
	return mm.graph.NewModel(append(base, opts...)...)
}

// Graph returns the shared graph the model walks
func (mm *Model) Graph() *Graph {
	return mm.graph
}

// Name returns the model's name
func (mm *Model) Name() string {
	return mm.name
}

// Current returns the index of the state vertex the cursor is on
func (mm *Model) Current() int {
	return mm.current
}

// Start returns the index of the start vertex
func (mm *Model) Start() int {
	return mm.graph.start
}

// Terminal reports whether the model has produced its End observation
func (mm *Model) Terminal() bool {
	return mm.terminal
}

// Reset puts the cursor back on the start vertex and clears the terminal flag
func (mm *Model) Reset() {
	mm.terminal = false
	mm.current = mm.graph.start
}

// NextObservation advances the hidden state along a transition edge, then emits
// an observation along an emission edge of the new state, together with a delay in
// microseconds.
//
// Once End has been returned, whether because an end marker was emitted or because
// the walk reached a state without a needed edge, End is returned with a zero delay
// until Reset is called.
func (mm *Model) NextObservation() (Observation, uint64) {
	if mm.terminal {
		return End, 0
	}

	mm.logger.Debug("choosing transition", "from", mm.current)

	_, next, found := mm.graph.chooseEdge(mm.current, TransitionEdge, mm.rng)
	if !found {
		return mm.deadEnd(TransitionEdge)
	}
	mm.current = next

	mm.logger.Debug("choosing emission", "from", mm.current)

	emissionIdx, obsVertex, found := mm.graph.chooseEdge(mm.current, EmissionEdge, mm.rng)
	if !found {
		return mm.deadEnd(EmissionEdge)
	}

	delay := GenerateDelay(mm.rng, mm.graph.edges[emissionIdx].dist)
	if delay > mm.maxDelay {
		delay = mm.maxDelay
	}

	obs := mm.graph.vertices[obsVertex].class.Observation()
	if obs == End {
		mm.terminal = true
	}

	mm.logger.Debug("found emission", "edge", emissionIdx, "vertex", obsVertex,
		"observation", obs, "delay", delay)
	mm.metrics.recordObservation(obs, delay)
	return obs, delay
}

// deadEnd ends the walk early when the current state has no edge of the needed kind
func (mm *Model) deadEnd(kind EdgeKind) (Observation, uint64) {
	mm.logger.Warn("failed to choose an edge, returning end observation early",
		"kind", kind, "vertex", mm.current, "id", mm.graph.vertices[mm.current].id)
	mm.terminal = true
	mm.metrics.recordDeadEnd(kind)
	mm.metrics.recordObservation(End, 0)
	return End, 0
}
