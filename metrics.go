package tgenmm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters a Model and its loader report into.  Every
// recording method accepts a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	ObservationsTotal *prometheus.CounterVec
	DeadEndsTotal     *prometheus.CounterVec
	DelaySeconds      prometheus.Histogram
	ModelLoadsTotal   *prometheus.CounterVec
}

// CreateMetrics is a constructor.  The metrics live in their own registry
func CreateMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.ObservationsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgenmm_observations_total",
			Help: "Observations emitted by markov models",
		},
		[]string{"observation"},
	)

	m.DeadEndsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgenmm_dead_ends_total",
			Help: "Walks ended early because a state had no edge of the needed kind",
		},
		[]string{"edge_kind"},
	)

	m.DelaySeconds = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tgenmm_delay_seconds",
			Help:    "Delays sampled for emitted observations",
			Buckets: []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1, 1, 10, 60},
		},
	)

	m.ModelLoadsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgenmm_model_loads_total",
			Help: "Markov model load attempts",
		},
		[]string{"result"},
	)
	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteToTextfile dumps the metrics in the text exposition format
func (m *Metrics) WriteToTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, m.registry)
}

func (m *Metrics) recordObservation(obs Observation, delay uint64) {
	if m == nil {
		return
	}
	m.ObservationsTotal.WithLabelValues(obs.String()).Inc()
	if obs != End {
		m.DelaySeconds.Observe(microsToSeconds(delay))
	}
}

func (m *Metrics) recordDeadEnd(kind EdgeKind) {
	if m == nil {
		return
	}
	m.DeadEndsTotal.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) recordLoad(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.ModelLoadsTotal.WithLabelValues("success").Inc()
	} else {
		m.ModelLoadsTotal.WithLabelValues("failure").Inc()
	}
}

func microsToSeconds(us uint64) float64 {
	return float64(us) / 1e6
}
