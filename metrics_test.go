package tgenmm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestModelRecordsMetrics(t *testing.T) {
	metrics := CreateMetrics()
	mm, err := LoadModel(scenarioGraph(t), WithRandomSource(&seqSource{vals: []float64{0.5, 0.5, 0}}),
		WithLogger(discardLogger()), WithMetrics(metrics))
	require.NoError(t, err)

	walk(mm, 3)

	assert.Equal(t, 1.0, counterValue(t, metrics.ModelLoadsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, counterValue(t, metrics.ObservationsTotal.WithLabelValues(PacketToServer.String())))
	// the terminal call after the dead end is not counted again
	assert.Equal(t, 1.0, counterValue(t, metrics.ObservationsTotal.WithLabelValues(End.String())))
	assert.Equal(t, 1.0, counterValue(t, metrics.DeadEndsTotal.WithLabelValues(TransitionEdge.String())))
	assert.Equal(t, 0.0, counterValue(t, metrics.DeadEndsTotal.WithLabelValues(EmissionEdge.String())))

	h := &dto.Metric{}
	require.NoError(t, metrics.DelaySeconds.Write(h))
	assert.Equal(t, uint64(1), h.GetHistogram().GetSampleCount())
	assert.InDelta(t, 4e-6, h.GetHistogram().GetSampleSum(), 1e-12)
}

func TestLoadFailureRecorded(t *testing.T) {
	metrics := CreateMetrics()
	ag := scenarioGraph(t)
	ag.Edges[0].Attrs[AttrWeight] = NumAttr(-1)

	_, err := LoadModel(ag, WithLogger(discardLogger()), WithMetrics(metrics))
	require.Error(t, err)
	assert.Equal(t, 1.0, counterValue(t, metrics.ModelLoadsTotal.WithLabelValues("failure")))
	assert.Equal(t, 0.0, counterValue(t, metrics.ModelLoadsTotal.WithLabelValues("success")))
}

func TestNilMetricsAreIgnored(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.recordObservation(Stream, 10)
		m.recordDeadEnd(EmissionEdge)
		m.recordLoad(true)
	})
}

func TestMetricsWriteToTextfile(t *testing.T) {
	metrics := CreateMetrics()
	metrics.recordObservation(Stream, 2500000)
	metrics.recordLoad(true)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	names := []string{}
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "tgenmm_observations_total")
	assert.Contains(t, names, "tgenmm_delay_seconds")

	filename := filepath.Join(t.TempDir(), "tgenmm.prom")
	require.NoError(t, metrics.WriteToTextfile(filename))
	body, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `tgenmm_observations_total{observation="Stream"} 1`))
}
