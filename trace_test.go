package tgenmm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iti/evt/vrtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTraceManagerInactive(t *testing.T) {
	tm := CreateTraceManager("off", false)
	assert.False(t, tm.Active())
	assert.NoError(t, tm.AddName("a", "a"))
	AddObservationTrace(tm, vrtime.SecondsToTime(1.0), "a", 1, Stream, 10)
	assert.Equal(t, 0, tm.Len())
	assert.NoError(t, tm.WriteToFile(filepath.Join(t.TempDir(), "never.txt"), true))

	var missing *TraceManager
	assert.False(t, missing.Active())
	AddObservationTrace(missing, vrtime.SecondsToTime(1.0), "a", 1, Stream, 10)
}

func TestTraceManagerNames(t *testing.T) {
	tm := CreateTraceManager("names", true)
	require.NoError(t, tm.AddName("id-1", "first"))
	assert.Error(t, tm.AddName("id-1", "again"))
	assert.Equal(t, "first", tm.NameByID["id-1"])
}

func TestTraceManagerGlobalOrder(t *testing.T) {
	tm := CreateTraceManager("order", true)
	AddObservationTrace(tm, vrtime.SecondsToTime(3.0), "b", 1, PacketToOrigin, 3000000)
	AddObservationTrace(tm, vrtime.SecondsToTime(1.0), "a", 1, PacketToServer, 1000000)
	AddObservationTrace(tm, vrtime.SecondsToTime(2.0), "a", 2, Stream, 1000000)
	AddObservationTrace(tm, vrtime.SecondsToTime(4.0), "b", 2, End, 0)
	require.Equal(t, 4, tm.Len())

	filename := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, tm.WriteToFile(filename, true))

	body, err := os.ReadFile(filename)
	require.NoError(t, err)
	readBack := TraceManager{}
	require.NoError(t, yaml.Unmarshal(body, &readBack))

	all := readBack.Traces["all"]
	require.Len(t, all, 4)
	want := []string{"PacketToServer", "Stream", "PacketToOrigin", "End"}
	for idx, trace := range all {
		assert.Equal(t, want[idx], trace.Observation)
	}
	assert.InDelta(t, 2.0, all[1].Time, 1e-9)
	assert.Equal(t, "order", readBack.ExpName)

	// the manager itself keeps its per-session records
	assert.Len(t, tm.Traces["a"], 2)
	assert.NotContains(t, tm.Traces, "all")

	assert.Error(t, tm.WriteToFile(filepath.Join(t.TempDir(), "trace.txt"), false))
	assert.NoError(t, tm.WriteToFile(filepath.Join(t.TempDir(), "trace.json"), false))
}
