package tgenmm

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/iti/evt/vrtime"
	"gopkg.in/yaml.v3"
)

// ObservationTrace records one observation delivered by a session
type ObservationTrace struct {
	Time        float64 `json:"time" yaml:"time"`         // virtual time of delivery, in seconds
	Ticks       int64   `json:"ticks" yaml:"ticks"`       // ticks variable of time
	Priority    int64   `json:"priority" yaml:"priority"` // priority field of time-stamp
	SessionID   string  `json:"sessionid" yaml:"sessionid"`
	Step        int     `json:"step" yaml:"step"`
	Observation string  `json:"observation" yaml:"observation"`
	Delay       uint64  `json:"delay" yaml:"delay"` // microseconds waited before delivery
}

// TraceManager gathers the observations delivered by the sessions of an experiment.
// When not in use every method is a no-op, so calls can be left in place
type TraceManager struct {
	// experiment uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// session name by session id
	NameByID map[string]string `json:"namebyid" yaml:"namebyid"`

	// all trace records, by session id
	Traces map[string][]ObservationTrace `json:"traces" yaml:"traces"`
}

// CreateTraceManager is a constructor.  It saves the name of the experiment
// and a flag indicating whether the trace manager is active
func CreateTraceManager(expName string, active bool) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = expName
	tm.NameByID = make(map[string]string)
	tm.Traces = make(map[string][]ObservationTrace)
	return tm
}

// Active tells the caller whether the Trace Manager is actively being used
func (tm *TraceManager) Active() bool {
	return tm != nil && tm.InUse
}

// AddName adds a session to the id -> name dictionary.  Ids must be unique
func (tm *TraceManager) AddName(id string, name string) error {
	if !tm.Active() {
		return nil
	}
	if _, present := tm.NameByID[id]; present {
		return fmt.Errorf("duplicated session id %s in trace", id)
	}
	tm.NameByID[id] = name
	return nil
}

// AddTrace stores a trace record under its session
func (tm *TraceManager) AddTrace(trace ObservationTrace) {
	if !tm.Active() {
		return
	}
	tm.Traces[trace.SessionID] = append(tm.Traces[trace.SessionID], trace)
}

// AddObservationTrace creates a record from its calling arguments and stores it
func AddObservationTrace(tm *TraceManager, vrt vrtime.Time, sessionID string, step int,
	obs Observation, delay uint64) {
	if !tm.Active() {
		return
	}
	tm.AddTrace(ObservationTrace{
		Time:        vrt.Seconds(),
		Ticks:       vrt.Ticks(),
		Priority:    vrt.Pri(),
		SessionID:   sessionID,
		Step:        step,
		Observation: obs.String(),
		Delay:       delay,
	})
}

// Len returns the number of trace records held
func (tm *TraceManager) Len() int {
	n := 0
	for _, traces := range tm.Traces {
		n += len(traces)
	}
	return n
}

// WriteToFile stores the trace to the file whose name is given.  Serialization to
// json or to yaml is selected based on the extension of this name.  With globalOrder
// all records are merged under one key, "all", and sorted by time.
func (tm *TraceManager) WriteToFile(filename string, globalOrder bool) error {
	if !tm.Active() {
		return nil
	}

	out := tm
	if globalOrder {
		out = CreateTraceManager(tm.ExpName, tm.InUse)
		for id, name := range tm.NameByID {
			out.NameByID[id] = name
		}
		merged := make([]ObservationTrace, 0, tm.Len())
		for _, traces := range tm.Traces {
			merged = append(merged, traces...)
		}
		sort.SliceStable(merged, func(i, j int) bool {
			if merged[i].Ticks != merged[j].Ticks {
				return merged[i].Ticks < merged[j].Ticks
			}
			return merged[i].Priority < merged[j].Priority
		})
		out.Traces["all"] = merged
	}

	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error
	switch {
	case isYAMLExt(pathExt):
		bytes, merr = yaml.Marshal(*out)
	case isJSONExt(pathExt):
		bytes, merr = json.MarshalIndent(*out, "", "\t")
	default:
		return fmt.Errorf("trace file '%s' needs a .yaml, .yml or .json extension", filename)
	}
	if merr != nil {
		return merr
	}
	return os.WriteFile(filename, bytes, 0o644)
}
