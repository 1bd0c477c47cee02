package tgenmm

// tgenmm.go has code that builds an experiment: one shared model graph, a
// number of traffic sessions over it, and the trace and metrics they feed.

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/iti/evt/evtm"
)

// Experiment holds everything a run of traffic sessions needs
type Experiment struct {
	Config   *Config
	Cache    *ModelCache
	Metrics  *Metrics
	TraceMgr *TraceManager
	Sessions []*Session

	released bool
	logger   *slog.Logger
}

// NullHandler is an ObservationHandler that does nothing
func NullHandler(evtMgr *evtm.EventManager, session *Session, obs Observation, delay uint64) {
}

// BuildExperiment validates cfg, loads its model, and starts cfg.Sessions sessions on
// evtMgr, each with its own cursor and a random stream named from cfg.StreamName.
// A nil handler is replaced by NullHandler
func BuildExperiment(evtMgr *evtm.EventManager, cfg *Config, logger *slog.Logger,
	handler ObservationHandler) (*Experiment, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if handler == nil {
		handler = NullHandler
	}

	exp := new(Experiment)
	exp.Config = cfg
	exp.logger = logger.With("experiment", cfg.Name)
	exp.Metrics = CreateMetrics()
	exp.TraceMgr = CreateTraceManager(cfg.Name, len(cfg.TraceFile) > 0)
	exp.Cache = CreateModelCache(WithLogger(exp.logger), WithMetrics(exp.Metrics),
		WithMaxDelay(cfg.MaxDelay))

	exp.Sessions = make([]*Session, 0, cfg.Sessions)
	errs := []error{}
	for idx := 0; idx < cfg.Sessions; idx++ {
		streamName := cfg.StreamName + "-" + strconv.Itoa(idx)
		model, err := exp.Cache.Acquire(cfg.ModelPath, WithName(streamName))
		if err != nil {
			errs = append(errs, err)
			// every later Acquire would fail the same way
			break
		}
		sessionName := fmt.Sprintf("%s-session-%d", cfg.Name, idx)
		exp.Sessions = append(exp.Sessions,
			CreateSession(sessionName, model, handler, exp.TraceMgr, cfg.StepLimit))
	}

	if err := ReportErrs(errs); err != nil {
		exp.releaseModels()
		return nil, err
	}

	for _, s := range exp.Sessions {
		s.Start(evtMgr)
	}
	exp.logger.Info("built experiment", "sessions", len(exp.Sessions), "model", cfg.ModelPath)
	return exp, nil
}

// Run executes the event list until it empties or the virtual time limit is reached
func (exp *Experiment) Run(evtMgr *evtm.EventManager) {
	evtMgr.Run(exp.Config.RunLimit)
	exp.logger.Info("experiment run ended", "time", evtMgr.CurrentSeconds(), "finished", exp.Finished())
}

// Finished returns the number of sessions that are done
func (exp *Experiment) Finished() int {
	n := 0
	for _, s := range exp.Sessions {
		if s.Done {
			n += 1
		}
	}
	return n
}

// Summary totals the observations delivered by all sessions
func (exp *Experiment) Summary() map[Observation]int {
	total := make(map[Observation]int)
	for _, s := range exp.Sessions {
		for obs, n := range s.Counts() {
			total[obs] += n
		}
	}
	return total
}

// SummaryLines formats Summary for printing, in observation order
func (exp *Experiment) SummaryLines() []string {
	total := exp.Summary()
	obsList := make([]Observation, 0, len(total))
	for obs := range total {
		obsList = append(obsList, obs)
	}
	sort.Slice(obsList, func(i, j int) bool { return obsList[i] < obsList[j] })

	lines := make([]string, 0, len(obsList))
	for _, obs := range obsList {
		lines = append(lines, fmt.Sprintf("%s: %d", obs, total[obs]))
	}
	return lines
}

// Close releases the sessions' models and writes the trace and metrics files the
// Config names
func (exp *Experiment) Close() error {
	exp.releaseModels()

	errs := []error{}
	if len(exp.Config.TraceFile) > 0 {
		errs = append(errs, exp.TraceMgr.WriteToFile(exp.Config.TraceFile, true))
	}
	if len(exp.Config.MetricsFile) > 0 {
		errs = append(errs, exp.Metrics.WriteToTextfile(exp.Config.MetricsFile))
	}
	return ReportErrs(errs)
}

// releaseModels drops the cache references taken by the sessions, once
func (exp *Experiment) releaseModels() {
	if exp.released {
		return
	}
	exp.released = true
	for _, s := range exp.Sessions {
		if err := exp.Cache.Release(exp.Config.ModelPath); err != nil {
			exp.logger.Warn("releasing model", "session", s.Name, "error", err)
		}
	}
}
