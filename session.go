package tgenmm

// session.go drives a Model in virtual time.  A session asks its model for the
// next observation, waits out the sampled delay on the event manager, then
// hands the observation to the caller and asks for the next one.  The session
// finishes on End, or after a limit on the number of observations.

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// ObservationHandler is called as each observation comes due.  delay is the wait,
// in microseconds, that preceded it
type ObservationHandler func(evtMgr *evtm.EventManager, session *Session, obs Observation, delay uint64)

// Session is one simulated traffic exchange driven by a Model
type Session struct {
	ID        uuid.UUID
	Name      string
	Emitted   int  // observations delivered so far
	Done      bool // set once End is delivered or the step limit is reached
	StepLimit int  // zero means no limit

	model    *Model
	handler  ObservationHandler
	traceMgr *TraceManager
	counts   map[Observation]int
	logger   *slog.Logger
}

// pending is the data carried by a scheduled delivery
type pending struct {
	obs   Observation
	delay uint64
}

// CreateSession is a constructor.  handler and traceMgr may be nil
func CreateSession(name string, model *Model, handler ObservationHandler,
	traceMgr *TraceManager, stepLimit int) *Session {
	s := new(Session)
	s.ID = uuid.New()
	s.Name = name
	s.StepLimit = stepLimit
	s.model = model
	s.handler = handler
	s.traceMgr = traceMgr
	s.counts = make(map[Observation]int)
	s.logger = model.logger.With("session", name)

	if err := traceMgr.AddName(s.ID.String(), name); err != nil {
		s.logger.Warn("session not named in trace", "error", err)
	}
	return s
}

// Model returns the model driving the session
func (s *Session) Model() *Model {
	return s.model
}

// Counts returns the number of each observation delivered so far
func (s *Session) Counts() map[Observation]int {
	counts := make(map[Observation]int, len(s.counts))
	for obs, n := range s.counts {
		counts[obs] = n
	}
	return counts
}

// Start schedules the session's first observation
func (s *Session) Start(evtMgr *evtm.EventManager) {
	s.logger.Info("starting traffic session", "id", s.ID.String())
	s.scheduleNext(evtMgr)
}

// Stop finishes the session; an already scheduled delivery is dropped
func (s *Session) Stop() {
	s.Done = true
}

func (s *Session) scheduleNext(evtMgr *evtm.EventManager) {
	obs, delay := s.model.NextObservation()
	evtMgr.Schedule(s, pending{obs: obs, delay: delay}, deliverObservation,
		vrtime.SecondsToTime(microsToSeconds(delay)))
}

// deliverObservation is the event handler run when an observation comes due
func deliverObservation(evtMgr *evtm.EventManager, context any, data any) any {
	s := context.(*Session)
	due := data.(pending)

	if s.Done {
		return nil
	}

	s.Emitted += 1
	s.counts[due.obs] += 1
	AddObservationTrace(s.traceMgr, evtMgr.CurrentTime(), s.ID.String(), s.Emitted, due.obs, due.delay)

	if s.handler != nil {
		s.handler(evtMgr, s, due.obs, due.delay)
		// the handler may have stopped the session
		if s.Done {
			return nil
		}
	}

	if due.obs == End || (s.StepLimit > 0 && s.Emitted >= s.StepLimit) {
		s.Done = true
		s.logger.Info("traffic session finished", "emitted", s.Emitted, "time", evtMgr.CurrentSeconds())
		return nil
	}

	s.scheduleNext(evtMgr)
	return nil
}
