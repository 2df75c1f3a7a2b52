package session

import (
	"context"
	"math"
	"sync"
	"time"

	"moralsim/domain/choice"
	"moralsim/domain/core"
	"moralsim/domain/pattern"
	"moralsim/domain/result"
	"moralsim/domain/scenario"
	"moralsim/internal/analysis"
	"moralsim/internal/generator"
	"moralsim/internal/selector"
)

// Session is one respondent's run. It owns the append-only history and the
// current scenario; both change together under one lock. Scenario generation
// runs outside the lock with a busy flag so a slow provider never blocks reads.
type Session struct {
	ID     core.SessionID
	engine *Engine

	mu          sync.Mutex
	started     bool
	busy        bool
	epoch       uint64
	history     []choice.Record
	current     *scenario.Scenario
	createdAt   time.Time
	lastActive  time.Time
	completedAt *time.Time
}

// View is a read-only snapshot for presentation layers
type View struct {
	ID          core.SessionID     `json:"id"`
	State       selector.State     `json:"state"`
	Position    int                `json:"position"`
	Total       int                `json:"total"`
	Answered    int                `json:"answered"`
	Progress    int                `json:"progress"`
	Current     *scenario.Scenario `json:"current,omitempty"`
	Adaptive    bool               `json:"adaptive"`
	Generating  bool               `json:"generating"`
	Scores      *pattern.Scores    `json:"scores,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	LastActive  time.Time          `json:"last_active"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// Outcome is the result of answering a scenario
type Outcome struct {
	Record    choice.Record       `json:"record"`
	Scores    *pattern.Scores     `json:"scores"`
	Selection *selector.Selection `json:"selection,omitempty"`
	Next      *scenario.Scenario  `json:"next,omitempty"`
	Complete  bool                `json:"complete"`
	Report    *result.Report      `json:"report,omitempty"`
}

// New creates a session in the NotStarted state
func New(id core.SessionID, engine *Engine) *Session {
	if id.String() == "" {
		id = core.NewSessionID()
	}
	now := time.Now()
	return &Session{ID: id, engine: engine, createdAt: now, lastActive: now}
}

func (s *Session) stateLocked() selector.State {
	return s.engine.Selector.StateFor(s.started, len(s.history))
}

// Start presents the baseline scenario
func (s *Session) Start(ctx context.Context) (*scenario.Scenario, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, core.ErrGenerationInProgress
	}
	if s.started {
		state := s.stateLocked()
		s.mu.Unlock()
		return nil, core.NewInvalidTransitionError(string(state), "start")
	}
	s.busy = true
	epoch := s.epoch
	s.lastActive = time.Now()
	s.mu.Unlock()

	sel := s.engine.Selector.Start()
	sc, err := s.engine.Generator.Instantiate(ctx, generator.Request{
		Template: sel.Template,
		Rule:     sel.Rule,
		Position: sel.Position,
		Total:    s.engine.Selector.Total(),
	})

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil, core.ErrSessionReset
	}
	s.busy = false
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.started = true
	s.current = sc
	s.mu.Unlock()

	s.engine.logger().Info("[Session] %s started with %s", s.ID, sel)
	s.engine.publish(EventScenarioPresented, s.ID, sc)
	return sc, nil
}

// Choose records an answer to the current scenario and prepares the next
// one. The history grows only when the next scenario is ready (or the run is
// complete); a failed generation leaves history and current scenario as they were.
func (s *Session) Choose(ctx context.Context, label scenario.Label) (*Outcome, error) {
	total := s.engine.Selector.Total()

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, core.ErrGenerationInProgress
	}
	if !s.started || s.current == nil || len(s.history) >= total {
		state := s.stateLocked()
		s.mu.Unlock()
		return nil, core.NewInvalidTransitionError(string(state), "answer")
	}
	rec, err := choice.NewRecord(s.ID, s.current, label, len(s.history))
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	next := make([]choice.Record, len(s.history), len(s.history)+1)
	copy(next, s.history)
	next = append(next, rec)
	previous := s.current.TemplateID
	epoch := s.epoch
	s.busy = true
	s.lastActive = time.Now()
	s.mu.Unlock()

	scores := analysis.Analyze(next)
	sel, more := s.engine.Selector.Next(len(next), scores, previous)

	var sc *scenario.Scenario
	if more {
		sc, err = s.engine.Generator.Instantiate(ctx, generator.Request{
			Template: sel.Template,
			Rule:     sel.Rule,
			Scores:   scores,
			Position: sel.Position,
			Total:    total,
		})
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil, core.ErrSessionReset
	}
	s.busy = false
	if err != nil {
		s.mu.Unlock()
		s.engine.logger().Warn("[Session] %s generation of %s failed, choice not recorded: %v", s.ID, sel.Template, err)
		return nil, err
	}
	s.history = next
	s.current = sc
	if !more {
		now := time.Now()
		s.completedAt = &now
	}
	s.mu.Unlock()

	s.engine.publish(EventChoiceRecorded, s.ID, rec)
	out := &Outcome{Record: rec, Scores: scores, Next: sc, Complete: !more}

	if more {
		out.Selection = &sel
		s.engine.logger().Debug("[Session] %s answered %s, next %s", s.ID, rec.Label, sel)
		s.engine.publish(EventScenarioPresented, s.ID, sc)
		return out, nil
	}

	rep, err := s.engine.buildReport(ctx, s.ID, next)
	if err != nil {
		s.engine.logger().Warn("[Session] %s complete but report failed: %v", s.ID, err)
	} else {
		out.Report = rep
		s.engine.persist(ctx, rep)
	}
	s.engine.logger().Info("[Session] %s complete after %d scenarios", s.ID, len(next))
	s.engine.publish(EventSessionComplete, s.ID, rep)
	return out, nil
}

// Reset clears history, current scenario and count atomically. A generation
// still in flight is discarded when it finishes.
func (s *Session) Reset() {
	s.mu.Lock()
	s.epoch++
	s.started = false
	s.busy = false
	s.history = nil
	s.current = nil
	s.completedAt = nil
	s.lastActive = time.Now()
	s.mu.Unlock()

	s.engine.logger().Info("[Session] %s reset", s.ID)
	s.engine.publish(EventSessionReset, s.ID, nil)
}

// History returns a copy of the recorded choices
func (s *Session) History() []choice.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]choice.Record, len(s.history))
	copy(out, s.history)
	return out
}

// Current returns the scenario awaiting an answer, nil when none
func (s *Session) Current() *scenario.Scenario {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// State returns the run state
func (s *Session) State() selector.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// View returns a snapshot with progress information
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.engine.Selector.Total()
	answered := len(s.history)
	v := View{
		ID:          s.ID,
		State:       s.stateLocked(),
		Total:       total,
		Answered:    answered,
		Progress:    int(math.Round(float64(answered) / float64(total) * 100)),
		Current:     s.current,
		Generating:  s.busy,
		Scores:      analysis.Analyze(s.history),
		CreatedAt:   s.createdAt,
		LastActive:  s.lastActive,
		CompletedAt: s.completedAt,
	}
	if s.current != nil {
		v.Position = answered + 1
		v.Adaptive = s.current.Adaptive()
	} else {
		v.Position = answered
	}
	return v
}

// Report computes the current report, including similar respondents
func (s *Session) Report(ctx context.Context) (*result.Report, error) {
	history := s.History()
	return s.engine.buildReport(ctx, s.ID, history)
}

// idleSince returns the last activity time and whether a generation is running
func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, s.busy
}
