package selector

import (
	"fmt"

	"moralsim/domain/pattern"
	"moralsim/domain/scenario"
)

// State of a respondent's run through the scenario sequence
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateComplete   State = "complete"
)

const (
	DefaultTotal          = 7
	DefaultRotationOffset = 1
)

// Selection is the selector's decision for the next scenario
type Selection struct {
	Template  scenario.TemplateID `json:"template"`
	Rule      scenario.Rule       `json:"rule"`
	Dimension pattern.Dimension   `json:"dimension,omitempty"`
	Position  int                 `json:"position"` // 1-based index of the scenario about to be shown
}

func (s Selection) String() string {
	if s.Dimension != "" {
		return fmt.Sprintf("#%d %s (%s: %s)", s.Position, s.Template, s.Rule, s.Dimension)
	}
	return fmt.Sprintf("#%d %s (%s)", s.Position, s.Template, s.Rule)
}

// Selector picks templates: a fixed baseline first, then challenge rules over
// the current scores, falling back to a catalog rotation. It holds no
// per-session state and is safe for concurrent use.
type Selector struct {
	total   int
	offset  int
	catalog []scenario.TemplateID
}

// Option configures a Selector
type Option func(*Selector)

// WithRotationOffset sets the rotation offset added to the answered count
func WithRotationOffset(offset int) Option {
	return func(s *Selector) {
		if offset >= 0 {
			s.offset = offset
		}
	}
}

// New creates a selector for a run of total scenarios
func New(total int, opts ...Option) *Selector {
	if total <= 0 {
		total = DefaultTotal
	}
	s := &Selector{
		total:   total,
		offset:  DefaultRotationOffset,
		catalog: scenario.IDs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Total returns the number of scenarios per run
func (s *Selector) Total() int { return s.total }

// StateFor derives the run state from how many scenarios were answered
func (s *Selector) StateFor(started bool, answered int) State {
	switch {
	case !started:
		return StateNotStarted
	case answered >= s.total:
		return StateComplete
	default:
		return StateInProgress
	}
}

// Start always yields the baseline template
func (s *Selector) Start() Selection {
	return Selection{Template: scenario.TemplateClassic, Rule: scenario.RuleBaseline, Position: 1}
}

// Next selects the template after n answered scenarios. ok is false once the
// run is complete. Deterministic given its inputs.
func (s *Selector) Next(n int, scores *pattern.Scores, previous scenario.TemplateID) (Selection, bool) {
	if n >= s.total {
		return Selection{}, false
	}
	if n <= 0 {
		return s.Start(), true
	}

	if r, ok := pattern.Match(scores); ok {
		return Selection{
			Template:  scenario.TemplateID(r.Template),
			Rule:      scenario.RuleChallenge,
			Dimension: r.Dimension,
			Position:  n + 1,
		}, true
	}

	size := len(s.catalog)
	idx := (n + s.offset) % size
	if s.catalog[idx] == previous {
		idx = (idx + 1) % size
	}
	return Selection{Template: s.catalog[idx], Rule: scenario.RuleRotation, Position: n + 1}, true
}
