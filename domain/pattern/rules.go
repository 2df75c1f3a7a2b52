package pattern

// ChallengeRule maps a dominant tendency to the template that pushes against it
type ChallengeRule struct {
	Dimension Dimension `json:"dimension"`
	Threshold float64   `json:"threshold"`
	Template  string    `json:"template"`
}

// ChallengeRules is evaluated top to bottom; the first rule whose dimension
// strictly exceeds its threshold wins. Ties between simultaneously strong
// tendencies resolve in this order: age > quantity > action > relationship.
var ChallengeRules = []ChallengeRule{
	{Dimension: PrefersYounger, Threshold: 0.6, Template: "loop"},
	{Dimension: PrefersMore, Threshold: 0.6, Template: "transplant"},
	{Dimension: AvoidsAction, Threshold: 0.5, Template: "probability"},
	{Dimension: PrefersKnown, Threshold: 0.6, Template: "bridge"},
}

// Match returns the first challenge rule triggered by the scores, if any
func Match(s *Scores) (ChallengeRule, bool) {
	if s == nil || s.N == 0 {
		return ChallengeRule{}, false
	}
	for _, r := range ChallengeRules {
		if s.Exceeds(r.Dimension, r.Threshold) {
			return r, true
		}
	}
	return ChallengeRule{}, false
}

// Dominant returns the dimension that currently drives challenge selection,
// or "" when no tendency is strong enough.
func (s *Scores) Dominant() Dimension {
	r, ok := Match(s)
	if !ok {
		return ""
	}
	return r.Dimension
}
