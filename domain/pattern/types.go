package pattern

import (
	"math"
)

// Dimension is a behavioural axis the analyzer scores
type Dimension string

const (
	PrefersYounger     Dimension = "prefers_younger"
	PrefersMore        Dimension = "prefers_more"
	AvoidsAction       Dimension = "avoids_action"
	PrefersKnown       Dimension = "prefers_known"
	AcceptsUncertainty Dimension = "accepts_uncertainty"
	Utilitarian        Dimension = "utilitarian"
	PrefersHumans      Dimension = "prefers_humans"
)

// Dimensions lists every scored dimension in report order
var Dimensions = []Dimension{
	PrefersYounger,
	PrefersMore,
	AvoidsAction,
	PrefersKnown,
	AcceptsUncertainty,
	Utilitarian,
	PrefersHumans,
}

// Label returns a human-readable name for the dimension
func (d Dimension) Label() string {
	switch d {
	case PrefersYounger:
		return "Prefers saving younger people"
	case PrefersMore:
		return "Prefers saving more lives"
	case AvoidsAction:
		return "Avoids direct action"
	case PrefersKnown:
		return "Protects people they know"
	case AcceptsUncertainty:
		return "Accepts uncertain outcomes"
	case Utilitarian:
		return "Utilitarian"
	case PrefersHumans:
		return "Prefers humans over animals"
	default:
		return string(d)
	}
}

// Scores holds raw per-dimension counts over a history of N choices.
// Scores are derived data: always rebuilt from the full history, never stored on their own.
type Scores struct {
	Counts map[Dimension]int `json:"counts"`
	N      int               `json:"n"`
}

// NewScores creates zeroed scores for a history of length n
func NewScores(n int) *Scores {
	counts := make(map[Dimension]int, len(Dimensions))
	for _, d := range Dimensions {
		counts[d] = 0
	}
	return &Scores{Counts: counts, N: n}
}

// Count returns the raw count for a dimension; nil scores count as zero
func (s *Scores) Count(d Dimension) int {
	if s == nil {
		return 0
	}
	return s.Counts[d]
}

// Len returns the history length the scores were computed from
func (s *Scores) Len() int {
	if s == nil {
		return 0
	}
	return s.N
}

// Ratio returns count / N in [0,1]. An empty history yields 0.
func (s *Scores) Ratio(d Dimension) float64 {
	if s == nil || s.N == 0 {
		return 0
	}
	return float64(s.Counts[d]) / float64(s.N)
}

// Exceeds reports whether count > threshold * N (strictly)
func (s *Scores) Exceeds(d Dimension, threshold float64) bool {
	if s == nil || s.N == 0 {
		return false
	}
	return float64(s.Counts[d]) > threshold*float64(s.N)
}

// Normalized returns every dimension divided by N
func (s *Scores) Normalized() map[Dimension]float64 {
	out := make(map[Dimension]float64, len(Dimensions))
	for _, d := range Dimensions {
		out[d] = s.Ratio(d)
	}
	return out
}

// Percentages returns rounded whole percentages. Division happens before scaling and rounding.
func (s *Scores) Percentages() map[Dimension]int {
	out := make(map[Dimension]int, len(Dimensions))
	for _, d := range Dimensions {
		out[d] = int(math.Round(s.Ratio(d) * 100))
	}
	return out
}

// Entry is one line of an ordered score summary
type Entry struct {
	Dimension Dimension `json:"dimension"`
	Label     string    `json:"label"`
	Count     int       `json:"count"`
	Ratio     float64   `json:"ratio"`
	Percent   int       `json:"percent"`
}
