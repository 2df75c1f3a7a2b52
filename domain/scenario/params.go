package scenario

import (
	"sort"
	"strings"
)

// ParamKind controls how a parameter is drawn and whether it appears in text
type ParamKind string

const (
	KindCount   ParamKind = "count"
	KindPercent ParamKind = "percent"
	KindLabel   ParamKind = "label"
	KindVariant ParamKind = "variant" // phrasing selector, never rendered as a number
)

// ParamSpec bounds one template parameter. Counts are drawn uniformly from
// [Min, Max]; labels uniformly from Choices. When the template is challenging
// the respondent's dominant tendency the Challenge* fields narrow the draw.
type ParamSpec struct {
	Name             string    `json:"name"`
	Kind             ParamKind `json:"kind"`
	Min              int       `json:"min,omitempty"`
	Max              int       `json:"max,omitempty"`
	Choices          []string  `json:"choices,omitempty"`
	ChallengeMin     int       `json:"challenge_min,omitempty"`
	ChallengeMax     int       `json:"challenge_max,omitempty"`
	ChallengeChoices []string  `json:"challenge_choices,omitempty"`
}

// Bounds returns the inclusive range to draw from
func (p ParamSpec) Bounds(challenged bool) (int, int) {
	if challenged && p.ChallengeMax > 0 {
		return p.ChallengeMin, p.ChallengeMax
	}
	return p.Min, p.Max
}

// Pool returns the label choices to draw from
func (p ParamSpec) Pool(challenged bool) []string {
	if challenged && len(p.ChallengeChoices) > 0 {
		return p.ChallengeChoices
	}
	return p.Choices
}

// Numeric reports whether the parameter appears as a number in rendered text
func (p ParamSpec) Numeric() bool {
	return p.Kind == KindCount || p.Kind == KindPercent
}

// Params holds one instantiation's drawn values
type Params struct {
	Counts map[string]int    `json:"counts"`
	Labels map[string]string `json:"labels"`
}

// NewParams creates empty params
func NewParams() Params {
	return Params{Counts: make(map[string]int), Labels: make(map[string]string)}
}

// Count returns a drawn count, 0 if absent
func (p Params) Count(name string) int { return p.Counts[name] }

// Label returns a drawn label, "" if absent
func (p Params) Label(name string) string { return p.Labels[name] }

// SetCount stores a count
func (p Params) SetCount(name string, v int) { p.Counts[name] = v }

// SetLabel stores a label
func (p Params) SetLabel(name, v string) { p.Labels[name] = v }

// String renders params as sorted key=value pairs for logs and prompts
func (p Params) String() string {
	parts := make([]string, 0, len(p.Counts)+len(p.Labels))
	for k, v := range p.Counts {
		parts = append(parts, k+"="+itoa(v))
	}
	for k, v := range p.Labels {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// Age brackets ordered youngest first; the index is the age rank.
var AgeBrackets = []string{
	"children (8-12)",
	"teenagers (13-17)",
	"young adults (25-35)",
	"middle-aged adults (40-55)",
	"elderly people (65+)",
}

var singularAges = map[string]string{
	"children (8-12)":            "a child",
	"teenagers (13-17)":          "a teenager",
	"young adults (25-35)":       "a young adult",
	"middle-aged adults (40-55)": "a middle-aged adult",
	"elderly people (65+)":       "an elderly person",
}

// AgeRank returns the bracket index of an age label, -1 when unknown
func AgeRank(label string) int {
	for i, a := range AgeBrackets {
		if a == label {
			return i
		}
	}
	return -1
}

// Younger reports whether age label a is strictly younger than b.
// Unknown labels never compare as younger.
func Younger(a, b string) bool {
	ra, rb := AgeRank(a), AgeRank(b)
	if ra < 0 || rb < 0 {
		return false
	}
	return ra < rb
}

// SingularAge turns a bracket into a single-person phrase
func SingularAge(label string) string {
	if s, ok := singularAges[label]; ok {
		return s
	}
	return "a person"
}

// Group relations describe how the respondent knows a group of people.
var GroupRelations = []string{"strangers", "coworkers", "friends of yours", "members of your family"}

// Person relations describe how the respondent knows a single person.
var PersonRelations = []string{"a stranger", "your coworker", "your friend", "a member of your family"}

// IsKnown reports whether a relation label denotes someone the respondent knows
func IsKnown(relation string) bool {
	switch relation {
	case "", "strangers", "a stranger":
		return false
	default:
		return true
	}
}

// AnimalTypes used by the species template
var AnimalTypes = []string{"dogs", "cats", "horses", "endangered gorillas"}
