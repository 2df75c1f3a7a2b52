package scenario

import (
	"fmt"
	"strings"

	"moralsim/domain/core"
	"moralsim/domain/pattern"
)

// TemplateID identifies a catalog template
type TemplateID string

const (
	TemplateClassic     TemplateID = "classic"
	TemplateBridge      TemplateID = "bridge"
	TemplateLoop        TemplateID = "loop"
	TemplateLargePerson TemplateID = "large_person"
	TemplateTransplant  TemplateID = "transplant"
	TemplateSpecies     TemplateID = "species"
	TemplateProbability TemplateID = "probability"
)

func (id TemplateID) String() string { return string(id) }

// Probe names the moral variable a template isolates
type Probe string

const (
	ProbeQuantity           Probe = "quantity"
	ProbeAge                Probe = "age"
	ProbeCertainty          Probe = "certainty"
	ProbePersonalHarm       Probe = "personal_harm"
	ProbeRelationship       Probe = "relationship"
	ProbeAction             Probe = "action"
	ProbeSpecies            Probe = "species"
	ProbeProfessionalEthics Probe = "professional_ethics"
)

// Label is the respondent-facing option letter
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
)

// ParseLabel accepts "a"/"b" in any case with surrounding whitespace
func ParseLabel(s string) (Label, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return LabelA, nil
	case "B":
		return LabelB, nil
	default:
		return "", fmt.Errorf("%w: got %q", core.ErrInvalidChoice, s)
	}
}

// OptionMetadata tags an option with the facts the analyzer scores.
// Headcounts match the numbers in the rendered text exactly.
type OptionMetadata struct {
	Deaths                    int     `json:"lives_lost"`
	Saved                     int     `json:"lives_saved"`
	AnimalDeaths              int     `json:"animal_deaths,omitempty"`
	ExpectedDeaths            float64 `json:"expected_deaths"`
	AlternativeExpectedDeaths float64 `json:"alternative_expected_deaths"`
	Inaction                  bool    `json:"inaction"`
	PersonalHarm              bool    `json:"personal_harm"`
	Uncertain                 bool    `json:"uncertain"`
	SparesYounger             bool    `json:"spares_younger"`
	SparesKnown               bool    `json:"spares_known"`
	SparesHumans              bool    `json:"spares_humans"`
	Utilitarian               bool    `json:"utilitarian"`
	ProfessionalViolation     bool    `json:"professional_violation"`
}

// SavesMore reports whether the option strictly lowers expected deaths
func (m OptionMetadata) SavesMore() bool {
	return m.ExpectedDeaths < m.AlternativeExpectedDeaths
}

// Option is one of the two answers to a scenario
type Option struct {
	Label       Label          `json:"label"`
	Action      string         `json:"action"`
	Consequence string         `json:"consequence"`
	Metadata    OptionMetadata `json:"metadata"`
}

// Source records who wrote the narrative text
type Source string

const (
	SourceCatalog  Source = "catalog"
	SourceProvider Source = "provider"
)

// Rule records why a template was selected
type Rule string

const (
	RuleBaseline  Rule = "baseline"
	RuleChallenge Rule = "challenge"
	RuleRotation  Rule = "rotation"
)

// Scenario is one rendered dilemma presented to a respondent
type Scenario struct {
	ID         core.ScenarioID   `json:"id"`
	TemplateID TemplateID        `json:"template_id"`
	Title      string            `json:"title"`
	Context    string            `json:"context"`
	OptionA    Option            `json:"option_a"`
	OptionB    Option            `json:"option_b"`
	Params     Params            `json:"params"`
	Probes     []Probe           `json:"probes"`
	Source     Source            `json:"source"`
	Note       string            `json:"note,omitempty"`
	Rule       Rule              `json:"rule,omitempty"`
	Challenges pattern.Dimension `json:"challenges,omitempty"`
	CreatedAt  core.Timestamp    `json:"created_at"`
}

// Option returns the option with the given label
func (s *Scenario) Option(l Label) (Option, error) {
	switch l {
	case LabelA:
		return s.OptionA, nil
	case LabelB:
		return s.OptionB, nil
	default:
		return Option{}, fmt.Errorf("%w: got %q", core.ErrInvalidChoice, l)
	}
}

// Adaptive reports whether the scenario was picked in response to earlier choices
func (s *Scenario) Adaptive() bool {
	return s.Rule == RuleChallenge || s.Rule == RuleRotation
}
